package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rgsons/storeops/internal/rbac"
	"github.com/rgsons/storeops/internal/shared"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(sess shared.Session) (string, error)
}

// TokenOptions defines the flags of the token command.
type TokenOptions struct {
	UserName   string
	Role       string
	StoreCode  string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

type tokenOutput struct {
	Token     string `json:"token"`
	UserName  string `json:"userName"`
	Role      string `json:"role"`
	StoreCode string `json:"storeCode,omitempty"`
}

// TokenCommand prints a bearer token for the given identity. Login flows
// live outside this service, so operators and integration tests mint tokens
// here.
func TokenCommand(issuer TokenIssuer, opts TokenOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	role := strings.ToUpper(strings.TrimSpace(opts.Role))
	if role == "" {
		role = rbac.RoleUser
	}
	if !rbac.HasAnyRole(role, rbac.RoleAdmin, rbac.RoleUser) {
		_, _ = fmt.Fprintf(opts.Stderr, "token: unknown role %q\n", opts.Role)
		return 1
	}
	sess := shared.Session{
		UserName:  strings.TrimSpace(opts.UserName),
		Role:      role,
		StoreCode: strings.TrimSpace(opts.StoreCode),
	}
	token, err := issuer.Issue(sess)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "token: %v\n", err)
		return 1
	}
	if !opts.JSONOutput {
		_, _ = fmt.Fprintln(opts.Stdout, token)
		return 0
	}
	out := tokenOutput{Token: token, UserName: sess.UserName, Role: sess.Role, StoreCode: sess.StoreCode}
	if err := json.NewEncoder(opts.Stdout).Encode(out); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "token: encode json: %v\n", err)
		return 1
	}
	return 0
}
