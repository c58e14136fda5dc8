// Package rbac guards routes by the role carried in the caller's session.
package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/rgsons/storeops/internal/platform/httpx"
	"github.com/rgsons/storeops/internal/shared"
)

// Known roles.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Middleware wires role checks for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the session role matches one of roles (case-insensitive).
func (m Middleware) RequireAny(roles ...string) func(http.Handler) http.Handler {
	normalized := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if HasAnyRole(sess.Role, normalized...) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied",
					slog.String("user", sess.UserName),
					slog.String("role", sess.Role),
					slog.String("path", r.URL.Path),
				)
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}

// HasAnyRole reports whether role is one of allowed.
func HasAnyRole(role string, allowed ...string) bool {
	role = strings.ToUpper(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToUpper(a) == role {
			return true
		}
	}
	return false
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
