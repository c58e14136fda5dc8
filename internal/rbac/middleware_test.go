package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rgsons/storeops/internal/shared"
)

func serve(t *testing.T, sess *shared.Session, roles ...string) int {
	t.Helper()
	h := Middleware{}.RequireAny(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRequireAny(t *testing.T) {
	require.Equal(t, http.StatusNoContent, serve(t, &shared.Session{UserName: "a", Role: "admin"}, RoleAdmin))
	require.Equal(t, http.StatusForbidden, serve(t, &shared.Session{UserName: "u", Role: "USER"}, RoleAdmin))
	require.Equal(t, http.StatusUnauthorized, serve(t, nil, RoleAdmin))
	require.Equal(t, http.StatusNoContent, serve(t, nil), "no roles required")
}

func TestHasAnyRole(t *testing.T) {
	require.True(t, HasAnyRole(" user ", RoleAdmin, RoleUser))
	require.False(t, HasAnyRole("", RoleAdmin))
}
