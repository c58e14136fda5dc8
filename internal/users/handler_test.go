package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/rgsons/storeops/internal/rbac"
	"github.com/rgsons/storeops/internal/shared"
	_ "github.com/rgsons/storeops/testing"
)

func newTestRouter(t *testing.T, role string) (http.Handler, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{UserName: "tester", Role: role}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/api/users", NewHandler(nil, svc, rbac.Middleware{}).MountRoutes)
	return r, repo
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, &buf))
	return rr
}

func TestHandlerCreateNeverReturnsPassword(t *testing.T) {
	h, _ := newTestRouter(t, rbac.RoleAdmin)

	rr := do(t, h, http.MethodPost, "/api/users", validInput())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NotContains(t, rr.Body.String(), "password")
	require.NotContains(t, rr.Body.String(), "secret123")

	rr = do(t, h, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "counter1", out[0]["userName"])
	require.NotContains(t, out[0], "password")
}

func TestHandlerMutationsRequireAdmin(t *testing.T) {
	h, repo := newTestRouter(t, rbac.RoleUser)

	rr := do(t, h, http.MethodPost, "/api/users", validInput())
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Empty(t, repo.rows)

	rr = do(t, h, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHandlerValidationAndLookups(t *testing.T) {
	h, _ := newTestRouter(t, rbac.RoleAdmin)

	in := validInput()
	in.Mobile = "123"
	rr := do(t, h, http.MethodPost, "/api/users", in)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "mobile")

	rr = do(t, h, http.MethodPost, "/api/users", validInput())
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/users/check-username/counter1", nil)
	require.JSONEq(t, `{"available":false}`, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/api/users/role/user", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var out []User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)

	rr = do(t, h, http.MethodPut, "/api/users/1/deactivate", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"id":1,"status":false}`, rr.Body.String())

	rr = do(t, h, http.MethodDelete, "/api/users/1", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/users/1", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
