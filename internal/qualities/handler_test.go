package qualities

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	_ "github.com/rgsons/storeops/testing"
)

func newTestRouter(t *testing.T) (http.Handler, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo(seed()...)
	r := chi.NewRouter()
	r.Route("/api/qualities", NewHandler(newTestService(repo), nil).MountRoutes)
	return r, repo
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerListEnvelope(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/qualities", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var env struct {
		Success   bool      `json:"success"`
		Count     int       `json:"count"`
		Qualities []Quality `json:"qualities"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.Equal(t, 3, env.Count)
	require.Len(t, env.Qualities, 3)
}

func TestHandlerCreateDuplicateAndValidation(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/api/qualities", map[string]any{"qualityName": "Rayon"})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"qualityCode":"10000"`)

	rr = do(t, h, http.MethodPost, "/api/qualities", map[string]any{"qualityName": "Rayon", "qualityCode": "Q1"})
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), `"success":false`)

	rr = do(t, h, http.MethodPost, "/api/qualities", map[string]any{"qualityCode": "Z"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerLookups(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/api/qualities/code/Q2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Silk")

	rr = do(t, h, http.MethodGet, "/api/qualities/code/missing", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/qualities/exists/Q1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, "true", rr.Body.String())

	rr = do(t, h, http.MethodGet, "/api/qualities/search/advanced?name=cot&status=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var out []Quality
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)

	rr = do(t, h, http.MethodGet, "/api/qualities/status/maybe", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerSoftAndHardDelete(t *testing.T) {
	h, repo := newTestRouter(t)

	rr := do(t, h, http.MethodDelete, "/api/qualities/2", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.False(t, repo.rows[2].Status)

	rr = do(t, h, http.MethodDelete, "/api/qualities/hard/2", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotContains(t, repo.rows, int64(2))

	rr = do(t, h, http.MethodDelete, "/api/qualities/hard/2", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
