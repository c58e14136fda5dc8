package reports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/rgsons/storeops/internal/rbac"
	"github.com/rgsons/storeops/internal/shared"
	_ "github.com/rgsons/storeops/testing"
)

func newTestRouter(t *testing.T, sess *shared.Session) (http.Handler, *fakeRepo) {
	t.Helper()
	repo := sampleRepo()
	svc := newTestService(t, repo)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if sess != nil {
				req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api/reports", NewHandler(svc, nil, rbac.Middleware{}, time.UTC).MountRoutes)
	return r, repo
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHandlerClosingStock(t *testing.T) {
	h, repo := newTestRouter(t, &shared.Session{UserName: "u", Role: rbac.RoleUser})

	rr := get(t, h, "/api/reports/closing-stock?zone=North&valuationMethod=sale")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "SALE_PRICE", body["valuationMethod"])
	require.Equal(t, 1750.0, body["totalAmount"])
	require.Equal(t, "North", repo.lastStock.Zone)

	rr = get(t, h, "/api/reports/closing-stock?valuationMethod=cost")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerLookups(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := get(t, h, "/api/reports/closing-stock/zones")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `["North","South"]`, rr.Body.String())

	rr = get(t, h, "/api/reports/closing-stock/districts?zone=North")
	require.JSONEq(t, `["Agra"]`, rr.Body.String())

	rr = get(t, h, "/api/reports/closing-stock/columns")
	require.JSONEq(t, `["Shirts","Trousers"]`, rr.Body.String())
}

func TestHandlerDetailedFallsBackToSessionStore(t *testing.T) {
	h, _ := newTestRouter(t, &shared.Session{UserName: "u", Role: rbac.RoleUser, StoreCode: "S01"})

	rr := get(t, h, "/api/reports/closing-stock/detailed")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body DetailedReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "S01", body.StoreCode)

	anon, _ := newTestRouter(t, nil)
	rr = get(t, anon, "/api/reports/closing-stock/detailed")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerExportsWorkbook(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	for _, path := range []string{
		"/api/reports/closing-stock/export",
		"/api/reports/closing-stock/export?storeCode=S01",
		"/api/reports/stock-transfer/export?from=2026-03-01&to=2026-03-10",
	} {
		rr := get(t, h, path)
		require.Equal(t, http.StatusOK, rr.Code, path)
		require.Equal(t, XLSXContentType, rr.Header().Get("Content-Type"))
		require.Contains(t, rr.Header().Get("Content-Disposition"), "attachment; filename=")
		require.Equal(t, strconv.Itoa(rr.Body.Len()), rr.Header().Get("Content-Length"))
		require.NotZero(t, rr.Body.Len())
	}
}

func TestHandlerStockTransferDates(t *testing.T) {
	h, repo := newTestRouter(t, nil)

	rr := get(t, h, "/api/reports/stock-transfer?from=2026-02-01&to=2026-02-28&toStore=S02")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "S02", repo.lastTransfer.ToStore)
	require.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), repo.lastTransfer.To)

	rr = get(t, h, "/api/reports/stock-transfer?from=01-02-2026")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = get(t, h, "/api/reports/stock-transfer?from=2026-03-02&to=2026-03-01")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerCacheInvalidateRequiresAdmin(t *testing.T) {
	h, _ := newTestRouter(t, &shared.Session{UserName: "u", Role: rbac.RoleUser})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/reports/cache/invalidate", nil))
	require.Equal(t, http.StatusForbidden, rr.Code)

	admin, _ := newTestRouter(t, &shared.Session{UserName: "boss", Role: rbac.RoleAdmin})
	rr = httptest.NewRecorder()
	admin.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/reports/cache/invalidate", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"version":1}`, rr.Body.String())
}
