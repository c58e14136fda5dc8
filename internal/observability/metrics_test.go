package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `storeops_http_requests_total{code="418",route="/test"} 1`)
	require.Contains(t, body, `storeops_http_request_duration_seconds_bucket{route="/test"`)
}

func TestVoucherIssuedCounter(t *testing.T) {
	metrics := NewMetrics()
	metrics.VoucherIssued("PURCHASE", nil)
	metrics.VoucherIssued("PURCHASE", nil)
	metrics.VoucherIssued("SALE", errors.New("boom"))

	body := scrape(t, metrics)
	require.Contains(t, body, `storeops_vouchers_issued_total{outcome="ok",voucher_type="PURCHASE"} 2`)
	require.Contains(t, body, `storeops_vouchers_issued_total{outcome="error",voucher_type="SALE"} 1`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.VoucherIssued("PURCHASE", nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	require.NotNil(t, metrics.Middleware(next))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.False(t, strings.Contains(rr.Body.String(), "storeops_"))
}
