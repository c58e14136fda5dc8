package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rgsons/storeops/internal/platform/httpx"
	"github.com/rgsons/storeops/internal/rbac"
	"github.com/rgsons/storeops/internal/shared"
	"github.com/rgsons/storeops/internal/voucher"
)

// Handler exposes report endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
	rbac    rbac.Middleware
	loc     *time.Location
}

// NewHandler constructs the handler. loc interprets date query parameters.
func NewHandler(service *Service, logger *slog.Logger, rbac rbac.Middleware, loc *time.Location) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, logger: logger, rbac: rbac, loc: loc}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/closing-stock", func(r chi.Router) {
		r.Get("/", h.closingStock)
		r.Get("/zones", h.zones)
		r.Get("/districts", h.districts)
		r.Get("/columns", h.columns)
		r.Get("/detailed", h.detailed)
		r.Get("/export", h.exportClosingStock)
	})
	r.Route("/stock-transfer", func(r chi.Router) {
		r.Get("/", h.stockTransfer)
		r.Get("/export", h.exportStockTransfer)
	})
	r.With(h.rbac.RequireAny(rbac.RoleAdmin)).Post("/cache/invalidate", h.invalidate)
}

func (h *Handler) zones(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Zones(r.Context())
	h.respond(w, r, out, err)
}

func (h *Handler) districts(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Districts(r.Context(), r.URL.Query().Get("zone"))
	h.respond(w, r, out, err)
}

func (h *Handler) columns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.Columns(r.Context(), q.Get("zone"), q.Get("district"))
	h.respond(w, r, out, err)
}

func closingFilter(r *http.Request) (ClosingStockFilter, error) {
	q := r.URL.Query()
	method, err := voucher.ParsePricingMethod(q.Get("valuationMethod"))
	if err != nil {
		return ClosingStockFilter{}, fmt.Errorf("%w: %q", ErrUnknownPricing, q.Get("valuationMethod"))
	}
	return ClosingStockFilter{Zone: q.Get("zone"), District: q.Get("district"), Method: method}, nil
}

func (h *Handler) closingStock(w http.ResponseWriter, r *http.Request) {
	f, err := closingFilter(r)
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	out, err := h.service.ClosingStock(r.Context(), f)
	h.respond(w, r, out, err)
}

// storeCode falls back to the caller's store.
func storeCode(r *http.Request) string {
	if code := r.URL.Query().Get("storeCode"); code != "" {
		return code
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.StoreCode
	}
	return ""
}

func (h *Handler) detailed(w http.ResponseWriter, r *http.Request) {
	f, err := closingFilter(r)
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	out, err := h.service.Detailed(r.Context(), storeCode(r), f.Method)
	h.respond(w, r, out, err)
}

func (h *Handler) exportClosingStock(w http.ResponseWriter, r *http.Request) {
	f, err := closingFilter(r)
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	out, err := h.service.ExportClosingStock(r.Context(), f, r.URL.Query().Get("storeCode"))
	h.sendFile(w, r, out, err)
}

func (h *Handler) transferFilter(r *http.Request) (TransferFilter, error) {
	q := r.URL.Query()
	f := TransferFilter{FromStore: q.Get("fromStore"), ToStore: q.Get("toStore")}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			return TransferFilter{}, ErrInvalidDate
		}
		*p.dst = t
	}
	return f, nil
}

func (h *Handler) stockTransfer(w http.ResponseWriter, r *http.Request) {
	f, err := h.transferFilter(r)
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	out, err := h.service.StockTransfers(r.Context(), f)
	h.respond(w, r, out, err)
}

func (h *Handler) exportStockTransfer(w http.ResponseWriter, r *http.Request) {
	f, err := h.transferFilter(r)
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	out, err := h.service.ExportStockTransfers(r.Context(), f)
	h.sendFile(w, r, out, err)
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	ver, err := h.service.InvalidateCache(r.Context())
	h.respond(w, r, map[string]int64{"version": ver}, err)
}

func (h *Handler) sendFile(w http.ResponseWriter, r *http.Request, out Export, err error) {
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		h.logger.Warn("report export write", slog.Any("error", err))
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, body any, err error) {
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("report request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, body)
}
