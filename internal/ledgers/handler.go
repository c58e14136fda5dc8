package ledgers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rgsons/storeops/internal/platform/httpx"
)

// Handler exposes ledger master and ordering endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/screen/{screen}", h.listByScreen)
	r.Get("/type/{type}", h.listByType)
	r.Get("/filter", h.filter)
	r.Get("/types", h.types)
	r.Get("/screens", h.screens)
	r.Get("/order", h.orderView)
	r.Post("/order", h.updateOrder)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	h.respond(w, r, out, err)
}

func (h *Handler) listByScreen(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListByScreen(r.Context(), chi.URLParam(r, "screen"))
	h.respond(w, r, out, err)
}

func (h *Handler) listByType(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListByType(r.Context(), chi.URLParam(r, "type"))
	h.respond(w, r, out, err)
}

func (h *Handler) filter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.ListActive(r.Context(), q.Get("type"), q.Get("screen"))
	h.respond(w, r, out, err)
}

func (h *Handler) types(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Types(r.Context())
	h.respond(w, r, out, err)
}

func (h *Handler) screens(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Screens(r.Context())
	h.respond(w, r, out, err)
}

func (h *Handler) orderView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.OrderView(r.Context(), q.Get("type"), q.Get("screen"))
	h.respond(w, r, out, err)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if err := httpx.DecodeJSON(w, r, &ids); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.UpdateOrder(r.Context(), ids)
	h.respond(w, r, out, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Get(r.Context(), id)
	h.respond(w, r, out, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Update(r.Context(), id, in)
	h.respond(w, r, out, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Delete(r.Context(), id)
	h.respond(w, r, out, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, body any, err error) {
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("ledger request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, body)
}
