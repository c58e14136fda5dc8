package qualities

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rgsons/storeops/internal/platform/httpx"
)

// Handler exposes the quality master endpoints.
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

// MountRoutes registers quality routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/active", h.active)
	r.Get("/status/{status}", h.byStatus)
	r.Get("/code/{code}", h.byCode)
	r.Get("/exists/{code}", h.exists)
	r.Get("/search/advanced", h.search)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.deactivate)
	r.Delete("/hard/{id}", h.hardDelete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Qualities retrieved successfully",
		"qualities": out,
		"count":     len(out),
	})
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListActive(r.Context())
	h.respond(w, r, out, err)
}

func (h *Handler) byStatus(w http.ResponseWriter, r *http.Request) {
	status, err := strconv.ParseBool(chi.URLParam(r, "status"))
	if err != nil {
		h.fail(w, r, httpx.NewError(httpx.ErrValidation, "invalid status"))
		return
	}
	out, err := h.service.ListByStatus(r.Context(), status)
	h.respond(w, r, out, err)
}

func (h *Handler) byCode(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	h.respond(w, r, out, err)
}

func (h *Handler) exists(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Exists(r.Context(), chi.URLParam(r, "code"))
	h.respond(w, r, out, err)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var status *bool
	if raw := q.Get("status"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.fail(w, r, httpx.NewError(httpx.ErrValidation, "invalid status"))
			return
		}
		status = &v
	}
	out, err := h.service.Search(r.Context(), q.Get("name"), status)
	h.respond(w, r, out, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Get(r.Context(), id)
	h.respond(w, r, out, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Quality created successfully",
		"quality": out,
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Update(r.Context(), id, in)
	h.respond(w, r, out, err)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) hardDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, body any, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, body)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpx.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("quality request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.JSON(w, status, map[string]any{"success": false, "message": httpx.UserMessage(err)})
}
