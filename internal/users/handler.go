package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rgsons/storeops/internal/platform/httpx"
	"github.com/rgsons/storeops/internal/rbac"
)

// Handler manages user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers user routes. Reads are open to any session; changes
// need the admin role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/role/{role}", h.listByRole)
	r.Get("/check-username/{userName}", h.checkUserName)
	r.Get("/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.RoleAdmin))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Put("/{id}/activate", h.activate)
		r.Put("/{id}/deactivate", h.deactivate)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) listByRole(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListByRole(r.Context(), chi.URLParam(r, "role"))
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) checkUserName(w http.ResponseWriter, r *http.Request) {
	available, err := h.service.UsernameAvailable(r.Context(), chi.URLParam(r, "userName"))
	h.respond(w, r, http.StatusOK, map[string]bool{"available": available}, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Get(r.Context(), id)
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Create(r.Context(), in)
	h.respond(w, r, http.StatusCreated, out, err)
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
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request)   { h.setActive(w, r, true) }
func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) { h.setActive(w, r, false) }

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	err = h.service.SetActive(r.Context(), id, active)
	h.respond(w, r, http.StatusOK, map[string]any{"id": id, "status": active}, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respond(w, r, 0, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, body any, err error) {
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("user request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, status, body)
}
