package voucher

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rgsons/storeops/internal/platform/httpx"
	"github.com/rgsons/storeops/internal/shared"
)

// Handler exposes voucher configuration endpoints. Responses keep the
// {success, ...} envelope the configuration screen expects.
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

// MountRoutes registers voucher routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{voucherType}", h.getConfig)
	r.Post("/save", h.saveConfig)
	r.Post("/preview", h.preview)
	r.Post("/next", h.next)
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	t, err := ParseVoucherType(chi.URLParam(r, "voucherType"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cfg, err := h.service.GetConfig(r.Context(), t)
	if errors.Is(err, ErrConfigNotFound) {
		httpx.JSON(w, http.StatusOK, map[string]any{"success": false, "message": ErrConfigNotFound.Error()})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "config": cfg})
}

func (h *Handler) saveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := httpx.DecodeJSON(w, r, &cfg); err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.service.SaveConfig(r.Context(), cfg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"config":  saved,
		"message": "Configuration saved successfully",
	})
}

type previewRequest struct {
	VoucherType string  `json:"voucherType"`
	StoreCode   string  `json:"storeCode"`
	Config      *Config `json:"config,omitempty"`
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Config != nil {
		if err := Validate(*req.Config); err != nil {
			h.fail(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "preview": h.service.PreviewConfig(*req.Config, req.StoreCode)})
		return
	}
	t, err := ParseVoucherType(req.VoucherType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	preview, err := h.service.Preview(r.Context(), t, req.StoreCode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "preview": preview})
}

type nextRequest struct {
	VoucherType string `json:"voucherType"`
	StoreCode   string `json:"storeCode"`
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	var req nextRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := ParseVoucherType(req.VoucherType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	storeCode := req.StoreCode
	if storeCode == "" {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			storeCode = sess.StoreCode
		}
	}
	issued, err := h.service.NextNumber(r.Context(), NextNumberInput{
		VoucherType:    t,
		StoreCode:      storeCode,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"voucherNumber": issued.VoucherNumber,
		"sequence":      issued.Sequence,
		"resetKey":      issued.ResetKey,
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpx.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("voucher request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.JSON(w, status, map[string]any{"success": false, "message": httpx.UserMessage(err)})
}
