package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rgsons/storeops/internal/ledgers"
	"github.com/rgsons/storeops/internal/observability"
	"github.com/rgsons/storeops/internal/platform/httpx"
	"github.com/rgsons/storeops/internal/qualities"
	"github.com/rgsons/storeops/internal/rbac"
	"github.com/rgsons/storeops/internal/reports"
	"github.com/rgsons/storeops/internal/shared"
	"github.com/rgsons/storeops/internal/users"
	"github.com/rgsons/storeops/internal/voucher"
	"github.com/rgsons/storeops/jobs"
)

// Pinger reports dependency health for the status endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Signer  *shared.SessionSigner
	Metrics *observability.Metrics
	DB      Pinger
	Now     func() time.Time

	VoucherHandler *voucher.Handler
	LedgerHandler  *ledgers.Handler
	QualityHandler *qualities.Handler
	UserHandler    *users.Handler
	ReportHandler  *reports.Handler
	JobHandler     *jobs.Handler
	RBAC           rbac.Middleware
}

// NewRouter constructs the chi.Router with storeops defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		status := "UP"
		code := http.StatusOK
		if params.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.DB.Ping(ctx); err != nil {
				params.Logger.Warn("status check: database unreachable", slog.Any("error", err))
				status, code = "DEGRADED", http.StatusServiceUnavailable
			}
		}
		httpx.JSON(w, code, map[string]any{
			"status":  status,
			"service": ServiceName,
			"time":    now().UTC().Format(time.RFC3339),
		})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(SessionMiddleware(params.Signer, params.Logger))
		if params.VoucherHandler != nil {
			api.Route("/voucher-config", params.VoucherHandler.MountRoutes)
		}
		if params.LedgerHandler != nil {
			api.Route("/ledgers", params.LedgerHandler.MountRoutes)
		}
		if params.QualityHandler != nil {
			api.Route("/qualities", params.QualityHandler.MountRoutes)
		}
		if params.UserHandler != nil {
			api.Route("/users", params.UserHandler.MountRoutes)
		}
		if params.ReportHandler != nil {
			api.Route("/reports", params.ReportHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			api.With(params.RBAC.RequireAny(rbac.RoleAdmin)).Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
