package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rgsons/storeops/cmd/storeops/cli"
	"github.com/rgsons/storeops/internal/app"
	"github.com/rgsons/storeops/internal/ledgers"
	"github.com/rgsons/storeops/internal/observability"
	"github.com/rgsons/storeops/internal/platform/cache"
	"github.com/rgsons/storeops/internal/platform/db"
	"github.com/rgsons/storeops/internal/qualities"
	"github.com/rgsons/storeops/internal/rbac"
	"github.com/rgsons/storeops/internal/reports"
	"github.com/rgsons/storeops/internal/shared"
	"github.com/rgsons/storeops/internal/users"
	"github.com/rgsons/storeops/internal/voucher"
	"github.com/rgsons/storeops/jobs"
)

const usage = `usage: storeops [command]

commands:
  serve                  run the HTTP API (default)
  token -user NAME       print a session token (-role ADMIN|USER, -store CODE, -json)
  jobs trigger NAME      enqueue voucher:sequence-prune or maintenance:idempotency-cleanup
  jobs stats             print default queue counters
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		if err := serve(cfg, logger); err != nil {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	case "token":
		os.Exit(runToken(cfg, args))
	case "jobs":
		os.Exit(runJobs(cfg, args))
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func serve(cfg *app.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Reports fall back to uncached loads and vouchers to the row lock.
		logger.Warn("redis unavailable, continuing without cache and locks", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	sequences := shared.NewSequenceGenerator(pool)
	signer := shared.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	voucherService := voucher.NewService(voucher.NewRepository(pool), voucher.ServiceConfig{
		Audit:       auditLogger,
		Idempotency: idempotencyStore,
		Locker:      cache.NewLocker(redisClient),
		LockTTL:     cfg.VoucherLockTTL,
		Observer:    metrics,
		Location:    loc,
		Logger:      logger,
	})
	ledgerService := ledgers.NewService(ledgers.NewRepository(pool), sequences, auditLogger, logger)
	qualityService := qualities.NewService(qualities.NewRepository(pool), sequences, logger)
	userService := users.NewService(users.NewRepository(pool), auditLogger, cfg.PhoneRegion, logger)
	reportService := reports.NewService(reports.NewRepository(pool), reports.ServiceConfig{
		Cache:    reports.NewCache(redisClient, cfg.ReportCacheTTL),
		Location: loc,
		Logger:   logger,
	})

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Signer:         signer,
		Metrics:        metrics,
		DB:             pool,
		VoucherHandler: voucher.NewHandler(voucherService, logger),
		LedgerHandler:  ledgers.NewHandler(ledgerService, logger),
		QualityHandler: qualities.NewHandler(qualityService, logger),
		UserHandler:    users.NewHandler(logger, userService, rbacMiddleware),
		ReportHandler:  reports.NewHandler(reportService, logger, rbacMiddleware, loc),
		JobHandler:     jobHandler,
		RBAC:           rbacMiddleware,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func runToken(cfg *app.Config, args []string) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	user := fs.String("user", "", "user name carried in the token")
	role := fs.String("role", rbac.RoleUser, "ADMIN or USER")
	store := fs.String("store", "", "store code of the caller")
	asJSON := fs.Bool("json", false, "print JSON instead of the bare token")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	signer := shared.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL)
	return cli.TokenCommand(signer, cli.TokenOptions{
		UserName:   *user,
		Role:       *role,
		StoreCode:  *store,
		JSONOutput: *asJSON,
	})
}

func runJobs(cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	jc := cli.NewJobsCLI(cfg.RedisAddr, map[string]time.Duration{
		jobs.TaskSequencePrune:      cfg.SequenceRetention,
		jobs.TaskIdempotencyCleanup: cfg.IdempotencyRetention,
	})
	defer func() { _ = jc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	switch {
	case args[0] == "trigger" && len(args) == 2:
		info, err := jc.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case args[0] == "stats":
		stats, err := jc.InspectQueue()
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	return 0
}
