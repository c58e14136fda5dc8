package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/rgsons/storeops/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SequencePruner deletes stale voucher counters.
type SequencePruner interface {
	PruneSequences(ctx context.Context, retention time.Duration) (int64, error)
}

// IdempotencyCleaner deletes expired idempotency keys.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SequencePruneJob handles TaskSequencePrune.
type SequencePruneJob struct {
	Pruner    SequencePruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle prunes voucher_sequence rows.
func (j *SequencePruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pruner == nil {
		return errors.New("sequence prune: handler not configured")
	}
	return runCleanup(ctx, t, cleanupRun{
		task:     TaskSequencePrune,
		table:    "voucher_sequence",
		fallback: j.Retention,
		logger:   j.Logger,
		metrics:  j.Metrics,
		remove:   j.Pruner.PruneSequences,
	})
}

// IdempotencyCleanupJob handles TaskIdempotencyCleanup.
type IdempotencyCleanupJob struct {
	Store     IdempotencyCleaner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle removes idempotency keys older than the retention.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	return runCleanup(ctx, t, cleanupRun{
		task:     TaskIdempotencyCleanup,
		table:    "idempotency_keys",
		fallback: j.Retention,
		logger:   j.Logger,
		metrics:  j.Metrics,
		remove:   j.Store.Cleanup,
	})
}

type cleanupRun struct {
	task     string
	table    string
	fallback time.Duration
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
	remove   func(context.Context, time.Duration) (int64, error)
}

func runCleanup(ctx context.Context, t *asynq.Task, run cleanupRun) (resultErr error) {
	retention, err := decodeRetention(t, run.fallback)
	if err != nil {
		return fmt.Errorf("%s: decode payload: %v: %w", run.task, err, asynq.SkipRetry)
	}
	if retention <= 0 {
		return fmt.Errorf("%s: retention must be positive: %w", run.task, asynq.SkipRetry)
	}
	metrics := run.metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	logger := run.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", run.task), slog.Duration("retention", retention))

	tracker := metrics.Track(run.task)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	removed, err := run.remove(ctx, retention)
	if err != nil {
		logger.Error("cleanup failed", slog.Any("error", err))
		return err
	}
	metrics.AddRemoved(run.table, removed)
	logger.Info("cleanup completed", slog.Int64("removed", removed))
	return nil
}
