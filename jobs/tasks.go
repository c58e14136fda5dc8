package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSequencePrune removes voucher counters whose reset period is over.
	TaskSequencePrune = "voucher:sequence-prune"
	// TaskIdempotencyCleanup removes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency-cleanup"
)

// RetentionPayload carries the minimum age of rows to remove.
type RetentionPayload struct {
	Retention time.Duration `json:"retention"`
}

func newRetentionTask(taskType string, retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(RetentionPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}

// NewSequencePruneTask constructs the voucher sequence prune task.
func NewSequencePruneTask(retention time.Duration) (*asynq.Task, error) {
	return newRetentionTask(TaskSequencePrune, retention)
}

// NewIdempotencyCleanupTask constructs the idempotency cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	return newRetentionTask(TaskIdempotencyCleanup, retention)
}

func decodeRetention(t *asynq.Task, fallback time.Duration) (time.Duration, error) {
	var payload RetentionPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return 0, err
		}
	}
	if payload.Retention <= 0 {
		return fallback, nil
	}
	return payload.Retention, nil
}
