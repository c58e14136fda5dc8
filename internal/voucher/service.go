package voucher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"

	"github.com/rgsons/storeops/internal/shared"
)

// PreviewStoreCode is substituted when a preview is requested without a store.
const PreviewStoreCode = "S01"

const idempotencyModule = "voucher"

// RepositoryPort abstracts persistence for the voucher service.
type RepositoryPort interface {
	GetConfig(ctx context.Context, t VoucherType) (Config, error)
	UpsertConfig(ctx context.Context, cfg Config) (Config, error)
	FindStoreByCode(ctx context.Context, code string) (Store, error)
	StaleSequences(ctx context.Context, idleBefore time.Time) ([]SequenceRow, error)
	DeleteSequences(ctx context.Context, ids []int64) (int64, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the writes performed while issuing a number.
type TxRepository interface {
	NextSequence(ctx context.Context, key SequenceKey, at time.Time) (int64, error)
	LogNumber(ctx context.Context, entry LogEntry) error
}

// SequenceKey identifies one counter. StoreID is nil for global numbering.
type SequenceKey struct {
	VoucherType VoucherType
	StoreID     *int64
	ResetKey    string
}

// SequenceRow is a stored counter.
type SequenceRow struct {
	ID              int64
	SequenceKey     SequenceKey
	CurrentNumber   int64
	LastGeneratedAt time.Time
}

// LogEntry is appended to voucher_number_log for every issued number.
type LogEntry struct {
	VoucherType   VoucherType
	StoreID       *int64
	ResetKey      string
	Sequence      int64
	VoucherNumber string
	IssuedBy      string
	IssuedAt      time.Time
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards against replayed issue requests.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// IssueObserver receives one notification per NextNumber call.
type IssueObserver interface {
	VoucherIssued(voucherType string, err error)
}

// ServiceConfig groups optional collaborators and settings.
type ServiceConfig struct {
	Audit       AuditPort
	Idempotency IdempotencyPort
	Locker      *redislock.Client
	LockTTL     time.Duration
	LockWait    time.Duration
	Observer    IssueObserver
	Location    *time.Location
	Clock       func() time.Time
	Logger      *slog.Logger
}

// Service coordinates voucher configuration and numbering.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	idem     IdempotencyPort
	locker   *redislock.Client
	lockTTL  time.Duration
	lockWait time.Duration
	observer IssueObserver
	loc      *time.Location
	clock    func() time.Time
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	s := &Service{
		repo:     repo,
		audit:    cfg.Audit,
		idem:     cfg.Idempotency,
		locker:   cfg.Locker,
		lockTTL:  cfg.LockTTL,
		lockWait: cfg.LockWait,
		observer: cfg.Observer,
		loc:      cfg.Location,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 5 * time.Second
	}
	if s.lockWait <= 0 {
		s.lockWait = 3 * time.Second
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().In(s.loc)
}

// GetConfig returns the stored configuration for the type.
func (s *Service) GetConfig(ctx context.Context, t VoucherType) (Config, error) {
	if !t.Valid() {
		return Config{}, fmt.Errorf("%w: unknown voucher type %q", ErrInvalidConfig, t)
	}
	return s.repo.GetConfig(ctx, t)
}

// SaveConfig validates and stores the configuration. An existing row for the
// same type keeps its id and creation time; otherwise last write wins.
func (s *Service) SaveConfig(ctx context.Context, cfg Config) (Config, error) {
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	cfg = cfg.Normalize()
	now := s.clock().UTC()

	existing, err := s.repo.GetConfig(ctx, cfg.VoucherType)
	switch {
	case err == nil:
		cfg.ConfigID = existing.ConfigID
		cfg.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrConfigNotFound):
		cfg.ConfigID = 0
		cfg.CreatedAt = now
	default:
		return Config{}, err
	}
	cfg.UpdatedAt = now

	saved, err := s.repo.UpsertConfig(ctx, cfg)
	if err != nil {
		return Config{}, err
	}
	s.recordAudit(ctx, shared.AuditLog{
		Action:   "voucher_config.save",
		Entity:   "voucher_config",
		EntityID: string(saved.VoucherType),
		Meta: map[string]any{
			"prefix":          saved.Prefix,
			"reset_frequency": saved.ResetFrequency,
			"numbering_scope": saved.NumberingScope,
			"is_active":       saved.IsActive,
		},
	})
	return saved, nil
}

// Preview renders what the first number of the current period would look like.
// Types without a stored configuration are previewed with DefaultConfig.
func (s *Service) Preview(ctx context.Context, t VoucherType, storeCode string) (string, error) {
	cfg, err := s.GetConfig(ctx, t)
	if errors.Is(err, ErrConfigNotFound) {
		cfg, err = DefaultConfig(t), nil
	}
	if err != nil {
		return "", err
	}
	return s.PreviewConfig(cfg, storeCode), nil
}

// PreviewConfig renders an unsaved configuration.
func (s *Service) PreviewConfig(cfg Config, storeCode string) string {
	storeCode = strings.TrimSpace(storeCode)
	if storeCode == "" {
		storeCode = PreviewStoreCode
	}
	return Render(cfg, RenderContext{Now: s.now(), StoreCode: storeCode, NextSequence: 1})
}

// NextNumberInput describes an issue request.
type NextNumberInput struct {
	VoucherType    VoucherType
	StoreCode      string
	IdempotencyKey string
}

// NextNumber issues the next voucher number for the type and store.
func (s *Service) NextNumber(ctx context.Context, input NextNumberInput) (issued Issued, err error) {
	defer func() {
		if s.observer != nil {
			s.observer.VoucherIssued(string(input.VoucherType), err)
		}
	}()

	cfg, err := s.GetConfig(ctx, input.VoucherType)
	if err != nil {
		return Issued{}, err
	}
	if !cfg.IsActive {
		return Issued{}, ErrInactiveConfig
	}
	cfg = cfg.Normalize()

	storeCode := strings.TrimSpace(input.StoreCode)
	storeID, err := s.resolveStore(ctx, cfg.NumberingScope, storeCode)
	if err != nil {
		return Issued{}, err
	}

	now := s.now()
	key := SequenceKey{VoucherType: cfg.VoucherType, ResetKey: ResetKey(cfg.ResetFrequency, now)}
	lockScope := ""
	if cfg.NumberingScope == ScopeStoreWise {
		key.StoreID = storeID
		lockScope = storeCode
	}

	if err := s.claimIdempotencyKey(ctx, input.IdempotencyKey); err != nil {
		return Issued{}, err
	}
	defer func() {
		if err != nil && input.IdempotencyKey != "" && s.idem != nil {
			if delErr := s.idem.Delete(context.WithoutCancel(ctx), input.IdempotencyKey); delErr != nil {
				s.logger.Warn("voucher: release idempotency key", slog.Any("error", delErr))
			}
		}
	}()

	release, err := s.lock(ctx, shared.VoucherLockKey(string(cfg.VoucherType), lockScope, key.ResetKey))
	if err != nil {
		return Issued{}, err
	}
	defer release()

	actor := shared.ActorFromContext(ctx)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextSequence(ctx, key, now)
		if err != nil {
			return err
		}
		number := Render(cfg, RenderContext{Now: now, StoreCode: storeCode, NextSequence: seq})
		if err := tx.LogNumber(ctx, LogEntry{
			VoucherType:   cfg.VoucherType,
			StoreID:       storeID,
			ResetKey:      key.ResetKey,
			Sequence:      seq,
			VoucherNumber: number,
			IssuedBy:      actor,
			IssuedAt:      now,
		}); err != nil {
			return err
		}
		issued = Issued{
			VoucherType:   cfg.VoucherType,
			StoreCode:     storeCode,
			ResetKey:      key.ResetKey,
			Sequence:      seq,
			VoucherNumber: number,
			IssuedAt:      now,
		}
		return nil
	})
	if err != nil {
		return Issued{}, err
	}
	s.logger.Debug("voucher issued",
		slog.String("voucher_type", string(issued.VoucherType)),
		slog.String("store_code", issued.StoreCode),
		slog.String("voucher_number", issued.VoucherNumber),
	)
	return issued, nil
}

func (s *Service) resolveStore(ctx context.Context, scope NumberingScope, code string) (*int64, error) {
	if code == "" {
		if scope == ScopeStoreWise {
			return nil, ErrStoreRequired
		}
		return nil, nil
	}
	store, err := s.repo.FindStoreByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrUnknownStore) && scope != ScopeStoreWise {
			return nil, nil
		}
		return nil, err
	}
	id := store.ID
	return &id, nil
}

func (s *Service) claimIdempotencyKey(ctx context.Context, key string) error {
	if key == "" || s.idem == nil {
		return nil
	}
	if _, err := uuid.Parse(key); err != nil {
		return fmt.Errorf("%w: idempotency key must be a UUID", ErrInvalidConfig)
	}
	if err := s.idem.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return ErrDuplicateRequest
		}
		return err
	}
	return nil
}

// lock serialises issuers of one sequence across instances. Without a locker
// the database row lock taken by the upsert is the only guard.
func (s *Service) lock(ctx context.Context, key string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	obtainCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	lock, err := s.locker.Obtain(obtainCtx, key, s.lockTTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(20 * time.Millisecond),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("voucher: obtain lock: %w", err)
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			s.logger.Warn("voucher: release lock", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}

// PruneSequences deletes counters whose reset period has ended and that have
// not been used for at least retention. GLOBAL counters are never pruned.
func (s *Service) PruneSequences(ctx context.Context, retention time.Duration) (int64, error) {
	now := s.now()
	rows, err := s.repo.StaleSequences(ctx, now.Add(-retention))
	if err != nil {
		return 0, err
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		end, ok := ResetPeriodEnd(row.SequenceKey.ResetKey, s.loc)
		if !ok || !end.Before(now) {
			continue
		}
		ids = append(ids, row.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.DeleteSequences(ctx, ids)
}

func (s *Service) recordAudit(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("voucher: audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}
