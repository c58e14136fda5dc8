package voucher

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rgsons/storeops/internal/platform/db"
)

// Repository persists voucher configuration and sequences in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const configColumns = `config_id, voucher_type, prefix, include_store_code, store_code_position,
include_year, year_format, include_month, month_format, include_day, day_format,
separator, number_padding, suffix, reset_frequency, numbering_scope, pricing_method,
is_active, created_at, updated_at`

func scanConfig(row pgx.Row) (Config, error) {
	var cfg Config
	var position, padding int32
	err := row.Scan(&cfg.ConfigID, &cfg.VoucherType, &cfg.Prefix, &cfg.IncludeStoreCode, &position,
		&cfg.IncludeYear, &cfg.YearFormat, &cfg.IncludeMonth, &cfg.MonthFormat, &cfg.IncludeDay, &cfg.DayFormat,
		&cfg.Separator, &padding, &cfg.Suffix, &cfg.ResetFrequency, &cfg.NumberingScope, &cfg.PricingMethod,
		&cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return Config{}, err
	}
	cfg.StoreCodePosition = StoreCodePosition(position)
	cfg.NumberPadding = Padding(padding)
	return cfg, nil
}

// GetConfig loads the configuration of a voucher type.
func (r *Repository) GetConfig(ctx context.Context, t VoucherType) (Config, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+configColumns+` FROM voucher_config WHERE voucher_type = $1`, t)
	cfg, err := scanConfig(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Config{}, ErrConfigNotFound
		}
		return Config{}, fmt.Errorf("voucher: get config: %w", err)
	}
	return cfg, nil
}

// UpsertConfig writes the whole configuration keyed by voucher type.
func (r *Repository) UpsertConfig(ctx context.Context, cfg Config) (Config, error) {
	const query = `INSERT INTO voucher_config (voucher_type, prefix, include_store_code, store_code_position,
include_year, year_format, include_month, month_format, include_day, day_format,
separator, number_padding, suffix, reset_frequency, numbering_scope, pricing_method,
is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (voucher_type) DO UPDATE SET
	prefix = EXCLUDED.prefix,
	include_store_code = EXCLUDED.include_store_code,
	store_code_position = EXCLUDED.store_code_position,
	include_year = EXCLUDED.include_year,
	year_format = EXCLUDED.year_format,
	include_month = EXCLUDED.include_month,
	month_format = EXCLUDED.month_format,
	include_day = EXCLUDED.include_day,
	day_format = EXCLUDED.day_format,
	separator = EXCLUDED.separator,
	number_padding = EXCLUDED.number_padding,
	suffix = EXCLUDED.suffix,
	reset_frequency = EXCLUDED.reset_frequency,
	numbering_scope = EXCLUDED.numbering_scope,
	pricing_method = EXCLUDED.pricing_method,
	is_active = EXCLUDED.is_active,
	updated_at = EXCLUDED.updated_at
RETURNING ` + configColumns
	row := r.pool.QueryRow(ctx, query,
		cfg.VoucherType, cfg.Prefix, cfg.IncludeStoreCode, int32(cfg.StoreCodePosition),
		cfg.IncludeYear, cfg.YearFormat, cfg.IncludeMonth, cfg.MonthFormat, cfg.IncludeDay, cfg.DayFormat,
		cfg.Separator, int32(cfg.NumberPadding), cfg.Suffix, cfg.ResetFrequency, cfg.NumberingScope, cfg.PricingMethod,
		cfg.IsActive, cfg.CreatedAt, cfg.UpdatedAt)
	saved, err := scanConfig(row)
	if err != nil {
		return Config{}, fmt.Errorf("voucher: upsert config: %w", err)
	}
	return saved, nil
}

// FindStoreByCode resolves a store by its code.
func (r *Repository) FindStoreByCode(ctx context.Context, code string) (Store, error) {
	var store Store
	err := r.pool.QueryRow(ctx, `SELECT id, store_code, store_name FROM store WHERE store_code = $1`, code).
		Scan(&store.ID, &store.Code, &store.Name)
	if err != nil {
		if db.IsNoRows(err) {
			return Store{}, ErrUnknownStore
		}
		return Store{}, fmt.Errorf("voucher: find store: %w", err)
	}
	return store, nil
}

// StaleSequences lists counters last used before idleBefore.
func (r *Repository) StaleSequences(ctx context.Context, idleBefore time.Time) ([]SequenceRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT sequence_id, voucher_type, store_id, reset_key, current_number, last_generated_at
FROM voucher_sequence WHERE reset_key <> 'GLOBAL' AND last_generated_at < $1 ORDER BY sequence_id`, idleBefore)
	if err != nil {
		return nil, fmt.Errorf("voucher: stale sequences: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SequenceRow, error) {
		var out SequenceRow
		err := row.Scan(&out.ID, &out.SequenceKey.VoucherType, &out.SequenceKey.StoreID, &out.SequenceKey.ResetKey,
			&out.CurrentNumber, &out.LastGeneratedAt)
		return out, err
	})
}

// DeleteSequences removes counters by id.
func (r *Repository) DeleteSequences(ctx context.Context, ids []int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM voucher_sequence WHERE sequence_id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("voucher: delete sequences: %w", err)
	}
	return tag.RowsAffected(), nil
}

// WithTx executes the callback inside a read-committed transaction. The
// sequence upsert takes the row lock, so concurrent issuers queue on it and
// read the committed counter.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return txError(db.WithTxOptions(ctx, r.pool, db.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	}))
}

// txError reports a lost concurrent update as ErrBusy so callers retry.
func txError(err error) error {
	if err != nil && db.IsSerializationFailure(err) {
		return ErrBusy
	}
	return err
}

type txRepo struct {
	tx pgx.Tx
}

// NextSequence increments the counter, creating it at 1 on first use. The
// upsert holds the row lock until the surrounding transaction ends.
func (t *txRepo) NextSequence(ctx context.Context, key SequenceKey, at time.Time) (int64, error) {
	const query = `INSERT INTO voucher_sequence (voucher_type, store_id, reset_key, current_number, last_generated_at, created_at, updated_at)
VALUES ($1, $2, $3, 1, $4, $4, $4)
ON CONFLICT ON CONSTRAINT uq_voucher_sequence DO UPDATE SET
	current_number = voucher_sequence.current_number + 1,
	last_generated_at = EXCLUDED.last_generated_at,
	updated_at = EXCLUDED.updated_at
RETURNING current_number`
	var next int64
	if err := t.tx.QueryRow(ctx, query, key.VoucherType, key.StoreID, key.ResetKey, at).Scan(&next); err != nil {
		return 0, fmt.Errorf("voucher: next sequence: %w", err)
	}
	return next, nil
}

// LogNumber records the issued number. Numbers are unique across all types.
func (t *txRepo) LogNumber(ctx context.Context, entry LogEntry) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO voucher_number_log (voucher_type, store_id, reset_key, sequence, voucher_number, issued_by, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.VoucherType, entry.StoreID, entry.ResetKey, entry.Sequence, entry.VoucherNumber, entry.IssuedBy, entry.IssuedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, entry.VoucherNumber)
		}
		return fmt.Errorf("voucher: log number: %w", err)
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)

