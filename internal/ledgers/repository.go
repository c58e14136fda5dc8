package ledgers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rgsons/storeops/internal/platform/db"
)

// Repository persists ledgers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ledgerColumns = `id, code, name, short_order, COALESCE(type, ''), COALESCE(screen, ''), status`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanLedger(row pgx.Row) (Ledger, error) {
	var l Ledger
	var order, status int32
	if err := row.Scan(&l.ID, &l.Code, &l.Name, &order, &l.Type, &l.Screen, &status); err != nil {
		return Ledger{}, err
	}
	l.ShortOrder = int(order)
	l.Status = int(status)
	return l, nil
}

func collect(ctx context.Context, q querier, query string, args ...any) ([]Ledger, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Ledger, 0)
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// List returns ledgers matching filter ordered by shortOrder then name.
// Unordered ledgers sort last.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Ledger, error) {
	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Screen != "" {
		args = append(args, filter.Screen)
		where = append(where, fmt.Sprintf("screen = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + ledgerColumns + ` FROM ledgers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY CASE WHEN short_order > 0 THEN 0 ELSE 1 END, short_order, name`
	out, err := collect(ctx, r.pool, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledgers: list: %w", err)
	}
	return out, nil
}

// Get fetches a ledger by id.
func (r *Repository) Get(ctx context.Context, id int64) (Ledger, error) {
	l, err := scanLedger(r.pool.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM ledgers WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Ledger{}, ErrNotFound
		}
		return Ledger{}, fmt.Errorf("ledgers: get: %w", err)
	}
	return l, nil
}

// NameExists checks for a case-insensitive name clash, ignoring excludeID.
func (r *Repository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ledgers WHERE LOWER(name) = LOWER($1) AND id <> $2)`, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ledgers: name exists: %w", err)
	}
	return exists, nil
}

// Insert stores a new ledger.
func (r *Repository) Insert(ctx context.Context, l Ledger) (Ledger, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO ledgers (code, name, short_order, type, screen, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+ledgerColumns, l.Code, l.Name, l.ShortOrder, l.Type, l.Screen, l.Status)
	created, err := scanLedger(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Ledger{}, ErrDuplicateName
		}
		return Ledger{}, fmt.Errorf("ledgers: insert: %w", err)
	}
	return created, nil
}

// Update writes name, type, screen and status. Code and order are untouched.
func (r *Repository) Update(ctx context.Context, l Ledger) (Ledger, error) {
	row := r.pool.QueryRow(ctx, `UPDATE ledgers SET name = $2, type = $3, screen = $4, status = $5
WHERE id = $1
RETURNING `+ledgerColumns, l.ID, l.Name, l.Type, l.Screen, l.Status)
	updated, err := scanLedger(row)
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return Ledger{}, ErrNotFound
		case db.IsUniqueViolation(err):
			return Ledger{}, ErrDuplicateName
		}
		return Ledger{}, fmt.Errorf("ledgers: update: %w", err)
	}
	return updated, nil
}

// Delete removes a ledger row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ledgers WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", ErrInUse, err)
		}
		return fmt.Errorf("ledgers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IsReferenced reports whether any sale or purchase document uses code.
func (r *Repository) IsReferenced(ctx context.Context, code string) (bool, error) {
	const query = `SELECT
	EXISTS(SELECT 1 FROM tran_ledger WHERE ledger_code = $1)
	OR EXISTS(SELECT 1 FROM pur_ledger WHERE ledger_code = $1)
	OR EXISTS(SELECT 1 FROM tran_head WHERE party_code = $1)
	OR EXISTS(SELECT 1 FROM pur_head WHERE party_code = $1 OR pur_led = $1)`
	var used bool
	if err := r.pool.QueryRow(ctx, query, code).Scan(&used); err != nil {
		return false, fmt.Errorf("ledgers: references: %w", err)
	}
	return used, nil
}

func (r *Repository) DistinctTypes(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "type")
}

func (r *Repository) DistinctScreens(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "screen")
}

func (r *Repository) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT DISTINCT %[1]s FROM ledgers WHERE %[1]s IS NOT NULL AND %[1]s <> '' ORDER BY %[1]s`, column))
	if err != nil {
		return nil, fmt.Errorf("ledgers: distinct %s: %w", column, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("ledgers: distinct %s: %w", column, err)
	}
	return out, nil
}

// WithTx executes the callback inside a read-committed transaction. LockAll
// queues concurrent order saves so the last one to commit wins.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return txError(db.WithTxOptions(ctx, r.pool, db.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	}))
}

func txError(err error) error {
	if err != nil && db.IsSerializationFailure(err) {
		return ErrBusy
	}
	return err
}

type txRepo struct {
	tx pgx.Tx
}

// LockAll reads every ledger with row locks held until commit.
func (t *txRepo) LockAll(ctx context.Context) ([]Ledger, error) {
	out, err := collect(ctx, t.tx, `SELECT `+ledgerColumns+` FROM ledgers ORDER BY id FOR UPDATE`)
	if err != nil {
		return nil, fmt.Errorf("ledgers: lock: %w", err)
	}
	return out, nil
}

// ApplyPositions resets every short_order to 0 and then writes positions.
func (t *txRepo) ApplyPositions(ctx context.Context, positions map[int64]int) error {
	if _, err := t.tx.Exec(ctx, `UPDATE ledgers SET short_order = 0 WHERE short_order <> 0`); err != nil {
		return fmt.Errorf("ledgers: reset order: %w", err)
	}
	if len(positions) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(positions))
	orders := make([]int32, 0, len(positions))
	for id, pos := range positions {
		if pos <= 0 {
			continue
		}
		ids = append(ids, id)
		orders = append(orders, int32(pos))
	}
	_, err := t.tx.Exec(ctx, `UPDATE ledgers AS l SET short_order = v.pos
FROM unnest($1::bigint[], $2::int[]) AS v(id, pos)
WHERE l.id = v.id`, ids, orders)
	if err != nil {
		return fmt.Errorf("ledgers: apply order: %w", err)
	}
	return nil
}
