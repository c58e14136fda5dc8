package qualities

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rgsons/storeops/internal/platform/db"
)

// Repository persists qualities in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const qualityColumns = `id, quality_code, quality_name, status, created_at, update_at`

func scanQuality(row pgx.Row) (Quality, error) {
	var q Quality
	err := row.Scan(&q.ID, &q.Code, &q.Name, &q.Status, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (r *Repository) List(ctx context.Context, filter Filter) ([]Quality, error) {
	var (
		where []string
		args  []any
	)
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where = append(where, fmt.Sprintf("quality_name ILIKE $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + qualityColumns + ` FROM quality`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY quality_name, id"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("qualities: list: %w", err)
	}
	defer rows.Close()
	out := make([]Quality, 0)
	for rows.Next() {
		q, err := scanQuality(rows)
		if err != nil {
			return nil, fmt.Errorf("qualities: scan: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Quality, error) {
	return r.one(ctx, `SELECT `+qualityColumns+` FROM quality WHERE id = $1`, id)
}

func (r *Repository) GetByCode(ctx context.Context, code string) (Quality, error) {
	return r.one(ctx, `SELECT `+qualityColumns+` FROM quality WHERE quality_code = $1`, code)
}

func (r *Repository) one(ctx context.Context, query string, arg any) (Quality, error) {
	q, err := scanQuality(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if db.IsNoRows(err) {
			return Quality{}, ErrNotFound
		}
		return Quality{}, fmt.Errorf("qualities: get: %w", err)
	}
	return q, nil
}

func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM quality WHERE quality_code = $1)`, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("qualities: code exists: %w", err)
	}
	return exists, nil
}

func (r *Repository) Insert(ctx context.Context, q Quality) (Quality, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO quality (quality_code, quality_name, status, created_at, update_at)
VALUES ($1, $2, $3, $4, $5) RETURNING `+qualityColumns, q.Code, q.Name, q.Status, q.CreatedAt, q.UpdatedAt)
	created, err := scanQuality(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Quality{}, ErrDuplicateCode
		}
		return Quality{}, fmt.Errorf("qualities: insert: %w", err)
	}
	return created, nil
}

func (r *Repository) Update(ctx context.Context, q Quality) (Quality, error) {
	row := r.pool.QueryRow(ctx, `UPDATE quality SET quality_code = $2, quality_name = $3, status = $4, update_at = $5
WHERE id = $1 RETURNING `+qualityColumns, q.ID, q.Code, q.Name, q.Status, q.UpdatedAt)
	updated, err := scanQuality(row)
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return Quality{}, ErrNotFound
		case db.IsUniqueViolation(err):
			return Quality{}, ErrDuplicateCode
		}
		return Quality{}, fmt.Errorf("qualities: update: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quality WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("qualities: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
