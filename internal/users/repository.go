package users

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rgsons/storeops/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, user_name, password, role, status, COALESCE(mobile, ''), COALESCE(email, ''),
COALESCE(store_type, ''), created_at, update_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.UserName, &u.PasswordHash, &u.Role, &u.Status, &u.Mobile, &u.Email,
		&u.StoreType, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// List returns users ordered by id, optionally restricted to role.
func (r *Repository) List(ctx context.Context, role string) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != "" {
		query += ` WHERE UPPER(role) = UPPER($1)`
		args = append(args, role)
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

func (r *Repository) UserNameExists(ctx context.Context, userName string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE user_name = $1 AND id <> $2)`, userName, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("users: name exists: %w", err)
	}
	return exists, nil
}

func (r *Repository) Insert(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (user_name, password, role, status, mobile, email, store_type, created_at, update_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)
RETURNING `+userColumns, u.UserName, u.PasswordHash, u.Role, u.Status, u.Mobile, u.Email, u.StoreType, u.CreatedAt, u.UpdatedAt)
	created, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrDuplicateUserName
		}
		return User{}, fmt.Errorf("users: insert: %w", err)
	}
	return created, nil
}

func (r *Repository) Update(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx, `UPDATE users SET user_name = $2, password = $3, role = $4, status = $5,
	mobile = NULLIF($6, ''), email = NULLIF($7, ''), store_type = NULLIF($8, ''), update_at = $9
WHERE id = $1
RETURNING `+userColumns, u.ID, u.UserName, u.PasswordHash, u.Role, u.Status, u.Mobile, u.Email, u.StoreType, u.UpdatedAt)
	updated, err := scanUser(row)
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return User{}, ErrNotFound
		case db.IsUniqueViolation(err):
			return User{}, ErrDuplicateUserName
		}
		return User{}, fmt.Errorf("users: update: %w", err)
	}
	return updated, nil
}

func (r *Repository) SetStatus(ctx context.Context, id int64, status bool, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET status = $2, update_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("users: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
