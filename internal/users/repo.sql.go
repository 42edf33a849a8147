package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpress/inkpress/internal/platform/db"
	"github.com/inkpress/inkpress/internal/shared"
)

// Repository persists user accounts in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, email, first_name, last_name, is_active, date_joined, COALESCE(last_login, 'epoch'::timestamptz)`

var sortColumns = map[string]string{
	"username":    "username",
	"email":       "email",
	"date_joined": "date_joined",
	"last_login":  "last_login",
}

// List returns a page of accounts plus the total count for the same
// filter. The sort key has already been whitelisted by ParseListQuery,
// but the column map guards against drift between the two lists.
func (r *Repository) List(ctx context.Context, q shared.ListQuery) ([]User, int, error) {
	where := ""
	args := []any{}
	if q.Search != "" {
		where = " WHERE username ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+q.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	order := "id"
	if col, ok := sortColumns[strings.TrimPrefix(q.Sort, "-")]; ok {
		order = col
		if strings.HasPrefix(q.Sort, "-") {
			order += " DESC"
		}
	}

	sql := fmt.Sprintf("SELECT %s FROM users%s ORDER BY %s LIMIT $%d OFFSET $%d",
		userColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, q.PageSize, q.Offset())

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.DateJoined, &u.LastLogin); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.DateJoined, &u.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (r *Repository) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password_hash, is_active, date_joined)
		VALUES ($1, $2, $3, $4, $5, TRUE, now())
		RETURNING `+userColumns,
		in.Username, in.Email, in.FirstName, in.LastName, in.PasswordHash)

	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.DateJoined, &u.LastLogin)
	if db.IsUniqueViolation(err) {
		return nil, shared.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in UpdateUserInput) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			email      = COALESCE($2, email),
			first_name = COALESCE($3, first_name),
			last_name  = COALESCE($4, last_name)
		WHERE id = $1
		RETURNING `+userColumns,
		id, in.Email, in.FirstName, in.LastName)

	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.DateJoined, &u.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if db.IsUniqueViolation(err) {
		return nil, shared.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return &u, nil
}

// Delete removes an account together with its role links and sessions.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM user_roles WHERE user_id = $1", id); err != nil {
			return fmt.Errorf("delete user roles: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM sessions WHERE user_id = $1", id); err != nil {
			return fmt.Errorf("delete user sessions: %w", err)
		}
		tag, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, "UPDATE users SET is_active = $2 WHERE id = $1", id, active)
	if err != nil {
		return fmt.Errorf("set user %d active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
