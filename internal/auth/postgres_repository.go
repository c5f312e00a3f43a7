package auth

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/database"
)

var userColumns = []string{
	"id", "tenant_id", "toko_id", "username", "name", "password_hash",
	"role", "level", "is_god", "created_at", "disabled_at",
}

// PostgresRepository implements UserRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new UserRepository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) UserRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new user record.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query, args, err := database.SQL.
		Insert("users").
		Columns("tenant_id", "toko_id", "username", "name", "password_hash", "role", "level", "is_god").
		Values(u.TenantID, u.TokoID, u.Username, u.Name, u.PasswordHash, u.Role, u.Level, u.IsGod).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building user insert: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a single user visible to scope.
func (r *PostgresRepository) GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*User, error) {
	query, args, err := database.SQL.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	return r.scanOne(ctx, query, args...)
}

// GetByUsername retrieves a user by login name regardless of scope. It is
// only used by authentication.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query, args, err := database.SQL.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	return r.scanOne(ctx, query, args...)
}

// List returns the users visible to scope, oldest first, and the total count.
func (r *PostgresRepository) List(ctx context.Context, scope access.Scope, filter ListFilter) ([]User, int, error) {
	_, limit, offset := database.NormalizePage(filter.Page, filter.Limit)

	conds := sq.And{access.Clause(&scope)}
	if filter.Role != nil {
		conds = append(conds, sq.Eq{"role": *filter.Role})
	}

	countQuery, countArgs, err := database.SQL.Select("COUNT(*)").From("users").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building user count: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	query, args, err := database.SQL.
		Select(userColumns...).
		From("users").
		Where(conds).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building user list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, total, nil
}

// Disable sets disabled_at on a user in scope. Returns ErrUserNotFound if the
// user does not exist or is not visible, and ErrUserDisabled if already disabled.
func (r *PostgresRepository) Disable(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	query, args, err := database.SQL.
		Update("users").
		Set("disabled_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "disabled_at": nil}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building user disable: %w", err)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("disabling user: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish not-found from already-disabled.
		u, err := r.GetByID(ctx, scope, id)
		if err != nil {
			return err
		}
		if u.DisabledAt != nil {
			return ErrUserDisabled
		}
		return ErrUserNotFound
	}

	return nil
}

// CountAll returns the total number of users in the table (including disabled).
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.TenantID, &u.TokoID, &u.Username, &u.Name, &u.PasswordHash,
		&u.Role, &u.Level, &u.IsGod, &u.CreatedAt, &u.DisabledAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
