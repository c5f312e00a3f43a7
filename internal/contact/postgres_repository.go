package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/database"
)

var contactColumns = []string{
	"id", "tenant_id", "toko_id", "name", "phone", "email", "address", "created_at", "updated_at",
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
	kind Kind
}

// NewRepository creates a Repository for kind backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool, kind Kind) Repository {
	return &PostgresRepository{pool: pool, kind: kind}
}

// Kind returns the contact kind this repository stores.
func (r *PostgresRepository) Kind() Kind {
	return r.kind
}

func (r *PostgresRepository) table() string {
	return string(r.kind)
}

// Create inserts a new contact record.
func (r *PostgresRepository) Create(ctx context.Context, c *Contact) error {
	query, args, err := database.SQL.
		Insert(r.table()).
		Columns("tenant_id", "toko_id", "name", "phone", "email", "address").
		Values(c.TenantID, c.TokoID, c.Name, c.Phone, c.Email, c.Address).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building %s insert: %w", r.kind.Singular(), err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("inserting %s: %w", r.kind.Singular(), err)
	}
	return nil
}

// GetByID retrieves a single contact visible to scope.
func (r *PostgresRepository) GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Contact, error) {
	query, args, err := database.SQL.
		Select(contactColumns...).
		From(r.table()).
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building %s query: %w", r.kind.Singular(), err)
	}

	return r.scanOne(ctx, query, args...)
}

// List returns the contacts visible to scope ordered by name, and the total count.
func (r *PostgresRepository) List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Contact, int, error) {
	_, limit, offset := database.NormalizePage(filter.Page, filter.Limit)

	conds := sq.And{access.Clause(&scope)}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"phone": pattern},
			sq.ILike{"email": pattern},
		})
	}

	countQuery, countArgs, err := database.SQL.Select("COUNT(*)").From(r.table()).Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building %s count: %w", r.kind.Singular(), err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting %s: %w", r.kind, err)
	}

	query, args, err := database.SQL.
		Select(contactColumns...).
		From(r.table()).
		Where(conds).
		OrderBy("name ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building %s list: %w", r.kind.Singular(), err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing %s: %w", r.kind, err)
	}
	defer rows.Close()

	contacts := []Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning %s row: %w", r.kind.Singular(), err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating %s rows: %w", r.kind.Singular(), err)
	}

	return contacts, total, nil
}

// Update applies upd to a contact visible to scope and returns the new row.
func (r *PostgresRepository) Update(ctx context.Context, scope access.Scope, id uuid.UUID, upd Update) (*Contact, error) {
	b := database.SQL.Update(r.table()).Set("updated_at", sq.Expr("NOW()"))
	if upd.Name != nil {
		b = b.Set("name", *upd.Name)
	}
	if upd.Phone != nil {
		b = b.Set("phone", *upd.Phone)
	}
	if upd.Email != nil {
		b = b.Set("email", *upd.Email)
	}
	if upd.Address != nil {
		b = b.Set("address", *upd.Address)
	}

	query, args, err := b.
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		Suffix("RETURNING " + strings.Join(contactColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building %s update: %w", r.kind.Singular(), err)
	}

	return r.scanOne(ctx, query, args...)
}

// Delete removes a contact visible to scope. Sales and purchases referencing
// it keep their rows with the reference cleared.
func (r *PostgresRepository) Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	query, args, err := database.SQL.
		Delete(r.table()).
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building %s delete: %w", r.kind.Singular(), err)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", r.kind.Singular(), err)
	}
	if result.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("querying %s: %w", r.kind.Singular(), err)
	}
	return c, nil
}

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.TenantID, &c.TokoID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
