package tenant

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

var storeColumns = []string{"id", "tenant_id", "name", "address", "phone", "created_at", "updated_at"}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// storeScope filters the stores table: the store column is the row's own id.
func storeScope(scope *access.Scope) sq.Sqlizer {
	return access.Clause(scope, access.WithStoreColumn("id"))
}

// CreateTenant inserts a new tenant record.
func (r *PostgresRepository) CreateTenant(ctx context.Context, t *Tenant) error {
	query := `
		INSERT INTO tenants (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, t.Name).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateTenantName
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}

	return nil
}

// GetTenant retrieves a single tenant by its UUID.
func (r *PostgresRepository) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM tenants
		WHERE id = $1`

	var t Tenant
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("querying tenant: %w", err)
	}

	return &t, nil
}

// ListTenants retrieves all tenants ordered by creation time.
func (r *PostgresRepository) ListTenants(ctx context.Context) ([]Tenant, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM tenants
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	tenants := []Tenant{}
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenant rows: %w", err)
	}

	return tenants, nil
}

// CreateStore inserts a new store record. Returns ErrTenantNotFound if the
// tenant does not exist.
func (r *PostgresRepository) CreateStore(ctx context.Context, s *Store) error {
	query, args, err := database.SQL.
		Insert("stores").
		Columns("tenant_id", "name", "address", "phone").
		Values(s.TenantID, s.Name, s.Address, s.Phone).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building store insert: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return ErrDuplicateStoreName
		case database.IsForeignKeyViolation(err):
			return ErrTenantNotFound
		}
		return fmt.Errorf("inserting store: %w", err)
	}

	return nil
}

// GetStore retrieves a single store visible to scope.
func (r *PostgresRepository) GetStore(ctx context.Context, scope access.Scope, id uuid.UUID) (*Store, error) {
	query, args, err := database.SQL.
		Select(storeColumns...).
		From("stores").
		Where(sq.Eq{"id": id}).
		Where(storeScope(&scope)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building store query: %w", err)
	}

	return r.scanOne(ctx, query, args...)
}

// ListStores returns the stores visible to scope ordered by name, and the total count.
func (r *PostgresRepository) ListStores(ctx context.Context, scope access.Scope, filter StoreFilter) ([]Store, int, error) {
	_, limit, offset := database.NormalizePage(filter.Page, filter.Limit)

	conds := sq.And{storeScope(&scope)}
	if filter.TenantID != nil {
		conds = append(conds, sq.Eq{"tenant_id": *filter.TenantID})
	}

	countQuery, countArgs, err := database.SQL.Select("COUNT(*)").From("stores").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building store count: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting stores: %w", err)
	}

	query, args, err := database.SQL.
		Select(storeColumns...).
		From("stores").
		Where(conds).
		OrderBy("name ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building store list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing stores: %w", err)
	}
	defer rows.Close()

	stores := []Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning store row: %w", err)
		}
		stores = append(stores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating store rows: %w", err)
	}

	return stores, total, nil
}

// UpdateStore applies upd to a store visible to scope and returns the new row.
func (r *PostgresRepository) UpdateStore(ctx context.Context, scope access.Scope, id uuid.UUID, upd StoreUpdate) (*Store, error) {
	b := database.SQL.Update("stores").Set("updated_at", sq.Expr("NOW()"))
	if upd.Name != nil {
		b = b.Set("name", *upd.Name)
	}
	if upd.Address != nil {
		b = b.Set("address", *upd.Address)
	}
	if upd.Phone != nil {
		b = b.Set("phone", *upd.Phone)
	}

	query, args, err := b.
		Where(sq.Eq{"id": id}).
		Where(storeScope(&scope)).
		Suffix("RETURNING id, tenant_id, name, address, phone, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building store update: %w", err)
	}

	s, err := r.scanOne(ctx, query, args...)
	if err != nil && database.IsUniqueViolation(err) {
		return nil, ErrDuplicateStoreName
	}
	return s, err
}

// DeleteStore removes a store visible to scope. Returns ErrStoreInUse if any
// row still references it.
func (r *PostgresRepository) DeleteStore(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	query, args, err := database.SQL.
		Delete("stores").
		Where(sq.Eq{"id": id}).
		Where(storeScope(&scope)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building store delete: %w", err)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrStoreInUse
		}
		return fmt.Errorf("deleting store: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrStoreNotFound
	}

	return nil
}

// StoreTenant returns the tenant that owns storeID.
func (r *PostgresRepository) StoreTenant(ctx context.Context, storeID uuid.UUID) (uuid.UUID, error) {
	var tenantID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT tenant_id FROM stores WHERE id = $1`, storeID).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrStoreNotFound
		}
		return uuid.Nil, fmt.Errorf("querying store tenant: %w", err)
	}
	return tenantID, nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Store, error) {
	s, err := scanStore(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("querying store: %w", err)
	}
	return s, nil
}

func scanStore(row pgx.Row) (*Store, error) {
	var s Store
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Address, &s.Phone, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
