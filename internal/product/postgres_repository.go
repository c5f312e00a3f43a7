package product

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

// Columns lists the products columns in scan order.
var Columns = []string{
	"id", "tenant_id", "toko_id", "sku", "name", "category", "unit",
	"price", "cost", "stock", "min_stock", "created_at", "updated_at",
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new product record.
func (r *PostgresRepository) Create(ctx context.Context, p *Product) error {
	query, args, err := database.SQL.
		Insert("products").
		Columns("tenant_id", "toko_id", "sku", "name", "category", "unit", "price", "cost", "stock", "min_stock").
		Values(p.TenantID, p.TokoID, p.SKU, p.Name, p.Category, p.Unit, p.Price, p.Cost, p.Stock, p.MinStock).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building product insert: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateSKU
		}
		return fmt.Errorf("inserting product: %w", err)
	}

	return nil
}

// GetByID retrieves a single product visible to scope.
func (r *PostgresRepository) GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Product, error) {
	query, args, err := database.SQL.
		Select(Columns...).
		From("products").
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building product query: %w", err)
	}

	p, err := Scan(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("querying product: %w", err)
	}
	return p, nil
}

// List returns the products visible to scope ordered by name, and the total count.
func (r *PostgresRepository) List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Product, int, error) {
	_, limit, offset := database.NormalizePage(filter.Page, filter.Limit)

	conds := sq.And{access.Clause(&scope)}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		conds = append(conds, sq.Or{sq.ILike{"name": pattern}, sq.ILike{"sku": pattern}})
	}
	if filter.Category != "" {
		conds = append(conds, sq.Eq{"category": filter.Category})
	}
	if filter.LowStock {
		conds = append(conds, sq.Expr("stock <= min_stock"))
	}

	countQuery, countArgs, err := database.SQL.Select("COUNT(*)").From("products").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building product count: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	query, args, err := database.SQL.
		Select(Columns...).
		From("products").
		Where(conds).
		OrderBy("name ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building product list: %w", err)
	}

	products, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Update applies upd to a product visible to scope and returns the new row.
func (r *PostgresRepository) Update(ctx context.Context, scope access.Scope, id uuid.UUID, upd Update) (*Product, error) {
	b := database.SQL.Update("products").Set("updated_at", sq.Expr("NOW()"))
	if upd.SKU != nil {
		b = b.Set("sku", *upd.SKU)
	}
	if upd.Name != nil {
		b = b.Set("name", *upd.Name)
	}
	if upd.Category != nil {
		b = b.Set("category", *upd.Category)
	}
	if upd.Unit != nil {
		b = b.Set("unit", *upd.Unit)
	}
	if upd.Price != nil {
		b = b.Set("price", *upd.Price)
	}
	if upd.Cost != nil {
		b = b.Set("cost", *upd.Cost)
	}
	if upd.MinStock != nil {
		b = b.Set("min_stock", *upd.MinStock)
	}

	query, args, err := b.
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		Suffix("RETURNING " + strings.Join(Columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building product update: %w", err)
	}

	p, err := Scan(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrProductNotFound
		case database.IsUniqueViolation(err):
			return nil, ErrDuplicateSKU
		}
		return nil, fmt.Errorf("updating product: %w", err)
	}
	return p, nil
}

// Delete removes a product visible to scope.
func (r *PostgresRepository) Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	query, args, err := database.SQL.
		Delete("products").
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building product delete: %w", err)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrProductInUse
		}
		return fmt.Errorf("deleting product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// LowStock returns products in scope at or below their minimum stock, most
// depleted first.
func (r *PostgresRepository) LowStock(ctx context.Context, scope access.Scope) ([]Product, error) {
	query, args, err := database.SQL.
		Select(Columns...).
		From("products").
		Where(sq.Expr("stock <= min_stock")).
		Where(access.Clause(&scope)).
		OrderBy("tenant_id", "toko_id", "stock - min_stock ASC", "name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building low stock query: %w", err)
	}

	return r.query(ctx, query, args...)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}
	return products, nil
}

// Scan reads a product row selected with Columns.
func Scan(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.TenantID, &p.TokoID, &p.SKU, &p.Name, &p.Category, &p.Unit,
		&p.Price, &p.Cost, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
