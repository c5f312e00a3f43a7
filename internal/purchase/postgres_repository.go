package purchase

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
	"github.com/kasirku/kasir/internal/inventory"
	"github.com/kasirku/kasir/internal/product"
)

var purchaseColumns = []string{
	"id", "tenant_id", "toko_id", "supplier_id", "invoice_no", "total", "created_by", "created_at",
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create records a receipt in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, rc Receipt) (*Purchase, error) {
	var p *Purchase
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		p, err = create(ctx, tx, rc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func create(ctx context.Context, tx pgx.Tx, rc Receipt) (*Purchase, error) {
	if rc.SupplierID != nil {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1 AND tenant_id = $2 AND toko_id = $3)`,
			*rc.SupplierID, rc.TenantID, rc.TokoID,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("checking supplier: %w", err)
		}
		if !exists {
			return nil, ErrSupplierNotFound
		}
	}

	ids := make([]uuid.UUID, len(rc.Items))
	for i, it := range rc.Items {
		ids[i] = it.ProductID
	}
	if _, err := product.LockForUpdate(ctx, tx, rc.TenantID, rc.TokoID, ids); err != nil {
		return nil, err
	}

	items := append([]Item(nil), rc.Items...)
	total, err := Total(items)
	if err != nil {
		return nil, err
	}
	p := &Purchase{
		TenantID:   rc.TenantID,
		TokoID:     rc.TokoID,
		SupplierID: rc.SupplierID,
		InvoiceNo:  rc.InvoiceNo,
		Total:      total,
		CreatedBy:  rc.CreatedBy,
	}

	query, args, err := database.SQL.
		Insert("purchases").
		Columns("tenant_id", "toko_id", "supplier_id", "invoice_no", "total", "created_by").
		Values(p.TenantID, p.TokoID, p.SupplierID, p.InvoiceNo, p.Total, p.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building purchase insert: %w", err)
	}
	if err := tx.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("inserting purchase: %w", err)
	}

	for i := range items {
		it := &items[i]
		it.PurchaseID = p.ID

		query, args, err := database.SQL.
			Insert("purchase_items").
			Columns("purchase_id", "product_id", "quantity", "cost", "subtotal").
			Values(it.PurchaseID, it.ProductID, it.Quantity, it.Cost, it.Subtotal).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("building purchase item insert: %w", err)
		}
		if err := tx.QueryRow(ctx, query, args...).Scan(&it.ID); err != nil {
			return nil, fmt.Errorf("inserting purchase item: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE products SET cost = $1, updated_at = NOW() WHERE id = $2`,
			it.Cost, it.ProductID,
		); err != nil {
			return nil, fmt.Errorf("updating product cost: %w", err)
		}

		err = inventory.Apply(ctx, tx, &inventory.Movement{
			TenantID:    p.TenantID,
			TokoID:      p.TokoID,
			ProductID:   it.ProductID,
			Delta:       it.Quantity,
			Reason:      inventory.ReasonPurchase,
			ReferenceID: &p.ID,
			Note:        p.InvoiceNo,
			CreatedBy:   p.CreatedBy,
		})
		if err != nil {
			return nil, err
		}
	}

	p.Items = items
	return p, nil
}

// GetByID retrieves a purchase visible to scope together with its items.
func (r *PostgresRepository) GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Purchase, error) {
	query, args, err := database.SQL.
		Select(purchaseColumns...).
		From("purchases").
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building purchase query: %w", err)
	}

	p, err := scanPurchase(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("querying purchase: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, purchase_id, product_id, quantity, cost, subtotal
		FROM purchase_items
		WHERE purchase_id = $1`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("querying purchase items: %w", err)
	}
	defer rows.Close()

	p.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.Quantity, &it.Cost, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scanning purchase item: %w", err)
		}
		p.Items = append(p.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purchase items: %w", err)
	}

	return p, nil
}

// List returns the purchases visible to scope, newest first, and the total count.
func (r *PostgresRepository) List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Purchase, int, error) {
	_, limit, offset := database.NormalizePage(filter.Page, filter.Limit)

	conds := sq.And{access.Clause(&scope)}
	if filter.From != nil {
		conds = append(conds, sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		conds = append(conds, sq.Lt{"created_at": *filter.To})
	}
	if filter.SupplierID != nil {
		conds = append(conds, sq.Eq{"supplier_id": *filter.SupplierID})
	}

	countQuery, countArgs, err := database.SQL.Select("COUNT(*)").From("purchases").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building purchase count: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting purchases: %w", err)
	}

	query, args, err := database.SQL.
		Select(purchaseColumns...).
		From("purchases").
		Where(conds).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building purchase list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing purchases: %w", err)
	}
	defer rows.Close()

	purchases := []Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning purchase row: %w", err)
		}
		purchases = append(purchases, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating purchase rows: %w", err)
	}

	return purchases, total, nil
}

func scanPurchase(row pgx.Row) (*Purchase, error) {
	var p Purchase
	err := row.Scan(&p.ID, &p.TenantID, &p.TokoID, &p.SupplierID, &p.InvoiceNo, &p.Total, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
