package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/database"
	"github.com/kasirku/kasir/internal/inventory"
	"github.com/kasirku/kasir/internal/product"
)

var saleColumns = []string{
	"id", "tenant_id", "toko_id", "invoice_no", "cashier_id", "customer_id",
	"subtotal", "discount", "total", "paid", "change", "payment_method", "created_at",
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool, now: time.Now}
}

// Create records a checkout. Products are locked, priced and decremented in
// one transaction; any failure rolls the whole sale back.
func (r *PostgresRepository) Create(ctx context.Context, c Checkout) (*Sale, error) {
	var s *Sale
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		s, err = r.create(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) create(ctx context.Context, tx pgx.Tx, c Checkout) (*Sale, error) {
	if c.CustomerID != nil {
		if err := checkCustomer(ctx, tx, c); err != nil {
			return nil, err
		}
	}

	ids := make([]uuid.UUID, len(c.Lines))
	for i, l := range c.Lines {
		ids[i] = l.ProductID
	}
	products, err := product.LockForUpdate(ctx, tx, c.TenantID, c.TokoID, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(c.Lines))
	for i, l := range c.Lines {
		p := products[l.ProductID]
		price := p.Price
		if l.Price != nil {
			price = *l.Price
		}
		items[i] = Item{ProductID: p.ID, Name: p.Name, Quantity: l.Quantity, Price: price, Cost: p.Cost}
	}

	totals, err := Compute(items, c.Discount, c.Paid)
	if err != nil {
		return nil, err
	}

	invoiceNo, err := InvoiceNumber(r.now())
	if err != nil {
		return nil, err
	}

	s := &Sale{
		TenantID:      c.TenantID,
		TokoID:        c.TokoID,
		InvoiceNo:     invoiceNo,
		CashierID:     c.CashierID,
		CustomerID:    c.CustomerID,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Total:         totals.Total,
		Paid:          c.Paid,
		Change:        totals.Change,
		PaymentMethod: c.PaymentMethod,
	}

	query, args, err := database.SQL.
		Insert("sales").
		Columns("tenant_id", "toko_id", "invoice_no", "cashier_id", "customer_id",
			"subtotal", "discount", "total", "paid", "change", "payment_method").
		Values(s.TenantID, s.TokoID, s.InvoiceNo, s.CashierID, s.CustomerID,
			s.Subtotal, s.Discount, s.Total, s.Paid, s.Change, s.PaymentMethod).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building sale insert: %w", err)
	}
	if err := tx.QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt); err != nil {
		return nil, fmt.Errorf("inserting sale: %w", err)
	}

	for i := range items {
		it := &items[i]
		it.SaleID = s.ID

		query, args, err := database.SQL.
			Insert("sale_items").
			Columns("sale_id", "product_id", "name", "quantity", "price", "cost", "subtotal").
			Values(it.SaleID, it.ProductID, it.Name, it.Quantity, it.Price, it.Cost, it.Subtotal).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("building sale item insert: %w", err)
		}
		if err := tx.QueryRow(ctx, query, args...).Scan(&it.ID); err != nil {
			return nil, fmt.Errorf("inserting sale item: %w", err)
		}

		err = inventory.Apply(ctx, tx, &inventory.Movement{
			TenantID:    s.TenantID,
			TokoID:      s.TokoID,
			ProductID:   it.ProductID,
			Delta:       -it.Quantity,
			Reason:      inventory.ReasonSale,
			ReferenceID: &s.ID,
			Note:        s.InvoiceNo,
			CreatedBy:   s.CashierID,
		})
		if err != nil {
			return nil, err
		}
	}

	s.Items = items
	return s, nil
}

func checkCustomer(ctx context.Context, tx pgx.Tx, c Checkout) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1 AND tenant_id = $2 AND toko_id = $3)`,
		*c.CustomerID, c.TenantID, c.TokoID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking customer: %w", err)
	}
	if !exists {
		return ErrCustomerNotFound
	}
	return nil
}

// GetByID retrieves a sale visible to scope together with its items.
func (r *PostgresRepository) GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Sale, error) {
	query, args, err := database.SQL.
		Select(saleColumns...).
		From("sales").
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building sale query: %w", err)
	}

	s, err := scanSale(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("querying sale: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, sale_id, product_id, name, quantity, price, cost, subtotal
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY name ASC`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("querying sale items: %w", err)
	}
	defer rows.Close()

	s.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Name, &it.Quantity, &it.Price, &it.Cost, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scanning sale item: %w", err)
		}
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sale items: %w", err)
	}

	return s, nil
}

// List returns the sales visible to scope, newest first, and the total count.
// Items are not loaded.
func (r *PostgresRepository) List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Sale, int, error) {
	_, limit, offset := database.NormalizePage(filter.Page, filter.Limit)

	conds := sq.And{access.Clause(&scope)}
	if filter.From != nil {
		conds = append(conds, sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		conds = append(conds, sq.Lt{"created_at": *filter.To})
	}
	if filter.CashierID != nil {
		conds = append(conds, sq.Eq{"cashier_id": *filter.CashierID})
	}

	countQuery, countArgs, err := database.SQL.Select("COUNT(*)").From("sales").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building sale count: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting sales: %w", err)
	}

	query, args, err := database.SQL.
		Select(saleColumns...).
		From("sales").
		Where(conds).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building sale list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	sales := []Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning sale row: %w", err)
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating sale rows: %w", err)
	}

	return sales, total, nil
}

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(
		&s.ID, &s.TenantID, &s.TokoID, &s.InvoiceNo, &s.CashierID, &s.CustomerID,
		&s.Subtotal, &s.Discount, &s.Total, &s.Paid, &s.Change, &s.PaymentMethod, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
