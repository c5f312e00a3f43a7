package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/kasirku/kasir/internal/database"
	"github.com/kasirku/kasir/internal/product"
)

// MaxStock is the largest stock a product row can hold.
const MaxStock = math.MaxInt32

// Apply changes the stock of m.ProductID by m.Delta inside tx and records the
// movement. The product row is locked until tx ends. m.StockAfter, m.ID and
// m.CreatedAt are filled in.
func Apply(ctx context.Context, tx pgx.Tx, m *Movement) error {
	query, args, err := database.SQL.
		Select("stock").
		From("products").
		Where(sq.Eq{"id": m.ProductID, "tenant_id": m.TenantID, "toko_id": m.TokoID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("building stock lock: %w", err)
	}

	var stock int
	if err := tx.QueryRow(ctx, query, args...).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.ErrProductNotFound
		}
		return fmt.Errorf("locking product stock: %w", err)
	}

	after := int64(stock) + int64(m.Delta)
	switch {
	case after < 0:
		return fmt.Errorf("%w: product %s has %d, needs %d", ErrInsufficientStock, m.ProductID, stock, -m.Delta)
	case after > MaxStock:
		return fmt.Errorf("%w: product %s has %d, adding %d passes %d", ErrStockLimit, m.ProductID, stock, m.Delta, MaxStock)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2`,
		after, m.ProductID,
	); err != nil {
		return fmt.Errorf("updating product stock: %w", err)
	}

	query, args, err = database.SQL.
		Insert("stock_movements").
		Columns("tenant_id", "toko_id", "product_id", "delta", "stock_after", "reason", "reference_id", "note", "created_by").
		Values(m.TenantID, m.TokoID, m.ProductID, m.Delta, after, m.Reason, m.ReferenceID, m.Note, m.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building movement insert: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("inserting stock movement: %w", err)
	}

	m.StockAfter = int(after)
	return nil
}
