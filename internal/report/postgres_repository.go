package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/kasir/internal/access"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Summary returns sales, cost and purchase totals for the period.
func (r *PostgresRepository) Summary(ctx context.Context, scope access.Scope, p Period) (*Summary, error) {
	var s Summary

	query, args, err := salesTotals(p).build(scope)
	if err != nil {
		return nil, fmt.Errorf("building sales totals: %w", err)
	}
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.Transactions, &s.Revenue, &s.Discounts); err != nil {
		return nil, fmt.Errorf("querying sales totals: %w", err)
	}

	query, args, err = costOfGoods(p).build(scope)
	if err != nil {
		return nil, fmt.Errorf("building cost of goods: %w", err)
	}
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.CostOfGoods); err != nil {
		return nil, fmt.Errorf("querying cost of goods: %w", err)
	}

	query, args, err = purchaseTotals(p).build(scope)
	if err != nil {
		return nil, fmt.Errorf("building purchase totals: %w", err)
	}
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.Purchases); err != nil {
		return nil, fmt.Errorf("querying purchase totals: %w", err)
	}

	s.GrossProfit = s.Revenue - s.CostOfGoods
	return &s, nil
}

// Daily returns one row per day that had sales in the period.
func (r *PostgresRepository) Daily(ctx context.Context, scope access.Scope, p Period) ([]Day, error) {
	query, args, err := daily(p).build(scope)
	if err != nil {
		return nil, fmt.Errorf("building daily report: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying daily report: %w", err)
	}
	defer rows.Close()

	days := []Day{}
	for rows.Next() {
		var d Day
		if err := rows.Scan(&d.Date, &d.Transactions, &d.Revenue); err != nil {
			return nil, fmt.Errorf("scanning daily row: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily rows: %w", err)
	}
	return days, nil
}

// TopProducts returns the best sellers by quantity.
func (r *PostgresRepository) TopProducts(ctx context.Context, scope access.Scope, p Period, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	query, args, err := topProducts(p, limit).build(scope)
	if err != nil {
		return nil, fmt.Errorf("building top products: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying top products: %w", err)
	}
	defer rows.Close()

	top := []TopProduct{}
	for rows.Next() {
		var t TopProduct
		if err := rows.Scan(&t.ProductID, &t.Name, &t.Quantity, &t.Revenue); err != nil {
			return nil, fmt.Errorf("scanning top product: %w", err)
		}
		top = append(top, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating top products: %w", err)
	}
	return top, nil
}
