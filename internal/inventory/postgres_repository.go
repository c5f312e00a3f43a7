package inventory

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/database"
)

var movementColumns = []string{
	"id", "tenant_id", "toko_id", "product_id", "delta", "stock_after",
	"reason", "reference_id", "note", "created_by", "created_at",
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Adjust applies m in a dedicated transaction.
func (r *PostgresRepository) Adjust(ctx context.Context, m *Movement) error {
	if m.Reason == "" {
		m.Reason = ReasonAdjustment
	}
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return Apply(ctx, tx, m)
	})
}

// ListMovements returns the movements visible to scope, newest first, and the total count.
func (r *PostgresRepository) ListMovements(ctx context.Context, scope access.Scope, filter MovementFilter) ([]Movement, int, error) {
	_, limit, offset := database.NormalizePage(filter.Page, filter.Limit)

	conds := sq.And{access.Clause(&scope)}
	if filter.ProductID != nil {
		conds = append(conds, sq.Eq{"product_id": *filter.ProductID})
	}
	if filter.Reason != "" {
		conds = append(conds, sq.Eq{"reason": filter.Reason})
	}

	countQuery, countArgs, err := database.SQL.Select("COUNT(*)").From("stock_movements").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building movement count: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting movements: %w", err)
	}

	query, args, err := database.SQL.
		Select(movementColumns...).
		From("stock_movements").
		Where(conds).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building movement list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing movements: %w", err)
	}
	defer rows.Close()

	movements := []Movement{}
	for rows.Next() {
		var m Movement
		err := rows.Scan(
			&m.ID, &m.TenantID, &m.TokoID, &m.ProductID, &m.Delta, &m.StockAfter,
			&m.Reason, &m.ReferenceID, &m.Note, &m.CreatedBy, &m.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning movement row: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating movement rows: %w", err)
	}

	return movements, total, nil
}
