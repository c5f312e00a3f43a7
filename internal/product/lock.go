package product

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kasirku/kasir/internal/database"
)

// LockForUpdate loads the given products of one store inside tx and holds
// their row locks until tx ends. Rows are locked in id order so concurrent
// checkouts touching the same products cannot deadlock. Every id must exist
// in the store.
func LockForUpdate(ctx context.Context, tx pgx.Tx, tenantID, storeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	query, args, err := database.SQL.
		Select(Columns...).
		From("products").
		Where(sq.Eq{"id": unique, "tenant_id": tenantID, "toko_id": storeID}).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building product lock: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]Product, len(unique))
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning locked product: %w", err)
		}
		locked[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locked products: %w", err)
	}

	for _, id := range unique {
		if _, ok := locked[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
	}
	return locked, nil
}
