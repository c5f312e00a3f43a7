package report

import (
	"context"

	"github.com/kasirku/kasir/internal/access"
)

// Repository runs report queries.
type Repository interface {
	Summary(ctx context.Context, scope access.Scope, p Period) (*Summary, error)
	Daily(ctx context.Context, scope access.Scope, p Period) ([]Day, error)
	TopProducts(ctx context.Context, scope access.Scope, p Period, limit int) ([]TopProduct, error)
}
