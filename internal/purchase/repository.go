package purchase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
)

// ErrPurchaseNotFound is returned when a purchase does not exist or is outside the caller's scope.
var ErrPurchaseNotFound = errors.New("purchase not found")

// ErrSupplierNotFound is returned when the receipt names a supplier of another store.
var ErrSupplierNotFound = errors.New("supplier not found")

// Repository records and reads purchases.
type Repository interface {
	// Create records the receipt atomically: stock is incremented, the
	// product cost updated and movements written in one transaction.
	Create(ctx context.Context, r Receipt) (*Purchase, error)
	GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Purchase, error)
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Purchase, int, error)
}
