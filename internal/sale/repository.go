package sale

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
)

// ErrSaleNotFound is returned when a sale does not exist or is outside the caller's scope.
var ErrSaleNotFound = errors.New("sale not found")

// ErrCustomerNotFound is returned when the checkout names a customer of another store.
var ErrCustomerNotFound = errors.New("customer not found")

// Repository records and reads sales.
type Repository interface {
	// Create records the checkout atomically: stock is decremented and
	// movements written in the same transaction as the sale.
	Create(ctx context.Context, c Checkout) (*Sale, error)
	GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Sale, error)
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Sale, int, error)
}
