package product

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
)

// ErrProductNotFound is returned when a product does not exist or is outside the caller's scope.
var ErrProductNotFound = errors.New("product not found")

// ErrDuplicateSKU is returned when the store already has a product with the same SKU.
var ErrDuplicateSKU = errors.New("sku already exists in this store")

// ErrProductInUse is returned when deleting a product referenced by sales, purchases or movements.
var ErrProductInUse = errors.New("product has transaction history")

// Repository provides operations on the products table.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Product, error)
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Product, int, error)
	Update(ctx context.Context, scope access.Scope, id uuid.UUID, upd Update) (*Product, error)
	Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error
	// LowStock returns every product in scope with stock <= min_stock.
	LowStock(ctx context.Context, scope access.Scope) ([]Product, error)
}
