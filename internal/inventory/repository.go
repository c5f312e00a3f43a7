package inventory

import (
	"context"
	"errors"

	"github.com/kasirku/kasir/internal/access"
)

// ErrInsufficientStock is returned when a movement would take stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrStockLimit is returned when a movement would take stock above MaxStock.
var ErrStockLimit = errors.New("stock limit exceeded")

// Repository records and lists stock movements.
type Repository interface {
	// Adjust applies a manual movement in its own transaction.
	Adjust(ctx context.Context, m *Movement) error
	ListMovements(ctx context.Context, scope access.Scope, filter MovementFilter) ([]Movement, int, error)
}
