package contact

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
)

// ErrContactNotFound is returned when a contact does not exist or is outside the caller's scope.
var ErrContactNotFound = errors.New("contact not found")

// Repository provides CRUD operations on one contact table.
type Repository interface {
	Kind() Kind
	Create(ctx context.Context, c *Contact) error
	GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Contact, error)
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Contact, int, error)
	Update(ctx context.Context, scope access.Scope, id uuid.UUID, upd Update) (*Contact, error)
	Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error
}
