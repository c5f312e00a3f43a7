// Package note stores free-form store notes written by staff.
package note

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
)

// ErrNoteNotFound is returned when a note does not exist or is outside the caller's scope.
var ErrNoteNotFound = errors.New("note not found")

// Note represents a row in the notes table.
type Note struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	TokoID    uuid.UUID
	AuthorID  uuid.UUID
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Update holds the mutable fields of a note. Nil fields are left as-is.
type Update struct {
	Title *string
	Body  *string
}

// ListFilter holds optional filters and pagination for listing notes.
type ListFilter struct {
	Query string
	Page  int
	Limit int
}

// Repository provides CRUD operations on the notes table.
type Repository interface {
	Create(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Note, error)
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Note, int, error)
	Update(ctx context.Context, scope access.Scope, id uuid.UUID, upd Update) (*Note, error)
	Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error
}
