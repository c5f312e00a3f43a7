package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
)

// ErrUserNotFound is returned when a user record is not found or is out of scope.
var ErrUserNotFound = errors.New("user not found")

// ErrUserDisabled is returned when attempting to operate on a disabled user.
var ErrUserDisabled = errors.New("user is disabled")

// ErrDuplicateUsername is returned when the username is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// UserRepository provides operations on the users table.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]User, int, error)
	Disable(ctx context.Context, scope access.Scope, id uuid.UUID) error
	CountAll(ctx context.Context) (int, error)
}
