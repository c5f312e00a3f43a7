package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
)

// ErrTenantNotFound is returned when a tenant record is not found.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrDuplicateTenantName is returned when a tenant with the same name already exists.
var ErrDuplicateTenantName = errors.New("tenant name already exists")

// ErrStoreNotFound is returned when a store does not exist or is outside the caller's scope.
var ErrStoreNotFound = errors.New("store not found")

// ErrDuplicateStoreName is returned when the tenant already has a store with the same name.
var ErrDuplicateStoreName = errors.New("store name already exists")

// ErrStoreInUse is returned when deleting a store that still has data referencing it.
var ErrStoreInUse = errors.New("store has dependent records")

// Repository provides operations on the tenants and stores tables.
type Repository interface {
	CreateTenant(ctx context.Context, t *Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)

	CreateStore(ctx context.Context, s *Store) error
	GetStore(ctx context.Context, scope access.Scope, id uuid.UUID) (*Store, error)
	ListStores(ctx context.Context, scope access.Scope, filter StoreFilter) ([]Store, int, error)
	UpdateStore(ctx context.Context, scope access.Scope, id uuid.UUID, upd StoreUpdate) (*Store, error)
	DeleteStore(ctx context.Context, scope access.Scope, id uuid.UUID) error

	// StoreTenant returns the tenant owning storeID, ignoring scope.
	StoreTenant(ctx context.Context, storeID uuid.UUID) (uuid.UUID, error)
}
