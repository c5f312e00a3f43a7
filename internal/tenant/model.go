package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a row in the tenants table.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store represents a row in the stores table (a "toko").
type Store struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Address   string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoreUpdate holds the mutable fields of a store. Nil fields are left as-is.
type StoreUpdate struct {
	Name    *string
	Address *string
	Phone   *string
}

// StoreFilter holds optional filters and pagination for listing stores.
type StoreFilter struct {
	TenantID *uuid.UUID
	Page     int
	Limit    int
}
