// Package contact stores the people a store trades with: customers and suppliers.
package contact

import (
	"time"

	"github.com/google/uuid"
)

// Kind selects the table a Repository works on.
type Kind string

const (
	Customers Kind = "customers"
	Suppliers Kind = "suppliers"
)

// Singular returns the display name of one record of the kind.
func (k Kind) Singular() string {
	if k == Suppliers {
		return "supplier"
	}
	return "customer"
}

// Contact represents a row in the customers or suppliers table.
type Contact struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	TokoID    uuid.UUID
	Name      string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Update holds the mutable fields of a contact. Nil fields are left as-is.
type Update struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
}

// ListFilter holds optional filters and pagination for listing contacts.
type ListFilter struct {
	Query string // matches name, phone or email
	Page  int
	Limit int
}
