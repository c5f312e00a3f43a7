package product

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a row in the products table. Money is in minor units.
type Product struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	TokoID    uuid.UUID
	SKU       string
	Name      string
	Category  string
	Unit      string
	Price     int64
	Cost      int64
	Stock     int
	MinStock  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Low reports whether the product is at or below its minimum stock.
func (p *Product) Low() bool {
	return p.Stock <= p.MinStock
}

// Update holds the mutable catalog fields. Stock only changes through
// inventory movements.
type Update struct {
	SKU      *string
	Name     *string
	Category *string
	Unit     *string
	Price    *int64
	Cost     *int64
	MinStock *int
}

// ListFilter holds optional filters and pagination for listing products.
type ListFilter struct {
	Query    string // matches name or sku
	Category string
	LowStock bool
	Page     int
	Limit    int
}
