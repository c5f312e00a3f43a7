package purchase

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/sale"
)

// Purchase represents a row in the purchases table with its line items.
type Purchase struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	TokoID     uuid.UUID
	SupplierID *uuid.UUID
	InvoiceNo  string
	Total      int64
	CreatedBy  uuid.UUID
	CreatedAt  time.Time
	Items      []Item
}

// Item represents a row in the purchase_items table.
type Item struct {
	ID         uuid.UUID
	PurchaseID uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	Cost       int64
	Subtotal   int64
}

// Receipt is a request to record goods received into a store.
type Receipt struct {
	TenantID   uuid.UUID
	TokoID     uuid.UUID
	SupplierID *uuid.UUID
	InvoiceNo  string
	CreatedBy  uuid.UUID
	Items      []Item
}

// ErrAmountOutOfRange is returned when a receipt total does not fit in an int64.
var ErrAmountOutOfRange = sale.ErrAmountOutOfRange

// Total returns the sum of quantity*cost over items and fills each subtotal.
func Total(items []Item) (int64, error) {
	var total int64
	for i := range items {
		sub, ok := sale.LineSubtotal(items[i].Quantity, items[i].Cost)
		if !ok || sub > math.MaxInt64-total {
			return 0, ErrAmountOutOfRange
		}
		items[i].Subtotal = sub
		total += sub
	}
	return total, nil
}

// ListFilter holds optional filters and pagination for listing purchases.
type ListFilter struct {
	From       *time.Time
	To         *time.Time
	SupplierID *uuid.UUID
	Page       int
	Limit      int
}
