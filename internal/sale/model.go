package sale

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Payment methods accepted at checkout.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentQRIS     = "qris"
)

// PaymentMethods lists every accepted payment method.
var PaymentMethods = []string{PaymentCash, PaymentCard, PaymentTransfer, PaymentQRIS}

// ErrInsufficientPayment is returned when the amount paid is below the total.
var ErrInsufficientPayment = errors.New("paid amount is less than total")

// ErrAmountOutOfRange is returned when a money figure is negative or too large
// to represent.
var ErrAmountOutOfRange = errors.New("amount out of range")

// Sale represents a row in the sales table with its line items.
type Sale struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	TokoID        uuid.UUID
	InvoiceNo     string
	CashierID     uuid.UUID
	CustomerID    *uuid.UUID
	Subtotal      int64
	Discount      int64
	Total         int64
	Paid          int64
	Change        int64
	PaymentMethod string
	CreatedAt     time.Time
	Items         []Item
}

// Item represents a row in the sale_items table. Name, Price and Cost are
// copied from the product at checkout time.
type Item struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Price     int64
	Cost      int64
	Subtotal  int64
}

// Line is one requested checkout line. Price overrides the catalog price when set.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
	Price     *int64
}

// Checkout is a request to record a sale in a store.
type Checkout struct {
	TenantID      uuid.UUID
	TokoID        uuid.UUID
	CashierID     uuid.UUID
	CustomerID    *uuid.UUID
	Lines         []Line
	Discount      int64
	Paid          int64
	PaymentMethod string
}

// Totals are the money figures of a sale.
type Totals struct {
	Subtotal int64
	Discount int64
	Total    int64
	Change   int64
}

// Compute fills each item's subtotal and returns the sale totals. The total
// never drops below zero. Negative inputs and sums beyond int64 return
// ErrAmountOutOfRange.
func Compute(items []Item, discount, paid int64) (Totals, error) {
	var t Totals
	if discount < 0 || paid < 0 {
		return t, ErrAmountOutOfRange
	}
	for i := range items {
		sub, ok := LineSubtotal(items[i].Quantity, items[i].Price)
		if !ok || sub > math.MaxInt64-t.Subtotal {
			return Totals{}, ErrAmountOutOfRange
		}
		items[i].Subtotal = sub
		t.Subtotal += sub
	}

	t.Discount = discount
	t.Total = t.Subtotal - discount
	if t.Total < 0 {
		t.Total = 0
	}

	if paid < t.Total {
		return t, ErrInsufficientPayment
	}
	t.Change = paid - t.Total
	return t, nil
}

// LineSubtotal returns quantity*price, or false when either is negative or
// the product does not fit in an int64.
func LineSubtotal(quantity int, price int64) (int64, bool) {
	q := int64(quantity)
	if q < 0 || price < 0 {
		return 0, false
	}
	if price != 0 && q > math.MaxInt64/price {
		return 0, false
	}
	return q * price, true
}

// InvoiceNumber returns a new invoice number of the form INV-YYYYMMDD-XXXXXX.
func InvoiceNumber(now time.Time) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating invoice suffix: %w", err)
	}
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), hex.EncodeToString(b)), nil
}

// ListFilter holds optional filters and pagination for listing sales.
type ListFilter struct {
	From      *time.Time
	To        *time.Time
	CashierID *uuid.UUID
	Page      int
	Limit     int
}
