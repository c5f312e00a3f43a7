package validation

import (
	"fmt"
	"slices"

	"github.com/kasirku/kasir/internal/sale"
)

const maxLines = 200

// AdjustmentRequest mirrors the fields needed for stock adjustment validation.
type AdjustmentRequest struct {
	ProductID string
	Delta     int
	Note      string
}

// ValidateAdjustmentRequest validates the fields of a stock adjustment request.
func ValidateAdjustmentRequest(req AdjustmentRequest) []FieldError {
	errs := requiredUUID(nil, "productId", req.ProductID)
	switch {
	case req.Delta == 0:
		errs = append(errs, FieldError{Field: "delta", Message: "delta must not be zero"})
	case req.Delta > MaxQuantity || req.Delta < -MaxQuantity:
		errs = append(errs, FieldError{Field: "delta", Message: fmt.Sprintf("delta must be between -%d and %d", MaxQuantity, MaxQuantity)})
	}
	return maxLength(errs, "note", req.Note, 500)
}

// SaleLine is one item of a sale request.
type SaleLine struct {
	ProductID string
	Quantity  int
	Price     *int64
}

// SaleRequest mirrors the fields needed for checkout validation.
type SaleRequest struct {
	Items         []SaleLine
	Discount      int64
	Paid          int64
	PaymentMethod string
	CustomerID    string
}

// ValidateSaleRequest validates the fields of a checkout request.
func ValidateSaleRequest(req SaleRequest) []FieldError {
	var errs []FieldError

	errs = validateLineCount(errs, len(req.Items))
	for i, it := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		errs = requiredUUID(errs, prefix+"productId", it.ProductID)
		errs = quantity(errs, prefix+"quantity", it.Quantity)
		if it.Price != nil {
			errs = amount(errs, prefix+"price", *it.Price)
		}
	}

	errs = amount(errs, "discount", req.Discount)
	errs = amount(errs, "paid", req.Paid)

	if req.PaymentMethod == "" {
		errs = append(errs, FieldError{Field: "paymentMethod", Message: "paymentMethod is required"})
	} else if !slices.Contains(sale.PaymentMethods, req.PaymentMethod) {
		errs = append(errs, FieldError{Field: "paymentMethod", Message: "paymentMethod must be one of cash, card, transfer, qris"})
	}

	return optionalUUID(errs, "customerId", req.CustomerID)
}

// PurchaseLine is one item of a purchase request.
type PurchaseLine struct {
	ProductID string
	Quantity  int
	Cost      int64
}

// PurchaseRequest mirrors the fields needed for goods receipt validation.
type PurchaseRequest struct {
	SupplierID string
	InvoiceNo  string
	Items      []PurchaseLine
}

// ValidatePurchaseRequest validates the fields of a goods receipt request.
func ValidatePurchaseRequest(req PurchaseRequest) []FieldError {
	var errs []FieldError

	errs = optionalUUID(errs, "supplierId", req.SupplierID)
	errs = maxLength(errs, "invoiceNo", req.InvoiceNo, 64)

	errs = validateLineCount(errs, len(req.Items))
	for i, it := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		errs = requiredUUID(errs, prefix+"productId", it.ProductID)
		errs = quantity(errs, prefix+"quantity", it.Quantity)
		errs = amount(errs, prefix+"cost", it.Cost)
	}

	return errs
}

func validateLineCount(errs []FieldError, n int) []FieldError {
	switch {
	case n == 0:
		return append(errs, FieldError{Field: "items", Message: "items must not be empty"})
	case n > maxLines:
		return append(errs, FieldError{Field: "items", Message: fmt.Sprintf("items must have at most %d entries", maxLines)})
	}
	return errs
}
