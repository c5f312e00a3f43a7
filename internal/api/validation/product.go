package validation

import "regexp"

var skuRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]{0,63}$`)

// ProductRequest mirrors the fields needed for create product validation.
type ProductRequest struct {
	SKU      string
	Name     string
	Category string
	Unit     string
	Price    int64
	Cost     int64
	Stock    int
	MinStock int
}

// ValidateProductRequest validates the fields of a create product request.
func ValidateProductRequest(req ProductRequest) []FieldError {
	var errs []FieldError

	if req.SKU == "" {
		errs = append(errs, FieldError{Field: "sku", Message: "sku is required"})
	} else if !skuRegex.MatchString(req.SKU) {
		errs = append(errs, FieldError{Field: "sku", Message: "sku must be 1-64 letters, digits, dots, dashes, slashes or underscores"})
	}

	errs = requiredString(errs, "name", req.Name, maxNameLen)
	errs = maxLength(errs, "category", req.Category, 100)
	errs = maxLength(errs, "unit", req.Unit, 32)
	errs = amount(errs, "price", req.Price)
	errs = amount(errs, "cost", req.Cost)
	errs = stockLevel(errs, "stock", req.Stock)
	errs = stockLevel(errs, "minStock", req.MinStock)

	return errs
}

// UpdateProductRequest mirrors the fields needed for update product validation.
type UpdateProductRequest struct {
	SKU      *string
	Name     *string
	Category *string
	Unit     *string
	Price    *int64
	Cost     *int64
	MinStock *int
}

// ValidateUpdateProductRequest validates the fields of an update product request.
func ValidateUpdateProductRequest(req UpdateProductRequest) []FieldError {
	var errs []FieldError

	if req.SKU != nil && !skuRegex.MatchString(*req.SKU) {
		errs = append(errs, FieldError{Field: "sku", Message: "sku must be 1-64 letters, digits, dots, dashes, slashes or underscores"})
	}
	if req.Name != nil {
		errs = requiredString(errs, "name", *req.Name, maxNameLen)
	}
	if req.Category != nil {
		errs = maxLength(errs, "category", *req.Category, 100)
	}
	if req.Unit != nil {
		errs = maxLength(errs, "unit", *req.Unit, 32)
	}
	if req.Price != nil {
		errs = amount(errs, "price", *req.Price)
	}
	if req.Cost != nil {
		errs = amount(errs, "cost", *req.Cost)
	}
	if req.MinStock != nil {
		errs = stockLevel(errs, "minStock", *req.MinStock)
	}

	return errs
}
