// Package validation checks decoded request bodies and reports per-field errors.
package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/inventory"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const maxNameLen = 255

// Upper bounds for request numbers. Amounts are minor currency units.
const (
	MaxQuantity = 1_000_000
	MaxAmount   = 1_000_000_000_000
)

func requiredString(errs []FieldError, field, value string, max int) []FieldError {
	v := strings.TrimSpace(value)
	if v == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	return maxLength(errs, field, v, max)
}

func maxLength(errs []FieldError, field, value string, max int) []FieldError {
	if len(value) > max {
		return append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, max)})
	}
	return errs
}

func requiredUUID(errs []FieldError, field, value string) []FieldError {
	if value == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	return optionalUUID(errs, field, value)
}

func optionalUUID(errs []FieldError, field, value string) []FieldError {
	if value == "" {
		return errs
	}
	if _, err := uuid.Parse(value); err != nil {
		return append(errs, FieldError{Field: field, Message: field + " must be a valid UUID"})
	}
	return errs
}

func quantity(errs []FieldError, field string, value int) []FieldError {
	switch {
	case value <= 0:
		return append(errs, FieldError{Field: field, Message: field + " must be positive"})
	case value > MaxQuantity:
		return append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %d", field, MaxQuantity)})
	}
	return errs
}

func amount(errs []FieldError, field string, value int64) []FieldError {
	if value > MaxAmount {
		return append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %d", field, int64(MaxAmount))})
	}
	return nonNegative(errs, field, value)
}

func stockLevel(errs []FieldError, field string, value int) []FieldError {
	if value > inventory.MaxStock {
		return append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %d", field, inventory.MaxStock)})
	}
	return nonNegative(errs, field, int64(value))
}

func nonNegative(errs []FieldError, field string, value int64) []FieldError {
	if value < 0 {
		return append(errs, FieldError{Field: field, Message: field + " must not be negative"})
	}
	return errs
}
