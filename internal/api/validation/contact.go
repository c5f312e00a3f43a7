package validation

import "net/mail"

// ContactRequest mirrors the fields needed for customer and supplier validation.
// Name is nil on updates that leave it unchanged.
type ContactRequest struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
}

// ValidateContactRequest validates a customer or supplier body. Name is
// required when create is true.
func ValidateContactRequest(req ContactRequest, create bool) []FieldError {
	var errs []FieldError

	switch {
	case req.Name != nil:
		errs = requiredString(errs, "name", *req.Name, maxNameLen)
	case create:
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}

	if req.Phone != nil {
		errs = maxLength(errs, "phone", *req.Phone, 32)
	}
	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
		}
	}
	if req.Address != nil {
		errs = maxLength(errs, "address", *req.Address, 500)
	}

	return errs
}
