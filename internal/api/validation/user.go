package validation

import (
	"regexp"

	"github.com/kasirku/kasir/internal/access"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,62}$`)

const minPasswordLen = 8

// LoginRequest mirrors the fields needed for login validation.
type LoginRequest struct {
	Username string
	Password string
}

// ValidateLoginRequest validates the fields of a login request.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError
	if req.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

// CreateUserRequest mirrors the fields needed for create user validation.
type CreateUserRequest struct {
	Username string
	Name     string
	Password string
	Role     string
	TenantID string
	TokoID   string
}

// ValidateCreateUserRequest validates the fields of a create user request.
func ValidateCreateUserRequest(req CreateUserRequest) []FieldError {
	var errs []FieldError

	if req.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	} else if !usernameRegex.MatchString(req.Username) {
		errs = append(errs, FieldError{Field: "username", Message: "username must be 3-63 lowercase letters, digits, dots, dashes or underscores"})
	}

	errs = requiredString(errs, "name", req.Name, maxNameLen)

	if len(req.Password) < minPasswordLen {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	} else if len(req.Password) > 72 {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}

	if req.Role == "" {
		errs = append(errs, FieldError{Field: "role", Message: "role is required"})
	} else if role, err := access.ParseRole(req.Role); err != nil {
		errs = append(errs, FieldError{Field: "role", Message: "role must be one of admin, store_admin, cashier"})
	} else if role == access.RoleGod {
		errs = append(errs, FieldError{Field: "role", Message: "role god cannot be assigned"})
	}

	errs = optionalUUID(errs, "tenantId", req.TenantID)
	errs = optionalUUID(errs, "tokoId", req.TokoID)

	return errs
}
