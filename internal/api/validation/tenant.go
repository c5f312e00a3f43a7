package validation

// CreateTenantRequest mirrors the fields needed for create tenant validation.
type CreateTenantRequest struct {
	Name string
}

// ValidateCreateTenantRequest validates the fields of a create tenant request.
func ValidateCreateTenantRequest(req CreateTenantRequest) []FieldError {
	return requiredString(nil, "name", req.Name, maxNameLen)
}

// StoreRequest mirrors the fields needed for create store validation.
type StoreRequest struct {
	Name     string
	Address  string
	Phone    string
	TenantID string
}

// ValidateStoreRequest validates the fields of a create store request.
func ValidateStoreRequest(req StoreRequest) []FieldError {
	errs := requiredString(nil, "name", req.Name, maxNameLen)
	errs = maxLength(errs, "address", req.Address, 500)
	errs = maxLength(errs, "phone", req.Phone, 32)
	errs = optionalUUID(errs, "tenantId", req.TenantID)
	return errs
}

// UpdateStoreRequest mirrors the fields needed for update store validation.
type UpdateStoreRequest struct {
	Name    *string
	Address *string
	Phone   *string
}

// ValidateUpdateStoreRequest validates the fields of an update store request.
func ValidateUpdateStoreRequest(req UpdateStoreRequest) []FieldError {
	var errs []FieldError
	if req.Name != nil {
		errs = requiredString(errs, "name", *req.Name, maxNameLen)
	}
	if req.Address != nil {
		errs = maxLength(errs, "address", *req.Address, 500)
	}
	if req.Phone != nil {
		errs = maxLength(errs, "phone", *req.Phone, 32)
	}
	return errs
}
