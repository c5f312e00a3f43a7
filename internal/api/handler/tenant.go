package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/api/validation"
	"github.com/kasirku/kasir/internal/tenant"
)

type createTenantRequest struct {
	Name string `json:"name"`
}

type tenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type createStoreRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	TenantID string `json:"tenantId"`
}

type updateStoreRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

type storeResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toTenantResponse(t *tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
}

func toStoreResponse(s *tenant.Store) storeResponse {
	return storeResponse{
		ID:        s.ID.String(),
		TenantID:  s.TenantID.String(),
		Name:      s.Name,
		Address:   s.Address,
		Phone:     s.Phone,
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}
}

// StoreCache drops cached store ownership.
type StoreCache interface {
	Forget(storeID uuid.UUID)
}

// TenantHandler handles tenant and store endpoints.
type TenantHandler struct {
	repo  tenant.Repository
	cache StoreCache
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(repo tenant.Repository, cache StoreCache) *TenantHandler {
	return &TenantHandler{repo: repo, cache: cache}
}

// CreateTenant handles POST /tenants.
func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req createTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	if fieldErrors := validation.ValidateCreateTenantRequest(validation.CreateTenantRequest(req)); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	t := &tenant.Tenant{Name: req.Name}
	if err := h.repo.CreateTenant(r.Context(), t); err != nil {
		if errors.Is(err, tenant.ErrDuplicateTenantName) {
			response.Err(w, http.StatusConflict, response.CodeConflict, "Tenant name already exists", requestID)
			return
		}
		response.Internal(w, "failed to create tenant", err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTenantResponse(t), requestID)
}

// ListTenants handles GET /tenants.
func (h *TenantHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenants, err := h.repo.ListTenants(r.Context())
	if err != nil {
		response.Internal(w, "failed to list tenants", err, requestID)
		return
	}

	items := make([]tenantResponse, 0, len(tenants))
	for i := range tenants {
		items = append(items, toTenantResponse(&tenants[i]))
	}
	response.Success(w, http.StatusOK, items, requestID)
}

// GetTenant handles GET /tenants/{id}.
func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	t, err := h.repo.GetTenant(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Tenant not found", requestID)
			return
		}
		response.Internal(w, "failed to get tenant", err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toTenantResponse(t), requestID)
}

// CreateStore handles POST /stores. Non-god callers create stores in their
// own tenant; the god user names the tenant in the body.
func (h *TenantHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}

	var req createStoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	if fieldErrors := validation.ValidateStoreRequest(validation.StoreRequest(req)); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	tenantID, ok := storeTenant(w, r, scope, req.TenantID)
	if !ok {
		return
	}

	s := &tenant.Store{
		TenantID: tenantID,
		Name:     req.Name,
		Address:  strings.TrimSpace(req.Address),
		Phone:    strings.TrimSpace(req.Phone),
	}
	if err := h.repo.CreateStore(r.Context(), s); err != nil {
		switch {
		case errors.Is(err, tenant.ErrDuplicateStoreName):
			response.Err(w, http.StatusConflict, response.CodeConflict, "Store name already exists in this tenant", requestID)
		case errors.Is(err, tenant.ErrTenantNotFound):
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Tenant not found", requestID)
		default:
			response.Internal(w, "failed to create store", err, requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, toStoreResponse(s), requestID)
}

func storeTenant(w http.ResponseWriter, r *http.Request, scope access.Scope, requested string) (uuid.UUID, bool) {
	requestID := middleware.GetRequestID(r.Context())

	if scope.EnforceTenant {
		id, err := uuid.Parse(scope.TenantID)
		if err != nil {
			response.Err(w, http.StatusForbidden, response.CodeForbidden, "Caller is not assigned to a tenant", requestID)
			return uuid.Nil, false
		}
		return id, true
	}

	if requested == "" {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed",
			[]validation.FieldError{{Field: "tenantId", Message: "tenantId is required"}}, requestID)
		return uuid.Nil, false
	}
	id, _ := uuid.Parse(requested) // already validated
	return id, true
}

// ListStores handles GET /stores.
func (h *TenantHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	page, limit, ok := parsePage(w, r)
	if !ok {
		return
	}
	tenantID, ok := optionalUUIDParam(w, r, "tenantId")
	if !ok {
		return
	}

	stores, total, err := h.repo.ListStores(r.Context(), scope, tenant.StoreFilter{TenantID: tenantID, Page: page, Limit: limit})
	if err != nil {
		response.Internal(w, "failed to list stores", err, requestID)
		return
	}

	items := make([]storeResponse, 0, len(stores))
	for i := range stores {
		items = append(items, toStoreResponse(&stores[i]))
	}
	response.SuccessList(w, items, pageMeta(total, page, limit), requestID)
}

// GetStore handles GET /stores/{id}.
func (h *TenantHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s, err := h.repo.GetStore(r.Context(), scope, id)
	if err != nil {
		h.storeError(w, requestID, "failed to get store", err)
		return
	}

	response.Success(w, http.StatusOK, toStoreResponse(s), requestID)
}

// UpdateStore handles PATCH /stores/{id}.
func (h *TenantHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateStoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fieldErrors := validation.ValidateUpdateStoreRequest(validation.UpdateStoreRequest(req)); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	s, err := h.repo.UpdateStore(r.Context(), scope, id, tenant.StoreUpdate(req))
	if err != nil {
		if errors.Is(err, tenant.ErrDuplicateStoreName) {
			response.Err(w, http.StatusConflict, response.CodeConflict, "Store name already exists in this tenant", requestID)
			return
		}
		h.storeError(w, requestID, "failed to update store", err)
		return
	}

	response.Success(w, http.StatusOK, toStoreResponse(s), requestID)
}

// DeleteStore handles DELETE /stores/{id}.
func (h *TenantHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteStore(r.Context(), scope, id); err != nil {
		if errors.Is(err, tenant.ErrStoreInUse) {
			response.Err(w, http.StatusConflict, response.CodeConflict, "Store still has products, sales or users", requestID)
			return
		}
		h.storeError(w, requestID, "failed to delete store", err)
		return
	}
	h.cache.Forget(id)

	response.NoContent(w)
}

func (h *TenantHandler) storeError(w http.ResponseWriter, requestID, msg string, err error) {
	if errors.Is(err, tenant.ErrStoreNotFound) {
		response.Err(w, http.StatusNotFound, response.CodeNotFound, "Store not found", requestID)
		return
	}
	response.Internal(w, msg, err, requestID)
}
