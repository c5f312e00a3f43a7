package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/api/validation"
	"github.com/kasirku/kasir/internal/contact"
)

type contactRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

func (req *contactRequest) trim() {
	for _, f := range []*string{req.Name, req.Phone, req.Email, req.Address} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

type contactResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId"`
	TokoID    string `json:"tokoId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toContactResponse(c *contact.Contact) contactResponse {
	return contactResponse{
		ID:        c.ID.String(),
		TenantID:  c.TenantID.String(),
		TokoID:    c.TokoID.String(),
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ContactHandler serves the customers or suppliers collection, depending on
// the repository it is given.
type ContactHandler struct {
	repo    contact.Repository
	locator StoreLocator
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(repo contact.Repository, locator StoreLocator) *ContactHandler {
	return &ContactHandler{repo: repo, locator: locator}
}

// Create handles POST /customers and POST /suppliers.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}

	var req contactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.trim()

	if fieldErrors := validation.ValidateContactRequest(validation.ContactRequest(req), true); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	tenantID, storeID, ok := locate(w, r, h.locator, scope)
	if !ok {
		return
	}

	c := &contact.Contact{
		TenantID: tenantID,
		TokoID:   storeID,
		Name:     deref(req.Name),
		Phone:    deref(req.Phone),
		Email:    deref(req.Email),
		Address:  deref(req.Address),
	}
	if err := h.repo.Create(r.Context(), c); err != nil {
		response.Internal(w, "failed to create "+h.repo.Kind().Singular(), err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, toContactResponse(c), requestID)
}

// List handles GET /customers and GET /suppliers.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	page, limit, ok := parsePage(w, r)
	if !ok {
		return
	}

	contacts, total, err := h.repo.List(r.Context(), scope, contact.ListFilter{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		response.Internal(w, "failed to list "+string(h.repo.Kind()), err, requestID)
		return
	}

	items := make([]contactResponse, 0, len(contacts))
	for i := range contacts {
		items = append(items, toContactResponse(&contacts[i]))
	}
	response.SuccessList(w, items, pageMeta(total, page, limit), requestID)
}

// Get handles GET /customers/{id} and GET /suppliers/{id}.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	c, err := h.repo.GetByID(r.Context(), scope, id)
	if err != nil {
		h.contactError(w, requestID, "failed to get "+h.repo.Kind().Singular(), err)
		return
	}

	response.Success(w, http.StatusOK, toContactResponse(c), requestID)
}

// Update handles PATCH /customers/{id} and PATCH /suppliers/{id}.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req contactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.trim()

	if fieldErrors := validation.ValidateContactRequest(validation.ContactRequest(req), false); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	c, err := h.repo.Update(r.Context(), scope, id, contact.Update(req))
	if err != nil {
		h.contactError(w, requestID, "failed to update "+h.repo.Kind().Singular(), err)
		return
	}

	response.Success(w, http.StatusOK, toContactResponse(c), requestID)
}

// Delete handles DELETE /customers/{id} and DELETE /suppliers/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), scope, id); err != nil {
		h.contactError(w, requestID, "failed to delete "+h.repo.Kind().Singular(), err)
		return
	}

	response.NoContent(w)
}

func (h *ContactHandler) contactError(w http.ResponseWriter, requestID, msg string, err error) {
	if errors.Is(err, contact.ErrContactNotFound) {
		singular := h.repo.Kind().Singular()
		response.Err(w, http.StatusNotFound, response.CodeNotFound, strings.ToUpper(singular[:1])+singular[1:]+" not found", requestID)
		return
	}
	response.Internal(w, msg, err, requestID)
}
