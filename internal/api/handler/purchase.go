package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/api/validation"
	"github.com/kasirku/kasir/internal/purchase"
)

type purchaseLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Cost      int64  `json:"cost"`
}

type createPurchaseRequest struct {
	SupplierID string                `json:"supplierId"`
	InvoiceNo  string                `json:"invoiceNo"`
	Items      []purchaseLineRequest `json:"items"`
}

type purchaseItemResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Cost      int64  `json:"cost"`
	Subtotal  int64  `json:"subtotal"`
}

type purchaseResponse struct {
	ID         string                 `json:"id"`
	TokoID     string                 `json:"tokoId"`
	SupplierID *string                `json:"supplierId"`
	InvoiceNo  string                 `json:"invoiceNo"`
	Total      int64                  `json:"total"`
	CreatedBy  string                 `json:"createdBy"`
	CreatedAt  string                 `json:"createdAt"`
	Items      []purchaseItemResponse `json:"items,omitempty"`
}

func toPurchaseResponse(p *purchase.Purchase) purchaseResponse {
	resp := purchaseResponse{
		ID:         p.ID.String(),
		TokoID:     p.TokoID.String(),
		SupplierID: uuidPtrString(p.SupplierID),
		InvoiceNo:  p.InvoiceNo,
		Total:      p.Total,
		CreatedBy:  p.CreatedBy.String(),
		CreatedAt:  formatTime(p.CreatedAt),
	}
	for _, it := range p.Items {
		resp.Items = append(resp.Items, purchaseItemResponse{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			Cost:      it.Cost,
			Subtotal:  it.Subtotal,
		})
	}
	return resp
}

// PurchaseHandler handles goods receipt endpoints.
type PurchaseHandler struct {
	repo    purchase.Repository
	locator StoreLocator
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(repo purchase.Repository, locator StoreLocator) *PurchaseHandler {
	return &PurchaseHandler{repo: repo, locator: locator}
}

// Create handles POST /purchases.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createPurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.InvoiceNo = strings.TrimSpace(req.InvoiceNo)

	lines := make([]validation.PurchaseLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = validation.PurchaseLine(it)
	}
	fieldErrors := validation.ValidatePurchaseRequest(validation.PurchaseRequest{
		SupplierID: req.SupplierID,
		InvoiceNo:  req.InvoiceNo,
		Items:      lines,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	tenantID, storeID, ok := locate(w, r, h.locator, scope)
	if !ok {
		return
	}

	receipt := purchase.Receipt{
		TenantID:   tenantID,
		TokoID:     storeID,
		SupplierID: parseOptionalUUID(req.SupplierID),
		InvoiceNo:  req.InvoiceNo,
		CreatedBy:  userID,
		Items:      make([]purchase.Item, len(req.Items)),
	}
	for i, it := range req.Items {
		productID, _ := uuid.Parse(it.ProductID) // already validated
		receipt.Items[i] = purchase.Item{ProductID: productID, Quantity: it.Quantity, Cost: it.Cost}
	}

	p, err := h.repo.Create(r.Context(), receipt)
	if err != nil {
		switch {
		case errors.Is(err, purchase.ErrSupplierNotFound):
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Supplier not found", requestID)
			return
		case errors.Is(err, purchase.ErrAmountOutOfRange):
			response.Err(w, http.StatusBadRequest, response.CodeAmountOutOfRange, "Purchase total is out of range", requestID)
			return
		}
		stockError(w, requestID, "failed to create purchase", err)
		return
	}

	response.Success(w, http.StatusCreated, toPurchaseResponse(p), requestID)
}

// List handles GET /purchases.
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	page, limit, ok := parsePage(w, r)
	if !ok {
		return
	}
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}
	supplierID, ok := optionalUUIDParam(w, r, "supplierId")
	if !ok {
		return
	}

	purchases, total, err := h.repo.List(r.Context(), scope, purchase.ListFilter{
		From:       from,
		To:         to,
		SupplierID: supplierID,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		response.Internal(w, "failed to list purchases", err, requestID)
		return
	}

	items := make([]purchaseResponse, 0, len(purchases))
	for i := range purchases {
		items = append(items, toPurchaseResponse(&purchases[i]))
	}
	response.SuccessList(w, items, pageMeta(total, page, limit), requestID)
}

// Get handles GET /purchases/{id}.
func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.repo.GetByID(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, purchase.ErrPurchaseNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Purchase not found", requestID)
			return
		}
		response.Internal(w, "failed to get purchase", err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toPurchaseResponse(p), requestID)
}
