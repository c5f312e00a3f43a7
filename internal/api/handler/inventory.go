package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/api/validation"
	"github.com/kasirku/kasir/internal/inventory"
	"github.com/kasirku/kasir/internal/product"
)

type adjustmentRequest struct {
	ProductID string `json:"productId"`
	Delta     int    `json:"delta"`
	Note      string `json:"note"`
}

type movementResponse struct {
	ID          string  `json:"id"`
	TokoID      string  `json:"tokoId"`
	ProductID   string  `json:"productId"`
	Delta       int     `json:"delta"`
	StockAfter  int     `json:"stockAfter"`
	Reason      string  `json:"reason"`
	ReferenceID *string `json:"referenceId"`
	Note        string  `json:"note"`
	CreatedBy   string  `json:"createdBy"`
	CreatedAt   string  `json:"createdAt"`
}

func toMovementResponse(m *inventory.Movement) movementResponse {
	return movementResponse{
		ID:          m.ID.String(),
		TokoID:      m.TokoID.String(),
		ProductID:   m.ProductID.String(),
		Delta:       m.Delta,
		StockAfter:  m.StockAfter,
		Reason:      m.Reason,
		ReferenceID: uuidPtrString(m.ReferenceID),
		Note:        m.Note,
		CreatedBy:   m.CreatedBy.String(),
		CreatedAt:   formatTime(m.CreatedAt),
	}
}

// InventoryHandler handles stock adjustment and movement history endpoints.
type InventoryHandler struct {
	repo    inventory.Repository
	locator StoreLocator
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(repo inventory.Repository, locator StoreLocator) *InventoryHandler {
	return &InventoryHandler{repo: repo, locator: locator}
}

// Adjust handles POST /inventory/adjustments.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req adjustmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Note = strings.TrimSpace(req.Note)

	if fieldErrors := validation.ValidateAdjustmentRequest(validation.AdjustmentRequest(req)); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	tenantID, storeID, ok := locate(w, r, h.locator, scope)
	if !ok {
		return
	}
	productID, _ := uuid.Parse(req.ProductID) // already validated

	m := &inventory.Movement{
		TenantID:  tenantID,
		TokoID:    storeID,
		ProductID: productID,
		Delta:     req.Delta,
		Reason:    inventory.ReasonAdjustment,
		Note:      req.Note,
		CreatedBy: userID,
	}
	if err := h.repo.Adjust(r.Context(), m); err != nil {
		stockError(w, requestID, "failed to adjust stock", err)
		return
	}

	response.Success(w, http.StatusCreated, toMovementResponse(m), requestID)
}

// Movements handles GET /inventory/movements.
func (h *InventoryHandler) Movements(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	page, limit, ok := parsePage(w, r)
	if !ok {
		return
	}
	productID, ok := optionalUUIDParam(w, r, "productId")
	if !ok {
		return
	}

	reason := r.URL.Query().Get("reason")
	switch reason {
	case "", inventory.ReasonAdjustment, inventory.ReasonSale, inventory.ReasonPurchase:
	default:
		invalidParam(w, r, "reason must be adjustment, sale or purchase")
		return
	}

	movements, total, err := h.repo.ListMovements(r.Context(), scope, inventory.MovementFilter{
		ProductID: productID,
		Reason:    reason,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		response.Internal(w, "failed to list stock movements", err, requestID)
		return
	}

	items := make([]movementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, toMovementResponse(&movements[i]))
	}
	response.SuccessList(w, items, pageMeta(total, page, limit), requestID)
}

// stockError maps the errors shared by every stock-changing write.
func stockError(w http.ResponseWriter, requestID, msg string, err error) {
	switch {
	case errors.Is(err, product.ErrProductNotFound):
		response.Err(w, http.StatusNotFound, response.CodeNotFound, "Product not found", requestID)
	case errors.Is(err, inventory.ErrInsufficientStock):
		response.Err(w, http.StatusConflict, response.CodeInsufficientStock, err.Error(), requestID)
	case errors.Is(err, inventory.ErrStockLimit):
		response.Err(w, http.StatusConflict, response.CodeStockLimit, err.Error(), requestID)
	default:
		response.Internal(w, msg, err, requestID)
	}
}
