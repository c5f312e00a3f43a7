package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/api/validation"
	"github.com/kasirku/kasir/internal/sale"
)

type saleLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     *int64 `json:"price"`
}

type createSaleRequest struct {
	Items         []saleLineRequest `json:"items"`
	Discount      int64             `json:"discount"`
	Paid          int64             `json:"paid"`
	PaymentMethod string            `json:"paymentMethod"`
	CustomerID    string            `json:"customerId"`
}

type saleItemResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Subtotal  int64  `json:"subtotal"`
}

type saleResponse struct {
	ID            string             `json:"id"`
	TokoID        string             `json:"tokoId"`
	InvoiceNo     string             `json:"invoiceNo"`
	CashierID     string             `json:"cashierId"`
	CustomerID    *string            `json:"customerId"`
	Subtotal      int64              `json:"subtotal"`
	Discount      int64              `json:"discount"`
	Total         int64              `json:"total"`
	Paid          int64              `json:"paid"`
	Change        int64              `json:"change"`
	PaymentMethod string             `json:"paymentMethod"`
	CreatedAt     string             `json:"createdAt"`
	Items         []saleItemResponse `json:"items,omitempty"`
}

func toSaleResponse(s *sale.Sale) saleResponse {
	resp := saleResponse{
		ID:            s.ID.String(),
		TokoID:        s.TokoID.String(),
		InvoiceNo:     s.InvoiceNo,
		CashierID:     s.CashierID.String(),
		CustomerID:    uuidPtrString(s.CustomerID),
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		Total:         s.Total,
		Paid:          s.Paid,
		Change:        s.Change,
		PaymentMethod: s.PaymentMethod,
		CreatedAt:     formatTime(s.CreatedAt),
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, saleItemResponse{
			ProductID: it.ProductID.String(),
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Subtotal:  it.Subtotal,
		})
	}
	return resp
}

// SaleHandler handles checkout and sales history endpoints.
type SaleHandler struct {
	repo    sale.Repository
	locator StoreLocator
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(repo sale.Repository, locator StoreLocator) *SaleHandler {
	return &SaleHandler{repo: repo, locator: locator}
}

// Create handles POST /sales. The caller is recorded as the cashier.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	cashierID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lines := make([]validation.SaleLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = validation.SaleLine(it)
	}
	fieldErrors := validation.ValidateSaleRequest(validation.SaleRequest{
		Items:         lines,
		Discount:      req.Discount,
		Paid:          req.Paid,
		PaymentMethod: req.PaymentMethod,
		CustomerID:    req.CustomerID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	tenantID, storeID, ok := locate(w, r, h.locator, scope)
	if !ok {
		return
	}

	checkout := sale.Checkout{
		TenantID:      tenantID,
		TokoID:        storeID,
		CashierID:     cashierID,
		CustomerID:    parseOptionalUUID(req.CustomerID),
		Lines:         make([]sale.Line, len(req.Items)),
		Discount:      req.Discount,
		Paid:          req.Paid,
		PaymentMethod: req.PaymentMethod,
	}
	for i, it := range req.Items {
		productID, _ := uuid.Parse(it.ProductID) // already validated
		checkout.Lines[i] = sale.Line{ProductID: productID, Quantity: it.Quantity, Price: it.Price}
	}

	s, err := h.repo.Create(r.Context(), checkout)
	if err != nil {
		switch {
		case errors.Is(err, sale.ErrInsufficientPayment):
			response.Err(w, http.StatusBadRequest, response.CodeInsufficientPayment, "Paid amount is less than the total", requestID)
		case errors.Is(err, sale.ErrAmountOutOfRange):
			response.Err(w, http.StatusBadRequest, response.CodeAmountOutOfRange, "Sale total is out of range", requestID)
		case errors.Is(err, sale.ErrCustomerNotFound):
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Customer not found", requestID)
		default:
			stockError(w, requestID, "failed to create sale", err)
		}
		return
	}

	response.Success(w, http.StatusCreated, toSaleResponse(s), requestID)
}

// List handles GET /sales.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
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
	cashierID, ok := optionalUUIDParam(w, r, "cashierId")
	if !ok {
		return
	}

	sales, total, err := h.repo.List(r.Context(), scope, sale.ListFilter{
		From:      from,
		To:        to,
		CashierID: cashierID,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		response.Internal(w, "failed to list sales", err, requestID)
		return
	}

	items := make([]saleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, toSaleResponse(&sales[i]))
	}
	response.SuccessList(w, items, pageMeta(total, page, limit), requestID)
}

// Get handles GET /sales/{id}.
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s, err := h.repo.GetByID(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, sale.ErrSaleNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Sale not found", requestID)
			return
		}
		response.Internal(w, "failed to get sale", err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toSaleResponse(s), requestID)
}
