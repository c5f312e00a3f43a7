package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/api/validation"
	"github.com/kasirku/kasir/internal/product"
)

type createProductRequest struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Price    int64  `json:"price"`
	Cost     int64  `json:"cost"`
	Stock    int    `json:"stock"`
	MinStock int    `json:"minStock"`
}

type updateProductRequest struct {
	SKU      *string `json:"sku"`
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Unit     *string `json:"unit"`
	Price    *int64  `json:"price"`
	Cost     *int64  `json:"cost"`
	MinStock *int    `json:"minStock"`
}

type productResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId"`
	TokoID    string `json:"tokoId"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Unit      string `json:"unit"`
	Price     int64  `json:"price"`
	Cost      int64  `json:"cost"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"minStock"`
	LowStock  bool   `json:"lowStock"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:        p.ID.String(),
		TenantID:  p.TenantID.String(),
		TokoID:    p.TokoID.String(),
		SKU:       p.SKU,
		Name:      p.Name,
		Category:  p.Category,
		Unit:      p.Unit,
		Price:     p.Price,
		Cost:      p.Cost,
		Stock:     p.Stock,
		MinStock:  p.MinStock,
		LowStock:  p.Low(),
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func toProductResponses(products []product.Product) []productResponse {
	items := make([]productResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	return items
}

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	repo    product.Repository
	locator StoreLocator
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(repo product.Repository, locator StoreLocator) *ProductHandler {
	return &ProductHandler{repo: repo, locator: locator}
}

// Create handles POST /products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)

	if fieldErrors := validation.ValidateProductRequest(validation.ProductRequest(req)); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	tenantID, storeID, ok := locate(w, r, h.locator, scope)
	if !ok {
		return
	}

	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "pcs"
	}

	p := &product.Product{
		TenantID: tenantID,
		TokoID:   storeID,
		SKU:      req.SKU,
		Name:     req.Name,
		Category: strings.TrimSpace(req.Category),
		Unit:     unit,
		Price:    req.Price,
		Cost:     req.Cost,
		Stock:    req.Stock,
		MinStock: req.MinStock,
	}
	if err := h.repo.Create(r.Context(), p); err != nil {
		if errors.Is(err, product.ErrDuplicateSKU) {
			response.Err(w, http.StatusConflict, response.CodeConflict, "SKU already exists in this store", requestID)
			return
		}
		response.Internal(w, "failed to create product", err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, toProductResponse(p), requestID)
}

// List handles GET /products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	page, limit, ok := parsePage(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := product.ListFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: q.Get("category"),
		LowStock: q.Get("lowStock") == "true",
		Page:     page,
		Limit:    limit,
	}

	products, total, err := h.repo.List(r.Context(), scope, filter)
	if err != nil {
		response.Internal(w, "failed to list products", err, requestID)
		return
	}

	response.SuccessList(w, toProductResponses(products), pageMeta(total, page, limit), requestID)
}

// Get handles GET /products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
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
		productError(w, requestID, "failed to get product", err)
		return
	}

	response.Success(w, http.StatusOK, toProductResponse(p), requestID)
}

// Update handles PATCH /products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fieldErrors := validation.ValidateUpdateProductRequest(validation.UpdateProductRequest(req)); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	p, err := h.repo.Update(r.Context(), scope, id, product.Update(req))
	if err != nil {
		if errors.Is(err, product.ErrDuplicateSKU) {
			response.Err(w, http.StatusConflict, response.CodeConflict, "SKU already exists in this store", requestID)
			return
		}
		productError(w, requestID, "failed to update product", err)
		return
	}

	response.Success(w, http.StatusOK, toProductResponse(p), requestID)
}

// Delete handles DELETE /products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		if errors.Is(err, product.ErrProductInUse) {
			response.Err(w, http.StatusConflict, response.CodeConflict, "Product has sales, purchases or stock movements", requestID)
			return
		}
		productError(w, requestID, "failed to delete product", err)
		return
	}

	response.NoContent(w)
}

// LowStock handles GET /inventory/low-stock.
func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}

	products, err := h.repo.LowStock(r.Context(), scope)
	if err != nil {
		response.Internal(w, "failed to list low stock products", err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toProductResponses(products), requestID)
}

func productError(w http.ResponseWriter, requestID, msg string, err error) {
	if errors.Is(err, product.ErrProductNotFound) {
		response.Err(w, http.StatusNotFound, response.CodeNotFound, "Product not found", requestID)
		return
	}
	response.Internal(w, msg, err, requestID)
}
