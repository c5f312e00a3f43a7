package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/handler"
	"github.com/kasirku/kasir/internal/product"
	"github.com/kasirku/kasir/internal/tenant"
)

// --- Mock Product Repository ---

type mockProductRepo struct {
	createFn   func(ctx context.Context, p *product.Product) error
	getByIDFn  func(ctx context.Context, scope access.Scope, id uuid.UUID) (*product.Product, error)
	listFn     func(ctx context.Context, scope access.Scope, filter product.ListFilter) ([]product.Product, int, error)
	updateFn   func(ctx context.Context, scope access.Scope, id uuid.UUID, upd product.Update) (*product.Product, error)
	deleteFn   func(ctx context.Context, scope access.Scope, id uuid.UUID) error
	lowStockFn func(ctx context.Context, scope access.Scope) ([]product.Product, error)
}

func (m *mockProductRepo) Create(ctx context.Context, p *product.Product) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	return nil
}

func (m *mockProductRepo) GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*product.Product, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, scope, id)
	}
	return nil, product.ErrProductNotFound
}

func (m *mockProductRepo) List(ctx context.Context, scope access.Scope, filter product.ListFilter) ([]product.Product, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, scope, filter)
	}
	return []product.Product{}, 0, nil
}

func (m *mockProductRepo) Update(ctx context.Context, scope access.Scope, id uuid.UUID, upd product.Update) (*product.Product, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, scope, id, upd)
	}
	return nil, product.ErrProductNotFound
}

func (m *mockProductRepo) Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, scope, id)
	}
	return nil
}

func (m *mockProductRepo) LowStock(ctx context.Context, scope access.Scope) ([]product.Product, error) {
	if m.lowStockFn != nil {
		return m.lowStockFn(ctx, scope)
	}
	return []product.Product{}, nil
}

func sampleProduct() *product.Product {
	now := time.Now().UTC()
	return &product.Product{
		ID:        uuid.New(),
		TenantID:  testTenantID,
		TokoID:    testStoreID,
		SKU:       "KOPI-01",
		Name:      "Kopi Susu",
		Unit:      "cup",
		Price:     18000,
		Cost:      9000,
		Stock:     3,
		MinStock:  5,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ===== POST /products =====

func TestProductCreate_Success(t *testing.T) {
	t.Parallel()

	var created *product.Product
	repo := &mockProductRepo{
		createFn: func(_ context.Context, p *product.Product) error {
			p.ID = uuid.New()
			created = p
			return nil
		},
	}
	h := handler.NewProductHandler(repo, &mockLocator{})

	body := mustJSON(t, map[string]interface{}{"sku": " KOPI-01 ", "name": "Kopi Susu", "price": 18000})
	req, w := makeChiRequest(http.MethodPost, "/products", body, nil)
	req = asCaller(req, storeAdminPrincipal())

	h.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, testTenantID, created.TenantID)
	assert.Equal(t, testStoreID, created.TokoID)
	assert.Equal(t, "KOPI-01", created.SKU)
	assert.Equal(t, "pcs", created.Unit)

	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, testStoreID.String(), data["tokoId"])
	assert.Equal(t, float64(18000), data["price"])
}

func TestProductCreate_ValidationError(t *testing.T) {
	t.Parallel()

	h := handler.NewProductHandler(&mockProductRepo{}, &mockLocator{})

	body := mustJSON(t, map[string]interface{}{"sku": "", "name": "Kopi", "price": -1})
	req, w := makeChiRequest(http.MethodPost, "/products", body, nil)
	req = asCaller(req, storeAdminPrincipal())

	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestProductCreate_ForeignStore(t *testing.T) {
	t.Parallel()

	locator := &mockLocator{
		locateFn: func(context.Context, access.Scope) (uuid.UUID, uuid.UUID, error) {
			return uuid.Nil, uuid.Nil, tenant.ErrStoreNotFound
		},
	}
	h := handler.NewProductHandler(&mockProductRepo{}, locator)

	body := mustJSON(t, map[string]interface{}{"sku": "KOPI-01", "name": "Kopi"})
	req, w := makeChiRequest(http.MethodPost, "/products", body, nil)
	req = asCallerIn(req, adminPrincipal(), uuid.NewString())

	h.Create(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductCreate_DuplicateSKU(t *testing.T) {
	t.Parallel()

	repo := &mockProductRepo{
		createFn: func(context.Context, *product.Product) error { return product.ErrDuplicateSKU },
	}
	h := handler.NewProductHandler(repo, &mockLocator{})

	body := mustJSON(t, map[string]interface{}{"sku": "KOPI-01", "name": "Kopi"})
	req, w := makeChiRequest(http.MethodPost, "/products", body, nil)
	req = asCaller(req, storeAdminPrincipal())

	h.Create(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

// ===== GET /products =====

func TestProductList_FiltersAndScope(t *testing.T) {
	t.Parallel()

	var gotScope access.Scope
	var gotFilter product.ListFilter
	repo := &mockProductRepo{
		listFn: func(_ context.Context, scope access.Scope, filter product.ListFilter) ([]product.Product, int, error) {
			gotScope, gotFilter = scope, filter
			return []product.Product{*sampleProduct()}, 1, nil
		},
	}
	h := handler.NewProductHandler(repo, &mockLocator{})

	req, w := makeChiRequest(http.MethodGet, "/products?q=kopi&category=minuman&lowStock=true", nil, nil)
	req = asCaller(req, cashierPrincipal())

	h.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testStoreID.String(), gotScope.StoreID)
	assert.True(t, gotScope.EnforceStore)
	assert.Equal(t, "kopi", gotFilter.Query)
	assert.Equal(t, "minuman", gotFilter.Category)
	assert.True(t, gotFilter.LowStock)

	env := parseEnvelope(t, w)
	items := env["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, true, items[0].(map[string]interface{})["lowStock"])
	assert.Equal(t, float64(20), env["meta"].(map[string]interface{})["limit"])
}

func TestProductList_InvalidPage(t *testing.T) {
	t.Parallel()

	h := handler.NewProductHandler(&mockProductRepo{}, &mockLocator{})

	req, w := makeChiRequest(http.MethodGet, "/products?page=0", nil, nil)
	req = asCaller(req, cashierPrincipal())

	h.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAM", errorCode(t, w))
}

// ===== GET/PATCH/DELETE /products/{id} =====

func TestProductGet_NotFound(t *testing.T) {
	t.Parallel()

	h := handler.NewProductHandler(&mockProductRepo{}, &mockLocator{})

	id := uuid.NewString()
	req, w := makeChiRequest(http.MethodGet, "/products/"+id, nil, map[string]string{"id": id})
	req = asCaller(req, cashierPrincipal())

	h.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestProductUpdate_PartialFields(t *testing.T) {
	t.Parallel()

	var got product.Update
	repo := &mockProductRepo{
		updateFn: func(_ context.Context, _ access.Scope, _ uuid.UUID, upd product.Update) (*product.Product, error) {
			got = upd
			p := sampleProduct()
			p.Price = *upd.Price
			return p, nil
		},
	}
	h := handler.NewProductHandler(repo, &mockLocator{})

	id := uuid.NewString()
	req, w := makeChiRequest(http.MethodPatch, "/products/"+id, []byte(`{"price":20000}`), map[string]string{"id": id})
	req = asCaller(req, storeAdminPrincipal())

	h.Update(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, got.Price)
	assert.Equal(t, int64(20000), *got.Price)
	assert.Nil(t, got.Name)
	assert.Nil(t, got.SKU)
}

func TestProductDelete(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"not found", product.ErrProductNotFound, http.StatusNotFound},
		{"has history", product.ErrProductInUse, http.StatusConflict},
		{"database error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockProductRepo{
				deleteFn: func(context.Context, access.Scope, uuid.UUID) error { return tc.err },
			}
			h := handler.NewProductHandler(repo, &mockLocator{})

			id := uuid.NewString()
			req, w := makeChiRequest(http.MethodDelete, "/products/"+id, nil, map[string]string{"id": id})
			req = asCaller(req, storeAdminPrincipal())

			h.Delete(w, req)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

// ===== GET /inventory/low-stock =====

func TestProductLowStock(t *testing.T) {
	t.Parallel()

	var gotScope access.Scope
	repo := &mockProductRepo{
		lowStockFn: func(_ context.Context, scope access.Scope) ([]product.Product, error) {
			gotScope = scope
			return []product.Product{*sampleProduct()}, nil
		},
	}
	h := handler.NewProductHandler(repo, &mockLocator{})

	req, w := makeChiRequest(http.MethodGet, "/inventory/low-stock", nil, nil)
	req = asCaller(req, adminPrincipal())

	h.LowStock(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testTenantID.String(), gotScope.TenantID)
	assert.Empty(t, gotScope.StoreID)
	assert.Len(t, parseEnvelope(t, w)["data"].([]interface{}), 1)
}
