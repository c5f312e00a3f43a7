package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/tenant"
)

// --- Mock StoreLocator ---

type mockLocator struct {
	locateFn func(ctx context.Context, scope access.Scope) (uuid.UUID, uuid.UUID, error)
}

func (m *mockLocator) Locate(ctx context.Context, scope access.Scope) (uuid.UUID, uuid.UUID, error) {
	if m.locateFn != nil {
		return m.locateFn(ctx, scope)
	}
	if !scope.HasStore() {
		return uuid.Nil, uuid.Nil, tenant.ErrStoreRequired
	}
	storeID, err := uuid.Parse(scope.StoreID)
	if err != nil {
		return uuid.Nil, uuid.Nil, tenant.ErrStoreNotFound
	}
	tenantID, err := uuid.Parse(scope.TenantID)
	if err != nil {
		return uuid.Nil, uuid.Nil, tenant.ErrStoreNotFound
	}
	return tenantID, storeID, nil
}

// --- Callers ---

var (
	testTenantID = uuid.New()
	testStoreID  = uuid.New()
)

func godPrincipal() access.Principal {
	return access.Principal{
		UserID:    uuid.NewString(),
		Level:     access.RoleGod.Level(),
		Role:      access.RoleGod.String(),
		IsGodUser: true,
	}
}

func adminPrincipal() access.Principal {
	return access.Principal{
		UserID:   uuid.NewString(),
		TenantID: testTenantID.String(),
		Level:    access.RoleAdmin.Level(),
		Role:     access.RoleAdmin.String(),
	}
}

func storeAdminPrincipal() access.Principal {
	return access.Principal{
		UserID:   uuid.NewString(),
		TenantID: testTenantID.String(),
		TokoID:   testStoreID.String(),
		Level:    access.RoleStoreAdmin.Level(),
		Role:     access.RoleStoreAdmin.String(),
	}
}

func cashierPrincipal() access.Principal {
	return access.Principal{
		UserID:   uuid.NewString(),
		TenantID: testTenantID.String(),
		TokoID:   testStoreID.String(),
		Level:    access.RoleCashier.Level(),
		Role:     access.RoleCashier.String(),
	}
}

// --- Request helpers ---

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

// asCaller attaches p and the scope it resolves to, as the middleware chain would.
func asCaller(req *http.Request, p access.Principal) *http.Request {
	return asCallerIn(req, p, "")
}

// asCallerIn is asCaller with an explicit tokoId from the request.
func asCallerIn(req *http.Request, p access.Principal, storeID string) *http.Request {
	ctx := access.WithPrincipal(req.Context(), p)
	ctx = access.WithScope(ctx, access.Resolve(p, access.Params{Query: storeID}))
	return req.WithContext(ctx)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	errObj, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "expected error object in envelope")
	return errObj["code"].(string)
}
