package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/auth"
	"github.com/kasirku/kasir/internal/tenant"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseErrorResponse(t, w)
	errObj, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "expected error object in envelope")
	return errObj["code"].(string)
}

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, raw string) (access.Principal, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, raw string) (access.Principal, error) {
	return m.authenticateFn(ctx, raw)
}

type mockChecker struct {
	checkFn func(ctx context.Context, scope access.Scope) error
}

func (m *mockChecker) Check(ctx context.Context, scope access.Scope) error {
	if m.checkFn == nil {
		return nil
	}
	return m.checkFn(ctx, scope)
}

func withPrincipal(req *http.Request, p access.Principal) *http.Request {
	return req.WithContext(access.WithPrincipal(req.Context(), p))
}

// --- RequestID ---

func TestRequestID_Generated(t *testing.T) {
	var seen string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRequestID_Propagated(t *testing.T) {
	handler := middleware.RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "client-123", w.Header().Get("X-Request-ID"))
}

func TestRequestID_OversizedReplaced(t *testing.T) {
	handler := middleware.RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRequestID_UnsafeReplaced(t *testing.T) {
	handler := middleware.RequestID(okHandler())

	for _, id := range []string{"pos-7\nlevel=ERROR forged", "kasir 01", "id\x00"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, id)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		got := w.Header().Get(middleware.RequestIDHeader)
		assert.NotEqual(t, id, got)
		assert.Len(t, got, 36)
	}
}

func TestRequestID_TerminalFormatKept(t *testing.T) {
	handler := middleware.RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "toko-3/pos-1:20261016.0042")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "toko-3/pos-1:20261016.0042", w.Header().Get(middleware.RequestIDHeader))
}

// --- Recovery ---

func TestRecovery_Panic(t *testing.T) {
	handler := middleware.RequestID(middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}

// --- Auth ---

func TestAuth_NoHeaderPassesThrough(t *testing.T) {
	var authed bool
	handler := middleware.Auth(&mockAuthenticator{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authed = access.PrincipalFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, authed)
}

func TestAuth_ValidToken(t *testing.T) {
	authn := &mockAuthenticator{authenticateFn: func(_ context.Context, raw string) (access.Principal, error) {
		assert.Equal(t, "good-token", raw)
		return access.Principal{UserID: "u1", TenantID: "t1", Level: 2}, nil
	}}

	var got access.Principal
	handler := middleware.Auth(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = access.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", got.UserID)
}

func TestAuth_InvalidToken(t *testing.T) {
	authn := &mockAuthenticator{authenticateFn: func(context.Context, string) (access.Principal, error) {
		return access.Principal{}, auth.ErrInvalidToken
	}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	middleware.Auth(authn)(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseErrorResponse(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "UNAUTHORIZED", errObj["code"])
	assert.Equal(t, "Invalid or expired token", errObj["message"])
}

func TestAuth_WrongScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	middleware.Auth(&mockAuthenticator{})(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_AuthenticatorFailure(t *testing.T) {
	authn := &mockAuthenticator{authenticateFn: func(context.Context, string) (access.Principal, error) {
		return access.Principal{}, errors.New("db down")
	}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	middleware.Auth(authn)(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAuth(t *testing.T) {
	handler := middleware.RequireAuth(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), access.Principal{UserID: "u1"}))
	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Authz ---

func TestRequireRank(t *testing.T) {
	tests := []struct {
		name      string
		principal *access.Principal
		min       access.Role
		want      int
	}{
		{"anonymous", nil, access.RoleAdmin, http.StatusUnauthorized},
		{"god passes admin", &access.Principal{IsGodUser: true}, access.RoleAdmin, http.StatusOK},
		{"admin passes admin", &access.Principal{Level: 2}, access.RoleAdmin, http.StatusOK},
		{"store admin blocked", &access.Principal{Level: 3}, access.RoleAdmin, http.StatusForbidden},
		{"cashier blocked from store admin", &access.Principal{Level: 4}, access.RoleStoreAdmin, http.StatusForbidden},
		{"missing level treated as cashier", &access.Principal{}, access.RoleStoreAdmin, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.principal != nil {
				req = withPrincipal(req, *tt.principal)
			}
			w := httptest.NewRecorder()
			middleware.RequireRank(tt.min)(okHandler()).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireGod(t *testing.T) {
	w := httptest.NewRecorder()
	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), access.Principal{Level: 1})
	middleware.RequireGod()(okHandler()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "level 1 ranks as god")

	w = httptest.NewRecorder()
	req = withPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), access.Principal{Level: 2})
	middleware.RequireGod()(okHandler()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

// --- Scope ---

func scopeRouter(checker middleware.StoreChecker, capture *access.Scope) http.Handler {
	r := chi.NewRouter()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := access.FromContext(r.Context())
		if ok {
			*capture = s
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.Scope(checker))
		r.Handle("/items", h)
	})
	r.Route("/toko/{tokoId}", func(r chi.Router) {
		r.Use(middleware.Scope(checker))
		r.Handle("/items", h)
	})
	return r
}

func TestScope_Anonymous(t *testing.T) {
	var got access.Scope
	w := httptest.NewRecorder()
	scopeRouter(&mockChecker{}, &got).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, access.Scope{}, got)
}

func TestScope_Sources(t *testing.T) {
	cashier := access.Principal{UserID: "u1", TenantID: "t1", Level: 4, TokoID: "assigned"}

	tests := []struct {
		name      string
		target    string
		body      string
		wantStore string
	}{
		{"assigned store", "/items", "", "assigned"},
		{"path wins", "/toko/path-store/items?tokoId=query-store", `{"tokoId":"body-store"}`, "path-store"},
		{"query over body", "/items?tokoId=query-store", `{"tokoId":"body-store"}`, "query-store"},
		{"body", "/items", `{"tokoId":"body-store","name":"x"}`, "body-store"},
		{"non-string body value ignored", "/items", `{"tokoId":42}`, "assigned"},
		{"malformed body ignored", "/items", `{not json`, "assigned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got access.Scope
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, tt.target, body)
			req.Header.Set("Content-Type", "application/json")
			req = withPrincipal(req, cashier)

			w := httptest.NewRecorder()
			scopeRouter(&mockChecker{}, &got).ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantStore, got.StoreID)
			assert.Equal(t, "t1", got.TenantID)
			assert.True(t, got.EnforceStore)
			assert.Equal(t, tt.body, w.Body.String(), "body must reach the handler intact")
		})
	}
}

func TestScope_ForeignStore(t *testing.T) {
	checker := &mockChecker{checkFn: func(_ context.Context, s access.Scope) error {
		if s.StoreID == "foreign" {
			return tenant.ErrStoreNotFound
		}
		return nil
	}}

	var got access.Scope
	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/toko/foreign/items", nil), access.Principal{TenantID: "t1", Level: 2})
	w := httptest.NewRecorder()
	scopeRouter(checker, &got).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestScope_CheckerFailure(t *testing.T) {
	checker := &mockChecker{checkFn: func(context.Context, access.Scope) error {
		return errors.New("db down")
	}}

	var got access.Scope
	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/toko/s1/items", nil), access.Principal{TenantID: "t1", Level: 2})
	w := httptest.NewRecorder()
	scopeRouter(checker, &got).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// --- RequireStore ---

func TestRequireStore(t *testing.T) {
	tests := []struct {
		name  string
		scope *access.Scope
		want  int
	}{
		{"no scope", nil, http.StatusOK},
		{"god without store", &access.Scope{IsGod: true, Level: 1}, http.StatusOK},
		{"admin without store", &access.Scope{TenantID: "t1", Level: 2, EnforceTenant: true}, http.StatusOK},
		{"cashier with store", &access.Scope{TenantID: "t1", StoreID: "s1", Level: 4, EnforceTenant: true, EnforceStore: true}, http.StatusOK},
		{"cashier without store", &access.Scope{TenantID: "t1", Level: 4, EnforceTenant: true, EnforceStore: true}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.scope != nil {
				req = req.WithContext(access.WithScope(req.Context(), *tt.scope))
			}
			w := httptest.NewRecorder()
			middleware.RequireStore()(okHandler()).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusBadRequest {
				env := parseErrorResponse(t, w)
				errObj := env["error"].(map[string]interface{})
				assert.Equal(t, "BAD_REQUEST", errObj["code"])
				assert.Equal(t, "Store ID (tokoId) is required for this operation", errObj["message"])
			}
		})
	}
}

// --- Metrics ---

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.Metrics)
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/abc", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)

	mw := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := mw.Body.String()
	assert.Contains(t, body, `kasir_http_requests_total{method="GET",route="/products/{id}",status="418"}`)
	assert.NotContains(t, body, `route="/products/abc"`)
}
