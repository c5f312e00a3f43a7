package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/handler"
	"github.com/kasirku/kasir/internal/auth"
)

func newLoginFixture(t *testing.T, password string) (*handler.AuthHandler, *auth.Tokens, *auth.User) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := sampleUser(access.RoleCashier, &testStoreID)
	u.PasswordHash = string(hash)

	repo := &mockUserRepo{
		getByUsernameFn: func(_ context.Context, username string) (*auth.User, error) {
			if username == u.Username {
				return u, nil
			}
			return nil, auth.ErrUserNotFound
		},
	}
	tokens := auth.NewTokens("handler-test-secret", "kasir", time.Hour)
	return handler.NewAuthHandler(auth.NewService(repo, tokens, bcrypt.MinCost)), tokens, u
}

// ===== POST /auth/login =====

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	h, tokens, u := newLoginFixture(t, "rahasia123")

	body := mustJSON(t, map[string]string{"username": "siti", "password": "rahasia123"})
	req, w := makeChiRequest(http.MethodPost, "/auth/login", body, nil)

	h.Login(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	token, ok := data["token"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, data["expiresAt"])

	p, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), p.UserID)
	assert.Equal(t, testStoreID.String(), p.TokoID)
	assert.Equal(t, access.RoleCashier, p.Rank())

	user := data["user"].(map[string]interface{})
	assert.Equal(t, "siti", user["username"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]string{
		"wrong password": {"username": "siti", "password": "salah-sekali"},
		"unknown user":   {"username": "budi", "password": "rahasia123"},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h, _, _ := newLoginFixture(t, "rahasia123")
			req, w := makeChiRequest(http.MethodPost, "/auth/login", mustJSON(t, body), nil)

			h.Login(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
		})
	}
}

func TestLogin_DisabledUser(t *testing.T) {
	t.Parallel()

	h, _, u := newLoginFixture(t, "rahasia123")
	now := time.Now()
	u.DisabledAt = &now

	body := mustJSON(t, map[string]string{"username": "siti", "password": "rahasia123"})
	req, w := makeChiRequest(http.MethodPost, "/auth/login", body, nil)

	h.Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	h, _, _ := newLoginFixture(t, "rahasia123")
	req, w := makeChiRequest(http.MethodPost, "/auth/login", []byte(`{}`), nil)

	h.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestLogin_InvalidJSON(t *testing.T) {
	t.Parallel()

	h, _, _ := newLoginFixture(t, "rahasia123")
	req, w := makeChiRequest(http.MethodPost, "/auth/login", []byte(`{`), nil)

	h.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, w))
}

// ===== GET /me =====

func TestMe_ReportsResolvedScope(t *testing.T) {
	t.Parallel()

	h, _, _ := newLoginFixture(t, "rahasia123")

	p := adminPrincipal()
	req, w := makeChiRequest(http.MethodGet, "/me?tokoId="+testStoreID.String(), nil, nil)
	req = asCallerIn(req, p, testStoreID.String())

	h.Me(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, p.UserID, data["userId"])
	assert.Equal(t, "admin", data["role"])

	scope := data["scope"].(map[string]interface{})
	assert.Equal(t, testTenantID.String(), scope["tenantId"])
	assert.Equal(t, testStoreID.String(), scope["tokoId"])
	assert.Equal(t, true, scope["enforceTenant"])
	assert.Equal(t, false, scope["enforceStore"])
}

func TestMe_Unauthenticated(t *testing.T) {
	t.Parallel()

	h, _, _ := newLoginFixture(t, "rahasia123")
	req, w := makeChiRequest(http.MethodGet, "/me", nil, nil)

	h.Me(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
