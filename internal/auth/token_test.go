package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/kasir/internal/auth"
)

func sampleUser() *auth.User {
	tenantID := uuid.New()
	return &auth.User{
		ID:       uuid.New(),
		TenantID: &tenantID,
		Username: "owner",
		Role:     "admin",
		Level:    2,
	}
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := auth.NewTokens("s3cret", "kasir", time.Hour)
	u := sampleUser()

	raw, expiresAt, err := tokens.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	p, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), p.UserID)
	assert.Equal(t, u.TenantID.String(), p.TenantID)
	assert.Empty(t, p.TokoID)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, "admin", p.Role)
}

func TestTokens_WrongSecret(t *testing.T) {
	raw, _, err := auth.NewTokens("one", "kasir", time.Hour).Issue(sampleUser())
	require.NoError(t, err)

	_, err = auth.NewTokens("two", "kasir", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_WrongIssuer(t *testing.T) {
	raw, _, err := auth.NewTokens("s3cret", "other", time.Hour).Issue(sampleUser())
	require.NoError(t, err)

	_, err = auth.NewTokens("s3cret", "kasir", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	raw, _, err := auth.NewTokens("s3cret", "kasir", -time.Minute).Issue(sampleUser())
	require.NoError(t, err)

	_, err = auth.NewTokens("s3cret", "kasir", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_RejectsNoneAlgorithm(t *testing.T) {
	claims := auth.Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "kasir",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.NewTokens("s3cret", "kasir", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_MissingSubject(t *testing.T) {
	claims := auth.Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "kasir",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = auth.NewTokens("s3cret", "kasir", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
