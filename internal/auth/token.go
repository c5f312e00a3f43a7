package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kasirku/kasir/internal/access"
)

// ErrInvalidToken is returned when a bearer token fails validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload issued at login.
type Claims struct {
	TenantID string `json:"tid,omitempty"`
	TokoID   string `json:"toko,omitempty"`
	Level    int    `json:"lvl,omitempty"`
	Role     string `json:"role"`
	God      bool   `json:"god,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a Tokens signer.
func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for u and returns it with its expiry.
func (t *Tokens) Issue(u *User) (string, time.Time, error) {
	p := u.Principal()
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := Claims{
		TenantID: p.TenantID,
		TokoID:   p.TokoID,
		Level:    p.Level,
		Role:     p.Role,
		God:      p.IsGodUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates raw and returns the principal it carries.
func (t *Tokens) Parse(raw string) (access.Principal, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return access.Principal{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return access.Principal{}, ErrInvalidToken
	}

	return access.Principal{
		UserID:    claims.Subject,
		TenantID:  claims.TenantID,
		Level:     claims.Level,
		Role:      claims.Role,
		IsGodUser: claims.God,
		TokoID:    claims.TokoID,
	}, nil
}
