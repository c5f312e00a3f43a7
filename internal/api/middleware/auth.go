package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/auth"
)

// Authenticator turns a bearer token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (access.Principal, error)
}

// Auth is middleware that resolves an "Authorization: Bearer" token to a
// principal and stores it in the context. Requests without a token pass
// through anonymously; an invalid token is rejected with 401.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			requestID := GetRequestID(r.Context())

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authorization header must be a Bearer token", requestID)
				return
			}

			principal, err := authenticator.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid or expired token", requestID)
					return
				}
				response.Internal(w, "authentication failed", err, requestID)
				return
			}

			ctx := access.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := access.PrincipalFromContext(r.Context()); !ok {
			response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication is required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
