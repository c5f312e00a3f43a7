package middleware

import (
	"net/http"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/response"
)

// RequireGod returns middleware that rejects everyone but the god user with 403.
func RequireGod() func(http.Handler) http.Handler {
	return RequireRank(access.RoleGod)
}

// RequireRank returns middleware that rejects principals ranked below min
// with 403. Anonymous requests get 401.
func RequireRank(min access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			principal, ok := access.PrincipalFromContext(r.Context())
			if !ok {
				response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication is required", requestID)
				return
			}

			if min.Outranks(principal.Rank()) {
				response.Err(w, http.StatusForbidden, response.CodeForbidden, "Insufficient permissions", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
