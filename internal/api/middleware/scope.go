package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/tenant"
)

// maxScopeBody caps how much of a request body is buffered to look for tokoId.
const maxScopeBody = 1 << 20

// StoreChecker verifies that a resolved scope may address its store.
type StoreChecker interface {
	Check(ctx context.Context, scope access.Scope) error
}

// Scope is middleware that resolves the request's access scope from the
// authenticated principal and any tokoId in the path, query or JSON body.
// Anonymous requests pass through without a scope. It must be mounted on the
// router that declares the {tokoId} path parameter.
func Scope(checker StoreChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := access.PrincipalFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			requestID := GetRequestID(r.Context())

			params := access.Params{
				Path:  chi.URLParam(r, "tokoId"),
				Query: r.URL.Query().Get("tokoId"),
			}
			if params.Path == "" && params.Query == "" {
				body, err := bodyStoreID(r)
				if err != nil {
					response.Err(w, http.StatusBadRequest, response.CodeBadRequest, "Request body could not be read", requestID)
					return
				}
				params.Body = body
			}

			scope := access.Resolve(principal, params)

			if err := checker.Check(r.Context(), scope); err != nil {
				if errors.Is(err, tenant.ErrStoreNotFound) {
					response.Err(w, http.StatusNotFound, response.CodeNotFound, "Store not found", requestID)
					return
				}
				response.Internal(w, "checking store scope", err, requestID)
				return
			}

			ctx := access.WithScope(r.Context(), scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bodyStoreID reads the top-level "tokoId" of a JSON body and restores the
// body for the next handler. Non-JSON and malformed bodies yield "".
func bodyStoreID(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return "", nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxScopeBody+1))
	if err != nil {
		return "", err
	}
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), rest), rest}

	var payload struct {
		TokoID json.RawMessage `json:"tokoId"`
	}
	if err := json.Unmarshal(buf, &payload); err != nil {
		return "", nil
	}
	var id string
	if err := json.Unmarshal(payload.TokoID, &id); err != nil {
		return "", nil
	}
	return id, nil
}

// RequireStore rejects requests whose scope is bound to a store level but
// names no store.
func RequireStore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := access.FromContext(r.Context())
			if ok && scope.NeedsStore() {
				response.Err(w, http.StatusBadRequest, response.CodeBadRequest,
					"Store ID (tokoId) is required for this operation", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
