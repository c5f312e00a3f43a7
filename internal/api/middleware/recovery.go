package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/kasirku/kasir/internal/api/response"
)

// Recovery is middleware that recovers from panics and returns a 500 error.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			requestID := GetRequestID(r.Context())
			slog.Error("panic recovered",
				"error", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"requestId", requestID,
				"stack", string(debug.Stack()),
			)
			response.Err(w, http.StatusInternalServerError, response.CodeInternal, "An unexpected error occurred", requestID)
		}()
		next.ServeHTTP(w, r)
	})
}
