package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/lexrelay/lexrelay/internal/api/response"
)

// Recovery turns handler panics into a 500 envelope instead of dropping the
// connection. The stack is logged once here so handlers never need their own
// recover.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				requestID := GetRequestID(r.Context())
				slog.Error("panic recovered",
					"error", v,
					"method", r.Method,
					"path", r.URL.Path,
					"requestId", requestID,
					"stack", string(debug.Stack()),
				)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
