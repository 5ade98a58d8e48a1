package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lexrelay/lexrelay/internal/api/response"
	"github.com/lexrelay/lexrelay/internal/auth"
)

const identityKey contextKey = "identity"

// Auth is middleware that extracts the Authorization bearer token and
// resolves it to an Identity via the auth service. Missing, malformed or
// stale tokens return 401.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			header := r.Header.Get("Authorization")
			if header == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header is required", requestID)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header must be a bearer token", requestID)
				return
			}

			identity, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired session", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a context carrying the given identity, as the Auth
// middleware would have set it.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}
