package middleware

import "net/http"

const allowedHeaders = "authorization, x-client-info, apikey, content-type"

// CORS is middleware that allows browser calls from any origin. Preflight
// OPTIONS requests are answered 200 with no body.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
