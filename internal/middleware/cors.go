package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns a middleware that answers cross-origin requests from the
// given origins. Entries may use one wildcard, e.g. "https://*.example.com".
// With no origins configured, no CORS headers are emitted at all.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         86400,
	})
}
