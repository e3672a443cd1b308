package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the access policy uniformly, including the preflight.
// Currently permissive to match the deployed front-end origins.
// TODO: restrict AllowedOrigins once the front-end domains are final.
func CORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		MaxAge:         300,
	})(next)
}
