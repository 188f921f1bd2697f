package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS admits only the configured frontend origins. Preflight is handled
// by the chi cors middleware itself.
func CORS(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}
