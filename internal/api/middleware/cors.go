package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the browser client served from one of origins to call the API
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Accept", "Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:       []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials:     false,
		MaxAge:               300,
		OptionsSuccessStatus: http.StatusNoContent,
	})
}
