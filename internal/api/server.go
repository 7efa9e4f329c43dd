package api

import (
	"net/http"
	"time"

	"github.com/futig/interview-emotion/internal/api/docs"
	liveapi "github.com/futig/interview-emotion/internal/api/live"
	"github.com/futig/interview-emotion/internal/api/middleware"
	predictapi "github.com/futig/interview-emotion/internal/api/predict"
	sessionapi "github.com/futig/interview-emotion/internal/api/session"
	"github.com/futig/interview-emotion/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	sessionHandler *sessionapi.Handler,
	liveHandler *liveapi.Handler,
	predictHandler *predictapi.Handler,
	allowedOrigins []string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)         // Recover from panics
	r.Use(chimiddleware.RequestID)         // Add request ID
	r.Use(middleware.Logger(logger))       // Log requests
	r.Use(middleware.CORS(allowedOrigins)) // Handle CORS

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "healthy"})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Live sockets outlive any request timeout
	r.Route("/interview-session", func(r chi.Router) {
		liveapi.RegisterRoutes(r, liveHandler)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout
			sessionapi.RegisterRoutes(r, sessionHandler)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		predictapi.RegisterRoutes(r, predictHandler)
	})

	return r
}
