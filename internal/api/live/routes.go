package live

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the live socket route under /interview-session
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/{id}/ws", h.ServeWS)
}
