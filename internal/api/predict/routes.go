package predict

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the single question prediction route
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/predict-emotion", h.PredictEmotion)
}
