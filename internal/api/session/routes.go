package session

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers session routes under /interview-session
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/", h.StartSession)
	r.Get("/{id}", h.GetSession)
	r.Delete("/{id}", h.DeleteSession)
	r.Post("/{id}/start", h.StartRecording)
	r.Post("/{id}/stop", h.StopRecording)
	r.Post("/{id}/camera", h.ToggleCamera)
	r.Post("/{id}/microphone", h.ToggleMicrophone)
	r.Put("/{id}/page", h.SelectPage)
	r.Get("/{id}/pages/{page}", h.RenderPage)
	r.Get("/{id}/result", h.GetSessionResult)
}
