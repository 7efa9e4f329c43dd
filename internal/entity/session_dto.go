package entity

import "mime/multipart"

type StartSessionRequest struct {
	CallbackURL string `json:"callback_url,omitempty"`
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	LiveURL   string `json:"live_url"`
}

type SelectPageRequest struct {
	Page int `json:"page"`
}

type ToggleResponse struct {
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
}

type PredictEmotionRequest struct {
	AudioFile *multipart.FileHeader
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatJSON     ResultFormat = "json"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatJSON, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}
