package validator

import (
	"fmt"
	"net/url"

	"github.com/futig/interview-emotion/internal/entity"
)

// ValidateStartSession validates StartSessionRequest
func (v *Validator) ValidateStartSession(req *entity.StartSessionRequest) error {
	if req.CallbackURL == "" {
		return nil
	}

	u, err := url.ParseRequestURI(req.CallbackURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: callback_url must be an absolute http(s) URL", entity.ErrInvalidParameter)
	}
	return nil
}

// ValidateSelectPage validates SelectPageRequest
func (v *Validator) ValidateSelectPage(req *entity.SelectPageRequest) error {
	if req.Page < 0 {
		return fmt.Errorf("%w: page must not be negative", entity.ErrInvalidParameter)
	}
	return nil
}

// ValidatePredictEmotion validates a single question upload
func (v *Validator) ValidatePredictEmotion(req *entity.PredictEmotionRequest) error {
	if req.AudioFile == nil {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}
	return v.ValidateAudioFile(req.AudioFile)
}
