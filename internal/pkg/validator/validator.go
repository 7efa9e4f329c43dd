package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/futig/interview-emotion/internal/config"
	"github.com/futig/interview-emotion/internal/entity"
)

// AllowedAudioTypes maps accepted audio extensions to the content types a
// browser may send for them
var AllowedAudioTypes = map[string][]string{
	".webm": {"audio/webm", "video/webm"},
	".wav":  {"audio/wav", "audio/x-wav", "audio/wave"},
}

// Validator validates API requests and file uploads
type Validator struct {
	cfg config.FileUploadConfig
}

func NewValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAudioFile validates a recorded answer upload
func (v *Validator) ValidateAudioFile(file *multipart.FileHeader) error {
	if file == nil {
		return fmt.Errorf("%w: audio file", entity.ErrMissingField)
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(file.Filename))
	types, ok := AllowedAudioTypes[ext]
	if !ok {
		return fmt.Errorf("%w: %q (only .webm and .wav files are allowed)", entity.ErrInvalidExtension, ext)
	}

	if file.Size == 0 {
		return fmt.Errorf("%w: file '%s' is empty", entity.ErrInvalidFile, file.Filename)
	}

	// Check file size
	if file.Size > v.cfg.MaxAudioFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, file.Filename, file.Size, v.cfg.MaxAudioFileSize)
	}

	// Check content type if provided
	contentType := strings.ToLower(file.Header.Get("Content-Type"))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "" || contentType == "application/octet-stream" {
		return nil
	}
	for _, t := range types {
		if contentType == t {
			return nil
		}
	}
	return fmt.Errorf("%w: content type '%s' for %s file", entity.ErrInvalidExtension, contentType, ext)
}
