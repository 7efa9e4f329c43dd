package entity

import "errors"

// Domain errors
var (
	// Capture and platform capability errors
	ErrCaptureDenied            = errors.New("camera or microphone access denied")
	ErrTranscriptionUnsupported = errors.New("speech recognition not supported")
	ErrNoCaptureStream          = errors.New("capture stream is not available")

	// Prediction service errors
	ErrUploadFailed    = errors.New("emotion prediction upload failed")
	ErrBackendReported = errors.New("emotion service reported an error")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session is closed")
	ErrSessionFinished  = errors.New("session is already finished")
	ErrAlreadyRecording = errors.New("recording cycle already in progress")
	ErrNotRecording     = errors.New("session is not recording")
	ErrInvalidPage      = errors.New("invalid question page")
	ErrInvalidPhase     = errors.New("invalid phase transition")
	ErrEmotionsSet      = errors.New("emotions already recorded for question")

	// File errors
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidExtension = errors.New("invalid file extension")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
