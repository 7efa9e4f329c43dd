package media

import "context"

// Fragment is one incremental speech-to-text result
type Fragment struct {
	Text  string
	Final bool
}

type TranscriptionOptions struct {
	Language       string
	InterimResults bool
	Continuous     bool
}

// TranscriptionSession is an active continuous transcription
type TranscriptionSession interface {
	Stop() error
}

// Transcriber starts continuous speech-to-text over the audio of a stream.
// onResult must be safe to call from any goroutine.
type Transcriber interface {
	Start(ctx context.Context, stream *Stream, opts TranscriptionOptions, onResult func(Fragment)) (TranscriptionSession, error)
}

// CaptureProvider acquires the combined audio+video stream of a session
type CaptureProvider interface {
	Acquire(ctx context.Context, sessionID string) (*Stream, error)
}
