package interview

import (
	"context"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/integration/media"
)

type Predictor interface {
	Predict(ctx context.Context, req *entity.PredictRequest) (*entity.PredictResponse, error)
}

// Notifier receives every session event. Notify is called with the
// controller lock held and must not block or call back into the controller.
type Notifier interface {
	Notify(ctx context.Context, event *entity.SessionEvent)
}

type RecorderFactory interface {
	NewRecorder(stream *media.Stream, feed media.Feed, mimeType string) (media.Recorder, error)
}

type CaptureProvider = media.CaptureProvider

type Transcriber = media.Transcriber

// NotifierFunc adapts a plain function to Notifier
type NotifierFunc func(ctx context.Context, event *entity.SessionEvent)

func (f NotifierFunc) Notify(ctx context.Context, event *entity.SessionEvent) { f(ctx, event) }

// Notifiers fans an event out to several notifiers in order
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, event *entity.SessionEvent) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(ctx, event)
		}
	}
}
