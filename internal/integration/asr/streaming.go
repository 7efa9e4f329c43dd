package asr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/integration/media"
	pkgRetry "github.com/futig/interview-emotion/internal/pkg/retry"
	pkghttp "github.com/futig/interview-emotion/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// BytesTranscriber is satisfied by Connector and MockConnector
type BytesTranscriber interface {
	TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error)
}

// StreamingTranscriber turns the audio feed of a stream into incremental
// fragments by periodically transcribing the current speech segment. A
// segment whose transcription did not change over one interval is reported
// as final and a new segment begins.
type StreamingTranscriber struct {
	asr      BytesTranscriber
	interval time.Duration
	retry    *pkgRetry.RetryConfig
	logger   *zap.Logger
}

func NewStreamingTranscriber(asr BytesTranscriber, interval time.Duration, retryCfg *pkgRetry.RetryConfig, logger *zap.Logger) *StreamingTranscriber {
	if retryCfg == nil {
		retryCfg = pkgRetry.DefaultRetryConfig()
	}
	return &StreamingTranscriber{
		asr:      asr,
		interval: interval,
		retry:    retryCfg,
		logger:   logger,
	}
}

func (t *StreamingTranscriber) Start(ctx context.Context, stream *media.Stream, opts media.TranscriptionOptions, onResult func(media.Fragment)) (media.TranscriptionSession, error) {
	if stream == nil || len(stream.AudioTracks()) == 0 {
		return nil, entity.ErrTranscriptionUnsupported
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &streamingSession{
		transcriber: t,
		opts:        opts,
		onResult:    onResult,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	unsubscribe, err := stream.Subscribe(media.FeedAudio, s.push)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start transcription: %w", err)
	}
	s.unsubscribe = unsubscribe

	go s.run(ctx)

	ctxzap.Debug(ctx, "server-side transcription started",
		zap.String("language", opts.Language),
		zap.Duration("interval", t.interval),
	)
	return s, nil
}

type streamingSession struct {
	transcriber *StreamingTranscriber
	opts        media.TranscriptionOptions
	onResult    func(media.Fragment)
	unsubscribe func()
	cancel      context.CancelFunc
	done        chan struct{}
	stopOnce    sync.Once

	mu      sync.Mutex
	segment []byte
	dirty   bool
}

func (s *streamingSession) push(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segment = append(s.segment, chunk...)
	s.dirty = true
}

func (s *streamingSession) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.transcriber.interval)
	defer ticker.Stop()

	var last string
	var seq int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		dirty := s.dirty
		s.dirty = false
		segment := append([]byte(nil), s.segment...)
		s.mu.Unlock()

		if !dirty {
			s.dropSegment(len(segment))
			if last != "" {
				s.emit(ctx, media.Fragment{Text: last, Final: true})
				last = ""
				if !s.opts.Continuous {
					return
				}
			}
			continue
		}

		seq++
		var text string
		err := s.transcriber.retry.Do(ctx, func(ctx context.Context) error {
			var err error
			text, err = s.transcriber.asr.TranscribeBytes(ctx, segment, fmt.Sprintf("segment_%d.webm", seq))
			return err
		}, retry.RetryIf(pkghttp.IsTransient))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			ctxzap.Warn(ctx, "segment transcription failed", zap.Error(err))
			continue
		}

		if text == last {
			if text != "" {
				s.dropSegment(len(segment))
				s.emit(ctx, media.Fragment{Text: text, Final: true})
				last = ""
				if !s.opts.Continuous {
					return
				}
			}
			continue
		}

		last = text
		if text != "" && s.opts.InterimResults {
			s.emit(ctx, media.Fragment{Text: text})
		}
	}
}

func (s *streamingSession) emit(ctx context.Context, f media.Fragment) {
	if ctx.Err() != nil {
		return
	}
	s.onResult(f)
}

// dropSegment discards the first n bytes, keeping audio that arrived after the snapshot
func (s *streamingSession) dropSegment(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= len(s.segment) {
		s.segment = nil
		return
	}
	s.segment = append([]byte(nil), s.segment[n:]...)
}

// Stop ends the transcription and waits for an in-flight request to return
func (s *streamingSession) Stop() error {
	s.stopOnce.Do(func() {
		s.unsubscribe()
		s.cancel()
		<-s.done
	})
	return nil
}
