package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/integration/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCapture struct {
	mu       sync.Mutex
	err      error
	acquired int
	stream   *media.Stream
}

func (f *fakeCapture) Acquire(ctx context.Context, sessionID string) (*media.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired++
	if f.err != nil {
		return nil, f.err
	}
	f.stream = media.NewStream(media.KindVideo, media.KindAudio)
	return f.stream, nil
}

func (f *fakeCapture) Stream() *media.Stream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stream
}

type fakeTranscriber struct {
	mu       sync.Mutex
	err      error
	starts   int
	stops    int
	onResult func(media.Fragment)
	lastOpts media.TranscriptionOptions
}

func (f *fakeTranscriber) Start(ctx context.Context, stream *media.Stream, opts media.TranscriptionOptions, onResult func(media.Fragment)) (media.TranscriptionSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	f.onResult = onResult
	return &fakeTranscription{parent: f}, nil
}

func (f *fakeTranscriber) emit(text string) {
	f.mu.Lock()
	fn := f.onResult
	f.mu.Unlock()
	if fn != nil {
		fn(media.Fragment{Text: text})
	}
}

func (f *fakeTranscriber) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type fakeTranscription struct {
	parent *fakeTranscriber
}

func (s *fakeTranscription) Stop() error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.stops++
	s.parent.onResult = nil
	return nil
}

type fakePredictor struct {
	mu    sync.Mutex
	reqs  []*entity.PredictRequest
	resp  *entity.PredictResponse
	err   error
	block chan struct{}
}

func (f *fakePredictor) Predict(ctx context.Context, req *entity.PredictRequest) (*entity.PredictResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	block := f.block
	resp, err := f.resp, f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp, err
}

func (f *fakePredictor) Requests() []*entity.PredictRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.PredictRequest(nil), f.reqs...)
}

type eventLog struct {
	mu     sync.Mutex
	events []*entity.SessionEvent
}

func (l *eventLog) Notify(ctx context.Context, event *entity.SessionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []*entity.SessionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*entity.SessionEvent(nil), l.events...)
}

func (l *eventLog) ofType(t entity.SessionEventType) []*entity.SessionEvent {
	var out []*entity.SessionEvent
	for _, e := range l.all() {
		if e.Event == t {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	ctrl        *Controller
	capture     *fakeCapture
	transcriber *fakeTranscriber
	predictor   *fakePredictor
	events      *eventLog
}

func testOptions() Options {
	return Options{
		CountdownFrom: 3,
		CountdownTick: 5 * time.Millisecond,
		ElapsedTick:   10 * time.Millisecond,
		SilenceWindow: 40 * time.Millisecond,
		FlushTimeout:  time.Second,
		Language:      "en-US",
	}
}

var happyResponse = &entity.PredictResponse{
	Status: "ok",
	Probabilities: entity.Probabilities{
		{Label: "happy", Probability: 0.55},
		{Label: "neutral", Probability: 0.30},
		{Label: "sad", Probability: 0.15},
	},
}

func newHarness(t *testing.T, questions ...string) *harness {
	t.Helper()
	if len(questions) == 0 {
		questions = []string{"Introduce yourself.", "Why are you suitable for this role?"}
	}

	h := &harness{
		capture:     &fakeCapture{},
		transcriber: &fakeTranscriber{},
		predictor:   &fakePredictor{resp: happyResponse},
		events:      &eventLog{},
	}
	h.ctrl = NewController("session-1", questions, testOptions(), Deps{
		Capture:     h.capture,
		Recorders:   media.NewRecorderFactory(),
		Transcriber: h.transcriber,
		Predictor:   h.predictor,
		Notifier:    h.events,
	}, zap.NewNop())
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) mount(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.Mount(context.Background()))
}

func (h *harness) startAndWaitRecording(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.waitPhase(t, entity.PhaseRecording)
}

func (h *harness) waitPhase(t *testing.T, phase entity.Phase) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return h.ctrl.Snapshot().State.Phase == phase
	}, 2*time.Second, 2*time.Millisecond, "phase %s not reached", phase)
}

func (h *harness) waitMessages(t *testing.T, q, n int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return len(h.ctrl.Snapshot().Questions[q].Messages) >= n
	}, 2*time.Second, 2*time.Millisecond)
}
