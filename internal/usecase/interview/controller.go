package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/integration/media"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	countdownStartLabel = "Start!"

	alertCaptureDenied       = "capture_denied"
	alertSpeechUnsupported   = "speech_unsupported"
	alertRecorderUnavailable = "recorder_unavailable"
)

// Options holds the timings of the recording cycle
type Options struct {
	CountdownFrom int
	CountdownTick time.Duration
	ElapsedTick   time.Duration
	SilenceWindow time.Duration
	FlushTimeout  time.Duration
	Language      string
}

func DefaultOptions() Options {
	return Options{
		CountdownFrom: 3,
		CountdownTick: time.Second,
		ElapsedTick:   time.Second,
		SilenceWindow: 1200 * time.Millisecond,
		FlushTimeout:  5 * time.Second,
		Language:      "en-US",
	}
}

// Deps are the adapters a controller drives
type Deps struct {
	Capture     CaptureProvider
	Recorders   RecorderFactory
	Transcriber Transcriber
	Predictor   Predictor
	Notifier    Notifier
}

// Controller owns the state of one interview session. All state lives
// behind mu; timer ticks, transcript fragments and upload completions take
// the lock and check the cycle generation before touching it.
type Controller struct {
	id        string
	questions []string
	opts      Options
	deps      Deps
	logger    *zap.Logger
	createdAt time.Time

	ctx    context.Context // cancelled on Close
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	cycle    uint64
	state    entity.SessionState
	store    *questionStore
	scratch  string
	stream   *media.Stream
	alerted  bool
	countVal int

	countdown     *ticker
	elapsed       *ticker
	silence       debouncer
	videoRec      media.Recorder
	audioRec      media.Recorder
	transcription media.TranscriptionSession
	uploadCancel  context.CancelFunc
}

func NewController(id string, questions []string, opts Options, deps Deps, logger *zap.Logger) *Controller {
	if deps.Notifier == nil {
		deps.Notifier = Notifiers(nil)
	}
	logger = logger.With(zap.String("session_id", id))
	ctx, cancel := context.WithCancel(ctxzap.ToContext(context.Background(), logger))

	return &Controller{
		id:        id,
		questions: append([]string(nil), questions...),
		opts:      opts,
		deps:      deps,
		logger:    logger,
		createdAt: time.Now().UTC(),
		ctx:       ctx,
		cancel:    cancel,
		state: entity.SessionState{
			Phase: entity.PhaseIdle,
			CamOn: true,
			MicOn: true,
		},
		store:   newQuestionStore(questions),
		silence: debouncer{window: opts.SilenceWindow},
	}
}

func (c *Controller) ID() string { return c.id }

// Mount acquires the capture stream. A failure leaves the session usable
// for navigation only; Start then reports ErrNoCaptureStream.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return entity.ErrSessionClosed
	}
	if c.stream != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	stream, err := c.deps.Capture.Acquire(ctx, c.id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		if stream != nil {
			stream.Stop()
		}
		return entity.ErrSessionClosed
	}

	if err != nil {
		c.logger.Warn("capture acquisition failed", zap.Error(err))
		if !c.alerted {
			c.alerted = true
			c.publish(entity.EventAlert, &entity.AlertData{
				Code:    alertCaptureDenied,
				Message: "Camera or microphone access denied.",
			})
		}
		return fmt.Errorf("acquire capture: %w", err)
	}

	if c.stream != nil {
		// a concurrent Mount won
		if stream != c.stream {
			stream.Stop()
		}
		return nil
	}

	c.stream = stream
	c.state.CaptureReady = true
	if tracks := stream.VideoTracks(); len(tracks) > 0 {
		c.state.CamOn = tracks[0].Enabled()
	}
	if tracks := stream.AudioTracks(); len(tracks) > 0 {
		c.state.MicOn = tracks[0].Enabled()
	}

	c.logger.Info("capture stream mounted", zap.String("stream_id", stream.ID()))
	return nil
}

// Close tears the session down: timers, recorders, transcription, the
// in-flight upload and every capture track. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cycle++

	c.countdown.stop()
	c.countdown = nil
	c.elapsed.stop()
	c.elapsed = nil
	c.silence.cancel()

	transcription := c.transcription
	videoRec, audioRec := c.videoRec, c.audioRec
	uploadCancel := c.uploadCancel
	stream := c.stream
	c.transcription, c.videoRec, c.audioRec, c.uploadCancel = nil, nil, nil, nil
	c.state.Countdown = nil
	c.cancel()
	c.mu.Unlock()

	if transcription != nil {
		if err := transcription.Stop(); err != nil {
			c.logger.Warn("stop transcription on close", zap.Error(err))
		}
	}
	if videoRec != nil {
		videoRec.Abort()
	}
	if audioRec != nil {
		audioRec.Abort()
	}
	if uploadCancel != nil {
		uploadCancel()
	}
	if stream != nil {
		stream.Stop()
	}

	c.logger.Info("session closed")
}

// Start begins the countdown of the current question
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return entity.ErrSessionClosed
	}
	if c.stream == nil {
		return entity.ErrNoCaptureStream
	}

	next, err := nextPhase(c.state.Phase, triggerStart)
	if err != nil {
		return err
	}

	c.cycle++
	gen := c.cycle
	c.state.Phase = next
	c.scratch = ""
	c.countVal = c.opts.CountdownFrom
	c.setCountdown(c.countVal)

	c.countdown = startTicker(c.opts.CountdownTick, func() { c.countdownTick(gen) })

	ctxzap.Info(ctx, "countdown started",
		zap.String("session_id", c.id),
		zap.Int("question_index", c.state.QIndex),
	)
	return nil
}

func (c *Controller) setCountdown(v int) {
	c.state.Countdown = &v
	c.publish(entity.EventCountdown, &entity.CountdownData{Value: v, Label: countdownLabel(v)})
}

func (c *Controller) countdownTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.cycle != gen || c.state.Phase != entity.PhaseCountdown {
		return
	}

	c.countVal--
	if c.countVal >= 0 {
		c.setCountdown(c.countVal)
		return
	}

	c.countdown.stop()
	c.countdown = nil
	c.state.Countdown = nil
	c.beginRecording(gen)
}

// beginRecording starts both recorders and the transcription. Called with mu held.
func (c *Controller) beginRecording(gen uint64) {
	next, err := nextPhase(c.state.Phase, triggerCountdownDone)
	if err != nil {
		c.logger.Error("begin recording", zap.Error(err))
		return
	}

	videoRec, audioRec, err := c.startRecorders()
	if err != nil {
		c.logger.Error("failed to start recorders", zap.Error(err))
		c.state.Phase, _ = nextPhase(c.state.Phase, triggerAbort)
		c.publish(entity.EventAlert, &entity.AlertData{
			Code:    alertRecorderUnavailable,
			Message: "Recording could not be started.",
		})
		return
	}

	c.state.Phase = next
	c.videoRec, c.audioRec = videoRec, audioRec
	c.state.Elapsed = 0
	c.publish(entity.EventRecordingStarted, &entity.TimerData{Elapsed: 0, Display: formatElapsed(0)})
	c.elapsed = startTicker(c.opts.ElapsedTick, func() { c.elapsedTick(gen) })

	opts := media.TranscriptionOptions{
		Language:       c.opts.Language,
		InterimResults: true,
		Continuous:     true,
	}
	sess, err := c.deps.Transcriber.Start(c.ctx, c.stream, opts, func(f media.Fragment) { c.onFragment(gen, f) })
	if err != nil {
		c.logger.Warn("transcription unavailable, recording without it", zap.Error(err))
		msg := "Speech recognition is not supported; recording continues without a transcript."
		if !errors.Is(err, entity.ErrTranscriptionUnsupported) {
			msg = "Speech recognition failed to start; recording continues without a transcript."
		}
		c.publish(entity.EventAlert, &entity.AlertData{Code: alertSpeechUnsupported, Message: msg})
	} else {
		c.transcription = sess
	}

	c.logger.Info("recording started", zap.Int("question_index", c.state.QIndex))
}

func (c *Controller) startRecorders() (media.Recorder, media.Recorder, error) {
	videoRec, err := c.deps.Recorders.NewRecorder(c.stream, media.FeedCombined, media.MimeVideoWebM)
	if err != nil {
		return nil, nil, fmt.Errorf("combined recorder: %w", err)
	}
	audioRec, err := c.deps.Recorders.NewRecorder(c.stream, media.FeedAudio, media.MimeAudioWebM)
	if err != nil {
		return nil, nil, fmt.Errorf("audio recorder: %w", err)
	}

	if err := videoRec.Start(); err != nil {
		return nil, nil, fmt.Errorf("start combined recorder: %w", err)
	}
	if err := audioRec.Start(); err != nil {
		videoRec.Abort()
		return nil, nil, fmt.Errorf("start audio recorder: %w", err)
	}
	return videoRec, audioRec, nil
}

func (c *Controller) elapsedTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.cycle != gen || c.state.Phase != entity.PhaseRecording {
		return
	}
	c.state.Elapsed++
	c.publish(entity.EventTimer, &entity.TimerData{
		Elapsed: c.state.Elapsed,
		Display: formatElapsed(c.state.Elapsed),
	})
}

func (c *Controller) onFragment(gen uint64, f media.Fragment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.cycle != gen || c.state.Phase != entity.PhaseRecording {
		return
	}

	c.scratch = f.Text
	c.publish(entity.EventTranscript, &entity.TranscriptData{QuestionIndex: c.state.QIndex, Text: f.Text})

	c.silence.schedule(func(seq uint64) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.cycle != gen || c.state.Phase != entity.PhaseRecording || !c.silence.fired(seq) {
			return
		}
		c.commitScratch()
	})
}

// commitScratch moves the live transcript into the question log. Called with mu held.
func (c *Controller) commitScratch() {
	cleaned := strings.TrimSpace(c.scratch)
	c.scratch = ""
	if cleaned == "" {
		return
	}
	c.appendMessage(entity.SpeakerYou, cleaned)
}

func (c *Controller) appendMessage(speaker entity.Speaker, text string) {
	q := c.state.QIndex
	if c.store.appendMessage(q, speaker, text) {
		c.publish(entity.EventMessage, &entity.MessageData{
			QuestionIndex: q,
			Message:       entity.Message{Speaker: speaker, Text: text},
		})
	}
}

// Stop ends the recording of the current question, uploads the answer and
// advances the session. It blocks until the upload has resolved.
func (c *Controller) Stop(ctx context.Context) error {
	finalize, err := c.BeginStop(ctx)
	if err != nil {
		return err
	}
	return finalize()
}

// BeginStop moves a recording session to Finalizing and returns the rest of
// the cycle. Only one caller can win the transition; the others get the
// phase error right away.
func (c *Controller) BeginStop(ctx context.Context) (func() error, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, entity.ErrSessionClosed
	}
	next, err := nextPhase(c.state.Phase, triggerStop)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	gen := c.cycle
	q := c.state.QIndex
	c.state.Phase = next
	c.publish(entity.EventFinalizing, &entity.TimerData{Elapsed: c.state.Elapsed, Display: formatElapsed(c.state.Elapsed)})

	transcription := c.transcription
	c.transcription = nil
	c.mu.Unlock()

	ctxzap.Info(ctx, "finalizing answer", zap.String("session_id", c.id), zap.Int("question_index", q))

	return func() error { return c.finalize(gen, q, transcription) }, nil
}

// finalize flushes and joins the recorders, uploads the answer and advances
func (c *Controller) finalize(gen uint64, q int, transcription media.TranscriptionSession) error {
	// transcription first, so no fragment lands after the flush below
	if transcription != nil {
		if err := transcription.Stop(); err != nil {
			c.logger.Warn("stop transcription", zap.Error(err))
		}
	}

	c.mu.Lock()
	if c.closed || c.cycle != gen {
		c.mu.Unlock()
		return entity.ErrSessionClosed
	}
	c.elapsed.stop()
	c.elapsed = nil
	c.silence.cancel()
	videoRec, audioRec := c.videoRec, c.audioRec
	c.mu.Unlock()

	video, audio := c.joinRecorders(videoRec, audioRec)

	c.mu.Lock()
	if c.closed || c.cycle != gen {
		c.mu.Unlock()
		return entity.ErrSessionClosed
	}
	c.videoRec, c.audioRec = nil, nil
	c.commitScratch()
	answer := c.store.answerText(q)
	c.store.setAnswer(q, answer)

	req := &entity.PredictRequest{
		Video:         video.Data,
		VideoFilename: fmt.Sprintf("video_q%d.webm", q+1),
		Audio:         audio.Data,
		AudioFilename: fmt.Sprintf("audio_q%d.webm", q+1),
		Metadata: entity.PredictMetadata{
			QuestionIndex: q,
			Question:      c.questions[q],
			AnswerText:    answer,
		},
	}
	uploadCtx, cancel := context.WithCancel(c.ctx)
	c.uploadCancel = cancel
	c.mu.Unlock()

	resp, uploadErr := c.deps.Predictor.Predict(uploadCtx, req)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadCancel = nil
	if c.closed || c.cycle != gen {
		return entity.ErrSessionClosed
	}

	if uploadErr != nil {
		c.logger.Error("emotion upload failed",
			zap.Int("question_index", q),
			zap.Error(uploadErr),
		)
		c.store.setUploadError(q, uploadErr.Error())
		c.publish(entity.EventError, &entity.ErrorData{
			Message: "emotion upload failed",
			Details: map[string]any{"question_index": q, "error": uploadErr.Error()},
		})
	} else if err := c.store.setEmotions(q, resp.Probabilities); err != nil {
		c.logger.Error("store emotions", zap.Int("question_index", q), zap.Error(err))
	} else {
		c.appendMessage(entity.SpeakerSystem, fmt.Sprintf("Q%d finished", q+1))
	}

	c.advance(q)
	return nil
}

// joinRecorders stops both recorders concurrently. A recorder that fails
// still yields whatever it captured, possibly an empty blob.
func (c *Controller) joinRecorders(videoRec, audioRec media.Recorder) (*media.Blob, *media.Blob) {
	flushCtx, cancel := context.WithTimeout(c.ctx, c.opts.FlushTimeout)
	defer cancel()

	var video, audio *media.Blob
	var g errgroup.Group
	g.Go(func() error {
		var err error
		video, err = stopRecorder(flushCtx, videoRec, media.MimeVideoWebM)
		return err
	})
	g.Go(func() error {
		var err error
		audio, err = stopRecorder(flushCtx, audioRec, media.MimeAudioWebM)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Warn("recorder finalized with error", zap.Error(err))
	}

	c.logger.Debug("recordings joined",
		zap.Int("video_size", video.Size()),
		zap.Int("audio_size", audio.Size()),
	)
	return video, audio
}

func stopRecorder(ctx context.Context, rec media.Recorder, mimeType string) (*media.Blob, error) {
	empty := &media.Blob{Data: []byte{}, MimeType: mimeType}
	if rec == nil {
		return empty, nil
	}
	blob, err := rec.Stop(ctx)
	if blob == nil {
		blob = empty
	}
	return blob, err
}

// advance moves to the next question or finishes the session. Called with mu held.
func (c *Controller) advance(q int) {
	log, _ := c.store.get(q)
	finished := &entity.QuestionFinishedData{
		QuestionIndex: q,
		Emotions:      log.Emotions,
	}

	if q+1 < len(c.questions) {
		c.state.Phase, _ = nextPhase(c.state.Phase, triggerAdvance)
		c.state.QIndex = q + 1
		c.state.SelectedPage = q + 1
		next := q + 1
		finished.NextIndex = &next
		c.publish(entity.EventQuestionFinished, finished)
		c.logger.Info("question finished", zap.Int("question_index", q), zap.Int("next_index", next))
		return
	}

	c.state.Phase, _ = nextPhase(c.state.Phase, triggerFinish)
	c.publish(entity.EventQuestionFinished, finished)
	c.publish(entity.EventSessionFinished, c.snapshotLocked())
	c.logger.Info("session finished", zap.Int("questions", len(c.questions)))
}

// ToggleCam flips the first video track of the mounted stream
func (c *Controller) ToggleCam() (bool, error) {
	return c.toggle(media.KindVideo)
}

// ToggleMic flips the first audio track of the mounted stream
func (c *Controller) ToggleMic() (bool, error) {
	return c.toggle(media.KindAudio)
}

func (c *Controller) toggle(kind media.Kind) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, entity.ErrSessionClosed
	}
	if c.stream == nil {
		return false, entity.ErrNoCaptureStream
	}

	tracks := c.stream.VideoTracks()
	if kind == media.KindAudio {
		tracks = c.stream.AudioTracks()
	}
	if len(tracks) == 0 {
		return false, fmt.Errorf("%w: no %s track", entity.ErrNoCaptureStream, kind)
	}

	track := tracks[0]
	track.SetEnabled(!track.Enabled())
	enabled := track.Enabled()

	if kind == media.KindVideo {
		c.state.CamOn = enabled
	} else {
		c.state.MicOn = enabled
	}
	c.publish(entity.EventTrackChanged, &entity.TrackChangedData{Kind: string(kind), Enabled: enabled})
	return enabled, nil
}

// SelectPage changes the viewed question without touching the active one
func (c *Controller) SelectPage(page int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return entity.ErrSessionClosed
	}
	if _, err := c.store.get(page); err != nil {
		return err
	}
	c.state.SelectedPage = page
	c.publish(entity.EventPageSelected, &entity.PageSelectedData{Page: page})
	return nil
}

// Page returns a copy of the log of one question
func (c *Controller) Page(page int) (*entity.QuestionLog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, err := c.store.get(page)
	if err != nil {
		return nil, err
	}
	return l.Clone(), nil
}

func (c *Controller) Snapshot() *entity.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() *entity.SessionSnapshot {
	state := c.state
	if state.Countdown != nil {
		v := *state.Countdown
		state.Countdown = &v
	}

	snap := &entity.SessionSnapshot{
		ID:        c.id,
		State:     state,
		Recording: state.Recording(),
		Finished:  state.Finished(),
		Controls: entity.Controls{
			StartEnabled: state.Phase == entity.PhaseIdle && c.stream != nil && !c.closed,
			EndEnabled:   state.Phase == entity.PhaseRecording && !c.closed,
			CameraLabel:  cameraLabel(state.CamOn),
			MicLabel:     micLabel(state.MicOn),
		},
		Questions: c.store.snapshot(),
		CreatedAt: c.createdAt,
	}
	if state.Recording() {
		snap.Timer = formatElapsed(state.Elapsed)
	}
	if state.Countdown != nil {
		snap.CountdownTxt = countdownLabel(*state.Countdown)
	}
	return snap
}

// publish sends an event unless the session is closed. Called with mu held.
func (c *Controller) publish(event entity.SessionEventType, data any) {
	if c.closed {
		return
	}
	c.deps.Notifier.Notify(c.ctx, &entity.SessionEvent{
		Event:     event,
		SessionID: c.id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func countdownLabel(v int) string {
	if v == 0 {
		return countdownStartLabel
	}
	return fmt.Sprintf("%d", v)
}

func cameraLabel(on bool) string {
	if on {
		return "Camera Off"
	}
	return "Camera On"
}

func micLabel(on bool) string {
	if on {
		return "Mic Mute"
	}
	return "Mic Unmute"
}
