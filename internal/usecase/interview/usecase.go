package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/futig/interview-emotion/internal/config"
	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/pkg/formatter"
	"github.com/futig/interview-emotion/internal/pkg/logger"
	"github.com/futig/interview-emotion/internal/render"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// CallbackSender delivers an event to a session webhook
type CallbackSender interface {
	Send(ctx context.Context, callbackURL string, event *entity.SessionEvent) error
}

// SessionUsecase keeps the live controllers of all sessions. Sessions expire
// after the configured TTL of inactivity; expiry and deletion tear them down.
type SessionUsecase struct {
	sessions       *cache.Cache
	questions      []string
	opts           Options
	captureTimeout time.Duration
	liveBaseURL    string

	capture     CaptureProvider
	recorders   RecorderFactory
	transcriber Transcriber
	predictor   Predictor
	notifier    Notifier
	callback    CallbackSender
	formatters  *formatter.Factory
	logger      *zap.Logger
}

func NewUsecase(
	cfg *config.Config,
	capture CaptureProvider,
	recorders RecorderFactory,
	transcriber Transcriber,
	predictor Predictor,
	notifier Notifier,
	callback CallbackSender,
	formatters *formatter.Factory,
	logger *zap.Logger,
) *SessionUsecase {
	uc := &SessionUsecase{
		sessions:       cache.New(cfg.SessionCfg.TTL, cfg.SessionCfg.CleanupPeriod),
		questions:      append([]string(nil), cfg.Questions...),
		opts:           OptionsFromConfig(cfg.SessionCfg),
		captureTimeout: cfg.SessionCfg.CaptureTimeout,
		liveBaseURL:    strings.TrimRight(cfg.PublicBaseURL, "/"),
		capture:        capture,
		recorders:      recorders,
		transcriber:    transcriber,
		predictor:      predictor,
		notifier:       notifier,
		callback:       callback,
		formatters:     formatters,
		logger:         logger,
	}

	uc.sessions.OnEvicted(func(id string, v interface{}) {
		if ctrl, ok := v.(*Controller); ok {
			ctrl.Close()
			uc.logger.Info("session evicted", zap.String("session_id", id))
		}
	})
	return uc
}

func OptionsFromConfig(cfg config.SessionConfig) Options {
	return Options{
		CountdownFrom: cfg.CountdownFrom,
		CountdownTick: cfg.CountdownTick,
		ElapsedTick:   cfg.ElapsedTick,
		SilenceWindow: cfg.SilenceWindow,
		FlushTimeout:  cfg.FlushTimeout,
		Language:      cfg.Language,
	}
}

// CreateSession registers a controller and starts acquiring its capture stream
func (uc *SessionUsecase) CreateSession(ctx context.Context, req *entity.StartSessionRequest) (*entity.StartSessionResponse, error) {
	id := uuid.New().String()

	notifiers := Notifiers{uc.notifier}
	if req != nil && req.CallbackURL != "" && uc.callback != nil {
		notifiers = append(notifiers, &webhookNotifier{url: req.CallbackURL, sender: uc.callback})
	}

	ctrl := NewController(id, uc.questions, uc.opts, Deps{
		Capture:     uc.capture,
		Recorders:   uc.recorders,
		Transcriber: uc.transcriber,
		Predictor:   uc.predictor,
		Notifier:    notifiers,
	}, uc.logger)

	if err := uc.sessions.Add(id, ctrl, cache.DefaultExpiration); err != nil {
		ctrl.Close()
		return nil, fmt.Errorf("register session: %w", err)
	}

	go func() {
		mountCtx, cancel := context.WithTimeout(ctxzap.ToContext(context.Background(), uc.logger), uc.captureTimeout)
		defer cancel()
		if err := ctrl.Mount(mountCtx); err != nil {
			uc.logger.Warn("session mounted without capture", zap.String("session_id", id), zap.Error(err))
		}
	}()

	ctxzap.Info(ctx, "interview session created", zap.String("session_id", id))

	return &entity.StartSessionResponse{
		SessionID: id,
		LiveURL:   fmt.Sprintf("%s/interview-session/%s/ws", uc.liveBaseURL, id),
	}, nil
}

func (uc *SessionUsecase) controller(id string) (*Controller, error) {
	v, ok := uc.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	ctrl := v.(*Controller)
	// any access counts as activity
	uc.sessions.SetDefault(id, ctrl)
	return ctrl, nil
}

func (uc *SessionUsecase) GetSession(ctx context.Context, id string) (*entity.SessionSnapshot, error) {
	ctrl, err := uc.controller(id)
	if err != nil {
		return nil, err
	}
	return ctrl.Snapshot(), nil
}

func (uc *SessionUsecase) StartRecording(ctx context.Context, id string) (*entity.SessionSnapshot, error) {
	ctrl, err := uc.controller(id)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Start(ctx); err != nil {
		return nil, err
	}
	return ctrl.Snapshot(), nil
}

// StopRecording moves the session to Finalizing and finalizes the answer in
// the background. done, when not nil, receives the outcome.
func (uc *SessionUsecase) StopRecording(ctx context.Context, id string, done func(error)) error {
	ctrl, err := uc.controller(id)
	if err != nil {
		return err
	}
	finalize, err := ctrl.BeginStop(ctx)
	if err != nil {
		return err
	}

	bgCtx := logger.Detached(logger.WithAction(ctx, "StopRecording-async"))
	go func() {
		err := finalize()
		if err != nil {
			ctxzap.Warn(bgCtx, "finalize answer", zap.String("session_id", id), zap.Error(err))
		}
		if done != nil {
			done(err)
		}
	}()
	return nil
}

func (uc *SessionUsecase) ToggleCamera(ctx context.Context, id string) (*entity.ToggleResponse, error) {
	ctrl, err := uc.controller(id)
	if err != nil {
		return nil, err
	}
	on, err := ctrl.ToggleCam()
	if err != nil {
		return nil, err
	}
	return &entity.ToggleResponse{Enabled: on, Label: cameraLabel(on)}, nil
}

func (uc *SessionUsecase) ToggleMicrophone(ctx context.Context, id string) (*entity.ToggleResponse, error) {
	ctrl, err := uc.controller(id)
	if err != nil {
		return nil, err
	}
	on, err := ctrl.ToggleMic()
	if err != nil {
		return nil, err
	}
	return &entity.ToggleResponse{Enabled: on, Label: micLabel(on)}, nil
}

func (uc *SessionUsecase) SelectPage(ctx context.Context, id string, page int) (*entity.SessionSnapshot, error) {
	ctrl, err := uc.controller(id)
	if err != nil {
		return nil, err
	}
	if err := ctrl.SelectPage(page); err != nil {
		return nil, err
	}
	return ctrl.Snapshot(), nil
}

func (uc *SessionUsecase) RenderPage(ctx context.Context, id string, page int) (*render.PageView, error) {
	ctrl, err := uc.controller(id)
	if err != nil {
		return nil, err
	}
	log, err := ctrl.Page(page)
	if err != nil {
		return nil, err
	}
	return render.Page(log), nil
}

// ExportResult renders the whole session with the formatter of format
func (uc *SessionUsecase) ExportResult(ctx context.Context, id string, format entity.ResultFormat) ([]byte, formatter.Formatter, error) {
	ctrl, err := uc.controller(id)
	if err != nil {
		return nil, nil, err
	}
	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, nil, err
	}

	data, err := f.Format(render.Report(ctrl.Snapshot()))
	if err != nil {
		return nil, nil, fmt.Errorf("format result: %w", err)
	}
	return data, f, nil
}

// DeleteSession tears the session down through the eviction hook
func (uc *SessionUsecase) DeleteSession(ctx context.Context, id string) error {
	if _, ok := uc.sessions.Get(id); !ok {
		return fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	uc.sessions.Delete(id)
	ctxzap.Info(ctx, "interview session deleted", zap.String("session_id", id))
	return nil
}

// Shutdown closes every live session
func (uc *SessionUsecase) Shutdown() {
	for id := range uc.sessions.Items() {
		uc.sessions.Delete(id)
	}
}

// webhookEvents are the events forwarded to a session callback URL
var webhookEvents = map[entity.SessionEventType]bool{
	entity.EventQuestionFinished: true,
	entity.EventSessionFinished:  true,
	entity.EventError:            true,
}

type webhookNotifier struct {
	url    string
	sender CallbackSender
}

func (n *webhookNotifier) Notify(ctx context.Context, event *entity.SessionEvent) {
	if !webhookEvents[event.Event] {
		return
	}
	// the session context ends on close; delivery must outlive it
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := n.sender.Send(ctx, n.url, event); err != nil {
			ctxzap.Error(ctx, "failed to deliver session callback",
				zap.String("event_type", string(event.Event)),
				zap.Error(err),
			)
		}
	}()
}
