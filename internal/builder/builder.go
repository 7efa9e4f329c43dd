package builder

import (
	"fmt"
	"net/http"
	"time"

	"github.com/futig/interview-emotion/internal/api"
	liveapi "github.com/futig/interview-emotion/internal/api/live"
	predictapi "github.com/futig/interview-emotion/internal/api/predict"
	sessionapi "github.com/futig/interview-emotion/internal/api/session"
	"github.com/futig/interview-emotion/internal/config"
	"github.com/futig/interview-emotion/internal/integration/asr"
	"github.com/futig/interview-emotion/internal/integration/callback"
	"github.com/futig/interview-emotion/internal/integration/live"
	"github.com/futig/interview-emotion/internal/integration/media"
	"github.com/futig/interview-emotion/internal/integration/predictor"
	"github.com/futig/interview-emotion/internal/pkg/formatter"
	"github.com/futig/interview-emotion/internal/pkg/validator"
	"github.com/futig/interview-emotion/internal/usecase/interview"
	"github.com/futig/interview-emotion/internal/usecase/single"
	"go.uber.org/zap"
)

// Predictor is the full emotion service surface used by both flows
type Predictor interface {
	interview.Predictor
	single.EmotionPredictor
}

// Build wires the HTTP service for cfg
func Build(cfg *config.Config) (*App, error) {
	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.Int("questions", len(cfg.Questions)),
	)

	// Initialize connectors
	callbackConnector := callback.NewConnector(cfg.CallbackConnectorCfg, logger)
	predictorConnector := newPredictor(cfg, logger)

	// The live hub serves every session socket: events out, capture and speech in
	hub := live.NewHub(logger)

	var capture interview.CaptureProvider
	var transcriber interview.Transcriber

	if cfg.EnableMocks {
		logger.Info("Using synthetic capture and mock connectors for external services")
		capture = media.NewSyntheticCapture(logger)
		transcriber = asr.NewStreamingTranscriber(asr.NewMockConnector(logger), cfg.ASRConnectorCfg.Interval, &cfg.ASRConnectorCfg.Retry, logger)
	} else {
		logger.Info("Using live client capture",
			zap.String("transcriber", string(cfg.SessionCfg.Transcriber)),
		)
		capture = hub
		transcriber = newTranscriber(cfg, hub, logger)
	}

	// Initialize validators and formatters
	requestValidator := validator.NewValidator(cfg.FileUploadCfg)
	formatters := formatter.NewFactory()

	// Initialize use cases
	sessionUC := interview.NewUsecase(
		cfg,
		capture,
		media.NewRecorderFactory(),
		transcriber,
		predictorConnector,
		hub,
		callbackConnector,
		formatters,
		logger,
	)
	predictUC := single.NewUsecase(predictorConnector)
	logger.Info("Use cases initialized")

	// Setup API handlers
	sessionHandler := sessionapi.NewHandler(sessionUC, requestValidator)
	liveHandler := liveapi.NewHandler(hub, sessionUC)
	predictHandler := predictapi.NewHandler(predictUC, cfg.FileUploadCfg, requestValidator)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(sessionHandler, liveHandler, predictHandler, cfg.AllowedOrigins, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:   server,
		sessions: sessionUC,
		logger:   logger,
	}, nil
}

// BuildPredictUsecase wires the single question flow for command line use
func BuildPredictUsecase(cfg *config.Config) (*single.PredictUsecase, *zap.Logger, error) {
	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}
	return single.NewUsecase(newPredictor(cfg, logger)), logger, nil
}

func newPredictor(cfg *config.Config, logger *zap.Logger) Predictor {
	if cfg.EnableMocks {
		return predictor.NewMockConnector(logger)
	}
	return predictor.NewConnector(cfg.PredictorConnectorCfg, logger)
}

func newTranscriber(cfg *config.Config, hub *live.Hub, logger *zap.Logger) interview.Transcriber {
	if cfg.SessionCfg.Transcriber == config.TranscriberASR {
		return asr.NewStreamingTranscriber(
			asr.NewConnector(cfg.ASRConnectorCfg, logger),
			cfg.ASRConnectorCfg.Interval,
			&cfg.ASRConnectorCfg.Retry,
			logger,
		)
	}
	return hub
}
