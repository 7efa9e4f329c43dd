package callback

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/interview-emotion/internal/config"
	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/integration/common"
	pkghttp "github.com/futig/interview-emotion/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.CallbackConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.CallbackConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector("callback", cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Send posts a session event to the given callback URL
func (c *Connector) Send(ctx context.Context, callbackURL string, event *entity.SessionEvent) error {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	ctxzap.Debug(ctx, "sending callback event",
		zap.String("event_type", string(event.Event)),
		zap.String("callback_url", callbackURL),
		zap.String("session_id", event.SessionID),
		zap.String("timestamp", event.Timestamp),
	)

	opts := []pkghttp.RequestOpt{
		pkghttp.WithHeader("X-Session-ID", event.SessionID),
		pkghttp.WithURL(callbackURL),
	}

	err := c.connector.DoRequest(ctx, http.MethodPost, "", event, nil, opts...)
	if err != nil {
		return fmt.Errorf("failed to send callback, event_type: %s, url: %s, error: %w", string(event.Event), callbackURL, err)
	}

	ctxzap.Info(ctx, "callback sent successfully",
		zap.String("event_type", string(event.Event)),
		zap.String("callback_url", callbackURL),
		zap.String("session_id", event.SessionID),
	)
	return nil
}
