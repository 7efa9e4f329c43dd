package live

import (
	"context"

	"github.com/futig/interview-emotion/internal/entity"
	livehub "github.com/futig/interview-emotion/internal/integration/live"
)

type Hub interface {
	Attach(sessionID string) *livehub.Client
	Detach(c *livehub.Client)
	HandleControl(ctx context.Context, sessionID string, data []byte) error
	HandleMedia(sessionID string, frame []byte) error
}

type SessionGetter interface {
	GetSession(ctx context.Context, sessionID string) (*entity.SessionSnapshot, error)
}
