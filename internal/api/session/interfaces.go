package session

import (
	"context"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/pkg/formatter"
	"github.com/futig/interview-emotion/internal/render"
)

type SessionUsecase interface {
	CreateSession(ctx context.Context, req *entity.StartSessionRequest) (*entity.StartSessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*entity.SessionSnapshot, error)
	StartRecording(ctx context.Context, sessionID string) (*entity.SessionSnapshot, error)
	StopRecording(ctx context.Context, sessionID string, done func(error)) error
	ToggleCamera(ctx context.Context, sessionID string) (*entity.ToggleResponse, error)
	ToggleMicrophone(ctx context.Context, sessionID string) (*entity.ToggleResponse, error)
	SelectPage(ctx context.Context, sessionID string, page int) (*entity.SessionSnapshot, error)
	RenderPage(ctx context.Context, sessionID string, page int) (*render.PageView, error)
	ExportResult(ctx context.Context, sessionID string, format entity.ResultFormat) ([]byte, formatter.Formatter, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
