package predict

import (
	"context"
	"mime/multipart"

	"github.com/futig/interview-emotion/internal/entity"
)

type PredictUsecase interface {
	PredictEmotionFile(ctx context.Context, audioFile *multipart.FileHeader) (*entity.PredictEmotionResponse, error)
}
