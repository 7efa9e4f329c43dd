package single

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// PredictUsecase is the single-question variant: one recorded answer in,
// one emotion label out
type PredictUsecase struct {
	predictor EmotionPredictor
}

func NewUsecase(predictor EmotionPredictor) *PredictUsecase {
	return &PredictUsecase{predictor: predictor}
}

// PredictEmotionFile reads an uploaded answer and classifies it
func (uc *PredictUsecase) PredictEmotionFile(ctx context.Context, audioFile *multipart.FileHeader) (*entity.PredictEmotionResponse, error) {
	file, err := audioFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	return uc.PredictEmotion(ctx, data, audioFile.Filename)
}

func (uc *PredictUsecase) PredictEmotion(ctx context.Context, audio []byte, filename string) (*entity.PredictEmotionResponse, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", entity.ErrInvalidFile)
	}

	ctxzap.Debug(ctx, "predicting emotion", zap.String("filename", filename), zap.Int("size", len(audio)))

	emotion, err := uc.predictor.PredictEmotion(ctx, audio, filename)
	if err != nil {
		return nil, fmt.Errorf("predict emotion: %w", err)
	}

	emotion = strings.TrimSpace(emotion)
	if emotion == "" {
		return nil, fmt.Errorf("%w: empty emotion label", entity.ErrUploadFailed)
	}

	ctxzap.Info(ctx, "emotion predicted", zap.String("emotion", emotion))
	return &entity.PredictEmotionResponse{Emotion: emotion}, nil
}
