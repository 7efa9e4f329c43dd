package predictor

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

var mockLabels = []string{"angry", "disgust", "fearful", "happy", "neutral", "sad", "surprised"}

// MockConnector derives a stable distribution from the uploaded audio instead of calling the model
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Predict(ctx context.Context, req *entity.PredictRequest) (*entity.PredictResponse, error) {
	ctxzap.Info(ctx, "[MOCK] predicting emotions",
		zap.Int("question_index", req.Metadata.QuestionIndex),
		zap.Int("video_size", len(req.Video)),
		zap.Int("audio_size", len(req.Audio)),
	)

	seed := append(append([]byte(nil), req.Audio...), req.Metadata.AnswerText...)
	probs := mockDistribution(seed)
	top := probs[0]
	for _, p := range probs[1:] {
		if p.Probability > top.Probability {
			top = p
		}
	}

	return &entity.PredictResponse{
		Status:        "ok",
		Emotion:       &top.Label,
		Probabilities: probs,
	}, nil
}

func (m *MockConnector) PredictEmotion(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio data provided", entity.ErrInvalidFile)
	}

	ctxzap.Info(ctx, "[MOCK] predicting emotion for single answer",
		zap.String("filename", filename),
		zap.Int("size", len(audio)),
	)

	sum := sha256.Sum256(audio)
	return mockLabels[int(sum[0])%len(mockLabels)], nil
}

// mockDistribution spreads the first hash bytes of data over the known labels, rounded to 2 decimals
func mockDistribution(data []byte) entity.Probabilities {
	sum := sha256.Sum256(data)

	total := 0.0
	weights := make([]float64, len(mockLabels))
	for i := range mockLabels {
		weights[i] = float64(sum[i]) + 1
		total += weights[i]
	}

	probs := make(entity.Probabilities, 0, len(mockLabels))
	for i, label := range mockLabels {
		probs = append(probs, entity.EmotionProbability{
			Label:       label,
			Probability: math.Round(weights[i]/total*100) / 100,
		})
	}
	return probs
}
