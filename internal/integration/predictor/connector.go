package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"

	"github.com/futig/interview-emotion/internal/config"
	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/integration/common"
	pkghttp "github.com/futig/interview-emotion/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.PredictorConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.PredictorConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector("predictor", cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Predict uploads the recorded answer of one question and returns the emotion probabilities
func (c *Connector) Predict(ctx context.Context, req *entity.PredictRequest) (*entity.PredictResponse, error) {
	metadata, err := json.Marshal(req.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	ctxzap.Info(ctx, "uploading answer to emotion service",
		zap.Int("question_index", req.Metadata.QuestionIndex),
		zap.Int("video_size", len(req.Video)),
		zap.Int("audio_size", len(req.Audio)),
		zap.Int("answer_length", len(req.Metadata.AnswerText)),
	)

	prepareBody := func(writer *multipart.Writer) error {
		if err := pkghttp.FilePart(writer, "video", req.VideoFilename, "video/webm", req.Video); err != nil {
			return err
		}
		if err := pkghttp.FilePart(writer, "audio", req.AudioFilename, "audio/webm", req.Audio); err != nil {
			return err
		}
		if err := writer.WriteField("json_data", string(metadata)); err != nil {
			return fmt.Errorf("write json_data field: %w", err)
		}
		return nil
	}

	var resp entity.PredictResponse
	err = c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.PredictEndpoint, prepareBody, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrUploadFailed, err)
	}

	if err := validatePrediction(&resp); err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "emotion prediction received",
		zap.Int("question_index", req.Metadata.QuestionIndex),
		zap.Int("labels", len(resp.Probabilities)),
	)
	return &resp, nil
}

// PredictEmotion sends a single audio answer and returns the dominant emotion label
func (c *Connector) PredictEmotion(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio data provided", entity.ErrInvalidFile)
	}

	ctxzap.Info(ctx, "predicting emotion for single answer",
		zap.String("filename", filename),
		zap.Int("size", len(audio)),
	)

	prepareBody := func(writer *multipart.Writer) error {
		return pkghttp.FilePart(writer, "file", filename, "", audio)
	}

	var resp entity.PredictEmotionResponse
	err := c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.PredictEmotionEndpoint, prepareBody, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrUploadFailed, err)
	}

	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", entity.ErrBackendReported, resp.Error)
	}
	if resp.Emotion == "" {
		return "", fmt.Errorf("%w: response has no emotion", entity.ErrUploadFailed)
	}

	return resp.Emotion, nil
}

func validatePrediction(resp *entity.PredictResponse) error {
	if resp.Error != nil && *resp.Error != "" {
		return fmt.Errorf("%w: %s", entity.ErrBackendReported, *resp.Error)
	}
	if len(resp.Probabilities) == 0 {
		return fmt.Errorf("%w: response has no probabilities", entity.ErrUploadFailed)
	}
	for _, p := range resp.Probabilities {
		if math.IsNaN(p.Probability) || p.Probability < 0 || p.Probability > 1 {
			return fmt.Errorf("%w: probability of %q out of range: %v", entity.ErrUploadFailed, p.Label, p.Probability)
		}
	}
	return nil
}
