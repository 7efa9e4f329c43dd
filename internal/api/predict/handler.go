package predict

import (
	"context"
	"errors"
	"net/http"

	"github.com/futig/interview-emotion/internal/config"
	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/pkg/logger"
	"github.com/futig/interview-emotion/internal/pkg/response"
	"github.com/futig/interview-emotion/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   PredictUsecase
	cfg       config.FileUploadConfig
	validator *validator.Validator
}

func NewHandler(usecase PredictUsecase, cfg config.FileUploadConfig, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		cfg:       cfg,
		validator: validator,
	}
}

// PredictEmotion handles POST /predict-emotion - Classify one recorded answer.
// Responds with {"emotion"} or {"error"}.
func (h *Handler) PredictEmotion(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "PredictEmotion")

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	req := entity.PredictEmotionRequest{}
	if files := r.MultipartForm.File["file"]; len(files) > 0 {
		req.AudioFile = files[0]
	}

	if err := h.validator.ValidatePredictEmotion(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	ctxzap.Info(ctx, "predicting emotion for uploaded answer",
		zap.String("filename", req.AudioFile.Filename),
		zap.Int64("size_bytes", req.AudioFile.Size),
	)

	resp, err := h.usecase.PredictEmotionFile(ctx, req.AudioFile)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidFile):
			h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
		case errors.Is(err, entity.ErrBackendReported) || errors.Is(err, entity.ErrUploadFailed):
			h.respondError(ctx, w, http.StatusBadGateway, "emotion service failed", err)
		default:
			h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
		}
		return
	}

	response.Success(w, resp)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	response.JSON(w, status, entity.PredictEmotionResponse{Error: message + ": " + err.Error()})
}
