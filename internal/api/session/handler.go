package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/pkg/logger"
	"github.com/futig/interview-emotion/internal/pkg/response"
	"github.com/futig/interview-emotion/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   SessionUsecase
	validator *validator.Validator
}

func NewHandler(usecase SessionUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// StartSession handles POST /interview-session - Create a new session
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartSession")

	var req entity.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateStartSession(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	resp, err := h.usecase.CreateSession(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "session created", zap.String("session_id", resp.SessionID))
	response.Created(w, resp)
}

// GetSession handles GET /interview-session/{id} - Get session snapshot
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "GetSession")

	ctxzap.Debug(ctx, "fetching session")

	snapshot, err := h.usecase.GetSession(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, snapshot)
}

// StartRecording handles POST /interview-session/{id}/start - Begin the countdown
func (h *Handler) StartRecording(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "StartRecording")

	snapshot, err := h.usecase.StartRecording(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "recording cycle started", zap.Int("question_index", snapshot.State.QIndex))
	response.Success(w, snapshot)
}

// StopRecording handles POST /interview-session/{id}/stop - Finalize the answer
func (h *Handler) StopRecording(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "StopRecording")

	if err := h.usecase.StopRecording(ctx, sessionID, nil); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "answer is being finalized")
	response.Accepted(w, map[string]string{
		"status":  "accepted",
		"message": "answer is being finalized",
	})
}

// ToggleCamera handles POST /interview-session/{id}/camera
func (h *Handler) ToggleCamera(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "ToggleCamera")

	resp, err := h.usecase.ToggleCamera(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	response.Success(w, resp)
}

// ToggleMicrophone handles POST /interview-session/{id}/microphone
func (h *Handler) ToggleMicrophone(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "ToggleMicrophone")

	resp, err := h.usecase.ToggleMicrophone(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	response.Success(w, resp)
}

// SelectPage handles PUT /interview-session/{id}/page - Show a question page
func (h *Handler) SelectPage(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "SelectPage")

	var req entity.SelectPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateSelectPage(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	snapshot, err := h.usecase.SelectPage(ctx, sessionID, req.Page)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	response.Success(w, snapshot)
}

// RenderPage handles GET /interview-session/{id}/pages/{page} - Render one question page
func (h *Handler) RenderPage(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "RenderPage")

	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid page parameter", err)
		return
	}

	view, err := h.usecase.RenderPage(ctx, sessionID, page)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	response.Success(w, view)
}

// GetSessionResult handles GET /interview-session/{id}/result - Export the emotion report
func (h *Handler) GetSessionResult(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "GetSessionResult")

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(entity.FormatMarkdown)
	}

	format := entity.ResultFormat(formatParam)
	if !format.IsValid() {
		ctxzap.Warn(ctx, "invalid format parameter", zap.String("format", formatParam))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid format parameter",
			fmt.Errorf("format must be one of: markdown, json, docx, pdf"))
		return
	}

	ctx = logger.AddFields(ctx, zap.String("format", string(format)))

	data, fmtr, err := h.usecase.ExportResult(ctx, sessionID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "session result exported", zap.Int("bytes", len(data)))
	response.Attachment(w, fmtr.ContentType(), fmt.Sprintf("interview-%s%s", sessionID, fmtr.FileExtension()), data)
}

// DeleteSession handles DELETE /interview-session/{id} - Tear the session down
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "DeleteSession")

	if err := h.usecase.DeleteSession(ctx, sessionID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	response.NoContent(w)
}

// Helper methods
func (h *Handler) sessionContext(r *http.Request, action string) (context.Context, string) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", action),
	)
	return ctx, sessionID
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}
	response.Error(w, status, fmt.Sprintf("%s: %v", message, err))
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrInvalidFormat) ||
		errors.Is(err, entity.ErrMissingField) || errors.Is(err, entity.ErrInvalidPage):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrAlreadyRecording) || errors.Is(err, entity.ErrNotRecording) ||
		errors.Is(err, entity.ErrSessionFinished) || errors.Is(err, entity.ErrSessionClosed) ||
		errors.Is(err, entity.ErrInvalidPhase) || errors.Is(err, entity.ErrNoCaptureStream):
		h.respondError(ctx, w, http.StatusConflict, "invalid session state", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
