package live

import (
	"context"
	"net/http"
	"time"

	"github.com/futig/interview-emotion/internal/entity"
	livehub "github.com/futig/interview-emotion/internal/integration/live"
	"github.com/futig/interview-emotion/internal/pkg/logger"
	"github.com/futig/interview-emotion/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 20 // one encoded media chunk
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 4 << 10,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves the live socket of an interview session
type Handler struct {
	hub      Hub
	sessions SessionGetter
}

func NewHandler(hub Hub, sessions SessionGetter) *Handler {
	return &Handler{hub: hub, sessions: sessions}
}

// ServeWS handles GET /interview-session/{id}/ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "LiveSocket"),
	)

	if _, err := h.sessions.GetSession(ctx, sessionID); err != nil {
		ctxzap.Warn(ctx, "live socket for unknown session", zap.Error(err))
		response.Error(w, http.StatusNotFound, entity.ErrSessionNotFound.Error())
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ctxzap.Error(ctx, "websocket upgrade failed", zap.Error(err))
		return
	}

	client := h.hub.Attach(sessionID)

	// the request context ends when the handler returns
	connCtx := logger.Detached(ctx)

	go h.writePump(connCtx, wsConn, client)
	go h.readPump(connCtx, wsConn, client)
}

func (h *Handler) readPump(ctx context.Context, wsConn *websocket.Conn, client *livehub.Client) {
	defer func() {
		h.hub.Detach(client)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ctxzap.Warn(ctx, "live socket closed unexpectedly", zap.Error(err))
			}
			return
		}
		// any frame proves the client is alive
		wsConn.SetReadDeadline(time.Now().Add(pongWait))

		switch msgType {
		case websocket.BinaryMessage:
			err = h.hub.HandleMedia(client.SessionID, data)
		case websocket.TextMessage:
			err = h.hub.HandleControl(ctx, client.SessionID, data)
		}
		if err != nil {
			ctxzap.Warn(ctx, "dropping live frame", zap.Int("frame_size", len(data)), zap.Error(err))
		}
	}
}

func (h *Handler) writePump(ctx context.Context, wsConn *websocket.Conn, client *livehub.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
				ctxzap.Debug(ctx, "live socket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
