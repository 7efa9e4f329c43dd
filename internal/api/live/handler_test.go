package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/futig/interview-emotion/internal/entity"
	livehub "github.com/futig/interview-emotion/internal/integration/live"
	"github.com/futig/interview-emotion/internal/integration/media"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessions struct {
	known map[string]bool
}

func (f *fakeSessions) GetSession(ctx context.Context, id string) (*entity.SessionSnapshot, error) {
	if !f.known[id] {
		return nil, entity.ErrSessionNotFound
	}
	return &entity.SessionSnapshot{ID: id}, nil
}

func newLiveServer(t *testing.T) (*livehub.Hub, *httptest.Server) {
	t.Helper()
	hub := livehub.NewHub(zap.NewNop())
	h := NewHandler(hub, &fakeSessions{known: map[string]bool{"s1": true}})

	r := chi.NewRouter()
	r.Route("/interview-session", func(r chi.Router) {
		RegisterRoutes(r, h)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server, id string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/interview-session/" + id + "/ws"
}

func TestServeWSUnknownSession(t *testing.T) {
	_, srv := newLiveServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "missing"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeWSMountsCaptureAndStreamsMedia(t *testing.T) {
	hub, srv := newLiveServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "s1"), nil)
	require.NoError(t, err)
	defer conn.Close()

	hello, _ := json.Marshal(livehub.ControlFrame{Type: livehub.ControlHello, Video: true, Audio: true})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, hello))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stream, err := hub.Acquire(ctx, "s1")
	require.NoError(t, err)

	got := make(chan []byte, 1)
	_, err = stream.Subscribe(media.FeedAudio, func(b []byte) {
		got <- append([]byte(nil), b...)
	})
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, livehub.EncodeMedia(media.FeedAudio, []byte("chunk"))))
	select {
	case b := <-got:
		assert.Equal(t, []byte("chunk"), b)
	case <-time.After(2 * time.Second):
		t.Fatal("media chunk not published")
	}
}

func TestServeWSDeliversEventsAndRelease(t *testing.T) {
	hub, srv := newLiveServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "s1"), nil)
	require.NoError(t, err)
	defer conn.Close()

	hello, _ := json.Marshal(livehub.ControlFrame{Type: livehub.ControlHello, Audio: true})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, hello))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stream, err := hub.Acquire(ctx, "s1")
	require.NoError(t, err)

	hub.Notify(ctx, &entity.SessionEvent{
		Event:     entity.EventCountdown,
		SessionID: "s1",
		Data:      &entity.CountdownData{Value: 0, Label: "Start!"},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event entity.SessionEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, entity.EventCountdown, event.Event)
	assert.Equal(t, "s1", event.SessionID)

	stream.Stop()

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, livehub.CommandRelease, event.Event)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
