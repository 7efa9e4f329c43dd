package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futig/interview-emotion/internal/config"
	"github.com/futig/interview-emotion/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendPostsEventToCallbackURL(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hook", r.URL.Path)
		assert.Equal(t, "s-1", r.Header.Get("X-Session-ID"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body
	}))
	defer srv.Close()

	conn := NewConnector(config.CallbackConnectorConfig{}, zap.NewNop())
	next := 1
	err := conn.Send(context.Background(), srv.URL+"/hook", &entity.SessionEvent{
		Event:     entity.EventQuestionFinished,
		SessionID: "s-1",
		Data: &entity.QuestionFinishedData{
			QuestionIndex: 0,
			Emotions:      entity.Probabilities{{Label: "happy", Probability: 0.9}},
			NextIndex:     &next,
		},
	})
	require.NoError(t, err)

	body := <-received
	assert.Equal(t, "questionFinished", body["event"])
	assert.Equal(t, "s-1", body["session_id"])
	assert.NotEmpty(t, body["timestamp"])
	data := body["data"].(map[string]any)
	assert.Equal(t, map[string]any{"happy": 0.9}, data["emotions"])
	assert.Equal(t, float64(1), data["next_index"])
}

func TestSendReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	conn := NewConnector(config.CallbackConnectorConfig{}, zap.NewNop())
	err := conn.Send(context.Background(), srv.URL, &entity.SessionEvent{Event: entity.EventSessionFinished, SessionID: "s-1"})
	assert.Error(t, err)
}
