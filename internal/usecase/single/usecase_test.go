package single

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictor struct {
	emotion  string
	err      error
	got      []byte
	filename string
}

func (f *fakePredictor) PredictEmotion(ctx context.Context, audio []byte, filename string) (string, error) {
	f.got = audio
	f.filename = filename
	return f.emotion, f.err
}

func uploadedFile(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/predict-emotion", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	_, header, err := req.FormFile("file")
	require.NoError(t, err)
	return header
}

func TestPredictEmotionFile(t *testing.T) {
	p := &fakePredictor{emotion: "happy\n"}
	uc := NewUsecase(p)

	resp, err := uc.PredictEmotionFile(context.Background(), uploadedFile(t, "answer.webm", []byte("audio-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "happy", resp.Emotion)
	assert.Equal(t, []byte("audio-bytes"), p.got)
	assert.Equal(t, "answer.webm", p.filename)
}

func TestPredictEmotionErrors(t *testing.T) {
	backend := errors.New("model exploded")

	tests := []struct {
		name    string
		audio   []byte
		p       *fakePredictor
		wantErr error
	}{
		{name: "empty audio", audio: nil, p: &fakePredictor{emotion: "sad"}, wantErr: entity.ErrInvalidFile},
		{name: "backend error", audio: []byte("a"), p: &fakePredictor{err: fmtBackend(backend)}, wantErr: entity.ErrBackendReported},
		{name: "empty label", audio: []byte("a"), p: &fakePredictor{emotion: "  "}, wantErr: entity.ErrUploadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUsecase(tt.p).PredictEmotion(context.Background(), tt.audio, "a.webm")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func fmtBackend(err error) error {
	return errors.Join(entity.ErrBackendReported, err)
}
