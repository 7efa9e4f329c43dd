package asr

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// bytes of non-silent audio the mock treats as one spoken word
const mockBytesPerWord = 1024

var mockScript = strings.Fields(`I have been working as a backend engineer for five years.
Most of that time I built streaming services and the tooling around them.
I enjoy turning vague requirements into small reliable systems.`)

// MockConnector answers with a scripted transcript whose length follows the amount of audio
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("empty audio data provided")
	}

	voiced := 0
	for _, b := range audioData {
		if b != 0 {
			voiced++
		}
	}

	words := voiced / mockBytesPerWord
	if voiced > 0 && words == 0 {
		words = 1
	}
	if words > len(mockScript) {
		words = len(mockScript)
	}

	transcription := strings.Join(mockScript[:words], " ")

	ctxzap.Debug(ctx, "[MOCK] audio transcribed",
		zap.String("filename", filename),
		zap.Int("size", len(audioData)),
		zap.Int("transcription_length", len(transcription)),
	)
	return transcription, nil
}
