package media

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	defaultChunkInterval = 250 * time.Millisecond
	defaultChunkSize     = 512
)

type SyntheticOption func(*SyntheticCapture)

func WithChunkInterval(d time.Duration) SyntheticOption {
	return func(c *SyntheticCapture) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithChunkSize(n int) SyntheticOption {
	return func(c *SyntheticCapture) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithDeniedCapture makes every acquisition fail as if the user refused access
func WithDeniedCapture() SyntheticOption {
	return func(c *SyntheticCapture) {
		c.deny = true
	}
}

// SyntheticCapture is a device-less capture provider. It emits generated
// chunks on both feeds; a disabled track contributes zeroed payload, the way
// a muted microphone or a blacked-out camera still produces frames.
type SyntheticCapture struct {
	interval  time.Duration
	chunkSize int
	deny      bool
	logger    *zap.Logger
}

func NewSyntheticCapture(logger *zap.Logger, opts ...SyntheticOption) *SyntheticCapture {
	c := &SyntheticCapture{
		interval:  defaultChunkInterval,
		chunkSize: defaultChunkSize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SyntheticCapture) Acquire(ctx context.Context, sessionID string) (*Stream, error) {
	if c.deny {
		ctxzap.Warn(ctx, "[MOCK] capture denied", zap.String("session_id", sessionID))
		return nil, entity.ErrCaptureDenied
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stream := NewStream(KindVideo, KindAudio)
	done := make(chan struct{})
	stream.OnStop(func() { close(done) })

	go c.generate(stream, done)

	ctxzap.Info(ctx, "[MOCK] capture stream acquired",
		zap.String("session_id", sessionID),
		zap.String("stream_id", stream.ID()),
	)
	return stream, nil
}

func (c *SyntheticCapture) generate(stream *Stream, done <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	video := stream.VideoTracks()[0]
	audio := stream.AudioTracks()[0]

	var seq uint32
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			seq++
			audioChunk := c.frame(seq, audio.Enabled())
			combined := append(c.frame(seq, video.Enabled()), audioChunk...)
			stream.Publish(FeedCombined, combined)
			stream.Publish(FeedAudio, audioChunk)
		}
	}
}

func (c *SyntheticCapture) frame(seq uint32, enabled bool) []byte {
	buf := make([]byte, c.chunkSize)
	if !enabled {
		return buf
	}
	for i := 0; i+4 <= len(buf); i += 4 {
		binary.LittleEndian.PutUint32(buf[i:], seq+uint32(i))
	}
	return buf
}
