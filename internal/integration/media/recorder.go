package media

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

const (
	MimeVideoWebM = "video/webm"
	MimeAudioWebM = "audio/webm"
)

// Blob is the finalized output of a recorder
type Blob struct {
	Data     []byte
	MimeType string
	Chunks   int
}

func (b *Blob) Size() int { return len(b.Data) }

type recorderState int

const (
	recorderInactive recorderState = iota
	recorderRecording
	recorderStopped
)

// ChunkRecorder collects the chunks published on one feed of a stream
// between Start and Stop and joins them into a single blob.
type ChunkRecorder struct {
	stream   *Stream
	feed     Feed
	mimeType string

	mu          sync.Mutex
	state       recorderState
	chunks      [][]byte
	unsubscribe func()
}

func NewChunkRecorder(stream *Stream, feed Feed, mimeType string) *ChunkRecorder {
	return &ChunkRecorder{
		stream:   stream,
		feed:     feed,
		mimeType: mimeType,
	}
}

func (r *ChunkRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != recorderInactive {
		return fmt.Errorf("recorder for %s feed already started", r.feed)
	}

	unsubscribe, err := r.stream.Subscribe(r.feed, r.push)
	if err != nil {
		return fmt.Errorf("start recorder: %w", err)
	}
	r.unsubscribe = unsubscribe
	r.state = recorderRecording
	return nil
}

func (r *ChunkRecorder) push(chunk []byte) {
	buf := make([]byte, len(chunk))
	copy(buf, chunk)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != recorderRecording {
		return
	}
	r.chunks = append(r.chunks, buf)
}

// Stop asks the source to flush, detaches from the stream and returns the
// finalized blob. A recorder that captured nothing yields an empty blob.
func (r *ChunkRecorder) Stop(ctx context.Context) (*Blob, error) {
	r.mu.Lock()
	if r.state != recorderRecording {
		r.mu.Unlock()
		return nil, fmt.Errorf("recorder for %s feed is not recording", r.feed)
	}
	r.mu.Unlock()

	flushErr := r.stream.Flush(ctx, r.feed)

	r.detach()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = recorderStopped

	blob := &Blob{
		Data:     bytes.Join(r.chunks, nil),
		MimeType: r.mimeType,
		Chunks:   len(r.chunks),
	}
	if blob.Data == nil {
		blob.Data = []byte{}
	}
	r.chunks = nil

	if flushErr != nil {
		return blob, fmt.Errorf("flush %s feed: %w", r.feed, flushErr)
	}
	return blob, nil
}

// Abort detaches the recorder without producing a blob
func (r *ChunkRecorder) Abort() {
	r.detach()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = recorderStopped
	r.chunks = nil
}

// detach unsubscribes from the stream without holding mu, since the stream
// may be delivering a chunk to push at the same time.
func (r *ChunkRecorder) detach() {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Recorder turns a stream feed into a finalized blob
type Recorder interface {
	Start() error
	Stop(ctx context.Context) (*Blob, error)
	Abort()
}

// RecorderFactory builds chunk recorders over a stream feed
type RecorderFactory struct{}

func NewRecorderFactory() *RecorderFactory {
	return &RecorderFactory{}
}

func (f *RecorderFactory) NewRecorder(stream *Stream, feed Feed, mimeType string) (Recorder, error) {
	if stream == nil {
		return nil, fmt.Errorf("new recorder: nil stream")
	}
	if err := feed.Validate(); err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}
	if feed == FeedAudio && len(stream.AudioTracks()) == 0 {
		return nil, fmt.Errorf("new recorder: stream has no audio tracks")
	}
	return NewChunkRecorder(stream, feed, mimeType), nil
}
