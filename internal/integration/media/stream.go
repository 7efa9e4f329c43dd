package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Feed identifies an encoded chunk stream carried by a Stream. The combined
// feed holds video+audio, the audio feed holds the audio tracks only.
type Feed string

const (
	FeedCombined Feed = "combined"
	FeedAudio    Feed = "audio"
)

func (f Feed) Validate() error {
	switch f {
	case FeedCombined, FeedAudio:
		return nil
	default:
		return fmt.Errorf("unknown feed: %s", f)
	}
}

// Track is a single capture track. Disabling a track keeps it alive; stopping releases it.
type Track struct {
	id      string
	kind    Kind
	mu      sync.RWMutex
	enabled bool
	stopped bool
}

func newTrack(kind Kind) *Track {
	return &Track{id: uuid.New().String(), kind: kind, enabled: true}
}

func (t *Track) ID() string { return t.id }

func (t *Track) Kind() Kind { return t.kind }

func (t *Track) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func (t *Track) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *Track) Stopped() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stopped
}

// FlushFunc asks the stream source to deliver every pending chunk of feed.
type FlushFunc func(ctx context.Context, feed Feed) error

type subscriber struct {
	feed Feed
	fn   func([]byte)
}

// Stream is a live capture source shared by the preview, the recorders and the toggles.
type Stream struct {
	id     string
	tracks []*Track

	mu      sync.RWMutex
	subs    map[int]subscriber
	nextSub int
	stopped bool
	onStop  []func()
	flush   FlushFunc
}

func NewStream(kinds ...Kind) *Stream {
	s := &Stream{
		id:   uuid.New().String(),
		subs: make(map[int]subscriber),
	}
	for _, k := range kinds {
		s.tracks = append(s.tracks, newTrack(k))
	}
	return s
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) Tracks() []*Track {
	return append([]*Track(nil), s.tracks...)
}

func (s *Stream) VideoTracks() []*Track { return s.tracksOf(KindVideo) }

func (s *Stream) AudioTracks() []*Track { return s.tracksOf(KindAudio) }

func (s *Stream) tracksOf(kind Kind) []*Track {
	var out []*Track
	for _, t := range s.tracks {
		if t.kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Active reports whether the stream has not been stopped
func (s *Stream) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.stopped
}

// Subscribe registers fn for every chunk published on feed. fn runs on the
// publisher's goroutine, outside the stream lock, and must not block. A chunk
// published concurrently with unsubscribe may still be delivered once.
func (s *Stream) Subscribe(feed Feed, fn func([]byte)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, fmt.Errorf("subscribe to %s feed: stream stopped", feed)
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = subscriber{feed: feed, fn: fn}

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

// Publish fans chunk out to the subscribers of feed
func (s *Stream) Publish(feed Feed, chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return
	}
	fns := make([]func([]byte), 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.feed == feed {
			fns = append(fns, sub.fn)
		}
	}
	s.mu.RUnlock()

	// subscribers may unsubscribe from inside their own locks
	for _, fn := range fns {
		fn(chunk)
	}
}

func (s *Stream) SetFlushFunc(fn FlushFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flush = fn
}

// Flush waits until the source has delivered all pending data for feed
func (s *Stream) Flush(ctx context.Context, feed Feed) error {
	s.mu.RLock()
	fn := s.flush
	stopped := s.stopped
	s.mu.RUnlock()

	if fn == nil || stopped {
		return nil
	}
	return fn(ctx, feed)
}

// OnStop registers a hook run once when the stream is stopped
func (s *Stream) OnStop(fn func()) {
	s.mu.Lock()
	if !s.stopped {
		s.onStop = append(s.onStop, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Stop releases every track. Safe to call more than once.
func (s *Stream) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.subs = make(map[int]subscriber)
	hooks := s.onStop
	s.onStop = nil
	s.mu.Unlock()

	for _, t := range s.tracks {
		t.Stop()
	}
	for _, fn := range hooks {
		fn()
	}
}
