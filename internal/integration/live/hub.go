package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/integration/media"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const sendBufferSize = 256

// Client is one connected live socket. The transport drains Send and
// closes the socket once Send is closed.
type Client struct {
	SessionID string
	Send      chan []byte

	closeOnce sync.Once
}

func newClient(sessionID string) *Client {
	return &Client{SessionID: sessionID, Send: make(chan []byte, sendBufferSize)}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

type helloResult struct {
	stream *media.Stream
	err    error
}

// room is the live state of one session
type room struct {
	id string

	mu       sync.Mutex
	client   *Client
	stream   *media.Stream
	speech   bool
	ready    chan struct{} // closed once hello or denied arrived
	result   helloResult
	waiters  int
	onResult func(media.Fragment)
	flushes  map[string]chan struct{}
}

func newRoom(id string) *room {
	return &room{
		id:      id,
		ready:   make(chan struct{}),
		flushes: make(map[string]chan struct{}),
	}
}

// Hub connects sessions with their browser clients. It delivers session
// events, acquires the capture stream the client announces, feeds media
// chunks into it and relays the client's speech recognition results.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]*room
	streams map[string]*room // stream id -> room

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]*room),
		streams: make(map[string]*room),
		logger:  logger,
	}
}

func (h *Hub) room(sessionID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[sessionID]
	if !ok {
		r = newRoom(sessionID)
		h.rooms[sessionID] = r
	}
	return r
}

func (h *Hub) lookup(sessionID string) (*room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[sessionID]
	return r, ok
}

// Attach registers a new client for the session, replacing any previous one
func (h *Hub) Attach(sessionID string) *Client {
	r := h.room(sessionID)
	c := newClient(sessionID)

	r.mu.Lock()
	prev := r.client
	r.client = c
	r.mu.Unlock()

	if prev != nil {
		prev.close()
	}
	h.logger.Info("live client attached", zap.String("session_id", sessionID))
	return c
}

// Detach removes the client if it is still the active one
func (h *Hub) Detach(c *Client) {
	r, ok := h.lookup(c.SessionID)
	if !ok {
		c.close()
		return
	}

	r.mu.Lock()
	if r.client == c {
		r.client = nil
	}
	r.mu.Unlock()

	c.close()
	h.forgetIdle(r)
	h.logger.Info("live client detached", zap.String("session_id", c.SessionID))
}

// forgetIdle drops a room that has neither a client nor a stream
func (h *Hub) forgetIdle(r *room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r.mu.Lock()
	idle := r.client == nil && r.stream == nil && r.waiters == 0
	r.mu.Unlock()
	if idle && h.rooms[r.id] == r {
		delete(h.rooms, r.id)
	}
}

// internalEvents are delivered to webhooks only and never reach the browser
var internalEvents = map[entity.SessionEventType]bool{
	entity.EventError: true,
}

// Notify forwards a session event to the live client without blocking
func (h *Hub) Notify(ctx context.Context, event *entity.SessionEvent) {
	if internalEvents[event.Event] {
		return
	}
	r, ok := h.lookup(event.SessionID)
	if !ok {
		return
	}
	r.send(ctx, event)
}

func (r *room) send(ctx context.Context, event *entity.SessionEvent) bool {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	msg, err := json.Marshal(event)
	if err != nil {
		ctxzap.Error(ctx, "marshal live event", zap.String("event_type", string(event.Event)), zap.Error(err))
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return false
	}
	select {
	case r.client.Send <- msg:
		return true
	default:
		ctxzap.Warn(ctx, "live client send buffer full, dropping event",
			zap.String("session_id", r.id),
			zap.String("event_type", string(event.Event)),
		)
		return false
	}
}

// Acquire waits for the client to announce its capture stream
func (h *Hub) Acquire(ctx context.Context, sessionID string) (*media.Stream, error) {
	r := h.room(sessionID)
	r.mu.Lock()
	r.waiters++
	r.mu.Unlock()

	select {
	case <-r.ready:
		r.mu.Lock()
		r.waiters--
		r.mu.Unlock()
	case <-ctx.Done():
		r.mu.Lock()
		r.waiters--
		r.mu.Unlock()
		h.forgetIdle(r)
		return nil, fmt.Errorf("wait for live client capture: %w", ctx.Err())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result.stream, r.result.err
}

// HandleControl applies a text frame received from the client
func (h *Hub) HandleControl(ctx context.Context, sessionID string, data []byte) error {
	frame, err := ParseControl(data)
	if err != nil {
		return err
	}
	r := h.room(sessionID)

	switch frame.Type {
	case ControlHello:
		return h.hello(ctx, r, frame)
	case ControlDenied:
		r.resolve(helloResult{err: fmt.Errorf("%w: %s", entity.ErrCaptureDenied, frame.Reason)})
		ctxzap.Warn(ctx, "live client denied capture", zap.String("session_id", sessionID), zap.String("reason", frame.Reason))
	case ControlTranscript:
		r.mu.Lock()
		fn := r.onResult
		r.mu.Unlock()
		if fn != nil {
			fn(media.Fragment{Text: frame.Text, Final: frame.Final})
		}
	case ControlFlushed:
		r.mu.Lock()
		ch, ok := r.flushes[frame.FlushID]
		delete(r.flushes, frame.FlushID)
		r.mu.Unlock()
		if ok {
			close(ch)
		}
	}
	return nil
}

func (h *Hub) hello(ctx context.Context, r *room, frame *ControlFrame) error {
	r.mu.Lock()
	r.speech = frame.Speech
	if r.stream != nil && r.stream.Active() {
		// reconnect of a client whose stream is still mounted
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	var kinds []media.Kind
	if frame.Video {
		kinds = append(kinds, media.KindVideo)
	}
	if frame.Audio {
		kinds = append(kinds, media.KindAudio)
	}
	if len(kinds) == 0 {
		r.resolve(helloResult{err: fmt.Errorf("%w: client announced no tracks", entity.ErrCaptureDenied)})
		return nil
	}

	stream := media.NewStream(kinds...)
	stream.SetFlushFunc(r.flush)
	stream.OnStop(func() { h.release(r, stream) })

	h.mu.Lock()
	h.streams[stream.ID()] = r
	h.mu.Unlock()

	r.mu.Lock()
	r.stream = stream
	r.mu.Unlock()
	r.resolve(helloResult{stream: stream})

	ctxzap.Info(ctx, "live capture announced",
		zap.String("session_id", r.id),
		zap.Bool("video", frame.Video),
		zap.Bool("audio", frame.Audio),
		zap.Bool("speech", frame.Speech),
	)
	return nil
}

func (r *room) resolve(res helloResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.ready:
		return
	default:
	}
	r.result = res
	close(r.ready)
}

// flush asks the client to send every buffered chunk of feed and waits for the ack
func (r *room) flush(ctx context.Context, feed media.Feed) error {
	id := uuid.New().String()
	ack := make(chan struct{})

	r.mu.Lock()
	r.flushes[id] = ack
	r.mu.Unlock()

	sent := r.send(ctx, &entity.SessionEvent{
		Event:     CommandFlush,
		SessionID: r.id,
		Data:      &FlushData{Feed: feed, FlushID: id},
	})
	if !sent {
		r.mu.Lock()
		delete(r.flushes, id)
		r.mu.Unlock()
		return nil
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		delete(r.flushes, id)
		r.mu.Unlock()
		return fmt.Errorf("wait for %s flush: %w", feed, ctx.Err())
	}
}

// release drops the room of a stopped stream and tells the client to let go of its devices
func (h *Hub) release(r *room, stream *media.Stream) {
	r.send(context.Background(), &entity.SessionEvent{Event: CommandRelease, SessionID: r.id})

	h.mu.Lock()
	delete(h.streams, stream.ID())
	if h.rooms[r.id] == r {
		delete(h.rooms, r.id)
	}
	h.mu.Unlock()

	r.mu.Lock()
	client := r.client
	r.client = nil
	r.onResult = nil
	r.mu.Unlock()

	if client != nil {
		client.close()
	}
}

// HandleMedia publishes a binary frame on the session stream
func (h *Hub) HandleMedia(sessionID string, frame []byte) error {
	feed, chunk, err := DecodeMedia(frame)
	if err != nil {
		return err
	}
	r, ok := h.lookup(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrSessionNotFound, sessionID)
	}

	r.mu.Lock()
	stream := r.stream
	r.mu.Unlock()
	if stream == nil {
		return fmt.Errorf("%w: media before hello", entity.ErrNoCaptureStream)
	}

	stream.Publish(feed, chunk)
	return nil
}

// Start runs speech recognition on the client that owns stream
func (h *Hub) Start(ctx context.Context, stream *media.Stream, opts media.TranscriptionOptions, onResult func(media.Fragment)) (media.TranscriptionSession, error) {
	h.mu.RLock()
	r, ok := h.streams[stream.ID()]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stream is not live", entity.ErrTranscriptionUnsupported)
	}

	r.mu.Lock()
	speech := r.speech
	if speech {
		r.onResult = onResult
	}
	r.mu.Unlock()
	if !speech {
		return nil, entity.ErrTranscriptionUnsupported
	}

	r.send(ctx, &entity.SessionEvent{
		Event:     CommandTranscriptionStart,
		SessionID: r.id,
		Data: &TranscriptionData{
			Language:       opts.Language,
			InterimResults: opts.InterimResults,
			Continuous:     opts.Continuous,
		},
	})
	return &transcription{room: r}, nil
}

type transcription struct {
	room *room
	once sync.Once
}

func (t *transcription) Stop() error {
	t.once.Do(func() {
		t.room.mu.Lock()
		t.room.onResult = nil
		t.room.mu.Unlock()
		t.room.send(context.Background(), &entity.SessionEvent{Event: CommandTranscriptionStop, SessionID: t.room.id})
	})
	return nil
}
