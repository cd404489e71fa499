package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler collects delivered events.
type recordingHandler struct {
	mu       sync.Mutex
	received []*events.BoardEvent
	err      error
	block    chan struct{}
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *events.BoardEvent) error {
	if h.block != nil {
		select {
		case <-h.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = append(h.received, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

func newEvent(t *testing.T) *events.BoardEvent {
	t.Helper()
	event, err := events.NewBoardEvent(events.TaskCreated, uuid.New(), nil)
	require.NoError(t, err)
	return event
}

func TestAsyncEventHandler_DeliversThroughEmitter(t *testing.T) {
	target := &recordingHandler{}
	async := NewAsyncEventHandler(target, AsyncConfig{Workers: 2, QueueSize: 8}, setupTestLogger())
	async.Start()

	emitter := events.NewInMemoryEventEmitter(setupTestLogger())
	emitter.RegisterHandler(async)

	event := newEvent(t)
	require.NoError(t, emitter.EmitEvent(context.Background(), event))

	assert.Eventually(t, func() bool { return target.count() == 1 }, time.Second, 5*time.Millisecond)
	target.mu.Lock()
	assert.Equal(t, event.ID, target.received[0].ID)
	target.mu.Unlock()

	require.NoError(t, async.Shutdown(context.Background()))
}

func TestAsyncEventHandler_TargetErrorsDoNotReachCaller(t *testing.T) {
	target := &recordingHandler{err: errors.New("client gone")}
	async := NewAsyncEventHandler(target, AsyncConfig{Workers: 1, QueueSize: 1}, setupTestLogger())
	async.Start()

	assert.NoError(t, async.HandleEvent(context.Background(), newEvent(t)))
	require.NoError(t, async.Shutdown(context.Background()))
	assert.Equal(t, 1, target.count())
}

func TestAsyncEventHandler_QueueFull(t *testing.T) {
	target := &recordingHandler{block: make(chan struct{})}
	async := NewAsyncEventHandler(target, AsyncConfig{Workers: 1, QueueSize: 1}, setupTestLogger())

	// Not started, so the single slot fills and stays full
	require.NoError(t, async.HandleEvent(context.Background(), newEvent(t)))
	err := async.HandleEvent(context.Background(), newEvent(t))
	assert.ErrorIs(t, err, ErrQueueFull)

	close(target.block)
	async.Start()
	require.NoError(t, async.Shutdown(context.Background()))
	assert.Equal(t, 1, target.count())
}

func TestAsyncEventHandler_RejectsAfterShutdown(t *testing.T) {
	async := NewAsyncEventHandler(&recordingHandler{}, AsyncConfig{}, nil)
	async.Start()
	require.NoError(t, async.Shutdown(context.Background()))

	err := async.HandleEvent(context.Background(), newEvent(t))
	assert.ErrorIs(t, err, ErrQueueClosed)
}
