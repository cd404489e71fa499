package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockJob implements the Job interface for testing
type mockJob struct {
	id     uuid.UUID
	execFn func(ctx context.Context) error
}

func (m *mockJob) ID() uuid.UUID { return m.id }

func (m *mockJob) Type() string { return "mock" }

func (m *mockJob) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockJob() *mockJob {
	return &mockJob{id: uuid.New()}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNewQueue(t *testing.T) {
	q := NewQueue(10, setupTestLogger())
	assert.Equal(t, 10, cap(q.jobs))

	// A non-positive size still yields a usable queue
	q = NewQueue(0, nil)
	assert.Equal(t, 1, cap(q.jobs))
}

func TestQueue_Enqueue(t *testing.T) {
	q := NewQueue(2, setupTestLogger())

	first, second := newMockJob(), newMockJob()
	require.NoError(t, q.Enqueue(first))
	require.NoError(t, q.Enqueue(second))

	err := q.Enqueue(newMockJob())
	assert.ErrorIs(t, err, ErrQueueFull)

	assert.Equal(t, first.ID(), (<-q.Jobs()).ID())
	assert.Equal(t, second.ID(), (<-q.Jobs()).ID())
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(2, setupTestLogger())
	job := newMockJob()
	require.NoError(t, q.Enqueue(job))

	q.Close()
	// Closing twice is harmless
	q.Close()

	assert.ErrorIs(t, q.Enqueue(newMockJob()), ErrQueueClosed)

	// Jobs queued before Close are still readable
	got, ok := <-q.Jobs()
	require.True(t, ok)
	assert.Equal(t, job.ID(), got.ID())

	_, ok = <-q.Jobs()
	assert.False(t, ok)
}
