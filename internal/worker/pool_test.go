package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	queue := NewQueue(1, nil)

	pool := NewPool(queue, PoolConfig{WorkerCount: 5}, setupTestLogger())
	assert.Equal(t, 5, pool.workerCount)
	assert.Nil(t, pool.errorHandler)

	for _, count := range []int{0, -5} {
		pool = NewPool(queue, PoolConfig{WorkerCount: count}, setupTestLogger())
		assert.Equal(t, 1, pool.workerCount)
	}

	assert.Equal(t, 2, DefaultPoolConfig().WorkerCount)
}

func TestPool_ProcessesJobs(t *testing.T) {
	queue := NewQueue(10, nil)
	pool := NewPool(queue, PoolConfig{WorkerCount: 3}, setupTestLogger())
	pool.Start()
	defer pool.Stop()

	var processed atomic.Int32
	for i := 0; i < 10; i++ {
		job := newMockJob()
		job.execFn = func(context.Context) error {
			processed.Add(1)
			return nil
		}
		require.NoError(t, queue.Enqueue(job))
	}

	assert.Eventually(t, func() bool { return processed.Load() == 10 }, time.Second, 5*time.Millisecond)
}

func TestPool_ErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		execFn  func(context.Context) error
		wantErr string
	}{
		{
			name:    "returned error",
			execFn:  func(context.Context) error { return errors.New("delivery failed") },
			wantErr: "delivery failed",
		},
		{
			name:    "panic",
			execFn:  func(context.Context) error { panic("boom") },
			wantErr: "job panicked: boom",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			queue := NewQueue(1, nil)
			pool := NewPool(queue, PoolConfig{WorkerCount: 1}, setupTestLogger())

			handled := make(chan error, 1)
			pool.SetErrorHandler(func(_ Job, err error) { handled <- err })
			pool.Start()
			defer pool.Stop()

			job := newMockJob()
			job.execFn = tt.execFn
			require.NoError(t, queue.Enqueue(job))

			select {
			case err := <-handled:
				assert.EqualError(t, err, tt.wantErr)
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for error handler")
			}
		})
	}
}

func TestPool_StopCancelsRunningJob(t *testing.T) {
	queue := NewQueue(1, nil)
	pool := NewPool(queue, PoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.Start()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	job := newMockJob()
	job.execFn = func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}
	require.NoError(t, queue.Enqueue(job))

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job to start")
	}

	pool.Stop()

	select {
	case <-cancelled:
	default:
		t.Fatal("Stop returned before the running job observed cancellation")
	}
}

func TestPool_DrainFinishesQueuedJobs(t *testing.T) {
	queue := NewQueue(5, nil)
	pool := NewPool(queue, PoolConfig{WorkerCount: 1}, setupTestLogger())

	var processed atomic.Int32
	for i := 0; i < 5; i++ {
		job := newMockJob()
		job.execFn = func(context.Context) error {
			processed.Add(1)
			return nil
		}
		require.NoError(t, queue.Enqueue(job))
	}

	pool.Start()
	queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Drain(ctx))
	assert.Equal(t, int32(5), processed.Load())
}

func TestPool_DrainHonoursDeadline(t *testing.T) {
	queue := NewQueue(1, nil)
	pool := NewPool(queue, PoolConfig{WorkerCount: 1}, setupTestLogger())

	started := make(chan struct{})
	job := newMockJob()
	job.execFn = func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}
	require.NoError(t, queue.Enqueue(job))
	pool.Start()
	<-started
	queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Drain(ctx), context.DeadlineExceeded)
}
