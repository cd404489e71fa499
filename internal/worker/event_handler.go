package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/events"
)

// deliveryJobType identifies event delivery jobs in logs.
const deliveryJobType = "event_delivery"

// deliveryJob hands one board event to one handler.
type deliveryJob struct {
	event  *events.BoardEvent
	target events.EventHandler
}

func (j *deliveryJob) ID() uuid.UUID { return j.event.ID }

func (j *deliveryJob) Type() string { return deliveryJobType }

func (j *deliveryJob) Execute(ctx context.Context) error {
	return j.target.HandleEvent(ctx, j.event)
}

// AsyncEventHandler implements events.EventHandler by queueing each event
// for delivery to a target handler on a worker pool. The emitting request
// only pays for the enqueue.
type AsyncEventHandler struct {
	target events.EventHandler
	queue  *Queue
	pool   *Pool
	logger *slog.Logger
}

// AsyncConfig sizes the delivery queue and pool.
type AsyncConfig struct {
	Workers   int
	QueueSize int
}

// NewAsyncEventHandler creates a handler that delivers to target in the
// background. Start must be called before events are processed.
func NewAsyncEventHandler(target events.EventHandler, cfg AsyncConfig, logger *slog.Logger) *AsyncEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "async_event_handler")

	queue := NewQueue(cfg.QueueSize, logger)
	pool := NewPool(queue, PoolConfig{WorkerCount: cfg.Workers}, logger)
	pool.SetErrorHandler(func(job Job, err error) {
		logger.Warn("event delivery failed",
			"event_id", job.ID(),
			"error", err)
	})

	return &AsyncEventHandler{
		target: target,
		queue:  queue,
		pool:   pool,
		logger: logger,
	}
}

// Ensure AsyncEventHandler implements events.EventHandler
var _ events.EventHandler = (*AsyncEventHandler)(nil)

// HandleEvent queues the event. It fails fast with ErrQueueFull rather than
// blocking the caller, and with ErrQueueClosed after Shutdown.
func (h *AsyncEventHandler) HandleEvent(_ context.Context, event *events.BoardEvent) error {
	if err := h.queue.Enqueue(&deliveryJob{event: event, target: h.target}); err != nil {
		return fmt.Errorf("failed to queue event %s: %w", event.ID, err)
	}
	return nil
}

// Start launches the delivery workers.
func (h *AsyncEventHandler) Start() {
	h.pool.Start()
}

// Shutdown stops accepting events and waits for queued deliveries until ctx
// expires.
func (h *AsyncEventHandler) Shutdown(ctx context.Context) error {
	h.queue.Close()
	if err := h.pool.Drain(ctx); err != nil {
		h.logger.Warn("event deliveries abandoned at shutdown", "error", err)
		return err
	}
	return nil
}
