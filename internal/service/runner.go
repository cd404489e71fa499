package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/events"
	"github.com/phrazzld/kanban-api/internal/platform/logger"
	"github.com/phrazzld/kanban-api/internal/store"
)

// pendingEvent is an event queued inside a unit of work and emitted after commit.
type pendingEvent struct {
	eventType string
	entityID  uuid.UUID
	payload   any
}

// emitFn queues an event for emission once the unit of work commits.
type emitFn func(pendingEvent)

// runner is the plumbing every service shares: it runs operations in a unit of
// work, classifies and wraps their errors, and publishes the events they queued.
type runner struct {
	service string
	uow     store.UnitOfWork
	emitter events.EventEmitter
	logger  *slog.Logger
}

func newRunner(
	service string,
	uow store.UnitOfWork,
	emitter events.EventEmitter,
	log *slog.Logger,
) (*runner, error) {
	if uow == nil {
		return nil, &ServiceError{Service: service, Operation: "create_service", Message: "uow cannot be nil"}
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &runner{
		service: service,
		uow:     uow,
		emitter: emitter,
		logger:  log.With(slog.String("component", service+"_service")),
	}, nil
}

// within runs fn in a unit of work and emits the events it queued once the
// unit of work has committed. Events queued by a failed unit of work are dropped.
func (r *runner) within(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context, st store.Stores, emit emitFn) error,
) error {
	var queued []pendingEvent
	err := r.uow.Within(ctx, func(ctx context.Context, st store.Stores) error {
		queued = queued[:0]
		return fn(ctx, st, func(e pendingEvent) { queued = append(queued, e) })
	})
	if err != nil {
		log := logger.FromContextOrDefault(ctx, r.logger)
		if IsKnownError(err) {
			log.Debug("operation rejected",
				slog.String("operation", operation),
				slog.String("error", err.Error()))
		} else {
			log.Error("operation failed",
				slog.String("operation", operation),
				slog.String("error", err.Error()))
		}
		return NewServiceError(r.service, operation, "unit of work failed", err)
	}

	for _, e := range queued {
		r.emit(ctx, e)
	}
	return nil
}

// emit publishes one event. Failures are logged and never reach the caller:
// the change has already been committed.
func (r *runner) emit(ctx context.Context, e pendingEvent) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	event, err := events.NewBoardEvent(e.eventType, e.entityID, e.payload)
	if err != nil {
		log.Error("failed to build board event",
			slog.String("event_type", e.eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := r.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit board event",
			slog.String("event_type", e.eventType),
			slog.String("entity_id", e.entityID.String()),
			slog.String("error", err.Error()))
	}
}
