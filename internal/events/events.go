package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Board event types.
const (
	TaskCreated    = "task.created"
	TaskUpdated    = "task.updated"
	TaskMoved      = "task.moved"
	TaskDeleted    = "task.deleted"
	TaskAssigned   = "task.assigned"
	TaskUnassigned = "task.unassigned"
	TaskCompleted  = "task.completed"
	TaskReopened   = "task.reopened"
	TasksExpired   = "tasks.expired"

	SubTaskChanged = "subtask.changed"
	ColumnChanged  = "column.changed"
	RowChanged     = "row.changed"
	UserChanged    = "user.changed"
)

// BoardEvent announces a committed change to the board.
type BoardEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the board event type constants
	Type string `json:"type"`

	// EntityID is the id of the entity the event is about, if there is one
	EntityID uuid.UUID `json:"entity_id"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *BoardEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewBoardEvent creates a BoardEvent with the specified type, entity and payload.
// A nil payload is left empty.
func NewBoardEvent(eventType string, entityID uuid.UUID, payload interface{}) (*BoardEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &BoardEvent{
		ID:        uuid.New(),
		Type:      eventType,
		EntityID:  entityID,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *BoardEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *BoardEvent) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *BoardEvent) error { return nil }
