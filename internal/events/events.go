package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/docgen-api/internal/domain"
)

// OutcomeEvent announces that one execution attempt of a task has finished.
type OutcomeEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Key identifies the task the outcome belongs to
	Key domain.TaskKey `json:"key"`

	// CallbackURL is the caller-supplied webhook for this request
	CallbackURL string `json:"callback_url"`

	// Outcome is the terminal result of the attempt
	Outcome domain.Outcome `json:"outcome"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewOutcomeEvent creates an OutcomeEvent stamped with a fresh ID and the current time.
func NewOutcomeEvent(key domain.TaskKey, callbackURL string, outcome domain.Outcome) *OutcomeEvent {
	return &OutcomeEvent{
		ID:          uuid.New(),
		Key:         key,
		CallbackURL: callbackURL,
		Outcome:     outcome,
		CreatedAt:   time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *OutcomeEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the executor to publish outcomes without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *OutcomeEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *OutcomeEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *OutcomeEvent) error {
	return f(ctx, event)
}
