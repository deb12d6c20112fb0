package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	LastEvent    *OutcomeEvent
	HandlerError error
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *OutcomeEvent) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func testEvent() *OutcomeEvent {
	return NewOutcomeEvent(
		domain.TaskKey{RequestID: "req-1", DocType: domain.DocTypePDF},
		"http://x/cb",
		domain.Outcome{Status: domain.OutcomeSuccess, DocumentURL: "/generated_docs/user_1_document.pdf"},
	)
}

func TestNewOutcomeEvent(t *testing.T) {
	event := testEvent()
	assert.NotEqual(t, [16]byte{}, [16]byte(event.ID))
	assert.False(t, event.CreatedAt.IsZero())
	assert.Equal(t, "req-1", event.Key.RequestID)
	assert.True(t, event.Outcome.Succeeded())
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), testEvent()))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := testEvent()
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("failing handler does not stop the others", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		successHandler := &MockEventHandler{}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		err := emitter.EmitEvent(context.Background(), testEvent())
		assert.EqualError(t, err, "handler error")
		assert.Equal(t, 1, failingHandler.HandledCount)
		assert.Equal(t, 1, successHandler.HandledCount)
	})

	t.Run("panicking handler is contained", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		after := &MockEventHandler{}
		emitter.RegisterHandler(HandlerFunc(func(ctx context.Context, event *OutcomeEvent) error {
			panic("boom")
		}))
		emitter.RegisterHandler(after)

		err := emitter.EmitEvent(context.Background(), testEvent())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
		assert.Equal(t, 1, after.HandledCount)
	})
}
