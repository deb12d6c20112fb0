package store

import (
	"context"

	"github.com/phrazzld/docgen-api/internal/domain"
)

// LogStore defines the interface for the generation log, one row per
// submitted request. Rows are never deleted.
type LogStore interface {
	// Create inserts a PENDING entry.
	// Returns ErrDuplicate if an entry with the same request ID exists.
	Create(ctx context.Context, entry *domain.LogEntry) error

	// Complete moves a PENDING entry to its terminal status.
	// It reports false without error when the entry is missing or already
	// terminal, so a redelivered completion never overwrites the first one.
	Complete(ctx context.Context, completion domain.LogCompletion) (bool, error)

	// Get retrieves a single entry.
	// Returns ErrLogEntryNotFound if no entry exists for the request ID.
	Get(ctx context.Context, requestID string) (*domain.LogEntry, error)

	// List returns up to limit entries ordered by request time, newest first.
	List(ctx context.Context, limit int) ([]*domain.LogEntry, error)
}
