package task

import (
	"context"
	"time"

	"github.com/phrazzld/docgen-api/internal/domain"
)

// Task is a claimed unit of work handed from the poller to the executor.
type Task struct {
	Key       domain.TaskKey
	Payload   domain.TaskPayload
	ClaimedAt time.Time
}

// TaskStore defines the shared store the pipeline coordinates through.
type TaskStore interface {
	// SaveTask writes a new task. It only succeeds if no task with the same key
	// exists; otherwise it returns store.ErrTaskExists.
	SaveTask(ctx context.Context, key domain.TaskKey, payload domain.TaskPayload) error

	// ListTaskKeys returns the encoded keys of all queued tasks, without the
	// namespace. Keys are returned as stored and may not parse.
	ListTaskKeys(ctx context.Context) ([]string, error)

	// AcquireLease claims key for owner for ttl. It reports false if another
	// live lease exists.
	AcquireLease(ctx context.Context, key domain.TaskKey, owner string, ttl time.Duration) (bool, error)

	// ReleaseLease drops the lease if owner still holds it.
	ReleaseLease(ctx context.Context, key domain.TaskKey, owner string) error

	// LoadPayload reads the task payload.
	// Returns store.ErrNotFound if the task vanished and domain.ErrCorruptTask
	// if the payload cannot be decoded.
	LoadPayload(ctx context.Context, key domain.TaskKey) (domain.TaskPayload, error)

	// SaveResult caches the outcome of an attempt for ttl.
	SaveResult(ctx context.Context, key domain.TaskKey, result domain.Result, ttl time.Duration) error

	// GetResult reads a cached result. Returns store.ErrNotFound once it expired.
	GetResult(ctx context.Context, key domain.TaskKey) (*domain.Result, error)

	// DeleteTask removes the task and its lease. Deleting a missing task is not an error.
	DeleteTask(ctx context.Context, key domain.TaskKey) error

	// DeleteRaw removes a task by its encoded key. It is used for keys that do
	// not parse.
	DeleteRaw(ctx context.Context, encoded string) error
}

// Runner executes a claimed task to completion.
type Runner interface {
	Run(ctx context.Context, t Task) domain.Outcome
}
