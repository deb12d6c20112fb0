package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

const (
	taskNamespace   = "task"
	leaseNamespace  = "lease"
	resultNamespace = "result"

	scanCount = 100
)

// releaseScript deletes a lease only if it still belongs to the caller, so a
// worker whose lease expired cannot drop the lease of the worker that took over.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TaskStore implements the task store on Redis.
type TaskStore struct {
	client goredis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore writing keys under prefix.
func NewTaskStore(client goredis.UniversalClient, prefix string, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "redis_task_store"),
	}
}

func (s *TaskStore) key(namespace, encoded string) string {
	return s.prefix + ":" + namespace + ":" + encoded
}

// SaveTask writes the payload only if no task with the same key exists.
func (s *TaskStore) SaveTask(ctx context.Context, key domain.TaskKey, payload domain.TaskPayload) error {
	if err := key.Validate(); err != nil {
		return store.NewStoreError("task", "save", "invalid key", fmt.Errorf("%w: %v", store.ErrInvalidEntity, err))
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return store.NewStoreError("task", "save", "failed to encode payload", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(taskNamespace, key.String()), data, 0).Result()
	if err != nil {
		return unavailable("task", "save", err)
	}
	if !ok {
		return store.ErrTaskExists
	}
	return nil
}

// ListTaskKeys scans the task namespace and returns the encoded keys.
func (s *TaskStore) ListTaskKeys(ctx context.Context) ([]string, error) {
	match := s.key(taskNamespace, "*")
	strip := s.key(taskNamespace, "")

	// SCAN may return a key more than once
	seen := make(map[string]struct{})
	var keys []string

	iter := s.client.Scan(ctx, 0, match, scanCount).Iterator()
	for iter.Next(ctx) {
		encoded := strings.TrimPrefix(iter.Val(), strip)
		if _, dup := seen[encoded]; dup {
			continue
		}
		seen[encoded] = struct{}{}
		keys = append(keys, encoded)
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable("task", "list", err)
	}
	return keys, nil
}

// AcquireLease sets the lease marker if absent, with ttl, in one command.
func (s *TaskStore) AcquireLease(ctx context.Context, key domain.TaskKey, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(leaseNamespace, key.String()), owner, ttl).Result()
	if err != nil {
		return false, unavailable("lease", "acquire", err)
	}
	return ok, nil
}

// ReleaseLease deletes the lease marker if owner still holds it.
func (s *TaskStore) ReleaseLease(ctx context.Context, key domain.TaskKey, owner string) error {
	err := releaseScript.Run(ctx, s.client, []string{s.key(leaseNamespace, key.String())}, owner).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return unavailable("lease", "release", err)
	}
	return nil
}

// LoadPayload reads and decodes the task payload.
func (s *TaskStore) LoadPayload(ctx context.Context, key domain.TaskKey) (domain.TaskPayload, error) {
	data, err := s.client.Get(ctx, s.key(taskNamespace, key.String())).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.TaskPayload{}, fmt.Errorf("task %s: %w", key, store.ErrNotFound)
	}
	if err != nil {
		return domain.TaskPayload{}, unavailable("task", "load", err)
	}

	var payload domain.TaskPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.TaskPayload{}, fmt.Errorf("%w: task %s: %v", domain.ErrCorruptTask, key, err)
	}
	if err := payload.Validate(); err != nil {
		return domain.TaskPayload{}, fmt.Errorf("task %s: %w", key, err)
	}
	return payload, nil
}

// SaveResult writes the result marker with ttl, replacing any earlier one.
func (s *TaskStore) SaveResult(ctx context.Context, key domain.TaskKey, result domain.Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return store.NewStoreError("result", "save", "failed to encode result", err)
	}
	if err := s.client.Set(ctx, s.key(resultNamespace, key.String()), data, ttl).Err(); err != nil {
		return unavailable("result", "save", err)
	}
	return nil
}

// GetResult reads the result marker.
func (s *TaskStore) GetResult(ctx context.Context, key domain.TaskKey) (*domain.Result, error) {
	data, err := s.client.Get(ctx, s.key(resultNamespace, key.String())).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("result %s: %w", key, store.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("result", "get", err)
	}

	var result domain.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, store.NewStoreError("result", "get", "failed to decode result", err)
	}
	return &result, nil
}

// DeleteTask removes the task and its lease marker.
func (s *TaskStore) DeleteTask(ctx context.Context, key domain.TaskKey) error {
	encoded := key.String()
	if err := s.client.Del(ctx, s.key(taskNamespace, encoded), s.key(leaseNamespace, encoded)).Err(); err != nil {
		return unavailable("task", "delete", err)
	}
	return nil
}

// DeleteRaw removes a task and lease by their encoded key.
func (s *TaskStore) DeleteRaw(ctx context.Context, encoded string) error {
	if err := s.client.Del(ctx, s.key(taskNamespace, encoded), s.key(leaseNamespace, encoded)).Err(); err != nil {
		return unavailable("task", "delete", err)
	}
	return nil
}

func unavailable(entity, op string, err error) error {
	return store.NewStoreError(entity, op, "redis command failed", fmt.Errorf("%w: %v", store.ErrUnavailable, err))
}
