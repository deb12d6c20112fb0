package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/store"
)

// MockTaskStore implements the TaskStore interface in memory for testing.
// The Fn fields, when set, replace the default behavior of a method.
type MockTaskStore struct {
	mutex   sync.Mutex
	tasks   map[string]domain.TaskPayload
	raw     map[string]bool
	leases  map[string]mockLease
	results map[string]domain.Result
	deleted []domain.TaskKey

	SaveResultFn  func(ctx context.Context, key domain.TaskKey, result domain.Result, ttl time.Duration) error
	DeleteTaskFn  func(ctx context.Context, key domain.TaskKey) error
	LoadPayloadFn func(ctx context.Context, key domain.TaskKey) (domain.TaskPayload, error)
	ListFn        func(ctx context.Context) ([]string, error)
}

type mockLease struct {
	owner   string
	expires time.Time
}

var _ TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty MockTaskStore
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		tasks:   make(map[string]domain.TaskPayload),
		raw:     make(map[string]bool),
		leases:  make(map[string]mockLease),
		results: make(map[string]domain.Result),
	}
}

// AddRaw queues an encoded key that may not parse.
func (s *MockTaskStore) AddRaw(encoded string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.raw[encoded] = true
}

// SaveTask implements TaskStore
func (s *MockTaskStore) SaveTask(ctx context.Context, key domain.TaskKey, payload domain.TaskPayload) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.tasks[key.String()]; exists {
		return store.ErrTaskExists
	}
	s.tasks[key.String()] = payload
	return nil
}

// ListTaskKeys implements TaskStore
func (s *MockTaskStore) ListTaskKeys(ctx context.Context) ([]string, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	keys := make([]string, 0, len(s.tasks)+len(s.raw))
	for k := range s.tasks {
		keys = append(keys, k)
	}
	for k := range s.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// AcquireLease implements TaskStore
func (s *MockTaskStore) AcquireLease(ctx context.Context, key domain.TaskKey, owner string, ttl time.Duration) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if l, ok := s.leases[key.String()]; ok && time.Now().Before(l.expires) {
		return false, nil
	}
	s.leases[key.String()] = mockLease{owner: owner, expires: time.Now().Add(ttl)}
	return true, nil
}

// ReleaseLease implements TaskStore
func (s *MockTaskStore) ReleaseLease(ctx context.Context, key domain.TaskKey, owner string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if l, ok := s.leases[key.String()]; ok && l.owner == owner {
		delete(s.leases, key.String())
	}
	return nil
}

// LoadPayload implements TaskStore
func (s *MockTaskStore) LoadPayload(ctx context.Context, key domain.TaskKey) (domain.TaskPayload, error) {
	if s.LoadPayloadFn != nil {
		return s.LoadPayloadFn(ctx, key)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	payload, ok := s.tasks[key.String()]
	if !ok {
		return domain.TaskPayload{}, store.ErrNotFound
	}
	return payload, nil
}

// SaveResult implements TaskStore
func (s *MockTaskStore) SaveResult(ctx context.Context, key domain.TaskKey, result domain.Result, ttl time.Duration) error {
	if s.SaveResultFn != nil {
		return s.SaveResultFn(ctx, key, result, ttl)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.results[key.String()] = result
	return nil
}

// GetResult implements TaskStore
func (s *MockTaskStore) GetResult(ctx context.Context, key domain.TaskKey) (*domain.Result, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	result, ok := s.results[key.String()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &result, nil
}

// DeleteTask implements TaskStore
func (s *MockTaskStore) DeleteTask(ctx context.Context, key domain.TaskKey) error {
	if s.DeleteTaskFn != nil {
		return s.DeleteTaskFn(ctx, key)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.tasks, key.String())
	delete(s.leases, key.String())
	s.deleted = append(s.deleted, key)
	return nil
}

// DeleteRaw implements TaskStore
func (s *MockTaskStore) DeleteRaw(ctx context.Context, encoded string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.raw, encoded)
	delete(s.tasks, encoded)
	return nil
}

// HasTask reports whether a task is still queued under key.
func (s *MockTaskStore) HasTask(key domain.TaskKey) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.tasks[key.String()]
	return ok
}

// HasLease reports whether any lease record exists for key.
func (s *MockTaskStore) HasLease(key domain.TaskKey) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.leases[key.String()]
	return ok
}

// Result returns the cached result for key, if any.
func (s *MockTaskStore) Result(key domain.TaskKey) (domain.Result, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	r, ok := s.results[key.String()]
	return r, ok
}

// RawCount returns the number of queued keys that were added with AddRaw.
func (s *MockTaskStore) RawCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.raw)
}
