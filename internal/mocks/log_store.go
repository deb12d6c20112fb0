package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/store"
)

// MockLogStore implements store.LogStore for testing. Complete follows the
// real conditional semantics: only PENDING entries are updated.
type MockLogStore struct {
	// Function fields for customizable behavior
	CreateFn   func(ctx context.Context, entry *domain.LogEntry) error
	CompleteFn func(ctx context.Context, completion domain.LogCompletion) (bool, error)
	GetFn      func(ctx context.Context, requestID string) (*domain.LogEntry, error)
	ListFn     func(ctx context.Context, limit int) ([]*domain.LogEntry, error)

	mu            sync.Mutex
	Entries       map[string]*domain.LogEntry
	CompleteCalls int
}

var _ store.LogStore = (*MockLogStore)(nil)

// NewMockLogStore creates an empty MockLogStore
func NewMockLogStore() *MockLogStore {
	return &MockLogStore{Entries: make(map[string]*domain.LogEntry)}
}

// Create implements the LogStore interface
func (m *MockLogStore) Create(ctx context.Context, entry *domain.LogEntry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Entries[entry.RequestID]; exists {
		return store.ErrDuplicate
	}
	copied := *entry
	m.Entries[entry.RequestID] = &copied
	return nil
}

// Complete implements the LogStore interface
func (m *MockLogStore) Complete(ctx context.Context, c domain.LogCompletion) (bool, error) {
	m.mu.Lock()
	m.CompleteCalls++
	m.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, c)
	}
	if err := c.Validate(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.Entries[c.RequestID]
	if !ok || entry.Status != domain.LogStatusPending {
		return false, nil
	}
	duration := c.DurationMS
	entry.Status = c.Status
	entry.DurationMS = &duration
	entry.ResultURL = c.ResultURL
	return true, nil
}

// Get implements the LogStore interface
func (m *MockLogStore) Get(ctx context.Context, requestID string) (*domain.LogEntry, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, requestID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.Entries[requestID]
	if !ok {
		return nil, store.ErrLogEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

// List implements the LogStore interface
func (m *MockLogStore) List(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.LogEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		copied := *e
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestTime.After(out[j].RequestTime)
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Entry returns a copy of the stored entry, or nil.
func (m *MockLogStore) Entry(requestID string) *domain.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Entries[requestID]
	if !ok {
		return nil
	}
	copied := *e
	return &copied
}
