package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/store"
)

// MockUserStore implements store.UserStore for testing
type MockUserStore struct {
	// Function fields for customizable behavior
	GetByIDFn func(ctx context.Context, id string) (*domain.UserRecord, error)

	mu    sync.Mutex
	Users map[string]*domain.UserRecord
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store holding users
func NewMockUserStore(users ...*domain.UserRecord) *MockUserStore {
	m := &MockUserStore{Users: make(map[string]*domain.UserRecord)}
	for _, u := range users {
		m.Users[u.ID] = u
	}
	return m
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id string) (*domain.UserRecord, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}
