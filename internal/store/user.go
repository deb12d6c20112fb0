package store

import (
	"context"

	"github.com/phrazzld/docgen-api/internal/domain"
)

// UserStore is the read path into the user registry. The registry owns user
// records and their validation; the pipeline only snapshots them.
type UserStore interface {
	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id string) (*domain.UserRecord, error)
}
