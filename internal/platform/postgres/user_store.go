package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*domain.UserRecord, error) {
	query := `
		SELECT id, first_name, last_name, middle_name, iin, phone_number
		FROM users
		WHERE id = $1
	`

	var (
		user   domain.UserRecord
		middle sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&middle,
		&user.IIN,
		&user.PhoneNumber,
	)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("user not found", slog.String("user_id", id))
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		s.logger.Error("failed to get user",
			slog.String("error", err.Error()),
			slog.String("user_id", id))
		return nil, store.NewStoreError("user", "get", "query failed", MapError(err))
	}

	if middle.Valid {
		m := middle.String
		user.MiddleName = &m
	}
	return &user, nil
}
