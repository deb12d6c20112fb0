package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/platform/logger"
	"github.com/phrazzld/docgen-api/internal/store"
)

const logColumns = `request_id, user_id, doc_type, status, request_time, duration_ms, request_body, result_url`

// PostgresLogStore implements the store.LogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLogStore creates a new PostgreSQL implementation of the LogStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresLogStore(db store.DBTX, logger *slog.Logger) *PostgresLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "log_store")),
	}
}

// Ensure PostgresLogStore implements store.LogStore interface
var _ store.LogStore = (*PostgresLogStore)(nil)

// Create implements store.LogStore.Create
func (s *PostgresLogStore) Create(ctx context.Context, entry *domain.LogEntry) error {
	log := s.contextLogger(ctx)

	if entry.Status != domain.LogStatusPending {
		return fmt.Errorf("%w: new log entry must be PENDING, got %s", store.ErrInvalidEntity, entry.Status)
	}

	body := string(entry.RequestBody)
	if body == "" {
		body = "{}"
	}

	query := `
		INSERT INTO generation_logs (request_id, user_id, doc_type, status, request_time, request_body)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.RequestID,
		entry.UserID,
		string(entry.DocType),
		string(entry.Status),
		entry.RequestTime,
		body,
	)
	if err != nil {
		log.Error("failed to create generation log entry",
			slog.String("error", err.Error()),
			slog.String("request_id", entry.RequestID))
		return store.NewStoreError("generation_log", "create", "insert failed", MapError(err))
	}

	log.Debug("generation log entry created", slog.String("request_id", entry.RequestID))
	return nil
}

// Complete implements store.LogStore.Complete
func (s *PostgresLogStore) Complete(ctx context.Context, c domain.LogCompletion) (bool, error) {
	log := s.contextLogger(ctx)

	if err := c.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var resultURL sql.NullString
	if c.ResultURL != nil {
		resultURL = sql.NullString{String: *c.ResultURL, Valid: true}
	}

	query := `
		UPDATE generation_logs
		SET status = $2, duration_ms = $3, result_url = $4
		WHERE request_id = $1 AND status = 'PENDING'
	`
	result, err := s.db.ExecContext(ctx, query, c.RequestID, string(c.Status), c.DurationMS, resultURL)
	if err != nil {
		log.Error("failed to complete generation log entry",
			slog.String("error", err.Error()),
			slog.String("request_id", c.RequestID))
		return false, store.NewStoreError("generation_log", "complete", "update failed", MapError(err))
	}

	n, err := rowsAffected(result)
	if err != nil {
		return false, store.NewStoreError("generation_log", "complete", "update failed", err)
	}
	if n == 0 {
		log.Debug("generation log entry missing or already terminal",
			slog.String("request_id", c.RequestID))
		return false, nil
	}

	log.Debug("generation log entry completed",
		slog.String("request_id", c.RequestID),
		slog.String("status", string(c.Status)))
	return true, nil
}

// Get implements store.LogStore.Get
func (s *PostgresLogStore) Get(ctx context.Context, requestID string) (*domain.LogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM generation_logs WHERE request_id = $1`

	entry, err := scanLogEntry(s.db.QueryRowContext(ctx, query, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrLogEntryNotFound
	}
	if err != nil {
		s.contextLogger(ctx).Error("failed to get generation log entry",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID))
		return nil, store.NewStoreError("generation_log", "get", "query failed", MapError(err))
	}
	return entry, nil
}

// List implements store.LogStore.List
func (s *PostgresLogStore) List(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	if limit <= 0 {
		return []*domain.LogEntry{}, nil
	}

	query := `SELECT ` + logColumns + ` FROM generation_logs ORDER BY request_time DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		s.contextLogger(ctx).Error("failed to list generation log entries",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("generation_log", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*domain.LogEntry, 0, limit)
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, store.NewStoreError("generation_log", "list", "scan failed", MapError(err))
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("generation_log", "list", "iteration failed", MapError(err))
	}
	return entries, nil
}

func (s *PostgresLogStore) contextLogger(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLogEntry(row rowScanner) (*domain.LogEntry, error) {
	var (
		entry     domain.LogEntry
		docType   string
		status    string
		duration  sql.NullInt64
		body      []byte
		resultURL sql.NullString
	)
	if err := row.Scan(
		&entry.RequestID,
		&entry.UserID,
		&docType,
		&status,
		&entry.RequestTime,
		&duration,
		&body,
		&resultURL,
	); err != nil {
		return nil, err
	}

	entry.DocType = domain.DocType(docType)
	entry.Status = domain.LogStatus(status)
	entry.RequestBody = body
	if duration.Valid {
		d := duration.Int64
		entry.DurationMS = &d
	}
	if resultURL.Valid {
		u := resultURL.String
		entry.ResultURL = &u
	}
	return &entry, nil
}
