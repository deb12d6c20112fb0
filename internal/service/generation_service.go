package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/generation"
	"github.com/phrazzld/docgen-api/internal/platform/logger"
	"github.com/phrazzld/docgen-api/internal/store"
)

// Log listing bounds
const (
	DefaultLogLimit = 50
	MaxLogLimit     = 500
)

// TaskQueue is the part of the task store the intake side needs.
type TaskQueue interface {
	// SaveTask writes a new task if its key is not taken yet
	SaveTask(ctx context.Context, key domain.TaskKey, payload domain.TaskPayload) error

	// GetResult reads the cached result of a finished attempt
	GetResult(ctx context.Context, key domain.TaskKey) (*domain.Result, error)
}

// SubmitRequest is a document generation request as received from a client.
type SubmitRequest struct {
	UserID      string `json:"user_id"`
	DocType     string `json:"doc_type"`
	CallbackURL string `json:"callback_url"`
}

// RequestStatus is what is known about a submitted request.
type RequestStatus struct {
	Entry *domain.LogEntry
	// Result is nil while the request is pending or after the cache expired
	Result *domain.Result
}

// GenerationService accepts generation requests and answers queries about them.
type GenerationService interface {
	// Submit validates and enqueues a request and returns its request ID.
	// Returns domain.ErrInvalidRequest, domain.ErrUserNotFound or
	// domain.ErrStoreUnavailable for the expected failures.
	Submit(ctx context.Context, req SubmitRequest) (string, error)

	// Generate renders a document for the user synchronously and returns its
	// URL. Nothing is queued or logged. Returns domain.ErrInvalidRequest,
	// domain.ErrUserNotFound or domain.ErrRenderFailure for the expected failures.
	Generate(ctx context.Context, userID, docType string) (string, error)

	// GetStatus returns the log entry and cached result for a request.
	// Returns domain.ErrRequestNotFound for unknown IDs.
	GetStatus(ctx context.Context, requestID string) (*RequestStatus, error)

	// ListLogs returns the newest log entries. limit is clamped to
	// [1, MaxLogLimit]; zero or negative selects DefaultLogLimit.
	ListLogs(ctx context.Context, limit int) ([]*domain.LogEntry, error)
}

type generationService struct {
	users    store.UserStore
	tasks    TaskQueue
	logs     store.LogStore
	renderer generation.Renderer
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(
	users store.UserStore,
	tasks TaskQueue,
	logs store.LogStore,
	renderer generation.Renderer,
	logger *slog.Logger,
) (GenerationService, error) {
	if users == nil {
		return nil, errors.New("user store cannot be nil")
	}
	if tasks == nil {
		return nil, errors.New("task queue cannot be nil")
	}
	if logs == nil {
		return nil, errors.New("log store cannot be nil")
	}
	if renderer == nil {
		return nil, errors.New("renderer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &generationService{
		users:    users,
		tasks:    tasks,
		logs:     logs,
		renderer: renderer,
		logger:   logger.With("component", "generation_service"),
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Submit implements GenerationService.
func (s *generationService) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	docType, err := domain.ParseDocType(req.DocType)
	if err != nil {
		return "", err
	}
	if err := domain.ValidateCallbackURL(req.CallbackURL); err != nil {
		return "", err
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return "", mapStoreError("submit", err, domain.ErrUserNotFound)
	}

	key := domain.TaskKey{RequestID: s.newID(), DocType: docType}
	submittedAt := s.now().UTC()
	payload := domain.TaskPayload{
		UserID:      req.UserID,
		CallbackURL: req.CallbackURL,
		User:        *user,
		SubmittedAt: submittedAt,
	}

	if err := s.tasks.SaveTask(ctx, key, payload); err != nil {
		log.Error("failed to enqueue generation task",
			"request_id", key.RequestID,
			"error", err)
		return "", mapStoreError("submit", err, nil)
	}

	body, err := json.Marshal(req)
	if err != nil {
		body = []byte("{}")
	}
	entry := domain.NewPendingLogEntry(key, req.UserID, body, submittedAt)
	if err := s.logs.Create(ctx, entry); err != nil {
		// The task is already queued and will run; only the audit row is missing
		log.Error("failed to record generation request in log",
			"request_id", key.RequestID,
			"error", err)
	}

	log.Info("generation request accepted",
		"request_id", key.RequestID,
		"user_id", req.UserID,
		"doc_type", docType)
	return key.RequestID, nil
}

// Generate implements GenerationService.
func (s *generationService) Generate(ctx context.Context, userID, docType string) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	dt, err := domain.ParseDocType(docType)
	if err != nil {
		return "", err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", mapStoreError("generate", err, domain.ErrUserNotFound)
	}

	start := s.now()
	url, err := s.render(ctx, *user, dt)
	if err != nil {
		log.Error("synchronous generation failed",
			"user_id", userID,
			"doc_type", dt,
			"error", err)
		return "", err
	}

	log.Info("document generated",
		"user_id", userID,
		"doc_type", dt,
		"duration_ms", s.now().Sub(start).Milliseconds())
	return url, nil
}

// render calls the renderer and classifies every failure, including a panic
// or an empty URL, as domain.ErrRenderFailure.
func (s *generationService) render(ctx context.Context, user domain.UserRecord, dt domain.DocType) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			url, err = "", fmt.Errorf("%w: renderer panicked: %v", domain.ErrRenderFailure, r)
		}
	}()

	url, err = s.renderer.Render(ctx, user, dt)
	switch {
	case err != nil:
		return "", fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	case url == "":
		return "", fmt.Errorf("%w: renderer returned no url", domain.ErrRenderFailure)
	}
	return url, nil
}

// GetStatus implements GenerationService.
func (s *generationService) GetStatus(ctx context.Context, requestID string) (*RequestStatus, error) {
	entry, err := s.logs.Get(ctx, requestID)
	if err != nil {
		return nil, mapStoreError("get_status", err, domain.ErrRequestNotFound)
	}

	status := &RequestStatus{Entry: entry}
	result, err := s.tasks.GetResult(ctx, domain.TaskKey{RequestID: entry.RequestID, DocType: entry.DocType})
	switch {
	case err == nil:
		status.Result = result
	case !errors.Is(err, store.ErrNotFound):
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to read cached result",
			"request_id", requestID,
			"error", err)
	}
	return status, nil
}

// ListLogs implements GenerationService.
func (s *generationService) ListLogs(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	entries, err := s.logs.List(ctx, ClampLogLimit(limit))
	if err != nil {
		return nil, mapStoreError("list_logs", err, nil)
	}
	return entries, nil
}

// ClampLogLimit applies the default and bounds to a requested log limit.
func ClampLogLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLogLimit
	case limit > MaxLogLimit:
		return MaxLogLimit
	default:
		return limit
	}
}
