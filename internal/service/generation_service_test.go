package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/generation"
	"github.com/phrazzld/docgen-api/internal/mocks"
	"github.com/phrazzld/docgen-api/internal/store"
	"github.com/phrazzld/docgen-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingQueue lets a test control SaveTask failures
type failingQueue struct {
	*task.MockTaskStore
	saveErr error
}

func (q *failingQueue) SaveTask(ctx context.Context, key domain.TaskKey, payload domain.TaskPayload) error {
	if q.saveErr != nil {
		return q.saveErr
	}
	return q.MockTaskStore.SaveTask(ctx, key, payload)
}

type serviceFixture struct {
	users *mocks.MockUserStore
	tasks *failingQueue
	logs  *mocks.MockLogStore
	// renderFn is swapped by tests; the default renders a fixed URL
	renderFn generation.RendererFunc
	svc      *generationService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		users: mocks.NewMockUserStore(&domain.UserRecord{ID: "42", FirstName: "Ivan", LastName: "Petrov", IIN: "900101300123"}),
		tasks: &failingQueue{MockTaskStore: task.NewMockTaskStore()},
		logs:  mocks.NewMockLogStore(),
	}
	f.renderFn = func(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
		return "/generated_docs/user_" + user.ID + "_document." + string(docType), nil
	}
	renderer := generation.RendererFunc(func(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
		return f.renderFn(ctx, user, docType)
	})
	svc, err := NewGenerationService(f.users, f.tasks, f.logs, renderer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	f.svc = svc.(*generationService)
	return f
}

func validRequest() SubmitRequest {
	return SubmitRequest{UserID: "42", DocType: "pdf", CallbackURL: "http://caller.test/cb"}
}

func TestNewGenerationService_Validation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := mocks.NewMockUserStore()
	tasks := task.NewMockTaskStore()
	logs := mocks.NewMockLogStore()
	renderer := generation.RendererFunc(func(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
		return "/x", nil
	})

	_, err := NewGenerationService(nil, tasks, logs, renderer, logger)
	assert.Error(t, err)
	_, err = NewGenerationService(users, nil, logs, renderer, logger)
	assert.Error(t, err)
	_, err = NewGenerationService(users, tasks, nil, renderer, logger)
	assert.Error(t, err)
	_, err = NewGenerationService(users, tasks, logs, nil, logger)
	assert.EqualError(t, err, "renderer cannot be nil")
	_, err = NewGenerationService(users, tasks, logs, renderer, nil)
	assert.Error(t, err)
}

func TestGenerationService_Submit(t *testing.T) {
	f := newServiceFixture(t)
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	id, err := f.svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	key := domain.TaskKey{RequestID: id, DocType: domain.DocTypePDF}
	assert.True(t, f.tasks.HasTask(key))

	payload, err := f.tasks.LoadPayload(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "42", payload.UserID)
	assert.Equal(t, "Ivan", payload.User.FirstName)
	assert.Equal(t, "http://caller.test/cb", payload.CallbackURL)
	assert.Equal(t, fixed, payload.SubmittedAt)

	entry := f.logs.Entry(id)
	require.NotNil(t, entry)
	assert.Equal(t, domain.LogStatusPending, entry.Status)
	assert.Equal(t, domain.DocTypePDF, entry.DocType)
	assert.Equal(t, fixed, entry.RequestTime)
	assert.Nil(t, entry.DurationMS)
	assert.Nil(t, entry.ResultURL)

	var body SubmitRequest
	require.NoError(t, json.Unmarshal(entry.RequestBody, &body))
	assert.Equal(t, validRequest(), body)
}

func TestGenerationService_Submit_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *SubmitRequest)
		wantErr error
	}{
		{"unsupported doc type", func(r *SubmitRequest) { r.DocType = "xls" }, domain.ErrInvalidRequest},
		{"empty doc type", func(r *SubmitRequest) { r.DocType = "" }, domain.ErrInvalidRequest},
		{"relative callback", func(r *SubmitRequest) { r.CallbackURL = "/cb" }, domain.ErrInvalidRequest},
		{"ftp callback", func(r *SubmitRequest) { r.CallbackURL = "ftp://caller.test/cb" }, domain.ErrInvalidRequest},
		{"unknown user", func(r *SubmitRequest) { r.UserID = "999" }, domain.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			req := validRequest()
			tt.mutate(&req)

			id, err := f.svc.Submit(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, id)

			// Nothing is written for a rejected request
			keys, _ := f.tasks.ListTaskKeys(context.Background())
			assert.Empty(t, keys)
			assert.Empty(t, f.logs.Entries)
		})
	}
}

func TestGenerationService_Submit_StoreUnavailable(t *testing.T) {
	f := newServiceFixture(t)
	f.tasks.saveErr = store.NewStoreError("task", "save", "redis command failed",
		errors.Join(store.ErrUnavailable, errors.New("dial tcp: connection refused")))

	_, err := f.svc.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Empty(t, f.logs.Entries)
}

func TestGenerationService_Submit_UserStoreUnavailable(t *testing.T) {
	f := newServiceFixture(t)
	f.users.GetByIDFn = func(ctx context.Context, id string) (*domain.UserRecord, error) {
		return nil, store.ErrUnavailable
	}

	_, err := f.svc.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestGenerationService_Submit_LogFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture(t)
	f.logs.CreateFn = func(ctx context.Context, entry *domain.LogEntry) error {
		return errors.New("database is down")
	}

	id, err := f.svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, f.tasks.HasTask(domain.TaskKey{RequestID: id, DocType: domain.DocTypePDF}))
}

func TestGenerationService_Submit_ConcurrentIDsAreUnique(t *testing.T) {
	f := newServiceFixture(t)

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := f.svc.Submit(context.Background(), validRequest())
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate request id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestGenerationService_GetStatus(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	id, err := f.svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	status, err := f.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.LogStatusPending, status.Entry.Status)
	assert.Nil(t, status.Result)

	key := domain.TaskKey{RequestID: id, DocType: domain.DocTypePDF}
	result := domain.Result{Status: domain.OutcomeSuccess, DocType: domain.DocTypePDF, DocumentURL: "/generated_docs/user_42_document.pdf"}
	require.NoError(t, f.tasks.SaveResult(ctx, key, result, time.Hour))

	status, err = f.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Result)
	assert.Equal(t, result, *status.Result)

	_, err = f.svc.GetStatus(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestGenerationService_ListLogs(t *testing.T) {
	f := newServiceFixture(t)
	var gotLimit int
	f.logs.ListFn = func(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
		gotLimit = limit
		return []*domain.LogEntry{}, nil
	}

	tests := []struct {
		requested int
		want      int
	}{
		{0, DefaultLogLimit},
		{-3, DefaultLogLimit},
		{1, 1},
		{120, 120},
		{10000, MaxLogLimit},
	}
	for _, tt := range tests {
		_, err := f.svc.ListLogs(context.Background(), tt.requested)
		require.NoError(t, err)
		assert.Equal(t, tt.want, gotLimit, "requested %d", tt.requested)
	}

	f.logs.ListFn = func(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
		return nil, errors.New("syntax error")
	}
	_, err := f.svc.ListLogs(context.Background(), 10)
	var svcErr *ServiceError
	assert.ErrorAs(t, err, &svcErr)
}

func TestGenerationService_Generate(t *testing.T) {
	f := newServiceFixture(t)
	var renderedFor domain.UserRecord
	f.renderFn = func(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
		renderedFor = user
		return "/generated_docs/user_42_document.pdf", nil
	}

	url, err := f.svc.Generate(context.Background(), "42", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "/generated_docs/user_42_document.pdf", url)
	assert.Equal(t, "Ivan", renderedFor.FirstName)

	// Synchronous generation neither queues a task nor writes a log entry
	keys, err := f.tasks.ListTaskKeys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Empty(t, f.logs.Entries)
}

func TestGenerationService_Generate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		docType  string
		renderFn generation.RendererFunc
		usersErr error
		wantErr  error
	}{
		{
			name:    "unsupported doc type",
			userID:  "42",
			docType: "xlsx",
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "unknown user",
			userID:  "404",
			docType: "pdf",
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:     "user store unavailable",
			userID:   "42",
			docType:  "pdf",
			usersErr: store.ErrUnavailable,
			wantErr:  domain.ErrStoreUnavailable,
		},
		{
			name:    "renderer error",
			userID:  "42",
			docType: "doc",
			renderFn: func(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
				return "", errors.New("template missing")
			},
			wantErr: domain.ErrRenderFailure,
		},
		{
			name:    "renderer returns empty url",
			userID:  "42",
			docType: "docx",
			renderFn: func(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
				return "", nil
			},
			wantErr: domain.ErrRenderFailure,
		},
		{
			name:    "renderer panics",
			userID:  "42",
			docType: "pdf",
			renderFn: func(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
				panic("boom")
			},
			wantErr: domain.ErrRenderFailure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newServiceFixture(t)
			rendered := false
			if tc.renderFn != nil {
				f.renderFn = tc.renderFn
			} else {
				f.renderFn = func(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
					rendered = true
					return "/x", nil
				}
			}
			if tc.usersErr != nil {
				f.users.GetByIDFn = func(ctx context.Context, id string) (*domain.UserRecord, error) {
					return nil, tc.usersErr
				}
			}

			url, err := f.svc.Generate(context.Background(), tc.userID, tc.docType)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, url)
			if tc.renderFn == nil {
				assert.False(t, rendered, "renderer must not run for rejected requests")
			}
		})
	}
}
