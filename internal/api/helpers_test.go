package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/service"
)

// MockGenerationService is a mock implementation of service.GenerationService
type MockGenerationService struct {
	SubmitFn    func(ctx context.Context, req service.SubmitRequest) (string, error)
	GenerateFn  func(ctx context.Context, userID, docType string) (string, error)
	GetStatusFn func(ctx context.Context, requestID string) (*service.RequestStatus, error)
	ListLogsFn  func(ctx context.Context, limit int) ([]*domain.LogEntry, error)

	SubmitCalls   int
	GenerateCalls int
	LastLimit     int
}

// Submit implements service.GenerationService
func (m *MockGenerationService) Submit(ctx context.Context, req service.SubmitRequest) (string, error) {
	m.SubmitCalls++
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, req)
	}
	return "", nil
}

// Generate implements service.GenerationService
func (m *MockGenerationService) Generate(ctx context.Context, userID, docType string) (string, error) {
	m.GenerateCalls++
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, userID, docType)
	}
	return "", nil
}

// GetStatus implements service.GenerationService
func (m *MockGenerationService) GetStatus(ctx context.Context, requestID string) (*service.RequestStatus, error) {
	if m.GetStatusFn != nil {
		return m.GetStatusFn(ctx, requestID)
	}
	return nil, domain.ErrRequestNotFound
}

// ListLogs implements service.GenerationService
func (m *MockGenerationService) ListLogs(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	m.LastLimit = limit
	if m.ListLogsFn != nil {
		return m.ListLogsFn(ctx, limit)
	}
	return nil, nil
}

// newTestRouter mounts h on a fresh chi router.
func newTestRouter(h *DocumentHandler) http.Handler {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
