package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/docgen-api/internal/callback"
	"github.com/phrazzld/docgen-api/internal/config"
	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/platform/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 0, LogLevel: "debug", ShutdownTimeout: 2 * time.Second},
		Redis:  config.RedisConfig{URL: "redis://unused", KeyPrefix: "docgen"},
		Worker: config.WorkerConfig{
			PollInterval: 20 * time.Millisecond,
			LeaseTTL:     time.Minute,
			ResultTTL:    time.Hour,
		},
		Callback: config.CallbackConfig{Timeout: 2 * time.Second},
		Renderer: config.RendererConfig{SimulatedLatency: 0},
	}
}

type testApp struct {
	*application
	sql sqlmock.Sqlmock
	mr  *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	log, _ := logger.NewTestLogger()
	app, err := newApplication(testConfig(), log, db, rdb)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	return &testApp{application: app, sql: mock, mr: mr}
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "middle_name", "iin", "phone_number"}).
		AddRow("42", "Aigerim", "Sapar", nil, "990101300123", "+77010000000")
}

func TestNewApplication_WiresComponents(t *testing.T) {
	app := newTestApp(t)

	assert.NotNil(t, app.userStore)
	assert.NotNil(t, app.logStore)
	assert.NotNil(t, app.taskStore)
	assert.NotNil(t, app.generationService)
	assert.NotNil(t, app.executor)
	assert.NotNil(t, app.poller)
	assert.NotNil(t, app.dispatcher)
	assert.NotNil(t, app.emitter)
}

func TestNewApplication_InvalidRenderer(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := testConfig()
	cfg.Renderer.SimulatedLatency = -time.Second
	log, _ := logger.NewTestLogger()

	_, err = newApplication(cfg, log, db, rdb)
	assert.Error(t, err)
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)
	router := app.setupRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestRouter_SubmitQueuesTask(t *testing.T) {
	app := newTestApp(t)
	router := app.setupRouter()

	app.sql.ExpectQuery("SELECT (.+) FROM users").WithArgs("42").WillReturnRows(userRows())
	app.sql.ExpectExec("INSERT INTO generation_logs").
		WithArgs(sqlmock.AnyArg(), "42", "pdf", "PENDING", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"user_id":"42","doc_type":"pdf","callback_url":"https://example.com/hook"}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents/generate/async", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp struct {
		RequestID string `json:"request_id"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)

	assert.True(t, app.mr.Exists("docgen:task:"+resp.RequestID+":pdf"))
	assert.NoError(t, app.sql.ExpectationsWereMet())
}

func TestRouter_SubmitUnknownUserWritesNothing(t *testing.T) {
	app := newTestApp(t)
	router := app.setupRouter()

	app.sql.ExpectQuery("SELECT (.+) FROM users").WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "middle_name", "iin", "phone_number"}))

	body := `{"user_id":7,"doc_type":"docx","callback_url":"https://example.com/hook"}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents/generate/async", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, app.mr.Keys())
	assert.NoError(t, app.sql.ExpectationsWereMet())
}

func TestRun_WorkerProcessesTaskAndCallsBack(t *testing.T) {
	app := newTestApp(t)

	var (
		mu       sync.Mutex
		received []callback.Payload
	)
	delivered := make(chan struct{}, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p callback.Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		select {
		case delivered <- struct{}{}:
		default:
		}
	}))
	defer hook.Close()

	key := domain.TaskKey{RequestID: "0b8f6c1e-2f0e-4d1b-9f57-3c1c0f0e9a01", DocType: domain.DocTypePDF}
	payload := domain.TaskPayload{
		UserID:      "42",
		CallbackURL: hook.URL,
		User:        domain.UserRecord{ID: "42", FirstName: "Aigerim", LastName: "Sapar"},
		SubmittedAt: time.Now().UTC(),
	}
	require.NoError(t, app.taskStore.SaveTask(context.Background(), key, payload))

	app.sql.ExpectExec("UPDATE generation_logs").WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.run(ctx, modeWorker) }()

	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not delivered")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, key.RequestID, received[0].RequestID)
	assert.Equal(t, domain.OutcomeSuccess, received[0].Status)
	assert.Equal(t, "/generated_docs/user_42_document.pdf", received[0].DocumentURL)

	assert.False(t, app.mr.Exists("docgen:task:"+key.String()))
	assert.True(t, app.mr.Exists("docgen:result:"+key.String()))
	assert.NoError(t, app.sql.ExpectationsWereMet())
}

func TestRouter_GenerateSyncRendersWithoutQueueing(t *testing.T) {
	app := newTestApp(t)
	router := app.setupRouter()

	app.sql.ExpectQuery("SELECT (.+) FROM users").WithArgs("42").WillReturnRows(userRows())

	body := `{"user_id":"42","doc_type":"pdf"}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents/generate/sync", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Message     string `json:"message"`
		DocumentURL string `json:"document_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/generated_docs/user_42_document.pdf", resp.DocumentURL)
	assert.NotEmpty(t, resp.Message)

	assert.Empty(t, app.mr.Keys())
	assert.NoError(t, app.sql.ExpectationsWereMet())
}
