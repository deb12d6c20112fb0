package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/events"
	"github.com/phrazzld/docgen-api/internal/generation"
	"github.com/phrazzld/docgen-api/internal/store"
)

// ExecutorConfig holds configuration for the executor
type ExecutorConfig struct {
	// ResultTTL is how long a cached result stays readable
	ResultTTL time.Duration
}

// Executor renders a claimed task and records its outcome.
//
// For every task the order is: render, cache the result, finalize the log
// entry, delete the task, emit the outcome. If the result or the log entry
// cannot be written the attempt stops there; the task keeps its lease until it
// expires and is then retried.
type Executor struct {
	renderer  generation.Renderer
	tasks     TaskStore
	logs      store.LogStore
	emitter   events.EventEmitter
	resultTTL time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

var _ Runner = (*Executor)(nil)

// NewExecutor creates a new Executor. emitter may be nil when nothing listens
// for outcomes.
func NewExecutor(
	renderer generation.Renderer,
	tasks TaskStore,
	logs store.LogStore,
	emitter events.EventEmitter,
	config ExecutorConfig,
	logger *slog.Logger,
) (*Executor, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer cannot be nil")
	}
	if tasks == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if logs == nil {
		return nil, fmt.Errorf("log store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if config.ResultTTL <= 0 {
		return nil, fmt.Errorf("result ttl must be positive, got %s", config.ResultTTL)
	}

	return &Executor{
		renderer:  renderer,
		tasks:     tasks,
		logs:      logs,
		emitter:   emitter,
		resultTTL: config.ResultTTL,
		logger:    logger.With("component", "executor"),
		now:       time.Now,
	}, nil
}

// Run executes t and returns its outcome. It never panics and never returns
// an error: every failure is either part of the outcome or logged.
func (e *Executor) Run(ctx context.Context, t Task) domain.Outcome {
	log := e.logger.With("request_id", t.Key.RequestID, "doc_type", t.Key.DocType)

	outcome := e.render(ctx, t)
	duration := e.now().Sub(t.ClaimedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	if outcome.Succeeded() {
		log.Info("document rendered", "url", outcome.DocumentURL, "duration_ms", duration)
	} else {
		log.Warn("document rendering failed", "detail", outcome.Detail, "duration_ms", duration)
	}

	result := domain.NewResult(t.Key.DocType, outcome)
	if err := e.tasks.SaveResult(ctx, t.Key, result, e.resultTTL); err != nil {
		log.Error("failed to save result, task left for retry", "error", err)
		return outcome
	}

	completion := domain.LogCompletion{
		RequestID:  t.Key.RequestID,
		Status:     outcome.LogStatus(),
		DurationMS: duration,
	}
	if outcome.Succeeded() {
		url := outcome.DocumentURL
		completion.ResultURL = &url
	}
	updated, err := e.logs.Complete(ctx, completion)
	if err != nil {
		log.Error("failed to finalize generation log, task left for retry", "error", err)
		return outcome
	}
	if !updated {
		log.Debug("generation log already finalized")
	}

	if err := e.tasks.DeleteTask(ctx, t.Key); err != nil {
		log.Error("failed to delete finished task", "error", err)
	}

	if e.emitter != nil {
		event := events.NewOutcomeEvent(t.Key, t.Payload.CallbackURL, outcome)
		if err := e.emitter.EmitEvent(ctx, event); err != nil {
			log.Error("failed to emit outcome event", "event_id", event.ID, "error", err)
		}
	}

	return outcome
}

func (e *Executor) render(ctx context.Context, t Task) (outcome domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("renderer panicked",
				"request_id", t.Key.RequestID,
				"panic", r,
				"stack", string(debug.Stack()))
			outcome = failure(fmt.Errorf("%w: renderer panicked: %v", domain.ErrRenderFailure, r))
		}
	}()

	url, err := e.renderer.Render(ctx, t.Payload.User, t.Key.DocType)
	if err != nil {
		return failure(fmt.Errorf("%w: %v", domain.ErrRenderFailure, err))
	}
	if url == "" {
		return failure(fmt.Errorf("%w: renderer returned no url", domain.ErrRenderFailure))
	}
	return domain.Outcome{Status: domain.OutcomeSuccess, DocumentURL: url}
}

func failure(err error) domain.Outcome {
	return domain.Outcome{Status: domain.OutcomeError, Detail: err.Error()}
}
