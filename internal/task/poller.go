package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/docgen-api/internal/config"
	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/store"
)

// PollerConfig holds configuration for the poller
type PollerConfig struct {
	// PollInterval is the time between discovery cycles
	PollInterval time.Duration

	// LeaseTTL bounds how long a claim survives without completion. It must
	// exceed the expected execution time or tasks will be run twice.
	LeaseTTL time.Duration

	// MaxInFlight caps concurrent executions in this process. Zero means unbounded.
	MaxInFlight int

	// Owner identifies this poller in lease values. Generated if empty.
	Owner string
}

// DefaultPollerConfig returns a PollerConfig with the standard intervals
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		PollInterval: 5 * time.Second,
		LeaseTTL:     60 * time.Second,
	}
}

// PollerConfigFrom builds a PollerConfig from the worker configuration.
func PollerConfigFrom(cfg config.WorkerConfig) PollerConfig {
	return PollerConfig{
		PollInterval: cfg.PollInterval,
		LeaseTTL:     cfg.LeaseTTL,
		MaxInFlight:  cfg.MaxInFlight,
	}
}

// Poller discovers queued tasks, claims them with a lease and dispatches them
// to a Runner. Several pollers, in one process or many, may share a store.
type Poller struct {
	store  TaskStore
	runner Runner
	pool   *WorkerPool
	config PollerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewPoller creates a new Poller
func NewPoller(store TaskStore, runner Runner, config PollerConfig, logger *slog.Logger) (*Poller, error) {
	if store == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", config.PollInterval)
	}
	if config.LeaseTTL <= 0 {
		return nil, fmt.Errorf("lease ttl must be positive, got %s", config.LeaseTTL)
	}
	if config.Owner == "" {
		config.Owner = uuid.NewString()
	}

	logger = logger.With("component", "poller", "owner", config.Owner)
	return &Poller{
		store:  store,
		runner: runner,
		pool:   NewWorkerPool(WorkerPoolConfig{MaxInFlight: config.MaxInFlight}, logger),
		config: config,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Run polls until ctx is cancelled, then waits for in-flight executions.
// The first cycle runs immediately.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started",
		"poll_interval", p.config.PollInterval,
		"lease_ttl", p.config.LeaseTTL,
		"max_in_flight", p.config.MaxInFlight)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("poll cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping, waiting for in-flight executions",
				"in_flight", p.pool.InFlight())
			p.pool.Wait()
			p.logger.Info("poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Wait blocks until every dispatched execution has finished.
func (p *Poller) Wait() {
	p.pool.Wait()
}

// InFlight returns the number of executions currently running.
func (p *Poller) InFlight() int {
	return p.pool.InFlight()
}

// PollOnce runs one discovery cycle and returns the number of tasks dispatched.
// It does not wait for the dispatched executions. A failure to list keys is
// returned; failures on individual tasks are logged and the cycle continues.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	encoded, err := p.store.ListTaskKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	dispatched, deferred := 0, 0
	for _, raw := range encoded {
		if ctx.Err() != nil {
			break
		}

		// Corrupt keys are discarded even when no execution slot is free
		key, err := domain.ParseTaskKey(raw)
		if err != nil {
			p.logger.Warn("discarding task with unparseable key", "key", raw, "error", err)
			if err := p.store.DeleteRaw(ctx, raw); err != nil {
				p.logger.Error("failed to delete corrupt task", "key", raw, "error", err)
			}
			continue
		}

		if p.pool.Full() {
			deferred++
			continue
		}
		if p.claim(ctx, key) {
			dispatched++
		}
	}

	if deferred > 0 {
		p.logger.Debug("in-flight limit reached, tasks left for a later cycle",
			"deferred", deferred,
			"in_flight", p.pool.InFlight())
	}

	if dispatched > 0 {
		p.logger.Debug("poll cycle dispatched tasks", "count", dispatched)
	}
	return dispatched, nil
}

// claim leases key, loads its payload and dispatches it. It reports whether an
// execution was started.
func (p *Poller) claim(ctx context.Context, key domain.TaskKey) bool {
	log := p.logger.With("request_id", key.RequestID, "doc_type", key.DocType)

	ok, err := p.store.AcquireLease(ctx, key, p.config.Owner, p.config.LeaseTTL)
	if err != nil {
		log.Error("failed to acquire lease", "error", err)
		return false
	}
	if !ok {
		return false
	}
	claimedAt := p.now()

	payload, err := p.store.LoadPayload(ctx, key)
	switch {
	case errors.Is(err, domain.ErrCorruptTask), errors.Is(err, store.ErrNotFound):
		log.Warn("discarding task with missing or malformed payload", "error", err)
		if err := p.store.DeleteTask(ctx, key); err != nil {
			log.Error("failed to delete corrupt task", "error", err)
		}
		return false
	case err != nil:
		log.Error("failed to load task payload", "error", err)
		p.release(ctx, key, log)
		return false
	}

	t := Task{Key: key, Payload: payload, ClaimedAt: claimedAt}
	execCtx := context.WithoutCancel(ctx)
	started := p.pool.Go(func() {
		p.runner.Run(execCtx, t)
	})
	if !started {
		p.release(ctx, key, log)
		return false
	}

	log.Info("task dispatched")
	return true
}

func (p *Poller) release(ctx context.Context, key domain.TaskKey, log *slog.Logger) {
	if err := p.store.ReleaseLease(ctx, key, p.config.Owner); err != nil {
		log.Error("failed to release lease", "error", err)
	}
}
