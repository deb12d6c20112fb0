package task

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// WorkerPool runs jobs in their own goroutines, optionally bounded, and tracks
// them so that shutdown can wait for the ones in flight.
type WorkerPool struct {
	// limit caps concurrent jobs; zero means unbounded
	limit int

	mu       sync.Mutex
	inFlight int

	// wg tracks active jobs for clean shutdown
	wg sync.WaitGroup

	logger *slog.Logger
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// MaxInFlight bounds concurrent jobs. Zero or negative means unbounded.
	MaxInFlight int
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	limit := config.MaxInFlight
	if limit < 0 {
		logger.Warn("negative max in-flight specified, running unbounded",
			"specified", config.MaxInFlight)
		limit = 0
	}
	return &WorkerPool{
		limit:  limit,
		logger: logger,
	}
}

// Full reports whether the pool is at its bound.
func (p *WorkerPool) Full() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limit > 0 && p.inFlight >= p.limit
}

// InFlight returns the number of running jobs.
func (p *WorkerPool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Go starts job in a new goroutine. It returns false without starting the job
// if the pool is full. A panicking job is logged and does not affect others.
func (p *WorkerPool) Go(job func()) bool {
	p.mu.Lock()
	if p.limit > 0 && p.inFlight >= p.limit {
		p.mu.Unlock()
		return false
	}
	p.inFlight++
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("job panicked",
					"panic", r,
					"stack", string(debug.Stack()))
			}
			p.mu.Lock()
			p.inFlight--
			p.mu.Unlock()
			p.wg.Done()
		}()
		job()
	}()
	return true
}

// Wait blocks until every started job has returned.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
