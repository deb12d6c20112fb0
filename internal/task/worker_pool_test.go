package task

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWorkerPool(t *testing.T) {
	t.Parallel()
	logger := setupTestLogger()

	pool := NewWorkerPool(WorkerPoolConfig{MaxInFlight: 3}, logger)
	assert.Equal(t, 3, pool.limit)

	// Negative bound falls back to unbounded
	pool = NewWorkerPool(WorkerPoolConfig{MaxInFlight: -1}, logger)
	assert.Equal(t, 0, pool.limit)
	assert.False(t, pool.Full())
}

func TestWorkerPool_Bounded(t *testing.T) {
	t.Parallel()
	pool := NewWorkerPool(WorkerPoolConfig{MaxInFlight: 2}, setupTestLogger())

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	for i := 0; i < 2; i++ {
		ok := pool.Go(func() {
			started.Done()
			<-release
		})
		assert.True(t, ok)
	}
	started.Wait()

	assert.True(t, pool.Full())
	assert.Equal(t, 2, pool.InFlight())
	assert.False(t, pool.Go(func() {}), "pool at its bound must refuse new jobs")

	close(release)
	pool.Wait()
	assert.Equal(t, 0, pool.InFlight())
	assert.False(t, pool.Full())
}

func TestWorkerPool_PanicIsContained(t *testing.T) {
	t.Parallel()
	pool := NewWorkerPool(WorkerPoolConfig{}, setupTestLogger())

	var ran atomic.Int32
	pool.Go(func() { panic("boom") })
	pool.Go(func() { ran.Add(1) })
	pool.Wait()

	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, 0, pool.InFlight())
}
