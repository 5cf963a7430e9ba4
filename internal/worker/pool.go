// Package worker provides the bounded executor that runs page, detail and
// icon fetches off the coordination context.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned when work is submitted after Stop
var ErrPoolClosed = errors.New("worker pool is closed")

// Config holds configuration options for the pool
type Config struct {
	// Workers is the maximum number of functions running at once.
	// If zero or negative, defaults to 1.
	Workers int
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// Pool runs submitted functions on goroutines, at most Workers at a time.
// Submissions never block the caller; excess work waits for a free worker.
type Pool struct {
	sem      *semaphore.Weighted
	workers  int
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
	inFlight atomic.Int64
}

// NewPool creates a pool with the given configuration
func NewPool(cfg Config, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", cfg.Workers,
			"default_count", workers)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// Context is cancelled when the pool stops. Slots for pooled work derive from it.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Workers returns the concurrency bound
func (p *Pool) Workers() int {
	return p.workers
}

// Go schedules fn. It returns ErrPoolClosed after Stop.
func (p *Pool) Go(fn func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		// Work still waiting for a worker when the pool stops is dropped
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)

		p.inFlight.Add(1)
		defer p.inFlight.Add(-1)

		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("worker panicked", "panic", r)
			}
		}()

		fn()
	}()

	return nil
}

// InFlight returns the number of functions currently running
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Stop rejects new work, cancels the pool context and waits for running
// functions to return.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Debug("stopping worker pool", "workers", p.workers)
	p.cancel()
	p.wg.Wait()
}
