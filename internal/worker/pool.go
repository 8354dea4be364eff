package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"downloader-api/internal/entity"
)

var ErrPoolClosed = errors.New("worker pool is shut down")

// JobRunner runs one job to completion (implementation: Runner).
type JobRunner interface {
	Run(ctx context.Context, job entity.Job) entity.Job
}

// Pool starts one goroutine per job. With a positive limit, at most limit
// runners execute at once; the rest wait inside their own goroutine so Go
// never blocks the caller.
type Pool struct {
	runner JobRunner
	sem    *semaphore.Weighted
	limit  int
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(runner JobRunner, limit int, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		runner: runner,
		limit:  limit,
		logger: logger.With("component", "pool"),
		ctx:    ctx,
		cancel: cancel,
	}
	if limit > 0 {
		p.sem = semaphore.NewWeighted(int64(limit))
	}
	return p
}

// Go launches job and returns immediately.
func (p *Pool) Go(job entity.Job) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if p.sem != nil {
			// A failed acquire means shutdown: the runner still runs with the
			// cancelled context and records the job as an error.
			if err := p.sem.Acquire(p.ctx, 1); err == nil {
				defer p.sem.Release(1)
			}
		}
		p.runner.Run(p.ctx, job)
	}()
	return nil
}

// Shutdown refuses new jobs and cancels the context of running ones.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
}

// Wait blocks until every launched job has returned or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("worker pool drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) Limit() int { return p.limit }
