package exec

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool hosts future-based executions. Submit never blocks the caller: waiting
// for a free slot happens on the task's own goroutine.
type Pool struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool running at most size tasks at once.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit schedules task. The task receives a context cancelled when the pool
// closes. If the pool closes before a slot is acquired, drop is called instead.
func (p *Pool) Submit(task func(ctx context.Context), drop func(err error)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			if drop != nil {
				drop(ErrClosed)
			}
			return
		}
		defer p.sem.Release(1)

		task(p.ctx)
	}()
	return nil
}

// Close cancels the pool context and waits for running tasks to return.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
