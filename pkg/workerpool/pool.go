// Package workerpool provides a bounded goroutine pool with backpressure.
//
// The reminder fan-out uses it to cap concurrent notifier calls:
//
//	errs := workerpool.ForEach(ctx, 4, recipients, func(ctx context.Context, r Recipient) error {
//	    return notifier.Send(ctx, r, msg)
//	})
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/webdiner/webdiner/pkg/logger"
)

// ErrPoolFull is returned by Submit when all workers are busy and the task
// queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	mu     sync.RWMutex // guards closed against sends on a closed channel
	closed bool
}

// New creates a Pool with size workers and a queue of 2×size.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{tasks: make(chan func(), size*2)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the task is queued or ctx is done.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
// It is safe to call multiple times.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "panic", fmt.Sprint(r))
		}
	}()
	task()
}

// ForEach runs fn for every item on a pool of size workers and returns the
// per-item errors in input order (nil entries for successes). Items not yet
// started when ctx is cancelled get ctx.Err().
func ForEach[T any](ctx context.Context, size int, items []T, fn func(context.Context, T) error) []error {
	errs := make([]error, len(items))
	if len(items) == 0 {
		return errs
	}

	pool := New(size)
	var done sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		done.Add(1)
		err := pool.SubmitWait(ctx, func() {
			defer done.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			if err := runItem(ctx, item, fn); err != nil {
				errs[i] = err
			}
		})
		if err != nil {
			done.Done()
			errs[i] = err
		}
	}
	done.Wait()
	pool.Shutdown()
	return errs
}

func runItem[T any](ctx context.Context, item T, fn func(context.Context, T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workerpool: panic: %v", r)
		}
	}()
	return fn(ctx, item)
}
