// Package pool provides the fixed-size worker pool backing asynchronous
// dispatch.
package pool

import (
	"errors"
	"sync"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 8

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker pool is closed")

// Pool executes submitted tasks on a fixed set of workers. Ordering between
// independently submitted tasks is not guaranteed.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts a pool with the given number of workers and queue depth.
// Non-positive values fall back to defaults.
func New(workers, queueDepth int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueDepth <= 0 {
		queueDepth = workers * 16
	}

	p := &Pool{
		tasks: make(chan func(), queueDepth),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues a task for execution. It blocks while the queue is full
// and returns ErrClosed once the pool has been shut down.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	p.tasks <- task
	return nil
}

// Close stops accepting tasks, waits for queued tasks to finish, and
// releases the workers. Safe to call once all submitters have returned.
func (p *Pool) Close() {
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
