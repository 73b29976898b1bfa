package aicore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/scanforge/aicore/pkg/taskerr"
	"github.com/scanforge/aicore/pkg/types"
)

// TaskHandle tracks one asynchronously dispatched task. The handle is
// resolved exactly once; Wait, Result, and OnComplete may be used from any
// goroutine.
type TaskHandle struct {
	id   string
	done chan struct{}

	mu        sync.Mutex
	result    *types.TaskResult
	err       error
	resolved  bool
	callbacks []func(*types.TaskResult, error)
}

func newTaskHandle() *TaskHandle {
	return &TaskHandle{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

// ID returns the unique identifier assigned to this task.
func (h *TaskHandle) ID() string {
	return h.id
}

// Done returns a channel closed when the task has completed.
func (h *TaskHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task completes or the context is canceled.
func (h *TaskHandle) Wait(ctx context.Context) (*types.TaskResult, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome. It is only meaningful after Done is closed;
// before completion it returns nil, nil.
func (h *TaskHandle) Result() (*types.TaskResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// OnComplete registers a callback invoked with the outcome. A callback
// registered after completion runs immediately on the caller's goroutine.
func (h *TaskHandle) OnComplete(fn func(*types.TaskResult, error)) {
	h.mu.Lock()
	if h.resolved {
		result, err := h.result, h.err
		h.mu.Unlock()
		fn(result, err)
		return
	}
	h.callbacks = append(h.callbacks, fn)
	h.mu.Unlock()
}

// resolve records the outcome, closes the done channel, and fires the
// registered callbacks in registration order.
func (h *TaskHandle) resolve(result *types.TaskResult, err error) {
	h.mu.Lock()
	if h.resolved {
		h.mu.Unlock()
		return
	}
	h.resolved = true
	h.result = result
	h.err = err
	callbacks := h.callbacks
	h.callbacks = nil
	h.mu.Unlock()

	close(h.done)
	for _, fn := range callbacks {
		fn(result, err)
	}
}

// ProcessAsync submits a task to the worker pool and returns a handle for
// the eventual result. The request is deep-copied before submission, so
// the caller may reuse or mutate it immediately. Once submitted, a task is
// not cancelable: the dispatch is detached from the caller's context, and
// canceling ctx after ProcessAsync returns has no effect on it.
func (s *Service) ProcessAsync(ctx context.Context, req *types.TaskRequest) (*TaskHandle, error) {
	if req == nil {
		return nil, taskerr.NewValidationError("request is nil")
	}

	handle := newTaskHandle()
	cloned := req.Clone()
	runCtx := context.WithoutCancel(ctx)

	err := s.workers.Submit(func() {
		result, err := s.ProcessSync(runCtx, cloned)
		handle.resolve(result, err)
	})
	if err != nil {
		return nil, err
	}
	return handle, nil
}
