package jobqueue

import (
	"context"
	"errors"
	"sync"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
)

// ErrClosed is returned by Enqueue once the queue has been closed.
var ErrClosed = errors.New("job queue closed")

// HandlerQueue supports setting a handler for job delivery.
type HandlerQueue interface {
	analysis.JobQueue
	SetHandler(handler Handler)
	// Close stops accepting jobs and waits for in-flight ones.
	Close()
}

// Handler executes one delivered job.
type Handler func(ctx context.Context, name string, payload map[string]any)

// ImmediateQueue runs the handler in a goroutine on enqueue.
type ImmediateQueue struct {
	mu      sync.RWMutex
	handler Handler
	closed  bool
	wg      sync.WaitGroup
}

// NewImmediateQueue constructs the queue.
func NewImmediateQueue(handler Handler) *ImmediateQueue {
	return &ImmediateQueue{handler: handler}
}

// SetHandler replaces the handler used for queued jobs.
func (q *ImmediateQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = handler
}

// Enqueue invokes the handler asynchronously. The job outlives the caller's
// request, so cancellation is detached.
func (q *ImmediateQueue) Enqueue(ctx context.Context, name string, payload any) error {
	typed, ok := payload.(map[string]any)
	if !ok {
		typed = map[string]any{}
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	if q.handler == nil {
		return nil
	}
	handler := q.handler
	jobCtx := context.WithoutCancel(ctx)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		handler(jobCtx, name, typed)
	}()
	return nil
}

// Wait blocks until every dispatched job has returned.
func (q *ImmediateQueue) Wait() {
	q.wg.Wait()
}

// Close rejects further jobs and drains the running ones.
func (q *ImmediateQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}

var _ HandlerQueue = (*ImmediateQueue)(nil)
