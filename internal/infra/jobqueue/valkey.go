package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

const (
	defaultQueueKey    = "nutriforecast:jobs"
	defaultPopTimeout  = 5 * time.Second
	popFailureCooldown = time.Second
)

// message is the JSON form of a job stored in the list.
type message struct {
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// ValkeyQueue keeps pending analysis jobs in a Valkey list so they survive a
// restart. A single worker pops them in FIFO order.
type ValkeyQueue struct {
	client     valkey.Client
	key        string
	popTimeout time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	closed  bool
	running sync.WaitGroup
}

// NewValkeyQueue constructs a queue over the list at key.
func NewValkeyQueue(client valkey.Client, key string, logger *slog.Logger) *ValkeyQueue {
	if key == "" {
		key = defaultQueueKey
	}
	return &ValkeyQueue{
		client:     client,
		key:        key,
		popTimeout: defaultPopTimeout,
		logger:     logger.With("component", "jobqueue.valkey", "key", key),
	}
}

// SetHandler starts the worker. Calling it again replaces the worker.
func (q *ValkeyQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	if handler == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.running.Add(1)
	go func() {
		defer q.running.Done()
		q.work(ctx, handler)
	}()
}

// Enqueue appends a job to the tail of the list.
func (q *ValkeyQueue) Enqueue(ctx context.Context, name string, payload any) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrClosed
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode job payload: %w", err)
	}
	encoded, err := json.Marshal(message{Name: name, Payload: raw, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	cmd := q.client.B().Rpush().Key(q.key).Element(string(encoded)).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Close stops the worker and waits for the job it is running.
func (q *ValkeyQueue) Close() {
	q.mu.Lock()
	q.closed = true
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.mu.Unlock()
	q.running.Wait()
}

func (q *ValkeyQueue) work(ctx context.Context, handler Handler) {
	for ctx.Err() == nil {
		msg, ok := q.pop(ctx)
		if !ok {
			continue
		}
		payload := map[string]any{}
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				q.logger.Warn("dropping job with unreadable payload", "job", msg.Name, "error", err)
				continue
			}
		}
		// A popped job runs to completion even when Close is waiting.
		handler(context.WithoutCancel(ctx), msg.Name, payload)
	}
}

func (q *ValkeyQueue) pop(ctx context.Context) (message, bool) {
	cmd := q.client.B().Blpop().Key(q.key).Timeout(q.popTimeout.Seconds()).Build()
	values, err := q.client.Do(ctx, cmd).ToArray()
	switch {
	case err == nil:
	case valkey.IsValkeyNil(err), errors.Is(err, context.Canceled):
		return message{}, false
	default:
		q.logger.Warn("job pop failed", "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(popFailureCooldown):
		}
		return message{}, false
	}
	if len(values) != 2 {
		return message{}, false
	}
	raw, err := values[1].ToString()
	if err != nil {
		q.logger.Warn("job pop returned a non string element", "error", err)
		return message{}, false
	}
	var msg message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		q.logger.Warn("dropping malformed job", "error", err)
		return message{}, false
	}
	return msg, true
}

var _ HandlerQueue = (*ValkeyQueue)(nil)
