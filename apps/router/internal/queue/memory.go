package queue

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"swaprouter/apps/router/internal/model"
)

const defaultCapacity = 1024

// MemoryQueue is the in-process backend: a buffered channel plus a
// live-id set enforcing the one-live-job-per-order contract. Used by
// tests and single-process deployments; it does not survive a crash.
type MemoryQueue struct {
	logger *zap.Logger
	jobs   chan model.Job

	mu     sync.Mutex
	live   map[string]struct{}
	closed bool
}

func NewMemoryQueue(capacity int, logger *zap.Logger) *MemoryQueue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryQueue{
		logger: logger,
		jobs:   make(chan model.Job, capacity),
		live:   make(map[string]struct{}),
	}
}

// Enqueue adds a job unless one is already live for the same order id,
// in which case it is a no-op.
func (q *MemoryQueue) Enqueue(job model.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if _, ok := q.live[job.OrderID]; ok {
		q.logger.Debug("Job already live, skipping enqueue", zap.String("order_id", job.OrderID))
		return nil
	}

	select {
	case q.jobs <- job:
		q.live[job.OrderID] = struct{}{}
		return nil
	default:
		return errors.New("queue full")
	}
}

// push re-sends a job on the channel, guarded by the closed flag. The
// send must happen under the lock: Close closes the channel, and a send
// racing it would panic.
func (q *MemoryQueue) push(job model.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return errors.New("queue full")
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case job, ok := <-q.jobs:
		if !ok {
			return nil, ErrClosed
		}
		return &Delivery{
			Job: job,
			ack: func() error {
				q.forget(job.OrderID)
				return nil
			},
			nack: func() error {
				// Redeliver while keeping the id live so a duplicate
				// enqueue cannot race in.
				if err := q.push(job); err != nil {
					q.forget(job.OrderID)
					return err
				}
				return nil
			},
		}, nil
	}
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	return nil
}

func (q *MemoryQueue) forget(orderID string) {
	q.mu.Lock()
	delete(q.live, orderID)
	q.mu.Unlock()
}
