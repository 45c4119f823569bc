package queue

import (
	"context"
	"errors"

	"swaprouter/apps/router/internal/model"
)

// ErrClosed is returned by Dequeue once the queue has shut down.
var ErrClosed = errors.New("queue closed")

// Delivery is one dequeued job. The worker must settle it exactly
// once: Ack on a terminal pipeline outcome, Nack to request
// redelivery.
type Delivery struct {
	Job model.Job

	ack  func() error
	nack func() error
}

func (d *Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

func (d *Delivery) Nack() error {
	if d.nack == nil {
		return nil
	}
	return d.nack()
}

// Queue distributes order jobs to workers with at-least-once delivery.
// Jobs are keyed by order id; a backend either enforces one live job
// per id itself (memory) or relies on the gateway enqueueing each
// order exactly once plus per-key ordering (kafka).
type Queue interface {
	Enqueue(job model.Job) error
	Dequeue(ctx context.Context) (*Delivery, error)
	Close() error
}
