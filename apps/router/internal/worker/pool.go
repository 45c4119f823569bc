package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"swaprouter/apps/router/internal/queue"
)

// Pool runs a fixed number of workers, each dequeueing jobs and
// driving the pipeline to completion. Pipelines for different orders
// run fully in parallel; at most `concurrency` orders are in flight
// at once.
type Pool struct {
	queue       queue.Queue
	pipeline    *Pipeline
	concurrency int
	logger      *zap.Logger

	wg sync.WaitGroup
}

func NewPool(q queue.Queue, pipeline *Pipeline, concurrency int, logger *zap.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{
		queue:       q,
		pipeline:    pipeline,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Start launches the worker goroutines. They exit when ctx is
// cancelled or the queue closes.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go func(worker int) {
			defer p.wg.Done()
			p.run(ctx, worker)
		}(i)
	}
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, worker int) {
	for {
		delivery, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrClosed) {
				return
			}
			p.logger.Error("Failed to dequeue job", zap.Int("worker", worker), zap.Error(err))
			continue
		}

		if err := p.pipeline.Run(ctx, delivery.Job); err != nil {
			p.logger.Warn("Pipeline interrupted, requesting redelivery",
				zap.Int("worker", worker),
				zap.String("order_id", delivery.Job.OrderID),
				zap.Error(err))
			if nackErr := delivery.Nack(); nackErr != nil {
				p.logger.Error("Failed to nack job",
					zap.String("order_id", delivery.Job.OrderID),
					zap.Error(nackErr))
			}
			if ctx.Err() != nil {
				return
			}
			continue
		}

		if err := delivery.Ack(); err != nil {
			p.logger.Error("Failed to ack job",
				zap.String("order_id", delivery.Job.OrderID),
				zap.Error(err))
		}
	}
}
