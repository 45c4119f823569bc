package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"swaprouter/apps/router/internal/dex"
	"swaprouter/apps/router/internal/engine"
	"swaprouter/apps/router/internal/model"
	"swaprouter/apps/router/internal/status"
)

// Transaction construction is simulated with a short delay.
const (
	buildDelayMin  = 150 * time.Millisecond
	buildDelaySpan = 400 * time.Millisecond
)

// OrderStore is the read side of the order store the pipeline needs.
type OrderStore interface {
	GetOrderByID(orderID string) (*model.Order, error)
}

// Pipeline drives one order from pickup to a terminal status:
// pending -> routing -> building -> submitted -> confirmed/failed.
// A single pipeline owns its order exclusively; the queue's
// one-live-job-per-id contract is what makes that safe.
type Pipeline struct {
	store      OrderStore
	aggregator *dex.Aggregator
	engine     *engine.Engine
	publisher  *status.Publisher
	logger     *zap.Logger

	// test seams
	sleep func(ctx context.Context, d time.Duration) error
	randF func() float64
}

func NewPipeline(store OrderStore, aggregator *dex.Aggregator, eng *engine.Engine, publisher *status.Publisher, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		aggregator: aggregator,
		engine:     eng,
		publisher:  publisher,
		logger:     logger,
		sleep:      sleepFor,
		randF:      rand.Float64,
	}
}

// Run processes one job to a terminal status. A non-nil error means
// the job should be redelivered (context cancellation, store read
// failure); terminal outcomes, including failed orders, return nil so
// the job is acknowledged.
func (p *Pipeline) Run(ctx context.Context, job model.Job) error {
	order, err := p.store.GetOrderByID(job.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", job.OrderID, err)
	}
	if order == nil {
		p.logger.Warn("Job references unknown order, dropping", zap.String("order_id", job.OrderID))
		return nil
	}
	if order.Status.Terminal() {
		// Redelivered job for an order that already finished.
		p.logger.Info("Order already terminal, acknowledging job",
			zap.String("order_id", order.ID),
			zap.String("status", string(order.Status)))
		return nil
	}

	p.publisher.Publish(order.ID, model.StatusPending, model.StatusUpdate{})
	p.publisher.Publish(order.ID, model.StatusRouting, model.StatusUpdate{})

	quote, err := p.aggregator.FindBestQuote(ctx, order.TokenIn, order.TokenOut, order.AmountIn)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		// All sources failed; quote fetching is never retried.
		message := fmt.Sprintf("failed while fetching quotes: %v", err)
		p.publisher.Publish(order.ID, model.StatusFailed, model.StatusUpdate{LastError: &message})
		return nil
	}

	p.publisher.Publish(order.ID, model.StatusBuilding, model.StatusUpdate{})

	if err := p.sleep(ctx, buildDelayMin+time.Duration(p.randF()*float64(buildDelaySpan))); err != nil {
		return err
	}

	src, ok := p.aggregator.SourceByName(quote.Source)
	if !ok {
		message := fmt.Sprintf("quoted source %s is not configured", quote.Source)
		p.publisher.Publish(order.ID, model.StatusFailed, model.StatusUpdate{LastError: &message})
		return nil
	}

	result, err := p.engine.ExecuteWithRetry(ctx, src, quote, order)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		message := err.Error()
		p.publisher.Publish(order.ID, model.StatusFailed, model.StatusUpdate{
			Attempts:  &order.Attempts,
			LastError: &message,
		})
		p.logger.Info("Order failed",
			zap.String("order_id", order.ID),
			zap.Int("attempts", order.Attempts),
			zap.String("last_error", message))
		return nil
	}

	p.publisher.Publish(order.ID, model.StatusConfirmed, model.StatusUpdate{
		Attempts:       &order.Attempts,
		ExecutedPrice:  &result.ExecutedPrice,
		TxHash:         &result.TxHash,
		ClearLastError: true,
	})

	p.logger.Info("Order confirmed",
		zap.String("order_id", order.ID),
		zap.String("tx_hash", result.TxHash),
		zap.Float64("executed_price", result.ExecutedPrice),
		zap.Int("attempts", order.Attempts))

	return nil
}

func sleepFor(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
