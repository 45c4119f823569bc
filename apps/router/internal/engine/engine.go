package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"swaprouter/apps/router/internal/dex"
	"swaprouter/apps/router/internal/events"
	"swaprouter/apps/router/internal/model"
)

const baseBackoff = 500 * time.Millisecond

// ExhaustedError is returned once the attempt budget is spent. It
// carries the last transient failure so the terminal order record can
// surface a human-readable cause.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("execution failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Publisher is the slice of the status publisher the engine drives:
// persisted transitions, broadcast-only notifications, and store-only
// bookkeeping writes.
type Publisher interface {
	Publish(orderID string, st model.Status, update model.StatusUpdate)
	Announce(event events.StatusEvent)
	Record(orderID string, st model.Status, update model.StatusUpdate)
}

// Engine submits a swap through the chosen source and retries failed
// attempts with exponential backoff, bounded by maxAttempts.
type Engine struct {
	maxAttempts int
	publisher   Publisher
	logger      *zap.Logger

	// test seam for backoff sleeps
	sleep func(ctx context.Context, d time.Duration) error
}

func New(maxAttempts int, publisher Publisher, logger *zap.Logger) *Engine {
	return &Engine{
		maxAttempts: maxAttempts,
		publisher:   publisher,
		logger:      logger,
		sleep:       sleepFor,
	}
}

// ExecuteWithRetry runs the attempt loop for one order. The counter is
// seeded from order.Attempts so a redelivered job resumes its budget
// instead of restarting it. The engine owns the submitted/retrying
// transitions; terminal statuses are left to the caller.
func (e *Engine) ExecuteWithRetry(ctx context.Context, src dex.Source, quote model.Quote, order *model.Order) (dex.ExecutionResult, error) {
	attempts := order.Attempts

	// A redelivered job may already have spent its budget (crash
	// between the last attempt's bookkeeping and the terminal write).
	// Never run another execution past the cap.
	if attempts >= e.maxAttempts {
		cause := errors.New("attempt budget already spent")
		if order.LastError != nil {
			cause = errors.New(*order.LastError)
		}
		return dex.ExecutionResult{}, &ExhaustedError{Attempts: attempts, Err: cause}
	}

	for {
		e.publisher.Publish(order.ID, model.StatusSubmitted, model.StatusUpdate{})

		result, err := src.Execute(ctx, order)
		if err == nil {
			attempts++
			order.Attempts = attempts
			return result, nil
		}

		// Cancellation is an abort, not a spent attempt.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return dex.ExecutionResult{}, err
		}

		attempts++
		order.Attempts = attempts
		message := err.Error()
		order.LastError = &message

		e.publisher.Record(order.ID, model.StatusSubmitted, model.StatusUpdate{
			Attempts:  &attempts,
			LastError: &message,
		})

		if attempts >= e.maxAttempts {
			return dex.ExecutionResult{}, &ExhaustedError{Attempts: attempts, Err: err}
		}

		backoff := baseBackoff * time.Duration(1<<attempts) // 1000ms, 2000ms, 4000ms ...

		e.logger.Warn("Execution attempt failed, backing off",
			zap.String("order_id", order.ID),
			zap.Int("attempt", attempts),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		e.publisher.Announce(events.StatusEvent{
			OrderID:   order.ID,
			Status:    string(model.StatusRetrying),
			Attempt:   attempts,
			BackoffMs: backoff.Milliseconds(),
			LastError: message,
		})

		if err := e.sleep(ctx, backoff); err != nil {
			return dex.ExecutionResult{}, err
		}
	}
}

func sleepFor(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
