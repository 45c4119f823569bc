package dex

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"swaprouter/apps/router/internal/model"
)

type stubSource struct {
	name     string
	quote    model.Quote
	quoteErr error
	delay    time.Duration
	calls    int32
}

func (s *stubSource) Name() string {
	return s.name
}

func (s *stubSource) Quote(ctx context.Context, tokenIn, tokenOut string, amount float64) (model.Quote, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return model.Quote{}, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.quoteErr != nil {
		return model.Quote{}, s.quoteErr
	}
	return s.quote, nil
}

func (s *stubSource) Execute(ctx context.Context, order *model.Order) (ExecutionResult, error) {
	return ExecutionResult{}, errors.New("not implemented")
}

func TestFindBestQuote(t *testing.T) {
	logger := zap.NewNop()

	t.Run("SelectsHighestOutputAmount", func(t *testing.T) {
		low := &stubSource{name: "low", quote: model.Quote{Source: "low", AmountOut: 98}}
		high := &stubSource{name: "high", quote: model.Quote{Source: "high", AmountOut: 101}}

		agg := NewAggregator([]Source{low, high}, logger)
		best, err := agg.FindBestQuote(context.Background(), "SOL", "USDC", 1)
		if err != nil {
			t.Fatalf("FindBestQuote returned error: %v", err)
		}

		if best.Source != "high" {
			t.Errorf("Expected source 'high', got '%s'", best.Source)
		}
		if best.AmountOut != 101 {
			t.Errorf("Expected amount out 101, got %f", best.AmountOut)
		}
	})

	t.Run("TieBreaksToFirstConfigured", func(t *testing.T) {
		first := &stubSource{name: "first", quote: model.Quote{Source: "first", AmountOut: 100}}
		second := &stubSource{name: "second", quote: model.Quote{Source: "second", AmountOut: 100}}

		agg := NewAggregator([]Source{first, second}, logger)
		best, err := agg.FindBestQuote(context.Background(), "SOL", "USDC", 1)
		if err != nil {
			t.Fatalf("FindBestQuote returned error: %v", err)
		}

		if best.Source != "first" {
			t.Errorf("Expected tie to pick first-configured source, got '%s'", best.Source)
		}
	})

	t.Run("ExcludesFailedSources", func(t *testing.T) {
		broken := &stubSource{name: "broken", quoteErr: errors.New("venue down")}
		ok := &stubSource{name: "ok", quote: model.Quote{Source: "ok", AmountOut: 50}}

		agg := NewAggregator([]Source{broken, ok}, logger)
		best, err := agg.FindBestQuote(context.Background(), "SOL", "USDC", 1)
		if err != nil {
			t.Fatalf("FindBestQuote returned error: %v", err)
		}

		if best.Source != "ok" {
			t.Errorf("Expected surviving source 'ok', got '%s'", best.Source)
		}
	})

	t.Run("AllSourcesFailed", func(t *testing.T) {
		a := &stubSource{name: "a", quoteErr: errors.New("down")}
		b := &stubSource{name: "b", quoteErr: errors.New("also down")}

		agg := NewAggregator([]Source{a, b}, logger)
		_, err := agg.FindBestQuote(context.Background(), "SOL", "USDC", 1)
		if !errors.Is(err, ErrQuoteUnavailable) {
			t.Fatalf("Expected ErrQuoteUnavailable, got %v", err)
		}
	})

	t.Run("FansOutConcurrently", func(t *testing.T) {
		// Sequential execution would take ~100ms; the join point
		// should finish in roughly one source's latency.
		a := &stubSource{name: "a", delay: 50 * time.Millisecond, quote: model.Quote{Source: "a", AmountOut: 1}}
		b := &stubSource{name: "b", delay: 50 * time.Millisecond, quote: model.Quote{Source: "b", AmountOut: 2}}

		agg := NewAggregator([]Source{a, b}, logger)
		start := time.Now()
		if _, err := agg.FindBestQuote(context.Background(), "SOL", "USDC", 1); err != nil {
			t.Fatalf("FindBestQuote returned error: %v", err)
		}

		if elapsed := time.Since(start); elapsed > 90*time.Millisecond {
			t.Errorf("Expected concurrent fan-out, took %v", elapsed)
		}
	})

	t.Run("WaitsForSlowSource", func(t *testing.T) {
		// A slow source must be awaited, not dropped; here it holds
		// the better quote.
		fast := &stubSource{name: "fast", quote: model.Quote{Source: "fast", AmountOut: 90}}
		slow := &stubSource{name: "slow", delay: 60 * time.Millisecond, quote: model.Quote{Source: "slow", AmountOut: 110}}

		agg := NewAggregator([]Source{fast, slow}, logger)
		best, err := agg.FindBestQuote(context.Background(), "SOL", "USDC", 1)
		if err != nil {
			t.Fatalf("FindBestQuote returned error: %v", err)
		}

		if best.Source != "slow" {
			t.Errorf("Expected slow source to win, got '%s'", best.Source)
		}
	})
}
