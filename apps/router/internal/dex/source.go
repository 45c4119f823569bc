package dex

import (
	"context"
	"errors"

	"swaprouter/apps/router/internal/model"
)

// ErrQuoteUnavailable is returned by the aggregator when every
// configured source failed to quote. The pipeline treats it as
// terminal: quote fetching is never retried.
var ErrQuoteUnavailable = errors.New("no liquidity source returned a quote")

// ExecutionResult is the outcome of a successful swap submission.
type ExecutionResult struct {
	TxHash        string
	ExecutedPrice float64
}

// Source is one liquidity venue capable of quoting and executing a
// swap. Real venues can be substituted for the simulated ones without
// touching the pipeline.
type Source interface {
	Name() string
	Quote(ctx context.Context, tokenIn, tokenOut string, amount float64) (model.Quote, error)
	Execute(ctx context.Context, order *model.Order) (ExecutionResult, error)
}
