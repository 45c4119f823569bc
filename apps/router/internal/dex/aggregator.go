package dex

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swaprouter/apps/router/internal/model"
)

// Aggregator fans a quote request out to every configured source and
// picks the quote with the highest output amount.
type Aggregator struct {
	sources []Source
	logger  *zap.Logger
}

func NewAggregator(sources []Source, logger *zap.Logger) *Aggregator {
	return &Aggregator{sources: sources, logger: logger}
}

func (a *Aggregator) Sources() []Source {
	return a.sources
}

// SourceByName resolves a source from a quote's source identifier.
func (a *Aggregator) SourceByName(name string) (Source, bool) {
	for _, src := range a.sources {
		if src.Name() == name {
			return src, true
		}
	}
	return nil, false
}

// FindBestQuote queries all sources concurrently and waits for every
// one of them: this is a join point, not a race, so a slow source is
// awaited rather than dropped. A failed source is excluded; only when
// all sources fail does the call return ErrQuoteUnavailable.
func (a *Aggregator) FindBestQuote(ctx context.Context, tokenIn, tokenOut string, amount float64) (model.Quote, error) {
	quotes := make([]*model.Quote, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			quote, err := src.Quote(gctx, tokenIn, tokenOut, amount)
			if err != nil {
				a.logger.Warn("Liquidity source failed to quote",
					zap.String("venue", src.Name()),
					zap.Error(err))
				return nil
			}
			quotes[i] = &quote
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Quote{}, err
	}

	// Strictly-greater comparison keeps the first-configured source on
	// an exact tie.
	var best *model.Quote
	for _, quote := range quotes {
		if quote == nil {
			continue
		}
		if best == nil || quote.AmountOut > best.AmountOut {
			best = quote
		}
	}

	if best == nil {
		return model.Quote{}, ErrQuoteUnavailable
	}

	a.logger.Info("Selected best quote",
		zap.String("venue", best.Source),
		zap.Float64("price", best.Price),
		zap.Float64("amount_out", best.AmountOut))

	return *best, nil
}
