package dex

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"swaprouter/apps/router/internal/model"
)

// VenueConfig parameterizes one simulated venue. Variance bounds are
// multipliers applied to the base price, e.g. 0.98-1.02 for a 2%
// spread either way.
type VenueConfig struct {
	Name         string
	BasePrice    float64
	Fee          float64
	VarianceMin  float64
	VarianceMax  float64
	FailureRate  float64
	QuoteLatency [2]time.Duration // min, max
	ExecLatency  [2]time.Duration // min, max
}

// Venue simulates a liquidity source with injected latency, price
// variance and a fixed per-attempt failure probability.
type Venue struct {
	cfg    VenueConfig
	logger *zap.Logger

	// test seams
	sleep func(ctx context.Context, d time.Duration) error
	randF func() float64
}

func NewVenue(cfg VenueConfig, logger *zap.Logger) *Venue {
	return &Venue{
		cfg:    cfg,
		logger: logger,
		sleep:  sleepFor,
		randF:  rand.Float64,
	}
}

// DefaultVenues returns the two stock venues: a higher-fee one with a
// tight spread and a lower-fee one with a wider spread.
func DefaultVenues(basePrice float64, logger *zap.Logger) []Source {
	return []Source{
		NewVenue(VenueConfig{
			Name:         "raydium",
			BasePrice:    basePrice,
			Fee:          0.003,
			VarianceMin:  0.98,
			VarianceMax:  1.02,
			FailureRate:  0.08,
			QuoteLatency: [2]time.Duration{200 * time.Millisecond, 400 * time.Millisecond},
			ExecLatency:  [2]time.Duration{2000 * time.Millisecond, 3000 * time.Millisecond},
		}, logger),
		NewVenue(VenueConfig{
			Name:         "meteora",
			BasePrice:    basePrice,
			Fee:          0.002,
			VarianceMin:  0.97,
			VarianceMax:  1.02,
			FailureRate:  0.08,
			QuoteLatency: [2]time.Duration{200 * time.Millisecond, 400 * time.Millisecond},
			ExecLatency:  [2]time.Duration{2000 * time.Millisecond, 3000 * time.Millisecond},
		}, logger),
	}
}

func (v *Venue) Name() string {
	return v.cfg.Name
}

func (v *Venue) Quote(ctx context.Context, tokenIn, tokenOut string, amount float64) (model.Quote, error) {
	if err := v.sleep(ctx, v.latency(v.cfg.QuoteLatency)); err != nil {
		return model.Quote{}, err
	}

	price := v.spotPrice()
	quote := model.Quote{
		Source:    v.cfg.Name,
		Price:     price,
		Fee:       v.cfg.Fee,
		AmountOut: amount * price * (1 - v.cfg.Fee),
	}

	v.logger.Debug("Quoted swap",
		zap.String("venue", v.cfg.Name),
		zap.String("token_in", tokenIn),
		zap.String("token_out", tokenOut),
		zap.Float64("price", price),
		zap.Float64("amount_out", quote.AmountOut))

	return quote, nil
}

func (v *Venue) Execute(ctx context.Context, order *model.Order) (ExecutionResult, error) {
	if err := v.sleep(ctx, v.latency(v.cfg.ExecLatency)); err != nil {
		return ExecutionResult{}, err
	}

	if v.randF() < v.cfg.FailureRate {
		return ExecutionResult{}, fmt.Errorf("%s execution failed (simulated)", v.cfg.Name)
	}

	// Fresh hash per execution; keccak over a uuid nonce gives the
	// familiar 0x-prefixed 32-byte shape.
	txHash := crypto.Keccak256Hash([]byte(uuid.New().String())).Hex()

	return ExecutionResult{
		TxHash:        txHash,
		ExecutedPrice: v.spotPrice(),
	}, nil
}

// spotPrice draws a price from the venue's variance window.
func (v *Venue) spotPrice() float64 {
	span := v.cfg.VarianceMax - v.cfg.VarianceMin
	return v.cfg.BasePrice * (v.cfg.VarianceMin + v.randF()*span)
}

// latency draws a duration from [min, max).
func (v *Venue) latency(window [2]time.Duration) time.Duration {
	span := window[1] - window[0]
	if span <= 0 {
		return window[0]
	}
	return window[0] + time.Duration(v.randF()*float64(span))
}

func sleepFor(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
