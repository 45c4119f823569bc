package model

// Job is the queue-level unit of work. Its identity equals the order
// id, which is what gives the queue its one-live-job-per-order
// deduplication contract.
type Job struct {
	OrderID string `json:"order_id"`
}

// Quote is a transient, fee-adjusted offer from one liquidity source.
// Quotes are never persisted; the aggregator consumes them immediately.
type Quote struct {
	Source    string  `json:"source"`
	Price     float64 `json:"price"`
	Fee       float64 `json:"fee"`        // fraction, 0-1
	AmountOut float64 `json:"amount_out"` // amountIn * price * (1 - fee)
}
