package model

import (
	"time"
)

// Status is the lifecycle state of an order. Transitions follow
// received -> pending -> routing -> building -> submitted and end in
// confirmed or failed; submitted may be re-entered after a retry.
type Status string

const (
	StatusReceived  Status = "received"
	StatusPending   Status = "pending"
	StatusRouting   Status = "routing"
	StatusBuilding  Status = "building"
	StatusSubmitted Status = "submitted"
	StatusRetrying  Status = "retrying" // notification only, never persisted
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

const OrderTypeMarket = "market"

type Order struct {
	ID            string    `db:"id"`
	Type          string    `db:"type"` // "market" is the only supported type
	TokenIn       string    `db:"token_in"`
	TokenOut      string    `db:"token_out"`
	AmountIn      float64   `db:"amount_in"` // base units of TokenIn
	Slippage      float64   `db:"slippage"`  // fraction, 0.01 = 1%
	Status        Status    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	LastError     *string   `db:"last_error"`
	Attempts      int       `db:"attempts"`
	ExecutedPrice *float64  `db:"executed_price"` // set only on confirmation
	TxHash        *string   `db:"tx_hash"`        // set only on confirmation
}

// StatusUpdate is a partial update applied alongside a status
// transition. Nil fields are left untouched; ClearLastError resets
// last_error so a confirmed order never carries a stale failure.
//
// Retry bookkeeping may set LastError while the order is still
// submitted: between attempts it records the most recent failure even
// though no terminal transition has happened yet. Readers should treat
// last_error on a non-failed order as in-flight retry state, not an
// outcome.
type StatusUpdate struct {
	Attempts       *int
	LastError      *string
	ExecutedPrice  *float64
	TxHash         *string
	ClearLastError bool
}
