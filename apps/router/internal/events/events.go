package events

import (
	"time"
)

// StatusEvent is one order state transition as delivered to
// subscribers. Optional fields are populated per status: txHash and
// executedPrice on confirmed, lastError on failed, attempt/backoffMs
// on retrying notifications.
type StatusEvent struct {
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	TxHash        string    `json:"tx_hash,omitempty"`
	ExecutedPrice float64   `json:"executed_price,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	Attempt       int       `json:"attempt,omitempty"`
	BackoffMs     int64     `json:"backoff_ms,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
