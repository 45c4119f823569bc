package api

import (
	"time"
)

// ExecuteOrderRequest is the body of POST /api/orders/execute
type ExecuteOrderRequest struct {
	Type     string   `json:"type,omitempty"` // optional; only "market" is accepted
	TokenIn  string   `json:"token_in"`
	TokenOut string   `json:"token_out"`
	AmountIn float64  `json:"amount_in"`
	Slippage *float64 `json:"slippage,omitempty"` // fraction, defaults to 0.01
}

// ExecuteOrderResponse carries the id of the accepted order
type ExecuteOrderResponse struct {
	OrderID string `json:"order_id"`
}

// OrderResponse represents the API response for order information
type OrderResponse struct {
	OrderID       string    `json:"order_id"`
	Type          string    `json:"type"`
	TokenIn       string    `json:"token_in"`
	TokenOut      string    `json:"token_out"`
	AmountIn      float64   `json:"amount_in"`
	Slippage      float64   `json:"slippage"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	Attempts      int       `json:"attempts"`
	LastError     *string   `json:"last_error,omitempty"`
	ExecutedPrice *float64  `json:"executed_price,omitempty"`
	TxHash        *string   `json:"tx_hash,omitempty"`
}

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
