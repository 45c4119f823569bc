package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"swaprouter/apps/router/internal/model"
)

type OrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

func (r *OrderRepository) CreateOrder(order model.Order) error {
	_, err := r.db.Exec(`
		INSERT INTO orders (id, type, token_in, token_out, amount_in, slippage, status, created_at, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, order.ID, order.Type, order.TokenIn, order.TokenOut, order.AmountIn, order.Slippage, order.Status, order.CreatedAt, order.Attempts)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Info("Created order",
		zap.String("order_id", order.ID),
		zap.String("token_in", order.TokenIn),
		zap.String("token_out", order.TokenOut),
		zap.Float64("amount_in", order.AmountIn))
	return nil
}

// UpdateOrderStatus sets the order status and applies whichever update
// fields are present, leaving the rest untouched.
func (r *OrderRepository) UpdateOrderStatus(orderID string, status model.Status, update model.StatusUpdate) error {
	fields := []string{"status = $1"}
	values := []interface{}{string(status)}
	idx := 2

	if update.Attempts != nil {
		fields = append(fields, fmt.Sprintf("attempts = $%d", idx))
		values = append(values, *update.Attempts)
		idx++
	}
	if update.LastError != nil {
		fields = append(fields, fmt.Sprintf("last_error = $%d", idx))
		values = append(values, *update.LastError)
		idx++
	} else if update.ClearLastError {
		fields = append(fields, "last_error = NULL")
	}
	if update.ExecutedPrice != nil {
		fields = append(fields, fmt.Sprintf("executed_price = $%d", idx))
		values = append(values, *update.ExecutedPrice)
		idx++
	}
	if update.TxHash != nil {
		fields = append(fields, fmt.Sprintf("tx_hash = $%d", idx))
		values = append(values, *update.TxHash)
		idx++
	}

	values = append(values, orderID)
	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(fields, ", "), idx)

	if _, err := r.db.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	r.logger.Debug("Updated order status",
		zap.String("order_id", orderID),
		zap.String("status", string(status)))
	return nil
}

func (r *OrderRepository) GetOrderByID(orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.QueryRow(`
		SELECT id, type, token_in, token_out, amount_in, slippage, status, created_at, last_error, attempts, executed_price, tx_hash
		FROM orders
		WHERE id = $1
	`, orderID).Scan(&order.ID, &order.Type, &order.TokenIn, &order.TokenOut, &order.AmountIn, &order.Slippage,
		&order.Status, &order.CreatedAt, &order.LastError, &order.Attempts, &order.ExecutedPrice, &order.TxHash)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}

	return &order, nil
}
