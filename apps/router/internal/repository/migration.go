package repository

import (
	"database/sql"
	"fmt"
)

// InitMigration initializes the database. In production, this would use a proper migration
// library like go-migrate
func InitMigration(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			type VARCHAR(20) NOT NULL,
			token_in VARCHAR(50) NOT NULL,
			token_out VARCHAR(50) NOT NULL,
			amount_in NUMERIC NOT NULL,
			slippage NUMERIC NOT NULL,
			status VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_error TEXT,
			attempts INTEGER NOT NULL DEFAULT 0,
			executed_price NUMERIC,
			tx_hash VARCHAR(66)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders (status, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}
