package database

import (
	"context"
	"fmt"
	"log/slog"
)

// schemaStatements creates tables, indexes and constraints idempotently.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		phone         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user','admin')),
		token_saldo   TEXT NOT NULL UNIQUE,
		balance       NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL REFERENCES users(id),
		service_type   TEXT NOT NULL,
		original_price NUMERIC(14,2) NOT NULL CHECK (original_price >= 0),
		discount       NUMERIC(14,2) NOT NULL CHECK (discount >= 0),
		final_price    NUMERIC(14,2) NOT NULL CHECK (final_price >= 0),
		status         TEXT NOT NULL CHECK (status IN ('pending','processing','completed','cancelled')),
		meta           JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT orders_final_price_consistent CHECK (final_price = original_price - discount)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		amount     NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		type       TEXT NOT NULL CHECK (type IN ('credit','debit')),
		source     TEXT NOT NULL,
		reference  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id, created_at DESC)`,
	// One refund per order: the idempotence guard for cancellations.
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_refund_reference
		ON transactions(user_id, reference) WHERE type = 'credit' AND source = 'refund'`,
	`CREATE TABLE IF NOT EXISTS recharge_intents (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id),
		token_saldo TEXT NOT NULL,
		method      TEXT NOT NULL CHECK (method IN ('YAPE','EFECTIVO','USDT')),
		amount      NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		status      TEXT NOT NULL CHECK (status IN ('created','verified','expired')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS service_catalog (
		key              TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		pricing_type     TEXT NOT NULL CHECK (pricing_type IN ('fixed','discount')),
		fixed_price      NUMERIC(14,2),
		discount_percent NUMERIC(5,2),
		required_fields  JSONB NOT NULL DEFAULT '[]'::jsonb,
		active           BOOLEAN NOT NULL DEFAULT TRUE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT service_catalog_fixed_price_required CHECK (pricing_type <> 'fixed' OR fixed_price IS NOT NULL)
	)`,
	`CREATE TABLE IF NOT EXISTS pricing_settings (
		key        TEXT PRIMARY KEY,
		value      NUMERIC(14,2) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// RunMigrations applies the schema. Every statement is safe to re-run.
func RunMigrations(ctx context.Context, db Querier, logger *slog.Logger) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	logger.Info("Schema migrations completed", "statements", len(schemaStatements))
	return nil
}
