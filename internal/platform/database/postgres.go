package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns  = 20
	statementTimeout = "15s"
	lockWaitTimeout  = "10s"
	poolPingTimeout  = 5 * time.Second
	defaultAppName   = "servis30-ledger"
)

// NewDBPool opens a pgx pool and pings it. maxConns <= 0 uses the default.
// Every session gets a statement and lock timeout so a stuck row lock cannot
// hold a request forever.
func NewDBPool(ctx context.Context, dsn string, maxConns int32, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	params := cfg.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = defaultAppName
	}
	params["statement_timeout"] = statementTimeout
	params["lock_timeout"] = lockWaitTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, poolPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("PostgreSQL pool ready", "max_conns", cfg.MaxConns, "host", cfg.ConnConfig.Host)
	return pool, nil
}
