package client

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	postgresMaxConns          = 10
	postgresMinConns          = 1
	postgresMaxConnLifetime   = time.Hour
	postgresMaxConnIdleTime   = 30 * time.Minute
	postgresHealthCheckPeriod = time.Minute
)

// NewPostgresPool opens a pgx pool and verifies it with a ping.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	poolCfg.MaxConns = postgresMaxConns
	poolCfg.MinConns = postgresMinConns
	poolCfg.MaxConnLifetime = postgresMaxConnLifetime
	poolCfg.MaxConnIdleTime = postgresMaxConnIdleTime
	poolCfg.HealthCheckPeriod = postgresHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}
