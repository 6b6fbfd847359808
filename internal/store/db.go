package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/sparkmetrics/internal/config"
)

const connectMaxElapsed = 30 * time.Second

// Connect opens a pgx pool and verifies connectivity, retrying the initial
// ping with exponential backoff so the server survives a database that is
// still starting up.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	bo := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(connectMaxElapsed)), ctx)
	ping := func() error { return pool.Ping(ctx) }
	if err := backoff.Retry(ping, bo); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
