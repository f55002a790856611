package postgres

import (
	"context"
	"fmt"

	"github.com/ilindan-dev/notification-engine/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgx connection pool and pings the primary.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.MasterDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid dsn: %w", err)
	}
	if p := cfg.Postgres.Pool; p.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(p.MaxOpenConns)
		if p.MaxIdleConns > 0 && p.MaxIdleConns <= p.MaxOpenConns {
			poolCfg.MinConns = int32(p.MaxIdleConns)
		}
	}
	if lt := cfg.Postgres.Pool.ConnMaxLifetime; lt > 0 {
		poolCfg.MaxConnLifetime = lt
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping: %w", err)
	}
	return pool, nil
}
