package db

import (
	"context"
	"fmt"

	"cafe-order/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open connects a pool and checks the server is reachable.
func Open(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
