package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectAttempts = 3
	retryInterval   = 2 * time.Second
)

// Connect открывает pgx-пул с ретраями: при одновременном рестарте
// с БД первая попытка часто приходит раньше, чем поднялся Postgres.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < connectAttempts; i++ {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * retryInterval)
			continue
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = err
			time.Sleep(time.Duration(i+1) * retryInterval)
			continue
		}
		return pool, nil
	}
	return nil, lastErr
}
