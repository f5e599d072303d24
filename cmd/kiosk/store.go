package main

import (
	"context"
	"fmt"

	"github.com/dropkickfish/barq-client/internal/config"
	"github.com/dropkickfish/barq-client/internal/store"
	"go.uber.org/zap"
)

// openStore opens the backend named by STORE_DRIVER. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Backend, func(), error) {
	logger.Info("opening store", zap.String("driver", cfg.StoreDriver))
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("memory store: orders will not survive a restart")
		return store.NewMemoryBackend(), func() {}, nil

	case config.StoreSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, func() { db.Close() }, nil

	case config.StorePostgres:
		backend, pool, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return backend, pool.Close, nil

	case config.StoreRedis:
		rdb := store.NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rdb.Ping(ctx); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return rdb, func() { rdb.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
