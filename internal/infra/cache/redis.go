package cache

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// New connects the client the realtime relay publishes and subscribes
// through. Connections are named after the app so relay subscribers can be
// told apart in CLIENT LIST.
func New(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		ClientName: cfg.App.Name,
	}
	if cfg.Redis.EnableTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}

// RegisterOpenTelemetryPlugin instruments rdb with the global providers; call
// it after telemetry setup.
func RegisterOpenTelemetryPlugin(rdb *redis.Client, tracing, metrics bool) error {
	if tracing {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			return fmt.Errorf("redis tracing: %w", err)
		}
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			return fmt.Errorf("redis metrics: %w", err)
		}
	}
	return nil
}
