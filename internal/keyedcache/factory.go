package keyedcache

import (
	"context"
	"satchmo-store/internal/client"
	"satchmo-store/internal/config"

	"go.uber.org/zap"
)

// Open builds the cache from config. When redis is selected but unreachable
// the memory backend is used and a warning is logged.
func Open(ctx context.Context, cacheCfg config.Cache, redisCfg config.Redis, logger *zap.Logger) *Cache {
	opts := []Option{
		WithPrefix(cacheCfg.Prefix),
		WithTimeout(cacheCfg.Timeout),
		WithEnabled(cacheCfg.Enabled),
		WithLogger(logger),
	}

	if cacheCfg.Backend != "redis" {
		return New(NewMemoryBackend(), opts...)
	}

	rdb := client.NewRedisClient(&redisCfg)
	if err := client.PingRedis(ctx, rdb); err != nil {
		logger.Warn("redis unavailable, using in-memory cache",
			zap.String("addr", redisCfg.Addr),
			zap.Error(err))
		_ = rdb.Close()
		return New(NewMemoryBackend(), opts...)
	}

	backend := NewRedisBackend(rdb, cacheCfg.Prefix)
	backend.ownsClient = true
	logger.Info("using redis cache", zap.String("addr", redisCfg.Addr))
	return New(backend, opts...)
}
