package keyedcache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Cached returns the value cached under parts, or calls fn and caches its result.
// Concurrent callers for the same key share one call to fn. Errors from fn are not cached.
func Cached[T any](ctx context.Context, c *Cache, ttl time.Duration, fn func(ctx context.Context) (T, error), parts ...any) (T, error) {
	var out T
	err := c.Get(ctx, &out, parts...)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, ErrEmptyKey) {
		return out, err
	}
	if !errors.Is(err, ErrNotCached) {
		c.logger.Warn("cache read failed", zap.Error(err))
	}

	key := c.Key(parts...)
	v, err, _ := c.group.Do(key, func() (any, error) {
		var cached T
		if c.Get(ctx, &cached, parts...) == nil {
			return cached, nil
		}

		val, err := fn(ctx)
		if err != nil {
			return val, err
		}
		if err := c.Set(ctx, val, ttl, parts...); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return val, nil
	})
	if err != nil {
		return out, err
	}
	out, _ = v.(T)
	return out, nil
}
