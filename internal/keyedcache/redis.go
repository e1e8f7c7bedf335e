package keyedcache

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	registrySuffix = "::__tracked__"
	// pruneEvery is how many Track calls pass between two registry prunes.
	pruneEvery = 1024
)

// RedisBackend keeps the key registry in a redis set so every process sees it.
// Members whose key has expired are removed when the registry is listed.
type RedisBackend struct {
	client      *redis.Client
	registryKey string
	ownsClient  bool
	tracks      atomic.Int64
}

func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{
		client:      client,
		registryKey: prefix + registrySuffix,
	}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisBackend) Track(ctx context.Context, key string) error {
	if err := r.client.SAdd(ctx, r.registryKey, key).Err(); err != nil {
		return err
	}
	if r.tracks.Add(1)%pruneEvery == 0 {
		_, err := r.Tracked(ctx)
		return err
	}
	return nil
}

func (r *RedisBackend) Tracked(ctx context.Context) ([]string, error) {
	keys, err := r.client.SMembers(ctx, r.registryKey).Result()
	if err != nil || len(keys) == 0 {
		return keys, err
	}

	pipe := r.client.Pipeline()
	exists := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		exists[i] = pipe.Exists(ctx, storageKey(k))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	live := make([]string, 0, len(keys))
	var gone []string
	for i, k := range keys {
		if exists[i].Val() > 0 {
			live = append(live, k)
		} else {
			gone = append(gone, k)
		}
	}
	if err := r.Untrack(ctx, gone...); err != nil {
		return nil, err
	}
	sort.Strings(live)
	return live, nil
}

func (r *RedisBackend) Untrack(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	return r.client.SRem(ctx, r.registryKey, members...).Err()
}

func (r *RedisBackend) Close() error {
	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}
