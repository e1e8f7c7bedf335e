// Package keyedcache stores JSON values under hierarchical "::" keys.
// Deleting a key also deletes every key below it.
package keyedcache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	KeySeparator = "::"
	// MaxKeyLength is the memcached key limit; longer keys are hashed.
	MaxKeyLength = 250
)

var (
	ErrNotCached = errors.New("not cached")
	ErrEmptyKey  = errors.New("cache key has no parts")
)

// Pairs renders as sorted k=v items so map order never changes the key.
type Pairs map[string]any

type Stats struct {
	Enabled bool  `json:"enabled"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Tracked int   `json:"tracked"`
}

type Cache struct {
	backend Backend
	prefix  string
	timeout time.Duration
	enabled bool
	logger  *zap.Logger

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

type Option func(*Cache)

func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithTimeout sets the ttl used when Set is given zero.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Cache) {
		c.timeout = timeout
	}
}

func WithEnabled(enabled bool) Option {
	return func(c *Cache) {
		c.enabled = enabled
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		timeout: 5 * time.Minute,
		enabled: true,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Enabled() bool {
	return c.enabled
}

// Key builds the full key for parts, before any hashing.
func (c *Cache) Key(parts ...any) string {
	segments := make([]string, 0, len(parts)+1)
	if c.prefix != "" {
		segments = append(segments, c.prefix)
	}
	for _, part := range parts {
		s := formatPart(part)
		if s == "" {
			continue
		}
		segments = append(segments, strings.ReplaceAll(s, " ", "_"))
	}
	return strings.Join(segments, KeySeparator)
}

func (c *Cache) key(parts []any) (string, error) {
	key := c.Key(parts...)
	if key == "" || key == c.prefix {
		return "", ErrEmptyKey
	}
	return key, nil
}

func storageKey(key string) string {
	if len(key) <= MaxKeyLength {
		return key
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func formatPart(part any) string {
	switch v := part.(type) {
	case nil:
		return ""
	case string:
		return v
	case Pairs:
		return formatPairs(v)
	case map[string]any:
		return formatPairs(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatPairs(pairs map[string]any) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]string, len(keys))
	for i, k := range keys {
		items[i] = k + "=" + formatPart(pairs[k])
	}
	return strings.Join(items, ",")
}

// Set stores value under parts. A zero ttl uses the cache timeout.
func (c *Cache) Set(ctx context.Context, value any, ttl time.Duration, parts ...any) error {
	if !c.enabled {
		return nil
	}
	key, err := c.key(parts)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.timeout
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value %s: %w", key, err)
	}
	if err := c.backend.Set(ctx, storageKey(key), data, ttl); err != nil {
		return fmt.Errorf("set cache key %s: %w", key, err)
	}
	if err := c.backend.Track(ctx, key); err != nil {
		return fmt.Errorf("track cache key %s: %w", key, err)
	}

	c.logger.Debug("cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// Get decodes the value stored under parts into dst. It returns ErrNotCached
// on a miss or when the cache is disabled. A stored nil is a hit.
func (c *Cache) Get(ctx context.Context, dst any, parts ...any) error {
	if !c.enabled {
		c.misses.Add(1)
		return ErrNotCached
	}
	key, err := c.key(parts)
	if err != nil {
		return err
	}

	data, err := c.backend.Get(ctx, storageKey(key))
	if errors.Is(err, ErrNotCached) {
		c.misses.Add(1)
		return ErrNotCached
	}
	if err != nil {
		return fmt.Errorf("get cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		// stale shape after a type change
		_ = c.backend.Delete(ctx, storageKey(key))
		c.misses.Add(1)
		return ErrNotCached
	}

	c.hits.Add(1)
	return nil
}

// Delete removes the key for parts and every tracked key below it.
// It returns how many tracked keys were removed.
func (c *Cache) Delete(ctx context.Context, parts ...any) (int, error) {
	key, err := c.key(parts)
	if err != nil {
		return 0, err
	}

	tracked, err := c.backend.Tracked(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tracked keys: %w", err)
	}

	childPrefix := key + KeySeparator
	victims := []string{key}
	for _, k := range tracked {
		if strings.HasPrefix(k, childPrefix) {
			victims = append(victims, k)
		}
	}

	return c.deleteKeys(ctx, victims)
}

func (c *Cache) DeleteAll(ctx context.Context) (int, error) {
	tracked, err := c.backend.Tracked(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tracked keys: %w", err)
	}
	return c.deleteKeys(ctx, tracked)
}

func (c *Cache) deleteKeys(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	stored := make([]string, len(keys))
	for i, k := range keys {
		stored[i] = storageKey(k)
	}
	if err := c.backend.Delete(ctx, stored...); err != nil {
		return 0, fmt.Errorf("delete cache keys: %w", err)
	}
	if err := c.backend.Untrack(ctx, keys...); err != nil {
		return 0, fmt.Errorf("untrack cache keys: %w", err)
	}

	c.logger.Debug("cache delete", zap.Strings("keys", keys))
	return len(keys), nil
}

func (c *Cache) Stats(ctx context.Context) Stats {
	stats := Stats{
		Enabled: c.enabled,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
	if tracked, err := c.backend.Tracked(ctx); err == nil {
		stats.Tracked = len(tracked)
	}
	return stats
}

func (c *Cache) Close() error {
	return c.backend.Close()
}
