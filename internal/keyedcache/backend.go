package keyedcache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Backend stores raw bytes and keeps the registry of keys set through the cache.
type Backend interface {
	// Get returns ErrNotCached on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	Track(ctx context.Context, key string) error
	Tracked(ctx context.Context) ([]string, error)
	Untrack(ctx context.Context, keys ...string) error

	Close() error
}

// sweepInterval is the least time between two sweeps of expired entries.
const sweepInterval = time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryBackend expires entries on read, and sweeps expired entries and
// their tracked keys while writing.
type MemoryBackend struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	tracked   map[string]struct{}
	now       func() time.Time
	nextSweep time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		tracked: make(map[string]struct{}),
		now:     time.Now,
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrNotCached
	}
	if entry.expired(m.now()) {
		delete(m.entries, key)
		return nil, ErrNotCached
	}
	return entry.value, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !now.Before(m.nextSweep) {
		m.sweep(now)
		m.nextSweep = now.Add(sweepInterval)
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

// sweep drops expired entries and the tracked keys left without one.
// The caller holds mu.
func (m *MemoryBackend) sweep(now time.Time) {
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	for k := range m.tracked {
		if _, ok := m.entries[storageKey(k)]; !ok {
			delete(m.tracked, k)
		}
	}
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MemoryBackend) Track(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tracked[key] = struct{}{}
	return nil
}

// Tracked lists the tracked keys that still have a live entry.
func (m *MemoryBackend) Tracked(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(m.now())
	keys := make([]string, 0, len(m.tracked))
	for k := range m.tracked {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) Untrack(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.tracked, k)
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
