// Package cache provides the short-TTL counter cache used by the
// scheduling validations.  The cache is an injected dependency rather
// than a package-level singleton so the service layer can run against
// Redis in production, the in-memory store when Redis is unavailable,
// and a fresh store per test.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the contract the scheduling layer depends on: compute-through
// reads of small integer counters and explicit invalidation.  Producers
// run only on a miss; their result is stored under the key for ttl.
type Store interface {
	// GetOrComputeInt returns the cached value for key, or runs producer,
	// caches its result for ttl and returns it.
	GetOrComputeInt(ctx context.Context, key string, ttl time.Duration, producer func() (int, error)) (int, error)
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Redis implements Store on a Redis client.  Cache failures degrade to
// calling the producer directly; a broken cache must never break a
// capacity check.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps a connected Redis client.
func NewRedis(client *redis.Client) *Redis { return &Redis{client: client} }

// GetOrComputeInt reads the key and falls back to producer on miss or on
// any Redis error.  The computed value is written back best-effort.
func (r *Redis) GetOrComputeInt(ctx context.Context, key string, ttl time.Duration, producer func() (int, error)) (int, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == nil {
		if n, convErr := strconv.Atoi(val); convErr == nil {
			return n, nil
		}
	}
	n, err := producer()
	if err != nil {
		return 0, err
	}
	_ = r.client.Set(ctx, key, strconv.Itoa(n), ttl).Err()
	return n, nil
}

// Delete removes the keys; errors are ignored beyond being returned so
// callers can log them.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// memoryEntry is one cached value with its expiry instant.
type memoryEntry struct {
	value     int
	expiresAt time.Time
}

// Memory is a process-local Store used when no Redis client could be
// established at startup, and by tests.  Entries expire lazily on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// GetOrComputeInt returns a live cached value or computes and stores one.
func (m *Memory) GetOrComputeInt(ctx context.Context, key string, ttl time.Duration, producer func() (int, error)) (int, error) {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok && time.Now().Before(e.expiresAt) {
		m.mu.Unlock()
		return e.value, nil
	}
	m.mu.Unlock()
	n, err := producer()
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: n, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return n, nil
}

// Delete removes the keys if present.
func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}
