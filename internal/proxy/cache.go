package proxy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mindharmony/mindharmony/internal/advisory"
)

// Cache stores analyses by request key.
type Cache interface {
	Get(ctx context.Context, key string) (*advisory.Analysis, bool, error)
	Set(ctx context.Context, key string, a *advisory.Analysis, ttl time.Duration) error
}

// CacheKey hashes the canonical JSON encoding of req.
func CacheKey(req advisory.Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

const redisKeyPrefix = "advisory:"

type redisCache struct {
	client *redis.Client
}

// NewRedisCache returns a Cache backed by client.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (*advisory.Analysis, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	a, err := advisory.Parse(data)
	if err != nil {
		// A stale entry that no longer parses is a miss.
		return nil, false, nil
	}
	return a, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, a *advisory.Analysis, ttl time.Duration) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err()
}

// MemoryCache is an in-process Cache used when no Redis address is set.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	analysis advisory.Analysis
	expires  time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*advisory.Analysis, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	a := e.analysis
	a.CopingStrategies = append([]string(nil), e.analysis.CopingStrategies...)
	return &a, true, nil
}

// Set stores a copy of a. A zero ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, a *advisory.Analysis, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{analysis: *a}
	e.analysis.CopingStrategies = append([]string(nil), a.CopingStrategies...)
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
