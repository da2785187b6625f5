package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"verdant/internal/platform/redis"
)

// DefaultCacheTTL bounds how stale a cached permission set can get. Grants
// and role changes invalidate eagerly, so the TTL only covers writers that
// bypass this process.
const DefaultCacheTTL = 30 * time.Second

// Cache stores computed permission sets keyed by organization and user.
type Cache interface {
	Get(ctx context.Context, orgID int64, userID string) ([]string, bool, error)
	Set(ctx context.Context, orgID int64, userID string, permissions []string) error
	Invalidate(ctx context.Context, orgID int64, userID string) error
}

func cacheKey(orgID int64, userID string) string {
	return fmt.Sprintf("permissions:%d:%s", orgID, userID)
}

// RedisCache caches permission sets in Redis so permission checks across a
// fleet of instances share one source of truth.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, orgID int64, userID string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(orgID, userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached permissions: %w", err)
	}

	var permissions []string
	if err := json.Unmarshal(raw, &permissions); err != nil {
		return nil, false, fmt.Errorf("decode cached permissions: %w", err)
	}
	return permissions, true, nil
}

func (c *RedisCache) Set(ctx context.Context, orgID int64, userID string, permissions []string) error {
	raw, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(orgID, userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache permissions: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, orgID int64, userID string) error {
	if err := c.client.Del(ctx, cacheKey(orgID, userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached permissions: %w", err)
	}
	return nil
}

type memoryCacheEntry struct {
	permissions []string
	expiresAt   time.Time
}

// MemoryCache is a process-local Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the cache clock for deterministic expiry tests.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Get(_ context.Context, orgID int64, userID string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(orgID, userID)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	out := make([]string, len(entry.permissions))
	copy(out, entry.permissions)
	return out, true, nil
}

func (c *MemoryCache) Set(_ context.Context, orgID int64, userID string, permissions []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]string, len(permissions))
	copy(stored, permissions)
	c.entries[cacheKey(orgID, userID)] = memoryCacheEntry{
		permissions: stored,
		expiresAt:   c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, orgID int64, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, cacheKey(orgID, userID))
	return nil
}
