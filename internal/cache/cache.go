package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// DefaultRoadmapTTL is how long a cached roadmap stays fresh.
const DefaultRoadmapTTL = time.Hour

type localEntry struct {
	data      []byte
	expiresAt time.Time
}

// Client is a pass-through key/value cache with TTL. When no Redis client is
// supplied it degrades to a process-local map so callers never need to branch
// on cache availability.
type Client struct {
	redis  *redis.Client
	prefix string

	mu    sync.RWMutex
	local map[string]localEntry
}

func NewClient(redisClient *redis.Client, prefix string) *Client {
	return &Client{
		redis:  redisClient,
		prefix: prefix,
		local:  make(map[string]localEntry),
	}
}

func (c *Client) key(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Set marshals value and stores it under key with the given TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if c.redis == nil {
		c.mu.Lock()
		c.local[c.key(key)] = localEntry{data: data, expiresAt: time.Now().Add(ttl)}
		c.mu.Unlock()
		return nil
	}

	return c.redis.Set(ctx, c.key(key), data, ttl).Err()
}

// Get retrieves and unmarshals the value stored under key into dest.
func (c *Client) Get(ctx context.Context, key string, dest any) error {
	var data []byte

	if c.redis == nil {
		c.mu.RLock()
		entry, ok := c.local[c.key(key)]
		c.mu.RUnlock()
		if !ok || time.Now().After(entry.expiresAt) {
			return ErrCacheMiss
		}
		data = entry.data
	} else {
		raw, err := c.redis.Get(ctx, c.key(key)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrCacheMiss
			}
			return fmt.Errorf("failed to get from cache: %w", err)
		}
		data = []byte(raw)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return nil
}

// Delete removes key from the cache. Missing keys are not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c.redis == nil {
		c.mu.Lock()
		delete(c.local, c.key(key))
		c.mu.Unlock()
		return nil
	}
	return c.redis.Del(ctx, c.key(key)).Err()
}

// Exists reports whether key is present and unexpired.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if c.redis == nil {
		c.mu.RLock()
		entry, ok := c.local[c.key(key)]
		c.mu.RUnlock()
		return ok && time.Now().Before(entry.expiresAt), nil
	}
	n, err := c.redis.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
