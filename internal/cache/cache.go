// Package cache is the entity-keyed request cache: list and row reads are
// served from Redis when possible, and every mutation deletes the affected
// keys so the next read re-fetches from the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-landscaping/internal/logger"
)

type Cache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{Client: client, TTL: ttl, Logger: log}
}

// ListKey is the cache key for an entity's list view, scoped to an event
// when parent is non-empty.
func ListKey(entity, parent string) string {
	if parent == "" {
		return entity
	}
	return fmt.Sprintf("%s:event:%s", entity, parent)
}

// ItemKey is the cache key for a single row.
func ItemKey(entity, id string) string {
	return fmt.Sprintf("%s:%s", entity, id)
}

// ReportKey is the cache key for a per-event progress report.
func ReportKey(eventID string) string {
	return "report:" + eventID
}

// Get unmarshals the cached value for key into dest. The bool reports a
// cache hit; a miss is not an error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || c.Client == nil {
		return false, nil
	}
	raw, err := c.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.Client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

// Set stores value under key with the configured TTL. Failures are logged
// and swallowed; the cache is never load-bearing.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil || c.Client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if err := c.Client.Set(ctx, key, raw, c.TTL).Err(); err != nil {
		if c.Logger != nil {
			c.Logger.Warn("CACHE", fmt.Sprintf("Failed to set %s: %v", key, err))
		}
		return nil
	}
	return nil
}

// Invalidate deletes the given keys. Called after every mutation.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.Client == nil || len(keys) == 0 {
		return nil
	}
	if err := c.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	if c.Logger != nil {
		c.Logger.LogCache("INVALIDATE", fmt.Sprintf("%v", keys), "entries dropped")
	}
	return nil
}
