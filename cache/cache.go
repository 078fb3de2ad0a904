// Package cache keeps raw listing pages in Redis so re-extraction does not
// hit the network.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// PageCache stores listing HTML keyed by listing id.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache constructs a PageCache with a 24-hour TTL.
func NewPageCache(client *redis.Client) *PageCache {
	return &PageCache{client: client, ttl: defaultTTL}
}

func key(id string) string {
	return "listing:html:" + strings.TrimSpace(id)
}

// Get returns the cached page. A miss is "", false, nil.
func (c *PageCache) Get(ctx context.Context, id string) (string, bool, error) {
	val, err := c.client.Get(ctx, key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache get for listing %s: %w", id, err)
	}
	return val, true, nil
}

// Set stores a page. Empty pages are not cached.
func (c *PageCache) Set(ctx context.Context, id, html string) error {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	if err := c.client.Set(ctx, key(id), html, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for listing %s: %w", id, err)
	}
	return nil
}

// Delete drops a cached page.
func (c *PageCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("cache delete for listing %s: %w", id, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *PageCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
