package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ResponseCache stores serialized HTTP responses in Redis. Backend
// failures never fail a request: a miss or error degrades to direct
// execution and no cache write.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewResponseCache creates a response cache with the environment TTL
func NewResponseCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *ResponseCache {
	return &ResponseCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("cache"),
	}
}

// TTL returns the configured time-to-live
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Key derives the cache key from the HTTP request surface: a colon-joined
// tuple of namespace, lowercased method, path, and the sorted query items.
// Headers and body are deliberately excluded.
func Key(namespace, method, path string, query url.Values) string {
	items := make([]string, 0, len(query))
	for name, values := range query {
		for _, value := range values {
			items = append(items, name+"="+value)
		}
	}
	sort.Strings(items)

	return strings.Join([]string{
		namespace,
		strings.ToLower(method),
		path,
		"[" + strings.Join(items, " ") + "]",
	}, ":")
}

// Get returns the cached payload for a key, or ok=false on miss or error
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return payload, true
}

// Set stores a payload under a key. Errors are logged, never returned.
func (c *ResponseCache) Set(ctx context.Context, key string, payload []byte) {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes every key under a namespace. Used by write endpoints
// whose mutations must become visible before the TTL runs out.
func (c *ResponseCache) Invalidate(ctx context.Context, namespace string) {
	pattern := fmt.Sprintf("%s:*", namespace)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Warn("cache invalidation failed", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("cache invalidation scan failed", zap.String("namespace", namespace), zap.Error(err))
	}
}
