// Package cache provides the Redis access layer for sessions and rate limits.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options tune the Redis client.
type Options struct {
	// KeyPrefix namespaces every key so several deployments can share one Redis.
	KeyPrefix       string
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultOptions returns pool settings sized for a single API instance.
func DefaultOptions() Options {
	return Options{
		PoolSize:        10,
		MinIdleConns:    2,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Cache provides Redis cache access methods.
type Cache struct {
	client *redis.Client
	prefix string
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = opts.PoolSize
	opt.MinIdleConns = opts.MinIdleConns
	opt.PoolTimeout = opts.PoolTimeout
	opt.ConnMaxIdleTime = opts.ConnMaxIdleTime

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client, prefix: opts.KeyPrefix}, nil
}

// NewWithClient wraps an existing Redis client without a key prefix.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// WithKeyPrefix returns a Cache sharing the client under another namespace.
func (c *Cache) WithKeyPrefix(prefix string) *Cache {
	return &Cache{client: c.client, prefix: prefix}
}

// key builds a namespaced Redis key.
func (c *Cache) key(kind, id string) string {
	return c.prefix + kind + id
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
