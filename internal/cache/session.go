package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// sessionCachePrefix is the Redis key prefix for resolved sessions.
	sessionCachePrefix = "session:principal:"
	// revokedPrefix is the Redis key prefix for revoked session ids.
	revokedPrefix = "session:revoked:"
	// SessionCacheTTL caps how long a resolved session stays cached.
	SessionCacheTTL = 5 * time.Minute
)

// CachedSession represents a resolved session stored in Redis.
type CachedSession struct {
	TokenID   string `json:"jti"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ExpiresAt int64  `json:"expires_at"`
}

// GetSession retrieves a cached session by token hash.
// Returns nil on a cache miss or a corrupted entry.
func (c *Cache) GetSession(ctx context.Context, tokenHash string) (*CachedSession, error) {
	data, err := c.client.Get(ctx, c.key(sessionCachePrefix, tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var cached CachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr
	}

	return &cached, nil
}

// SetSession caches a resolved session for at most SessionCacheTTL.
// A non-positive ttl stores nothing.
func (c *Cache) SetSession(ctx context.Context, tokenHash string, session *CachedSession, ttl time.Duration) error {
	if ttl > SessionCacheTTL {
		ttl = SessionCacheTTL
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, c.key(sessionCachePrefix, tokenHash), data, ttl).Err()
}

// DeleteSession removes a cached session.
// Used on sign-out.
func (c *Cache) DeleteSession(ctx context.Context, tokenHash string) error {
	return c.client.Del(ctx, c.key(sessionCachePrefix, tokenHash)).Err()
}

// RevokeSession denylists a session id until the token would have expired anyway.
func (c *Cache) RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, c.key(revokedPrefix, tokenID), "1", ttl).Err()
}

// IsSessionRevoked reports whether a session id has been denylisted.
func (c *Cache) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(revokedPrefix, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revoked: %w", err)
	}
	return n > 0, nil
}
