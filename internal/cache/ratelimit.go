package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitSignInPrefix is the Redis key prefix for sign-in rate limits.
	rateLimitSignInPrefix = "ratelimit:signin:"
	// rateLimitIdleTTL drops buckets that have been idle long enough to be full again.
	rateLimitIdleTTL = 2 * time.Minute
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and takes one token atomically.
// Times are in milliseconds; the refill rate is tokens per millisecond.
//
// Returns {allowed, retry_after_ms, remaining_tokens}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
	tokens = burst
	ts = now
end

if now > ts then
	tokens = math.min(burst, tokens + (now - ts) * rate)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	wait = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'ts', tostring(now))
redis.call('PEXPIRE', key, ttl)

return {allowed, wait, math.floor(tokens)}
`)

// CheckSignInRateLimit takes one sign-in attempt from the bucket of ip.
// The IP is hashed before it is used as a key. ratePerMinute <= 0 disables the limit.
// Redis errors are returned; callers decide whether to fail open.
func (c *Cache) CheckSignInRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*RateLimitResult, error) {
	now := time.Now()

	if ratePerMinute <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: now}, nil
	}
	if burst < 1 {
		burst = 1
	}

	perMilli := float64(ratePerMinute) / float64(time.Minute/time.Millisecond)

	res, err := tokenBucketScript.Run(ctx, c.client,
		[]string{c.key(rateLimitSignInPrefix, hashIP(ip))},
		perMilli, burst, now.UnixMilli(), rateLimitIdleTTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("redis rate limit: unexpected reply %v", res)
	}

	refill := time.Duration(float64(time.Millisecond) / perMilli)
	result := &RateLimitResult{
		Allowed:   res[0] == 1,
		Remaining: res[2],
		ResetAt:   now.Add(refill),
	}
	if !result.Allowed {
		result.RetryAfter = time.Duration(res[1]) * time.Millisecond
		result.ResetAt = now.Add(result.RetryAfter)
	}

	return result, nil
}

// hashIP keys rate limits without storing raw client addresses.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
