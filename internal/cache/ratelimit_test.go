package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_CheckSignInRateLimit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := c.CheckSignInRateLimit(ctx, "203.0.113.7", 1, 2)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
	}

	res, err := c.CheckSignInRateLimit(ctx, "203.0.113.7", 1, 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Greater(t, res.RetryAfter, 50*time.Second, "one token per minute")
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)

	// Other clients have their own bucket
	res, err = c.CheckSignInRateLimit(ctx, "198.51.100.1", 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Remaining)
}

func TestCache_CheckSignInRateLimit_KeyNeverHoldsRawIP(t *testing.T) {
	c, mr := newTestCache(t)

	_, err := c.CheckSignInRateLimit(context.Background(), "203.0.113.7", 10, 5)
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, rateLimitSignInPrefix+hashIP("203.0.113.7"), keys[0])
	assert.NotContains(t, keys[0], "203.0.113.7")
	assert.Positive(t, mr.TTL(keys[0]))
}

func TestCache_CheckSignInRateLimit_Unlimited(t *testing.T) {
	c, mr := newTestCache(t)

	res, err := c.CheckSignInRateLimit(context.Background(), "203.0.113.7", 0, 5)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Empty(t, mr.Keys())
}

func TestCache_CheckSignInRateLimit_RedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.CheckSignInRateLimit(context.Background(), "203.0.113.7", 1, 1)
	require.Error(t, err)
}

func TestHashIP(t *testing.T) {
	a := hashIP("192.168.1.100")
	assert.Equal(t, a, hashIP("192.168.1.100"))
	assert.NotEqual(t, a, hashIP("192.168.1.101"))
	assert.Len(t, a, 16)
	assert.Len(t, hashIP("2001:0db8:85a3:0000:0000:8a2e:0370:7334"), 16)
}
