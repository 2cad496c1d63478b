package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := NewLoginLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := int64(2); i >= 0; i-- {
		ok, remaining, err := limiter.Allow(ctx, "10.0.0.1", "Admin@WineMarket.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, i, remaining)
	}

	ok, remaining, err := limiter.Allow(ctx, "10.0.0.1", "admin@winemarket.com")
	require.NoError(t, err)
	assert.False(t, ok, "email is case-insensitive")
	assert.Zero(t, remaining)

	ok, _, err = limiter.Allow(ctx, "10.0.0.2", "admin@winemarket.com")
	require.NoError(t, err)
	assert.True(t, ok, "other addresses have their own budget")

	mr.FastForward(2 * time.Minute)
	ok, _, err = limiter.Allow(ctx, "10.0.0.1", "admin@winemarket.com")
	require.NoError(t, err)
	assert.True(t, ok, "window expired")

	require.NoError(t, limiter.Reset(ctx, "10.0.0.1", "admin@winemarket.com"))
	_, remaining, err = limiter.Allow(ctx, "10.0.0.1", "admin@winemarket.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)
}
