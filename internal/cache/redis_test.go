package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shifthunter/backend/internal/cache"
	"github.com/shifthunter/backend/internal/config"
)

func setupCache(t *testing.T) *cache.RedisCache {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	return cache.NewRedisCache(cfg)
}

func TestWeeklyAcceptedIsScopedToTheWeek(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)

	lastWeek := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC) // a Sunday
	thisWeek := lastWeek.AddDate(0, 0, 7)

	require.NoError(t, c.SetWeeklyAccepted(ctx, 1, lastWeek, 5))

	// reads after the rollover key off the new week and miss, no matter
	// how recently the old entry was touched
	count, found, err := c.GetWeeklyAccepted(ctx, 1, lastWeek)
	require.NoError(t, err)
	require.True(t, found)
	assert.EqualValues(t, 5, count)

	_, found, err = c.GetWeeklyAccepted(ctx, 1, thisWeek)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateWeeklyAccepted(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)

	week := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.SetWeeklyAccepted(ctx, 1, week, 2))
	require.NoError(t, c.InvalidateWeeklyAccepted(ctx, 1, week))

	_, found, err := c.GetWeeklyAccepted(ctx, 1, week)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAuthSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)

	require.NoError(t, c.PutAuthSession(ctx, "token-1", 42, time.Hour))

	userID, err := c.GetAuthSession(ctx, "token-1")
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)

	require.NoError(t, c.DeleteAuthSession(ctx, "token-1"))

	_, err = c.GetAuthSession(ctx, "token-1")
	assert.ErrorIs(t, err, cache.ErrNoSession)
}
