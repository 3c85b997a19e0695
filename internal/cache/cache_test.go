package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-landscaping/internal/cache"
	"ms-landscaping/internal/models"
)

func setupTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return cache.New(client, time.Minute, nil), mr
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	event := models.Event{EventID: "ev1", Name: "Backyard terracing", Status: models.EventStatusPlanned}
	require.NoError(t, c.Set(ctx, cache.ItemKey("events", "ev1"), event))

	var got models.Event
	hit, err := c.Get(ctx, cache.ItemKey("events", "ev1"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Backyard terracing", got.Name)
}

func TestCacheMiss(t *testing.T) {
	c, _ := setupTestCache(t)

	var got models.Event
	hit, err := c.Get(context.Background(), cache.ItemKey("events", "nope"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheInvalidate(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, cache.ListKey("events", ""), []models.Event{{EventID: "ev1"}}))
	require.NoError(t, c.Set(ctx, cache.ItemKey("events", "ev1"), models.Event{EventID: "ev1"}))

	require.NoError(t, c.Invalidate(ctx, cache.ListKey("events", ""), cache.ItemKey("events", "ev1")))

	var got []models.Event
	hit, err := c.Get(ctx, cache.ListKey("events", ""), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheCorruptEntryTreatedAsMiss(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	mr.Set(cache.ItemKey("events", "ev1"), "{not json")

	var got models.Event
	hit, err := c.Get(ctx, cache.ItemKey("events", "ev1"), &got)
	require.NoError(t, err)
	assert.False(t, hit)

	// The corrupt entry is dropped so the next write starts clean.
	assert.False(t, mr.Exists(cache.ItemKey("events", "ev1")))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "events", cache.ListKey("events", ""))
	assert.Equal(t, "tasks_done:event:ev1", cache.ListKey("tasks_done", "ev1"))
	assert.Equal(t, "equipment:eq9", cache.ItemKey("equipment", "eq9"))
	assert.Equal(t, "report:ev1", cache.ReportKey("ev1"))
}
