package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Total float64            `json:"total"`
	ByJob map[string]float64 `json:"by_job"`
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](2, time.Minute)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	_, _ = c.Get(ctx, "a")
	c.Set(ctx, "c", 3)

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", "v")
	c.Set(ctx, "other", "v")
	now = now.Add(30 * time.Second)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUCachePurge(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](10, time.Minute)
	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	require.NoError(t, c.Purge(ctx))
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := NewRedisCache[report](client, "payflow:report", time.Minute)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	want := report{Total: 12.5, ByJob: map[string]float64{"Cafe": 12.5}}
	c.Set(ctx, "k", want)
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.True(t, mr.Exists("payflow:report:0:k"))

	require.NoError(t, c.Purge(ctx))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "purge must hide earlier entries")

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("payflow:report:0:k"))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	client.Close()

	_, err = NewRedisClient(context.Background(), "::bad")
	assert.Error(t, err)
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Second))
	m.Stop()

	m.StartCleanup(10 * time.Millisecond)
	m.StartCleanup(10 * time.Millisecond)
	m.Stop()
}
