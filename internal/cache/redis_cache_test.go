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

type countingObserver struct {
	hits   map[string]int
	misses map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{hits: map[string]int{}, misses: map[string]int{}}
}

func (o *countingObserver) CacheHit(family string)  { o.hits[family]++ }
func (o *countingObserver) CacheMiss(family string) { o.misses[family]++ }

type listing struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func setupCache(t *testing.T) (*RedisCache, *miniredis.Miniredis, *countingObserver) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	obs := newCountingObserver()
	return NewRedisCache(client, obs), mr, obs
}

func TestRedisCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c, _, obs := setupCache(t)

	require.NoError(t, c.Set(ctx, "server:1", listing{ID: "1", Name: "Alpha"}, time.Minute))

	var got listing
	found, err := c.Get(ctx, "server:1", &got)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Alpha", got.Name)
	assert.Equal(t, 1, obs.hits["server"])
}

func TestRedisCache_Miss(t *testing.T) {
	c, _, obs := setupCache(t)

	var got listing
	found, err := c.Get(context.Background(), "servers:all", &got)

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, obs.misses["servers"])
}

func TestRedisCache_TTL(t *testing.T) {
	ctx := context.Background()
	c, mr, _ := setupCache(t)

	require.NoError(t, c.Set(ctx, "theme:server:alpha", listing{ID: "1"}, 30*time.Minute))
	assert.Equal(t, 30*time.Minute, mr.TTL("theme:server:alpha"))

	mr.FastForward(31 * time.Minute)

	var got listing
	found, err := c.Get(ctx, "theme:server:alpha", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_DeleteMany(t *testing.T) {
	ctx := context.Background()
	c, mr, _ := setupCache(t)

	require.NoError(t, c.Set(ctx, "server:1", listing{ID: "1"}, time.Minute))
	require.NoError(t, c.Set(ctx, "servers:all", []listing{{ID: "1"}}, time.Minute))

	require.NoError(t, c.Delete(ctx, "server:1", "servers:all", "server:missing"))
	require.NoError(t, c.Delete(ctx))

	assert.False(t, mr.Exists("server:1"))
	assert.False(t, mr.Exists("servers:all"))
}

func TestRedisCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr, obs := setupCache(t)
	require.NoError(t, mr.Set("server:1", "{not json"))

	var got listing
	found, err := c.Get(context.Background(), "server:1", &got)

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, obs.misses["server"])
}

func TestRedisCache_ConnectionErrorSurfaces(t *testing.T) {
	c, mr, _ := setupCache(t)
	mr.Close()

	var got listing
	found, err := c.Get(context.Background(), "server:1", &got)

	assert.Error(t, err)
	assert.False(t, found)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestFamily(t *testing.T) {
	assert.Equal(t, "server", Family("server:slug:alpha"))
	assert.Equal(t, "plain", Family("plain"))
}
