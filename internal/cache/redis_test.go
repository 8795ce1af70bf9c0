package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/skiniq/internal/config"
)

type chatSummary struct {
	ID     string
	Unread int
}

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	c, err := InitServer(context.Background(), cfg, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedis_SetAndGet(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	expected := chatSummary{ID: "chat-1", Unread: 3}
	require.NoError(t, c.Set(ctx, "chats:all", expected, time.Minute))

	var actual chatSummary
	found, err := c.Get(ctx, "chats:all", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestRedis_GetNotFound(t *testing.T) {
	c, _ := setupTestRedis(t)

	var out chatSummary
	found, err := c.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_Expiry(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	assert.Equal(t, 30*time.Second, mr.TTL(KeyPrefix+"k"))

	mr.FastForward(30 * time.Second)

	var out string
	found, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_Delete(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, c.Delete(ctx, "key"))

	var out string
	found, err := c.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_ClearKeepsForeignKeys(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, mr.Set("other:key", "x"))

	require.NoError(t, c.Clear(ctx))

	assert.False(t, mr.Exists(KeyPrefix+"a"))
	assert.False(t, mr.Exists(KeyPrefix+"b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedis_GetInvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(KeyPrefix+"bad", "not-json"))

	var out chatSummary
	found, err := c.Get(context.Background(), "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:9999",
		DialTimeout:  100 * time.Millisecond,
	}

	c, err := InitServer(context.Background(), cfg, time.Second)
	assert.Nil(t, c)
	assert.Error(t, err)
}
