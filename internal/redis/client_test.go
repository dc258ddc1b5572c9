package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient(&Config{
		Address:  mr.Addr(),
		Password: "",
		DB:       0,
		PoolSize: 10,
	})
	require.NoError(t, err)

	return client, mr
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	t.Run("successful connection", func(t *testing.T) {
		client, err := NewClient(&Config{Address: mr.Addr(), PoolSize: 5})
		assert.NoError(t, err)
		assert.NotNil(t, client)

		err = client.Close()
		assert.NoError(t, err)
	})

	t.Run("nil config", func(t *testing.T) {
		client, err := NewClient(nil)
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("connection failure", func(t *testing.T) {
		client, err := NewClient(&Config{Address: "invalid:99999"})
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("sets default pool size", func(t *testing.T) {
		config := &Config{Address: mr.Addr(), PoolSize: 0}
		client, err := NewClient(config)
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, 10, config.PoolSize)
	})
}

func TestClient_Health(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	t.Run("healthy connection", func(t *testing.T) {
		assert.NoError(t, client.Health())
	})

	t.Run("unhealthy connection", func(t *testing.T) {
		mr.Close()
		assert.Error(t, client.Health())
	})
}

func TestClient_KeyValue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		err := client.Set(ctx, "test:key", "hello", time.Hour)
		assert.NoError(t, err)

		value, found, err := client.Get(ctx, "test:key")
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "hello", value)
	})

	t.Run("missing key is not an error", func(t *testing.T) {
		value, found, err := client.Get(ctx, "non:existent")
		assert.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, value)
	})

	t.Run("delete key", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "test:delete", "value", time.Hour))
		require.NoError(t, client.Delete(ctx, "test:delete"))

		_, found, err := client.Get(ctx, "test:delete")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete missing key is not an error", func(t *testing.T) {
		assert.NoError(t, client.Delete(ctx, "never:set"))
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := client.Exists(ctx, "test:exists")
		assert.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, client.Set(ctx, "test:exists", "value", time.Hour))

		exists, err = client.Exists(ctx, "test:exists")
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("flush removes every key", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "flush:a", "1", time.Hour))
		require.NoError(t, client.Set(ctx, "flush:b", "2", time.Hour))

		require.NoError(t, client.Flush(ctx))

		_, found, err := client.Get(ctx, "flush:a")
		assert.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, mr.Keys())
	})

	t.Run("set with expiration", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "test:expiry", "soon gone", time.Second))

		_, found, err := client.Get(ctx, "test:expiry")
		assert.NoError(t, err)
		assert.True(t, found)

		mr.FastForward(2 * time.Second)

		_, found, err = client.Get(ctx, "test:expiry")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("operations on closed connection fail", func(t *testing.T) {
		mr.Close()

		assert.Error(t, client.Set(ctx, "test:key", "value", time.Hour))
		_, _, err := client.Get(ctx, "test:key")
		assert.Error(t, err)
	})
}
