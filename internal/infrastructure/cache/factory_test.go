package cache

import (
	"context"
	"testing"
	"time"

	"github.com/retailerp/chitledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestIdempotencyStoreFactory_RedisDisabled(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false}, config.IdempotencyConfig{CleanupInterval: time.Minute},
		WithLogger(zaptest.NewLogger(t)))

	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_UnreachableRedis(t *testing.T) {
	// port 1 is never a Redis server
	redisCfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("falls back to memory", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(redisCfg, config.IdempotencyConfig{}, WithLogger(zaptest.NewLogger(t)))
		store, err := f.CreateStore(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(redisCfg, config.IdempotencyConfig{}, WithInMemoryFallback(false))
		store, err := f.CreateStore(context.Background())
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}
