//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/retailerp/chitledger/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisStore(t *testing.T) *cache.RedisIdempotencyStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	store, err := cache.NewRedisIdempotencyStore(ctx, cache.RedisConfig{Addr: endpoint})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisIdempotencyStore_Lifecycle(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()
	key := "user:staff-1:POST:/api/v1/chit/installments:abc"

	claimed, err := store.MarkProcessed(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.MarkProcessed(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim must lose")

	_, found, err := store.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, found, "pending marker is not a result")

	require.NoError(t, store.SaveResult(ctx, key, []byte(`{"status":201}`), time.Minute))
	result, found, err := store.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"status":201}`, string(result))

	require.NoError(t, store.Release(ctx, key))
	processed, err := store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRedisIdempotencyStore_ClaimExpires(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	claimed, err := store.MarkProcessed(ctx, "short", time.Second)
	require.NoError(t, err)
	require.True(t, claimed)

	assert.Eventually(t, func() bool {
		ok, err := store.MarkProcessed(ctx, "short", time.Second)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond)
}
