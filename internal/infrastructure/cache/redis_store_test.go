package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	appcache "github.com/riskibarqy/sportsfeed/internal/platform/cache"
)

func setupRedis(ctx context.Context, t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client, err := OpenRedis(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(setupRedis(ctx, t), "sportsfeed:")

	_, ok, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "mapping:soccer", []byte(`{"1204":"Spain"}`), time.Minute))
	raw, ok, err := store.Load(ctx, "mapping:soccer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"1204":"Spain"}`, string(raw))

	require.NoError(t, store.Delete(ctx, "mapping:soccer"))
	_, ok, err = store.Load(ctx, "mapping:soccer")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_ZeroTTLSkipsWrite(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(setupRedis(ctx, t), "sportsfeed:")

	require.NoError(t, store.Save(ctx, "k", []byte("v"), 0))
	_, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_WorksWithRemember(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(setupRedis(ctx, t), "sportsfeed:")

	calls := 0
	load := func(context.Context) (map[string]string, error) {
		calls++
		return map[string]string{"1399": "Spain"}, nil
	}
	for i := 0; i < 3; i++ {
		got, err := appcache.Remember(ctx, store, "league-map", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "Spain", got["1399"])
	}
	assert.Equal(t, 1, calls)
}

func TestOpenRedis_InvalidURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not a url")
	require.Error(t, err)
}
