package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T, namespace string) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return NewRedisKV(rdb, namespace), mr
}

func TestRedisKVSetAndAll(t *testing.T) {
	ctx := context.Background()
	kv, _ := newTestKV(t, "price_alerts")

	require.NoError(t, kv.Set(ctx, "alert_ETH", "3000"))
	require.NoError(t, kv.Set(ctx, "alert_BTC", "50000"))
	require.NoError(t, kv.Set(ctx, "alert_BTC", "49000"))

	entries, err := kv.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alert_BTC", entries[0].Key)
	assert.Equal(t, "49000", entries[0].Value)
	assert.False(t, entries[0].UpdatedAt.IsZero())
	assert.Equal(t, "alert_ETH", entries[1].Key)
}

func TestRedisKVDelete(t *testing.T) {
	ctx := context.Background()
	kv, mr := newTestKV(t, "price_alerts")

	require.NoError(t, kv.Delete(ctx, "alert_ADA"))
	require.NoError(t, kv.Set(ctx, "alert_ADA", "1"))
	require.NoError(t, kv.Delete(ctx, "alert_ADA"))

	entries, err := kv.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, mr.Exists("price_alerts:created"))
}

func TestRedisKVDeleteIf(t *testing.T) {
	ctx := context.Background()
	kv, _ := newTestKV(t, "price_alerts")
	require.NoError(t, kv.Set(ctx, "alert_SOL", "150"))

	deleted, err := kv.DeleteIf(ctx, "alert_SOL", "151")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = kv.DeleteIf(ctx, "alert_SOL", "150")
	require.NoError(t, err)
	assert.True(t, deleted)

	entries, err := kv.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRedisKVNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	kv, mr := newTestKV(t, "price_alerts")
	mr.HSet("other", "alert_BTC", "1")

	entries, err := kv.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
