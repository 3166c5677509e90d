package alert

import (
	"context"
	"sync"
	"testing"

	"coinpaprika-price-alerts/internal/database"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutThenLoad(t *testing.T) {
	for _, target := range []string{"50000.00", "0.00000001", "1", "123456789.123456789"} {
		t.Run(target, func(t *testing.T) {
			ctx := context.Background()
			store := NewStore(newMemBackend())

			require.NoError(t, store.Put(ctx, "BTC", d(target)))

			alerts, err := store.Load(ctx)
			require.NoError(t, err)
			require.Len(t, alerts, 1)
			assert.True(t, d(target).Equal(alerts["BTC"]))
		})
	}
}

func TestPutWithSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(database.NewKV(db, "price_alerts"))
	require.NoError(t, store.Put(ctx, "eth", d("3000.00")))

	alerts, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "ETH", alerts[0].AssetID)
	assert.True(t, d("3000").Equal(alerts[0].TargetPrice))
	assert.False(t, alerts[0].CreatedAt.IsZero())

	removed, err := store.RemoveIf(ctx, "ETH", alerts[0].TargetPrice)
	require.NoError(t, err)
	assert.True(t, removed)

	empty, err := store.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestPutRejectsNonPositiveTargets(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemBackend())
	require.NoError(t, store.Put(ctx, "BTC", d("100")))

	for _, target := range []string{"0", "-1", "-0.0001"} {
		err := store.Put(ctx, "BTC", d(target))

		var invalid *InvalidAlertError
		require.True(t, errors.As(err, &invalid), target)
	}

	alerts, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, d("100").Equal(alerts["BTC"]))
}

func TestPutStringRejectsNonNumericTargets(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemBackend())

	for _, raw := range []string{"", "abc", "1.2.3", "50k", "0", "-5"} {
		_, err := store.PutString(ctx, "SOL", raw)

		var invalid *InvalidAlertError
		require.True(t, errors.As(err, &invalid), raw)
	}

	empty, err := store.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	target, err := store.PutString(ctx, "SOL", " 150.5 ")
	require.NoError(t, err)
	assert.True(t, d("150.5").Equal(target))

	alerts, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, d("150.5").Equal(alerts["SOL"]))
}

func TestPutRejectsEmptyAsset(t *testing.T) {
	err := NewStore(newMemBackend()).Put(context.Background(), "  ", d("1"))

	var invalid *InvalidAlertError
	assert.True(t, errors.As(err, &invalid))
}

func TestPutOverwritesPreviousAlert(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemBackend())

	require.NoError(t, store.Put(ctx, "btc", d("50000")))
	require.NoError(t, store.Put(ctx, "BTC", d("60000")))

	alerts, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, d("60000").Equal(alerts["BTC"]))
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemBackend())

	require.NoError(t, store.Remove(ctx, "DOGE"))
	require.NoError(t, store.Put(ctx, "DOGE", d("0.1")))
	require.NoError(t, store.Remove(ctx, "doge"))
	require.NoError(t, store.Remove(ctx, "DOGE"))

	empty, err := store.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestRemoveIfKeepsOverwrittenAlert(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemBackend())
	require.NoError(t, store.Put(ctx, "BTC", d("50000")))
	require.NoError(t, store.Put(ctx, "BTC", d("55000")))

	removed, err := store.RemoveIf(ctx, "BTC", d("50000"))
	require.NoError(t, err)
	assert.False(t, removed)

	alerts, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, d("55000").Equal(alerts["BTC"]))
}

func TestRemoveIfComparesStoredValueAsDecimal(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	backend := database.NewKV(db, "price_alerts")
	require.NoError(t, backend.Set(ctx, "alert_BTC", "50000.0"))
	require.NoError(t, backend.Set(ctx, "alert_ETH", "1.10"))
	store := NewStore(backend)

	removed, err := store.RemoveIf(ctx, "BTC", d("50000"))
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.RemoveIf(ctx, "ETH", d("1.2"))
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = store.RemoveIf(ctx, "ADA", d("1"))
	require.NoError(t, err)
	assert.False(t, removed)

	alerts, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, d("1.1").Equal(alerts["ETH"]))
}

func TestCountIgnoresUnreadableEntries(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	require.NoError(t, backend.Set(ctx, "alert_BAD", "abc"))
	require.NoError(t, backend.Set(ctx, "theme", "dark"))
	store := NewStore(backend)

	empty, err := store.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, store.Put(ctx, "BTC", d("50000")))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	alerts, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, alerts, n)
}

func TestLoadSkipsUnreadableEntries(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	require.NoError(t, backend.Set(ctx, "alert_BTC", "50000"))
	require.NoError(t, backend.Set(ctx, "alert_BAD", "not-a-price"))
	require.NoError(t, backend.Set(ctx, "alert_NEG", "-3"))
	require.NoError(t, backend.Set(ctx, "theme", "dark"))

	alerts, err := NewStore(backend).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.Contains(t, alerts, "BTC")
}

func TestBackendFailuresArePersistenceErrors(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	backend.failAll = true
	store := NewStore(backend)

	_, err := store.Load(ctx)
	assertPersistenceError(t, err, "load")

	err = store.Put(ctx, "BTC", d("1"))
	assertPersistenceError(t, err, "put")

	err = store.Remove(ctx, "BTC")
	assertPersistenceError(t, err, "remove")

	_, err = store.IsEmpty(ctx)
	assertPersistenceError(t, err, "count")
}

func assertPersistenceError(t *testing.T, err error, op string) {
	t.Helper()
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, op, perr.Op)
	assert.True(t, errors.Is(err, errBackendDown))
}

func TestConcurrentPutsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemBackend())

	var wg sync.WaitGroup
	for _, target := range []string{"1.00", "2.00"} {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, "ADA", d(target)))
		}(target)
	}
	wg.Wait()

	alerts, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	got := alerts["ADA"]
	assert.True(t, got.Equal(d("1")) || got.Equal(d("2")), got.String())
}
