package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dropkickfish/barq-client/internal/catalog"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"github.com/dropkickfish/barq-client/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() store.Record {
	return store.Record{
		Items: []ledger.LineItem{
			{Item: catalog.Item{ID: "ipa", Name: "IPA", Price: decimal.RequireFromString("5.50")}, Quantity: 2},
			{Item: catalog.Item{ID: "cola", Name: "Cola", Price: decimal.RequireFromString("2.35"), ImageRef: "/img/cola.png"}, Quantity: 1},
		},
		SpecialWishes: "extra lime",
	}
}

// exerciseBackend runs the bridge contract against any backend.
func exerciseBackend(t *testing.T, backend store.Backend) {
	t.Helper()
	ctx := context.Background()
	b := store.NewBridge(backend, "kiosk-test", nil)

	rec, err := b.LoadOrder(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec, "empty store should load nothing")

	want := sampleRecord()
	require.NoError(t, b.SaveOrder(ctx, want))

	got, err := b.LoadOrder(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "ipa", got.Items[0].ID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, want.Items[0].Price.Equal(got.Items[0].Price))
	assert.Equal(t, "/img/cola.png", got.Items[1].ImageRef)
	assert.Equal(t, "extra lime", got.SpecialWishes)
	assert.False(t, got.HasOrder())

	paid := want
	paid.Status = "paid"
	paid.OrderID = "ord-42"
	paid.OrderStatus = "QUEUED"
	require.NoError(t, b.SaveOrder(ctx, paid))

	got, err = b.LoadOrder(ctx)
	require.NoError(t, err)
	assert.True(t, got.HasOrder())
	assert.Equal(t, "ord-42", got.OrderID)
	assert.Equal(t, "QUEUED", got.OrderStatus)

	require.NoError(t, b.Clear(ctx))
	got, err = b.LoadOrder(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing twice is fine.
	require.NoError(t, b.Clear(ctx))
}

func TestBridgeMemory(t *testing.T) {
	exerciseBackend(t, store.NewMemoryBackend())
}

func TestBridgeSQLite(t *testing.T) {
	backend, err := store.OpenSQLite(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	exerciseBackend(t, backend)
}

func TestBridgeSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.db")
	ctx := context.Background()

	first, err := store.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.NewBridge(first, "k", nil).SaveOrder(ctx, sampleRecord()))
	require.NoError(t, first.Close())

	second, err := store.OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()
	rec, err := store.NewBridge(second, "k", nil).LoadOrder(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.Items, 2)
}

func TestBridgePostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	backend, pool, err := store.OpenPostgres(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	exerciseBackend(t, backend)
}

func TestBridgeRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	backend := store.NewRedisBackend(addr, "", 0)
	t.Cleanup(func() { _ = backend.Close() })
	require.NoError(t, backend.Ping(context.Background()))
	exerciseBackend(t, backend)
}

func TestSessionsDoNotShareRecords(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	a := store.NewBridge(backend, "a", nil)
	b := store.NewBridge(backend, "b", nil)

	require.NoError(t, a.SaveOrder(ctx, sampleRecord()))
	rec, err := b.LoadOrder(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, "a:order", a.Key())
}

func TestLoadOrderCorrupt(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	b := store.NewBridge(backend, "k", nil)
	require.NoError(t, backend.Put(ctx, b.Key(), []byte("{not json")))

	rec, err := b.LoadOrder(ctx)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, store.ErrCorruptRecord)
}

func TestRecordPaid(t *testing.T) {
	cart := sampleRecord()
	assert.False(t, cart.Paid())

	noID := sampleRecord()
	noID.Status = "paid"
	assert.True(t, noID.Paid())
	assert.False(t, noID.HasOrder())

	withID := store.Record{OrderID: "ord-1"}
	assert.True(t, withID.Paid())
}
