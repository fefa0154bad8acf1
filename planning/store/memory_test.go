package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/planning-engine/planning"
	"github.com/warp/planning-engine/planning/store"
)

func TestMemory_EmptyAnswersNotAvailable(t *testing.T) {
	// GIVEN: A Memory with nothing loaded
	// WHEN: Asking each provider role
	// THEN: ErrNotAvailable comes back instead of invented sample data

	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.Items(ctx)
	assert.ErrorIs(t, err, planning.ErrNotAvailable)
	_, err = mem.Stock(ctx)
	assert.ErrorIs(t, err, planning.ErrNotAvailable)
	_, err = mem.Workforce(ctx, 2026)
	assert.ErrorIs(t, err, planning.ErrNotAvailable)
	_, err = mem.Capacity(ctx, 2026)
	assert.ErrorIs(t, err, planning.ErrNotAvailable)
}

func TestMemory_LoadedDataRoundTrips(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	mem.LoadCatalog([]planning.Item{{ID: "a", Category: planning.CategoryFinished}}, nil)
	mem.LoadStock(map[planning.ItemID]decimal.Decimal{"a": planning.Qty(5)}, time.Now())

	items, err := mem.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	snap, err := mem.Stock(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Levels["a"].Equal(planning.Qty(5)))
}

func TestMemory_ReturnsCopies(t *testing.T) {
	// GIVEN: A loaded catalog
	// WHEN: A caller mutates the returned slice
	// THEN: The provider's own data is unaffected

	mem := store.NewMemory()
	mem.LoadCatalog([]planning.Item{{ID: "a"}}, nil)

	items, err := mem.Items(context.Background())
	require.NoError(t, err)
	items[0].ID = "mutated"

	again, err := mem.Items(context.Background())
	require.NoError(t, err)
	assert.Equal(t, planning.ItemID("a"), again[0].ID)
}
