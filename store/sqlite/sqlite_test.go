package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/planning-engine/planning"
	"github.com/warp/planning-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testCatalog() ([]planning.Item, []planning.BOMEdge) {
	items := []planning.Item{
		{ID: "salami", Code: "FIN-001", Name: "Salami", Unit: "kg",
			Category:     planning.CategoryFinished,
			CurrentStock: planning.Qty(120), SafetyStock: planning.Qty(50), MaxStock: planning.Qty(2000)},
		{ID: "pork", Code: "RAW-001", Name: "Pork", Unit: "kg",
			Category:     planning.CategoryRawMaterial,
			CurrentStock: planning.Qty(300.5), SafetyStock: planning.Qty(100), MaxStock: planning.Qty(5000)},
	}
	edges := []planning.BOMEdge{
		{ParentID: "salami", ChildID: "pork",
			QuantityPerUnit: planning.Qty(0.8), YieldPercentage: planning.Qty(80),
			ProductionTimeHours: 2, Type: planning.EdgeMainIngredient},
	}
	return items, edges
}

// =============================================================================
// CATALOG
// =============================================================================

func TestStore_CatalogRoundTrip(t *testing.T) {
	// GIVEN: A catalog saved to the store
	// WHEN: Reading it back
	// THEN: Items and edges survive with exact decimal values

	store := newTestStore(t)
	ctx := context.Background()
	items, edges := testCatalog()
	require.NoError(t, store.SaveCatalog(ctx, items, edges))

	gotItems, err := store.Items(ctx)
	require.NoError(t, err)
	require.Len(t, gotItems, 2)
	assert.Equal(t, planning.ItemID("pork"), gotItems[0].ID) // ordered by id
	assert.True(t, gotItems[0].CurrentStock.Equal(planning.Qty(300.5)))

	gotEdges, err := store.Edges(ctx)
	require.NoError(t, err)
	require.Len(t, gotEdges, 1)
	assert.True(t, gotEdges[0].YieldPercentage.Equal(planning.Qty(80)))
	assert.Equal(t, planning.EdgeMainIngredient, gotEdges[0].Type)
}

func TestStore_EmptyCatalogIsNotAvailable(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Items(context.Background())
	assert.ErrorIs(t, err, planning.ErrNotAvailable)
}

func TestStore_SaveCatalogReplacesWholesale(t *testing.T) {
	// GIVEN: A saved catalog
	// WHEN: Saving a different one
	// THEN: The old rows are gone

	store := newTestStore(t)
	ctx := context.Background()
	items, edges := testCatalog()
	require.NoError(t, store.SaveCatalog(ctx, items, edges))

	require.NoError(t, store.SaveCatalog(ctx,
		[]planning.Item{{ID: "bread", Category: planning.CategoryFinished}}, nil))

	got, err := store.Items(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, planning.ItemID("bread"), got[0].ID)
}

// =============================================================================
// STOCK
// =============================================================================

func TestStore_StockSnapshotFromCatalogColumns(t *testing.T) {
	// GIVEN: A saved catalog and a stock update for one item
	// WHEN: Taking a stock snapshot
	// THEN: The updated level is visible and TakenAt is recent

	store := newTestStore(t)
	ctx := context.Background()
	items, edges := testCatalog()
	require.NoError(t, store.SaveCatalog(ctx, items, edges))

	require.NoError(t, store.UpdateStock(ctx, map[planning.ItemID]decimal.Decimal{
		"pork": planning.Qty(42),
	}))

	snap, err := store.Stock(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Levels["pork"].Equal(planning.Qty(42)))
	assert.True(t, snap.Levels["salami"].Equal(planning.Qty(120)))
	assert.WithinDuration(t, time.Now(), snap.TakenAt, 5*time.Second)
}

// =============================================================================
// WORKFORCE
// =============================================================================

func TestStore_WorkforceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	days := map[time.Month]decimal.Decimal{
		time.January:  planning.Qty(20),
		time.February: planning.Qty(18.5),
	}
	require.NoError(t, store.SaveWorkforce(ctx, 2026, days))

	snap, err := store.Workforce(ctx, 2026)
	require.NoError(t, err)
	assert.True(t, snap.DaysAvailable[time.February].Equal(planning.Qty(18.5)))

	_, err = store.Workforce(ctx, 2027)
	assert.ErrorIs(t, err, planning.ErrNotAvailable)
}

// =============================================================================
// LINE CAPACITY
// =============================================================================

func TestStore_CapacityRoundTripFiltersYear(t *testing.T) {
	// GIVEN: Capacity rows in two different years
	// WHEN: Loading one year
	// THEN: Only that year's dates come back

	store := newTestStore(t)
	ctx := context.Background()

	snap := planning.CapacitySnapshot{
		TakenAt: time.Now(),
		Lines: map[planning.LineID]map[planning.Date]planning.CapacityDay{
			"line-1": {
				planning.NewDate(2026, time.June, 1): {
					AvailableHours: planning.Qty(16), ConsumedHours: planning.Qty(4)},
				planning.NewDate(2027, time.June, 1): {
					AvailableHours: planning.Qty(16)},
			},
		},
	}
	require.NoError(t, store.SaveCapacity(ctx, snap))

	got, err := store.Capacity(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, got.Lines["line-1"], 1)
	day := got.Lines["line-1"][planning.NewDate(2026, time.June, 1)]
	assert.True(t, day.ConsumedHours.Equal(planning.Qty(4)))
}

// =============================================================================
// PLAN VALUES
// =============================================================================

func TestStore_PlanRowRoundTripSkipsZeros(t *testing.T) {
	// GIVEN: A tree with values on two days
	// WHEN: Saving and reloading the row
	// THEN: Only the non-zero days come back, with exact values

	store := newTestStore(t)
	ctx := context.Background()

	tree := planning.BuildTree(2026, planning.NewDate(2026, time.January, 1), nil, nil)
	_, err := tree.SetLeafValue(planning.NewDate(2026, time.May, 10), planning.Qty(25))
	require.NoError(t, err)
	_, err = tree.SetLeafValue(planning.NewDate(2026, time.May, 11), planning.Qty(0.5))
	require.NoError(t, err)

	require.NoError(t, store.SavePlanRow(ctx, "salami", planning.RowProductionPlan, tree))

	values, err := store.PlanRow(ctx, "salami", planning.RowProductionPlan, 2026)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.True(t, values[planning.NewDate(2026, time.May, 10)].Equal(planning.Qty(25)))
	assert.True(t, values[planning.NewDate(2026, time.May, 11)].Equal(planning.Qty(0.5)))
}

func TestStore_SeedRebuildsTreeFromSavedValues(t *testing.T) {
	// GIVEN: A saved plan row
	// WHEN: Building a tree through the store's seed function
	// THEN: The rebuilt tree reproduces the saved totals

	store := newTestStore(t)
	ctx := context.Background()
	items, edges := testCatalog()
	require.NoError(t, store.SaveCatalog(ctx, items, edges))

	tree := planning.BuildTree(2026, planning.NewDate(2026, time.January, 1), nil, nil)
	_, err := tree.SetAggregateValue(planning.MonthKey(time.May), planning.Qty(310))
	require.NoError(t, err)
	require.NoError(t, store.SavePlanRow(ctx, "salami", planning.RowProductionPlan, tree))

	seed, err := store.Seed(ctx, 2026)
	require.NoError(t, err)

	rebuilt := planning.BuildTree(2026, planning.NewDate(2026, time.January, 1),
		seed("salami", planning.RowProductionPlan), nil)
	assert.True(t, rebuilt.Total.Equal(planning.Qty(310)))

	month, err := rebuilt.Aggregate(planning.MonthKey(time.May))
	require.NoError(t, err)
	assert.True(t, month.Equal(planning.Qty(310)))
}

// =============================================================================
// RESET
// =============================================================================

func TestStore_ResetClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	items, edges := testCatalog()
	require.NoError(t, store.SaveCatalog(ctx, items, edges))
	require.NoError(t, store.SaveWorkforce(ctx, 2026,
		map[time.Month]decimal.Decimal{time.January: planning.Qty(20)}))

	require.NoError(t, store.Reset(ctx))

	_, err := store.Items(ctx)
	assert.ErrorIs(t, err, planning.ErrNotAvailable)
	_, err = store.Workforce(ctx, 2026)
	assert.ErrorIs(t, err, planning.ErrNotAvailable)
}

// =============================================================================
// SESSION INTEGRATION
// =============================================================================

func TestStore_BacksAPlanningSession(t *testing.T) {
	// GIVEN: A store holding catalog, workforce and a saved plan
	// WHEN: Opening a session on its providers
	// THEN: The session evaluates without touching in-memory fixtures

	store := newTestStore(t)
	ctx := context.Background()
	items, edges := testCatalog()
	require.NoError(t, store.SaveCatalog(ctx, items, edges))
	days := make(map[time.Month]decimal.Decimal)
	for m := time.January; m <= time.December; m++ {
		days[m] = planning.Qty(20)
	}
	require.NoError(t, store.SaveWorkforce(ctx, 2026, days))

	seed, err := store.Seed(ctx, 2026)
	require.NoError(t, err)

	session, err := planning.NewSession(ctx, planning.SessionConfig{
		Year:      2026,
		Today:     planning.NewDate(2026, time.January, 1),
		Providers: store.Providers(),
		Seed:      seed,
	})
	require.NoError(t, err)

	_, err = session.EditDay(ctx, "salami", planning.RowProductionPlan,
		planning.NewDate(2026, time.June, 15), planning.Qty(100))
	require.NoError(t, err)
	require.NotNil(t, session.Report())
}
