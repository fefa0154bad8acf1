package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/planning-engine/factory"
	"github.com/warp/planning-engine/planning"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParseCatalog_ValidDocument(t *testing.T) {
	// GIVEN: A minimal valid catalog JSON
	// WHEN: Parsing it
	// THEN: Items and edges convert with exact decimals and enum types

	jsonStr := `{
		"items": [
			{"id": "salami", "code": "FIN-001", "name": "Salami", "unit": "kg",
			 "category": "finished", "current_stock": 120, "safety_stock": 50},
			{"id": "pork", "category": "raw_material", "current_stock": 300}
		],
		"edges": [
			{"parent_id": "salami", "child_id": "pork",
			 "quantity_per_unit": 0.8, "yield_percentage": 80,
			 "production_time_hours": 2, "type": "main_ingredient"}
		]
	}`

	f := factory.NewCatalogFactory()
	items, edges, err := f.ParseCatalog(jsonStr)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Len(t, edges, 1)

	assert.Equal(t, planning.CategoryFinished, items[0].Category)
	assert.True(t, items[0].CurrentStock.Equal(planning.Qty(120)))
	assert.True(t, edges[0].QuantityPerUnit.Equal(planning.Qty(0.8)))
	assert.Equal(t, planning.EdgeMainIngredient, edges[0].Type)
}

func TestParseCatalog_MalformedJSON(t *testing.T) {
	f := factory.NewCatalogFactory()
	_, _, err := f.ParseCatalog(`{"items": [`)
	assert.Error(t, err)
}

func TestConvert_EmptyCategoryAndTypeDefault(t *testing.T) {
	// GIVEN: Items and edges with category/type omitted
	// WHEN: Converting
	// THEN: They default to raw_material and main_ingredient

	f := factory.NewCatalogFactory()
	items, edges, err := f.Convert(factory.CatalogJSON{
		Items: []factory.ItemJSON{{ID: "a"}, {ID: "b"}},
		Edges: []factory.EdgeJSON{{ParentID: "a", ChildID: "b", QuantityPerUnit: 1, YieldPercentage: 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, planning.CategoryRawMaterial, items[0].Category)
	assert.Equal(t, planning.EdgeMainIngredient, edges[0].Type)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestConvert_RejectsDuplicateIDs(t *testing.T) {
	f := factory.NewCatalogFactory()
	_, _, err := f.Convert(factory.CatalogJSON{
		Items: []factory.ItemJSON{{ID: "a"}, {ID: "a"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestConvert_RejectsUnknownEdgeEndpoints(t *testing.T) {
	f := factory.NewCatalogFactory()
	_, _, err := f.Convert(factory.CatalogJSON{
		Items: []factory.ItemJSON{{ID: "a"}},
		Edges: []factory.EdgeJSON{{ParentID: "a", ChildID: "ghost", QuantityPerUnit: 1, YieldPercentage: 100}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestConvert_RejectsYieldOutOfRange(t *testing.T) {
	// GIVEN: Edges with yield 0 and yield 101
	// WHEN: Converting
	// THEN: Both are rejected; 100 is accepted

	f := factory.NewCatalogFactory()
	doc := func(yield float64) factory.CatalogJSON {
		return factory.CatalogJSON{
			Items: []factory.ItemJSON{{ID: "a"}, {ID: "b"}},
			Edges: []factory.EdgeJSON{{ParentID: "a", ChildID: "b", QuantityPerUnit: 1, YieldPercentage: yield}},
		}
	}

	_, _, err := f.Convert(doc(0))
	assert.Error(t, err)
	_, _, err = f.Convert(doc(101))
	assert.Error(t, err)
	_, _, err = f.Convert(doc(100))
	assert.NoError(t, err)
}

func TestConvert_RejectsNegativeStock(t *testing.T) {
	f := factory.NewCatalogFactory()
	_, _, err := f.Convert(factory.CatalogJSON{
		Items: []factory.ItemJSON{{ID: "a", CurrentStock: -1}},
	})
	assert.Error(t, err)
}

func TestConvert_RejectsUnknownEnums(t *testing.T) {
	f := factory.NewCatalogFactory()
	_, _, err := f.Convert(factory.CatalogJSON{
		Items: []factory.ItemJSON{{ID: "a", Category: "mystery"}},
	})
	assert.Error(t, err)

	_, _, err = f.Convert(factory.CatalogJSON{
		Items: []factory.ItemJSON{{ID: "a"}, {ID: "b"}},
		Edges: []factory.EdgeJSON{{ParentID: "a", ChildID: "b",
			QuantityPerUnit: 1, YieldPercentage: 100, Type: "mystery"}},
	})
	assert.Error(t, err)
}

func TestConvert_RejectsCyclicBOMAtParseTime(t *testing.T) {
	// GIVEN: A catalog whose edges form a → b → a
	// WHEN: Converting
	// THEN: The cycle is caught here, not at first explosion

	f := factory.NewCatalogFactory()
	_, _, err := f.Convert(factory.CatalogJSON{
		Items: []factory.ItemJSON{{ID: "a"}, {ID: "b"}},
		Edges: []factory.EdgeJSON{
			{ParentID: "a", ChildID: "b", QuantityPerUnit: 1, YieldPercentage: 100},
			{ParentID: "b", ChildID: "a", QuantityPerUnit: 1, YieldPercentage: 100},
		},
	})
	assert.ErrorIs(t, err, planning.ErrCycleDetected)
}
