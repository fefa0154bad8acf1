/*
Package factory provides JSON to Go catalog conversion.

PURPOSE:
  Converts JSON catalog and BOM definitions into planning.Item and
  planning.BOMEdge values. This enables catalog configuration without code
  changes - planners can define items and recipes in JSON, and the factory
  creates the proper Go structs with validation.

JSON SCHEMA:
  {
    "items": [
      {
        "id": "salami",
        "code": "PRD-001",
        "name": "Premium Salami",
        "unit": "kg",
        "category": "finished",
        "current_stock": 120,
        "safety_stock": 50,
        "max_stock": 2000
      }
    ],
    "edges": [
      {
        "parent_id": "salami",
        "child_id": "pork-shoulder",
        "quantity_per_unit": 0.8,
        "yield_percentage": 100,
        "production_time_hours": 2,
        "type": "main_ingredient"
      }
    ]
  }

VALIDATION:
  - Item ids must be unique and non-empty
  - Edge endpoints must reference declared items
  - quantity_per_unit must be >= 0
  - yield_percentage must be in (0, 100]
  - The full edge set must be acyclic (checked via Graph.Validate)

SEE ALSO:
  - planning/bom.go: Graph built from the parsed values
  - api/scenarios.go: Demo catalogs expressed in this JSON schema
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/planning-engine/planning"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CatalogJSON is the JSON representation of an item catalog plus BOM.
type CatalogJSON struct {
	Items []ItemJSON `json:"items"`
	Edges []EdgeJSON `json:"edges"`
}

// ItemJSON is the JSON representation of one catalog item.
type ItemJSON struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	Category     string  `json:"category"`
	CurrentStock float64 `json:"current_stock"`
	SafetyStock  float64 `json:"safety_stock"`
	MaxStock     float64 `json:"max_stock"`
}

// EdgeJSON is the JSON representation of one BOM edge.
type EdgeJSON struct {
	ParentID            string  `json:"parent_id"`
	ChildID             string  `json:"child_id"`
	QuantityPerUnit     float64 `json:"quantity_per_unit"`
	YieldPercentage     float64 `json:"yield_percentage"`
	ProductionTimeHours float64 `json:"production_time_hours"`
	Type                string  `json:"type"`
}

// =============================================================================
// FACTORY
// =============================================================================

// CatalogFactory converts JSON catalog definitions into planning types.
type CatalogFactory struct{}

func NewCatalogFactory() *CatalogFactory { return &CatalogFactory{} }

// ParseCatalog parses and validates a JSON catalog document.
func (f *CatalogFactory) ParseCatalog(jsonStr string) ([]planning.Item, []planning.BOMEdge, error) {
	var doc CatalogJSON
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	return f.Convert(doc)
}

// Convert validates an already-decoded document and builds planning types.
func (f *CatalogFactory) Convert(doc CatalogJSON) ([]planning.Item, []planning.BOMEdge, error) {
	seen := make(map[string]bool, len(doc.Items))
	items := make([]planning.Item, 0, len(doc.Items))
	for i, it := range doc.Items {
		if it.ID == "" {
			return nil, nil, fmt.Errorf("item %d: missing id", i)
		}
		if seen[it.ID] {
			return nil, nil, fmt.Errorf("item %q: duplicate id", it.ID)
		}
		seen[it.ID] = true

		category, err := parseCategory(it.Category)
		if err != nil {
			return nil, nil, fmt.Errorf("item %q: %w", it.ID, err)
		}
		if it.CurrentStock < 0 || it.SafetyStock < 0 || it.MaxStock < 0 {
			return nil, nil, fmt.Errorf("item %q: stock values must be >= 0", it.ID)
		}

		items = append(items, planning.Item{
			ID:           planning.ItemID(it.ID),
			Code:         it.Code,
			Name:         it.Name,
			Unit:         it.Unit,
			Category:     category,
			CurrentStock: decimal.NewFromFloat(it.CurrentStock),
			SafetyStock:  decimal.NewFromFloat(it.SafetyStock),
			MaxStock:     decimal.NewFromFloat(it.MaxStock),
		})
	}

	edges := make([]planning.BOMEdge, 0, len(doc.Edges))
	for i, e := range doc.Edges {
		if !seen[e.ParentID] {
			return nil, nil, fmt.Errorf("edge %d: unknown parent %q", i, e.ParentID)
		}
		if !seen[e.ChildID] {
			return nil, nil, fmt.Errorf("edge %d: unknown child %q", i, e.ChildID)
		}
		if e.QuantityPerUnit < 0 {
			return nil, nil, fmt.Errorf("edge %s->%s: quantity_per_unit must be >= 0", e.ParentID, e.ChildID)
		}
		if e.YieldPercentage <= 0 || e.YieldPercentage > 100 {
			return nil, nil, fmt.Errorf("edge %s->%s: yield_percentage must be in (0, 100]", e.ParentID, e.ChildID)
		}

		edgeType, err := parseEdgeType(e.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %s->%s: %w", e.ParentID, e.ChildID, err)
		}

		edges = append(edges, planning.BOMEdge{
			ParentID:            planning.ItemID(e.ParentID),
			ChildID:             planning.ItemID(e.ChildID),
			QuantityPerUnit:     decimal.NewFromFloat(e.QuantityPerUnit),
			YieldPercentage:     decimal.NewFromFloat(e.YieldPercentage),
			ProductionTimeHours: e.ProductionTimeHours,
			Type:                edgeType,
		})
	}

	// Reject cyclic BOMs at parse time rather than at first explosion.
	if err := planning.NewGraph(items, edges).Validate(); err != nil {
		return nil, nil, err
	}
	return items, edges, nil
}

func parseCategory(s string) (planning.Category, error) {
	switch planning.Category(s) {
	case planning.CategoryRawMaterial, planning.CategoryIntermediate,
		planning.CategoryFinished, planning.CategoryPackaging:
		return planning.Category(s), nil
	case "":
		return planning.CategoryRawMaterial, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func parseEdgeType(s string) (planning.EdgeType, error) {
	switch planning.EdgeType(s) {
	case planning.EdgeMainIngredient, planning.EdgeSupportIngredient,
		planning.EdgePackaging, planning.EdgeLabor:
		return planning.EdgeType(s), nil
	case "":
		return planning.EdgeMainIngredient, nil
	}
	return "", fmt.Errorf("unknown edge type %q", s)
}
