/*
Package planning provides the core production-requirements and feasibility engine.

PURPOSE:
  This package contains the domain types and algorithms for hierarchical
  production planning: exploding a multi-level bill of materials (BOM) into
  time-phased raw-material and labor requirements, and evaluating whether a
  production plan is achievable against finite stock, workforce-hour and
  production-line-capacity constraints.

KEY CONCEPTS IN THIS FILE (types.go):
  - Item: A producible or consumable thing (raw material, intermediate,
    finished product, packaging)
  - BOMEdge: A parent→child "consumes" relation with quantity-per-unit,
    yield percentage and production lead time
  - Demand: External top-level demand (item, quantity, due date)
  - Requirement: Engine-computed leaf-level material requirement
  - ProductionOrder: Engine-computed intermediate order with back-scheduled
    start date
  - Status/Severity: Feasibility tier classification

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all quantities to avoid
     floating-point drift in aggregation invariants
  2. Type Safety: Strong typing for item/line/order IDs
  3. Derived snapshots: Requirement and ProductionOrder values are
     regenerated wholesale on every recomputation, never patched

SEE ALSO:
  - bucket.go: Year→month→week→day time-bucket trees
  - explosion.go: Recursive BOM explosion
  - feasibility.go: Status classification and roll-up
  - session.go: Plan editor orchestration
*/
package planning

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ItemID string
type LineID string
type OrderID string

// =============================================================================
// ITEM - Catalog entry
// =============================================================================

// Category classifies an item's role in the BOM.
type Category string

const (
	CategoryRawMaterial  Category = "raw_material"
	CategoryIntermediate Category = "intermediate"
	CategoryFinished     Category = "finished"
	CategoryPackaging    Category = "packaging"
)

// Item is a producible or consumable thing. Identity is immutable;
// CurrentStock is a snapshot value supplied by an external stock
// collaborator and refreshed per evaluation, never owned by this engine.
type Item struct {
	ID           ItemID
	Code         string
	Name         string
	Unit         string
	Category     Category
	CurrentStock decimal.Decimal
	SafetyStock  decimal.Decimal
	MaxStock     decimal.Decimal
}

// =============================================================================
// BOM EDGE - Parent consumes child
// =============================================================================

// EdgeType tags the role of a consumption edge.
type EdgeType string

const (
	EdgeMainIngredient    EdgeType = "main_ingredient"
	EdgeSupportIngredient EdgeType = "support_ingredient"
	EdgePackaging         EdgeType = "packaging"
	EdgeLabor             EdgeType = "labor"
)

// BOMEdge is a directed parent→child relation. YieldPercentage is the
// fraction (0 < y ≤ 100) of child input that survives conversion into
// parent output; yield loss strictly increases upstream demand.
type BOMEdge struct {
	ParentID            ItemID
	ChildID             ItemID
	QuantityPerUnit     decimal.Decimal
	YieldPercentage     decimal.Decimal
	ProductionTimeHours float64
	Type                EdgeType
}

// =============================================================================
// DEMAND - External top-level demand
// =============================================================================

// Demand is a quantity of a top-level item required by a due date.
// Owned externally (sales/production plan) and consumed read-only.
type Demand struct {
	ItemID   ItemID
	Quantity decimal.Decimal
	DueDate  Date
}

// =============================================================================
// REQUIREMENT - Engine-computed leaf requirement
// =============================================================================

// Severity classifies a single requirement against current stock.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Requirement is a leaf-level material requirement produced by one
// explosion run. NetShortage = max(0, required + safetyStock − available),
// saturating at zero.
type Requirement struct {
	ItemID            ItemID
	DueDate           Date
	RequiredQuantity  decimal.Decimal
	AvailableQuantity decimal.Decimal
	SafetyStock       decimal.Decimal
	NetShortage       decimal.Decimal
	Severity          Severity
	Level             int
}

// =============================================================================
// PRODUCTION ORDER - Engine-computed intermediate order
// =============================================================================

// ProductionOrder is an ephemeral output of one explosion run: one unit of
// work converting child material into parent item, back-scheduled from the
// parent's due date.
type ProductionOrder struct {
	ID                  OrderID
	ParentItemID        ItemID
	ChildItemID         ItemID
	Quantity            decimal.Decimal
	StartDate           Date
	CompletionDate      Date
	ProductionTimeHours float64
	YieldPercentage     decimal.Decimal
	Level               int
}

// =============================================================================
// FEASIBILITY STATUS
// =============================================================================

// Status is a feasibility tier for one (item, period) pair.
type Status string

const (
	StatusNone     Status = "none"
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusExcess   Status = "excess"
)

// statusRank orders tiers for worst-child roll-up. A single critical child
// forces the parent critical regardless of siblings; ok, excess and none
// collapse to "best".
var statusRank = map[Status]int{
	StatusCritical: 3,
	StatusWarning:  2,
	StatusOK:       1,
	StatusExcess:   1,
	StatusNone:     0,
}

// WorstStatus returns the worst of the given tiers, or StatusNone when the
// list is empty.
func WorstStatus(statuses ...Status) Status {
	worst := StatusNone
	for _, s := range statuses {
		if statusRank[s] > statusRank[worst] {
			worst = s
		}
	}
	return worst
}

// =============================================================================
// QUANTITY HELPERS
// =============================================================================

// Qty builds a decimal quantity from a float. Convenience for callers and
// tests; engine-internal math stays in decimal space.
func Qty(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// QtyInt builds a decimal quantity from an integer.
func QtyInt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// clampZero saturates a quantity at zero; degenerate but legal inputs
// (zero stock, oversupply) never raise errors.
func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
