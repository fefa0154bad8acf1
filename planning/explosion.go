/*
explosion.go - Recursive BOM explosion

PURPOSE:
  Walks the BOM graph from a top-level demand (item, quantity, due date)
  down to the leaves, producing:
  (a) a flat list of leaf-level requirements, accumulated per
      (item, due date) - multiple demands landing on the same key are
      summed, never overwritten;
  (b) one production order per traversed edge, with a start date
      back-scheduled from the due date by the edge's production time in
      working days (weekends skipped).

YIELD MATH:
  childQuantity = quantity * qtyPerUnit / (yield / 100). Yield loss
  strictly increases upstream demand, never decreases it.

CYCLE DETECTION:
  A visiting set tracks the current recursion path only - the same item may
  legitimately appear at multiple points of a convergent BOM as long as it
  is not its own ancestor. Hitting an item already on the path aborts the
  whole explosion with a CycleError carrying the offending path; a cyclic
  BOM is a data error that must surface, not be truncated.

COMPLEXITY:
  O(E) edge visits per explosion where E is the edges reachable from the
  demand item; the visiting set adds O(depth) per node.

SEE ALSO:
  - bom.go: Graph the explosion walks
  - feasibility.go: Consumes the requirements produced here
*/
package planning

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExplosionResult is the full breakdown of one explosion run. Regenerated
// wholesale on every recomputation.
type ExplosionResult struct {
	Requirements []Requirement
	Orders       []ProductionOrder
}

// Explode computes the multi-level material and production-order breakdown
// for a single demand. The returned requirements are in first-reached
// order; orders are in traversal order. Availability comes from the
// catalog's stock column, so callers holding a fresher stock snapshot
// should use ExplodeAll.
func (g *Graph) Explode(demand Demand) (*ExplosionResult, error) {
	ex := &explosion{
		graph:    g,
		visiting: make(map[ItemID]bool),
		reqs:     make(map[requirementKey]*Requirement),
	}
	if err := ex.walk(demand.ItemID, demand.Quantity, demand.DueDate, 0); err != nil {
		return nil, err
	}
	return &ExplosionResult{Requirements: ex.requirements(), Orders: ex.orders}, nil
}

// ExplodeAll runs one explosion per demand and merges the results. Any
// graph error aborts the whole call; no partial result is returned.
// Requirement availability and severity classify against the given stock
// snapshot; items the snapshot does not cover (or a zero snapshot) fall
// back to the catalog's stock column.
func (g *Graph) ExplodeAll(demands []Demand, stock StockSnapshot) (*ExplosionResult, error) {
	ex := &explosion{
		graph:    g,
		visiting: make(map[ItemID]bool),
		reqs:     make(map[requirementKey]*Requirement),
		stock:    stock.Levels,
	}
	for _, d := range demands {
		if err := ex.walk(d.ItemID, d.Quantity, d.DueDate, 0); err != nil {
			return nil, err
		}
	}
	return &ExplosionResult{Requirements: ex.requirements(), Orders: ex.orders}, nil
}

// =============================================================================
// EXPLOSION STATE
// =============================================================================

type requirementKey struct {
	ItemID ItemID
	Due    string
}

type explosion struct {
	graph    *Graph
	visiting map[ItemID]bool
	path     []ItemID
	reqs     map[requirementKey]*Requirement
	order    []requirementKey // First-reached order of requirement keys.
	orders   []ProductionOrder
	stock    map[ItemID]decimal.Decimal // Overrides catalog stock when set.
}

func (ex *explosion) walk(id ItemID, quantity decimal.Decimal, dueDate Date, level int) error {
	item, err := ex.graph.Item(id)
	if err != nil {
		return err
	}

	children := ex.graph.Children(id)
	if len(children) == 0 {
		ex.accumulate(item, quantity, dueDate, level)
		return nil
	}

	ex.visiting[id] = true
	ex.path = append(ex.path, id)
	defer func() {
		delete(ex.visiting, id)
		ex.path = ex.path[:len(ex.path)-1]
	}()

	for _, edge := range children {
		if ex.visiting[edge.ChildID] {
			return &CycleError{Path: append(append([]ItemID{}, ex.path...), edge.ChildID)}
		}

		childQty := childQuantity(quantity, edge)
		startDate := SubtractWorkingDays(dueDate, ProductionLeadDays(edge.ProductionTimeHours))

		ex.orders = append(ex.orders, ProductionOrder{
			ID:                  OrderID(uuid.NewString()),
			ParentItemID:        id,
			ChildItemID:         edge.ChildID,
			Quantity:            quantity,
			StartDate:           startDate,
			CompletionDate:      dueDate,
			ProductionTimeHours: edge.ProductionTimeHours,
			YieldPercentage:     edge.YieldPercentage,
			Level:               level,
		})

		if err := ex.walk(edge.ChildID, childQty, startDate, level+1); err != nil {
			return err
		}
	}
	return nil
}

// childQuantity applies quantity-per-unit and yield loss. A non-positive
// yield is treated as 100% rather than dividing by zero; the factory and
// providers reject such edges up front.
func childQuantity(parentQty decimal.Decimal, edge BOMEdge) decimal.Decimal {
	qty := parentQty.Mul(edge.QuantityPerUnit)
	if edge.YieldPercentage.IsPositive() {
		qty = qty.Div(edge.YieldPercentage.Div(decimal.NewFromInt(100)))
	}
	return qty
}

func (ex *explosion) accumulate(item Item, quantity decimal.Decimal, dueDate Date, level int) {
	key := requirementKey{ItemID: item.ID, Due: dueDate.String()}
	if req, ok := ex.reqs[key]; ok {
		req.RequiredQuantity = req.RequiredQuantity.Add(quantity)
		req.NetShortage = clampZero(req.RequiredQuantity.Add(req.SafetyStock).Sub(req.AvailableQuantity))
		req.Severity = classifySeverity(req.RequiredQuantity, req.AvailableQuantity)
		if level < req.Level {
			req.Level = level
		}
		return
	}

	available := ex.availableFor(item)
	req := &Requirement{
		ItemID:            item.ID,
		DueDate:           dueDate,
		RequiredQuantity:  quantity,
		AvailableQuantity: available,
		SafetyStock:       item.SafetyStock,
		NetShortage:       clampZero(quantity.Add(item.SafetyStock).Sub(available)),
		Severity:          classifySeverity(quantity, available),
		Level:             level,
	}
	ex.reqs[key] = req
	ex.order = append(ex.order, key)
}

func (ex *explosion) availableFor(item Item) decimal.Decimal {
	if ex.stock != nil {
		if level, ok := ex.stock[item.ID]; ok {
			return level
		}
	}
	return item.CurrentStock
}

func (ex *explosion) requirements() []Requirement {
	out := make([]Requirement, 0, len(ex.order))
	for _, key := range ex.order {
		out = append(out, *ex.reqs[key])
	}
	return out
}

// classifySeverity tiers a single requirement against current stock:
// critical when there is demand but zero stock, warning when stock covers
// only part of the demand, ok otherwise.
func classifySeverity(required, available decimal.Decimal) Severity {
	switch {
	case available.IsZero() && required.IsPositive():
		return SeverityCritical
	case available.IsPositive() && available.LessThan(required):
		return SeverityWarning
	default:
		return SeverityOK
	}
}
