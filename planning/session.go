/*
session.go - Plan editor orchestration

PURPOSE:
  The single integration point external collaborators use. A Session holds
  the current plan's bucket trees (one per item × row type), applies edits
  through the tree operations, and on every edit or explicit refresh
  re-runs explosion and feasibility evaluation, republishing the resulting
  report for display.

STATE MODEL:
  All session state lives on this explicit object - no package-level
  singletons - so multiple planning sessions coexist and are independently
  testable. Expansion/collapse state is just a set of period keys consumed
  by a presentation layer; it never drives computation.

CAPACITY:
  Evaluation reads capacity from an immutable ledger snapshot. Consumed
  hours change only when an order is explicitly committed.

SEE ALSO:
  - bucket.go: Edit operations the session delegates to
  - feasibility.go: Evaluate, re-run on every edit
  - capacity.go: The committed-hours ledger
*/
package planning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RowType identifies one editable row of the planning grid.
type RowType string

const (
	RowSalesPlan        RowType = "sales_plan"
	RowProductionPlan   RowType = "production_plan"
	RowStock            RowType = "stock"
	RowActualProduction RowType = "actual_production"
)

// PlanRows are the row types a session materializes per item.
var PlanRows = []RowType{RowSalesPlan, RowProductionPlan, RowStock, RowActualProduction}

// SessionConfig carries everything needed to open a planning session.
type SessionConfig struct {
	Year      int
	Today     Date
	Providers Providers
	Params    WorkforceParams
	Tiers     TierConfig
	Freshness time.Duration

	// Seed, when set, provides initial day values per (item, row).
	Seed func(ItemID, RowType) ValueGenerator
}

// Session is one independent planning session.
type Session struct {
	ID    string
	Year  int
	Today Date

	mu        sync.Mutex
	graph     *Graph
	trees     map[ItemID]map[RowType]*BucketTree
	expanded  map[PeriodKey]bool
	providers Providers
	params    WorkforceParams
	tiers     TierConfig
	freshness time.Duration
	capacity  *CapacityLedger

	lastResult *ExplosionResult
	report     *FeasibilityReport
}

// NewSession loads the BOM graph, builds one tree per finished item and
// plan row, and seeds the capacity ledger from the capacity provider.
func NewSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	graph, err := LoadGraph(ctx, cfg.Providers.Catalog)
	if err != nil {
		return nil, err
	}
	if cfg.Today.IsZero() {
		cfg.Today = Today()
	}
	if cfg.Params == (WorkforceParams{}) {
		cfg.Params = DefaultWorkforceParams()
	}
	if cfg.Tiers == (TierConfig{}) {
		cfg.Tiers = DefaultTierConfig()
	}

	s := &Session{
		ID:        uuid.NewString(),
		Year:      cfg.Year,
		Today:     cfg.Today,
		graph:     graph,
		trees:     make(map[ItemID]map[RowType]*BucketTree),
		expanded:  make(map[PeriodKey]bool),
		providers: cfg.Providers,
		params:    cfg.Params,
		tiers:     cfg.Tiers,
		freshness: cfg.Freshness,
		capacity:  NewCapacityLedger(),
	}

	for _, item := range graph.Items() {
		if item.Category != CategoryFinished {
			continue
		}
		rows := make(map[RowType]*BucketTree, len(PlanRows))
		for _, row := range PlanRows {
			var gen ValueGenerator
			if cfg.Seed != nil {
				gen = cfg.Seed(item.ID, row)
			}
			rows[row] = BuildTree(cfg.Year, cfg.Today, gen, nil)
		}
		s.trees[item.ID] = rows
	}

	if cfg.Providers.Capacity != nil {
		snap, err := cfg.Providers.Capacity.Capacity(ctx, cfg.Year)
		if err != nil && !IsRecoverable(err) {
			return nil, err
		}
		if err == nil {
			s.capacity.Load(snap)
		}
	}
	return s, nil
}

// Graph returns the session's read-only BOM graph.
func (s *Session) Graph() *Graph { return s.graph }

// Tree returns the bucket tree for one (item, row) pair.
func (s *Session) Tree(itemID ItemID, row RowType) (*BucketTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.treeLocked(itemID, row)
}

func (s *Session) treeLocked(itemID ItemID, row RowType) (*BucketTree, error) {
	rows, ok := s.trees[itemID]
	if !ok {
		return nil, &MissingItemError{ItemID: itemID}
	}
	tree, ok := rows[row]
	if !ok {
		return nil, fmt.Errorf("%w: row %q", ErrNotAvailable, row)
	}
	return tree, nil
}

// =============================================================================
// EDIT OPERATIONS
// =============================================================================

// EditDay sets a single day value and re-runs explosion and evaluation.
// The tree mutation happens under the session lock; one session is shared
// across concurrent requests. The acknowledgement carries the updated
// totals even when the subsequent refresh fails with a recoverable error;
// the error is returned alongside.
func (s *Session) EditDay(ctx context.Context, itemID ItemID, row RowType, date Date, value decimal.Decimal) (EditAck, error) {
	ack, err := s.editLocked(itemID, row, func(tree *BucketTree) (EditAck, error) {
		return tree.SetLeafValue(date, value)
	})
	if err != nil {
		return EditAck{}, err
	}
	return ack, s.Refresh(ctx)
}

// EditAggregate redistributes a collapsed month/week cell edit and re-runs
// explosion and evaluation.
func (s *Session) EditAggregate(ctx context.Context, itemID ItemID, row RowType, key PeriodKey, value decimal.Decimal) (EditAck, error) {
	ack, err := s.editLocked(itemID, row, func(tree *BucketTree) (EditAck, error) {
		return tree.SetAggregateValue(key, value)
	})
	if err != nil {
		return EditAck{}, err
	}
	return ack, s.Refresh(ctx)
}

func (s *Session) editLocked(itemID ItemID, row RowType, edit func(*BucketTree) (EditAck, error)) (EditAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, err := s.treeLocked(itemID, row)
	if err != nil {
		return EditAck{}, err
	}
	return edit(tree)
}

// =============================================================================
// RECOMPUTATION
// =============================================================================

// Refresh re-fetches stock and workforce snapshots, re-runs the explosion
// over the production-plan demands and re-evaluates feasibility. Results
// replace the previous ones wholesale; nothing is patched incrementally.
func (s *Session) Refresh(ctx context.Context) error {
	stock, err := s.providers.Stock.Stock(ctx)
	if err != nil {
		return err
	}
	workforce, err := s.providers.Workforce.Workforce(ctx, s.Year)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.graph.ExplodeAll(s.demandsLocked(), stock)
	if err != nil {
		return err
	}

	plans := make(map[ItemID]*BucketTree, len(s.trees))
	for id, rows := range s.trees {
		plans[id] = rows[RowProductionPlan]
	}

	report, err := Evaluate(EvaluateInput{
		Year:      s.Year,
		Graph:     s.graph,
		Plans:     plans,
		Stock:     stock,
		Workforce: workforce,
		Capacity:  s.capacity.Snapshot(time.Now()),
		Params:    s.params,
		Tiers:     s.tiers,
		Freshness: s.freshness,
		Now:       time.Now(),
	})
	if err != nil {
		return err
	}

	s.lastResult = result
	s.report = report
	s.tagPlanStatusesLocked(report)
	return nil
}

// demandsLocked derives one demand per (finished item, month with planned
// quantity), due the last day of the month.
func (s *Session) demandsLocked() []Demand {
	var demands []Demand
	for id, rows := range s.trees {
		plan := rows[RowProductionPlan]
		for _, mb := range plan.Months {
			if mb.Total.IsPositive() {
				demands = append(demands, Demand{
					ItemID:   id,
					Quantity: mb.Total,
					DueDate:  NewDate(s.Year, mb.Month, DaysInMonth(s.Year, mb.Month)),
				})
			}
		}
	}
	return demands
}

// tagPlanStatusesLocked mirrors the report's material statuses onto the
// production-plan trees so grid cells can be colored without re-walking
// the report.
func (s *Session) tagPlanStatusesLocked(report *FeasibilityReport) {
	for id, feas := range report.Items {
		tree := s.trees[id][RowProductionPlan]
		yearStatus := StatusNone
		for _, month := range feas.Materials {
			_ = tree.SetStatus(month.Key, month.Status)
			yearStatus = WorstStatus(yearStatus, month.Status)
			for _, child := range month.Children {
				_ = tree.SetStatus(child.Key, child.Status)
				for _, day := range child.Children {
					_ = tree.SetStatus(day.Key, day.Status)
				}
			}
		}
		_ = tree.SetStatus(YearKey(), yearStatus)
	}
}

// Report returns the feasibility report from the last refresh, or nil
// before the first one.
func (s *Session) Report() *FeasibilityReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// LastExplosion returns the requirements and production orders from the
// last refresh, suitable for a requirements-vs-inventory table and export.
func (s *Session) LastExplosion() *ExplosionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// =============================================================================
// CAPACITY COMMIT
// =============================================================================

// CommitOrder books the line hours of a computed production order onto the
// capacity ledger at the order's start date. Evaluation never does this;
// committing is an explicit, separate act.
func (s *Session) CommitOrder(order ProductionOrder, line LineID) error {
	hours := s.params.LineHours(order.Quantity)
	return s.capacity.Commit(line, order.StartDate, hours)
}

// CapacityLedger exposes the session's ledger for display collaborators.
func (s *Session) CapacityLedger() *CapacityLedger { return s.capacity }

// =============================================================================
// EXPANSION STATE - Presentation-only
// =============================================================================

func (s *Session) Expand(key PeriodKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded[key] = true
}

func (s *Session) Collapse(key PeriodKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expanded, key)
}

func (s *Session) IsExpanded(key PeriodKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[key]
}
