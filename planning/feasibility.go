/*
feasibility.go - Feasibility classification and roll-up

PURPOSE:
  Given time-phased requirements (materials), workforce-hour availability
  and production-line capacity, classifies every (item, period) pair into a
  status tier and rolls tiers up through the time-bucket hierarchy.

TIERS (materials, given required and available):
  none     required == 0
  critical available == 0 (or, in ratio mode, available < 0.5 * required)
  warning  0 < available < required
  ok       available >= required
  excess   available > 2.0 * required (materials)
           available > 1.5 * required (workforce and line capacity)

ROLL-UP:
  The aggregate status of a period is the WORST status among its children
  (critical > warning > ok; excess and none collapse to best). A single
  critical week forces its month critical regardless of how many siblings
  are ok - any failure anywhere in the period blocks the period.

PURITY:
  Evaluate is a pure function of its inputs: no hidden state, no capacity
  mutation, identical inputs produce identical output. Capacity consumption
  is only recorded when an order is committed (see capacity.go), never
  during evaluation.

SEE ALSO:
  - explosion.go: Produces the material requirements evaluated here
  - session.go: Triggers evaluation on every plan edit
*/
package planning

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// TierConfig fixes the classification thresholds. The source material
// disagreed with itself between module variants; these constants are the
// single authoritative pair.
type TierConfig struct {
	MaterialExcessRatio  decimal.Decimal // available > required*ratio → excess
	WorkforceExcessRatio decimal.Decimal
	RatioCritical        bool // critical when available < 0.5*required instead of available == 0
}

func DefaultTierConfig() TierConfig {
	return TierConfig{
		MaterialExcessRatio:  decimal.NewFromFloat(2.0),
		WorkforceExcessRatio: decimal.NewFromFloat(1.5),
	}
}

// WorkforceParams converts planned quantities into required labor hours:
// requiredHours = ceil(planned/BatchSize) * HoursPerBatch * OperatorsPerBatch.
type WorkforceParams struct {
	BatchSize         decimal.Decimal
	HoursPerBatch     decimal.Decimal
	OperatorsPerBatch decimal.Decimal
	HoursPerWorkday   decimal.Decimal
}

func DefaultWorkforceParams() WorkforceParams {
	return WorkforceParams{
		BatchSize:         decimal.NewFromInt(100),
		HoursPerBatch:     decimal.NewFromInt(8),
		OperatorsPerBatch: decimal.NewFromInt(2),
		HoursPerWorkday:   decimal.NewFromInt(8),
	}
}

// RequiredHours applies the batch formula to a planned quantity.
func (p WorkforceParams) RequiredHours(planned decimal.Decimal) decimal.Decimal {
	if !planned.IsPositive() {
		return decimal.Zero
	}
	batches := planned.Div(p.BatchSize).Ceil()
	return batches.Mul(p.HoursPerBatch).Mul(p.OperatorsPerBatch)
}

// LineHours is the machine-time variant of the batch formula: line
// occupation does not multiply by operators.
func (p WorkforceParams) LineHours(quantity decimal.Decimal) decimal.Decimal {
	if !quantity.IsPositive() {
		return decimal.Zero
	}
	return quantity.Div(p.BatchSize).Ceil().Mul(p.HoursPerBatch)
}

// =============================================================================
// SNAPSHOTS - External-supplied, engine-consumed only
// =============================================================================

// StockSnapshot is the per-item on-hand stock at evaluation time.
type StockSnapshot struct {
	TakenAt time.Time
	Levels  map[ItemID]decimal.Decimal
}

// WorkforceSnapshot is workforce days available per month.
type WorkforceSnapshot struct {
	TakenAt       time.Time
	DaysAvailable map[time.Month]decimal.Decimal
}

// CapacityDay is one (line, date) capacity record. Read as a whole, never
// field-by-field.
type CapacityDay struct {
	AvailableHours decimal.Decimal
	ConsumedHours  decimal.Decimal
}

// CapacitySnapshot is per-line per-day capacity.
type CapacitySnapshot struct {
	TakenAt time.Time
	Lines   map[LineID]map[Date]CapacityDay
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// ClassifyMaterial tiers a required/available pair using the material
// excess threshold.
func (c TierConfig) ClassifyMaterial(required, available decimal.Decimal) Status {
	return c.classify(required, available, c.MaterialExcessRatio)
}

// ClassifyWorkforce tiers a required/available hours pair using the
// workforce excess threshold. Also used for line capacity.
func (c TierConfig) ClassifyWorkforce(required, available decimal.Decimal) Status {
	return c.classify(required, available, c.WorkforceExcessRatio)
}

func (c TierConfig) classify(required, available, excessRatio decimal.Decimal) Status {
	if !required.IsPositive() {
		return StatusNone
	}
	if available.GreaterThanOrEqual(required) {
		if available.GreaterThan(required.Mul(excessRatio)) {
			return StatusExcess
		}
		return StatusOK
	}
	if c.RatioCritical {
		half := required.Mul(decimal.NewFromFloat(0.5))
		if available.LessThan(half) {
			return StatusCritical
		}
		return StatusWarning
	}
	if available.IsZero() {
		return StatusCritical
	}
	return StatusWarning
}

// RollUp applies the worst-child rule to an aggregate period.
func RollUp(children []*Assessment) Status {
	statuses := make([]Status, len(children))
	for i, c := range children {
		statuses[i] = c.Status
	}
	return WorstStatus(statuses...)
}

// =============================================================================
// REPORT STRUCTURE
// =============================================================================

// Assessment is one node of the per-period status hierarchy: a status tier
// plus the underlying numeric required/available pair.
type Assessment struct {
	Key       PeriodKey
	Status    Status
	Required  decimal.Decimal
	Available decimal.Decimal
	Children  []*Assessment
}

// ItemFeasibility carries a full year of per-month/week/day assessments
// for one item, split by aspect.
type ItemFeasibility struct {
	ItemID    ItemID
	Materials []*Assessment // One per month, weeks and days nested.
	Workforce []*Assessment
}

// CriticalIssue is one entry of the flat alerts list.
type CriticalIssue struct {
	ItemID   ItemID
	LineID   LineID // Set for capacity issues only.
	Key      PeriodKey
	Kind     string // "material", "workforce", "capacity"
	Shortage decimal.Decimal
}

// FeasibilityReport is the full output of one evaluation.
type FeasibilityReport struct {
	Year     int
	Items    map[ItemID]*ItemFeasibility
	Capacity map[LineID][]*Assessment // Per line, one assessment per month.
	Critical []CriticalIssue
}

// =============================================================================
// EVALUATION
// =============================================================================

// EvaluateInput is everything Evaluate needs; it holds snapshots, not live
// collaborators, so repeated calls with the same input are idempotent.
type EvaluateInput struct {
	Year      int
	Graph     *Graph
	Plans     map[ItemID]*BucketTree // Production plan per item.
	Stock     StockSnapshot
	Workforce WorkforceSnapshot
	Capacity  CapacitySnapshot
	Params    WorkforceParams
	Tiers     TierConfig

	// Freshness, when positive, rejects snapshots whose TakenAt is older
	// than the window relative to Now. Zero disables the check.
	Freshness time.Duration
	Now       time.Time
}

// Evaluate classifies every (item, period) pair and rolls statuses up
// through the time-bucket hierarchy. Pure function: it mutates none of its
// inputs and touches no shared state.
func Evaluate(input EvaluateInput) (*FeasibilityReport, error) {
	if input.Graph == nil {
		return nil, fmt.Errorf("%w: no BOM graph supplied", ErrNotAvailable)
	}
	if err := checkFreshness(input); err != nil {
		return nil, err
	}

	report := &FeasibilityReport{
		Year:     input.Year,
		Items:    make(map[ItemID]*ItemFeasibility, len(input.Plans)),
		Capacity: make(map[LineID][]*Assessment, len(input.Capacity.Lines)),
	}

	// Deterministic iteration order for stable reports.
	itemIDs := make([]ItemID, 0, len(input.Plans))
	for id := range input.Plans {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	for _, id := range itemIDs {
		if _, err := input.Graph.Item(id); err != nil {
			return nil, err
		}
		feas, err := evaluateItem(input, id, input.Plans[id], report)
		if err != nil {
			return nil, err
		}
		report.Items[id] = feas
	}

	evaluateCapacity(input, report)
	return report, nil
}

func checkFreshness(input EvaluateInput) error {
	if input.Freshness <= 0 || input.Now.IsZero() {
		return nil
	}
	check := func(kind string, takenAt time.Time) error {
		if takenAt.IsZero() {
			return nil
		}
		if age := input.Now.Sub(takenAt); age > input.Freshness {
			return &StaleSnapshotError{Kind: kind, Age: age.String()}
		}
		return nil
	}
	if err := check("stock", input.Stock.TakenAt); err != nil {
		return err
	}
	if err := check("workforce", input.Workforce.TakenAt); err != nil {
		return err
	}
	return check("capacity", input.Capacity.TakenAt)
}

// =============================================================================
// PER-ITEM EVALUATION
// =============================================================================

func evaluateItem(input EvaluateInput, id ItemID, plan *BucketTree, report *FeasibilityReport) (*ItemFeasibility, error) {
	feas := &ItemFeasibility{ItemID: id}

	for _, mb := range plan.Months {
		material, err := evaluateMaterialMonth(input, id, mb)
		if err != nil {
			return nil, err
		}
		feas.Materials = append(feas.Materials, material)
		if material.Status == StatusCritical {
			report.Critical = append(report.Critical, CriticalIssue{
				ItemID:   id,
				Key:      material.Key,
				Kind:     "material",
				Shortage: clampZero(material.Required.Sub(material.Available)),
			})
		}

		workforce := evaluateWorkforceMonth(input, mb)
		feas.Workforce = append(feas.Workforce, workforce)
		if workforce.Status == StatusCritical {
			report.Critical = append(report.Critical, CriticalIssue{
				ItemID:   id,
				Key:      workforce.Key,
				Kind:     "workforce",
				Shortage: clampZero(workforce.Required.Sub(workforce.Available)),
			})
		}
	}
	return feas, nil
}

// evaluateMaterialMonth explodes the month's planned quantity once and
// classifies the leaf requirements against the stock snapshot. Week and day
// children carry the month's numbers scaled by their share of the planned
// quantity, so a week with no plan reads none while the rest inherit the
// month's supply ratio.
func evaluateMaterialMonth(input EvaluateInput, id ItemID, mb *MonthBucket) (*Assessment, error) {
	month := &Assessment{Key: MonthKey(mb.Month)}

	var required, available decimal.Decimal
	worst := StatusNone
	if mb.Total.IsPositive() {
		due := NewDate(input.Year, mb.Month, DaysInMonth(input.Year, mb.Month))
		result, err := input.Graph.Explode(Demand{ItemID: id, Quantity: mb.Total, DueDate: due})
		if err != nil {
			return nil, err
		}
		for _, req := range result.Requirements {
			avail := stockFor(input, req.ItemID, req.AvailableQuantity)
			required = required.Add(req.RequiredQuantity)
			available = available.Add(avail)
			worst = WorstStatus(worst, input.Tiers.ClassifyMaterial(req.RequiredQuantity, avail))
		}
	}
	month.Required = required
	month.Available = available

	for _, wb := range mb.Weeks {
		week := scaledChild(WeekKey(mb.Month, wb.Week), wb.Total, mb.Total, required, available, worst)
		for _, db := range wb.Days {
			day := scaledChild(DayKey(mb.Month, db.Date.Day()), db.Value, mb.Total, required, available, worst)
			week.Children = append(week.Children, day)
		}
		month.Children = append(month.Children, week)
	}
	month.Status = worstOrRollUp(worst, month.Children)
	return month, nil
}

func evaluateWorkforceMonth(input EvaluateInput, mb *MonthBucket) *Assessment {
	month := &Assessment{Key: MonthKey(mb.Month)}
	month.Required = input.Params.RequiredHours(mb.Total)
	month.Available = input.Workforce.DaysAvailable[mb.Month].Mul(input.Params.HoursPerWorkday)
	status := input.Tiers.ClassifyWorkforce(month.Required, month.Available)

	for _, wb := range mb.Weeks {
		week := scaledChild(WeekKey(mb.Month, wb.Week), wb.Total, mb.Total, month.Required, month.Available, status)
		for _, db := range wb.Days {
			day := scaledChild(DayKey(mb.Month, db.Date.Day()), db.Value, mb.Total, month.Required, month.Available, status)
			week.Children = append(week.Children, day)
		}
		month.Children = append(month.Children, week)
	}
	month.Status = worstOrRollUp(status, month.Children)
	return month
}

// scaledChild disaggregates a month assessment to a sub-period by the
// sub-period's share of the planned quantity.
func scaledChild(key PeriodKey, share, total, required, available decimal.Decimal, parentStatus Status) *Assessment {
	child := &Assessment{Key: key, Status: StatusNone}
	if total.IsPositive() && share.IsPositive() {
		ratio := share.Div(total)
		child.Required = required.Mul(ratio)
		child.Available = available.Mul(ratio)
		child.Status = parentStatus
	}
	return child
}

// worstOrRollUp keeps the directly computed status unless the children
// roll up worse; the worst-child rule always wins.
func worstOrRollUp(direct Status, children []*Assessment) Status {
	if len(children) == 0 {
		return direct
	}
	return WorstStatus(direct, RollUp(children))
}

func stockFor(input EvaluateInput, id ItemID, fallback decimal.Decimal) decimal.Decimal {
	if input.Stock.Levels != nil {
		if level, ok := input.Stock.Levels[id]; ok {
			return level
		}
	}
	return fallback
}

// =============================================================================
// LINE CAPACITY
// =============================================================================

// evaluateCapacity compares, per line and month, the hours still free on
// the line (available minus already committed) against the labor hours the
// month's total plan requires.
func evaluateCapacity(input EvaluateInput, report *FeasibilityReport) {
	if len(input.Capacity.Lines) == 0 {
		return
	}

	// Total planned quantity per month across all items.
	plannedByMonth := make(map[time.Month]decimal.Decimal)
	for _, plan := range input.Plans {
		for _, mb := range plan.Months {
			plannedByMonth[mb.Month] = plannedByMonth[mb.Month].Add(mb.Total)
		}
	}

	lineIDs := make([]LineID, 0, len(input.Capacity.Lines))
	for id := range input.Capacity.Lines {
		lineIDs = append(lineIDs, id)
	}
	sort.Slice(lineIDs, func(i, j int) bool { return lineIDs[i] < lineIDs[j] })

	for _, lineID := range lineIDs {
		days := input.Capacity.Lines[lineID]
		var months []*Assessment
		for month := time.January; month <= time.December; month++ {
			free := decimal.Zero
			for date, rec := range days {
				if date.Year() == input.Year && date.Month() == month {
					free = free.Add(clampZero(rec.AvailableHours.Sub(rec.ConsumedHours)))
				}
			}
			required := input.Params.RequiredHours(plannedByMonth[month])
			a := &Assessment{
				Key:       MonthKey(month),
				Required:  required,
				Available: free,
				Status:    input.Tiers.ClassifyWorkforce(required, free),
			}
			if a.Status == StatusCritical {
				report.Critical = append(report.Critical, CriticalIssue{
					LineID:   lineID,
					Key:      a.Key,
					Kind:     "capacity",
					Shortage: clampZero(required.Sub(free)),
				})
			}
			months = append(months, a)
		}
		report.Capacity[lineID] = months
	}
}
