/*
bucket.go - Year→month→week→day time-bucket trees

PURPOSE:
  Represents a quantity split across a calendar year and keeps totals
  consistent while allowing arbitrary months and weeks to be edited or
  expanded independently. This is the central data structure of the plan
  editor: every plan row (sales plan, production plan, stock, actuals) is
  one of these trees.

CONSISTENCY INVARIANT:
  bucket.total == sum(child.total) holds after every mutation. Totals are
  recomputed bottom-up synchronously inside every edit, before the edit
  acknowledgement is returned, so no read can observe a stale total.

EDITABILITY:
  A day accepts edits iff its EditabilityFunc says so. The predicate is
  captured at build time together with the "today" reference; it is NOT
  re-evaluated against the wall clock, so a planning session stays stable
  across midnight rollovers.

AGGREGATE EDITS:
  Editing a collapsed month or week cell redistributes the new value across
  that scope's editable days only, using integer-fair distribution:
  base = floor(value/N), with the remainder handed out as +1 to the first
  remainder days in date order. Locked (past) days keep their existing
  values and are excluded from the denominator.

PERIOD KEYS:
  Scopes are addressed with the tagged PeriodKey type
  (Year | Month(m) | Week(m,w) | Day(m,d)) rather than parsed strings, so
  an invalid key shape is a compile-time impossibility.

SEE ALSO:
  - calendar.go: Day/week enumeration and editability predicates
  - session.go: Holds one tree per item × row type
*/
package planning

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PERIOD KEY - Tagged scope address
// =============================================================================

// PeriodLevel tags the granularity of a PeriodKey.
type PeriodLevel int

const (
	LevelYear PeriodLevel = iota
	LevelMonth
	LevelWeek
	LevelDay
)

// PeriodKey addresses one node of a bucket tree. Construct with YearKey,
// MonthKey, WeekKey or DayKey; the zero value addresses the year.
type PeriodKey struct {
	Level PeriodLevel
	Month time.Month // Month, Week, Day levels
	Week  int        // Week level only (ISO week number)
	Day   int        // Day level only (day of month)
}

func YearKey() PeriodKey              { return PeriodKey{Level: LevelYear} }
func MonthKey(m time.Month) PeriodKey { return PeriodKey{Level: LevelMonth, Month: m} }

func WeekKey(m time.Month, week int) PeriodKey {
	return PeriodKey{Level: LevelWeek, Month: m, Week: week}
}

func DayKey(m time.Month, day int) PeriodKey {
	return PeriodKey{Level: LevelDay, Month: m, Day: day}
}

func (k PeriodKey) String() string {
	switch k.Level {
	case LevelYear:
		return "year"
	case LevelMonth:
		return fmt.Sprintf("month-%d", int(k.Month))
	case LevelWeek:
		return fmt.Sprintf("week-%d-%d", int(k.Month), k.Week)
	default:
		return fmt.Sprintf("day-%d-%d", int(k.Month), k.Day)
	}
}

// =============================================================================
// BUCKET NODES
// =============================================================================

// DayBucket is an editable leaf holding one day's value.
type DayBucket struct {
	Date     Date
	Value    decimal.Decimal
	Editable bool
	Status   Status
}

// WeekBucket aggregates the days of one ISO week that fall inside the month.
type WeekBucket struct {
	Week   int
	Total  decimal.Decimal
	Days   []*DayBucket
	Status Status
}

// MonthBucket aggregates the weeks of one calendar month.
type MonthBucket struct {
	Month  time.Month
	Total  decimal.Decimal
	Weeks  []*WeekBucket
	Status Status
}

// BucketTree is the full year→month→week→day decomposition for one
// (entity, row) pair. Created once per planning session and mutated in
// place by edit operations.
type BucketTree struct {
	Year   int
	Today  Date
	Total  decimal.Decimal
	Months []*MonthBucket
	Status Status

	editable EditabilityFunc
	byDate   map[int]*DayBucket // month*100+day → leaf
}

// ValueGenerator seeds day values at build time.
type ValueGenerator func(Date) decimal.Decimal

// ZeroValues is a generator for empty trees.
func ZeroValues(Date) decimal.Decimal { return decimal.Zero }

// =============================================================================
// CONSTRUCTION
// =============================================================================

// BuildTree constructs the full tree for one calendar year, calling the
// generator for every day. Deterministic given the same generator. The
// editability predicate defaults to FromTodayEditability(today) when nil.
func BuildTree(year int, today Date, gen ValueGenerator, editable EditabilityFunc) *BucketTree {
	if gen == nil {
		gen = ZeroValues
	}
	if editable == nil {
		editable = FromTodayEditability(today)
	}

	tree := &BucketTree{
		Year:     year,
		Today:    today,
		Status:   StatusNone,
		editable: editable,
		byDate:   make(map[int]*DayBucket, 366),
	}

	for month := time.January; month <= time.December; month++ {
		mb := &MonthBucket{Month: month, Status: StatusNone}
		for _, week := range WeeksInMonth(year, month) {
			wb := &WeekBucket{Week: week, Status: StatusNone}
			for _, date := range DaysOfWeekInMonth(year, month, week) {
				db := &DayBucket{
					Date:     date,
					Value:    gen(date),
					Editable: editable(date),
					Status:   StatusNone,
				}
				wb.Days = append(wb.Days, db)
				tree.byDate[dateIndex(date)] = db
			}
			mb.Weeks = append(mb.Weeks, wb)
		}
		tree.Months = append(tree.Months, mb)
	}

	tree.recomputeAll()
	return tree
}

func dateIndex(d Date) int { return int(d.Month())*100 + d.Day() }

// =============================================================================
// EDIT OPERATIONS
// =============================================================================

// EditAck reports the updated totals for the affected scope path so the
// caller can re-render without a full tree walk. Week and Day are only
// meaningful for edits at or below their level.
type EditAck struct {
	Key   PeriodKey
	Year  decimal.Decimal
	Month decimal.Decimal
	Week  decimal.Decimal
	Day   decimal.Decimal
}

// SetLeafValue sets a single day value. The value must be >= 0 and the day
// must be editable; on failure the tree is left unchanged. Week, month and
// year totals are recomputed bottom-up before returning.
func (t *BucketTree) SetLeafValue(date Date, value decimal.Decimal) (EditAck, error) {
	key := DayKey(date.Month(), date.Day())
	if date.Year() != t.Year {
		return EditAck{}, fmt.Errorf("%w: %s not in year %d", ErrUnknownPeriod, date, t.Year)
	}
	day, ok := t.byDate[dateIndex(date)]
	if !ok {
		return EditAck{}, fmt.Errorf("%w: %s", ErrUnknownPeriod, key)
	}
	if value.IsNegative() {
		return EditAck{}, &InvalidValueError{Key: key, Value: value}
	}
	if !day.Editable {
		return EditAck{}, fmt.Errorf("%w: %s", ErrNotEditable, date)
	}

	day.Value = value
	month, week := t.locate(date)
	week.recompute()
	month.recompute()
	t.recomputeYear()

	return EditAck{Key: key, Year: t.Total, Month: month.Total, Week: week.Total, Day: day.Value}, nil
}

// SetAggregateValue redistributes a new total across the editable days of a
// collapsed scope (year, month or week). Locked days keep their existing
// values and are excluded from the denominator. Fails with ErrNoEditableDays
// when the scope has zero editable leaves and value > 0; no partial
// mutation occurs on any failure.
func (t *BucketTree) SetAggregateValue(key PeriodKey, value decimal.Decimal) (EditAck, error) {
	if key.Level == LevelDay {
		day, ok := t.byDate[int(key.Month)*100+key.Day]
		if !ok {
			return EditAck{}, fmt.Errorf("%w: %s", ErrUnknownPeriod, key)
		}
		return t.SetLeafValue(day.Date, value)
	}
	if value.IsNegative() {
		return EditAck{}, &InvalidValueError{Key: key, Value: value}
	}

	days, err := t.scopeDays(key)
	if err != nil {
		return EditAck{}, err
	}

	var editable []*DayBucket
	for _, d := range days {
		if d.Editable {
			editable = append(editable, d)
		}
	}
	if len(editable) == 0 {
		if value.IsZero() {
			return t.ack(key), nil // Nothing to distribute, nothing to change.
		}
		return EditAck{}, &NoEditableDaysError{Key: key}
	}

	distributeFair(value, editable)
	t.recomputeAll()
	return t.ack(key), nil
}

// distributeFair writes base = floor(value/N) into every editable day, with
// the integer remainder handed out as +1 to the first days in date order.
// Any sub-integer remainder lands on the first day so the scope sums to the
// requested value exactly.
func distributeFair(value decimal.Decimal, days []*DayBucket) {
	n := decimal.NewFromInt(int64(len(days)))
	base := value.Div(n).Floor()
	remainder := value.Sub(base.Mul(n))
	bonus := int(remainder.Floor().IntPart())
	fraction := remainder.Sub(remainder.Floor())

	one := decimal.NewFromInt(1)
	for i, d := range days {
		v := base
		if i < bonus {
			v = v.Add(one)
		}
		if i == 0 {
			v = v.Add(fraction)
		}
		d.Value = v
	}
}

// Aggregate returns the current total for any scope. Totals are cached and
// re-established synchronously on every edit, so this is O(1).
func (t *BucketTree) Aggregate(key PeriodKey) (decimal.Decimal, error) {
	switch key.Level {
	case LevelYear:
		return t.Total, nil
	case LevelMonth:
		if m := t.month(key.Month); m != nil {
			return m.Total, nil
		}
	case LevelWeek:
		if w := t.week(key.Month, key.Week); w != nil {
			return w.Total, nil
		}
	case LevelDay:
		if d, ok := t.byDate[int(key.Month)*100+key.Day]; ok {
			return d.Value, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownPeriod, key)
}

// DayValue returns the value of a single day.
func (t *BucketTree) DayValue(date Date) (decimal.Decimal, error) {
	return t.Aggregate(DayKey(date.Month(), date.Day()))
}

// =============================================================================
// STATUS TAGGING
// =============================================================================

// SetStatus tags a node with a feasibility status. Statuses are display
// metadata; they never influence totals.
func (t *BucketTree) SetStatus(key PeriodKey, status Status) error {
	switch key.Level {
	case LevelYear:
		t.Status = status
		return nil
	case LevelMonth:
		if m := t.month(key.Month); m != nil {
			m.Status = status
			return nil
		}
	case LevelWeek:
		if w := t.week(key.Month, key.Week); w != nil {
			w.Status = status
			return nil
		}
	case LevelDay:
		if d, ok := t.byDate[int(key.Month)*100+key.Day]; ok {
			d.Status = status
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownPeriod, key)
}

// =============================================================================
// TRAVERSAL
// =============================================================================

// ForEachDay visits every day of the tree in date order.
func (t *BucketTree) ForEachDay(fn func(*DayBucket)) {
	for _, m := range t.Months {
		for _, w := range m.Weeks {
			for _, d := range w.Days {
				fn(d)
			}
		}
	}
}

func (t *BucketTree) month(m time.Month) *MonthBucket {
	if m < time.January || m > time.December {
		return nil
	}
	return t.Months[int(m)-1]
}

func (t *BucketTree) week(m time.Month, week int) *WeekBucket {
	mb := t.month(m)
	if mb == nil {
		return nil
	}
	for _, w := range mb.Weeks {
		if w.Week == week {
			return w
		}
	}
	return nil
}

func (t *BucketTree) locate(date Date) (*MonthBucket, *WeekBucket) {
	mb := t.month(date.Month())
	for _, w := range mb.Weeks {
		for _, d := range w.Days {
			if d.Date.Equal(date) {
				return mb, w
			}
		}
	}
	return mb, nil
}

func (t *BucketTree) scopeDays(key PeriodKey) ([]*DayBucket, error) {
	switch key.Level {
	case LevelYear:
		var days []*DayBucket
		t.ForEachDay(func(d *DayBucket) { days = append(days, d) })
		return days, nil
	case LevelMonth:
		mb := t.month(key.Month)
		if mb == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPeriod, key)
		}
		var days []*DayBucket
		for _, w := range mb.Weeks {
			days = append(days, w.Days...)
		}
		return days, nil
	case LevelWeek:
		wb := t.week(key.Month, key.Week)
		if wb == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPeriod, key)
		}
		return wb.Days, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPeriod, key)
}

// =============================================================================
// TOTAL RECOMPUTATION
// =============================================================================

func (w *WeekBucket) recompute() {
	total := decimal.Zero
	for _, d := range w.Days {
		total = total.Add(d.Value)
	}
	w.Total = total
}

func (m *MonthBucket) recompute() {
	total := decimal.Zero
	for _, w := range m.Weeks {
		total = total.Add(w.Total)
	}
	m.Total = total
}

func (t *BucketTree) recomputeYear() {
	total := decimal.Zero
	for _, m := range t.Months {
		total = total.Add(m.Total)
	}
	t.Total = total
}

func (t *BucketTree) recomputeAll() {
	for _, m := range t.Months {
		for _, w := range m.Weeks {
			w.recompute()
		}
		m.recompute()
	}
	t.recomputeYear()
}

func (t *BucketTree) ack(key PeriodKey) EditAck {
	ack := EditAck{Key: key, Year: t.Total}
	if key.Level >= LevelMonth {
		if m := t.month(key.Month); m != nil {
			ack.Month = m.Total
		}
	}
	if key.Level >= LevelWeek {
		if w := t.week(key.Month, key.Week); w != nil {
			ack.Week = w.Total
		}
	}
	return ack
}
