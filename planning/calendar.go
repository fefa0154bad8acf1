package planning

import (
	"time"
)

// =============================================================================
// DATE - Day-granular time abstraction
// =============================================================================

// Date is a day-granular point in time, normalized to UTC midnight.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf normalizes an arbitrary time to a Date, discarding the clock.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) IsWorkday() bool { return !d.IsWeekend() }

// ISOWeek returns the ISO 8601 week number of the date.
func (d Date) ISOWeek() int {
	_, week := d.Time.ISOWeek()
	return week
}

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// =============================================================================
// CALENDAR MATH
// =============================================================================
// Day enumeration always derives from actual calendar arithmetic
// (days-in-month), never a fixed 28/30/31 assumption, so month and DST
// boundaries cannot double count or drop days.

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDays enumerates every day of the month in date order.
func MonthDays(year int, month time.Month) []Date {
	n := DaysInMonth(year, month)
	days := make([]Date, n)
	for i := 0; i < n; i++ {
		days[i] = NewDate(year, month, i+1)
	}
	return days
}

// WeeksInMonth returns the ISO week numbers that intersect the month, in
// calendar order. A week spanning a month boundary appears in both months,
// each holding only its own days.
func WeeksInMonth(year int, month time.Month) []int {
	var weeks []int
	seen := make(map[int]bool)
	for _, d := range MonthDays(year, month) {
		w := d.ISOWeek()
		if !seen[w] {
			seen[w] = true
			weeks = append(weeks, w)
		}
	}
	return weeks
}

// DaysOfWeekInMonth returns the days of the month that fall in the given
// ISO week, in date order.
func DaysOfWeekInMonth(year int, month time.Month, isoWeek int) []Date {
	var days []Date
	for _, d := range MonthDays(year, month) {
		if d.ISOWeek() == isoWeek {
			days = append(days, d)
		}
	}
	return days
}

// =============================================================================
// BACK-SCHEDULING
// =============================================================================

// SubtractWorkingDays walks backward from a date skipping Saturdays and
// Sundays. Used to back-schedule production start dates from due dates.
func SubtractWorkingDays(from Date, workingDays int) Date {
	d := from
	remaining := workingDays
	for remaining > 0 {
		d = d.AddDays(-1)
		if d.IsWorkday() {
			remaining--
		}
	}
	return d
}

// ProductionLeadDays converts a production time in hours to whole working
// days, one 8-hour shift per day, rounding up.
func ProductionLeadDays(productionTimeHours float64) int {
	if productionTimeHours <= 0 {
		return 0
	}
	days := int(productionTimeHours / 8)
	if productionTimeHours > float64(days)*8 {
		days++
	}
	return days
}

// =============================================================================
// EDITABILITY PREDICATES
// =============================================================================

// EditabilityFunc decides whether a given day accepts edits. The predicate
// is fixed at tree-build time so a planning session stays stable across a
// midnight rollover mid-session.
type EditabilityFunc func(Date) bool

// FromTodayEditability is the default rule: a day is editable iff it is on
// or after the reference date.
func FromTodayEditability(today Date) EditabilityFunc {
	return func(d Date) bool { return d.AfterOrEqual(today) }
}

// WorkdayEditability additionally locks weekends and holidays, for
// availability-style rows where bulk edits must not land on non-working days.
func WorkdayEditability(today Date, holidays HolidayCalendar) EditabilityFunc {
	return func(d Date) bool {
		if d.Before(today) || d.IsWeekend() {
			return false
		}
		if holidays != nil && holidays.IsHoliday(d) {
			return false
		}
		return true
	}
}

// HolidayCalendar provides holiday lookup for editability predicates and
// workforce-day counting.
type HolidayCalendar interface {
	IsHoliday(date Date) bool
}

// NoHolidays is a no-op calendar for when holidays are disabled.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(Date) bool { return false }
