package planning_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/planning-engine/planning"
)

// =============================================================================
// CALENDAR MATH
// =============================================================================

func TestDaysInMonth_RealCalendar(t *testing.T) {
	// GIVEN: Months with different lengths, including leap February
	// WHEN: Counting days
	// THEN: Counts come from real calendar arithmetic, not 28/30/31 guesses

	assert.Equal(t, 31, planning.DaysInMonth(2026, time.January))
	assert.Equal(t, 28, planning.DaysInMonth(2026, time.February))
	assert.Equal(t, 29, planning.DaysInMonth(2024, time.February)) // leap year
	assert.Equal(t, 30, planning.DaysInMonth(2026, time.April))
	assert.Equal(t, 31, planning.DaysInMonth(2026, time.December))
}

func TestWeeksInMonth_CoverEveryDayExactlyOnce(t *testing.T) {
	// GIVEN: Any month of the year
	// WHEN: Enumerating its ISO weeks and their days
	// THEN: Every day of the month appears in exactly one week

	for month := time.January; month <= time.December; month++ {
		seen := make(map[string]int)
		for _, week := range planning.WeeksInMonth(2026, month) {
			for _, d := range planning.DaysOfWeekInMonth(2026, month, week) {
				seen[d.String()]++
			}
		}
		assert.Len(t, seen, planning.DaysInMonth(2026, month), "month %v", month)
		for date, count := range seen {
			assert.Equal(t, 1, count, "day %s counted %d times", date, count)
		}
	}
}

func TestWeeksInMonth_BoundaryWeekAppearsInBothMonths(t *testing.T) {
	// GIVEN: A week spanning a month boundary (2026: June 30 is a Tuesday)
	// WHEN: Enumerating weeks of June and July
	// THEN: The shared week appears in both, each holding only its own days

	juneWeeks := planning.WeeksInMonth(2026, time.June)
	julyWeeks := planning.WeeksInMonth(2026, time.July)
	lastJune := juneWeeks[len(juneWeeks)-1]
	require.Contains(t, julyWeeks, lastJune)

	for _, d := range planning.DaysOfWeekInMonth(2026, time.June, lastJune) {
		assert.Equal(t, time.June, d.Month())
	}
	for _, d := range planning.DaysOfWeekInMonth(2026, time.July, lastJune) {
		assert.Equal(t, time.July, d.Month())
	}
}

// =============================================================================
// BACK-SCHEDULING
// =============================================================================

func TestSubtractWorkingDays_SkipsWeekends(t *testing.T) {
	// GIVEN: A Monday due date
	// WHEN: Back-scheduling by one working day
	// THEN: The start lands on the previous Friday, not Sunday

	monday := planning.NewDate(2026, time.June, 1)
	require.Equal(t, time.Monday, monday.Weekday())

	start := planning.SubtractWorkingDays(monday, 1)
	assert.Equal(t, planning.NewDate(2026, time.May, 29), start)
	assert.Equal(t, time.Friday, start.Weekday())
}

func TestSubtractWorkingDays_MultipleWeeks(t *testing.T) {
	// GIVEN: A Friday due date
	// WHEN: Back-scheduling by 10 working days
	// THEN: Two full weekends are skipped

	friday := planning.NewDate(2026, time.June, 19)
	require.Equal(t, time.Friday, friday.Weekday())

	start := planning.SubtractWorkingDays(friday, 10)
	assert.Equal(t, planning.NewDate(2026, time.June, 5), start)
}

func TestProductionLeadDays_RoundsUpToShifts(t *testing.T) {
	assert.Equal(t, 0, planning.ProductionLeadDays(0))
	assert.Equal(t, 1, planning.ProductionLeadDays(2))
	assert.Equal(t, 1, planning.ProductionLeadDays(8))
	assert.Equal(t, 2, planning.ProductionLeadDays(8.5))
	assert.Equal(t, 6, planning.ProductionLeadDays(48))
}

// =============================================================================
// EDITABILITY PREDICATES
// =============================================================================

func TestFromTodayEditability(t *testing.T) {
	// GIVEN: A reference date
	// WHEN: Testing days around it
	// THEN: Past days are locked, today and future days are editable

	today := planning.NewDate(2026, time.June, 15)
	editable := planning.FromTodayEditability(today)

	assert.False(t, editable(today.AddDays(-1)))
	assert.True(t, editable(today))
	assert.True(t, editable(today.AddDays(1)))
}

func TestWorkdayEditability_LocksWeekendsAndHolidays(t *testing.T) {
	today := planning.NewDate(2026, time.June, 1) // Monday
	holiday := planning.NewDate(2026, time.June, 3)
	editable := planning.WorkdayEditability(today, holidaySet{holiday})

	assert.True(t, editable(today))
	assert.False(t, editable(planning.NewDate(2026, time.June, 6))) // Saturday
	assert.False(t, editable(planning.NewDate(2026, time.June, 7))) // Sunday
	assert.False(t, editable(holiday))
	assert.False(t, editable(today.AddDays(-3))) // past
}

type holidaySet []planning.Date

func (h holidaySet) IsHoliday(d planning.Date) bool {
	for _, x := range h {
		if x.Equal(d) {
			return true
		}
	}
	return false
}

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := planning.ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", d.String())

	_, err = planning.ParseDate("28/02/2026")
	assert.Error(t, err)
}
