package planning_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/planning-engine/planning"
)

// =============================================================================
// TIER CLASSIFICATION
// =============================================================================

func TestClassifyMaterial_Tiers(t *testing.T) {
	// GIVEN: required = 100 against a spread of availability levels
	// WHEN: Classifying with the default thresholds
	// THEN: Tiers land per the fixed boundaries (excess strictly above 2x)

	tiers := planning.DefaultTierConfig()
	required := planning.Qty(100)

	cases := []struct {
		available float64
		want      planning.Status
	}{
		{0, planning.StatusCritical},
		{1, planning.StatusWarning},
		{60, planning.StatusWarning},
		{99, planning.StatusWarning},
		{100, planning.StatusOK},
		{200, planning.StatusOK}, // exactly 2x is still ok
		{201, planning.StatusExcess},
		{250, planning.StatusExcess},
	}
	for _, c := range cases {
		got := tiers.ClassifyMaterial(required, planning.Qty(c.available))
		assert.Equal(t, c.want, got, "available=%v", c.available)
	}
}

func TestClassifyMaterial_ZeroRequiredIsNone(t *testing.T) {
	tiers := planning.DefaultTierConfig()
	assert.Equal(t, planning.StatusNone, tiers.ClassifyMaterial(decimal.Zero, planning.Qty(50)))
	assert.Equal(t, planning.StatusNone, tiers.ClassifyMaterial(decimal.Zero, decimal.Zero))
}

func TestClassifyWorkforce_ExcessAt150Percent(t *testing.T) {
	tiers := planning.DefaultTierConfig()
	required := planning.Qty(100)

	assert.Equal(t, planning.StatusOK, tiers.ClassifyWorkforce(required, planning.Qty(150)))
	assert.Equal(t, planning.StatusExcess, tiers.ClassifyWorkforce(required, planning.Qty(151)))
}

func TestClassify_RatioCriticalMode(t *testing.T) {
	// GIVEN: Ratio mode, where below half of required is critical
	// WHEN: Classifying availability at 49 and 50 against required 100
	// THEN: 49 is critical, 50 is warning

	tiers := planning.DefaultTierConfig()
	tiers.RatioCritical = true
	required := planning.Qty(100)

	assert.Equal(t, planning.StatusCritical, tiers.ClassifyMaterial(required, planning.Qty(49)))
	assert.Equal(t, planning.StatusWarning, tiers.ClassifyMaterial(required, planning.Qty(50)))
	// In ratio mode zero available is still critical via the ratio branch.
	assert.Equal(t, planning.StatusCritical, tiers.ClassifyMaterial(required, decimal.Zero))
}

// =============================================================================
// ROLL-UP
// =============================================================================

func TestWorstStatus_Ordering(t *testing.T) {
	assert.Equal(t, planning.StatusCritical,
		planning.WorstStatus(planning.StatusOK, planning.StatusCritical, planning.StatusExcess))
	assert.Equal(t, planning.StatusWarning,
		planning.WorstStatus(planning.StatusOK, planning.StatusWarning, planning.StatusNone))
	assert.Equal(t, planning.StatusOK,
		planning.WorstStatus(planning.StatusExcess, planning.StatusOK))
	assert.Equal(t, planning.StatusNone, planning.WorstStatus())
}

func TestRollUp_SingleCriticalChildForcesParent(t *testing.T) {
	// GIVEN: Four ok weeks and one critical week
	// WHEN: Rolling up
	// THEN: The month is critical no matter how many siblings are fine

	children := []*planning.Assessment{
		{Status: planning.StatusOK},
		{Status: planning.StatusOK},
		{Status: planning.StatusCritical},
		{Status: planning.StatusOK},
		{Status: planning.StatusExcess},
	}
	assert.Equal(t, planning.StatusCritical, planning.RollUp(children))
}

// =============================================================================
// WORKFORCE MATH
// =============================================================================

func TestRequiredHours_BatchFormula(t *testing.T) {
	// GIVEN: Defaults of 100/batch, 8h/batch, 2 operators
	// WHEN: Planning 250 units
	// THEN: ceil(250/100)=3 batches → 3*8*2 = 48 hours

	params := planning.DefaultWorkforceParams()
	assert.True(t, params.RequiredHours(planning.Qty(250)).Equal(planning.Qty(48)))
	assert.True(t, params.RequiredHours(planning.Qty(100)).Equal(planning.Qty(16)))
	assert.True(t, params.RequiredHours(planning.Qty(1)).Equal(planning.Qty(16)))
	assert.True(t, params.RequiredHours(decimal.Zero).IsZero())
}

func TestLineHours_NoOperatorMultiplier(t *testing.T) {
	params := planning.DefaultWorkforceParams()
	assert.True(t, params.LineHours(planning.Qty(250)).Equal(planning.Qty(24)))
}

// =============================================================================
// FULL EVALUATION
// =============================================================================

func evaluateInput(t *testing.T, planQty float64, stock map[planning.ItemID]decimal.Decimal) planning.EvaluateInput {
	t.Helper()
	g := sausageGraph()
	plan := planning.BuildTree(2026, planning.NewDate(2026, time.January, 1), nil, nil)
	if planQty > 0 {
		_, err := plan.SetAggregateValue(planning.MonthKey(time.June), planning.Qty(planQty))
		require.NoError(t, err)
	}

	days := make(map[time.Month]decimal.Decimal)
	for m := time.January; m <= time.December; m++ {
		days[m] = planning.Qty(20)
	}

	return planning.EvaluateInput{
		Year:      2026,
		Graph:     g,
		Plans:     map[planning.ItemID]*planning.BucketTree{"salami": plan},
		Stock:     planning.StockSnapshot{TakenAt: time.Now(), Levels: stock},
		Workforce: planning.WorkforceSnapshot{TakenAt: time.Now(), DaysAvailable: days},
		Params:    planning.DefaultWorkforceParams(),
		Tiers:     planning.DefaultTierConfig(),
	}
}

func TestEvaluate_MonthWithNoPlanIsNone(t *testing.T) {
	// GIVEN: A plan with quantity only in June
	// WHEN: Evaluating
	// THEN: Other months read none, June carries a real status

	report, err := planning.Evaluate(evaluateInput(t, 100, nil))
	require.NoError(t, err)

	feas := report.Items["salami"]
	require.NotNil(t, feas)
	require.Len(t, feas.Materials, 12)

	for _, month := range feas.Materials {
		if month.Key.Month == time.June {
			assert.NotEqual(t, planning.StatusNone, month.Status)
		} else {
			assert.Equal(t, planning.StatusNone, month.Status, "month %s", month.Key)
		}
	}
}

func TestEvaluate_ZeroStockIsCritical(t *testing.T) {
	// GIVEN: A June plan whose pork requirement meets zero stock
	// WHEN: Evaluating
	// THEN: June is critical and the flat alerts list names the item

	stock := map[planning.ItemID]decimal.Decimal{
		"pork":   decimal.Zero,
		"casing": decimal.Zero,
	}
	report, err := planning.Evaluate(evaluateInput(t, 100, stock))
	require.NoError(t, err)

	var june *planning.Assessment
	for _, m := range report.Items["salami"].Materials {
		if m.Key.Month == time.June {
			june = m
		}
	}
	require.NotNil(t, june)
	assert.Equal(t, planning.StatusCritical, june.Status)

	found := false
	for _, issue := range report.Critical {
		if issue.ItemID == "salami" && issue.Kind == "material" {
			found = true
		}
	}
	assert.True(t, found, "critical material issue missing from alerts list")
}

func TestEvaluate_PureAndDeterministic(t *testing.T) {
	// GIVEN: The same input evaluated twice
	// WHEN: Comparing the reports
	// THEN: Statuses are identical and the input plans are unmutated

	input := evaluateInput(t, 100, nil)
	before := input.Plans["salami"].Total

	r1, err := planning.Evaluate(input)
	require.NoError(t, err)
	r2, err := planning.Evaluate(input)
	require.NoError(t, err)

	assert.True(t, input.Plans["salami"].Total.Equal(before), "Evaluate mutated the plan")
	for i := range r1.Items["salami"].Materials {
		assert.Equal(t, r1.Items["salami"].Materials[i].Status, r2.Items["salami"].Materials[i].Status)
	}
}

func TestEvaluate_WorkforceShortageSurfaces(t *testing.T) {
	// GIVEN: A big June plan against one workforce day per month
	// WHEN: Evaluating
	// THEN: June workforce goes warning or critical and carries the numbers

	input := evaluateInput(t, 5000, nil)
	for m := range input.Workforce.DaysAvailable {
		input.Workforce.DaysAvailable[m] = planning.Qty(1)
	}
	report, err := planning.Evaluate(input)
	require.NoError(t, err)

	var june *planning.Assessment
	for _, m := range report.Items["salami"].Workforce {
		if m.Key.Month == time.June {
			june = m
		}
	}
	require.NotNil(t, june)
	// 5000 units → 50 batches → 800 required hours vs 8 available.
	assert.True(t, june.Required.Equal(planning.Qty(800)))
	assert.True(t, june.Available.Equal(planning.Qty(8)))
	assert.Equal(t, planning.StatusWarning, june.Status)
}

func TestEvaluate_StaleSnapshotRejected(t *testing.T) {
	// GIVEN: A freshness window of 5 minutes and a 10-minute-old stock snapshot
	// WHEN: Evaluating
	// THEN: The call fails with ErrStaleSnapshot naming the stock feed

	input := evaluateInput(t, 100, nil)
	now := time.Now()
	input.Now = now
	input.Freshness = 5 * time.Minute
	input.Stock.TakenAt = now.Add(-10 * time.Minute)

	_, err := planning.Evaluate(input)
	require.ErrorIs(t, err, planning.ErrStaleSnapshot)

	var stale *planning.StaleSnapshotError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "stock", stale.Kind)
}

func TestEvaluate_NilGraphFails(t *testing.T) {
	_, err := planning.Evaluate(planning.EvaluateInput{Year: 2026})
	assert.ErrorIs(t, err, planning.ErrNotAvailable)
}

// =============================================================================
// LINE CAPACITY
// =============================================================================

func TestEvaluate_LineCapacityPerMonth(t *testing.T) {
	// GIVEN: One line with 16 free hours on June days, 100 units planned
	// WHEN: Evaluating
	// THEN: The line's June assessment compares required vs free hours

	input := evaluateInput(t, 100, nil)
	lineDays := map[planning.Date]planning.CapacityDay{
		planning.NewDate(2026, time.June, 1): {AvailableHours: planning.Qty(16)},
		planning.NewDate(2026, time.June, 2): {AvailableHours: planning.Qty(16), ConsumedHours: planning.Qty(10)},
	}
	input.Capacity = planning.CapacitySnapshot{
		TakenAt: time.Now(),
		Lines:   map[planning.LineID]map[planning.Date]planning.CapacityDay{"line-1": lineDays},
	}

	report, err := planning.Evaluate(input)
	require.NoError(t, err)
	months := report.Capacity["line-1"]
	require.Len(t, months, 12)

	june := months[int(time.June)-1]
	require.Equal(t, planning.MonthKey(time.June), june.Key)
	// free = 16 + (16-10) = 22; required = ceil(100/100)*8*2 = 16 → ok
	assert.True(t, june.Available.Equal(planning.Qty(22)))
	assert.True(t, june.Required.Equal(planning.Qty(16)))
	assert.Equal(t, planning.StatusOK, june.Status)
}

// =============================================================================
// CAPACITY LEDGER
// =============================================================================

func TestCapacityLedger_CommitAndOverCommit(t *testing.T) {
	// GIVEN: 16 available hours on a (line, date)
	// WHEN: Committing 10 then 10
	// THEN: The second commit fails and leaves the ledger unchanged

	ledger := planning.NewCapacityLedger()
	date := planning.NewDate(2026, time.June, 1)
	ledger.SetAvailable("line-1", date, planning.Qty(16))

	require.NoError(t, ledger.Commit("line-1", date, planning.Qty(10)))

	err := ledger.Commit("line-1", date, planning.Qty(10))
	require.Error(t, err)

	day := ledger.Day("line-1", date)
	assert.True(t, day.ConsumedHours.Equal(planning.Qty(10)))
}

func TestCapacityLedger_NegativeCommitRejected(t *testing.T) {
	ledger := planning.NewCapacityLedger()
	err := ledger.Commit("line-1", planning.NewDate(2026, time.June, 1), planning.Qty(-1))
	assert.ErrorIs(t, err, planning.ErrInvalidValue)
}

func TestCapacityLedger_SnapshotIsDetached(t *testing.T) {
	// GIVEN: A snapshot taken before a later commit
	// WHEN: Committing more hours afterwards
	// THEN: The snapshot still shows the old consumed value

	ledger := planning.NewCapacityLedger()
	date := planning.NewDate(2026, time.June, 1)
	ledger.SetAvailable("line-1", date, planning.Qty(16))
	require.NoError(t, ledger.Commit("line-1", date, planning.Qty(4)))

	snap := ledger.Snapshot(time.Now())
	require.NoError(t, ledger.Commit("line-1", date, planning.Qty(4)))

	assert.True(t, snap.Lines["line-1"][date].ConsumedHours.Equal(planning.Qty(4)))
	assert.True(t, ledger.Day("line-1", date).ConsumedHours.Equal(planning.Qty(8)))
}
