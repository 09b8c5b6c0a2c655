package checklist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/internal/formula"
)

func buildRows(t *testing.T, tun Tuning, data *SourceData, cross CrossOverrides, dateFrom string) []map[string]any {
	t.Helper()
	idx := emptyIndex(data)
	engine := formula.NewEngine(nil, testLogger())
	unit := newUnitEconomics(tun, idx, data.Commissions)
	builder := newRowBuilder(tun, engine, unit, idx, nil, testLogger())
	estimator := newEstimator(tun, idx, nil)
	return builder.Build(data, estimator.OrdersDyn(data), estimator.BuyoutRates(data), cross, dateFrom)
}

func buildRowsWithRules(t *testing.T, data *SourceData, rules []formula.Rule, dateFrom string) []map[string]any {
	t.Helper()
	tun := testTuning()
	idx := emptyIndex(data)
	engine := formula.NewEngine(rules, testLogger())
	unit := newUnitEconomics(tun, idx, data.Commissions)
	builder := newRowBuilder(tun, engine, unit, idx, nil, testLogger())
	estimator := newEstimator(tun, idx, nil)
	return builder.Build(data, estimator.OrdersDyn(data), estimator.BuyoutRates(data), nil, dateFrom)
}

func testBuildData() *SourceData {
	days := []string{"2025-04-30", "2025-05-01", "2025-05-02"}
	data := makeData([]int64{100}, days)

	warm := data.Rows[dayKey{100, "2025-04-30"}]
	warm.OrdersCount = 2
	warm.OrdersSum = 300

	main := data.Rows[dayKey{100, "2025-05-01"}]
	main.OpenCount = 200
	main.CartCount = 40
	main.OrdersCount = 10
	main.OrdersSum = 1000
	main.BuyoutsCount = 5
	main.BuyoutsSum = 480
	main.CancelCount = 1
	main.CancelSum = 90
	main.Stocks = 5
	main.InWayToClient = 10
	main.InWayFromClient = 2

	return data
}

func TestBuild_CoreDerivations(t *testing.T) {
	rows := buildRows(t, testTuning(), testBuildData(), nil, "2025-05-01")
	require.Len(t, rows, 2)

	row := rows[0]
	assert.Equal(t, "2025-05-01", row["date"])
	assert.Equal(t, int64(100), row["nm_id"])
	assert.Equal(t, "2025-05-01__100", row["date__nm_id"])

	assert.Equal(t, int64(10), row["orders_count"])
	assert.Equal(t, 1000.0, row["orders_sum_rub"])
	assert.Equal(t, 100.0, row["avg_price"])
	assert.Equal(t, int64(4), row["orders_count_returned"])

	assert.Equal(t, 20.0, row["add_to_cart_conversion"])
	assert.Equal(t, 25.0, row["cart_to_order_conversion"])
	assert.Equal(t, 5.0, row["click_to_order_conversion"])
	assert.Equal(t, 50.0, row["buyout_percent"])

	// Hint rate 0.88 on both horizons with no better source.
	assert.Equal(t, 0.88, row["buyout_percent_day"])
	assert.Equal(t, 0.88, row["buyout_percent_month"])

	// 10 orders * 0.88 rounds half-up to 9 expected buyouts.
	assert.Equal(t, int64(9), row["expected_buyouts_count"])
	assert.Equal(t, 900.0, row["expected_buyouts_sum_rub"])

	// returns_plan = 2 + 10 * (1 - 0.88).
	assert.InDelta(t, 3.2, row["returns_plan"].(float64), 1e-9)
	assert.InDelta(t, 8.2, row["stocks_total"].(float64), 1e-9)
	assert.Equal(t, int64(5), row["stocks"])

	// Warm-up day seeded the trailing average: 2 orders / fixed 7.
	assert.InDelta(t, 0.29, row["orders_dyn"].(float64), 1e-9)
	assert.InDelta(t, 0.25143, row["expected_buyouts_dyn"].(float64), 1e-9)
	assert.InDelta(t, 17.5, row["stocks_enough_for"].(float64), 1e-9)
	assert.InDelta(t, 32.61, row["stocks_enough_for_with_buyout_perc"].(float64), 1e-9)

	// Default cost model on base price 100.
	assert.InDelta(t, 40.5, row["unit_expenses"].(float64), 1e-9)
	assert.InDelta(t, 535.5, row["profit_without_adv"].(float64), 1e-9)
	assert.InDelta(t, 535.5, row["profit_with_adv"].(float64), 1e-9)
}

func TestBuild_WarmupRowsTrimmedButCarried(t *testing.T) {
	rows := buildRows(t, testTuning(), testBuildData(), nil, "2025-05-01")
	require.Len(t, rows, 2)

	// The warm-up day never shows in the output.
	assert.Equal(t, "2025-05-01", rows[0]["date"])

	// The zero-order tail day carries the last real average price.
	tail := rows[1]
	assert.Equal(t, "2025-05-02", tail["date"])
	assert.Equal(t, int64(0), tail["orders_count"])
	assert.Equal(t, 100.0, tail["avg_price"])
	assert.Equal(t, 100.0, tail["order_price"])
}

func TestBuild_LocalizationFallback(t *testing.T) {
	rows := buildRows(t, testTuning(), testBuildData(), nil, "2025-05-01")
	row := rows[0]

	// No regional snapshots: all orders count as the central cluster
	// with zero localization.
	assert.Equal(t, int64(10), row["orders_count_total_central"])
	assert.Equal(t, int64(0), row["orders_count_local_central"])
	assert.Equal(t, int64(0), row["orders_count_local"])
	assert.Equal(t, 0.0, row["localization"])
}

func TestBuild_LocalizationFromSnapshots(t *testing.T) {
	data := testBuildData()
	data.Localization[dayKey{100, "2025-05-01"}] = localizationInfo{
		OrdersTotal: 10,
		OrdersLocal: 6,
		Totals:      map[string]float64{"central": 8, "volga": 2},
		Locals:      map[string]float64{"central": 6},
	}
	data.LocalizationDates[100] = []string{"2025-05-01"}

	rows := buildRows(t, testTuning(), data, nil, "2025-05-01")
	row := rows[0]

	assert.Equal(t, int64(6), row["orders_count_local"])
	assert.Equal(t, int64(8), row["orders_count_total_central"])
	assert.Equal(t, 75.0, row["localization_percent_central"])
	assert.Equal(t, 0.0, row["localization_percent_volga"])
	// 6 local of 10 orders.
	assert.InDelta(t, 0.6, row["localization"].(float64), 1e-9)

	// Carry-forward fills the next day from the latest snapshot.
	tail := rows[1]
	assert.Equal(t, int64(8), tail["orders_count_total_central"])
}

func TestBuild_CrossOverridesLast(t *testing.T) {
	cross := CrossOverrides{
		dayKey{100, "2025-05-01"}: {
			"orders_count": 3.7,
			"spp":          0.123456789,
			"no_such_col":  9,
		},
	}

	rows := buildRows(t, testTuning(), testBuildData(), cross, "2025-05-01")
	row := rows[0]

	// Integer fields truncate, rate fields keep 6 decimals, unknown
	// columns are ignored.
	assert.Equal(t, int64(3), row["orders_count"])
	assert.Equal(t, 0.123457, row["spp"])
	_, ok := row["no_such_col"]
	assert.False(t, ok)
}

func TestBuild_AdvSpendAndPercent(t *testing.T) {
	data := testBuildData()
	data.AdvSplits[dayKey{100, "2025-05-01"}] = advSplit{Auto: 120, Search: 30}

	rows := buildRows(t, testTuning(), data, nil, "2025-05-01")
	row := rows[0]

	assert.Equal(t, 150.0, row["adv_sum"])
	assert.Equal(t, 120.0, row["adv_sum_auto"])
	assert.Equal(t, 30.0, row["adv_sum_search"])
	assert.Equal(t, 0.15, row["adv_percent"])
	// Advertising lowers the with-adv profit.
	assert.InDelta(t, 385.5, row["profit_with_adv"].(float64), 1e-9)
}

func TestBuild_BrokenRuleYieldsToComputedProfit(t *testing.T) {
	rules := []formula.Rule{{Field: "profit_with_adv", Expr: "1/0"}}
	rows := buildRowsWithRules(t, testBuildData(), rules, "2025-05-01")
	require.Len(t, rows, 2)

	// The rule fails on every row, so the hard-coded computation stands
	// and nothing else on the row moves.
	row := rows[0]
	assert.InDelta(t, 535.5, row["profit_with_adv"].(float64), 1e-9)
	assert.InDelta(t, 535.5, row["profit_without_adv"].(float64), 1e-9)
	assert.Equal(t, int64(9), row["expected_buyouts_count"])
	assert.Equal(t, 900.0, row["expected_buyouts_sum_rub"])
	assert.Equal(t, 100.0, row["avg_price"])
}

func TestBuild_WorkingRuleOverridesProfit(t *testing.T) {
	rules := []formula.Rule{{Field: "profit_with_adv", Expr: "expected_buyouts_sum_rub - expected_buyouts_count * unit_expenses - adv_sum - 100"}}
	rows := buildRowsWithRules(t, testBuildData(), rules, "2025-05-01")
	require.Len(t, rows, 2)

	assert.InDelta(t, 435.5, rows[0]["profit_with_adv"].(float64), 1e-9)
	// The sibling field keeps its fallback value.
	assert.InDelta(t, 535.5, rows[0]["profit_without_adv"].(float64), 1e-9)
}

func TestBuild_SameInputsGiveIdenticalRows(t *testing.T) {
	makeInput := func() *SourceData {
		data := testBuildData()
		data.AdvSplits[dayKey{100, "2025-05-01"}] = advSplit{Auto: 120, Search: 30}
		data.Localization[dayKey{100, "2025-05-01"}] = localizationInfo{
			OrdersTotal: 10,
			OrdersLocal: 6,
			Totals:      map[string]float64{"central": 8, "volga": 2},
			Locals:      map[string]float64{"central": 6},
		}
		data.LocalizationDates[100] = []string{"2025-05-01"}
		return data
	}

	first := buildRows(t, testTuning(), makeInput(), nil, "2025-05-01")
	second := buildRows(t, testTuning(), makeInput(), nil, "2025-05-01")
	require.Len(t, second, len(first))

	for i := range first {
		a, err := json.Marshal(first[i])
		require.NoError(t, err)
		b, err := json.Marshal(second[i])
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}

func TestBuild_ZeroOrderDayPrefersStoredBuyerPrice(t *testing.T) {
	withUnitSnapshot := func() *SourceData {
		data := testBuildData()
		data.UnitSettings[100] = []contracts.UnitSettingsRow{
			{NmID: 100, Date: "2025-05-01", Values: map[string]float64{"discounted_price_with_spp": 70}},
		}
		return data
	}

	// With no stored price snapshot the unit settings price stands in.
	rows := buildRows(t, testTuning(), withUnitSnapshot(), nil, "2025-05-01")
	require.Len(t, rows, 2)
	assert.Equal(t, int64(0), rows[1]["orders_count"])
	assert.Equal(t, 70.0, rows[1]["avg_price_with_spp"])

	// A stored daily snapshot outranks it and carries forward from the
	// nearest prior date.
	data := withUnitSnapshot()
	data.Prices[dayKey{100, "2025-05-01"}] = pricePoint{Discounted: 95, DiscountedWithSpp: 82.5}
	data.PriceDates[100] = []string{"2025-05-01"}

	rows = buildRows(t, testTuning(), data, nil, "2025-05-01")
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-05-02", rows[1]["date"])
	assert.Equal(t, 82.5, rows[1]["avg_price_with_spp"])
}

func TestBuild_OutputSorted(t *testing.T) {
	days := []string{"2025-05-01", "2025-05-02"}
	data := makeData([]int64{200, 100}, days)
	// NmIDs arrive sorted from the reconciler.
	data.NmIDs = []int64{100, 200}

	rows := buildRows(t, testTuning(), data, nil, "2025-05-01")
	require.Len(t, rows, 4)

	assert.Equal(t, int64(100), rows[0]["nm_id"])
	assert.Equal(t, "2025-05-01", rows[0]["date"])
	assert.Equal(t, "2025-05-02", rows[1]["date"])
	assert.Equal(t, int64(200), rows[2]["nm_id"])
}
