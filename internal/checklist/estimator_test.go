package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersDyn(t *testing.T) {
	days := dateRange("2025-05-01", "2025-05-09")
	data := makeData([]int64{100}, days)
	// 7 orders on the first day only.
	data.Rows[dayKey{100, "2025-05-01"}].OrdersCount = 7

	dyn := newEstimator(testTuning(), emptyIndex(data), nil).OrdersDyn(data)

	// A day's own orders never count towards its value.
	assert.Equal(t, 0.0, dyn[dayKey{100, "2025-05-01"}])
	assert.Equal(t, 1.0, dyn[dayKey{100, "2025-05-02"}])
	// Still inside the trailing window on day 8.
	assert.Equal(t, 1.0, dyn[dayKey{100, "2025-05-08"}])
	// Slid out of the window on day 9.
	assert.Equal(t, 0.0, dyn[dayKey{100, "2025-05-09"}])
}

func TestOrdersDynFixedDenominator(t *testing.T) {
	days := dateRange("2025-05-01", "2025-05-03")
	data := makeData([]int64{100}, days)
	data.Rows[dayKey{100, "2025-05-01"}].OrdersCount = 14
	data.Rows[dayKey{100, "2025-05-02"}].OrdersCount = 7

	dyn := newEstimator(testTuning(), emptyIndex(data), nil).OrdersDyn(data)

	// The denominator stays 7 even when fewer days exist.
	assert.InDelta(t, 2.0, dyn[dayKey{100, "2025-05-02"}], 1e-9)
	assert.InDelta(t, 3.0, dyn[dayKey{100, "2025-05-03"}], 1e-9)
}

func TestBuyoutRates_HintModel(t *testing.T) {
	days := dateRange("2025-05-01", "2025-05-03")
	data := makeData([]int64{100}, days)

	tun := testTuning()
	tun.BuyoutDayFromReport = false
	rates := newEstimator(tun, emptyIndex(data), nil).BuyoutRates(data)

	for _, day := range days {
		key := dayKey{100, day}
		assert.Equal(t, 0.88, rates.Month[key])
		assert.Equal(t, 0.88, rates.Day[key])
	}
}

func TestBuyoutRates_RealizedDayOverride(t *testing.T) {
	days := dateRange("2025-05-01", "2025-05-02")
	data := makeData([]int64{100}, days)
	data.Rows[dayKey{100, "2025-05-01"}].OrdersCount = 10
	data.Extras[dayKey{100, "2025-05-01"}] = reportExtra{BuyoutsCount: 8, ReturnsCount: 1}

	rates := newEstimator(testTuning(), emptyIndex(data), nil).BuyoutRates(data)

	// Realized settlement outcome replaces the day rate: (8-1)/10.
	assert.Equal(t, 0.7, rates.Day[dayKey{100, "2025-05-01"}])
	// Month stays on the hint; the day without outcomes does too.
	assert.Equal(t, 0.88, rates.Month[dayKey{100, "2025-05-01"}])
	assert.Equal(t, 0.88, rates.Day[dayKey{100, "2025-05-02"}])
}

func TestBuyoutRates_RealizedNeverNegative(t *testing.T) {
	days := []string{"2025-05-01"}
	data := makeData([]int64{100}, days)
	data.Rows[dayKey{100, "2025-05-01"}].OrdersCount = 5
	data.Extras[dayKey{100, "2025-05-01"}] = reportExtra{BuyoutsCount: 1, ReturnsCount: 4}

	rates := newEstimator(testTuning(), emptyIndex(data), nil).BuyoutRates(data)

	assert.Equal(t, 0.0, rates.Day[dayKey{100, "2025-05-01"}])
}

func TestBuyoutRates_RollingModel(t *testing.T) {
	days := dateRange("2025-05-01", "2025-05-10")
	data := makeData([]int64{100}, days)
	for _, day := range days {
		data.Rows[dayKey{100, day}].OrdersCount = 5
		data.Extras[dayKey{100, day}] = reportExtra{BuyoutsCount: 4}
	}

	tun := testTuning()
	tun.BuyoutModel = "rolling"
	tun.MonthWindowDays = 5
	tun.MonthLagDays = 2
	tun.MonthMinOrders = 0
	tun.DayWindowDays = 3
	tun.DayLagDays = 2
	tun.DayMinOrders = 0
	tun.BuyoutDayFromReport = false

	rates := newEstimator(tun, emptyIndex(data), nil).BuyoutRates(data)

	// Steady 4/5 outcome shows through every settled window.
	assert.Equal(t, 0.8, rates.Month[dayKey{100, "2025-05-10"}])
	assert.Equal(t, 0.8, rates.Day[dayKey{100, "2025-05-10"}])

	// Lag pushes the first days before the series: month reads zero,
	// day falls back to the hint.
	assert.Equal(t, 0.0, rates.Month[dayKey{100, "2025-05-01"}])
	assert.Equal(t, 0.88, rates.Day[dayKey{100, "2025-05-01"}])
}

func TestBuyoutRates_RollingMinOrdersGate(t *testing.T) {
	days := dateRange("2025-05-01", "2025-05-10")
	data := makeData([]int64{100}, days)
	for _, day := range days {
		data.Rows[dayKey{100, day}].OrdersCount = 1
		data.Extras[dayKey{100, day}] = reportExtra{BuyoutsCount: 1}
	}

	tun := testTuning()
	tun.BuyoutModel = "rolling"
	tun.MonthWindowDays = 5
	tun.MonthLagDays = 0
	tun.MonthMinOrders = 20
	tun.BuyoutDayFromReport = false

	rates := newEstimator(tun, emptyIndex(data), nil).BuyoutRates(data)

	// Under the order threshold the month estimate stays at zero.
	require.NotEmpty(t, rates.Month)
	assert.Equal(t, 0.0, rates.Month[dayKey{100, "2025-05-10"}])
}
