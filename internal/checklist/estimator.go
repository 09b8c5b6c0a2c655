package checklist

import (
	"math"

	"github.com/btlz/tenx/backend/internal/fixture"
)

// RollingEstimator derives the behavioral metrics of a build: the
// lagged order-rate average and the per-day/per-month buyout rates.
type RollingEstimator struct {
	tun      Tuning
	idx      *settingsIndex
	workbook *fixture.Workbook
}

func newEstimator(tun Tuning, idx *settingsIndex, workbook *fixture.Workbook) *RollingEstimator {
	return &RollingEstimator{tun: tun, idx: idx, workbook: workbook}
}

// buyoutRates holds the month and day rate series keyed by (SKU, day).
type buyoutRates struct {
	Month map[dayKey]float64
	Day   map[dayKey]float64
}

// OrdersDyn computes the lagged 7-day trailing order average per
// (SKU, day): the sum of the 7 days before the day divided by a fixed
// 7, missing days counting as zero. The value for a day never includes
// the day itself.
func (e *RollingEstimator) OrdersDyn(data *SourceData) map[dayKey]float64 {
	out := make(map[dayKey]float64, len(data.Rows))

	for _, nmID := range data.NmIDs {
		var window [7]float64
		winSum := 0.0
		pos := 0
		for _, row := range data.ByNm[nmID] {
			out[dayKey{nmID, row.Date}] = math.Max(winSum/7, 0)
			current := math.Max(float64(row.OrdersCount), 0)
			winSum += current - window[pos]
			window[pos] = current
			pos = (pos + 1) % 7
		}
	}
	return out
}

// BuyoutRates estimates the month and day buyout rates for every
// (SKU, day) under the configured model, then applies fixture sheet
// overrides when enabled. All rates are clamped to [0, 1.2] at 6dp.
func (e *RollingEstimator) BuyoutRates(data *SourceData) buyoutRates {
	rates := buyoutRates{
		Month: make(map[dayKey]float64, len(data.Rows)),
		Day:   make(map[dayKey]float64, len(data.Rows)),
	}

	if e.tun.BuyoutModel == "rolling" {
		e.rollingRates(data, &rates)
	} else {
		e.hintRates(data, &rates)
	}
	e.applyFixtureRates(data, &rates)
	return rates
}

// hintRates is the default model: the per-SKU settings hint everywhere,
// with realized settlement outcomes overriding the day rate where the
// report has them.
func (e *RollingEstimator) hintRates(data *SourceData, rates *buyoutRates) {
	for _, nmID := range data.NmIDs {
		for _, day := range data.Days {
			hint := e.idx.hintBuyoutPercent(nmID, day, e.tun.DefaultBuyoutPercent)
			key := dayKey{nmID, day}
			rates.Month[key] = hint
			rates.Day[key] = hint
		}
	}

	if !e.tun.BuyoutDayFromReport {
		return
	}
	for _, nmID := range data.NmIDs {
		for _, row := range data.ByNm[nmID] {
			if row.OrdersCount <= 0 {
				continue
			}
			key := dayKey{nmID, row.Date}
			extra, ok := data.Extras[key]
			if !ok || (extra.BuyoutsCount <= 0 && extra.ReturnsCount <= 0) {
				continue
			}
			net := extra.BuyoutsCount - extra.ReturnsCount
			if net < 0 {
				net = 0
			}
			rates.Day[key] = clampRate(float64(net) / float64(row.OrdersCount))
		}
	}
}

// rollingRates estimates rates from trailing windows of orders vs
// realized outcomes, applying the lag relative to each day so recent
// censored days never dilute the estimate.
func (e *RollingEstimator) rollingRates(data *SourceData, rates *buyoutRates) {
	days := data.Days
	monthWindow := maxInt(e.tun.MonthWindowDays, 1)
	monthLag := maxInt(e.tun.MonthLagDays, 0)
	monthMin := maxInt(e.tun.MonthMinOrders, 0)
	dayWindow := maxInt(e.tun.DayWindowDays, 1)
	dayLag := maxInt(e.tun.DayLagDays, 0)
	dayMin := maxInt(e.tun.DayMinOrders, 0)

	for _, nmID := range data.NmIDs {
		ordersByDay := make(map[string]int64, len(days))
		for _, row := range data.ByNm[nmID] {
			ordersByDay[row.Date] += maxInt64(row.OrdersCount, 0)
		}

		prefOrders := make([]int64, len(days)+1)
		prefNet := make([]int64, len(days)+1)
		for i, day := range days {
			extra := data.Extras[dayKey{nmID, day}]
			net := extra.BuyoutsCount - extra.ReturnsCount
			if net < 0 {
				net = 0
			}
			prefOrders[i+1] = prefOrders[i] + ordersByDay[day]
			prefNet[i+1] = prefNet[i] + net
		}

		windowRate := func(i, lag, window, minOrders int) (float64, bool) {
			end := i - lag
			if end < 0 {
				return 0, false
			}
			if end > len(days)-1 {
				end = len(days) - 1
			}
			start := end - window + 1
			if start < 0 {
				start = 0
			}
			sumOrders := prefOrders[end+1] - prefOrders[start]
			sumNet := prefNet[end+1] - prefNet[start]
			if sumOrders <= 0 || (minOrders > 0 && sumOrders < int64(minOrders)) {
				return 0, false
			}
			return float64(sumNet) / float64(sumOrders), true
		}

		for i, day := range days {
			key := dayKey{nmID, day}
			hint := e.idx.hintBuyoutPercent(nmID, day, e.tun.DefaultBuyoutPercent)

			// Cold windows read as zero month rate so expected metrics
			// never inflate on low-signal SKUs.
			rateMonth, ok := windowRate(i, monthLag, monthWindow, monthMin)
			if !ok {
				rateMonth = 0
			}

			rateDay, ok := windowRate(i, dayLag, dayWindow, dayMin)
			if !ok {
				rateDay = hint
			}
			if e.tun.BuyoutDayFromReport {
				if extra, found := data.Extras[key]; found && ordersByDay[day] > 0 &&
					(extra.BuyoutsCount > 0 || extra.ReturnsCount > 0) {
					net := extra.BuyoutsCount - extra.ReturnsCount
					if net < 0 {
						net = 0
					}
					rateDay = float64(net) / float64(ordersByDay[day])
				}
			}

			rates.Month[key] = clampRate(rateMonth)
			rates.Day[key] = clampRate(rateDay)
		}
	}
}

// applyFixtureRates overlays buyout rates from the fixture checklist
// sheet for parity runs.
func (e *RollingEstimator) applyFixtureRates(data *SourceData, rates *buyoutRates) {
	if !e.tun.UseFixtureSnapshot || !e.tun.UseFixtureBuyoutRates || e.workbook.Empty() {
		return
	}
	if len(data.Days) == 0 {
		return
	}
	first, last := data.Days[0], data.Days[len(data.Days)-1]

	for _, nmID := range data.NmIDs {
		for day, snap := range e.workbook.Checklist[nmID] {
			if day < first || day > last {
				continue
			}
			key := dayKey{nmID, day}
			if v, ok := snap["buyout_percent_month"]; ok {
				rates.Month[key] = clampRate(v)
			}
			if v, ok := snap["buyout_percent_day"]; ok {
				rates.Day[key] = clampRate(v)
			}
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
