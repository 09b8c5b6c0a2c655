package checklist

import (
	"fmt"
	"math"

	"github.com/btlz/tenx/backend/internal/fixture"
	"github.com/btlz/tenx/backend/internal/formula"
	"github.com/btlz/tenx/backend/pkg/logger"
)

// Fixture metric fields replaceable from the checklist sheet during
// parity runs.
var fixtureOverrideFields = []string{
	"adv_sum",
	"adv_percent",
	"avg_price_with_spp",
	"buyouts_count",
	"buyouts_sum_rub",
	"expected_buyouts_sum_rub",
	"orders_count",
	"orders_count_local",
	"orders_dyn",
	"orders_sum_rub",
	"profit_with_adv",
	"profit_without_adv",
	"spp",
	"stocks",
	"stocks_enough_for",
	"stocks_enough_for_with_buyout_perc",
	"stocks_total",
}

var overrideIntFields = map[string]bool{
	"orders_count":       true,
	"orders_count_local": true,
	"buyouts_count":      true,
	"stocks":             true,
	"wrn_count":          true,
}

var overrideSixDecFields = map[string]bool{
	"adv_percent": true,
	"spp":         true,
}

// ChecklistRowBuilder turns assembled sources plus estimator output
// into final checklist rows.
type ChecklistRowBuilder struct {
	tun      Tuning
	formula  *formula.Engine
	unit     *UnitEconomicsCalculator
	idx      *settingsIndex
	workbook *fixture.Workbook
	logger   *logger.Logger
}

func newRowBuilder(tun Tuning, engine *formula.Engine, unit *UnitEconomicsCalculator, idx *settingsIndex, workbook *fixture.Workbook, log *logger.Logger) *ChecklistRowBuilder {
	return &ChecklistRowBuilder{
		tun:      tun,
		formula:  engine,
		unit:     unit,
		idx:      idx,
		workbook: workbook,
		logger:   log,
	}
}

// Build produces the checklist rows for [dateFrom, end of data]. Rows
// in the warm-up prefix are computed for their carry-forward effects
// and then dropped. Output is ordered by (SKU, day).
func (b *ChecklistRowBuilder) Build(data *SourceData, ordersDyn map[dayKey]float64, rates buyoutRates, cross CrossOverrides, dateFrom string) []map[string]any {
	var out []map[string]any
	lastAvgPrice := map[int64]float64{}

	for _, nmID := range data.NmIDs {
		for _, stat := range data.ByNm[nmID] {
			row := b.buildRow(data, stat, ordersDyn, rates, lastAvgPrice, dateFrom)
			if row == nil {
				continue
			}
			b.applyFixtureMetrics(row, nmID, stat.Date)
			b.applyCrossOverrides(row, cross, nmID, stat.Date)
			out = append(out, row)
		}
	}
	return out
}

func (b *ChecklistRowBuilder) buildRow(data *SourceData, stat *dayStat, ordersDyn map[dayKey]float64, rates buyoutRates, lastAvgPrice map[int64]float64, dateFrom string) map[string]any {
	nmID := stat.NmID
	day := stat.Date
	key := dayKey{nmID, day}

	ordersCount := stat.OrdersCount
	ordersSum := stat.OrdersSum
	buyoutsCount := stat.BuyoutsCount
	buyoutsSum := stat.BuyoutsSum
	cancelCount := stat.CancelCount
	cancelSum := stat.CancelSum
	openCount := stat.OpenCount
	cartCount := stat.CartCount

	addToCartConv := stat.AddToCartConv
	cartToOrderConv := stat.CartToOrderConv
	if addToCartConv <= 0 && openCount > 0 {
		addToCartConv = float64(cartCount) / float64(openCount) * 100
	}
	if cartToOrderConv <= 0 && cartCount > 0 {
		cartToOrderConv = float64(ordersCount) / float64(cartCount) * 100
	}
	clickToOrderConv := 0.0
	if openCount > 0 {
		clickToOrderConv = float64(ordersCount) / float64(openCount) * 100
	}
	buyoutPercent := stat.BuyoutPercent
	if buyoutPercent <= 0 && ordersCount > 0 {
		buyoutPercent = float64(buyoutsCount) / float64(ordersCount) * 100
	}

	stocks := int64(math.Max(stat.Stocks, 0))
	inWayTo := math.Max(stat.InWayToClient, 0)
	inWayFrom := math.Max(stat.InWayFromClient, 0)

	regionTotals, regionLocals, ordersCountLocal, localizationPercent :=
		b.resolveLocalization(data, nmID, day, ordersCount)

	var checklistSnap map[string]float64
	if b.tun.UseFixtureSnapshot {
		checklistSnap, _ = b.workbook.ChecklistRow(nmID, day)
	}
	if v, ok := checklistSnap["orders_count_local"]; ok {
		ordersCountLocal = maxInt64(int64(v), 0)
	}

	split := data.AdvSplits[key]
	advSum := split.total()

	extra := data.Extras[key]
	externalCosts := math.Max(extra.ExternalCosts, 0)

	meta := data.Cards[nmID]

	// Card price chain: catalog price, stored daily price snapshot
	// (carry-forward), fixture unit settings, finally the carried
	// average order price.
	storedPrice, hasStoredPrice := data.Prices[key]
	if !hasStoredPrice {
		if prev := priorDate(data.PriceDates[nmID], day); prev != "" {
			storedPrice, hasStoredPrice = data.Prices[dayKey{nmID, prev}]
		}
	}
	unitSnap := b.idx.snapshotForDay(nmID, day)
	unitDiscounted := math.Max(unitSnap["discounted_price"], 0)
	unitDiscountedWithSpp := math.Max(unitSnap["discounted_price_with_spp"], 0)
	if unitDiscountedWithSpp <= 0 && unitDiscounted > 0 {
		if hint := math.Min(math.Max(normPercent(unitSnap["spp"]), 0), 0.95); hint > 0 {
			unitDiscountedWithSpp = math.Max(unitDiscounted*(1-hint), 0)
		}
	}
	cardPrice := round2(meta.CardPrice)
	if cardPrice <= 0 && hasStoredPrice && storedPrice.Discounted > 0 {
		cardPrice = round2(storedPrice.Discounted)
	}
	if cardPrice <= 0 && unitDiscounted > 0 {
		cardPrice = round2(unitDiscounted)
	}
	if cardPrice < 0 {
		cardPrice = 0
	}

	// Average price comes strictly from orders and carries forward;
	// seeding it from catalog prices would fabricate values before the
	// first order day.
	avgPrice := 0.0
	if ordersCount > 0 {
		avgPrice = round2(ordersSum / float64(ordersCount))
	}
	if avgPrice > 0 {
		lastAvgPrice[nmID] = avgPrice
	} else {
		avgPrice = math.Max(lastAvgPrice[nmID], 0)
	}

	// Warm-up rows exist only to seed rolling state and carry-forward.
	if day < dateFrom {
		return nil
	}

	if cardPrice <= 0 && avgPrice > 0 {
		cardPrice = avgPrice
	}
	orderPrice := avgPrice

	spp := math.Max(stat.Spp, 0)
	if spp <= 0 && extra.Spp > 0 {
		spp = extra.Spp
	}

	returnsCount := maxInt64(ordersCount-buyoutsCount-cancelCount, 0)

	dyn := math.Max(ordersDyn[key], 0)
	if v, ok := checklistSnap["orders_dyn"]; ok {
		dyn = math.Max(v, 0)
	}

	rateMonth := math.Max(rates.Month[key], 0)
	if rateMonth <= 0 {
		rateMonth = b.idx.hintBuyoutPercent(nmID, day, b.tun.DefaultBuyoutPercent)
	}
	rateDay := math.Max(rates.Day[key], 0)
	if rateDay <= 0 {
		rateDay = rateMonth
	}
	rateMonth = math.Max(math.Min(rateMonth, 1.2), 0)
	rateDay = math.Max(math.Min(rateDay, 1.2), 0)

	expectedCount := maxInt64(roundIntHalfUp(float64(ordersCount)*rateDay), 0)
	expectedSum := 0.0
	if expectedCount > 0 && avgPrice > 0 {
		expectedSum = round2HalfUp(float64(expectedCount) * avgPrice)
	}

	// returns_plan reconstructs the sheet column: everything on its way
	// back plus the share of outbound units expected to bounce.
	returnsPlan := math.Max(inWayFrom+inWayTo*(1-rateMonth), 0)
	stocksTotal := math.Max(float64(stocks)+returnsPlan, 0)
	if v, ok := checklistSnap["stocks_total"]; ok {
		stocksTotal = math.Max(v, 0)
	}

	sppShare := math.Min(math.Max(normPercent(spp), 0), 0.95)

	subjectID := meta.SubjectID
	settings := b.unit.EffectiveSettings(nmID, day, subjectID)

	basePrice := avgPrice
	if basePrice <= 0 && buyoutsCount > 0 {
		basePrice = round2(buyoutsSum / float64(buyoutsCount))
	}
	if basePrice <= 0 {
		basePrice = cardPrice
	}
	components := b.unit.Components(settings, basePrice, sppShare)
	unitExpenses := b.unit.UnitExpensesForDay(components, nmID, day)

	formulaValues := map[string]any{
		"orders_sum_rub":           round2(ordersSum),
		"orders_count":             float64(ordersCount),
		"orders_dyn":               round2(dyn),
		"avg_price":                round2(avgPrice),
		"spp":                      spp,
		"adv_sum":                  round2(advSum),
		"promo_sum":                0.0,
		"unit_expenses":            unitExpenses,
		"expected_buyouts_count":   float64(expectedCount),
		"expected_buyouts_sum_rub": expectedSum,
		"buyout_percent_month":     round6(rateMonth),
		"stocks_total":             stocksTotal,
		"open_card_count":          float64(openCount),
	}
	formulaOut := b.formula.ApplyChecklist(formulaValues)

	avgPriceWithSpp := math.Max(toFloat(formulaOut["avg_price_with_spp"]), 0)
	if ordersCount <= 0 {
		// Zero-order days take the carried buyer-side price: the stored
		// daily snapshot outranks the unit/fixture snapshot.
		if hasStoredPrice && storedPrice.DiscountedWithSpp > 0 {
			avgPriceWithSpp = storedPrice.DiscountedWithSpp
		} else if unitDiscountedWithSpp > 0 {
			avgPriceWithSpp = unitDiscountedWithSpp
		}
	}

	expectedDyn := math.Max(toFloat(formulaOut["expected_buyouts_dyn"]), 0)
	if expectedDyn <= 0 && dyn > 0 && rateMonth > 0 {
		expectedDyn = dyn * rateMonth
	}

	var profitWithoutAdv float64
	if v, ok := formulaOut["profit_without_adv"]; ok {
		profitWithoutAdv = round2HalfUp(toFloat(v))
	} else {
		profitWithoutAdv = round2HalfUp(expectedSum - float64(expectedCount)*unitExpenses)
	}
	profitWithAdv := round2HalfUp(profitWithoutAdv - advSum)
	if v, ok := formulaOut["profit_with_adv"]; ok {
		profitWithAdv = round2HalfUp(toFloat(v))
	}
	if v, ok := formulaOut["expected_buyouts_count"]; ok {
		expectedCount = maxInt64(roundIntHalfUp(toFloat(v)), 0)
	}
	if v, ok := formulaOut["expected_buyouts_sum_rub"]; ok {
		expectedSum = round2HalfUp(toFloat(v))
	}

	stocksEnoughFor := 0.0
	if dyn > 0 {
		stocksEnoughFor = round2HalfUp(safeDiv(float64(stocks), dyn))
	}
	stocksEnoughWithBuyout := 0.0
	if expectedDyn > 0 {
		stocksEnoughWithBuyout = round2HalfUp(safeDiv(stocksTotal, expectedDyn))
	}
	stocksRub := round2(stocksTotal * cardPrice)
	returnsPlanRub := 0.0
	if components.SebesRub > 0 {
		returnsPlanRub = round2(returnsPlan * components.SebesRub)
	}
	advPercent := 0.0
	if ordersSum > 0 {
		advPercent = safeDiv(advSum, ordersSum)
	}

	row := NewRow()
	row["date"] = day
	row["nm_id"] = nmID
	row["date__nm_id"] = fmt.Sprintf("%s__%d", day, nmID)
	row["imt_id"] = meta.ImtID
	row["open_card_count_jam"] = openCount
	row["add_to_cart_count_jam"] = cartCount
	row["orders_count_jam"] = ordersCount
	row["views"] = openCount
	row["clicks"] = cartCount
	row["adv_sum"] = round2(advSum)
	row["adv_sum_auto"] = round2(split.Auto)
	row["adv_sum_search"] = round2(split.Search)
	// Keyword spend has no dedicated source; it tracks the search
	// bucket.
	row["adv_sum_keywords"] = round2(split.Search)
	row["adv_percent"] = round6(advPercent)
	row["external_costs"] = round2(externalCosts)
	row["atbs"] = cartCount
	row["orders"] = ordersCount
	row["shks"] = buyoutsCount
	row["sum_price"] = round2(ordersSum)
	row["open_card_count"] = openCount
	row["orders_sum_rub"] = round2(ordersSum)
	row["orders_count"] = ordersCount
	row["orders_dyn"] = round2(dyn)
	row["add_to_cart_count"] = cartCount
	row["add_to_cart_conversion"] = round2(addToCartConv)
	row["cart_to_order_conversion"] = round2(cartToOrderConv)
	row["click_to_order_conversion"] = round2(clickToOrderConv)
	row["buyout_percent"] = round2(buyoutPercent)
	row["buyout_percent_day"] = round6(rateDay)
	row["buyout_percent_month"] = round6(rateMonth)
	row["spp"] = round6(spp)
	row["buyouts_sum_rub"] = round2(buyoutsSum)
	row["buyouts_count"] = buyoutsCount
	row["avg_price"] = round2(avgPrice)
	row["avg_price_with_spp"] = round2(avgPriceWithSpp)
	row["stocks"] = stocks
	row["stocks_sizes"] = round2(stocksTotal)
	row["in_way_to_client"] = round2(inWayTo)
	row["in_way_from_client"] = round2(inWayFrom)
	row["stocks_total"] = round2(stocksTotal)
	row["stocks_enough_for"] = stocksEnoughFor
	row["stocks_enough_for_with_buyout_perc"] = stocksEnoughWithBuyout
	row["returns_plan"] = round2(returnsPlan)
	row["returns_plan_rub"] = returnsPlanRub
	row["order_price"] = round2(orderPrice)
	row["card_price"] = round2(cardPrice)
	row["localization"] = round2(localizationPercent / 100)
	row["orders_count_local"] = ordersCountLocal
	row["sebes_rub"] = round2(components.SebesRub)
	row["markirovka_rub"] = round2(components.MarkirovkaRub)
	row["perc_mp_rub"] = round2(components.PercMPRub)
	row["delivery_mp_with_buyout_rub"] = round2(components.DeliveryRub)
	row["hranenie_rub"] = round2(components.HranenieRub)
	row["acquiring_rub"] = round2(components.AcquiringRub)
	row["tax_total_rub"] = round2(components.TaxTotalRub)
	row["additional_costs"] = round2(components.AdditionalCosts)
	row["priemka_rub"] = round2(components.PriemkaRub)
	row["marg_without_adv"] = profitWithoutAdv
	row["marg_with_adv"] = profitWithAdv
	row["profit_without_adv"] = profitWithoutAdv
	row["profit_with_adv"] = profitWithAdv
	row["promo_sum"] = 0.0
	row["promo_count"] = int64(0)
	row["promo_total_cost"] = round2(advSum)
	row["expected_buyouts_sum_rub"] = expectedSum
	row["unit_expenses"] = round2(unitExpenses)
	row["stocks_rub"] = stocksRub
	row["all_stocks_rub"] = stocksRub
	row["views_keywords"] = openCount
	row["frequency"] = openCount
	row["jam_clicks"] = cartCount
	row["orders_count_completed"] = ordersCount
	row["orders_count_canceled"] = cancelCount
	row["orders_count_returned"] = returnsCount
	row["orders_buyouts_count"] = buyoutsCount
	row["orders_sum_rub_completed"] = round2(ordersSum)
	row["orders_sum_rub_canceled"] = round2(cancelSum)
	row["orders_sum_rub_returned"] = 0.0
	row["orders_buyouts_sum_rub"] = round2(buyoutsSum)
	row["expected_buyouts_count"] = expectedCount
	row["expected_buyouts_dyn"] = round5(expectedDyn)
	row["orders_count_returned_fact"] = returnsCount
	row["orders_buyouts_count_fact"] = buyoutsCount
	row["orders_count_canceled_fact"] = cancelCount
	row["orders_buyouts_sum_rub_fact"] = round2(buyoutsSum)
	row["orders_sum_rub_returned_fact"] = 0.0
	row["orders_sum_rub_canceled_fact"] = round2(cancelSum)
	row["log_text"] = "autonomous-checklist"

	for _, region := range regionKeys {
		total := maxInt64(regionTotals[region], 0)
		local := maxInt64(regionLocals[region], 0)
		row["orders_count_total_"+region] = total
		row["orders_count_local_"+region] = local
		percent := 0.0
		if total > 0 {
			percent = round2(safeDiv(float64(local), float64(total)) * 100)
		}
		row["localization_percent_"+region] = percent
	}

	return row
}

// resolveLocalization returns the regional order split for a day, with
// carry-forward from the latest prior snapshot when enabled, plus the
// derived local count and percentage.
func (b *ChecklistRowBuilder) resolveLocalization(data *SourceData, nmID int64, day string, ordersCount int64) (map[string]int64, map[string]int64, int64, float64) {
	totals := map[string]int64{}
	locals := map[string]int64{}

	info, ok := data.Localization[dayKey{nmID, day}]
	if !ok && b.tun.LocalizationCarryFwd {
		if prev := priorDate(data.LocalizationDates[nmID], day); prev != "" {
			info, ok = data.Localization[dayKey{nmID, prev}]
		}
	}

	if !ok {
		// No regional snapshots: everything counts as the central
		// cluster with zero localization.
		if ordersCount > 0 {
			totals["central"] = ordersCount
		}
		return totals, locals, 0, 0
	}

	for _, region := range regionKeys {
		totals[region] = maxInt64(int64(info.Totals[region]), 0)
		locals[region] = maxInt64(int64(info.Locals[region]), 0)
	}
	ordersCountLocal := maxInt64(locals["central"], 0)

	baseOrders := ordersCount
	if baseOrders <= 0 {
		baseOrders = int64(math.Max(info.OrdersTotal, 0))
	}
	localizationPercent := 0.0
	if baseOrders > 0 {
		localizationPercent = float64(ordersCountLocal) / float64(baseOrders) * 100
	} else if info.OrdersTotal > 0 {
		localizationPercent = safeDiv(info.OrdersLocal, info.OrdersTotal) * 100
	}

	var totalSum int64
	for _, v := range totals {
		totalSum += v
	}
	if totalSum <= 0 && ordersCount > 0 {
		totals["central"] = ordersCount
	}
	if locals["central"] <= 0 && ordersCountLocal > 0 {
		locals["central"] = ordersCountLocal
	}
	return totals, locals, ordersCountLocal, localizationPercent
}

// applyFixtureMetrics overlays metric fields from the fixture
// checklist sheet.
func (b *ChecklistRowBuilder) applyFixtureMetrics(row map[string]any, nmID int64, day string) {
	if !b.tun.UseFixtureSnapshot || !b.tun.UseFixtureMetrics {
		return
	}
	snap, ok := b.workbook.ChecklistRow(nmID, day)
	if !ok {
		return
	}
	for _, field := range fixtureOverrideFields {
		raw, present := snap[field]
		if !present {
			continue
		}
		setOverride(row, field, raw)
	}
}

// applyCrossOverrides applies the manual CSV overrides last.
func (b *ChecklistRowBuilder) applyCrossOverrides(row map[string]any, cross CrossOverrides, nmID int64, day string) {
	fields, ok := cross[dayKey{nmID, day}]
	if !ok {
		return
	}
	for field, raw := range fields {
		if _, known := row[field]; !known {
			continue
		}
		setOverride(row, field, raw)
	}
}

func setOverride(row map[string]any, field string, raw float64) {
	switch {
	case overrideIntFields[field]:
		row[field] = maxInt64(int64(raw), 0)
	case overrideSixDecFields[field]:
		row[field] = round6(raw)
	default:
		row[field] = round2HalfUp(raw)
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}
