package checklist

import (
	"math"
	"strings"

	"github.com/btlz/tenx/backend/internal/calibration"
	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/internal/fixture"
)

// settingsKeys are the per-SKU economic settings resolved through the
// precedence chain for the cost model.
var settingsKeys = []string{
	"sebes_rub",
	"markirovka_rub",
	"perc_mp",
	"delivery_mp_with_buyout_rub",
	"hranenie_rub",
	"acquiring_perc",
	"tax_total_perc",
	"additional_costs",
	"priemka_rub",
	"spp",
	"expenses",
}

// commissionFieldAliases map operator spellings of the tariff scheme
// to canonical field names.
var commissionFieldAliases = map[string]string{
	"marketplace":            "kgvp_marketplace",
	"kgvpmarketplace":        "kgvp_marketplace",
	"kgvp_marketplace":       "kgvp_marketplace",
	"supplier":               "kgvp_supplier",
	"kgvpsupplier":           "kgvp_supplier",
	"kgvp_supplier":          "kgvp_supplier",
	"supplierexpress":        "kgvp_supplier_express",
	"supplier_express":       "kgvp_supplier_express",
	"kgvpsupplierexpress":    "kgvp_supplier_express",
	"kgvp_supplier_express":  "kgvp_supplier_express",
	"storage":                "paid_storage_kgvp",
	"paidstoragekgvp":        "paid_storage_kgvp",
	"paid_storage_kgvp":      "paid_storage_kgvp",
}

func commissionFieldKey(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return "kgvp_marketplace"
	}
	name = strings.ReplaceAll(name, "-", "_")
	if canonical, ok := commissionFieldAliases[name]; ok {
		return canonical
	}
	if canonical, ok := commissionFieldAliases[strings.ReplaceAll(name, "_", "")]; ok {
		return canonical
	}
	return name
}

// settingsIndex resolves dated unit settings with the stored history
// first and the fixture workbook as "current config" fallback. Unit
// log totals from both sources are merged, stored rows winning.
type settingsIndex struct {
	stored      map[int64][]contracts.UnitSettingsRow
	storedDates map[int64][]string
	fixtureUnit map[int64]fixture.UnitRow
	plan        map[int64]contracts.PlanSettings
	calibration *calibration.Snapshot

	unitLog      map[int64]map[string]float64
	unitLogDates map[int64][]string
}

func newSettingsIndex(data *SourceData, workbook *fixture.Workbook, cal *calibration.Snapshot) *settingsIndex {
	idx := &settingsIndex{
		stored:       data.UnitSettings,
		storedDates:  map[int64][]string{},
		fixtureUnit:  map[int64]fixture.UnitRow{},
		plan:         data.Plan,
		calibration:  cal,
		unitLog:      map[int64]map[string]float64{},
		unitLogDates: map[int64][]string{},
	}
	for id, rows := range data.UnitSettings {
		dates := make([]string, len(rows))
		for i, row := range rows {
			dates[i] = row.Date
		}
		idx.storedDates[id] = dates
	}
	if workbook != nil {
		for id, row := range workbook.UnitSettings {
			idx.fixtureUnit[id] = row
		}
		for id, days := range workbook.UnitLog {
			bucket := map[string]float64{}
			for day, total := range days {
				bucket[day] = total
			}
			idx.unitLog[id] = bucket
		}
	}
	for id, days := range data.UnitLog {
		bucket := idx.unitLog[id]
		if bucket == nil {
			bucket = map[string]float64{}
			idx.unitLog[id] = bucket
		}
		for day, total := range days {
			bucket[day] = total
		}
	}
	for id, days := range idx.unitLog {
		dates := make([]string, 0, len(days))
		for day := range days {
			dates = append(dates, day)
		}
		idx.unitLogDates[id] = dedupe(dates)
	}
	return idx
}

// snapshotForDay returns the unit settings effective on a day: the
// latest stored snapshot at or before it, the earliest one for days
// before the first, else the fixture row.
func (x *settingsIndex) snapshotForDay(nmID int64, day string) map[string]float64 {
	if pick := priorOrFirst(x.storedDates[nmID], day); pick != "" {
		for _, row := range x.stored[nmID] {
			if row.Date == pick {
				return row.Values
			}
		}
	}
	if row, ok := x.fixtureUnit[nmID]; ok {
		return row.Values
	}
	return nil
}

// planValue returns the saved plan setting for a key, 0 when unset.
func (x *settingsIndex) planValue(nmID int64, key string) float64 {
	if settings, ok := x.plan[nmID]; ok {
		return settings[key]
	}
	return 0
}

// calibrationPlanValue returns the calibration plan-row hint for a
// key. The snapshot is already window-matched by the caller.
func (x *settingsIndex) calibrationPlanValue(nmID int64, key string) float64 {
	item, ok := x.calibration.Item(nmID)
	if !ok {
		return 0
	}
	return item.PlanRow[key]
}

// calibrationUnitHint returns the window-independent per-SKU hint for
// a settings key. Unlike plan-row hints these survive a window
// mismatch.
func (x *settingsIndex) calibrationUnitHint(nmID int64, key string) float64 {
	item, ok := x.calibration.Item(nmID)
	if !ok {
		return 0
	}
	switch key {
	case "sebes_rub":
		return item.SebesRubUnit
	case "perc_mp":
		return item.PercMPHint
	case "tax_total_perc":
		return item.TaxRateHint
	}
	return 0
}

// hintBuyoutPercent resolves the buyout-rate hint chain: unit snapshot
// (buyout_percent, then buyout_percent_special), saved plan,
// calibration plan row, global default.
func (x *settingsIndex) hintBuyoutPercent(nmID int64, day string, defaultRate float64) float64 {
	val := 0.0
	if snap := x.snapshotForDay(nmID, day); snap != nil {
		val = normPercent(snap["buyout_percent"])
		if val <= 0 {
			val = normPercent(snap["buyout_percent_special"])
		}
	}
	if val <= 0 {
		val = normPercent(x.planValue(nmID, "buyout_percent"))
	}
	if val <= 0 {
		val = normPercent(x.calibrationPlanValue(nmID, "buyout_percent"))
	}
	if val <= 0 {
		val = defaultRate
	}
	return clampRate(val)
}

// unitLogTotal resolves the day-level expense total: exact date, else
// nearest prior, else the earliest entry when early-fill is on.
func (x *settingsIndex) unitLogTotal(nmID int64, day string, earlyFill bool) float64 {
	days := x.unitLog[nmID]
	if len(days) == 0 {
		return 0
	}
	if total, ok := days[day]; ok && total > 0 {
		return total
	}
	dates := x.unitLogDates[nmID]
	pick := priorDate(dates, day)
	if pick == "" && earlyFill && len(dates) > 0 {
		pick = dates[0]
	}
	if pick == "" {
		return 0
	}
	return math.Max(days[pick], 0)
}

// UnitComponents is the per-unit cost decomposition for one (SKU, day).
type UnitComponents struct {
	SebesRub        float64
	MarkirovkaRub   float64
	DeliveryRub     float64
	HranenieRub     float64
	AdditionalCosts float64
	PriemkaRub      float64
	PercMPRub       float64
	AcquiringRub    float64
	TaxTotalRub     float64
	UnitExpenses    float64
}

// UnitEconomicsCalculator resolves effective settings and computes the
// unit cost decomposition.
type UnitEconomicsCalculator struct {
	tun           Tuning
	idx           *settingsIndex
	commissions   map[int64]contracts.CommissionRate
	commissionKey string
}

func newUnitEconomics(tun Tuning, idx *settingsIndex, commissions map[int64]contracts.CommissionRate) *UnitEconomicsCalculator {
	return &UnitEconomicsCalculator{
		tun:           tun,
		idx:           idx,
		commissions:   commissions,
		commissionKey: commissionFieldKey(tun.CommissionField),
	}
}

// EffectiveSettings resolves each settings key through saved plan >
// calibration plan row > unit snapshot > calibration per-unit hint,
// with the marketplace tariff table overriding or backfilling the
// commission share.
func (c *UnitEconomicsCalculator) EffectiveSettings(nmID int64, day string, subjectID int64) map[string]float64 {
	snap := c.idx.snapshotForDay(nmID, day)
	out := make(map[string]float64, len(settingsKeys))

	for _, key := range settingsKeys {
		value := c.idx.planValue(nmID, key)
		if value <= 0 {
			value = c.idx.calibrationPlanValue(nmID, key)
		}
		if value <= 0 && snap != nil {
			value = snap[key]
		}
		if value <= 0 {
			value = c.idx.calibrationUnitHint(nmID, key)
		}

		if key == "perc_mp" {
			value = normPercent(value)
			if (c.tun.OverridePercMPFromWB || value <= 0) && subjectID != 0 {
				if rate, ok := c.commissions[subjectID]; ok {
					if share := clampShare(rate.Rate(c.commissionKey)); share > 0 {
						value = share
					}
				}
			}
		}
		if value > 0 {
			out[key] = value
		}
	}
	return out
}

// Components computes the cost decomposition against a reference price
// and discount share. The commission rides the full discounted price;
// acquiring and tax ride the buyer-visible price. A provided
// `expenses` total is authoritative for the final per-unit figure.
func (c *UnitEconomicsCalculator) Components(settings map[string]float64, basePrice, sppShare float64) UnitComponents {
	percMP := settings["perc_mp"]
	if percMP == 0 {
		percMP = c.tun.DefaultPercMP
	}
	acquiring := settings["acquiring_perc"]
	if acquiring == 0 {
		acquiring = c.tun.DefaultAcquiringPerc
	}
	tax := settings["tax_total_perc"]
	if tax == 0 {
		tax = c.tun.DefaultTaxTotalPerc
	}

	basePriceWithSpp := math.Max(basePrice*(1-sppShare), 0)

	out := UnitComponents{
		SebesRub:        math.Max(settings["sebes_rub"], 0),
		MarkirovkaRub:   math.Max(settings["markirovka_rub"], 0),
		DeliveryRub:     math.Max(settings["delivery_mp_with_buyout_rub"], 0),
		HranenieRub:     math.Max(settings["hranenie_rub"], 0),
		AdditionalCosts: math.Max(settings["additional_costs"], 0),
		PriemkaRub:      math.Max(settings["priemka_rub"], 0),
		PercMPRub:       basePrice * percMP,
		AcquiringRub:    basePriceWithSpp * acquiring,
		TaxTotalRub:     basePriceWithSpp * tax,
	}
	out.UnitExpenses = out.SebesRub + out.MarkirovkaRub + out.DeliveryRub +
		out.HranenieRub + out.PriemkaRub + out.AdditionalCosts +
		out.PercMPRub + out.AcquiringRub + out.TaxTotalRub

	if override := settings["expenses"]; override > 0 {
		out.UnitExpenses = override
	}
	return out
}

// UnitExpensesForDay applies the day-level log override on top of the
// computed components.
func (c *UnitEconomicsCalculator) UnitExpensesForDay(components UnitComponents, nmID int64, day string) float64 {
	if direct := c.idx.unitLogTotal(nmID, day, c.tun.UnitLogEarlyFill); direct > 0 {
		return direct
	}
	return math.Max(components.UnitExpenses, 0)
}
