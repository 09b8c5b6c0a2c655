package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/btlz/tenx/backend/internal/calibration"
	"github.com/btlz/tenx/backend/internal/contracts"
)

func TestCommissionFieldKey(t *testing.T) {
	assert.Equal(t, "kgvp_marketplace", commissionFieldKey(""))
	assert.Equal(t, "kgvp_marketplace", commissionFieldKey("Marketplace"))
	assert.Equal(t, "kgvp_supplier", commissionFieldKey("kgvpSupplier"))
	assert.Equal(t, "kgvp_supplier_express", commissionFieldKey("supplier-express"))
	assert.Equal(t, "paid_storage_kgvp", commissionFieldKey("storage"))
}

func TestSnapshotForDay(t *testing.T) {
	data := makeData([]int64{100}, []string{"2025-05-10"})
	data.UnitSettings[100] = []contracts.UnitSettingsRow{
		{NmID: 100, Date: "2025-05-01", Values: map[string]float64{"sebes_rub": 100}},
		{NmID: 100, Date: "2025-05-08", Values: map[string]float64{"sebes_rub": 120}},
	}
	idx := emptyIndex(data)

	assert.Equal(t, 120.0, idx.snapshotForDay(100, "2025-05-10")["sebes_rub"])
	assert.Equal(t, 100.0, idx.snapshotForDay(100, "2025-05-05")["sebes_rub"])
	// Before the first snapshot the earliest one acts as current config.
	assert.Equal(t, 100.0, idx.snapshotForDay(100, "2025-04-01")["sebes_rub"])
	assert.Nil(t, idx.snapshotForDay(999, "2025-05-10"))
}

func TestHintBuyoutPercent(t *testing.T) {
	data := makeData([]int64{100, 200, 300}, []string{"2025-05-10"})
	data.UnitSettings[100] = []contracts.UnitSettingsRow{
		{NmID: 100, Date: "2025-05-01", Values: map[string]float64{"buyout_percent": 92}},
	}
	data.Plan[200] = contracts.PlanSettings{"buyout_percent": 0.75}

	cal := &calibration.Snapshot{
		Items: map[int64]calibration.Item{
			300: {PlanRow: map[string]float64{"buyout_percent": 0.91}},
		},
	}
	idx := newSettingsIndex(data, nil, cal)

	// Snapshot percent normalizes to a share.
	assert.Equal(t, 0.92, idx.hintBuyoutPercent(100, "2025-05-10", 0.88))
	assert.Equal(t, 0.75, idx.hintBuyoutPercent(200, "2025-05-10", 0.88))
	assert.Equal(t, 0.91, idx.hintBuyoutPercent(300, "2025-05-10", 0.88))
	assert.Equal(t, 0.88, idx.hintBuyoutPercent(999, "2025-05-10", 0.88))
}

func TestEffectiveSettings_Precedence(t *testing.T) {
	data := makeData([]int64{100}, []string{"2025-05-10"})
	data.UnitSettings[100] = []contracts.UnitSettingsRow{
		{NmID: 100, Date: "2025-05-01", Values: map[string]float64{
			"sebes_rub":    50,
			"perc_mp":      20,
			"hranenie_rub": 3,
		}},
	}
	data.Plan[100] = contracts.PlanSettings{"sebes_rub": 100}

	calc := newUnitEconomics(testTuning(), emptyIndex(data), nil)
	settings := calc.EffectiveSettings(100, "2025-05-10", 0)

	// Plan beats snapshot; untouched keys fall through to the snapshot.
	assert.Equal(t, 100.0, settings["sebes_rub"])
	assert.Equal(t, 0.2, settings["perc_mp"])
	assert.Equal(t, 3.0, settings["hranenie_rub"])
	_, ok := settings["acquiring_perc"]
	assert.False(t, ok)
}

func TestEffectiveSettings_CalibrationUnitHints(t *testing.T) {
	data := makeData([]int64{100}, []string{"2025-05-10"})
	cal := &calibration.Snapshot{
		Items: map[int64]calibration.Item{
			100: {SebesRubUnit: 120, PercMPHint: 0.21, TaxRateHint: 0.06},
		},
	}
	calc := newUnitEconomics(testTuning(), newSettingsIndex(data, nil, cal), nil)

	// With no plan and no snapshot the per-unit hints fill in.
	settings := calc.EffectiveSettings(100, "2025-05-10", 0)
	assert.Equal(t, 120.0, settings["sebes_rub"])
	assert.Equal(t, 0.21, settings["perc_mp"])
	assert.Equal(t, 0.06, settings["tax_total_perc"])

	// A stored snapshot still outranks the hint.
	data.UnitSettings[100] = []contracts.UnitSettingsRow{
		{NmID: 100, Date: "2025-05-01", Values: map[string]float64{"sebes_rub": 90}},
	}
	calc = newUnitEconomics(testTuning(), newSettingsIndex(data, nil, cal), nil)
	assert.Equal(t, 90.0, calc.EffectiveSettings(100, "2025-05-10", 0)["sebes_rub"])
}

func TestEffectiveSettings_CommissionOverride(t *testing.T) {
	data := makeData([]int64{100}, []string{"2025-05-10"})
	commissions := map[int64]contracts.CommissionRate{
		7: {SubjectID: 7, KgvpMarketplace: 24.5},
	}

	tun := testTuning()
	tun.OverridePercMPFromWB = true
	calc := newUnitEconomics(tun, emptyIndex(data), commissions)

	settings := calc.EffectiveSettings(100, "2025-05-10", 7)
	assert.Equal(t, 0.245, settings["perc_mp"])

	// Unknown subject leaves the commission unresolved.
	settings = calc.EffectiveSettings(100, "2025-05-10", 99)
	_, ok := settings["perc_mp"]
	assert.False(t, ok)
}

func TestComponents(t *testing.T) {
	data := makeData([]int64{100}, []string{"2025-05-10"})
	calc := newUnitEconomics(testTuning(), emptyIndex(data), nil)

	settings := map[string]float64{
		"sebes_rub": 100,
		"perc_mp":   0.2,
	}
	out := calc.Components(settings, 1000, 0.1)

	assert.Equal(t, 100.0, out.SebesRub)
	assert.Equal(t, 200.0, out.PercMPRub)
	// Acquiring and tax ride the buyer-visible price (1000 * 0.9).
	assert.InDelta(t, 18.0, out.AcquiringRub, 1e-9)
	assert.InDelta(t, 63.0, out.TaxTotalRub, 1e-9)
	assert.InDelta(t, 381.0, out.UnitExpenses, 1e-9)
}

func TestComponents_Defaults(t *testing.T) {
	data := makeData([]int64{100}, []string{"2025-05-10"})
	calc := newUnitEconomics(testTuning(), emptyIndex(data), nil)

	out := calc.Components(map[string]float64{}, 100, 0)

	assert.InDelta(t, 31.5, out.PercMPRub, 1e-9)
	assert.InDelta(t, 2.0, out.AcquiringRub, 1e-9)
	assert.InDelta(t, 7.0, out.TaxTotalRub, 1e-9)
	assert.InDelta(t, 40.5, out.UnitExpenses, 1e-9)
}

func TestComponents_ExpensesOverride(t *testing.T) {
	data := makeData([]int64{100}, []string{"2025-05-10"})
	calc := newUnitEconomics(testTuning(), emptyIndex(data), nil)

	out := calc.Components(map[string]float64{"expenses": 55}, 100, 0)

	// The stated total wins over the decomposition sum.
	assert.Equal(t, 55.0, out.UnitExpenses)
	assert.InDelta(t, 31.5, out.PercMPRub, 1e-9)
}

func TestUnitExpensesForDay_LogOverride(t *testing.T) {
	data := makeData([]int64{100}, []string{"2025-05-10"})
	data.UnitLog[100] = map[string]float64{
		"2025-05-05": 42,
		"2025-05-09": 47,
	}
	calc := newUnitEconomics(testTuning(), emptyIndex(data), nil)
	components := UnitComponents{UnitExpenses: 40.5}

	// Exact day, then nearest prior day.
	assert.Equal(t, 47.0, calc.UnitExpensesForDay(components, 100, "2025-05-09"))
	assert.Equal(t, 42.0, calc.UnitExpensesForDay(components, 100, "2025-05-07"))
	// Before the first entry the computed total stands.
	assert.Equal(t, 40.5, calc.UnitExpensesForDay(components, 100, "2025-05-01"))
}

func TestUnitExpensesForDay_EarlyFill(t *testing.T) {
	data := makeData([]int64{100}, []string{"2025-05-10"})
	data.UnitLog[100] = map[string]float64{"2025-05-05": 42}

	tun := testTuning()
	tun.UnitLogEarlyFill = true
	calc := newUnitEconomics(tun, emptyIndex(data), nil)

	got := calc.UnitExpensesForDay(UnitComponents{UnitExpenses: 40.5}, 100, "2025-05-01")
	assert.Equal(t, 42.0, got)
}
