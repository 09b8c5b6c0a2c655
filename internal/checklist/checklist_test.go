package checklist

import (
	"os"
	"testing"

	"github.com/btlz/tenx/backend/internal/calibration"
	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/pkg/config"
	"github.com/btlz/tenx/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error"})
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func testTuning() Tuning {
	return Tuning{
		MonthWindowDays:      30,
		MonthLagDays:         7,
		MonthMinOrders:       20,
		DayWindowDays:        7,
		DayLagDays:           7,
		BuyoutDayFromReport:  true,
		DefaultPercMP:        0.315,
		DefaultAcquiringPerc: 0.02,
		DefaultTaxTotalPerc:  0.07,
		DefaultBuyoutPercent: 0.88,
		WarmupDays:           30,
		ReportTZOffsetHours:  3,
		SalesBufferDays:      14,
		LocalizationCarryFwd: true,
	}
}

// makeData builds an empty SourceData over the given SKUs and days,
// with a zero row for every cell, the way the reconciler leaves it.
func makeData(nmIDs []int64, days []string) *SourceData {
	data := &SourceData{
		Days:              days,
		NmIDs:             nmIDs,
		Rows:              map[dayKey]*dayStat{},
		ByNm:              map[int64][]*dayStat{},
		Cards:             map[int64]cardMeta{},
		Extras:            map[dayKey]reportExtra{},
		AdvSplits:         map[dayKey]advSplit{},
		Localization:      map[dayKey]localizationInfo{},
		LocalizationDates: map[int64][]string{},
		Prices:            map[dayKey]pricePoint{},
		PriceDates:        map[int64][]string{},
		UnitSettings:      map[int64][]contracts.UnitSettingsRow{},
		UnitLog:           map[int64]map[string]float64{},
		UnitLogDates:      map[int64][]string{},
		Plan:              map[int64]contracts.PlanSettings{},
		Commissions:       map[int64]contracts.CommissionRate{},
	}
	for _, id := range nmIDs {
		for _, day := range days {
			row := &dayStat{NmID: id, Date: day}
			data.Rows[dayKey{id, day}] = row
			data.ByNm[id] = append(data.ByNm[id], row)
		}
	}
	return data
}

func emptyIndex(data *SourceData) *settingsIndex {
	return newSettingsIndex(data, nil, &calibration.Snapshot{})
}
