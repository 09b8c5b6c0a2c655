package checklist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btlz/tenx/backend/internal/contracts"
)

type fakeStore struct {
	stocks       []contracts.DailyStockRow
	funnel       []contracts.DailyFunnelRow
	localization []contracts.DailyLocalizationRow
	adv          []contracts.DailyAdvRow
	prices       []contracts.DailyPriceRow
	unitSettings []contracts.UnitSettingsRow
	unitLog      []contracts.UnitLogRow
	plan         map[int64]contracts.PlanSettings
	commissions  []contracts.CommissionRate
}

func (f *fakeStore) StockDays(_ context.Context, _ []int64, _, _ string) ([]contracts.DailyStockRow, error) {
	return f.stocks, nil
}

func (f *fakeStore) FunnelDays(_ context.Context, _ []int64, _, _ string) ([]contracts.DailyFunnelRow, error) {
	return f.funnel, nil
}

func (f *fakeStore) LocalizationDays(_ context.Context, _ []int64, _, _ string) ([]contracts.DailyLocalizationRow, error) {
	return f.localization, nil
}

func (f *fakeStore) AdvDays(_ context.Context, _ []int64, _, _ string) ([]contracts.DailyAdvRow, error) {
	return f.adv, nil
}

func (f *fakeStore) PriceDays(_ context.Context, _ []int64, _, _ string) ([]contracts.DailyPriceRow, error) {
	return f.prices, nil
}

func (f *fakeStore) UnitSettingsHistory(_ context.Context, _ []int64) ([]contracts.UnitSettingsRow, error) {
	return f.unitSettings, nil
}

func (f *fakeStore) UnitLogDays(_ context.Context, _ []int64) ([]contracts.UnitLogRow, error) {
	return f.unitLog, nil
}

func (f *fakeStore) PlanSettings(_ context.Context, _ []int64) (map[int64]contracts.PlanSettings, error) {
	return f.plan, nil
}

func (f *fakeStore) Commissions(_ context.Context) ([]contracts.CommissionRate, error) {
	return f.commissions, nil
}

type fakeProvider struct {
	cards       []contracts.Card
	orders      []contracts.OrderRecord
	sales       []contracts.SaleRecord
	stocks      []contracts.StockRecord
	funnel      []contracts.FunnelRecord
	report      []contracts.ReportDetailRecord
	campaigns   []contracts.Campaign
	advStats    []contracts.AdvDailyStat
	prices      []contracts.PriceRecord
	commissions []contracts.CommissionRate

	funnelCalls int
}

func (f *fakeProvider) Cards(_ context.Context) ([]contracts.Card, error) { return f.cards, nil }

func (f *fakeProvider) Orders(_ context.Context, _ string) ([]contracts.OrderRecord, error) {
	return f.orders, nil
}

func (f *fakeProvider) Sales(_ context.Context, _ string) ([]contracts.SaleRecord, error) {
	return f.sales, nil
}

func (f *fakeProvider) Stocks(_ context.Context, _ string) ([]contracts.StockRecord, error) {
	return f.stocks, nil
}

func (f *fakeProvider) Funnel(_ context.Context, _ []int64, _, _ string) ([]contracts.FunnelRecord, error) {
	f.funnelCalls++
	return f.funnel, nil
}

func (f *fakeProvider) ReportDetail(_ context.Context, _, _ string) ([]contracts.ReportDetailRecord, error) {
	return f.report, nil
}

func (f *fakeProvider) Campaigns(_ context.Context) ([]contracts.Campaign, error) {
	return f.campaigns, nil
}

func (f *fakeProvider) CampaignDailyStats(_ context.Context, _ []int64, _, _ string) ([]contracts.AdvDailyStat, error) {
	return f.advStats, nil
}

func (f *fakeProvider) Prices(_ context.Context) ([]contracts.PriceRecord, error) {
	return f.prices, nil
}

func (f *fakeProvider) Commissions(_ context.Context) ([]contracts.CommissionRate, error) {
	return f.commissions, nil
}

func assemble(t *testing.T, store *fakeStore, provider *fakeProvider, nmIDs []int64, dateFrom, dateTo string) *SourceData {
	t.Helper()
	r := NewSourceReconciler(store, provider, testTuning(), testLogger())
	return r.Assemble(context.Background(), nmIDs, dateFrom, dateTo)
}

func TestAssemble_StockCarryForwardAndOverlay(t *testing.T) {
	provider := &fakeProvider{
		stocks: []contracts.StockRecord{
			{NmID: 100, LastChangeDate: "2025-05-01T10:00:00", WarehouseName: "A", Barcode: "b1", Quantity: 5},
		},
	}
	store := &fakeStore{
		stocks: []contracts.DailyStockRow{
			{NmID: 100, Date: "2025-05-02", Stocks: 7, InWayToClient: 3},
		},
	}

	data := assemble(t, store, provider, []int64{100}, "2025-05-01", "2025-05-03")

	assert.Equal(t, 5.0, data.Rows[dayKey{100, "2025-05-01"}].Stocks)
	// The stored snapshot replaces the replayed level for its day.
	assert.Equal(t, 7.0, data.Rows[dayKey{100, "2025-05-02"}].Stocks)
	assert.Equal(t, 3.0, data.Rows[dayKey{100, "2025-05-02"}].InWayToClient)
	assert.Equal(t, 5.0, data.Rows[dayKey{100, "2025-05-03"}].Stocks)
}

func TestAssemble_OrdersAndSppCarry(t *testing.T) {
	provider := &fakeProvider{
		orders: []contracts.OrderRecord{
			{NmID: 100, Date: "2025-05-01T09:00:00", PriceWithDisc: 100, Spp: 10},
			{NmID: 100, Date: "2025-05-01T15:00:00", FinishedPrice: 90, Spp: 20},
		},
	}

	data := assemble(t, &fakeStore{}, provider, []int64{100}, "2025-05-01", "2025-05-02")

	day1 := data.Rows[dayKey{100, "2025-05-01"}]
	assert.Equal(t, int64(2), day1.OrdersCount)
	assert.Equal(t, 190.0, day1.OrdersSum)
	assert.InDelta(t, 0.15, day1.Spp, 1e-9)

	// Day without orders keeps the last known discount share.
	assert.InDelta(t, 0.15, data.Rows[dayKey{100, "2025-05-02"}].Spp, 1e-9)
}

func TestAssemble_OrderPriceChainAndSppSpelling(t *testing.T) {
	provider := &fakeProvider{
		orders: []contracts.OrderRecord{
			// Some settled lines carry only the payout amount.
			{NmID: 100, Date: "2025-05-01T09:00:00", ForPay: 80, Spp: 1.2},
			{NmID: 100, Date: "2025-05-01T15:00:00", PriceWithDisc: 120, Spp: 0.08},
		},
	}

	data := assemble(t, &fakeStore{}, provider, []int64{100}, "2025-05-01", "2025-05-01")

	row := data.Rows[dayKey{100, "2025-05-01"}]
	assert.Equal(t, int64(2), row.OrdersCount)
	assert.Equal(t, 200.0, row.OrdersSum)
	// 1.2 reads as 1.2 percent, 0.08 is already a share.
	assert.InDelta(t, 0.046, row.Spp, 1e-9)
}

func TestAssemble_StoredPricesKeepBuyerSide(t *testing.T) {
	store := &fakeStore{
		prices: []contracts.DailyPriceRow{
			{NmID: 100, Date: "2025-05-01", Price: 100, Discount: 20, DiscountedWithSpp: 72},
			{NmID: 100, Date: "2025-05-02", Price: 100, Discount: 20, Spp: 10},
		},
	}

	data := assemble(t, store, &fakeProvider{}, []int64{100}, "2025-05-01", "2025-05-02")

	assert.Equal(t, pricePoint{Discounted: 80, DiscountedWithSpp: 72},
		data.Prices[dayKey{100, "2025-05-01"}])
	// Without a stored buyer-side price the spp share derives it.
	assert.Equal(t, pricePoint{Discounted: 80, DiscountedWithSpp: 72},
		data.Prices[dayKey{100, "2025-05-02"}])
	assert.Equal(t, []string{"2025-05-01", "2025-05-02"}, data.PriceDates[100])
}

func TestAssemble_ReturnsAreNegativeBuyouts(t *testing.T) {
	provider := &fakeProvider{
		sales: []contracts.SaleRecord{
			{NmID: 100, Date: "2025-05-01T10:00:00", PriceWithDisc: 200, ForPay: 180},
			{NmID: 100, Date: "2025-05-01T12:00:00", PriceWithDisc: 100, IsCancel: true},
		},
	}

	data := assemble(t, &fakeStore{}, provider, []int64{100}, "2025-05-01", "2025-05-01")

	row := data.Rows[dayKey{100, "2025-05-01"}]
	assert.Equal(t, int64(0), row.BuyoutsCount)
	assert.Equal(t, 100.0, row.BuyoutsSum)
	// The return also lands in the cancel pair.
	assert.Equal(t, int64(1), row.CancelCount)
	assert.Equal(t, 100.0, row.CancelSum)
}

func TestAssemble_SnapshotFunnelFillsEmptyDaysOnly(t *testing.T) {
	store := &fakeStore{
		funnel: []contracts.DailyFunnelRow{
			{NmID: 100, Date: "2025-05-01", OpenCount: 40, CartCount: 8, OrdersCount: 3, OrdersSumRub: 300},
			{NmID: 100, Date: "2025-05-02", OpenCount: 50, CartCount: 10, OrdersCount: 9, OrdersSumRub: 900},
		},
	}
	provider := &fakeProvider{
		orders: []contracts.OrderRecord{
			{NmID: 100, Date: "2025-05-02T09:00:00", PriceWithDisc: 120},
		},
	}

	data := assemble(t, store, provider, []int64{100}, "2025-05-01", "2025-05-02")

	// Empty day takes the snapshot commerce aggregates.
	day1 := data.Rows[dayKey{100, "2025-05-01"}]
	assert.Equal(t, int64(40), day1.OpenCount)
	assert.Equal(t, int64(3), day1.OrdersCount)
	assert.Equal(t, 300.0, day1.OrdersSum)

	// The order feed remains authoritative where it produced data.
	day2 := data.Rows[dayKey{100, "2025-05-02"}]
	assert.Equal(t, int64(50), day2.OpenCount)
	assert.Equal(t, int64(1), day2.OrdersCount)
	assert.Equal(t, 120.0, day2.OrdersSum)
}

func TestAssemble_LiveFunnelOnlyOnShortWindows(t *testing.T) {
	provider := &fakeProvider{
		funnel: []contracts.FunnelRecord{
			{NmID: 100, Date: "2025-05-01", OpenCardCount: 11, AddToCartCount: 2},
		},
	}

	data := assemble(t, &fakeStore{}, provider, []int64{100}, "2025-05-01", "2025-05-03")
	assert.Equal(t, 1, provider.funnelCalls)
	assert.Equal(t, int64(11), data.Rows[dayKey{100, "2025-05-01"}].OpenCount)

	// Long windows never hit the live funnel.
	provider.funnelCalls = 0
	data = assemble(t, &fakeStore{}, provider, []int64{100}, "2025-05-01", "2025-05-20")
	assert.Equal(t, 0, provider.funnelCalls)
	assert.Equal(t, int64(0), data.Rows[dayKey{100, "2025-05-01"}].OpenCount)
}

func TestAssemble_ReportExtrasByLocalOrderDay(t *testing.T) {
	provider := &fakeProvider{
		report: []contracts.ReportDetailRecord{
			// 22:30 UTC is the next day at the +3h report offset.
			{NmID: 100, OrderDate: "2025-05-01T22:30:00Z", Operation: contracts.OpSale,
				Quantity: 1, RetailAmount: 500, PpvzForPay: 420, DeliveryRub: -35, SppPercent: 8},
			{NmID: 100, OrderDate: "2025-05-02T05:00:00Z", Operation: contracts.OpReturn,
				Quantity: 1, RetailAmount: 200, PpvzForPay: -180, StorageFee: 5},
		},
	}

	data := assemble(t, &fakeStore{}, provider, []int64{100}, "2025-05-01", "2025-05-03")

	extra, ok := data.Extras[dayKey{100, "2025-05-02"}]
	require.True(t, ok)
	assert.Equal(t, int64(1), extra.BuyoutsCount)
	assert.Equal(t, 420.0, extra.BuyoutsSum)
	assert.Equal(t, int64(1), extra.ReturnsCount)
	assert.Equal(t, 200.0, extra.ReturnsSum)
	assert.Equal(t, 40.0, extra.ExternalCosts)
	assert.InDelta(t, 0.08, extra.Spp, 1e-9)

	_, ok = data.Extras[dayKey{100, "2025-05-01"}]
	assert.False(t, ok)
}

func TestAssemble_StoredAdvBeatsLive(t *testing.T) {
	store := &fakeStore{
		adv: []contracts.DailyAdvRow{
			{NmID: 100, Date: "2025-05-01", Total: 150, Auto: 100, Search: 40},
		},
	}
	provider := &fakeProvider{
		campaigns: []contracts.Campaign{{AdvertID: 1, Type: 8}},
		advStats:  []contracts.AdvDailyStat{{AdvertID: 1, Date: "2025-05-01", NmID: 100, Sum: 999}},
	}

	data := assemble(t, store, provider, []int64{100}, "2025-05-01", "2025-05-01")

	split := data.AdvSplits[dayKey{100, "2025-05-01"}]
	assert.Equal(t, 100.0, split.Auto)
	assert.Equal(t, 40.0, split.Search)
	// The undistributed remainder of the stored total lands in unknown.
	assert.InDelta(t, 10.0, split.Unknown, 1e-9)
	assert.InDelta(t, 150.0, split.total(), 1e-9)
}

func TestAssemble_LocalizationAllRegion(t *testing.T) {
	store := &fakeStore{
		localization: []contracts.DailyLocalizationRow{
			{NmID: 100, Date: "2025-05-01", Region: "all", OrdersTotal: 10, OrdersLocal: 6},
			{NmID: 100, Date: "2025-05-01", Region: "central", OrdersTotal: 4, OrdersLocal: 3},
		},
	}

	data := assemble(t, store, &fakeProvider{}, []int64{100}, "2025-05-01", "2025-05-01")

	info := data.Localization[dayKey{100, "2025-05-01"}]
	assert.Equal(t, 10.0, info.OrdersTotal)
	assert.Equal(t, 6.0, info.OrdersLocal)
	assert.Equal(t, 4.0, info.Totals["central"])
	assert.Equal(t, 3.0, info.Locals["central"])
	assert.Equal(t, []string{"2025-05-01"}, data.LocalizationDates[100])
}

func TestAssemble_EveryDayHasARow(t *testing.T) {
	data := assemble(t, &fakeStore{}, &fakeProvider{}, []int64{100, 200}, "2025-05-01", "2025-05-03")

	assert.Len(t, data.Rows, 6)
	for _, id := range []int64{100, 200} {
		require.Len(t, data.ByNm[id], 3)
		assert.Equal(t, "2025-05-01", data.ByNm[id][0].Date)
		assert.Equal(t, "2025-05-03", data.ByNm[id][2].Date)
	}
}
