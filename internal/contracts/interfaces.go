package contracts

import "context"

// SnapshotStore reads and writes persisted daily snapshots. Stored
// data wins over every other source during reconciliation.
type SnapshotStore interface {
	StockDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]DailyStockRow, error)
	FunnelDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]DailyFunnelRow, error)
	LocalizationDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]DailyLocalizationRow, error)
	AdvDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]DailyAdvRow, error)
	PriceDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]DailyPriceRow, error)

	UnitSettingsHistory(ctx context.Context, nmIDs []int64) ([]UnitSettingsRow, error)
	UnitLogDays(ctx context.Context, nmIDs []int64) ([]UnitLogRow, error)
	PlanSettings(ctx context.Context, nmIDs []int64) (map[int64]PlanSettings, error)
	Commissions(ctx context.Context) ([]CommissionRate, error)
}

// SnapshotWriter persists collector output. Split from SnapshotStore so
// the checklist path never sees write methods.
type SnapshotWriter interface {
	UpsertStockDays(ctx context.Context, rows []DailyStockRow) error
	UpsertFunnelDays(ctx context.Context, rows []DailyFunnelRow) error
	UpsertLocalizationDays(ctx context.Context, rows []DailyLocalizationRow) error
	UpsertAdvDays(ctx context.Context, rows []DailyAdvRow) error
	UpsertPriceDays(ctx context.Context, rows []DailyPriceRow) error
	UpsertCommissions(ctx context.Context, rows []CommissionRate) error
}

// Provider is the live marketplace API surface the reconciler falls
// back to when stored snapshots are missing. Fetch errors never fail a
// checklist build; callers log and continue with empty data.
type Provider interface {
	Cards(ctx context.Context) ([]Card, error)
	Orders(ctx context.Context, dateFrom string) ([]OrderRecord, error)
	Sales(ctx context.Context, dateFrom string) ([]SaleRecord, error)
	Stocks(ctx context.Context, dateFrom string) ([]StockRecord, error)
	Funnel(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]FunnelRecord, error)
	ReportDetail(ctx context.Context, dateFrom, dateTo string) ([]ReportDetailRecord, error)
	Campaigns(ctx context.Context) ([]Campaign, error)
	CampaignDailyStats(ctx context.Context, advertIDs []int64, dateFrom, dateTo string) ([]AdvDailyStat, error)
	Prices(ctx context.Context) ([]PriceRecord, error)
	Commissions(ctx context.Context) ([]CommissionRate, error)
}
