package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/btlz/tenx/backend/internal/contracts"
)

// Repository reads and writes persisted daily snapshots. It implements
// contracts.SnapshotStore and contracts.SnapshotWriter over the
// checklist schema.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Pool returns the underlying database pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.db
}

// StockDays returns stored stock snapshots for the items over the
// inclusive date range.
func (r *Repository) StockDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]contracts.DailyStockRow, error) {
	query := `
		SELECT nm_id, date, stocks, in_way_to_client, in_way_from_client
		FROM checklist.daily_stocks
		WHERE nm_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY nm_id, date
	`

	rows, err := r.db.Query(ctx, query, nmIDs, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("query stock days: %w", err)
	}
	defer rows.Close()

	var out []contracts.DailyStockRow
	for rows.Next() {
		var row contracts.DailyStockRow
		if err := rows.Scan(&row.NmID, &row.Date, &row.Stocks, &row.InWayToClient, &row.InWayFromClient); err != nil {
			return nil, fmt.Errorf("scan stock day: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// FunnelDays returns stored funnel snapshots for the items over the
// inclusive date range.
func (r *Repository) FunnelDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]contracts.DailyFunnelRow, error) {
	query := `
		SELECT nm_id, date, open_count, cart_count, orders_count, orders_sum_rub, buyouts_count, buyouts_sum_rub
		FROM checklist.daily_funnel
		WHERE nm_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY nm_id, date
	`

	rows, err := r.db.Query(ctx, query, nmIDs, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("query funnel days: %w", err)
	}
	defer rows.Close()

	var out []contracts.DailyFunnelRow
	for rows.Next() {
		var row contracts.DailyFunnelRow
		if err := rows.Scan(&row.NmID, &row.Date, &row.OpenCount, &row.CartCount,
			&row.OrdersCount, &row.OrdersSumRub, &row.BuyoutsCount, &row.BuyoutsSumRub); err != nil {
			return nil, fmt.Errorf("scan funnel day: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// LocalizationDays returns stored per-region order splits for the
// items over the inclusive date range.
func (r *Repository) LocalizationDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]contracts.DailyLocalizationRow, error) {
	query := `
		SELECT nm_id, date, region, orders_total, orders_local
		FROM checklist.daily_localization
		WHERE nm_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY nm_id, date, region
	`

	rows, err := r.db.Query(ctx, query, nmIDs, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("query localization days: %w", err)
	}
	defer rows.Close()

	var out []contracts.DailyLocalizationRow
	for rows.Next() {
		var row contracts.DailyLocalizationRow
		if err := rows.Scan(&row.NmID, &row.Date, &row.Region, &row.OrdersTotal, &row.OrdersLocal); err != nil {
			return nil, fmt.Errorf("scan localization day: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// AdvDays returns stored advertising spend snapshots for the items
// over the inclusive date range.
func (r *Repository) AdvDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]contracts.DailyAdvRow, error) {
	query := `
		SELECT nm_id, date, total, auto, search, unknown
		FROM checklist.daily_adv
		WHERE nm_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY nm_id, date
	`

	rows, err := r.db.Query(ctx, query, nmIDs, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("query adv days: %w", err)
	}
	defer rows.Close()

	var out []contracts.DailyAdvRow
	for rows.Next() {
		var row contracts.DailyAdvRow
		if err := rows.Scan(&row.NmID, &row.Date, &row.Total, &row.Auto, &row.Search, &row.Unknown); err != nil {
			return nil, fmt.Errorf("scan adv day: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// PriceDays returns stored card price snapshots for the items over the
// inclusive date range.
func (r *Repository) PriceDays(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]contracts.DailyPriceRow, error) {
	query := `
		SELECT nm_id, date, price, discount,
		       COALESCE(discounted_with_spp, 0), COALESCE(spp, 0)
		FROM checklist.daily_prices
		WHERE nm_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY nm_id, date
	`

	rows, err := r.db.Query(ctx, query, nmIDs, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("query price days: %w", err)
	}
	defer rows.Close()

	var out []contracts.DailyPriceRow
	for rows.Next() {
		var row contracts.DailyPriceRow
		if err := rows.Scan(&row.NmID, &row.Date, &row.Price, &row.Discount,
			&row.DiscountedWithSpp, &row.Spp); err != nil {
			return nil, fmt.Errorf("scan price day: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// UnitSettingsHistory returns the full dated settings history for the
// items, oldest first. Effective-date resolution happens in the
// checklist layer.
func (r *Repository) UnitSettingsHistory(ctx context.Context, nmIDs []int64) ([]contracts.UnitSettingsRow, error) {
	query := `
		SELECT nm_id, date, settings
		FROM checklist.unit_settings
		WHERE nm_id = ANY($1)
		ORDER BY nm_id, date
	`

	rows, err := r.db.Query(ctx, query, nmIDs)
	if err != nil {
		return nil, fmt.Errorf("query unit settings: %w", err)
	}
	defer rows.Close()

	var out []contracts.UnitSettingsRow
	for rows.Next() {
		var row contracts.UnitSettingsRow
		var raw []byte
		if err := rows.Scan(&row.NmID, &row.Date, &raw); err != nil {
			return nil, fmt.Errorf("scan unit settings: %w", err)
		}
		if err := json.Unmarshal(raw, &row.Values); err != nil {
			return nil, fmt.Errorf("unmarshal unit settings: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// UnitLogDays returns manual unit-expense log entries for the items,
// oldest first.
func (r *Repository) UnitLogDays(ctx context.Context, nmIDs []int64) ([]contracts.UnitLogRow, error) {
	query := `
		SELECT nm_id, date, total
		FROM checklist.unit_log
		WHERE nm_id = ANY($1)
		ORDER BY nm_id, date
	`

	rows, err := r.db.Query(ctx, query, nmIDs)
	if err != nil {
		return nil, fmt.Errorf("query unit log: %w", err)
	}
	defer rows.Close()

	var out []contracts.UnitLogRow
	for rows.Next() {
		var row contracts.UnitLogRow
		if err := rows.Scan(&row.NmID, &row.Date, &row.Total); err != nil {
			return nil, fmt.Errorf("scan unit log: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// PlanSettings returns saved plan values per item.
func (r *Repository) PlanSettings(ctx context.Context, nmIDs []int64) (map[int64]contracts.PlanSettings, error) {
	query := `
		SELECT nm_id, settings
		FROM checklist.plan_settings
		WHERE nm_id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, nmIDs)
	if err != nil {
		return nil, fmt.Errorf("query plan settings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]contracts.PlanSettings)
	for rows.Next() {
		var nmID int64
		var raw []byte
		if err := rows.Scan(&nmID, &raw); err != nil {
			return nil, fmt.Errorf("scan plan settings: %w", err)
		}
		var values contracts.PlanSettings
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("unmarshal plan settings: %w", err)
		}
		out[nmID] = values
	}

	return out, rows.Err()
}

// Commissions returns the persisted commission tariff table.
func (r *Repository) Commissions(ctx context.Context) ([]contracts.CommissionRate, error) {
	query := `
		SELECT subject_id, subject_name, kgvp_marketplace, kgvp_supplier, kgvp_supplier_express, paid_storage_kgvp
		FROM checklist.commissions
		ORDER BY subject_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query commissions: %w", err)
	}
	defer rows.Close()

	var out []contracts.CommissionRate
	for rows.Next() {
		var row contracts.CommissionRate
		if err := rows.Scan(&row.SubjectID, &row.SubjectName, &row.KgvpMarketplace,
			&row.KgvpSupplier, &row.KgvpSupplierExpress, &row.PaidStorageKgvp); err != nil {
			return nil, fmt.Errorf("scan commission: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}
