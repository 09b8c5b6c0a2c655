package storage

import (
	"context"
	"fmt"

	"github.com/btlz/tenx/backend/internal/contracts"
)

// collectionLockID keys the advisory lock that keeps snapshot
// collection single-flight across processes.
const collectionLockID = 792214001

// UpsertStockDays persists collector stock output.
func (r *Repository) UpsertStockDays(ctx context.Context, rows []contracts.DailyStockRow) error {
	query := `
		INSERT INTO checklist.daily_stocks (nm_id, date, stocks, in_way_to_client, in_way_from_client, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (nm_id, date) DO UPDATE SET
			stocks = EXCLUDED.stocks,
			in_way_to_client = EXCLUDED.in_way_to_client,
			in_way_from_client = EXCLUDED.in_way_from_client,
			updated_at = NOW()
	`

	for _, row := range rows {
		if _, err := r.db.Exec(ctx, query, row.NmID, row.Date, row.Stocks, row.InWayToClient, row.InWayFromClient); err != nil {
			return fmt.Errorf("upsert stock day %d/%s: %w", row.NmID, row.Date, err)
		}
	}
	return nil
}

// UpsertFunnelDays persists collector funnel output.
func (r *Repository) UpsertFunnelDays(ctx context.Context, rows []contracts.DailyFunnelRow) error {
	query := `
		INSERT INTO checklist.daily_funnel (nm_id, date, open_count, cart_count, orders_count, orders_sum_rub, buyouts_count, buyouts_sum_rub, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (nm_id, date) DO UPDATE SET
			open_count = EXCLUDED.open_count,
			cart_count = EXCLUDED.cart_count,
			orders_count = EXCLUDED.orders_count,
			orders_sum_rub = EXCLUDED.orders_sum_rub,
			buyouts_count = EXCLUDED.buyouts_count,
			buyouts_sum_rub = EXCLUDED.buyouts_sum_rub,
			updated_at = NOW()
	`

	for _, row := range rows {
		if _, err := r.db.Exec(ctx, query, row.NmID, row.Date, row.OpenCount, row.CartCount,
			row.OrdersCount, row.OrdersSumRub, row.BuyoutsCount, row.BuyoutsSumRub); err != nil {
			return fmt.Errorf("upsert funnel day %d/%s: %w", row.NmID, row.Date, err)
		}
	}
	return nil
}

// UpsertLocalizationDays persists collector localization output.
func (r *Repository) UpsertLocalizationDays(ctx context.Context, rows []contracts.DailyLocalizationRow) error {
	query := `
		INSERT INTO checklist.daily_localization (nm_id, date, region, orders_total, orders_local, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (nm_id, date, region) DO UPDATE SET
			orders_total = EXCLUDED.orders_total,
			orders_local = EXCLUDED.orders_local,
			updated_at = NOW()
	`

	for _, row := range rows {
		if _, err := r.db.Exec(ctx, query, row.NmID, row.Date, row.Region, row.OrdersTotal, row.OrdersLocal); err != nil {
			return fmt.Errorf("upsert localization day %d/%s: %w", row.NmID, row.Date, err)
		}
	}
	return nil
}

// UpsertAdvDays persists collector advertising spend output.
func (r *Repository) UpsertAdvDays(ctx context.Context, rows []contracts.DailyAdvRow) error {
	query := `
		INSERT INTO checklist.daily_adv (nm_id, date, total, auto, search, unknown, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (nm_id, date) DO UPDATE SET
			total = EXCLUDED.total,
			auto = EXCLUDED.auto,
			search = EXCLUDED.search,
			unknown = EXCLUDED.unknown,
			updated_at = NOW()
	`

	for _, row := range rows {
		if _, err := r.db.Exec(ctx, query, row.NmID, row.Date, row.Total, row.Auto, row.Search, row.Unknown); err != nil {
			return fmt.Errorf("upsert adv day %d/%s: %w", row.NmID, row.Date, err)
		}
	}
	return nil
}

// UpsertPriceDays persists collector price output.
func (r *Repository) UpsertPriceDays(ctx context.Context, rows []contracts.DailyPriceRow) error {
	query := `
		INSERT INTO checklist.daily_prices (nm_id, date, price, discount, discounted_with_spp, spp, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (nm_id, date) DO UPDATE SET
			price = EXCLUDED.price,
			discount = EXCLUDED.discount,
			discounted_with_spp = EXCLUDED.discounted_with_spp,
			spp = EXCLUDED.spp,
			updated_at = NOW()
	`

	for _, row := range rows {
		if _, err := r.db.Exec(ctx, query, row.NmID, row.Date, row.Price, row.Discount,
			row.DiscountedWithSpp, row.Spp); err != nil {
			return fmt.Errorf("upsert price day %d/%s: %w", row.NmID, row.Date, err)
		}
	}
	return nil
}

// UpsertCommissions persists the commission tariff table.
func (r *Repository) UpsertCommissions(ctx context.Context, rows []contracts.CommissionRate) error {
	query := `
		INSERT INTO checklist.commissions (subject_id, subject_name, kgvp_marketplace, kgvp_supplier, kgvp_supplier_express, paid_storage_kgvp, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (subject_id) DO UPDATE SET
			subject_name = EXCLUDED.subject_name,
			kgvp_marketplace = EXCLUDED.kgvp_marketplace,
			kgvp_supplier = EXCLUDED.kgvp_supplier,
			kgvp_supplier_express = EXCLUDED.kgvp_supplier_express,
			paid_storage_kgvp = EXCLUDED.paid_storage_kgvp,
			updated_at = NOW()
	`

	for _, row := range rows {
		if _, err := r.db.Exec(ctx, query, row.SubjectID, row.SubjectName, row.KgvpMarketplace,
			row.KgvpSupplier, row.KgvpSupplierExpress, row.PaidStorageKgvp); err != nil {
			return fmt.Errorf("upsert commission %d: %w", row.SubjectID, err)
		}
	}
	return nil
}

// TryCollectionLock takes the non-blocking collection advisory lock.
// Returns false when another collector run holds it.
func (r *Repository) TryCollectionLock(ctx context.Context) (bool, error) {
	var locked bool
	if err := r.db.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, collectionLockID).Scan(&locked); err != nil {
		return false, fmt.Errorf("acquire collection lock: %w", err)
	}
	return locked, nil
}

// ReleaseCollectionLock releases the collection advisory lock.
func (r *Repository) ReleaseCollectionLock(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_unlock($1)`, collectionLockID); err != nil {
		return fmt.Errorf("release collection lock: %w", err)
	}
	return nil
}
