package contracts

// Persisted daily snapshot rows. These are the stored form of the
// collector output and the highest-precedence source during
// reconciliation.

// DailyStockRow is one (SKU, day) stock snapshot.
type DailyStockRow struct {
	NmID            int64   `json:"nm_id"`
	Date            string  `json:"date"`
	Stocks          float64 `json:"stocks"`
	InWayToClient   float64 `json:"in_way_to_client"`
	InWayFromClient float64 `json:"in_way_from_client"`
}

// DailyFunnelRow is one (SKU, day) funnel snapshot.
type DailyFunnelRow struct {
	NmID          int64   `json:"nm_id"`
	Date          string  `json:"date"`
	OpenCount     float64 `json:"open_count"`
	CartCount     float64 `json:"cart_count"`
	OrdersCount   float64 `json:"orders_count"`
	OrdersSumRub  float64 `json:"orders_sum_rub"`
	BuyoutsCount  float64 `json:"buyouts_count"`
	BuyoutsSumRub float64 `json:"buyouts_sum_rub"`
}

// DailyLocalizationRow is one (SKU, day, region) order split used for
// the regional localization percentages.
type DailyLocalizationRow struct {
	NmID        int64   `json:"nm_id"`
	Date        string  `json:"date"`
	Region      string  `json:"region"`
	OrdersTotal float64 `json:"orders_total"`
	OrdersLocal float64 `json:"orders_local"`
}

// DailyAdvRow is one (SKU, day) advertising spend snapshot, already
// split into the three checklist buckets.
type DailyAdvRow struct {
	NmID    int64   `json:"nm_id"`
	Date    string  `json:"date"`
	Total   float64 `json:"total"`
	Auto    float64 `json:"auto"`
	Search  float64 `json:"search"`
	Unknown float64 `json:"unknown"`
}

// DailyPriceRow is one (SKU, day) card price snapshot. DiscountedWithSpp
// and Spp are zero when the collecting side could not observe the
// buyer-side discount for that day.
type DailyPriceRow struct {
	NmID              int64   `json:"nm_id"`
	Date              string  `json:"date"`
	Price             float64 `json:"price"`
	Discount          float64 `json:"discount"`
	DiscountedWithSpp float64 `json:"discounted_with_spp"`
	Spp               float64 `json:"spp"`
}

// UnitLogRow is one dated unit-expense total from the manual log.
// When present for a day it takes final precedence over the computed
// per-unit expense total.
type UnitLogRow struct {
	NmID  int64   `json:"nm_id"`
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}
