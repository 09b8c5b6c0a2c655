package checklist

import "github.com/btlz/tenx/backend/internal/contracts"

// dayKey addresses one (SKU, day) cell across every reconciled series.
type dayKey struct {
	NmID int64
	Date string
}

// dayStat is the reconciled daily commerce row for one SKU: funnel
// counters, order and sale aggregates, stock and in-way levels. Flow
// signals zero-fill on missing days; stock levels carry forward.
type dayStat struct {
	NmID int64
	Date string

	OpenCount   int64
	CartCount   int64
	OrdersCount int64
	OrdersSum   float64

	// Buyouts are signed: a return subtracts one unit and its value,
	// and is additionally counted in the cancel pair.
	BuyoutsCount int64
	BuyoutsSum   float64
	CancelCount  int64
	CancelSum    float64

	// Discount share, weighted average over the day's orders, then
	// carried forward per SKU. Never seeded before the first order.
	Spp       float64
	sppSum    float64
	sppWeight int64

	AddToCartConv   float64
	CartToOrderConv float64
	BuyoutPercent   float64

	Stocks          float64
	InWayToClient   float64
	InWayFromClient float64
}

// hasCommerce reports whether any order/sale signal landed on the day
// from the primary sources. Snapshot funnel commerce only fills days
// without it.
func (s *dayStat) hasCommerce() bool {
	return s.OrdersCount != 0 || s.OrdersSum != 0 ||
		s.BuyoutsCount != 0 || s.BuyoutsSum != 0 ||
		s.CancelCount != 0 || s.CancelSum != 0
}

// reportExtra is the settled-report aggregate keyed by the original
// order date: realized buyouts and returns plus pass-through costs.
type reportExtra struct {
	Spp           float64
	ExternalCosts float64
	OrdersSum     float64
	BuyoutsCount  int64
	BuyoutsSum    float64
	ReturnsCount  int64
	ReturnsSum    float64
}

// advSplit is daily advertising spend in the three checklist buckets.
type advSplit struct {
	Auto    float64
	Search  float64
	Unknown float64
}

func (a advSplit) total() float64 {
	return a.Auto + a.Search + a.Unknown
}

// localizationInfo is the per-day regional order split.
type localizationInfo struct {
	OrdersTotal float64
	OrdersLocal float64
	Totals      map[string]float64
	Locals      map[string]float64
}

// pricePoint is a dated card price snapshot. DiscountedWithSpp is zero
// when the stored snapshot lacked a buyer-side price.
type pricePoint struct {
	Discounted        float64
	DiscountedWithSpp float64
}

// cardMeta is the static catalog context for one SKU.
type cardMeta struct {
	ImtID     int64
	SubjectID int64
	CardPrice float64
}

// SourceData is the assembled input of one checklist build: every
// source merged, precedence applied, carry-forward indices ready.
type SourceData struct {
	Days   []string
	NmIDs  []int64
	Rows   map[dayKey]*dayStat
	ByNm   map[int64][]*dayStat
	Cards  map[int64]cardMeta
	Extras map[dayKey]reportExtra

	AdvSplits map[dayKey]advSplit

	Localization      map[dayKey]localizationInfo
	LocalizationDates map[int64][]string

	Prices     map[dayKey]pricePoint
	PriceDates map[int64][]string

	UnitSettings map[int64][]contracts.UnitSettingsRow
	UnitLog      map[int64]map[string]float64
	UnitLogDates map[int64][]string
	Plan         map[int64]contracts.PlanSettings
	Commissions  map[int64]contracts.CommissionRate

	// Snapshot funnel rows kept aside so their commerce aggregates can
	// fill empty days after the primary order/sale feeds ran.
	snapshotFunnel []contracts.DailyFunnelRow
}

// priorDate returns the latest entry of the sorted dates index at or
// before day, or "" when day precedes every entry.
func priorDate(dates []string, day string) string {
	lo, hi := 0, len(dates)
	for lo < hi {
		mid := (lo + hi) / 2
		if dates[mid] <= day {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return ""
	}
	return dates[lo-1]
}

// priorOrFirst is priorDate falling back to the earliest entry, for
// settings that act as "current config" even before their first dated
// snapshot.
func priorOrFirst(dates []string, day string) string {
	if len(dates) == 0 {
		return ""
	}
	if prev := priorDate(dates, day); prev != "" {
		return prev
	}
	return dates[0]
}
