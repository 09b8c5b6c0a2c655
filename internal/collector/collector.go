package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/internal/external/wb"
	"github.com/btlz/tenx/backend/pkg/logger"
)

// Live funnel history covers only a short trailing window reliably.
const funnelWindowDays = 7

// Locker is the advisory single-flight lock around a collection run.
// Two instances collecting the same day would double-count adv spend.
type Locker interface {
	TryCollectionLock(ctx context.Context) (bool, error)
	ReleaseCollectionLock(ctx context.Context) error
}

// Collector pulls one day of marketplace state into the snapshot
// tables. Stored snapshots are what the checklist build trusts first,
// so the collector is the path that makes history durable.
type Collector struct {
	provider contracts.Provider
	writer   contracts.SnapshotWriter
	locker   Locker
	logger   *logger.Logger
}

func New(provider contracts.Provider, writer contracts.SnapshotWriter, locker Locker, log *logger.Logger) *Collector {
	return &Collector{
		provider: provider,
		writer:   writer,
		locker:   locker,
		logger:   log,
	}
}

// Result summarizes one collection run.
type Result struct {
	Day          string `json:"day"`
	Stocks       int    `json:"stocks"`
	Funnel       int    `json:"funnel"`
	Prices       int    `json:"prices"`
	Adv          int    `json:"adv"`
	Localization int    `json:"localization"`
	Commissions  int    `json:"commissions"`
	Skipped      bool   `json:"skipped,omitempty"`
}

// Collect snapshots every feed for the given day (today when empty).
// Each feed is independent: a failing one is logged and skipped, the
// rest still land.
func (c *Collector) Collect(ctx context.Context, nmIDs []int64, day string) (Result, error) {
	if day == "" {
		day = time.Now().Format("2006-01-02")
	}
	res := Result{Day: day}

	if c.locker != nil {
		ok, err := c.locker.TryCollectionLock(ctx)
		if err != nil {
			return res, fmt.Errorf("collection lock: %w", err)
		}
		if !ok {
			c.logger.Info("Collection already running elsewhere, skipping")
			res.Skipped = true
			return res, nil
		}
		defer func() {
			if err := c.locker.ReleaseCollectionLock(ctx); err != nil {
				c.logger.WithError(err).Warn("Collection lock release failed")
			}
		}()
	}

	nmIDs, err := c.resolveSKUs(ctx, nmIDs)
	if err != nil {
		return res, err
	}
	if len(nmIDs) == 0 {
		c.logger.Warn("No SKUs to collect")
		return res, nil
	}

	res.Stocks = c.collectStocks(ctx, nmIDs, day)
	res.Funnel = c.collectFunnel(ctx, nmIDs, day)
	res.Prices = c.collectPrices(ctx, nmIDs, day)
	res.Adv = c.collectAdv(ctx, nmIDs, day)
	res.Localization = c.collectLocalization(ctx, nmIDs, day)
	res.Commissions = c.collectCommissions(ctx)

	c.logger.WithFields(map[string]interface{}{
		"day":          res.Day,
		"stocks":       res.Stocks,
		"funnel":       res.Funnel,
		"prices":       res.Prices,
		"adv":          res.Adv,
		"localization": res.Localization,
		"commissions":  res.Commissions,
	}).Info("Snapshot collection finished")

	return res, nil
}

// resolveSKUs falls back to the full catalog when no explicit list is
// given.
func (c *Collector) resolveSKUs(ctx context.Context, nmIDs []int64) ([]int64, error) {
	if len(nmIDs) > 0 {
		return dedupeIDs(nmIDs), nil
	}
	cards, err := c.provider.Cards(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog: %w", err)
	}
	ids := make([]int64, 0, len(cards))
	for _, card := range cards {
		if card.NmID != 0 {
			ids = append(ids, card.NmID)
		}
	}
	return dedupeIDs(ids), nil
}

// collectStocks folds current warehouse lines into one per-SKU level
// row for the day.
func (c *Collector) collectStocks(ctx context.Context, nmIDs []int64, day string) int {
	lines, err := c.provider.Stocks(ctx, day)
	if err != nil {
		c.logger.WithError(err).Warn("Stock collection failed")
		return 0
	}

	wanted := idSet(nmIDs)
	levels := map[int64]*contracts.DailyStockRow{}
	for _, line := range lines {
		if line.NmID == 0 || !wanted[line.NmID] {
			continue
		}
		row := levels[line.NmID]
		if row == nil {
			row = &contracts.DailyStockRow{NmID: line.NmID, Date: day}
			levels[line.NmID] = row
		}
		row.Stocks += max0(line.Quantity)
		row.InWayToClient += max0(line.InWayToClient)
		row.InWayFromClient += max0(line.InWayFromClient)
	}

	rows := make([]contracts.DailyStockRow, 0, len(levels))
	for _, row := range levels {
		rows = append(rows, *row)
	}
	if err := c.writer.UpsertStockDays(ctx, rows); err != nil {
		c.logger.WithError(err).Warn("Stock snapshot write failed")
		return 0
	}
	return len(rows)
}

// collectFunnel snapshots the trailing funnel window so the stored
// history keeps extending even though the live API forgets.
func (c *Collector) collectFunnel(ctx context.Context, nmIDs []int64, day string) int {
	from := addDays(day, -funnelWindowDays)
	records, err := c.provider.Funnel(ctx, nmIDs, from, day)
	if err != nil {
		c.logger.WithError(err).Warn("Funnel collection failed")
		return 0
	}

	rows := make([]contracts.DailyFunnelRow, 0, len(records))
	for _, rec := range records {
		if rec.NmID == 0 || len(rec.Date) < 10 {
			continue
		}
		rows = append(rows, contracts.DailyFunnelRow{
			NmID:          rec.NmID,
			Date:          rec.Date[:10],
			OpenCount:     max0(rec.OpenCardCount),
			CartCount:     max0(rec.AddToCartCount),
			OrdersCount:   max0(rec.OrdersCount),
			OrdersSumRub:  max0(rec.OrdersSumRub),
			BuyoutsCount:  rec.BuyoutsCount,
			BuyoutsSumRub: rec.BuyoutsSumRub,
		})
	}
	if err := c.writer.UpsertFunnelDays(ctx, rows); err != nil {
		c.logger.WithError(err).Warn("Funnel snapshot write failed")
		return 0
	}
	return len(rows)
}

func (c *Collector) collectPrices(ctx context.Context, nmIDs []int64, day string) int {
	prices, err := c.provider.Prices(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Price collection failed")
		return 0
	}

	wanted := idSet(nmIDs)
	rows := make([]contracts.DailyPriceRow, 0, len(prices))
	for _, price := range prices {
		if price.NmID == 0 || !wanted[price.NmID] {
			continue
		}
		rows = append(rows, contracts.DailyPriceRow{
			NmID:     price.NmID,
			Date:     day,
			Price:    price.Price,
			Discount: price.Discount,
		})
	}
	if err := c.writer.UpsertPriceDays(ctx, rows); err != nil {
		c.logger.WithError(err).Warn("Price snapshot write failed")
		return 0
	}
	return len(rows)
}

// collectAdv folds per-campaign daily spend into the three checklist
// buckets per SKU.
func (c *Collector) collectAdv(ctx context.Context, nmIDs []int64, day string) int {
	campaigns, err := c.provider.Campaigns(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Campaign list failed")
		return 0
	}
	if len(campaigns) == 0 {
		return 0
	}

	bucketByAdvert := make(map[int64]string, len(campaigns))
	advertIDs := make([]int64, 0, len(campaigns))
	for _, campaign := range campaigns {
		if campaign.AdvertID == 0 {
			continue
		}
		bucketByAdvert[campaign.AdvertID] = wb.FoldBucket(wb.CampaignBucket(campaign))
		advertIDs = append(advertIDs, campaign.AdvertID)
	}

	stats, err := c.provider.CampaignDailyStats(ctx, advertIDs, day, day)
	if err != nil {
		c.logger.WithError(err).Warn("Campaign stats failed")
		return 0
	}

	wanted := idSet(nmIDs)
	splits := map[int64]*contracts.DailyAdvRow{}
	for _, stat := range stats {
		if stat.NmID == 0 || !wanted[stat.NmID] || stat.Sum <= 0 {
			continue
		}
		row := splits[stat.NmID]
		if row == nil {
			row = &contracts.DailyAdvRow{NmID: stat.NmID, Date: day}
			splits[stat.NmID] = row
		}
		switch bucketByAdvert[stat.AdvertID] {
		case wb.BucketAuto:
			row.Auto += stat.Sum
		case wb.BucketSearch:
			row.Search += stat.Sum
		default:
			row.Unknown += stat.Sum
		}
		row.Total += stat.Sum
	}

	rows := make([]contracts.DailyAdvRow, 0, len(splits))
	for _, row := range splits {
		rows = append(rows, *row)
	}
	if err := c.writer.UpsertAdvDays(ctx, rows); err != nil {
		c.logger.WithError(err).Warn("Adv snapshot write failed")
		return 0
	}
	return len(rows)
}

// collectLocalization derives the regional order split for the day
// from the order feed: an order is localized when it ships from a
// warehouse inside the buyer's region. A pseudo-region "all" row
// carries the overall pair.
func (c *Collector) collectLocalization(ctx context.Context, nmIDs []int64, day string) int {
	orders, err := c.provider.Orders(ctx, day)
	if err != nil {
		c.logger.WithError(err).Warn("Order feed failed, localization skipped")
		return 0
	}

	type pair struct{ total, local float64 }
	wanted := idSet(nmIDs)
	split := map[int64]map[string]*pair{}
	overall := map[int64]*pair{}

	for _, order := range orders {
		if order.NmID == 0 || !wanted[order.NmID] || order.Day() != day {
			continue
		}
		region := RegionOf(order.RegionName)
		localized := WarehouseRegion(order.WarehouseName) == region

		if split[order.NmID] == nil {
			split[order.NmID] = map[string]*pair{}
		}
		p := split[order.NmID][region]
		if p == nil {
			p = &pair{}
			split[order.NmID][region] = p
		}
		p.total++
		all := overall[order.NmID]
		if all == nil {
			all = &pair{}
			overall[order.NmID] = all
		}
		all.total++
		if localized {
			p.local++
			all.local++
		}
	}

	var rows []contracts.DailyLocalizationRow
	for nmID, regions := range split {
		for region, p := range regions {
			rows = append(rows, contracts.DailyLocalizationRow{
				NmID:        nmID,
				Date:        day,
				Region:      region,
				OrdersTotal: p.total,
				OrdersLocal: p.local,
			})
		}
		all := overall[nmID]
		rows = append(rows, contracts.DailyLocalizationRow{
			NmID:        nmID,
			Date:        day,
			Region:      RegionAll,
			OrdersTotal: all.total,
			OrdersLocal: all.local,
		})
	}
	if err := c.writer.UpsertLocalizationDays(ctx, rows); err != nil {
		c.logger.WithError(err).Warn("Localization snapshot write failed")
		return 0
	}
	return len(rows)
}

func (c *Collector) collectCommissions(ctx context.Context) int {
	rates, err := c.provider.Commissions(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Commission tariff collection failed")
		return 0
	}
	if err := c.writer.UpsertCommissions(ctx, rates); err != nil {
		c.logger.WithError(err).Warn("Commission snapshot write failed")
		return 0
	}
	return len(rates)
}

func addDays(day string, delta int) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return day
	}
	return t.AddDate(0, 0, delta).Format("2006-01-02")
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func dedupeIDs(ids []int64) []int64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}
