package checklist

import (
	"context"
	"math"
	"sort"

	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/internal/external/wb"
	"github.com/btlz/tenx/backend/pkg/logger"
)

// Live funnel history is partial on long windows; beyond this many
// days only stored snapshots are trusted for funnel counters.
const maxLiveFunnelDays = 8

// SourceReconciler assembles the per-(SKU, day) input series for a
// checklist build. Stored snapshots win over live fetch; every
// collaborator failure degrades to empty data and is logged, never
// propagated.
type SourceReconciler struct {
	store    contracts.SnapshotStore
	provider contracts.Provider
	tun      Tuning
	logger   *logger.Logger
}

// NewSourceReconciler wires the reconciler. Either collaborator may be
// nil; the build then runs on whatever the other one provides.
func NewSourceReconciler(store contracts.SnapshotStore, provider contracts.Provider, tun Tuning, log *logger.Logger) *SourceReconciler {
	return &SourceReconciler{
		store:    store,
		provider: provider,
		tun:      tun,
		logger:   log,
	}
}

// Assemble merges all sources for the given SKUs over [dateFrom,
// dateTo] (warm-up already included by the caller) into SourceData.
func (r *SourceReconciler) Assemble(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) *SourceData {
	days := dateRange(dateFrom, dateTo)

	data := &SourceData{
		Days:              days,
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

	nmSet := make(map[int64]bool, len(nmIDs))
	for _, id := range nmIDs {
		if id != 0 && !nmSet[id] {
			nmSet[id] = true
			data.NmIDs = append(data.NmIDs, id)
		}
	}
	sort.Slice(data.NmIDs, func(i, j int) bool { return data.NmIDs[i] < data.NmIDs[j] })
	if len(days) == 0 || len(data.NmIDs) == 0 {
		return data
	}

	stocks := r.assembleStocks(ctx, nmSet, days, dateFrom)
	r.assembleCards(ctx, nmSet, data)
	r.assembleFunnel(ctx, data, nmSet, stocks, dateFrom, dateTo)
	r.assembleOrders(ctx, data, nmSet, stocks, dateFrom, dateTo)
	r.assembleSales(ctx, data, nmSet, stocks, dateFrom, dateTo)
	r.assembleReportExtras(ctx, data, nmSet, dateFrom, dateTo)
	r.assembleAdv(ctx, data, nmSet, dateFrom, dateTo)
	r.assembleLocalization(ctx, data, dateFrom, dateTo)
	r.assemblePrices(ctx, data, dateFrom, dateTo)
	r.assembleSettings(ctx, data)

	r.fillMissingDays(data, stocks)
	r.finalizeRows(data)
	return data
}

// stockIndex is the per-day stock level map with its carry-forward
// date index.
type stockIndex struct {
	levels map[dayKey]*dayLevels
	dates  map[int64][]string
}

type dayLevels struct {
	Stocks          float64
	InWayToClient   float64
	InWayFromClient float64
}

func (s *stockIndex) forDay(nmID int64, day string) dayLevels {
	if lv, ok := s.levels[dayKey{nmID, day}]; ok {
		return *lv
	}
	if prev := priorDate(s.dates[nmID], day); prev != "" {
		if lv, ok := s.levels[dayKey{nmID, prev}]; ok {
			return *lv
		}
	}
	return dayLevels{}
}

func (s *stockIndex) rebuildDates() {
	s.dates = map[int64][]string{}
	for key := range s.levels {
		s.dates[key.NmID] = append(s.dates[key.NmID], key.Date)
	}
	for id := range s.dates {
		sort.Strings(s.dates[id])
	}
}

// assembleStocks replays warehouse snapshot lines per variant into
// daily on-hand levels, then overlays stored daily stock snapshots.
func (r *SourceReconciler) assembleStocks(ctx context.Context, nmSet map[int64]bool, days []string, dateFrom string) *stockIndex {
	idx := &stockIndex{levels: map[dayKey]*dayLevels{}}

	var lines []contracts.StockRecord
	if r.provider != nil {
		var err error
		lines, err = r.provider.Stocks(ctx, dateFrom)
		if err != nil {
			r.logger.WithError(err).Warn("Stocks fetch failed, continuing without live stock data")
			lines = nil
		}
	}

	type variantKey struct {
		NmID      int64
		Warehouse string
		Barcode   string
	}
	type stockEvent struct {
		Day             string
		Quantity        float64
		InWayToClient   float64
		InWayFromClient float64
	}
	byVariant := map[variantKey][]stockEvent{}
	for _, line := range lines {
		if line.NmID == 0 || !nmSet[line.NmID] {
			continue
		}
		day := line.Day()
		if day == "" {
			continue
		}
		key := variantKey{line.NmID, line.WarehouseName, line.Barcode}
		byVariant[key] = append(byVariant[key], stockEvent{
			Day:             day,
			Quantity:        math.Max(line.Quantity, 0),
			InWayToClient:   math.Max(line.InWayToClient, 0),
			InWayFromClient: math.Max(line.InWayFromClient, 0),
		})
	}

	for key, events := range byVariant {
		sort.Slice(events, func(i, j int) bool { return events[i].Day < events[j].Day })
		var cur stockEvent
		pos := 0
		for _, day := range days {
			for pos < len(events) && events[pos].Day <= day {
				cur = events[pos]
				pos++
			}
			lv := idx.levels[dayKey{key.NmID, day}]
			if lv == nil {
				lv = &dayLevels{}
				idx.levels[dayKey{key.NmID, day}] = lv
			}
			lv.Stocks += cur.Quantity
			lv.InWayToClient += cur.InWayToClient
			lv.InWayFromClient += cur.InWayFromClient
		}
	}
	idx.rebuildDates()

	if r.store != nil {
		rows, err := r.store.StockDays(ctx, keys(nmSet), dateFrom, days[len(days)-1])
		if err != nil {
			r.logger.WithError(err).Warn("Stored stock snapshots unavailable")
		}
		for _, row := range rows {
			day := parseYMD(row.Date)
			if row.NmID == 0 || day == "" || !nmSet[row.NmID] {
				continue
			}
			idx.levels[dayKey{row.NmID, day}] = &dayLevels{
				Stocks:          math.Max(row.Stocks, 0),
				InWayToClient:   math.Max(row.InWayToClient, 0),
				InWayFromClient: math.Max(row.InWayFromClient, 0),
			}
		}
		if len(rows) > 0 {
			idx.rebuildDates()
		}
	}
	return idx
}

func (r *SourceReconciler) assembleCards(ctx context.Context, nmSet map[int64]bool, data *SourceData) {
	if r.provider == nil {
		return
	}

	cards, err := r.provider.Cards(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("Cards fetch failed, continuing without catalog metadata")
	}
	for _, card := range cards {
		if card.NmID == 0 || !nmSet[card.NmID] {
			continue
		}
		data.Cards[card.NmID] = cardMeta{ImtID: card.ImtID, SubjectID: card.SubjectID}
	}

	prices, err := r.provider.Prices(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("Prices fetch failed, continuing without card prices")
	}
	for _, price := range prices {
		if price.NmID == 0 || !nmSet[price.NmID] {
			continue
		}
		meta := data.Cards[price.NmID]
		meta.CardPrice = round2(price.Price * (1 - price.Discount/100))
		data.Cards[price.NmID] = meta
	}
}

func (r *SourceReconciler) row(data *SourceData, stocks *stockIndex, nmID int64, day string) *dayStat {
	key := dayKey{nmID, day}
	if row, ok := data.Rows[key]; ok {
		return row
	}
	lv := stocks.forDay(nmID, day)
	row := &dayStat{
		NmID:            nmID,
		Date:            day,
		Stocks:          lv.Stocks,
		InWayToClient:   lv.InWayToClient,
		InWayFromClient: lv.InWayFromClient,
	}
	data.Rows[key] = row
	return row
}

// assembleFunnel overlays funnel counters: stored snapshots first, live
// history only on short windows. Snapshot commerce aggregates fill
// days the order/sale feeds left empty, so they are applied in
// finalizeRows after the primary sources ran.
func (r *SourceReconciler) assembleFunnel(ctx context.Context, data *SourceData, nmSet map[int64]bool, stocks *stockIndex, dateFrom, dateTo string) {
	var stored []contracts.DailyFunnelRow
	if r.store != nil {
		var err error
		stored, err = r.store.FunnelDays(ctx, keys(nmSet), dateFrom, dateTo)
		if err != nil {
			r.logger.WithError(err).Warn("Stored funnel snapshots unavailable")
		}
	}
	for _, rowIn := range stored {
		day := parseYMD(rowIn.Date)
		if rowIn.NmID == 0 || day == "" || !nmSet[rowIn.NmID] {
			continue
		}
		row := r.row(data, stocks, rowIn.NmID, day)
		row.OpenCount = int64(math.Max(rowIn.OpenCount, 0))
		row.CartCount = int64(math.Max(rowIn.CartCount, 0))
	}
	data.snapshotFunnel = stored

	if r.provider == nil || len(stored) > 0 {
		return
	}
	if len(data.Days) > maxLiveFunnelDays {
		return
	}

	live, err := r.provider.Funnel(ctx, keys(nmSet), dateFrom, dateTo)
	if err != nil {
		r.logger.WithError(err).Warn("Funnel fetch failed, continuing without funnel counters")
		return
	}
	for _, rec := range live {
		day := parseYMD(rec.Date)
		if rec.NmID == 0 || day == "" || !nmSet[rec.NmID] {
			continue
		}
		row := r.row(data, stocks, rec.NmID, day)
		row.OpenCount = int64(math.Max(rec.OpenCardCount, 0))
		row.CartCount = int64(math.Max(rec.AddToCartCount, 0))
	}
}

func (r *SourceReconciler) assembleOrders(ctx context.Context, data *SourceData, nmSet map[int64]bool, stocks *stockIndex, dateFrom, dateTo string) {
	if r.provider == nil {
		return
	}
	orders, err := r.provider.Orders(ctx, dateFrom)
	if err != nil {
		r.logger.WithError(err).Warn("Orders fetch failed, continuing without order data")
		return
	}

	for _, order := range orders {
		if order.NmID == 0 || !nmSet[order.NmID] {
			continue
		}
		day := order.Day()
		if day == "" || day < dateFrom || day > dateTo {
			continue
		}
		row := r.row(data, stocks, order.NmID, day)

		price := order.PriceWithDisc
		if price == 0 {
			price = order.FinishedPrice
		}
		if price == 0 {
			price = order.TotalPrice
		}
		if price == 0 {
			price = order.ForPay
		}
		row.OrdersCount++
		row.OrdersSum = round2(row.OrdersSum + price)

		// Order lines spell spp as a percent whenever it exceeds a
		// full share; the >1.5 heuristic is for settings values only.
		spp := order.Spp
		if spp > 1 {
			spp /= 100
		}
		if spp > 0 {
			row.sppSum += spp
			row.sppWeight++
		}
	}
}

// assembleSales groups sale events by their event day; returns land as
// negative buyouts and are counted in the cancel pair as well.
func (r *SourceReconciler) assembleSales(ctx context.Context, data *SourceData, nmSet map[int64]bool, stocks *stockIndex, dateFrom, dateTo string) {
	if r.provider == nil {
		return
	}
	salesFrom := dateFrom
	if r.tun.SalesBufferDays > 0 {
		salesFrom = addDays(dateFrom, -r.tun.SalesBufferDays)
	}
	sales, err := r.provider.Sales(ctx, salesFrom)
	if err != nil {
		r.logger.WithError(err).Warn("Sales fetch failed, continuing without sale data")
		return
	}

	for _, sale := range sales {
		if sale.NmID == 0 || !nmSet[sale.NmID] {
			continue
		}
		day := sale.Day()
		if day == "" || day < dateFrom || day > dateTo {
			continue
		}
		row := r.row(data, stocks, sale.NmID, day)

		magnitude := math.Abs(sale.PriceWithDisc)
		if magnitude == 0 {
			magnitude = math.Abs(sale.ForPay)
		}
		if sale.IsReturn() {
			row.BuyoutsCount--
			row.BuyoutsSum = round2(row.BuyoutsSum - magnitude)
			row.CancelCount++
			row.CancelSum = round2(row.CancelSum + magnitude)
		} else {
			row.BuyoutsCount++
			row.BuyoutsSum = round2(row.BuyoutsSum + magnitude)
		}
	}
}

// assembleReportExtras aggregates settled report lines keyed by the
// original order date in marketplace-local time.
func (r *SourceReconciler) assembleReportExtras(ctx context.Context, data *SourceData, nmSet map[int64]bool, dateFrom, dateTo string) {
	if r.provider == nil {
		return
	}
	lines, err := r.provider.ReportDetail(ctx, dateFrom, dateTo)
	if err != nil {
		r.logger.WithError(err).Warn("Report detail fetch failed, continuing without settlement data")
		return
	}

	type acc struct {
		extra     reportExtra
		sppSum    float64
		sppWeight float64
	}
	agg := map[dayKey]*acc{}
	for _, line := range lines {
		if line.NmID == 0 || !nmSet[line.NmID] {
			continue
		}
		day := parseYMDLocal(line.OrderDate, r.tun.ReportTZOffsetHours)
		if day == "" {
			continue
		}

		key := dayKey{line.NmID, day}
		item := agg[key]
		if item == nil {
			item = &acc{}
			agg[key] = item
		}

		if spp := normPercent(line.SppPercent); spp > 0 {
			item.sppSum += spp
			item.sppWeight++
		}
		item.extra.ExternalCosts += math.Abs(line.DeliveryRub) + math.Abs(line.StorageFee) +
			math.Abs(line.Penalty) + math.Abs(line.Deduction) + math.Abs(line.AcquiringFee)

		qty := math.Max(line.Quantity, 1)
		switch line.Operation {
		case contracts.OpSale:
			item.extra.OrdersSum += math.Max(line.RetailAmount, 0)
			item.extra.BuyoutsCount += int64(qty)
			item.extra.BuyoutsSum += math.Max(line.PpvzForPay, 0)
		case contracts.OpReturn:
			item.extra.ReturnsCount += int64(qty)
			item.extra.ReturnsSum += math.Max(math.Abs(line.PpvzForPay), math.Max(line.RetailAmount, 0))
		}
	}

	for key, item := range agg {
		extra := item.extra
		if item.sppWeight > 0 {
			extra.Spp = round6(math.Max(item.sppSum/item.sppWeight, 0))
		}
		extra.ExternalCosts = round2(extra.ExternalCosts)
		extra.OrdersSum = round2(extra.OrdersSum)
		extra.BuyoutsSum = round2(extra.BuyoutsSum)
		extra.ReturnsSum = round2(extra.ReturnsSum)
		data.Extras[key] = extra
	}
}

// assembleAdv prefers stored daily spend snapshots; otherwise it folds
// live campaign statistics into the auto/search/unknown buckets.
func (r *SourceReconciler) assembleAdv(ctx context.Context, data *SourceData, nmSet map[int64]bool, dateFrom, dateTo string) {
	if r.store != nil {
		rows, err := r.store.AdvDays(ctx, keys(nmSet), dateFrom, dateTo)
		if err != nil {
			r.logger.WithError(err).Warn("Stored adv snapshots unavailable")
		}
		for _, row := range rows {
			day := parseYMD(row.Date)
			if row.NmID == 0 || day == "" || !nmSet[row.NmID] {
				continue
			}
			key := dayKey{row.NmID, day}
			split := data.AdvSplits[key]
			split.Auto += row.Auto
			split.Search += row.Search
			split.Unknown += row.Unknown
			if extra := row.Total - (row.Auto + row.Search + row.Unknown); extra > 1e-9 {
				split.Unknown += extra
			}
			data.AdvSplits[key] = split
		}
		if len(data.AdvSplits) > 0 {
			return
		}
	}

	if r.provider == nil {
		return
	}
	campaigns, err := r.provider.Campaigns(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("Campaigns fetch failed, continuing without adv spend")
		return
	}
	if len(campaigns) == 0 {
		return
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

	stats, err := r.provider.CampaignDailyStats(ctx, advertIDs, dateFrom, dateTo)
	if err != nil {
		r.logger.WithError(err).Warn("Campaign stats fetch failed, continuing without adv spend")
		return
	}
	for _, stat := range stats {
		day := parseYMD(stat.Date)
		if stat.NmID == 0 || day == "" || !nmSet[stat.NmID] || stat.Sum <= 0 {
			continue
		}
		if day < dateFrom || day > dateTo {
			continue
		}
		key := dayKey{stat.NmID, day}
		split := data.AdvSplits[key]
		switch bucketByAdvert[stat.AdvertID] {
		case "auto":
			split.Auto += stat.Sum
		case "search":
			split.Search += stat.Sum
		default:
			split.Unknown += stat.Sum
		}
		data.AdvSplits[key] = split
	}
}

// assembleLocalization folds per-region snapshot rows into the per-day
// regional split. The "all" pseudo-region carries the overall pair.
func (r *SourceReconciler) assembleLocalization(ctx context.Context, data *SourceData, dateFrom, dateTo string) {
	if r.store == nil {
		return
	}
	rows, err := r.store.LocalizationDays(ctx, data.NmIDs, dateFrom, dateTo)
	if err != nil {
		r.logger.WithError(err).Warn("Stored localization snapshots unavailable")
		return
	}

	for _, row := range rows {
		day := parseYMD(row.Date)
		if row.NmID == 0 || day == "" {
			continue
		}
		key := dayKey{row.NmID, day}
		info, ok := data.Localization[key]
		if !ok {
			info = localizationInfo{
				Totals: map[string]float64{},
				Locals: map[string]float64{},
			}
		}
		if row.Region == "all" || row.Region == "" {
			info.OrdersTotal += math.Max(row.OrdersTotal, 0)
			info.OrdersLocal += math.Max(row.OrdersLocal, 0)
		} else {
			info.Totals[row.Region] += math.Max(row.OrdersTotal, 0)
			info.Locals[row.Region] += math.Max(row.OrdersLocal, 0)
		}
		data.Localization[key] = info
	}

	for key := range data.Localization {
		data.LocalizationDates[key.NmID] = append(data.LocalizationDates[key.NmID], key.Date)
	}
	for id := range data.LocalizationDates {
		data.LocalizationDates[id] = dedupe(data.LocalizationDates[id])
	}
}

func (r *SourceReconciler) assemblePrices(ctx context.Context, data *SourceData, dateFrom, dateTo string) {
	if r.store == nil {
		return
	}
	rows, err := r.store.PriceDays(ctx, data.NmIDs, dateFrom, dateTo)
	if err != nil {
		r.logger.WithError(err).Warn("Stored price snapshots unavailable")
		return
	}

	for _, row := range rows {
		day := parseYMD(row.Date)
		if row.NmID == 0 || day == "" {
			continue
		}
		discounted := math.Max(row.Price*(1-row.Discount/100), 0)
		withSpp := math.Max(row.DiscountedWithSpp, 0)
		if withSpp <= 0 && discounted > 0 {
			if share := math.Min(math.Max(normPercent(row.Spp), 0), 0.95); share > 0 {
				withSpp = discounted * (1 - share)
			}
		}
		data.Prices[dayKey{row.NmID, day}] = pricePoint{
			Discounted:        round2(discounted),
			DiscountedWithSpp: round2(withSpp),
		}
		data.PriceDates[row.NmID] = append(data.PriceDates[row.NmID], day)
	}
	for id := range data.PriceDates {
		data.PriceDates[id] = dedupe(data.PriceDates[id])
	}
}

// assembleSettings loads the settings sources evaluated later by the
// unit-economics precedence chain.
func (r *SourceReconciler) assembleSettings(ctx context.Context, data *SourceData) {
	if r.store != nil {
		history, err := r.store.UnitSettingsHistory(ctx, data.NmIDs)
		if err != nil {
			r.logger.WithError(err).Warn("Unit settings history unavailable")
		}
		for _, row := range history {
			if row.NmID == 0 || len(row.Values) == 0 {
				continue
			}
			row.Date = parseYMD(row.Date)
			data.UnitSettings[row.NmID] = append(data.UnitSettings[row.NmID], row)
		}
		for id := range data.UnitSettings {
			rows := data.UnitSettings[id]
			sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
		}

		logRows, err := r.store.UnitLogDays(ctx, data.NmIDs)
		if err != nil {
			r.logger.WithError(err).Warn("Unit log unavailable")
		}
		for _, row := range logRows {
			day := parseYMD(row.Date)
			if row.NmID == 0 || day == "" || row.Total <= 0 {
				continue
			}
			if data.UnitLog[row.NmID] == nil {
				data.UnitLog[row.NmID] = map[string]float64{}
			}
			data.UnitLog[row.NmID][day] = row.Total
			data.UnitLogDates[row.NmID] = append(data.UnitLogDates[row.NmID], day)
		}
		for id := range data.UnitLogDates {
			data.UnitLogDates[id] = dedupe(data.UnitLogDates[id])
		}

		plan, err := r.store.PlanSettings(ctx, data.NmIDs)
		if err != nil {
			r.logger.WithError(err).Warn("Plan settings unavailable")
		}
		for id, settings := range plan {
			data.Plan[id] = settings
		}

		commissions, err := r.store.Commissions(ctx)
		if err != nil {
			r.logger.WithError(err).Warn("Stored commission tariffs unavailable")
		}
		for _, rate := range commissions {
			data.Commissions[rate.SubjectID] = rate
		}
	}

	// Tariff fallback straight from the marketplace when nothing is
	// stored yet.
	if len(data.Commissions) == 0 && r.provider != nil {
		commissions, err := r.provider.Commissions(ctx)
		if err != nil {
			r.logger.WithError(err).Warn("Commission tariff fetch failed")
			return
		}
		for _, rate := range commissions {
			data.Commissions[rate.SubjectID] = rate
		}
	}
}

// fillMissingDays guarantees a row for every (SKU, day): flow signals
// zero, stock levels carried forward.
func (r *SourceReconciler) fillMissingDays(data *SourceData, stocks *stockIndex) {
	for _, nmID := range data.NmIDs {
		for _, day := range data.Days {
			r.row(data, stocks, nmID, day)
		}
	}
}

// finalizeRows orders the series, applies snapshot-funnel commerce to
// empty days, resolves the weighted discount share with carry-forward
// and fills the derived conversion ratios.
func (r *SourceReconciler) finalizeRows(data *SourceData) {
	for _, rowIn := range data.snapshotFunnel {
		day := parseYMD(rowIn.Date)
		row, ok := data.Rows[dayKey{rowIn.NmID, day}]
		if !ok || row.hasCommerce() {
			continue
		}
		row.OrdersCount = int64(math.Max(rowIn.OrdersCount, 0))
		row.OrdersSum = round2(math.Max(rowIn.OrdersSumRub, 0))
		row.BuyoutsCount = int64(rowIn.BuyoutsCount)
		row.BuyoutsSum = round2(rowIn.BuyoutsSumRub)
	}

	for key, row := range data.Rows {
		data.ByNm[key.NmID] = append(data.ByNm[key.NmID], row)
	}
	for _, rows := range data.ByNm {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	}

	for _, nmID := range data.NmIDs {
		lastSpp := 0.0
		for _, row := range data.ByNm[nmID] {
			if row.sppWeight > 0 {
				lastSpp = row.sppSum / float64(row.sppWeight)
			}
			row.Spp = round6(math.Max(lastSpp, 0))

			if row.AddToCartConv <= 0 && row.OpenCount > 0 {
				row.AddToCartConv = round2(float64(row.CartCount) / float64(row.OpenCount) * 100)
			}
			if row.CartToOrderConv <= 0 && row.CartCount > 0 {
				row.CartToOrderConv = round2(float64(row.OrdersCount) / float64(row.CartCount) * 100)
			}
			if row.BuyoutPercent <= 0 && row.OrdersCount > 0 {
				row.BuyoutPercent = round2(float64(row.BuyoutsCount) / float64(row.OrdersCount) * 100)
			}
		}
	}
}

func keys(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func dedupe(dates []string) []string {
	sort.Strings(dates)
	out := dates[:0]
	for i, d := range dates {
		if i == 0 || d != dates[i-1] {
			out = append(out, d)
		}
	}
	return out
}
