package contracts

// Card represents one catalog item of the seller.
type Card struct {
	NmID        int64  `json:"nm_id"`
	ImtID       int64  `json:"imt_id"`
	VendorCode  string `json:"vendor_code"`
	SubjectID   int64  `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Brand       string `json:"brand"`
	Title       string `json:"title"`
}

// OrderRecord is one order event from the statistics feed.
// Date carries the provider timestamp ("2006-01-02T15:04:05"); the day
// key is derived from its first 10 characters.
type OrderRecord struct {
	NmID            int64   `json:"nm_id"`
	Date            string  `json:"date"`
	PriceWithDisc   float64 `json:"price_with_disc"`
	FinishedPrice   float64 `json:"finished_price"`
	TotalPrice      float64 `json:"total_price"`
	ForPay          float64 `json:"for_pay"`
	DiscountPercent float64 `json:"discount_percent"`
	Spp             float64 `json:"spp"`
	IsCancel        bool    `json:"is_cancel"`
	Srid            string  `json:"srid"`
	RegionName      string  `json:"region_name"`
	WarehouseName   string  `json:"warehouse_name"`
}

// Day returns the YYYY-MM-DD key of the order event.
func (o OrderRecord) Day() string {
	if len(o.Date) >= 10 {
		return o.Date[:10]
	}
	return o.Date
}

// SaleRecord is one sale or return event from the statistics feed.
type SaleRecord struct {
	NmID          int64   `json:"nm_id"`
	Date          string  `json:"date"`
	SaleID        string  `json:"sale_id"`
	ForPay        float64 `json:"for_pay"`
	PriceWithDisc float64 `json:"price_with_disc"`
	FinishedPrice float64 `json:"finished_price"`
	IsCancel      bool    `json:"is_cancel"`
	Srid          string  `json:"srid"`
}

// Day returns the YYYY-MM-DD key of the sale event.
func (s SaleRecord) Day() string {
	if len(s.Date) >= 10 {
		return s.Date[:10]
	}
	return s.Date
}

// IsReturn reports whether the event takes a unit back from the buyer.
// Returns show up either flagged or with a negative payout/price.
func (s SaleRecord) IsReturn() bool {
	return s.IsCancel || s.ForPay < 0 || s.PriceWithDisc < 0
}

// StockRecord is one warehouse stock snapshot line. Lines arrive
// per (warehouse, barcode) and are replayed by LastChangeDate to
// reconstruct per-day on-hand quantities.
type StockRecord struct {
	NmID            int64   `json:"nm_id"`
	LastChangeDate  string  `json:"last_change_date"`
	WarehouseName   string  `json:"warehouse_name"`
	Barcode         string  `json:"barcode"`
	Quantity        float64 `json:"quantity"`
	InWayToClient   float64 `json:"in_way_to_client"`
	InWayFromClient float64 `json:"in_way_from_client"`
	QuantityFull    float64 `json:"quantity_full"`
	Price           float64 `json:"price"`
	Discount        float64 `json:"discount"`
}

// Day returns the YYYY-MM-DD key of the stock snapshot line.
func (s StockRecord) Day() string {
	if len(s.LastChangeDate) >= 10 {
		return s.LastChangeDate[:10]
	}
	return s.LastChangeDate
}

// FunnelRecord is one day of the product analytics funnel.
type FunnelRecord struct {
	NmID           int64   `json:"nm_id"`
	Date           string  `json:"date"`
	OpenCardCount  float64 `json:"open_card_count"`
	AddToCartCount float64 `json:"add_to_cart_count"`
	OrdersCount    float64 `json:"orders_count"`
	OrdersSumRub   float64 `json:"orders_sum_rub"`
	BuyoutsCount   float64 `json:"buyouts_count"`
	BuyoutsSumRub  float64 `json:"buyouts_sum_rub"`
}

// Report detail operation kinds after boundary normalization.
const (
	OpSale   = "sale"
	OpReturn = "return"
	OpOther  = "other"
)

// ReportDetailRecord is one settled line of the weekly realization
// report. Operation is already normalized to OpSale/OpReturn/OpOther.
type ReportDetailRecord struct {
	NmID         int64   `json:"nm_id"`
	OrderDate    string  `json:"order_date"`
	SaleDate     string  `json:"sale_date"`
	Operation    string  `json:"operation"`
	Quantity     float64 `json:"quantity"`
	RetailAmount float64 `json:"retail_amount"`
	PpvzForPay   float64 `json:"ppvz_for_pay"`
	DeliveryRub  float64 `json:"delivery_rub"`
	StorageFee   float64 `json:"storage_fee"`
	Penalty      float64 `json:"penalty"`
	Deduction    float64 `json:"deduction"`
	AcquiringFee float64 `json:"acquiring_fee"`
	SppPercent   float64 `json:"spp_percent"`
}

// OrderDay returns the YYYY-MM-DD key of the originating order.
func (r ReportDetailRecord) OrderDay() string {
	if len(r.OrderDate) >= 10 {
		return r.OrderDate[:10]
	}
	return r.OrderDate
}

// Campaign describes one advertising campaign.
type Campaign struct {
	AdvertID   int64           `json:"advert_id"`
	Type       int             `json:"type"`
	Status     int             `json:"status"`
	BidType    string          `json:"bid_type"`
	Placements map[string]bool `json:"placements,omitempty"`
}

// AdvDailyStat is per-campaign per-day per-item advertising spend.
type AdvDailyStat struct {
	AdvertID int64   `json:"advert_id"`
	Date     string  `json:"date"`
	NmID     int64   `json:"nm_id"`
	Sum      float64 `json:"sum"`
	Views    float64 `json:"views"`
	Clicks   float64 `json:"clicks"`
	Orders   float64 `json:"orders"`
}

// PriceRecord is one catalog price line.
type PriceRecord struct {
	NmID     int64   `json:"nm_id"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
}
