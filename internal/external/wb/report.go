package wb

import (
	"context"
	"fmt"
	"strings"

	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/pkg/redis"
)

type reportRow struct {
	RrdID               int64   `json:"rrd_id"`
	NmID                int64   `json:"nm_id"`
	OrderDt             string  `json:"order_dt"`
	SaleDt              string  `json:"sale_dt"`
	DocTypeName         string  `json:"doc_type_name"`
	SupplierOperName    string  `json:"supplier_oper_name"`
	Quantity            float64 `json:"quantity"`
	RetailAmount        float64 `json:"retail_amount"`
	RetailPriceWithdisc float64 `json:"retail_price_withdisc_rub"`
	PpvzForPay          float64 `json:"ppvz_for_pay"`
	DeliveryRub         float64 `json:"delivery_rub"`
	StorageFee          float64 `json:"storage_fee"`
	Penalty             float64 `json:"penalty"`
	Deduction           float64 `json:"deduction"`
	AcquiringFee        float64 `json:"acquiring_fee"`
	PpvzSppPrc          float64 `json:"ppvz_spp_prc"`
}

// normalizeOperation maps the report's Russian document types onto the
// internal operation kinds. Everything that is neither a sale nor a
// return (logistics, storage, penalties) stays OpOther but keeps its
// cost fields.
func normalizeOperation(docType string) string {
	switch strings.ToLower(strings.TrimSpace(docType)) {
	case "продажа":
		return contracts.OpSale
	case "возврат":
		return contracts.OpReturn
	default:
		return contracts.OpOther
	}
}

// ReportDetail returns settled realization report lines for the given
// period, paginating by rrd_id until the feed is exhausted.
func (c *Client) ReportDetail(ctx context.Context, dateFrom, dateTo string) ([]contracts.ReportDetailRecord, error) {
	var all []reportRow

	key := redis.ReportDetailKey(dateFrom, dateTo)
	err := c.cache.GetOrSet(ctx, key, &all, redis.TTLDaily, func() (interface{}, error) {
		fresh, err := c.fetchReportPages(ctx, dateFrom, dateTo)
		if err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]contracts.ReportDetailRecord, 0, len(all))
	for _, r := range all {
		if r.NmID == 0 {
			continue
		}
		records = append(records, contracts.ReportDetailRecord{
			NmID:         r.NmID,
			OrderDate:    r.OrderDt,
			SaleDate:     r.SaleDt,
			Operation:    normalizeOperation(r.DocTypeName),
			Quantity:     r.Quantity,
			RetailAmount: r.RetailAmount,
			PpvzForPay:   r.PpvzForPay,
			DeliveryRub:  r.DeliveryRub,
			StorageFee:   r.StorageFee,
			Penalty:      r.Penalty,
			Deduction:    r.Deduction,
			AcquiringFee: r.AcquiringFee,
			SppPercent:   r.PpvzSppPrc,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"date_from": dateFrom,
		"date_to":   dateTo,
		"rows":      len(records),
	}).Debug("Fetched report detail")

	return records, nil
}

func (c *Client) fetchReportPages(ctx context.Context, dateFrom, dateTo string) ([]reportRow, error) {
	var all []reportRow
	var rrdID int64

	for {
		url := fmt.Sprintf("%s/api/v5/supplier/reportDetailByPeriod?dateFrom=%s&dateTo=%s&rrdid=%d",
			c.cfg.StatisticsURL, dateFrom, dateTo, rrdID)

		var page []reportRow
		if err := c.httpClient.GetJSON(ctx, url, &page); err != nil {
			return nil, fmt.Errorf("report detail fetch failed: %w", err)
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		rrdID = page[len(page)-1].RrdID
		if rrdID == 0 {
			break
		}
	}

	return all, nil
}
