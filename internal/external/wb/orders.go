package wb

import (
	"context"
	"fmt"

	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/pkg/redis"
)

type orderRow struct {
	NmID            int64   `json:"nmId"`
	Date            string  `json:"date"`
	PriceWithDisc   float64 `json:"priceWithDisc"`
	FinishedPrice   float64 `json:"finishedPrice"`
	TotalPrice      float64 `json:"totalPrice"`
	ForPay          float64 `json:"forPay"`
	DiscountPercent float64 `json:"discountPercent"`
	Spp             float64 `json:"spp"`
	IsCancel        bool    `json:"isCancel"`
	Srid            string  `json:"srid"`
	RegionName      string  `json:"regionName"`
	OblastOkrugName string  `json:"oblastOkrugName"`
	WarehouseName   string  `json:"warehouseName"`
}

// Orders returns all order events since dateFrom from the statistics
// feed. The feed is cumulative, so dateFrom should cover the warm-up
// lookback of the requested period.
func (c *Client) Orders(ctx context.Context, dateFrom string) ([]contracts.OrderRecord, error) {
	var rows []orderRow

	url := fmt.Sprintf("%s/api/v1/supplier/orders?dateFrom=%s", c.cfg.StatisticsURL, dateFrom)
	err := c.cache.GetOrSet(ctx, redis.OrdersKey(dateFrom), &rows, redis.TTLMedium, func() (interface{}, error) {
		var fresh []orderRow
		if err := c.httpClient.GetJSON(ctx, url, &fresh); err != nil {
			return nil, fmt.Errorf("orders fetch failed: %w", err)
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]contracts.OrderRecord, 0, len(rows))
	for _, r := range rows {
		if r.NmID == 0 {
			continue
		}
		region := r.RegionName
		if region == "" {
			region = r.OblastOkrugName
		}
		records = append(records, contracts.OrderRecord{
			NmID:            r.NmID,
			Date:            r.Date,
			PriceWithDisc:   r.PriceWithDisc,
			FinishedPrice:   r.FinishedPrice,
			TotalPrice:      r.TotalPrice,
			ForPay:          r.ForPay,
			DiscountPercent: r.DiscountPercent,
			Spp:             r.Spp,
			IsCancel:        r.IsCancel,
			Srid:            r.Srid,
			RegionName:      region,
			WarehouseName:   r.WarehouseName,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"date_from": dateFrom,
		"count":     len(records),
	}).Debug("Fetched orders")

	return records, nil
}
