package wb

import (
	"context"
	"fmt"

	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/pkg/redis"
)

type saleRow struct {
	NmID          int64   `json:"nmId"`
	Date          string  `json:"date"`
	SaleID        string  `json:"saleID"`
	ForPay        float64 `json:"forPay"`
	PriceWithDisc float64 `json:"priceWithDisc"`
	FinishedPrice float64 `json:"finishedPrice"`
	IsCancel      bool    `json:"isCancel"`
	Srid          string  `json:"srid"`
}

// Sales returns all sale and return events since dateFrom from the
// statistics feed.
func (c *Client) Sales(ctx context.Context, dateFrom string) ([]contracts.SaleRecord, error) {
	var rows []saleRow

	url := fmt.Sprintf("%s/api/v1/supplier/sales?dateFrom=%s", c.cfg.StatisticsURL, dateFrom)
	err := c.cache.GetOrSet(ctx, redis.SalesKey(dateFrom), &rows, redis.TTLMedium, func() (interface{}, error) {
		var fresh []saleRow
		if err := c.httpClient.GetJSON(ctx, url, &fresh); err != nil {
			return nil, fmt.Errorf("sales fetch failed: %w", err)
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]contracts.SaleRecord, 0, len(rows))
	for _, r := range rows {
		if r.NmID == 0 {
			continue
		}
		records = append(records, contracts.SaleRecord{
			NmID:          r.NmID,
			Date:          r.Date,
			SaleID:        r.SaleID,
			ForPay:        r.ForPay,
			PriceWithDisc: r.PriceWithDisc,
			FinishedPrice: r.FinishedPrice,
			IsCancel:      r.IsCancel,
			Srid:          r.Srid,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"date_from": dateFrom,
		"count":     len(records),
	}).Debug("Fetched sales")

	return records, nil
}
