package wb

import (
	"context"
	"fmt"

	"github.com/btlz/tenx/backend/internal/contracts"
)

type stockRow struct {
	NmID            int64   `json:"nmId"`
	LastChangeDate  string  `json:"lastChangeDate"`
	WarehouseName   string  `json:"warehouseName"`
	Barcode         string  `json:"barcode"`
	Quantity        float64 `json:"quantity"`
	InWayToClient   float64 `json:"inWayToClient"`
	InWayFromClient float64 `json:"inWayFromClient"`
	QuantityFull    float64 `json:"quantityFull"`
	Price           float64 `json:"Price"`
	Discount        float64 `json:"Discount"`
}

// Stocks returns warehouse stock lines changed since dateFrom. Lines
// come per (warehouse, barcode); callers replay them by change date to
// get a per-day picture.
func (c *Client) Stocks(ctx context.Context, dateFrom string) ([]contracts.StockRecord, error) {
	url := fmt.Sprintf("%s/api/v1/supplier/stocks?dateFrom=%s", c.cfg.StatisticsURL, dateFrom)

	var rows []stockRow
	if err := c.httpClient.GetJSON(ctx, url, &rows); err != nil {
		return nil, fmt.Errorf("stocks fetch failed: %w", err)
	}

	records := make([]contracts.StockRecord, 0, len(rows))
	for _, r := range rows {
		if r.NmID == 0 {
			continue
		}
		records = append(records, contracts.StockRecord{
			NmID:            r.NmID,
			LastChangeDate:  r.LastChangeDate,
			WarehouseName:   r.WarehouseName,
			Barcode:         r.Barcode,
			Quantity:        r.Quantity,
			InWayToClient:   r.InWayToClient,
			InWayFromClient: r.InWayFromClient,
			QuantityFull:    r.QuantityFull,
			Price:           r.Price,
			Discount:        r.Discount,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"date_from": dateFrom,
		"count":     len(records),
	}).Debug("Fetched stocks")

	return records, nil
}
