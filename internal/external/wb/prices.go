package wb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/btlz/tenx/backend/internal/contracts"
)

const pricesPageSize = 1000

type pricesResponse struct {
	Data struct {
		ListGoods []struct {
			NmID     int64   `json:"nmID"`
			Discount float64 `json:"discount"`
			Sizes    []struct {
				Price           float64 `json:"price"`
				DiscountedPrice float64 `json:"discountedPrice"`
			} `json:"sizes"`
		} `json:"listGoods"`
	} `json:"data"`
}

// Prices returns current card prices. The first size carries the base
// price; discount applies uniformly across sizes.
func (c *Client) Prices(ctx context.Context) ([]contracts.PriceRecord, error) {
	var all []contracts.PriceRecord
	offset := 0

	for {
		url := fmt.Sprintf("%s/api/v2/list/goods/filter?limit=%d&offset=%d", c.cfg.PricesURL, pricesPageSize, offset)

		resp, err := c.httpClient.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("prices fetch failed: %w", err)
		}

		var parsed pricesResponse
		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("prices fetch: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("prices decode failed: %w", err)
		}
		resp.Body.Close()

		for _, g := range parsed.Data.ListGoods {
			if g.NmID == 0 {
				continue
			}
			record := contracts.PriceRecord{NmID: g.NmID, Discount: g.Discount}
			if len(g.Sizes) > 0 {
				record.Price = g.Sizes[0].Price
			}
			all = append(all, record)
		}

		if len(parsed.Data.ListGoods) < pricesPageSize {
			break
		}
		offset += pricesPageSize
	}

	c.logger.WithField("count", len(all)).Debug("Fetched prices")
	return all, nil
}
