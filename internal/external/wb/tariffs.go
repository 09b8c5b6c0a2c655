package wb

import (
	"context"
	"fmt"

	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/pkg/redis"
)

type tariffsResponse struct {
	Report []struct {
		SubjectID           int64   `json:"subjectID"`
		SubjectName         string  `json:"subjectName"`
		KgvpMarketplace     float64 `json:"kgvpMarketplace"`
		KgvpSupplier        float64 `json:"kgvpSupplier"`
		KgvpSupplierExpress float64 `json:"kgvpSupplierExpress"`
		PaidStorageKgvp     float64 `json:"paidStorageKgvp"`
	} `json:"report"`
}

// Commissions returns the commission tariff table for all subjects.
// Used as the fallback commission source when a SKU has no configured
// perc_mp.
func (c *Client) Commissions(ctx context.Context) ([]contracts.CommissionRate, error) {
	var parsed tariffsResponse

	url := fmt.Sprintf("%s/api/v1/tariffs/commission", c.cfg.CommonURL)
	err := c.cache.GetOrSet(ctx, redis.TariffsKey("all"), &parsed, redis.TTLLong, func() (interface{}, error) {
		var fresh tariffsResponse
		if err := c.httpClient.GetJSON(ctx, url, &fresh); err != nil {
			return nil, fmt.Errorf("tariffs fetch failed: %w", err)
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	rates := make([]contracts.CommissionRate, 0, len(parsed.Report))
	for _, r := range parsed.Report {
		if r.SubjectID == 0 {
			continue
		}
		rates = append(rates, contracts.CommissionRate{
			SubjectID:           r.SubjectID,
			SubjectName:         r.SubjectName,
			KgvpMarketplace:     r.KgvpMarketplace,
			KgvpSupplier:        r.KgvpSupplier,
			KgvpSupplierExpress: r.KgvpSupplierExpress,
			PaidStorageKgvp:     r.PaidStorageKgvp,
		})
	}

	c.logger.WithField("count", len(rates)).Debug("Fetched commission tariffs")
	return rates, nil
}
