package wb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/pkg/redis"
)

// nm-report history accepts at most 20 items per request.
const funnelBatchSize = 20

type funnelRequest struct {
	NmIDs  []int64      `json:"nmIDs"`
	Period funnelPeriod `json:"period"`
}

type funnelPeriod struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

type funnelResponse struct {
	Data []struct {
		NmID    int64 `json:"nmID"`
		History []struct {
			Dt             string  `json:"dt"`
			OpenCardCount  float64 `json:"openCardCount"`
			AddToCartCount float64 `json:"addToCartCount"`
			OrdersCount    float64 `json:"ordersCount"`
			OrdersSumRub   float64 `json:"ordersSumRub"`
			BuyoutsCount   float64 `json:"buyoutsCount"`
			BuyoutsSumRub  float64 `json:"buyoutsSumRub"`
		} `json:"history"`
	} `json:"data"`
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

// Funnel returns per-day product funnel history (views, carts, orders,
// buyouts) for the given items over [dateFrom, dateTo].
func (c *Client) Funnel(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]contracts.FunnelRecord, error) {
	var records []contracts.FunnelRecord

	for start := 0; start < len(nmIDs); start += funnelBatchSize {
		end := start + funnelBatchSize
		if end > len(nmIDs) {
			end = len(nmIDs)
		}
		batch := nmIDs[start:end]

		var resp funnelResponse
		key := redis.FunnelKey(dateFrom, dateTo) + ":" + joinIDs(batch)
		err := c.cache.GetOrSet(ctx, key, &resp, redis.TTLMedium, func() (interface{}, error) {
			fresh, err := c.fetchFunnelBatch(ctx, batch, dateFrom, dateTo)
			if err != nil {
				return nil, err
			}
			return fresh, nil
		})
		if err != nil {
			return nil, err
		}

		for _, item := range resp.Data {
			for _, h := range item.History {
				records = append(records, contracts.FunnelRecord{
					NmID:           item.NmID,
					Date:           h.Dt,
					OpenCardCount:  h.OpenCardCount,
					AddToCartCount: h.AddToCartCount,
					OrdersCount:    h.OrdersCount,
					OrdersSumRub:   h.OrdersSumRub,
					BuyoutsCount:   h.BuyoutsCount,
					BuyoutsSumRub:  h.BuyoutsSumRub,
				})
			}
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"items": len(nmIDs),
		"rows":  len(records),
	}).Debug("Fetched funnel history")

	return records, nil
}

func (c *Client) fetchFunnelBatch(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) (*funnelResponse, error) {
	url := fmt.Sprintf("%s/api/v2/nm-report/detail/history", c.cfg.AnalyticsURL)
	body := funnelRequest{
		NmIDs:  nmIDs,
		Period: funnelPeriod{Begin: dateFrom, End: dateTo},
	}

	resp, err := c.httpClient.PostJSON(ctx, url, body)
	if err != nil {
		return nil, fmt.Errorf("funnel fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("funnel fetch: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed funnelResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("funnel decode failed: %w", err)
	}
	if parsed.Error {
		return nil, fmt.Errorf("funnel fetch: %s", parsed.ErrorText)
	}

	return &parsed, nil
}

func joinIDs(ids []int64) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}
