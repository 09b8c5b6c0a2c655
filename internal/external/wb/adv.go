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

// fullstats accepts at most 100 campaigns per request.
const advStatsBatchSize = 100

type advCountResponse struct {
	Adverts []struct {
		Type       int `json:"type"`
		Status     int `json:"status"`
		Count      int `json:"count"`
		AdvertList []struct {
			AdvertID int64 `json:"advertId"`
		} `json:"advert_list"`
	} `json:"adverts"`
}

// Campaigns lists all advertising campaigns with enough detail to
// classify their spend bucket.
func (c *Client) Campaigns(ctx context.Context) ([]contracts.Campaign, error) {
	countURL := fmt.Sprintf("%s/adv/v1/promotion/count", c.cfg.AdvertURL)

	var counted advCountResponse
	if err := c.httpClient.GetJSON(ctx, countURL, &counted); err != nil {
		return nil, fmt.Errorf("campaign list fetch failed: %w", err)
	}

	var ids []int64
	for _, group := range counted.Adverts {
		for _, item := range group.AdvertList {
			if item.AdvertID > 0 {
				ids = append(ids, item.AdvertID)
			}
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	details, err := c.fetchCampaignDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(details)).Debug("Fetched campaigns")
	return details, nil
}

// fetchCampaignDetails resolves campaign type, bid type and placements.
// The details payload varies a lot between campaign generations, so it
// is decoded loosely and normalized field by field.
func (c *Client) fetchCampaignDetails(ctx context.Context, ids []int64) ([]contracts.Campaign, error) {
	url := fmt.Sprintf("%s/adv/v1/promotion/adverts", c.cfg.AdvertURL)

	resp, err := c.httpClient.PostJSON(ctx, url, ids)
	if err != nil {
		return nil, fmt.Errorf("campaign details fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("campaign details: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var rawItems []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rawItems); err != nil {
		return nil, fmt.Errorf("campaign details decode failed: %w", err)
	}

	campaigns := make([]contracts.Campaign, 0, len(rawItems))
	for _, item := range rawItems {
		campaign := contracts.Campaign{
			Type:   int(toInt(item["type"])),
			Status: int(toInt(item["status"])),
		}
		for _, key := range []string{"advertId", "advert_id", "id"} {
			if v, ok := item[key]; ok {
				campaign.AdvertID = toInt(v)
				break
			}
		}
		if campaign.AdvertID == 0 {
			continue
		}

		for _, key := range []string{"bidType", "bid_type", "paymentType"} {
			if v, ok := item[key]; ok {
				if s := strings.ToLower(toString(v)); s != "" {
					campaign.BidType = s
					break
				}
			}
		}

		if raw, ok := item["placements"].(map[string]any); ok {
			campaign.Placements = make(map[string]bool, len(raw))
			for name, flag := range raw {
				campaign.Placements[strings.ToLower(name)] = toFloat(flag) != 0
			}
		}

		campaigns = append(campaigns, campaign)
	}

	return campaigns, nil
}

type advStatsRequest struct {
	ID    int64    `json:"id"`
	Dates []string `json:"dates"`
}

type advStatsResponse []struct {
	AdvertID int64 `json:"advertId"`
	Days     []struct {
		Date string `json:"date"`
		Apps []struct {
			Nm []struct {
				NmID   int64   `json:"nmId"`
				Sum    float64 `json:"sum"`
				Views  float64 `json:"views"`
				Clicks float64 `json:"clicks"`
				Orders float64 `json:"orders"`
			} `json:"nm"`
		} `json:"apps"`
	} `json:"days"`
}

// CampaignDailyStats returns per-day per-item spend for the given
// campaigns over [dateFrom, dateTo].
func (c *Client) CampaignDailyStats(ctx context.Context, advertIDs []int64, dateFrom, dateTo string) ([]contracts.AdvDailyStat, error) {
	dates := datesBetween(dateFrom, dateTo)
	if len(dates) == 0 {
		return nil, nil
	}

	var stats []contracts.AdvDailyStat
	for start := 0; start < len(advertIDs); start += advStatsBatchSize {
		end := start + advStatsBatchSize
		if end > len(advertIDs) {
			end = len(advertIDs)
		}

		body := make([]advStatsRequest, 0, end-start)
		for _, id := range advertIDs[start:end] {
			body = append(body, advStatsRequest{ID: id, Dates: dates})
		}

		batch, err := c.fetchAdvStatsBatch(ctx, body)
		if err != nil {
			return nil, err
		}
		stats = append(stats, batch...)
	}

	c.logger.WithFields(map[string]interface{}{
		"campaigns": len(advertIDs),
		"rows":      len(stats),
	}).Debug("Fetched campaign daily stats")

	return stats, nil
}

func (c *Client) fetchAdvStatsBatch(ctx context.Context, body []advStatsRequest) ([]contracts.AdvDailyStat, error) {
	url := fmt.Sprintf("%s/adv/v2/fullstats", c.cfg.AdvertURL)

	resp, err := c.httpClient.PostJSON(ctx, url, body)
	if err != nil {
		return nil, fmt.Errorf("adv stats fetch failed: %w", err)
	}
	defer resp.Body.Close()

	// The endpoint answers 204 when no campaign in the batch has spend.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("adv stats: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed advStatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("adv stats decode failed: %w", err)
	}

	var stats []contracts.AdvDailyStat
	for _, campaign := range parsed {
		for _, day := range campaign.Days {
			date := day.Date
			if len(date) >= 10 {
				date = date[:10]
			}
			for _, app := range day.Apps {
				for _, nm := range app.Nm {
					if nm.NmID == 0 {
						continue
					}
					stats = append(stats, contracts.AdvDailyStat{
						AdvertID: campaign.AdvertID,
						Date:     date,
						NmID:     nm.NmID,
						Sum:      nm.Sum,
						Views:    nm.Views,
						Clicks:   nm.Clicks,
						Orders:   nm.Orders,
					})
				}
			}
		}
	}

	return stats, nil
}
