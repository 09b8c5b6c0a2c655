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

const cardsPageSize = 100

type cardsRequest struct {
	Settings cardsSettings `json:"settings"`
}

type cardsSettings struct {
	Cursor cardsCursor `json:"cursor"`
	Filter cardsFilter `json:"filter"`
}

type cardsCursor struct {
	Limit     int    `json:"limit"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	NmID      int64  `json:"nmID,omitempty"`
}

type cardsFilter struct {
	WithPhoto int `json:"withPhoto"`
}

type cardsResponse struct {
	Cards []struct {
		NmID        int64  `json:"nmID"`
		ImtID       int64  `json:"imtID"`
		VendorCode  string `json:"vendorCode"`
		SubjectID   int64  `json:"subjectID"`
		SubjectName string `json:"subjectName"`
		Brand       string `json:"brand"`
		Title       string `json:"title"`
	} `json:"cards"`
	Cursor struct {
		UpdatedAt string `json:"updatedAt"`
		NmID      int64  `json:"nmID"`
		Total     int    `json:"total"`
	} `json:"cursor"`
}

// Cards returns the full seller catalog, following the content API
// cursor until the last page.
func (c *Client) Cards(ctx context.Context) ([]contracts.Card, error) {
	var all []contracts.Card
	cursor := cardsCursor{Limit: cardsPageSize}

	for {
		page, err := c.fetchCardsPage(ctx, cursor)
		if err != nil {
			return nil, err
		}

		for _, card := range page.Cards {
			if card.NmID == 0 {
				continue
			}
			all = append(all, contracts.Card{
				NmID:        card.NmID,
				ImtID:       card.ImtID,
				VendorCode:  card.VendorCode,
				SubjectID:   card.SubjectID,
				SubjectName: card.SubjectName,
				Brand:       card.Brand,
				Title:       card.Title,
			})
		}

		if len(page.Cards) < cardsPageSize {
			break
		}
		cursor.UpdatedAt = page.Cursor.UpdatedAt
		cursor.NmID = page.Cursor.NmID
	}

	c.logger.WithField("count", len(all)).Debug("Fetched cards")
	return all, nil
}

func (c *Client) fetchCardsPage(ctx context.Context, cursor cardsCursor) (*cardsResponse, error) {
	url := fmt.Sprintf("%s/content/v2/get/cards/list", c.cfg.ContentURL)
	body := cardsRequest{
		Settings: cardsSettings{
			Cursor: cursor,
			Filter: cardsFilter{WithPhoto: -1},
		},
	}

	resp, err := c.httpClient.PostJSON(ctx, url, body)
	if err != nil {
		return nil, fmt.Errorf("cards fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cards fetch: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed cardsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("cards decode failed: %w", err)
	}

	return &parsed, nil
}
