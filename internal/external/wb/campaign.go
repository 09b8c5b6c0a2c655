package wb

import (
	"fmt"

	"github.com/btlz/tenx/backend/internal/contracts"
)

// Spend bucket names used by checklist fields.
const (
	BucketAuto    = "auto"
	BucketSearch  = "search"
	BucketUnknown = "unknown"
)

// Campaign type codes changed meaning over the years; these tables
// reflect the current scheme. Bid type and placements, when present,
// are more reliable than the code.
var (
	searchTypeCodes = map[int]bool{6: true, 7: true, 8: true, 9: true}
	autoTypeCodes   = map[int]bool{4: true, 5: true}
	autoBidTypes    = map[string]bool{"unified": true}
	searchBidTypes  = map[string]bool{"manual": true}
)

// campaignTypeName maps a raw campaign type code onto a bucket name.
// Unrecognized positive codes keep their identity as type_<n> so they
// stay visible in diagnostics before folding into unknown.
func campaignTypeName(advertType int) string {
	if searchTypeCodes[advertType] {
		return BucketSearch
	}
	if autoTypeCodes[advertType] {
		return BucketAuto
	}
	if advertType <= 0 {
		return BucketUnknown
	}
	return fmt.Sprintf("type_%d", advertType)
}

// CampaignBucket classifies a campaign into a spend bucket. Bid type
// wins over placements, placements win over the type code.
func CampaignBucket(c contracts.Campaign) string {
	if c.BidType != "" {
		if autoBidTypes[c.BidType] {
			return BucketAuto
		}
		if searchBidTypes[c.BidType] {
			return BucketSearch
		}
	}

	if len(c.Placements) > 0 {
		search := c.Placements["search"]
		reco := c.Placements["recommendations"]
		if search && !reco {
			return BucketSearch
		}
		if reco && !search {
			return BucketAuto
		}
	}

	return campaignTypeName(c.Type)
}

// FoldBucket collapses extended bucket names (type_<n>) onto the three
// checklist buckets.
func FoldBucket(bucket string) string {
	switch bucket {
	case BucketAuto, BucketSearch:
		return bucket
	default:
		return BucketUnknown
	}
}
