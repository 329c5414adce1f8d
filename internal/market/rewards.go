package market

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// keywordNominalSponsorPool is the small pool forced for a handful of
// well-known high-value titles when every rewards-API path comes up empty
// (spec.md §4.2), so the §4.3 score term and §4.4 spread tightening still
// engage instead of silently no-opping.
const keywordNominalSponsorPool = 100

// rewardsMarketEntry is one row of the /rewards/markets scan response.
type rewardsMarketEntry struct {
	ConditionID string  `json:"conditionId"`
	TokenID     string  `json:"tokenId"`
	RewardsPool float64 `json:"rewardsDailyRate"`
}

// RewardsLookup resolves a market's sponsor pool through the layered
// fallback chain in spec.md §4.2: a catalog-row hint, then two targeted
// rewards API calls, then a full scan, then a keyword-based default. Each
// path tags its result with a method string for observability.
type RewardsLookup struct {
	httpClient *resty.Client
	logger     *slog.Logger
	scanCache  []rewardsMarketEntry
	scanFailed bool
}

// NewRewardsLookup builds a lookup client pointed at cfg's rewards base URL.
func NewRewardsLookup(baseURL string, logger *slog.Logger) *RewardsLookup {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(1)

	return &RewardsLookup{
		httpClient: client,
		logger:     logger.With("component", "rewards"),
	}
}

// Resolve returns the sponsor pool for (conditionID, tokenID, title) and the
// method that produced it. catalogHint is the Gamma catalog row's
// rewardsMinSize value; a positive hint is returned as the pool as is.
func (r *RewardsLookup) Resolve(ctx context.Context, conditionID, tokenID, title string, catalogHint float64) (pool float64, method string) {
	if catalogHint > 0 {
		return catalogHint, "catalog"
	}

	if pool, ok := r.byConditionID(ctx, conditionID); ok {
		return pool, "rewards_condition"
	}

	if pool, ok := r.byTokenID(ctx, tokenID); ok {
		return pool, "rewards_token"
	}

	if pool, ok := r.byScan(ctx, conditionID, tokenID); ok {
		return pool, "rewards_scan"
	}

	if containsAny(title, sponsoredKeywords) {
		return keywordNominalSponsorPool, "keyword"
	}

	return 0, "none"
}

func (r *RewardsLookup) byConditionID(ctx context.Context, conditionID string) (float64, bool) {
	if conditionID == "" {
		return 0, false
	}
	var entry rewardsMarketEntry
	resp, err := r.httpClient.R().
		SetContext(ctx).
		SetQueryParam("conditionId", conditionID).
		SetResult(&entry).
		Get("/rewards")
	if err != nil || resp.StatusCode() != 200 || entry.RewardsPool <= 0 {
		return 0, false
	}
	return entry.RewardsPool, true
}

func (r *RewardsLookup) byTokenID(ctx context.Context, tokenID string) (float64, bool) {
	if tokenID == "" {
		return 0, false
	}
	var entry rewardsMarketEntry
	resp, err := r.httpClient.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&entry).
		Get("/rewards")
	if err != nil || resp.StatusCode() != 200 || entry.RewardsPool <= 0 {
		return 0, false
	}
	return entry.RewardsPool, true
}

// byScan fetches the full /rewards/markets list once per cycle and caches
// it, since many candidates share the same sponsor-pool scan cost.
func (r *RewardsLookup) byScan(ctx context.Context, conditionID, tokenID string) (float64, bool) {
	if r.scanFailed {
		return 0, false
	}
	if r.scanCache == nil {
		var entries []rewardsMarketEntry
		resp, err := r.httpClient.R().
			SetContext(ctx).
			SetResult(&entries).
			Get("/rewards/markets")
		if err != nil || resp.StatusCode() != 200 {
			r.logger.Warn("rewards scan failed", "error", err)
			r.scanFailed = true
			return 0, false
		}
		r.scanCache = entries
	}

	for _, e := range r.scanCache {
		if e.ConditionID == conditionID || e.TokenID == tokenID {
			if e.RewardsPool > 0 {
				return e.RewardsPool, true
			}
		}
	}
	return 0, false
}

// ResetScanCache clears the cached /rewards/markets scan. Call once per
// cycle before enriching the next batch of candidates.
func (r *RewardsLookup) ResetScanCache() {
	r.scanCache = nil
	r.scanFailed = false
}
