package market

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"polymarket-quoter/internal/config"
	"polymarket-quoter/pkg/types"
)

// Enricher turns catalog rows into fully scored-ready MarketCandidates by
// fetching each market's book and sponsor pool and classifying its category.
// All I/O is sequential per spec.md §5 — the cycle driver has no concurrent
// market goroutines, so enrichment suspends at each outbound call in turn.
type Enricher struct {
	clobClient *resty.Client
	rewards    *RewardsLookup
	cfg        config.ScannerConfig
	logger     *slog.Logger
}

// NewEnricher builds an Enricher pointed at cfg's CLOB and rewards base URLs.
func NewEnricher(cfg *config.Config, logger *slog.Logger) *Enricher {
	clobClient := resty.New().
		SetBaseURL(cfg.API.CLOBBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &Enricher{
		clobClient: clobClient,
		rewards:    NewRewardsLookup(cfg.API.RewardsBaseURL, logger),
		cfg:        cfg.Scanner,
		logger:     logger.With("component", "enricher"),
	}
}

// Enrich fetches book + sponsor pool for each candidate market and returns
// the surviving MarketCandidate list. Markets with an empty book, shallow
// depth, or a sponsor pool below min_sponsor_pool are hard-skipped
// (spec.md §4.2).
func (e *Enricher) Enrich(ctx context.Context, markets []GammaMarket) []types.MarketCandidate {
	e.rewards.ResetScanCache()

	candidates := make([]types.MarketCandidate, 0, len(markets))
	for _, m := range markets {
		tokenID := m.YesTokenID()
		if tokenID == "" {
			continue
		}

		book, err := FetchBook(ctx, e.clobClient, tokenID)
		if err != nil {
			e.logger.Warn("book fetch failed, skipping market", "condition_id", m.ConditionID, "error", err)
			continue
		}

		mid, midSource := DeriveMid(book.BestBid, book.BestAsk, m.LastTradePrice)
		if midSource == types.MidEmpty {
			e.logger.Info("empty book, skipping", "condition_id", m.ConditionID)
			continue
		}

		tick := book.TickSize
		if tick == "" {
			tick = types.Tick001
		}

		depth := Depth(book.BestBidSize, book.BestAskSize)
		if depth < 80 {
			e.logger.Info("shallow book, skipping", "condition_id", m.ConditionID, "depth", depth)
			continue
		}

		catalogHint := 0.0
		if m.RewardsMinSize > 0 {
			catalogHint = m.RewardsMinSize
		}
		sponsorPool, method := e.rewards.Resolve(ctx, m.ConditionID, tokenID, m.Question, catalogHint)
		if sponsorPool < e.cfg.MinSponsorPool {
			e.logger.Info("sponsor pool below minimum, skipping",
				"condition_id", m.ConditionID, "sponsor_pool", sponsorPool)
			continue
		}

		longTermDays := 0
		if endDate, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
			longTermDays = int(time.Until(endDate).Hours() / 24)
		}
		category, tier1 := classifyCategory(m.Question, sponsorPool, longTermDays)

		candidates = append(candidates, types.MarketCandidate{
			ConditionID:   m.ConditionID,
			TokenID:       tokenID,
			NegRisk:       m.NegRisk,
			Title:         m.Question,
			Volume24h:     m.Volume24hr,
			BestBid:       book.BestBid,
			BestAsk:       book.BestAsk,
			BestBidSize:   book.BestBidSize,
			BestAskSize:   book.BestAskSize,
			LastTrade:     m.LastTradePrice,
			Mid:           mid,
			MidSource:     midSource,
			Range1h:       Range1h(book.BestBid, book.BestAsk, mid),
			Depth:         depth,
			TickSize:      tick,
			SponsorPool:   sponsorPool,
			SponsorMethod: method,
			Category:      category,
			Tier1:         tier1,
		})
	}

	return candidates
}
