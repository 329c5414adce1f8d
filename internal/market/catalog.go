// Package market discovers, enriches, and scores Polymarket candidates for
// the quoting cycle: the catalog fetch, order-book snapshot, sponsor-pool
// lookup, and category classification that together produce the
// types.MarketCandidate slice the selector ranks.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"polymarket-quoter/internal/config"
)

const catalogFetchLimit = 90

// GammaMarket is the JSON shape returned by the Gamma catalog API.
type GammaMarket struct {
	ID                    string  `json:"id"`
	Question              string  `json:"question"`
	ConditionID           string  `json:"conditionId"`
	Slug                  string  `json:"slug"`
	Active                bool    `json:"active"`
	Closed                bool    `json:"closed"`
	AcceptingOrders       bool    `json:"acceptingOrders"`
	EnableOrderBook       bool    `json:"enableOrderBook"`
	EndDate               string  `json:"endDate"`
	Liquidity             string  `json:"liquidity"`
	Volume24hr            float64 `json:"volume24hr"`
	OutcomePrices         string  `json:"outcomePrices"`
	ClobTokenIds          string  `json:"clobTokenIds"`
	NegRisk               bool    `json:"negRisk"`
	BestBid               float64 `json:"bestBid"`
	BestAsk               float64 `json:"bestAsk"`
	LastTradePrice        float64 `json:"lastTradePrice"`
	OrderPriceMinTickSize float64 `json:"orderPriceMinTickSize"`
	RewardsMinSize        float64 `json:"rewardsMinSize"`
	RewardsMaxSpread      float64 `json:"rewardsMaxSpread"`
}

// Catalog fetches candidate markets from the Gamma API.
type Catalog struct {
	httpClient *resty.Client
	cfg        config.ScannerConfig
	maxMarkets int
	logger     *slog.Logger
}

// NewCatalog builds a Catalog client pointed at cfg.API.GammaBaseURL.
func NewCatalog(cfg *config.Config, logger *slog.Logger) *Catalog {
	client := resty.New().
		SetBaseURL(cfg.API.GammaBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &Catalog{
		httpClient: client,
		cfg:        cfg.Scanner,
		maxMarkets: cfg.Strategy.MaxMarkets,
		logger:     logger.With("component", "catalog"),
	}
}

// Fetch retrieves the top markets by 24h volume, pre-filters by minimum
// volume and excluded slugs, and caps the survivor count to
// min(3*max_markets, 50) per spec.md §4.2.
func (c *Catalog) Fetch(ctx context.Context) ([]GammaMarket, error) {
	markets, err := c.fetchOrdered(ctx)
	if err != nil {
		c.logger.Warn("ordered fetch failed, retrying without ordering", "error", err)
		markets, err = c.fetchUnordered(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog: %w", err)
		}
	}

	excluded := make(map[string]bool, len(c.cfg.ExcludeSlugs))
	for _, slug := range c.cfg.ExcludeSlugs {
		excluded[slug] = true
	}

	filtered := make([]GammaMarket, 0, len(markets))
	for _, m := range markets {
		if !m.Active || m.Closed || !m.AcceptingOrders || !m.EnableOrderBook {
			continue
		}
		if excluded[m.Slug] {
			continue
		}
		if isExcluded(m.Question) {
			continue
		}
		if m.Volume24hr < c.cfg.MinVolume24h {
			continue
		}
		if m.ClobTokenIds == "" {
			continue
		}
		filtered = append(filtered, m)
	}

	survivorCap := 3 * c.maxMarkets
	if survivorCap > 50 {
		survivorCap = 50
	}
	if len(filtered) > survivorCap {
		filtered = filtered[:survivorCap]
	}

	c.logger.Info("catalog fetch complete",
		"fetched", len(markets), "survivors", len(filtered))

	return filtered, nil
}

func (c *Catalog) fetchOrdered(ctx context.Context) ([]GammaMarket, error) {
	var page []GammaMarket
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":     strconv.Itoa(catalogFetchLimit),
			"active":    "true",
			"closed":    "false",
			"order":     "volume24hr",
			"ascending": "false",
		}).
		SetResult(&page).
		Get("/markets")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}
	return page, nil
}

func (c *Catalog) fetchUnordered(ctx context.Context) ([]GammaMarket, error) {
	var page []GammaMarket
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":  strconv.Itoa(catalogFetchLimit),
			"active": "true",
			"closed": "false",
		}).
		SetResult(&page).
		Get("/markets")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}
	return page, nil
}

// YesTokenID parses the first entry out of ClobTokenIds ("[\"yes\",\"no\"]").
func (m GammaMarket) YesTokenID() string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIds), &ids); err != nil || len(ids) == 0 {
		return ""
	}
	return ids[0]
}
