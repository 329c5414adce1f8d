// Package oracle provides an optional, advisory external spot-price lookup
// for crypto-keyword markets (spec.md §4.8). It never feeds into the
// quoting formula by default; the fetched price is logged alongside the
// book mid purely for operator visibility into basis between the venue's
// own book and the underlying spot market.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"polymarket-quoter/internal/config"
	"polymarket-quoter/internal/market"
)

// Oracle fetches advisory spot prices for crypto-relevant markets from a
// public ticker endpoint. Disabled entirely when the config flag is off.
type Oracle struct {
	http    *resty.Client
	enabled bool
	logger  *slog.Logger
}

// New builds an Oracle. When both cfg.Oracle.Enabled and
// cfg.Strategy.ExternalOracle are false, Lookup is a no-op that never makes
// a network call.
func New(cfg *config.Config, logger *slog.Logger) *Oracle {
	httpClient := resty.New().
		SetBaseURL(cfg.Oracle.BaseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(1).
		SetRetryWaitTime(250 * time.Millisecond)

	return &Oracle{
		http:    httpClient,
		enabled: cfg.Oracle.Enabled || cfg.Strategy.ExternalOracle,
		logger:  logger.With("component", "oracle"),
	}
}

// tickerResponse is the subset of a Coinbase-shaped spot ticker response
// this oracle reads. Other venues exposing the same {"price": "..."} shape
// work without change.
type tickerResponse struct {
	Price string `json:"price"`
}

// Lookup fetches the advisory spot price for a market's title, if the title
// is crypto-relevant and the oracle is enabled. Returns ok=false (not an
// error) when the market has no known symbol or the oracle is disabled, so
// callers can skip logging without treating it as a failure.
func (o *Oracle) Lookup(ctx context.Context, title string) (price float64, ok bool, err error) {
	if !o.enabled || !market.IsCryptoRelevant(title) {
		return 0, false, nil
	}

	symbol := market.CryptoSymbol(title)
	if symbol == "" {
		return 0, false, nil
	}

	var result tickerResponse
	resp, err := o.http.R().
		SetContext(ctx).
		SetPathParam("product_id", symbol+"-USD").
		SetResult(&result).
		Get("/products/{product_id}")
	if err != nil {
		return 0, false, fmt.Errorf("fetch spot price for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return 0, false, fmt.Errorf("spot price request for %s: status %d", symbol, resp.StatusCode())
	}

	spot, err := parsePrice(result.Price)
	if err != nil {
		return 0, false, fmt.Errorf("parse spot price for %s: %w", symbol, err)
	}

	o.logger.Info("oracle spot price", "symbol", symbol, "spot", spot)
	return spot, true, nil
}

func parsePrice(s string) (float64, error) {
	var f float64
	if _, err := fmt.Sscanf(s, "%f", &f); err != nil {
		return 0, err
	}
	return f, nil
}
