package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"polymarket-quoter/internal/config"
	"polymarket-quoter/internal/exchange"
	"polymarket-quoter/internal/market"
	"polymarket-quoter/internal/metrics"
	"polymarket-quoter/internal/oracle"
	"polymarket-quoter/internal/risk"
	"polymarket-quoter/internal/selector"
	"polymarket-quoter/internal/store"
	"polymarket-quoter/internal/strategy"
	"polymarket-quoter/pkg/types"
)

// CycleResult summarizes one quoting cycle for the run_cycle control API
// action (spec.md §6) and for the health endpoint's running counters.
type CycleResult struct {
	Logs             []string
	OrdersPlaced     int
	OrdersCancelled  int
	CircuitBreaker   bool
	SponsoredMarkets int
	TotalMarkets     int
	MarketsQuoted    int
	AvgSponsor       float64
	Duration         time.Duration
}

// Cycle runs one full pass of the pipeline described in spec.md §2:
// risk gate, candidate fetch, enrichment, selection, per-market quoting,
// and reconciliation (or paper-mode simulation).
type Cycle struct {
	cfg        *config.Config
	governor   *risk.Governor
	catalog    *market.Catalog
	enricher   *market.Enricher
	client     *exchange.Client
	reconciler *strategy.Reconciler
	paperSim   *strategy.PaperSimulator
	positions  *strategy.Positions
	store      *store.Store
	oracle     *oracle.Oracle
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewCycle wires together one cycle's dependencies. paperSim may be nil in
// live mode; reconciler may be nil in paper mode.
func NewCycle(
	cfg *config.Config,
	governor *risk.Governor,
	catalog *market.Catalog,
	enricher *market.Enricher,
	client *exchange.Client,
	reconciler *strategy.Reconciler,
	paperSim *strategy.PaperSimulator,
	positions *strategy.Positions,
	st *store.Store,
	orc *oracle.Oracle,
	mtx *metrics.Metrics,
	logger *slog.Logger,
) *Cycle {
	return &Cycle{
		cfg:        cfg,
		governor:   governor,
		catalog:    catalog,
		enricher:   enricher,
		client:     client,
		reconciler: reconciler,
		paperSim:   paperSim,
		positions:  positions,
		store:      st,
		oracle:     orc,
		metrics:    mtx,
		logger:     logger.With("component", "cycle"),
	}
}

// Run executes one cycle end to end. A non-nil error is reserved for
// conditions the driver should surface as an unrecoverable problem; ordinary
// cycle-level and per-market failures are logged and folded into the result.
func (c *Cycle) Run(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	result := CycleResult{}

	logf := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		result.Logs = append(result.Logs, msg)
	}

	gate, err := c.governor.Check(ctx)
	if err != nil {
		return result, fmt.Errorf("risk governor check: %w", err)
	}
	result.CircuitBreaker = gate.Halted
	c.metrics.SetCircuitBreakerState(gate.Halted)

	if gate.Halted {
		logf("circuit breaker halted this cycle: %s", gate.HaltReason)
		c.logger.Error("cycle halted", "reason", gate.HaltReason)
		return result, nil
	}

	markets, err := c.catalog.Fetch(ctx)
	if err != nil {
		logf("catalog fetch failed: %v", err)
		c.logger.Error("cycle-level fatal: catalog fetch failed", "error", err)
		return result, nil
	}
	result.TotalMarkets = len(markets)

	candidates := c.enricher.Enrich(ctx, markets)

	selected, report := selector.Select(candidates, c.cfg.Strategy.MaxMarkets, c.cfg.Scanner.MinLiquidity)
	result.SponsoredMarkets = report.Sponsored
	result.MarketsQuoted = len(selected)
	result.AvgSponsor = averageSponsorPool(selected)

	logf("selected %d/%d candidates (%d sponsored)", len(selected), len(candidates), report.Sponsored)

	for _, candidate := range selected {
		c.quoteMarket(ctx, candidate, gate, &result, logf)
	}

	c.metrics.SetMarketsQuoted(result.MarketsQuoted)
	if pnl, err := c.store.TodayPnL(ctx); err != nil {
		c.logger.Error("failed to read today's pnl for metrics", "error", err)
	} else {
		c.metrics.SetRealizedPnL(pnl.RealizedPnL)
	}

	result.Duration = time.Since(start)
	c.metrics.ObserveCycle(result.Duration.Seconds())
	logf("cycle complete in %s: %d orders placed, %d cancelled", result.Duration, result.OrdersPlaced, result.OrdersCancelled)

	return result, nil
}

// quoteMarket runs the quoter, advisory oracle lookup, and either the live
// reconciler or the paper simulator for a single selected candidate.
func (c *Cycle) quoteMarket(ctx context.Context, candidate types.MarketCandidate, gate risk.Gate, result *CycleResult, logf func(string, ...any)) {
	position := c.positions.Get(candidate.ConditionID)

	if spot, ok, err := c.oracle.Lookup(ctx, candidate.Title); err != nil {
		c.logger.Warn("oracle lookup failed", "condition_id", candidate.ConditionID, "error", err)
	} else if ok {
		c.logger.Info("oracle advisory spot", "condition_id", candidate.ConditionID, "book_mid", candidate.Mid, "spot", spot)
	}

	quote, skip, reason := strategy.BuildQuote(strategy.QuoteInput{
		Candidate:     candidate,
		Position:      position,
		MaxPosition:   gate.MaxPosition,
		OrderSize:     gate.OrderSize,
		BaseSpreadBps: c.cfg.Strategy.BaseSpreadBps,
	})
	if skip {
		logf("skipping %s: %s", candidate.ConditionID, reason)
		c.logger.Info("market skipped", "condition_id", candidate.ConditionID, "reason", reason)
		return
	}

	if c.cfg.Paper {
		c.simulateMarket(ctx, quote, position, gate.MaxPosition)
		return
	}

	resting, err := c.client.GetOpenOrders(ctx, candidate.ConditionID)
	if err != nil {
		logf("failed to fetch open orders for %s: %v", candidate.ConditionID, err)
		c.logger.Error("open orders fetch failed", "condition_id", candidate.ConditionID, "error", err)
		return
	}

	var ownToken []types.RestingOrderSnapshot
	for _, o := range toRestingSnapshots(resting) {
		if o.AssetID == candidate.TokenID {
			ownToken = append(ownToken, o)
		}
	}

	summary := c.reconciler.Reconcile(ctx, quote, ownToken)
	result.OrdersPlaced += summary.Placed
	result.OrdersCancelled += summary.Cancelled
	if quote.Buy != nil {
		c.metrics.IncOrdersPlaced("BUY")
	}
	if quote.Sell != nil {
		c.metrics.IncOrdersPlaced("SELL")
	}
	c.metrics.IncOrdersCancelled(summary.Cancelled)
}

// simulateMarket applies one market's paper-mode fill simulation and
// persists the resulting position and PnL credit.
func (c *Cycle) simulateMarket(ctx context.Context, quote *types.QuotePair, position, maxPosition float64) {
	fill := c.paperSim.Simulate(ctx, quote, position, maxPosition)
	if fill.Delta != 0 {
		newPosition := c.positions.Apply(quote.ConditionID, fill.Delta)
		if err := c.store.SetPosition(ctx, quote.ConditionID, newPosition); err != nil {
			c.logger.Error("failed to persist simulated position", "condition_id", quote.ConditionID, "error", err)
		}
	}
	c.paperSim.Credit(ctx, quote.ConditionID, quote.SpreadBps, fill.FilledSize)
}

// toRestingSnapshots converts the venue's raw open-order rows (string-typed
// price/size fields) into the typed snapshot the reconciler consumes.
func toRestingSnapshots(orders []types.OpenOrder) []types.RestingOrderSnapshot {
	out := make([]types.RestingOrderSnapshot, 0, len(orders))
	for _, o := range orders {
		price, err := strconv.ParseFloat(o.Price, 64)
		if err != nil {
			continue
		}
		original, err := strconv.ParseFloat(o.OriginalSize, 64)
		if err != nil {
			continue
		}
		matched, _ := strconv.ParseFloat(o.SizeMatched, 64)
		remaining := original - matched
		if remaining <= 0 {
			continue
		}
		out = append(out, types.RestingOrderSnapshot{
			ID:      o.ID,
			AssetID: o.AssetID,
			Side:    types.Side(o.Side),
			Price:   price,
			Size:    remaining,
		})
	}
	return out
}

func averageSponsorPool(candidates []types.MarketCandidate) float64 {
	if len(candidates) == 0 {
		return 0
	}
	var sum float64
	for _, c := range candidates {
		sum += c.SponsorPool
	}
	return sum / float64(len(candidates))
}
