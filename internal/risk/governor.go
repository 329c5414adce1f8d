// Package risk enforces the calendar-day circuit breaker and capital-relative
// clamps that gate every quoting cycle (spec.md §4.6).
//
// Unlike the teacher's portfolio-exposure kill switch — a standalone
// goroutine aggregating concurrent per-market reports into a broadcast
// kill channel — the governor here runs synchronously once per cycle, since
// the cycle driver is itself single-threaded (spec.md §5).
package risk

import (
	"context"
	"fmt"
	"log/slog"

	"polymarket-quoter/internal/config"
	"polymarket-quoter/internal/store"
)

// PositionStore is the subset of the store the governor needs for the
// calendar-day breaker and position auto-repair.
type PositionStore interface {
	TodayPnL(ctx context.Context) (store.DailyPnL, error)
	LatchCircuitBreaker(ctx context.Context) error
	AutoRepairPositions(ctx context.Context, threshold float64) (int, error)
}

// Governor evaluates the risk gate at the start of every cycle and clamps
// the strategy's size/position limits against total capital.
type Governor struct {
	cfg    *config.Config
	store  PositionStore
	logger *slog.Logger
}

// NewGovernor builds a Governor.
func NewGovernor(cfg *config.Config, store PositionStore, logger *slog.Logger) *Governor {
	return &Governor{
		cfg:    cfg,
		store:  store,
		logger: logger.With("component", "risk_governor"),
	}
}

// Gate is the result of the pre-cycle risk check: whether quoting may
// proceed this cycle, and the clamped size/position limits to use if so.
type Gate struct {
	Halted      bool
	HaltReason  string
	OrderSize   float64
	MaxPosition float64
}

// Check implements spec.md §4.6's pre-cycle sequence: read today's PnL row,
// respect an already-latched breaker, latch a new breach, clamp limits, and
// auto-repair runaway positions.
func (g *Governor) Check(ctx context.Context) (Gate, error) {
	pnl, err := g.store.TodayPnL(ctx)
	if err != nil {
		return Gate{}, fmt.Errorf("read today pnl: %w", err)
	}

	if pnl.CircuitBreakerTriggered {
		g.logger.Error("circuit breaker latched, skipping cycle", "date", pnl.Date, "realized_pnl", pnl.RealizedPnL)
		return Gate{Halted: true, HaltReason: "circuit breaker latched"}, nil
	}

	lossLimit := -config.CircuitBreakerLossPct * g.cfg.Risk.TotalCapital
	if pnl.RealizedPnL < lossLimit {
		if err := g.store.LatchCircuitBreaker(ctx); err != nil {
			return Gate{}, fmt.Errorf("latch circuit breaker: %w", err)
		}
		g.logger.Error("circuit breaker tripped",
			"realized_pnl", pnl.RealizedPnL,
			"loss_limit", lossLimit,
		)
		return Gate{Halted: true, HaltReason: "daily loss limit breached"}, nil
	}

	orderSize := g.cfg.ClampedOrderSize()
	maxPosition := g.cfg.ClampedMaxPosition()

	repairThreshold := config.PositionAutoRepairMult * maxPosition
	if n, err := g.store.AutoRepairPositions(ctx, repairThreshold); err != nil {
		g.logger.Error("auto-repair positions failed", "error", err)
	} else if n > 0 {
		g.logger.Warn("auto-repaired runaway positions", "count", n, "threshold", repairThreshold)
	}

	return Gate{
		OrderSize:   orderSize,
		MaxPosition: maxPosition,
	}, nil
}
