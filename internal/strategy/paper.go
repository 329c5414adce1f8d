package strategy

import (
	"context"
	"log/slog"
	"math"
	"math/rand"

	"polymarket-quoter/pkg/types"
)

const (
	paperTightSpreadBps = 12   // spec.md §4.7 threshold between the two fill-probability regimes
	paperFillProbTight  = 0.65 // probability a resting quote gets run over when spread <= paperTightSpreadBps
	paperFillProbWide   = 0.40

	paperFillSizeFloor = 0.3 // fill size = min(target, headroom) * (0.3 + U*0.7)
	paperFillSizeSpan  = 0.7

	paperSpreadCapture = 0.5 // conservative spread-capture PnL credit per filled unit
)

// PnLCreditor is the subset of the store the paper simulator needs to credit
// fills to today's realized PnL.
type PnLCreditor interface {
	AddRealizedPnL(ctx context.Context, delta float64) error
}

// PaperSimulator replaces the reconciler in paper mode (spec.md §4.7): instead
// of placing real orders, each side of a quote independently rolls for a
// probabilistic partial fill and credits a conservative spread-capture PnL
// estimate rather than crossing a live book.
type PaperSimulator struct {
	rng    *rand.Rand
	pnl    PnLCreditor
	logger *slog.Logger
}

// NewPaperSimulator builds a simulator with an injected RNG, so tests can
// pin the fill outcome deterministically.
func NewPaperSimulator(rng *rand.Rand, pnl PnLCreditor, logger *slog.Logger) *PaperSimulator {
	return &PaperSimulator{
		rng:    rng,
		pnl:    pnl,
		logger: logger.With("component", "paper_sim"),
	}
}

// Fill is the result of simulating both sides of one market's quote.
type Fill struct {
	Delta      float64 // net position change to apply (signed)
	FilledSize float64 // total size filled across both sides (unsigned)
}

// Simulate rolls both sides of a quote against the current position.
// maxPosition bounds the resulting position's magnitude.
func (p *PaperSimulator) Simulate(ctx context.Context, quote *types.QuotePair, position, maxPosition float64) Fill {
	prob := paperFillProbWide
	if quote.SpreadBps <= paperTightSpreadBps {
		prob = paperFillProbTight
	}

	buyDelta := p.simulateSide(ctx, quote.ConditionID, quote.Buy, position, maxPosition, 1, prob)
	sellDelta := p.simulateSide(ctx, quote.ConditionID, quote.Sell, position+buyDelta, maxPosition, -1, prob)

	delta := buyDelta + sellDelta
	return Fill{
		Delta:      delta,
		FilledSize: math.Abs(buyDelta) + math.Abs(sellDelta),
	}
}

// simulateSide handles one side of the quote. sign is +1 for BUY (increases
// position) and -1 for SELL (decreases position).
func (p *PaperSimulator) simulateSide(ctx context.Context, conditionID string, order *types.UserOrder, position, maxPosition float64, sign, prob float64) float64 {
	if order == nil {
		return 0
	}

	p.logger.Info("paper: intend to quote", "condition_id", conditionID, "side", order.Side, "price", order.Price, "size", order.Size)

	if p.rng.Float64() > prob {
		return 0
	}

	headroom := maxPosition - math.Abs(position)
	if headroom <= 0 {
		return 0
	}

	target := order.Size
	if target > headroom {
		target = headroom
	}

	u := p.rng.Float64()
	fillSize := math.Round(target * (paperFillSizeFloor + u*paperFillSizeSpan))
	if fillSize <= 0 {
		return 0
	}

	delta := sign * fillSize
	newPosition := position + delta
	if math.Abs(newPosition) > maxPosition {
		p.logger.Info("paper: skipping fill, would exceed max position", "condition_id", conditionID, "side", order.Side)
		return 0
	}

	return delta
}

// Credit records the realized PnL for a market's simulated fills this cycle:
// spec.md §4.7 credits spread_decimal * total filled size * 0.5, not a
// per-side estimate, so the cycle driver calls this once per market after
// both sides have been rolled.
func (p *PaperSimulator) Credit(ctx context.Context, conditionID string, spreadBps int, filledSize float64) {
	if filledSize <= 0 {
		return
	}
	spreadDecimal := float64(spreadBps) / 10000
	credit := spreadDecimal * filledSize * paperSpreadCapture
	if p.pnl != nil {
		if err := p.pnl.AddRealizedPnL(ctx, credit); err != nil {
			p.logger.Error("paper: credit realized pnl failed", "error", err)
		}
	}
	p.logger.Info("paper: simulated fill", "condition_id", conditionID, "filled_size", filledSize, "pnl_credit", credit)
}
