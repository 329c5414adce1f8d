package strategy

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"polymarket-quoter/pkg/types"
)

const (
	minSpreadBps = 5
	maxSpreadBps = 60

	sponsorPoolTier1 = 2000.0
	sponsorPoolTier2 = 1000.0
	sponsorPoolTier3 = 500.0
	sponsorMultTier1 = 0.5
	sponsorMultTier2 = 0.7
	sponsorMultTier3 = 0.85

	volatilityRangeHigh  = 4.0
	volatilityRangeMed   = 2.0
	volatilityMultHigh   = 1.4
	volatilityMultMed    = 1.2

	nearCertainHigh = 0.92
	nearCertainLow  = 0.08
	nearCertainSpreadBps = 5

	inventorySkewFactor = 0.6 // T = inventorySkewFactor * maxPosition
	minSkewedSize       = 2.0
)

// QuoteInput bundles the per-market inputs the quoter needs beyond the
// candidate itself.
type QuoteInput struct {
	Candidate     types.MarketCandidate
	Position      float64 // current net position, signed USDC units
	MaxPosition   float64 // risk-governor clamped cap (M)
	OrderSize     float64 // risk-governor clamped target size
	BaseSpreadBps int
}

// BuildQuote computes the target BUY/SELL pair for one market following
// spec.md §4.4's pipeline: dynamic spread, near-certain override, base
// prices, inventory skew, then tick alignment. Returns skip=true with a
// reason when the market should not be quoted this cycle (e.g. buy >= sell
// after alignment).
func BuildQuote(in QuoteInput) (quote *types.QuotePair, skip bool, reason string) {
	c := in.Candidate
	tick := c.TickSize.Float()
	tickDecimals := c.TickSize.Decimals()

	spreadBps := dynamicSpreadBps(in.BaseSpreadBps, c.SponsorPool, c.Range1h)

	pauseBuy := false
	pauseSell := false

	if c.Mid > nearCertainHigh {
		spreadBps = nearCertainSpreadBps
		pauseSell = true
	} else if c.Mid < nearCertainLow {
		spreadBps = nearCertainSpreadBps
		pauseBuy = true
	}

	s := float64(spreadBps) / 10000.0
	buy := c.Mid - s
	sell := c.Mid + s

	buySize := in.OrderSize
	sellSize := in.OrderSize
	skewLabel := ""

	if in.MaxPosition > 0 {
		threshold := inventorySkewFactor * in.MaxPosition

		switch {
		case in.Position > threshold:
			buy -= 0.5 * s
			sell -= 0.3 * s
			buySize = math.Max(math.Round(in.OrderSize*0.5), minSkewedSize)
			skewLabel = "LONG heavy"
		case in.Position < -threshold:
			sell += 0.5 * s
			buy += 0.3 * s
			sellSize = math.Max(math.Round(in.OrderSize*0.5), minSkewedSize)
			skewLabel = "SHORT heavy"
		}

		if in.Position > in.MaxPosition {
			pauseBuy = true
		}
		if in.Position < -in.MaxPosition {
			pauseSell = true
		}
	}

	buy = math.Floor(buy/tick) * tick
	sell = math.Ceil(sell/tick) * tick
	buy = clamp(buy, tick, 1-tick)
	sell = clamp(sell, tick, 1-tick)
	buy = roundToTick(buy, tickDecimals)
	sell = roundToTick(sell, tickDecimals)

	if buy >= sell {
		return nil, true, "buy >= sell after tick alignment"
	}

	q := &types.QuotePair{
		ConditionID: c.ConditionID,
		TokenID:     c.TokenID,
		SkewLabel:   skewLabel,
		SpreadBps:   spreadBps,
		GeneratedAt: time.Now(),
	}

	if !pauseBuy {
		q.Buy = &types.UserOrder{
			TokenID:   c.TokenID,
			Price:     buy,
			Size:      buySize,
			Side:      types.BUY,
			OrderType: types.OrderTypeGTC,
			TickSize:  c.TickSize,
		}
	}
	if !pauseSell {
		q.Sell = &types.UserOrder{
			TokenID:   c.TokenID,
			Price:     sell,
			Size:      sellSize,
			Side:      types.SELL,
			OrderType: types.OrderTypeGTC,
			TickSize:  c.TickSize,
		}
	}

	return q, false, ""
}

// dynamicSpreadBps applies the sponsor and volatility multipliers to the
// base spread and clamps the result to [5, 60] bp, integer-rounded.
func dynamicSpreadBps(baseSpreadBps int, sponsorPool, range1h float64) int {
	spread := float64(baseSpreadBps)

	switch {
	case sponsorPool > sponsorPoolTier1:
		spread *= sponsorMultTier1
	case sponsorPool > sponsorPoolTier2:
		spread *= sponsorMultTier2
	case sponsorPool > sponsorPoolTier3:
		spread *= sponsorMultTier3
	}

	switch {
	case range1h > volatilityRangeHigh:
		spread *= volatilityMultHigh
	case range1h > volatilityRangeMed:
		spread *= volatilityMultMed
	}

	rounded := int(math.Round(spread))
	if rounded < minSpreadBps {
		return minSpreadBps
	}
	if rounded > maxSpreadBps {
		return maxSpreadBps
	}
	return rounded
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundToTick rounds v to the tick's decimal precision using shopspring's
// decimal type to avoid binary-float rounding artifacts at 3-4 decimal
// tick sizes.
func roundToTick(v float64, decimals int) float64 {
	d := decimal.NewFromFloat(v).Round(int32(decimals))
	f, _ := d.Float64()
	return f
}
