package strategy

import (
	"testing"

	"polymarket-quoter/pkg/types"
)

func baseQuoteInput() QuoteInput {
	return QuoteInput{
		Candidate: types.MarketCandidate{
			ConditionID: "cond-1",
			TokenID:     "tok-1",
			Mid:         0.40,
			Range1h:     0.05,
			SponsorPool: 0,
			TickSize:    types.Tick001,
		},
		Position:      0,
		MaxPosition:   100,
		OrderSize:     10,
		BaseSpreadBps: 22,
	}
}

func TestBuildQuoteWorkedExample(t *testing.T) {
	q, skip, reason := BuildQuote(baseQuoteInput())
	if skip {
		t.Fatalf("BuildQuote skipped unexpectedly: %s", reason)
	}
	if q.Buy == nil || q.Sell == nil {
		t.Fatalf("expected both sides quoted, got %+v", q)
	}
	if q.Buy.Price != 0.39 {
		t.Errorf("buy price = %v, want 0.39", q.Buy.Price)
	}
	if q.Sell.Price != 0.41 {
		t.Errorf("sell price = %v, want 0.41", q.Sell.Price)
	}
	if q.SpreadBps != 22 {
		t.Errorf("spread = %d, want 22", q.SpreadBps)
	}
}

func TestDynamicSpreadBpsSponsorTiers(t *testing.T) {
	cases := []struct {
		name    string
		pool    float64
		base    int
		want    int
	}{
		{"no sponsor", 0, 22, 22},
		{"tier3 discount", 600, 22, 19},  // 22*0.85=18.7 -> 19
		{"tier2 discount", 1200, 22, 15}, // 22*0.7=15.4 -> 15
		{"tier1 discount", 2500, 22, 11}, // 22*0.5=11
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := dynamicSpreadBps(tc.base, tc.pool, 0)
			if got != tc.want {
				t.Errorf("dynamicSpreadBps(%d, %v, 0) = %d, want %d", tc.base, tc.pool, got, tc.want)
			}
		})
	}
}

func TestDynamicSpreadBpsVolatilityMultipliers(t *testing.T) {
	if got := dynamicSpreadBps(20, 0, 5.0); got != 28 {
		t.Errorf("high volatility: dynamicSpreadBps = %d, want 28", got)
	}
	if got := dynamicSpreadBps(20, 0, 3.0); got != 24 {
		t.Errorf("med volatility: dynamicSpreadBps = %d, want 24", got)
	}
}

func TestDynamicSpreadBpsClampsToRange(t *testing.T) {
	if got := dynamicSpreadBps(1, 0, 0); got != minSpreadBps {
		t.Errorf("dynamicSpreadBps(1,...) = %d, want clamp to %d", got, minSpreadBps)
	}
	if got := dynamicSpreadBps(200, 0, 5.0); got != maxSpreadBps {
		t.Errorf("dynamicSpreadBps(200,...) = %d, want clamp to %d", got, maxSpreadBps)
	}
}

func TestBuildQuoteNearCertainHighPausesSell(t *testing.T) {
	in := baseQuoteInput()
	in.Candidate.Mid = 0.95

	q, skip, reason := BuildQuote(in)
	if skip {
		t.Fatalf("BuildQuote skipped unexpectedly: %s", reason)
	}
	if q.Sell != nil {
		t.Errorf("expected SELL paused near certainty, got %+v", q.Sell)
	}
	if q.Buy == nil {
		t.Error("expected BUY still active near certainty")
	}
	if q.SpreadBps != nearCertainSpreadBps {
		t.Errorf("spread = %d, want %d", q.SpreadBps, nearCertainSpreadBps)
	}
}

func TestBuildQuoteNearCertainLowPausesBuy(t *testing.T) {
	in := baseQuoteInput()
	in.Candidate.Mid = 0.05

	q, skip, reason := BuildQuote(in)
	if skip {
		t.Fatalf("BuildQuote skipped unexpectedly: %s", reason)
	}
	if q.Buy != nil {
		t.Errorf("expected BUY paused near certainty, got %+v", q.Buy)
	}
	if q.Sell == nil {
		t.Error("expected SELL still active near certainty")
	}
}

func TestBuildQuoteLongHeavySkew(t *testing.T) {
	in := baseQuoteInput()
	in.Position = 70 // > 0.6*100 threshold

	q, skip, _ := BuildQuote(in)
	if skip {
		t.Fatal("BuildQuote skipped unexpectedly")
	}
	if q.SkewLabel != "LONG heavy" {
		t.Errorf("SkewLabel = %q, want LONG heavy", q.SkewLabel)
	}
	if q.Buy.Size != 5 {
		t.Errorf("buy size = %v, want 5 (halved)", q.Buy.Size)
	}
}

func TestBuildQuoteShortHeavySkew(t *testing.T) {
	in := baseQuoteInput()
	in.Position = -70

	q, skip, _ := BuildQuote(in)
	if skip {
		t.Fatal("BuildQuote skipped unexpectedly")
	}
	if q.SkewLabel != "SHORT heavy" {
		t.Errorf("SkewLabel = %q, want SHORT heavy", q.SkewLabel)
	}
	if q.Sell.Size != 5 {
		t.Errorf("sell size = %v, want 5 (halved)", q.Sell.Size)
	}
}

func TestBuildQuotePausesBuyOverMaxPosition(t *testing.T) {
	in := baseQuoteInput()
	in.Position = 150
	in.MaxPosition = 100

	q, skip, _ := BuildQuote(in)
	if skip {
		t.Fatal("BuildQuote skipped unexpectedly")
	}
	if q.Buy != nil {
		t.Error("expected BUY paused when position exceeds max")
	}
}

func TestBuildQuotePausesSellUnderNegativeMaxPosition(t *testing.T) {
	in := baseQuoteInput()
	in.Position = -150
	in.MaxPosition = 100

	q, skip, _ := BuildQuote(in)
	if skip {
		t.Fatal("BuildQuote skipped unexpectedly")
	}
	if q.Sell != nil {
		t.Error("expected SELL paused when position exceeds -max")
	}
}

func TestBuildQuoteSkipsWhenBuyCrossesSell(t *testing.T) {
	in := baseQuoteInput()
	in.Candidate.Mid = 0.005
	in.Candidate.Range1h = 0

	_, skip, reason := BuildQuote(in)
	if !skip {
		t.Fatal("expected BuildQuote to skip near price boundary")
	}
	if reason == "" {
		t.Error("expected a non-empty skip reason")
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(0.5, 0.1, 0.9); got != 0.5 {
		t.Errorf("clamp in-range = %v, want 0.5", got)
	}
	if got := clamp(-1, 0.1, 0.9); got != 0.1 {
		t.Errorf("clamp below lo = %v, want 0.1", got)
	}
	if got := clamp(2, 0.1, 0.9); got != 0.9 {
		t.Errorf("clamp above hi = %v, want 0.9", got)
	}
}

func TestRoundToTick(t *testing.T) {
	if got := roundToTick(0.39777, 2); got != 0.40 {
		t.Errorf("roundToTick(0.39777, 2) = %v, want 0.40", got)
	}
}
