package market

import "testing"

func TestClassifyCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		title        string
		sponsorPool  float64
		longTermDays int
		wantCategory string
		wantTier1    bool
	}{
		{"fed rate decision", "Will the Fed cut rates in March?", 0, 10, "tier1", true},
		{"sponsored by pool", "Will it rain in Austin tomorrow?", 500, 10, "sponsored", false},
		{"sponsored by keyword", "Who wins the Academy Awards Best Picture?", 0, 10, "sponsored", false},
		{"long term", "Will X happen by 2030?", 0, 400, "long-term", false},
		{"other", "Will the local team win tonight?", 0, 10, "other", false},
		{"tier1 wins over sponsor", "Fed rate decision", 1000, 10, "tier1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, tier1 := classifyCategory(tt.title, tt.sponsorPool, tt.longTermDays)
			if category != tt.wantCategory || tier1 != tt.wantTier1 {
				t.Errorf("classifyCategory(%q) = (%q,%v), want (%q,%v)",
					tt.title, category, tier1, tt.wantCategory, tt.wantTier1)
			}
		})
	}
}

func TestIsExcluded(t *testing.T) {
	t.Parallel()

	if !isExcluded("This is a Test Market for QA") {
		t.Error("expected exclusion match")
	}
	if isExcluded("Will the Fed cut rates?") {
		t.Error("expected no exclusion match")
	}
}

func TestIsCryptoRelevant(t *testing.T) {
	t.Parallel()

	if !isCryptoRelevant("Will BTC hit $100k?") {
		t.Error("expected crypto match on BTC")
	}
	if isCryptoRelevant("Will the Fed cut rates?") {
		t.Error("expected no crypto match")
	}
}
