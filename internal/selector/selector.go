// Package selector scores market candidates and picks the subset the
// engine quotes this cycle (spec.md §4.3).
package selector

import (
	"math"
	"sort"

	"polymarket-quoter/pkg/types"
)

// category_bonus is not pinned to specific numbers by the source material;
// these values reward sponsor-backed markets and lightly penalize long-dated
// ones (thinner flow, slower resolution) while leaving "other" neutral.
const (
	cappedVolumeCap = 500_000
	cappedDepthCap  = 50_000

	volumeWeight = 0.03
	sponsorBonus = 30.0
	depthWeight  = 0.8

	categoryBonusSponsored = 200.0
	categoryBonusLongTerm  = -200.0
	categoryBonusOther     = 0.0
	categoryBonusTier1     = 0.0

	tier1Multiplier = 4.0

	coinFlipPenalty    = -2000.0
	coinFlipThreshold  = 0.005
	wideBookPenalty    = -3000.0
	wideBookThreshold  = 0.10
	looseBookPenalty   = -1000.0
	looseBookThreshold = 0.05
	shallowBookPenalty = -1500.0
)

// Report summarizes the selection pass: counts by category and how many
// candidates carried a nonzero sponsor pool.
type Report struct {
	TotalCandidates int
	Selected        int
	ByCategory      map[string]int
	Sponsored       int
}

// Select scores every candidate, sorts descending, and returns the top
// maxMarkets along with a selection report. minLiquidityDepth feeds the
// shallow-book penalty.
func Select(candidates []types.MarketCandidate, maxMarkets int, minLiquidityDepth float64) ([]types.MarketCandidate, Report) {
	report := Report{
		TotalCandidates: len(candidates),
		ByCategory:      make(map[string]int),
	}

	scored := make([]types.MarketCandidate, len(candidates))
	copy(scored, candidates)

	for i := range scored {
		scored[i].Score = Score(scored[i], minLiquidityDepth)
		report.ByCategory[scored[i].Category]++
		if scored[i].SponsorPool > 0 {
			report.Sponsored++
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > maxMarkets {
		scored = scored[:maxMarkets]
	}
	report.Selected = len(scored)

	return scored, report
}

// Score computes the composite score for a single candidate per spec.md
// §4.3's formula.
func Score(c types.MarketCandidate, minLiquidityDepth float64) float64 {
	cappedVol := math.Min(c.Volume24h, cappedVolumeCap)
	cappedDepth := math.Min(c.Depth, cappedDepthCap)

	base := volumeWeight*cappedVol + sponsorBonus*c.SponsorPool + depthWeight*cappedDepth
	base += categoryBonus(c.Category)
	base += penalties(c, minLiquidityDepth)

	if c.Tier1 {
		return base * tier1Multiplier
	}
	return base
}

func categoryBonus(category string) float64 {
	switch category {
	case "tier1":
		return categoryBonusTier1
	case "sponsored":
		return categoryBonusSponsored
	case "long-term":
		return categoryBonusLongTerm
	default:
		return categoryBonusOther
	}
}

func penalties(c types.MarketCandidate, minLiquidityDepth float64) float64 {
	var p float64

	if math.Abs(c.Mid-0.5) < coinFlipThreshold {
		p += coinFlipPenalty
	}

	if c.Mid > 0 {
		spread := (c.BestAsk - c.BestBid) / c.Mid
		switch {
		case spread > wideBookThreshold:
			p += wideBookPenalty
		case spread > looseBookThreshold:
			p += looseBookPenalty
		}
	}

	if c.Depth < minLiquidityDepth {
		p += shallowBookPenalty
	}

	return p
}
