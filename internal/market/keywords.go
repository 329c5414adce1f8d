package market

import "strings"

// tier1Keywords marks markets eligible for the 4.0x score multiplier:
// major, high-attention recurring events (spec.md §4.3).
var tier1Keywords = []string{
	"fed", "fomc", "interest rate", "cpi", "inflation",
	"election", "president", "senate", "congress",
	"super bowl", "world cup", "nba finals", "world series",
	"bitcoin", "ethereum", "recession",
}

// sponsoredKeywords names a handful of well-known high-value titles that
// carry a forced nominal sponsor pool when no rewards data was found via
// the catalog/rewards API paths (spec.md §4.2's keyword fallback path).
var sponsoredKeywords = []string{
	"super bowl", "world cup", "nba finals", "world series",
	"academy awards", "oscars", "election night",
}

// cryptoKeywords match markets the external oracle (spec.md §4.8) treats as
// crypto-spot-price-relevant.
var cryptoKeywords = []string{
	"bitcoin", "btc", "ethereum", "eth", "solana", "sol",
	"dogecoin", "doge", "crypto",
}

// negativeKeywords exclude markets regardless of other signals: low-quality
// or operationally undesirable categories.
var negativeKeywords = []string{
	"test market", "do not trade",
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// classifyCategory assigns a market to one of the four spec.md §4.2/§4.3
// categories: "tier1", "sponsored", "long-term", or "other". Tier-1 takes
// precedence; sponsored is assigned when the rewards lookup found a
// positive pool OR the text matches a sponsor keyword.
func classifyCategory(title string, sponsorPool float64, longTermDays int) (category string, tier1 bool) {
	if containsAny(title, tier1Keywords) {
		return "tier1", true
	}
	if sponsorPool > 0 || containsAny(title, sponsoredKeywords) {
		return "sponsored", false
	}
	if longTermDays > 180 {
		return "long-term", false
	}
	return "other", false
}

// isExcluded reports whether a market's title matches a hard negative
// keyword and should be dropped regardless of its other signals.
func isExcluded(title string) bool {
	return containsAny(title, negativeKeywords)
}

// isCryptoRelevant reports whether a market's title matches the external
// oracle's crypto keyword list (spec.md §4.8).
func isCryptoRelevant(title string) bool {
	return containsAny(title, cryptoKeywords)
}

// IsCryptoRelevant is the exported form of isCryptoRelevant, used by the
// oracle package to decide whether a market is worth an advisory spot-price
// lookup.
func IsCryptoRelevant(title string) bool {
	return isCryptoRelevant(title)
}

// CryptoSymbol maps a crypto-relevant market title to the ticker its external
// oracle should fetch. Returns "" if no known symbol matches.
func CryptoSymbol(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "bitcoin") || strings.Contains(lower, "btc"):
		return "BTC"
	case strings.Contains(lower, "ethereum") || strings.Contains(lower, "eth"):
		return "ETH"
	case strings.Contains(lower, "solana") || strings.Contains(lower, "sol"):
		return "SOL"
	case strings.Contains(lower, "dogecoin") || strings.Contains(lower, "doge"):
		return "DOGE"
	default:
		return ""
	}
}
