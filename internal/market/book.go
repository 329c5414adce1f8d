package market

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"polymarket-quoter/pkg/types"
)

// BookSnapshot is the per-cycle REST book fetch for one token, fully
// consumed and discarded after the enricher derives a MarketCandidate from
// it — there is no maintained local mirror, since the cycle driver polls
// fresh state every tick (spec.md §4.1/§4.2).
type BookSnapshot struct {
	BestBid     float64
	BestAsk     float64
	BestBidSize float64
	BestAskSize float64
	TickSize    types.TickSize
}

// FetchBook retrieves the order book for tokenID from the CLOB API.
func FetchBook(ctx context.Context, client *resty.Client, tokenID string) (*BookSnapshot, error) {
	var resp types.BookResponse
	r, err := client.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&resp).
		Get("/book")
	if err != nil {
		return nil, fmt.Errorf("fetch book: %w", err)
	}
	if r.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch book: status %d", r.StatusCode())
	}

	snap := &BookSnapshot{TickSize: parseTickSize(resp.TickSize)}
	if len(resp.Bids) > 0 {
		snap.BestBid = parsePrice(resp.Bids[0].Price)
		snap.BestBidSize = parsePrice(resp.Bids[0].Size)
	}
	if len(resp.Asks) > 0 {
		snap.BestAsk = parsePrice(resp.Asks[0].Price)
		snap.BestAskSize = parsePrice(resp.Asks[0].Size)
	}
	return snap, nil
}

func parseTickSize(s string) types.TickSize {
	switch s {
	case "0.1":
		return types.Tick01
	case "0.001":
		return types.Tick0001
	case "0.0001":
		return types.Tick00001
	case "0.01":
		return types.Tick001
	default:
		return types.Tick001
	}
}

func parsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// DeriveMid computes a candidate's mid price and source tag following the
// precedence order in spec.md §4.2: both sides of the book, then the last
// trade price, then whichever single side is present, then empty.
func DeriveMid(bid, ask, lastTrade float64) (mid float64, source types.MidSource) {
	switch {
	case bid > 0 && ask > 0:
		return (bid + ask) / 2, types.MidOrderbook
	case lastTrade > 0:
		return lastTrade, types.MidLastTrade
	case bid > 0:
		return bid, types.MidBidOnly
	case ask > 0:
		return ask, types.MidAskOnly
	default:
		return 0, types.MidEmpty
	}
}

// Range1h returns the normalized bid-ask spread (ask-bid)/mid used as the
// quoter's volatility proxy (spec.md §4.2/§4.4). Returns 0 if mid is 0.
func Range1h(bid, ask, mid float64) float64 {
	if mid <= 0 {
		return 0
	}
	return (ask - bid) / mid
}

// Depth returns the liquidity depth at top of book: the smaller of the
// best-bid and best-ask sizes (in tokens), which is the conservative figure
// the scorer and enricher's hard-skip check both key off (spec.md §4.2/§4.3).
func Depth(bidSize, askSize float64) float64 {
	if bidSize < askSize {
		return bidSize
	}
	return askSize
}
