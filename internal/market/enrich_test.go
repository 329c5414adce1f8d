package market

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"polymarket-quoter/internal/config"
	"polymarket-quoter/pkg/types"
)

func newTestEnricher(t *testing.T, books map[string]types.BookResponse, scannerCfg config.ScannerConfig) *Enricher {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/book":
			tokenID := r.URL.Query().Get("token_id")
			book, ok := books[tokenID]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(book)
		case "/rewards":
			w.WriteHeader(http.StatusNotFound)
		case "/rewards/markets":
			json.NewEncoder(w).Encode([]rewardsMarketEntry{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		API:     config.APIConfig{CLOBBaseURL: srv.URL, RewardsBaseURL: srv.URL},
		Scanner: scannerCfg,
	}
	return NewEnricher(cfg, slog.Default())
}

func TestEnricherSkipsEmptyBook(t *testing.T) {
	t.Parallel()

	books := map[string]types.BookResponse{
		"yes-1": {TickSize: "0.01"},
	}
	e := newTestEnricher(t, books, config.ScannerConfig{})
	m := testCatalogMarket("1", 10000)

	got := e.Enrich(t.Context(), []GammaMarket{m})
	if len(got) != 0 {
		t.Fatalf("Enrich() = %d candidates, want 0 (empty book)", len(got))
	}
}

func TestEnricherSkipsShallowDepth(t *testing.T) {
	t.Parallel()

	books := map[string]types.BookResponse{
		"yes-1": {
			Bids:     []types.PriceLevel{{Price: "0.40", Size: "10"}},
			Asks:     []types.PriceLevel{{Price: "0.42", Size: "10"}},
			TickSize: "0.01",
		},
	}
	e := newTestEnricher(t, books, config.ScannerConfig{MinSponsorPool: 0})
	m := testCatalogMarket("1", 10000)

	got := e.Enrich(t.Context(), []GammaMarket{m})
	if len(got) != 0 {
		t.Fatalf("Enrich() = %d candidates, want 0 (shallow depth)", len(got))
	}
}

func TestEnricherSkipsBelowMinSponsorPool(t *testing.T) {
	t.Parallel()

	books := map[string]types.BookResponse{
		"yes-1": {
			Bids:     []types.PriceLevel{{Price: "0.40", Size: "200"}},
			Asks:     []types.PriceLevel{{Price: "0.42", Size: "200"}},
			TickSize: "0.01",
		},
	}
	e := newTestEnricher(t, books, config.ScannerConfig{MinSponsorPool: 100})
	m := testCatalogMarket("1", 10000)

	got := e.Enrich(t.Context(), []GammaMarket{m})
	if len(got) != 0 {
		t.Fatalf("Enrich() = %d candidates, want 0 (sponsor pool below minimum)", len(got))
	}
}

func TestEnricherProducesCandidate(t *testing.T) {
	t.Parallel()

	books := map[string]types.BookResponse{
		"yes-1": {
			Bids:     []types.PriceLevel{{Price: "0.40", Size: "200"}},
			Asks:     []types.PriceLevel{{Price: "0.42", Size: "200"}},
			TickSize: "0.01",
		},
	}
	e := newTestEnricher(t, books, config.ScannerConfig{MinSponsorPool: 0})
	m := testCatalogMarket("1", 10000)

	got := e.Enrich(t.Context(), []GammaMarket{m})
	if len(got) != 1 {
		t.Fatalf("Enrich() = %d candidates, want 1", len(got))
	}

	c := got[0]
	if c.TokenID != "yes-1" {
		t.Errorf("TokenID = %q, want yes-1", c.TokenID)
	}
	if math.Abs(c.Mid-0.41) > 1e-9 || c.MidSource != types.MidOrderbook {
		t.Errorf("Mid = %v/%v, want 0.41/orderbook", c.Mid, c.MidSource)
	}
	if c.Depth != 200 {
		t.Errorf("Depth = %v, want 200", c.Depth)
	}
}
