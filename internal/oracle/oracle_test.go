package oracle

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"polymarket-quoter/internal/config"
)

func newTestOracle(t *testing.T, enabled bool, price string) *Oracle {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tickerResponse{Price: price})
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Oracle: config.OracleConfig{Enabled: enabled, BaseURL: srv.URL},
	}
	return New(cfg, slog.Default())
}

func TestLookupDisabledIsNoop(t *testing.T) {
	o := newTestOracle(t, false, "65000.00")

	price, ok, err := o.Lookup(t.Context(), "Will BTC hit $100k?")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("ok = true, want false when oracle disabled")
	}
	if price != 0 {
		t.Errorf("price = %v, want 0", price)
	}
}

func TestLookupIrrelevantTitleIsNoop(t *testing.T) {
	o := newTestOracle(t, true, "65000.00")

	_, ok, err := o.Lookup(t.Context(), "Will the Fed cut rates?")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("ok = true, want false for a non-crypto title")
	}
}

func TestLookupFetchesSpotPriceForCryptoMarket(t *testing.T) {
	o := newTestOracle(t, true, "65000.50")

	price, ok, err := o.Lookup(t.Context(), "Will BTC hit $100k by 2026?")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("ok = false, want true for a crypto-relevant title")
	}
	if price != 65000.50 {
		t.Errorf("price = %v, want 65000.50", price)
	}
}

func TestLookupPropagatesMalformedPriceAsError(t *testing.T) {
	o := newTestOracle(t, true, "not-a-number")

	_, _, err := o.Lookup(t.Context(), "Will ETH flip BTC?")
	if err == nil {
		t.Fatal("expected an error for a malformed price field")
	}
}

func TestParsePrice(t *testing.T) {
	f, err := parsePrice("123.45")
	if err != nil {
		t.Fatalf("parsePrice: %v", err)
	}
	if f != 123.45 {
		t.Errorf("parsePrice() = %v, want 123.45", f)
	}

	if _, err := parsePrice("garbage"); err == nil {
		t.Error("expected error parsing garbage price string")
	}
}
