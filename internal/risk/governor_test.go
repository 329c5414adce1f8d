package risk

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"polymarket-quoter/internal/config"
	"polymarket-quoter/internal/store"
)

type fakeStore struct {
	pnl             store.DailyPnL
	latched         bool
	repairThreshold float64
	repaired        int
}

func (f *fakeStore) TodayPnL(ctx context.Context) (store.DailyPnL, error) {
	return f.pnl, nil
}

func (f *fakeStore) LatchCircuitBreaker(ctx context.Context) error {
	f.latched = true
	return nil
}

func (f *fakeStore) AutoRepairPositions(ctx context.Context, threshold float64) (int, error) {
	f.repairThreshold = threshold
	return f.repaired, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() *config.Config {
	return &config.Config{
		Risk:     config.RiskConfig{TotalCapital: 1000, MaxPosition: 0},
		Strategy: config.StrategyConfig{OrderSize: 50},
	}
}

func TestGovernorCheckHaltsWhenAlreadyLatched(t *testing.T) {
	fs := &fakeStore{pnl: store.DailyPnL{CircuitBreakerTriggered: true}}
	g := NewGovernor(testConfig(), fs, testLogger())

	gate, err := g.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !gate.Halted {
		t.Error("expected Halted=true when breaker already latched")
	}
}

func TestGovernorCheckLatchesOnLossBreach(t *testing.T) {
	// loss limit = -0.03*1000 = -30
	fs := &fakeStore{pnl: store.DailyPnL{RealizedPnL: -31}}
	g := NewGovernor(testConfig(), fs, testLogger())

	gate, err := g.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !gate.Halted {
		t.Error("expected Halted=true on loss breach")
	}
	if !fs.latched {
		t.Error("expected LatchCircuitBreaker to be called")
	}
}

func TestGovernorCheckPassesWithinLossLimit(t *testing.T) {
	fs := &fakeStore{pnl: store.DailyPnL{RealizedPnL: -10}}
	g := NewGovernor(testConfig(), fs, testLogger())

	gate, err := g.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if gate.Halted {
		t.Error("expected Halted=false within loss limit")
	}
	if fs.latched {
		t.Error("did not expect LatchCircuitBreaker to be called")
	}
}

func TestGovernorCheckClampsOrderSizeAndMaxPosition(t *testing.T) {
	fs := &fakeStore{}
	cfg := testConfig()
	cfg.Strategy.OrderSize = 500 // way over 8% of 1000 = 80
	g := NewGovernor(cfg, fs, testLogger())

	gate, err := g.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if gate.OrderSize != 80 {
		t.Errorf("OrderSize = %v, want 80", gate.OrderSize)
	}
	if gate.MaxPosition != 480 {
		t.Errorf("MaxPosition = %v, want 480", gate.MaxPosition)
	}
}

func TestGovernorCheckPassesAutoRepairThreshold(t *testing.T) {
	fs := &fakeStore{}
	g := NewGovernor(testConfig(), fs, testLogger())

	if _, err := g.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	// MaxPosition clamps to 480, repair threshold = 1.5*480 = 720
	if fs.repairThreshold != 720 {
		t.Errorf("repairThreshold = %v, want 720", fs.repairThreshold)
	}
}
