package store

import (
	"context"
	"path/filepath"
	"testing"

	"polymarket-quoter/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetPositionUnseen(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	pos, err := s.GetPosition(ctx, "cond-1")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if pos != 0 {
		t.Errorf("GetPosition() = %v, want 0", pos)
	}
}

func TestSetAndGetPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	if err := s.SetPosition(ctx, "cond-1", 42.5); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}

	pos, err := s.GetPosition(ctx, "cond-1")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if pos != 42.5 {
		t.Errorf("GetPosition() = %v, want 42.5", pos)
	}

	// Upsert overwrites.
	if err := s.SetPosition(ctx, "cond-1", -10); err != nil {
		t.Fatalf("SetPosition (overwrite): %v", err)
	}
	pos, _ = s.GetPosition(ctx, "cond-1")
	if pos != -10 {
		t.Errorf("GetPosition() after overwrite = %v, want -10", pos)
	}
}

func TestAllPositions(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	s.SetPosition(ctx, "cond-1", 10)
	s.SetPosition(ctx, "cond-2", -5)

	all, err := s.AllPositions(ctx)
	if err != nil {
		t.Fatalf("AllPositions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
}

func TestResetPositions(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	s.SetPosition(ctx, "cond-1", 10)
	s.SetPosition(ctx, "cond-2", -5)

	if err := s.ResetPositions(ctx); err != nil {
		t.Fatalf("ResetPositions: %v", err)
	}

	all, _ := s.AllPositions(ctx)
	for _, p := range all {
		if p.NetPosition != 0 {
			t.Errorf("position %s = %v, want 0 after reset", p.ConditionID, p.NetPosition)
		}
	}
}

func TestAutoRepairPositions(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	s.SetPosition(ctx, "cond-1", 1000) // over threshold
	s.SetPosition(ctx, "cond-2", 10)   // under threshold

	n, err := s.AutoRepairPositions(ctx, 500)
	if err != nil {
		t.Fatalf("AutoRepairPositions: %v", err)
	}
	if n != 1 {
		t.Errorf("repaired count = %d, want 1", n)
	}

	pos1, _ := s.GetPosition(ctx, "cond-1")
	if pos1 != 0 {
		t.Errorf("cond-1 position = %v, want 0 after repair", pos1)
	}
	pos2, _ := s.GetPosition(ctx, "cond-2")
	if pos2 != 10 {
		t.Errorf("cond-2 position = %v, want unchanged 10", pos2)
	}
}

func TestTodayPnLCreatesRowOnFirstRead(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	pnl, err := s.TodayPnL(ctx)
	if err != nil {
		t.Fatalf("TodayPnL: %v", err)
	}
	if pnl.RealizedPnL != 0 {
		t.Errorf("RealizedPnL = %v, want 0", pnl.RealizedPnL)
	}
	if pnl.CircuitBreakerTriggered {
		t.Error("CircuitBreakerTriggered = true, want false")
	}
}

func TestAddRealizedPnLAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	if err := s.AddRealizedPnL(ctx, 10.5); err != nil {
		t.Fatalf("AddRealizedPnL: %v", err)
	}
	if err := s.AddRealizedPnL(ctx, -2.0); err != nil {
		t.Fatalf("AddRealizedPnL: %v", err)
	}

	pnl, err := s.TodayPnL(ctx)
	if err != nil {
		t.Fatalf("TodayPnL: %v", err)
	}
	if pnl.RealizedPnL != 8.5 {
		t.Errorf("RealizedPnL = %v, want 8.5", pnl.RealizedPnL)
	}
}

func TestLatchCircuitBreaker(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	if err := s.LatchCircuitBreaker(ctx); err != nil {
		t.Fatalf("LatchCircuitBreaker: %v", err)
	}

	pnl, err := s.TodayPnL(ctx)
	if err != nil {
		t.Fatalf("TodayPnL: %v", err)
	}
	if !pnl.CircuitBreakerTriggered {
		t.Error("CircuitBreakerTriggered = false, want true after latch")
	}
}

func TestPnLHistoryEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	history, err := s.PnLHistory(ctx, 30)
	if err != nil {
		t.Fatalf("PnLHistory: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("len(history) = %d, want 0", len(history))
	}
}

func TestPnLHistoryIncludesTodayAfterCredit(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	s.AddRealizedPnL(ctx, 5)

	history, err := s.PnLHistory(ctx, 30)
	if err != nil {
		t.Fatalf("PnLHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
	if history[0].RealizedPnL != 5 {
		t.Errorf("RealizedPnL = %v, want 5", history[0].RealizedPnL)
	}
	if history[0].CumulativePnL != 5 {
		t.Errorf("CumulativePnL = %v, want 5", history[0].CumulativePnL)
	}
}

func TestLogOrderEventAndRecentTradeLog(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	s.LogOrderEvent(ctx, "place", "cond-1", "tok-1", types.BUY, 0.39, 10, "order-1", 42, "")
	s.LogOrderEvent(ctx, "cancel", "cond-1", "tok-1", types.SELL, 0.41, 10, "order-2", 17, "boom")

	entries, err := s.RecentTradeLog(ctx, 10)
	if err != nil {
		t.Fatalf("RecentTradeLog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
}
