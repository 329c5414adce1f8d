package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCycleIncrementsCounter(t *testing.T) {
	m := New()
	m.ObserveCycle(0.5)
	m.ObserveCycle(1.2)

	if got := testutil.ToFloat64(m.cyclesTotal); got != 2 {
		t.Errorf("cyclesTotal = %v, want 2", got)
	}
}

func TestIncOrdersPlacedLabelsBySide(t *testing.T) {
	m := New()
	m.IncOrdersPlaced("BUY")
	m.IncOrdersPlaced("BUY")
	m.IncOrdersPlaced("SELL")

	if got := testutil.ToFloat64(m.ordersPlacedTotal.WithLabelValues("BUY")); got != 2 {
		t.Errorf("BUY orders placed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ordersPlacedTotal.WithLabelValues("SELL")); got != 1 {
		t.Errorf("SELL orders placed = %v, want 1", got)
	}
}

func TestIncOrdersCancelled(t *testing.T) {
	m := New()
	m.IncOrdersCancelled(3)

	if got := testutil.ToFloat64(m.ordersCancelledTotal); got != 3 {
		t.Errorf("ordersCancelledTotal = %v, want 3", got)
	}
}

func TestSetCircuitBreakerState(t *testing.T) {
	m := New()
	m.SetCircuitBreakerState(true)
	if got := testutil.ToFloat64(m.circuitBreakerState); got != 1 {
		t.Errorf("circuitBreakerState = %v, want 1", got)
	}

	m.SetCircuitBreakerState(false)
	if got := testutil.ToFloat64(m.circuitBreakerState); got != 0 {
		t.Errorf("circuitBreakerState = %v, want 0", got)
	}
}

func TestSetMarketsQuotedAndRealizedPnL(t *testing.T) {
	m := New()
	m.SetMarketsQuoted(7)
	m.SetRealizedPnL(-12.5)

	if got := testutil.ToFloat64(m.marketsQuotedGauge); got != 7 {
		t.Errorf("marketsQuotedGauge = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.realizedPnLGauge); got != -12.5 {
		t.Errorf("realizedPnLGauge = %v, want -12.5", got)
	}
}

func TestNewReturnsIndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	if a.Registry() == b.Registry() {
		t.Error("expected distinct registries across New() calls")
	}
}
