// Package metrics exposes Prometheus counters and gauges for cycle health:
// cycle counts and duration, orders placed/cancelled, and circuit breaker
// state. Registered against a private registry (rather than the global
// DefaultRegisterer) so cmd/bot can construct one Metrics per process and
// tests can construct one per case without collisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/gauge the cycle driver and control API touch.
type Metrics struct {
	registry *prometheus.Registry

	cyclesTotal          prometheus.Counter
	cycleDuration        prometheus.Histogram
	ordersPlacedTotal    *prometheus.CounterVec // label: side
	ordersCancelledTotal prometheus.Counter
	circuitBreakerState  prometheus.Gauge // 1 = tripped, 0 = clear
	marketsQuotedGauge   prometheus.Gauge
	realizedPnLGauge     prometheus.Gauge
}

// New builds a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoter_cycles_total",
			Help: "Number of quoting cycles completed.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quoter_cycle_duration_seconds",
			Help:    "Wall-clock duration of a quoting cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		ordersPlacedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quoter_orders_placed_total",
			Help: "Orders placed, by side.",
		}, []string{"side"}),
		ordersCancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoter_orders_cancelled_total",
			Help: "Orders cancelled during reconciliation.",
		}),
		circuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_circuit_breaker_state",
			Help: "1 if the daily circuit breaker is tripped, 0 otherwise.",
		}),
		marketsQuotedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_markets_quoted",
			Help: "Number of markets quoted in the most recent cycle.",
		}),
		realizedPnLGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_realized_pnl_today",
			Help: "Today's realized PnL as of the most recent cycle.",
		}),
	}

	reg.MustRegister(
		m.cyclesTotal,
		m.cycleDuration,
		m.ordersPlacedTotal,
		m.ordersCancelledTotal,
		m.circuitBreakerState,
		m.marketsQuotedGauge,
		m.realizedPnLGauge,
	)

	return m
}

// Registry exposes the underlying registry so the control API can serve
// /metrics via promhttp.HandlerFor.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCycle records one completed cycle's duration.
func (m *Metrics) ObserveCycle(seconds float64) {
	m.cyclesTotal.Inc()
	m.cycleDuration.Observe(seconds)
}

// IncOrdersPlaced increments the placed-orders counter for a side.
func (m *Metrics) IncOrdersPlaced(side string) {
	m.ordersPlacedTotal.WithLabelValues(side).Inc()
}

// IncOrdersCancelled increments the cancelled-orders counter.
func (m *Metrics) IncOrdersCancelled(n int) {
	m.ordersCancelledTotal.Add(float64(n))
}

// SetCircuitBreakerState sets the breaker gauge to 1 (tripped) or 0 (clear).
func (m *Metrics) SetCircuitBreakerState(tripped bool) {
	if tripped {
		m.circuitBreakerState.Set(1)
	} else {
		m.circuitBreakerState.Set(0)
	}
}

// SetMarketsQuoted records how many markets were quoted this cycle.
func (m *Metrics) SetMarketsQuoted(n int) {
	m.marketsQuotedGauge.Set(float64(n))
}

// SetRealizedPnL records today's realized PnL as of this cycle.
func (m *Metrics) SetRealizedPnL(pnl float64) {
	m.realizedPnLGauge.Set(pnl)
}
