package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit publishing.
type Metrics struct {
	Persisted           prometheus.Counter
	Dropped             prometheus.Counter
	PersistFailures     prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with audit metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Persisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notaria_audit_events_persisted_total",
			Help: "Total number of audit events written to the store",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notaria_audit_events_dropped_total",
			Help: "Total number of audit events dropped (buffer full or circuit open)",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notaria_audit_persist_failures_total",
			Help: "Total number of audit event persistence failures",
		}),
		CircuitBreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "notaria_audit_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

// SetCircuitBreakerState sets the circuit breaker state gauge.
func (m *Metrics) SetCircuitBreakerState(open bool) {
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}
