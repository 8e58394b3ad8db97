package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document lifecycle.
type Metrics struct {
	DocumentsCreated prometheus.Counter

	// Transitions by action and outcome (ok, forbidden, not_found, error)
	Transitions *prometheus.CounterVec

	TransitionLatency prometheus.Histogram

	// Create/update rejections caused by a digest collision
	DuplicateContent prometheus.Counter
}

// New registers the document metrics. Call it once per process.
func New() *Metrics {
	return &Metrics{
		DocumentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notaria_documents_created_total",
			Help: "Total documents created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "notaria_document_transitions_total",
			Help: "Lifecycle transitions by action and outcome",
		}, []string{"action", "outcome"}),
		TransitionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "notaria_document_transition_duration_seconds",
			Help:    "Duration of lifecycle transitions including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		DuplicateContent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notaria_document_duplicate_content_total",
			Help: "Document writes rejected because another document has the same digest",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.DocumentsCreated.Inc()
	}
}

func (m *Metrics) IncrementTransition(action, outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(action, outcome).Inc()
	}
}

// ObserveTransitionLatency records time since start.
func (m *Metrics) ObserveTransitionLatency(start time.Time) {
	if m != nil {
		m.TransitionLatency.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementDuplicateContent() {
	if m != nil {
		m.DuplicateContent.Inc()
	}
}
