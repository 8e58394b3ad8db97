package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers handwritten signatures and certifier uploads.
type Metrics struct {
	EmbedLatency prometheus.Histogram

	// Signature applications by outcome
	SignaturesApplied *prometheus.CounterVec

	// Certifier uploads by outcome
	CertifierUploads *prometheus.CounterVec
}

// New registers the signature metrics. Call it once per process.
func New() *Metrics {
	return &Metrics{
		EmbedLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "notaria_signature_embed_duration_seconds",
			Help:    "Time spent embedding a signature image into a PDF",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SignaturesApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "notaria_signatures_applied_total",
			Help: "Handwritten signature applications by outcome",
		}, []string{"outcome"}),
		CertifierUploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "notaria_certifier_uploads_total",
			Help: "Certifier-signed PDF uploads by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveEmbedLatency(start time.Time) {
	if m != nil {
		m.EmbedLatency.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementSignature(outcome string) {
	if m != nil {
		m.SignaturesApplied.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementCertifierUpload(outcome string) {
	if m != nil {
		m.CertifierUploads.WithLabelValues(outcome).Inc()
	}
}
