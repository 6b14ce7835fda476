// Package metrics defines Prometheus metrics for the verification
// decision flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions      *prometheus.CounterVec
	FaceSimilarity prometheus.Histogram
	FaceBackend    *prometheus.CounterVec
	Duplicates     *prometheus.CounterVec
}

// New creates a new Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_verification_decisions_total",
			Help: "Terminal verification decisions by status and flag reason.",
		}, []string{"status", "reason"}),
		FaceSimilarity: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veridoc_verification_face_similarity",
			Help:    "Distribution of face similarity scores.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		FaceBackend: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_verification_face_backend_total",
			Help: "Face comparisons by winning backend; empty backend means the chain failed closed.",
		}, []string{"backend"}),
		Duplicates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_verification_duplicates_total",
			Help: "Duplicate detector hits by kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementDecision(status, reason string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(status, reason).Inc()
}

func (m *Metrics) ObserveFaceSimilarity(backend string, similarity float64) {
	if m == nil {
		return
	}
	m.FaceSimilarity.Observe(similarity)
	m.FaceBackend.WithLabelValues(backend).Inc()
}

func (m *Metrics) IncrementDuplicate(kind string) {
	if m == nil {
		return
	}
	m.Duplicates.WithLabelValues(kind).Inc()
}
