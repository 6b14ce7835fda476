package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document extraction pipeline.
type Metrics struct {
	// Recognition run latencies by engine
	RunLatency *prometheus.HistogramVec

	// Individual run outcomes by source label and result
	RunOutcome *prometheus.CounterVec

	// Extraction results by combination method
	ExtractionMethod *prometheus.CounterVec

	// Consensus votes where the runs disagreed on a field
	ConsensusDisagreement *prometheus.CounterVec
}

// New creates a new Metrics instance with all extraction pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		RunLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veridoc_extraction_run_duration_seconds",
			Help:    "Duration of individual recognition runs by engine",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"engine"}),

		RunOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_extraction_runs_total",
			Help: "Total recognition runs by source label and outcome",
		}, []string{"source", "outcome"}), // outcome: "ok", "failed"

		ExtractionMethod: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_extractions_total",
			Help: "Total completed extractions by combination method",
		}, []string{"method"}),

		ConsensusDisagreement: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_consensus_disagreements_total",
			Help: "Consensus votes where runs disagreed on a field",
		}, []string{"field"}),
	}
}

// ObserveRunLatency records the duration of one recognition run.
func (m *Metrics) ObserveRunLatency(engine string, d time.Duration) {
	if m != nil {
		m.RunLatency.WithLabelValues(engine).Observe(d.Seconds())
	}
}

// IncrementRun records the outcome of one recognition run.
func (m *Metrics) IncrementRun(source, outcome string) {
	if m != nil {
		m.RunOutcome.WithLabelValues(source, outcome).Inc()
	}
}

// IncrementExtraction records a completed extraction.
func (m *Metrics) IncrementExtraction(method string) {
	if m != nil {
		m.ExtractionMethod.WithLabelValues(method).Inc()
	}
}

// IncrementDisagreement records a consensus vote with disagreeing runs.
func (m *Metrics) IncrementDisagreement(field string) {
	if m != nil {
		m.ConsensusDisagreement.WithLabelValues(field).Inc()
	}
}
