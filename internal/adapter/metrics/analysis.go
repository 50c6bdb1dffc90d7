package metrics

import "github.com/prometheus/client_golang/prometheus"

// AnalysisMetrics holds Prometheus metrics for the sentiment analysis pipeline.
type AnalysisMetrics struct {
	AnalysesTotal    *prometheus.CounterVec
	RejectionsTotal  *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	BatchSize        prometheus.Histogram
}

// NewAnalysisMetrics creates and registers analysis pipeline metrics on the given registry.
func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	m := &AnalysisMetrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of completed analyses, by sentiment label.",
		}, []string{"label"}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Total number of rejected analysis requests, by reason.",
		}, []string{"reason"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of single-text analysis in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size_texts",
			Help:      "Number of texts per batch request.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}

	reg.MustRegister(m.AnalysesTotal, m.RejectionsTotal, m.AnalysisDuration, m.BatchSize)
	return m
}
