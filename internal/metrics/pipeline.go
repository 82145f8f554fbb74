package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generation, feedback pipeline, interview and index metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of generation backend requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Generation backend request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	RAGStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rag_stage_duration_seconds",
			Help:      "Feedback pipeline stage duration in seconds",
			Buckets:   []float64{0.0005, 0.005, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"stage", "outcome"},
	)

	RAGInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rag_requests_in_flight",
			Help:      "Feedback requests currently holding an admission slot",
		},
	)

	RAGRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rag_rejected_total",
			Help:      "Feedback requests rejected by admission control",
		},
	)

	InterviewRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_requests_total",
			Help:      "Total number of interview coaching requests",
		},
		[]string{"flow", "status"},
	)

	InterviewDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "interview_duration_seconds",
			Help:      "Interview coaching request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"flow"},
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Number of documents held by the vector index",
		},
	)

	IndexSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_search_duration_seconds",
			Help:      "Vector index search duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers generation, pipeline and index metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(RAGStageDuration)
	prometheus.MustRegister(RAGInFlight)
	prometheus.MustRegister(RAGRejectedTotal)
	prometheus.MustRegister(InterviewRequestsTotal)
	prometheus.MustRegister(InterviewDuration)
	prometheus.MustRegister(IndexDocuments)
	prometheus.MustRegister(IndexSearchDuration)
	pipelineMetricsRegistered = true
}
