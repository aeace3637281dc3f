package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generation and retrieval pipeline Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrag",
			Name:      "generation_requests_total",
			Help:      "Total number of text generation requests",
		},
		[]string{"model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrag",
			Name:      "generation_request_duration_seconds",
			Help:      "Text generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15},
		},
		[]string{"model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrag",
			Name:      "generation_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"model", "type"}, // "prompt" / "completion"
	)

	AnswerOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrag",
			Name:      "answer_outcomes_total",
			Help:      "Grounded answers by outcome",
		},
		[]string{"outcome"},
	)

	IngestChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docrag",
			Name:      "ingest_chunks",
			Help:      "Number of chunks produced per ingested document",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers generation, answer and ingestion metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(GenerationTokensTotal)
	prometheus.MustRegister(AnswerOutcomesTotal)
	prometheus.MustRegister(IngestChunks)
	pipelineMetricsRegistered = true
}
