package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide pipeline instrumentation. One instance is
// built at startup and shared through the service graph.
type Metrics struct {
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	DocumentsIndexed prometheus.Counter
	BronzeMerged     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinelake",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by trigger and outcome.",
		}, []string{"trigger", "status"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cinelake",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of full pipeline passes.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		DocumentsIndexed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cinelake",
			Subsystem: "search",
			Name:      "documents_indexed_total",
			Help:      "Documents written to the search collection.",
		}),
		BronzeMerged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinelake",
			Subsystem: "bronze",
			Name:      "records_merged_total",
			Help:      "Bronze records merged, split by whether they were new.",
		}, []string{"kind"}),
	}
}
