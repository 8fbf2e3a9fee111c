package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BlocksScannedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrich_blocks_scanned_total",
			Help: "Total number of outline blocks visited by the scanner",
		},
	)
	JobsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_jobs_submitted_total",
			Help: "Total number of URL jobs admitted to the scheduler",
		},
		[]string{"kind"},
	)
	JobsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_jobs_completed_total",
			Help: "Total number of URL jobs that produced a record",
		},
		[]string{"kind"},
	)
	JobsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_jobs_failed_total",
			Help: "Total number of URL jobs that reached the failed state",
		},
		[]string{"kind"},
	)
	RateLimitEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_rate_limit_events_total",
			Help: "Total number of upstream rate-limit responses by resource",
		},
		[]string{"resource"},
	)
	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_retries_total",
			Help: "Total number of transient-failure retries by kind",
		},
		[]string{"kind"},
	)
	ExtractDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enrich_extract_duration_seconds",
			Help:    "Extractor call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"kind"},
	)
	DocumentsWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrich_documents_written_total",
			Help: "Total number of markdown documents rewritten by the applier",
		},
	)
	TopicPagesWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrich_topic_pages_written_total",
			Help: "Total number of topic-index pages written",
		},
	)
)

var metricsOnce sync.Once

// InitMetrics registers pipeline metrics with the default registry.
// Safe to call more than once.
func InitMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(
			BlocksScannedTotal,
			JobsSubmittedTotal,
			JobsCompletedTotal,
			JobsFailedTotal,
			RateLimitEventsTotal,
			RetriesTotal,
			ExtractDuration,
			DocumentsWrittenTotal,
			TopicPagesWrittenTotal,
		)
	})
}
