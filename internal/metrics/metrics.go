package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LinesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reqsift_lines_read_total",
			Help: "Total log lines fed through the extractor",
		},
	)

	LinesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reqsift_lines_skipped_total",
			Help: "Total malformed log lines silently skipped",
		},
	)

	RecordsExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reqsift_records_extracted_total",
			Help: "Total completed-request records emitted",
		},
	)

	MarkerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqsift_marker_errors_total",
			Help: "Total malformed marker lines encountered",
		},
		[]string{"mode"}, // "sharp" aborted the request, "lenient" skipped
	)

	ExtractDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reqsift_extract_duration_seconds",
			Help:    "Duration of extraction requests",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(LinesRead)
	prometheus.MustRegister(LinesSkipped)
	prometheus.MustRegister(RecordsExtracted)
	prometheus.MustRegister(MarkerErrors)
	prometheus.MustRegister(ExtractDuration)
}
