package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Posts
	PostOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_ops_total",
			Help: "Successful post mutations",
		},
		[]string{"op"}, // create|update|delete|status
	)
	SearchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "posts_searches_total",
			Help: "Listing/search requests served",
		},
	)
	ImageCleanupFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_cleanup_failed_total",
			Help: "Image deletions that failed and were skipped",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Repeated calls are
// no-ops.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			HTTPLatency,
			PostOpsTotal,
			SearchesTotal,
			ImageCleanupFailed,
			WorkerQueueDepth,
		)
	})
}
