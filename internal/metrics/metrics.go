// Package metrics registers the Prometheus series the service exposes on
// GET /metrics (§6.1), built with promauto against the default registry the
// way the wider corpus instruments its hot paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests served, by method, endpoint, and status.",
	}, []string{"method", "endpoint", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds, by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	PositionsCalculatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "involution_positions_calculated_total",
		Help: "Total bodies computed, by zodiac system, kernel bundle tag, and cache outcome.",
	}, []string{"system", "bundle_tag", "cache"})

	PositionsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "involution_positions_duration_seconds",
		Help:    "End-to-end /v1/positions request latency in seconds, by zodiac system.",
		Buckets: prometheus.DefBuckets,
	}, []string{"system"})

	CacheOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "involution_cache_operations_total",
		Help: "Cache operations, by kind (hit, miss, set, evict).",
	}, []string{"op"})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "involution_errors_total",
		Help: "Errors returned to clients, by taxonomy code and category.",
	}, []string{"code", "category"})

	WorkerTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "involution_worker_tasks_total",
		Help: "Compute worker pool tasks, by outcome status.",
	}, []string{"status"})

	KernelVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "involution_kernel_verifications_total",
		Help: "Kernel checksum verifications performed at startup, by validity.",
	}, []string{"valid"})

	WorkerPoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "involution_worker_pool_size",
		Help: "Configured compute worker pool size.",
	})

	WorkerPoolQueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "involution_worker_pool_queue_size",
		Help: "Current compute worker pool queue depth.",
	})

	CacheSizeEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "involution_cache_size_entries",
		Help: "Current number of live L1 cache entries.",
	})

	CacheHitRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "involution_cache_hit_rate",
		Help: "Running cache hit ratio in [0,1].",
	})
)
