package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Remote API metrics
var (
	APIPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoflow_api_pages_total",
			Help: "Total number of API pages requested",
		},
		[]string{"endpoint", "status"},
	)

	APIPageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoflow_api_page_duration_seconds",
			Help:    "API page request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoflow_token_refreshes_total",
			Help: "Total number of OAuth token refresh attempts",
		},
		[]string{"status"},
	)
)

// Fetch pipeline metrics
var (
	ItemsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoflow_items_processed_total",
			Help: "Total number of media items processed, by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "cached"
	)

	DownloadsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoflow_downloads_in_flight",
			Help: "Number of media downloads currently in flight",
		},
	)

	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoflow_batches_total",
			Help: "Total number of batch operations, by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: "success", "cancelled", "error"
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoflow_batch_duration_seconds",
			Help:    "Batch operation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"},
	)
)

// Cache metrics
var (
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoflow_cache_lookups_total",
			Help: "Total number of tensor cache lookups, by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	CacheWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoflow_cache_writes_total",
			Help: "Total number of tensor cache writes",
		},
	)

	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoflow_cache_evictions_total",
			Help: "Total number of cache entries evicted to respect the size limit",
		},
	)

	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoflow_cache_size_bytes",
			Help: "Total size of the tensor cache in bytes",
		},
	)
)
