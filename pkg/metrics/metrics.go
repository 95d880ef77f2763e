// Package metrics exposes the Prometheus series served on /metrics,
// grounded on guide_helper/backend/cache's pkg/metrics/metrics.go,
// extended with the loader's per-tile-state counters and upstream
// fetch metrics this core needs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	})

	CacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_stores_total",
		Help: "Total number of cache store operations",
	})

	// Redis metrics
	RedisOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	}, []string{"operation"})

	RedisPoolStats = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "redis_pool_stats",
		Help: "Redis connection pool statistics",
	}, []string{"stat"})

	// LoaderTileState counts per-tile terminal-state transitions,
	// labeled by the state reached (ok, parsing_failed, unknown_error,
	// cancelled). Spec invariant 2 (callback fires iff state == Ok) is
	// directly observable from this series in production.
	LoaderTileState = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_tile_state_total",
		Help: "Total number of tile loads reaching each terminal state",
	}, []string{"state"})

	LoaderPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loader_pending_tiles",
		Help: "Number of tiles currently in the Pending state",
	})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Total number of upstream tile fetch attempts",
	}, []string{"outcome"})

	UpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "upstream_fetch_duration_seconds",
		Help:    "Duration of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
