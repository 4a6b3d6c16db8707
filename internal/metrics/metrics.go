// Package metrics holds the process-wide Prometheus collectors shared by
// the sharded index facade and the ingestion orchestrator.
//
// Grounded on yellowstone-faithful's metrics/metrics.go: one package-level
// promauto.NewXVec per observable, registered automatically on first use.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ShardLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shard_lookups_total",
		Help: "Single-key lookups routed to one shard",
	},
	[]string{"index"},
)

var BitmapCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bitmap_cache_hits_total",
		Help: "Find results served from an index's hot cache instead of its shard readers",
	},
	[]string{"index"},
)

var BitmapCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bitmap_cache_misses_total",
		Help: "Find results not found in an index's hot cache",
	},
	[]string{"index"},
)

var BuilderFlushes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "builder_flushes_total",
		Help: "Append-log flushes performed by an ingestion worker's builders",
	},
	[]string{"index"},
)

var MergeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "merge_duration_seconds",
		Help:    "Wall-clock time to merge one shard's append log into its canonical file",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	},
	[]string{"index"},
)
