package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BroadcastTotal counts broadcast queries by outcome reason ("ok" when feasible).
	BroadcastTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetcast_broadcast_total",
		Help: "Broadcast duration queries by outcome",
	}, []string{"source", "outcome"})

	ComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetcast_compute_duration_seconds",
		Help:    "All-pairs worst-case distance computation time",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	})

	ResultCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetcast_result_cache_hits_total",
		Help: "Broadcast queries answered from the result cache",
	})

	NetworkUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetcast_network_uploads_total",
		Help: "Network uploads by result",
	}, []string{"result"})
)
