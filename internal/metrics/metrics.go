package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changhuaweather_upstream_requests_total",
			Help: "Total upstream open-data requests",
		},
		[]string{"source", "dataset", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "changhuaweather_upstream_latency_seconds",
			Help:    "Upstream open-data request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "dataset"},
	)

	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changhuaweather_refresh_total",
			Help: "Total dataset refresh cycles by outcome",
		},
		[]string{"op", "status"},
	)

	StationsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changhuaweather_stations_normalized_total",
			Help: "Total station observations normalized from upstream payloads",
		},
		[]string{"dataset"},
	)

	HistoryFilesLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changhuaweather_history_files_loaded_total",
			Help: "Total historical daily files fetched by outcome",
		},
		[]string{"status"},
	)
)
