package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal tracks executed operations by outcome ("success" or error kind)
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexagg_operations_total",
			Help: "Total number of executed operations",
		},
		[]string{"operation", "outcome"},
	)

	// OperationLatency tracks end-to-end operation latency including cache lookups
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dexagg_operation_latency_seconds",
			Help:    "Operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// CacheLookupsTotal tracks response cache lookups per resource class
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexagg_cache_lookups_total",
			Help: "Total number of response cache lookups",
		},
		[]string{"class", "result"},
	)

	// HTTPRequestsTotal tracks upstream HTTP requests by path and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexagg_http_requests_total",
			Help: "Total number of upstream HTTP requests",
		},
		[]string{"path", "status"},
	)

	// HTTPLatency tracks upstream HTTP latency
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dexagg_http_latency_seconds",
			Help:    "Upstream HTTP latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// AggregatedOperations tracks sub-operation outcomes of fan-out requests
	AggregatedOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexagg_aggregated_operations_total",
			Help: "Total number of sub-operations run by the request aggregator",
		},
		[]string{"result"},
	)
)
