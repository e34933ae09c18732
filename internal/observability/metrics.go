package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TripsRequested = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridesharing", Name: "trips_requested_total", Help: "Total trip requests accepted"})
	TripsCompleted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridesharing", Name: "trips_completed_total", Help: "Total trips completed"})
	TripsCancelled = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridesharing", Name: "trips_cancelled_total", Help: "Total trips cancelled"})
	MatchFailures  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridesharing", Name: "match_failures_total", Help: "Trip requests with no matchable driver"})

	LocationSamplesAccepted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridesharing", Name: "location_samples_accepted_total", Help: "Location samples accepted by the tracker"})
	LocationSamplesDropped  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridesharing", Name: "location_samples_dropped_total", Help: "Location samples rejected by the noise gate"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridesharing", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridesharing",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
