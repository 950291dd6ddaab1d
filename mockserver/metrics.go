package mockserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudbridge_mock_requests_total",
		Help: "The total number of API requests served",
	}, []string{"endpoint", "status"})

	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cloudbridge_mock_request_duration_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	JobsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudbridge_mock_jobs_created_total",
		Help: "Jobs created by kind",
	}, []string{"kind"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cloudbridge_mock_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
