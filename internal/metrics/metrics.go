package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{
	0.001, 0.002, 0.005,
	0.01, 0.02, 0.05,
	0.1, 0.2, 0.5,
	1, 2, 5, 10,
}

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approv",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by route, method and status class.",
	}, []string{"route", "method", "result"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "approv",
		Subsystem: "http",
		Name:      "latency_seconds",
		Help:      "Latency distribution for HTTP requests.",
		Buckets:   latencyBuckets,
	}, []string{"route", "method", "result"})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approv",
		Subsystem: "approval",
		Name:      "transitions_total",
		Help:      "Approval lifecycle transitions by resulting status.",
	}, []string{"status"})

	TokenResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approv",
		Subsystem: "approval",
		Name:      "token_resolutions_total",
		Help:      "Public token lookups by outcome (hit, miss).",
	}, []string{"outcome"})

	OutboxDispatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approv",
		Subsystem: "outbox",
		Name:      "dispatch_total",
		Help:      "Outbox dispatch attempts by event type and result.",
	}, []string{"type", "result"})

	OutboxDispatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "approv",
		Subsystem: "outbox",
		Name:      "dispatch_latency_seconds",
		Help:      "Latency distribution for outbox dispatch.",
		Buckets:   latencyBuckets,
	}, []string{"type", "result"})
)

// StatusClass buckets an HTTP status for low-cardinality labels.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
