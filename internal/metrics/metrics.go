package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Business metrics
	ExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_exchanges_total",
			Help: "Total question/answer exchanges",
		},
		[]string{"outcome"}, // "ok" or "failed"
	)

	ExchangeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ragchat_exchange_duration_seconds",
			Help:    "Round-trip duration of one answering-service exchange",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragchat_sessions_created_total",
			Help: "Total chat sessions created",
		},
	)

	SessionsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragchat_sessions_deleted_total",
			Help: "Total chat sessions deleted",
		},
	)
)
