package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	itemSearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "item_search_total",
			Help: "Total number of semantic item searches",
		},
		[]string{"outcome"},
	)

	claimTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claim_transitions_total",
			Help: "Total number of completed claim workflow transitions",
		},
		[]string{"transition"},
	)

	embeddingCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_calls_total",
			Help: "Total number of embedding provider calls",
		},
		[]string{"status"},
	)

	embeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_duration_seconds",
			Help:    "Embedding provider call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)
)

// MetricsMiddleware collects Prometheus metrics for every HTTP request.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

// RecordItemSearch records the outcome of one semantic search request.
func RecordItemSearch(outcome string) {
	itemSearchTotal.WithLabelValues(outcome).Inc()
}

// RecordClaimTransition records a successfully committed workflow transition.
func RecordClaimTransition(transition string) {
	claimTransitionsTotal.WithLabelValues(transition).Inc()
}

// RecordEmbeddingCall records a call to the embedding provider.
func RecordEmbeddingCall(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	embeddingCallsTotal.WithLabelValues(status).Inc()
	embeddingDuration.Observe(duration.Seconds())
}
