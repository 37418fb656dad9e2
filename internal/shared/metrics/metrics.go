package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess   = "success"
	OutcomeRemote    = "remote_error"
	OutcomeMalformed = "malformed"
)

var (
	completionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_calls_total",
			Help: "Completion calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	completionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_latency_ms",
			Help:    "Completion call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~50s
		},
		[]string{"endpoint", "provider"},
	)

	completionTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_tokens_total",
			Help: "Tokens reported by the completion provider",
		},
		[]string{"provider", "kind"},
	)

	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the request quota",
		},
	)

	panics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_total",
			Help: "Handler panics recovered, by endpoint",
		},
		[]string{"endpoint"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"method", "path", "status"},
	)
)

// IncCompletion counts a completion call outcome for an endpoint.
func IncCompletion(endpoint, outcome string) {
	completionCalls.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveCompletionLatency records a provider call duration.
func ObserveCompletionLatency(endpoint, provider string, d time.Duration) {
	completionLatency.WithLabelValues(endpoint, provider).Observe(float64(d.Milliseconds()))
}

// AddTokens records provider token usage.
func AddTokens(provider string, prompt, completion int) {
	if prompt > 0 {
		completionTokens.WithLabelValues(provider, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		completionTokens.WithLabelValues(provider, "completion").Add(float64(completion))
	}
}

// IncRateLimited counts a rejected over-quota request.
func IncRateLimited() {
	rateLimited.Inc()
}

// IncPanic counts a recovered handler panic.
func IncPanic(endpoint string) {
	if endpoint == "" {
		endpoint = "unknown"
	}
	panics.WithLabelValues(endpoint).Inc()
}

// ObserveHTTPRequest records a served request.
func ObserveHTTPRequest(method, path, status string, d time.Duration) {
	httpRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
