package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	callsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calls_received_total",
			Help: "Conversation-end webhooks by intake decision",
		},
		[]string{"action"},
	)

	extractionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_failures_total",
			Help: "Lead extractions that fell back to an empty record",
		},
		[]string{"stage"},
	)

	leadsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_persisted_total",
			Help: "Leads written to the store by call status",
		},
		[]string{"status"},
	)

	persistRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "persist_retries_total",
			Help: "Lead insert attempts that were retried",
		},
	)

	persistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "persist_failures_total",
			Help: "Leads dropped after exhausting insert attempts",
		},
	)

	leadsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leads_last_24h",
			Help: "Leads created in the last 24 hours by call status",
		},
		[]string{"status"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern keeps label cardinality bounded for unknown paths.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// PrometheusRecorder feeds pipeline events into the counters above.
type PrometheusRecorder struct{}

func (PrometheusRecorder) CallReceived(action string) {
	callsReceived.WithLabelValues(action).Inc()
}

func (PrometheusRecorder) ExtractionFailed(stage string) {
	extractionFailures.WithLabelValues(stage).Inc()
}

func (PrometheusRecorder) LeadPersisted(status string) {
	leadsPersisted.WithLabelValues(status).Inc()
}

func (PrometheusRecorder) PersistRetried() {
	persistRetries.Inc()
}

func (PrometheusRecorder) PersistFailed() {
	persistFailures.Inc()
}

func (PrometheusRecorder) SetLeadsByStatus(status string, n int) {
	leadsByStatus.WithLabelValues(status).Set(float64(n))
}
