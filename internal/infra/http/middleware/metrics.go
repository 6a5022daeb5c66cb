package middleware

import (
	"net/http"
	"strconv"
	"time"

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

	quotesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotes_submitted_total",
			Help: "Total number of quote requests submitted upstream",
		},
		[]string{"origin", "status"},
	)

	quotesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quotes_completed_total",
			Help: "Total number of quotes that reached complete",
		},
	)

	quotePollTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quote_poll_timeouts_total",
			Help: "Total number of interactive poll sessions that hit the ceiling",
		},
	)

	batchJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_jobs_processed_total",
			Help: "Total number of batch jobs processed by the worker",
		},
		[]string{"status"},
	)

	batchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_items_processed_total",
			Help: "Total number of batch line items processed",
		},
		[]string{"outcome"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
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

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordQuoteSubmitted(origin, status string) {
	quotesSubmitted.WithLabelValues(origin, status).Inc()
}

func RecordQuoteCompleted() {
	quotesCompleted.Inc()
}

func RecordPollTimeout() {
	quotePollTimeouts.Inc()
}

func RecordBatchJob(status string) {
	batchJobs.WithLabelValues(status).Inc()
}

func RecordBatchItems(success, failed int) {
	batchItems.WithLabelValues("success").Add(float64(success))
	batchItems.WithLabelValues("failed").Add(float64(failed))
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
