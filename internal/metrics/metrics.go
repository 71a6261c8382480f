// Package metrics provides Prometheus instrumentation for the commissions
// calculator.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DealsProcessed counts successful engine runs, partitioned by contract
	// mode ("standard" or "payg"). Rejected or failed runs are not counted.
	DealsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commissions_deals_processed_total",
		Help: "Total number of deals processed",
	}, []string{"mode"})

	// ValidationFailures counts inputs rejected before arithmetic.
	ValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commissions_validation_failures_total",
		Help: "Deals rejected by input validation",
	})

	// ProcessingLatency tracks engine pipeline latency.
	ProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "commissions_processing_seconds",
		Help:    "Deal processing latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	// CommissionsModeEntries counts contracts graduating into commissions
	// mode.
	CommissionsModeEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commissions_mode_entries_total",
		Help: "Contracts that entered commissions mode",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "commissions_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commissions_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commissions_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label to keep it simple. Paths carry
		// contract ids, so the label count grows with the registry.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
