// Package metrics provides Prometheus instrumentation for the energy
// market.
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
	// TradesTotal counts trades by status (completed, voided, direct).
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energymarket_trades_total",
		Help: "Total number of trade records created",
	}, []string{"status"})

	// MatchingPassesTotal counts matching-and-settlement passes.
	MatchingPassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "energymarket_matching_passes_total",
		Help: "Total number of matching passes executed",
	})

	// MatchingPassDuration tracks matching pass duration.
	MatchingPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "energymarket_matching_pass_duration_seconds",
		Help:    "Duration of matching-and-settlement passes",
		Buckets: prometheus.DefBuckets,
	})

	// ActiveOrders tracks active orders per side.
	ActiveOrders = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "energymarket_active_orders",
		Help: "Number of currently active orders",
	}, []string{"side"})

	// WebSocketClients tracks connected trade feed clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "energymarket_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energymarket_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "energymarket_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and durations.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
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
