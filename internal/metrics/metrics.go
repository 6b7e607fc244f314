// Package metrics provides Prometheus instrumentation for the settlement engine.
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
	// PredictionsCreated counts created predictions.
	PredictionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predict_predictions_created_total",
		Help: "Total number of predictions created",
	})

	// BetsTotal counts accepted bets.
	BetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predict_bets_total",
		Help: "Total number of bets accepted",
	})

	// BetRejections counts bets rejected by the stake limiter.
	BetRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predict_bet_limit_rejections_total",
		Help: "Bets rejected by the stake limiter",
	})

	// RevealsTotal counts outcome reveals.
	RevealsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predict_reveals_total",
		Help: "Total number of predictions revealed",
	})

	// ClaimsTotal counts successful payouts.
	ClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predict_claims_total",
		Help: "Total number of successful claims",
	})

	// PayoutAmount accumulates paid-out value across all claims.
	PayoutAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predict_payout_amount_total",
		Help: "Cumulative value paid out to winners",
	})

	// OpenPredictions tracks predictions still accepting bets.
	OpenPredictions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "predict_open_predictions",
		Help: "Number of predictions currently open for betting",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "predict_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predict_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "predict_http_request_duration_seconds",
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

		// Use the raw path for the label; the API surface is small enough
		// that cardinality stays bounded.
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
