// Package metrics exposes Prometheus instrumentation for the HTTP layer and
// the propagation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitalprop_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitalprop_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitalprop_propagations_total",
			Help: "Trajectory sampling runs by outcome.",
		},
		[]string{"outcome"},
	)

	trajectoryPoints = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitalprop_trajectory_points",
			Help:    "Points produced per sampled trajectory.",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8),
		},
	)

	batchSatellites = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitalprop_batch_satellites",
			Help:    "Satellites per batch request.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	passesDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitalprop_passes_detected_total",
			Help: "Passes emitted by the pass detector.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(trajectoryPoints)
	prometheus.MustRegister(batchSatellites)
	prometheus.MustRegister(passesDetected)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are the exact paths the server registers.
var knownRoutes = map[string]bool{
	"/healthz":                true,
	"/readyz":                 true,
	"/metrics":                true,
	"/api/v1/propagate":       true,
	"/api/v1/passes":          true,
	"/api/v1/propagate/batch": true,
	"/api/v1/satellites":      true,
}

// normalizeRoute collapses request paths into a bounded label set so scanner
// and bot traffic cannot blow up metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/satellites/") {
		return "/api/v1/satellites/{id}"
	}
	return "other"
}

// RecordPropagation counts one trajectory sampling run. Outcome is one of
// "ok", "truncated", "error".
func RecordPropagation(outcome string, points int) {
	propagationsTotal.WithLabelValues(outcome).Inc()
	if points > 0 {
		trajectoryPoints.Observe(float64(points))
	}
}

// RecordBatch records the size of a batch request.
func RecordBatch(satellites int) {
	batchSatellites.Observe(float64(satellites))
}

// RecordPasses counts passes emitted by a pass-analysis request.
func RecordPasses(n int) {
	passesDetected.Add(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
