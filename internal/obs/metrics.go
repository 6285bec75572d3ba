package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Bearer-token authentication attempts by outcome.",
		},
		[]string{"outcome"},
	)

	readyState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the service reports ready, 0 otherwise.",
	})
)

// Init registers the service metrics with the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration,
		authAttemptsTotal, readyState)
}

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAuthAttempt counts one authentication attempt. outcome is "ok" or
// the failure reason.
func ObserveAuthAttempt(outcome string) {
	authAttemptsTotal.WithLabelValues(outcome).Inc()
}

// SetReady flips the readiness gauge.
func SetReady(ok bool) {
	if ok {
		readyState.Set(1)
		return
	}
	readyState.Set(0)
}

// Instrument measures rate, latency and in-flight count for every request
// passing through it.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses identifier segments so metric labels stay
// low-cardinality. Paths with unknown shapes pass through unchanged.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	seg := strings.Split(strings.Trim(path, "/"), "/")
	if len(seg) < 3 || seg[0] != "api" {
		return path
	}
	switch seg[1] {
	case "chemicals":
		if len(seg) == 3 {
			return "/api/chemicals/:id"
		}
	case "experiments":
		if len(seg) == 3 && seg[2] != "chemicals" {
			return "/api/experiments/:id"
		}
	case "roles":
		if len(seg) == 3 {
			return "/api/roles/:name"
		}
		if len(seg) == 4 && seg[3] == "users" {
			return "/api/roles/:name/users"
		}
	case "admin":
		if len(seg) == 4 && seg[2] == "users" {
			return "/api/admin/users/:id"
		}
	}
	return path
}

// statusWriter records the response code for the metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
