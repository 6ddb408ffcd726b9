package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Triage pipeline metrics
	triageRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_requests_total",
			Help: "Total number of triage requests by resolved urgency tier",
		},
		[]string{"tier", "auto_schedule", "service"},
	)

	triageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triage_duration_seconds",
			Help:    "Duration of the triage decision pipeline in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"tier", "service"},
	)

	// Session lifecycle metrics
	sessionsScheduledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_scheduled_total",
			Help: "Total number of consultation sessions scheduled",
		},
		[]string{"type", "urgency", "service"},
	)

	sessionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_status_transitions_total",
			Help: "Total number of session status transitions",
		},
		[]string{"status", "service"},
	)

	// Escalation metrics
	escalationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalation_failures_total",
			Help: "Total number of critical triages that could not be auto-scheduled",
		},
		[]string{"reason", "service"},
	)

	// Dependency degradation metrics
	degradedDependencyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "degraded_dependency_total",
			Help: "Total number of recovered external dependency failures",
		},
		[]string{"dependency", "service"},
	)

	// System metrics
	systemErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_errors_total",
			Help: "Total number of system errors",
		},
		[]string{"error_type", "service", "component"},
	)

	registerOnce sync.Once
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			triageRequestsTotal,
			triageDuration,
			sessionsScheduledTotal,
			sessionTransitionsTotal,
			escalationFailuresTotal,
			degradedDependencyTotal,
			systemErrors,
		)
	})

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordTriage records the outcome of a triage pipeline run
func (m *MetricsCollector) RecordTriage(tier string, autoSchedule bool, duration time.Duration) {
	triageRequestsTotal.WithLabelValues(tier, strconv.FormatBool(autoSchedule), m.serviceName).Inc()
	triageDuration.WithLabelValues(tier, m.serviceName).Observe(duration.Seconds())
}

// RecordSessionScheduled records a successful booking
func (m *MetricsCollector) RecordSessionScheduled(consultType, urgency string) {
	sessionsScheduledTotal.WithLabelValues(consultType, urgency, m.serviceName).Inc()
}

// RecordSessionTransition records a session status transition
func (m *MetricsCollector) RecordSessionTransition(status string) {
	sessionTransitionsTotal.WithLabelValues(status, m.serviceName).Inc()
}

// RecordEscalationFailure records a critical triage that failed closed
func (m *MetricsCollector) RecordEscalationFailure(reason string) {
	escalationFailuresTotal.WithLabelValues(reason, m.serviceName).Inc()
}

// RecordDegradedDependency records a recovered external dependency failure
func (m *MetricsCollector) RecordDegradedDependency(dependency string) {
	degradedDependencyTotal.WithLabelValues(dependency, m.serviceName).Inc()
}

// RecordSystemError records system error metrics
func (m *MetricsCollector) RecordSystemError(errorType, component string) {
	systemErrors.WithLabelValues(errorType, m.serviceName, component).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware creates middleware for HTTP request metrics
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		statusCode := strconv.Itoa(wrapper.statusCode)

		m.RecordHTTPRequest(r.Method, r.URL.Path, statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
