package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// MetricsCollector defines the interface for collecting metrics.
type MetricsCollector interface {
	IncrementCounter(name string, labels ...string)
	RecordHistogram(name string, value float64, labels ...string)
	RecordGauge(name string, value float64, labels ...string)
	StartTimer(name string, labels ...string) Timer
}

// Timer represents a timing measurement.
type Timer interface {
	Stop() time.Duration
}

// RequestDurationMetric is the histogram fed by MetricsMiddleware.
const RequestDurationMetric = "http_request_duration_seconds"

// MetricsMiddleware provides metrics collection middleware.
type MetricsMiddleware struct {
	collector MetricsCollector
}

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware(collector MetricsCollector) *MetricsMiddleware {
	return &MetricsMiddleware{
		collector: collector,
	}
}

// Handler records the duration of each request by route pattern and status.
func (m *MetricsMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		// ServeMux fills in the matched pattern on the way through.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.collector.RecordHistogram(RequestDurationMetric, time.Since(start).Seconds(),
			"route", route,
			"status", strconv.Itoa(rec.status))
	})
}
