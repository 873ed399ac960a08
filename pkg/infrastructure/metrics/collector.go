// Package metrics provides metrics collection for planscribe.
package metrics

import (
	"time"
)

// Metric names shared by the services and handlers.
const (
	MetricNarrations        = "narrations_total"
	MetricNarrationErrors   = "narration_errors_total"
	MetricNarrationDuration = "narration_duration_seconds"
	MetricPlanNodes         = "plan_nodes"
	MetricCacheHits         = "narrative_cache_hits_total"
	MetricCacheMisses       = "narrative_cache_misses_total"
	MetricBatchDocuments    = "batch_documents_total"
	MetricBatchFailures     = "batch_failures_total"
	MetricHTTPRequests      = "http_requests_total"
	MetricExplainDuration   = "explain_duration_seconds"
)

// Collector defines the interface for collecting metrics.
// Labels are passed as alternating name/value pairs.
type Collector interface {
	IncrementCounter(name string, labels ...string)
	RecordHistogram(name string, value float64, labels ...string)
	RecordGauge(name string, value float64, labels ...string)
	// StartTimer starts a timer whose Stop records into the named histogram.
	StartTimer(name string, labels ...string) Timer
}

// Timer represents a timing measurement.
type Timer interface {
	// Stop stops the timer and returns the elapsed duration.
	Stop() time.Duration
}

// NoOpCollector discards everything.
type NoOpCollector struct{}

// NewNoOpCollector creates a new no-op collector.
func NewNoOpCollector() Collector {
	return &NoOpCollector{}
}

func (n *NoOpCollector) IncrementCounter(name string, labels ...string) {}

func (n *NoOpCollector) RecordHistogram(name string, value float64, labels ...string) {}

func (n *NoOpCollector) RecordGauge(name string, value float64, labels ...string) {}

// StartTimer returns a timer that only measures.
func (n *NoOpCollector) StartTimer(name string, labels ...string) Timer {
	return &noOpTimer{start: time.Now()}
}

type noOpTimer struct {
	start time.Time
}

func (t *noOpTimer) Stop() time.Duration {
	return time.Since(t.start)
}
