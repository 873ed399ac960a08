package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/TFMV/planscribe/pkg/models"
)

// mockLogger implements Logger
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) record(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockLogger) Debug(msg string, keysAndValues ...interface{}) { m.record(msg) }
func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  { m.record(msg) }
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  { m.record(msg) }
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) { m.record(msg) }

// mockMetricsCollector implements MetricsCollector and counts calls by name.
type mockMetricsCollector struct {
	mu       sync.Mutex
	counters map[string]int
	samples  map[string][]float64
}

func newMockMetricsCollector() *mockMetricsCollector {
	return &mockMetricsCollector{
		counters: make(map[string]int),
		samples:  make(map[string][]float64),
	}
}

func (m *mockMetricsCollector) IncrementCounter(name string, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

func (m *mockMetricsCollector) RecordHistogram(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[name] = append(m.samples[name], value)
}

func (m *mockMetricsCollector) RecordGauge(name string, value float64, labels ...string) {
	m.RecordHistogram(name, value, labels...)
}

func (m *mockMetricsCollector) StartTimer(name string, labels ...string) Timer {
	return &mockTimer{start: time.Now()}
}

func (m *mockMetricsCollector) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

type mockTimer struct {
	start time.Time
}

func (t *mockTimer) Stop() time.Duration {
	return time.Since(t.start)
}

// mockPlanSource implements repositories.PlanSource
type mockPlanSource struct {
	mock.Mock
}

func (m *mockPlanSource) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanSource) Read(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockNarrativeSink implements repositories.NarrativeSink
type mockNarrativeSink struct {
	mock.Mock
}

func (m *mockNarrativeSink) Write(ctx context.Context, name string, narrative string) (string, error) {
	args := m.Called(ctx, name, narrative)
	return args.String(0), args.Error(1)
}

// mockExplainRepository implements repositories.ExplainRepository
type mockExplainRepository struct {
	mock.Mock
}

func (m *mockExplainRepository) Exec(ctx context.Context, statement string) error {
	return m.Called(ctx, statement).Error(0)
}

func (m *mockExplainRepository) Explain(ctx context.Context, query string) (*models.ExplainResult, error) {
	args := m.Called(ctx, query)
	if v := args.Get(0); v != nil {
		return v.(*models.ExplainResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockExplainRepository) Close() error {
	return m.Called().Error(0)
}
