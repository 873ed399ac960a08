// Package services contains business logic implementations.
package services

import (
	"context"
	"time"

	"github.com/TFMV/planscribe/pkg/models"
)

// NarrationService narrates single plan documents.
type NarrationService interface {
	// Narrate decodes req.Document and returns its narrative.
	Narrate(ctx context.Context, req *models.NarrateRequest) (*models.NarrateResult, error)
	// NarrateDocument narrates an already decoded document.
	NarrateDocument(ctx context.Context, name string, doc *models.Document) (*models.NarrateResult, error)
	// Inspect returns the narrative with every intermediate structure.
	Inspect(ctx context.Context, data []byte) (*models.Narrative, error)
}

// BatchService narrates every document of a source into a sink.
type BatchService interface {
	Run(ctx context.Context) (*models.BatchReport, error)
}

// Logger defines logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// MetricsCollector defines metrics collection interface.
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

// ExplainService fetches a plan from a database and narrates it.
type ExplainService interface {
	// Setup runs statements that prepare the database, e.g. schema creation.
	Setup(ctx context.Context, statements []string) error
	// Explain fetches and narrates the plan for query.
	Explain(ctx context.Context, query string) (*models.ExplainNarration, error)
}
