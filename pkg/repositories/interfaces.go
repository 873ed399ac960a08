// Package repositories defines interfaces for reading plan documents and
// storing narratives.
package repositories

import (
	"context"

	"github.com/TFMV/planscribe/pkg/models"
)

// PlanSource lists and reads plan documents.
type PlanSource interface {
	// List returns the names of all available documents in a stable order.
	List(ctx context.Context) ([]string, error)
	// Read returns the raw bytes of the named document.
	Read(ctx context.Context, name string) ([]byte, error)
}

// NarrativeSink stores a narrative for the named source document.
type NarrativeSink interface {
	// Write stores narrative and returns where it was written.
	Write(ctx context.Context, name string, narrative string) (string, error)
}

// ExplainRepository asks a database for the plan of a query.
type ExplainRepository interface {
	// Exec runs a statement without results, e.g. schema setup.
	Exec(ctx context.Context, statement string) error
	// Explain returns the plan the database would use for query.
	Explain(ctx context.Context, query string) (*models.ExplainResult, error)
	// Close releases the database handle.
	Close() error
}
