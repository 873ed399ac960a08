// Package duckdb fetches query plans from DuckDB.
package duckdb

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/models"
	"github.com/TFMV/planscribe/pkg/plan"
	"github.com/TFMV/planscribe/pkg/repositories"
)

// Backend names DuckDB in ExplainResult.
const Backend = "duckdb"

const physicalPlanKey = "physical_plan"

// explainRepository implements repositories.ExplainRepository for DuckDB.
type explainRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open connects to the DuckDB database at dsn. An empty dsn opens an
// in-memory database.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (repositories.ExplainRepository, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceFailed, "failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CodeSourceFailed, "failed to connect to database")
	}

	logger.Debug().Str("dsn", MaskDSN(dsn)).Msg("Opened DuckDB database")
	return NewExplainRepository(db, logger), nil
}

// NewExplainRepository wraps an open DuckDB handle.
func NewExplainRepository(db *sql.DB, logger zerolog.Logger) repositories.ExplainRepository {
	return &explainRepository{db: db, logger: logger}
}

// Exec runs a statement without results.
func (r *explainRepository) Exec(ctx context.Context, statement string) error {
	r.logger.Debug().Str("statement", statement).Msg("Executing statement")

	if _, err := r.db.ExecContext(ctx, statement); err != nil {
		return errors.Wrapf(err, errors.CodeSourceFailed, "failed to execute statement: %s", statement)
	}
	return nil
}

// Explain runs EXPLAIN (FORMAT JSON) for query and converts the plan.
func (r *explainRepository) Explain(ctx context.Context, query string) (*models.ExplainResult, error) {
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	if query == "" {
		return nil, errors.New(errors.CodeInvalidRequest, "query is empty")
	}

	r.logger.Debug().Str("query", query).Msg("Explaining query")

	rows, err := r.db.QueryContext(ctx, "EXPLAIN (FORMAT JSON) "+query)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeSourceFailed, "failed to explain query: %s", query)
	}
	defer rows.Close()

	raw, err := scanPlan(rows)
	if err != nil {
		return nil, err
	}

	doc, err := ConvertPlan([]byte(raw))
	if err != nil {
		return nil, err
	}

	result := &models.ExplainResult{
		Backend:   Backend,
		Query:     query,
		Document:  doc,
		NodeCount: plan.Flatten(doc).Len(),
	}
	if est, ok := doc.Attributes.Get(models.AttrPlanRows); ok && est.Kind == models.KindNumber {
		result.EstimatedRows = parseRows(est.Str)
	}

	r.logger.Debug().
		Int("nodes", result.NodeCount).
		Int64("estimated_rows", result.EstimatedRows).
		Msg("Query explained")
	return result, nil
}

// Close releases the database handle.
func (r *explainRepository) Close() error {
	return r.db.Close()
}

// scanPlan returns the physical plan JSON. EXPLAIN yields (key, value) rows;
// the first row is used when no row is keyed physical_plan.
func scanPlan(rows *sql.Rows) (string, error) {
	var first string
	found := false
	for rows.Next() {
		var key, value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return "", errors.Wrap(err, errors.CodeSourceFailed, "failed to read explain output")
		}
		if key.String == physicalPlanKey {
			return value.String, nil
		}
		if !found {
			first, found = value.String, true
		}
	}
	if err := rows.Err(); err != nil {
		return "", errors.Wrap(err, errors.CodeSourceFailed, "failed to read explain output")
	}
	if !found {
		return "", errors.New(errors.CodeSourceFailed, "explain returned no plan")
	}
	return first, nil
}
