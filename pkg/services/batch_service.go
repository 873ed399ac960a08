package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/infrastructure/metrics"
	"github.com/TFMV/planscribe/pkg/models"
	"github.com/TFMV/planscribe/pkg/repositories"
)

// batchService implements BatchService.
type batchService struct {
	source      repositories.PlanSource
	sink        repositories.NarrativeSink
	narration   NarrationService
	concurrency int
	logger      Logger
	metrics     MetricsCollector
}

// NewBatchService creates a batch service narrating up to concurrency
// documents at once.
func NewBatchService(
	source repositories.PlanSource,
	sink repositories.NarrativeSink,
	narration NarrationService,
	concurrency int,
	logger Logger,
	metrics MetricsCollector,
) BatchService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &batchService{
		source:      source,
		sink:        sink,
		narration:   narration,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

type batchOutcome struct {
	output string
	err    error
}

// Run narrates every listed document. A failed document does not stop the
// others; all failures are returned together and listed in the report.
func (s *batchService) Run(ctx context.Context) (*models.BatchReport, error) {
	start := time.Now()
	runID := uuid.NewString()

	names, err := s.source.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list plan documents", "run_id", runID, "error", err)
		return nil, err
	}

	s.logger.Info("Starting batch", "run_id", runID, "documents", len(names), "concurrency", s.concurrency)

	outcomes := make([]batchOutcome, len(names))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, name := range names {
		g.Go(func() error {
			outcomes[i] = s.process(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	report := &models.BatchReport{RunID: runID, Total: len(names)}
	var result *multierror.Error
	for i, o := range outcomes {
		s.metrics.IncrementCounter(metrics.MetricBatchDocuments)
		if o.err != nil {
			s.metrics.IncrementCounter(metrics.MetricBatchFailures, "code", errors.GetCode(o.err))
			report.Failures = append(report.Failures, models.BatchFailure{
				Name:  names[i],
				Code:  errors.GetCode(o.err),
				Error: o.err.Error(),
			})
			result = multierror.Append(result, fmt.Errorf("%s: %w", names[i], o.err))
			continue
		}
		report.Succeeded++
		report.Outputs = append(report.Outputs, o.output)
	}
	report.Duration = time.Since(start)

	s.logger.Info("Batch finished",
		"run_id", runID,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", len(report.Failures),
		"duration", report.Duration)

	return report, result.ErrorOrNil()
}

func (s *batchService) process(ctx context.Context, name string) batchOutcome {
	if err := ctx.Err(); err != nil {
		return batchOutcome{err: errors.Wrap(err, errors.CodeCanceled, "batch canceled")}
	}

	data, err := s.source.Read(ctx, name)
	if err != nil {
		return batchOutcome{err: err}
	}

	result, err := s.narration.Narrate(ctx, &models.NarrateRequest{
		Name:     name,
		Document: data,
		Source:   "batch",
	})
	if err != nil {
		return batchOutcome{err: err}
	}

	out, err := s.sink.Write(ctx, name, result.Narrative)
	if err != nil {
		return batchOutcome{err: err}
	}
	return batchOutcome{output: out}
}
