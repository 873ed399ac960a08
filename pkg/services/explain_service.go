package services

import (
	"context"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/infrastructure/metrics"
	"github.com/TFMV/planscribe/pkg/models"
	"github.com/TFMV/planscribe/pkg/repositories"
)

// explainService implements ExplainService.
type explainService struct {
	repo      repositories.ExplainRepository
	narration NarrationService
	logger    Logger
	metrics   MetricsCollector
}

// NewExplainService creates a new explain service.
func NewExplainService(repo repositories.ExplainRepository, narration NarrationService, logger Logger, metrics MetricsCollector) ExplainService {
	return &explainService{
		repo:      repo,
		narration: narration,
		logger:    logger,
		metrics:   metrics,
	}
}

// Setup executes each statement in order and stops at the first failure.
func (s *explainService) Setup(ctx context.Context, statements []string) error {
	for i, stmt := range statements {
		if err := s.repo.Exec(ctx, stmt); err != nil {
			s.logger.Error("Setup statement failed", "index", i, "error", err)
			return err
		}
	}
	s.logger.Debug("Setup complete", "statements", len(statements))
	return nil
}

// Explain plans query on the backend and narrates the returned plan.
func (s *explainService) Explain(ctx context.Context, query string) (*models.ExplainNarration, error) {
	timer := s.metrics.StartTimer(metrics.MetricExplainDuration)
	defer timer.Stop()

	kind := ClassifyStatement(query)
	if !kind.Explainable() {
		return nil, errors.Newf(errors.CodeInvalidRequest, "cannot explain %s statement", kind).
			WithDetail("statement_type", kind.String())
	}

	explained, err := s.repo.Explain(ctx, query)
	if err != nil {
		s.logger.Error("Failed to explain query", "error", err)
		return nil, err
	}

	result, err := s.narration.NarrateDocument(ctx, "explain", explained.Document)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Query explained",
		"backend", explained.Backend,
		"statement_type", kind.String(),
		"nodes", result.NodeCount)

	return &models.ExplainNarration{Explain: explained, Narration: result}, nil
}
