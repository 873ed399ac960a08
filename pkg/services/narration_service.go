package services

import (
	"context"
	"time"

	"github.com/TFMV/planscribe/pkg/cache"
	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/infrastructure/metrics"
	"github.com/TFMV/planscribe/pkg/models"
	"github.com/TFMV/planscribe/pkg/narrative"
	"github.com/TFMV/planscribe/pkg/plan"
)

// NarrationOptions tunes a NarrationService.
type NarrationOptions struct {
	// Workers bounds concurrent node rendering per document.
	Workers int
	// Cache stores finished narratives. Nil disables caching.
	Cache cache.Cache
	// Keys derives cache keys. Defaults to cache.XXHashKeyGenerator.
	Keys cache.KeyGenerator
}

// narrationService implements NarrationService.
type narrationService struct {
	workers int
	cache   cache.Cache
	keys    cache.KeyGenerator
	logger  Logger
	metrics MetricsCollector
}

// NewNarrationService creates a new narration service.
func NewNarrationService(opts NarrationOptions, logger Logger, metrics MetricsCollector) NarrationService {
	if opts.Keys == nil {
		opts.Keys = cache.XXHashKeyGenerator{}
	}
	return &narrationService{
		workers: opts.Workers,
		cache:   opts.Cache,
		keys:    opts.Keys,
		logger:  logger,
		metrics: metrics,
	}
}

// Narrate decodes and narrates one document, consulting the cache first.
func (s *narrationService) Narrate(ctx context.Context, req *models.NarrateRequest) (*models.NarrateResult, error) {
	source := sourceLabel(req)
	timer := s.metrics.StartTimer(metrics.MetricNarrationDuration, "source", source)
	defer timer.Stop()

	if err := s.validate(ctx, req); err != nil {
		s.recordError(source, err)
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = s.keys.GenerateKey(req.Document)
		if hit, ok := s.cache.Get(ctx, key); ok {
			s.metrics.IncrementCounter(metrics.MetricCacheHits, "source", source)
			s.logger.Debug("Narrative served from cache", "name", req.Name, "key", key)
			return &models.NarrateResult{
				Name:      req.Name,
				Narrative: hit.Narrative,
				NodeCount: hit.NodeCount,
				Cached:    true,
				Duration:  timer.Stop(),
			}, nil
		}
		s.metrics.IncrementCounter(metrics.MetricCacheMisses, "source", source)
	}

	doc, err := plan.Decode(req.Document)
	if err != nil {
		s.recordError(source, err)
		s.logger.Warn("Failed to decode plan document", "name", req.Name, "error", err)
		return nil, err
	}

	result, err := s.build(source, req.Name, doc)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, cache.Value{Narrative: result.Narrative, NodeCount: result.NodeCount}); err != nil {
			s.logger.Warn("Failed to cache narrative", "name", req.Name, "error", err)
		}
	}

	result.Duration = timer.Stop()
	s.logger.Info("Plan narrated",
		"name", req.Name,
		"nodes", result.NodeCount,
		"duration", result.Duration)
	return result, nil
}

// NarrateDocument narrates an already decoded document. It bypasses the cache.
func (s *narrationService) NarrateDocument(ctx context.Context, name string, doc *models.Document) (*models.NarrateResult, error) {
	timer := s.metrics.StartTimer(metrics.MetricNarrationDuration, "source", "document")
	defer timer.Stop()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCanceled, "narration canceled")
	}

	result, err := s.build("document", name, doc)
	if err != nil {
		return nil, err
	}
	result.Duration = timer.Stop()
	return result, nil
}

// Inspect returns every intermediate of the narration.
func (s *narrationService) Inspect(ctx context.Context, data []byte) (*models.Narrative, error) {
	if err := s.validate(ctx, &models.NarrateRequest{Document: data}); err != nil {
		return nil, err
	}

	doc, err := plan.Decode(data)
	if err != nil {
		s.recordError("inspect", err)
		return nil, err
	}

	n, err := narrative.Build(doc, narrative.WithWorkers(s.workers))
	if err != nil {
		s.recordError("inspect", err)
		return nil, err
	}
	return n, nil
}

func (s *narrationService) build(source, name string, doc *models.Document) (*models.NarrateResult, error) {
	start := time.Now()
	n, err := narrative.Build(doc, narrative.WithWorkers(s.workers))
	if err != nil {
		s.recordError(source, err)
		s.logger.Warn("Failed to narrate plan", "name", name, "error", err)
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.MetricNarrations, "source", source)
	s.metrics.RecordHistogram(metrics.MetricPlanNodes, float64(n.Table.Len()), "source", source)
	s.logger.Debug("Plan rendered",
		"name", name,
		"nodes", n.Table.Len(),
		"render_time", time.Since(start))

	return &models.NarrateResult{
		Name:      name,
		Narrative: n.Text,
		NodeCount: n.Table.Len(),
	}, nil
}

func (s *narrationService) validate(ctx context.Context, req *models.NarrateRequest) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeCanceled, "narration canceled")
	}
	if req == nil || len(req.Document) == 0 {
		return errors.New(errors.CodeInvalidRequest, "plan document is empty")
	}
	return nil
}

func (s *narrationService) recordError(source string, err error) {
	s.metrics.IncrementCounter(metrics.MetricNarrationErrors, "source", source, "code", errors.GetCode(err))
}

func sourceLabel(req *models.NarrateRequest) string {
	if req == nil || req.Source == "" {
		return "unknown"
	}
	return req.Source
}
