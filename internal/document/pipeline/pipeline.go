// Package pipeline runs the full document extraction: the multi-run
// consensus path and the zonal pass execute concurrently, and their
// results are merged into one canonical field set.
package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"veridoc/internal/document/combiner"
	"veridoc/internal/document/metrics"
	"veridoc/internal/document/models"
	dErrors "veridoc/pkg/domain-errors"
)

// ConsensusExtractor is the multi-run consensus stage, implemented by
// orchestrator.Orchestrator.
type ConsensusExtractor interface {
	Extract(ctx context.Context, imagePath string, opts models.ExtractOptions) (models.CanonicalFields, models.RunSet, error)
}

// ZonalExtractor is the layout-aware stage, implemented by
// zonal.Extractor.
type ZonalExtractor interface {
	Extract(ctx context.Context, imagePath, hintedID string) (models.ExtractedFields, error)
}

// Pipeline coordinates the two extraction stages.
type Pipeline struct {
	orchestrator ConsensusExtractor
	zonal        ZonalExtractor
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// Option configures optional Pipeline dependencies.
type Option func(*Pipeline)

// WithMetrics attaches extraction metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New constructs a Pipeline. The zonal extractor is optional; without
// it only the consensus path runs.
func New(orch ConsensusExtractor, zonalExtractor ZonalExtractor, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if orch == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "orchestrator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		orchestrator: orch,
		zonal:        zonalExtractor,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ExtractCanonical runs both stages against the image and combines
// their output. A single failing stage degrades the result; only when
// every stage fails is an error returned.
func (p *Pipeline) ExtractCanonical(ctx context.Context, imagePath string, opts models.ExtractOptions) (models.CanonicalFields, models.RunSet, error) {
	var (
		ocrResult   *models.CanonicalFields
		ocrRuns     models.RunSet
		ocrErr      error
		zonalResult *models.ExtractedFields
		zonalErr    error
	)

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		canonical, runs, err := p.orchestrator.Extract(groupCtx, imagePath, opts)
		if err != nil {
			ocrErr = err
			return nil
		}
		ocrResult, ocrRuns = &canonical, runs
		return nil
	})
	if p.zonal != nil {
		g.Go(func() error {
			fields, err := p.zonal.Extract(groupCtx, imagePath, opts.HintedID)
			if err != nil {
				zonalErr = err
				return nil
			}
			zonalResult = &fields
			return nil
		})
	}
	_ = g.Wait()

	if ocrErr != nil {
		p.logger.WarnContext(ctx, "consensus extraction stage failed", "error", ocrErr)
	}
	if zonalErr != nil {
		p.logger.WarnContext(ctx, "zonal extraction stage failed", "error", zonalErr)
	}

	canonical, runs, err := combiner.Combine(ocrResult, ocrRuns, zonalResult)
	if err != nil {
		return models.CanonicalFields{}, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "document extraction unavailable")
	}

	p.metrics.IncrementExtraction(canonical.Method)
	p.logger.InfoContext(ctx, "extraction complete",
		"method", canonical.Method,
		"runs", len(runs),
		"has_name", canonical.FullName != "",
		"has_id", canonical.IDNumber != "",
		"has_dob", canonical.DateOfBirth != "",
	)
	return canonical, runs, nil
}
