// Package orchestrator runs recognition over several pre-processed
// variants of a document image concurrently and reduces the results to
// one canonical field set by consensus voting.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"veridoc/internal/document/metrics"
	"veridoc/internal/document/models"
	"veridoc/internal/document/ocr"
	"veridoc/internal/document/parser"
	"veridoc/internal/document/preprocess"
)

// ErrAllRunsFailed reports total extraction failure: not a single
// recognition run produced text. Callers may still proceed with the
// zonal path.
var ErrAllRunsFailed = errors.New("all recognition runs failed")

// Orchestrator coordinates the multi-run extraction stage.
type Orchestrator struct {
	registry   *ocr.Registry
	normalizer preprocess.Normalizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New constructs an Orchestrator.
func New(registry *ocr.Registry, normalizer preprocess.Normalizer, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.New("orchestrator: registry is required")
	}
	if normalizer == nil {
		return nil, errors.New("orchestrator: normalizer is required")
	}
	o := &Orchestrator{
		registry:   registry,
		normalizer: normalizer,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// runCollector gathers results from concurrent runs. Runs append in
// completion order; voting does not depend on ordering.
type runCollector struct {
	mu   sync.Mutex
	runs models.RunSet
}

func (c *runCollector) add(fields models.ExtractedFields) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, fields)
}

// Extract produces the canonical consensus fields plus the full RunSet.
// Individual run failures are tolerated; ErrAllRunsFailed is returned
// only when every run failed.
func (o *Orchestrator) Extract(ctx context.Context, imagePath string, opts models.ExtractOptions) (models.CanonicalFields, models.RunSet, error) {
	engine, ok := o.registry.Resolve(ctx, opts.Model)
	if !ok {
		return models.CanonicalFields{}, nil, fmt.Errorf("%w: no recognition engine available", ErrAllRunsFailed)
	}

	variants, err := o.normalizer.Variants(ctx, imagePath)
	if err != nil || len(variants) == 0 {
		variants = []preprocess.Variant{{Path: imagePath, Label: "original"}}
	}

	collector := &runCollector{}
	var wg sync.WaitGroup

	for i, variant := range variants {
		wg.Add(1)
		go func(runIdx int, v preprocess.Variant) {
			defer wg.Done()
			// Variant artifacts are temp files; release them as soon as
			// the run is done, whatever the outcome. The source image is
			// never a variant artifact.
			if v.Path != imagePath {
				defer os.Remove(v.Path)
			}

			source := fmt.Sprintf("run-%d-%s", runIdx+1, v.Label)
			start := time.Now()
			text, err := engine.Recognize(ctx, v.Path, ocr.Options{})
			o.metrics.ObserveRunLatency(engine.ID(), time.Since(start))

			if err != nil {
				o.metrics.IncrementRun(source, "failed")
				o.logger.WarnContext(ctx, "recognition run failed",
					"source", source,
					"engine", engine.ID(),
					"error", err,
				)
				return
			}

			fields := parser.Parse(text, opts.HintedID)
			fields.Source = source
			o.metrics.IncrementRun(source, "ok")
			collector.add(fields)
		}(i, variant)
	}
	wg.Wait()

	runs := collector.runs
	if len(runs) == 0 {
		return models.CanonicalFields{}, nil, ErrAllRunsFailed
	}

	winner, disagreements := Vote(runs)
	for _, field := range disagreements {
		o.metrics.IncrementDisagreement(field)
	}

	sources := make([]string, 0, len(runs))
	for _, run := range runs {
		sources = append(sources, run.Source)
	}

	o.logger.InfoContext(ctx, "multi-run extraction complete",
		"engine", engine.ID(),
		"runs", len(runs),
		"variants", len(variants),
		"disagreements", disagreements,
	)

	canonical := models.CanonicalFields{
		ExtractedFields: winner,
		Method:          "multi-ocr",
		Sources:         sources,
	}
	return canonical, runs, nil
}
