package face

import (
	"context"
	"fmt"
	"log/slog"

	dErrors "veridoc/pkg/domain-errors"
)

// Chain polls face backends in registration order and returns the first
// usable score. Registration order is the fallback priority: cloud
// first, then the local embedding models, then detection-only.
type Chain struct {
	backends []Backend
	byID     map[string]Backend
	logger   *slog.Logger
}

func NewChain(logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		byID:   make(map[string]Backend),
		logger: logger,
	}
}

// Register appends a backend to the chain. Registering the same id
// twice is a wiring bug.
func (c *Chain) Register(b Backend) error {
	if b == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "backend is nil")
	}
	if _, exists := c.byID[b.ID()]; exists {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("face backend %q already registered", b.ID()))
	}
	c.backends = append(c.backends, b)
	c.byID[b.ID()] = b
	return nil
}

// Compare returns the first backend result, trying the preferred
// backend before the registration order. Every failure is logged and
// the chain moves on; when nothing produces a score, the zero Result is
// returned, so an absent face signal reads as a non-match.
func (c *Chain) Compare(ctx context.Context, idImagePath, selfiePath, preferred string) (Result, string) {
	for _, b := range c.candidates(preferred) {
		if !b.Available(ctx) {
			continue
		}
		result, err := b.Compare(ctx, idImagePath, selfiePath)
		if err != nil {
			c.logger.WarnContext(ctx, "face backend failed, trying next",
				"backend", b.ID(),
				"error", err,
			)
			continue
		}
		c.logger.InfoContext(ctx, "face comparison complete",
			"backend", b.ID(),
			"similarity", result.Similarity,
		)
		return result, b.ID()
	}

	c.logger.WarnContext(ctx, "no face backend produced a result, failing closed")
	return Result{}, ""
}

// candidates orders the chain with the preferred backend up front.
func (c *Chain) candidates(preferred string) []Backend {
	if preferred == "" {
		return c.backends
	}
	first, ok := c.byID[preferred]
	if !ok {
		return c.backends
	}
	ordered := make([]Backend, 0, len(c.backends))
	ordered = append(ordered, first)
	for _, b := range c.backends {
		if b.ID() != preferred {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

// Models lists every registered backend and its probed availability.
func (c *Chain) Models(ctx context.Context) []ModelInfo {
	infos := make([]ModelInfo, 0, len(c.backends))
	for i, b := range c.backends {
		infos = append(infos, ModelInfo{
			ID:        b.ID(),
			Available: b.Available(ctx),
			Default:   i == 0,
		})
	}
	return infos
}
