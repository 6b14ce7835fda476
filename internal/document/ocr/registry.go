package ocr

import (
	"context"
	"fmt"
)

// ModelInfo describes one registered engine for the model catalog.
type ModelInfo struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
	Default   bool   `json:"default"`
}

// Registry maintains all registered recognition engines in priority order.
type Registry struct {
	engines   []Engine
	byID      map[string]Engine
	defaultID string
}

// NewRegistry creates a registry whose default engine is defaultID.
func NewRegistry(defaultID string) *Registry {
	return &Registry{
		byID:      make(map[string]Engine),
		defaultID: defaultID,
	}
}

// Register adds an engine. Registration order is the fallback order.
func (r *Registry) Register(e Engine) error {
	id := e.ID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("ocr engine %s already registered", id)
	}
	r.byID[id] = e
	r.engines = append(r.engines, e)
	return nil
}

// Get retrieves an engine by ID.
func (r *Registry) Get(id string) (Engine, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// Resolve picks the engine for a request: the explicitly requested one if
// registered and available, else the default, else the first available
// engine in registration order. Returns false when nothing can serve.
func (r *Registry) Resolve(ctx context.Context, requested string) (Engine, bool) {
	if requested != "" {
		if e, ok := r.byID[requested]; ok && e.Available(ctx) {
			return e, true
		}
	}
	if e, ok := r.byID[r.defaultID]; ok && e.Available(ctx) {
		return e, true
	}
	for _, e := range r.engines {
		if e.Available(ctx) {
			return e, true
		}
	}
	return nil, false
}

// Models lists every registered engine with its availability, for the
// model catalog endpoint.
func (r *Registry) Models(ctx context.Context) []ModelInfo {
	out := make([]ModelInfo, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, ModelInfo{
			ID:        e.ID(),
			Available: e.Available(ctx),
			Default:   e.ID() == r.defaultID,
		})
	}
	return out
}
