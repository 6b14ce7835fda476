// Package face computes a similarity score between the photograph on an
// identity document and a submitted selfie. Several backends are
// supported; the Chain polls them in priority order and fails closed
// when none of them can produce a score.
package face

import "context"

// Result is one backend's comparison outcome.
type Result struct {
	Similarity    float64 `json:"similarity"`
	IDHasFace     bool    `json:"id_has_face"`
	SelfieHasFace bool    `json:"selfie_has_face"`
}

// Backend compares two face images. Implementations must be safe for
// concurrent use.
type Backend interface {
	ID() string
	Available(ctx context.Context) bool
	Compare(ctx context.Context, idImagePath, selfiePath string) (Result, error)
}

// ModelInfo describes a registered backend for the model catalog
// endpoint.
type ModelInfo struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
	Default   bool   `json:"default"`
}
