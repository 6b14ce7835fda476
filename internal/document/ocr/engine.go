// Package ocr defines the recognition engine contract and the registry
// that picks an engine per request with fallback to the default.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// Options tunes a single recognition call.
type Options struct {
	// CharWhitelist restricts the recognized alphabet. Empty means the
	// engine default.
	CharWhitelist string

	// PageSegMode sets the page segmentation assumption (tesseract PSM
	// numbering). Zero means the engine default.
	PageSegMode int

	// Language selects the recognition language pack. Empty means "eng".
	Language string
}

// Engine is the universal interface every recognition backend implements.
type Engine interface {
	// ID returns a unique identifier for this engine.
	ID() string

	// Available reports whether the engine can serve calls. Probing
	// happens once at construction; this only reads the cached result.
	Available(ctx context.Context) bool

	// Recognize extracts raw text from the image at the given path.
	Recognize(ctx context.Context, imagePath string, opts Options) (string, error)
}

// ErrorCategory classifies engine failures.
type ErrorCategory string

const (
	ErrorTimeout       ErrorCategory = "timeout"
	ErrorUnavailable   ErrorCategory = "unavailable"
	ErrorBadImage      ErrorCategory = "bad_image"
	ErrorEmptyResult   ErrorCategory = "empty_result"
	ErrorInternal      ErrorCategory = "internal"
	ErrorQuotaExceeded ErrorCategory = "quota_exceeded"
)

// EngineError wraps recognition failures with normalized categorization.
type EngineError struct {
	Category   ErrorCategory
	EngineID   string
	Message    string
	Underlying error
}

func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("ocr engine %s [%s]: %s: %v", e.EngineID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("ocr engine %s [%s]: %s", e.EngineID, e.Category, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// NewEngineError creates a normalized engine error.
func NewEngineError(category ErrorCategory, engineID, message string, underlying error) *EngineError {
	return &EngineError{
		Category:   category,
		EngineID:   engineID,
		Message:    message,
		Underlying: underlying,
	}
}

// IsCategory reports whether err carries the given engine error category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category == category
	}
	return false
}
