// Package store persists verification records. A memory store backs
// tests and database-less deployments; PostgreSQL is the production
// backend, with an optional Redis index over recent submissions.
package store

import (
	"context"
	"time"

	"veridoc/internal/verification/models"
	dErrors "veridoc/pkg/domain-errors"
)

// ErrNotFound is returned when no record matches the lookup.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "verification record not found")

// ListFilter narrows the operator listing.
type ListFilter struct {
	Status models.Status
	Since  time.Time
	Limit  int
}

// Store is the verification record repository.
type Store interface {
	Save(ctx context.Context, record models.VerificationRecord) error
	FindByID(ctx context.Context, id string) (models.VerificationRecord, error)
	FindByIDNumber(ctx context.Context, idNumber string) ([]models.VerificationRecord, error)
	FindByPhone(ctx context.Context, phone string) ([]models.VerificationRecord, error)
	List(ctx context.Context, filter ListFilter) ([]models.VerificationRecord, error)
	Stats(ctx context.Context) ([]models.StatsBucket, error)
}
