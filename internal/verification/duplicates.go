package verification

import (
	"context"
	"log/slog"

	document "veridoc/internal/document/models"
	"veridoc/internal/verification/models"
	"veridoc/pkg/platform/fuzzy"
)

// duplicateNameSimilarity is the threshold above which two names are
// considered the same person, so re-use of an ID or phone by the same
// person is not flagged.
const duplicateNameSimilarity = 0.7

// DuplicateStore is the subset of the verification store the detector
// queries.
type DuplicateStore interface {
	FindByIDNumber(ctx context.Context, idNumber string) ([]models.VerificationRecord, error)
	FindByPhone(ctx context.Context, phone string) ([]models.VerificationRecord, error)
}

// RecentIndex is the optional fast index over recent submissions,
// implemented by store.RecentSubmissions.
type RecentIndex interface {
	PriorNames(ctx context.Context, idNumber string) ([]string, error)
}

// DuplicateDetector checks whether a claim's ID number or phone number
// was previously submitted under a different name.
type DuplicateDetector struct {
	store  DuplicateStore
	recent RecentIndex
	logger *slog.Logger
}

// DetectorOption configures optional detector dependencies.
type DetectorOption func(*DuplicateDetector)

// WithRecentIndex consults a recent-submission index before assuming
// the store's answer is complete.
func WithRecentIndex(recent RecentIndex) DetectorOption {
	return func(d *DuplicateDetector) {
		d.recent = recent
	}
}

func NewDuplicateDetector(store DuplicateStore, logger *slog.Logger, opts ...DetectorOption) *DuplicateDetector {
	if logger == nil {
		logger = slog.Default()
	}
	d := &DuplicateDetector{store: store, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Check queries prior submissions. Store failures fail open: a broken
// duplicate index must not block legitimate verifications, so errors
// are logged and an empty verdict returned.
func (d *DuplicateDetector) Check(ctx context.Context, claim models.Claim) DuplicateCheck {
	check := DuplicateCheck{}
	if d.recent != nil {
		names, err := d.recent.PriorNames(ctx, claim.NationalID)
		if err != nil {
			d.logger.WarnContext(ctx, "recent-submission lookup failed, proceeding without it", "error", err)
		} else {
			check.SameIDDifferentName = anyDifferentPriorName(names, claim.FullName)
		}
	}
	if d.store == nil {
		return check
	}

	byID, err := d.store.FindByIDNumber(ctx, document.NormalizeID(claim.NationalID))
	if err != nil {
		d.logger.WarnContext(ctx, "duplicate lookup by id failed, proceeding without it", "error", err)
	} else {
		check.SameIDDifferentName = check.SameIDDifferentName || anyDifferentName(byID, claim.FullName)
	}

	if claim.PhoneNumber != "" {
		byPhone, err := d.store.FindByPhone(ctx, claim.PhoneNumber)
		if err != nil {
			d.logger.WarnContext(ctx, "duplicate lookup by phone failed, proceeding without it", "error", err)
		} else {
			check.SamePhoneDifferentName = anyDifferentName(byPhone, claim.FullName)
		}
	}
	return check
}

func anyDifferentPriorName(names []string, claimedName string) bool {
	claimed := document.NormalizeName(claimedName)
	for _, prior := range names {
		if prior == "" {
			continue
		}
		if fuzzy.Similarity(claimed, prior) < duplicateNameSimilarity {
			return true
		}
	}
	return false
}

func anyDifferentName(records []models.VerificationRecord, claimedName string) bool {
	claimed := document.NormalizeName(claimedName)
	for _, rec := range records {
		prior := document.NormalizeName(rec.Claim.FullName)
		if prior == "" {
			continue
		}
		if fuzzy.Similarity(claimed, prior) < duplicateNameSimilarity {
			return true
		}
	}
	return false
}
