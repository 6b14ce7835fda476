// Package models defines the verification domain types: the user's
// claim, the validation outcome, and the persisted verification record.
package models

import (
	"time"

	document "veridoc/internal/document/models"
)

// Status is the terminal classification of a submission. Pending and
// rejected are never produced by the decision rules today; they are
// kept for manual-review tooling.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusFlagged  Status = "flagged"
	StatusRejected Status = "rejected"
)

// FlaggedReason explains why a submission was flagged.
type FlaggedReason string

const (
	ReasonIDNumberMismatch  FlaggedReason = "id_number_mismatch"
	ReasonFaceMismatch      FlaggedReason = "face_mismatch"
	ReasonIDDetailsMismatch FlaggedReason = "id_details_mismatch"
	ReasonDuplicateIDNumber FlaggedReason = "duplicate_id_number"
	ReasonDuplicatePhone    FlaggedReason = "duplicate_phone"
)

// Claim is the user-submitted assertion, provided once per submission.
type Claim struct {
	FullName    string `json:"full_name"`
	NationalID  string `json:"national_id"`
	DateOfBirth string `json:"date_of_birth"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address,omitempty"`
}

// SimilarMatch records a fuzzy (non-exact) field agreement, kept for
// audit so a reviewer can see how close the match was.
type SimilarMatch struct {
	Field      string  `json:"field"`
	Extracted  string  `json:"extracted"`
	Entered    string  `json:"entered"`
	Similarity float64 `json:"similarity"`
	Source     string  `json:"source"`
}

// MatchResult is the output of validating a claim against every
// extraction run. Derived purely from its inputs.
type MatchResult struct {
	IsValid          bool           `json:"is_valid"`
	MatchedFields    []string       `json:"matched_fields"`
	SimilarMatches   []SimilarMatch `json:"similar_matches,omitempty"`
	IDNumberCritical bool           `json:"id_number_critical"`
	HasExactIDMatch  bool           `json:"has_exact_id_match"`
	Errors           []string       `json:"errors,omitempty"`
}

// Matched reports whether the named field matched in any run.
func (m MatchResult) Matched(field string) bool {
	for _, f := range m.MatchedFields {
		if f == field {
			return true
		}
	}
	return false
}

// VerificationRecord is the persisted outcome of one submission. It is
// written once by the decision engine and never mutated; corrections
// require a new submission.
type VerificationRecord struct {
	ID               string                   `json:"id"`
	Status           Status                   `json:"status"`
	FlaggedReason    FlaggedReason            `json:"flagged_reason,omitempty"`
	Claim            Claim                    `json:"claim"`
	Extracted        document.CanonicalFields `json:"extracted"`
	MatchedFields    []string                 `json:"matched_fields,omitempty"`
	SimilarMatches   []SimilarMatch           `json:"similar_matches,omitempty"`
	ValidationErrors []string                 `json:"validation_errors,omitempty"`
	FaceSimilarity   float64                  `json:"face_similarity"`
	FaceBackend      string                   `json:"face_backend,omitempty"`
	ImageHash        string                   `json:"image_hash,omitempty"`
	RequestID        string                   `json:"request_id,omitempty"`
	ClientIP         string                   `json:"client_ip,omitempty"`
	Device           string                   `json:"device,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
}

// StatsBucket is one row of the aggregate stats view.
type StatsBucket struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}
