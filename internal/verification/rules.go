package verification

import "veridoc/internal/verification/models"

// FaceMatchThreshold is the similarity below which the selfie is
// treated as a different person.
const FaceMatchThreshold = 0.60

// DuplicateCheck is the duplicate detector's verdict, computed against
// stored prior submissions before the decision runs.
type DuplicateCheck struct {
	SameIDDifferentName    bool
	SamePhoneDifferentName bool
}

// Decision is the terminal classification plus its supporting evidence.
type Decision struct {
	Status        models.Status
	FlaggedReason models.FlaggedReason
	Match         models.MatchResult
}

// Decide classifies a submission. The rule order is a fixed invariant:
// an ID-number failure or a face failure is each independently
// sufficient to flag, regardless of any other agreement, and no later
// rule can overturn an earlier one.
func Decide(match models.MatchResult, faceSimilarity float64, dup DuplicateCheck) Decision {
	d := Decision{Match: match}

	switch {
	case match.IDNumberCritical:
		d.Status = models.StatusFlagged
		d.FlaggedReason = models.ReasonIDNumberMismatch

	case faceSimilarity < FaceMatchThreshold:
		d.Status = models.StatusFlagged
		d.FlaggedReason = models.ReasonFaceMismatch

	case !match.Matched(FieldName) && !match.Matched(FieldDateOfBirth):
		d.Status = models.StatusFlagged
		d.FlaggedReason = models.ReasonIDDetailsMismatch

	case dup.SameIDDifferentName:
		d.Status = models.StatusFlagged
		d.FlaggedReason = models.ReasonDuplicateIDNumber

	case dup.SamePhoneDifferentName:
		d.Status = models.StatusFlagged
		d.FlaggedReason = models.ReasonDuplicatePhone

	default:
		d.Status = models.StatusVerified
	}
	return d
}
