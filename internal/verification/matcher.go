// Package verification validates user claims against extracted document
// data and classifies each submission into a terminal status.
package verification

import (
	"strings"

	document "veridoc/internal/document/models"
	"veridoc/internal/document/parser"
	"veridoc/internal/verification/models"
	"veridoc/pkg/platform/fuzzy"
)

// Field names used in MatchResult and flag reasons.
const (
	FieldName        = "name"
	FieldIDNumber    = "id_number"
	FieldDateOfBirth = "date_of_birth"
)

const (
	// tokenSimilarity accepts a fuzzy match between one claimed-name
	// token and one extracted-name token.
	tokenSimilarity = 0.6
	// wholeNameSimilarity accepts a fuzzy match between the complete
	// normalized name strings.
	wholeNameSimilarity = 0.5
	// minTokenLength excludes initials and particles from substring
	// token matching.
	minTokenLength = 3
)

// Match scans every extraction run for a satisfying match of each
// claimed field. A field that loses the consensus vote may still be the
// one run that agrees with the claim, so the canonical merge alone is
// never trusted for validation.
func Match(runs document.RunSet, claim models.Claim) models.MatchResult {
	result := models.MatchResult{}

	if matchID(runs, claim.NationalID) {
		result.MatchedFields = append(result.MatchedFields, FieldIDNumber)
		result.HasExactIDMatch = true
	} else {
		result.IDNumberCritical = true
		result.Errors = append(result.Errors, "id number does not match extracted document data")
	}

	if matched, similar := matchName(runs, claim.FullName); matched {
		result.MatchedFields = append(result.MatchedFields, FieldName)
		result.SimilarMatches = append(result.SimilarMatches, similar...)
	} else {
		result.Errors = append(result.Errors, "name does not match extracted document data")
	}

	if matchDateOfBirth(runs, claim.DateOfBirth) {
		result.MatchedFields = append(result.MatchedFields, FieldDateOfBirth)
	} else {
		result.Errors = append(result.Errors, "date of birth does not match extracted document data")
	}

	result.IsValid = len(result.MatchedFields) == 3
	return result
}

// matchID accepts an exact normalized-digit match against any run's ID
// field, or the claimed digit string appearing verbatim in any run's
// raw text.
func matchID(runs document.RunSet, claimedID string) bool {
	claimed := document.NormalizeID(claimedID)
	if claimed == "" {
		return false
	}
	for _, run := range runs {
		if document.NormalizeID(run.IDNumber) == claimed {
			return true
		}
		if strings.Contains(run.RawText, claimed) {
			return true
		}
	}
	return false
}

// matchName walks the acceptance cascade per run, from exact match down
// to fuzzy token hits in the raw text, stopping at the first run that
// satisfies any stage.
func matchName(runs document.RunSet, claimedName string) (bool, []models.SimilarMatch) {
	claimed := document.NormalizeName(claimedName)
	if claimed == "" {
		return false, nil
	}
	claimedTokens := strings.Fields(claimed)

	for _, run := range runs {
		extracted := document.NormalizeName(run.FullName)
		if extracted == "" {
			if ok, sim := nameInRawText(run, claimedTokens); ok {
				return true, sim
			}
			continue
		}

		if extracted == claimed {
			return true, nil
		}

		extractedTokens := strings.Fields(extracted)
		if tokenSubstringMatch(claimedTokens, extracted) || tokenSubstringMatch(extractedTokens, claimed) {
			return true, nil
		}

		if sim, ok := tokenPairMatch(run, claimedTokens, extractedTokens); ok {
			return true, []models.SimilarMatch{sim}
		}

		if score := fuzzy.Similarity(claimed, extracted); score >= wholeNameSimilarity {
			return true, []models.SimilarMatch{{
				Field:      FieldName,
				Extracted:  run.FullName,
				Entered:    claimedName,
				Similarity: score,
				Source:     run.Source,
			}}
		}

		if ok, sim := nameInRawText(run, claimedTokens); ok {
			return true, sim
		}
	}
	return false, nil
}

// tokenSubstringMatch reports whether any token of at least
// minTokenLength appears as a substring of the other side's full name.
func tokenSubstringMatch(tokens []string, whole string) bool {
	for _, tok := range tokens {
		if len(tok) >= minTokenLength && strings.Contains(whole, tok) {
			return true
		}
	}
	return false
}

// tokenPairMatch compares every claimed/extracted token pair with fuzzy
// similarity.
func tokenPairMatch(run document.ExtractedFields, claimedTokens, extractedTokens []string) (models.SimilarMatch, bool) {
	for _, ct := range claimedTokens {
		if len(ct) < minTokenLength {
			continue
		}
		for _, et := range extractedTokens {
			if len(et) < minTokenLength {
				continue
			}
			if score := fuzzy.Similarity(ct, et); score >= tokenSimilarity {
				return models.SimilarMatch{
					Field:      FieldName,
					Extracted:  et,
					Entered:    ct,
					Similarity: score,
					Source:     run.Source,
				}, true
			}
		}
	}
	return models.SimilarMatch{}, false
}

// nameInRawText is the last resort: a claimed-name token found exactly
// or fuzzily anywhere in the run's raw recognized text.
func nameInRawText(run document.ExtractedFields, claimedTokens []string) (bool, []models.SimilarMatch) {
	raw := strings.ToUpper(run.RawText)
	if raw == "" {
		return false, nil
	}
	rawTokens := strings.Fields(raw)

	for _, ct := range claimedTokens {
		if len(ct) < minTokenLength {
			continue
		}
		if strings.Contains(raw, ct) {
			return true, nil
		}
		for _, rt := range rawTokens {
			if len(rt) < minTokenLength {
				continue
			}
			if score := fuzzy.Similarity(ct, rt); score >= wholeNameSimilarity {
				return true, []models.SimilarMatch{{
					Field:      FieldName,
					Extracted:  rt,
					Entered:    ct,
					Similarity: score,
					Source:     run.Source,
				}}
			}
		}
	}
	return false, nil
}

// matchDateOfBirth accepts only an exact calendar-date match after both
// sides normalize to YYYY-MM-DD.
func matchDateOfBirth(runs document.RunSet, claimedDOB string) bool {
	claimed := parser.NormalizeDate(claimedDOB)
	if claimed == "" {
		return false
	}
	for _, run := range runs {
		if extracted := parser.NormalizeDate(run.DateOfBirth); extracted != "" && extracted == claimed {
			return true
		}
	}
	return false
}
