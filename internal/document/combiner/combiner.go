// Package combiner merges the multi-run consensus result with the zonal
// pass into the final canonical field set, and assembles the complete
// RunSet the decision engine will re-examine.
package combiner

import (
	"errors"
	"regexp"
	"strings"

	"veridoc/internal/document/models"
	"veridoc/internal/document/parser"
	pstrings "veridoc/pkg/platform/strings"
)

// ErrNoExtraction reports that both extraction stages failed; the caller
// must surface an explicit extraction-unavailable condition.
var ErrNoExtraction = errors.New("no extraction stage produced a result")

var idShape = regexp.MustCompile(`^\d{8,9}$`)

// rawTextLimit bounds how much of each stage's raw text is kept in the
// combined snapshot.
const rawTextLimit = 500

// Combine merges the two extraction stages. Either input may be nil when
// its stage totally failed; if both are nil, ErrNoExtraction is returned.
// The returned RunSet carries every individual OCR run plus the zonal
// pass as one additional pseudo-run.
func Combine(ocrResult *models.CanonicalFields, runs models.RunSet, zonalResult *models.ExtractedFields) (models.CanonicalFields, models.RunSet, error) {
	switch {
	case ocrResult == nil && zonalResult == nil:
		return models.CanonicalFields{}, nil, ErrNoExtraction

	case ocrResult == nil:
		canonical := models.CanonicalFields{
			ExtractedFields: *zonalResult,
			Method:          "zonal-only",
			Sources:         []string{zonalResult.Source},
		}
		return canonical, models.RunSet{*zonalResult}, nil

	case zonalResult == nil:
		return *ocrResult, runs, nil
	}

	merged := ocrResult.ExtractedFields
	merged.FullName = pickName(ocrResult.ExtractedFields, *zonalResult)
	merged.IDNumber = pickID(ocrResult.IDNumber, zonalResult.IDNumber)
	merged.DateOfBirth = pickDOB(ocrResult.DateOfBirth, zonalResult.DateOfBirth)
	merged.Sex = firstNonEmpty(ocrResult.Sex, zonalResult.Sex)
	merged.DistrictOfBirth = firstNonEmpty(ocrResult.DistrictOfBirth, zonalResult.DistrictOfBirth)
	merged.PlaceOfIssue = firstNonEmpty(ocrResult.PlaceOfIssue, zonalResult.PlaceOfIssue)
	merged.DateOfIssue = firstNonEmpty(ocrResult.DateOfIssue, zonalResult.DateOfIssue)
	merged.RawText = combinedRawText(ocrResult.RawText, zonalResult.RawText)
	merged.Source = "combined"

	canonical := models.CanonicalFields{
		ExtractedFields: merged,
		Method:          "combined (multi-ocr + zonal)",
		Sources:         pstrings.DedupeAndTrim(append(append([]string{}, ocrResult.Sources...), zonalResult.Source)),
	}
	return canonical, append(append(models.RunSet{}, runs...), *zonalResult), nil
}

// pickName chooses between the two name candidates. Whether the
// candidates agree or not, the record with the higher independent
// quality score supplies the name; the OCR path must beat the zonal
// path strictly, since zonal reads tend to be cleaner on this card
// format.
func pickName(ocrFields, zonalFields models.ExtractedFields) string {
	switch {
	case ocrFields.FullName == "":
		return zonalFields.FullName
	case zonalFields.FullName == "":
		return ocrFields.FullName
	}

	if recordQuality(ocrFields) > recordQuality(zonalFields) {
		return ocrFields.FullName
	}
	return zonalFields.FullName
}

// recordQuality scores how internally well-formed an extraction result
// is: name shape, ID digit shape and date format each contribute.
func recordQuality(f models.ExtractedFields) int {
	score := 0
	if parser.PlausibleName(f.FullName) {
		score += 2
	}
	if len(strings.Fields(f.FullName)) >= 3 {
		score++
	}
	if idShape.MatchString(models.NormalizeID(f.IDNumber)) {
		score += 2
	}
	if parser.IsISODate(f.DateOfBirth) {
		score++
	}
	return score
}

func pickID(ocrID, zonalID string) string {
	switch {
	case ocrID == "":
		return zonalID
	case zonalID == "":
		return ocrID
	case models.NormalizeID(ocrID) == models.NormalizeID(zonalID):
		return ocrID
	}

	ocrValid := idShape.MatchString(models.NormalizeID(ocrID))
	zonalValid := idShape.MatchString(models.NormalizeID(zonalID))
	if zonalValid && !ocrValid {
		return zonalID
	}
	return ocrID
}

func pickDOB(ocrDOB, zonalDOB string) string {
	switch {
	case ocrDOB == "":
		return zonalDOB
	case zonalDOB == "":
		return ocrDOB
	case parser.NormalizeDate(ocrDOB) == parser.NormalizeDate(zonalDOB):
		return ocrDOB
	}

	if parser.IsISODate(zonalDOB) && !parser.IsISODate(ocrDOB) {
		return zonalDOB
	}
	return ocrDOB
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func combinedRawText(ocrText, zonalText string) string {
	return "OCR: " + truncate(ocrText, rawTextLimit) + "\n\n---\n\nZonal: " + truncate(zonalText, rawTextLimit)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
