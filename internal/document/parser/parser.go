// Package parser turns raw recognized text from one extraction pass into
// structured identity fields. It understands two sources of signal: the
// machine-readable zone (MRZ) printed on the card, and labeled fields from
// the human-readable region ("ID NUMBER:", "DATE OF BIRTH:" and so on).
//
// Parsing never fails. A field that cannot be found is left empty; the
// caller decides what absence means.
package parser

import (
	"regexp"
	"strings"

	"veridoc/internal/document/models"
)

// MRZ line classification. OCR mangles the country token in predictable
// ways (E read as 5, I/1 and D/0 swaps), so the patterns tolerate the
// confusions seen in real scans.
var (
	mrzCharset   = regexp.MustCompile(`^[A-Z0-9< ]+$`)
	mrzCountry   = regexp.MustCompile(`[1I][DO0]K[E5]N|IDK[E5]N|IDK[YV]A`)
	mrzBirthSex  = regexp.MustCompile(`\d{6}[MF]`)
	mrzNameShape = regexp.MustCompile(`[A-Z]{2,}<+[A-Z]{2,}`)
)

const mrzMinLength = 20

// parseContext carries the raw text plus everything derived from it that
// more than one rule needs.
type parseContext struct {
	raw      string
	upper    string
	lines    []string
	mrz      mrzLines
	hintedID string

	// excludedIDs are digit runs from the MRZ birth/sex line. That line
	// encodes a different document number, so ID rules must never pick
	// digits from it.
	excludedIDs []string
}

// mrzLines holds the up-to-three MRZ lines by role.
type mrzLines struct {
	idLine    string
	birthLine string
	nameLine  string
}

var eightNineDigits = regexp.MustCompile(`\d{8,9}`)

func newParseContext(rawText, hintedID string) *parseContext {
	upper := strings.ToUpper(rawText)

	var lines []string
	for _, line := range strings.Split(upper, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	ctx := &parseContext{
		raw:      rawText,
		upper:    upper,
		lines:    lines,
		hintedID: models.NormalizeID(hintedID),
	}
	ctx.mrz = classifyMRZ(lines)
	if ctx.mrz.birthLine != "" {
		ctx.excludedIDs = eightNineDigits.FindAllString(ctx.mrz.birthLine, -1)
	}
	return ctx
}

// classifyMRZ picks out the ID/document line, the birth/sex line and the
// name line from the candidate lines. First qualifying line wins each role.
func classifyMRZ(lines []string) mrzLines {
	var mrz mrzLines
	for _, line := range lines {
		if !isMRZLine(line) {
			continue
		}
		switch {
		case mrz.idLine == "" && mrzCountry.MatchString(line):
			mrz.idLine = line
		case mrz.birthLine == "" && mrzBirthSex.MatchString(line):
			mrz.birthLine = line
		case mrz.nameLine == "" && strings.Contains(line, "<") && mrzNameShape.MatchString(line):
			mrz.nameLine = line
		}
	}
	return mrz
}

// isMRZLine reports whether a line looks like machine-readable zone output:
// long enough, and nothing but uppercase letters, digits and filler.
func isMRZLine(line string) bool {
	compact := strings.ReplaceAll(line, " ", "")
	if len(compact) < mrzMinLength {
		return false
	}
	if !mrzCharset.MatchString(line) {
		return false
	}
	return mrzCountry.MatchString(compact) ||
		mrzBirthSex.MatchString(compact) ||
		(strings.Contains(compact, "<") && mrzNameShape.MatchString(compact))
}

// Parse extracts structured fields from one pass of recognized text.
// hintedID is the user-claimed document number; when it shows up at a
// position consistent with the ID slot it is preferred over a
// pattern-extracted candidate, correcting systematic misreads without
// blindly trusting user input.
func Parse(rawText, hintedID string) models.ExtractedFields {
	ctx := newParseContext(rawText, hintedID)

	fields := models.ExtractedFields{
		RawText:     rawText,
		IDNumber:    applyRules(ctx, idRules),
		FullName:    applyRules(ctx, nameRules),
		DateOfBirth: applyRules(ctx, dobRules),
		Sex:         applyRules(ctx, sexRules),
	}
	fields.DistrictOfBirth = labeledValue(ctx, districtLabel)
	fields.PlaceOfIssue = labeledValue(ctx, placeOfIssueLabel)
	fields.DateOfIssue = applyRules(ctx, dateOfIssueRules)
	return fields
}

// applyRules walks an ordered rule list and returns the first hit.
func applyRules(ctx *parseContext, rules []rule) string {
	for _, r := range rules {
		if v, ok := r.extract(ctx); ok {
			return v
		}
	}
	return ""
}
