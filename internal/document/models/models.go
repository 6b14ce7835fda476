// Package models defines the data shapes shared by the document
// extraction pipeline: single-run results, the run set fed to
// consensus voting, and the canonical fields produced by it.
package models

import "strings"

// ExtractedFields is the structured output of a single extraction run.
// Empty string means the field was not found.
type ExtractedFields struct {
	FullName        string `json:"fullName,omitempty"`
	IDNumber        string `json:"idNumber,omitempty"`
	DateOfBirth     string `json:"dateOfBirth,omitempty"`
	Sex             string `json:"sex,omitempty"`
	DistrictOfBirth string `json:"districtOfBirth,omitempty"`
	PlaceOfIssue    string `json:"placeOfIssue,omitempty"`
	DateOfIssue     string `json:"dateOfIssue,omitempty"`

	// RawText is the full recognized text the fields were parsed from.
	RawText string `json:"rawText,omitempty"`

	// Source labels the engine and preprocessing pass that produced the run.
	Source string `json:"source,omitempty"`
}

// Empty reports whether no field of interest was extracted.
func (f ExtractedFields) Empty() bool {
	return f.FullName == "" && f.IDNumber == "" && f.DateOfBirth == ""
}

// RunSet holds every successful extraction run for a document, in the
// order the runs completed. Consensus voting and claim matching both
// consume the full set, never just the winner.
type RunSet []ExtractedFields

// CanonicalFields is the consensus result of one or more extraction runs.
type CanonicalFields struct {
	ExtractedFields

	// Method names the pipeline combination that produced the result.
	Method string `json:"method,omitempty"`

	// Sources lists every run source that contributed.
	Sources []string `json:"sources,omitempty"`
}

// ExtractOptions carries per-request knobs for the pipeline.
type ExtractOptions struct {
	// HintedID is the user-claimed document number. When present the
	// parser prefers candidates matching it in ambiguous positions.
	HintedID string

	// Model selects the OCR engine; empty selects the default.
	Model string
}

// NormalizeID strips everything but digits from a document number.
func NormalizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// NormalizeName uppercases, strips non-letters and collapses runs of
// whitespace so OCR noise does not defeat comparison.
func NormalizeName(name string) string {
	up := strings.ToUpper(name)
	var b strings.Builder
	for _, r := range up {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
