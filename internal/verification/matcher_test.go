package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	document "veridoc/internal/document/models"
	"veridoc/internal/verification/models"
)

func cardRuns() document.RunSet {
	return document.RunSet{
		{
			FullName:    "GEORGE ADISA OKIYA",
			IDNumber:    "280773178",
			DateOfBirth: "2007-01-20",
			RawText:     "JAMHURI YA KENYA\nFULL NAMES OKIYA GEORGE ADISA\nID NUMBER 280773178\nDATE OF BIRTH 20.01.2007",
			Source:      "run-0-standard",
		},
		{
			FullName:    "GEORGE ADISA OKIYA",
			IDNumber:    "280773178",
			DateOfBirth: "2007-01-20",
			RawText:     "IDKEN280773178<<91203411<835\n070120M1103151<<A98223344<11\nOKIYA<<GEORGE<ADISA<<<<<<<<<",
			Source:      "zonal",
		},
	}
}

func okiyaClaim() models.Claim {
	return models.Claim{
		FullName:    "OKIYA GEORGE ADISA",
		NationalID:  "280773178",
		DateOfBirth: "2007-01-20",
		PhoneNumber: "+254700000001",
	}
}

func TestMatch_AllFieldsAgree(t *testing.T) {
	result := Match(cardRuns(), okiyaClaim())

	assert.True(t, result.IsValid)
	assert.True(t, result.HasExactIDMatch)
	assert.False(t, result.IDNumberCritical)
	assert.ElementsMatch(t, []string{FieldIDNumber, FieldName, FieldDateOfBirth}, result.MatchedFields)
	assert.Empty(t, result.Errors)
}

func TestMatch_IDNumber(t *testing.T) {
	t.Run("exact normalized match", func(t *testing.T) {
		claim := okiyaClaim()
		claim.NationalID = "280 773 178"

		result := Match(cardRuns(), claim)
		assert.True(t, result.Matched(FieldIDNumber))
	})

	t.Run("found only in raw text", func(t *testing.T) {
		runs := document.RunSet{{
			RawText: "garbled header\nID NUMBER 280773178\ngarbled footer",
			Source:  "run-0-standard",
		}}

		result := Match(runs, okiyaClaim())
		assert.True(t, result.Matched(FieldIDNumber))
	})

	t.Run("absent everywhere", func(t *testing.T) {
		claim := okiyaClaim()
		claim.NationalID = "123456789"

		result := Match(cardRuns(), claim)
		assert.False(t, result.Matched(FieldIDNumber))
		assert.False(t, result.HasExactIDMatch)
		assert.True(t, result.IDNumberCritical)
		assert.Contains(t, result.Errors, "id number does not match extracted document data")
	})
}

func TestMatch_Name(t *testing.T) {
	t.Run("token order irrelevant", func(t *testing.T) {
		claim := okiyaClaim()
		claim.FullName = "ADISA OKIYA GEORGE"

		result := Match(cardRuns(), claim)
		assert.True(t, result.Matched(FieldName))
	})

	t.Run("single shared token suffices", func(t *testing.T) {
		claim := okiyaClaim()
		claim.FullName = "OKIYA PETERSON"

		result := Match(cardRuns(), claim)
		assert.True(t, result.Matched(FieldName))
	})

	t.Run("fuzzy token match recorded as similar", func(t *testing.T) {
		runs := document.RunSet{{
			FullName: "GEORGE ADISA OKIYO",
			Source:   "run-0-standard",
		}}
		claim := okiyaClaim()
		claim.FullName = "OKIYA DIFFERENT PERSON"

		result := Match(runs, claim)
		require.True(t, result.Matched(FieldName))
		require.NotEmpty(t, result.SimilarMatches)
		assert.Equal(t, FieldName, result.SimilarMatches[0].Field)
		assert.GreaterOrEqual(t, result.SimilarMatches[0].Similarity, tokenSimilarity)
	})

	t.Run("name found only in raw text", func(t *testing.T) {
		runs := document.RunSet{{
			RawText: "SERIAL 33221100\nOKIYA GEORGE ADISA\n280773178",
			Source:  "run-0-standard",
		}}

		result := Match(runs, okiyaClaim())
		assert.True(t, result.Matched(FieldName))
	})

	t.Run("unrelated name rejected", func(t *testing.T) {
		claim := okiyaClaim()
		claim.FullName = "XAVIER QUENTIN BLORP"

		result := Match(cardRuns(), claim)
		assert.False(t, result.Matched(FieldName))
	})
}

func TestMatch_DateOfBirth(t *testing.T) {
	t.Run("separator differences normalized away", func(t *testing.T) {
		claim := okiyaClaim()
		claim.DateOfBirth = "20/01/2007"

		result := Match(cardRuns(), claim)
		assert.True(t, result.Matched(FieldDateOfBirth))
	})

	t.Run("different date rejected", func(t *testing.T) {
		claim := okiyaClaim()
		claim.DateOfBirth = "1999-09-09"

		result := Match(cardRuns(), claim)
		assert.False(t, result.Matched(FieldDateOfBirth))
	})

	t.Run("no fuzzy tolerance on dates", func(t *testing.T) {
		claim := okiyaClaim()
		claim.DateOfBirth = "2007-01-21"

		result := Match(cardRuns(), claim)
		assert.False(t, result.Matched(FieldDateOfBirth))
	})
}

func TestMatch_SingleRunTolerated(t *testing.T) {
	result := Match(cardRuns()[:1], okiyaClaim())
	assert.True(t, result.IsValid)
}

func TestMatch_MinorityRunStillCounts(t *testing.T) {
	// Two runs misread the ID; the one run that agrees with the claim
	// is enough.
	runs := document.RunSet{
		{IDNumber: "280773170", Source: "run-0-standard"},
		{IDNumber: "280773171", Source: "run-1-sharp"},
		{IDNumber: "280773178", Source: "run-2-bright"},
	}

	result := Match(runs, okiyaClaim())
	assert.True(t, result.Matched(FieldIDNumber))
}

func TestNormalizeID_Idempotent(t *testing.T) {
	for _, input := range []string{"280 773 178", "ID-280773178", "280773178", ""} {
		once := document.NormalizeID(input)
		assert.Equal(t, once, document.NormalizeID(once))
	}
}
