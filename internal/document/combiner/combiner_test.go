package combiner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridoc/internal/document/models"
)

func ocrFixture() *models.CanonicalFields {
	return &models.CanonicalFields{
		ExtractedFields: models.ExtractedFields{
			FullName:    "GEORGE ADISA OKIYA",
			IDNumber:    "280773178",
			DateOfBirth: "2007-01-20",
			Sex:         "M",
			RawText:     "ocr raw text",
			Source:      "run-0-standard",
		},
		Method:  "multi-ocr",
		Sources: []string{"run-0-standard", "run-1-sharp"},
	}
}

func zonalFixture() *models.ExtractedFields {
	return &models.ExtractedFields{
		FullName:        "GEORGE ADISA OKIYA",
		IDNumber:        "280773178",
		DateOfBirth:     "2007-01-20",
		DistrictOfBirth: "NAIROBI",
		RawText:         "zonal raw text",
		Source:          "zonal",
	}
}

func TestCombine_BothStagesMissing(t *testing.T) {
	_, _, err := Combine(nil, nil, nil)
	require.ErrorIs(t, err, ErrNoExtraction)
}

func TestCombine_ZonalOnly(t *testing.T) {
	zonal := zonalFixture()

	canonical, runs, err := Combine(nil, nil, zonal)
	require.NoError(t, err)

	assert.Equal(t, "zonal-only", canonical.Method)
	assert.Equal(t, []string{"zonal"}, canonical.Sources)
	assert.Equal(t, zonal.FullName, canonical.FullName)
	require.Len(t, runs, 1)
	assert.Equal(t, "zonal", runs[0].Source)
}

func TestCombine_OCROnly(t *testing.T) {
	ocr := ocrFixture()
	runsIn := models.RunSet{ocr.ExtractedFields}

	canonical, runs, err := Combine(ocr, runsIn, nil)
	require.NoError(t, err)

	assert.Equal(t, "multi-ocr", canonical.Method)
	assert.Equal(t, ocr.FullName, canonical.FullName)
	assert.Len(t, runs, 1)
}

func TestCombine_BothStages(t *testing.T) {
	ocr := ocrFixture()
	runsIn := models.RunSet{ocr.ExtractedFields, ocr.ExtractedFields}
	zonal := zonalFixture()

	canonical, runs, err := Combine(ocr, runsIn, zonal)
	require.NoError(t, err)

	assert.Equal(t, "combined (multi-ocr + zonal)", canonical.Method)
	assert.Equal(t, []string{"run-0-standard", "run-1-sharp", "zonal"}, canonical.Sources)
	assert.Equal(t, "combined", canonical.Source)

	// Zonal supplies fields the consensus pass missed.
	assert.Equal(t, "NAIROBI", canonical.DistrictOfBirth)
	assert.Equal(t, "M", canonical.Sex)

	// The zonal pass is appended as one additional pseudo-run.
	require.Len(t, runs, 3)
	assert.Equal(t, "zonal", runs[2].Source)

	assert.Contains(t, canonical.RawText, "ocr raw text")
	assert.Contains(t, canonical.RawText, "zonal raw text")
}

func TestCombine_NameDisagreement(t *testing.T) {
	t.Run("higher quality record wins", func(t *testing.T) {
		ocr := ocrFixture()
		ocr.FullName = "REPUBLIC KE"
		ocr.IDNumber = "12"
		ocr.DateOfBirth = "20.01.2007"
		zonal := zonalFixture()

		canonical, _, err := Combine(ocr, nil, zonal)
		require.NoError(t, err)
		assert.Equal(t, "GEORGE ADISA OKIYA", canonical.FullName)
	})

	t.Run("quality tie keeps zonal", func(t *testing.T) {
		ocr := ocrFixture()
		ocr.FullName = "PETER KAMAU NJOROGE"
		zonal := zonalFixture()
		zonal.FullName = "JAMES OTIENO OCHIENG"

		canonical, _, err := Combine(ocr, nil, zonal)
		require.NoError(t, err)
		assert.Equal(t, "JAMES OTIENO OCHIENG", canonical.FullName)
	})

	t.Run("near-identical names still resolved by quality", func(t *testing.T) {
		ocr := ocrFixture()
		ocr.FullName = "GEORGE ADISA OKIY"
		ocr.IDNumber = "2807"
		ocr.DateOfBirth = "20.01.2007"
		zonal := zonalFixture()

		canonical, _, err := Combine(ocr, nil, zonal)
		require.NoError(t, err)
		assert.Equal(t, "GEORGE ADISA OKIYA", canonical.FullName)
	})

	t.Run("near-identical names keep the higher-quality ocr form", func(t *testing.T) {
		ocr := ocrFixture()
		zonal := zonalFixture()
		zonal.FullName = "GEORGE ADISA OKIYO"
		zonal.IDNumber = "28"
		zonal.DateOfBirth = "20.01.2007"

		canonical, _, err := Combine(ocr, nil, zonal)
		require.NoError(t, err)
		assert.Equal(t, "GEORGE ADISA OKIYA", canonical.FullName)
	})

	t.Run("empty side yields to the other", func(t *testing.T) {
		ocr := ocrFixture()
		ocr.FullName = ""

		canonical, _, err := Combine(ocr, nil, zonalFixture())
		require.NoError(t, err)
		assert.Equal(t, "GEORGE ADISA OKIYA", canonical.FullName)
	})
}

func TestCombine_IDDisagreement(t *testing.T) {
	t.Run("exact match keeps ocr value", func(t *testing.T) {
		canonical, _, err := Combine(ocrFixture(), nil, zonalFixture())
		require.NoError(t, err)
		assert.Equal(t, "280773178", canonical.IDNumber)
	})

	t.Run("shape-valid side wins", func(t *testing.T) {
		ocr := ocrFixture()
		ocr.IDNumber = "28077"
		zonal := zonalFixture()

		canonical, _, err := Combine(ocr, nil, zonal)
		require.NoError(t, err)
		assert.Equal(t, "280773178", canonical.IDNumber)
	})

	t.Run("both shape-valid defaults to ocr", func(t *testing.T) {
		ocr := ocrFixture()
		zonal := zonalFixture()
		zonal.IDNumber = "987654321"

		canonical, _, err := Combine(ocr, nil, zonal)
		require.NoError(t, err)
		assert.Equal(t, "280773178", canonical.IDNumber)
	})
}

func TestCombine_DOBDisagreement(t *testing.T) {
	ocr := ocrFixture()
	ocr.DateOfBirth = "21.01.2007"
	zonal := zonalFixture()

	canonical, _, err := Combine(ocr, nil, zonal)
	require.NoError(t, err)
	assert.Equal(t, "2007-01-20", canonical.DateOfBirth)
}
