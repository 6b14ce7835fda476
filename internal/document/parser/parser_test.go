package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleCard mimics a full tesseract read of a national ID card,
// human-readable region first, MRZ at the bottom.
const sampleCard = `JAMHURI YA KENYA
REPUBLIC OF KENYA
NATIONAL IDENTITY CARD
SERIAL NUMBER: 33221100
ID NUMBER: 280773178
FULL NAMES: OKIYA GEORGE ADISA
DATE OF BIRTH: 20.01.2007
SEX: MALE
DISTRICT OF BIRTH: BUSIA
PLACE OF ISSUE: NAIROBI
DATE OF ISSUE: 15.03.2023
IDKEN280773178<<91203411<835
070120M1103151<<A98223344<11
OKIYA<<GEORGE<ADISA<<<<<<<<<
`

func TestParse_FullCard(t *testing.T) {
	fields := Parse(sampleCard, "")

	assert.Equal(t, "280773178", fields.IDNumber)
	assert.Equal(t, "GEORGE ADISA OKIYA", fields.FullName)
	assert.Equal(t, "2007-01-20", fields.DateOfBirth)
	assert.Equal(t, "M", fields.Sex)
	assert.Equal(t, "BUSIA", fields.DistrictOfBirth)
	assert.Equal(t, "NAIROBI", fields.PlaceOfIssue)
	assert.Equal(t, "2023-03-15", fields.DateOfIssue)
	assert.Equal(t, sampleCard, fields.RawText)
}

func TestParse_IDNumber(t *testing.T) {
	t.Run("mrz country token", func(t *testing.T) {
		fields := Parse("IDKEN280773178<<91203411<835<<<\n", "")
		assert.Equal(t, "280773178", fields.IDNumber)
	})

	t.Run("tolerates country token misreads", func(t *testing.T) {
		for _, raw := range []string{
			"IDK5N280773178<<91203411<835<<<",
			"1DKEN280773178<<91203411<835<<<",
			"I0KEN280773178<<91203411<835<<<",
		} {
			fields := Parse(raw+"\n", "")
			assert.Equal(t, "280773178", fields.IDNumber, "raw: %s", raw)
		}
	})

	t.Run("hinted id preferred when sitting in the mrz slot", func(t *testing.T) {
		raw := "IDKEN 280773178<<91203411<835<<<\n"
		fields := Parse(raw, "280773178")
		assert.Equal(t, "280773178", fields.IDNumber)
	})

	t.Run("hinted id ignored when absent from the text", func(t *testing.T) {
		raw := "IDKEN280773178<<91203411<835<<<\n"
		fields := Parse(raw, "123456789")
		assert.Equal(t, "280773178", fields.IDNumber)
	})

	t.Run("labeled id number fallback", func(t *testing.T) {
		fields := Parse("ID NUMBER: 280 773 178\n", "")
		assert.Equal(t, "280773178", fields.IDNumber)
	})

	t.Run("serial number fallback", func(t *testing.T) {
		fields := Parse("SERIAL NUMBER: 28077317\n", "")
		assert.Equal(t, "28077317", fields.IDNumber)
	})

	t.Run("standalone digits fallback", func(t *testing.T) {
		fields := Parse("some noise 280773178 more noise\n", "")
		assert.Equal(t, "280773178", fields.IDNumber)
	})

	t.Run("digits from the mrz birth line are never taken", func(t *testing.T) {
		raw := "070120M1103151<<A98223344<11<<<<\nnoise text here\n"
		fields := Parse(raw, "")
		assert.Empty(t, fields.IDNumber)
	})

	t.Run("date-like digit runs are skipped", func(t *testing.T) {
		fields := Parse("issued 15032023 in nairobi\n", "")
		assert.Empty(t, fields.IDNumber)
	})
}

func TestParse_FullName(t *testing.T) {
	t.Run("mrz double separator puts surname last", func(t *testing.T) {
		raw := "OKIYA<<GEORGE<ADISA<<<<<<<<<<<<\n"
		fields := Parse(raw, "")
		assert.Equal(t, "GEORGE ADISA OKIYA", fields.FullName)
	})

	t.Run("surname and given name labels", func(t *testing.T) {
		raw := "SURNAME: OKIYA\nGIVEN NAMES: GEORGE ADISA\n"
		fields := Parse(raw, "")
		assert.Equal(t, "GEORGE ADISA OKIYA", fields.FullName)
	})

	t.Run("full names label", func(t *testing.T) {
		fields := Parse("FULL NAMES: OKIYA GEORGE ADISA\n", "")
		assert.Equal(t, "OKIYA GEORGE ADISA", fields.FullName)
	})

	t.Run("uppercase run last resort", func(t *testing.T) {
		fields := Parse("xx yy\nOKIYA GEORGE ADISA\nzz\n", "")
		assert.Equal(t, "OKIYA GEORGE ADISA", fields.FullName)
	})

	t.Run("document boilerplate is never a name", func(t *testing.T) {
		raw := "JAMHURI YA KENYA\nREPUBLIC OF KENYA\nNATIONAL IDENTITY CARD\n"
		fields := Parse(raw, "")
		assert.Empty(t, fields.FullName)
	})

	t.Run("single word rejected by shape check", func(t *testing.T) {
		fields := Parse("FULL NAMES: OKIYA\n", "")
		assert.Empty(t, fields.FullName)
	})
}

func TestParse_DateOfBirth(t *testing.T) {
	t.Run("mrz birth line with century inference", func(t *testing.T) {
		// 070120 -> 2007, 851231 -> 1985
		fields := Parse("070120M1103151<<A98223344<11<<<<\n", "")
		assert.Equal(t, "2007-01-20", fields.DateOfBirth)

		fields = Parse("851231F1103151<<A98223344<11<<<<\n", "")
		assert.Equal(t, "1985-12-31", fields.DateOfBirth)
	})

	t.Run("labeled date with dot separators", func(t *testing.T) {
		fields := Parse("DATE OF BIRTH: 20.01.2007\n", "")
		assert.Equal(t, "2007-01-20", fields.DateOfBirth)
	})

	t.Run("labeled date with slash separators and short year", func(t *testing.T) {
		fields := Parse("DATE OF BIRTH: 1/2/85\n", "")
		assert.Equal(t, "1985-02-01", fields.DateOfBirth)
	})

	t.Run("generic date skips issue dates", func(t *testing.T) {
		fields := Parse("DATE OF ISSUE: 15.03.2023\nborn 20/01/2007 here\n", "")
		assert.Equal(t, "2007-01-20", fields.DateOfBirth)
	})

	t.Run("impossible date yields nothing", func(t *testing.T) {
		fields := Parse("DATE OF BIRTH: 31.02.2007\n", "")
		assert.Empty(t, fields.DateOfBirth)
	})
}

func TestPlausibleName(t *testing.T) {
	assert.True(t, PlausibleName("OKIYA GEORGE ADISA"))
	assert.True(t, PlausibleName("JANE DOE"))
	assert.False(t, PlausibleName("OKIYA"))
	assert.False(t, PlausibleName("J D"))
	assert.False(t, PlausibleName("OKIYA 123"))
	assert.False(t, PlausibleName("OKIYA-GEORGE ADISA"))
	assert.False(t, PlausibleName(""))
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2007-01-20", NormalizeDate("2007-01-20"))
	assert.Equal(t, "2007-01-20", NormalizeDate("20/01/2007"))
	assert.Equal(t, "2007-01-20", NormalizeDate("20.1.07"))
	assert.Empty(t, NormalizeDate("2007-02-31"))
	assert.Empty(t, NormalizeDate("not a date"))
	assert.Empty(t, NormalizeDate(""))
}

func TestParse_NeverFails(t *testing.T) {
	for _, raw := range []string{"", "\n\n\n", "????", "1234"} {
		fields := Parse(raw, "")
		require.NotNil(t, fields)
		assert.Empty(t, fields.IDNumber)
		assert.Empty(t, fields.FullName)
	}
}
