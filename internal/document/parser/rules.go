package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"veridoc/internal/document/models"
)

// rule is one named extraction attempt for a field. Rules run in priority
// order and the first hit wins, which keeps the fallback cascade explicit
// instead of buried in nested conditionals.
type rule struct {
	name    string
	extract func(ctx *parseContext) (string, bool)
}

// -----------------------------------------------------------------------------
// ID number
// -----------------------------------------------------------------------------

var (
	mrzIDStrict   = regexp.MustCompile(`(?:[1I][DO0]K[E5]N|IDK[E5]N|IDK[YV]A)<*(\d{8,9})`)
	mrzIDFlexible = regexp.MustCompile(`[1I][DO0]K[A-Z0-9<]{0,3}?(\d{8,9})`)
	idNumberLabel = regexp.MustCompile(`ID\s*(?:NUMBER|NO)[:.\s]*([0-9 ]{7,12})`)
	serialLabel   = regexp.MustCompile(`SERIAL\s*(?:NUMBER|NO)[:.\s]*([0-9 ]{7,12})`)
)

// hintWindow is how far past the country token the claimed ID may sit and
// still be treated as occupying the document-number slot.
const hintWindow = 15

var idRules = []rule{
	{name: "hinted-id-in-mrz-slot", extract: func(ctx *parseContext) (string, bool) {
		if len(ctx.hintedID) < 7 || ctx.isExcludedID(ctx.hintedID) {
			return "", false
		}
		compact := compactText(ctx.upper)
		loc := mrzCountry.FindStringIndex(compact)
		if loc == nil {
			return "", false
		}
		end := loc[1] + hintWindow
		if end > len(compact) {
			end = len(compact)
		}
		if strings.Contains(compact[loc[1]:end], ctx.hintedID) {
			return ctx.hintedID, true
		}
		return "", false
	}},
	{name: "mrz-country-token", extract: func(ctx *parseContext) (string, bool) {
		if ctx.mrz.idLine == "" {
			return "", false
		}
		m := mrzIDStrict.FindStringSubmatch(compactText(ctx.mrz.idLine))
		if m == nil || ctx.isExcludedID(m[1]) {
			return "", false
		}
		return m[1], true
	}},
	{name: "mrz-flexible", extract: func(ctx *parseContext) (string, bool) {
		m := mrzIDFlexible.FindStringSubmatch(compactText(ctx.upper))
		if m == nil || ctx.isExcludedID(m[1]) {
			return "", false
		}
		return m[1], true
	}},
	{name: "labeled-id-number", extract: func(ctx *parseContext) (string, bool) {
		return ctx.labeledID(idNumberLabel)
	}},
	{name: "labeled-serial-number", extract: func(ctx *parseContext) (string, bool) {
		return ctx.labeledID(serialLabel)
	}},
	{name: "standalone-digits", extract: func(ctx *parseContext) (string, bool) {
		for _, m := range eightNineDigits.FindAllString(ctx.upper, -1) {
			if ctx.isExcludedID(m) || looksLikeDate(m) {
				continue
			}
			return m, true
		}
		return "", false
	}},
	{name: "hinted-id-in-raw-text", extract: func(ctx *parseContext) (string, bool) {
		if len(ctx.hintedID) < 7 || ctx.isExcludedID(ctx.hintedID) {
			return "", false
		}
		if strings.Contains(compactText(ctx.upper), ctx.hintedID) {
			return ctx.hintedID, true
		}
		return "", false
	}},
}

func (ctx *parseContext) isExcludedID(id string) bool {
	for _, ex := range ctx.excludedIDs {
		if ex == id {
			return true
		}
	}
	return false
}

func (ctx *parseContext) labeledID(label *regexp.Regexp) (string, bool) {
	m := label.FindStringSubmatch(ctx.upper)
	if m == nil {
		return "", false
	}
	id := models.NormalizeID(m[1])
	if len(id) < 8 || len(id) > 9 || ctx.isExcludedID(id) {
		return "", false
	}
	return id, true
}

func compactText(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// looksLikeDate filters digit runs that are plausibly DDMMYYYY or YYYYMMDD
// so issue/birth dates printed without separators are not taken for an ID.
func looksLikeDate(digits string) bool {
	if len(digits) != 8 {
		return false
	}
	d1, _ := strconv.Atoi(digits[:2])
	m1, _ := strconv.Atoi(digits[2:4])
	y1, _ := strconv.Atoi(digits[4:])
	if d1 >= 1 && d1 <= 31 && m1 >= 1 && m1 <= 12 && y1 >= 1900 && y1 <= 2100 {
		return true
	}
	y2, _ := strconv.Atoi(digits[:4])
	m2, _ := strconv.Atoi(digits[4:6])
	d2, _ := strconv.Atoi(digits[6:])
	return y2 >= 1900 && y2 <= 2100 && m2 >= 1 && m2 <= 12 && d2 >= 1 && d2 <= 31
}

// -----------------------------------------------------------------------------
// Full name
// -----------------------------------------------------------------------------

var (
	surnameLabel   = regexp.MustCompile(`SURNAME[:.\s]+([A-Z][A-Z ]{2,})`)
	givenNameLabel = regexp.MustCompile(`GIVEN\s*NAMES?[:.\s]+([A-Z][A-Z ]{2,})`)
	fullNamesLabel = regexp.MustCompile(`FULL\s*NAMES?[:.\s]+([A-Z][A-Z ]{2,})`)
	uppercaseRun   = regexp.MustCompile(`\b[A-Z]{3,}(?: [A-Z]{3,})+\b`)
	letterToken    = regexp.MustCompile(`[A-Z]+`)
)

// boilerplate terms that show up on the card itself and must never be
// mistaken for a person's name. Multi-word terms match as substrings,
// single words match whole tokens only.
var nameBlacklist = []string{
	"REPUBLIC OF KENYA",
	"JAMHURI YA KENYA",
	"NATIONAL IDENTITY CARD",
	"DISTRICT OF BIRTH",
	"PLACE OF ISSUE",
	"DATE OF BIRTH",
	"DATE OF ISSUE",
	"JAMHURI",
	"KENYA",
	"REPUBLIC",
	"KITAMBULISHO",
	"TAIFA",
	"NATIONAL",
	"IDENTITY",
	"CARD",
	"SERIAL",
	"NUMBER",
	"SPECIMEN",
	"SIGNATURE",
	"HOLDER",
	"DISTRICT",
	"DIVISION",
	"LOCATION",
	"BIRTH",
	"ISSUE",
	"MALE",
	"FEMALE",
}

var nameRules = []rule{
	{name: "mrz-name-line", extract: func(ctx *parseContext) (string, bool) {
		if ctx.mrz.nameLine == "" {
			return "", false
		}
		name := parseMRZName(ctx.mrz.nameLine)
		return acceptName(name)
	}},
	{name: "surname-given-labels", extract: func(ctx *parseContext) (string, bool) {
		surname := firstCapture(surnameLabel, ctx.upper)
		given := firstCapture(givenNameLabel, ctx.upper)
		name := strings.TrimSpace(given + " " + surname)
		return acceptName(name)
	}},
	{name: "full-names-label", extract: func(ctx *parseContext) (string, bool) {
		return acceptName(firstCapture(fullNamesLabel, ctx.upper))
	}},
	{name: "uppercase-run-scan", extract: func(ctx *parseContext) (string, bool) {
		for _, line := range ctx.lines {
			for _, candidate := range uppercaseRun.FindAllString(line, -1) {
				if name, ok := acceptName(candidate); ok {
					return name, true
				}
			}
		}
		return "", false
	}},
}

// parseMRZName decodes a SURNAME<<GIVEN<GIVEN style line into
// "GIVEN GIVEN SURNAME" order. Lines without the double separator fall
// back to a longest-token-is-surname heuristic.
func parseMRZName(line string) string {
	line = strings.Trim(compactText(line), "<")
	if line == "" {
		return ""
	}

	if i := strings.Index(line, "<<"); i >= 0 {
		surname := strings.Join(letterToken.FindAllString(line[:i], -1), " ")
		givens := letterToken.FindAllString(line[i+2:], -1)
		return strings.TrimSpace(strings.Join(append(givens, surname), " "))
	}

	tokens := letterToken.FindAllString(line, -1)
	switch len(tokens) {
	case 0, 1:
		return ""
	case 2:
		// Two tokens with a single filler: the longer one is the surname.
		if len(tokens[1]) > len(tokens[0]) {
			return tokens[0] + " " + tokens[1]
		}
		return tokens[1] + " " + tokens[0]
	default:
		surnameIdx := 0
		for i, t := range tokens {
			if len(t) > len(tokens[surnameIdx]) {
				surnameIdx = i
			}
		}
		parts := make([]string, 0, len(tokens))
		for i, t := range tokens {
			if i != surnameIdx {
				parts = append(parts, t)
			}
		}
		return strings.Join(append(parts, tokens[surnameIdx]), " ")
	}
}

func firstCapture(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// acceptName applies the shape check and boilerplate blacklist shared by
// every name rule.
func acceptName(name string) (string, bool) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || !PlausibleName(name) || containsBoilerplate(name) {
		return "", false
	}
	return name, true
}

// PlausibleName reports whether a candidate has the shape of a person's
// name: at least two words, at least two of them three or more letters,
// letters and spaces only, five or more characters overall.
func PlausibleName(name string) bool {
	name = strings.ToUpper(strings.TrimSpace(name))
	if len(name) < 5 {
		return false
	}
	for _, r := range name {
		if (r < 'A' || r > 'Z') && r != ' ' {
			return false
		}
	}
	words := strings.Fields(name)
	if len(words) < 2 {
		return false
	}
	long := 0
	for _, w := range words {
		if len(w) >= 3 {
			long++
		}
	}
	return long >= 2
}

func containsBoilerplate(name string) bool {
	up := strings.ToUpper(name)
	tokens := strings.Fields(up)
	for _, term := range nameBlacklist {
		if strings.Contains(term, " ") {
			if strings.Contains(up, term) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == term {
				return true
			}
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Date of birth
// -----------------------------------------------------------------------------

var (
	mrzBirthDigits = regexp.MustCompile(`^(\d{6})([MF])`)
	dobLabel       = regexp.MustCompile(`DATE\s*OF\s*BIRTH[:.\s]*(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})`)
	genericDate    = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})\b`)
	issueContext   = regexp.MustCompile(`ISSUE[^\n]{0,25}$`)
)

var dobRules = []rule{
	{name: "mrz-birth-sex-line", extract: func(ctx *parseContext) (string, bool) {
		if ctx.mrz.birthLine == "" {
			return "", false
		}
		m := mrzBirthDigits.FindStringSubmatch(compactText(ctx.mrz.birthLine))
		if m == nil {
			return "", false
		}
		date := dateFromYYMMDD(m[1])
		return date, date != ""
	}},
	{name: "labeled-date-of-birth", extract: func(ctx *parseContext) (string, bool) {
		m := dobLabel.FindStringSubmatch(ctx.upper)
		if m == nil {
			return "", false
		}
		date := dateFromDMY(m[1], m[2], m[3])
		return date, date != ""
	}},
	{name: "generic-date", extract: func(ctx *parseContext) (string, bool) {
		for _, loc := range genericDate.FindAllStringSubmatchIndex(ctx.upper, -1) {
			// Skip dates sitting next to an ISSUE label.
			if issueContext.MatchString(ctx.upper[:loc[0]]) {
				continue
			}
			m := genericDate.FindStringSubmatch(ctx.upper[loc[0]:loc[1]])
			if date := dateFromDMY(m[1], m[2], m[3]); date != "" {
				return date, true
			}
		}
		return "", false
	}},
}

// dateFromYYMMDD expands an MRZ six-digit date, inferring the century:
// years above 50 are 19xx, the rest 20xx.
func dateFromYYMMDD(digits string) string {
	yy, _ := strconv.Atoi(digits[:2])
	mm, _ := strconv.Atoi(digits[2:4])
	dd, _ := strconv.Atoi(digits[4:6])
	year := 2000 + yy
	if yy > 50 {
		year = 1900 + yy
	}
	return validDate(year, mm, dd)
}

func dateFromDMY(d, m, y string) string {
	day, _ := strconv.Atoi(d)
	month, _ := strconv.Atoi(m)
	year, _ := strconv.Atoi(y)
	if year < 100 {
		if year > 50 {
			year += 1900
		} else {
			year += 2000
		}
	}
	return validDate(year, month, day)
}

// validDate returns the ISO form when the components name a real calendar
// day, empty otherwise.
func validDate(year, month, day int) string {
	if year < 1900 || year > 2100 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// IsISODate reports whether s is a valid YYYY-MM-DD calendar date.
func IsISODate(s string) bool {
	t, err := time.Parse("2006-01-02", s)
	return err == nil && t.Format("2006-01-02") == s
}

// NormalizeDate coerces a date in any accepted form (YYYY-MM-DD or
// D/M/Y with ./-/ separators) to YYYY-MM-DD. Returns "" when the input
// is not a real date.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsISODate(s) {
		return s
	}
	if m := genericDate.FindStringSubmatch(s); m != nil {
		return dateFromDMY(m[1], m[2], m[3])
	}
	return ""
}

// -----------------------------------------------------------------------------
// Sex, district, place and date of issue
// -----------------------------------------------------------------------------

var (
	sexLabel          = regexp.MustCompile(`\bSEX[:.\s]*([MF])(?:ALE|EMALE)?\b`)
	districtLabel     = regexp.MustCompile(`DISTRICT\s*OF\s*BIRTH[:.\s]+([A-Z][A-Z ]{2,})`)
	placeOfIssueLabel = regexp.MustCompile(`PLACE\s*OF\s*ISSUE[:.\s]+([A-Z][A-Z ]{2,})`)
	issueDateLabel    = regexp.MustCompile(`DATE\s*OF\s*ISSUE[:.\s]*(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})`)
)

var sexRules = []rule{
	{name: "labeled-sex", extract: func(ctx *parseContext) (string, bool) {
		m := sexLabel.FindStringSubmatch(ctx.upper)
		if m == nil {
			return "", false
		}
		return m[1], true
	}},
	{name: "mrz-sex-letter", extract: func(ctx *parseContext) (string, bool) {
		if ctx.mrz.birthLine == "" {
			return "", false
		}
		m := mrzBirthDigits.FindStringSubmatch(compactText(ctx.mrz.birthLine))
		if m == nil {
			return "", false
		}
		return m[2], true
	}},
}

var dateOfIssueRules = []rule{
	{name: "labeled-date-of-issue", extract: func(ctx *parseContext) (string, bool) {
		m := issueDateLabel.FindStringSubmatch(ctx.upper)
		if m == nil {
			return "", false
		}
		date := dateFromDMY(m[1], m[2], m[3])
		return date, date != ""
	}},
}

func labeledValue(ctx *parseContext, label *regexp.Regexp) string {
	return firstCapture(label, ctx.upper)
}
