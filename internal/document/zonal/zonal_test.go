package zonal

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridoc/internal/document/ocr"
	"veridoc/internal/document/preprocess"
)

// cannedEngine records the options it was called with and returns fixed text.
type cannedEngine struct {
	text     string
	err      error
	lastOpts ocr.Options
}

func (e *cannedEngine) ID() string                       { return "tesseract" }
func (e *cannedEngine) Available(_ context.Context) bool { return true }

func (e *cannedEngine) Recognize(_ context.Context, _ string, opts ocr.Options) (string, error) {
	e.lastOpts = opts
	return e.text, e.err
}

func newExtractor(engine ocr.Engine) *Extractor {
	return New(engine, preprocess.Passthrough{}, slog.Default())
}

func TestExtract_UsesConstrainedRecognition(t *testing.T) {
	engine := &cannedEngine{text: "FULL NAMES: OKIYA GEORGE ADISA\n"}
	e := newExtractor(engine)

	_, err := e.Extract(context.Background(), "/tmp/id.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, 6, engine.lastOpts.PageSegMode)
	assert.Contains(t, engine.lastOpts.CharWhitelist, "<")
	assert.Contains(t, engine.lastOpts.CharWhitelist, "0123456789")
}

func TestExtract_LayoutPatternsOutrankParser(t *testing.T) {
	// The parser would read the labeled name; the MRZ triple pattern wins.
	engine := &cannedEngine{text: "FULL NAMES: WRONG PARSE HERE\nOKIYA<<GEORGE<ADISA<<<<<<<<<\nIDKEN280773178<<91203411<835\n070120M1103151<<A98223344<11\n"}
	e := newExtractor(engine)

	fields, err := e.Extract(context.Background(), "/tmp/id.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, "GEORGE ADISA OKIYA", fields.FullName)
	assert.Equal(t, "280773178", fields.IDNumber)
	assert.Equal(t, "2007-01-20", fields.DateOfBirth)
	assert.Equal(t, "zonal", fields.Source)
}

func TestExtract_FallsBackToParserFields(t *testing.T) {
	engine := &cannedEngine{text: "SURNAME: OKIYA\nGIVEN NAMES: GEORGE ADISA\nID NUMBER: 280773178\nDATE OF BIRTH: 20.01.2007\n"}
	e := newExtractor(engine)

	fields, err := e.Extract(context.Background(), "/tmp/id.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, "GEORGE ADISA OKIYA", fields.FullName)
	assert.Equal(t, "280773178", fields.IDNumber)
	assert.Equal(t, "2007-01-20", fields.DateOfBirth)
}

func TestExtract_RecognitionFailurePropagates(t *testing.T) {
	engine := &cannedEngine{err: ocr.NewEngineError(ocr.ErrorBadImage, "tesseract", "unreadable", nil)}
	e := newExtractor(engine)

	_, err := e.Extract(context.Background(), "/tmp/id.jpg", "")
	assert.Error(t, err)
}
