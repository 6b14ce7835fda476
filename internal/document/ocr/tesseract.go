package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const tesseractID = "tesseract"

// Tesseract runs the tesseract CLI on image files. The binary location is
// probed once at construction and cached; Refresh re-probes for tests and
// long-lived processes that gain the binary later.
type Tesseract struct {
	cmd     string
	paths   []string
	tempDir string
	logger  *slog.Logger
}

// NewTesseract probes the given candidate paths (falling back to PATH
// lookup) and returns an engine. A missing binary is not an error; the
// engine just reports unavailable.
func NewTesseract(paths []string, logger *slog.Logger) *Tesseract {
	t := &Tesseract{
		paths:   paths,
		tempDir: os.TempDir(),
		logger:  logger,
	}
	t.Refresh()
	return t
}

// Refresh re-runs the binary probe.
func (t *Tesseract) Refresh() {
	t.cmd = ""
	for _, p := range t.paths {
		if strings.ContainsRune(p, os.PathSeparator) {
			if _, err := os.Stat(p); err == nil {
				t.cmd = p
				return
			}
			continue
		}
		if resolved, err := exec.LookPath(p); err == nil {
			t.cmd = resolved
			return
		}
	}
	if resolved, err := exec.LookPath("tesseract"); err == nil {
		t.cmd = resolved
	}
}

func (t *Tesseract) ID() string { return tesseractID }

func (t *Tesseract) Available(_ context.Context) bool { return t.cmd != "" }

// Recognize shells out to tesseract and reads the text file it produces.
// The output artifact is removed before returning, success or not.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string, opts Options) (string, error) {
	if t.cmd == "" {
		return "", NewEngineError(ErrorUnavailable, tesseractID, "binary not found", nil)
	}

	outBase, err := os.CreateTemp(t.tempDir, "ocr-out-*")
	if err != nil {
		return "", NewEngineError(ErrorInternal, tesseractID, "create temp output", err)
	}
	outBase.Close()
	os.Remove(outBase.Name())

	outputPath := outBase.Name() + ".txt"
	defer os.Remove(outputPath)

	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}

	args := []string{imagePath, outBase.Name(), "-l", lang}
	if opts.PageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(opts.PageSegMode))
	}
	if opts.CharWhitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+opts.CharWhitelist)
	}

	cmd := exec.CommandContext(ctx, t.cmd, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", NewEngineError(ErrorTimeout, tesseractID, "recognition cancelled", ctx.Err())
		}
		return "", NewEngineError(ErrorBadImage, tesseractID,
			fmt.Sprintf("tesseract failed: %s", strings.TrimSpace(string(output))), err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return "", NewEngineError(ErrorInternal, tesseractID, "read recognition output", err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", NewEngineError(ErrorEmptyResult, tesseractID, "no text recognized", nil)
	}

	t.logger.DebugContext(ctx, "tesseract recognition complete",
		"image", filepath.Base(imagePath),
		"chars", len(text),
	)
	return text, nil
}
