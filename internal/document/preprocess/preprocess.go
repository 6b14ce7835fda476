// Package preprocess produces enhanced variants of a source image for
// recognition. The multi-run pipeline feeds each variant to the engine
// separately, so variants are written as new temp files and the source
// image is never mutated.
package preprocess

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Options selects which enhancements to apply in a single pass.
type Options struct {
	EnhanceLighting      bool
	Denoise              bool
	AggressiveSharpening bool
}

// Variant is one pre-processed rendition of the source image.
type Variant struct {
	Path  string
	Label string
}

// Normalizer prepares images for recognition.
type Normalizer interface {
	// Preprocess writes an enhanced copy of the image and returns its path.
	Preprocess(ctx context.Context, imagePath string, opts Options) (string, error)

	// Variants produces the standard set of differently enhanced copies.
	// Implementations degrade to returning the original image when they
	// cannot do better; they never fail outright.
	Variants(ctx context.Context, imagePath string) ([]Variant, error)
}

// The standard variant set: balanced enhancement, aggressive sharpening
// for low-contrast text, lighting-only for overexposed scans.
var variantSpecs = []struct {
	label string
	opts  Options
}{
	{label: "standard", opts: Options{EnhanceLighting: true, Denoise: true}},
	{label: "sharp", opts: Options{AggressiveSharpening: true, Denoise: true}},
	{label: "bright", opts: Options{EnhanceLighting: true}},
}

// Magick shells out to ImageMagick. The binary is probed once at
// construction; when missing, every call degrades to the original image.
type Magick struct {
	cmd     string
	tempDir string
	logger  *slog.Logger
}

// NewMagick probes for the ImageMagick binary. An explicit binary path
// overrides the default magick/convert lookup.
func NewMagick(binary string, logger *slog.Logger) *Magick {
	m := &Magick{tempDir: os.TempDir(), logger: logger}

	candidates := []string{"magick", "convert"}
	if binary != "" {
		candidates = []string{binary}
	}
	for _, c := range candidates {
		if resolved, err := exec.LookPath(c); err == nil {
			m.cmd = resolved
			break
		}
	}
	return m
}

// Available reports whether the ImageMagick binary was found.
func (m *Magick) Available() bool { return m.cmd != "" }

func (m *Magick) Preprocess(ctx context.Context, imagePath string, opts Options) (string, error) {
	if m.cmd == "" {
		return imagePath, nil
	}

	out, err := os.CreateTemp(m.tempDir, "preprocess-*"+filepath.Ext(imagePath))
	if err != nil {
		return "", fmt.Errorf("create variant file: %w", err)
	}
	out.Close()

	args := []string{imagePath, "-colorspace", "Gray", "-resize", "1500x>", "-normalize"}
	if opts.EnhanceLighting {
		args = append(args, "-brightness-contrast", "10x15", "-gamma", "1.2")
	}
	if opts.Denoise {
		args = append(args, "-despeckle")
	}
	if opts.AggressiveSharpening {
		args = append(args, "-sharpen", "0x2")
	} else {
		args = append(args, "-unsharp", "0x1")
	}
	args = append(args, out.Name())

	cmd := exec.CommandContext(ctx, m.cmd, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("imagemagick failed: %w: %s", err, output)
	}
	return out.Name(), nil
}

// Variants produces the standard three renditions. Per-variant failures
// are logged and skipped; if nothing survives, the original image is
// returned as the single variant so recognition can still proceed.
func (m *Magick) Variants(ctx context.Context, imagePath string) ([]Variant, error) {
	var variants []Variant
	for _, spec := range variantSpecs {
		path, err := m.Preprocess(ctx, imagePath, spec.opts)
		if err != nil {
			m.logger.WarnContext(ctx, "preprocessing variant failed",
				"variant", spec.label,
				"error", err,
			)
			continue
		}
		variants = append(variants, Variant{Path: path, Label: spec.label})
	}

	if len(variants) == 0 {
		variants = append(variants, Variant{Path: imagePath, Label: "original"})
	}
	return variants, nil
}

// Passthrough is the degraded normalizer used when no image tooling is
// installed: every call returns the untouched source image.
type Passthrough struct{}

func (Passthrough) Preprocess(_ context.Context, imagePath string, _ Options) (string, error) {
	return imagePath, nil
}

func (Passthrough) Variants(_ context.Context, imagePath string) ([]Variant, error) {
	return []Variant{{Path: imagePath, Label: "original"}}, nil
}
