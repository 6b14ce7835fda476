package face

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	dErrors "veridoc/pkg/domain-errors"
)

// PythonBackend shells out to the face runner script with a model id.
// The script prints one JSON object on stdout:
//
//	{"similarity": 0.83, "id_has_face": true, "selfie_has_face": true}
//
// or {"error": "..."} on failure. Interpreter and script presence are
// probed once at construction and cached; Refresh re-probes.
type PythonBackend struct {
	model   string
	binary  string
	script  string
	timeout time.Duration
	logger  *slog.Logger

	resolved string
}

func NewPythonBackend(model, binary, script string, timeout time.Duration, logger *slog.Logger) *PythonBackend {
	if binary == "" {
		binary = "python3"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	b := &PythonBackend{
		model:   model,
		binary:  binary,
		script:  script,
		timeout: timeout,
		logger:  logger,
	}
	b.Refresh()
	return b
}

// Refresh re-runs the interpreter and script probe.
func (b *PythonBackend) Refresh() {
	b.resolved = ""
	if b.script == "" {
		return
	}
	if _, err := os.Stat(b.script); err != nil {
		return
	}
	if resolved, err := exec.LookPath(b.binary); err == nil {
		b.resolved = resolved
	}
}

func (b *PythonBackend) ID() string { return b.model }

func (b *PythonBackend) Available(_ context.Context) bool { return b.resolved != "" }

type runnerOutput struct {
	Similarity    float64 `json:"similarity"`
	IDHasFace     bool    `json:"id_has_face"`
	SelfieHasFace bool    `json:"selfie_has_face"`
	Error         string  `json:"error"`
}

func (b *PythonBackend) Compare(ctx context.Context, idImagePath, selfiePath string) (Result, error) {
	if b.resolved == "" {
		return Result{}, dErrors.New(dErrors.CodeUnavailable, b.model+" backend not installed")
	}

	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, b.resolved, b.script,
		"--model", b.model,
		"--id-image", idImagePath,
		"--selfie", selfiePath,
	)
	output, err := cmd.Output()
	if err != nil {
		if runCtx.Err() != nil {
			return Result{}, dErrors.Wrap(runCtx.Err(), dErrors.CodeTimeout, b.model+" comparison timed out")
		}
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal,
			fmt.Sprintf("%s runner failed: %s", b.model, detail))
	}

	var parsed runnerOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, b.model+" runner produced invalid output")
	}
	if parsed.Error != "" {
		return Result{}, dErrors.New(dErrors.CodeInternal, b.model+" runner error: "+parsed.Error)
	}

	b.logger.DebugContext(ctx, "face comparison complete",
		"model", b.model,
		"similarity", parsed.Similarity,
		"id_has_face", parsed.IDHasFace,
		"selfie_has_face", parsed.SelfieHasFace,
	)
	return Result{
		Similarity:    parsed.Similarity,
		IDHasFace:     parsed.IDHasFace,
		SelfieHasFace: parsed.SelfieHasFace,
	}, nil
}
