package extract

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its stdout. It
// exists so tests can fake the pdftotext binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s not found (install poppler-utils): %w", name, err)
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

// extractPDF converts a PDF to text using the configured pdftotext
// command, writing to stdout ("-"). A missing binary or conversion
// failure is an extraction error.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, e.pdfCommand, "-layout", path, "-")
	if err != nil {
		return "", fmt.Errorf("converting %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}
