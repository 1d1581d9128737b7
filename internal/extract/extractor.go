package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/selimcan/tagsense/internal/config"
)

// Extractor turns files into plain text suitable for chunking and
// embedding. Unsupported binary formats fall back to filename-only
// text so a file is still findable by name.
type Extractor struct {
	maxBytes   int
	pdfCommand string
	runner     Runner
}

// New creates an extractor from the extraction config.
func New(cfg config.ExtractConfig) *Extractor {
	return &Extractor{
		maxBytes:   int(cfg.MaxContentBytes),
		pdfCommand: cfg.PDFTextCommand,
		runner:     execRunner{},
	}
}

// WithRunner replaces the command runner (used in tests).
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// textExtensions lists extensions always treated as plain text even
// when mime.TypeByExtension does not know them.
var textExtensions = map[string]bool{
	".txt": true, ".log": true, ".csv": true, ".tsv": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".xml": true, ".html": true, ".htm": true, ".ini": true,
	".go": true, ".py": true, ".js": true, ".ts": true, ".rs": true,
	".c": true, ".h": true, ".cpp": true, ".java": true, ".rb": true,
	".sh": true, ".sql": true,
}

// Extract reads the file at path and returns its text content,
// prefixed with the filename so name matches surface in semantic
// search. Oversized content is truncated to the configured cap, never
// rejected. Unknown binary formats return filename-only text.
// Extraction errors (unreadable file, failed conversion) are returned
// to the caller, which records the file as indexed without content.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	var content string
	switch {
	case ext == ".md" || ext == ".markdown":
		raw, err := e.readCapped(path)
		if err != nil {
			return "", err
		}
		content = markdownToText(capRunes(raw, e.maxBytes))

	case ext == ".pdf":
		text, err := e.extractPDF(ctx, path)
		if err != nil {
			return "", err
		}
		content = text

	case textExtensions[ext] || strings.HasPrefix(mime.TypeByExtension(ext), "text/"):
		raw, err := e.readCapped(path)
		if err != nil {
			return "", err
		}
		// Trim to the cap before validating, so a rune split at the
		// read boundary of an oversized file is not mistaken for
		// binary content.
		raw = capRunes(raw, e.maxBytes)
		if !utf8.Valid(raw) {
			// Extension lied; treat as binary.
			return filenameOnly(name), nil
		}
		content = string(raw)

	default:
		return filenameOnly(name), nil
	}

	content = truncate(content, e.maxBytes)
	content = strings.TrimSpace(content)
	if content == "" {
		return filenameOnly(name), nil
	}
	return "File: " + name + "\n\n" + content, nil
}

// readCapped reads at most the configured cap (plus a few bytes so
// truncate can find a rune boundary) from the file.
func (e *Extractor) readCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, int64(e.maxBytes)+utf8.UTFMax))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return raw, nil
}

// capRunes trims raw to at most max bytes without splitting a rune.
func capRunes(raw []byte, max int) []byte {
	if len(raw) <= max {
		return raw
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut]
}

// truncate cuts s to at most max bytes at a rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func filenameOnly(name string) string {
	return "File: " + name
}
