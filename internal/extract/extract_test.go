package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/selimcan/tagsense/internal/config"
)

func newTestExtractor() *Extractor {
	return New(config.ExtractConfig{MaxContentBytes: 1 << 20, PDFTextCommand: "pdftotext"})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractPlainText(t *testing.T) {
	e := newTestExtractor()
	path := writeFile(t, "notes.txt", "quarterly revenue was up")

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !strings.HasPrefix(got, "File: notes.txt\n\n") {
		t.Errorf("missing filename prefix: %q", got)
	}
	if !strings.Contains(got, "quarterly revenue was up") {
		t.Errorf("missing content: %q", got)
	}
}

func TestExtractMarkdownStripsSyntax(t *testing.T) {
	e := newTestExtractor()
	path := writeFile(t, "readme.md", "# Budget Plan\n\nSee the **2024** [forecast](https://example.com/f).\n\n```\ntotal = 1200\n```\n")

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	for _, want := range []string{"Budget Plan", "2024", "forecast", "total = 1200"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	for _, unwanted := range []string{"#", "**", "](", "```"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("markdown syntax %q leaked into %q", unwanted, got)
		}
	}
}

func TestExtractUnknownBinaryFallsBackToFilename(t *testing.T) {
	e := newTestExtractor()
	path := writeFile(t, "photo.jpg", "\xff\xd8\xff\xe0 not really a jpeg")

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got != "File: photo.jpg" {
		t.Errorf("Extract() = %q, want filename-only", got)
	}
}

func TestExtractInvalidUTF8TreatedAsBinary(t *testing.T) {
	e := newTestExtractor()
	path := writeFile(t, "data.txt", "ok\xff\xfe\xfdnot utf8")

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got != "File: data.txt" {
		t.Errorf("Extract() = %q, want filename-only", got)
	}
}

func TestExtractTruncatesDeterministically(t *testing.T) {
	e := New(config.ExtractConfig{MaxContentBytes: 10, PDFTextCommand: "pdftotext"})
	path := writeFile(t, "big.txt", "aaaaaaaaaa日本語bbbb")

	first, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	second, _ := e.Extract(context.Background(), path)
	if first != second {
		t.Error("truncation is not deterministic")
	}
	body := strings.TrimPrefix(first, "File: big.txt\n\n")
	if len(body) > 10 {
		t.Errorf("body %q exceeds cap", body)
	}
	if body != "aaaaaaaaaa" {
		t.Errorf("body = %q, want cut at rune boundary", body)
	}
}

func TestExtractCapInsideRuneStaysText(t *testing.T) {
	// Cap of 11 lands in the middle of 日; the file must still be
	// treated as text and cut back to the previous rune boundary.
	e := New(config.ExtractConfig{MaxContentBytes: 11, PDFTextCommand: "pdftotext"})
	path := writeFile(t, "wide.txt", "aaaaaaaaaa日本語")

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got == "File: wide.txt" {
		t.Fatal("valid UTF-8 text misread as binary")
	}
	body := strings.TrimPrefix(got, "File: wide.txt\n\n")
	if body != "aaaaaaaaaa" {
		t.Errorf("body = %q, want cut at rune boundary", body)
	}
}

func TestExtractMissingFile(t *testing.T) {
	e := newTestExtractor()
	if _, err := e.Extract(context.Background(), "/does/not/exist.txt"); err == nil {
		t.Error("Extract() on missing file should error")
	}
}

type fakeRunner struct {
	output []byte
	err    error
	calls  int
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	f.calls++
	return f.output, f.err
}

func TestExtractPDF(t *testing.T) {
	runner := &fakeRunner{output: []byte("Invoice total: 1200 EUR\n")}
	e := newTestExtractor().WithRunner(runner)
	path := writeFile(t, "invoice.pdf", "%PDF-1.4 fake")

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if runner.calls != 1 {
		t.Errorf("runner called %d times, want 1", runner.calls)
	}
	if !strings.Contains(got, "Invoice total: 1200 EUR") {
		t.Errorf("missing PDF text in %q", got)
	}
	if !strings.HasPrefix(got, "File: invoice.pdf") {
		t.Errorf("missing filename prefix: %q", got)
	}
}

func TestExtractPDFConversionFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	e := newTestExtractor().WithRunner(runner)
	path := writeFile(t, "broken.pdf", "%PDF garbage")

	if _, err := e.Extract(context.Background(), path); err == nil {
		t.Error("Extract() should propagate conversion failure")
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("hello")
	b := Fingerprint("hello")
	c := Fingerprint("hello!")

	if a != b {
		t.Error("same content must produce the same fingerprint")
	}
	if a == c {
		t.Error("different content must produce different fingerprints")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}
