package chunker

import (
	"strings"

	"github.com/selimcan/tagsense/internal/config"
)

// Chunk is a contiguous window of document text. Start and End are
// byte offsets into the original text, End exclusive.
type Chunk struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Chunker splits text into overlapping windows aligned to sentence or
// whitespace boundaries where possible. It is a pure function of the
// input text and the configured sizes.
type Chunker struct {
	minSize int
	maxSize int
	overlap int
}

// New creates a chunker from the chunk config.
func New(cfg config.ChunkConfig) *Chunker {
	return &Chunker{minSize: cfg.MinSize, maxSize: cfg.MaxSize, overlap: cfg.Overlap}
}

// sentenceEnders mark preferred cut points, searched right to left.
var sentenceEnders = []string{". ", "! ", "? ", ".\n", "!\n", "?\n", "\n\n"}

// Split chunks the text. Empty input yields no chunks; any non-empty
// input yields at least one. Consecutive chunks share the configured
// overlap so context at window boundaries is not lost.
func (c *Chunker) Split(text string) []Chunk {
	if text == "" {
		return nil
	}
	if len(text) <= c.maxSize {
		return []Chunk{{Start: 0, End: len(text), Text: text}}
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + c.maxSize
		if end >= len(text) {
			chunks = append(chunks, Chunk{Start: start, End: len(text), Text: text[start:]})
			break
		}

		end = c.alignBoundary(text, start, end)
		chunks = append(chunks, Chunk{Start: start, End: end, Text: text[start:end]})

		next := end - c.overlap
		if next <= start {
			// Degenerate window; force progress.
			next = start + 1
		}
		start = next
	}
	return chunks
}

// alignBoundary moves end left to the nearest sentence ending, or
// failing that the nearest whitespace, as long as the window stays at
// least minSize long. Pathological input with no break points gets a
// hard character cut.
func (c *Chunker) alignBoundary(text string, start, end int) int {
	window := text[start:end]
	floor := c.minSize
	if floor > len(window) {
		floor = len(window)
	}

	best := -1
	for _, ender := range sentenceEnders {
		if idx := strings.LastIndex(window, ender); idx >= 0 {
			cut := idx + len(ender)
			if cut >= floor && cut > best {
				best = cut
			}
		}
	}
	if best > 0 {
		return start + best
	}

	if idx := strings.LastIndexAny(window, " \t\n"); idx >= floor {
		return start + idx + 1
	}
	return end
}
