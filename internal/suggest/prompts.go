package suggest

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxPromptContentBytes caps how much extracted text goes into one
// prompt. Extraction already caps content at the configured size; this
// is the tighter per-request budget.
const maxPromptContentBytes = 12_000

const responseFormat = `Respond with JSON only, no prose:
{
  "existing": [{"name": "tag name", "confidence": 0.0}],
  "new": [{"name": "tag name", "confidence": 0.0, "rationale": "one sentence"}]
}
"existing" may only use tags from the current vocabulary. Confidence is 0 to 1.`

// buildPrompt assembles the user message for one suggestion request.
func buildPrompt(path, content string, vocabulary []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n\n", filepath.Base(path))

	if len(vocabulary) > 0 {
		fmt.Fprintf(&b, "Current tag vocabulary: %s\n\n", strings.Join(vocabulary, ", "))
	} else {
		b.WriteString("Current tag vocabulary is empty.\n\n")
	}

	b.WriteString("Content:\n")
	b.WriteString(truncateContent(content, maxPromptContentBytes))
	b.WriteString("\n\n")
	b.WriteString(responseFormat)
	return b.String()
}

// truncateContent cuts at a rune boundary so the prompt never carries
// a split UTF-8 sequence.
func truncateContent(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n[truncated]"
}
