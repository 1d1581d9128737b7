package semantic

import (
	"sort"
	"strings"
	"unicode"
)

// defaultSnippetLen caps snippet length in bytes before ellipses.
const defaultSnippetLen = 240

// Span marks one highlighted range inside a snippet, as byte offsets.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// stopwords excluded from highlight terms. Short function words match
// everywhere and make highlights useless.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "for": true,
	"from": true, "in": true, "is": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "what": true, "when": true, "where": true, "with": true,
}

// queryTerms splits a query into lowercase terms worth highlighting.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	terms := make([]string, 0, len(fields))
	seen := make(map[string]bool)
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// Snippet extracts a window of text around the first query-term match,
// refined to sentence boundaries where possible, and returns highlight
// spans for every term occurrence inside the window.
func Snippet(text string, terms []string, maxLen int) (string, []Span) {
	text = strings.TrimSpace(text)
	if maxLen <= 0 {
		maxLen = defaultSnippetLen
	}
	if text == "" {
		return "", nil
	}

	anchor := firstMatch(text, terms)

	start, end := 0, len(text)
	if end > maxLen {
		// Center the window on the anchor, then pull the edges in to
		// sentence boundaries.
		start = anchor - maxLen/2
		if start < 0 {
			start = 0
		}
		end = start + maxLen
		if end > len(text) {
			end = len(text)
			start = end - maxLen
		}
		start = refineStart(text, start)
		end = refineEnd(text, start, end)
	}

	snippet := strings.TrimSpace(text[start:end])
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(text) {
		snippet += "…"
	}

	return snippet, highlight(snippet, terms)
}

// firstMatch returns the byte offset of the earliest term occurrence,
// or 0 when nothing matches.
func firstMatch(text string, terms []string) int {
	lower := strings.ToLower(text)
	best := -1
	for _, term := range terms {
		if i := strings.Index(lower, term); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

// refineStart moves a window start forward to the beginning of a
// sentence when one starts nearby.
func refineStart(text string, start int) int {
	if start == 0 {
		return 0
	}
	window := text[start:]
	limit := len(window) / 4
	for i := 1; i < limit; i++ {
		if isSentenceEnd(window[i-1]) {
			for i < len(window) && window[i] == ' ' {
				i++
			}
			return start + i
		}
	}
	return start
}

// refineEnd pulls a window end back to the last sentence ender, as
// long as that keeps most of the window.
func refineEnd(text string, start, end int) int {
	if end >= len(text) {
		return len(text)
	}
	window := text[start:end]
	floor := len(window) * 3 / 4
	for i := len(window) - 1; i >= floor; i-- {
		if isSentenceEnd(window[i]) {
			return start + i + 1
		}
	}
	return end
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?' || b == '\n'
}

// highlight finds every term occurrence inside the snippet, case
// insensitively, and returns spans ordered by position.
func highlight(snippet string, terms []string) []Span {
	lower := strings.ToLower(snippet)
	var spans []Span
	for _, term := range terms {
		from := 0
		for {
			i := strings.Index(lower[from:], term)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, Span{Start: start, End: start + len(term)})
			from = start + len(term)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}
