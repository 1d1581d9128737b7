package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/selimcan/tagsense/internal/llm"
)

const expandSystemMessage = `You expand search queries for a local file search engine.
Given a query, produce up to 3 alternate phrasings and closely related terms
that someone might have used when writing about the same topic.
Respond with JSON only: {"queries": ["...", "..."]}`

// Expander rewrites a search query into related phrasings via the
// inference provider. Expansion is best-effort; callers fall back to
// the raw query on any failure.
type Expander struct {
	provider  llm.Provider
	model     string
	maxTokens int
}

func NewExpander(provider llm.Provider, model string) *Expander {
	return &Expander{provider: provider, model: model, maxTokens: 256}
}

// Expand returns alternate phrasings for the query, without the
// original.
func (x *Expander) Expand(ctx context.Context, query string) ([]string, error) {
	resp, err := x.provider.Complete(ctx, llm.CompletionRequest{
		Model: x.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: expandSystemMessage},
			{Role: llm.RoleUser, Content: query},
		},
		MaxTokens:   x.maxTokens,
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}

	var parsed struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("expand parse: %w", err)
	}

	out := make([]string, 0, len(parsed.Queries))
	for _, q := range parsed.Queries {
		q = strings.TrimSpace(q)
		if q != "" && !strings.EqualFold(q, query) {
			out = append(out, q)
		}
	}
	return out, nil
}

// stripFences removes a markdown code fence wrapper if present.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return raw
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
