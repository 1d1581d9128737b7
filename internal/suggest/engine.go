package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/selimcan/tagsense/internal/config"
	"github.com/selimcan/tagsense/internal/extract"
	"github.com/selimcan/tagsense/internal/llm"
	"github.com/selimcan/tagsense/internal/tagstore"
)

// Engine produces tag suggestions for files, backed by the inference
// provider and the SQLite cache. Extracted content is passed to the
// provider and then discarded; only the parsed suggestions are stored.
type Engine struct {
	provider  llm.Provider
	model     string
	tags      *tagstore.Store
	extractor *extract.Extractor
	cache     *Cache
	cfg       config.SuggestConfig
	ttl       time.Duration
	group     singleflight.Group
	now       func() time.Time
}

func NewEngine(provider llm.Provider, model string, tags *tagstore.Store, extractor *extract.Extractor, cache *Cache, cfg config.SuggestConfig) *Engine {
	return &Engine{
		provider:  provider,
		model:     model,
		tags:      tags,
		extractor: extractor,
		cache:     cache,
		cfg:       cfg,
		ttl:       time.Duration(cfg.CacheTTLHours) * time.Hour,
		now:       time.Now,
	}
}

// Suggest returns tag suggestions for a file. A live cache entry is
// returned without a provider call unless forceRefresh is set.
// Concurrent calls for the same (path, provider) share one provider
// call.
func (e *Engine) Suggest(ctx context.Context, path string, forceRefresh bool) (*SuggestionSet, error) {
	key := path + "\x00" + e.provider.Name()
	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.suggest(ctx, path, forceRefresh)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SuggestionSet), nil
}

func (e *Engine) suggest(ctx context.Context, path string, forceRefresh bool) (*SuggestionSet, error) {
	content, err := e.extractor.Extract(ctx, path)
	if err != nil {
		// Unreadable content never blocks a suggestion; the provider
		// works from the file name alone.
		content = "File: " + filepath.Base(path)
	}
	fingerprint := extract.Fingerprint(content)

	if !forceRefresh {
		entry, err := e.cache.Get(ctx, path, e.provider.Name())
		if err != nil {
			return nil, err
		}
		if entry != nil && !entry.Stale(fingerprint, e.ttl, e.now()) {
			return &entry.Set, nil
		}
	}

	vocabulary, err := e.tags.AllTagNames(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := llm.CompleteWithRetry(ctx, e.provider, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: e.cfg.SystemMessage},
			{Role: llm.RoleUser, Content: buildPrompt(path, content, vocabulary)},
		},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		e.recordFailure(ctx, path, fingerprint)
		return nil, fmt.Errorf("suggestion provider: %w", err)
	}

	set, parseErr := e.parseResponse(ctx, resp.Content, vocabulary)
	if parseErr != nil {
		// Malformed output degrades to an empty result; the failed
		// entry keeps the run retriable.
		e.recordFailure(ctx, path, fingerprint)
		return &SuggestionSet{}, nil
	}

	entry := &Entry{
		FilePath:    path,
		Provider:    e.provider.Name(),
		Fingerprint: fingerprint,
		Status:      StatusCompleted,
		Set:         *set,
		CreatedAt:   e.now().UTC(),
	}
	if err := e.cache.Put(ctx, entry); err != nil {
		return nil, err
	}
	return set, nil
}

func (e *Engine) recordFailure(ctx context.Context, path, fingerprint string) {
	// Keep last-known-good suggestions around; a completed row, even a
	// stale one, is worth more than a bare failure marker.
	if entry, err := e.cache.Get(ctx, path, e.provider.Name()); err == nil && entry != nil && entry.Status == StatusCompleted {
		return
	}
	_ = e.cache.Put(ctx, &Entry{
		FilePath:    path,
		Provider:    e.provider.Name(),
		Fingerprint: fingerprint,
		Status:      StatusFailed,
		CreatedAt:   e.now().UTC(),
	})
}

// rawSuggestion is the provider's wire shape before vocabulary
// matching.
type rawSuggestion struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

func (e *Engine) parseResponse(ctx context.Context, raw string, vocabulary []string) (*SuggestionSet, error) {
	var parsed struct {
		Existing []rawSuggestion `json:"existing"`
		New      []rawSuggestion `json:"new"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("json parse: %w", err)
	}

	vocab := make(map[string]string, len(vocabulary))
	for _, name := range vocabulary {
		vocab[strings.ToLower(name)] = name
	}

	set := &SuggestionSet{}
	for _, s := range parsed.Existing {
		confidence := clamp(s.Confidence)
		if confidence < e.cfg.MinConfidence {
			continue
		}
		canonical, ok := vocab[strings.ToLower(strings.TrimSpace(s.Name))]
		if !ok {
			// The provider named a tag that is not in the vocabulary.
			continue
		}
		tag, err := e.tags.GetTagByName(ctx, canonical)
		if err != nil {
			continue
		}
		set.Existing = append(set.Existing, ExistingSuggestion{
			TagID:      tag.ID,
			Name:       tag.Name,
			Confidence: confidence,
		})
	}
	for _, s := range parsed.New {
		confidence := clamp(s.Confidence)
		name := strings.TrimSpace(s.Name)
		if confidence < e.cfg.MinConfidence || name == "" {
			continue
		}
		if _, exists := vocab[strings.ToLower(name)]; exists {
			continue
		}
		set.New = append(set.New, NewSuggestion{
			Name:       name,
			Confidence: confidence,
			Rationale:  strings.TrimSpace(s.Rationale),
		})
	}

	sort.SliceStable(set.Existing, func(i, j int) bool {
		return set.Existing[i].Confidence > set.Existing[j].Confidence
	})
	sort.SliceStable(set.New, func(i, j int) bool {
		return set.New[i].Confidence > set.New[j].Confidence
	})
	return set, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
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
