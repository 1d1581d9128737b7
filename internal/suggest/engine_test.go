package suggest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/selimcan/tagsense/internal/config"
	"github.com/selimcan/tagsense/internal/db"
	"github.com/selimcan/tagsense/internal/extract"
	"github.com/selimcan/tagsense/internal/llm"
	"github.com/selimcan/tagsense/internal/tagstore"
)

type scriptedProvider struct {
	content string
	err     error
	delay   time.Duration
	calls   atomic.Int64

	mu         sync.Mutex
	lastPrompt string
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls.Add(1)
	p.mu.Lock()
	for _, m := range req.Messages {
		if m.Role == llm.RoleUser {
			p.lastPrompt = m.Content
		}
	}
	p.mu.Unlock()
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.content}, nil
}
func (p *scriptedProvider) Name() string { return "scripted" }

type fixture struct {
	engine   *Engine
	provider *scriptedProvider
	cache    *Cache
	tags     *tagstore.Store
	path     string
	clock    time.Time
}

const goodResponse = `{
  "existing": [{"name": "FINANCE", "confidence": 0.9}],
  "new": [{"name": "quarterly-report", "confidence": 0.7, "rationale": "Discusses quarterly figures."}]
}`

func newFixture(t *testing.T, provider *scriptedProvider) *fixture {
	t.Helper()

	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	tags := tagstore.NewStore(d)
	if _, err := tags.CreateTag(context.Background(), "finance", ""); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte("quarterly revenue figures"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cache := NewCache(d)
	engine := NewEngine(provider, "test-model", tags, extract.New(cfg.Extract), cache, cfg.Suggest)

	f := &fixture{engine: engine, provider: provider, cache: cache, tags: tags, path: path,
		clock: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	engine.now = func() time.Time { return f.clock }
	return f
}

func TestSuggestParsesAndCaches(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: goodResponse})
	ctx := context.Background()

	set, err := f.engine.Suggest(ctx, f.path, false)
	if err != nil {
		t.Fatalf("Suggest() error: %v", err)
	}
	if len(set.Existing) != 1 || set.Existing[0].Name != "finance" || set.Existing[0].Confidence != 0.9 {
		t.Errorf("existing = %+v, want vocabulary match on finance", set.Existing)
	}
	if set.Existing[0].TagID == 0 {
		t.Error("existing suggestion missing tag id")
	}
	if len(set.New) != 1 || set.New[0].Name != "quarterly-report" {
		t.Errorf("new = %+v", set.New)
	}

	// Second call is served from cache.
	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}
	if got := f.provider.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestSuggestForceRefreshBypassesCache(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: goodResponse})
	ctx := context.Background()

	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Suggest(ctx, f.path, true); err != nil {
		t.Fatal(err)
	}
	if got := f.provider.calls.Load(); got != 2 {
		t.Errorf("provider calls = %d, want 2", got)
	}
}

func TestCacheTTLBoundary(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: goodResponse})
	ctx := context.Background()

	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}

	// Live just inside the seven-day window.
	f.clock = f.clock.Add(6*24*time.Hour + 23*time.Hour)
	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}
	if got := f.provider.calls.Load(); got != 1 {
		t.Fatalf("entry at 6d23h should be live, provider calls = %d", got)
	}

	// Stale just past it.
	f.clock = f.clock.Add(2 * time.Hour)
	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}
	if got := f.provider.calls.Load(); got != 2 {
		t.Errorf("entry at 7d1h should be stale, provider calls = %d", got)
	}
}

func TestContentChangeInvalidatesCache(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: goodResponse})
	ctx := context.Background()

	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.path, []byte("entirely different content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}
	if got := f.provider.calls.Load(); got != 2 {
		t.Errorf("changed content should refresh, provider calls = %d", got)
	}
}

func TestConcurrentSuggestSharesOneCall(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: goodResponse, delay: 50 * time.Millisecond})
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*SuggestionSet, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set, err := f.engine.Suggest(ctx, f.path, false)
			if err != nil {
				t.Errorf("Suggest() error: %v", err)
				return
			}
			results[i] = set
		}(i)
	}
	wg.Wait()

	if got := f.provider.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
	for i, set := range results {
		if set == nil || len(set.Existing) != 1 {
			t.Errorf("caller %d got %+v", i, set)
		}
	}
}

func TestParseFailureDegradesToEmpty(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: "I cannot produce JSON today."})
	ctx := context.Background()

	set, err := f.engine.Suggest(ctx, f.path, false)
	if err != nil {
		t.Fatalf("parse failure must not be a hard error: %v", err)
	}
	if len(set.Existing) != 0 || len(set.New) != 0 {
		t.Errorf("set = %+v, want empty", set)
	}

	entry, err := f.cache.Get(ctx, f.path, "scripted")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.Status != StatusFailed {
		t.Fatalf("cache entry = %+v, want failed", entry)
	}

	// A failed entry never serves; the next call retries.
	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}
	if got := f.provider.calls.Load(); got != 2 {
		t.Errorf("provider calls = %d, want retry after failure", got)
	}
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, string, ...string) ([]byte, error) {
	return nil, errors.New("pdftotext: damaged file")
}

func TestSuggestExtractionFailureDegradesToFilename(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: goodResponse})
	ctx := context.Background()

	pdf := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.engine.extractor = f.engine.extractor.WithRunner(failingRunner{})

	set, err := f.engine.Suggest(ctx, pdf, false)
	if err != nil {
		t.Fatalf("extraction failure must not block suggestions: %v", err)
	}
	if len(set.Existing) != 1 || set.Existing[0].Name != "finance" {
		t.Errorf("set.Existing = %+v, want finance", set.Existing)
	}

	// The provider saw the file name, nothing more.
	f.provider.mu.Lock()
	prompt := f.provider.lastPrompt
	f.provider.mu.Unlock()
	if !strings.Contains(prompt, "broken.pdf") {
		t.Errorf("prompt does not name the file: %q", prompt)
	}

	// The degraded run caches like any other.
	if _, err := f.engine.Suggest(ctx, pdf, false); err != nil {
		t.Fatal(err)
	}
	if got := f.provider.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestProviderFailureKeepsLastGoodSuggestions(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: goodResponse})
	ctx := context.Background()

	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}

	f.provider.err = errors.New("auth: bad key")
	if _, err := f.engine.Suggest(ctx, f.path, true); err == nil {
		t.Fatal("provider error should surface on refresh")
	}

	// The completed row survives the failure and keeps serving.
	entry, err := f.cache.Get(ctx, f.path, "scripted")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.Status != StatusCompleted {
		t.Fatalf("cache entry = %+v, want completed row preserved", entry)
	}
	if len(entry.Set.Existing) != 1 {
		t.Errorf("preserved suggestions = %+v", entry.Set)
	}

	set, err := f.engine.Suggest(ctx, f.path, false)
	if err != nil {
		t.Fatalf("cached suggestions should still serve: %v", err)
	}
	if len(set.Existing) != 1 || set.Existing[0].Name != "finance" {
		t.Errorf("set = %+v, want cached finance suggestion", set)
	}
}

func TestProviderErrorSurfacesAndRecordsFailure(t *testing.T) {
	f := newFixture(t, &scriptedProvider{err: errors.New("auth: bad key")})
	ctx := context.Background()

	if _, err := f.engine.Suggest(ctx, f.path, false); err == nil {
		t.Fatal("provider error should surface to the caller")
	}
	entry, err := f.cache.Get(ctx, f.path, "scripted")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.Status != StatusFailed {
		t.Errorf("cache entry = %+v, want failed", entry)
	}
}

func TestParseResponseFiltering(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: "unused"})
	ctx := context.Background()

	raw := "```json\n" + `{
	  "existing": [
	    {"name": "Finance", "confidence": 1.7},
	    {"name": "unknown-tag", "confidence": 0.9},
	    {"name": "finance", "confidence": 0.1}
	  ],
	  "new": [
	    {"name": "low", "confidence": 0.2},
	    {"name": "finance", "confidence": 0.9},
	    {"name": "archive", "confidence": 0.6},
	    {"name": "budget", "confidence": 0.8}
	  ]
	}` + "\n```"

	vocab, err := f.tags.AllTagNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	set, err := f.engine.parseResponse(ctx, raw, vocab)
	if err != nil {
		t.Fatal(err)
	}

	// Confidence 1.7 clamps to 1; unknown names and sub-threshold
	// entries drop; a "new" tag already in the vocabulary drops.
	if len(set.Existing) != 1 || set.Existing[0].Confidence != 1 {
		t.Errorf("existing = %+v", set.Existing)
	}
	if len(set.New) != 2 || set.New[0].Name != "budget" || set.New[1].Name != "archive" {
		t.Errorf("new = %+v, want [budget archive] by confidence", set.New)
	}
}

func TestCacheNeverStoresContent(t *testing.T) {
	f := newFixture(t, &scriptedProvider{content: goodResponse})
	ctx := context.Background()

	if _, err := f.engine.Suggest(ctx, f.path, false); err != nil {
		t.Fatal(err)
	}
	entry, err := f.cache.Get(ctx, f.path, "scripted")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range entry.Set.New {
		if s.Rationale == "quarterly revenue figures" {
			t.Error("cache carries extracted file content")
		}
	}
	if entry.Fingerprint == "" {
		t.Error("cache entry missing fingerprint")
	}
}
