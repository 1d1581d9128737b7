package embeddings

import (
	"context"
	"testing"

	"github.com/selimcan/tagsense/internal/config"
)

type fakeEmbedder struct {
	dims  int
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dims)
		v[0] = float32(len(texts[i]))
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }
func (f *fakeEmbedder) Name() string    { return "fake" }

func TestToChromemFunc(t *testing.T) {
	fake := &fakeEmbedder{dims: 4}
	fn := ToChromemFunc(fake)

	vec, err := fn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embedding func error: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("got %d dims, want 4", len(vec))
	}
	if vec[0] != 5 {
		t.Errorf("vec[0] = %f, want 5 (len of input)", vec[0])
	}
	if fake.calls != 1 {
		t.Errorf("underlying embedder called %d times, want 1", fake.calls)
	}
}

func TestNewEmbedderMissingKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	for _, p := range []config.ProviderType{config.ProviderOpenAI, config.ProviderGoogle} {
		cfg := config.DefaultConfig()
		cfg.EmbeddingProvider = p
		if _, err := NewEmbedder(cfg); err == nil {
			t.Errorf("expected missing-key error for %s", p)
		}
	}
}

func TestNewEmbedderOllama(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	cfg := config.DefaultConfig()
	cfg.EmbeddingProvider = config.ProviderOllama
	cfg.EmbeddingModel = "nomic-embed-text"
	cfg.EmbeddingDims = 768

	e, err := NewEmbedder(cfg)
	if err != nil {
		t.Fatalf("NewEmbedder() error: %v", err)
	}
	if e.Dimensions() != 768 {
		t.Errorf("Dimensions() = %d, want 768", e.Dimensions())
	}
	if e.Name() != "ollama/nomic-embed-text" {
		t.Errorf("Name() = %q", e.Name())
	}
}

func TestNewEmbedderUnsupported(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EmbeddingProvider = "anthropic"
	if _, err := NewEmbedder(cfg); err == nil {
		t.Error("anthropic has no embeddings API; expected error")
	}
}
