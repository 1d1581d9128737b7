package embeddings

import (
	"context"
	"fmt"
	"os"

	"github.com/selimcan/tagsense/internal/config"
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// NewEmbedder creates an embedder from the configured embedding
// provider, model, and dimensions.
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIEmbedder(apiKey, cfg.EmbeddingModel, cfg.EmbeddingDims), nil

	case config.ProviderGoogle:
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		return NewGoogleEmbedder(apiKey, cfg.EmbeddingModel, cfg.EmbeddingDims), nil

	case config.ProviderOllama:
		return NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDims, os.Getenv("OLLAMA_HOST")), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}
