package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (TAGSENSE_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: TAGSENSE_PROVIDER -> provider,
	// TAGSENSE_SEARCH_TOP_K -> search.top_k, etc.
	if err := k.Load(env.Provider("TAGSENSE_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "TAGSENSE_"))
		for _, section := range []string{"chunk", "extract", "search", "suggest", "server"} {
			if strings.HasPrefix(key, section+"_") {
				return section + "." + strings.TrimPrefix(key, section+"_")
			}
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderGoogle:    true,
	ProviderOllama:    true,
}

// embeddingProviders is the subset of providers that expose an embeddings API.
var embeddingProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderGoogle: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, google, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if c.EmbeddingProvider != "" && !embeddingProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q: must be one of openai, google, ollama", c.EmbeddingProvider)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}

	if c.Chunk.MaxSize <= 0 {
		return fmt.Errorf("chunk.max_size must be positive")
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.MaxSize {
		return fmt.Errorf("chunk.overlap must be in [0, chunk.max_size)")
	}
	if c.Chunk.MinSize < 0 || c.Chunk.MinSize > c.Chunk.MaxSize {
		return fmt.Errorf("chunk.min_size must be in [0, chunk.max_size]")
	}

	if c.Search.HighConfidence < c.Search.MediumConfidence {
		return fmt.Errorf("search.high_confidence must be >= search.medium_confidence")
	}
	if c.Suggest.MinConfidence < 0 || c.Suggest.MinConfidence > 1 {
		return fmt.Errorf("suggest.min_confidence must be in [0,1]")
	}
	if c.Suggest.CacheTTLHours <= 0 {
		return fmt.Errorf("suggest.cache_ttl_hours must be positive")
	}

	return nil
}

// CacheTTL returns the suggestion cache lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Suggest.CacheTTLHours) * time.Hour
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}
