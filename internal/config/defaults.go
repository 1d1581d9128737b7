package config

// ProviderPreset describes the default models for a provider.
type ProviderPreset struct {
	Model             string
	EmbeddingProvider ProviderType
	EmbeddingModel    string
	EmbeddingDims     int
}

// providerPresets maps each provider to its default model choices.
// Anthropic has no embeddings API, so it pairs with OpenAI embeddings.
var providerPresets = map[ProviderType]ProviderPreset{
	ProviderAnthropic: {
		Model:             "claude-sonnet-4-5-20250929",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		EmbeddingDims:     1536,
	},
	ProviderOpenAI: {
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		EmbeddingDims:     1536,
	},
	ProviderGoogle: {
		Model:             "gemini-2.0-flash-lite",
		EmbeddingProvider: ProviderGoogle,
		EmbeddingModel:    "text-embedding-004",
		EmbeddingDims:     768,
	},
	ProviderOllama: {
		Model:             "llama3",
		EmbeddingProvider: ProviderOllama,
		EmbeddingModel:    "nomic-embed-text",
		EmbeddingDims:     768,
	},
}

// GetPreset returns the default models for the given provider.
func GetPreset(provider ProviderType) ProviderPreset {
	if preset, ok := providerPresets[provider]; ok {
		return preset
	}
	return providerPresets[ProviderOpenAI]
}

// DefaultSystemMessage is the instruction sent with every tag
// suggestion request unless overridden in the config file.
const DefaultSystemMessage = "You are a file-organization assistant. " +
	"Given a file's name and content, suggest tags that describe it. " +
	"Prefer tags from the existing vocabulary when they fit. " +
	"Respond only with the requested JSON."

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		EmbeddingDims:     1536,
		DataDir:           ".tagsense",
		MaxConcurrency:    4,
		RequestsPerMin:    60,
		Chunk: ChunkConfig{
			MinSize: 200,
			MaxSize: 1000,
			Overlap: 50,
		},
		Extract: ExtractConfig{
			MaxContentBytes: 1 << 20, // 1 MiB
			PDFTextCommand:  "pdftotext",
		},
		Search: SearchConfig{
			TopK:             20,
			HighConfidence:   0.8,
			MediumConfidence: 0.5,
			ExpandQueries:    false,
		},
		Suggest: SuggestConfig{
			CacheTTLHours: 168, // 7 days
			MinConfidence: 0.3,
			MaxTokens:     1024,
			SystemMessage: DefaultSystemMessage,
		},
		Server: ServerConfig{
			Port: 8390,
		},
	}
}
