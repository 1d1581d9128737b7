package config

// ProviderType identifies an inference provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level tagsense configuration, corresponding to .tagsense.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDims     int          `yaml:"embedding_dims" koanf:"embedding_dims"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	MaxConcurrency    int          `yaml:"max_concurrency" koanf:"max_concurrency"`
	RequestsPerMin    int          `yaml:"requests_per_min" koanf:"requests_per_min"`

	Chunk   ChunkConfig   `yaml:"chunk" koanf:"chunk"`
	Extract ExtractConfig `yaml:"extract" koanf:"extract"`
	Search  SearchConfig  `yaml:"search" koanf:"search"`
	Suggest SuggestConfig `yaml:"suggest" koanf:"suggest"`
	Server  ServerConfig  `yaml:"server" koanf:"server"`
}

// ChunkConfig controls how extracted text is split before embedding.
type ChunkConfig struct {
	MinSize int `yaml:"min_size" koanf:"min_size"`
	MaxSize int `yaml:"max_size" koanf:"max_size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// ExtractConfig controls content extraction.
type ExtractConfig struct {
	MaxContentBytes int64  `yaml:"max_content_bytes" koanf:"max_content_bytes"`
	PDFTextCommand  string `yaml:"pdftotext_command" koanf:"pdftotext_command"`
}

// SearchConfig controls semantic search behaviour. The confidence
// thresholds define the high/medium/low display bands.
type SearchConfig struct {
	TopK             int     `yaml:"top_k" koanf:"top_k"`
	HighConfidence   float64 `yaml:"high_confidence" koanf:"high_confidence"`
	MediumConfidence float64 `yaml:"medium_confidence" koanf:"medium_confidence"`
	ExpandQueries    bool    `yaml:"expand_queries" koanf:"expand_queries"`
}

// SuggestConfig controls the tag suggestion engine and its cache.
type SuggestConfig struct {
	CacheTTLHours int     `yaml:"cache_ttl_hours" koanf:"cache_ttl_hours"`
	MinConfidence float64 `yaml:"min_confidence" koanf:"min_confidence"`
	MaxTokens     int     `yaml:"max_tokens" koanf:"max_tokens"`
	SystemMessage string  `yaml:"system_message" koanf:"system_message"`
}

// ServerConfig holds settings for the local HTTP API.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
