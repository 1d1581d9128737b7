package llm

import (
	"fmt"
	"os"

	"github.com/selimcan/tagsense/internal/config"
)

// NewProvider creates an inference provider for the given provider
// type and model. API keys come from the conventional environment
// variables; Ollama reads OLLAMA_HOST and needs no key.
func NewProvider(providerType config.ProviderType, model string) (Provider, error) {
	switch providerType {
	case config.ProviderAnthropic, config.ProviderOpenAI, config.ProviderGoogle:
		envVar := config.APIKeyEnvVar(providerType)
		apiKey := os.Getenv(envVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is not set", envVar)
		}
		switch providerType {
		case config.ProviderAnthropic:
			return NewAnthropicProvider(apiKey, model), nil
		case config.ProviderOpenAI:
			return NewOpenAIProvider(apiKey, model), nil
		default:
			return NewGoogleProvider(apiKey, model), nil
		}

	case config.ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
