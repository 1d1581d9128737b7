package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting validated Config. The caller decides where to save it.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to tagsense! Let's configure the search engine.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select AI provider",
		Items: []string{"openai", "anthropic", "google", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	preset := GetPreset(provider)
	cfg.Provider = provider
	cfg.Model = preset.Model
	cfg.EmbeddingProvider = preset.EmbeddingProvider
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.EmbeddingDims = preset.EmbeddingDims

	// 2. Model override.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: preset.Model,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.Model = model

	// 3. Data directory.
	dataDirPrompt := promptui.Prompt{
		Label:   "Data directory (index and cache)",
		Default: cfg.DataDir,
	}
	dataDir, err := dataDirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir selection: %w", err)
	}
	cfg.DataDir = dataDir

	// 4. Query expansion.
	expandPrompt := promptui.Select{
		Label: "Expand search queries with AI synonyms",
		Items: []string{"no", "yes"},
	}
	expandIdx, _, err := expandPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("expansion selection: %w", err)
	}
	cfg.Search.ExpandQueries = expandIdx == 1

	// 5. API key reminder.
	if envVar := APIKeyEnvVar(provider); envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: set %s before indexing or searching.\n", envVar)
		}
	}
	if cfg.EmbeddingProvider != provider {
		if envVar := APIKeyEnvVar(cfg.EmbeddingProvider); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("Note: embeddings use %s; set %s as well.\n", cfg.EmbeddingProvider, envVar)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("resulting config invalid: %w", err)
	}

	fmt.Println("\nCache TTL: " + strconv.Itoa(cfg.Suggest.CacheTTLHours) + "h, chunk window: " +
		strconv.Itoa(cfg.Chunk.MaxSize) + " chars")

	return cfg, nil
}
