package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/selimcan/tagsense/internal/chunker"
	"github.com/selimcan/tagsense/internal/config"
	"github.com/selimcan/tagsense/internal/db"
	"github.com/selimcan/tagsense/internal/embeddings"
	"github.com/selimcan/tagsense/internal/engine"
	"github.com/selimcan/tagsense/internal/extract"
	"github.com/selimcan/tagsense/internal/index"
	"github.com/selimcan/tagsense/internal/llm"
	"github.com/selimcan/tagsense/internal/semantic"
	"github.com/selimcan/tagsense/internal/suggest"
	"github.com/selimcan/tagsense/internal/tagstore"
	"github.com/selimcan/tagsense/internal/vectordb"
)

// loadConfig loads and validates the config, providing a friendly
// error when it is missing.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `tagsense init` to create a config file", err)
	}
	return cfg, nil
}

// createProviderFromConfig creates the inference provider, rate
// limited per config.
func createProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(provider, cfg.RequestsPerMin), nil
}

// openEngine assembles the full engine from config. The returned
// close function persists the vector index and releases the database;
// call it on the way out of every command that touched the index.
func openEngine(cfg *config.Config) (*engine.Engine, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, err
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, "tagsense.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		database.Close()
		return nil, nil, err
	}

	tags := tagstore.NewStore(database)
	extractor := extract.New(cfg.Extract)
	ix, err := index.NewIndexer(store, tags, extractor, chunker.New(cfg.Chunk), cfg.DataDir, cfg.MaxConcurrency)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	if err := ix.Load(context.Background()); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("load index: %w", err)
	}

	// The suggestion engine and query expansion need an inference
	// provider; everything else works without one.
	var (
		expander  *semantic.Expander
		suggester *suggest.Engine
	)
	if provider, err := createProviderFromConfig(cfg); err == nil {
		expander = semantic.NewExpander(provider, cfg.Model)
		suggester = suggest.NewEngine(provider, cfg.Model, tags, extractor, suggest.NewCache(database), cfg.Suggest)
	} else if verbose {
		fmt.Fprintf(os.Stderr, "inference provider unavailable: %v\n", err)
	}

	sem := semantic.NewEngine(store, expander, cfg.Search)
	e := engine.New(tags, ix, sem, suggester, suggest.NewCache(database))

	closeFn := func() {
		if err := e.Persist(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "persist index: %v\n", err)
		}
		database.Close()
	}
	return e, closeFn, nil
}
