package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/selimcan/tagsense/internal/index"
	"github.com/selimcan/tagsense/internal/progress"
	"github.com/selimcan/tagsense/internal/semantic"
	"github.com/selimcan/tagsense/internal/suggest"
	"github.com/selimcan/tagsense/internal/tagsearch"
	"github.com/selimcan/tagsense/internal/tagstore"
	"github.com/selimcan/tagsense/internal/walker"
)

// ErrNoProvider is returned when a suggestion is requested but no
// inference provider is configured.
var ErrNoProvider = errors.New("no inference provider configured")

// Engine ties the tag store, the indexing pipeline, and both search
// modes together behind one surface. It reacts to tag store events so
// the vector index's tag snapshots and the suggestion cache track tag
// mutations without callers doing anything.
type Engine struct {
	Tags     *tagstore.Store
	Indexer  *index.Indexer
	Boolean  *tagsearch.Engine
	Semantic *semantic.Engine
	Suggest  *suggest.Engine
	Cache    *suggest.Cache
}

// New wires the components and subscribes to tag store events. The
// suggestion engine may be nil when no provider is configured.
func New(tags *tagstore.Store, ix *index.Indexer, sem *semantic.Engine, sug *suggest.Engine, cache *suggest.Cache) *Engine {
	e := &Engine{
		Tags:     tags,
		Indexer:  ix,
		Boolean:  tagsearch.NewEngine(tags),
		Semantic: sem,
		Suggest:  sug,
		Cache:    cache,
	}
	tags.Subscribe(e.onTagEvent)
	return e
}

// onTagEvent keeps derived state in line with tag mutations. Event
// handlers run synchronously after the store commit; failures here are
// logged, not surfaced, since the tag change itself already succeeded.
func (e *Engine) onTagEvent(ev tagstore.Event) {
	ctx := context.Background()
	switch ev.Kind {
	case tagstore.EventTagsChanged:
		if err := e.Indexer.UpdateTagSnapshot(ctx, ev.Path, ev.TagIDs); err != nil {
			log.Printf("tag snapshot update for %s: %v", ev.Path, err)
		}
	case tagstore.EventFileRemoved:
		if err := e.Indexer.RemoveFile(ctx, ev.Path); err != nil {
			log.Printf("index removal for %s: %v", ev.Path, err)
		}
		if e.Cache != nil {
			if err := e.Cache.DeleteFile(ctx, ev.Path); err != nil {
				log.Printf("suggestion cache removal for %s: %v", ev.Path, err)
			}
		}
	}
}

// BooleanSearch evaluates a tag predicate against the tag store.
func (e *Engine) BooleanSearch(ctx context.Context, p *tagsearch.Predicate) ([]string, error) {
	return e.Boolean.Evaluate(ctx, p)
}

// SemanticSearch runs an embedding query, optionally restricted by a
// tag predicate.
func (e *Engine) SemanticSearch(ctx context.Context, q semantic.Query) ([]semantic.Result, error) {
	return e.Semantic.Search(ctx, q)
}

// SuggestTags returns AI tag suggestions for a file.
func (e *Engine) SuggestTags(ctx context.Context, path string, forceRefresh bool) (*suggest.SuggestionSet, error) {
	if e.Suggest == nil {
		return nil, ErrNoProvider
	}
	return e.Suggest.Suggest(ctx, path, forceRefresh)
}

// IndexFile indexes or refreshes a single file.
func (e *Engine) IndexFile(ctx context.Context, path string, force bool) error {
	return e.Indexer.IndexFile(ctx, path, force)
}

// IndexDir walks a directory and indexes everything it admits.
func (e *Engine) IndexDir(ctx context.Context, cfg walker.Config, force bool, reporter progress.Reporter) (*index.ReindexResult, error) {
	return e.Indexer.ReindexDir(ctx, cfg, force, reporter)
}

// ReindexAll re-runs indexing for every file currently in the index,
// forcing re-embedding regardless of fingerprints.
func (e *Engine) ReindexAll(ctx context.Context, reporter progress.Reporter) (*index.ReindexResult, error) {
	result := &index.ReindexResult{}
	paths := e.Indexer.IndexedFiles()
	if reporter != nil {
		reporter.Start(len(paths))
		defer reporter.Finish()
	}
	for i, path := range paths {
		if err := e.Indexer.IndexFile(ctx, path, true); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
		} else {
			result.Indexed++
		}
		if reporter != nil {
			reporter.Update(i+1, path)
		}
	}
	return result, nil
}

// RemoveFile drops a file from the tag store, which cascades into the
// vector index and suggestion cache through the event subscription.
func (e *Engine) RemoveFile(ctx context.Context, path string) error {
	return e.Tags.RemoveFile(ctx, path)
}

// Persist flushes the vector index to disk.
func (e *Engine) Persist(ctx context.Context) error {
	return e.Indexer.Persist(ctx)
}

// Load restores the vector index from disk.
func (e *Engine) Load(ctx context.Context) error {
	return e.Indexer.Load(ctx)
}
