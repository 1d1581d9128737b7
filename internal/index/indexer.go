package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/selimcan/tagsense/internal/chunker"
	"github.com/selimcan/tagsense/internal/extract"
	"github.com/selimcan/tagsense/internal/progress"
	"github.com/selimcan/tagsense/internal/tagstore"
	"github.com/selimcan/tagsense/internal/vectordb"
	"github.com/selimcan/tagsense/internal/walker"
)

// Indexer owns the embedding index: it extracts, chunks, and embeds
// file content into the vector store, tracks content fingerprints so
// unchanged files are skipped, and records extraction failures as
// indexed-but-empty instead of erroring.
type Indexer struct {
	store     vectordb.VectorStore
	tags      *tagstore.Store
	extractor *extract.Extractor
	chunker   *chunker.Chunker

	dataDir        string
	maxConcurrency int

	stateMu sync.Mutex
	state   *State

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewIndexer creates an indexer. The state file and the persisted
// vector store live under dataDir.
func NewIndexer(store vectordb.VectorStore, tags *tagstore.Store, extractor *extract.Extractor, ch *chunker.Chunker, dataDir string, maxConcurrency int) (*Indexer, error) {
	state, err := LoadState(dataDir)
	if err != nil {
		return nil, err
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Indexer{
		store:          store,
		tags:           tags,
		extractor:      extractor,
		chunker:        ch,
		dataDir:        dataDir,
		maxConcurrency: maxConcurrency,
		state:          state,
		locks:          make(map[string]*sync.Mutex),
	}, nil
}

// pathLock returns the mutex serializing index operations for one path.
func (ix *Indexer) pathLock(path string) *sync.Mutex {
	ix.locksMu.Lock()
	defer ix.locksMu.Unlock()
	if mu, ok := ix.locks[path]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	ix.locks[path] = mu
	return mu
}

// IndexFile extracts, chunks, and embeds one file. Unchanged content
// (same fingerprint) is skipped unless force is set. Extraction
// failures record the file as indexed-but-empty and do not error; a
// forced reindex retries them.
func (ix *Indexer) IndexFile(ctx context.Context, path string, force bool) error {
	path = canonical(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}

	mu := ix.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	content, extractErr := ix.extractor.Extract(ctx, path)
	if extractErr != nil {
		// Corrupt or unconvertible file: zero chunks, remembered so a
		// plain reindex does not retry but a forced one does.
		if err := ix.store.DeleteFile(ctx, path); err != nil {
			return err
		}
		ix.recordState(path, FileState{Empty: true, IndexedAt: time.Now().UTC()})
		return ix.saveState()
	}

	fingerprint := extract.Fingerprint(content)

	if !force {
		ix.stateMu.Lock()
		prev, known := ix.state.Files[path]
		ix.stateMu.Unlock()
		if known && prev.Fingerprint == fingerprint {
			return nil
		}
	}

	chunks := ix.chunker.Split(content)
	if len(chunks) == 0 {
		if err := ix.store.DeleteFile(ctx, path); err != nil {
			return err
		}
		ix.recordState(path, FileState{Fingerprint: fingerprint, Empty: true, IndexedAt: time.Now().UTC()})
		return ix.saveState()
	}

	tagIDs, err := ix.tags.TagIDsForFile(ctx, path)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	docs := make([]vectordb.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = vectordb.Document{
			Content: c.Text,
			Metadata: vectordb.ChunkMetadata{
				Start:       c.Start,
				End:         c.End,
				Fingerprint: fingerprint,
				TagIDs:      tagIDs,
				IndexedAt:   now,
			},
		}
	}

	if err := ix.store.ReplaceFile(ctx, path, docs); err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}

	ix.recordState(path, FileState{Fingerprint: fingerprint, IndexedAt: now})
	return ix.saveState()
}

// RemoveFile drops a file's chunks and state; idempotent.
func (ix *Indexer) RemoveFile(ctx context.Context, path string) error {
	path = canonical(path)
	mu := ix.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	if err := ix.store.DeleteFile(ctx, path); err != nil {
		return err
	}
	ix.stateMu.Lock()
	delete(ix.state.Files, path)
	ix.stateMu.Unlock()
	return ix.saveState()
}

// UpdateTagSnapshot rewrites the tag snapshot on a file's chunks
// without re-embedding.
func (ix *Indexer) UpdateTagSnapshot(ctx context.Context, path string, tagIDs []int64) error {
	return ix.store.UpdateTagSnapshot(ctx, canonical(path), tagIDs)
}

// ReindexResult summarizes a batch indexing run.
type ReindexResult struct {
	Indexed int
	Skipped int
	Empty   int
	Errors  []error
}

// ReindexDir walks a directory tree and indexes every file that passes
// the include/exclude filters, maxConcurrency files at a time.
func (ix *Indexer) ReindexDir(ctx context.Context, cfg walker.Config, force bool, reporter progress.Reporter) (*ReindexResult, error) {
	files, err := walker.Walk(cfg)
	if err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = progress.NopReporter{}
	}
	reporter.Start(len(files))
	defer reporter.Finish()

	result := &ReindexResult{}
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		sem       = make(chan struct{}, ix.maxConcurrency)
		processed int
	)

	for _, file := range files {
		select {
		case <-ctx.Done():
			mu.Lock()
			result.Errors = append(result.Errors, ctx.Err())
			mu.Unlock()
			wg.Wait()
			return result, nil
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(f walker.FileInfo) {
			defer wg.Done()
			defer func() { <-sem }()

			path := canonical(f.Path)
			before := ix.fileState(path)

			err := ix.IndexFile(ctx, path, force)

			mu.Lock()
			after := ix.fileState(path)
			switch {
			case err != nil:
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", f.RelPath, err))
			case after != nil && after.Empty:
				result.Empty++
			case before != nil && after != nil && !force && before.Fingerprint == after.Fingerprint && before.IndexedAt.Equal(after.IndexedAt):
				result.Skipped++
			default:
				result.Indexed++
			}
			processed++
			current := processed
			mu.Unlock()

			reporter.Update(current, f.RelPath)
		}(file)
	}
	wg.Wait()
	return result, nil
}

// Persist writes the vector store and state to the data directory.
func (ix *Indexer) Persist(ctx context.Context) error {
	if err := ix.store.Persist(ctx, ix.indexDir()); err != nil {
		return err
	}
	return ix.saveState()
}

// Load restores a previously persisted vector store, if one exists.
func (ix *Indexer) Load(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(ix.indexDir(), "chromem.gob.gz")); os.IsNotExist(err) {
		return nil
	}
	return ix.store.Load(ctx, ix.indexDir())
}

// IndexedFiles returns the paths currently tracked by the index.
func (ix *Indexer) IndexedFiles() []string {
	ix.stateMu.Lock()
	defer ix.stateMu.Unlock()
	paths := make([]string, 0, len(ix.state.Files))
	for p := range ix.state.Files {
		paths = append(paths, p)
	}
	return paths
}

func (ix *Indexer) indexDir() string {
	return filepath.Join(ix.dataDir, "index")
}

func (ix *Indexer) fileState(path string) *FileState {
	ix.stateMu.Lock()
	defer ix.stateMu.Unlock()
	if st, ok := ix.state.Files[path]; ok {
		return &st
	}
	return nil
}

func (ix *Indexer) recordState(path string, st FileState) {
	ix.stateMu.Lock()
	ix.state.Files[path] = st
	ix.stateMu.Unlock()
}

func (ix *Indexer) saveState() error {
	ix.stateMu.Lock()
	defer ix.stateMu.Unlock()
	return ix.state.Save(ix.dataDir)
}

// canonical normalizes a path to its absolute form; file identity in
// the tag store and the index is the canonical absolute path.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
