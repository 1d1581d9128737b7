package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/selimcan/tagsense/internal/embeddings"
)

const (
	collectionName  = "files"
	overfetchFactor = 4
)

// ChromemStore implements VectorStore using chromem-go. Atomic file
// replacement uses generations: a new chunk set is written under the
// next generation number, the visible-generation pointer is swapped,
// then the old set is deleted. Queries filter to the visible
// generation, so a partially written file never surfaces.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc

	mu   sync.RWMutex
	gens map[string]uint64
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
		gens:       make(map[string]uint64),
	}, nil
}

func (s *ChromemStore) currentGen(path string) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gen, ok := s.gens[path]
	return gen, ok
}

func (s *ChromemStore) ReplaceFile(ctx context.Context, path string, docs []Document) error {
	if len(docs) == 0 {
		return s.DeleteFile(ctx, path)
	}

	oldGen, _ := s.currentGen(path)
	newGen := oldGen + 1

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		doc.Metadata.FilePath = path
		doc.Metadata.ChunkIndex = i
		doc.Metadata.Generation = newGen
		chromemDocs[i] = chromem.Document{
			ID:        fmt.Sprintf("%s@%d#%d", path, newGen, i),
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  metadataToMap(doc.Metadata),
		}
	}

	// An earlier aborted write may have left chunks under this
	// generation number; clear them so the set we swap in is exact.
	if err := s.purgeGeneration(ctx, path, newGen); err != nil {
		return fmt.Errorf("clearing stale generation for %s: %w", path, err)
	}

	if err := s.collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		// Roll back whatever made it in; the old generation stays
		// visible and untouched.
		s.purgeGeneration(context.WithoutCancel(ctx), path, newGen)
		return fmt.Errorf("adding chunks for %s: %w", path, err)
	}

	// Swap the visible generation, then drop the old one. Once the
	// swap happens the cleanup must finish even if the caller has gone
	// away, or stale chunks pile up under superseded generations.
	s.mu.Lock()
	s.gens[path] = newGen
	s.mu.Unlock()

	if oldGen > 0 {
		if err := s.purgeGeneration(context.WithoutCancel(ctx), path, oldGen); err != nil {
			return fmt.Errorf("deleting old generation for %s: %w", path, err)
		}
	}
	return nil
}

// purgeGeneration drops every chunk of one generation of a file.
func (s *ChromemStore) purgeGeneration(ctx context.Context, path string, gen uint64) error {
	if s.collection.Count() == 0 {
		return nil
	}
	where := map[string]string{
		"file_path":  path,
		"generation": strconv.FormatUint(gen, 10),
	}
	return s.collection.Delete(ctx, where, nil)
}

func (s *ChromemStore) DeleteFile(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.gens, path)
	s.mu.Unlock()

	if s.collection.Count() == 0 {
		return nil
	}
	where := map[string]string{"file_path": path}
	if err := s.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", path, err)
	}
	return nil
}

func (s *ChromemStore) UpdateTagSnapshot(ctx context.Context, path string, tagIDs []int64) error {
	docs, err := s.ChunksForFile(ctx, path)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	// Re-add under the same IDs with the stored embeddings, so only
	// the snapshot changes and nothing is re-embedded.
	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		doc.Metadata.TagIDs = tagIDs
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  metadataToMap(doc.Metadata),
		}
	}
	if err := s.collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		return fmt.Errorf("updating tag snapshot for %s: %w", path, err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, query string, topK int, filter TagFilter) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	// Overfetch so generation and tag filtering still leaves topK
	// candidates; escalate to the full collection if it does not.
	fetch := topK * overfetchFactor
	if fetch > count {
		fetch = count
	}

	for {
		results, err := s.collection.Query(ctx, query, fetch, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("chromem query: %w", err)
		}

		filtered := s.filterResults(results, filter)
		if len(filtered) >= topK || fetch == count {
			if len(filtered) > topK {
				filtered = filtered[:topK]
			}
			return filtered, nil
		}
		fetch = count
	}
}

// filterResults keeps current-generation chunks admitted by the tag
// filter, ordered by similarity descending with ties broken by most
// recent indexed_at.
func (s *ChromemStore) filterResults(results []chromem.Result, filter TagFilter) []SearchResult {
	var out []SearchResult
	for _, r := range results {
		meta := mapToMetadata(r.Metadata)
		gen, ok := s.currentGen(meta.FilePath)
		if !ok || meta.Generation != gen {
			continue
		}
		if filter != nil && !filter(meta.TagIDSet()) {
			continue
		}
		out = append(out, SearchResult{
			Document: Document{
				ID:        r.ID,
				Content:   r.Content,
				Embedding: r.Embedding,
				Metadata:  meta,
			},
			Similarity: r.Similarity,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Document.Metadata.IndexedAt.After(out[j].Document.Metadata.IndexedAt)
	})
	return out
}

func (s *ChromemStore) ChunksForFile(ctx context.Context, path string) ([]Document, error) {
	gen, ok := s.currentGen(path)
	if !ok {
		return nil, nil
	}

	// Chunk IDs are reconstructible and chunk indexes contiguous, so
	// fetch by ID instead of running a similarity query that would
	// embed the path string.
	var docs []Document
	for i := 0; ; i++ {
		d, err := s.collection.GetByID(ctx, fmt.Sprintf("%s@%d#%d", path, gen, i))
		if err != nil {
			break
		}
		docs = append(docs, Document{
			ID:        d.ID,
			Content:   d.Content,
			Embedding: d.Embedding,
			Metadata:  mapToMetadata(d.Metadata),
		})
	}
	return docs, nil
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := s.db.ExportToFile(filepath.Join(dir, "chromem.gob.gz"), true, ""); err != nil {
		return fmt.Errorf("exporting vector store: %w", err)
	}

	s.mu.RLock()
	data, err := json.Marshal(s.gens)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshalling generations: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "generations.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing generations: %w", err)
	}
	return nil
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(filepath.Join(dir, "chromem.gob.gz"), ""); err != nil {
		return fmt.Errorf("importing vector store: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col

	data, err := os.ReadFile(filepath.Join(dir, "generations.json"))
	if err != nil {
		return fmt.Errorf("reading generations: %w", err)
	}
	gens := make(map[string]uint64)
	if err := json.Unmarshal(data, &gens); err != nil {
		return fmt.Errorf("unmarshalling generations: %w", err)
	}
	s.mu.Lock()
	s.gens = gens
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}
