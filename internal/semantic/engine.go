package semantic

import (
	"context"
	"sort"
	"strings"

	"github.com/selimcan/tagsense/internal/config"
	"github.com/selimcan/tagsense/internal/tagsearch"
	"github.com/selimcan/tagsense/internal/vectordb"
)

// Band is the discretized confidence label derived from a file's
// aggregate similarity score.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// Query describes one semantic search request. Predicate, when set,
// restricts results to files whose tag snapshot satisfies it.
type Query struct {
	Text      string
	Predicate *tagsearch.Predicate
	TopK      int
}

// Result is one ranked file. Score is the best chunk's similarity;
// Highlights are byte offsets into Snippet.
type Result struct {
	Path        string    `json:"path"`
	Score       float32   `json:"score"`
	Band        Band      `json:"band"`
	Snippet     string    `json:"snippet"`
	Highlights  []Span    `json:"highlights,omitempty"`
	TagIDs      []int64   `json:"tag_ids,omitempty"`
	ChunksFound int       `json:"chunks_found"`
}

// Engine runs semantic queries against the vector store. The expander
// is optional; when nil, queries are embedded as given.
type Engine struct {
	store    vectordb.VectorStore
	expander *Expander
	cfg      config.SearchConfig
}

func NewEngine(store vectordb.VectorStore, expander *Expander, cfg config.SearchConfig) *Engine {
	return &Engine{store: store, expander: expander, cfg: cfg}
}

// chunkOverfetch is how many chunks are retrieved per requested file.
// A long document can dominate the raw chunk ranking, so retrieving
// only TopK chunks could return fewer than TopK files.
const chunkOverfetch = 4

// Search embeds the query, retrieves the nearest chunks, and
// aggregates them into per-file results ordered by score.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = e.cfg.TopK
	}

	text := q.Text
	if e.cfg.ExpandQueries && e.expander != nil {
		if expansions, err := e.expander.Expand(ctx, q.Text); err == nil && len(expansions) > 0 {
			text = strings.Join(append([]string{q.Text}, expansions...), "\n")
		}
	}

	var filter vectordb.TagFilter
	if q.Predicate != nil {
		filter = q.Predicate.Matches
	}

	hits, err := e.store.Query(ctx, text, topK*chunkOverfetch, filter)
	if err != nil {
		return nil, err
	}

	// Best chunk represents the document.
	type fileAgg struct {
		best   vectordb.SearchResult
		chunks int
	}
	byPath := make(map[string]*fileAgg)
	for _, hit := range hits {
		path := hit.Document.Metadata.FilePath
		agg, ok := byPath[path]
		if !ok {
			byPath[path] = &fileAgg{best: hit, chunks: 1}
			continue
		}
		agg.chunks++
		if hit.Similarity > agg.best.Similarity {
			agg.best = hit
		}
	}

	terms := queryTerms(q.Text)
	results := make([]Result, 0, len(byPath))
	for path, agg := range byPath {
		snippet, spans := Snippet(agg.best.Document.Content, terms, defaultSnippetLen)
		results = append(results, Result{
			Path:        path,
			Score:       agg.best.Similarity,
			Band:        e.band(agg.best.Similarity),
			Snippet:     snippet,
			Highlights:  spans,
			TagIDs:      agg.best.Document.Metadata.TagIDs,
			ChunksFound: agg.chunks,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (e *Engine) band(score float32) Band {
	switch {
	case float64(score) >= e.cfg.HighConfidence:
		return BandHigh
	case float64(score) >= e.cfg.MediumConfidence:
		return BandMedium
	default:
		return BandLow
	}
}
