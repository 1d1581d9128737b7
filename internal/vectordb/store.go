package vectordb

import "context"

// VectorStore defines the interface for storing and searching file
// chunks by embedding similarity.
type VectorStore interface {
	// ReplaceFile atomically replaces all chunks for a path with the
	// given documents. Concurrent queries see either the old chunk set
	// or the new one, never a mix.
	ReplaceFile(ctx context.Context, path string, docs []Document) error

	// DeleteFile removes all chunks for a path; idempotent.
	DeleteFile(ctx context.Context, path string) error

	// UpdateTagSnapshot rewrites the tag snapshot on a path's chunks
	// without touching vectors or text.
	UpdateTagSnapshot(ctx context.Context, path string, tagIDs []int64) error

	// Query returns the topK most similar current-generation chunks,
	// optionally restricted by a tag snapshot filter.
	Query(ctx context.Context, query string, topK int, filter TagFilter) ([]SearchResult, error)

	// ChunksForFile returns the current-generation chunks for a path.
	ChunksForFile(ctx context.Context, path string) ([]Document, error)

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of stored chunks.
	Count() int
}
