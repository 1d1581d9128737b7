package vectordb

import (
	"encoding/json"
	"strconv"
	"time"
)

// Document is one embedded chunk of a file's content.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  ChunkMetadata
}

// ChunkMetadata holds the structured fields stored alongside each
// chunk. TagIDs is the file's tag set as of the last snapshot update;
// Generation scopes the chunk to one indexing pass of its file.
type ChunkMetadata struct {
	FilePath    string
	ChunkIndex  int
	Start       int
	End         int
	Fingerprint string
	Generation  uint64
	TagIDs      []int64
	IndexedAt   time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// TagFilter decides whether a chunk's tag snapshot admits it into a
// result set. A nil TagFilter admits everything.
type TagFilter func(tagIDs map[int64]bool) bool

// metadataToMap converts ChunkMetadata to the flat map chromem stores.
func metadataToMap(m ChunkMetadata) map[string]string {
	tagIDs, _ := json.Marshal(m.TagIDs)
	return map[string]string{
		"file_path":   m.FilePath,
		"chunk_index": strconv.Itoa(m.ChunkIndex),
		"start":       strconv.Itoa(m.Start),
		"end":         strconv.Itoa(m.End),
		"fingerprint": m.Fingerprint,
		"generation":  strconv.FormatUint(m.Generation, 10),
		"tag_ids":     string(tagIDs),
		"indexed_at":  m.IndexedAt.UTC().Format(time.RFC3339Nano),
	}
}

// mapToMetadata converts a flat map back to ChunkMetadata.
func mapToMetadata(m map[string]string) ChunkMetadata {
	chunkIndex, _ := strconv.Atoi(m["chunk_index"])
	start, _ := strconv.Atoi(m["start"])
	end, _ := strconv.Atoi(m["end"])
	generation, _ := strconv.ParseUint(m["generation"], 10, 64)
	indexedAt, _ := time.Parse(time.RFC3339Nano, m["indexed_at"])

	var tagIDs []int64
	_ = json.Unmarshal([]byte(m["tag_ids"]), &tagIDs)

	return ChunkMetadata{
		FilePath:    m["file_path"],
		ChunkIndex:  chunkIndex,
		Start:       start,
		End:         end,
		Fingerprint: m["fingerprint"],
		Generation:  generation,
		TagIDs:      tagIDs,
		IndexedAt:   indexedAt,
	}
}

// TagIDSet converts the snapshot slice into a membership set.
func (m ChunkMetadata) TagIDSet() map[int64]bool {
	set := make(map[int64]bool, len(m.TagIDs))
	for _, id := range m.TagIDs {
		set[id] = true
	}
	return set
}
