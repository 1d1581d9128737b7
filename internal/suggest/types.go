package suggest

// Status tracks the lifecycle of a cached suggestion run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ExistingSuggestion proposes applying a tag that already exists in
// the vocabulary.
type ExistingSuggestion struct {
	TagID      int64   `json:"tag_id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// NewSuggestion proposes creating a tag that does not yet exist.
type NewSuggestion struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// SuggestionSet is the full result of analyzing one file, both lists
// ordered by confidence descending.
type SuggestionSet struct {
	Existing []ExistingSuggestion `json:"existing"`
	New      []NewSuggestion      `json:"new"`
}
