package tagstore

// DefaultColor is assigned to tags created without an explicit color.
const DefaultColor = "#808080"

// Tag is a named label that can be attached to any number of files.
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// EventKind identifies the type of a store change event.
type EventKind string

const (
	// EventTagsChanged fires when the set of tags on a file changes.
	EventTagsChanged EventKind = "tags_changed"
	// EventFileRemoved fires when a file is removed from the store.
	EventFileRemoved EventKind = "file_removed"
)

// Event describes a change to the tag store. For EventTagsChanged,
// TagIDs holds the file's tag set after the change.
type Event struct {
	Kind   EventKind `json:"kind"`
	Path   string    `json:"path"`
	TagIDs []int64   `json:"tag_ids,omitempty"`
}
