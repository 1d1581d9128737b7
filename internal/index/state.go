package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileState records what the index knows about one file. Empty marks a
// file whose extraction produced no content; it stays in the state so
// unchanged files are not re-extracted, and an explicit force reindex
// retries it.
type FileState struct {
	Fingerprint string    `json:"fingerprint"`
	Empty       bool      `json:"empty"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// State tracks indexed files and their content fingerprints.
type State struct {
	Files       map[string]FileState `json:"files"`
	LastUpdated time.Time            `json:"last_updated"`
}

// LoadState reads index state from state.json inside the data directory.
// A missing file yields a fresh empty state.
func LoadState(dataDir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, "state.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Files: make(map[string]FileState)}, nil
		}
		return nil, fmt.Errorf("reading index state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing index state: %w", err)
	}
	if state.Files == nil {
		state.Files = make(map[string]FileState)
	}
	return &state, nil
}

// Save writes the state to state.json inside the data directory.
func (s *State) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	s.LastUpdated = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling index state: %w", err)
	}
	return os.WriteFile(filepath.Join(dataDir, "state.json"), data, 0o644)
}
