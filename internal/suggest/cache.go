package suggest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/selimcan/tagsense/internal/db"
)

// Entry is one cached suggestion run, keyed by (file_path, provider).
type Entry struct {
	ID          string
	FilePath    string
	Provider    string
	Fingerprint string
	Status      Status
	Set         SuggestionSet
	CreatedAt   time.Time
}

// Stale reports whether the entry can no longer serve a request: it
// failed, outlived the TTL, or was computed from different content.
func (e *Entry) Stale(fingerprint string, ttl time.Duration, now time.Time) bool {
	if e.Status != StatusCompleted {
		return true
	}
	if now.Sub(e.CreatedAt) > ttl {
		return true
	}
	return e.Fingerprint != fingerprint
}

// Cache persists suggestion results in SQLite.
type Cache struct {
	db *db.DB
}

func NewCache(d *db.DB) *Cache {
	return &Cache{db: d}
}

// Get returns the entry for (path, provider), or nil when none exists.
func (c *Cache) Get(ctx context.Context, path, provider string) (*Entry, error) {
	var (
		e         Entry
		rawSet    string
		createdAt string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT id, file_path, provider, fingerprint, status, suggestions, created_at
		 FROM suggestion_cache WHERE file_path = ? AND provider = ?`,
		path, provider,
	).Scan(&e.ID, &e.FilePath, &e.Provider, &e.Fingerprint, &e.Status, &rawSet, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion cache: %w", err)
	}
	if err := json.Unmarshal([]byte(rawSet), &e.Set); err != nil {
		return nil, fmt.Errorf("decode cached suggestions: %w", err)
	}
	e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("decode cache timestamp: %w", err)
	}
	return &e, nil
}

// Put inserts or replaces the entry for (file_path, provider).
func (c *Cache) Put(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	rawSet, err := json.Marshal(e.Set)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO suggestion_cache (id, file_path, provider, fingerprint, status, suggestions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file_path, provider) DO UPDATE SET
		   fingerprint = excluded.fingerprint,
		   status      = excluded.status,
		   suggestions = excluded.suggestions,
		   created_at  = excluded.created_at`,
		e.ID, e.FilePath, e.Provider, e.Fingerprint, string(e.Status),
		string(rawSet), e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write suggestion cache: %w", err)
	}
	return nil
}

// DeleteFile drops all cached suggestions for a path, across
// providers. A no-op for unknown paths.
func (c *Cache) DeleteFile(ctx context.Context, path string) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM suggestion_cache WHERE file_path = ?`, path); err != nil {
		return fmt.Errorf("delete suggestion cache: %w", err)
	}
	return nil
}
