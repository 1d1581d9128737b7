package tagstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/selimcan/tagsense/internal/db"
)

// ErrTagNotFound is returned when an operation references a tag that
// does not exist.
var ErrTagNotFound = errors.New("tag not found")

// Store provides CRUD operations for tags and file-tag associations.
// Mutations publish events to subscribed listeners after commit.
type Store struct {
	db  *db.DB
	bus eventBus
}

// NewStore creates a new tag store backed by the given database.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Subscribe registers a listener for store change events.
func (s *Store) Subscribe(l Listener) {
	s.bus.subscribe(l)
}

// CreateTag creates a tag with the given name, or returns the existing
// tag if one with the same name (case-insensitive) already exists. An
// empty color gets DefaultColor.
func (s *Store) CreateTag(ctx context.Context, name, color string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name must not be empty")
	}
	if color == "" {
		color = DefaultColor
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (name, color) VALUES (?, ?)
		 ON CONFLICT(name) DO NOTHING`, name, color)
	if err != nil {
		return nil, fmt.Errorf("creating tag %q: %w", name, err)
	}
	return s.GetTagByName(ctx, name)
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, id int64) (*Tag, error) {
	t := &Tag{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, color FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag %d: %w", id, err)
	}
	return t, nil
}

// GetTagByName retrieves a tag by name (case-insensitive).
func (s *Store) GetTagByName(ctx context.Context, name string) (*Tag, error) {
	t := &Tag{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, color FROM tags WHERE name = ? COLLATE NOCASE`, name,
	).Scan(&t.ID, &t.Name, &t.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag %q: %w", name, err)
	}
	return t, nil
}

// RenameTag changes a tag's name. Associations are unaffected.
func (s *Store) RenameTag(ctx context.Context, id int64, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET name = ? WHERE id = ?`, newName, id)
	if err != nil {
		return fmt.Errorf("renaming tag %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrTagNotFound
	}
	return nil
}

// SetColor changes a tag's display color.
func (s *Store) SetColor(ctx context.Context, id int64, color string) error {
	if color == "" {
		color = DefaultColor
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET color = ? WHERE id = ?`, color, id)
	if err != nil {
		return fmt.Errorf("setting color for tag %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrTagNotFound
	}
	return nil
}

// DeleteTag removes a tag and all its file associations. A TagsChanged
// event is published for every file that carried the tag.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	affected, err := s.FilesWithTag(ctx, id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tag %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrTagNotFound
	}

	for _, path := range affected {
		ids, err := s.TagIDsForFile(ctx, path)
		if err != nil {
			return err
		}
		s.bus.publish(Event{Kind: EventTagsChanged, Path: path, TagIDs: ids})
	}
	return nil
}

// TagFile attaches a tag to a file. Attaching an already-present tag is
// a no-op and publishes no event.
func (s *Store) TagFile(ctx context.Context, path string, tagID int64) error {
	if _, err := s.GetTag(ctx, tagID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO file_tags (file_path, tag_id) VALUES (?, ?)
		 ON CONFLICT(file_path, tag_id) DO NOTHING`, path, tagID)
	if err != nil {
		return fmt.Errorf("tagging %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	ids, err := s.TagIDsForFile(ctx, path)
	if err != nil {
		return err
	}
	s.bus.publish(Event{Kind: EventTagsChanged, Path: path, TagIDs: ids})
	return nil
}

// UntagFile detaches a tag from a file. Detaching an absent tag is a
// no-op and publishes no event.
func (s *Store) UntagFile(ctx context.Context, path string, tagID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM file_tags WHERE file_path = ? AND tag_id = ?`, path, tagID)
	if err != nil {
		return fmt.Errorf("untagging %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	ids, err := s.TagIDsForFile(ctx, path)
	if err != nil {
		return err
	}
	s.bus.publish(Event{Kind: EventTagsChanged, Path: path, TagIDs: ids})
	return nil
}

// TagsForFile returns the tags attached to a file, ordered by name.
func (s *Store) TagsForFile(ctx context.Context, path string) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.color FROM tags t
		 JOIN file_tags ft ON ft.tag_id = t.id
		 WHERE ft.file_path = ? ORDER BY t.name`, path)
	if err != nil {
		return nil, fmt.Errorf("tags for %s: %w", path, err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// TagIDsForFile returns the IDs of the tags attached to a file.
func (s *Store) TagIDsForFile(ctx context.Context, path string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag_id FROM file_tags WHERE file_path = ? ORDER BY tag_id`, path)
	if err != nil {
		return nil, fmt.Errorf("tag ids for %s: %w", path, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning tag id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FilesWithTag returns the paths of all files carrying the given tag,
// in lexical order.
func (s *Store) FilesWithTag(ctx context.Context, tagID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path FROM file_tags WHERE tag_id = ? ORDER BY file_path`, tagID)
	if err != nil {
		return nil, fmt.Errorf("files with tag %d: %w", tagID, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// AllTags returns every tag, ordered by name.
func (s *Store) AllTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// AllTagNames returns every tag name, ordered by name. This is the
// vocabulary handed to the suggestion engine.
func (s *Store) AllTagNames(ctx context.Context) ([]string, error) {
	tags, err := s.AllTags(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names, nil
}

// AllFiles returns every file path that carries at least one tag.
func (s *Store) AllFiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT file_path FROM file_tags ORDER BY file_path`)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// RemoveFile deletes all tag associations for a file and publishes a
// FileRemoved event. Removing an unknown file is a no-op.
func (s *Store) RemoveFile(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM file_tags WHERE file_path = ?`, path)
	if err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	s.bus.publish(Event{Kind: EventFileRemoved, Path: path})
	return nil
}
