package tagstore

import (
	"context"
	"errors"
	"testing"

	"github.com/selimcan/tagsense/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func TestCreateTagDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, err := s.CreateTag(ctx, "work", "")
	if err != nil {
		t.Fatalf("CreateTag() error: %v", err)
	}
	if tag.Color != DefaultColor {
		t.Errorf("Color = %q, want %q", tag.Color, DefaultColor)
	}
	if tag.Name != "work" {
		t.Errorf("Name = %q, want work", tag.Name)
	}
}

func TestCreateTagCaseInsensitiveIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateTag(ctx, "Work", "#ff0000")
	if err != nil {
		t.Fatalf("CreateTag() error: %v", err)
	}
	second, err := s.CreateTag(ctx, "work", "")
	if err != nil {
		t.Fatalf("CreateTag() second error: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same tag, got IDs %d and %d", first.ID, second.ID)
	}
	if second.Name != "Work" {
		t.Errorf("expected original casing preserved, got %q", second.Name)
	}
}

func TestCreateTagEmptyName(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateTag(context.Background(), "  ", ""); err == nil {
		t.Error("CreateTag with blank name should fail")
	}
}

func TestTagUntagFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _ := s.CreateTag(ctx, "invoices", "")

	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	if err := s.TagFile(ctx, "/docs/a.txt", tag.ID); err != nil {
		t.Fatalf("TagFile() error: %v", err)
	}
	// Re-tagging is a no-op and must not publish again.
	if err := s.TagFile(ctx, "/docs/a.txt", tag.ID); err != nil {
		t.Fatalf("second TagFile() error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events after duplicate tag, want 1", len(events))
	}
	if events[0].Kind != EventTagsChanged || events[0].Path != "/docs/a.txt" {
		t.Errorf("unexpected event: %+v", events[0])
	}

	tags, err := s.TagsForFile(ctx, "/docs/a.txt")
	if err != nil {
		t.Fatalf("TagsForFile() error: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "invoices" {
		t.Errorf("TagsForFile() = %+v", tags)
	}

	if err := s.UntagFile(ctx, "/docs/a.txt", tag.ID); err != nil {
		t.Fatalf("UntagFile() error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events after untag, want 2", len(events))
	}
	if len(events[1].TagIDs) != 0 {
		t.Errorf("TagsChanged after untag should carry empty set, got %v", events[1].TagIDs)
	}

	// Untagging again is silent.
	if err := s.UntagFile(ctx, "/docs/a.txt", tag.ID); err != nil {
		t.Fatalf("second UntagFile() error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events after no-op untag, want 2", len(events))
	}
}

func TestTagFileUnknownTag(t *testing.T) {
	s := newTestStore(t)
	err := s.TagFile(context.Background(), "/docs/a.txt", 999)
	if !errors.Is(err, ErrTagNotFound) {
		t.Errorf("TagFile() error = %v, want ErrTagNotFound", err)
	}
}

func TestDeleteTagCascadesAndNotifies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	keep, _ := s.CreateTag(ctx, "keep", "")
	doomed, _ := s.CreateTag(ctx, "doomed", "")
	s.TagFile(ctx, "/a.txt", keep.ID)
	s.TagFile(ctx, "/a.txt", doomed.ID)
	s.TagFile(ctx, "/b.txt", doomed.ID)

	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	if err := s.DeleteTag(ctx, doomed.ID); err != nil {
		t.Fatalf("DeleteTag() error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want one per affected file (2)", len(events))
	}
	for _, e := range events {
		if e.Kind != EventTagsChanged {
			t.Errorf("event kind = %q, want tags_changed", e.Kind)
		}
		if e.Path == "/a.txt" && (len(e.TagIDs) != 1 || e.TagIDs[0] != keep.ID) {
			t.Errorf("/a.txt event TagIDs = %v, want [%d]", e.TagIDs, keep.ID)
		}
		if e.Path == "/b.txt" && len(e.TagIDs) != 0 {
			t.Errorf("/b.txt event TagIDs = %v, want empty", e.TagIDs)
		}
	}

	if _, err := s.GetTag(ctx, doomed.ID); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("GetTag after delete = %v, want ErrTagNotFound", err)
	}
	paths, _ := s.FilesWithTag(ctx, doomed.ID)
	if len(paths) != 0 {
		t.Errorf("FilesWithTag after delete = %v, want empty", paths)
	}
}

func TestRenameAndSetColor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _ := s.CreateTag(ctx, "old", "")
	if err := s.RenameTag(ctx, tag.ID, "new"); err != nil {
		t.Fatalf("RenameTag() error: %v", err)
	}
	if err := s.SetColor(ctx, tag.ID, "#123456"); err != nil {
		t.Fatalf("SetColor() error: %v", err)
	}
	got, _ := s.GetTag(ctx, tag.ID)
	if got.Name != "new" || got.Color != "#123456" {
		t.Errorf("after rename/recolor: %+v", got)
	}

	if err := s.RenameTag(ctx, 999, "x"); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("RenameTag missing = %v, want ErrTagNotFound", err)
	}
	if err := s.SetColor(ctx, 999, "#000000"); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("SetColor missing = %v, want ErrTagNotFound", err)
	}
}

func TestRemoveFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _ := s.CreateTag(ctx, "work", "")
	s.TagFile(ctx, "/a.txt", tag.ID)

	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	if err := s.RemoveFile(ctx, "/a.txt"); err != nil {
		t.Fatalf("RemoveFile() error: %v", err)
	}
	if len(events) != 1 || events[0].Kind != EventFileRemoved {
		t.Fatalf("expected one file_removed event, got %+v", events)
	}

	// Removing an unknown file is silent.
	if err := s.RemoveFile(ctx, "/missing.txt"); err != nil {
		t.Fatalf("RemoveFile(missing) error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("no-op removal should not publish, got %d events", len(events))
	}
}

func TestListingOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b, _ := s.CreateTag(ctx, "beta", "")
	a, _ := s.CreateTag(ctx, "alpha", "")
	s.TagFile(ctx, "/z.txt", a.ID)
	s.TagFile(ctx, "/a.txt", a.ID)
	s.TagFile(ctx, "/a.txt", b.ID)

	tags, _ := s.AllTags(ctx)
	if len(tags) != 2 || tags[0].Name != "alpha" || tags[1].Name != "beta" {
		t.Errorf("AllTags() = %+v, want alpha then beta", tags)
	}

	names, _ := s.AllTagNames(ctx)
	if len(names) != 2 || names[0] != "alpha" {
		t.Errorf("AllTagNames() = %v", names)
	}

	files, _ := s.AllFiles(ctx)
	if len(files) != 2 || files[0] != "/a.txt" || files[1] != "/z.txt" {
		t.Errorf("AllFiles() = %v, want lexical order", files)
	}

	withA, _ := s.FilesWithTag(ctx, a.ID)
	if len(withA) != 2 || withA[0] != "/a.txt" {
		t.Errorf("FilesWithTag(alpha) = %v", withA)
	}
}
