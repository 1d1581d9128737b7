package db

import (
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Verify tables exist by querying each one.
	tables := []string{"tags", "file_tags", "suggestion_cache"}

	for _, table := range tables {
		var count int
		err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}

func TestTagNameCaseInsensitiveUnique(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO tags (name) VALUES ('Work')`); err != nil {
		t.Fatalf("inserting tag: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO tags (name) VALUES ('work')`); err == nil {
		t.Error("expected unique violation for case-insensitive duplicate")
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	var enabled int
	if err := d.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled); err != nil {
		t.Fatalf("reading foreign_keys pragma: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("foreign_keys pragma = %d, want 1", enabled)
	}

	// A dangling tag reference must be rejected, not silently stored.
	if _, err := d.Exec(`INSERT INTO file_tags (file_path, tag_id) VALUES ('/docs/a.txt', 999)`); err == nil {
		t.Error("expected foreign key violation for unknown tag_id")
	}
}

func TestDeleteTagCascades(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	res, err := d.Exec(`INSERT INTO tags (name) VALUES ('invoices')`)
	if err != nil {
		t.Fatalf("inserting tag: %v", err)
	}
	tagID, _ := res.LastInsertId()
	if _, err := d.Exec(`INSERT INTO file_tags (file_path, tag_id) VALUES ('/docs/a.txt', ?)`, tagID); err != nil {
		t.Fatalf("inserting file_tag: %v", err)
	}

	if _, err := d.Exec(`DELETE FROM tags WHERE id = ?`, tagID); err != nil {
		t.Fatalf("deleting tag: %v", err)
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM file_tags`).Scan(&count); err != nil {
		t.Fatalf("counting file_tags: %v", err)
	}
	if count != 0 {
		t.Errorf("file_tags count = %d after cascade delete, want 0", count)
	}
}
