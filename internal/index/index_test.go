package index

import (
	"os"
	"testing"
	"time"

	"github.com/starford/plate/internal/document"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "plate-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// docBytes serializes a document built from the given blocks.
func docBytes(t *testing.T, blocks ...document.Node) []byte {
	t.Helper()
	data, err := document.EncodeValue(&document.Document{Children: blocks})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	return data
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM mentions`).Scan(&count); err != nil {
		t.Fatalf("mentions table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		Path:      "hello.plate.json",
		Title:     "Hello World",
		Checksum:  "abc123",
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDocument(row, "This is a hello world document.", []string{"ada"}); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	cs, err := db.GetChecksum("hello.plate.json")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "a.plate.json", Checksum: "1", UpdatedAt: time.Now()}, "body", []string{"ada"})
	_ = db.UpsertDocument(DocumentRow{Path: "c.plate.json", Checksum: "2", UpdatedAt: time.Now()}, "body", []string{"ada"})

	bl, err := db.Backlinks("ada")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d", len(bl))
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "del.plate.json", Checksum: "x", UpdatedAt: time.Now()}, "body", []string{"gone"})

	if err := db.DeleteDocument("del.plate.json"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	cs, _ := db.GetChecksum("del.plate.json")
	if cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("gone")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{Path: "up.plate.json", Title: "Old", Checksum: "1", UpdatedAt: now}, "old body", []string{"x"})
	_ = db.UpsertDocument(DocumentRow{Path: "up.plate.json", Title: "New", Checksum: "2", UpdatedAt: now}, "new body", []string{"y"})

	cs, _ := db.GetChecksum("up.plate.json")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x")
	if len(bl) != 0 {
		t.Error("old mention should be removed on upsert")
	}
	bl, _ = db.Backlinks("y")
	if len(bl) != 1 {
		t.Error("new mention should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.plate.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestGetDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "g.plate.json", Title: "Get Me", Checksum: "1", UpdatedAt: time.Now()}, "body", nil)

	d, err := db.GetDocument("g.plate.json")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if d.Title != "Get Me" {
		t.Errorf("title = %q", d.Title)
	}

	if _, err := db.GetDocument("missing.plate.json"); err == nil {
		t.Error("expected error for missing document")
	}
}

func TestListDocuments(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = db.UpsertDocument(DocumentRow{Path: "b.plate.json", Title: "Beta", Checksum: "1", UpdatedAt: base.Add(time.Hour)}, "", nil)
	_ = db.UpsertDocument(DocumentRow{Path: "a.plate.json", Title: "Alpha", Checksum: "2", UpdatedAt: base}, "", nil)

	docs, total, err := db.ListDocuments(10, 0, "path")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 2 || len(docs) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(docs))
	}
	if docs[0].Path != "a.plate.json" {
		t.Errorf("path sort: first = %q", docs[0].Path)
	}

	docs, _, _ = db.ListDocuments(10, 0, "")
	if docs[0].Path != "b.plate.json" {
		t.Errorf("default sort should be newest first, got %q", docs[0].Path)
	}

	docs, total, _ = db.ListDocuments(1, 1, "path")
	if total != 2 || len(docs) != 1 || docs[0].Path != "b.plate.json" {
		t.Errorf("pagination: total = %d, docs = %+v", total, docs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "s.plate.json", Title: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.plate.json" {
		t.Errorf("search results = %+v, want 1 hit for s.plate.json", results)
	}
}
