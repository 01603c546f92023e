package storage

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "app.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := Migrate(db, `CREATE TABLE things (id TEXT PRIMARY KEY)`); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM things`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d rows", count)
	}
}

func TestMigrateReportsFailure(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := Migrate(db, `CREATE TABLE ok (id TEXT)`, `NOT SQL`); err == nil {
		t.Fatal("expected migration error")
	}
}
