// Package storagetest opens migrated in-memory databases for store tests.
package storagetest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"teniszklub/internal/adapters/storage"
)

// Epoch is a fixed timestamp for seeded rows.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// OpenDB returns a fully migrated in-memory database closed at test end.
// The pool is pinned to one connection so every query sees the same memory db.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", storage.DSN(":memory:"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// SeedUser inserts a minimal user row.
func SeedUser(t testing.TB, db *sql.DB, id, name string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, email, full_name, created_at) VALUES (?, ?, ?, ?)`,
		id, id+"@example.com", name, storage.FormatTime(Epoch))
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

// SeedCourt inserts an active court row.
func SeedCourt(t testing.TB, db *sql.DB, id, name string, sortOrder int) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO courts (id, name, sort_order, created_at) VALUES (?, ?, ?, ?)`,
		id, name, sortOrder, storage.FormatTime(Epoch))
	if err != nil {
		t.Fatalf("seed court %s: %v", id, err)
	}
}
