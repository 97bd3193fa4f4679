package testutil

import (
	"testing"

	"feedcache/internal/database"
	"feedcache/internal/feedcache"
	"feedcache/internal/store"
)

// NewTestDatabase creates a new in-memory SQLite database with schema applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) feedcache.Database {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// NewTestStore returns an empty in-memory asset store.
func NewTestStore() *store.MemoryStore {
	return store.NewMemoryStore("test")
}
