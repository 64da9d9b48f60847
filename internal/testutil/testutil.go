// Package testutil provides shared test helpers for setting up corpora and databases.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "scribe-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCorpus creates a temporary corpus directory with a storage.Provider.
func TestCorpus(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// FixedClock returns a clock pinned to the given local time.
func FixedClock(year int, month time.Month, day, hour, min int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, hour, min, 0, 0, time.Local)
	}
}
