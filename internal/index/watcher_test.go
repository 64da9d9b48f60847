package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/scribe/internal/storage"
)

// watcherTestEnv sets up a corpus dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	corpusDir := t.TempDir()
	store, err := storage.NewFS(corpusDir)
	if err != nil {
		t.Fatal(err)
	}
	return corpusDir, store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func indexed(db *DB, id string) bool {
	_, err := db.GetRecord(id)
	return err == nil
}

func TestWatcher_NewPartitionIndexed(t *testing.T) {
	corpusDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, corpusDir, quietLogger(), func(kind, partition string) {
		mu.Lock()
		events = append(events, kind+":"+partition)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(corpusDir, "2025-03-14.md"), []byte(syncPartition), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, "2025-03-14-09-30")
	}, "new partition not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:2025-03-14.md" {
				return true
			}
		}
		return false
	}, "expected created:2025-03-14.md callback")
}

func TestWatcher_IgnoresNonPartitionFiles(t *testing.T) {
	corpusDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, corpusDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(corpusDir, "notes.md"), []byte(syncPartition), 0o644)

	// Give the watcher a chance to (incorrectly) pick it up.
	time.Sleep(500 * time.Millisecond)
	cs, _ := db.AllChecksums()
	if len(cs) != 0 {
		t.Errorf("non-partition file indexed: %v", cs)
	}
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	corpusDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(corpusDir, "2025-03-14.md"), []byte(syncPartition), 0o644)
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if !indexed(db, "2025-03-14-09-30") {
		t.Fatal("precondition: record not indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, corpusDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(corpusDir, "2025-03-14.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !indexed(db, "2025-03-14-09-30")
	}, "deleted partition still indexed")
}

func TestWatcher_RenameReconciled(t *testing.T) {
	corpusDir, store, db := watcherTestEnv(t)

	oldPath := filepath.Join(corpusDir, "2025-03-14.md")
	_ = os.WriteFile(oldPath, []byte(syncPartition), 0o644)
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, corpusDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	// Rename to another partition date. The old entry must disappear and
	// the new one must be indexed under its own name.
	newContent := []byte("# 2025-03-15\n\n---\n\n## 08:00 — Moved\n<!-- id: 2025-03-15-08-00 -->\n\n---\n")
	_ = os.WriteFile(oldPath, newContent, 0o644)
	_ = os.Rename(oldPath, filepath.Join(corpusDir, "2025-03-15.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.AllChecksums()
		_, old := cs["2025-03-14.md"]
		_, renamed := cs["2025-03-15.md"]
		return !old && renamed
	}, "rename not reconciled")
}
