package index

import (
	"log/slog"
	"os"
	"testing"

	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

const syncPartition = `# 2025-03-14

---

## 09:30 — Indexed entry
<!-- id: 2025-03-14-09-30 -->

Searchable body.

**Related:** 2025-03-13-17-45

---

## 10:00 — Handwritten, no marker

Skipped by the indexer.

---
`

func TestIndexPartition(t *testing.T) {
	db := testDB(t)
	data := []byte(syncPartition)

	if err := IndexPartition(db, "2025-03-14.md", checksum.Sum(data), data); err != nil {
		t.Fatalf("IndexPartition: %v", err)
	}

	r, err := db.GetRecord("2025-03-14-09-30")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if r.Title != "Indexed entry" {
		t.Errorf("title = %q", r.Title)
	}

	// The id-less block is not indexed.
	ids, _ := db.AllIDs()
	if len(ids) != 1 {
		t.Errorf("ids = %v, want only the marked block", ids)
	}

	sources, _ := db.RelatedTo("2025-03-13-17-45")
	if len(sources) != 1 || sources[0] != "2025-03-14-09-30" {
		t.Errorf("related sources = %v", sources)
	}
}

func TestSyncIndexesAndPrunes(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_ = store.Write("2025-03-14.md", []byte(syncPartition))
	_ = store.Write("notes.md", []byte("# not a partition\n"))

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := db.GetRecord("2025-03-14-09-30"); err != nil {
		t.Fatalf("record not indexed: %v", err)
	}
	cs, _ := db.AllChecksums()
	if len(cs) != 1 {
		t.Errorf("checksums = %v, non-partition file indexed", cs)
	}

	// Removing the file prunes its index rows on the next sync.
	_ = store.Delete("2025-03-14.md")
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if ids, _ := db.AllIDs(); len(ids) != 0 {
		t.Errorf("stale ids after prune: %v", ids)
	}
}

func TestSyncSkipsUnchanged(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("2025-03-14.md", []byte(syncPartition))

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	before, _ := db.AllChecksums()

	// A second pass over identical content is a no-op.
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	after, _ := db.AllChecksums()
	if before["2025-03-14.md"] != after["2025-03-14.md"] {
		t.Errorf("checksum changed without content change")
	}
}
