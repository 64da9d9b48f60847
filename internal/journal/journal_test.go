package journal

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/storage"
)

func fixedClock(hour, min int) Clock {
	return func() time.Time {
		return time.Date(2025, 3, 14, hour, min, 0, 0, time.Local)
	}
}

func testJournal(t *testing.T, now Clock) (*Journal, storage.Provider) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return New(store, now), store
}

func TestAppendCreatesPartition(t *testing.T) {
	j, store := testJournal(t, fixedClock(9, 30))

	rec, err := j.Append("", AppendInput{Title: "First entry", Body: "Hello."})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != "2025-03-14-09-30" {
		t.Errorf("id = %q", rec.ID)
	}

	data, err := store.Read("2025-03-14.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# 2025-03-14\n\n---\n\n") {
		t.Errorf("missing preamble: %q", content)
	}
	if !strings.Contains(content, "## 09:30 — First entry") {
		t.Errorf("missing header: %q", content)
	}
	if !strings.Contains(content, "<!-- id: 2025-03-14-09-30 -->") {
		t.Errorf("missing id marker: %q", content)
	}
}

func TestAppendSameMinuteGetsSuffix(t *testing.T) {
	j, _ := testJournal(t, fixedClock(9, 30))

	first, err := j.Append("", AppendInput{Title: "One"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := j.Append("", AppendInput{Title: "Two"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if first.ID != "2025-03-14-09-30" || second.ID != "2025-03-14-09-30-02" {
		t.Errorf("ids = %q, %q", first.ID, second.ID)
	}
}

func TestAppendExplicitDateAndTime(t *testing.T) {
	j, _ := testJournal(t, fixedClock(9, 30))

	rec, err := j.Append("2024-12-01", AppendInput{Time: "23:59", Title: "Backfill"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != "2024-12-01-23-59" {
		t.Errorf("id = %q", rec.ID)
	}
}

func TestAppendRejectsBadInput(t *testing.T) {
	j, _ := testJournal(t, fixedClock(9, 30))

	if _, err := j.Append("", AppendInput{}); !errors.Is(err, apperr.ErrMalformed) {
		t.Errorf("empty title: err = %v", err)
	}
	if _, err := j.Append("14-03-2025", AppendInput{Title: "X"}); !errors.Is(err, apperr.ErrMalformed) {
		t.Errorf("bad date: err = %v", err)
	}
	if _, err := j.Append("", AppendInput{Title: "X", Time: "9h30"}); !errors.Is(err, apperr.ErrMalformed) {
		t.Errorf("bad time: err = %v", err)
	}
}

func TestAppendComputesAssetRefs(t *testing.T) {
	j, _ := testJournal(t, fixedClock(9, 30))

	rec, err := j.Append("", AppendInput{
		Title:   "With snapshot",
		Archive: []ArchiveRequest{{Path: "/tmp/some/config.yaml", Description: "before the change"}},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(rec.Archived) != 1 {
		t.Fatalf("len(archived) = %d", len(rec.Archived))
	}
	if rec.Archived[0].AssetFilename != "2025-03-14-09-30-config.yaml" {
		t.Errorf("asset filename = %q", rec.Archived[0].AssetFilename)
	}
}

func TestNewIDDoesNotReserve(t *testing.T) {
	j, _ := testJournal(t, fixedClock(9, 30))

	a, err := j.NewID("", "")
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	b, err := j.NewID("", "")
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	if a != b {
		t.Errorf("consecutive peeks differ: %q vs %q", a, b)
	}

	rec, _ := j.Append("", AppendInput{Title: "Claim it"})
	if rec.ID != a {
		t.Errorf("append id = %q, peeked %q", rec.ID, a)
	}
	next, _ := j.NewID("", "")
	if next != a+"-02" {
		t.Errorf("next peek = %q", next)
	}
}

func TestLastIDEmptyDateFindsNewestPartition(t *testing.T) {
	j, _ := testJournal(t, fixedClock(9, 30))

	if _, _, err := j.LastID(""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("empty corpus: err = %v", err)
	}

	_, _ = j.Append("2025-03-12", AppendInput{Time: "08:00", Title: "Old"})
	_, _ = j.Append("2025-03-13", AppendInput{Time: "17:45", Title: "Newer"})

	id, title, err := j.LastID("")
	if err != nil {
		t.Fatalf("LastID: %v", err)
	}
	if id != "2025-03-13-17-45" || title != "Newer" {
		t.Errorf("last = %q / %q", id, title)
	}

	id, _, err = j.LastID("2025-03-12")
	if err != nil {
		t.Fatalf("LastID: %v", err)
	}
	if id != "2025-03-12-08-00" {
		t.Errorf("scoped last = %q", id)
	}
}

func TestLastIDReturnsTailNotMax(t *testing.T) {
	// The final block wins even when an earlier block has a larger id.
	j, _ := testJournal(t, fixedClock(9, 30))
	_, _ = j.Append("2025-03-14", AppendInput{Time: "22:00", Title: "Late"})
	_, _ = j.Append("2025-03-14", AppendInput{Time: "08:00", Title: "Backfilled"})

	id, _, err := j.LastID("2025-03-14")
	if err != nil {
		t.Fatalf("LastID: %v", err)
	}
	if id != "2025-03-14-08-00" {
		t.Errorf("last = %q, want the tail block's id", id)
	}
}

func TestShowLatest(t *testing.T) {
	j, _ := testJournal(t, fixedClock(9, 30))
	_, _ = j.Append("", AppendInput{Title: "One"})
	_, _ = j.Append("", AppendInput{Title: "Two", Body: "Second body."})

	b, err := j.ShowLatest("")
	if err != nil {
		t.Fatalf("ShowLatest: %v", err)
	}
	if b.Title != "Two" || !strings.Contains(b.Raw, "Second body.") {
		t.Errorf("latest = %+v", b)
	}
}

func TestDeleteLatestPreservesEarlierBlocks(t *testing.T) {
	j, store := testJournal(t, fixedClock(9, 30))
	first, _ := j.Append("", AppendInput{Title: "Keep me"})
	_, _ = j.Append("", AppendInput{Title: "Drop me"})

	removed, err := j.DeleteLatest("")
	if err != nil {
		t.Fatalf("DeleteLatest: %v", err)
	}
	if removed.Title != "Drop me" {
		t.Errorf("removed = %q", removed.Title)
	}

	data, _ := store.Read("2025-03-14.md")
	content := string(data)
	if strings.Contains(content, "Drop me") {
		t.Errorf("deleted block still present:\n%s", content)
	}
	if !strings.Contains(content, "<!-- id: "+first.ID+" -->") {
		t.Errorf("surviving block damaged:\n%s", content)
	}
}

func TestDeleteLatestEmptyPartition(t *testing.T) {
	j, store := testJournal(t, fixedClock(9, 30))
	_ = store.Write("2025-03-14.md", []byte("# 2025-03-14\n\n---\n\n"))

	if _, err := j.DeleteLatest("2025-03-14"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReplaceLatestKeepsID(t *testing.T) {
	j, store := testJournal(t, fixedClock(9, 30))
	orig, _ := j.Append("", AppendInput{Title: "Original"})

	id, err := j.ReplaceLatest("", "## 09:30 — Rewritten\n\nBetter wording.\n\n---\n")
	if err != nil {
		t.Fatalf("ReplaceLatest: %v", err)
	}
	if id != orig.ID {
		t.Errorf("id = %q, want %q", id, orig.ID)
	}

	data, _ := store.Read("2025-03-14.md")
	content := string(data)
	if !strings.Contains(content, "Rewritten") || strings.Contains(content, "Original") {
		t.Errorf("replacement not applied:\n%s", content)
	}
	if !strings.Contains(content, "<!-- id: "+orig.ID+" -->") {
		t.Errorf("id marker lost:\n%s", content)
	}
}

func TestReplaceLatestOverridesEmbeddedID(t *testing.T) {
	j, _ := testJournal(t, fixedClock(9, 30))
	orig, _ := j.Append("", AppendInput{Title: "Original"})

	// An id smuggled into the replacement content is discarded.
	id, err := j.ReplaceLatest("", "## 09:30 — Rewritten\n<!-- id: 1999-01-01-00-00 -->\n\nBody.\n\n---\n")
	if err != nil {
		t.Fatalf("ReplaceLatest: %v", err)
	}
	if id != orig.ID {
		t.Errorf("id = %q, want %q", id, orig.ID)
	}

	b, _ := j.ShowLatest("")
	if b.ID != orig.ID {
		t.Errorf("stored id = %q", b.ID)
	}
}

func TestReplaceLatestRejectsMalformed(t *testing.T) {
	j, _ := testJournal(t, fixedClock(9, 30))
	_, _ = j.Append("", AppendInput{Title: "Original"})

	cases := []string{
		"no header at all",
		"## 09:30 — Two blocks\n\n---\n\n## 10:00 — Second\n\n---\n",
	}
	for _, content := range cases {
		if _, err := j.ReplaceLatest("", content); !errors.Is(err, apperr.ErrMalformed) {
			t.Errorf("content %q: err = %v", content, err)
		}
	}
}

func TestPartitionsSorted(t *testing.T) {
	j, store := testJournal(t, fixedClock(9, 30))
	_, _ = j.Append("2025-03-13", AppendInput{Time: "10:00", Title: "B"})
	_, _ = j.Append("2025-03-11", AppendInput{Time: "10:00", Title: "A"})
	_ = store.Write("notes.md", []byte("not a partition"))

	dates, err := j.Partitions()
	if err != nil {
		t.Fatalf("Partitions: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2025-03-11" || dates[1] != "2025-03-13" {
		t.Errorf("dates = %v", dates)
	}
}
