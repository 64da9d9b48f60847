package journal

import (
	"reflect"
	"testing"
)

const samplePartition = `# 2025-03-14

---

## 09:30 — Fixed the flaky watcher test
<!-- id: 2025-03-14-09-30 -->

The rename debounce fired twice under load.

**Files touched:**
- ` + "`internal/index/watcher.go`" + ` — longer debounce window

**Status:** done

---

## 11:05 — Captured the broken config
<!-- id: 2025-03-14-11-05 -->

**Archived:**
- ` + "`config/config.yaml`" + ` → [` + "`config.yaml`" + `](assets/2025-03-14-11-05-config.yaml)

**Related:** 2025-03-14-09-30

---
`

func TestParsePartitionBlocks(t *testing.T) {
	p := ParsePartition("2025-03-14", samplePartition)

	if p.Preamble != "# 2025-03-14\n\n---\n\n" {
		t.Errorf("preamble = %q", p.Preamble)
	}
	if len(p.Blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(p.Blocks))
	}

	b := p.Blocks[0]
	if b.Time != "09:30" || b.Title != "Fixed the flaky watcher test" {
		t.Errorf("block 0 header = %q / %q", b.Time, b.Title)
	}
	if b.ID != "2025-03-14-09-30" {
		t.Errorf("block 0 id = %q", b.ID)
	}
	if b.Status() != "done" {
		t.Errorf("block 0 status = %q", b.Status())
	}

	b = p.Blocks[1]
	if b.ID != "2025-03-14-11-05" {
		t.Errorf("block 1 id = %q", b.ID)
	}
	assets := b.AssetFilenames()
	if !reflect.DeepEqual(assets, []string{"2025-03-14-11-05-config.yaml"}) {
		t.Errorf("assets = %v", assets)
	}
	related := b.Related()
	if !reflect.DeepEqual(related, []string{"2025-03-14-09-30"}) {
		t.Errorf("related = %v", related)
	}
}

func TestParsePartitionRoundTrip(t *testing.T) {
	p := ParsePartition("2025-03-14", samplePartition)
	if got := p.Render(); got != samplePartition {
		t.Errorf("render mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, samplePartition)
	}
}

func TestParsePartitionNoBlocks(t *testing.T) {
	content := "# 2025-03-14\n\n---\n\n"
	p := ParsePartition("2025-03-14", content)
	if len(p.Blocks) != 0 {
		t.Errorf("len(blocks) = %d, want 0", len(p.Blocks))
	}
	if p.Render() != content {
		t.Errorf("render = %q", p.Render())
	}
}

func TestRelatedOnlyInsideSection(t *testing.T) {
	// Ids mentioned in the body must not count as related links.
	raw := "## 10:00 — Title\n<!-- id: 2025-03-14-10-00 -->\n\n" +
		"Body mentions 2025-01-01-08-00 in passing.\n\n" +
		"**Related:** 2025-03-14-09-30\n\n---\n"
	b := ParsePartition("2025-03-14", raw).Blocks[0]
	if got := b.Related(); !reflect.DeepEqual(got, []string{"2025-03-14-09-30"}) {
		t.Errorf("related = %v", got)
	}
}

func TestRelatedBulletList(t *testing.T) {
	raw := "## 10:00 — Title\n<!-- id: 2025-03-14-10-00 -->\n\n" +
		"**Related:**\n- 2025-03-13-17-45\n- 2025-03-14-09-30\n\n---\n"
	b := ParsePartition("2025-03-14", raw).Blocks[0]
	want := []string{"2025-03-13-17-45", "2025-03-14-09-30"}
	if got := b.Related(); !reflect.DeepEqual(got, want) {
		t.Errorf("related = %v, want %v", got, want)
	}
}

func TestBlockWithoutID(t *testing.T) {
	raw := "## 10:00 — Handwritten entry\n\nNo marker here.\n\n---\n"
	b := ParsePartition("2025-03-14", raw).Blocks[0]
	if b.ID != "" {
		t.Errorf("id = %q, want empty", b.ID)
	}
}

func TestMatchPartition(t *testing.T) {
	if date, ok := MatchPartition("2025-03-14.md"); !ok || date != "2025-03-14" {
		t.Errorf("MatchPartition = %q, %v", date, ok)
	}
	for _, name := range []string{"notes.md", "2025-03-14.txt", "2025-3-14.md", "assets"} {
		if _, ok := MatchPartition(name); ok {
			t.Errorf("MatchPartition(%q) matched", name)
		}
	}
}
