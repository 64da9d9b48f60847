package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempCorpus(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempCorpus(t)
	content := []byte("# 2025-03-14\n\n---\n")
	if err := s.Write("2025-03-14.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("2025-03-14.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempCorpus(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestListRootMarkdownOnly(t *testing.T) {
	s := tempCorpus(t)
	_ = s.Write("2025-03-13.md", []byte("a"))
	_ = s.Write("2025-03-14.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = os.MkdirAll(filepath.Join(s.root, "assets"), 0o755)
	_ = os.WriteFile(filepath.Join(s.root, "assets", "x.md"), []byte("nested"), 0o644)

	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.Checksum == "" {
			t.Errorf("missing checksum for %s", it.Path)
		}
	}
}

func TestListChecksumTracksContent(t *testing.T) {
	s := tempCorpus(t)
	_ = s.Write("2025-03-14.md", []byte("v1"))
	before, _ := s.List()

	_ = s.Write("2025-03-14.md", []byte("v2"))
	after, _ := s.List()

	if before[0].Checksum == after[0].Checksum {
		t.Error("checksum unchanged after rewrite")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempCorpus(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftoverTemp(t *testing.T) {
	s := tempCorpus(t)
	original := []byte("original content")
	_ = s.Write("2025-03-14.md", original)

	updated := []byte("updated content")
	if err := s.Write("2025-03-14.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("2025-03-14.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".scribe-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/scribe-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "scribe-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
