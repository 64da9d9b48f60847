// Package assets implements the write-once content archive. Archived files
// live in a flat directory and are named "{ownerRecordID}-{basename}", so
// the owning record is always recoverable from the filename alone.
package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/scribe/internal/apperr"
)

// RestorePrefix is prepended to filenames restored out of the archive so a
// restore never collides with a live working file of the same name.
const RestorePrefix = "_"

// Store is the asset archive rooted at a single directory.
type Store struct {
	dir string
}

// NewStore creates (if needed) and opens the asset directory.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("assets: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute asset directory.
func (s *Store) Dir() string {
	return s.dir
}

// Name computes the archive filename for a record's snapshot of sourcePath.
func Name(recordID, sourcePath string) string {
	return recordID + "-" + filepath.Base(sourcePath)
}

// safeName validates that name is a plain filename (no separators, no
// traversal) and returns its absolute path under the asset directory.
func (s *Store) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("assets: filename is required: %w", apperr.ErrMalformed)
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("assets: invalid filename %q: %w", name, apperr.ErrMalformed)
	}
	abs := filepath.Join(s.dir, cleaned)
	if !strings.HasPrefix(abs, s.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("assets: path escapes asset directory: %w", apperr.ErrMalformed)
	}
	return abs, nil
}

// Save byte-copies sourcePath into the archive under the record's name.
// The archive is write-once: an existing asset of the same name is refused
// so re-archiving stays an explicit delete-then-save operation.
func (s *Store) Save(recordID, sourcePath string) (string, error) {
	name := Name(recordID, sourcePath)
	dst, err := s.safeName(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("assets: %s: %w", name, apperr.ErrAlreadyExists)
	}
	if err := copyFile(sourcePath, dst); err != nil {
		return "", err
	}
	return name, nil
}

// Rearchive replaces any existing asset with a fresh snapshot of sourcePath.
func (s *Store) Rearchive(recordID, sourcePath string) (string, error) {
	name := Name(recordID, sourcePath)
	abs, err := s.safeName(name)
	if err != nil {
		return "", err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("assets: remove %s: %w", name, err)
	}
	return s.Save(recordID, sourcePath)
}

// Get restores an archived file into destDir under "_<name>". The
// destination directory must already exist, and an existing restore target
// is never overwritten.
func (s *Store) Get(name, destDir string) (string, error) {
	src, err := s.safeName(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("assets: %s: %w", name, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("assets: stat %s: %w", name, err)
	}
	info, err := os.Stat(destDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("assets: destination %s: %w", destDir, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("assets: stat destination: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("assets: destination %s is not a directory: %w", destDir, apperr.ErrMalformed)
	}
	dest := filepath.Join(destDir, RestorePrefix+name)
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("assets: %s: %w", dest, apperr.ErrAlreadyExists)
	}
	if err := copyFile(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// List returns archived filenames containing filter as a substring, in
// lexicographic order. An empty filter lists everything.
func (s *Store) List(filter string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("assets: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filter == "" || strings.Contains(e.Name(), filter) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Delete hard-deletes an archived file. This is reached only through
// record-level amend operations, never exposed as a standalone primitive.
func (s *Store) Delete(name string) error {
	abs, err := s.safeName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("assets: %s: %w", name, apperr.ErrNotFound)
		}
		return fmt.Errorf("assets: delete %s: %w", name, err)
	}
	return nil
}

// DeleteOwned removes every asset owned by the record (name prefix
// "{recordID}-") and returns the deleted filenames.
func (s *Store) DeleteOwned(recordID string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("assets: list: %w", err)
	}
	var deleted []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), recordID+"-") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return deleted, fmt.Errorf("assets: delete %s: %w", e.Name(), err)
		}
		deleted = append(deleted, e.Name())
	}
	return deleted, nil
}

// SaveReader archives content streamed from r under the record's name.
// Write-once semantics match Save.
func (s *Store) SaveReader(recordID, basename string, r io.Reader) (string, error) {
	name := Name(recordID, basename)
	dst, err := s.safeName(name)
	if err != nil {
		return "", err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("assets: %s: %w", name, apperr.ErrAlreadyExists)
		}
		return "", fmt.Errorf("assets: create %s: %w", name, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("assets: copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("assets: close %s: %w", name, err)
	}
	return name, nil
}

// Path returns the absolute path of an archived file after validation.
func (s *Store) Path(name string) (string, error) {
	return s.safeName(name)
}

// copyFile byte-copies src to dst, fsyncing the destination.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("assets: source %s: %w", src, apperr.ErrNotFound)
		}
		return fmt.Errorf("assets: open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("assets: %s: %w", filepath.Base(dst), apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("assets: create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("assets: copy: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("assets: fsync: %w", err)
	}
	return out.Close()
}
