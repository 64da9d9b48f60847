// Package scribeservice coordinates the journal, asset store, and search
// index behind the CLI, REST, and MCP surfaces.
package scribeservice

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/assets"
	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/validator"
)

// Service wires the record store, asset store, and index together.
type Service struct {
	journal *journal.Journal
	assets  *assets.Store
	store   storage.Provider
	db      *index.DB
}

// New creates a new scribe service.
func New(j *journal.Journal, a *assets.Store, store storage.Provider, db *index.DB) *Service {
	return &Service{journal: j, assets: a, store: store, db: db}
}

// Append writes a new record and archives any requested files. The two
// stores are not transactional: the record lands first, then each asset is
// copied. If an archive step fails the record stays in place and the error
// is returned alongside it; recovery is a manual delete-latest or
// rearchive, with the validator as the detection mechanism.
func (s *Service) Append(_ context.Context, date string, in journal.AppendInput) (*models.Record, error) {
	rec, err := s.journal.Append(date, in)
	if err != nil {
		return nil, err
	}
	if err := s.reindex(rec.Date); err != nil {
		return rec, err
	}
	for _, ref := range rec.Archived {
		if _, err := s.assets.Save(rec.ID, ref.OriginalPath); err != nil {
			return rec, fmt.Errorf("record %s appended but archive failed: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// NewID previews an identifier without reserving it.
func (s *Service) NewID(_ context.Context, date, hhmm string) (string, error) {
	return s.journal.NewID(date, hhmm)
}

// Last returns the id and title of the most recently appended record.
func (s *Service) Last(_ context.Context, date string) (string, string, error) {
	return s.journal.LastID(date)
}

// ShowLatest returns the verbatim most recent block.
func (s *Service) ShowLatest(_ context.Context, date string) (*journal.Block, error) {
	return s.journal.ShowLatest(date)
}

// DeleteLatest removes the most recent record and every asset it owned.
// Returns the deleted record id and the deleted asset filenames.
func (s *Service) DeleteLatest(_ context.Context, date string) (string, []string, error) {
	b, err := s.journal.DeleteLatest(date)
	if err != nil {
		return "", nil, err
	}
	if err := s.reindexAll(); err != nil {
		return b.ID, nil, err
	}
	if b.ID == "" {
		return "", nil, nil
	}
	deleted, err := s.assets.DeleteOwned(b.ID)
	return b.ID, deleted, err
}

// ReplaceLatest substitutes the most recent block's content, keeping its id.
func (s *Service) ReplaceLatest(_ context.Context, date, content string) (string, error) {
	id, err := s.journal.ReplaceLatest(date, content)
	if err != nil {
		return "", err
	}
	return id, s.reindexAll()
}

// Rearchive snapshots sourcePath again under the latest record's id,
// replacing any previous snapshot of the same basename.
func (s *Service) Rearchive(_ context.Context, date, sourcePath string) (string, error) {
	b, err := s.journal.ShowLatest(date)
	if err != nil {
		return "", err
	}
	if b.ID == "" {
		return "", fmt.Errorf("latest record has no id: %w", apperr.ErrMalformed)
	}
	return s.assets.Rearchive(b.ID, sourcePath)
}

// Unarchive deletes the assets owned by the latest record but leaves its
// text untouched. The caller is expected to follow up with ReplaceLatest
// to drop the now-dangling Archived section.
func (s *Service) Unarchive(_ context.Context, date string) (string, []string, error) {
	b, err := s.journal.ShowLatest(date)
	if err != nil {
		return "", nil, err
	}
	if b.ID == "" {
		return "", nil, fmt.Errorf("latest record has no id: %w", apperr.ErrMalformed)
	}
	deleted, err := s.assets.DeleteOwned(b.ID)
	return b.ID, deleted, err
}

// SaveAssets archives each source path under an existing record's id.
func (s *Service) SaveAssets(_ context.Context, recordID string, paths []string) ([]string, error) {
	if err := s.recordExists(recordID); err != nil {
		return nil, err
	}
	var names []string
	for _, p := range paths {
		name, err := s.assets.Save(recordID, p)
		if err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

// RestoreAsset copies an archived file into destDir, never overwriting.
func (s *Service) RestoreAsset(_ context.Context, name, destDir string) (string, error) {
	return s.assets.Get(name, destDir)
}

// ListAssets returns archived filenames filtered by substring.
func (s *Service) ListAssets(_ context.Context, filter string) ([]string, error) {
	return s.assets.List(filter)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// RelatedTo returns the ids of records that reference the given id.
func (s *Service) RelatedTo(_ context.Context, id string) ([]string, error) {
	return s.db.RelatedTo(id)
}

// recordExists checks the partition named by the id's date prefix for the
// record. The partition file is the source of truth, not the index.
func (s *Service) recordExists(recordID string) error {
	if !journal.ValidID(recordID) || len(recordID) < 10 {
		return fmt.Errorf("invalid record id %q: %w", recordID, apperr.ErrMalformed)
	}
	date := recordID[:10]
	data, err := s.store.Read(journal.PartitionFileName(date))
	if err != nil {
		return fmt.Errorf("record %s: %w", recordID, apperr.ErrNotFound)
	}
	p := journal.ParsePartition(date, string(data))
	if _, ok := p.IDs()[recordID]; !ok {
		return fmt.Errorf("record %s: %w", recordID, apperr.ErrNotFound)
	}
	return nil
}

// Validate scans the corpus and reports structural violations.
func (s *Service) Validate(_ context.Context) ([]validator.Violation, int, error) {
	return validator.Validate(s.store.Root())
}

// reindex re-parses one date's partition into the index.
func (s *Service) reindex(date string) error {
	name := journal.PartitionFileName(date)
	data, err := s.store.Read(name)
	if err != nil {
		return err
	}
	return index.IndexPartition(s.db, name, checksum.Sum(data), data)
}

// reindexAll refreshes the whole index; amend operations may touch a
// partition other than today's, so the cheap full sync keeps it honest.
func (s *Service) reindexAll() error {
	infos, err := s.store.List()
	if err != nil {
		return err
	}
	checksums, err := s.db.AllChecksums()
	if err != nil {
		return err
	}
	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		name := filepath.Base(info.Path)
		if _, ok := journal.MatchPartition(name); !ok {
			continue
		}
		disk[name] = struct{}{}
		if checksums[name] == info.Checksum {
			continue
		}
		data, err := s.store.Read(name)
		if err != nil {
			return err
		}
		if err := index.IndexPartition(s.db, name, info.Checksum, data); err != nil {
			return err
		}
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := s.db.DeletePartition(p); err != nil {
				return err
			}
		}
	}
	return nil
}
