package index

import (
	"log/slog"
	"path/filepath"

	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/storage"
)

// Sync walks the corpus and brings the index up to date:
//   - new/changed partitions are re-parsed and replaced wholesale
//   - partitions removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
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

		data, err := store.Read(name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("partition", name), slog.String("error", err.Error()))
			continue
		}
		if err := IndexPartition(db, name, info.Checksum, data); err != nil {
			logger.Warn("sync: index failed", slog.String("partition", name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("partition", name))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeletePartition(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("partition", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("partition", p))
			}
		}
	}

	return nil
}

// IndexPartition parses raw partition content and replaces its index rows.
func IndexPartition(db *DB, name, checksum string, data []byte) error {
	date, _ := journal.MatchPartition(name)
	p := journal.ParsePartition(date, string(data))

	recs := make([]IndexedRecord, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		if b.ID == "" {
			// Blocks without an id are a validator finding, not indexable.
			continue
		}
		recs = append(recs, IndexedRecord{
			Row: RecordRow{
				ID:        b.ID,
				Partition: name,
				Time:      b.Time,
				Title:     b.Title,
				Status:    b.Status(),
			},
			Body:    b.Raw,
			Related: b.Related(),
		})
	}
	return db.ReplacePartition(name, checksum, recs)
}
