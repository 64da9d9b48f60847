// Package journal implements the identifier allocator and the append-only,
// date-partitioned record store.
//
// Writes are single-process, sequential by design: two processes appending
// to the same partition concurrently may interleave and corrupt block
// boundaries. Callers must serialize operations externally.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/storage"
)

// Journal is the record store over a corpus directory.
type Journal struct {
	store storage.Provider
	now   Clock
}

// New creates a Journal over the given corpus storage. A nil clock falls
// back to the system clock.
func New(store storage.Provider, now Clock) *Journal {
	if now == nil {
		now = time.Now
	}
	return &Journal{store: store, now: now}
}

// ArchiveRequest asks for a source file to be snapshotted into the asset
// store alongside an appended record.
type ArchiveRequest struct {
	Path        string
	Description string
}

// AppendInput is the caller-supplied content of a new record. Time may be
// an explicit legacy "HH:MM"; when empty the clock's current minute is used.
type AppendInput struct {
	Time    string
	Title   string
	Body    string
	Files   []models.FileTouched
	Archive []ArchiveRequest
	Related []string
	Status  string
}

// load reads and parses a date's partition. A missing file parses as an
// empty partition with the standard preamble.
func (j *Journal) load(date string) (*Partition, error) {
	data, err := j.store.Read(PartitionFileName(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Partition{Date: date, Preamble: newPreamble(date)}, nil
		}
		return nil, err
	}
	return ParsePartition(date, string(data)), nil
}

func (j *Journal) save(p *Partition) error {
	return j.store.Write(PartitionFileName(p.Date), []byte(p.Render()))
}

// resolveDate validates an explicit date or, when empty, finds the most
// recent partition that contains at least one block.
func (j *Journal) resolveDate(date string) (string, error) {
	if date != "" {
		if !dateRe.MatchString(date) {
			return "", fmt.Errorf("journal: invalid date %q: %w", date, apperr.ErrMalformed)
		}
		return date, nil
	}
	dates, err := j.Partitions()
	if err != nil {
		return "", err
	}
	for i := len(dates) - 1; i >= 0; i-- {
		p, err := j.load(dates[i])
		if err != nil {
			return "", err
		}
		if len(p.Blocks) > 0 {
			return dates[i], nil
		}
	}
	return "", fmt.Errorf("journal: no records in corpus: %w", apperr.ErrNotFound)
}

// Partitions returns the dates of all partition files, oldest first.
func (j *Journal) Partitions() ([]string, error) {
	infos, err := j.store.List()
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, info := range infos {
		if date, ok := MatchPartition(filepath.Base(info.Path)); ok {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// NewID previews the identifier an append at (date, hhmm) would receive.
// Nothing is reserved: two consecutive peeks without an intervening append
// return the same value, and uniqueness is re-checked at write time.
func (j *Journal) NewID(date, hhmm string) (string, error) {
	date, hhmm, err := j.stamp(date, hhmm)
	if err != nil {
		return "", err
	}
	p, err := j.load(date)
	if err != nil {
		return "", err
	}
	return allocateID(p.IDs(), date, hhmm)
}

// stamp fills empty date/time fields from the clock and validates formats.
func (j *Journal) stamp(date, hhmm string) (string, string, error) {
	now := j.now()
	if date == "" {
		date = now.Format(dateLayout)
	} else if !dateRe.MatchString(date) {
		return "", "", fmt.Errorf("journal: invalid date %q: %w", date, apperr.ErrMalformed)
	}
	if hhmm == "" {
		hhmm = now.Format(timeLayout)
	} else if !timeRe.MatchString(hhmm) {
		return "", "", fmt.Errorf("journal: invalid time %q (expected HH:MM): %w", hhmm, apperr.ErrMalformed)
	}
	return date, hhmm, nil
}

// Append allocates an identifier for the input, renders the record block,
// and appends it to the date partition, creating the partition file if
// needed. The returned record carries the computed asset references; the
// actual byte copies into the asset store are the caller's follow-up step.
func (j *Journal) Append(date string, in AppendInput) (*models.Record, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("journal: title is required: %w", apperr.ErrMalformed)
	}
	date, hhmm, err := j.stamp(date, in.Time)
	if err != nil {
		return nil, err
	}
	p, err := j.load(date)
	if err != nil {
		return nil, err
	}
	id, err := allocateID(p.IDs(), date, hhmm)
	if err != nil {
		return nil, err
	}

	rec := &models.Record{
		ID:      id,
		Date:    date,
		Time:    hhmm,
		Title:   in.Title,
		Body:    in.Body,
		Files:   in.Files,
		Related: in.Related,
		Status:  in.Status,
	}
	for _, req := range in.Archive {
		rec.Archived = append(rec.Archived, models.AssetRef{
			OriginalPath:  req.Path,
			AssetFilename: id + "-" + filepath.Base(req.Path),
			Description:   req.Description,
		})
	}

	content := appendBlock(p.Render(), renderBlock(rec))
	if err := j.store.Write(PartitionFileName(date), []byte(content)); err != nil {
		return nil, err
	}
	return rec, nil
}

// LastID returns the identifier and title of the most recently appended
// record in the date's partition. An empty date resolves to the most
// recent non-empty partition.
func (j *Journal) LastID(date string) (string, string, error) {
	b, p, err := j.latest(date)
	if err != nil {
		return "", "", err
	}
	if b.ID == "" {
		return "", "", fmt.Errorf("journal: latest record in %s has no id: %w",
			PartitionFileName(p.Date), apperr.ErrMalformed)
	}
	return b.ID, b.Title, nil
}

// latest returns the tail block of the resolved date's partition.
func (j *Journal) latest(date string) (*Block, *Partition, error) {
	date, err := j.resolveDate(date)
	if err != nil {
		return nil, nil, err
	}
	p, err := j.load(date)
	if err != nil {
		return nil, nil, err
	}
	if len(p.Blocks) == 0 {
		return nil, nil, fmt.Errorf("journal: no records in %s: %w",
			PartitionFileName(date), apperr.ErrNotFound)
	}
	return &p.Blocks[len(p.Blocks)-1], p, nil
}

// ShowLatest returns the verbatim most recent block.
func (j *Journal) ShowLatest(date string) (*Block, error) {
	b, _, err := j.latest(date)
	return b, err
}

// DeleteLatest removes the most recent block from the partition and
// returns it so the caller can delete the assets it owned.
func (j *Journal) DeleteLatest(date string) (*Block, error) {
	b, p, err := j.latest(date)
	if err != nil {
		return nil, err
	}
	removed := *b
	p.Blocks = p.Blocks[:len(p.Blocks)-1]
	if err := j.save(p); err != nil {
		return nil, err
	}
	return &removed, nil
}

// ReplaceLatest substitutes the content of the most recent block,
// re-injecting its original identifier. The id is never reallocated, so
// asset references keyed by it stay valid.
func (j *Journal) ReplaceLatest(date, content string) (string, error) {
	if !headerRe.MatchString(content) {
		return "", fmt.Errorf("journal: replacement must start with %q: %w",
			"## HH:MM — Title", apperr.ErrMalformed)
	}
	b, p, err := j.latest(date)
	if err != nil {
		return "", err
	}
	raw := injectID(strings.TrimSpace(content), b.ID)
	if raw != "" && raw[len(raw)-1] != '\n' {
		raw += "\n"
	}
	id := b.ID
	rep := ParsePartition(p.Date, raw)
	if len(rep.Blocks) != 1 {
		return "", fmt.Errorf("journal: replacement must contain exactly one block: %w", apperr.ErrMalformed)
	}
	p.Blocks[len(p.Blocks)-1] = rep.Blocks[0]
	if err := j.save(p); err != nil {
		return "", err
	}
	return id, nil
}
