// Package validator scans the full corpus (all partitions plus the asset
// store) and reports structural violations. It is strictly read-only:
// findings are surfaced for manual remediation, never auto-repaired.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/journal"
)

// Kind tags a violation with the check that produced it.
type Kind string

const (
	KindIDFormat        Kind = "id-format"
	KindIDUniqueness    Kind = "id-uniqueness"
	KindDanglingAsset   Kind = "dangling-asset"
	KindDanglingRelated Kind = "dangling-related"
	KindOrphanedAsset   Kind = "orphaned-asset"
)

// Violation is one structural inconsistency, with enough context to locate
// and fix the offending record or file manually.
type Violation struct {
	Kind      Kind   `json:"kind"`
	Partition string `json:"partition,omitempty"`
	RecordID  string `json:"record_id,omitempty"`
	Time      string `json:"time,omitempty"`
	Value     string `json:"value,omitempty"`
	Message   string `json:"message"`
}

func (v Violation) String() string {
	if v.Partition == "" {
		return fmt.Sprintf("✗ %s", v.Message)
	}
	return fmt.Sprintf("✗ %s [%s] — %s", v.Partition, v.Time, v.Message)
}

type scanned struct {
	partition string
	date      string
	block     journal.Block
}

// Validate scans corpusDir and returns all violations plus the number of
// records examined. The corpus directory itself must exist.
func Validate(corpusDir string) ([]Violation, int, error) {
	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("validator: corpus %s: %w", corpusDir, apperr.ErrNotFound)
		}
		return nil, 0, fmt.Errorf("validator: read corpus: %w", err)
	}

	var names []string
	for _, e := range entries {
		if _, ok := journal.MatchPartition(e.Name()); ok && !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	assetsDir := filepath.Join(corpusDir, "assets")
	assetExists := func(name string) bool {
		_, err := os.Stat(filepath.Join(assetsDir, name))
		return err == nil
	}

	var violations []Violation
	var all []scanned

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(corpusDir, name))
		if err != nil {
			return nil, 0, fmt.Errorf("validator: read %s: %w", name, err)
		}
		date, _ := journal.MatchPartition(name)
		p := journal.ParsePartition(date, string(data))
		for _, b := range p.Blocks {
			all = append(all, scanned{partition: name, date: date, block: b})
		}
	}

	seen := make(map[string]string, len(all)) // id -> first partition
	for _, s := range all {
		b := s.block

		switch {
		case b.ID == "":
			violations = append(violations, Violation{
				Kind: KindIDFormat, Partition: s.partition, Time: b.Time,
				Message: fmt.Sprintf("%q — missing record id", b.Title),
			})
		case !journal.ValidID(b.ID):
			violations = append(violations, Violation{
				Kind: KindIDFormat, Partition: s.partition, RecordID: b.ID, Time: b.Time,
				Value:   b.ID,
				Message: fmt.Sprintf("invalid record id format: %s", b.ID),
			})
		case !strings.HasPrefix(b.ID, s.date):
			violations = append(violations, Violation{
				Kind: KindIDFormat, Partition: s.partition, RecordID: b.ID, Time: b.Time,
				Value:   b.ID,
				Message: fmt.Sprintf("record id %s does not match partition date %s", b.ID, s.date),
			})
		}

		if b.ID != "" {
			if first, dup := seen[b.ID]; dup {
				violations = append(violations, Violation{
					Kind: KindIDUniqueness, Partition: s.partition, RecordID: b.ID, Time: b.Time,
					Value:   b.ID,
					Message: fmt.Sprintf("duplicate record id %s (first seen in %s)", b.ID, first),
				})
			} else {
				seen[b.ID] = s.partition
			}
		}

		for _, asset := range b.AssetFilenames() {
			if !assetExists(asset) {
				violations = append(violations, Violation{
					Kind: KindDanglingAsset, Partition: s.partition, RecordID: b.ID, Time: b.Time,
					Value:   asset,
					Message: fmt.Sprintf("references %s but file not found", asset),
				})
			}
		}
	}

	// Related links may point anywhere in the corpus, so they are resolved
	// only after every partition has been scanned.
	for _, s := range all {
		for _, related := range s.block.Related() {
			if _, ok := seen[related]; !ok {
				violations = append(violations, Violation{
					Kind: KindDanglingRelated, Partition: s.partition, RecordID: s.block.ID, Time: s.block.Time,
					Value:   related,
					Message: fmt.Sprintf("Related references %s but record not found", related),
				})
			}
		}
	}

	referenced := make(map[string]struct{})
	for _, s := range all {
		for _, asset := range s.block.AssetFilenames() {
			referenced[asset] = struct{}{}
		}
	}
	if assetEntries, err := os.ReadDir(assetsDir); err == nil {
		for _, e := range assetEntries {
			if e.IsDir() {
				continue
			}
			if _, ok := referenced[e.Name()]; !ok {
				violations = append(violations, Violation{
					Kind:    KindOrphanedAsset,
					Value:   e.Name(),
					Message: fmt.Sprintf("orphaned asset: %s — no record references it", e.Name()),
				})
			}
		}
	}

	return violations, len(all), nil
}
