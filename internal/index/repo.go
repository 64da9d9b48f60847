package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/scribe/internal/apperr"
)

// RecordRow represents a row in the records table.
type RecordRow struct {
	ID        string
	Partition string
	Time      string
	Title     string
	Status    string
}

// IndexedRecord is one record plus its searchable body and related links.
type IndexedRecord struct {
	Row     RecordRow
	Body    string
	Related []string
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string
	Title   string
	Snippet string
}

// ReplacePartition atomically re-indexes one partition: all of its previous
// records, refs, and FTS entries are dropped and replaced with recs, and the
// partition checksum is upserted. Partitions are the unit of sync because
// records are rewritten file-at-a-time by amend operations.
func (db *DB) ReplacePartition(partition, checksum string, recs []IndexedRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := deletePartitionTx(tx, partition); err != nil {
		return err
	}

	for _, rec := range recs {
		_, err = tx.Exec(`
			INSERT INTO records (id, partition, time, title, status, body)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				partition = excluded.partition,
				time      = excluded.time,
				title     = excluded.title,
				status    = excluded.status,
				body      = excluded.body
		`, rec.Row.ID, partition, rec.Row.Time, rec.Row.Title, rec.Row.Status, rec.Body)
		if err != nil {
			return fmt.Errorf("index: insert record: %w", err)
		}
		if err := ftsUpsert(tx, rec.Row.ID, rec.Row.Title, rec.Body, rec.Row.Status); err != nil {
			return err
		}
		for _, target := range rec.Related {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO refs (source, target) VALUES (?, ?)`,
				rec.Row.ID, target); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	_, err = tx.Exec(`
		INSERT INTO partitions (path, checksum) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET checksum = excluded.checksum
	`, partition, checksum)
	if err != nil {
		return fmt.Errorf("index: upsert partition: %w", err)
	}

	return tx.Commit()
}

// DeletePartition removes a partition and every record indexed from it.
func (db *DB) DeletePartition(partition string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deletePartitionTx(tx, partition); err != nil {
		return err
	}
	_, _ = tx.Exec(`DELETE FROM partitions WHERE path = ?`, partition)

	return tx.Commit()
}

func deletePartitionTx(tx *sql.Tx, partition string) error {
	rows, err := tx.Query(`SELECT id FROM records WHERE partition = ?`, partition)
	if err != nil {
		return fmt.Errorf("index: select partition records: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		ftsDelete(tx, id)
		_, _ = tx.Exec(`DELETE FROM refs WHERE source = ?`, id)
	}
	_, _ = tx.Exec(`DELETE FROM records WHERE partition = ?`, partition)
	return nil
}

// AllChecksums returns the stored checksum for every indexed partition.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM partitions`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// GetRecord returns one indexed record by id.
func (db *DB) GetRecord(id string) (*RecordRow, error) {
	var r RecordRow
	err := db.conn.QueryRow(`
		SELECT id, partition, time, title, status FROM records WHERE id = ?
	`, id).Scan(&r.ID, &r.Partition, &r.Time, &r.Title, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: record %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get record: %w", err)
	}
	return &r, nil
}

// AllIDs returns every indexed record identifier.
func (db *DB) AllIDs() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT id FROM records`)
	if err != nil {
		return nil, fmt.Errorf("index: all ids: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// RelatedTo returns the ids of all records whose Related section references
// the given target.
func (db *DB) RelatedTo(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM refs WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: related to: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
