// Package models defines the domain types for scribe.
package models

import "time"

// Record represents one narrative log entry in a date partition.
type Record struct {
	ID       string        `json:"id"`
	Date     string        `json:"date"`
	Time     string        `json:"time"`
	Title    string        `json:"title"`
	Body     string        `json:"body,omitempty"`
	Files    []FileTouched `json:"files,omitempty"`
	Archived []AssetRef    `json:"archived,omitempty"`
	Related  []string      `json:"related,omitempty"`
	Status   string        `json:"status,omitempty"`
}

// FileTouched is one (path, description) pair in a record's Files section.
type FileTouched struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// AssetRef is a named reference from a record into the asset store.
// AssetFilename is always "{ownerRecordID}-{basename(OriginalPath)}".
type AssetRef struct {
	OriginalPath  string `json:"original_path"`
	AssetFilename string `json:"asset_filename"`
	Description   string `json:"description,omitempty"`
}

// PartitionInfo is a lightweight representation returned by list operations
// over the corpus directory.
type PartitionInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
