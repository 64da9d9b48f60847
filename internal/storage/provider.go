// Package storage defines the corpus file-system abstraction.
package storage

import "github.com/starford/scribe/internal/models"

// Provider is the interface for corpus file operations. Paths are relative
// to the corpus root.
type Provider interface {
	// List returns metadata for every .md file at the corpus root
	// (partitions live flat, one file per calendar date).
	List() ([]models.PartitionInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root returns the absolute corpus directory.
	Root() string
}
