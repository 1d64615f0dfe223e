// Package storage defines the vault file-system abstraction.
package storage

import (
	"strings"
	"time"
)

// DocInfo is lightweight metadata for one vault document.
type DocInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations. Paths are always
// relative to the vault root.
type Provider interface {
	// List returns metadata for every document file under dir.
	List(dir string) ([]DocInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}

// IsDocument reports whether a file name is a vault document. Hybrid notes
// live in Markdown, Org, or LaTeX files.
func IsDocument(name string) bool {
	return strings.HasSuffix(name, ".md") ||
		strings.HasSuffix(name, ".org") ||
		strings.HasSuffix(name, ".tex")
}
