// Package storage defines file-tree access rooted at the scan root.
package storage

import "io/fs"

// Provider is the interface the rule engine reads the tree through. All
// paths are slash-separated and relative to the root.
type Provider interface {
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Glob returns the sorted regular files matching pattern. Patterns
	// support ** for any number of directories.
	Glob(pattern string) ([]string, error)
}

// Writer is implemented by providers that can rewrite files in place.
type Writer interface {
	Provider
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}
