package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FS implements Writer backed by the local file system.
type FS struct {
	root string // absolute path to the scan root
	fsys fs.FS
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, fsys: os.DirFS(abs)}, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string {
	return f.root
}

// CleanRel normalises a root-relative path and rejects anything that
// escapes the root (directory traversal or absolute paths).
func CleanRel(rel string) (string, error) {
	if rel == "" || rel == "." {
		return ".", nil
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	cleaned := path.Clean(filepath.ToSlash(rel))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return cleaned, nil
}

// safePath resolves a relative path against the root.
func (f *FS) safePath(rel string) (string, error) {
	cleaned, err := CleanRel(rel)
	if err != nil {
		return "", err
	}
	if cleaned == "." {
		return f.root, nil
	}
	return filepath.Join(f.root, filepath.FromSlash(cleaned)), nil
}

// Stat returns file info for a path under the root.
func (f *FS) Stat(rel string) (fs.FileInfo, error) {
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w", rel, err)
	}
	return info, nil
}

// Read returns the raw bytes of a file under the root.
func (f *FS) Read(rel string) ([]byte, error) {
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// Glob returns the sorted regular files under the root matching pattern.
// Directories are never returned.
func (f *FS) Glob(pattern string) ([]string, error) {
	cleaned, err := CleanRel(pattern)
	if err != nil {
		return nil, err
	}
	matches, err := doublestar.Glob(f.fsys, cleaned, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("storage: glob %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(rel string, content []byte) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	return WriteFileAtomic(abs, content)
}

// WriteFileAtomic writes content to an absolute path through a temp file in
// the same directory so readers never observe a partial file.
func WriteFileAtomic(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".confcheck-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	// Keep the mode of the file being replaced.
	mode := os.FileMode(0o644)
	if info, err := os.Stat(abs); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// IsNotExist reports whether err means the path does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
