// Package testutil provides shared test helpers for building document trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/confcheck/internal/storage"
)

// WriteTree creates a temporary directory holding files, keyed by
// slash-separated relative path. A key ending in "/" creates an empty
// directory.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(abs, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// TestTree creates a temporary tree with a storage.FS over it.
func TestTree(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	root := WriteTree(t, files)
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}
