package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/storage"
)

// Persist writes v as indented JSON with a trailing newline. The file is
// replaced atomically; missing parent directories are created.
func Persist(v any, path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("report: encode %s: %w", path, err)
	}
	if err := storage.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// Load reads a report written by Persist.
func Load(path string) (*models.Report, error) {
	var r models.Report
	if err := load(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadAggregate reads an aggregate report written by Persist.
func LoadAggregate(path string) (*models.AggregateReport, error) {
	var a models.AggregateReport
	if err := load(path, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("report: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("report: decode %s: %w", path, err)
	}
	return nil
}

// FileName is the report file name for a group, or the default name when
// group is empty.
func FileName(group string) string {
	if group == "" {
		return "validation_report.json"
	}
	return group + "_report.json"
}
