// Package fixer rewrites frontmatter blocks so configured fields come first
// with their configured values.
package fixer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/starford/confcheck/internal/parser"
	"github.com/starford/confcheck/internal/rules"
	"github.com/starford/confcheck/internal/storage"
)

// Action says what Fix did to a file.
type Action string

const (
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionSkipped   Action = "skipped"
)

// Change records the outcome for one file.
type Change struct {
	Path   string `json:"path"`
	Action Action `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// Fix applies every fix to the files its path matches. Configured fields
// are written first, in configured order, replacing existing values; other
// existing keys follow in their original order. Files whose content would
// not change are left untouched. With dryRun nothing is written.
//
// A file matched by several fixes gets them in declaration order and is
// reported once per fix.
func Fix(tree storage.Writer, fixes []rules.FrontmatterFix, dryRun bool) ([]Change, error) {
	// Content after earlier fixes, so dry runs see the same input a real
	// run would.
	staged := map[string][]byte{}
	var changes []Change

	for _, fix := range fixes {
		files, err := targets(tree, fix.Path)
		if err != nil {
			return changes, err
		}
		if len(files) == 0 {
			changes = append(changes, Change{Path: fix.Path, Action: ActionSkipped, Reason: "no files match"})
			continue
		}

		for _, p := range files {
			data, ok := staged[p]
			if !ok {
				data, err = tree.Read(p)
				if err != nil {
					return changes, fmt.Errorf("fixer: %w", err)
				}
			}

			out, reason, err := apply(data, fix)
			if err != nil {
				return changes, fmt.Errorf("fixer: %s: %w", p, err)
			}
			switch {
			case reason != "":
				changes = append(changes, Change{Path: p, Action: ActionSkipped, Reason: reason})
				continue
			case bytes.Equal(out, data):
				changes = append(changes, Change{Path: p, Action: ActionUnchanged})
				continue
			}

			staged[p] = out
			if !dryRun {
				if err := tree.Write(p, out); err != nil {
					return changes, fmt.Errorf("fixer: %w", err)
				}
			}
			changes = append(changes, Change{Path: p, Action: ActionUpdated})
		}
	}
	return changes, nil
}

// apply returns the rewritten document, or a reason the file was skipped.
func apply(data []byte, fix rules.FrontmatterFix) ([]byte, string, error) {
	doc, err := parser.Split(data)
	switch {
	case errors.Is(err, parser.ErrNoFrontmatter):
		doc = &parser.Document{Body: string(data)}
	case errors.Is(err, parser.ErrMalformedFrontmatter):
		return nil, "malformed mapping", nil
	case err != nil:
		return nil, "", err
	}

	out, err := parser.Compose(parser.Merge(fix.Fields, doc.Node), doc.Body)
	if err != nil {
		return nil, "", err
	}
	return out, "", nil
}

func targets(tree storage.Provider, p string) ([]string, error) {
	if rules.IsGlob(p) {
		files, err := tree.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("fixer: %w", err)
		}
		return files, nil
	}
	info, err := tree.Stat(p)
	switch {
	case storage.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("fixer: %w", err)
	case info.IsDir():
		return nil, nil
	}
	return []string{p}, nil
}
