package engine

import (
	"github.com/starford/confcheck/internal/lenientjson"
	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/rules"
	"github.com/starford/confcheck/internal/storage"
)

// evaluator carries the per-call read cache. It is never shared between
// Evaluate calls.
type evaluator struct {
	tree     storage.Provider
	files    map[string]fileEntry
	settings map[string]*settingsEntry
	// reporter maps a settings path to the index of the rule that carries
	// the failure when the document is malformed.
	reporter map[string]int
}

type fileEntry struct {
	data []byte
	err  error
}

type settingsEntry struct {
	doc *lenientjson.Document
	// readErr is set when the file could not be read at all.
	readErr error
	// parseErr is set when the file was read but is not lenient JSON.
	parseErr error
}

func newEvaluator(tree storage.Provider) *evaluator {
	return &evaluator{
		tree:     tree,
		files:    map[string]fileEntry{},
		settings: map[string]*settingsEntry{},
		reporter: map[string]int{},
	}
}

// malformedReporters picks, per settings path, the first error-severity
// setting_equals rule, or the first such rule when none is an error.
// A malformed document fails that rule and skips the others.
func (e *evaluator) malformedReporters(rs []rules.Rule) {
	for i, r := range rs {
		c, ok := r.Check.(rules.SettingEquals)
		if !ok {
			continue
		}
		cur, seen := e.reporter[c.Path]
		if !seen || (rs[cur].Severity != models.SeverityError && r.Severity == models.SeverityError) {
			e.reporter[c.Path] = i
		}
	}
}

func (e *evaluator) read(p string) ([]byte, error) {
	if ent, ok := e.files[p]; ok {
		return ent.data, ent.err
	}
	data, err := e.tree.Read(p)
	e.files[p] = fileEntry{data: data, err: err}
	return data, err
}

func (e *evaluator) settingsDoc(p string) *settingsEntry {
	if ent, ok := e.settings[p]; ok {
		return ent
	}
	ent := &settingsEntry{}
	data, err := e.read(p)
	if err != nil {
		ent.readErr = err
	} else {
		ent.doc, ent.parseErr = lenientjson.Parse(data)
	}
	e.settings[p] = ent
	return ent
}
