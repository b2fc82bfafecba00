// Package engine evaluates conformance rules against a file tree.
package engine

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/rules"
	"github.com/starford/confcheck/internal/storage"
)

// Evaluate runs every rule against tree and returns exactly one finding
// per rule, in rule order. It only reads from tree and keeps no state
// between calls, so unchanged files always yield identical findings.
func Evaluate(rs []rules.Rule, tree storage.Provider) []models.Finding {
	ev := newEvaluator(tree)
	ev.malformedReporters(rs)
	out := make([]models.Finding, 0, len(rs))
	for i, r := range rs {
		out = append(out, ev.evaluate(i, r))
	}
	return out
}

// EvaluateDir is Evaluate over the directory at root.
func EvaluateDir(rs []rules.Rule, root string) ([]models.Finding, error) {
	tree, err := storage.NewFS(root)
	if err != nil {
		return nil, err
	}
	return Evaluate(rs, tree), nil
}

// result is the kind-specific verdict before it is stamped onto a finding.
type result struct {
	outcome  models.Outcome
	category models.Category
	message  string
	details  []string
	// absent marks a failure caused by the rule's target not existing.
	absent bool
}

func pass(format string, args ...any) result {
	return result{outcome: models.OutcomePass, message: fmt.Sprintf(format, args...)}
}

func fail(cat models.Category, format string, args ...any) result {
	return result{outcome: models.OutcomeFail, category: cat, message: fmt.Sprintf(format, args...)}
}

func skip(cat models.Category, format string, args ...any) result {
	return result{outcome: models.OutcomeSkip, category: cat, message: fmt.Sprintf(format, args...)}
}

func missing(format string, args ...any) result {
	res := fail(models.CategoryMissingResource, format, args...)
	res.absent = true
	return res
}

func toolError(err error) result {
	return fail(models.CategoryToolError, "%v", err)
}

func (e *evaluator) evaluate(i int, r rules.Rule) (f models.Finding) {
	f = models.Finding{
		RuleID:   r.ID,
		Severity: r.Severity,
	}
	if r.Check != nil {
		f.Kind = string(r.Kind())
	}

	// A panic inside one rule must not abort the run.
	defer func() {
		if p := recover(); p != nil {
			f = stamp(f, fail(models.CategoryToolError, "internal error: %v", p))
		}
	}()

	if r.Check == nil {
		return stamp(f, toolError(fmt.Errorf("rule has no check")))
	}

	absentDir, err := e.missingDir(r.Check.Scope())
	if err != nil {
		return stamp(f, toolError(err))
	}
	if absentDir != "" {
		if r.Optional {
			return stamp(f, skip(models.CategoryMissingResource, "skipped: directory missing: %s", absentDir))
		}
		return stamp(f, missing("directory missing: %s", absentDir))
	}

	var res result
	switch c := r.Check.(type) {
	case rules.FileExists:
		res = e.fileExists(c)
	case rules.DirExists:
		res = e.dirExists(c)
	case rules.SectionPresent:
		res = e.sectionPresent(c)
	case rules.FrontmatterField:
		res = e.frontmatterField(c)
	case rules.KeywordPresent:
		res = e.keywordPresent(c)
	case rules.SettingEquals:
		res = e.settingEquals(i, c)
	default:
		res = toolError(fmt.Errorf("unsupported check %T", c))
	}

	if r.Optional && res.outcome == models.OutcomeFail && res.absent {
		res.outcome = models.OutcomeSkip
		res.message = "skipped: " + res.message
	}
	return stamp(f, res)
}

func stamp(f models.Finding, res result) models.Finding {
	f.Outcome = res.outcome
	f.Category = res.category
	f.Message = res.message
	f.Details = res.details
	return f
}

// missingDir returns the first directory on the way from the root to dir
// that does not exist (or is not a directory), or "" when dir exists.
func (e *evaluator) missingDir(dir string) (string, error) {
	dir = path.Clean(dir)
	if dir == "." || dir == "/" {
		return "", nil
	}
	parts := strings.Split(dir, "/")
	for i := range parts {
		cur := strings.Join(parts[:i+1], "/")
		info, err := e.tree.Stat(cur)
		if err != nil {
			if storage.IsNotExist(err) {
				return cur, nil
			}
			return "", err
		}
		if !info.IsDir() {
			return cur + " (not a directory)", nil
		}
	}
	return "", nil
}
