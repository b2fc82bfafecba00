package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/starford/confcheck/internal/lenientjson"
	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/parser"
	"github.com/starford/confcheck/internal/rules"
	"github.com/starford/confcheck/internal/storage"
)

func (e *evaluator) fileExists(c rules.FileExists) result {
	info, err := e.tree.Stat(c.Path)
	switch {
	case storage.IsNotExist(err):
		return missing("file missing: %s", c.Path)
	case err != nil:
		return toolError(err)
	case info.IsDir():
		return fail(models.CategoryRuleViolation, "expected a file, found a directory: %s", c.Path)
	}
	return pass("file exists: %s", c.Path)
}

func (e *evaluator) dirExists(c rules.DirExists) result {
	info, err := e.tree.Stat(c.Path)
	switch {
	case storage.IsNotExist(err):
		return missing("directory missing: %s", c.Path)
	case err != nil:
		return toolError(err)
	case !info.IsDir():
		return fail(models.CategoryRuleViolation, "expected a directory, found a file: %s", c.Path)
	}
	return pass("directory exists: %s", c.Path)
}

// targets expands a literal path or glob into the files it names. A
// non-nil result means the files could not be resolved.
func (e *evaluator) targets(p string) ([]string, *result) {
	if rules.IsGlob(p) {
		files, err := e.tree.Glob(p)
		if err != nil {
			r := toolError(err)
			return nil, &r
		}
		if len(files) == 0 {
			r := missing("no files match %s", p)
			return nil, &r
		}
		return files, nil
	}

	res := e.fileExists(rules.FileExists{Path: p})
	if res.outcome != models.OutcomePass {
		return nil, &res
	}
	return []string{p}, nil
}

func (e *evaluator) sectionPresent(c rules.SectionPresent) result {
	files, bad := e.targets(c.Path)
	if bad != nil {
		return *bad
	}

	var missing []string
	for _, p := range files {
		data, err := e.read(p)
		if err != nil {
			return toolError(err)
		}
		if !c.Match(string(data)) {
			missing = append(missing, p)
		}
	}

	switch {
	case len(missing) == 0:
		return pass("section %q present in %s", c.Pattern, plural(len(files), "file"))
	case len(files) == 1:
		return fail(models.CategoryRuleViolation, "section %q missing in %s", c.Pattern, missing[0])
	}
	res := fail(models.CategoryRuleViolation, "section %q missing in %d of %s", c.Pattern, len(missing), plural(len(files), "file"))
	res.details = missing
	return res
}

func (e *evaluator) frontmatterField(c rules.FrontmatterField) result {
	files, bad := e.targets(c.Path)
	if bad != nil {
		return *bad
	}

	var problems []string
	var category models.Category
	for _, p := range files {
		data, err := e.read(p)
		if err != nil {
			return toolError(err)
		}
		problem, cat := checkFrontmatter(data, c)
		if problem == "" {
			continue
		}
		category = worse(category, cat)
		problems = append(problems, problem+" in "+p)
	}

	switch {
	case len(problems) == 0:
		return pass("frontmatter field %q present in %s", c.Field, plural(len(files), "file"))
	case len(files) == 1:
		return fail(category, "%s", problems[0])
	}
	res := fail(category, "frontmatter field %q invalid in %d of %s", c.Field, len(problems), plural(len(files), "file"))
	res.details = problems
	return res
}

// checkFrontmatter returns a problem description, or "" when the file
// satisfies the check.
func checkFrontmatter(data []byte, c rules.FrontmatterField) (string, models.Category) {
	doc, err := parser.Split(data)
	switch {
	case errors.Is(err, parser.ErrNoFrontmatter):
		return "no frontmatter block", models.CategoryMissingResource
	case errors.Is(err, parser.ErrMalformedFrontmatter):
		return "malformed mapping", models.CategoryMalformedDocument
	case err != nil:
		return err.Error(), models.CategoryToolError
	}

	got, ok := doc.Fields[c.Field]
	if !ok {
		return "field missing: " + c.Field, models.CategoryMissingResource
	}
	if c.HasExpected && !lenientjson.Equal(got, c.Expected) {
		return fmt.Sprintf("value mismatch for %s (got %s, want %s)",
			c.Field, lenientjson.Format(got), lenientjson.Format(c.Expected)), models.CategoryRuleViolation
	}
	return "", ""
}

// worse returns the category that describes a multi-file failure: a
// malformed document outranks a wrong value, which outranks a missing one.
func worse(a, b models.Category) models.Category {
	rank := func(c models.Category) int {
		switch c {
		case models.CategoryToolError:
			return 4
		case models.CategoryMalformedDocument:
			return 3
		case models.CategoryRuleViolation:
			return 2
		case models.CategoryMissingResource:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

func (e *evaluator) keywordPresent(c rules.KeywordPresent) result {
	seen := map[string]struct{}{}
	var files []string
	for _, p := range c.Paths {
		matches, bad := e.targets(p)
		if bad != nil {
			if bad.category == models.CategoryToolError {
				return *bad
			}
			// A missing path only narrows the search.
			continue
		}
		for _, m := range matches {
			if _, dup := seen[m]; !dup {
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return missing("no files match %s", c.Target())
	}

	var found []string
	for _, p := range files {
		data, err := e.read(p)
		if err != nil {
			return toolError(err)
		}
		if c.Match(string(data)) {
			found = append(found, p)
		}
	}

	if len(found) >= c.MinFiles {
		res := pass("keyword %q found in %s", c.Keyword, plural(len(found), "file"))
		res.details = found
		return res
	}
	if len(found) == 0 {
		return fail(models.CategoryRuleViolation, "keyword %q not found in %s", c.Keyword, plural(len(files), "file"))
	}
	res := fail(models.CategoryRuleViolation, "keyword %q found in %s, want at least %d", c.Keyword, plural(len(found), "file"), c.MinFiles)
	res.details = found
	return res
}

func (e *evaluator) settingEquals(i int, c rules.SettingEquals) result {
	ent := e.settingsDoc(c.Path)
	switch {
	case storage.IsNotExist(ent.readErr):
		return missing("file missing: %s", c.Path)
	case ent.readErr != nil:
		return toolError(ent.readErr)
	case ent.parseErr != nil:
		// The parse failure is reported once, on the reporter rule; the
		// other rules on the same document are skipped.
		if e.reporter[c.Path] != i {
			return skip(models.CategoryMalformedDocument, "skipped: %s is malformed", c.Path)
		}
		return fail(models.CategoryMalformedDocument, "malformed JSON in %s: %v", c.Path, ent.parseErr)
	}

	got, found, err := ent.doc.Lookup(c.Key)
	if err != nil {
		return toolError(err)
	}
	if !found {
		return fail(models.CategoryRuleViolation, "key missing: %s", c.Key)
	}
	if !lenientjson.Equal(got, c.Expected) {
		return fail(models.CategoryRuleViolation, "value mismatch for %s: got %s, want %s",
			c.Key, lenientjson.Format(got), lenientjson.Format(c.Expected))
	}
	return pass("%s = %s", c.Key, lenientjson.Format(got))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
