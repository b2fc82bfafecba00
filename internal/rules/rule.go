// Package rules defines conformance rules and loads them from YAML.
package rules

import (
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/confcheck/internal/models"
)

// Kind names a rule variant.
type Kind string

const (
	KindFileExists       Kind = "file_exists"
	KindDirExists        Kind = "dir_exists"
	KindSectionPresent   Kind = "section_present"
	KindFrontmatterField Kind = "frontmatter_field"
	KindKeywordPresent   Kind = "keyword_present"
	KindSettingEquals    Kind = "setting_equals"
)

// Kinds lists every supported kind in declaration order.
var Kinds = []Kind{
	KindFileExists,
	KindDirExists,
	KindSectionPresent,
	KindFrontmatterField,
	KindKeywordPresent,
	KindSettingEquals,
}

// Rule is a single declarative conformance check. Rules are immutable once
// loaded.
type Rule struct {
	ID          string
	Description string
	Severity    models.Severity
	// Optional rules are skipped rather than failed when their scope
	// directory or target files are absent.
	Optional bool
	Check    Check
}

// Kind returns the kind of the rule's check.
func (r Rule) Kind() Kind {
	return r.Check.Kind()
}

// Check is the kind-specific part of a rule. The set of implementations
// is closed: FileExists, DirExists, SectionPresent, FrontmatterField,
// KeywordPresent and SettingEquals.
type Check interface {
	Kind() Kind
	// Target describes what the check looks at, for listings.
	Target() string
	// Scope is the directory the check's targets live under.
	Scope() string
	sealed()
}

// FileExists passes iff Path is a regular file.
type FileExists struct {
	Path string
}

func (FileExists) Kind() Kind       { return KindFileExists }
func (c FileExists) Target() string { return c.Path }
func (c FileExists) Scope() string  { return path.Dir(c.Path) }
func (FileExists) sealed()          {}

// DirExists passes iff Path is a directory.
type DirExists struct {
	Path string
}

func (DirExists) Kind() Kind       { return KindDirExists }
func (c DirExists) Target() string { return c.Path }
func (c DirExists) Scope() string  { return path.Dir(c.Path) }
func (DirExists) sealed()          {}

// SectionPresent passes iff every file matching Path contains Pattern.
type SectionPresent struct {
	Path       string
	Pattern    string
	Regex      bool
	IgnoreCase bool

	re *regexp.Regexp
}

func (SectionPresent) Kind() Kind       { return KindSectionPresent }
func (c SectionPresent) Target() string { return c.Path }
func (c SectionPresent) Scope() string  { return scopeOf(c.Path) }
func (SectionPresent) sealed()          {}

// Match reports whether content contains the section pattern.
func (c SectionPresent) Match(content string) bool {
	if c.re != nil {
		return c.re.MatchString(content)
	}
	if c.IgnoreCase {
		return strings.Contains(strings.ToLower(content), strings.ToLower(c.Pattern))
	}
	return strings.Contains(content, c.Pattern)
}

// FrontmatterField passes iff every file matching Path has a frontmatter
// block defining Field (equal to Expected when HasExpected is set).
type FrontmatterField struct {
	Path        string
	Field       string
	Expected    any
	HasExpected bool
}

func (FrontmatterField) Kind() Kind       { return KindFrontmatterField }
func (c FrontmatterField) Target() string { return c.Path }
func (c FrontmatterField) Scope() string  { return scopeOf(c.Path) }
func (FrontmatterField) sealed()          {}

// KeywordPresent passes iff Keyword occurs, case-insensitively, in at least
// MinFiles of the files matching Paths.
type KeywordPresent struct {
	Paths    []string
	Keyword  string
	Regex    bool
	MinFiles int

	re *regexp.Regexp
}

func (KeywordPresent) Kind() Kind       { return KindKeywordPresent }
func (c KeywordPresent) Target() string { return strings.Join(c.Paths, ", ") }
func (KeywordPresent) sealed()          {}

// Scope is the deepest directory shared by all of the check's paths.
func (c KeywordPresent) Scope() string {
	if len(c.Paths) == 0 {
		return "."
	}
	common := strings.Split(scopeOf(c.Paths[0]), "/")
	for _, p := range c.Paths[1:] {
		parts := strings.Split(scopeOf(p), "/")
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	if len(common) == 0 {
		return "."
	}
	return strings.Join(common, "/")
}

// Match reports whether content contains the keyword.
func (c KeywordPresent) Match(content string) bool {
	if c.re != nil {
		return c.re.MatchString(content)
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(c.Keyword))
}

// SettingEquals passes iff Key in the JSON document at Path equals Expected.
type SettingEquals struct {
	Path     string
	Key      string
	Expected any
}

func (SettingEquals) Kind() Kind       { return KindSettingEquals }
func (c SettingEquals) Target() string { return c.Path + "#" + c.Key }
func (c SettingEquals) Scope() string  { return path.Dir(c.Path) }
func (SettingEquals) sealed()          {}

// scopeOf returns the static directory prefix of a literal path or glob.
func scopeOf(p string) string {
	if !hasMeta(p) {
		return path.Dir(p)
	}
	base, _ := doublestar.SplitPattern(p)
	if base == "" {
		return "."
	}
	return base
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// IsGlob reports whether p contains glob metacharacters.
func IsGlob(p string) bool {
	return hasMeta(p)
}
