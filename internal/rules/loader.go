package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/confcheck/internal/apperr"
	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/storage"
)

//go:embed default.yaml
var defaultRuleSet []byte

type setDoc struct {
	Version          int        `yaml:"version"`
	Groups           []groupDoc `yaml:"groups"`
	FrontmatterFixes []fixDoc   `yaml:"frontmatter_fixes"`
}

type groupDoc struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Weight      *int      `yaml:"weight"`
	Rules       []ruleDoc `yaml:"rules"`
}

// groupNamePattern keeps group names usable as report file names.
var groupNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedGroupName is the report file prefix of all-rules runs.
const reservedGroupName = "validation"

func (g *groupDoc) Validate() error {
	return validation.ValidateStruct(g,
		validation.Field(&g.Name,
			validation.Required,
			validation.Match(groupNamePattern).Error("must contain only letters, digits, '-' and '_'"),
			validation.NotIn(reservedGroupName).Error("is reserved for all-rules reports"),
		),
	)
}

type fixDoc struct {
	Path   string    `yaml:"path"`
	Fields yaml.Node `yaml:"fields"`
}

type ruleDoc struct {
	ID          string    `yaml:"id"`
	Kind        string    `yaml:"kind"`
	Description string    `yaml:"description"`
	Severity    string    `yaml:"severity"`
	Optional    bool      `yaml:"optional"`
	Path        string    `yaml:"path"`
	Paths       []string  `yaml:"paths"`
	Pattern     string    `yaml:"pattern"`
	Keyword     string    `yaml:"keyword"`
	Field       string    `yaml:"field"`
	Key         string    `yaml:"key"`
	Regex       bool      `yaml:"regex"`
	IgnoreCase  bool      `yaml:"ignore_case"`
	MinFiles    int       `yaml:"min_files"`
	Expected    yaml.Node `yaml:"expected"`
}

// Validate checks the kind-independent and kind-specific required fields.
func (r *ruleDoc) Validate() error {
	kinds := make([]interface{}, len(Kinds))
	for i, k := range Kinds {
		kinds[i] = string(k)
	}
	k := Kind(r.Kind)
	usesPath := k != KindKeywordPresent

	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Kind, validation.Required, validation.In(kinds...)),
		validation.Field(&r.Severity, validation.In(string(models.SeverityError), string(models.SeverityWarning))),
		validation.Field(&r.Path,
			validation.When(usesPath, validation.Required),
			validation.When(!usesPath, validation.Empty),
			validation.By(targetRule)),
		validation.Field(&r.Paths,
			validation.When(!usesPath, validation.Required),
			validation.When(usesPath, validation.Empty),
			validation.Each(validation.By(targetRule))),
		validation.Field(&r.Pattern, validation.When(k == KindSectionPresent, validation.Required)),
		validation.Field(&r.Keyword, validation.When(k == KindKeywordPresent, validation.Required)),
		validation.Field(&r.Field, validation.When(k == KindFrontmatterField, validation.Required)),
		validation.Field(&r.Key, validation.When(k == KindSettingEquals, validation.Required)),
		validation.Field(&r.MinFiles, validation.Min(0)),
	)
}

// targetRule rejects paths escaping the root and malformed globs.
func targetRule(value interface{}) error {
	p, _ := value.(string)
	if p == "" {
		return nil
	}
	if _, err := storage.CleanRel(p); err != nil {
		return errors.New("must stay inside the root")
	}
	if !doublestar.ValidatePattern(p) {
		return errors.New("is not a valid glob")
	}
	return nil
}

// Default returns the built-in rule set.
func Default() (*Set, error) {
	return Parse(defaultRuleSet)
}

// Load reads and parses a rule set file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set %s: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes and validates a YAML rule set. Every problem is reported
// here so evaluation never meets a rule it cannot run. Errors wrap
// apperr.ErrInvalidRuleSet.
func Parse(data []byte) (*Set, error) {
	var doc setDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, invalid("parse yaml: %v", err)
	}
	if len(doc.Groups) == 0 {
		return nil, invalid("no groups defined")
	}

	set := &Set{Version: doc.Version, raw: append([]byte(nil), data...)}
	ids := map[string]string{}
	groups := map[string]struct{}{}

	for gi, gd := range doc.Groups {
		if err := gd.Validate(); err != nil {
			return nil, invalid("group #%d (%q): %v", gi+1, gd.Name, err)
		}
		if _, dup := groups[gd.Name]; dup {
			return nil, invalid("group %q: duplicate name", gd.Name)
		}
		groups[gd.Name] = struct{}{}

		g := Group{Name: gd.Name, Description: gd.Description, Weight: 1}
		if gd.Weight != nil {
			if *gd.Weight < 0 {
				return nil, invalid("group %q: weight must not be negative", gd.Name)
			}
			g.Weight = *gd.Weight
		}

		for ri := range gd.Rules {
			rd := &gd.Rules[ri]
			if err := rd.Validate(); err != nil {
				return nil, invalid("group %q rule %q: %v", gd.Name, ruleLabel(rd, ri), err)
			}
			if prev, dup := ids[rd.ID]; dup {
				return nil, invalid("rule %q: duplicate id (also in group %q)", rd.ID, prev)
			}
			ids[rd.ID] = gd.Name

			r, err := compile(rd)
			if err != nil {
				return nil, invalid("group %q rule %q: %v", gd.Name, rd.ID, err)
			}
			g.Rules = append(g.Rules, r)
		}
		set.Groups = append(set.Groups, g)
	}

	for i, fd := range doc.FrontmatterFixes {
		if err := targetRule(fd.Path); err != nil || fd.Path == "" {
			return nil, invalid("frontmatter fix #%d: path %q is invalid", i+1, fd.Path)
		}
		if fd.Fields.Kind != yaml.MappingNode || len(fd.Fields.Content) == 0 {
			return nil, invalid("frontmatter fix %q: fields must be a non-empty mapping", fd.Path)
		}
		fields := fd.Fields
		set.Fixes = append(set.Fixes, FrontmatterFix{Path: fd.Path, Fields: &fields})
	}

	return set, nil
}

func compile(rd *ruleDoc) (Rule, error) {
	r := Rule{
		ID:          rd.ID,
		Description: rd.Description,
		Severity:    models.Severity(rd.Severity),
		Optional:    rd.Optional,
	}
	if r.Severity == "" {
		r.Severity = models.SeverityError
	}

	path, _ := storage.CleanRel(rd.Path)

	switch Kind(rd.Kind) {
	case KindFileExists:
		r.Check = FileExists{Path: path}
	case KindDirExists:
		r.Check = DirExists{Path: path}
	case KindSectionPresent:
		c := SectionPresent{Path: path, Pattern: rd.Pattern, Regex: rd.Regex, IgnoreCase: rd.IgnoreCase}
		if rd.Regex {
			expr := rd.Pattern
			if rd.IgnoreCase {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile("(?m)" + expr)
			if err != nil {
				return Rule{}, fmt.Errorf("pattern: %w", err)
			}
			c.re = re
		}
		r.Check = c
	case KindFrontmatterField:
		c := FrontmatterField{Path: path, Field: rd.Field}
		if rd.Expected.Kind != 0 {
			if err := rd.Expected.Decode(&c.Expected); err != nil {
				return Rule{}, fmt.Errorf("expected: %w", err)
			}
			c.HasExpected = true
		}
		r.Check = c
	case KindKeywordPresent:
		c := KeywordPresent{Keyword: rd.Keyword, Regex: rd.Regex, MinFiles: rd.MinFiles}
		for _, p := range rd.Paths {
			cp, _ := storage.CleanRel(p)
			c.Paths = append(c.Paths, cp)
		}
		if c.MinFiles == 0 {
			c.MinFiles = 1
		}
		if rd.Regex {
			re, err := regexp.Compile("(?i)" + rd.Keyword)
			if err != nil {
				return Rule{}, fmt.Errorf("keyword: %w", err)
			}
			c.re = re
		}
		r.Check = c
	case KindSettingEquals:
		if rd.Expected.Kind == 0 {
			return Rule{}, errors.New("expected: is required")
		}
		c := SettingEquals{Path: path, Key: rd.Key}
		if err := rd.Expected.Decode(&c.Expected); err != nil {
			return Rule{}, fmt.Errorf("expected: %w", err)
		}
		r.Check = c
	default:
		return Rule{}, fmt.Errorf("unknown kind %q", rd.Kind)
	}
	return r, nil
}

func ruleLabel(rd *ruleDoc, index int) string {
	if rd.ID != "" {
		return rd.ID
	}
	return fmt.Sprintf("#%d", index+1)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalidRuleSet, fmt.Sprintf(format, args...))
}
