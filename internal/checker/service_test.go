package checker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/confcheck/internal/apperr"
	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/rules"
	"github.com/starford/confcheck/internal/testutil"
)

var ts = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

const ruleSet = `
version: 1
groups:
  - name: structure
    weight: 3
    rules:
      - {id: readme, kind: file_exists, path: README.md}
  - name: settings
    weight: 1
    rules:
      - {id: fmt, kind: setting_equals, path: settings.json, key: editor.formatOnSave, expected: true}
frontmatter_fixes:
  - path: 'docs/*.md'
    fields: {role: docs}
`

func testService(t *testing.T, files map[string]string, opts ...Option) (*Service, string) {
	t.Helper()
	set, err := rules.Parse([]byte(ruleSet))
	if err != nil {
		t.Fatal(err)
	}
	root := testutil.WriteTree(t, files)
	svc, err := NewService(set, root, append([]Option{WithClock(func() time.Time { return ts })}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return svc, root
}

func TestCheck_AllRules(t *testing.T) {
	svc, _ := testService(t, map[string]string{"README.md": "# hi"})
	r, err := svc.Check(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if r.Group != "" || r.TotalChecks != 2 || r.Successes != 1 || r.Status != models.StatusFail {
		t.Errorf("report = %+v", r)
	}
	if r.RulesetChecksum != svc.RuleSet().Checksum() || !r.Timestamp.Equal(ts) {
		t.Errorf("metadata = %s %v", r.RulesetChecksum, r.Timestamp)
	}
}

func TestCheck_Group(t *testing.T) {
	svc, _ := testService(t, map[string]string{"README.md": "# hi"})
	r, err := svc.Check(context.Background(), "structure")
	if err != nil {
		t.Fatal(err)
	}
	if r.Group != "structure" || r.Status != models.StatusPass || r.SuccessRate != 100 {
		t.Errorf("report = %+v", r)
	}

	if _, err := svc.Check(context.Background(), "nope"); !errors.Is(err, apperr.ErrInvalidRuleSet) {
		t.Errorf("unknown group err = %v", err)
	}
}

func TestAggregateAndPersist(t *testing.T) {
	svc, root := testService(t, map[string]string{"README.md": "# hi"}, WithParallel(true))
	a, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if a.OverallPercentage != 75 || a.Status != models.StatusFail {
		t.Errorf("aggregate = %+v", a)
	}

	written, err := svc.PersistAggregate(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 4 {
		t.Errorf("written = %v", written)
	}
	if _, err := os.Stat(filepath.Join(root, "reports", "latest_aggregate_report.json")); err != nil {
		t.Error(err)
	}
}

func TestPersistReport(t *testing.T) {
	dir := t.TempDir()
	svc, _ := testService(t, map[string]string{}, WithReportDir(dir))
	r, err := svc.Check(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	p, err := svc.PersistReport(r)
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(dir, "validation_report.json") {
		t.Errorf("path = %s", p)
	}
}

func TestRules(t *testing.T) {
	svc, _ := testService(t, map[string]string{})
	all, err := svc.Rules("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[1].Group != "settings" || all[1].Target != "settings.json#editor.formatOnSave" {
		t.Errorf("rules = %+v", all)
	}
	one, err := svc.Rules("structure")
	if err != nil || len(one) != 1 || one[0].Kind != rules.KindFileExists {
		t.Errorf("structure rules = %+v, %v", one, err)
	}
}

func TestFixFrontmatter(t *testing.T) {
	svc, root := testService(t, map[string]string{"docs/a.md": "body\n"})
	changes, err := svc.FixFrontmatter(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || changes[0].Path != "docs/a.md" {
		t.Errorf("changes = %+v", changes)
	}
	got, _ := os.ReadFile(filepath.Join(root, "docs", "a.md"))
	if string(got) != "---\nrole: docs\n---\n\nbody\n" {
		t.Errorf("content = %q", got)
	}
}

func TestNewService_MissingRoot(t *testing.T) {
	set, _ := rules.Parse([]byte(ruleSet))
	if _, err := NewService(set, filepath.Join(t.TempDir(), "missing")); !errors.Is(err, apperr.ErrMissingResource) {
		t.Errorf("err = %v", err)
	}
}
