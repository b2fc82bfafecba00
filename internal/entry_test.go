package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/confcheck/internal/apperr"
	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/report"
	"github.com/starford/confcheck/internal/testutil"
)

var ts = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

const testRules = `
groups:
  - name: structure
    weight: 3
    rules:
      - {id: readme, kind: file_exists, path: README.md}
      - {id: usage, kind: section_present, path: README.md, pattern: '## Usage', severity: warning}
  - name: settings
    weight: 1
    rules:
      - {id: fmt, kind: setting_equals, path: .vscode/settings.json, key: editor.formatOnSave, expected: true}
frontmatter_fixes:
  - path: 'docs/*.md'
    fields: {owner: docs-team}
`

type harness struct {
	root   string
	stdout bytes.Buffer
	stderr bytes.Buffer
	cfg    *Config
}

func newHarness(t *testing.T, files map[string]string) *harness {
	t.Helper()
	h := &harness{root: testutil.WriteTree(t, files)}
	rulesFile := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(rulesFile, []byte(testRules), 0o644); err != nil {
		t.Fatal(err)
	}
	h.cfg = NewDefaultConfig()
	h.cfg.Check.Root = h.root
	h.cfg.Check.RulesFile = rulesFile
	return h
}

func (h *harness) opts(extra ...Option) []Option {
	return append([]Option{
		WithConfig(h.cfg),
		WithOutput(&h.stdout, &h.stderr),
		WithClock(func() time.Time { return ts }),
	}, extra...)
}

func TestCheck_FailWritesReport(t *testing.T) {
	h := newHarness(t, map[string]string{})

	err := Check(context.Background(), h.opts()...)
	if !errors.Is(err, apperr.ErrChecksFailed) {
		t.Fatalf("err = %v, want ErrChecksFailed", err)
	}
	if !strings.Contains(h.stdout.String(), "file missing: README.md") {
		t.Errorf("stdout:\n%s", h.stdout.String())
	}

	r, err := report.Load(filepath.Join(h.root, "reports", "validation_report.json"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != models.StatusFail || len(r.Findings) != 3 {
		t.Errorf("persisted report = %+v", r)
	}
}

func TestCheck_PassGroupJSON(t *testing.T) {
	h := newHarness(t, map[string]string{"README.md": "# Tool\n"})
	md := filepath.Join(t.TempDir(), "out", "report.md")

	err := Check(context.Background(), h.opts(
		WithGroup("structure"),
		WithFormat(FormatJSON),
		WithMarkdownOut(md),
	)...)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	var r models.Report
	if err := json.Unmarshal(h.stdout.Bytes(), &r); err != nil {
		t.Fatalf("stdout is not a JSON report: %v", err)
	}
	if r.Group != "structure" || r.Status != models.StatusPass || r.Warnings != 1 {
		t.Errorf("report = %+v", r)
	}
	if _, err := os.Stat(filepath.Join(h.root, "reports", "structure_report.json")); err != nil {
		t.Error(err)
	}
	data, err := os.ReadFile(md)
	if err != nil || !strings.HasPrefix(string(data), "# Validation report: structure") {
		t.Errorf("markdown = %q, %v", data, err)
	}
}

func TestCheck_InvalidRuleSet(t *testing.T) {
	h := newHarness(t, map[string]string{})
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("groups: [{name: g, rules: [{id: x, kind: nope}]}]"), 0o644)
	h.cfg.Check.RulesFile = bad

	err := Check(context.Background(), h.opts()...)
	if !errors.Is(err, apperr.ErrInvalidRuleSet) {
		t.Errorf("err = %v, want ErrInvalidRuleSet", err)
	}
}

func TestCheck_DefaultRuleSet(t *testing.T) {
	h := newHarness(t, map[string]string{})
	h.cfg.Check.RulesFile = ""

	err := Check(context.Background(), h.opts(WithFormat(FormatJSON))...)
	if !errors.Is(err, apperr.ErrChecksFailed) {
		t.Fatalf("err = %v", err)
	}
	var r models.Report
	if err := json.Unmarshal(h.stdout.Bytes(), &r); err != nil {
		t.Fatal(err)
	}
	if len(r.Findings) == 0 || r.Errors == 0 {
		t.Errorf("report = %+v", r)
	}
}

func TestAggregate(t *testing.T) {
	h := newHarness(t, map[string]string{"README.md": "## Usage\n"})

	err := Aggregate(context.Background(), h.opts(WithParallel(true))...)
	if !errors.Is(err, apperr.ErrChecksFailed) {
		t.Fatalf("err = %v", err)
	}
	out := h.stdout.String()
	if !strings.Contains(out, "75.0%") || !strings.Contains(out, "Grade: C+") {
		t.Errorf("stdout:\n%s", out)
	}
	for _, name := range []string{"latest_aggregate_report.json", "aggregate_report_20260314_150926.json", "settings_report.json"} {
		if _, err := os.Stat(filepath.Join(h.root, "reports", name)); err != nil {
			t.Error(err)
		}
	}
}

func TestListRules(t *testing.T) {
	h := newHarness(t, map[string]string{})
	if err := ListRules(context.Background(), h.opts()...); err != nil {
		t.Fatal(err)
	}
	out := h.stdout.String()
	for _, want := range []string{"readme", "section_present", "warning", ".vscode/settings.json#editor.formatOnSave"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestFixFrontmatter_DryRun(t *testing.T) {
	h := newHarness(t, map[string]string{"docs/a.md": "body\n"})

	if err := FixFrontmatter(context.Background(), h.opts(WithDryRun(true))...); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.stdout.String(), "Would update 1 file(s)") {
		t.Errorf("stdout:\n%s", h.stdout.String())
	}
	data, _ := os.ReadFile(filepath.Join(h.root, "docs", "a.md"))
	if string(data) != "body\n" {
		t.Errorf("dry run wrote %q", data)
	}

	h.stdout.Reset()
	if err := FixFrontmatter(context.Background(), h.opts()...); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(filepath.Join(h.root, "docs", "a.md"))
	if string(data) != "---\nowner: docs-team\n---\n\nbody\n" {
		t.Errorf("fixed content = %q", data)
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	h := newHarness(t, map[string]string{"README.md": "# x\n"})
	h.cfg.Watch.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, h.opts(WithGroup("structure"))...) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestCheck_RequiresConfig(t *testing.T) {
	if err := Check(context.Background()); err == nil {
		t.Error("expected error without config")
	}
}
