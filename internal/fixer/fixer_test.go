package fixer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/confcheck/internal/rules"
	"github.com/starford/confcheck/internal/testutil"
)

func loadFixes(t *testing.T, yml string) []rules.FrontmatterFix {
	t.Helper()
	set, err := rules.Parse([]byte("groups: [{name: g, rules: []}]\nfrontmatter_fixes:\n" + yml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return set.Fixes
}

const qaFix = `
  - path: 'prompts/*.md'
    fields:
      applyTo: [testing, validation]
      role: qa-engineer
      description: Prompt examples for QA
`

func TestFix_RewritesInConfiguredOrder(t *testing.T) {
	root, tree := testutil.TestTree(t, map[string]string{
		"prompts/qa.md": "---\ntags: [\"a\", \"b\"]\nrole: old\n---\n\n\n# QA prompts\n",
	})

	changes, err := Fix(tree, loadFixes(t, qaFix), false)
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if diff := cmp.Diff([]Change{{Path: "prompts/qa.md", Action: ActionUpdated}}, changes); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}

	got, err := os.ReadFile(filepath.Join(root, "prompts", "qa.md"))
	if err != nil {
		t.Fatal(err)
	}
	want := "---\n" +
		"applyTo: [testing, validation]\n" +
		"role: qa-engineer\n" +
		"description: Prompt examples for QA\n" +
		"tags: [\"a\", \"b\"]\n" +
		"---\n" +
		"\n" +
		"# QA prompts\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("content (-want +got):\n%s", diff)
	}
}

func TestFix_Idempotent(t *testing.T) {
	root, tree := testutil.TestTree(t, map[string]string{
		"prompts/qa.md": "# QA prompts without frontmatter\n",
	})
	fixes := loadFixes(t, qaFix)

	if _, err := Fix(tree, fixes, false); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(filepath.Join(root, "prompts", "qa.md"))

	changes, err := Fix(tree, fixes, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Change{{Path: "prompts/qa.md", Action: ActionUnchanged}}, changes); diff != "" {
		t.Errorf("second run (-want +got):\n%s", diff)
	}
	second, _ := os.ReadFile(filepath.Join(root, "prompts", "qa.md"))
	if string(first) != string(second) {
		t.Errorf("content changed on second run:\n%s\n---\n%s", first, second)
	}
}

func TestFix_DryRunWritesNothing(t *testing.T) {
	original := "---\nrole: old\n---\nbody\n"
	root, tree := testutil.TestTree(t, map[string]string{"prompts/qa.md": original})

	changes, err := Fix(tree, loadFixes(t, qaFix), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || changes[0].Action != ActionUpdated {
		t.Errorf("changes = %+v", changes)
	}
	got, _ := os.ReadFile(filepath.Join(root, "prompts", "qa.md"))
	if string(got) != original {
		t.Errorf("dry run modified file:\n%s", got)
	}
}

func TestFix_SkipsMalformedAndMissing(t *testing.T) {
	_, tree := testutil.TestTree(t, map[string]string{
		"prompts/bad.md": "---\n- not\n- a mapping\n---\n",
	})
	fixes := loadFixes(t, qaFix+`
  - path: tasks/review.md
    fields:
      task: review
`)

	changes, err := Fix(tree, fixes, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []Change{
		{Path: "prompts/bad.md", Action: ActionSkipped, Reason: "malformed mapping"},
		{Path: "tasks/review.md", Action: ActionSkipped, Reason: "no files match"},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
}

func TestFix_LaterFixSeesEarlierInDryRun(t *testing.T) {
	_, tree := testutil.TestTree(t, map[string]string{"prompts/qa.md": "body\n"})
	fixes := loadFixes(t, qaFix+`
  - path: prompts/qa.md
    fields:
      applyTo: [testing, validation]
`)

	changes, err := Fix(tree, fixes, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []Change{
		{Path: "prompts/qa.md", Action: ActionUpdated},
		{Path: "prompts/qa.md", Action: ActionUnchanged},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
}
