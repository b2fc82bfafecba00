package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/confcheck/internal/models"
)

var ts = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func finding(id string, sev models.Severity, out models.Outcome) models.Finding {
	f := models.Finding{RuleID: id, Kind: "file_exists", Severity: sev, Outcome: out, Message: id + " message"}
	if out != models.OutcomePass {
		f.Category = models.CategoryMissingResource
	}
	return f
}

func TestBuild_Tally(t *testing.T) {
	findings := []models.Finding{
		finding("a", models.SeverityError, models.OutcomePass),
		finding("b", models.SeverityError, models.OutcomeFail),
		finding("c", models.SeverityWarning, models.OutcomeFail),
		finding("d", models.SeverityWarning, models.OutcomePass),
		finding("e", models.SeverityError, models.OutcomeSkip),
		finding("f", models.SeverityError, models.OutcomePass),
	}
	r := Build(findings, Options{Group: "g", Timestamp: ts, Checksum: "abc"})

	want := &models.Report{
		Group:           "g",
		Timestamp:       ts,
		Status:          models.StatusFail,
		SuccessRate:     60,
		TotalChecks:     5,
		Successes:       3,
		Errors:          1,
		Warnings:        1,
		Skipped:         1,
		ErrorDetails:    []string{"[b] b message"},
		WarningDetails:  []string{"[c] c message"},
		Findings:        findings,
		RulesetChecksum: "abc",
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("report (-want +got):\n%s", diff)
	}
	if r.Successes+r.Errors+r.Warnings != r.TotalChecks {
		t.Error("successes + errors + warnings != total_checks")
	}
	if r.TotalChecks+r.Skipped != len(findings) {
		t.Error("total_checks + skipped != len(findings)")
	}
}

func TestBuild_WarningsDoNotFail(t *testing.T) {
	r := Build([]models.Finding{
		finding("a", models.SeverityWarning, models.OutcomeFail),
		finding("b", models.SeverityError, models.OutcomePass),
	}, Options{Timestamp: ts})
	if r.Status != models.StatusPass {
		t.Errorf("status = %s, want PASS", r.Status)
	}
	if r.SuccessRate != 50 {
		t.Errorf("success_rate = %v, want 50", r.SuccessRate)
	}
}

func TestBuild_Empty(t *testing.T) {
	r := Build(nil, Options{Timestamp: ts})
	if r.SuccessRate != 0 || r.TotalChecks != 0 || r.Status != models.StatusPass {
		t.Errorf("empty report = %+v", r)
	}

	r = Build([]models.Finding{finding("a", models.SeverityError, models.OutcomeSkip)}, Options{Timestamp: ts})
	if r.SuccessRate != 0 || r.Skipped != 1 {
		t.Errorf("all-skipped report = %+v", r)
	}
}

func TestBuild_SingleFailure(t *testing.T) {
	r := Build([]models.Finding{finding("a", models.SeverityError, models.OutcomeFail)}, Options{Timestamp: ts})
	if r.Status != models.StatusFail || r.SuccessRate != 0 || r.Errors != 1 {
		t.Errorf("report = %+v", r)
	}
}

// Turning a failing finding into a passing one never lowers the rate.
func TestBuild_RateMonotonic(t *testing.T) {
	findings := make([]models.Finding, 7)
	for i := range findings {
		findings[i] = finding(fmt.Sprint(i), models.SeverityError, models.OutcomeFail)
	}
	prev := Build(findings, Options{}).SuccessRate
	for i := range findings {
		findings[i].Outcome = models.OutcomePass
		rate := Build(findings, Options{}).SuccessRate
		if rate < prev {
			t.Fatalf("rate dropped from %v to %v after fixing %d", prev, rate, i)
		}
		if rate < 0 || rate > 100 {
			t.Fatalf("rate %v out of range", rate)
		}
		prev = rate
	}
	if prev != 100 {
		t.Errorf("final rate = %v, want 100", prev)
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		part, total int
		want        float64
	}{
		{0, 0, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{3, 3, 100},
		{7, 8, 87.5},
	}
	for _, tt := range tests {
		if got := Rate(tt.part, tt.total); got != tt.want {
			t.Errorf("Rate(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
		}
	}
}

func manyFailures(n int) *models.Report {
	var findings []models.Finding
	for i := 0; i < n; i++ {
		findings = append(findings, finding(fmt.Sprintf("err-%02d", i), models.SeverityError, models.OutcomeFail))
		findings = append(findings, finding(fmt.Sprintf("warn-%02d", i), models.SeverityWarning, models.OutcomeFail))
	}
	return Build(findings, Options{Group: "structure", Timestamp: ts})
}

func TestRenderText_Truncates(t *testing.T) {
	r := manyFailures(12)
	out := RenderText(r, 5)

	for _, want := range []string{
		"Validation report: structure",
		"Errors (12):",
		"Warnings (12):",
		"[err-04] err-04 message",
		"... and 7 more",
		"Result: FAIL",
		"Success rate",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "[err-05]") {
		t.Error("output lists more than maxListed errors")
	}
	if strings.Index(out, "Errors (12)") > strings.Index(out, "Warnings (12)") {
		t.Error("errors must be listed before warnings")
	}
	if len(r.ErrorDetails) != 12 {
		t.Errorf("report details truncated: %d", len(r.ErrorDetails))
	}
}

func TestRenderText_Unlimited(t *testing.T) {
	out := RenderText(manyFailures(12), 0)
	if strings.Contains(out, "more") {
		t.Error("unexpected truncation")
	}
	if !strings.Contains(out, "[warn-11]") {
		t.Error("last warning missing")
	}
}

func TestRenderText_Pass(t *testing.T) {
	r := Build([]models.Finding{finding("a", models.SeverityError, models.OutcomePass)}, Options{Timestamp: ts})
	out := RenderText(r, 10)
	if !strings.Contains(out, "all rules") || !strings.Contains(out, "Result: PASS") {
		t.Errorf("output:\n%s", out)
	}
	if strings.Contains(out, "Errors (") {
		t.Error("empty error list rendered")
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown(manyFailures(3), 2)
	for _, want := range []string{
		"# Validation report: structure",
		"## Summary",
		"| Metric | Value |",
		"## Errors (3):",
		"- [err-00] err-00 message",
		"- ... and 1 more",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	r := manyFailures(2)
	r.Findings[0].Details = []string{"x.md", "y.md"}
	path := filepath.Join(t.TempDir(), "reports", "structure_report.json")

	if err := Persist(r, path); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"group\": \"structure\",") {
		t.Errorf("not 2-space indented:\n%s", data[:40])
	}
	if !strings.HasSuffix(string(data), "}\n") {
		t.Error("missing trailing newline")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error")
	}
}

func TestRenderAggregateText(t *testing.T) {
	a := &models.AggregateReport{
		Timestamp:         ts,
		Status:            models.StatusFail,
		OverallPercentage: 75,
		Grade:             "C+",
		TotalWeight:       4,
		GroupsPassed:      1,
		GroupsFailed:      1,
		Groups: []models.GroupResult{
			{Name: "structure", Weight: 3, Status: models.StatusPass, SuccessRate: 100},
			{Name: "settings", Weight: 1, Status: models.StatusFail, SuccessRate: 0},
		},
		Recommendations: []string{"Improve settings (0.0%)"},
	}
	out := RenderAggregateText(a)
	for _, want := range []string{"structure", "settings", "75.0%", "Grade: C+", "- Improve settings"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if md := RenderAggregateMarkdown(a); !strings.Contains(md, "| structure |") {
		t.Errorf("markdown:\n%s", md)
	}
}

func TestFileName(t *testing.T) {
	if FileName("") != "validation_report.json" || FileName("settings") != "settings_report.json" {
		t.Error("unexpected file names")
	}
}
