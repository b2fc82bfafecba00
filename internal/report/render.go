package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/confcheck/internal/models"
)

// DefaultMaxListed is how many failures per severity the renderers list
// before collapsing the rest.
const DefaultMaxListed = 10

// RenderText renders a report as a terminal summary: a metrics table
// followed by failures grouped by severity, errors first. Each list is cut
// to maxListed entries; maxListed <= 0 lists everything.
func RenderText(r *models.Report, maxListed int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Validation report: %s\n", title(r.Group))
	fmt.Fprintf(&b, "Generated: %s\n\n", r.Timestamp.Format(time.RFC3339))

	b.WriteString(summaryTable(r, Text))
	b.WriteString("\n")

	writeList(&b, "Errors", r.ErrorDetails, maxListed, "  ✗ ", "")
	writeList(&b, "Warnings", r.WarningDetails, maxListed, "  ⚠ ", "")

	if r.Passed() {
		b.WriteString("\nResult: PASS\n")
	} else {
		b.WriteString("\nResult: FAIL\n")
	}
	return b.String()
}

// RenderMarkdown renders the same content as RenderText as a Markdown
// document.
func RenderMarkdown(r *models.Report, maxListed int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation report: %s\n\n", title(r.Group))
	fmt.Fprintf(&b, "_Generated %s_\n\n", r.Timestamp.Format(time.RFC3339))

	b.WriteString("## Summary\n\n")
	b.WriteString(summaryTable(r, Markdown))
	b.WriteString("\n\n")

	if len(r.ErrorDetails) > 0 {
		b.WriteString("## ")
		writeList(&b, "Errors", r.ErrorDetails, maxListed, "- ", "\n")
	}
	if len(r.WarningDetails) > 0 {
		b.WriteString("## ")
		writeList(&b, "Warnings", r.WarningDetails, maxListed, "- ", "\n")
	}
	if r.Passed() && len(r.WarningDetails) == 0 {
		b.WriteString("All checks passed.\n")
	}
	return b.String()
}

func title(group string) string {
	if group == "" {
		return "all rules"
	}
	return group
}

func summaryTable(r *models.Report, m Mode) string {
	t := NewTable(m)
	t.Header("Metric", "Value")
	t.Row("Status", r.Status)
	t.Row("Success rate", fmt.Sprintf("%.1f%%", r.SuccessRate))
	t.Row("Checks", r.TotalChecks)
	t.Row("Passed", r.Successes)
	t.Row("Errors", r.Errors)
	t.Row("Warnings", r.Warnings)
	t.Row("Skipped", r.Skipped)
	t.AlignRight(2)
	return t.String()
}

// writeList writes a heading and up to limit items. sep is written after
// the heading line.
func writeList(b *strings.Builder, heading string, items []string, limit int, bullet, sep string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n%s", heading, len(items), sep)
	shown := items
	if limit > 0 && len(items) > limit {
		shown = items[:limit]
	}
	for _, it := range shown {
		b.WriteString(bullet)
		b.WriteString(it)
		b.WriteString("\n")
	}
	if rest := len(items) - len(shown); rest > 0 {
		fmt.Fprintf(b, "%s... and %d more\n", bullet, rest)
	}
	b.WriteString(sep)
}

// RenderAggregateText renders an aggregate report as a per-group table
// followed by the grade and recommendations.
func RenderAggregateText(a *models.AggregateReport) string {
	return renderAggregate(a, Text)
}

// RenderAggregateMarkdown is RenderAggregateText as Markdown.
func RenderAggregateMarkdown(a *models.AggregateReport) string {
	return renderAggregate(a, Markdown)
}

func renderAggregate(a *models.AggregateReport, m Mode) string {
	var b strings.Builder
	if m == Markdown {
		b.WriteString("# Aggregate validation report\n\n")
	} else {
		b.WriteString("Aggregate validation report\n")
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", a.Timestamp.Format(time.RFC3339))

	t := NewTable(m)
	t.Header("Group", "Weight", "Status", "Success rate", "Errors", "Warnings")
	for _, g := range a.Groups {
		var errs, warns int
		if g.Report != nil {
			errs, warns = g.Report.Errors, g.Report.Warnings
		}
		t.Row(g.Name, g.Weight, g.Status, fmt.Sprintf("%.1f%%", g.SuccessRate), errs, warns)
	}
	t.Footer("Overall", a.TotalWeight, a.Status, fmt.Sprintf("%.1f%%", a.OverallPercentage), "", "")
	t.AlignRight(2, 4, 5, 6)
	b.WriteString(t.String())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Grade: %s (%d passed, %d failed)\n", a.Grade, a.GroupsPassed, a.GroupsFailed)
	if len(a.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range a.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}
	return b.String()
}
