// Package report folds findings into reports, renders them for humans and
// persists them as JSON.
package report

import (
	"math"
	"time"

	"github.com/starford/confcheck/internal/models"
)

// Options carries the run metadata recorded on a report.
type Options struct {
	Group     string
	Timestamp time.Time
	Checksum  string
}

// Build tallies findings into a report. Findings are copied; the caller's
// slice is not retained.
func Build(findings []models.Finding, opts Options) *models.Report {
	r := &models.Report{
		Group:           opts.Group,
		Timestamp:       opts.Timestamp,
		Status:          models.StatusPass,
		ErrorDetails:    []string{},
		WarningDetails:  []string{},
		Findings:        append([]models.Finding{}, findings...),
		RulesetChecksum: opts.Checksum,
	}

	for _, f := range findings {
		switch {
		case f.Outcome == models.OutcomeSkip:
			r.Skipped++
			continue
		case f.Outcome == models.OutcomePass:
			r.Successes++
		case f.Severity == models.SeverityWarning:
			r.Warnings++
			r.WarningDetails = append(r.WarningDetails, f.Summary())
		default:
			r.Errors++
			r.ErrorDetails = append(r.ErrorDetails, f.Summary())
			r.Status = models.StatusFail
		}
		r.TotalChecks++
	}
	r.SuccessRate = Rate(r.Successes, r.TotalChecks)
	return r
}

// Rate returns part/total as a percentage rounded to one decimal, or 0 when
// total is 0.
func Rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round1(float64(part) / float64(total) * 100)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
