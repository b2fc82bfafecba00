// Package aggregate runs several rule groups and combines their reports
// into one weighted score.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/report"
	"github.com/starford/confcheck/internal/rules"
)

// EvaluateFunc produces the report for a single group.
type EvaluateFunc func(ctx context.Context, g rules.Group) (*models.Report, error)

// Options tunes a Run.
type Options struct {
	// Parallel evaluates groups concurrently. Results keep declaration order.
	Parallel bool
	// Now stamps the aggregate report. Defaults to time.Now.
	Now      func() time.Time
	Checksum string
}

// Run evaluates every group with evaluate and folds the results.
func Run(ctx context.Context, groups []rules.Group, evaluate EvaluateFunc, opts Options) (*models.AggregateReport, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	reports := make([]*models.Report, len(groups))
	if opts.Parallel {
		g, gCtx := errgroup.WithContext(ctx)
		for i, grp := range groups {
			g.Go(func() error {
				r, err := evaluate(gCtx, grp)
				if err != nil {
					return fmt.Errorf("group %s: %w", grp.Name, err)
				}
				reports[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, grp := range groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := evaluate(ctx, grp)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", grp.Name, err)
			}
			reports[i] = r
		}
	}

	return Combine(groups, reports, now(), opts.Checksum), nil
}

// Combine folds per-group reports, given in the same order as groups, into
// an aggregate report.
func Combine(groups []rules.Group, reports []*models.Report, ts time.Time, checksum string) *models.AggregateReport {
	a := &models.AggregateReport{
		Timestamp:       ts,
		Status:          models.StatusPass,
		Groups:          make([]models.GroupResult, 0, len(groups)),
		RulesetChecksum: checksum,
	}

	var weighted float64
	for i, grp := range groups {
		r := reports[i]
		a.Groups = append(a.Groups, models.GroupResult{
			Name:        grp.Name,
			Description: grp.Description,
			Weight:      grp.Weight,
			Status:      r.Status,
			SuccessRate: r.SuccessRate,
			Report:      r,
		})
		a.TotalWeight += grp.Weight
		weighted += r.SuccessRate * float64(grp.Weight)
		if r.Passed() {
			a.GroupsPassed++
		} else {
			a.GroupsFailed++
			a.Status = models.StatusFail
		}
	}

	if a.TotalWeight > 0 {
		a.OverallPercentage = report.Round1(weighted / float64(a.TotalWeight))
	}
	a.Grade = Grade(a.OverallPercentage)
	a.Recommendations = Recommendations(a.OverallPercentage, a.Groups)
	return a
}

// Grade maps an overall percentage to a letter grade.
func Grade(pct float64) string {
	switch {
	case pct >= 95:
		return "A+"
	case pct >= 90:
		return "A"
	case pct >= 85:
		return "B+"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C+"
	case pct >= 60:
		return "C"
	default:
		return "D"
	}
}

// weakGroupThreshold is the success rate under which a group gets its own
// recommendation.
const weakGroupThreshold = 80

// Recommendations returns a tiered summary for pct followed by one line per
// group below weakGroupThreshold.
func Recommendations(pct float64, groups []models.GroupResult) []string {
	var recs []string
	switch {
	case pct >= 95:
		recs = append(recs,
			"Excellent: the instruction setup is in great shape.",
			"Consider documenting this setup as a template for other projects.")
	case pct >= 85:
		recs = append(recs,
			"Very good setup; small adjustments can still improve it.",
			"Review the remaining warnings.")
	case pct >= 70:
		recs = append(recs,
			"Solid setup with some areas to improve.",
			"Resolve error-severity failures first.")
	default:
		recs = append(recs,
			"Significant improvements are needed.",
			"Start with the failing groups listed below.")
	}
	for _, g := range groups {
		if g.SuccessRate < weakGroupThreshold {
			recs = append(recs, fmt.Sprintf("Improve %s (%.1f%%)", g.Name, g.SuccessRate))
		}
	}
	return recs
}
