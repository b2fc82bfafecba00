package aggregate

import (
	"fmt"
	"path/filepath"

	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/report"
)

// LatestFileName always holds the most recent aggregate report.
const LatestFileName = "latest_aggregate_report.json"

// TimestampedFileName returns the archive name for an aggregate report
// taken at a.Timestamp.
func TimestampedFileName(a *models.AggregateReport) string {
	return "aggregate_report_" + a.Timestamp.Format("20060102_150405") + ".json"
}

// Persist writes every group's report as <group>_report.json, then the
// aggregate under its timestamped name and as LatestFileName. It returns
// the written paths in that order.
func Persist(a *models.AggregateReport, dir string) ([]string, error) {
	var written []string
	for _, g := range a.Groups {
		if g.Report == nil {
			continue
		}
		p := filepath.Join(dir, report.FileName(g.Name))
		if err := report.Persist(g.Report, p); err != nil {
			return written, fmt.Errorf("persist group %s: %w", g.Name, err)
		}
		written = append(written, p)
	}

	for _, name := range []string{TimestampedFileName(a), LatestFileName} {
		p := filepath.Join(dir, name)
		if err := report.Persist(a, p); err != nil {
			return written, fmt.Errorf("persist aggregate: %w", err)
		}
		written = append(written, p)
	}
	return written, nil
}
