// Package checker ties a rule set to a scan root and runs it.
package checker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/starford/confcheck/internal/aggregate"
	"github.com/starford/confcheck/internal/apperr"
	"github.com/starford/confcheck/internal/engine"
	"github.com/starford/confcheck/internal/fixer"
	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/report"
	"github.com/starford/confcheck/internal/rules"
	"github.com/starford/confcheck/internal/storage"
)

// RuleInfo is the listing view of a rule.
type RuleInfo struct {
	Group    string          `json:"group"`
	ID       string          `json:"id"`
	Kind     rules.Kind      `json:"kind"`
	Severity models.Severity `json:"severity"`
	Optional bool            `json:"optional,omitempty"`
	Target   string          `json:"target"`
}

// Service runs a rule set against the tree under a root.
type Service struct {
	set       *rules.Set
	tree      *storage.FS
	reportDir string
	parallel  bool
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithReportDir sets where reports are persisted. Relative paths are
// resolved against the scan root.
func WithReportDir(dir string) Option {
	return func(s *Service) { s.reportDir = dir }
}

// WithParallel makes Aggregate evaluate groups concurrently.
func WithParallel(parallel bool) Option {
	return func(s *Service) { s.parallel = parallel }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service for set rooted at root. root must exist.
func NewService(set *rules.Set, root string, opts ...Option) (*Service, error) {
	tree, err := storage.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMissingResource, err)
	}
	s := &Service{set: set, tree: tree, reportDir: "reports", now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if !filepath.IsAbs(s.reportDir) {
		s.reportDir = filepath.Join(tree.Root(), s.reportDir)
	}
	return s, nil
}

// RuleSet returns the active rule set.
func (s *Service) RuleSet() *rules.Set {
	return s.set
}

// Root returns the absolute scan root.
func (s *Service) Root() string {
	return s.tree.Root()
}

// ReportDir returns the absolute report directory.
func (s *Service) ReportDir() string {
	return s.reportDir
}

// group resolves a group name; "" selects every rule as one unnamed group.
func (s *Service) group(name string) (rules.Group, error) {
	if name == "" {
		return rules.Group{Rules: s.set.Rules(), Weight: 1}, nil
	}
	g, ok := s.set.Group(name)
	if !ok {
		return rules.Group{}, fmt.Errorf("%w: unknown group %q", apperr.ErrInvalidRuleSet, name)
	}
	return g, nil
}

// Check evaluates one group, or every rule when group is "".
func (s *Service) Check(ctx context.Context, group string) (*models.Report, error) {
	g, err := s.group(group)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, g)
}

func (s *Service) evaluate(ctx context.Context, g rules.Group) (*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	findings := engine.Evaluate(g.Rules, s.tree)
	return report.Build(findings, report.Options{
		Group:     g.Name,
		Timestamp: s.now(),
		Checksum:  s.set.Checksum(),
	}), nil
}

// Aggregate evaluates every group and combines them by weight.
func (s *Service) Aggregate(ctx context.Context) (*models.AggregateReport, error) {
	return aggregate.Run(ctx, s.set.Groups, s.evaluate, aggregate.Options{
		Parallel: s.parallel,
		Now:      s.now,
		Checksum: s.set.Checksum(),
	})
}

// PersistReport writes r to the report directory and returns its path.
func (s *Service) PersistReport(r *models.Report) (string, error) {
	p := filepath.Join(s.reportDir, report.FileName(r.Group))
	if err := report.Persist(r, p); err != nil {
		return "", err
	}
	return p, nil
}

// PersistAggregate writes the aggregate and per-group reports to the
// report directory.
func (s *Service) PersistAggregate(a *models.AggregateReport) ([]string, error) {
	return aggregate.Persist(a, s.reportDir)
}

// Rules lists the rules of one group, or of every group when group is "".
func (s *Service) Rules(group string) ([]RuleInfo, error) {
	groups := s.set.Groups
	if group != "" {
		g, err := s.group(group)
		if err != nil {
			return nil, err
		}
		groups = []rules.Group{g}
	}

	out := []RuleInfo{}
	for _, g := range groups {
		for _, r := range g.Rules {
			out = append(out, RuleInfo{
				Group:    g.Name,
				ID:       r.ID,
				Kind:     r.Kind(),
				Severity: r.Severity,
				Optional: r.Optional,
				Target:   r.Check.Target(),
			})
		}
	}
	return out, nil
}

// FixFrontmatter applies the rule set's frontmatter fixes.
func (s *Service) FixFrontmatter(dryRun bool) ([]fixer.Change, error) {
	return fixer.Fix(s.tree, s.set.Fixes, dryRun)
}
