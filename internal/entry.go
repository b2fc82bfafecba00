// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/confcheck/internal/apperr"
	"github.com/starford/confcheck/internal/checker"
	"github.com/starford/confcheck/internal/fixer"
	"github.com/starford/confcheck/internal/mcpserver"
	"github.com/starford/confcheck/internal/models"
	"github.com/starford/confcheck/internal/report"
	"github.com/starford/confcheck/internal/rules"
	"github.com/starford/confcheck/internal/storage"
	"github.com/starford/confcheck/internal/watcher"
)

// setup applies opts, initializes the logger and builds the checker
// service.
func setup(opts []Option) (*application, *checker.Service, *slog.Logger, error) {
	app := &application{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		version: "dev",
		format:  FormatText,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Logs go to stderr; stdout carries reports.
	logger := newLogger(cfg.App, app.stderr)
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("root", cfg.Check.Root),
		slog.String("rules_file", cfg.Check.RulesFile),
		slog.String("report_dir", cfg.Check.ReportDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	set, err := loadRuleSet(cfg.Check.RulesFile)
	if err != nil {
		return nil, nil, nil, err
	}

	svc, err := checker.NewService(set, cfg.Check.Root,
		checker.WithReportDir(cfg.Check.ReportDir),
		checker.WithParallel(cfg.Aggregate.Parallel || app.parallel),
		checker.WithClock(app.now),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init checker: %w", err)
	}

	logger.Debug("Rule set loaded",
		slog.Int("groups", len(set.Groups)),
		slog.Int("rules", len(set.Rules())),
		slog.String("checksum", set.Checksum()))

	return app, svc, logger, nil
}

func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func loadRuleSet(path string) (*rules.Set, error) {
	if path == "" {
		return rules.Default()
	}
	return rules.Load(path)
}

// Check evaluates the rules (one group or all), prints the report and
// persists it. It returns apperr.ErrChecksFailed when the status is FAIL.
func Check(ctx context.Context, opts ...Option) error {
	app, svc, logger, err := setup(opts)
	if err != nil {
		return err
	}

	r, err := svc.Check(ctx, app.group)
	if err != nil {
		return err
	}
	if err := app.printReport(r); err != nil {
		return err
	}

	path, err := svc.PersistReport(r)
	if err != nil {
		return fmt.Errorf("persist report: %w", err)
	}
	logger.Info("Report written", slog.String("path", path), slog.String("status", string(r.Status)))

	if app.markdownOut != "" {
		md := report.RenderMarkdown(r, app.config.Check.MaxListed)
		if err := writeFile(app.markdownOut, []byte(md)); err != nil {
			return fmt.Errorf("write markdown report: %w", err)
		}
		logger.Info("Markdown report written", slog.String("path", app.markdownOut))
	}

	if !r.Passed() {
		return fmt.Errorf("%w: %d error(s)", apperr.ErrChecksFailed, r.Errors)
	}
	return nil
}

func (app *application) printReport(r *models.Report) error {
	maxListed := app.config.Check.MaxListed
	switch app.format {
	case FormatJSON:
		return writeJSON(app.stdout, r)
	case FormatMarkdown:
		_, err := io.WriteString(app.stdout, report.RenderMarkdown(r, maxListed))
		return err
	default:
		_, err := io.WriteString(app.stdout, report.RenderText(r, maxListed))
		return err
	}
}

// Aggregate runs every group, prints the weighted summary and persists the
// aggregate and per-group reports.
func Aggregate(ctx context.Context, opts ...Option) error {
	app, svc, logger, err := setup(opts)
	if err != nil {
		return err
	}

	a, err := svc.Aggregate(ctx)
	if err != nil {
		return err
	}

	switch app.format {
	case FormatJSON:
		err = writeJSON(app.stdout, a)
	case FormatMarkdown:
		_, err = io.WriteString(app.stdout, report.RenderAggregateMarkdown(a))
	default:
		_, err = io.WriteString(app.stdout, report.RenderAggregateText(a))
	}
	if err != nil {
		return err
	}

	written, err := svc.PersistAggregate(a)
	if err != nil {
		return fmt.Errorf("persist aggregate: %w", err)
	}
	logger.Info("Aggregate reports written",
		slog.String("dir", svc.ReportDir()),
		slog.Int("files", len(written)),
		slog.String("grade", a.Grade))

	if a.Status == models.StatusFail {
		return fmt.Errorf("%w: %d group(s) failed", apperr.ErrChecksFailed, a.GroupsFailed)
	}
	return nil
}

// ListRules prints the loaded rules as a table, or as JSON with the json
// format.
func ListRules(_ context.Context, opts ...Option) error {
	app, svc, _, err := setup(opts)
	if err != nil {
		return err
	}

	infos, err := svc.Rules(app.group)
	if err != nil {
		return err
	}
	if app.format == FormatJSON {
		return writeJSON(app.stdout, infos)
	}

	mode := report.Text
	if app.format == FormatMarkdown {
		mode = report.Markdown
	}
	t := report.NewTable(mode)
	t.Header("Group", "ID", "Kind", "Severity", "Target")
	for _, ri := range infos {
		sev := string(ri.Severity)
		if ri.Optional {
			sev += " (optional)"
		}
		t.Row(ri.Group, ri.ID, ri.Kind, sev, ri.Target)
	}
	t.Footer("", "", "", "Total", len(infos))
	_, err = fmt.Fprintln(app.stdout, t.String())
	return err
}

// Watch runs a full check, then re-runs it whenever files under the root
// change, until ctx is cancelled or a shutdown signal arrives.
func Watch(ctx context.Context, opts ...Option) error {
	app, svc, logger, err := setup(opts)
	if err != nil {
		return err
	}

	runOnce := func(ctx context.Context, changed []string) {
		if len(changed) > 0 {
			logger.Info("Change detected", slog.String("paths", strings.Join(changed, ",")))
		}
		r, err := svc.Check(ctx, app.group)
		if err != nil {
			logger.Error("check failed", slog.String("error", err.Error()))
			return
		}
		if err := app.printReport(r); err != nil {
			logger.Error("print report failed", slog.String("error", err.Error()))
		}
		if _, err := svc.PersistReport(r); err != nil {
			logger.Error("persist report failed", slog.String("error", err.Error()))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runOnce(ctx, nil)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Watch(gCtx, svc.Root(), logger, watcher.Options{
			Debounce:   app.config.Watch.Debounce,
			IgnoreDirs: []string{svc.ReportDir()},
		}, runOnce)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Watch error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watch stopped")
	return nil
}

// ServeMCP serves the checker over MCP on stdin/stdout.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, svc, logger, err := setup(opts)
	if err != nil {
		return err
	}

	logger.Info("MCP server starting", slog.String("root", svc.Root()))
	if err := mcpserver.New(svc, app.version).ServeStdio(logger); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// FixFrontmatter applies the rule set's frontmatter fixes and prints what
// changed.
func FixFrontmatter(_ context.Context, opts ...Option) error {
	app, svc, logger, err := setup(opts)
	if err != nil {
		return err
	}

	fixes := svc.RuleSet().Fixes
	if len(fixes) == 0 {
		logger.Warn("No frontmatter fixes configured in the rule set")
		return nil
	}

	changes, err := svc.FixFrontmatter(app.dryRun)
	if err != nil {
		return err
	}
	if app.format == FormatJSON {
		return writeJSON(app.stdout, changes)
	}

	t := report.NewTable(report.Text)
	t.Header("Path", "Action", "Reason")
	var updated int
	for _, c := range changes {
		if c.Action == fixer.ActionUpdated {
			updated++
		}
		t.Row(c.Path, c.Action, c.Reason)
	}
	verb := "Updated"
	if app.dryRun {
		verb = "Would update"
	}
	_, err = fmt.Fprintf(app.stdout, "%s\n%s %d file(s)\n", t.String(), verb, updated)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeFile(path string, data []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(abs, data)
}
