package internal

import (
	"io"
	"time"
)

// Option is a functional option for configuring the application.
type Option func(*application)

// Output formats for check and aggregate.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

type application struct {
	config      *Config
	stdout      io.Writer
	stderr      io.Writer
	version     string
	group       string
	format      string
	markdownOut string
	dryRun      bool
	parallel    bool
	now         func() time.Time
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithOutput sets where reports (stdout) and logs (stderr) are written.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *application) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithGroup restricts a run to one rule group.
func WithGroup(name string) Option {
	return func(a *application) {
		a.group = name
	}
}

// WithFormat selects the console output format.
func WithFormat(format string) Option {
	return func(a *application) {
		a.format = format
	}
}

// WithMarkdownOut also writes the Markdown report to path.
func WithMarkdownOut(path string) Option {
	return func(a *application) {
		a.markdownOut = path
	}
}

// WithDryRun reports changes without writing them.
func WithDryRun(dryRun bool) Option {
	return func(a *application) {
		a.dryRun = dryRun
	}
}

// WithParallel evaluates aggregate groups concurrently regardless of the
// aggregate.parallel setting.
func WithParallel(parallel bool) Option {
	return func(a *application) {
		a.parallel = parallel
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *application) {
		a.now = now
	}
}
