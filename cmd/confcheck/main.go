package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/confcheck/internal"
	"github.com/starford/confcheck/internal/apperr"
	pkgconfig "github.com/starford/confcheck/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigPath = "config/config.yaml"

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

// loadConfig reads the config file and applies the global flag overrides.
// The default config path may be absent; an explicitly chosen one may not.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("root") {
		cfg.Check.Root = cmd.String("root")
	}
	if cmd.IsSet("rules") {
		cfg.Check.RulesFile = cmd.String("rules")
	}
	if cmd.IsSet("report-dir") {
		cfg.Check.ReportDir = cmd.String("report-dir")
	}
	return cfg, cfg.Validate()
}

// action adapts an application entry point to a cli action. extra builds
// command-specific options.
func action(run func(context.Context, ...internal.Option) error, extra func(*cli.Command) []internal.Option) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithVersion(version),
		}
		if extra != nil {
			opts = append(opts, extra(cmd)...)
		}
		return run(ctx, opts...)
	}
}

func reportOptions(cmd *cli.Command) []internal.Option {
	return []internal.Option{
		internal.WithGroup(cmd.String("group")),
		internal.WithFormat(cmd.String("format")),
		internal.WithMarkdownOut(cmd.String("markdown-out")),
	}
}

func groupFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "group",
		Aliases: []string{"g"},
		Usage:   "Only use the named rule group",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Console output format: text, markdown or json",
		Value:   internal.FormatText,
		Validator: func(v string) error {
			switch v {
			case internal.FormatText, internal.FormatMarkdown, internal.FormatJSON:
				return nil
			}
			return fmt.Errorf("unknown format %q", v)
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "confcheck",
		Usage:   "Rule-based conformance checker for documentation and configuration trees",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory to check",
				Sources: cli.EnvVars("CONFCHECK_ROOT"),
			},
			&cli.StringFlag{
				Name:    "rules",
				Usage:   "Rule set YAML file (default: built-in rule set)",
				Sources: cli.EnvVars("CONFCHECK_RULES"),
			},
			&cli.StringFlag{
				Name:    "report-dir",
				Usage:   "Directory for JSON reports, relative to the root unless absolute",
				Sources: cli.EnvVars("CONFCHECK_REPORT_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Run the rules, print a summary and write the JSON report",
				Flags: []cli.Flag{
					groupFlag(),
					formatFlag(),
					&cli.StringFlag{
						Name:  "markdown-out",
						Usage: "Also write the report as Markdown to this file",
					},
				},
				Action: action(internal.Check, reportOptions),
			},
			{
				Name:  "aggregate",
				Usage: "Run every group, combine them by weight and write the aggregate reports",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.BoolFlag{
						Name:  "parallel",
						Usage: "Evaluate groups concurrently",
					},
				},
				Action: action(internal.Aggregate, func(cmd *cli.Command) []internal.Option {
					return []internal.Option{
						internal.WithFormat(cmd.String("format")),
						internal.WithParallel(cmd.Bool("parallel")),
					}
				}),
			},
			{
				Name:  "rules",
				Usage: "List the loaded rules",
				Flags: []cli.Flag{groupFlag(), formatFlag()},
				Action: action(internal.ListRules, func(cmd *cli.Command) []internal.Option {
					return []internal.Option{
						internal.WithGroup(cmd.String("group")),
						internal.WithFormat(cmd.String("format")),
					}
				}),
			},
			{
				Name:  "watch",
				Usage: "Check, then re-check whenever files change",
				Flags: []cli.Flag{groupFlag(), formatFlag()},
				Action: action(internal.Watch, func(cmd *cli.Command) []internal.Option {
					return []internal.Option{
						internal.WithGroup(cmd.String("group")),
						internal.WithFormat(cmd.String("format")),
					}
				}),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the checker over MCP on stdin/stdout",
				Action: action(internal.ServeMCP, nil),
			},
			{
				Name:  "fix-frontmatter",
				Usage: "Standardise frontmatter using the rule set's frontmatter_fixes",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report changes without writing them",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: text or json",
						Value: internal.FormatText,
					},
				},
				Action: action(internal.FixFrontmatter, func(cmd *cli.Command) []internal.Option {
					return []internal.Option{
						internal.WithDryRun(cmd.Bool("dry-run")),
						internal.WithFormat(cmd.String("format")),
					}
				}),
			},
		},
	}

	os.Exit(exitCode(cmd.Run(context.Background(), os.Args)))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, apperr.ErrChecksFailed):
		slog.Info("checks failed", slog.String("reason", err.Error()))
		return exitFailed
	default:
		slog.Error("application error", slog.String("error", err.Error()))
		return exitError
	}
}
