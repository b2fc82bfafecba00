package internal

import (
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Check     CheckConfig       `yaml:"check"`
	Aggregate AggregateConfig   `yaml:"aggregate"`
	Watch     WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Check.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	// Normalise empty format to JSON.
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	)
}

// CheckConfig says what to check and where reports go.
//
// An empty RulesFile selects the built-in rule set. A relative ReportDir is
// resolved against Root.
type CheckConfig struct {
	Root      string `yaml:"root"`
	RulesFile string `yaml:"rules_file"`
	ReportDir string `yaml:"report_dir"`
	MaxListed int    `yaml:"max_listed"`
}

// Validate validates the check configuration.
func (c *CheckConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.ReportDir, validation.Required),
		validation.Field(&c.MaxListed, validation.Min(0)),
	)
}

// AggregateConfig tunes the weighted multi-group run.
type AggregateConfig struct {
	Parallel bool `yaml:"parallel"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(10*time.Millisecond)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
		},
		Check: CheckConfig{
			Root:      ".",
			ReportDir: "reports",
			MaxListed: 10,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}
