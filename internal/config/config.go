// Package config loads amalgam settings from defaults, an optional config
// file, AMALGAM_* environment variables and command-line flags, in rising
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "amalgam"
	// ConfigFileName is the config file name without extension. Any
	// extension viper understands is accepted: toml, yaml, yml or json.
	ConfigFileName = "amalgam"
	// EnvPrefix prefixes every environment variable, e.g. AMALGAM_JOBS.
	EnvPrefix = "AMALGAM"
)

// Config holds every setting a command can read.
type Config struct {
	// Directory is the working directory references are resolved against.
	// Empty means the process working directory.
	Directory string `json:"directory" mapstructure:"directory"`
	// Jobs bounds concurrent parsing. 0 means GOMAXPROCS.
	Jobs     int    `json:"jobs" mapstructure:"jobs"`
	Newline  string `json:"newline" mapstructure:"newline"`
	LogLevel string `json:"log_level" mapstructure:"log_level"`
	Color    string `json:"color" mapstructure:"color"`
	Format   string `json:"format" mapstructure:"format"`
	// Manifest is a SQLite path. Empty disables build recording.
	Manifest string `json:"manifest" mapstructure:"manifest"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Jobs:     0,
		Newline:  "lf",
		LogLevel: "warn",
		Color:    "auto",
		Format:   "text",
	}
}

// flagNames maps config keys to the flag names bound to them.
var flagNames = map[string]string{
	"directory": "directory",
	"jobs":      "jobs",
	"newline":   "newline",
	"log_level": "log-level",
	"color":     "color",
	"format":    "format",
	"manifest":  "manifest",
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFilePath names a config file explicitly. It must exist.
	ConfigFilePath string
	// SearchDir is searched for amalgam.{toml,yaml,yml,json} when
	// ConfigFilePath is empty. Defaults to the process working directory.
	SearchDir string
	// Flags, when set, supplies values for flags the user changed.
	Flags *pflag.FlagSet
}

// Load resolves the effective configuration and returns it with the path of
// the config file used, if any.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("directory", defaults.Directory)
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("newline", defaults.Newline)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("color", defaults.Color)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("manifest", defaults.Manifest)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for key, name := range flagNames {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, "", fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if opts.ConfigFilePath != "" {
		if _, err := os.Stat(opts.ConfigFilePath); err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		v.SetConfigFile(opts.ConfigFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", opts.ConfigFilePath, err)
		}
	} else {
		dir := opts.SearchDir
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, "", fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, v.ConfigFileUsed(), nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("invalid jobs %d: must be 0 or positive", c.Jobs)
	}
	if _, err := c.NewlineSequence(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color %q: must be auto, always or never", c.Color)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be json or text", c.Format)
	}
	return nil
}

// NewlineSequence returns the line terminator selected by Newline.
func (c *Config) NewlineSequence() (string, error) {
	switch strings.ToLower(c.Newline) {
	case "lf":
		return "\n", nil
	case "crlf":
		return "\r\n", nil
	default:
		return "", fmt.Errorf("invalid newline %q: must be lf or crlf", c.Newline)
	}
}

// Level parses LogLevel.
func (c *Config) Level() (log.Level, error) {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
