package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("directory", "d", "", "")
	fs.Int("jobs", 0, "")
	fs.String("newline", "lf", "")
	fs.String("log-level", "warn", "")
	fs.String("color", "auto", "")
	fs.String("format", "text", "")
	fs.String("manifest", "", "")
	return fs
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	assert.Equal(t, 0, cfg.Jobs)
	assert.Equal(t, "lf", cfg.Newline)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.Color)
	assert.Equal(t, "text", cfg.Format)
	assert.Empty(t, cfg.Manifest)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, used, err := Load(LoadOptions{SearchDir: t.TempDir()})
	require.NoError(t, err)

	assert.Empty(t, used)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ConfigFileInSearchDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := writeConfig(t, dir, "amalgam.toml", "jobs = 3\nnewline = \"crlf\"\nmanifest = \"builds.db\"\n")

	cfg, used, err := Load(LoadOptions{SearchDir: dir})
	require.NoError(t, err)

	assert.Equal(t, p, used)
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, "crlf", cfg.Newline)
	assert.Equal(t, "builds.db", cfg.Manifest)
	assert.Equal(t, "text", cfg.Format, "unset keys keep their defaults")
}

func TestLoad_ExplicitYAMLFile(t *testing.T) {
	t.Parallel()
	p := writeConfig(t, t.TempDir(), "custom.yaml", "log_level: debug\ncolor: never\n")

	cfg, used, err := Load(LoadOptions{ConfigFilePath: p})
	require.NoError(t, err)

	assert.Equal(t, p, used)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "never", cfg.Color)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()
	_, _, err := Load(LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.toml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeConfig(t, dir, "amalgam.json", "{not json")

	_, _, err := Load(LoadOptions{SearchDir: dir})
	require.Error(t, err)
}

func TestLoad_ChangedFlagsOverrideFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeConfig(t, dir, "amalgam.toml", "jobs = 3\nformat = \"json\"\n")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--jobs", "7"}))

	cfg, _, err := Load(LoadOptions{SearchDir: dir, Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Jobs, "changed flag wins")
	assert.Equal(t, "json", cfg.Format, "unchanged flag does not shadow the file")
}

// Not parallel: t.Setenv.
func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "amalgam.toml", "log_level = \"info\"\n")
	t.Setenv("AMALGAM_LOG_LEVEL", "error")
	t.Setenv("AMALGAM_MANIFEST", "/tmp/m.db")

	cfg, _, err := Load(LoadOptions{SearchDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "/tmp/m.db", cfg.Manifest)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"negative jobs", func(c *Config) { c.Jobs = -1 }, "invalid jobs"},
		{"bad newline", func(c *Config) { c.Newline = "cr" }, "invalid newline"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"bad color", func(c *Config) { c.Color = "sometimes" }, "invalid color"},
		{"bad format", func(c *Config) { c.Format = "xml" }, "invalid format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewlineSequenceAndLevel(t *testing.T) {
	t.Parallel()
	cfg := &Config{Newline: "CRLF", LogLevel: "debug"}

	nl, err := cfg.NewlineSequence()
	require.NoError(t, err)
	assert.Equal(t, "\r\n", nl)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)
}
