package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jward/amalgam"
	"github.com/jward/amalgam/internal/config"
)

var (
	flagConfig string
	flagFormat string
)

// cfg is the effective configuration, loaded before any subcommand runs.
var cfg *config.Config

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "amalgam",
	Short:         "Merge a script and its imported modules into one file",
	Long:          "Amalgam follows the \"using module ./path\" imports of a script, orders every imported file after its own dependencies, and writes a single self-contained script.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		loaded, _, err := config.Load(config.LoadOptions{
			ConfigFilePath: flagConfig,
			Flags:          cmd.Flags(),
		})
		if err != nil {
			return err
		}
		cfg = loaded
		flagFormat = cfg.Format
		return nil
	},
	// No Run; prints help by default.
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: amalgam.{toml,yaml,json} in the current directory)")
	pf.StringVar(&flagFormat, "format", "text", "output format: json|text")
	pf.StringP("directory", "d", "", "working directory references are resolved against (default: current directory)")
	pf.Int("jobs", 0, "files parsed concurrently (default: number of CPUs)")
	pf.String("log-level", "warn", "log level: debug|info|warn|error")
	pf.String("color", "auto", "colorize output: auto|always|never")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(manifestCmd)
}

// newLogger returns the stderr logger configured by --log-level.
func newLogger() *log.Logger {
	lvl, err := cfg.Level()
	if err != nil {
		lvl = log.WarnLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "amalgam",
		Level:  lvl,
	})
}

// newEngine creates an Engine from the effective configuration.
func newEngine(opts ...amalgam.Option) (*amalgam.Engine, error) {
	dir, err := resolveWorkingDir(cfg.Directory)
	if err != nil {
		return nil, err
	}
	nl, err := cfg.NewlineSequence()
	if err != nil {
		return nil, err
	}
	base := []amalgam.Option{
		amalgam.WithWorkingDir(dir),
		amalgam.WithNewline(nl),
		amalgam.WithLogger(newLogger()),
	}
	if cfg.Jobs > 0 {
		base = append(base, amalgam.WithJobs(cfg.Jobs))
	}
	e, err := amalgam.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// resolveWorkingDir returns the absolute working directory, which must exist.
func resolveWorkingDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// resolveInputFile returns the absolute path of the root script, which must
// be an existing regular file.
func resolveInputFile(file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("no input file specified")
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", file, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("input file not found: %s", abs)
	}
	if info.IsDir() {
		return "", fmt.Errorf("input is a directory: %s", abs)
	}
	return abs, nil
}

// loadGraph loads the graph for the root script named by file.
func loadGraph(ctx context.Context, e *amalgam.Engine, file string) (*amalgam.Graph, error) {
	root, err := resolveInputFile(file)
	if err != nil {
		return nil, err
	}
	return e.Load(ctx, root)
}
