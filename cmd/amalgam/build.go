package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/amalgam"
)

var (
	flagFile   string
	flagOutput string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Amalgamate a script and its imported modules into one file",
	Long:  "Loads the module graph of the input script, orders every module after its dependencies and writes the merged script atomically. Nothing is written when any module fails to resolve.",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&flagFile, "file", "f", "", "the script to read and amalgamate")
	buildCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "the file to write the output to")
	buildCmd.Flags().String("newline", "lf", "output line terminator: lf|crlf")
	buildCmd.Flags().String("manifest", "", "record the build in this SQLite manifest")
	_ = buildCmd.MarkFlagRequired("file")
	_ = buildCmd.MarkFlagRequired("output")
}

func runBuild(cmd *cobra.Command, args []string) error {
	root, err := resolveInputFile(flagFile)
	if err != nil {
		return outputError("build", err)
	}

	var opts []amalgam.Option
	if cfg.Manifest != "" {
		opts = append(opts, amalgam.WithManifest(cfg.Manifest))
	}
	e, err := newEngine(opts...)
	if err != nil {
		return outputError("build", err)
	}

	res, err := e.Build(context.Background(), root, flagOutput)
	if res != nil {
		printIncluded(res, e.Query(res.Graph))
	}
	if err != nil {
		return outputError("build", err)
	}

	fmt.Fprintf(os.Stderr, "Wrote %s (%d modules, %d bytes) in %s\n",
		res.OutputPath, len(res.Modules), res.Bytes, res.Elapsed.Round(time.Millisecond))
	if res.BuildID != 0 {
		fmt.Fprintf(os.Stderr, "Manifest: %s (build %d)\n", cfg.Manifest, res.BuildID)
	}

	if flagFormat == "json" {
		return outputResult(CLIResult{Command: "build", Results: toCLIBuildSummary(res, e.Query(res.Graph))})
	}
	return nil
}

// printIncluded lists the root and every bundled module on stderr.
func printIncluded(res *amalgam.BuildResult, q *amalgam.QueryBuilder) {
	fmt.Fprintln(os.Stderr, "included modules")
	fmt.Fprintln(os.Stderr, res.Root.Name())
	for _, m := range res.Modules {
		fmt.Fprintf(os.Stderr, "  %s\n", q.Label(m))
	}
}
