package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jward/amalgam"
)

// formatListText formats a CLIList as the build order followed by the
// namespace and opaque-module tables.
func formatListText(w io.Writer, list CLIList) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tNAME\tPATH\tREQUIRES")
	for _, m := range list.Modules {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Position, m.Name, m.Path, strings.Join(m.Requires, ", "))
	}
	fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", list.Root.Position, list.Root.Name+" (root)", list.Root.Path, strings.Join(list.Root.Requires, ", "))
	tw.Flush()

	if len(list.Namespaces) > 0 {
		fmt.Fprintln(w)
		formatNamespacesText(w, list.Namespaces)
	}

	if len(list.NativeModules) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Not bundled:")
		for _, nm := range list.NativeModules {
			fmt.Fprintf(w, "  %s (%s:%d)\n", nm.Name, nm.Module, nm.Line)
		}
	}
}

// formatNamespacesText formats CLINamespace results as aligned columns.
func formatNamespacesText(w io.Writer, nss []CLINamespace) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAMESPACE\tMODULE\tINJECTED")
	for _, ns := range nss {
		injected := "yes"
		if !ns.Active {
			injected = "duplicate"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ns.Name, ns.Module, injected)
	}
	tw.Flush()
}

// formatBuildSummaryText formats a CLIBuildSummary as readable text.
func formatBuildSummaryText(w io.Writer, s CLIBuildSummary) {
	fmt.Fprintf(w, "Output: %s\n", s.Output)
	fmt.Fprintf(w, "SHA-256: %s\n", s.OutputHash)
	fmt.Fprintf(w, "Bytes: %d\n", s.Bytes)
	if s.BuildID != 0 {
		fmt.Fprintf(w, "Build: %d\n", s.BuildID)
	}
	if len(s.Modules) > 0 {
		fmt.Fprintln(w, "Modules:")
		for _, m := range s.Modules {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
}

// formatManifestText formats a CLIManifestBuild as readable text.
func formatManifestText(w io.Writer, b CLIManifestBuild) {
	fmt.Fprintf(w, "Build %d\n", b.ID)
	fmt.Fprintln(w, "========")
	fmt.Fprintf(w, "Root: %s\n", b.RootPath)
	fmt.Fprintf(w, "Output: %s\n", b.OutputPath)
	fmt.Fprintf(w, "Working dir: %s\n", b.WorkingDir)
	fmt.Fprintf(w, "SHA-256: %s\n", b.OutputHash)
	fmt.Fprintf(w, "Built: %s\n", b.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Modules: %d\n", b.ModuleCount)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tNAME\tPATH\tHASH")
	for _, m := range b.Modules {
		name := m.Name
		if m.Root {
			name += " (root)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Position, name, m.Path, shortHash(m.ContentHash))
	}
	tw.Flush()

	var nss []CLINamespace
	var natives []string
	for _, m := range b.Modules {
		nss = append(nss, m.Namespaces...)
		for _, nm := range m.NativeModules {
			natives = append(natives, fmt.Sprintf("%s (%s)", nm, m.Name))
		}
	}
	if len(nss) > 0 {
		fmt.Fprintln(w)
		formatNamespacesText(w, nss)
	}
	if len(natives) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Not bundled:")
		for _, nm := range natives {
			fmt.Fprintf(w, "  %s\n", nm)
		}
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case CLIList:
		formatListText(w, v)
	case CLIBuildSummary:
		formatBuildSummaryText(w, v)
	case CLIManifestBuild:
		formatManifestText(w, v)
	case []CLINamespace:
		formatNamespacesText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputResult writes result to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. An aggregate is written one failure per line.
// In JSON mode the error is written to stdout as a CLIResult envelope. In
// text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	errs := amalgam.Errors(err)
	if flagFormat == "text" {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "Error: %s\n", e)
		}
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	if len(errs) > 1 {
		for _, e := range errs {
			result.Errors = append(result.Errors, e.Error())
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
