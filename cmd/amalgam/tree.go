package main

import (
	"context"
	"io"
	"os"

	"github.com/ddddddO/gtree"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jward/amalgam"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the module graph of a script as a tree",
	Long:  "Prints every module the input script imports, directly and transitively. Modules already shown are marked instead of repeated, cycles are marked, and missing files are shown in place.",
	Args:  cobra.NoArgs,
	RunE:  runTree,
}

func init() {
	treeCmd.Flags().StringVarP(&flagFile, "file", "f", "", "the script to inspect")
	_ = treeCmd.MarkFlagRequired("file")
}

func runTree(cmd *cobra.Command, args []string) error {
	root, err := resolveInputFile(flagFile)
	if err != nil {
		return outputError("tree", err)
	}
	e, err := newEngine()
	if err != nil {
		return outputError("tree", err)
	}

	// A partial graph still renders; missing files show as stubs.
	g, loadErr := e.LoadPartial(context.Background(), root)
	if g != nil {
		if err := renderTree(os.Stdout, e.Query(g), newPalette(cfg.Color)); err != nil {
			return outputError("tree", err)
		}
	}
	if loadErr != nil {
		return outputError("tree", loadErr)
	}
	return nil
}

// palette colors tree labels by module state.
type palette struct {
	root    *color.Color
	module  *color.Color
	repeat  *color.Color
	cycle   *color.Color
	opaque  *color.Color
	missing *color.Color
}

// newPalette builds the palette for a --color mode. "auto" leaves the
// decision to fatih/color, which honors NO_COLOR and non-terminal output.
func newPalette(mode string) palette {
	p := palette{
		root:    color.New(color.Bold),
		module:  color.New(color.FgCyan),
		repeat:  color.New(color.Faint),
		cycle:   color.New(color.FgMagenta),
		opaque:  color.New(color.FgYellow),
		missing: color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.root, p.module, p.repeat, p.cycle, p.opaque, p.missing} {
		switch mode {
		case "always":
			c.EnableColor()
		case "never":
			c.DisableColor()
		}
	}
	return p
}

// renderTree writes the module graph below the root. Each module is
// expanded once; later occurrences are marked "(see above)", and an edge
// back to a module on the current path is marked "(cycle)".
func renderTree(w io.Writer, q *amalgam.QueryBuilder, p palette) error {
	root := q.Root()
	top := gtree.NewRoot(p.root.Sprint(q.Label(root)))

	expanded := map[*amalgam.Module]bool{root: true}
	onPath := map[*amalgam.Module]bool{root: true}

	var walk func(node *gtree.Node, m *amalgam.Module)
	walk = func(node *gtree.Node, m *amalgam.Module) {
		for _, dep := range m.Requires {
			label := q.Label(dep)
			switch {
			case dep.Stub:
				node.Add(p.missing.Sprint(label + " (missing)"))
			case onPath[dep]:
				node.Add(p.cycle.Sprint(label + " (cycle)"))
			case expanded[dep]:
				node.Add(p.repeat.Sprint(label + " (see above)"))
			default:
				expanded[dep] = true
				onPath[dep] = true
				walk(node.Add(p.module.Sprint(label)), dep)
				delete(onPath, dep)
			}
		}
		for _, name := range m.NativeModules() {
			node.Add(p.opaque.Sprint(name + " (opaque)"))
		}
	}
	walk(top, root)

	return gtree.OutputFromRoot(w, top)
}
