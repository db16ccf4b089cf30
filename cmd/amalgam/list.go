package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jward/amalgam"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the modules of a script in build order",
	Long:  "Prints the modules the input script imports in the order they are bundled, followed by the namespaces that will be injected and the opaque modules that are left out.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&flagFile, "file", "f", "", "the script to inspect")
	_ = listCmd.MarkFlagRequired("file")
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return outputError("list", err)
	}
	g, err := loadGraph(context.Background(), e, flagFile)
	if err != nil {
		return outputError("list", err)
	}
	return outputResult(CLIResult{Command: "list", Results: toCLIList(e.Query(g))})
}

func toCLIModule(q *amalgam.QueryBuilder, m *amalgam.Module, pos int) CLIModule {
	out := CLIModule{
		Position:   pos,
		Name:       m.Name(),
		Path:       q.RelPath(m),
		Namespaces: m.Namespaces,
		Root:       m == q.Root(),
	}
	for _, dep := range m.Requires {
		out.Requires = append(out.Requires, q.RelPath(dep))
	}
	return out
}

func toCLIList(q *amalgam.QueryBuilder) CLIList {
	hierarchy := q.Hierarchy()
	list := CLIList{
		Root:          toCLIModule(q, q.Root(), len(hierarchy)),
		Modules:       make([]CLIModule, 0, len(hierarchy)),
		Namespaces:    []CLINamespace{},
		NativeModules: []CLINativeModule{},
	}
	for i, m := range hierarchy {
		list.Modules = append(list.Modules, toCLIModule(q, m, i))
	}
	for _, use := range q.Namespaces() {
		list.Namespaces = append(list.Namespaces, CLINamespace{
			Module: use.Module.Name(),
			Name:   use.Name,
			Active: use.Active,
		})
	}
	for _, use := range q.NativeModules() {
		list.NativeModules = append(list.NativeModules, CLINativeModule{
			Module: use.Module.Name(),
			Name:   use.Name,
			Line:   use.Line,
		})
	}
	return list
}

func toCLIBuildSummary(res *amalgam.BuildResult, q *amalgam.QueryBuilder) CLIBuildSummary {
	out := CLIBuildSummary{
		Output:     res.OutputPath,
		OutputHash: res.OutputHash,
		Bytes:      res.Bytes,
		Modules:    make([]string, 0, len(res.Modules)),
		BuildID:    res.BuildID,
		ElapsedMS:  res.Elapsed.Milliseconds(),
	}
	for _, m := range res.Modules {
		out.Modules = append(out.Modules, q.RelPath(m))
	}
	return out
}
