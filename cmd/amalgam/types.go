package main

import "time"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string   `json:"command"`
	Results any      `json:"results"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// CLIModule is a JSON-friendly module representation.
type CLIModule struct {
	Position   int      `json:"position"`
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Requires   []string `json:"requires,omitempty"`
	Namespaces []string `json:"namespaces,omitempty"`
	Root       bool     `json:"root,omitempty"`
}

// CLINamespace is one namespace requirement in injection order.
type CLINamespace struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// CLINativeModule is one opaque module reference that is not bundled.
type CLINativeModule struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Line   int    `json:"line"`
}

// CLIList is the result of the list command.
type CLIList struct {
	Root          CLIModule         `json:"root"`
	Modules       []CLIModule       `json:"modules"`
	Namespaces    []CLINamespace    `json:"namespaces"`
	NativeModules []CLINativeModule `json:"native_modules"`
}

// CLIBuildSummary is the result of the build command.
type CLIBuildSummary struct {
	Output     string   `json:"output"`
	OutputHash string   `json:"output_hash"`
	Bytes      int64    `json:"bytes"`
	Modules    []string `json:"modules"`
	BuildID    int64    `json:"build_id,omitempty"`
	ElapsedMS  int64    `json:"elapsed_ms"`
}

// CLIManifestBuild is a recorded build with its modules.
type CLIManifestBuild struct {
	ID          int64               `json:"id"`
	RootPath    string              `json:"root_path"`
	OutputPath  string              `json:"output_path"`
	WorkingDir  string              `json:"working_dir"`
	OutputHash  string              `json:"output_hash"`
	ModuleCount int                 `json:"module_count"`
	BuiltAt     time.Time           `json:"built_at"`
	Modules     []CLIManifestModule `json:"modules"`
}

// CLIManifestModule is one module of a recorded build.
type CLIManifestModule struct {
	Position      int            `json:"position"`
	Name          string         `json:"name"`
	Path          string         `json:"path"`
	ContentHash   string         `json:"content_hash"`
	Root          bool           `json:"root,omitempty"`
	Requires      []string       `json:"requires,omitempty"`
	Namespaces    []CLINamespace `json:"namespaces,omitempty"`
	NativeModules []string       `json:"native_modules,omitempty"`
}
