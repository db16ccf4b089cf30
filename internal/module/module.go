// Package module parses the directive header of a single script file and
// describes what it requires: sibling files, namespaces and opaque modules.
package module

import (
	"path/filepath"
	"strings"
)

// RefKind distinguishes file references from opaque module names.
type RefKind int

const (
	RefFile RefKind = iota
	RefOpaque
)

func (k RefKind) String() string {
	if k == RefOpaque {
		return "opaque"
	}
	return "file"
}

// Reference is one "using module" directive.
type Reference struct {
	Raw    string  // argument as written
	Line   int     // 1-based line number
	Kind   RefKind // file or opaque
	Target string  // canonical path for file references, Raw for opaque ones

	// Missing is set when a file reference did not resolve to an existing
	// file. The graph loader registers a stub for Target.
	Missing bool
}

// Module is one source file's header metadata plus its resolved dependencies.
// Path is the identity: two Modules are the same module iff their Paths match.
type Module struct {
	Path       string
	References []Reference
	Namespaces []string

	// Requires holds the live dependency nodes. It is only authoritative
	// after the graph's linking pass.
	Requires []*Module

	// Stub marks a placeholder standing in for a dependency that failed to
	// resolve.
	Stub bool
}

// New returns an empty Module for the canonical path p.
func New(p string) *Module {
	return &Module{Path: p}
}

// NewStub returns a placeholder Module for a dependency that could not be
// loaded.
func NewStub(p string) *Module {
	return &Module{Path: p, Stub: true}
}

// Name is the file stem, used for display.
func (m *Module) Name() string {
	base := filepath.Base(m.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Dir is the directory containing the module file.
func (m *Module) Dir() string {
	return filepath.Dir(m.Path)
}

// FileReferences returns the canonical targets of file references in
// declaration order, including missing ones.
func (m *Module) FileReferences() []string {
	var out []string
	for _, r := range m.References {
		if r.Kind == RefFile {
			out = append(out, r.Target)
		}
	}
	return out
}

// NativeModules returns opaque module names in declaration order.
func (m *Module) NativeModules() []string {
	var out []string
	for _, r := range m.References {
		if r.Kind == RefOpaque {
			out = append(out, r.Target)
		}
	}
	return out
}
