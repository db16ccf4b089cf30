// Package graph builds the reachable module graph of a root script and
// flattens it into a dependency-first build order.
package graph

import (
	"github.com/jward/amalgam/internal/module"
)

// Graph is the single authoritative map from canonical path to Module. Every
// reference to a module, including cyclic ones, points at the node held here.
type Graph struct {
	root    string
	modules map[string]*module.Module
	order   []string // discovery order
}

func newGraph(root string) *Graph {
	return &Graph{
		root:    root,
		modules: make(map[string]*module.Module),
	}
}

// Root returns the root module.
func (g *Graph) Root() *module.Module {
	return g.modules[g.root]
}

// RootPath returns the canonical path of the root module.
func (g *Graph) RootPath() string {
	return g.root
}

// Module returns the module registered under path, canonicalizing it first.
// It returns nil when no such module exists.
func (g *Graph) Module(path string) *module.Module {
	if m, ok := g.modules[path]; ok {
		return m
	}
	canonical, err := module.Canonical(path)
	if err != nil {
		return nil
	}
	return g.modules[canonical]
}

// Modules returns every module, stubs included, in discovery order.
func (g *Graph) Modules() []*module.Module {
	out := make([]*module.Module, 0, len(g.order))
	for _, p := range g.order {
		out = append(out, g.modules[p])
	}
	return out
}

// Len returns the number of registered modules.
func (g *Graph) Len() int {
	return len(g.modules)
}

// Hierarchy returns the flattened build order below the root.
func (g *Graph) Hierarchy() []*module.Module {
	return Flatten(g.Root())
}

func (g *Graph) has(path string) bool {
	_, ok := g.modules[path]
	return ok
}

// register inserts m unless its path is already taken. It reports whether m
// was inserted.
func (g *Graph) register(m *module.Module) bool {
	if g.has(m.Path) {
		return false
	}
	g.modules[m.Path] = m
	g.order = append(g.order, m.Path)
	return true
}

// link replaces every module's symbolic file references with the registered
// nodes. A file referenced twice by the same module yields one edge.
func (g *Graph) link() {
	for _, p := range g.order {
		m := g.modules[p]
		m.Requires = m.Requires[:0]
		seen := make(map[string]bool, len(m.References))
		for _, target := range m.FileReferences() {
			if seen[target] {
				continue
			}
			seen[target] = true
			if dep, ok := g.modules[target]; ok {
				m.Requires = append(m.Requires, dep)
			}
		}
	}
}
