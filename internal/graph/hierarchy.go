package graph

import "github.com/jward/amalgam/internal/module"

// Flatten returns every module transitively required by root, root excluded,
// each exactly once and after all of its own dependencies. A shared
// dependency lands at the position of the first path that fully expands it.
//
// Nodes are marked visited before their children are walked, so cycles
// terminate: a module that requires itself, directly or through others,
// finds itself already visited. The root is pre-marked and never emitted,
// even when something cycles back to it.
func Flatten(root *module.Module) []*module.Module {
	if root == nil {
		return nil
	}
	visited := map[string]bool{root.Path: true}
	var out []*module.Module

	var visit func(m *module.Module)
	visit = func(m *module.Module) {
		if visited[m.Path] {
			return
		}
		visited[m.Path] = true
		for _, dep := range m.Requires {
			visit(dep)
		}
		out = append(out, m)
	}

	for _, dep := range root.Requires {
		visit(dep)
	}
	return out
}
