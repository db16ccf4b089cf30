package amalgam

// QueryBuilder provides read-only views over a loaded Graph.
type QueryBuilder struct {
	graph   *Graph
	workDir string
}

// NativeModuleUse is one opaque module reference, which is never bundled.
type NativeModuleUse struct {
	Module *Module
	Name   string
	Line   int
}

// Module returns the module at path, or nil when it is not in the graph.
func (q *QueryBuilder) Module(path string) *Module {
	return q.graph.Module(path)
}

// Root returns the root module.
func (q *QueryBuilder) Root() *Module {
	return q.graph.Root()
}

// Dependencies returns the modules that the module at path requires
// directly, in declaration order.
func (q *QueryBuilder) Dependencies(path string) []*Module {
	m := q.graph.Module(path)
	if m == nil {
		return nil
	}
	return m.Requires
}

// Dependents returns the modules that directly require the module at path,
// in discovery order.
func (q *QueryBuilder) Dependents(path string) []*Module {
	target := q.graph.Module(path)
	if target == nil {
		return nil
	}
	var out []*Module
	for _, m := range q.graph.Modules() {
		for _, dep := range m.Requires {
			if dep == target {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Hierarchy returns the build order below the root.
func (q *QueryBuilder) Hierarchy() []*Module {
	return q.graph.Hierarchy()
}

// Namespaces returns every namespace requirement in injection order,
// hierarchy first and the root last, with repeats marked inactive.
func (q *QueryBuilder) Namespaces() []NamespaceUse {
	return namespaceUses(withRoot(q.graph.Hierarchy(), q.graph.Root()))
}

// NativeModules returns every opaque module reference in the same order.
func (q *QueryBuilder) NativeModules() []NativeModuleUse {
	var out []NativeModuleUse
	for _, m := range withRoot(q.graph.Hierarchy(), q.graph.Root()) {
		for _, ref := range m.References {
			if ref.Kind == RefOpaque {
				out = append(out, NativeModuleUse{Module: m, Name: ref.Target, Line: ref.Line})
			}
		}
	}
	return out
}

// Label renders m the way output markers do.
func (q *QueryBuilder) Label(m *Module) string {
	return Label(m, q.workDir)
}

// RelPath returns m's path relative to the working directory in slash form.
func (q *QueryBuilder) RelPath(m *Module) string {
	return displayPath(m.Path, q.workDir)
}
