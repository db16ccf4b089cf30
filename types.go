package amalgam

import (
	"github.com/jward/amalgam/internal/graph"
	"github.com/jward/amalgam/internal/module"
	"github.com/jward/amalgam/internal/store"
)

// Public type aliases for internal types used in the Engine and QueryBuilder
// API. These are Go type aliases (=), identical to the internal types at
// compile time.

type Module = module.Module
type Reference = module.Reference
type RefKind = module.RefKind
type Graph = graph.Graph

const (
	RefFile   = module.RefFile
	RefOpaque = module.RefOpaque
)

type NotFoundError = module.NotFoundError
type IOError = module.IOError
type AggregateError = module.AggregateError

type Store = store.Store
type ManifestBuild = store.Build
type ManifestModule = store.Module
type ManifestNamespace = store.Namespace
type ManifestNativeModule = store.NativeModule

// Errors returns the individual failures carried by err. An aggregate yields
// its items; any other error yields itself.
func Errors(err error) []error {
	return module.Errors(err)
}
