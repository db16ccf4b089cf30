package store

import "time"

// Build is one finished amalgamation.
type Build struct {
	ID          int64
	RootPath    string
	OutputPath  string
	WorkingDir  string
	OutputHash  string
	ModuleCount int
	BuiltAt     time.Time

	// Modules is written by RecordBuild. Read paths leave it nil; use
	// ModulesByBuild.
	Modules []*Module
}

// Module is one file that went into a build. Position is its index in the
// output: dependencies in build order, the root last.
type Module struct {
	ID          int64
	BuildID     int64
	Path        string
	Name        string
	Position    int
	ContentHash string
	IsRoot      bool

	// Written by RecordBuild only.
	Requires      []string
	Namespaces    []*Namespace
	NativeModules []string
}

// Namespace is one namespace requirement. Active is false when an earlier
// module already injected the same name.
type Namespace struct {
	ModuleID int64
	Name     string
	Ordinal  int
	Active   bool
}

type NativeModule struct {
	ModuleID int64
	Name     string
	Ordinal  int
}
