package amalgam

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jward/amalgam/internal/graph"
	"github.com/jward/amalgam/internal/module"
)

// Engine orchestrates the amalgam pipeline: graph loading, flattening,
// output assembly and the optional build manifest.
type Engine struct {
	workDir  string
	jobs     int
	newline  string
	logger   *log.Logger
	manifest string // SQLite path; empty disables recording
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkingDir sets the directory that relative references are finally
// resolved against and that labels are shown relative to. Defaults to the
// process working directory.
func WithWorkingDir(dir string) Option {
	return func(e *Engine) {
		e.workDir = dir
	}
}

// WithJobs bounds how many files are parsed concurrently while loading.
// 1 loads serially. Defaults to GOMAXPROCS.
func WithJobs(n int) Option {
	return func(e *Engine) {
		e.jobs = n
	}
}

// WithLogger sets the logger for debug, info and warning output. By default
// the Engine is silent.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNewline sets the line terminator of the output, LF or CRLF.
func WithNewline(nl string) Option {
	return func(e *Engine) {
		e.newline = nl
	}
}

// WithManifest records every successful Build in the SQLite database at
// dbPath.
func WithManifest(dbPath string) Option {
	return func(e *Engine) {
		e.manifest = dbPath
	}
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		jobs:    runtime.GOMAXPROCS(0),
		newline: LF,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.newline != LF && e.newline != CRLF {
		return nil, fmt.Errorf("amalgam: unsupported newline %q", e.newline)
	}
	if e.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("amalgam: working directory: %w", err)
		}
		e.workDir = wd
	}
	wd, err := module.Canonical(e.workDir)
	if err != nil {
		return nil, fmt.Errorf("amalgam: working directory: %w", err)
	}
	e.workDir = wd
	return e, nil
}

// WorkingDir returns the canonical working directory.
func (e *Engine) WorkingDir() string {
	return e.workDir
}

// Load builds the module graph reachable from rootPath. When any reference
// fails to resolve, Load returns a nil graph and an *AggregateError holding
// every failure found.
func (e *Engine) Load(ctx context.Context, rootPath string) (*Graph, error) {
	start := time.Now()
	g, err := graph.Load(ctx, rootPath, e.workDir,
		graph.WithJobs(e.jobs),
		graph.WithLogger(e.logger),
	)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("loaded module graph", "root", g.RootPath(), "modules", g.Len(), "elapsed", time.Since(start))
	return g, nil
}

// LoadPartial is Load without discarding the graph on failure: missing and
// unreadable files appear as stubs. The graph must not be used for output
// when err is non-nil.
func (e *Engine) LoadPartial(ctx context.Context, rootPath string) (*Graph, error) {
	return graph.Load(ctx, rootPath, e.workDir,
		graph.WithJobs(e.jobs),
		graph.WithLogger(e.logger),
	)
}

// Hierarchy returns the dependency-first build order below g's root.
func (e *Engine) Hierarchy(g *Graph) []*Module {
	return g.Hierarchy()
}

// Amalgamate writes the merged artifact for g to w.
func (e *Engine) Amalgamate(w io.Writer, g *Graph) error {
	return Amalgamate(w, g.Root(), g.Hierarchy(), e.amalgamateOptions())
}

func (e *Engine) amalgamateOptions() AmalgamateOptions {
	return AmalgamateOptions{
		WorkingDir: e.workDir,
		Newline:    e.newline,
		Logger:     e.logger,
	}
}

// BuildResult describes a finished build.
type BuildResult struct {
	Graph      *Graph
	Root       *Module
	Modules    []*Module // build order, root excluded
	OutputPath string
	OutputHash string // hex SHA-256 of the output
	Bytes      int64
	BuildID    int64 // manifest row; 0 without a manifest
	Elapsed    time.Duration
}

// Build loads rootPath, flattens it and writes the merged artifact to
// outputPath. The output is written to a temporary file beside outputPath
// and renamed into place only once complete, so on any failure outputPath
// is left as it was.
//
// When a manifest is configured the build is recorded after the rename. A
// manifest failure is returned together with the result, since the output
// itself was written.
func (e *Engine) Build(ctx context.Context, rootPath, outputPath string) (*BuildResult, error) {
	start := time.Now()

	g, err := e.Load(ctx, rootPath)
	if err != nil {
		return nil, err
	}
	hierarchy := g.Hierarchy()

	out, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, &module.IOError{Op: "write output", Path: outputPath, Err: err}
	}

	opts := e.amalgamateOptions()
	hash, size, err := writeAtomic(out, func(w io.Writer) error {
		return Amalgamate(w, g.Root(), hierarchy, opts)
	})
	if err != nil {
		return nil, err
	}

	res := &BuildResult{
		Graph:      g,
		Root:       g.Root(),
		Modules:    hierarchy,
		OutputPath: out,
		OutputHash: hash,
		Bytes:      size,
	}

	if e.manifest != "" {
		id, err := e.recordBuild(res)
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("amalgam: record manifest: %w", err)
		}
		res.BuildID = id
	}

	res.Elapsed = time.Since(start)
	e.logger.Info("build complete",
		"output", out,
		"modules", len(hierarchy),
		"bytes", size,
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

// Query returns a read-only view over g.
func (e *Engine) Query(g *Graph) *QueryBuilder {
	return &QueryBuilder{graph: g, workDir: e.workDir}
}
