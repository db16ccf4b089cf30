package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/jward/amalgam/internal/module"
)

// Option configures Load.
type Option func(*loader)

// WithJobs bounds how many files of one frontier round are parsed at once.
// Values below 1 mean serial parsing.
func WithJobs(n int) Option {
	return func(l *loader) {
		l.jobs = n
	}
}

// WithLogger sets the logger used for per-round and per-module debug output.
func WithLogger(logger *log.Logger) Option {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

type loader struct {
	workDir string
	jobs    int
	logger  *log.Logger
}

// Load builds the graph of every module reachable from root.
//
// Loading expands a frontier of undiscovered paths one round at a time: each
// path not yet in the graph is described once, registered under its
// canonical path, and its unseen file references form the next round. Work is
// bounded by the number of distinct files, whatever the shape of the graph.
// Once the frontier is empty a linking pass connects every module to its
// registered dependencies.
//
// Failures do not stop loading. A reference to a missing file registers a
// stub in its place; an unreadable file is registered as a stub too. When
// any failure was collected, Load returns the partial graph together with one
// *module.AggregateError holding every failure, and callers must not use the
// graph for output.
func Load(ctx context.Context, root, workDir string, opts ...Option) (*Graph, error) {
	l := &loader{
		jobs:   runtime.GOMAXPROCS(0),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}

	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("load module graph: working directory: %w", err)
		}
		workDir = wd
	}
	wd, err := module.Canonical(workDir)
	if err != nil {
		return nil, fmt.Errorf("load module graph: %w", err)
	}
	l.workDir = wd

	rootPath, err := module.Canonical(root)
	if err != nil {
		return nil, fmt.Errorf("load module graph: %w", err)
	}

	g := newGraph(rootPath)
	var errs []error
	frontier := []string{rootPath}
	for round := 1; len(frontier) > 0; round++ {
		// Phase A: drop paths registered since they were queued.
		pending := frontier[:0:0]
		for _, p := range frontier {
			if !g.has(p) {
				pending = append(pending, p)
			}
		}
		if len(pending) == 0 {
			break
		}
		l.logger.Debug("expanding frontier", "round", round, "files", len(pending))

		// Phase B: describe every pending file, possibly in parallel.
		results := l.describeAll(ctx, pending)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load module graph: %w", err)
		}

		// Phase C: merge serially; the map has a single writer.
		frontier, errs = l.merge(g, pending, results, errs)
	}

	g.link()
	l.logger.Debug("linked module graph", "modules", g.Len(), "errors", len(errs))

	if err := module.Join(errs...); err != nil {
		return g, err
	}
	return g, nil
}

// merge registers one round's results and returns the next frontier along
// with the accumulated failures.
func (l *loader) merge(g *Graph, paths []string, results []describeResult, errs []error) ([]string, []error) {
	var next []string
	queued := make(map[string]bool)

	for i, res := range results {
		if res.module == nil {
			g.register(module.NewStub(paths[i]))
			errs = append(errs, res.err)
			continue
		}

		m := res.module
		g.register(m)
		l.logger.Debug("described module",
			"module", m.Name(),
			"path", m.Path,
			"references", len(m.References),
			"namespaces", len(m.Namespaces),
		)

		for _, err := range module.Errors(res.err) {
			var nf *module.NotFoundError
			if errors.As(err, &nf) {
				nf.Module = m
			}
			errs = append(errs, err)
		}

		for _, ref := range m.References {
			if ref.Kind != module.RefFile || g.has(ref.Target) || queued[ref.Target] {
				continue
			}
			if ref.Missing {
				g.register(module.NewStub(ref.Target))
				continue
			}
			queued[ref.Target] = true
			next = append(next, ref.Target)
		}
	}
	return next, errs
}
