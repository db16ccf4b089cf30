package graph

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jward/amalgam/internal/module"
)

// describeResult is one file's outcome. module is nil when the file itself
// could not be read.
type describeResult struct {
	module *module.Module
	err    error
}

// describeAll describes paths and returns results in the same order. With
// more than one job, files are parsed concurrently; every goroutine writes
// only its own slot, so no locking is needed and the merge that follows
// sees the same order regardless of scheduling.
func (l *loader) describeAll(ctx context.Context, paths []string) []describeResult {
	results := make([]describeResult, len(paths))

	if l.jobs <= 1 || len(paths) == 1 {
		for i, p := range paths {
			m, err := module.Describe(p, l.workDir)
			results[i] = describeResult{module: m, err: err}
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(l.jobs, len(paths)))
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = describeResult{err: err}
				return nil
			}
			m, err := module.Describe(p, l.workDir)
			results[i] = describeResult{module: m, err: err}
			return nil
		})
	}
	// Goroutines report failures through their result slots.
	_ = g.Wait()
	return results
}
