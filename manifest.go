package amalgam

import (
	"fmt"
	"time"

	"github.com/jward/amalgam/internal/store"
)

// OpenManifest opens, and creates if needed, the build manifest at dbPath.
func OpenManifest(dbPath string) (*Store, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("amalgam: open manifest: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("amalgam: migrate manifest: %w", err)
	}
	return s, nil
}

// recordBuild stores res in the configured manifest and returns the build
// ID. Modules are recorded in output order with the root last.
func (e *Engine) recordBuild(res *BuildResult) (int64, error) {
	s, err := OpenManifest(e.manifest)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	b, err := manifestBuild(res, e.workDir)
	if err != nil {
		return 0, err
	}
	id, err := s.RecordBuild(b)
	if err != nil {
		return 0, err
	}
	e.logger.Debug("recorded build", "manifest", e.manifest, "build", id)
	return id, nil
}

func manifestBuild(res *BuildResult, workDir string) (*store.Build, error) {
	all := withRoot(res.Modules, res.Root)

	nss := make(map[*Module][]*store.Namespace)
	for _, use := range namespaceUses(all) {
		nss[use.Module] = append(nss[use.Module], &store.Namespace{
			Name:    use.Name,
			Ordinal: len(nss[use.Module]),
			Active:  use.Active,
		})
	}

	b := &store.Build{
		RootPath:    res.Root.Path,
		OutputPath:  res.OutputPath,
		WorkingDir:  workDir,
		OutputHash:  res.OutputHash,
		ModuleCount: len(res.Modules),
		BuiltAt:     time.Now().UTC(),
	}
	for i, m := range all {
		hash, err := store.FileHash(m.Path)
		if err != nil {
			return nil, err
		}
		requires := make([]string, 0, len(m.Requires))
		for _, dep := range m.Requires {
			requires = append(requires, dep.Path)
		}
		b.Modules = append(b.Modules, &store.Module{
			Path:          m.Path,
			Name:          m.Name(),
			Position:      i,
			ContentHash:   hash,
			IsRoot:        m == res.Root,
			Requires:      requires,
			Namespaces:    nss[m],
			NativeModules: m.NativeModules(),
		})
	}
	return b, nil
}
