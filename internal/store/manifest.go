package store

import (
	"database/sql"
	"fmt"
)

// RecordBuild inserts b with all of its modules and their requirements in a
// single transaction. IDs are written back into b and its modules.
func (s *Store) RecordBuild(b *Build) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("record build: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO builds (root_path, output_path, working_dir, output_hash, module_count, built_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.RootPath, b.OutputPath, b.WorkingDir, b.OutputHash, b.ModuleCount, b.BuiltAt,
	)
	if err != nil {
		return 0, fmt.Errorf("record build: insert build: %w", err)
	}
	buildID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record build: build id: %w", err)
	}

	for _, m := range b.Modules {
		m.BuildID = buildID
		id, err := insertModuleTx(tx, m)
		if err != nil {
			return 0, fmt.Errorf("record build: module %s: %w", m.Path, err)
		}
		m.ID = id

		for i, req := range m.Requires {
			if _, err := tx.Exec(
				"INSERT INTO module_requires (module_id, required_path, ordinal) VALUES (?, ?, ?)",
				id, req, i,
			); err != nil {
				return 0, fmt.Errorf("record build: requires of %s: %w", m.Path, err)
			}
		}
		for _, ns := range m.Namespaces {
			ns.ModuleID = id
			if _, err := tx.Exec(
				"INSERT INTO namespaces (module_id, name, ordinal, active) VALUES (?, ?, ?, ?)",
				id, ns.Name, ns.Ordinal, ns.Active,
			); err != nil {
				return 0, fmt.Errorf("record build: namespace %s: %w", ns.Name, err)
			}
		}
		for i, name := range m.NativeModules {
			if _, err := tx.Exec(
				"INSERT INTO native_modules (module_id, name, ordinal) VALUES (?, ?, ?)",
				id, name, i,
			); err != nil {
				return 0, fmt.Errorf("record build: native module %s: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record build: commit: %w", err)
	}
	b.ID = buildID
	return buildID, nil
}

func insertModuleTx(tx *sql.Tx, m *Module) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO modules (build_id, path, name, position, content_hash, is_root)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.BuildID, m.Path, m.Name, m.Position, m.ContentHash, m.IsRoot,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const buildCols = "id, root_path, output_path, working_dir, output_hash, module_count, built_at"

func scanBuild(scanner interface{ Scan(...any) error }) (*Build, error) {
	b := &Build{}
	return b, scanner.Scan(&b.ID, &b.RootPath, &b.OutputPath, &b.WorkingDir, &b.OutputHash, &b.ModuleCount, &b.BuiltAt)
}

// LatestBuild returns the most recently recorded build, or nil when the
// manifest is empty.
func (s *Store) LatestBuild() (*Build, error) {
	b, err := scanBuild(s.db.QueryRow("SELECT " + buildCols + " FROM builds ORDER BY built_at DESC, id DESC LIMIT 1"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest build: %w", err)
	}
	return b, nil
}

// BuildByID returns the build with the given id, or nil when none exists.
func (s *Store) BuildByID(id int64) (*Build, error) {
	b, err := scanBuild(s.db.QueryRow("SELECT "+buildCols+" FROM builds WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("build by id: %w", err)
	}
	return b, nil
}

// BuildsByOutput returns every build written to outputPath, newest first.
func (s *Store) BuildsByOutput(outputPath string) ([]*Build, error) {
	rows, err := s.db.Query(
		"SELECT "+buildCols+" FROM builds WHERE output_path = ? ORDER BY built_at DESC, id DESC", outputPath,
	)
	if err != nil {
		return nil, fmt.Errorf("builds by output: %w", err)
	}
	defer rows.Close()

	var builds []*Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("builds by output: scan: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// ModulesByBuild returns a build's modules in output position order.
func (s *Store) ModulesByBuild(buildID int64) ([]*Module, error) {
	rows, err := s.db.Query(
		`SELECT id, build_id, path, name, position, content_hash, is_root
		 FROM modules WHERE build_id = ? ORDER BY position`, buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("modules by build: %w", err)
	}
	defer rows.Close()

	var mods []*Module
	for rows.Next() {
		m := &Module{}
		if err := rows.Scan(&m.ID, &m.BuildID, &m.Path, &m.Name, &m.Position, &m.ContentHash, &m.IsRoot); err != nil {
			return nil, fmt.Errorf("modules by build: scan: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// RequiresByModule returns the file paths a module required, in
// declaration order.
func (s *Store) RequiresByModule(moduleID int64) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT required_path FROM module_requires WHERE module_id = ? ORDER BY ordinal", moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("requires by module: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("requires by module: scan: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// NamespacesByModule returns a module's namespace requirements in
// declaration order.
func (s *Store) NamespacesByModule(moduleID int64) ([]*Namespace, error) {
	rows, err := s.db.Query(
		"SELECT module_id, name, ordinal, active FROM namespaces WHERE module_id = ? ORDER BY ordinal", moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("namespaces by module: %w", err)
	}
	defer rows.Close()

	var out []*Namespace
	for rows.Next() {
		ns := &Namespace{}
		if err := rows.Scan(&ns.ModuleID, &ns.Name, &ns.Ordinal, &ns.Active); err != nil {
			return nil, fmt.Errorf("namespaces by module: scan: %w", err)
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

func (s *Store) NativeModulesByModule(moduleID int64) ([]*NativeModule, error) {
	rows, err := s.db.Query(
		"SELECT module_id, name, ordinal FROM native_modules WHERE module_id = ? ORDER BY ordinal", moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("native modules by module: %w", err)
	}
	defer rows.Close()

	var out []*NativeModule
	for rows.Next() {
		nm := &NativeModule{}
		if err := rows.Scan(&nm.ModuleID, &nm.Name, &nm.Ordinal); err != nil {
			return nil, fmt.Errorf("native modules by module: scan: %w", err)
		}
		out = append(out, nm)
	}
	return out, rows.Err()
}
