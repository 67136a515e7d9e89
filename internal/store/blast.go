package store

import (
	"fmt"
	"slices"
)

// FilesImportingModule returns the ids of files with an import of module
// or of one of its submodules ("pkg" matches "pkg" and "pkg.sub"). These
// are the files whose bindings may change when module changes.
func (s *Store) FilesImportingModule(module string) ([]int64, error) {
	return s.FilesImportingModules([]string{module})
}

// FilesImportingModules returns the ids of files importing any of modules
// or their submodules, ordered by id. Relative imports resolve against the
// importing file's package, and "from pkg import name" also counts as an
// import of pkg.name. A file never counts as importing its own module.
func (s *Store) FilesImportingModules(modules []string) ([]int64, error) {
	modules = slices.DeleteFunc(slices.Clone(modules), func(m string) bool { return m == "" })
	if len(modules) == 0 {
		return nil, nil
	}
	files, err := s.Files()
	if err != nil {
		return nil, fmt.Errorf("files importing module: %w", err)
	}
	type importer struct {
		module    string
		isPackage bool
	}
	byID := make(map[int64]importer, len(files))
	for _, f := range files {
		byID[f.ID] = importer{module: f.Module, isPackage: IsPackagePath(f.Path)}
	}
	imports, err := s.AllImports()
	if err != nil {
		return nil, fmt.Errorf("files importing module: %w", err)
	}

	seen := map[int64]bool{}
	var fileIDs []int64
	for _, imp := range imports {
		if seen[imp.FileID] {
			continue
		}
		from, ok := byID[imp.FileID]
		if !ok {
			continue
		}
		if importsAny(ImportedModules(from.module, from.isPackage, imp), from.module, modules) {
			seen[imp.FileID] = true
			fileIDs = append(fileIDs, imp.FileID)
		}
	}
	slices.Sort(fileIDs)
	return fileIDs, nil
}

func importsAny(targets []string, self string, modules []string) bool {
	for _, m := range modules {
		if m == self {
			continue
		}
		for _, target := range targets {
			if withinModule(target, m) {
				return true
			}
		}
	}
	return false
}

// FilesByIDs returns the files with the given ids, ordered by path.
func (s *Store) FilesByIDs(ids []int64) ([]*File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(
		"SELECT "+fileCols+" FROM files WHERE id IN ("+placeholderList(len(ids))+") ORDER BY path",
		int64sToArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("files by ids: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// FilesByModule returns the files whose dotted module name is module. More
// than one file matches when a package and a module share a name.
func (s *Store) FilesByModule(module string) ([]*File, error) {
	rows, err := s.db.Query("SELECT "+fileCols+" FROM files WHERE module = ? ORDER BY path", module)
	if err != nil {
		return nil, fmt.Errorf("files by module: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// AllImports returns every stored import ordered by file and id.
func (s *Store) AllImports() ([]*Import, error) {
	imports, err := s.queryImports("SELECT " + importCols + " FROM imports ORDER BY file_id, id")
	if err != nil {
		return nil, fmt.Errorf("all imports: %w", err)
	}
	return imports, nil
}
