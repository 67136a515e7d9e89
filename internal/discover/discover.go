// Package discover finds Python source files under a directory tree.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Extensions recognized as Python source.
var Extensions = map[string]struct{}{
	".py":  {},
	".pyi": {},
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	"venv":          {},
	"env":           {},
	"build":         {},
	"dist":          {},
	"site-packages": {},
}

// Files returns the Python files under root as slash-separated paths
// relative to root, sorted. Hidden entries, well-known virtualenv and build
// directories, paths matched by root/.gitignore and paths matched by any of
// the gitignore-syntax excludes are skipped.
func Files(root string, excludes []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discover: %s is not a directory", root)
	}

	gi := loadGitignore(root)
	var ex *ignore.GitIgnore
	if len(excludes) > 0 {
		ex = ignore.CompileIgnoreLines(excludes...)
	}
	skipped := func(rel string) bool {
		return (gi != nil && gi.MatchesPath(rel)) || (ex != nil && ex.MatchesPath(rel))
	}

	var results []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		name := d.Name()
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") || skipped(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if _, ok := Extensions[filepath.Ext(name)]; !ok {
			return nil
		}
		if skipped(rel) {
			return nil
		}
		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover: walk %s: %w", root, err)
	}

	sort.Strings(results)
	return results, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
