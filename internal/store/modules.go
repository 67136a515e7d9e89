package store

import (
	"path/filepath"
	"strings"
)

// IsPackagePath reports whether path is a package's __init__ file.
func IsPackagePath(path string) bool {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) == "__init__"
}

// ImportTarget returns the absolute module an import statement names.
// For relative imports the base is the importer's package, climbing one
// package per extra leading dot. ok is false when the importer has no
// package or the dots climb above the top-level package.
func ImportTarget(importer string, isPackage bool, module string, level int) (string, bool) {
	if level == 0 {
		return module, true
	}
	pkg := importer
	if !isPackage {
		pkg = ParentModule(importer)
	}
	if pkg == "" {
		return "", false
	}
	for range level - 1 {
		pkg = ParentModule(pkg)
		if pkg == "" {
			return "", false
		}
	}
	return JoinModule(pkg, module), true
}

// ImportedModules returns the absolute modules an import may bind: the
// target of the statement and, for a from-import of a single name, the
// submodule of that name. nil when a relative import cannot be resolved.
func ImportedModules(importer string, isPackage bool, imp *Import) []string {
	target, ok := ImportTarget(importer, isPackage, imp.Module, imp.Level)
	if !ok {
		return nil
	}
	mods := []string{target}
	if imp.IsFromImport() && imp.Name != "*" {
		mods = append(mods, JoinModule(target, imp.Name))
	}
	return mods
}

// IsFromImport reports whether the import came from a from-import
// statement. "import a.b" is stored with Name equal to Module.
func (imp *Import) IsFromImport() bool {
	return imp.Level > 0 || imp.Module != imp.Name
}

// ParentModule returns the package containing name, or "" for a top-level
// module.
func ParentModule(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

// JoinModule joins a package and a relative dotted name.
func JoinModule(pkg, name string) string {
	switch {
	case pkg == "":
		return name
	case name == "":
		return pkg
	}
	return pkg + "." + name
}

// withinModule reports whether name is module or one of its submodules.
func withinModule(name, module string) bool {
	return name == module || strings.HasPrefix(name, module+".")
}
