package pyscope

import (
	"fmt"
	"path/filepath"

	"github.com/jward/pyscope/internal/store"
)

// QueryBuilder provides read access to the persisted indexes.
type QueryBuilder struct {
	store *store.Store
}

// Location represents a source code position range.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Binding is the visible binding of a name: the symbol that defines it, the
// scope it lives in, and every binding occurrence in order.
type Binding struct {
	Symbol      *Symbol
	Scope       *Scope
	Definitions []*Definition
	Location    Location
}

// file looks a path up, returning nil for unknown files.
func (q *QueryBuilder) file(path string) (*store.File, error) {
	return q.store.FileByPath(filepath.Clean(path))
}

// Files returns every indexed file ordered by path.
func (q *QueryBuilder) Files() ([]*File, error) {
	return q.store.Files()
}

// Scopes returns the scopes of a file in pre-order. Returns nil for files
// that are not indexed.
func (q *QueryBuilder) Scopes(path string) ([]*Scope, error) {
	f, err := q.file(path)
	if err != nil || f == nil {
		return nil, err
	}
	return q.store.ScopesByFile(f.ID)
}

// ScopeAt returns the scope that code at a 1-based line and column is
// evaluated in, or nil for files that are not indexed. Decorators, default
// values and base classes of a definition belong to the enclosing scope.
func (q *QueryBuilder) ScopeAt(path string, line, col int) (*Scope, error) {
	f, err := q.file(path)
	if err != nil {
		return nil, fmt.Errorf("scope at: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	return q.store.ScopeAtPosition(f.ID, line, col)
}

// ScopeChain returns the scope at a position followed by each enclosing
// scope up to the module.
func (q *QueryBuilder) ScopeChain(path string, line, col int) ([]*Scope, error) {
	sc, err := q.ScopeAt(path, line, col)
	if err != nil || sc == nil {
		return nil, err
	}
	return q.store.ScopeChain(sc.ID)
}

// Symbols returns the symbol table of one scope of a file, in insertion
// order.
func (q *QueryBuilder) Symbols(path string, scopeIndex int) ([]*Symbol, error) {
	f, err := q.file(path)
	if err != nil || f == nil {
		return nil, err
	}
	sc, err := q.store.ScopeByIndex(f.ID, scopeIndex)
	if err != nil || sc == nil {
		return nil, err
	}
	return q.store.SymbolsByScope(sc.ID)
}

// SymbolsNamed returns every symbol called name across all files.
func (q *QueryBuilder) SymbolsNamed(name string) ([]*Symbol, error) {
	return q.store.SymbolsByName(name)
}

// Definitions returns the binding occurrences of a symbol in order.
func (q *QueryBuilder) Definitions(symbolID int64) ([]*Definition, error) {
	return q.store.DefinitionsBySymbol(symbolID)
}

// Resolve finds the binding that name refers to at a position: the scope
// at the position is searched first, then each enclosing function and
// module scope. Enclosing class scopes are not searched. Returns nil when
// the name is unbound in the file.
func (q *QueryBuilder) Resolve(path string, line, col int, name string) (*Binding, error) {
	sc, err := q.ScopeAt(path, line, col)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	if sc == nil {
		return nil, nil
	}
	sym, owner, err := q.store.ResolveName(sc.ID, name)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	if sym == nil {
		return nil, nil
	}
	defs, err := q.store.DefinitionsBySymbol(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	return &Binding{
		Symbol:      sym,
		Scope:       owner,
		Definitions: defs,
		Location:    scopeLocation(filepath.Clean(path), owner),
	}, nil
}

// Dependencies returns the imports of a file.
func (q *QueryBuilder) Dependencies(path string) ([]*Import, error) {
	f, err := q.file(path)
	if err != nil || f == nil {
		return nil, err
	}
	return q.store.ImportsByFile(f.ID)
}

// Dependents returns the files importing module or one of its submodules.
// Relative imports resolve against the importing file's package, and
// "from pkg import name" also imports pkg.name.
func (q *QueryBuilder) Dependents(module string) ([]*File, error) {
	ids, err := q.store.FilesImportingModule(module)
	if err != nil {
		return nil, fmt.Errorf("dependents: %w", err)
	}
	return q.store.FilesByIDs(ids)
}

func scopeLocation(path string, sc *Scope) Location {
	return Location{
		File:      path,
		StartLine: sc.StartLine,
		StartCol:  sc.StartCol,
		EndLine:   sc.EndLine,
		EndCol:    sc.EndCol,
	}
}
