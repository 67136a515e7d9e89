package pyscope

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jward/pyscope/internal/store"
)

// SymbolDetail is a combined response that bundles a symbol with the scope
// that owns it, its binding occurrences, and the import aliases that bind
// it. One call replaces four separate Store lookups.
type SymbolDetail struct {
	Symbol      SymbolResult
	Scope       *store.Scope
	Definitions []*store.Definition
	Imports     []*store.Import // import aliases binding this name in its scope
	Location    Location        // extent of the owning scope
}

// SymbolDetail returns the symbol with the given row id and its metadata.
// Returns nil with no error if the symbol ID does not exist.
func (q *QueryBuilder) SymbolDetail(symbolID int64) (*SymbolDetail, error) {
	sr, err := q.symbolResultByID(symbolID)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: %w", err)
	}
	if sr == nil {
		return nil, nil
	}

	sc, err := q.store.ScopeByID(sr.ScopeID)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: %w", err)
	}
	if sc == nil {
		return nil, fmt.Errorf("symbol detail: scope %d of symbol %d missing", sr.ScopeID, symbolID)
	}

	defs, err := q.store.DefinitionsBySymbol(symbolID)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: definitions: %w", err)
	}
	if defs == nil {
		defs = []*store.Definition{}
	}

	imports, err := q.store.ImportsByFile(sr.FileID)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: imports: %w", err)
	}
	binding := []*store.Import{}
	for _, imp := range imports {
		if imp.ScopeID == sr.ScopeID && imp.BoundName == sr.Name {
			binding = append(binding, imp)
		}
	}

	return &SymbolDetail{
		Symbol:      *sr,
		Scope:       sc,
		Definitions: defs,
		Imports:     binding,
		Location:    scopeLocation(sr.FilePath, sc),
	}, nil
}

// SymbolDetailAt resolves name at a 1-based position of a file and returns
// the detail of the binding it refers to. Returns nil with no error if the
// name is unbound there.
func (q *QueryBuilder) SymbolDetailAt(path string, line, col int, name string) (*SymbolDetail, error) {
	b, err := q.Resolve(path, line, col, name)
	if err != nil {
		return nil, fmt.Errorf("symbol detail at: %w", err)
	}
	if b == nil {
		return nil, nil
	}
	return q.SymbolDetail(b.Symbol.ID)
}

// symbolResultByID loads a single symbol as a SymbolResult by its ID.
// Returns nil with no error if not found.
func (q *QueryBuilder) symbolResultByID(symbolID int64) (*SymbolResult, error) {
	row := q.store.DB().QueryRow(
		fmt.Sprintf(
			`SELECT %s, f.path, f.module, sc.scope_index, sc.kind, sc.name,
				(SELECT COUNT(*) FROM definitions d WHERE d.symbol_id = s.id) AS definition_count
			 FROM symbols s
			 JOIN scopes sc ON s.scope_id = sc.id
			 JOIN files f ON s.file_id = f.id
			 WHERE s.id = ?`,
			prefixSymbolCols("s"),
		),
		symbolID,
	)
	sr, err := scanSymbolResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sr, nil
}
