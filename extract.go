package pyscope

import (
	"fmt"

	"github.com/jward/pyscope/internal/ast"
	"github.com/jward/pyscope/internal/semantic"
	"github.com/jward/pyscope/internal/store"
)

// extractRows buffers the rows of a finished index into ds. Scopes are
// inserted in pre-order, so a parent's id is always known when its
// children are inserted.
func extractRows(ds store.DataStore, fileID int64, mod *ast.Module, idx *semantic.Index) error {
	scopeIDs := make([]int64, idx.ScopeCount())

	for id, sc := range idx.Scopes() {
		rng, region := sc.Range(), sc.Region()
		start, end := mod.Position(rng.Start), mod.Position(rng.End)
		regionStart, regionEnd := mod.Position(region.Start), mod.Position(region.End)
		desc := sc.Descendants()
		row := &store.Scope{
			FileID:            fileID,
			ScopeIndex:        int(id),
			Kind:              sc.Kind().String(),
			NodeKind:          sc.Node().Kind.String(),
			Name:              sc.Name(),
			StartOffset:       int(rng.Start),
			EndOffset:         int(rng.End),
			StartLine:         start.Line,
			StartCol:          start.Column,
			EndLine:           end.Line,
			EndCol:            end.Column,
			RegionStartOffset: int(region.Start),
			RegionEndOffset:   int(region.End),
			RegionStartLine:   regionStart.Line,
			RegionStartCol:    regionStart.Column,
			RegionEndLine:     regionEnd.Line,
			RegionEndCol:      regionEnd.Column,
			DescendantsStart:  int(desc.Start),
			DescendantsEnd:    int(desc.End),
		}
		if parent, ok := sc.Parent(); ok {
			row.ParentScopeID = &scopeIDs[parent]
		}
		rowID, err := ds.InsertScope(row)
		if err != nil {
			return fmt.Errorf("scope %d: %w", id, err)
		}
		scopeIDs[id] = rowID

		for symID, sym := range idx.SymbolTable(id).All() {
			symRowID, err := ds.InsertSymbol(&store.Symbol{
				FileID:      fileID,
				ScopeID:     rowID,
				SymbolIndex: int(symID),
				Name:        sym.Name(),
				Flags:       sym.Flags().Strings(),
			})
			if err != nil {
				return fmt.Errorf("symbol %q: %w", sym.Name(), err)
			}
			for ordinal, def := range sym.Definitions() {
				if _, err := ds.InsertDefinition(&store.Definition{
					SymbolID: symRowID,
					Ordinal:  ordinal,
					Kind:     def.Kind().String(),
					LocalID:  int64(def.Local()),
				}); err != nil {
					return fmt.Errorf("definition of %q: %w", sym.Name(), err)
				}
			}
		}
	}

	var importErr error
	ast.Inspect(mod.Body, func(n ast.Node) {
		if importErr != nil {
			return
		}
		var (
			module     string
			level      int
			names      []*ast.Alias
			fromImport bool
		)
		switch stmt := n.(type) {
		case *ast.Import:
			names = stmt.Names
		case *ast.ImportFrom:
			module, level, names, fromImport = stmt.ModuleName, stmt.Level, stmt.Names, true
		default:
			return
		}
		for _, alias := range names {
			scope, ok := idx.DefinitionScopeID(alias)
			if !ok {
				importErr = fmt.Errorf("import %q has no scope", alias.Name)
				return
			}
			imp := &store.Import{
				FileID:    fileID,
				ScopeID:   scopeIDs[scope],
				Module:    module,
				Name:      alias.Name,
				BoundName: alias.BoundName(fromImport),
				Level:     level,
			}
			if !fromImport {
				imp.Module = alias.Name
			}
			if _, err := ds.InsertImport(imp); err != nil {
				importErr = fmt.Errorf("import %q: %w", alias.Name, err)
				return
			}
		}
	})
	return importErr
}
