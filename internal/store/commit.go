package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered rows from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// IDs, and every FK reference within the batch is rewritten using the
// fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Scopes (parents precede children in pre-order)
//  2. Symbols (depend on scope_id)
//  3. Definitions (depend on symbol_id)
//  4. Imports (depend on scope_id)
//  5. Snapshot (depends on file_id only)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64, len(batch.Scopes)+len(batch.Symbols))
	remap := func(id int64) (int64, error) {
		if id >= 0 {
			return id, nil
		}
		realID, ok := fakeToReal[id]
		if !ok {
			return 0, fmt.Errorf("fake id %d not committed yet", id)
		}
		return realID, nil
	}

	// 1. Scopes
	for _, scope := range batch.Scopes {
		if scope.ParentScopeID != nil {
			realID, err := remap(*scope.ParentScopeID)
			if err != nil {
				return fmt.Errorf("commit batch: scope %d parent: %w", scope.ScopeIndex, err)
			}
			scope.ParentScopeID = &realID
		}
		realID, err := insertScopeTx(tx, &scope)
		if err != nil {
			return fmt.Errorf("commit batch: scope %d: %w", scope.ScopeIndex, err)
		}
		fakeToReal[scope.ID] = realID
	}

	// 2. Symbols
	for _, sym := range batch.Symbols {
		if sym.ScopeID, err = remap(sym.ScopeID); err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		realID, err := insertSymbolTx(tx, &sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	// 3. Definitions
	for _, def := range batch.Definitions {
		if def.SymbolID, err = remap(def.SymbolID); err != nil {
			return fmt.Errorf("commit batch: definition: %w", err)
		}
		if _, err := insertDefinitionTx(tx, &def); err != nil {
			return fmt.Errorf("commit batch: definition: %w", err)
		}
	}

	// 4. Imports
	for _, imp := range batch.Imports {
		if imp.ScopeID, err = remap(imp.ScopeID); err != nil {
			return fmt.Errorf("commit batch: import %q: %w", imp.Name, err)
		}
		if _, err := insertImportTx(tx, &imp); err != nil {
			return fmt.Errorf("commit batch: import %q: %w", imp.Name, err)
		}
	}

	// 5. Snapshot
	if batch.Snapshot != nil {
		if err := putSnapshotTx(tx, batch.Snapshot); err != nil {
			return fmt.Errorf("commit batch: snapshot: %w", err)
		}
	}

	return tx.Commit()
}

// execer is satisfied by both *sql.DB and *sql.Tx, so the insert helpers
// below serve the direct Store methods and CommitBatch alike.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertScopeTx(tx execer, scope *Scope) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO scopes (file_id, scope_index, parent_scope_id, kind, node_kind, name,
			start_offset, end_offset, start_line, start_col, end_line, end_col,
			region_start_offset, region_end_offset, region_start_line, region_start_col, region_end_line, region_end_col,
			descendants_start, descendants_end)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scope.FileID, scope.ScopeIndex, scope.ParentScopeID, scope.Kind, scope.NodeKind, scope.Name,
		scope.StartOffset, scope.EndOffset, scope.StartLine, scope.StartCol, scope.EndLine, scope.EndCol,
		scope.RegionStartOffset, scope.RegionEndOffset, scope.RegionStartLine, scope.RegionStartCol, scope.RegionEndLine, scope.RegionEndCol,
		scope.DescendantsStart, scope.DescendantsEnd,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertSymbolTx(tx execer, sym *Symbol) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO symbols (file_id, scope_id, symbol_index, name, flags) VALUES (?, ?, ?, ?, ?)`,
		sym.FileID, sym.ScopeID, sym.SymbolIndex, sym.Name, marshalFlags(sym.Flags),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDefinitionTx(tx execer, def *Definition) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO definitions (symbol_id, ordinal, kind, local_id) VALUES (?, ?, ?, ?)`,
		def.SymbolID, def.Ordinal, def.Kind, def.LocalID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertImportTx(tx execer, imp *Import) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO imports (file_id, scope_id, module, name, bound_name, level) VALUES (?, ?, ?, ?, ?, ?)`,
		imp.FileID, imp.ScopeID, imp.Module, imp.Name, imp.BoundName, imp.Level,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func putSnapshotTx(tx execer, snap *Snapshot) error {
	_, err := tx.Exec(
		`INSERT INTO snapshots (file_id, schema, data) VALUES (?, ?, ?)
		 ON CONFLICT(file_id) DO UPDATE SET schema = excluded.schema, data = excluded.data`,
		snap.FileID, snap.Schema, snap.Data,
	)
	return err
}
