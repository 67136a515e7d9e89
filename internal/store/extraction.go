package store

import (
	"database/sql"
	"errors"
	"fmt"
)

type rowScanner interface{ Scan(...any) error }

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, module, hash, size, line_count, has_syntax_errors, last_indexed) VALUES (?, ?, ?, ?, ?, ?, ?)",
		f.Path, f.Module, f.Hash, f.Size, f.LineCount, f.HasSyntaxErrors, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// SetFileSyntaxErrors records whether the parser flagged errors in a file.
func (s *Store) SetFileSyntaxErrors(fileID int64, hasErrors bool) error {
	if _, err := s.db.Exec("UPDATE files SET has_syntax_errors = ? WHERE id = ?", hasErrors, fileID); err != nil {
		return fmt.Errorf("set file syntax errors: %w", err)
	}
	return nil
}

// SetFileModule changes the dotted module name a file is imported as.
func (s *Store) SetFileModule(fileID int64, module string) error {
	if _, err := s.db.Exec("UPDATE files SET module = ? WHERE id = ?", module, fileID); err != nil {
		return fmt.Errorf("set file module: %w", err)
	}
	return nil
}

const fileCols = "id, path, module, hash, size, line_count, has_syntax_errors, last_indexed"

func scanFile(scanner rowScanner) (*File, error) {
	f := &File{}
	err := scanner.Scan(&f.ID, &f.Path, &f.Module, &f.Hash, &f.Size, &f.LineCount, &f.HasSyntaxErrors, &f.LastIndexed)
	return f, err
}

// FileByPath returns the file stored under path, or nil if there is none.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// FileByID returns the file with the given id, or nil if there is none.
func (s *Store) FileByID(id int64) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
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

// --- Scope operations ---

func (s *Store) InsertScope(scope *Scope) (int64, error) {
	id, err := insertScopeTx(s.db, scope)
	if err != nil {
		return 0, fmt.Errorf("insert scope: %w", err)
	}
	scope.ID = id
	return id, nil
}

const scopeCols = `id, file_id, scope_index, parent_scope_id, kind, node_kind, name,
	start_offset, end_offset, start_line, start_col, end_line, end_col,
	region_start_offset, region_end_offset, region_start_line, region_start_col, region_end_line, region_end_col,
	descendants_start, descendants_end`

func scanScope(scanner rowScanner) (*Scope, error) {
	sc := &Scope{}
	return sc, scanner.Scan(
		&sc.ID, &sc.FileID, &sc.ScopeIndex, &sc.ParentScopeID, &sc.Kind, &sc.NodeKind, &sc.Name,
		&sc.StartOffset, &sc.EndOffset, &sc.StartLine, &sc.StartCol, &sc.EndLine, &sc.EndCol,
		&sc.RegionStartOffset, &sc.RegionEndOffset, &sc.RegionStartLine, &sc.RegionStartCol, &sc.RegionEndLine, &sc.RegionEndCol,
		&sc.DescendantsStart, &sc.DescendantsEnd,
	)
}

func (s *Store) queryScopes(query string, args ...any) ([]*Scope, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var scopes []*Scope
	for rows.Next() {
		sc, err := scanScope(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		scopes = append(scopes, sc)
	}
	return scopes, rows.Err()
}

// ScopesByFile returns a file's scopes in pre-order (scope index order).
func (s *Store) ScopesByFile(fileID int64) ([]*Scope, error) {
	scopes, err := s.queryScopes("SELECT "+scopeCols+" FROM scopes WHERE file_id = ? ORDER BY scope_index", fileID)
	if err != nil {
		return nil, fmt.Errorf("scopes by file: %w", err)
	}
	return scopes, nil
}

// ScopeByIndex returns the scope of a file by its in-file index, or nil.
func (s *Store) ScopeByIndex(fileID int64, index int) (*Scope, error) {
	sc, err := scanScope(s.db.QueryRow("SELECT "+scopeCols+" FROM scopes WHERE file_id = ? AND scope_index = ?", fileID, index))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scope by index: %w", err)
	}
	return sc, nil
}

// ScopeByID returns the scope with the given row id, or nil when absent.
func (s *Store) ScopeByID(id int64) (*Scope, error) {
	sc, err := scanScope(s.db.QueryRow("SELECT "+scopeCols+" FROM scopes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scope by id: %w", err)
	}
	return sc, nil
}

// ScopeAt returns the innermost scope of a file whose region covers offset:
// the scope an expression at offset is evaluated in. The module scope is
// returned when nothing narrower does.
func (s *Store) ScopeAt(fileID int64, offset int) (*Scope, error) {
	sc, err := scanScope(s.db.QueryRow(
		"SELECT "+scopeCols+` FROM scopes
		 WHERE file_id = ? AND (scope_index = 0 OR (region_start_offset <= ? AND ? < region_end_offset))
		 ORDER BY scope_index DESC LIMIT 1`,
		fileID, offset, offset,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scope at: %w", err)
	}
	return sc, nil
}

// ScopeAtPosition is ScopeAt for a 1-based line and column. A scope covers
// the position when its region starts at or before it and ends after it.
func (s *Store) ScopeAtPosition(fileID int64, line, col int) (*Scope, error) {
	sc, err := scanScope(s.db.QueryRow(
		"SELECT "+scopeCols+` FROM scopes
		 WHERE file_id = ? AND (scope_index = 0 OR (
		   (region_start_line < ? OR (region_start_line = ? AND region_start_col <= ?)) AND
		   (region_end_line > ? OR (region_end_line = ? AND region_end_col > ?))))
		 ORDER BY scope_index DESC LIMIT 1`,
		fileID, line, line, col, line, line, col,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scope at position: %w", err)
	}
	return sc, nil
}

// ScopeChain walks up the parent_scope_id chain from scopeID to the module
// scope.
func (s *Store) ScopeChain(scopeID int64) ([]*Scope, error) {
	var chain []*Scope
	currentID := &scopeID
	for currentID != nil {
		sc, err := scanScope(s.db.QueryRow("SELECT "+scopeCols+" FROM scopes WHERE id = ?", *currentID))
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scope chain: %w", err)
		}
		chain = append(chain, sc)
		currentID = sc.ParentScopeID
	}
	return chain, nil
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbolTx(s.db, sym)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	sym.ID = id
	return id, nil
}

// SymbolCols is the column list for symbol queries, exported for use by
// QueryBuilder.
const SymbolCols = "id, file_id, scope_id, symbol_index, name, flags"

// ScanSymbolRow scans a single row selected with SymbolCols.
func ScanSymbolRow(scanner rowScanner) (*Symbol, error) {
	sym := &Symbol{}
	var flags string
	if err := scanner.Scan(&sym.ID, &sym.FileID, &sym.ScopeID, &sym.SymbolIndex, &sym.Name, &flags); err != nil {
		return nil, err
	}
	sym.Flags = UnmarshalFlags(flags)
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := ScanSymbolRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SymbolsByScope returns a scope's symbol table in symbol index order.
func (s *Store) SymbolsByScope(scopeID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE scope_id = ? ORDER BY symbol_index", scopeID)
}

// SymbolsByName returns every symbol named name across all files.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE name = ? ORDER BY file_id, scope_id, symbol_index", name)
}

// SymbolInScope returns the symbol named name in a scope, or nil.
func (s *Store) SymbolInScope(scopeID int64, name string) (*Symbol, error) {
	sym, err := ScanSymbolRow(s.db.QueryRow("SELECT "+SymbolCols+" FROM symbols WHERE scope_id = ? AND name = ?", scopeID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol in scope: %w", err)
	}
	return sym, nil
}

// --- Definition operations ---

func (s *Store) InsertDefinition(def *Definition) (int64, error) {
	id, err := insertDefinitionTx(s.db, def)
	if err != nil {
		return 0, fmt.Errorf("insert definition: %w", err)
	}
	def.ID = id
	return id, nil
}

// DefinitionsBySymbol returns a symbol's definitions in binding order.
func (s *Store) DefinitionsBySymbol(symbolID int64) ([]*Definition, error) {
	rows, err := s.db.Query(
		"SELECT id, symbol_id, ordinal, kind, local_id FROM definitions WHERE symbol_id = ? ORDER BY ordinal", symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("definitions by symbol: %w", err)
	}
	defer rows.Close()
	var defs []*Definition
	for rows.Next() {
		d := &Definition{}
		if err := rows.Scan(&d.ID, &d.SymbolID, &d.Ordinal, &d.Kind, &d.LocalID); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// --- Import operations ---

func (s *Store) InsertImport(imp *Import) (int64, error) {
	id, err := insertImportTx(s.db, imp)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	imp.ID = id
	return id, nil
}

const importCols = "id, file_id, scope_id, module, name, bound_name, level"

func (s *Store) queryImports(query string, args ...any) ([]*Import, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp := &Import{}
		if err := rows.Scan(&imp.ID, &imp.FileID, &imp.ScopeID, &imp.Module, &imp.Name, &imp.BoundName, &imp.Level); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// ImportsByFile returns a file's import aliases in insertion order.
func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	imports, err := s.queryImports("SELECT "+importCols+" FROM imports WHERE file_id = ? ORDER BY id", fileID)
	if err != nil {
		return nil, fmt.Errorf("imports by file: %w", err)
	}
	return imports, nil
}

// --- Snapshot operations ---

// PutSnapshot stores or replaces the snapshot of a file.
func (s *Store) PutSnapshot(snap *Snapshot) error {
	if err := putSnapshotTx(s.db, snap); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// SnapshotByFile returns the stored snapshot of a file, or nil.
func (s *Store) SnapshotByFile(fileID int64) (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.db.QueryRow("SELECT file_id, schema, data FROM snapshots WHERE file_id = ?", fileID).
		Scan(&snap.FileID, &snap.Schema, &snap.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot by file: %w", err)
	}
	return snap, nil
}
