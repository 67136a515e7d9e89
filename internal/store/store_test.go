package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// insertTestFile is a helper that inserts a file and returns it with ID set.
func insertTestFile(t *testing.T, s *Store, path string) *File {
	t.Helper()
	f := &File{Path: path, Hash: "abc123", Size: 10, LineCount: 2, LastIndexed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)
	return f
}

// insertTestScope inserts a scope spanning [start, end) bytes.
func insertTestScope(t *testing.T, s *Store, fileID int64, index int, parent *int64, kind, name string, start, end int) *Scope {
	t.Helper()
	sc := &Scope{
		FileID: fileID, ScopeIndex: index, ParentScopeID: parent,
		Kind: kind, NodeKind: kind, Name: name,
		StartOffset: start, EndOffset: end,
		RegionStartOffset: start, RegionEndOffset: end,
		DescendantsStart: index + 1, DescendantsEnd: index + 1,
	}
	_, err := s.InsertScope(sc)
	require.NoError(t, err)
	return sc
}

func insertTestSymbol(t *testing.T, s *Store, fileID, scopeID int64, index int, name string, flags ...string) *Symbol {
	t.Helper()
	sym := &Symbol{FileID: fileID, ScopeID: scopeID, SymbolIndex: index, Name: name, Flags: flags}
	_, err := s.InsertSymbol(sym)
	require.NoError(t, err)
	return sym
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"files", "scopes", "symbols", "definitions", "imports", "snapshots", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())

	v, err := s.GetMetadata("schema_version")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestMigrate_OlderSchemaIsDiscarded(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/old.py")
	require.NoError(t, s.SetMetadata("schema_version", "1"))

	require.NoError(t, s.Migrate())

	files, err := s.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
	v, err := s.GetMetadata("schema_version")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestMetadata_RoundTripAndOverwrite(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("k", "one"))
	require.NoError(t, s.SetMetadata("k", "two"))
	v, err = s.GetMetadata("k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

// =============================================================================
// Files
// =============================================================================

func TestFiles_InsertAndLookup(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := insertTestFile(t, s, "/b.py")
	a := insertTestFile(t, s, "/a.py")

	got, err := s.FileByPath("/a.py")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "abc123", got.Hash)
	assert.Equal(t, int64(10), got.Size)
	assert.Equal(t, 2, got.LineCount)

	missing, err := s.FileByPath("/nope.py")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := s.FileByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "/b.py", byID.Path)

	all, err := s.Files()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/a.py", all[0].Path)
	assert.Equal(t, "/b.py", all[1].Path)
}

func TestFiles_PathIsUnique(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/a.py")
	_, err := s.InsertFile(&File{Path: "/a.py", Hash: "x"})
	assert.Error(t, err)
}

// =============================================================================
// Scopes & Symbols
// =============================================================================

func TestScopes_ChainAndAt(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/m.py")

	root := insertTestScope(t, s, f.ID, 0, nil, "module", "<module>", 0, 100)
	fn := insertTestScope(t, s, f.ID, 1, ptr(root.ID), "function", "f", 10, 60)
	inner := insertTestScope(t, s, f.ID, 2, ptr(fn.ID), "function", "g", 20, 40)
	insertTestScope(t, s, f.ID, 3, ptr(root.ID), "class", "C", 70, 90)

	scopes, err := s.ScopesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, scopes, 4)
	for i, sc := range scopes {
		assert.Equal(t, i, sc.ScopeIndex)
	}

	chain, err := s.ScopeChain(inner.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, "g", chain[0].Name)
	assert.Equal(t, "f", chain[1].Name)
	assert.Equal(t, "<module>", chain[2].Name)

	tests := []struct {
		offset int
		want   string
	}{
		{5, "<module>"},
		{10, "f"},
		{25, "g"},
		{40, "f"},
		{75, "C"},
		{500, "<module>"},
	}
	for _, tt := range tests {
		sc, err := s.ScopeAt(f.ID, tt.offset)
		require.NoError(t, err)
		require.NotNil(t, sc)
		assert.Equal(t, tt.want, sc.Name, "offset %d", tt.offset)
	}

	byIndex, err := s.ScopeByIndex(f.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "C", byIndex.Name)
	none, err := s.ScopeByIndex(f.ID, 9)
	require.NoError(t, err)
	assert.Nil(t, none)

	byID, err := s.ScopeByID(fn.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "f", byID.Name)
	missing, err := s.ScopeByID(fn.ID + 1000)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestScopeAtPosition(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/pos.py")

	root := &Scope{FileID: f.ID, ScopeIndex: 0, Kind: "module", NodeKind: "module", Name: "<module>",
		StartLine: 1, StartCol: 1, EndLine: 10, EndCol: 1,
		RegionStartLine: 1, RegionStartCol: 1, RegionEndLine: 10, RegionEndCol: 1,
		DescendantsStart: 1, DescendantsEnd: 2}
	_, err := s.InsertScope(root)
	require.NoError(t, err)
	// def f spans 2:1 up to (not including) 4:5; its body starts at 3:5.
	_, err = s.InsertScope(&Scope{FileID: f.ID, ScopeIndex: 1, ParentScopeID: &root.ID, Kind: "function", NodeKind: "function", Name: "f",
		StartLine: 2, StartCol: 1, EndLine: 4, EndCol: 5,
		RegionStartLine: 3, RegionStartCol: 5, RegionEndLine: 4, RegionEndCol: 5,
		DescendantsStart: 2, DescendantsEnd: 2})
	require.NoError(t, err)

	tests := []struct {
		line, col int
		want      string
	}{
		{1, 1, "<module>"},
		{2, 1, "<module>"},
		{2, 9, "<module>"},
		{3, 5, "f"},
		{3, 80, "f"},
		{4, 4, "f"},
		{4, 5, "<module>"},
		{12, 1, "<module>"},
	}
	for _, tt := range tests {
		sc, err := s.ScopeAtPosition(f.ID, tt.line, tt.col)
		require.NoError(t, err)
		require.NotNil(t, sc)
		assert.Equal(t, tt.want, sc.Name, "%d:%d", tt.line, tt.col)
	}

	none, err := s.ScopeAtPosition(f.ID+1, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSymbols_QueriesAndFlags(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/m.py")
	root := insertTestScope(t, s, f.ID, 0, nil, "module", "<module>", 0, 100)

	x := insertTestSymbol(t, s, f.ID, root.ID, 0, "x", "used", "defined")
	insertTestSymbol(t, s, f.ID, root.ID, 1, "print", "used")

	syms, err := s.SymbolsByScope(root.ID)
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, "x", syms[0].Name)
	assert.Equal(t, []string{"used", "defined"}, syms[0].Flags)
	assert.True(t, syms[0].IsDefined())
	assert.False(t, syms[1].IsDefined())

	named, err := s.SymbolsByName("x")
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, x.ID, named[0].ID)

	got, err := s.SymbolInScope(root.ID, "print")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsUsed())

	for i, kind := range []string{"target", "function"} {
		_, err := s.InsertDefinition(&Definition{SymbolID: x.ID, Ordinal: i, Kind: kind, LocalID: int64(i)})
		require.NoError(t, err)
	}
	defs, err := s.DefinitionsBySymbol(x.ID)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "target", defs[0].Kind)
	assert.Equal(t, "function", defs[1].Kind)
}

func TestResolveName_SkipsEnclosingClassScopes(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/m.py")
	root := insertTestScope(t, s, f.ID, 0, nil, "module", "<module>", 0, 100)
	cls := insertTestScope(t, s, f.ID, 1, ptr(root.ID), "class", "C", 10, 90)
	method := insertTestScope(t, s, f.ID, 2, ptr(cls.ID), "function", "m", 20, 80)

	insertTestSymbol(t, s, f.ID, root.ID, 0, "size", "defined")
	insertTestSymbol(t, s, f.ID, cls.ID, 0, "size", "defined")
	insertTestSymbol(t, s, f.ID, method.ID, 0, "size", "used")

	sym, sc, err := s.ResolveName(method.ID, "size")
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, root.ID, sc.ID, "class attributes are not visible from methods")

	sym, sc, err = s.ResolveName(cls.ID, "size")
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, cls.ID, sc.ID)

	sym, _, err = s.ResolveName(method.ID, "unbound")
	require.NoError(t, err)
	assert.Nil(t, sym)
}

// =============================================================================
// Imports, snapshots, deletion
// =============================================================================

func TestFilesImportingModule(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestFile(t, s, "/a.py")
	b := insertTestFile(t, s, "/b.py")
	c := insertTestFile(t, s, "/c.py")
	roots := map[int64]*Scope{}
	for _, f := range []*File{a, b, c} {
		roots[f.ID] = insertTestScope(t, s, f.ID, 0, nil, "module", "<module>", 0, 10)
	}
	for _, tt := range []struct {
		file   *File
		module string
		level  int
	}{
		{a, "pkg", 0},
		{b, "pkg.sub", 0},
		{c, "pkgx", 0},
		{c, "pkg", 1},
	} {
		_, err := s.InsertImport(&Import{
			FileID: tt.file.ID, ScopeID: roots[tt.file.ID].ID,
			Module: tt.module, Name: "x", BoundName: "x", Level: tt.level,
		})
		require.NoError(t, err)
	}

	ids, err := s.FilesImportingModule("pkg")
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids)

	files, err := s.FilesByIDs(ids)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/a.py", files[0].Path)

	all, err := s.AllImports()
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, a.ID, all[0].FileID)
}

func TestFilesByModule(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	for _, f := range []*File{
		{Path: "pkg/__init__.py", Module: "pkg", Hash: "1"},
		{Path: "pkg/sub.py", Module: "pkg.sub", Hash: "2"},
		{Path: "loose.py", Hash: "3"},
	} {
		_, err := s.InsertFile(f)
		require.NoError(t, err)
	}

	files, err := s.FilesByModule("pkg")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "pkg/__init__.py", files[0].Path)
	assert.Equal(t, "pkg", files[0].Module)

	none, err := s.FilesByModule("missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	loose, err := s.FileByPath("loose.py")
	require.NoError(t, err)
	assert.Empty(t, loose.Module)
}

func TestSnapshot_PutReplaces(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.py")

	none, err := s.SnapshotByFile(f.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, s.PutSnapshot(&Snapshot{FileID: f.ID, Schema: 1, Data: []byte{1, 2}}))
	require.NoError(t, s.PutSnapshot(&Snapshot{FileID: f.ID, Schema: 1, Data: []byte{3}}))

	snap, err := s.SnapshotByFile(f.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, []byte{3}, snap.Data)
}

func TestDeleteFileData_RemovesDerivedRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.py")
	other := insertTestFile(t, s, "/b.py")

	root := insertTestScope(t, s, f.ID, 0, nil, "module", "<module>", 0, 50)
	child := insertTestScope(t, s, f.ID, 1, ptr(root.ID), "function", "f", 5, 20)
	sym := insertTestSymbol(t, s, f.ID, child.ID, 0, "y", "defined")
	_, err := s.InsertDefinition(&Definition{SymbolID: sym.ID, Kind: "target"})
	require.NoError(t, err)
	_, err = s.InsertImport(&Import{FileID: f.ID, ScopeID: root.ID, Module: "os", Name: "os", BoundName: "os"})
	require.NoError(t, err)
	require.NoError(t, s.PutSnapshot(&Snapshot{FileID: f.ID, Schema: 1, Data: []byte{1}}))

	otherRoot := insertTestScope(t, s, other.ID, 0, nil, "module", "<module>", 0, 10)
	insertTestSymbol(t, s, other.ID, otherRoot.ID, 0, "z", "defined")

	require.NoError(t, s.DeleteFileData(f.ID))

	for _, table := range []string{"scopes", "symbols", "imports", "snapshots"} {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE file_id = ?", f.ID).Scan(&n))
		assert.Zero(t, n, table)
	}
	var defs int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM definitions").Scan(&defs))
	assert.Zero(t, defs)

	kept, err := s.SymbolsByName("z")
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	stillThere, err := s.FileByPath("/a.py")
	require.NoError(t, err)
	assert.NotNil(t, stillThere)

	require.NoError(t, s.DeleteFile(f.ID))
	gone, err := s.FileByPath("/a.py")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
