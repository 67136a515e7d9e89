package pyscope

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pyscope/internal/store"
)

func newTestQueryBuilder(t *testing.T) (*QueryBuilder, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return &QueryBuilder{store: s}, s
}

// coreSource is pkg/core.py of the query fixture. Scope indexes: 0 module,
// 1 run, 2 inner, 3 Runner, 4 go.
const coreSource = `import os
from . import util

LIMIT = 10

def run(items):
    total = 0
    unused = 1
    for item in items:
        total += item
    def inner():
        return total
    return inner

class Runner:
    name = "r"
    def go(self):
        return LIMIT
`

// queryFixture indexes a small package and returns its root and a
// QueryBuilder over it.
//
//	main.py          imports pkg.core and json
//	pkg/__init__.py  re-exports run from .core
//	pkg/core.py      coreSource; imports os and .util
//	pkg/util.py      imports core from pkg (a cycle with pkg.core)
func queryFixture(t *testing.T) (string, *QueryBuilder) {
	t.Helper()
	root := t.TempDir()
	writePy(t, root, "main.py", "import pkg.core\nimport json\n")
	writePy(t, root, "pkg/__init__.py", "from .core import run\n")
	writePy(t, root, "pkg/core.py", coreSource)
	writePy(t, root, "pkg/util.py", "from pkg import core\n\ndef helper():\n    pass\n")

	e := newTestEngine(t)
	require.NoError(t, e.IndexDirectory(context.Background(), root))
	return root, e.Query()
}

func symbolNames(syms []*store.Symbol) []string {
	names := make([]string, 0, len(syms))
	for _, s := range syms {
		names = append(names, s.Name)
	}
	return names
}

func TestFiles_OrderedByPath(t *testing.T) {
	root, q := queryFixture(t)

	files, err := q.Files()
	require.NoError(t, err)
	var rels []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"main.py", "pkg/__init__.py", "pkg/core.py", "pkg/util.py"}, rels)
}

func TestScopes_PreOrder(t *testing.T) {
	root, q := queryFixture(t)

	scopes, err := q.Scopes(filepath.Join(root, "pkg", "core.py"))
	require.NoError(t, err)
	var names []string
	for _, sc := range scopes {
		names = append(names, sc.Name)
	}
	assert.Equal(t, []string{"<module>", "run", "inner", "Runner", "go"}, names)
}

func TestScopeAt_InnermostScope(t *testing.T) {
	root, q := queryFixture(t)
	core := filepath.Join(root, "pkg", "core.py")

	tests := []struct {
		line, col int
		want      string
	}{
		{1, 1, "<module>"},
		{7, 5, "run"},
		{12, 16, "inner"},
		{16, 5, "Runner"},
		{18, 9, "go"},
	}
	for _, tt := range tests {
		sc, err := q.ScopeAt(core, tt.line, tt.col)
		require.NoError(t, err)
		require.NotNil(t, sc)
		assert.Equal(t, tt.want, sc.Name, "%d:%d", tt.line, tt.col)
	}
}

func TestScopeAt_NoFile(t *testing.T) {
	q, _ := newTestQueryBuilder(t)
	sc, err := q.ScopeAt("/missing.py", 1, 1)
	require.NoError(t, err)
	assert.Nil(t, sc)

	chain, err := q.ScopeChain("/missing.py", 1, 1)
	require.NoError(t, err)
	assert.Nil(t, chain)
}

func TestScopeChain_InnermostFirst(t *testing.T) {
	root, q := queryFixture(t)

	chain, err := q.ScopeChain(filepath.Join(root, "pkg", "core.py"), 12, 16)
	require.NoError(t, err)
	var names []string
	for _, sc := range chain {
		names = append(names, sc.Name)
	}
	assert.Equal(t, []string{"inner", "run", "<module>"}, names)
}

func TestSymbols_ByScope(t *testing.T) {
	root, q := queryFixture(t)
	core := filepath.Join(root, "pkg", "core.py")

	syms, err := q.Symbols(core, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"os", "util", "LIMIT", "run", "Runner"}, symbolNames(syms))

	syms, err = q.Symbols(core, 2)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "total", syms[0].Name)
	assert.True(t, syms[0].IsUsed())
	assert.False(t, syms[0].IsDefined())

	syms, err = q.Symbols(core, 99)
	require.NoError(t, err)
	assert.Nil(t, syms)

	syms, err = q.Symbols("/missing.py", 0)
	require.NoError(t, err)
	assert.Nil(t, syms)
}

func TestSymbolsNamed_AcrossFiles(t *testing.T) {
	_, q := queryFixture(t)

	syms, err := q.SymbolsNamed("run")
	require.NoError(t, err)
	assert.Len(t, syms, 2, "pkg/__init__ binds run by import and pkg/core defines it")

	defs, err := q.Definitions(syms[0].ID)
	require.NoError(t, err)
	require.Len(t, defs, 1)
}

func TestResolve_WalksEnclosingFunctionScopes(t *testing.T) {
	root, q := queryFixture(t)
	core := filepath.Join(root, "pkg", "core.py")

	b, err := q.Resolve(core, 12, 16, "total")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "total", b.Symbol.Name)
	assert.Equal(t, "run", b.Scope.Name)
	assert.Equal(t, core, b.Location.File)
	assert.Equal(t, 6, b.Location.StartLine)
	require.NotEmpty(t, b.Definitions)
	assert.Equal(t, "target", b.Definitions[0].Kind)
}

func TestResolve_SkipsClassScopes(t *testing.T) {
	root, q := queryFixture(t)
	core := filepath.Join(root, "pkg", "core.py")

	b, err := q.Resolve(core, 18, 16, "LIMIT")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "<module>", b.Scope.Name)

	// Class attributes are invisible from method bodies.
	b, err = q.Resolve(core, 18, 16, "name")
	require.NoError(t, err)
	assert.Nil(t, b)

	// But visible from the class body itself.
	b, err = q.Resolve(core, 16, 5, "name")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "Runner", b.Scope.Name)
}

func TestResolve_DefaultsAndBasesSeeEnclosingScope(t *testing.T) {
	e := newTestEngine(t)
	path := writePy(t, t.TempDir(), "shadow.py", "x = 1\ndef f(a=x):\n    x = 2\nclass C(x):\n    x = 3\n")
	_, err := e.IndexFile(context.Background(), path)
	require.NoError(t, err)
	q := e.Query()

	tests := []struct {
		name      string
		line, col int
		want      string
	}{
		{"default value", 2, 9, "<module>"},
		{"function body", 3, 5, "f"},
		{"base class", 4, 9, "<module>"},
		{"class body", 5, 5, "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := q.Resolve(path, tt.line, tt.col, "x")
			require.NoError(t, err)
			require.NotNil(t, b)
			assert.Equal(t, tt.want, b.Scope.Name)
		})
	}

	sc, err := q.ScopeAt(path, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "<module>", sc.Name, "a def header is evaluated in the enclosing scope")
}

func TestResolve_Unbound(t *testing.T) {
	root, q := queryFixture(t)

	b, err := q.Resolve(filepath.Join(root, "pkg", "core.py"), 7, 5, "nope")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = q.Resolve("/missing.py", 1, 1, "x")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestDependencies(t *testing.T) {
	root, q := queryFixture(t)

	imports, err := q.Dependencies(filepath.Join(root, "pkg", "core.py"))
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, "os", imports[0].Module)
	assert.Equal(t, 0, imports[0].Level)
	assert.Equal(t, "", imports[1].Module)
	assert.Equal(t, "util", imports[1].Name)
	assert.Equal(t, "util", imports[1].BoundName)
	assert.Equal(t, 1, imports[1].Level)
}

func TestDependents(t *testing.T) {
	root, q := queryFixture(t)

	files, err := q.Dependents("pkg")
	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	// pkg/__init__.py is pkg itself; pkg/core.py imports pkg.util relatively.
	assert.Equal(t, []string{
		filepath.Join(root, "main.py"),
		filepath.Join(root, "pkg", "core.py"),
		filepath.Join(root, "pkg", "util.py"),
	}, paths)

	files, err = q.Dependents("nothing")
	require.NoError(t, err)
	assert.Empty(t, files)
}
