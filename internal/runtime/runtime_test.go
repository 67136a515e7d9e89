package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pyscope/internal/parser"
	"github.com/jward/pyscope/internal/semantic"
	"github.com/jward/pyscope/internal/store"
)

const pySource = `import os
x = 1
def f(a):
    y = x
class C:
    z = 2
`

func buildIndex(t *testing.T, src string) *semantic.Index {
	t.Helper()
	mod, err := parser.Parse(context.Background(), "test.py", []byte(src))
	require.NoError(t, err)
	idx, err := semantic.BuildChecked(mod)
	require.NoError(t, err)
	return idx
}

func run(t *testing.T, rt *Runtime, script string, idx *semantic.Index) []any {
	t.Helper()
	out, err := rt.RunSource(context.Background(), script, idx)
	require.NoError(t, err)
	return out
}

// --- Index host functions ---

func TestRunSource_Scopes(t *testing.T) {
	t.Parallel()
	idx := buildIndex(t, pySource)

	out := run(t, NewRuntime(""), `
ss := scopes()
emit(len(ss))
for _, s := range ss {
    emit(s["name"] + ":" + s["kind"])
}
emit(ss[0]["parent"] == nil)
emit(ss[1]["parent"])
`, idx)

	require.Len(t, out, 6)
	assert.Equal(t, int64(3), out[0])
	assert.Equal(t, "<module>:module", out[1])
	assert.Equal(t, "f:function", out[2])
	assert.Equal(t, "C:class", out[3])
	assert.Equal(t, true, out[4])
	assert.Equal(t, int64(0), out[5])
}

func TestRunSource_SymbolsAndLookup(t *testing.T) {
	t.Parallel()
	idx := buildIndex(t, pySource)

	out := run(t, NewRuntime(""), `
names := []
for _, sym := range symbols(0) {
    names.append(sym["name"])
}
emit(names)

x := lookup(0, "x")
emit(x["defined"])
emit(x["used"])
emit(lookup(1, "x")["used"])
emit(lookup(1, "a") == nil)
emit(lookup(0, "missing") == nil)
`, idx)

	require.Len(t, out, 6)
	assert.Equal(t, []any{"os", "x", "f", "C"}, out[0])
	assert.Equal(t, true, out[1])
	assert.Equal(t, false, out[2])
	assert.Equal(t, true, out[3])
	assert.Equal(t, true, out[4], "parameters are not bound as symbols")
	assert.Equal(t, true, out[5])
}

func TestRunSource_TreeNavigation(t *testing.T) {
	t.Parallel()
	idx := buildIndex(t, pySource)

	out := run(t, NewRuntime(""), `
kids := []
for _, s := range children(0) {
    kids.append(s["id"])
}
emit(kids)

chain := []
for _, s := range ancestors(1) {
    chain.append(s["id"])
}
emit(chain)
emit(len(descendants(0)))
emit(len(descendants(2)))
`, idx)

	require.Len(t, out, 4)
	assert.Equal(t, []any{int64(1), int64(2)}, out[0])
	assert.Equal(t, []any{int64(1), int64(0)}, out[1])
	assert.Equal(t, int64(2), out[2])
	assert.Equal(t, int64(0), out[3])
}

func TestRunSource_PublicSymbol(t *testing.T) {
	t.Parallel()
	idx := buildIndex(t, pySource)

	out := run(t, NewRuntime(""), `
emit(public_symbol("os")["definitions"])
emit(public_symbol("f")["definitions"])
emit(public_symbol("C")["flags"])
emit(public_symbol("y") == nil)
`, idx)

	require.Len(t, out, 4)
	assert.Equal(t, []any{"import(0)"}, out[0])
	assert.Equal(t, []any{"function(0)"}, out[1])
	assert.Equal(t, []any{"defined"}, out[2])
	assert.Equal(t, true, out[3], "y is local to f")
}

func TestRunSource_ScopeAt(t *testing.T) {
	t.Parallel()
	idx := buildIndex(t, pySource)
	inF := strings.Index(pySource, "y = x")
	inC := strings.Index(pySource, "z = 2")
	header := strings.Index(pySource, "(a)")

	out := run(t, NewRuntime(""), fmt.Sprintf(`
emit(scope_at(%d))
emit(scope_at(%d))
emit(scope_at(0))
emit(scope(scope_at(%d))["name"])
emit(scope_at(%d))
emit(scope(1)["region_start"])
`, inF, inC, inC, header), idx)

	require.Len(t, out, 6)
	assert.Equal(t, int64(1), out[0])
	assert.Equal(t, int64(2), out[1])
	assert.Equal(t, int64(0), out[2])
	assert.Equal(t, "C", out[3])
	assert.Equal(t, int64(0), out[4], "the parameter list is not inside the function body")
	assert.Equal(t, int64(inF), out[5])
}

func TestRunSource_HostFunctionErrors(t *testing.T) {
	t.Parallel()
	idx := buildIndex(t, pySource)
	rt := NewRuntime("")

	tests := []struct {
		name   string
		script string
	}{
		{"scope out of range", `symbols(99)`},
		{"negative scope", `children(-1)`},
		{"wrong arity", `lookup(0)`},
		{"wrong type", `lookup("0", "x")`},
		{"name must be string", `public_symbol(1)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.RunSource(context.Background(), tt.script, idx)
			require.Error(t, err)
		})
	}
}

func TestRunSource_NilIndexHasNoIndexGlobals(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	_, err := rt.RunSource(context.Background(), `scopes()`, nil)
	require.Error(t, err)

	out, err := rt.RunSource(context.Background(), `emit(1 + 2)`, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3)}, out)
}

func TestRunSource_EmitIsPerRun(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	first := run(t, rt, `emit("a")`, nil)
	second := run(t, rt, `emit("b")`, nil)
	assert.Equal(t, []any{"a"}, first)
	assert.Equal(t, []any{"b"}, second)
}

// --- Store host functions ---

func TestRunSource_StoreFunctions(t *testing.T) {
	t.Parallel()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())

	f := &store.File{Path: "pkg/app.py", Hash: "h", LineCount: 3, LastIndexed: time.Now()}
	_, err = s.InsertFile(f)
	require.NoError(t, err)
	root := &store.Scope{FileID: f.ID, ScopeIndex: 0, Kind: "module", NodeKind: "module", Name: "<module>", EndOffset: 30, DescendantsStart: 1, DescendantsEnd: 2}
	_, err = s.InsertScope(root)
	require.NoError(t, err)
	fn := &store.Scope{FileID: f.ID, ScopeIndex: 1, ParentScopeID: &root.ID, Kind: "function", NodeKind: "function", Name: "f", StartOffset: 10, EndOffset: 30, DescendantsStart: 2, DescendantsEnd: 2}
	_, err = s.InsertScope(fn)
	require.NoError(t, err)
	_, err = s.InsertSymbol(&store.Symbol{FileID: f.ID, ScopeID: root.ID, Name: "os", Flags: []string{"defined"}})
	require.NoError(t, err)
	_, err = s.InsertImport(&store.Import{FileID: f.ID, ScopeID: root.ID, Module: "os.path", Name: "os.path", BoundName: "os"})
	require.NoError(t, err)

	rt := NewRuntime("", WithStore(s))
	out := run(t, rt, fmt.Sprintf(`
emit(len(files()))
emit(files()[0]["path"])
emit(len(importers("os")))
emit(len(importers("sys")))
hit := resolve(%d, "os")
emit(hit["scope_index"])
emit(hit["symbol"]["name"])
emit(resolve(%d, "missing") == nil)
`, fn.ID, fn.ID), nil)

	require.Len(t, out, 7)
	assert.Equal(t, int64(1), out[0])
	assert.Equal(t, "pkg/app.py", out[1])
	assert.Equal(t, int64(1), out[2])
	assert.Equal(t, int64(0), out[3])
	assert.Equal(t, int64(0), out[4])
	assert.Equal(t, "os", out[5])
	assert.Equal(t, true, out[6])
}

// --- Script loading ---

func TestRunScript_LoadsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "count.risor"), []byte(`emit(len(scopes()))`), 0o644))

	out, err := NewRuntime(dir).RunScript(context.Background(), "count.risor", buildIndex(t, pySource))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3)}, out)
}

func TestRunScript_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := NewRuntime(t.TempDir()).RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestRunScript_SyntaxErrorIsWrapped(t *testing.T) {
	t.Parallel()
	_, err := NewRuntime("").RunSource(context.Background(), `x := (`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime: script <inline>")
}

func TestLoadScript(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.risor")
	content := `x := 42`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := NewRuntime(dir).LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()
	content := `x := 42`
	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{
		"queries/unused.risor": &fstest.MapFile{Data: []byte(content)},
	}))

	got, err := rt.LoadScript("queries/unused.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Absolute-style paths resolve within the FS.
	got, err = rt.LoadScript("/queries/unused.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = rt.LoadScript("missing.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

// --- Importer wiring ---

func TestImport_FSImporter(t *testing.T) {
	t.Parallel()
	// FSImporter resolves "helpers" by trying name + ".risor" at the FS root.
	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{
		"helpers.risor": &fstest.MapFile{Data: []byte(`
func defined_names(scope) {
	out := []
	for _, sym := range symbols(scope) {
		if sym["defined"] {
			out.append(sym["name"])
		}
	}
	return out
}
`)},
	}))

	out := run(t, rt, `
import helpers
emit(helpers.defined_names(2))
`, buildIndex(t, pySource))
	assert.Equal(t, []any{[]any{"z"}}, out)
}

func TestImport_LocalImporter(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0o644))

	out := run(t, NewRuntime(dir), `
import math_utils
emit(math_utils.double(21))
`, nil)
	assert.Equal(t, []any{int64(42)}, out)
}

func TestImport_LogAvailableInImportedModules(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{
		"helper.risor": &fstest.MapFile{Data: []byte(`
func do_log(msg) {
	log.Info(msg)
}
`)},
	}))

	run(t, rt, `
import helper
helper.do_log("test message")
`, nil)
}

func TestNewRuntime_Options(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("/some/dir")
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.Nil(t, rt.store)
	assert.NotNil(t, rt.logger)
	assert.Equal(t, "/some/dir", rt.scriptsDir)

	rt = NewRuntime("", WithLogger(nil))
	assert.NotNil(t, rt.logger, "nil logger keeps the discard default")
}
