package query_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pyscope/internal/parser"
	"github.com/jward/pyscope/internal/runtime"
	"github.com/jward/pyscope/internal/semantic"
	"github.com/jward/pyscope/scripts"
)

const source = `import os

def outer():
    count = 0
    unused = 1
    def inner():
        return count + len(os.sep)
    return inner

class K:
    attr = 1
    def m(self):
        return attr
`

// findModuleRoot walks up from cwd to find go.mod, returning the repo root.
func findModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find module root")
		}
		dir = parent
	}
}

func buildIndex(t *testing.T) *semantic.Index {
	t.Helper()
	mod, err := parser.Parse(context.Background(), "fixture.py", []byte(source))
	require.NoError(t, err)
	idx, err := semantic.BuildChecked(mod)
	require.NoError(t, err)
	return idx
}

func runQuery(t *testing.T, name string) []any {
	t.Helper()
	rt := runtime.NewRuntime(filepath.Join(findModuleRoot(t), "scripts", "query"))
	out, err := rt.RunScript(context.Background(), name+".risor", buildIndex(t))
	require.NoError(t, err)
	return out
}

func TestUnusedLocals(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []any{"outer.unused"}, runQuery(t, "unused_locals"))
}

func TestFreeNames(t *testing.T) {
	t.Parallel()
	// attr is a class attribute, invisible from the method body.
	assert.Equal(t, []any{"inner: len", "m: attr"}, runQuery(t, "free_names"))
}

func TestScopeTree(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []any{
		"module <module>",
		"  function outer",
		"    function inner",
		"  class K",
		"    function m",
	}, runQuery(t, "scope_tree"))
}

func TestEmbeddedScriptsMatchDisk(t *testing.T) {
	t.Parallel()
	rt := runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS))
	for _, name := range []string{"unused_locals", "free_names", "scope_tree"} {
		out, err := rt.RunScript(context.Background(), "query/"+name+".risor", buildIndex(t))
		require.NoError(t, err, name)
		assert.Equal(t, runQuery(t, name), out, name)
	}
}
