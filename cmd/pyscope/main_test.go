package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pyscope"
	"github.com/jward/pyscope/internal/config"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findRepoRoot(root))
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "sub", "deep")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findRepoRoot(deep))
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	assert.Equal(t, dir, findRepoRoot(dir))
}

// The tests below touch package-level flag state and do not run in
// parallel.

func TestResolveDBPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	sub := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(sub, 0o755))

	t.Cleanup(func() {
		flagDB = ""
		cfg = config.Default()
	})

	t.Run("default at repo root", func(t *testing.T) {
		flagDB, cfg = "", config.Default()
		got, err := resolveDBPath(sub)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, ".pyscope", "index.db"), got)
	})

	t.Run("config relative to its file", func(t *testing.T) {
		flagDB = ""
		cfg = config.Default()
		cfg.Path = filepath.Join(sub, config.FileName)
		cfg.Index.Database = "out/x.db"
		got, err := resolveDBPath(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(sub, "out", "x.db"), got)
	})

	t.Run("flag wins", func(t *testing.T) {
		flagDB = filepath.Join(root, "flag.db")
		cfg = config.Default()
		cfg.Path = filepath.Join(sub, config.FileName)
		got, err := resolveDBPath(sub)
		require.NoError(t, err)
		assert.Equal(t, flagDB, got)
	})
}

func TestParseIntArg(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseIntArg(tt.in, "line")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSort(t *testing.T) {
	t.Cleanup(func() { flagSort, flagOrder = "", "asc" })

	flagSort, flagOrder = "definitions", "desc"
	assert.Equal(t, pyscope.Sort{Field: pyscope.SortByDefinitions, Order: pyscope.Desc}, buildSort())

	flagSort, flagOrder = "bogus", ""
	assert.Equal(t, pyscope.Sort{Field: pyscope.SortByName, Order: pyscope.Asc}, buildSort())
}

func TestValidateFlags(t *testing.T) {
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("yaml"))

	assert.NoError(t, validateColor("auto"))
	assert.NoError(t, validateColor("never"))
	assert.Error(t, validateColor("sometimes"))
}

func TestUseColor(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, useColor(config.ColorAlways, f))
	assert.False(t, useColor(config.ColorNever, f))
	assert.False(t, useColor(config.ColorAuto, f), "a regular file is not a terminal")
}

func TestOutputResultText(t *testing.T) {
	var buf bytes.Buffer
	total := 3
	err := outputResultText(&buf, CLIResult{
		Command: "symbols",
		Results: []CLISymbol{
			{ID: 7, Name: "total", Flags: []string{"used", "defined"}, Scope: "run", ScopeKind: "function", ScopeIndex: 1, File: "a.py", Definitions: 2},
		},
		TotalCount: &total,
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "used,defined")
	assert.Contains(t, out, "function run (#1)")
	assert.Contains(t, out, "Showing 1 of 3 results")

	buf.Reset()
	require.NoError(t, outputResultText(&buf, CLIResult{Command: "cycles", Results: []CLICycle{{Modules: []string{"a", "b", "a"}}}}))
	assert.Equal(t, "a -> b -> a\n", buf.String())

	buf.Reset()
	require.NoError(t, outputResultText(&buf, CLIResult{Command: "resolve"}))
	assert.Empty(t, buf.String())

	assert.Error(t, outputResultText(&buf, CLIResult{Results: 3.5}))
}

func TestFormatTreeText(t *testing.T) {
	var buf bytes.Buffer
	formatTreeText(&buf, CLIScopeNode{
		Scope:   CLIScope{Kind: "module", Name: "<module>", StartLine: 1, StartCol: 1, EndLine: 3, EndCol: 1},
		Symbols: []CLISymbol{{Name: "f", Flags: []string{"defined"}}},
		Children: []CLIScopeNode{{
			Scope:   CLIScope{Kind: "function", Name: "f", StartLine: 1, StartCol: 1, EndLine: 2, EndCol: 9},
			Symbols: []CLISymbol{{Name: "x", Flags: nil}},
		}},
	}, 0)
	assert.Equal(t, "module <module> 1:1-3:1\n  f defined\n  function f 1:1-2:9\n    x -\n", buf.String())
}

func TestScriptSource(t *testing.T) {
	t.Parallel()

	dir, fsys, name, err := scriptSource("unused_locals")
	require.NoError(t, err)
	assert.Empty(t, dir)
	assert.NotNil(t, fsys)
	assert.Equal(t, "query/unused_locals.risor", name)

	_, _, name, err = scriptSource("scope_tree.risor")
	require.NoError(t, err)
	assert.Equal(t, "query/scope_tree.risor", name)

	path := filepath.Join(t.TempDir(), "mine.risor")
	require.NoError(t, os.WriteFile(path, []byte(`emit(1)`), 0o644))
	dir, fsys, name, err = scriptSource(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(path), dir)
	assert.Nil(t, fsys)
	assert.Equal(t, "mine.risor", name)

	_, _, _, err = scriptSource("no_such_script")
	assert.ErrorContains(t, err, "script not found")
}
