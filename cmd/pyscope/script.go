package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/pyscope/internal/runtime"
	"github.com/jward/pyscope/scripts"
)

var scriptCmd = &cobra.Command{
	Use:   "script <script.risor|name> <file>",
	Short: "Run a Risor query script against the index of a Python file",
	Long: `Indexes <file> into the database and runs a Risor script over its index.
The first argument is a path to a .risor file, or the name of a bundled
script: unused_locals, free_names, scope_tree. Values passed to emit() are
printed one per line, or as the JSON results array.`,
	Args: cobra.ExactArgs(2),
	RunE: runScript,
}

func runScript(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	file, err := resolveFilePath(args[1])
	if err != nil {
		return outputError("script", err)
	}
	engine, _, err := openEngine(filepath.Dir(file))
	if err != nil {
		return outputError("script", err)
	}
	defer engine.Close()

	idx, err := engine.IndexFile(ctx, file)
	if err != nil {
		return outputError("script", err)
	}

	dir, fsys, name, err := scriptSource(args[0])
	if err != nil {
		return outputError("script", err)
	}
	opts := []runtime.RuntimeOption{runtime.WithStore(engine.Store()), runtime.WithLogger(logger)}
	if fsys != nil {
		opts = append(opts, runtime.WithRuntimeFS(fsys))
	}
	out, err := runtime.NewRuntime(dir, opts...).RunScript(ctx, name, idx)
	if err != nil {
		return outputError("script", err)
	}
	if out == nil {
		out = []any{}
	}
	if flagFormat == "text" {
		for _, v := range out {
			fmt.Fprintln(os.Stdout, v)
		}
		return nil
	}
	return outputResult(CLIResult{Command: "script", Results: out, TotalCount: intPtr(len(out))})
}

// scriptSource picks where a script is loaded from. An existing path runs
// from its directory on disk so its imports resolve next to it; anything
// else names a bundled script in scripts.FS.
func scriptSource(arg string) (dir string, fsys fs.FS, name string, err error) {
	if info, statErr := os.Stat(arg); statErr == nil && !info.IsDir() {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return "", nil, "", fmt.Errorf("resolving script %q: %w", arg, err)
		}
		return filepath.Dir(abs), nil, filepath.Base(abs), nil
	}

	name = "query/" + strings.TrimSuffix(arg, ".risor") + ".risor"
	if _, err := fs.Stat(scripts.FS, name); err != nil {
		return "", nil, "", fmt.Errorf("script not found: %s (not a file or a bundled script)", arg)
	}
	return "", scripts.FS, name, nil
}
