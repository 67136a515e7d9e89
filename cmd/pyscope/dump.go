package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/pyscope/internal/ast"
	"github.com/jward/pyscope/internal/parser"
	"github.com/jward/pyscope/internal/render"
	"github.com/jward/pyscope/internal/semantic"
)

var flagSpans bool

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the scope tree and symbol tables of a Python file",
	Long:  "Parses and indexes one file without touching the database, then prints every scope in pre-order with its symbols, flags and definitions.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Show how the semantic index changes between two Python files",
	Long:  "Dumps both files and prints a unified diff of the dumps. Prints nothing when the indexes are equal.",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func init() {
	dumpCmd.Flags().BoolVar(&flagSpans, "spans", false, "add line:column spans to each scope")
	diffCmd.Flags().BoolVar(&flagSpans, "spans", false, "add line:column spans to each scope")
}

func runDump(cmd *cobra.Command, args []string) error {
	idx, mod, err := buildFile(cmd.Context(), args[0])
	if err != nil {
		return outputError("dump", err)
	}
	opts := render.Options{Color: flagFormat == "text" && useColor(flagColor, os.Stdout)}
	if flagSpans {
		opts.Module = mod
	}
	if flagFormat == "text" {
		return render.Dump(os.Stdout, idx, opts)
	}
	out, err := render.String(idx, opts.Module)
	if err != nil {
		return outputError("dump", err)
	}
	return outputResult(CLIResult{Command: "dump", Results: out})
}

func runDiff(cmd *cobra.Command, args []string) error {
	dumps := make([]string, 2)
	for i, path := range args {
		idx, mod, err := buildFile(cmd.Context(), path)
		if err != nil {
			return outputError("diff", err)
		}
		var spans *ast.Module
		if flagSpans {
			spans = mod
		}
		dumps[i], err = render.String(idx, spans)
		if err != nil {
			return outputError("diff", err)
		}
	}
	d, err := render.Diff(args[0], args[1], dumps[0], dumps[1])
	if err != nil {
		return outputError("diff", err)
	}
	if flagFormat == "text" {
		fmt.Fprint(os.Stdout, d)
		return nil
	}
	return outputResult(CLIResult{Command: "diff", Results: d})
}

// buildFile parses and indexes a file in memory.
func buildFile(ctx context.Context, path string) (*semantic.Index, *ast.Module, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	mod, err := parser.Parse(ctx, path, src)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if mod.HasSyntaxErrors {
		logger.Warn("file has syntax errors", "path", path)
	}
	idx, err := semantic.BuildChecked(mod)
	if err != nil {
		return nil, nil, fmt.Errorf("indexing %s: %w", path, err)
	}
	return idx, mod, nil
}
