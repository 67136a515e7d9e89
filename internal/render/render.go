// Package render prints a semantic index as an indented scope tree and
// diffs two such dumps.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	difflib "github.com/pmezard/go-difflib/difflib"

	"github.com/jward/pyscope/internal/ast"
	"github.com/jward/pyscope/internal/semantic"
)

// Options controls Dump output.
type Options struct {
	// Color enables ANSI styling. Callers decide (config, terminal check).
	Color bool
	// Module, when set, adds line:column spans to each scope header.
	Module *ast.Module
}

type palette struct {
	scope, kind, name, flags, def *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		scope: color.New(color.FgCyan, color.Bold),
		kind:  color.New(color.FgYellow),
		name:  color.New(color.FgGreen),
		flags: color.New(color.FgMagenta),
		def:   color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.scope, p.kind, p.name, p.flags, p.def} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Dump writes every scope of idx in pre-order, indented by depth, followed
// by its symbols.
//
//	scope 1 function "f" function(0:0) descendants=[2,2) 3:1-5:12
//	  x used,defined [target(0) target(2)]
func Dump(w io.Writer, idx *semantic.Index, opts Options) error {
	p := newPalette(opts.Color)
	depth := make([]int, idx.ScopeCount())
	for id, s := range idx.Scopes() {
		if parent, ok := s.Parent(); ok {
			depth[id] = depth[parent] + 1
		}
		indent := strings.Repeat("  ", depth[id])
		d := s.Descendants()
		header := fmt.Sprintf("%s%s %s %s %s descendants=[%d,%d)",
			indent,
			p.scope.Sprintf("scope %d", id),
			p.kind.Sprint(s.Kind()),
			p.name.Sprintf("%q", s.Name()),
			s.Node(),
			d.Start, d.End,
		)
		if opts.Module != nil {
			start := opts.Module.Position(s.Range().Start)
			end := opts.Module.Position(s.Range().End)
			header += fmt.Sprintf(" %d:%d-%d:%d", start.Line, start.Column, end.Line, end.Column)
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		for _, sym := range idx.SymbolTable(id).All() {
			defs := make([]string, 0, sym.DefinitionCount())
			for _, def := range sym.Definitions() {
				defs = append(defs, p.def.Sprint(def))
			}
			flags := strings.Join(sym.Flags().Strings(), ",")
			if flags == "" {
				flags = "-"
			}
			line := fmt.Sprintf("%s  %s %s", indent, sym.Name(), p.flags.Sprint(flags))
			if len(defs) > 0 {
				line += " [" + strings.Join(defs, " ") + "]"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return fmt.Errorf("render: %w", err)
			}
		}
	}
	return nil
}

// String is Dump into a string without color.
func String(idx *semantic.Index, mod *ast.Module) (string, error) {
	var sb strings.Builder
	if err := Dump(&sb, idx, Options{Module: mod}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Diff returns a unified diff between two dumps, or "" when they are equal.
func Diff(aName, bName, a, b string) (string, error) {
	if a == b {
		return "", nil
	}
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  3,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", fmt.Errorf("render: diff: %w", err)
	}
	return s, nil
}
