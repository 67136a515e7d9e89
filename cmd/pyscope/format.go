package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jward/pyscope/internal/config"
)

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tMODULE\tLINES")
	for _, f := range files {
		path := f.Path
		if f.HasSyntaxErrors {
			path += " (syntax errors)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", f.ID, path, f.Module, f.LineCount)
	}
	tw.Flush()
}

// formatScopesText formats CLIScope results as aligned columns.
func formatScopesText(w io.Writer, scopes []CLIScope) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tKIND\tNAME\tNODE\tSPAN\tDESCENDANTS")
	for _, sc := range scopes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d:%d-%d:%d\t[%d,%d)\n",
			sc.Index, sc.Kind, sc.Name, sc.Node,
			sc.StartLine, sc.StartCol, sc.EndLine, sc.EndCol,
			sc.DescendantsStart, sc.DescendantsEnd)
	}
	tw.Flush()
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFLAGS\tSCOPE\tFILE\tDEFS")
	for _, s := range syms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			s.ID, s.Name, flagsText(s.Flags), scopeText(s), s.File, s.Definitions)
	}
	tw.Flush()
}

func flagsText(flags []string) string {
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func scopeText(s CLISymbol) string {
	if s.ScopeKind == "" {
		return s.Scope
	}
	return fmt.Sprintf("%s %s (#%d)", s.ScopeKind, s.Scope, s.ScopeIndex)
}

// formatImportsText formats CLIImport results as aligned columns.
func formatImportsText(w io.Writer, imports []CLIImport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tNAME\tBOUND\tLEVEL")
	for _, imp := range imports {
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%d\n",
			strings.Repeat(".", imp.Level), imp.Module, imp.Name, imp.BoundName, imp.Level)
	}
	tw.Flush()
}

func formatDefinitionsText(w io.Writer, indent string, defs []CLIDefinition) {
	for _, d := range defs {
		fmt.Fprintf(w, "%s%d: %s(%d)\n", indent, d.Ordinal, d.Kind, d.LocalID)
	}
}

// formatBindingText formats a resolved name.
func formatBindingText(w io.Writer, b CLIBinding) {
	fmt.Fprintf(w, "%s bound in %s %s at %s:%d:%d\n",
		b.Symbol.Name, b.Scope.Kind, b.Scope.Name,
		b.Location.File, b.Location.StartLine, b.Location.StartCol)
	fmt.Fprintf(w, "Flags: %s\n", flagsText(b.Symbol.Flags))
	if len(b.Definitions) > 0 {
		fmt.Fprintln(w, "Definitions:")
		formatDefinitionsText(w, "  ", b.Definitions)
	}
}

// formatDetailText formats a symbol detail.
func formatDetailText(w io.Writer, d CLISymbolDetail) {
	fmt.Fprintf(w, "Symbol: %s (#%d)\n", d.Symbol.Name, d.Symbol.ID)
	fmt.Fprintf(w, "Flags: %s\n", flagsText(d.Symbol.Flags))
	fmt.Fprintf(w, "Scope: %s\n", scopeText(d.Symbol))
	fmt.Fprintf(w, "Location: %s:%d:%d-%d:%d\n",
		d.Location.File, d.Location.StartLine, d.Location.StartCol, d.Location.EndLine, d.Location.EndCol)
	if len(d.Definitions) > 0 {
		fmt.Fprintln(w, "Definitions:")
		formatDefinitionsText(w, "  ", d.Definitions)
	}
	if len(d.Imports) > 0 {
		fmt.Fprintln(w, "Imports:")
		formatImportsText(w, d.Imports)
	}
}

// formatTreeText formats a scope tree, one indented line per scope.
func formatTreeText(w io.Writer, n CLIScopeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s %s %d:%d-%d:%d\n", indent,
		n.Scope.Kind, n.Scope.Name,
		n.Scope.StartLine, n.Scope.StartCol, n.Scope.EndLine, n.Scope.EndCol)
	for _, s := range n.Symbols {
		fmt.Fprintf(w, "%s  %s %s\n", indent, s.Name, flagsText(s.Flags))
	}
	for _, child := range n.Children {
		formatTreeText(w, child, depth+1)
	}
}

// formatSummaryText formats CLISummary as readable text.
func formatSummaryText(w io.Writer, summary CLISummary) {
	fmt.Fprintln(w, "Project Summary")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Files: %d (%d with syntax errors)\n", summary.FileCount, summary.FilesWithSyntaxErrors)
	fmt.Fprintf(w, "Scopes: %d\n", summary.ScopeCount)
	fmt.Fprintf(w, "Symbols: %d\n", summary.SymbolCount)
	fmt.Fprintf(w, "Imports: %d\n", summary.ImportCount)
	fmt.Fprintln(w)

	if len(summary.ScopeKinds) > 0 {
		fmt.Fprintln(w, "Scope Kinds:")
		kinds := make([]string, 0, len(summary.ScopeKinds))
		for kind := range summary.ScopeKinds {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %s: %d\n", kind, summary.ScopeKinds[kind])
		}
		fmt.Fprintln(w)
	}

	if len(summary.LargestFiles) > 0 {
		fmt.Fprintln(w, "Largest Files by Scopes:")
		for _, f := range summary.LargestFiles {
			fmt.Fprintf(w, "  %s - %d scopes, %d symbols\n", f.Path, f.ScopeCount, f.SymbolCount)
		}
	}
}

// formatImportedText formats CLIImportedModule results as aligned columns.
func formatImportedText(w io.Writer, mods []CLIImportedModule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tIMPORTERS\tIMPORTS")
	for _, m := range mods {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", m.Module, m.ImporterCount, m.ImportCount)
	}
	tw.Flush()
}

// formatGraphText formats a module dependency graph as one edge per line.
func formatGraphText(w io.Writer, g CLIDependencyGraph) {
	fmt.Fprintf(w, "Modules: %d\n", len(g.Modules))
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %s -> %s (%d)\n", e.From, e.To, e.ImportCount)
	}
	if len(g.External) > 0 {
		fmt.Fprintf(w, "External: %s\n", strings.Join(g.External, ", "))
	}
}

// formatCyclesText formats dependency cycles, one per line.
func formatCyclesText(w io.Writer, cycles []CLICycle) {
	for _, c := range cycles {
		fmt.Fprintln(w, strings.Join(c.Modules, " -> "))
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIFile:
		formatFilesText(w, v)
	case []CLIScope:
		formatScopesText(w, v)
	case CLIScope:
		formatScopesText(w, []CLIScope{v})
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLIImport:
		formatImportsText(w, v)
	case CLIBinding:
		formatBindingText(w, v)
	case CLISymbolDetail:
		formatDetailText(w, v)
	case CLIScopeNode:
		formatTreeText(w, v, 0)
	case CLISummary:
		formatSummaryText(w, v)
	case []CLIImportedModule:
		formatImportedText(w, v)
	case CLIDependencyGraph:
		formatGraphText(w, v)
	case []CLICycle:
		formatCyclesText(w, v)
	case string:
		fmt.Fprint(w, v)
	case nil:
		// No output for nil results (e.g., resolve of an unbound name).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIFile:
		return len(r)
	case []CLIScope:
		return len(r)
	case []CLISymbol:
		return len(r)
	case []CLIImport:
		return len(r)
	case []CLIImportedModule:
		return len(r)
	case []CLICycle:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{config.FormatJSON, config.FormatText}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// validateColor checks that the --color flag value is recognized.
func validateColor(mode string) error {
	switch mode {
	case config.ColorAuto, config.ColorAlways, config.ColorNever:
		return nil
	}
	return fmt.Errorf("invalid color %q: must be auto, always or never", mode)
}
