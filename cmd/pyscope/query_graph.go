package main

import (
	"github.com/spf13/cobra"
)

// --- Usage and Dependency Commands ---

var unusedCmd = &cobra.Command{
	Use:   "unused",
	Short: "List names bound in a scope but never read",
	Long:  "Lists symbols that are defined and never read in their scope or any nested scope. Defaults to function and annotation scopes; pass --scope-kind to widen.",
	Args:  cobra.NoArgs,
	RunE:  runUnused,
}

func runUnused(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("unused", err)
	}
	defer engine.Close()

	filter, err := buildSymbolFilter(q)
	if err != nil {
		return outputError("unused", err)
	}
	result, err := q.UnusedSymbols(filter, buildSort(), buildPagination())
	if err != nil {
		return outputError("unused", err)
	}
	return outputResult(CLIResult{
		Command:    "unused",
		Results:    symbolResultsToCLI(result.Items),
		TotalCount: &result.TotalCount,
	})
}

var mostImportedCmd = &cobra.Command{
	Use:   "most-imported",
	Short: "Rank absolute import targets by importing files",
	Args:  cobra.NoArgs,
	RunE:  runMostImported,
}

func init() {
	mostImportedCmd.Flags().IntVar(&flagTop, "top", 10, "number of modules to list")
}

func runMostImported(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("most-imported", err)
	}
	defer engine.Close()

	mods, err := q.MostImported(flagTop)
	if err != nil {
		return outputError("most-imported", err)
	}
	out := make([]CLIImportedModule, len(mods))
	for i, m := range mods {
		out[i] = CLIImportedModule{Module: m.Module, ImporterCount: m.ImporterCount, ImportCount: m.ImportCount}
	}
	return outputResult(CLIResult{Command: "most-imported", Results: out, TotalCount: intPtr(len(out))})
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the module dependency graph",
	Args:  cobra.NoArgs,
	RunE:  runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("graph", err)
	}
	defer engine.Close()

	g, err := q.ModuleDependencyGraph()
	if err != nil {
		return outputError("graph", err)
	}
	out := CLIDependencyGraph{
		Modules:  make([]CLIModuleNode, len(g.Modules)),
		Edges:    make([]CLIDependencyEdge, len(g.Edges)),
		External: g.External,
	}
	for i, m := range g.Modules {
		out.Modules[i] = CLIModuleNode{Name: m.Name, FileCount: m.FileCount, LineCount: m.LineCount}
	}
	for i, e := range g.Edges {
		out.Edges[i] = CLIDependencyEdge{From: e.FromModule, To: e.ToModule, ImportCount: e.ImportCount}
	}
	return outputResult(CLIResult{Command: "graph", Results: out})
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List circular module dependencies",
	Args:  cobra.NoArgs,
	RunE:  runCycles,
}

func runCycles(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("cycles", err)
	}
	defer engine.Close()

	cycles, err := q.CircularDependencies()
	if err != nil {
		return outputError("cycles", err)
	}
	out := make([]CLICycle, len(cycles))
	for i, c := range cycles {
		out[i] = CLICycle{Modules: c}
	}
	return outputResult(CLIResult{Command: "cycles", Results: out, TotalCount: intPtr(len(out))})
}
