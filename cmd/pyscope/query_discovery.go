package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/pyscope"
)

// --- Discovery / Search Commands ---

var (
	flagScopeKinds []string
	flagFlags      []string
	flagFile       string
	flagModule     string
	flagTop        int
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [name]",
	Short: "List symbols with optional filters",
	Long:  "Lists symbols across the index. With a name, lists every symbol called that name.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSymbols,
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search symbols by glob pattern",
	Long:  "Search for symbols matching a glob pattern. Use * as wildcard (e.g. 'get_*').",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	for _, c := range []*cobra.Command{symbolsCmd, searchCmd, unusedCmd} {
		c.Flags().StringSliceVar(&flagScopeKinds, "scope-kind", nil, "owning scope kind: module|class|function|annotation (repeatable)")
		c.Flags().StringVar(&flagFile, "file", "", "only symbols of this file")
		c.Flags().StringVar(&flagModule, "module", "", "only symbols of this module and its submodules")
		c.Flags().StringVar(&flagPathPrefix, "path-prefix", "", "only symbols of files under this directory")
	}
	symbolsCmd.Flags().StringSliceVar(&flagFlags, "flag", nil, "required symbol flag: used|defined (repeatable)")
	searchCmd.Flags().StringSliceVar(&flagFlags, "flag", nil, "required symbol flag: used|defined (repeatable)")
	summaryCmd.Flags().IntVar(&flagTop, "top", 10, "number of largest files to list")
}

// buildSymbolFilter creates a SymbolFilter from the shared filter flags.
func buildSymbolFilter(q *pyscope.QueryBuilder) (pyscope.SymbolFilter, error) {
	filter := pyscope.SymbolFilter{
		ScopeKinds: flagScopeKinds,
		Flags:      flagFlags,
	}
	if flagModule != "" {
		filter.Module = &flagModule
	}
	if flagPathPrefix != "" {
		prefix, err := resolveFilePath(flagPathPrefix)
		if err != nil {
			return filter, err
		}
		filter.PathPrefix = &prefix
	}
	if flagFile != "" {
		path, err := resolveFilePath(flagFile)
		if err != nil {
			return filter, err
		}
		scopes, err := q.Scopes(path)
		if err != nil {
			return filter, fmt.Errorf("looking up file %q: %w", flagFile, err)
		}
		if len(scopes) == 0 {
			return filter, fmt.Errorf("file not indexed: %s", flagFile)
		}
		filter.FileID = &scopes[0].FileID
	}
	return filter, nil
}

func runSymbols(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("symbols", err)
	}
	defer engine.Close()

	filter, err := buildSymbolFilter(q)
	if err != nil {
		return outputError("symbols", err)
	}

	var result *pyscope.PagedResult[pyscope.SymbolResult]
	if len(args) == 1 {
		// A name without '*' matches exactly.
		result, err = q.SearchSymbols(args[0], filter, buildSort(), buildPagination())
	} else {
		result, err = q.ListSymbols(filter, buildSort(), buildPagination())
	}
	if err != nil {
		return outputError("symbols", err)
	}
	return outputResult(CLIResult{
		Command:    "symbols",
		Results:    symbolResultsToCLI(result.Items),
		TotalCount: &result.TotalCount,
	})
}

func runSearch(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("search", err)
	}
	defer engine.Close()

	filter, err := buildSymbolFilter(q)
	if err != nil {
		return outputError("search", err)
	}
	result, err := q.SearchSymbols(args[0], filter, buildSort(), buildPagination())
	if err != nil {
		return outputError("search", err)
	}
	return outputResult(CLIResult{
		Command:    "search",
		Results:    symbolResultsToCLI(result.Items),
		TotalCount: &result.TotalCount,
	})
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show index-wide counts and the largest files",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("summary", err)
	}
	defer engine.Close()

	sum, err := q.ProjectSummary(flagTop)
	if err != nil {
		return outputError("summary", err)
	}
	largest := make([]CLIFileStats, len(sum.LargestFiles))
	for i, f := range sum.LargestFiles {
		largest[i] = CLIFileStats{Path: f.Path, Module: f.Module, ScopeCount: f.ScopeCount, SymbolCount: f.SymbolCount}
	}
	return outputResult(CLIResult{
		Command: "summary",
		Results: CLISummary{
			FileCount:             sum.FileCount,
			FilesWithSyntaxErrors: sum.FilesWithSyntaxErrors,
			ScopeCount:            sum.ScopeCount,
			SymbolCount:           sum.SymbolCount,
			ImportCount:           sum.ImportCount,
			ScopeKinds:            sum.ScopeKindCounts,
			LargestFiles:          largest,
		},
	})
}
