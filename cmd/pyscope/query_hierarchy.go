package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/pyscope"
)

// --- Hierarchy and Detail Commands ---

var treeCmd = &cobra.Command{
	Use:   "tree <file>",
	Short: "Show the scope tree of a file with each scope's symbols",
	Args:  cobra.ExactArgs(1),
	RunE:  runTree,
}

func runTree(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("tree", err)
	}
	defer engine.Close()

	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("tree", err)
	}
	root, err := q.ScopeHierarchy(file)
	if err != nil {
		return outputError("tree", err)
	}
	if root == nil {
		return outputError("tree", fmt.Errorf("file not indexed: %s", file))
	}
	return outputResult(CLIResult{Command: "tree", Results: scopeNodeToCLI(root, file)})
}

var detailCmd = &cobra.Command{
	Use:   "detail <symbol-id> | detail <file> <line> <col> <name>",
	Short: "Show a symbol with its scope, definitions and import aliases",
	Args:  exactArgCounts(1, 4),
	RunE:  runDetail,
}

// exactArgCounts accepts only the listed argument counts.
func exactArgCounts(counts ...int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		for _, n := range counts {
			if len(args) == n {
				return nil
			}
		}
		return fmt.Errorf("accepts %v arg(s), received %d", counts, len(args))
	}
}

func runDetail(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("detail", err)
	}
	defer engine.Close()

	var detail *pyscope.SymbolDetail
	if len(args) == 1 {
		id, perr := strconv.ParseInt(args[0], 10, 64)
		if perr != nil {
			return outputError("detail", fmt.Errorf("invalid symbol id %q", args[0]))
		}
		detail, err = q.SymbolDetail(id)
	} else {
		file, line, col, perr := parsePosition(args[:3])
		if perr != nil {
			return outputError("detail", perr)
		}
		detail, err = q.SymbolDetailAt(file, line, col, args[3])
	}
	if err != nil {
		return outputError("detail", err)
	}
	if detail == nil {
		return outputResult(CLIResult{Command: "detail", Results: nil})
	}

	out := CLISymbolDetail{
		Symbol:      symbolResultToCLI(detail.Symbol),
		Definitions: definitionsToCLI(detail.Definitions),
		Imports:     make([]CLIImport, len(detail.Imports)),
		Location:    locationToCLI(detail.Location),
	}
	if detail.Scope != nil {
		sc := scopeToCLI(detail.Scope)
		out.Scope = &sc
	}
	for i, imp := range detail.Imports {
		out.Imports[i] = importToCLI(imp, detail.Symbol.FilePath)
	}
	return outputResult(CLIResult{Command: "detail", Results: out, TotalCount: intPtr(1)})
}
