package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/pyscope"
)

var (
	flagLimit  int
	flagOffset int
	flagSort   string
	flagOrder  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the semantic index",
	Long:  "Run queries against an indexed project. All line and column numbers are 1-based.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	queryCmd.PersistentFlags().StringVar(&flagSort, "sort", "", "sort field: name|file|scope|definitions")
	queryCmd.PersistentFlags().StringVar(&flagOrder, "order", "asc", "sort order: asc|desc")

	queryCmd.AddCommand(filesCmd)
	queryCmd.AddCommand(scopesCmd)
	queryCmd.AddCommand(scopeAtCmd)
	queryCmd.AddCommand(resolveCmd)
	queryCmd.AddCommand(importsCmd)
	queryCmd.AddCommand(dependentsCmd)
	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(summaryCmd)
	queryCmd.AddCommand(unusedCmd)
	queryCmd.AddCommand(mostImportedCmd)
	queryCmd.AddCommand(graphCmd)
	queryCmd.AddCommand(cyclesCmd)
	queryCmd.AddCommand(treeCmd)
	queryCmd.AddCommand(detailCmd)
}

// --- Helpers ---

// openQuery opens the existing database for reading.
func openQuery() (*pyscope.Engine, *pyscope.QueryBuilder, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath, err := resolveDBPath(cwd)
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found: %s (run 'pyscope index' first)", dbPath)
	}
	engine, err := pyscope.New(dbPath, pyscope.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return engine, engine.Query(), nil
}

// resolveFilePath converts a file argument to an absolute path relative to
// the working directory.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return filepath.Clean(file), nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as a positive 1-based integer.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, value)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s %q: must be at least 1", name, value)
	}
	return n, nil
}

// parsePosition parses <file> <line> <col>.
func parsePosition(args []string) (string, int, int, error) {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return "", 0, 0, err
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return "", 0, 0, err
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return "", 0, 0, err
	}
	return file, line, col, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() pyscope.Pagination {
	return pyscope.Pagination{Limit: flagLimit, Offset: flagOffset}
}

// buildSort creates a Sort from CLI flags.
func buildSort() pyscope.Sort {
	var field pyscope.SortField
	switch flagSort {
	case "file":
		field = pyscope.SortByFile
	case "scope":
		field = pyscope.SortByScope
	case "definitions":
		field = pyscope.SortByDefinitions
	default:
		field = pyscope.SortByName
	}
	order := pyscope.Asc
	if flagOrder == "desc" {
		order = pyscope.Desc
	}
	return pyscope.Sort{Field: field, Order: order}
}

func intPtr(v int) *int { return &v }

// --- File and Scope Commands ---

var flagPathPrefix string

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func init() {
	filesCmd.Flags().StringVar(&flagPathPrefix, "path-prefix", "", "only files under this directory")
}

func runFiles(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("files", err)
	}
	defer engine.Close()

	prefix := flagPathPrefix
	if prefix != "" {
		if prefix, err = resolveFilePath(prefix); err != nil {
			return outputError("files", err)
		}
	}
	result, err := q.ListFiles(prefix, buildSort(), buildPagination())
	if err != nil {
		return outputError("files", err)
	}
	files := make([]CLIFile, len(result.Items))
	for i := range result.Items {
		files[i] = fileToCLI(&result.Items[i])
	}
	return outputResult(CLIResult{Command: "files", Results: files, TotalCount: &result.TotalCount})
}

var scopesCmd = &cobra.Command{
	Use:   "scopes <file>",
	Short: "List the scopes of a file in pre-order",
	Args:  cobra.ExactArgs(1),
	RunE:  runScopes,
}

func runScopes(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("scopes", err)
	}
	defer engine.Close()

	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("scopes", err)
	}
	scopes, err := q.Scopes(file)
	if err != nil {
		return outputError("scopes", err)
	}
	if scopes == nil {
		return outputError("scopes", fmt.Errorf("file not indexed: %s", file))
	}
	return outputResult(CLIResult{Command: "scopes", Results: scopesToCLI(scopes), TotalCount: intPtr(len(scopes))})
}

var flagChain bool

var scopeAtCmd = &cobra.Command{
	Use:   "scope-at <file> <line> <col>",
	Short: "Find the innermost scope at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runScopeAt,
}

func init() {
	scopeAtCmd.Flags().BoolVar(&flagChain, "chain", false, "also list the enclosing scopes up to the module")
}

func runScopeAt(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("scope-at", err)
	}
	defer engine.Close()

	file, line, col, err := parsePosition(args)
	if err != nil {
		return outputError("scope-at", err)
	}
	if flagChain {
		chain, err := q.ScopeChain(file, line, col)
		if err != nil {
			return outputError("scope-at", err)
		}
		return outputResult(CLIResult{Command: "scope-at", Results: scopesToCLI(chain), TotalCount: intPtr(len(chain))})
	}
	sc, err := q.ScopeAt(file, line, col)
	if err != nil {
		return outputError("scope-at", err)
	}
	if sc == nil {
		return outputResult(CLIResult{Command: "scope-at", Results: nil})
	}
	return outputResult(CLIResult{Command: "scope-at", Results: scopeToCLI(sc), TotalCount: intPtr(1)})
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <file> <line> <col> <name>",
	Short: "Find the binding a name refers to at a position",
	Long:  "Searches the scope at the position, then each enclosing function and module scope. Enclosing class bodies are skipped.",
	Args:  cobra.ExactArgs(4),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("resolve", err)
	}
	defer engine.Close()

	file, line, col, err := parsePosition(args[:3])
	if err != nil {
		return outputError("resolve", err)
	}
	b, err := q.Resolve(file, line, col, args[3])
	if err != nil {
		return outputError("resolve", err)
	}
	if b == nil {
		return outputResult(CLIResult{Command: "resolve", Results: nil})
	}
	sym := symbolToCLI(b.Symbol)
	sym.File = file
	sym.Scope = b.Scope.Name
	sym.ScopeKind = b.Scope.Kind
	sym.ScopeIndex = b.Scope.ScopeIndex
	sym.Definitions = len(b.Definitions)
	return outputResult(CLIResult{
		Command: "resolve",
		Results: CLIBinding{
			Symbol:      sym,
			Scope:       scopeToCLI(b.Scope),
			Definitions: definitionsToCLI(b.Definitions),
			Location:    locationToCLI(b.Location),
		},
		TotalCount: intPtr(1),
	})
}

var importsCmd = &cobra.Command{
	Use:   "imports <file>",
	Short: "List the import aliases of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImports,
}

func runImports(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("imports", err)
	}
	defer engine.Close()

	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("imports", err)
	}
	imports, err := q.Dependencies(file)
	if err != nil {
		return outputError("imports", err)
	}
	out := make([]CLIImport, len(imports))
	for i, imp := range imports {
		out[i] = importToCLI(imp, file)
	}
	return outputResult(CLIResult{Command: "imports", Results: out, TotalCount: intPtr(len(out))})
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <module>",
	Short: "List files importing a module or its submodules",
	Args:  cobra.ExactArgs(1),
	RunE:  runDependents,
}

func runDependents(cmd *cobra.Command, args []string) error {
	engine, q, err := openQuery()
	if err != nil {
		return outputError("dependents", err)
	}
	defer engine.Close()

	files, err := q.Dependents(args[0])
	if err != nil {
		return outputError("dependents", err)
	}
	out := make([]CLIFile, len(files))
	for i, f := range files {
		out[i] = fileToCLI(f)
	}
	return outputResult(CLIResult{Command: "dependents", Results: out, TotalCount: intPtr(len(out))})
}
