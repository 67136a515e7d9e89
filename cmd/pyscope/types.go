package main

import "github.com/jward/pyscope"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIFile is a JSON-friendly file representation.
type CLIFile struct {
	ID              int64  `json:"id"`
	Path            string `json:"path"`
	Module          string `json:"module,omitempty"`
	LineCount       int    `json:"line_count"`
	HasSyntaxErrors bool   `json:"has_syntax_errors,omitempty"`
}

// CLIScope is a JSON-friendly scope. Lines and columns are 1-based.
type CLIScope struct {
	ID               int64  `json:"id"`
	Index            int    `json:"index"`
	Kind             string `json:"kind"`
	Node             string `json:"node"`
	Name             string `json:"name"`
	ParentID         *int64 `json:"parent_id,omitempty"`
	StartLine        int    `json:"start_line"`
	StartCol         int    `json:"start_col"`
	EndLine          int    `json:"end_line"`
	EndCol           int    `json:"end_col"`
	DescendantsStart int    `json:"descendants_start"`
	DescendantsEnd   int    `json:"descendants_end"`
}

// CLISymbol is a JSON-friendly symbol representation.
type CLISymbol struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Flags       []string `json:"flags"`
	File        string   `json:"file,omitempty"`
	Module      string   `json:"module,omitempty"`
	Scope       string   `json:"scope,omitempty"`
	ScopeKind   string   `json:"scope_kind,omitempty"`
	ScopeIndex  int      `json:"scope_index"`
	Definitions int      `json:"definitions"`
}

// CLIDefinition is one binding occurrence of a symbol.
type CLIDefinition struct {
	Ordinal int    `json:"ordinal"`
	Kind    string `json:"kind"`
	LocalID int64  `json:"local_id"`
}

// CLIImport is a JSON-friendly import alias.
type CLIImport struct {
	FileID    int64  `json:"file_id"`
	FilePath  string `json:"file_path,omitempty"`
	Module    string `json:"module"`
	Name      string `json:"name"`
	BoundName string `json:"bound_name"`
	Level     int    `json:"level"`
}

// CLILocation is a source range. Lines and columns are 1-based.
type CLILocation struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// CLIBinding is the result of resolving a name at a position.
type CLIBinding struct {
	Symbol      CLISymbol       `json:"symbol"`
	Scope       CLIScope        `json:"scope"`
	Definitions []CLIDefinition `json:"definitions"`
	Location    CLILocation     `json:"location"`
}

// CLISymbolDetail is a JSON-friendly symbol detail.
type CLISymbolDetail struct {
	Symbol      CLISymbol       `json:"symbol"`
	Scope       *CLIScope       `json:"scope,omitempty"`
	Definitions []CLIDefinition `json:"definitions"`
	Imports     []CLIImport     `json:"imports"`
	Location    CLILocation     `json:"location"`
}

// CLIScopeNode is one node of a scope tree.
type CLIScopeNode struct {
	Scope    CLIScope       `json:"scope"`
	Symbols  []CLISymbol    `json:"symbols"`
	Children []CLIScopeNode `json:"children"`
}

// CLIFileStats is one entry of the largest-files listing.
type CLIFileStats struct {
	Path        string `json:"path"`
	Module      string `json:"module,omitempty"`
	ScopeCount  int    `json:"scope_count"`
	SymbolCount int    `json:"symbol_count"`
}

// CLISummary is a JSON-friendly project summary.
type CLISummary struct {
	FileCount             int            `json:"file_count"`
	FilesWithSyntaxErrors int            `json:"files_with_syntax_errors"`
	ScopeCount            int            `json:"scope_count"`
	SymbolCount           int            `json:"symbol_count"`
	ImportCount           int            `json:"import_count"`
	ScopeKinds            map[string]int `json:"scope_kinds"`
	LargestFiles          []CLIFileStats `json:"largest_files"`
}

// CLIImportedModule is a module ranked by its importers.
type CLIImportedModule struct {
	Module        string `json:"module"`
	ImporterCount int    `json:"importer_count"`
	ImportCount   int    `json:"import_count"`
}

// CLIDependencyGraph is a JSON-friendly module dependency graph.
type CLIDependencyGraph struct {
	Modules  []CLIModuleNode     `json:"modules"`
	Edges    []CLIDependencyEdge `json:"edges"`
	External []string            `json:"external"`
}

// CLIModuleNode is a module in the dependency graph.
type CLIModuleNode struct {
	Name      string `json:"name"`
	FileCount int    `json:"file_count"`
	LineCount int    `json:"line_count"`
}

// CLIDependencyEdge is a dependency between two modules.
type CLIDependencyEdge struct {
	From        string `json:"from"`
	To          string `json:"to"`
	ImportCount int    `json:"import_count"`
}

// CLICycle is a circular dependency cycle of module names.
type CLICycle struct {
	Modules []string `json:"modules"`
}

// --- Conversions ---

func fileToCLI(f *pyscope.File) CLIFile {
	return CLIFile{
		ID:              f.ID,
		Path:            f.Path,
		Module:          f.Module,
		LineCount:       f.LineCount,
		HasSyntaxErrors: f.HasSyntaxErrors,
	}
}

func scopeToCLI(sc *pyscope.Scope) CLIScope {
	return CLIScope{
		ID:               sc.ID,
		Index:            sc.ScopeIndex,
		Kind:             sc.Kind,
		Node:             sc.NodeKind,
		Name:             sc.Name,
		ParentID:         sc.ParentScopeID,
		StartLine:        sc.StartLine,
		StartCol:         sc.StartCol,
		EndLine:          sc.EndLine,
		EndCol:           sc.EndCol,
		DescendantsStart: sc.DescendantsStart,
		DescendantsEnd:   sc.DescendantsEnd,
	}
}

func scopesToCLI(scopes []*pyscope.Scope) []CLIScope {
	out := make([]CLIScope, len(scopes))
	for i, sc := range scopes {
		out[i] = scopeToCLI(sc)
	}
	return out
}

// symbolToCLI converts a bare symbol row; scope context is filled in when
// the caller has it.
func symbolToCLI(sym *pyscope.Symbol) CLISymbol {
	flags := sym.Flags
	if flags == nil {
		flags = []string{}
	}
	return CLISymbol{ID: sym.ID, Name: sym.Name, Flags: flags}
}

func symbolResultToCLI(sr pyscope.SymbolResult) CLISymbol {
	s := symbolToCLI(&sr.Symbol)
	s.File = sr.FilePath
	s.Module = sr.Module
	s.Scope = sr.ScopeName
	s.ScopeKind = sr.ScopeKind
	s.ScopeIndex = sr.ScopeIndex
	s.Definitions = sr.DefinitionCount
	return s
}

func symbolResultsToCLI(items []pyscope.SymbolResult) []CLISymbol {
	out := make([]CLISymbol, len(items))
	for i, sr := range items {
		out[i] = symbolResultToCLI(sr)
	}
	return out
}

func definitionsToCLI(defs []*pyscope.Definition) []CLIDefinition {
	out := make([]CLIDefinition, len(defs))
	for i, d := range defs {
		out[i] = CLIDefinition{Ordinal: d.Ordinal, Kind: d.Kind, LocalID: d.LocalID}
	}
	return out
}

func importToCLI(imp *pyscope.Import, filePath string) CLIImport {
	return CLIImport{
		FileID:    imp.FileID,
		FilePath:  filePath,
		Module:    imp.Module,
		Name:      imp.Name,
		BoundName: imp.BoundName,
		Level:     imp.Level,
	}
}

func locationToCLI(loc pyscope.Location) CLILocation {
	return CLILocation{
		File:      loc.File,
		StartLine: loc.StartLine,
		StartCol:  loc.StartCol,
		EndLine:   loc.EndLine,
		EndCol:    loc.EndCol,
	}
}

func scopeNodeToCLI(n *pyscope.ScopeNode, filePath string) CLIScopeNode {
	out := CLIScopeNode{
		Scope:    scopeToCLI(n.Scope),
		Symbols:  make([]CLISymbol, len(n.Symbols)),
		Children: make([]CLIScopeNode, len(n.Children)),
	}
	for i, sym := range n.Symbols {
		s := symbolToCLI(sym)
		s.File = filePath
		s.Scope = n.Scope.Name
		s.ScopeKind = n.Scope.Kind
		s.ScopeIndex = n.Scope.ScopeIndex
		out.Symbols[i] = s
	}
	for i, child := range n.Children {
		out.Children[i] = scopeNodeToCLI(child, filePath)
	}
	return out
}
