// Package pyscope builds and persists per-file semantic indexes of Python
// source: the lexical scope tree, per-scope symbol tables, stable node ids,
// and the reverse maps from expressions and definitions to their scopes.
//
// # Pipeline
//
// For each file, pyscope parses the source with tree-sitter, lowers it into
// an immutable syntax tree, and builds a [semantic.Index] in a single
// traversal. The index is written to SQLite twice over: as queryable rows
// (scopes, symbols, definitions, imports) and as a msgpack snapshot that can
// be decoded back into an identical index without reparsing.
//
// # Usage
//
//	e, err := pyscope.New(".pyscope/index.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//
//	q := e.Query()
//	scope, err := q.ScopeAt("path/to/project/app.py", 10, 5)
//
// # Incremental Indexing
//
// Indexes are memoized by file path and content hash. [Engine.IndexSource]
// returns the cached index for unchanged content, decodes the stored
// snapshot when the process has not seen the file yet, and rebuilds from
// scratch otherwise. An index is never patched in place. A file whose
// content is unchanged but whose module name differs keeps its rows and is
// renamed. [Engine.Affected] reports the rebuilt files together with the
// files importing their modules, including relative and from-imports.
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] reads the persisted rows:
// files, scopes and their hierarchy, the innermost scope at a position,
// symbols with filtering and paging, name resolution from a position, and
// the module import graph.
package pyscope
