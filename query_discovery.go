package pyscope

import (
	"fmt"
	"strings"

	"github.com/jward/pyscope/internal/store"
)

// --- Common Types ---

// Pagination controls offset+limit paging on list/search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// SortField specifies how to order results.
type SortField string

const (
	SortByName        SortField = "name"
	SortByFile        SortField = "file"
	SortByScope       SortField = "scope"
	SortByDefinitions SortField = "definitions"
)

// SortOrder specifies ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort controls result ordering.
type Sort struct {
	Field SortField
	Order SortOrder
}

// SymbolResult extends Symbol with the context needed to display it
// without further lookups.
type SymbolResult struct {
	store.Symbol
	FilePath        string
	Module          string
	ScopeIndex      int
	ScopeKind       string
	ScopeName       string
	DefinitionCount int
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// SymbolFilter specifies which symbols to include. Zero fields match
// everything.
type SymbolFilter struct {
	ScopeKinds []string // owning scope kind is any of these
	Flags      []string // symbol must carry ALL of these flags
	FileID     *int64   // restrict to a single file
	ScopeIndex *int     // restrict to one scope index (usually with FileID)
	PathPrefix *string  // restrict to files under this path
	Module     *string  // restrict to a module and its submodules
}

// --- Internal Helpers ---

// normalizePathPrefix ensures a path prefix ends with "/" for correct LIKE matching.
// "pkg/core" -> "pkg/core/" to prevent matching "pkg/core_utils/".
func normalizePathPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}

// symbolSortColumn returns the SQL ORDER BY expression for symbol queries.
// Falls back to "s.name" for unknown fields.
func symbolSortColumn(field SortField) string {
	switch field {
	case SortByFile:
		return "f.path"
	case SortByScope:
		return "sc.scope_index"
	case SortByDefinitions:
		return "definition_count"
	default:
		return "s.name"
	}
}

// sortDirection returns "ASC" or "DESC".
func sortDirection(order SortOrder) string {
	if order == Desc {
		return "DESC"
	}
	return "ASC"
}

// symbolWhere translates a filter into SQL conditions over the aliases
// s (symbols), sc (scopes) and f (files).
func symbolWhere(filter SymbolFilter) ([]string, []any) {
	var where []string
	var args []any

	if len(filter.ScopeKinds) > 0 {
		placeholders := strings.Repeat("?,", len(filter.ScopeKinds)-1) + "?"
		where = append(where, "sc.kind IN ("+placeholders+")")
		for _, k := range filter.ScopeKinds {
			args = append(args, k)
		}
	}
	for _, flag := range filter.Flags {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(s.flags) WHERE json_each.value = ?)")
		args = append(args, flag)
	}
	if filter.FileID != nil {
		where = append(where, "s.file_id = ?")
		args = append(args, *filter.FileID)
	}
	if filter.ScopeIndex != nil {
		where = append(where, "sc.scope_index = ?")
		args = append(args, *filter.ScopeIndex)
	}
	if filter.PathPrefix != nil {
		prefix := normalizePathPrefix(*filter.PathPrefix)
		if prefix != "" {
			where = append(where, "f.path LIKE ? ESCAPE '\\'")
			args = append(args, escapeLike(prefix)+"%")
		}
	}
	if filter.Module != nil && *filter.Module != "" {
		where = append(where, "(f.module = ? OR f.module LIKE ? ESCAPE '\\')")
		args = append(args, *filter.Module, escapeLike(*filter.Module)+".%")
	}
	return where, args
}

// pagedSymbols runs a count query and a page query over symbols joined
// with their scope and file.
func (q *QueryBuilder) pagedSymbols(op string, where []string, args []any, sort Sort, page Pagination) (*PagedResult[SymbolResult], error) {
	page = page.normalize()

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}
	const from = ` FROM symbols s
		 JOIN scopes sc ON s.scope_id = sc.id
		 JOIN files f ON s.file_id = f.id `

	// Count query
	var totalCount int
	if err := q.store.DB().QueryRow("SELECT COUNT(*)"+from+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("%s: count: %w", op, err)
	}

	// Data query; ties break on file, scope and insertion order so pages
	// are stable.
	dataSQL := fmt.Sprintf(
		`SELECT %s, f.path, f.module, sc.scope_index, sc.kind, sc.name,
			(SELECT COUNT(*) FROM definitions d WHERE d.symbol_id = s.id) AS definition_count
		 %s %s
		 ORDER BY %s %s, f.path, sc.scope_index, s.symbol_index
		 LIMIT ? OFFSET ?`,
		prefixSymbolCols("s"), from, whereClause, symbolSortColumn(sort.Field), sortDirection(sort.Order),
	)
	dataArgs := append(append([]any{}, args...), page.Limit, page.Offset)

	rows, err := q.store.DB().Query(dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	items := []SymbolResult{}
	for rows.Next() {
		sr, err := scanSymbolResult(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return &PagedResult[SymbolResult]{Items: items, TotalCount: totalCount}, nil
}

// --- Enumeration Endpoints ---

// ListSymbols is the primary listing/filtering endpoint. All filter fields
// are optional.
func (q *QueryBuilder) ListSymbols(filter SymbolFilter, sort Sort, page Pagination) (*PagedResult[SymbolResult], error) {
	where, args := symbolWhere(filter)
	return q.pagedSymbols("list symbols", where, args, sort, page)
}

// ListFiles lists indexed files under a path prefix.
func (q *QueryBuilder) ListFiles(pathPrefix string, sort Sort, page Pagination) (*PagedResult[store.File], error) {
	page = page.normalize()

	var where []string
	var args []any
	if pathPrefix != "" {
		where = append(where, "path LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(normalizePathPrefix(pathPrefix))+"%")
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var totalCount int
	if err := q.store.DB().QueryRow("SELECT COUNT(*) FROM files "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("list files: count: %w", err)
	}

	dataSQL := fmt.Sprintf(
		`SELECT id, path, module, hash, line_count, has_syntax_errors FROM files %s ORDER BY path %s LIMIT ? OFFSET ?`,
		whereClause, sortDirection(sort.Order),
	)
	dataArgs := append(append([]any{}, args...), page.Limit, page.Offset)
	rows, err := q.store.DB().Query(dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("list files: query: %w", err)
	}
	defer rows.Close()

	items := []store.File{}
	for rows.Next() {
		var f store.File
		if err := rows.Scan(&f.ID, &f.Path, &f.Module, &f.Hash, &f.LineCount, &f.HasSyntaxErrors); err != nil {
			return nil, fmt.Errorf("list files: scan: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files: rows: %w", err)
	}
	return &PagedResult[store.File]{Items: items, TotalCount: totalCount}, nil
}

// --- Search ---

// SearchSymbols performs glob-style search on symbol names.
// '*' is the wildcard (mapped to SQL '%').
func (q *QueryBuilder) SearchSymbols(pattern string, filter SymbolFilter, sort Sort, page Pagination) (*PagedResult[SymbolResult], error) {
	where, args := symbolWhere(filter)
	if pattern != "" && pattern != "*" {
		// Escape literal % and _ first, then convert * to %.
		likePattern := strings.ReplaceAll(escapeLike(pattern), "*", "%")
		where = append([]string{"s.name LIKE ? ESCAPE '\\'"}, where...)
		args = append([]any{likePattern}, args...)
	}
	return q.pagedSymbols("search symbols", where, args, sort, page)
}

// --- Digest Endpoints ---

// FileStats is one row of the largest-files listing in a Summary.
type FileStats struct {
	Path        string
	Module      string
	ScopeCount  int
	SymbolCount int
}

// Summary is a digest of the whole index.
type Summary struct {
	FileCount             int
	FilesWithSyntaxErrors int
	ScopeCount            int
	SymbolCount           int
	ImportCount           int
	ScopeKindCounts       map[string]int
	LargestFiles          []FileStats // by scope count, descending
}

// ProjectSummary returns index-wide counts and the topN files with the most
// scopes.
func (q *QueryBuilder) ProjectSummary(topN int) (*Summary, error) {
	if topN < 0 {
		return nil, fmt.Errorf("project summary: topN must be non-negative, got %d", topN)
	}
	db := q.store.DB()
	sum := &Summary{ScopeKindCounts: map[string]int{}, LargestFiles: []FileStats{}}

	err := db.QueryRow(
		`SELECT (SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM files WHERE has_syntax_errors),
			(SELECT COUNT(*) FROM scopes),
			(SELECT COUNT(*) FROM symbols),
			(SELECT COUNT(*) FROM imports)`,
	).Scan(&sum.FileCount, &sum.FilesWithSyntaxErrors, &sum.ScopeCount, &sum.SymbolCount, &sum.ImportCount)
	if err != nil {
		return nil, fmt.Errorf("project summary: counts: %w", err)
	}

	rows, err := db.Query("SELECT kind, COUNT(*) FROM scopes GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("project summary: scope kinds: %w", err)
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("project summary: scan kind: %w", err)
		}
		sum.ScopeKindCounts[kind] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("project summary: scope kinds: %w", err)
	}

	if topN == 0 {
		return sum, nil
	}
	rows, err = db.Query(
		`SELECT f.path, f.module,
			(SELECT COUNT(*) FROM scopes sc WHERE sc.file_id = f.id) AS scope_count,
			(SELECT COUNT(*) FROM symbols s WHERE s.file_id = f.id) AS symbol_count
		 FROM files f
		 ORDER BY scope_count DESC, f.path
		 LIMIT ?`, topN,
	)
	if err != nil {
		return nil, fmt.Errorf("project summary: largest files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fs FileStats
		if err := rows.Scan(&fs.Path, &fs.Module, &fs.ScopeCount, &fs.SymbolCount); err != nil {
			return nil, fmt.Errorf("project summary: scan file: %w", err)
		}
		sum.LargestFiles = append(sum.LargestFiles, fs)
	}
	return sum, rows.Err()
}

// --- Scan Helpers ---

// prefixSymbolCols returns the SymbolCols with a table prefix applied.
func prefixSymbolCols(prefix string) string {
	cols := strings.Split(store.SymbolCols, ", ")
	for i, c := range cols {
		cols[i] = prefix + "." + c
	}
	return strings.Join(cols, ", ")
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSymbolResult scans a row into a SymbolResult.
// Expects columns: [SymbolCols..., path, module, scope_index, scope kind,
// scope name, definition_count].
func scanSymbolResult(row scanner) (SymbolResult, error) {
	var sr SymbolResult
	var flags string
	err := row.Scan(
		&sr.ID, &sr.FileID, &sr.ScopeID, &sr.SymbolIndex, &sr.Name, &flags,
		&sr.FilePath, &sr.Module, &sr.ScopeIndex, &sr.ScopeKind, &sr.ScopeName,
		&sr.DefinitionCount,
	)
	if err != nil {
		return sr, err
	}
	sr.Flags = store.UnmarshalFlags(flags)
	return sr, nil
}

// escapeLike escapes SQL LIKE special characters (% and _) with backslash.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
