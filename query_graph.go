package pyscope

import (
	"fmt"
)

// UnusedSymbols returns names that are bound but never read. A name counts
// as read when its own symbol is used or when a nested scope of its owner
// reads the same name without binding it. Only function and annotation
// scopes are considered unless filter.ScopeKinds says otherwise: module and
// class bindings are reachable as attributes. Supports the same SymbolFilter
// and Pagination as ListSymbols.
func (q *QueryBuilder) UnusedSymbols(filter SymbolFilter, sort Sort, page Pagination) (*PagedResult[SymbolResult], error) {
	if len(filter.ScopeKinds) == 0 {
		filter.ScopeKinds = []string{"function", "annotation"}
	}
	where, args := symbolWhere(filter)

	where = append([]string{
		"EXISTS (SELECT 1 FROM json_each(s.flags) WHERE json_each.value = 'defined')",
		"NOT EXISTS (SELECT 1 FROM json_each(s.flags) WHERE json_each.value = 'used')",
		"s.name NOT IN ('_', '*')",
		`NOT EXISTS (
			SELECT 1 FROM symbols s2 JOIN scopes sc2 ON s2.scope_id = sc2.id
			WHERE s2.file_id = s.file_id AND s2.name = s.name
			  AND sc2.scope_index >= sc.descendants_start AND sc2.scope_index < sc.descendants_end
			  AND EXISTS (SELECT 1 FROM json_each(s2.flags) WHERE json_each.value = 'used')
			  AND NOT EXISTS (SELECT 1 FROM json_each(s2.flags) WHERE json_each.value = 'defined'))`,
	}, where...)

	return q.pagedSymbols("unused symbols", where, args, sort, page)
}

// ImportedModule is a module ranked by how widely it is imported.
type ImportedModule struct {
	Module        string
	ImporterCount int // distinct importing files
	ImportCount   int // import aliases naming it
}

// MostImported returns the top-N absolute import targets by number of
// importing files. topN of 0 returns empty list. Negative returns error.
func (q *QueryBuilder) MostImported(topN int) ([]*ImportedModule, error) {
	if topN < 0 {
		return nil, fmt.Errorf("most imported: topN must be non-negative, got %d", topN)
	}
	if topN == 0 {
		return []*ImportedModule{}, nil
	}

	rows, err := q.store.DB().Query(
		`SELECT module, COUNT(DISTINCT file_id) AS importer_count, COUNT(*) AS import_count
		 FROM imports
		 WHERE level = 0 AND module != ''
		 GROUP BY module
		 ORDER BY importer_count DESC, import_count DESC, module
		 LIMIT ?`, topN,
	)
	if err != nil {
		return nil, fmt.Errorf("most imported: query: %w", err)
	}
	defer rows.Close()

	items := []*ImportedModule{}
	for rows.Next() {
		m := &ImportedModule{}
		if err := rows.Scan(&m.Module, &m.ImporterCount, &m.ImportCount); err != nil {
			return nil, fmt.Errorf("most imported: scan: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("most imported: rows: %w", err)
	}
	return items, nil
}
