package pyscope

import (
	"fmt"

	"github.com/jward/pyscope/internal/store"
)

// ScopeNode is one scope of a file with its symbol table and nested scopes.
type ScopeNode struct {
	Scope    *store.Scope
	Symbols  []*store.Symbol
	Children []*ScopeNode
}

// ScopeHierarchy returns the scope tree of a file rooted at its module
// scope. Children appear in source order. Returns nil with no error if the
// file is not indexed.
func (q *QueryBuilder) ScopeHierarchy(path string) (*ScopeNode, error) {
	f, err := q.file(path)
	if err != nil {
		return nil, fmt.Errorf("scope hierarchy: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}

	scopes, err := q.store.ScopesByFile(f.ID)
	if err != nil {
		return nil, fmt.Errorf("scope hierarchy: scopes: %w", err)
	}
	if len(scopes) == 0 {
		return nil, nil
	}

	symbols, err := q.symbolsByFile(f.ID)
	if err != nil {
		return nil, fmt.Errorf("scope hierarchy: symbols: %w", err)
	}

	// Scopes arrive in pre-order, so every parent is built before its
	// children.
	nodes := make(map[int64]*ScopeNode, len(scopes))
	var root *ScopeNode
	for _, sc := range scopes {
		n := &ScopeNode{
			Scope:    sc,
			Symbols:  symbols[sc.ID],
			Children: []*ScopeNode{},
		}
		if n.Symbols == nil {
			n.Symbols = []*store.Symbol{}
		}
		nodes[sc.ID] = n
		if sc.ParentScopeID == nil {
			root = n
			continue
		}
		parent, ok := nodes[*sc.ParentScopeID]
		if !ok {
			return nil, fmt.Errorf("scope hierarchy: scope %d precedes its parent", sc.ScopeIndex)
		}
		parent.Children = append(parent.Children, n)
	}
	return root, nil
}

// Walk calls fn for n and each scope nested inside it in pre-order, with
// the nesting depth. Walk stops early when fn returns false.
func (n *ScopeNode) Walk(fn func(node *ScopeNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *ScopeNode) walk(fn func(*ScopeNode, int) bool, depth int) bool {
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn, depth+1) {
			return false
		}
	}
	return true
}

// ClassScopes returns the class scopes of a file in source order.
func (q *QueryBuilder) ClassScopes(path string) ([]*store.Scope, error) {
	scopes, err := q.Scopes(path)
	if err != nil {
		return nil, fmt.Errorf("class scopes: %w", err)
	}
	classes := []*store.Scope{}
	for _, sc := range scopes {
		if sc.Kind == "class" {
			classes = append(classes, sc)
		}
	}
	return classes, nil
}

// symbolsByFile loads every symbol of a file grouped by scope row id, each
// group in insertion order.
func (q *QueryBuilder) symbolsByFile(fileID int64) (map[int64][]*store.Symbol, error) {
	rows, err := q.store.DB().Query(
		"SELECT "+store.SymbolCols+" FROM symbols WHERE file_id = ? ORDER BY scope_id, symbol_index",
		fileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := map[int64][]*store.Symbol{}
	for rows.Next() {
		sym, err := store.ScanSymbolRow(rows)
		if err != nil {
			return nil, err
		}
		result[sym.ScopeID] = append(result[sym.ScopeID], sym)
	}
	return result, rows.Err()
}
