package semantic

import (
	"bytes"
	"iter"

	"github.com/jward/pyscope/internal/ast"
)

// Index is the finished semantic index of one module. It is immutable and
// safe for concurrent use.
type Index struct {
	scopes       []Scope
	symbolTables []*SymbolTable
	astIDs       []*AstIDs

	scopesByExpression map[ExpressionNodeKey]FileScopeID
	// scopesByDefinition maps a definition to the scope its name is bound
	// in.
	scopesByDefinition map[DefinitionNodeKey]FileScopeID
	scopesByNode       map[NodeWithScopeID]FileScopeID
	// introducedScopes maps a function or class definition to the scope it
	// opens.
	introducedScopes map[DefinitionNodeKey]FileScopeID
}

// ScopeCount returns the number of scopes, including the module scope.
func (idx *Index) ScopeCount() int { return len(idx.scopes) }

// Scope returns the scope with the given id. It panics if id is out of
// range.
func (idx *Index) Scope(id FileScopeID) Scope { return idx.scopes[id] }

// Scopes iterates all scopes in id (pre-)order.
func (idx *Index) Scopes() iter.Seq2[FileScopeID, Scope] {
	return idx.scopeRange(0, len(idx.scopes))
}

func (idx *Index) scopeRange(start, end int) iter.Seq2[FileScopeID, Scope] {
	return func(yield func(FileScopeID, Scope) bool) {
		for i := start; i < end; i++ {
			if !yield(FileScopeID(i), idx.scopes[i]) {
				return
			}
		}
	}
}

// SymbolTable returns the symbol table of scope id.
func (idx *Index) SymbolTable(id FileScopeID) *SymbolTable { return idx.symbolTables[id] }

// AstIDs returns the node id table of scope id.
func (idx *Index) AstIDs(id FileScopeID) *AstIDs { return idx.astIDs[id] }

// ExpressionScopeID returns the scope that owns expr.
func (idx *Index) ExpressionScopeID(expr ast.Expr) (FileScopeID, bool) {
	return idx.ExpressionScopeIDByKey(ExpressionKey(expr))
}

func (idx *Index) ExpressionScopeIDByKey(key ExpressionNodeKey) (FileScopeID, bool) {
	id, ok := idx.scopesByExpression[key]
	return id, ok
}

// DefinitionScopeID returns the scope in which the definition's name is
// bound: the enclosing scope of a function or class, the importing scope of
// an alias.
func (idx *Index) DefinitionScopeID(def ast.DefinitionNode) (FileScopeID, bool) {
	return idx.DefinitionScopeIDByKey(DefinitionKey(def))
}

func (idx *Index) DefinitionScopeIDByKey(key DefinitionNodeKey) (FileScopeID, bool) {
	id, ok := idx.scopesByDefinition[key]
	return id, ok
}

// IntroducedScopeID returns the body scope opened by a function or class
// definition.
func (idx *Index) IntroducedScopeID(def ast.DefinitionNode) (FileScopeID, bool) {
	id, ok := idx.introducedScopes[DefinitionKey(def)]
	return id, ok
}

// NodeScopeID returns the scope introduced by node.
func (idx *Index) NodeScopeID(node NodeWithScopeID) (FileScopeID, bool) {
	id, ok := idx.scopesByNode[node]
	return id, ok
}

// ExpressionCount returns how many expressions have an owning scope.
func (idx *Index) ExpressionCount() int { return len(idx.scopesByExpression) }

// ExpressionID returns the scoped id of expr.
func (idx *Index) ExpressionID(expr ast.Expr) (AstID[ScopedExpressionID], bool) {
	scope, ok := idx.ExpressionScopeID(expr)
	if !ok {
		return AstID[ScopedExpressionID]{}, false
	}
	local, ok := idx.astIDs[scope].ExpressionID(expr)
	return AstID[ScopedExpressionID]{Scope: scope, Local: local}, ok
}

// ResolveDefinition returns the owning scope and Definition value of a
// function definition, class definition or import alias: the key the type
// inference engine uses for the binding's type.
func (idx *Index) ResolveDefinition(node ast.DefinitionNode) (FileScopeID, Definition, bool) {
	scope, ok := idx.DefinitionScopeID(node)
	if !ok {
		return 0, Definition{}, false
	}
	ids := idx.astIDs[scope]
	switch n := node.(type) {
	case *ast.FunctionDef:
		if id, ok := ids.FunctionID(n); ok {
			return scope, FunctionDefinition(id), true
		}
	case *ast.ClassDef:
		if id, ok := ids.ClassID(n); ok {
			return scope, ClassDefinition(id), true
		}
	case *ast.Alias:
		if id, ok := ids.AliasID(n); ok {
			return scope, ImportAliasDefinition(id), true
		}
	}
	return 0, Definition{}, false
}

// ParentScopeID returns the parent of scope id.
func (idx *Index) ParentScopeID(id FileScopeID) (FileScopeID, bool) {
	return idx.scopes[id].Parent()
}

// Ancestors iterates from scope id (inclusive) up to the module scope.
func (idx *Index) Ancestors(id FileScopeID) iter.Seq2[FileScopeID, Scope] {
	return func(yield func(FileScopeID, Scope) bool) {
		cur := id
		for {
			s := idx.scopes[cur]
			if !yield(cur, s) {
				return
			}
			parent, ok := s.Parent()
			if !ok {
				return
			}
			cur = parent
		}
	}
}

// Descendants iterates every scope nested inside scope id.
func (idx *Index) Descendants(id FileScopeID) iter.Seq2[FileScopeID, Scope] {
	r := idx.scopes[id].Descendants()
	return idx.scopeRange(int(r.Start), int(r.End))
}

// Children iterates the direct children of scope id.
func (idx *Index) Children(id FileScopeID) iter.Seq2[FileScopeID, Scope] {
	return func(yield func(FileScopeID, Scope) bool) {
		r := idx.scopes[id].Descendants()
		for child := r.Start; child < r.End; {
			s := idx.scopes[child]
			if !yield(child, s) {
				return
			}
			child = s.Descendants().End
		}
	}
}

// IsDescendant reports whether inner is nested (at any depth) in outer.
func (idx *Index) IsDescendant(inner, outer FileScopeID) bool {
	return idx.scopes[outer].Descendants().Contains(inner)
}

// PublicSymbol looks up name in the module scope.
func (idx *Index) PublicSymbol(name string) (ScopedSymbolID, Symbol, bool) {
	table := idx.symbolTables[RootScope]
	id, ok := table.SymbolIDByName(name)
	if !ok {
		return 0, Symbol{}, false
	}
	return id, table.Symbol(id), true
}

// InnermostScopeAt returns the scope an expression at offset is evaluated
// in: the deepest scope whose region covers it. A default value or base
// class argument maps to the scope enclosing its definition.
func (idx *Index) InnermostScopeAt(offset uint32) FileScopeID {
	best := RootScope
	for id, s := range idx.Scopes() {
		if s.Region().Contains(offset) {
			best = id
		}
	}
	return best
}

// Equal reports whether two indexes are structurally identical.
func (idx *Index) Equal(other *Index) bool {
	a, errA := idx.MarshalSnapshot()
	b, errB := other.MarshalSnapshot()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}
