// Package semantic builds the per-file semantic index of a Python module:
// the scope tree, per-scope symbol tables, per-scope node ids and the
// reverse maps from expressions and definitions back to their scopes.
//
// An Index is built in one pass over an *ast.Module and is immutable
// afterwards. It holds no references into the syntax tree; nodes are
// identified by position-derived keys, so an Index can be cached, shared
// between goroutines and serialized.
package semantic

import (
	"fmt"

	"github.com/jward/pyscope/internal/ast"
)

// NodeKey identifies a syntax node by its kind and byte range. It is
// comparable and safe to use as a map key without retaining the tree.
type NodeKey struct {
	Kind  ast.Kind
	Start uint32
	End   uint32
}

// KeyOf returns the key of n.
func KeyOf(n ast.Node) NodeKey {
	r := n.Range()
	return NodeKey{Kind: n.Kind(), Start: r.Start, End: r.End}
}

// Range returns the byte range the key was derived from.
func (k NodeKey) Range() ast.Range {
	return ast.Range{Start: k.Start, End: k.End}
}

func (k NodeKey) String() string {
	return fmt.Sprintf("%s@%d..%d", k.Kind, k.Start, k.End)
}

// ExpressionNodeKey is the key of an expression node.
type ExpressionNodeKey struct{ NodeKey }

// DefinitionNodeKey is the key of a function definition, class definition
// or import alias.
type DefinitionNodeKey struct{ NodeKey }

// ExpressionKey returns the key of e.
func ExpressionKey(e ast.Expr) ExpressionNodeKey {
	return ExpressionNodeKey{KeyOf(e)}
}

// DefinitionKey returns the key of d.
func DefinitionKey(d ast.DefinitionNode) DefinitionNodeKey {
	return DefinitionNodeKey{KeyOf(d)}
}
