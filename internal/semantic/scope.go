package semantic

import (
	"fmt"

	"github.com/jward/pyscope/internal/ast"
)

// ScopeKind classifies a scope.
type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota
	ScopeClass
	ScopeFunction
	// ScopeAnnotation holds the type parameters of a generic class or
	// function (PEP 695).
	ScopeAnnotation
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeAnnotation:
		return "annotation"
	default:
		return "invalid"
	}
}

// NodeWithScopeKind names the construct that introduced a scope.
type NodeWithScopeKind uint8

const (
	NodeModule NodeWithScopeKind = iota
	NodeClass
	NodeClassTypeParams
	NodeFunction
	NodeFunctionTypeParams
)

func (k NodeWithScopeKind) String() string {
	switch k {
	case NodeModule:
		return "module"
	case NodeClass:
		return "class"
	case NodeClassTypeParams:
		return "class-type-params"
	case NodeFunction:
		return "function"
	case NodeFunctionTypeParams:
		return "function-type-params"
	default:
		return "invalid"
	}
}

// ScopeKind returns the kind of scope this construct opens.
func (k NodeWithScopeKind) ScopeKind() ScopeKind {
	switch k {
	case NodeClass:
		return ScopeClass
	case NodeFunction:
		return ScopeFunction
	case NodeClassTypeParams, NodeFunctionTypeParams:
		return ScopeAnnotation
	default:
		return ScopeModule
	}
}

// NodeWithScopeID identifies the construct that introduced a scope by the
// id of its class or function definition in the enclosing scope.
type NodeWithScopeID struct {
	Kind  NodeWithScopeKind
	Scope FileScopeID
	Local uint32
}

func ModuleNode() NodeWithScopeID {
	return NodeWithScopeID{Kind: NodeModule}
}

func ClassNode(id AstID[ScopedClassID]) NodeWithScopeID {
	return NodeWithScopeID{Kind: NodeClass, Scope: id.Scope, Local: uint32(id.Local)}
}

func ClassTypeParamsNode(id AstID[ScopedClassID]) NodeWithScopeID {
	return NodeWithScopeID{Kind: NodeClassTypeParams, Scope: id.Scope, Local: uint32(id.Local)}
}

func FunctionNode(id AstID[ScopedFunctionID]) NodeWithScopeID {
	return NodeWithScopeID{Kind: NodeFunction, Scope: id.Scope, Local: uint32(id.Local)}
}

func FunctionTypeParamsNode(id AstID[ScopedFunctionID]) NodeWithScopeID {
	return NodeWithScopeID{Kind: NodeFunctionTypeParams, Scope: id.Scope, Local: uint32(id.Local)}
}

func (n NodeWithScopeID) String() string {
	if n.Kind == NodeModule {
		return "module"
	}
	return fmt.Sprintf("%s(%d:%d)", n.Kind, n.Scope, n.Local)
}

// ScopeRange is a half-open range of scope ids.
type ScopeRange struct {
	Start FileScopeID
	End   FileScopeID
}

func (r ScopeRange) Contains(id FileScopeID) bool { return id >= r.Start && id < r.End }
func (r ScopeRange) Len() int                     { return int(r.End) - int(r.Start) }

// Scope is one lexical region. Scopes are numbered in the order they are
// opened, so the descendants of a scope occupy the ids immediately after
// it.
type Scope struct {
	name        string
	parent      FileScopeID
	hasParent   bool
	kind        ScopeKind
	node        NodeWithScopeID
	rng         ast.Range
	region      ast.Range
	descendants ScopeRange
	closed      bool
}

func (s Scope) Name() string          { return s.name }
func (s Scope) Kind() ScopeKind       { return s.kind }
func (s Scope) Node() NodeWithScopeID { return s.node }

// Range is the byte range of the construct that introduced the scope.
func (s Scope) Range() ast.Range { return s.rng }

// Region is the byte range whose expressions are evaluated in this scope.
// For a function or class it starts at the body; for an annotation scope
// it starts at the type parameter list.
func (s Scope) Region() ast.Range { return s.region }

// Parent returns the enclosing scope. Only the module scope has none.
func (s Scope) Parent() (FileScopeID, bool) { return s.parent, s.hasParent }

func (s Scope) IsClosed() bool { return s.closed }

// Descendants returns the ids of every scope nested inside s. The range is
// only known once the scope has been popped; calling this on an open scope
// panics.
func (s Scope) Descendants() ScopeRange {
	if !s.closed {
		panic(invariantf("descendants of open scope %q read before it was closed", s.name))
	}
	return s.descendants
}
