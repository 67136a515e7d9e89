// Package parser lowers tree-sitter Python syntax trees into the ast
// package's immutable representation.
package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"golang.org/x/text/unicode/norm"

	"github.com/jward/pyscope/internal/ast"
)

// Parse parses src as Python source and lowers it into an ast.Module with a
// fresh ModuleID. Syntax errors do not fail the parse: erroneous regions
// are dropped and Module.HasSyntaxErrors is set.
func Parse(ctx context.Context, path string, src []byte) (*ast.Module, error) {
	if _, err := safecast.Conv[uint32](len(src)); err != nil {
		return nil, fmt.Errorf("parser: %s: source too large: %w", path, err)
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	mod := ast.NewModule(ast.NewModuleID(), path, src)
	l := &lowerer{src: src, id: mod.ID()}
	mod.Body = l.block(root)
	mod.HasSyntaxErrors = root.HasError() || l.sawError
	return mod, nil
}

// lowerer converts CST nodes of a single parse into ast nodes tagged with
// the module id.
type lowerer struct {
	src      []byte
	id       ast.ModuleID
	sawError bool
}

func (l *lowerer) base(n *sitter.Node) ast.NodeBase {
	return ast.NodeBase{Rng: ast.Range{Start: n.StartByte(), End: n.EndByte()}, Mod: l.id}
}

func (l *lowerer) span(from, to *sitter.Node) ast.NodeBase {
	return ast.NodeBase{Rng: ast.Range{Start: from.StartByte(), End: to.EndByte()}, Mod: l.id}
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Content(l.src)
}

func (l *lowerer) ident(n *sitter.Node) ast.Identifier {
	return ast.Identifier{
		Rng: ast.Range{Start: n.StartByte(), End: n.EndByte()},
		ID:  normalizeIdentifier(l.text(n)),
	}
}

// normalizeIdentifier applies NFKC to non-ASCII identifiers, as the Python
// lexer does.
func normalizeIdentifier(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return norm.NFKC.String(s)
		}
	}
	return s
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// hasToken reports whether n has an anonymous child token of the given type.
func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

func firstOfType(n *sitter.Node, types ...string) *sitter.Node {
	for _, c := range namedChildren(n) {
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func firstIdentifier(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "identifier" {
		return n
	}
	for _, c := range namedChildren(n) {
		if id := firstIdentifier(c); id != nil {
			return id
		}
	}
	return nil
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (l *lowerer) noteError(n *sitter.Node) bool {
	if n.Type() == "ERROR" || n.IsMissing() {
		l.sawError = true
		return true
	}
	return false
}

// setContext marks an assignment or deletion target. Containers propagate
// the context to their elements.
func setContext(e ast.Expr, ctx ast.ExprContext) {
	switch e := e.(type) {
	case *ast.Name:
		e.Ctx = ctx
	case *ast.Attribute:
		e.Ctx = ctx
	case *ast.Subscript:
		e.Ctx = ctx
	case *ast.Starred:
		e.Ctx = ctx
		setContext(e.Value, ctx)
	case *ast.Tuple:
		e.Ctx = ctx
		for _, elt := range e.Elts {
			setContext(elt, ctx)
		}
	case *ast.List:
		e.Ctx = ctx
		for _, elt := range e.Elts {
			setContext(elt, ctx)
		}
	}
}

func (l *lowerer) target(n *sitter.Node, ctx ast.ExprContext) ast.Expr {
	e := l.expr(n)
	setContext(e, ctx)
	return e
}

func normalizeOp(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
