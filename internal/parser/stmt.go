package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/pyscope/internal/ast"
)

// block lowers the statements directly under n (a module or block node).
func (l *lowerer) block(n *sitter.Node) []ast.Stmt {
	var out []ast.Stmt
	for _, c := range namedChildren(n) {
		if s := l.stmt(c); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (l *lowerer) stmt(n *sitter.Node) ast.Stmt {
	if l.noteError(n) {
		return nil
	}
	switch n.Type() {
	case "expression_statement":
		return l.expressionStatement(n)
	case "function_definition":
		return l.functionDef(n, n)
	case "class_definition":
		return l.classDef(n, n)
	case "decorated_definition":
		return l.decorated(n)
	case "import_statement":
		return l.importStmt(n)
	case "import_from_statement", "future_import_statement":
		return l.importFrom(n)
	case "return_statement":
		s := &ast.Return{NodeBase: l.base(n)}
		if cs := namedChildren(n); len(cs) > 0 {
			s.Value = l.expr(cs[0])
		}
		return s
	case "delete_statement":
		return l.deleteStmt(n)
	case "raise_statement":
		return l.raiseStmt(n)
	case "assert_statement":
		s := &ast.Assert{NodeBase: l.base(n)}
		cs := namedChildren(n)
		if len(cs) > 0 {
			s.Test = l.expr(cs[0])
		}
		if len(cs) > 1 {
			s.Msg = l.expr(cs[1])
		}
		return s
	case "global_statement":
		return &ast.Global{NodeBase: l.base(n), Names: l.identifiers(n)}
	case "nonlocal_statement":
		return &ast.Nonlocal{NodeBase: l.base(n), Names: l.identifiers(n)}
	case "pass_statement":
		return &ast.Pass{NodeBase: l.base(n)}
	case "break_statement":
		return &ast.Break{NodeBase: l.base(n)}
	case "continue_statement":
		return &ast.Continue{NodeBase: l.base(n)}
	case "if_statement":
		return l.ifStmt(n)
	case "for_statement":
		return &ast.For{
			NodeBase: l.base(n),
			IsAsync:  hasToken(n, "async"),
			Target:   l.target(n.ChildByFieldName("left"), ast.Store),
			Iter:     l.expr(n.ChildByFieldName("right")),
			Body:     l.block(n.ChildByFieldName("body")),
			Orelse:   l.elseBody(n.ChildByFieldName("alternative")),
		}
	case "while_statement":
		return &ast.While{
			NodeBase: l.base(n),
			Test:     l.expr(n.ChildByFieldName("condition")),
			Body:     l.block(n.ChildByFieldName("body")),
			Orelse:   l.elseBody(n.ChildByFieldName("alternative")),
		}
	case "try_statement":
		return l.tryStmt(n)
	case "with_statement":
		return l.withStmt(n)
	case "match_statement":
		return l.matchStmt(n)
	case "type_alias_statement":
		return l.typeAlias(n)
	}
	return nil
}

func (l *lowerer) identifiers(n *sitter.Node) []ast.Identifier {
	var out []ast.Identifier
	for _, c := range namedChildren(n) {
		if c.Type() == "identifier" {
			out = append(out, l.ident(c))
		}
	}
	return out
}

func (l *lowerer) expressionStatement(n *sitter.Node) ast.Stmt {
	cs := namedChildren(n)
	if len(cs) == 0 {
		return nil
	}
	if len(cs) == 1 {
		switch cs[0].Type() {
		case "assignment":
			return l.assignment(cs[0])
		case "augmented_assignment":
			return l.augAssignment(cs[0])
		}
		return &ast.ExprStmt{NodeBase: l.base(n), Value: l.expr(cs[0])}
	}
	tuple := &ast.Tuple{NodeBase: l.base(n)}
	for _, c := range cs {
		if e := l.expr(c); e != nil {
			tuple.Elts = append(tuple.Elts, e)
		}
	}
	return &ast.ExprStmt{NodeBase: l.base(n), Value: tuple}
}

// assignment lowers plain, chained and annotated assignments. Chained
// assignments nest in the CST (`a = b = 1` is assignment(a, assignment(b, 1)))
// and are flattened into one Assign with several targets.
func (l *lowerer) assignment(n *sitter.Node) ast.Stmt {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if ann := n.ChildByFieldName("type"); ann != nil {
		s := &ast.AnnAssign{
			NodeBase:   l.base(n),
			Target:     l.target(left, ast.Store),
			Annotation: l.expr(ann),
		}
		if right != nil {
			s.Value = l.expr(right)
		}
		return s
	}

	s := &ast.Assign{NodeBase: l.base(n)}
	s.Targets = append(s.Targets, l.target(left, ast.Store))
	for right != nil && right.Type() == "assignment" && right.ChildByFieldName("type") == nil {
		s.Targets = append(s.Targets, l.target(right.ChildByFieldName("left"), ast.Store))
		right = right.ChildByFieldName("right")
	}
	if right != nil {
		s.Value = l.expr(right)
	}
	return s
}

func (l *lowerer) augAssignment(n *sitter.Node) ast.Stmt {
	op := ""
	if o := n.ChildByFieldName("operator"); o != nil {
		op = l.text(o)
	}
	return &ast.AugAssign{
		NodeBase: l.base(n),
		Target:   l.target(n.ChildByFieldName("left"), ast.Store),
		Op:       op,
		Value:    l.expr(n.ChildByFieldName("right")),
	}
}

func (l *lowerer) deleteStmt(n *sitter.Node) ast.Stmt {
	s := &ast.Delete{NodeBase: l.base(n)}
	for _, c := range namedChildren(n) {
		if c.Type() == "expression_list" {
			for _, item := range namedChildren(c) {
				s.Targets = append(s.Targets, l.target(item, ast.Del))
			}
			continue
		}
		s.Targets = append(s.Targets, l.target(c, ast.Del))
	}
	return s
}

func (l *lowerer) raiseStmt(n *sitter.Node) ast.Stmt {
	s := &ast.Raise{NodeBase: l.base(n)}
	cause := n.ChildByFieldName("cause")
	for _, c := range namedChildren(n) {
		if sameNode(c, cause) {
			continue
		}
		s.Exc = l.expr(c)
		break
	}
	if cause != nil {
		s.Cause = l.expr(cause)
	}
	return s
}

func (l *lowerer) decorated(n *sitter.Node) ast.Stmt {
	def := n.ChildByFieldName("definition")
	if def == nil {
		def = firstOfType(n, "function_definition", "class_definition")
	}
	if def == nil {
		return nil
	}
	var decorators []ast.Expr
	for _, c := range namedChildren(n) {
		if c.Type() != "decorator" {
			continue
		}
		if cs := namedChildren(c); len(cs) > 0 {
			if e := l.expr(cs[0]); e != nil {
				decorators = append(decorators, e)
			}
		}
	}
	switch def.Type() {
	case "function_definition":
		fn := l.functionDef(def, n)
		fn.Decorators = decorators
		return fn
	case "class_definition":
		cls := l.classDef(def, n)
		cls.Decorators = decorators
		return cls
	}
	return nil
}

// functionDef lowers n; outer supplies the node range, which includes any
// decorators.
func (l *lowerer) functionDef(n, outer *sitter.Node) *ast.FunctionDef {
	fn := &ast.FunctionDef{
		NodeBase:   l.base(outer),
		IsAsync:    hasToken(n, "async"),
		TypeParams: l.typeParams(n.ChildByFieldName("type_parameters")),
		Parameters: l.parameters(n.ChildByFieldName("parameters")),
		Body:       l.block(n.ChildByFieldName("body")),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = l.ident(name)
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		fn.Returns = l.expr(ret)
	}
	return fn
}

func (l *lowerer) classDef(n, outer *sitter.Node) *ast.ClassDef {
	cls := &ast.ClassDef{
		NodeBase:   l.base(outer),
		TypeParams: l.typeParams(n.ChildByFieldName("type_parameters")),
		Body:       l.block(n.ChildByFieldName("body")),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		cls.Name = l.ident(name)
	}
	if sup := n.ChildByFieldName("superclasses"); sup != nil {
		cls.Arguments = l.arguments(sup)
	}
	return cls
}

func (l *lowerer) alias(n *sitter.Node) *ast.Alias {
	switch n.Type() {
	case "dotted_name":
		return &ast.Alias{NodeBase: l.base(n), Name: l.dottedName(n)}
	case "aliased_import":
		a := &ast.Alias{NodeBase: l.base(n)}
		if name := n.ChildByFieldName("name"); name != nil {
			a.Name = l.dottedName(name)
		}
		if as := n.ChildByFieldName("alias"); as != nil {
			id := l.ident(as)
			a.AsName = &id
		}
		return a
	case "wildcard_import":
		return &ast.Alias{NodeBase: l.base(n), Name: "*"}
	}
	return nil
}

func (l *lowerer) dottedName(n *sitter.Node) string {
	parts := make([]string, 0, n.NamedChildCount())
	for _, c := range namedChildren(n) {
		parts = append(parts, normalizeIdentifier(l.text(c)))
	}
	if len(parts) == 0 {
		return normalizeIdentifier(l.text(n))
	}
	return strings.Join(parts, ".")
}

func (l *lowerer) importStmt(n *sitter.Node) ast.Stmt {
	s := &ast.Import{NodeBase: l.base(n)}
	for _, c := range namedChildren(n) {
		if a := l.alias(c); a != nil {
			s.Names = append(s.Names, a)
		}
	}
	return s
}

func (l *lowerer) importFrom(n *sitter.Node) ast.Stmt {
	s := &ast.ImportFrom{NodeBase: l.base(n)}
	moduleName := n.ChildByFieldName("module_name")
	if n.Type() == "future_import_statement" {
		s.ModuleName = "__future__"
	}
	if moduleName != nil {
		switch moduleName.Type() {
		case "relative_import":
			for _, c := range namedChildren(moduleName) {
				switch c.Type() {
				case "import_prefix":
					s.Level = strings.Count(l.text(c), ".")
				case "dotted_name":
					s.ModuleName = l.dottedName(c)
				}
			}
		default:
			s.ModuleName = l.dottedName(moduleName)
		}
	}
	for _, c := range namedChildren(n) {
		if sameNode(c, moduleName) {
			continue
		}
		if a := l.alias(c); a != nil {
			s.Names = append(s.Names, a)
		}
	}
	return s
}

// ifStmt lowers an if/elif/else chain into nested If nodes.
func (l *lowerer) ifStmt(n *sitter.Node) ast.Stmt {
	root := &ast.If{
		NodeBase: l.base(n),
		Test:     l.expr(n.ChildByFieldName("condition")),
		Body:     l.block(n.ChildByFieldName("consequence")),
	}
	tail := root
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "elif_clause":
			elif := &ast.If{
				NodeBase: ast.NodeBase{Rng: ast.Range{Start: c.StartByte(), End: n.EndByte()}, Mod: l.id},
				Test:     l.expr(c.ChildByFieldName("condition")),
				Body:     l.block(c.ChildByFieldName("consequence")),
			}
			tail.Orelse = []ast.Stmt{elif}
			tail = elif
		case "else_clause":
			tail.Orelse = l.elseBody(c)
		}
	}
	return root
}

func (l *lowerer) elseBody(n *sitter.Node) []ast.Stmt {
	if n == nil {
		return nil
	}
	if body := n.ChildByFieldName("body"); body != nil {
		return l.block(body)
	}
	if b := firstOfType(n, "block"); b != nil {
		return l.block(b)
	}
	return nil
}

func (l *lowerer) tryStmt(n *sitter.Node) ast.Stmt {
	s := &ast.Try{NodeBase: l.base(n), Body: l.block(n.ChildByFieldName("body"))}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "except_clause":
			s.Handlers = append(s.Handlers, l.exceptHandler(c))
		case "except_group_clause":
			s.IsStar = true
			s.Handlers = append(s.Handlers, l.exceptHandler(c))
		case "else_clause":
			s.Orelse = l.elseBody(c)
		case "finally_clause":
			s.Finalbody = l.elseBody(c)
		}
	}
	return s
}

// exceptHandler accepts both `except E as name` shapes the grammar has
// produced: an as_pattern child, or the type and alias as siblings.
func (l *lowerer) exceptHandler(n *sitter.Node) *ast.ExceptHandler {
	h := &ast.ExceptHandler{NodeBase: l.base(n)}
	var exprs []*sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() == "block" {
			h.Body = l.block(c)
			continue
		}
		exprs = append(exprs, c)
	}
	if len(exprs) == 0 {
		return h
	}
	if exprs[0].Type() == "as_pattern" {
		value, alias := asPatternParts(exprs[0])
		h.Type = l.expr(value)
		if id := firstIdentifier(alias); id != nil {
			ident := l.ident(id)
			h.Name = &ident
		}
		return h
	}
	h.Type = l.expr(exprs[0])
	if len(exprs) > 1 {
		if id := firstIdentifier(exprs[1]); id != nil {
			ident := l.ident(id)
			h.Name = &ident
		}
	}
	return h
}

func asPatternParts(n *sitter.Node) (value, alias *sitter.Node) {
	cs := namedChildren(n)
	if len(cs) > 0 {
		value = cs[0]
	}
	alias = n.ChildByFieldName("alias")
	if alias == nil && len(cs) > 1 {
		alias = cs[len(cs)-1]
	}
	if alias != nil && alias.Type() == "as_pattern_target" {
		if inner := namedChildren(alias); len(inner) > 0 {
			alias = inner[0]
		}
	}
	return value, alias
}

func (l *lowerer) withStmt(n *sitter.Node) ast.Stmt {
	s := &ast.With{
		NodeBase: l.base(n),
		IsAsync:  hasToken(n, "async"),
		Body:     l.block(n.ChildByFieldName("body")),
	}
	clause := firstOfType(n, "with_clause")
	if clause == nil {
		return s
	}
	for _, item := range namedChildren(clause) {
		if item.Type() != "with_item" {
			continue
		}
		value := item.ChildByFieldName("value")
		if value == nil {
			if cs := namedChildren(item); len(cs) > 0 {
				value = cs[0]
			}
		}
		if value == nil {
			continue
		}
		wi := &ast.WithItem{NodeBase: l.base(item)}
		if value.Type() == "as_pattern" {
			ctxExpr, alias := asPatternParts(value)
			wi.ContextExpr = l.expr(ctxExpr)
			if alias != nil {
				wi.OptionalVars = l.target(alias, ast.Store)
			}
		} else {
			wi.ContextExpr = l.expr(value)
			if alias := item.ChildByFieldName("alias"); alias != nil {
				wi.OptionalVars = l.target(alias, ast.Store)
			}
		}
		s.Items = append(s.Items, wi)
	}
	return s
}

func (l *lowerer) matchStmt(n *sitter.Node) ast.Stmt {
	s := &ast.Match{NodeBase: l.base(n)}
	if subject := n.ChildByFieldName("subject"); subject != nil {
		s.Subject = l.expr(subject)
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = firstOfType(n, "block")
	}
	for _, c := range namedChildren(body) {
		if c.Type() != "case_clause" {
			continue
		}
		mc := &ast.MatchCase{NodeBase: l.base(c)}
		if guard := c.ChildByFieldName("guard"); guard != nil {
			if cs := namedChildren(guard); len(cs) > 0 {
				mc.Guard = l.expr(cs[0])
			}
		}
		consequence := c.ChildByFieldName("consequence")
		if consequence == nil {
			consequence = firstOfType(c, "block")
		}
		mc.Body = l.block(consequence)
		s.Cases = append(s.Cases, mc)
	}
	return s
}

func (l *lowerer) typeAlias(n *sitter.Node) ast.Stmt {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		cs := namedChildren(n)
		if len(cs) < 2 {
			return nil
		}
		left, right = cs[0], cs[1]
	}
	s := &ast.TypeAlias{NodeBase: l.base(n), Value: l.expr(right)}

	inner := left
	if inner.Type() == "type" {
		if cs := namedChildren(inner); len(cs) > 0 {
			inner = cs[0]
		}
	}
	switch inner.Type() {
	case "generic_type", "subscript":
		if id := firstIdentifier(inner); id != nil {
			s.Name = l.target(id, ast.Store)
		}
		s.TypeParams = l.typeParams(firstOfType(inner, "type_parameter"))
	default:
		s.Name = l.target(inner, ast.Store)
	}
	return s
}
