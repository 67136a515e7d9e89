package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/pyscope/internal/ast"
)

// expr lowers an expression node. It returns nil for nodes that carry no
// expression (comments, error recovery regions, unsupported patterns).
func (l *lowerer) expr(n *sitter.Node) ast.Expr {
	if n == nil || l.noteError(n) {
		return nil
	}
	switch n.Type() {
	case "identifier", "keyword_identifier":
		return &ast.Name{NodeBase: l.base(n), ID: normalizeIdentifier(l.text(n))}

	case "attribute":
		a := &ast.Attribute{NodeBase: l.base(n), Value: l.expr(n.ChildByFieldName("object"))}
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			a.Attr = l.ident(attr)
		}
		return a

	case "subscript":
		return l.subscript(n)

	case "slice":
		return l.slice(n)

	case "call":
		c := &ast.Call{NodeBase: l.base(n), Func: l.expr(n.ChildByFieldName("function"))}
		args := n.ChildByFieldName("arguments")
		switch {
		case args == nil:
			c.Arguments = &ast.Arguments{NodeBase: l.base(n)}
		case args.Type() == "generator_expression":
			c.Arguments = &ast.Arguments{NodeBase: l.base(args), Args: []ast.Expr{l.expr(args)}}
		default:
			c.Arguments = l.arguments(args)
		}
		return c

	case "string":
		return l.stringLit(n, []*sitter.Node{n})
	case "concatenated_string":
		return l.stringLit(n, namedChildren(n))

	case "integer", "float":
		return &ast.NumberLiteral{NodeBase: l.base(n), Text: l.text(n)}
	case "true":
		return &ast.BooleanLiteral{NodeBase: l.base(n), Value: true}
	case "false":
		return &ast.BooleanLiteral{NodeBase: l.base(n), Value: false}
	case "none":
		return &ast.NoneLiteral{NodeBase: l.base(n)}
	case "ellipsis":
		return &ast.EllipsisLiteral{NodeBase: l.base(n)}

	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		return &ast.Tuple{NodeBase: l.base(n), Elts: l.exprs(namedChildren(n))}
	case "list", "list_pattern":
		return &ast.List{NodeBase: l.base(n), Elts: l.exprs(namedChildren(n))}
	case "set":
		return &ast.Set{NodeBase: l.base(n), Elts: l.exprs(namedChildren(n))}
	case "dictionary":
		return l.dict(n)

	case "list_comprehension":
		elt, gens := l.comprehension(n)
		return &ast.ListComp{NodeBase: l.base(n), Elt: elt, Generators: gens}
	case "set_comprehension":
		elt, gens := l.comprehension(n)
		return &ast.SetComp{NodeBase: l.base(n), Elt: elt, Generators: gens}
	case "generator_expression":
		elt, gens := l.comprehension(n)
		return &ast.GeneratorExp{NodeBase: l.base(n), Elt: elt, Generators: gens}
	case "dictionary_comprehension":
		d := &ast.DictComp{NodeBase: l.base(n)}
		if body := n.ChildByFieldName("body"); body != nil {
			d.Key = l.expr(body.ChildByFieldName("key"))
			d.Value = l.expr(body.ChildByFieldName("value"))
		}
		_, d.Generators = l.comprehension(n)
		return d

	case "lambda":
		lam := &ast.Lambda{NodeBase: l.base(n), Body: l.expr(n.ChildByFieldName("body"))}
		if params := n.ChildByFieldName("parameters"); params != nil {
			lam.Parameters = l.parameters(params)
		}
		return lam

	case "not_operator":
		return &ast.UnaryOp{NodeBase: l.base(n), Op: "not", Operand: l.expr(n.ChildByFieldName("argument"))}
	case "unary_operator":
		op := ""
		if o := n.ChildByFieldName("operator"); o != nil {
			op = l.text(o)
		}
		return &ast.UnaryOp{NodeBase: l.base(n), Op: op, Operand: l.expr(n.ChildByFieldName("argument"))}
	case "binary_operator":
		op := ""
		if o := n.ChildByFieldName("operator"); o != nil {
			op = l.text(o)
		}
		return &ast.BinOp{
			NodeBase: l.base(n),
			Left:     l.expr(n.ChildByFieldName("left")),
			Op:       op,
			Right:    l.expr(n.ChildByFieldName("right")),
		}
	case "boolean_operator":
		return l.boolOp(n)
	case "comparison_operator":
		return l.compare(n)

	case "conditional_expression":
		cs := namedChildren(n)
		ifExp := &ast.IfExp{NodeBase: l.base(n)}
		if len(cs) > 0 {
			ifExp.Body = l.expr(cs[0])
		}
		if len(cs) > 1 {
			ifExp.Test = l.expr(cs[1])
		}
		if len(cs) > 2 {
			ifExp.Orelse = l.expr(cs[2])
		}
		return ifExp

	case "named_expression":
		return &ast.NamedExpr{
			NodeBase: l.base(n),
			Target:   l.target(n.ChildByFieldName("name"), ast.Store),
			Value:    l.expr(n.ChildByFieldName("value")),
		}

	case "await":
		return &ast.Await{NodeBase: l.base(n), Value: l.firstExpr(n)}
	case "yield":
		if hasToken(n, "from") {
			return &ast.YieldFrom{NodeBase: l.base(n), Value: l.firstExpr(n)}
		}
		return &ast.Yield{NodeBase: l.base(n), Value: l.firstExpr(n)}

	case "list_splat", "list_splat_pattern", "splat_type":
		return &ast.Starred{NodeBase: l.base(n), Value: l.firstExpr(n)}

	case "parenthesized_expression", "type", "as_pattern_target", "decorator":
		return l.firstExpr(n)

	case "generic_type":
		return l.genericType(n)
	case "union_type":
		cs := namedChildren(n)
		if len(cs) != 2 {
			return l.firstExpr(n)
		}
		return &ast.BinOp{NodeBase: l.base(n), Left: l.expr(cs[0]), Op: "|", Right: l.expr(cs[1])}
	case "member_type":
		cs := namedChildren(n)
		if len(cs) != 2 {
			return l.firstExpr(n)
		}
		return &ast.Attribute{NodeBase: l.base(n), Value: l.expr(cs[0]), Attr: l.ident(cs[1])}
	case "constrained_type", "as_pattern":
		return l.firstExpr(n)
	}
	return nil
}

func (l *lowerer) firstExpr(n *sitter.Node) ast.Expr {
	for _, c := range namedChildren(n) {
		if e := l.expr(c); e != nil {
			return e
		}
	}
	return nil
}

func (l *lowerer) exprs(ns []*sitter.Node) []ast.Expr {
	out := make([]ast.Expr, 0, len(ns))
	for _, c := range ns {
		if e := l.expr(c); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// subscript lowers `value[i]` and `value[i, j]`. Several subscript fields
// become one Tuple slice.
func (l *lowerer) subscript(n *sitter.Node) ast.Expr {
	value := n.ChildByFieldName("value")
	s := &ast.Subscript{NodeBase: l.base(n), Value: l.expr(value)}
	var parts []*sitter.Node
	for _, c := range namedChildren(n) {
		if !sameNode(c, value) {
			parts = append(parts, c)
		}
	}
	switch len(parts) {
	case 0:
	case 1:
		s.Slice = l.expr(parts[0])
	default:
		s.Slice = &ast.Tuple{NodeBase: l.span(parts[0], parts[len(parts)-1]), Elts: l.exprs(parts)}
	}
	return s
}

func (l *lowerer) slice(n *sitter.Node) ast.Expr {
	s := &ast.Slice{NodeBase: l.base(n)}
	part := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() {
			if c.Type() == ":" {
				part++
			}
			continue
		}
		e := l.expr(c)
		switch part {
		case 0:
			s.Lower = e
		case 1:
			s.Upper = e
		default:
			s.Step = e
		}
	}
	return s
}

func (l *lowerer) dict(n *sitter.Node) ast.Expr {
	d := &ast.Dict{NodeBase: l.base(n)}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "pair":
			d.Keys = append(d.Keys, l.expr(c.ChildByFieldName("key")))
			d.Values = append(d.Values, l.expr(c.ChildByFieldName("value")))
		case "dictionary_splat":
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, l.firstExpr(c))
		}
	}
	return d
}

// comprehension returns the element expression and the for/if clauses of a
// comprehension or generator expression.
func (l *lowerer) comprehension(n *sitter.Node) (ast.Expr, []*ast.Comprehension) {
	var elt ast.Expr
	body := n.ChildByFieldName("body")
	if body != nil && body.Type() != "pair" {
		elt = l.expr(body)
	}
	var gens []*ast.Comprehension
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "for_in_clause":
			gens = append(gens, &ast.Comprehension{
				NodeBase: l.base(c),
				Target:   l.target(c.ChildByFieldName("left"), ast.Store),
				Iter:     l.expr(c.ChildByFieldName("right")),
				IsAsync:  hasToken(c, "async"),
			})
		case "if_clause":
			if len(gens) == 0 {
				continue
			}
			last := gens[len(gens)-1]
			if e := l.firstExpr(c); e != nil {
				last.Ifs = append(last.Ifs, e)
			}
		}
	}
	return elt, gens
}

// boolOp flattens chains of the same operator: `a and b and c` is one
// BoolOp with three values.
func (l *lowerer) boolOp(n *sitter.Node) ast.Expr {
	op := ""
	if o := n.ChildByFieldName("operator"); o != nil {
		op = l.text(o)
	}
	b := &ast.BoolOp{NodeBase: l.base(n), Op: op}
	var collect func(side *sitter.Node)
	collect = func(side *sitter.Node) {
		if side == nil {
			return
		}
		if side.Type() == "boolean_operator" {
			if o := side.ChildByFieldName("operator"); o != nil && l.text(o) == op {
				collect(side.ChildByFieldName("left"))
				collect(side.ChildByFieldName("right"))
				return
			}
		}
		if e := l.expr(side); e != nil {
			b.Values = append(b.Values, e)
		}
	}
	collect(n.ChildByFieldName("left"))
	collect(n.ChildByFieldName("right"))
	return b
}

func (l *lowerer) compare(n *sitter.Node) ast.Expr {
	c := &ast.Compare{NodeBase: l.base(n)}
	first := true
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() {
			c.Ops = append(c.Ops, normalizeOp(child.Type()))
			continue
		}
		if child.Type() == "comment" {
			continue
		}
		e := l.expr(child)
		if first {
			c.Left = e
			first = false
			continue
		}
		if e != nil {
			c.Comparators = append(c.Comparators, e)
		}
	}
	return c
}

func (l *lowerer) genericType(n *sitter.Node) ast.Expr {
	s := &ast.Subscript{NodeBase: l.base(n)}
	if id := firstOfType(n, "identifier", "attribute", "member_type"); id != nil {
		s.Value = l.expr(id)
	}
	tp := firstOfType(n, "type_parameter")
	if tp == nil {
		return s
	}
	parts := namedChildren(tp)
	switch len(parts) {
	case 0:
	case 1:
		s.Slice = l.expr(parts[0])
	default:
		s.Slice = &ast.Tuple{NodeBase: l.span(parts[0], parts[len(parts)-1]), Elts: l.exprs(parts)}
	}
	return s
}

// stringLit lowers one string or an implicit concatenation. Any f-string
// part turns the whole literal into an FString carrying the interpolated
// expressions.
func (l *lowerer) stringLit(n *sitter.Node, parts []*sitter.Node) ast.Expr {
	var (
		isF, isBytes bool
		value        strings.Builder
		values       []ast.Expr
	)
	for _, part := range parts {
		if part.Type() != "string" {
			continue
		}
		prefix := ""
		for i := 0; i < int(part.ChildCount()); i++ {
			c := part.Child(i)
			if c.Type() == "string_start" {
				prefix = strings.ToLower(strings.TrimRight(l.text(c), "\"'"))
				break
			}
		}
		if prefix == "" {
			raw := l.text(part)
			prefix = strings.ToLower(raw[:strings.IndexAny(raw+"\"", "\"'")])
		}
		if strings.ContainsRune(prefix, 'f') {
			isF = true
		}
		if strings.ContainsRune(prefix, 'b') {
			isBytes = true
		}
		for i := 0; i < int(part.ChildCount()); i++ {
			c := part.Child(i)
			switch c.Type() {
			case "string_content", "escape_sequence":
				value.WriteString(l.text(c))
			}
		}
		values = append(values, l.interpolations(part)...)
	}
	if isF {
		return &ast.FString{NodeBase: l.base(n), Values: values}
	}
	return &ast.StringLiteral{NodeBase: l.base(n), Value: value.String(), IsBytes: isBytes}
}

// interpolations collects the expressions of every interpolation under n,
// including those nested in format specifiers.
func (l *lowerer) interpolations(n *sitter.Node) []ast.Expr {
	var out []ast.Expr
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "interpolation":
			expr := c.ChildByFieldName("expression")
			if expr == nil {
				for _, ic := range namedChildren(c) {
					if t := ic.Type(); t != "format_specifier" && t != "type_conversion" {
						expr = ic
						break
					}
				}
			}
			if e := l.expr(expr); e != nil {
				out = append(out, e)
			}
			for _, ic := range namedChildren(c) {
				if ic.Type() == "format_specifier" {
					out = append(out, l.interpolations(ic)...)
				}
			}
		case "string_content":
			out = append(out, l.interpolations(c)...)
		}
	}
	return out
}

func (l *lowerer) arguments(n *sitter.Node) *ast.Arguments {
	a := &ast.Arguments{NodeBase: l.base(n)}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "keyword_argument":
			kw := &ast.Keyword{NodeBase: l.base(c), Value: l.expr(c.ChildByFieldName("value"))}
			if name := c.ChildByFieldName("name"); name != nil {
				id := l.ident(name)
				kw.Arg = &id
			}
			a.Keywords = append(a.Keywords, kw)
		case "dictionary_splat":
			a.Keywords = append(a.Keywords, &ast.Keyword{NodeBase: l.base(c), Value: l.firstExpr(c)})
		default:
			if e := l.expr(c); e != nil {
				a.Args = append(a.Args, e)
			}
		}
	}
	return a
}

// parameters lowers `parameters` and `lambda_parameters` nodes.
func (l *lowerer) parameters(n *sitter.Node) *ast.Parameters {
	if n == nil {
		return nil
	}
	ps := &ast.Parameters{NodeBase: l.base(n)}
	kind := ast.ParamRegular
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "positional_separator":
			for _, p := range ps.Params {
				if p.ParamKind == ast.ParamRegular {
					p.ParamKind = ast.ParamPositionalOnly
				}
			}
			continue
		case "keyword_separator":
			kind = ast.ParamKeywordOnly
			continue
		}
		p := l.parameter(c, kind)
		if p == nil {
			continue
		}
		if p.ParamKind == ast.ParamVarPositional {
			kind = ast.ParamKeywordOnly
		}
		ps.Params = append(ps.Params, p)
	}
	return ps
}

func (l *lowerer) parameter(n *sitter.Node, kind ast.ParameterKind) *ast.Parameter {
	p := &ast.Parameter{NodeBase: l.base(n), ParamKind: kind}
	nameNode := n
	switch n.Type() {
	case "identifier":
	case "list_splat_pattern":
		p.ParamKind = ast.ParamVarPositional
	case "dictionary_splat_pattern":
		p.ParamKind = ast.ParamVarKeyword
	case "typed_parameter":
		nameNode = nil
		for _, c := range namedChildren(n) {
			if c.Type() != "type" {
				nameNode = c
				break
			}
		}
		if nameNode != nil {
			switch nameNode.Type() {
			case "list_splat_pattern":
				p.ParamKind = ast.ParamVarPositional
			case "dictionary_splat_pattern":
				p.ParamKind = ast.ParamVarKeyword
			}
		}
		p.Annotation = l.expr(n.ChildByFieldName("type"))
	case "default_parameter":
		nameNode = n.ChildByFieldName("name")
		p.Default = l.expr(n.ChildByFieldName("value"))
	case "typed_default_parameter":
		nameNode = n.ChildByFieldName("name")
		p.Annotation = l.expr(n.ChildByFieldName("type"))
		p.Default = l.expr(n.ChildByFieldName("value"))
	default:
		l.noteError(n)
		return nil
	}
	if id := firstIdentifier(nameNode); id != nil {
		p.Name = l.ident(id)
	}
	return p
}

// typeParams lowers a PEP 695 `[T, *Ts, **P, U: int]` list.
func (l *lowerer) typeParams(n *sitter.Node) *ast.TypeParams {
	if n == nil {
		return nil
	}
	tp := &ast.TypeParams{NodeBase: l.base(n)}
	for _, c := range namedChildren(n) {
		inner := c
		if inner.Type() == "type" {
			if cs := namedChildren(inner); len(cs) > 0 {
				inner = cs[0]
			}
		}
		p := &ast.TypeParam{NodeBase: l.base(c)}
		switch inner.Type() {
		case "constrained_type":
			cs := namedChildren(inner)
			if len(cs) > 0 {
				if id := firstIdentifier(cs[0]); id != nil {
					p.Name = l.ident(id)
				}
			}
			if len(cs) > 1 {
				p.Bound = l.expr(cs[1])
			}
		case "splat_type":
			p.ParamKind = ast.TypeVarTuple
			if hasToken(inner, "**") {
				p.ParamKind = ast.ParamSpec
			}
			if id := firstIdentifier(inner); id != nil {
				p.Name = l.ident(id)
			}
		default:
			id := firstIdentifier(inner)
			if id == nil {
				continue
			}
			p.Name = l.ident(id)
		}
		if p.Name.ID == "" {
			continue
		}
		tp.Params = append(tp.Params, p)
	}
	return tp
}
