package ast

// Visitor receives every statement and expression reached by a walk. An
// implementation that wants the default recursive descent for a node calls
// WalkStmt or WalkExpr from its own method.
type Visitor interface {
	VisitStmt(Stmt)
	VisitExpr(Expr)
}

// WalkBody visits each statement of a block in order.
func WalkBody(v Visitor, body []Stmt) {
	for _, s := range body {
		if s != nil {
			v.VisitStmt(s)
		}
	}
}

func visitExprs(v Visitor, exprs []Expr) {
	for _, e := range exprs {
		if e != nil {
			v.VisitExpr(e)
		}
	}
}

func visitOptional(v Visitor, e Expr) {
	if e != nil {
		v.VisitExpr(e)
	}
}

// WalkStmt visits the children of s in source evaluation order.
func WalkStmt(v Visitor, s Stmt) {
	switch s := s.(type) {
	case *FunctionDef:
		visitExprs(v, s.Decorators)
		WalkTypeParams(v, s.TypeParams)
		WalkParameters(v, s.Parameters)
		visitOptional(v, s.Returns)
		WalkBody(v, s.Body)
	case *ClassDef:
		visitExprs(v, s.Decorators)
		WalkTypeParams(v, s.TypeParams)
		WalkArguments(v, s.Arguments)
		WalkBody(v, s.Body)
	case *Import, *ImportFrom, *Global, *Nonlocal, *Pass, *Break, *Continue:
	case *Assign:
		visitOptional(v, s.Value)
		visitExprs(v, s.Targets)
	case *AnnAssign:
		visitOptional(v, s.Value)
		visitOptional(v, s.Annotation)
		visitOptional(v, s.Target)
	case *AugAssign:
		visitOptional(v, s.Value)
		visitOptional(v, s.Target)
	case *Delete:
		visitExprs(v, s.Targets)
	case *Return:
		visitOptional(v, s.Value)
	case *Raise:
		visitOptional(v, s.Exc)
		visitOptional(v, s.Cause)
	case *Assert:
		visitOptional(v, s.Test)
		visitOptional(v, s.Msg)
	case *If:
		visitOptional(v, s.Test)
		WalkBody(v, s.Body)
		WalkBody(v, s.Orelse)
	case *For:
		visitOptional(v, s.Iter)
		visitOptional(v, s.Target)
		WalkBody(v, s.Body)
		WalkBody(v, s.Orelse)
	case *While:
		visitOptional(v, s.Test)
		WalkBody(v, s.Body)
		WalkBody(v, s.Orelse)
	case *Try:
		WalkBody(v, s.Body)
		for _, h := range s.Handlers {
			visitOptional(v, h.Type)
			WalkBody(v, h.Body)
		}
		WalkBody(v, s.Orelse)
		WalkBody(v, s.Finalbody)
	case *With:
		for _, item := range s.Items {
			visitOptional(v, item.ContextExpr)
			visitOptional(v, item.OptionalVars)
		}
		WalkBody(v, s.Body)
	case *Match:
		visitOptional(v, s.Subject)
		for _, c := range s.Cases {
			visitOptional(v, c.Guard)
			WalkBody(v, c.Body)
		}
	case *TypeAlias:
		visitOptional(v, s.Name)
		WalkTypeParams(v, s.TypeParams)
		visitOptional(v, s.Value)
	case *ExprStmt:
		visitOptional(v, s.Value)
	}
}

// WalkExpr visits the children of e in source evaluation order.
func WalkExpr(v Visitor, e Expr) {
	switch e := e.(type) {
	case *Name, *StringLiteral, *NumberLiteral, *BooleanLiteral, *NoneLiteral, *EllipsisLiteral:
	case *Attribute:
		visitOptional(v, e.Value)
	case *Subscript:
		visitOptional(v, e.Value)
		visitOptional(v, e.Slice)
	case *Slice:
		visitOptional(v, e.Lower)
		visitOptional(v, e.Upper)
		visitOptional(v, e.Step)
	case *Starred:
		visitOptional(v, e.Value)
	case *Call:
		visitOptional(v, e.Func)
		WalkArguments(v, e.Arguments)
	case *FString:
		visitExprs(v, e.Values)
	case *Tuple:
		visitExprs(v, e.Elts)
	case *List:
		visitExprs(v, e.Elts)
	case *Set:
		visitExprs(v, e.Elts)
	case *Dict:
		for i := range e.Values {
			visitOptional(v, e.Keys[i])
			visitOptional(v, e.Values[i])
		}
	case *ListComp:
		walkComprehensions(v, e.Generators)
		visitOptional(v, e.Elt)
	case *SetComp:
		walkComprehensions(v, e.Generators)
		visitOptional(v, e.Elt)
	case *DictComp:
		walkComprehensions(v, e.Generators)
		visitOptional(v, e.Key)
		visitOptional(v, e.Value)
	case *GeneratorExp:
		walkComprehensions(v, e.Generators)
		visitOptional(v, e.Elt)
	case *Lambda:
		WalkParameters(v, e.Parameters)
		visitOptional(v, e.Body)
	case *UnaryOp:
		visitOptional(v, e.Operand)
	case *BinOp:
		visitOptional(v, e.Left)
		visitOptional(v, e.Right)
	case *BoolOp:
		visitExprs(v, e.Values)
	case *Compare:
		visitOptional(v, e.Left)
		visitExprs(v, e.Comparators)
	case *IfExp:
		visitOptional(v, e.Test)
		visitOptional(v, e.Body)
		visitOptional(v, e.Orelse)
	case *NamedExpr:
		visitOptional(v, e.Target)
		visitOptional(v, e.Value)
	case *Await:
		visitOptional(v, e.Value)
	case *Yield:
		visitOptional(v, e.Value)
	case *YieldFrom:
		visitOptional(v, e.Value)
	}
}

func walkComprehensions(v Visitor, gens []*Comprehension) {
	for _, g := range gens {
		visitOptional(v, g.Iter)
		visitOptional(v, g.Target)
		visitExprs(v, g.Ifs)
	}
}

// WalkParameters visits defaults, then annotations. Parameter names are
// identifiers, not expressions, and are not visited.
func WalkParameters(v Visitor, p *Parameters) {
	if p == nil {
		return
	}
	for _, param := range p.Params {
		visitOptional(v, param.Default)
	}
	for _, param := range p.Params {
		visitOptional(v, param.Annotation)
	}
}

// WalkArguments visits positional arguments, then keyword values.
func WalkArguments(v Visitor, a *Arguments) {
	if a == nil {
		return
	}
	visitExprs(v, a.Args)
	for _, kw := range a.Keywords {
		visitOptional(v, kw.Value)
	}
}

// WalkTypeParams visits bounds and defaults of a type parameter list.
func WalkTypeParams(v Visitor, tp *TypeParams) {
	if tp == nil {
		return
	}
	for _, p := range tp.Params {
		visitOptional(v, p.Bound)
		visitOptional(v, p.Default)
	}
}

// Inspect calls fn for every statement and expression under body in
// pre-order. It is a convenience for read-only consumers and tests.
func Inspect(body []Stmt, fn func(Node)) {
	WalkBody(inspector(fn), body)
}

type inspector func(Node)

func (f inspector) VisitStmt(s Stmt) {
	f(s)
	WalkStmt(f, s)
}

func (f inspector) VisitExpr(e Expr) {
	f(e)
	WalkExpr(f, e)
}
