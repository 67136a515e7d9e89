package ast

// Node is implemented by every syntax tree node.
type Node interface {
	Kind() Kind
	Range() Range
	Module() ModuleID
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// DefinitionNode is a node that is itself the site of a name binding:
// function definitions, class definitions and import aliases.
type DefinitionNode interface {
	Node
	definitionNode()
}

// NodeBase carries the range and owning module shared by all nodes.
type NodeBase struct {
	Rng Range
	Mod ModuleID
}

func (n *NodeBase) Range() Range     { return n.Rng }
func (n *NodeBase) Module() ModuleID { return n.Mod }

// Identifier is a bare name that is not itself an expression, such as a
// function name or an import alias.
type Identifier struct {
	Rng Range
	ID  string
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

type FunctionDef struct {
	NodeBase
	Name       Identifier
	IsAsync    bool
	Decorators []Expr
	TypeParams *TypeParams
	Parameters *Parameters
	Returns    Expr
	Body       []Stmt
}

type ClassDef struct {
	NodeBase
	Name       Identifier
	Decorators []Expr
	TypeParams *TypeParams
	Arguments  *Arguments
	Body       []Stmt
}

type Import struct {
	NodeBase
	Names []*Alias
}

// ImportFrom is `from module import names`. Level counts leading dots of a
// relative import; Module is empty for `from . import x`.
type ImportFrom struct {
	NodeBase
	ModuleName string
	Level      int
	Names      []*Alias
}

type Assign struct {
	NodeBase
	Targets []Expr
	Value   Expr
}

type AnnAssign struct {
	NodeBase
	Target     Expr
	Annotation Expr
	Value      Expr
}

type AugAssign struct {
	NodeBase
	Target Expr
	Op     string
	Value  Expr
}

type Delete struct {
	NodeBase
	Targets []Expr
}

type Return struct {
	NodeBase
	Value Expr
}

type Raise struct {
	NodeBase
	Exc   Expr
	Cause Expr
}

type Assert struct {
	NodeBase
	Test Expr
	Msg  Expr
}

type Global struct {
	NodeBase
	Names []Identifier
}

type Nonlocal struct {
	NodeBase
	Names []Identifier
}

type Pass struct{ NodeBase }
type Break struct{ NodeBase }
type Continue struct{ NodeBase }

// If holds an elif chain as a nested If in Orelse.
type If struct {
	NodeBase
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

type For struct {
	NodeBase
	IsAsync bool
	Target  Expr
	Iter    Expr
	Body    []Stmt
	Orelse  []Stmt
}

type While struct {
	NodeBase
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

type Try struct {
	NodeBase
	Body      []Stmt
	Handlers  []*ExceptHandler
	Orelse    []Stmt
	Finalbody []Stmt
	IsStar    bool
}

type With struct {
	NodeBase
	IsAsync bool
	Items   []*WithItem
	Body    []Stmt
}

type Match struct {
	NodeBase
	Subject Expr
	Cases   []*MatchCase
}

type TypeAlias struct {
	NodeBase
	Name       Expr
	TypeParams *TypeParams
	Value      Expr
}

type ExprStmt struct {
	NodeBase
	Value Expr
}

func (*FunctionDef) Kind() Kind { return KindFunctionDef }
func (*ClassDef) Kind() Kind    { return KindClassDef }
func (*Import) Kind() Kind      { return KindImport }
func (*ImportFrom) Kind() Kind  { return KindImportFrom }
func (*Assign) Kind() Kind      { return KindAssign }
func (*AnnAssign) Kind() Kind   { return KindAnnAssign }
func (*AugAssign) Kind() Kind   { return KindAugAssign }
func (*Delete) Kind() Kind      { return KindDelete }
func (*Return) Kind() Kind      { return KindReturn }
func (*Raise) Kind() Kind       { return KindRaise }
func (*Assert) Kind() Kind      { return KindAssert }
func (*Global) Kind() Kind      { return KindGlobal }
func (*Nonlocal) Kind() Kind    { return KindNonlocal }
func (*Pass) Kind() Kind        { return KindPass }
func (*Break) Kind() Kind       { return KindBreak }
func (*Continue) Kind() Kind    { return KindContinue }
func (*If) Kind() Kind          { return KindIf }
func (*For) Kind() Kind         { return KindFor }
func (*While) Kind() Kind       { return KindWhile }
func (*Try) Kind() Kind         { return KindTry }
func (*With) Kind() Kind        { return KindWith }
func (*Match) Kind() Kind       { return KindMatch }
func (*TypeAlias) Kind() Kind   { return KindTypeAlias }
func (*ExprStmt) Kind() Kind    { return KindExprStmt }

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Assign) stmtNode()      {}
func (*AnnAssign) stmtNode()   {}
func (*AugAssign) stmtNode()   {}
func (*Delete) stmtNode()      {}
func (*Return) stmtNode()      {}
func (*Raise) stmtNode()       {}
func (*Assert) stmtNode()      {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*If) stmtNode()          {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*Try) stmtNode()         {}
func (*With) stmtNode()        {}
func (*Match) stmtNode()       {}
func (*TypeAlias) stmtNode()   {}
func (*ExprStmt) stmtNode()    {}

func (*FunctionDef) definitionNode() {}
func (*ClassDef) definitionNode()    {}
func (*Alias) definitionNode()       {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

type Name struct {
	NodeBase
	ID  string
	Ctx ExprContext
}

type Attribute struct {
	NodeBase
	Value Expr
	Attr  Identifier
	Ctx   ExprContext
}

type Subscript struct {
	NodeBase
	Value Expr
	Slice Expr
	Ctx   ExprContext
}

type Slice struct {
	NodeBase
	Lower Expr
	Upper Expr
	Step  Expr
}

type Starred struct {
	NodeBase
	Value Expr
	Ctx   ExprContext
}

type Call struct {
	NodeBase
	Func      Expr
	Arguments *Arguments
}

type StringLiteral struct {
	NodeBase
	Value   string
	IsBytes bool
}

// FString keeps only the interpolated expressions; literal parts carry no
// names.
type FString struct {
	NodeBase
	Values []Expr
}

type NumberLiteral struct {
	NodeBase
	Text string
}

type BooleanLiteral struct {
	NodeBase
	Value bool
}

type NoneLiteral struct{ NodeBase }
type EllipsisLiteral struct{ NodeBase }

type Tuple struct {
	NodeBase
	Elts []Expr
	Ctx  ExprContext
}

type List struct {
	NodeBase
	Elts []Expr
	Ctx  ExprContext
}

type Set struct {
	NodeBase
	Elts []Expr
}

// Dict stores `**mapping` entries with a nil key.
type Dict struct {
	NodeBase
	Keys   []Expr
	Values []Expr
}

type ListComp struct {
	NodeBase
	Elt        Expr
	Generators []*Comprehension
}

type SetComp struct {
	NodeBase
	Elt        Expr
	Generators []*Comprehension
}

type DictComp struct {
	NodeBase
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

type GeneratorExp struct {
	NodeBase
	Elt        Expr
	Generators []*Comprehension
}

type Lambda struct {
	NodeBase
	Parameters *Parameters
	Body       Expr
}

type UnaryOp struct {
	NodeBase
	Op      string
	Operand Expr
}

type BinOp struct {
	NodeBase
	Left  Expr
	Op    string
	Right Expr
}

type BoolOp struct {
	NodeBase
	Op     string
	Values []Expr
}

type Compare struct {
	NodeBase
	Left        Expr
	Ops         []string
	Comparators []Expr
}

type IfExp struct {
	NodeBase
	Test   Expr
	Body   Expr
	Orelse Expr
}

type NamedExpr struct {
	NodeBase
	Target Expr
	Value  Expr
}

type Await struct {
	NodeBase
	Value Expr
}

type Yield struct {
	NodeBase
	Value Expr
}

type YieldFrom struct {
	NodeBase
	Value Expr
}

func (*Name) Kind() Kind            { return KindName }
func (*Attribute) Kind() Kind       { return KindAttribute }
func (*Subscript) Kind() Kind       { return KindSubscript }
func (*Slice) Kind() Kind           { return KindSlice }
func (*Starred) Kind() Kind         { return KindStarred }
func (*Call) Kind() Kind            { return KindCall }
func (*StringLiteral) Kind() Kind   { return KindStringLiteral }
func (*FString) Kind() Kind         { return KindFString }
func (*NumberLiteral) Kind() Kind   { return KindNumberLiteral }
func (*BooleanLiteral) Kind() Kind  { return KindBooleanLiteral }
func (*NoneLiteral) Kind() Kind     { return KindNoneLiteral }
func (*EllipsisLiteral) Kind() Kind { return KindEllipsisLiteral }
func (*Tuple) Kind() Kind           { return KindTuple }
func (*List) Kind() Kind            { return KindList }
func (*Set) Kind() Kind             { return KindSet }
func (*Dict) Kind() Kind            { return KindDict }
func (*ListComp) Kind() Kind        { return KindListComp }
func (*SetComp) Kind() Kind         { return KindSetComp }
func (*DictComp) Kind() Kind        { return KindDictComp }
func (*GeneratorExp) Kind() Kind    { return KindGeneratorExp }
func (*Lambda) Kind() Kind          { return KindLambda }
func (*UnaryOp) Kind() Kind         { return KindUnaryOp }
func (*BinOp) Kind() Kind           { return KindBinOp }
func (*BoolOp) Kind() Kind          { return KindBoolOp }
func (*Compare) Kind() Kind         { return KindCompare }
func (*IfExp) Kind() Kind           { return KindIfExp }
func (*NamedExpr) Kind() Kind       { return KindNamedExpr }
func (*Await) Kind() Kind           { return KindAwait }
func (*Yield) Kind() Kind           { return KindYield }
func (*YieldFrom) Kind() Kind       { return KindYieldFrom }

func (*Name) exprNode()            {}
func (*Attribute) exprNode()       {}
func (*Subscript) exprNode()       {}
func (*Slice) exprNode()           {}
func (*Starred) exprNode()         {}
func (*Call) exprNode()            {}
func (*StringLiteral) exprNode()   {}
func (*FString) exprNode()         {}
func (*NumberLiteral) exprNode()   {}
func (*BooleanLiteral) exprNode()  {}
func (*NoneLiteral) exprNode()     {}
func (*EllipsisLiteral) exprNode() {}
func (*Tuple) exprNode()           {}
func (*List) exprNode()            {}
func (*Set) exprNode()             {}
func (*Dict) exprNode()            {}
func (*ListComp) exprNode()        {}
func (*SetComp) exprNode()         {}
func (*DictComp) exprNode()        {}
func (*GeneratorExp) exprNode()    {}
func (*Lambda) exprNode()          {}
func (*UnaryOp) exprNode()         {}
func (*BinOp) exprNode()           {}
func (*BoolOp) exprNode()          {}
func (*Compare) exprNode()         {}
func (*IfExp) exprNode()           {}
func (*NamedExpr) exprNode()       {}
func (*Await) exprNode()           {}
func (*Yield) exprNode()           {}
func (*YieldFrom) exprNode()       {}

// ---------------------------------------------------------------------------
// Auxiliary nodes
// ---------------------------------------------------------------------------

// Alias is one imported name. For `import a.b.c` Name is "a.b.c".
type Alias struct {
	NodeBase
	Name   string
	AsName *Identifier
}

// BoundName returns the identifier the import binds locally: the explicit
// alias if present, otherwise the first dotted component for a plain
// import and the name itself for a from-import.
func (a *Alias) BoundName(fromImport bool) string {
	if a.AsName != nil {
		return a.AsName.ID
	}
	if fromImport {
		return a.Name
	}
	for i := 0; i < len(a.Name); i++ {
		if a.Name[i] == '.' {
			return a.Name[:i]
		}
	}
	return a.Name
}

type ParameterKind uint8

const (
	ParamPositionalOnly ParameterKind = iota
	ParamRegular
	ParamVarPositional
	ParamKeywordOnly
	ParamVarKeyword
)

type Parameters struct {
	NodeBase
	Params []*Parameter
}

type Parameter struct {
	NodeBase
	Name       Identifier
	ParamKind  ParameterKind
	Annotation Expr
	Default    Expr
}

// Arguments holds call arguments and class bases. Positional entries may be
// Starred; keywords with a nil Arg are `**mapping` unpacks.
type Arguments struct {
	NodeBase
	Args     []Expr
	Keywords []*Keyword
}

type Keyword struct {
	NodeBase
	Arg   *Identifier
	Value Expr
}

type TypeParamKind uint8

const (
	TypeVar TypeParamKind = iota
	TypeVarTuple
	ParamSpec
)

type TypeParams struct {
	NodeBase
	Params []*TypeParam
}

type TypeParam struct {
	NodeBase
	Name      Identifier
	ParamKind TypeParamKind
	Bound     Expr
	Default   Expr
}

type ExceptHandler struct {
	NodeBase
	Type Expr
	Name *Identifier
	Body []Stmt
}

type WithItem struct {
	NodeBase
	ContextExpr  Expr
	OptionalVars Expr
}

// MatchCase keeps the guard and body of a case clause. Patterns are not
// represented.
type MatchCase struct {
	NodeBase
	Guard Expr
	Body  []Stmt
}

type Comprehension struct {
	NodeBase
	Target  Expr
	Iter    Expr
	Ifs     []Expr
	IsAsync bool
}

func (*Alias) Kind() Kind         { return KindAlias }
func (*Parameters) Kind() Kind    { return KindParameters }
func (*Parameter) Kind() Kind     { return KindParameter }
func (*Arguments) Kind() Kind     { return KindArguments }
func (*Keyword) Kind() Kind       { return KindKeyword }
func (*TypeParams) Kind() Kind    { return KindTypeParams }
func (*TypeParam) Kind() Kind     { return KindTypeParam }
func (*ExceptHandler) Kind() Kind { return KindExceptHandler }
func (*WithItem) Kind() Kind      { return KindWithItem }
func (*MatchCase) Kind() Kind     { return KindMatchCase }
func (*Comprehension) Kind() Kind { return KindComprehension }
