package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pyscope/internal/ast"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, err := Parse(context.Background(), "test.py", []byte(src))
	require.NoError(t, err)
	return mod
}

func TestParse_Assignment(t *testing.T) {
	t.Parallel()
	mod := parse(t, "x = y\n")
	require.Len(t, mod.Body, 1)
	assert.False(t, mod.HasSyntaxErrors)

	assign, ok := mod.Body[0].(*ast.Assign)
	require.True(t, ok)
	require.Len(t, assign.Targets, 1)

	target := assign.Targets[0].(*ast.Name)
	assert.Equal(t, "x", target.ID)
	assert.Equal(t, ast.Store, target.Ctx)
	assert.Equal(t, ast.Range{Start: 0, End: 1}, target.Range())

	value := assign.Value.(*ast.Name)
	assert.Equal(t, "y", value.ID)
	assert.Equal(t, ast.Load, value.Ctx)
	assert.Equal(t, mod.ID(), value.Module())
}

func TestParse_ChainedAssignmentFlattens(t *testing.T) {
	t.Parallel()
	mod := parse(t, "a = b = 1\n")
	assign := mod.Body[0].(*ast.Assign)
	require.Len(t, assign.Targets, 2)
	assert.Equal(t, "a", assign.Targets[0].(*ast.Name).ID)
	assert.Equal(t, "b", assign.Targets[1].(*ast.Name).ID)
	assert.Equal(t, "1", assign.Value.(*ast.NumberLiteral).Text)
}

func TestParse_TupleTargetContexts(t *testing.T) {
	t.Parallel()
	mod := parse(t, "a, [b, *c] = v\n")
	assign := mod.Body[0].(*ast.Assign)
	tuple, ok := assign.Targets[0].(*ast.Tuple)
	require.True(t, ok)
	assert.Equal(t, ast.Store, tuple.Ctx)
	require.Len(t, tuple.Elts, 2)
	assert.Equal(t, ast.Store, tuple.Elts[0].(*ast.Name).Ctx)

	list := tuple.Elts[1].(*ast.List)
	assert.Equal(t, ast.Store, list.Ctx)
	star := list.Elts[1].(*ast.Starred)
	assert.Equal(t, ast.Store, star.Value.(*ast.Name).Ctx)
}

func TestParse_AnnotatedAndAugmented(t *testing.T) {
	t.Parallel()
	mod := parse(t, "x: int = 1\ny: str\nx += 2\n")
	require.Len(t, mod.Body, 3)

	ann := mod.Body[0].(*ast.AnnAssign)
	assert.Equal(t, "x", ann.Target.(*ast.Name).ID)
	assert.Equal(t, "int", ann.Annotation.(*ast.Name).ID)
	assert.NotNil(t, ann.Value)

	bare := mod.Body[1].(*ast.AnnAssign)
	assert.Nil(t, bare.Value)

	aug := mod.Body[2].(*ast.AugAssign)
	assert.Equal(t, "+=", aug.Op)
	assert.Equal(t, ast.Store, aug.Target.(*ast.Name).Ctx)
}

func TestParse_DeleteContext(t *testing.T) {
	t.Parallel()
	mod := parse(t, "del a, b.c\n")
	del := mod.Body[0].(*ast.Delete)
	require.Len(t, del.Targets, 2)
	assert.Equal(t, ast.Del, del.Targets[0].(*ast.Name).Ctx)
	attr := del.Targets[1].(*ast.Attribute)
	assert.Equal(t, ast.Del, attr.Ctx)
	assert.Equal(t, ast.Load, attr.Value.(*ast.Name).Ctx)
}

func TestParse_Imports(t *testing.T) {
	t.Parallel()
	mod := parse(t, "import os.path as osp, sys\nfrom ..pkg import a as b, c\nfrom . import d\nfrom m import *\n")
	require.Len(t, mod.Body, 4)

	imp := mod.Body[0].(*ast.Import)
	require.Len(t, imp.Names, 2)
	assert.Equal(t, "os.path", imp.Names[0].Name)
	assert.Equal(t, "osp", imp.Names[0].BoundName(false))
	assert.Equal(t, "sys", imp.Names[1].BoundName(false))

	from := mod.Body[1].(*ast.ImportFrom)
	assert.Equal(t, "pkg", from.ModuleName)
	assert.Equal(t, 2, from.Level)
	require.Len(t, from.Names, 2)
	assert.Equal(t, "b", from.Names[0].BoundName(true))
	assert.Equal(t, "c", from.Names[1].BoundName(true))

	rel := mod.Body[2].(*ast.ImportFrom)
	assert.Equal(t, 1, rel.Level)
	assert.Empty(t, rel.ModuleName)

	star := mod.Body[3].(*ast.ImportFrom)
	require.Len(t, star.Names, 1)
	assert.Equal(t, "*", star.Names[0].Name)
}

func TestParse_DecoratedFunctionRangeIncludesDecorators(t *testing.T) {
	t.Parallel()
	src := "@cache\nasync def f(a, b=1, *args, c: int, **kw) -> None:\n    pass\n"
	mod := parse(t, src)
	fn := mod.Body[0].(*ast.FunctionDef)

	assert.Equal(t, "f", fn.Name.ID)
	assert.True(t, fn.IsAsync)
	assert.Equal(t, uint32(0), fn.Range().Start)
	require.Len(t, fn.Decorators, 1)
	assert.Equal(t, "cache", fn.Decorators[0].(*ast.Name).ID)
	assert.Equal(t, "None", mod.Text(fn.Returns.Range()))

	params := fn.Parameters.Params
	require.Len(t, params, 5)
	assert.Equal(t, "b", params[1].Name.ID)
	assert.NotNil(t, params[1].Default)
	assert.Equal(t, ast.ParamVarPositional, params[2].ParamKind)
	assert.Equal(t, ast.ParamKeywordOnly, params[3].ParamKind)
	assert.NotNil(t, params[3].Annotation)
	assert.Equal(t, ast.ParamVarKeyword, params[4].ParamKind)
}

func TestParse_ClassWithTypeParams(t *testing.T) {
	t.Parallel()
	mod := parse(t, "class C[T](Base, metaclass=M):\n    x = 1\n")
	cls := mod.Body[0].(*ast.ClassDef)
	assert.Equal(t, "C", cls.Name.ID)

	require.NotNil(t, cls.TypeParams)
	require.Len(t, cls.TypeParams.Params, 1)
	assert.Equal(t, "T", cls.TypeParams.Params[0].Name.ID)

	require.NotNil(t, cls.Arguments)
	require.Len(t, cls.Arguments.Args, 1)
	require.Len(t, cls.Arguments.Keywords, 1)
	assert.Equal(t, "metaclass", cls.Arguments.Keywords[0].Arg.ID)
	require.Len(t, cls.Body, 1)
}

func TestParse_Expressions(t *testing.T) {
	t.Parallel()
	mod := parse(t, "r = (n := f(x)) if not a and b < c else [i for i in y if i]\n")
	assign := mod.Body[0].(*ast.Assign)
	ifexp, ok := assign.Value.(*ast.IfExp)
	require.True(t, ok)

	named := ifexp.Body.(*ast.NamedExpr)
	assert.Equal(t, "n", named.Target.(*ast.Name).ID)
	assert.Equal(t, ast.Store, named.Target.(*ast.Name).Ctx)
	assert.IsType(t, &ast.Call{}, named.Value)

	test := ifexp.Test.(*ast.BoolOp)
	assert.Equal(t, "and", test.Op)
	require.Len(t, test.Values, 2)
	assert.IsType(t, &ast.UnaryOp{}, test.Values[0])
	cmp := test.Values[1].(*ast.Compare)
	assert.Equal(t, []string{"<"}, cmp.Ops)

	comp := ifexp.Orelse.(*ast.ListComp)
	require.Len(t, comp.Generators, 1)
	assert.Equal(t, ast.Store, comp.Generators[0].Target.(*ast.Name).Ctx)
	assert.Len(t, comp.Generators[0].Ifs, 1)
}

func TestParse_Strings(t *testing.T) {
	t.Parallel()
	mod := parse(t, "a = 'hi'\nb = f\"{x} and {y}\"\nc = b'raw'\n")
	s := mod.Body[0].(*ast.Assign).Value.(*ast.StringLiteral)
	assert.Equal(t, "hi", s.Value)
	assert.False(t, s.IsBytes)

	fs := mod.Body[1].(*ast.Assign).Value.(*ast.FString)
	require.Len(t, fs.Values, 2)
	assert.Equal(t, "x", fs.Values[0].(*ast.Name).ID)
	assert.Equal(t, "y", fs.Values[1].(*ast.Name).ID)

	bs := mod.Body[2].(*ast.Assign).Value.(*ast.StringLiteral)
	assert.True(t, bs.IsBytes)
}

func TestParse_ControlFlow(t *testing.T) {
	t.Parallel()
	src := `if a:
    pass
elif b:
    pass
else:
    pass
for i in xs:
    break
while c:
    continue
try:
    pass
except ValueError as err:
    pass
finally:
    pass
with open(p) as fh, lock:
    pass
`
	mod := parse(t, src)
	require.Len(t, mod.Body, 5)

	ifs := mod.Body[0].(*ast.If)
	require.Len(t, ifs.Orelse, 1)
	elif := ifs.Orelse[0].(*ast.If)
	assert.Len(t, elif.Orelse, 1)

	loop := mod.Body[1].(*ast.For)
	assert.Equal(t, ast.Store, loop.Target.(*ast.Name).Ctx)

	assert.IsType(t, &ast.While{}, mod.Body[2])

	try := mod.Body[3].(*ast.Try)
	require.Len(t, try.Handlers, 1)
	require.NotNil(t, try.Handlers[0].Name)
	assert.Equal(t, "err", try.Handlers[0].Name.ID)
	assert.Len(t, try.Finalbody, 1)

	with := mod.Body[4].(*ast.With)
	require.Len(t, with.Items, 2)
	assert.Equal(t, "fh", with.Items[0].OptionalVars.(*ast.Name).ID)
	assert.Nil(t, with.Items[1].OptionalVars)
}

func TestParse_GlobalNonlocalReturn(t *testing.T) {
	t.Parallel()
	mod := parse(t, "def f():\n    global g, h\n    return g\n")
	fn := mod.Body[0].(*ast.FunctionDef)
	require.Len(t, fn.Body, 2)
	glob := fn.Body[0].(*ast.Global)
	require.Len(t, glob.Names, 2)
	assert.Equal(t, "h", glob.Names[1].ID)
	ret := fn.Body[1].(*ast.Return)
	assert.Equal(t, "g", ret.Value.(*ast.Name).ID)
}

func TestParse_NormalizesIdentifiers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain", normalizeIdentifier("plain"))
	// U+FB01 LATIN SMALL LIGATURE FI folds to "fi" under NFKC.
	assert.Equal(t, "fi", normalizeIdentifier("ﬁ"))
}

func TestParse_SyntaxErrorsAreFlagged(t *testing.T) {
	t.Parallel()
	mod := parse(t, "x = 1\ndef (:\ny = 2\n")
	assert.True(t, mod.HasSyntaxErrors)
}

func TestParse_FreshModuleIDs(t *testing.T) {
	t.Parallel()
	a := parse(t, "x = 1\n")
	b := parse(t, "x = 1\n")
	assert.NotEqual(t, a.ID(), b.ID())
}
