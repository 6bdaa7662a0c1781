package types_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	identity   = ast.Abs("x", ast.Var("x"))
	negate     = ast.Abs("x", ast.Cond(ast.Var("x"), ast.Const(ast.BoolTerm(false)), ast.Const(ast.BoolTerm(true))))
	threeWay   = ast.Abs("x", ast.Abs("y", ast.Abs("z", ast.Cond(ast.Var("x"), ast.Var("y"), ast.Var("z")))))
	condAbs    = ast.Abs("x", ast.Cond(ast.Var("x"), ast.Const(ast.NatTerm(1)), ast.Const(ast.NatTerm(0))))
	badCondAbs = ast.Ann(
		ast.Abs("x", ast.Cond(ast.Var("x"),
			ast.Ann(ast.Const(ast.BoolTerm(true)), ast.Boolean),
			ast.Ann(ast.Const(ast.BoolTerm(false)), ast.Boolean))),
		ast.Func(ast.Integer, ast.Boolean))
	badBranches = ast.Cond(
		ast.Ann(ast.Const(ast.BoolTerm(false)), ast.Boolean),
		ast.Ann(ast.Const(ast.BoolTerm(true)), ast.Boolean),
		ast.Ann(ast.Const(ast.NatTerm(2)), ast.Integer))
)

func requireKind(t *testing.T, err error, kind types.ErrorKind) *types.Error {
	t.Helper()
	var terr *types.Error
	require.True(t, errors.As(err, &terr), "expected a %s error, got %v", kind, err)
	require.Equal(t, kind, terr.Kind, "error: %v", err)
	return terr
}

func TestInference(t *testing.T) {
	run := func(name string, x ast.Expression, expected ast.Type) {
		t.Run(name, func(t *testing.T) {
			got, err := types.Infer(nil, x)
			require.NoError(t, err)
			assert.Equal(t, expected.Hash(), got.Hash())
		})
	}
	run("constant", ast.Ann(ast.Const(ast.NatTerm(413)), ast.Integer), ast.Integer)
	run("natural", ast.Const(ast.NatTerm(413)), ast.Natural)
	run("negate", ast.Ann(negate, ast.Func(ast.Boolean, ast.Boolean)), ast.Func(ast.Boolean, ast.Boolean))
	run("abstraction", ast.Ann(identity, ast.Func(ast.Integer, ast.Integer)), ast.Func(ast.Integer, ast.Integer))
	run("application",
		ast.App(ast.Ann(identity, ast.Func(ast.Integer, ast.Integer)), ast.Const(ast.NatTerm(413))),
		ast.Integer)
	run("conditional abstraction", ast.Ann(condAbs, ast.Func(ast.Boolean, ast.Integer)), ast.Func(ast.Boolean, ast.Integer))
	run("conditional",
		ast.Cond(ast.Const(ast.BoolTerm(true)),
			ast.Ann(ast.Const(ast.NatTerm(1)), ast.Natural),
			ast.Ann(ast.Const(ast.NatTerm(0)), ast.Natural)),
		ast.Natural)
	run("tuple", ast.Const(ast.TupleTerm{Fields: []ast.TermField{
		{Value: ast.NatTerm(1)}, {Label: "b", Value: ast.BoolTerm(true)},
	}}), ast.Tuple{Fields: []ast.Field{{Type: ast.Natural}, {Label: "b", Type: ast.Boolean}}})
}

func TestInferenceErrors(t *testing.T) {
	run := func(name string, x ast.Expression, kind types.ErrorKind) {
		t.Run(name, func(t *testing.T) {
			_, err := types.Infer(nil, x)
			requireKind(t, err, kind)
		})
	}
	run("bare abstraction", threeWay, types.UninferableAbstraction)
	run("branches", badBranches, types.BranchTypeMismatch)
	run("branches of different bases",
		ast.Cond(ast.Const(ast.BoolTerm(true)),
			ast.Ann(ast.Const(ast.BoolTerm(true)), ast.Boolean),
			ast.Ann(ast.Const(ast.NatTerm(2)), ast.Integer)),
		types.BranchTypeMismatch)
	// the then branch fails its own annotation before the branches are compared
	run("ill-typed then branch",
		ast.Cond(ast.Const(ast.BoolTerm(true)),
			ast.Ann(ast.Const(ast.NatTerm(1)), ast.Boolean),
			ast.Ann(ast.Const(ast.NatTerm(2)), ast.Integer)),
		types.TypeMismatch)
	run("annotated abstraction with a bad body", badCondAbs, types.TypeMismatch)
	run("unbound variable", ast.Var("x"), types.UnboundVariable)
	run("applying a constant", ast.App(ast.Const(ast.NatTerm(1)), ast.Const(ast.NatTerm(2))), types.NotAFunctionType)
	run("bad argument",
		ast.App(ast.Ann(identity, ast.Func(ast.Integer, ast.Integer)), ast.Const(ast.BoolTerm(true))),
		types.TypeMismatch)
	run("empty list", ast.Const(ast.ListTerm{}), types.UnconvertibleTerm)
}

func TestChecking(t *testing.T) {
	ok := func(name string, x ast.Expression, target ast.Type) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, types.Check(nil, x, target))
		})
	}
	ok("constant", ast.Ann(ast.Const(ast.NatTerm(413)), ast.Integer), ast.Integer)
	ok("negate", ast.Ann(negate, ast.Func(ast.Boolean, ast.Boolean)), ast.Func(ast.Boolean, ast.Boolean))
	ok("identity", identity, ast.Func(ast.Integer, ast.Integer))
	ok("application",
		ast.App(ast.Ann(identity, ast.Func(ast.Integer, ast.Integer)), ast.Const(ast.NatTerm(413))),
		ast.Integer)
	ok("conditional abstraction", condAbs, ast.Func(ast.Boolean, ast.Integer))
	ok("conditional",
		ast.Cond(ast.Const(ast.BoolTerm(false)),
			ast.Ann(ast.Const(ast.NatTerm(1)), ast.Natural),
			ast.Ann(ast.Const(ast.NatTerm(0)), ast.Natural)),
		ast.Natural)
	ok("curried over ints", threeWay, ast.Func(ast.Boolean, ast.Func(ast.Integer, ast.Func(ast.Integer, ast.Integer))))
	ok("curried over nats", threeWay, ast.Func(ast.Boolean, ast.Func(ast.Natural, ast.Func(ast.Natural, ast.Natural))))
	ok("curried over units", threeWay, ast.Func(ast.Boolean, ast.Func(ast.Unit, ast.Func(ast.Unit, ast.Unit))))
	ok("anything against empty", ast.Const(ast.StringTerm("hi")), ast.Empty)
	ok("natural list against slice of ints",
		ast.Const(ast.ListTerm{Elems: []ast.Term{ast.NatTerm(1), ast.NatTerm(2)}}),
		ast.Slice{Elem: ast.Integer})
}

func TestCheckingErrors(t *testing.T) {
	run := func(name string, x ast.Expression, target ast.Type, kind types.ErrorKind) {
		t.Run(name, func(t *testing.T) {
			requireKind(t, types.Check(nil, x, target), kind)
		})
	}
	run("abstraction against a base", identity, ast.Integer, types.NotAFunctionType)
	run("abstraction against bottom", badCondAbs, ast.Error, types.TypeMismatch)
	run("branches against unit", badBranches, ast.Unit, types.TypeMismatch)
	run("non-boolean condition",
		ast.Cond(ast.Const(ast.NatTerm(1)), ast.Const(ast.NatTerm(2)), ast.Const(ast.NatTerm(3))),
		ast.Natural, types.TypeMismatch)
	run("integer is not natural", ast.Const(ast.IntTerm(-1)), ast.Natural, types.TypeMismatch)
	run("parameter without a default", identity, ast.Func(ast.Slice{Elem: ast.Natural}, ast.Natural), types.UnconstructibleDefault)
	run("parameter too large to default", identity,
		ast.Func(ast.Array{Elem: ast.Natural, Length: 10000000000000}, ast.Natural), types.UnconstructibleDefault)
	run("unbound", ast.Var("x"), ast.Natural, types.UnboundVariable)
}

func TestVariables(t *testing.T) {
	ctx := ast.NewContext(nil)
	ctx.Insert("x", ast.IntTerm(5))

	got, err := types.Infer(ctx, ast.Var("x"))
	require.NoError(t, err)
	assert.Equal(t, ast.Integer, got)

	assert.NoError(t, types.Check(ctx, ast.Var("x"), ast.Integer))
	requireKind(t, types.Check(ctx, ast.Var("x"), ast.Natural), types.TypeMismatch)

	terr := requireKind(t, types.Check(ctx, ast.Var("y"), ast.Natural), types.UnboundVariable)
	assert.Equal(t, "y", terr.Ident)

	// the parameter is bound in a child scope only
	require.NoError(t, types.Check(ctx, ast.Abs("y", ast.Var("y")), ast.Func(ast.Boolean, ast.Boolean)))
	_, ok := ctx.Lookup("y")
	assert.False(t, ok)
}

func TestInterfaceConformance(t *testing.T) {
	eq := ast.Signature{Name: "eq", From: ast.Oneself{}, To: ast.Boolean}
	iface := ast.Interface{Signatures: []ast.Signature{eq}}
	ctx := ast.NewContext(nil)

	assert.False(t, types.IsSubtype(ctx, ast.Natural, iface))
	terr := requireKind(t, types.Check(ctx, ast.Const(ast.NatTerm(1)), iface), types.MissingInterfaceMethod)
	assert.Equal(t, ast.Signature{Name: "eq", From: ast.Natural, To: ast.Boolean}, terr.Signature)

	impl := ast.Signature{Name: "eq", From: ast.Natural, To: ast.Boolean}
	ctx.InsertFunction(impl, ast.Abs("x", ast.Const(ast.BoolTerm(true))))
	assert.True(t, types.IsSubtype(ctx, ast.Natural, iface))
	assert.NoError(t, types.Check(ctx, ast.Const(ast.NatTerm(1)), iface))
	assert.False(t, types.IsSubtype(ctx, ast.Integer, iface))

	// implementations registered in a child scope are not visible to the parent
	child := ctx.AddScope()
	child.InsertFunction(ast.Signature{Name: "eq", From: ast.Integer, To: ast.Boolean}, ast.Abs("x", ast.Const(ast.BoolTerm(true))))
	assert.True(t, types.IsSubtype(child, ast.Integer, iface))
	assert.False(t, types.IsSubtype(ctx, ast.Integer, iface))
}

func TestInterfaceAssoc(t *testing.T) {
	numeric := ast.Interface{Assoc: ast.Integer}
	assert.True(t, types.IsSubtype(nil, ast.Natural, numeric))
	assert.True(t, types.IsSubtype(nil, ast.Integer, numeric))
	assert.False(t, types.IsSubtype(nil, ast.Boolean, numeric))
	requireKind(t, types.Check(nil, ast.Const(ast.BoolTerm(true)), numeric), types.TypeMismatch)
}

func TestDepthLimit(t *testing.T) {
	var x ast.Expression = ast.Const(ast.NatTerm(1))
	for i := 0; i < 20; i++ {
		x = ast.Ann(x, ast.Natural)
	}
	c := types.NewChecker(types.Options{MaxDepth: 5})
	_, err := c.Infer(nil, x)
	kind, ok := types.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, types.TooDeep, kind)
	assert.True(t, errors.Is(err, &types.Error{Kind: types.TooDeep}))

	got, err := types.Infer(nil, x)
	require.NoError(t, err)
	assert.Equal(t, ast.Natural, got)
}

func TestTrace(t *testing.T) {
	var trace strings.Builder
	c := types.NewChecker(types.Options{Trace: &trace})
	_, err := c.Infer(nil, ast.App(ast.Ann(identity, ast.Func(ast.Integer, ast.Integer)), ast.Const(ast.NatTerm(413))))
	require.NoError(t, err)
	out := trace.String()
	assert.True(t, strings.HasPrefix(out, "infer "), out)
	assert.Contains(t, out, "  infer ")
	assert.Contains(t, out, "check 413 <= int")
	assert.Contains(t, out, "subtype nat <: int")
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "type mismatch: expected int, found bool",
		(&types.Error{Kind: types.TypeMismatch, Expected: ast.Integer, Found: ast.Boolean}).Error())
	assert.Equal(t, "failed to find variable x in context",
		(&types.Error{Kind: types.UnboundVariable, Ident: "x"}).Error())
	assert.Equal(t, "if clauses of different types: bool and int",
		(&types.Error{Kind: types.BranchTypeMismatch, Expected: ast.Boolean, Found: ast.Integer}).Error())
	assert.Equal(t, "MissingInterfaceMethod", types.MissingInterfaceMethod.String())
}
