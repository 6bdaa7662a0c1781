package eval_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimple(t *testing.T) {
	term, err := eval.Execute(nil, ast.Const(ast.NatTerm(0)))
	require.NoError(t, err)
	assert.Equal(t, ast.NatTerm(0), term)

	term, err = eval.Execute(nil, ast.Ann(ast.Const(ast.NatTerm(123)), ast.Natural))
	require.NoError(t, err)
	assert.Equal(t, ast.NatTerm(123), term)

	_, err = eval.Execute(nil, ast.Var("x"))
	assert.True(t, errors.Is(err, &eval.Error{Kind: eval.UnboundVariable}))
}

func TestComplex(t *testing.T) {
	ctx := ast.NewContext(nil)
	ctx.Insert("x", ast.NatTerm(413))
	ctx.Insert("y", ast.BoolTerm(true))

	term, err := eval.Execute(ctx, ast.Var("x"))
	require.NoError(t, err)
	assert.Equal(t, ast.NatTerm(413), term)

	term, err = eval.Execute(ctx, ast.Cond(ast.Var("y"), ast.Const(ast.NatTerm(612)), ast.Var("x")))
	require.NoError(t, err)
	assert.Equal(t, ast.NatTerm(612), term)

	app := ast.App(
		ast.Abs("z", ast.Cond(ast.Const(ast.BoolTerm(false)), ast.Var("x"), ast.Var("z"))),
		ast.Const(ast.NatTerm(1025)))
	term, err = eval.Execute(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, ast.NatTerm(1025), term)

	_, ok := ctx.Lookup("z")
	assert.False(t, ok, "parameter leaked into the caller's scope")
}

func TestApplicationThroughAnnotation(t *testing.T) {
	negate := ast.Ann(
		ast.Abs("x", ast.Cond(ast.Var("x"), ast.Const(ast.BoolTerm(false)), ast.Const(ast.BoolTerm(true)))),
		ast.Func(ast.Boolean, ast.Boolean))
	term, err := eval.Execute(nil, ast.App(negate, ast.Const(ast.BoolTerm(true))))
	require.NoError(t, err)
	assert.Equal(t, ast.BoolTerm(false), term)
}

func TestErrors(t *testing.T) {
	run := func(name string, x ast.Expression, kind eval.ErrorKind) {
		t.Run(name, func(t *testing.T) {
			_, err := eval.Execute(nil, x)
			var eerr *eval.Error
			require.True(t, errors.As(err, &eerr), "got %v", err)
			assert.Equal(t, kind, eerr.Kind)
		})
	}
	run("bare abstraction", ast.Abs("x", ast.Var("x")), eval.UnappliedAbstraction)
	run("apply a constant", ast.App(ast.Const(ast.NatTerm(1)), ast.Const(ast.NatTerm(2))), eval.NotAnAbstraction)
	run("non-boolean condition",
		ast.Cond(ast.Const(ast.NatTerm(1)), ast.Const(ast.NatTerm(2)), ast.Const(ast.NatTerm(3))),
		eval.NonBooleanCondition)
	run("unbound argument", ast.App(ast.Abs("x", ast.Var("x")), ast.Var("y")), eval.UnboundVariable)
}

func TestDepthLimit(t *testing.T) {
	var x ast.Expression = ast.Const(ast.NatTerm(1))
	for i := 0; i < 20; i++ {
		x = ast.Ann(x, ast.Natural)
	}
	_, err := eval.New(eval.Options{MaxDepth: 5}).Execute(nil, x)
	assert.True(t, errors.Is(err, &eval.Error{Kind: eval.TooDeep}))

	var trace strings.Builder
	term, err := eval.New(eval.Options{Trace: &trace}).Execute(nil, x)
	require.NoError(t, err)
	assert.Equal(t, ast.NatTerm(1), term)
	assert.Equal(t, 21, strings.Count(trace.String(), "execute"))
}
