package types_test

import (
	"testing"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	run := func(name string, term ast.Term, expected ast.Type) {
		t.Run(name, func(t *testing.T) {
			got, err := types.Convert(term)
			require.NoError(t, err)
			assert.Equal(t, expected.Hash(), got.Hash())
		})
	}
	run("unit", ast.UnitTerm{}, ast.Unit)
	run("float", ast.FloatTerm(1.5), ast.Float)
	run("list", ast.ListTerm{Elems: []ast.Term{ast.NatTerm(1), ast.NatTerm(2)}}, ast.List{Elem: ast.Natural})
	run("hinted list", ast.ListTerm{Elems: []ast.Term{ast.NatTerm(1)}, Elem: ast.Integer}, ast.List{Elem: ast.Integer})
	run("empty hinted list", ast.ListTerm{Elem: ast.String}, ast.List{Elem: ast.String})
	run("array", ast.ArrayTerm{Elems: []ast.Term{ast.BoolTerm(true), ast.BoolTerm(false), ast.BoolTerm(true)}},
		ast.Array{Elem: ast.Boolean, Length: 3})
	run("union", ast.UnionTerm{Value: ast.StringTerm("a")}, unionOf(ast.String))
	run("struct", ast.StructTerm{Fields: map[ast.Identifier]ast.Term{"a": ast.IntTerm(-1)}},
		structOf(map[ast.Identifier]ast.Type{"a": ast.Integer}))
	run("tuple", ast.TupleTerm{Fields: []ast.TermField{{Label: "x", Value: ast.UnitTerm{}}}},
		tupleOf(ast.Field{Label: "x", Type: ast.Unit}))
}

func TestConvertErrors(t *testing.T) {
	run := func(name string, term ast.Term) {
		t.Run(name, func(t *testing.T) {
			_, err := types.Convert(term)
			requireKind(t, err, types.UnconvertibleTerm)
		})
	}
	run("empty list", ast.ListTerm{})
	run("empty array", ast.ArrayTerm{})
	run("heterogeneous list", ast.ListTerm{Elems: []ast.Term{ast.NatTerm(1), ast.BoolTerm(true)}})
	run("element outside the hint", ast.ListTerm{Elems: []ast.Term{ast.BoolTerm(true)}, Elem: ast.Integer})
	run("nested", ast.StructTerm{Fields: map[ast.Identifier]ast.Term{"a": ast.ArrayTerm{}}})
}

func TestDefault(t *testing.T) {
	run := func(ty ast.Type, expected ast.Term) {
		t.Run(ty.String(), func(t *testing.T) {
			got, err := types.Default(ty)
			require.NoError(t, err)
			assert.Equal(t, expected, got)

			back, err := types.Convert(got)
			require.NoError(t, err)
			assert.Equal(t, ty.Hash(), back.Hash(), "default does not convert back")
		})
	}
	run(ast.Unit, ast.UnitTerm{})
	run(ast.Boolean, ast.BoolTerm(false))
	run(ast.Natural, ast.NatTerm(0))
	run(ast.Integer, ast.IntTerm(0))
	run(ast.Float, ast.FloatTerm(0))
	run(ast.String, ast.StringTerm(""))
	run(ast.List{Elem: ast.Natural}, ast.ListTerm{Elem: ast.Natural})
	run(ast.Array{Elem: ast.Boolean, Length: 2}, ast.ArrayTerm{
		Elems: []ast.Term{ast.BoolTerm(false), ast.BoolTerm(false)},
		Elem:  ast.Boolean,
	})
	run(structOf(map[ast.Identifier]ast.Type{"a": ast.Natural}), ast.StructTerm{Fields: map[ast.Identifier]ast.Term{"a": ast.NatTerm(0)}})
	run(tupleOf(ast.Field{Type: ast.String}, ast.Field{Label: "b", Type: ast.Boolean}), ast.TupleTerm{Fields: []ast.TermField{
		{Value: ast.StringTerm("")}, {Label: "b", Value: ast.BoolTerm(false)},
	}})
}

func TestDefaultErrors(t *testing.T) {
	for _, ty := range []ast.Type{
		ast.Empty,
		ast.Error,
		ast.Slice{Elem: ast.Natural},
		unionOf(ast.Natural),
		ast.Func(ast.Natural, ast.Natural),
		ast.Interface{},
		ast.Oneself{},
		ast.Generic{},
		ast.NewGeneric(ast.Natural),
		structOf(map[ast.Identifier]ast.Type{"a": ast.Slice{Elem: ast.Natural}}),
		ast.Array{Elem: ast.Oneself{}, Length: 1},
		ast.Array{Elem: ast.Natural, Length: 10000000000000},
		ast.Array{Elem: ast.Slice{Elem: ast.Natural}, Length: 10000000000000},
	} {
		t.Run(ty.String(), func(t *testing.T) {
			_, err := types.Default(ty)
			requireKind(t, err, types.UnconstructibleDefault)
		})
	}

	_, err := types.Default(ast.Array{Elem: ast.Natural, Length: types.MaxDefaultLength + 1})
	terr := requireKind(t, err, types.UnconstructibleDefault)
	assert.Equal(t, types.MaxDefaultLength, terr.Limit)

	term, err := types.Default(ast.Array{Elem: ast.Natural, Length: types.MaxDefaultLength})
	require.NoError(t, err)
	assert.Len(t, term.(ast.ArrayTerm).Elems, types.MaxDefaultLength)
}
