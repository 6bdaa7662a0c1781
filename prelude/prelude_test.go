package prelude_test

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/prelude"
	"github.com/omentic/chrysanthemum/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const numbers = `
terms:
  answer: "42"
  origin: "{x = 0, y = 0}"
functions:
  - name: eq
    type: "self -> bool"
    body: "λx. true"
  - name: eq
    type: "nat -> bool"
    body: "λx. if x then false else true"
`

func TestDecode(t *testing.T) {
	f, err := prelude.Decode(strings.NewReader(numbers))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"answer": "42", "origin": "{x = 0, y = 0}"}, f.Terms)
	require.Len(t, f.Functions, 2)
	assert.Equal(t, prelude.Function{Name: "eq", Type: "self -> bool", Body: "λx. true"}, f.Functions[0])

	f, err = prelude.Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Terms)

	_, err = prelude.Decode(strings.NewReader("termz: {}\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestApply(t *testing.T) {
	f, err := prelude.Decode(strings.NewReader(`
terms:
  answer: "42"
  origin: "{x = 0, y = 0}"
functions:
  - name: eq
    type: "nat -> bool"
    body: "λx. true"
`))
	require.NoError(t, err)

	ctx := ast.NewContext(nil)
	require.NoError(t, f.Apply(ctx, types.NewChecker(types.Options{})))

	answer, ok := ctx.Lookup("answer")
	require.True(t, ok)
	assert.Equal(t, ast.NatTerm(42), answer)
	_, ok = ctx.Lookup("origin")
	assert.True(t, ok)

	_, ok = ctx.LookupFunction(ast.Signature{Name: "eq", From: ast.Natural, To: ast.Boolean})
	assert.True(t, ok)

	equatable := ast.Interface{Signatures: []ast.Signature{{Name: "eq", From: ast.Oneself{}, To: ast.Boolean}}}
	assert.NoError(t, types.Check(ctx, ast.Var("answer"), equatable))
}

func TestApplyErrors(t *testing.T) {
	run := func(name, src string, kind *types.ErrorKind) {
		t.Run(name, func(t *testing.T) {
			f, err := prelude.Decode(strings.NewReader(src))
			require.NoError(t, err)
			err = f.Apply(ast.NewContext(nil), types.NewChecker(types.Options{}))
			require.Error(t, err)
			if kind != nil {
				var terr *types.Error
				require.True(t, errors.As(err, &terr), "got %v", err)
				assert.Equal(t, *kind, terr.Kind)
			}
		})
	}
	kind := func(k types.ErrorKind) *types.ErrorKind { return &k }
	run("bad term", "terms:\n  x: \"λx. x\"\n", nil)
	run("unconvertible term", "terms:\n  x: \"[]\"\n", kind(types.UnconvertibleTerm))
	run("not a function type", "functions:\n  - name: f\n    type: nat\n    body: \"1\"\n", nil)
	run("missing name", "functions:\n  - type: nat -> nat\n    body: \"λx. x\"\n", nil)
	run("body does not check", "functions:\n  - name: f\n    type: nat -> bool\n    body: \"λx. x\"\n", kind(types.TypeMismatch))
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{"prelude.yaml": &fstest.MapFile{Data: []byte(numbers)}}
	f, err := prelude.Load(fsys, "prelude.yaml")
	require.NoError(t, err)
	assert.Len(t, f.Functions, 2)

	_, err = prelude.Load(fsys, "missing.yaml")
	assert.Error(t, err)
}
