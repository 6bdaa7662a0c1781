// Package prelude loads term bindings and interface implementations from a
// YAML file into a session context.
package prelude

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/parser"
	"github.com/omentic/chrysanthemum/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// File is the decoded form of a prelude.
//
//	terms:
//	  answer: "42"
//	functions:
//	  - name: eq
//	    type: "nat -> bool"
//	    body: "λx. true"
type File struct {
	Terms     map[string]string `yaml:"terms"`
	Functions []Function        `yaml:"functions"`
}

type Function struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Body string `yaml:"body"`
}

// Decode reads a prelude. Unknown fields are rejected and an empty document
// decodes to an empty File.
func Decode(r io.Reader) (*File, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var f File
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("prelude: %w", err)
	}
	return &f, nil
}

func Load(fsys fs.FS, name string) (*File, error) {
	r, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("prelude: %w", err)
	}
	defer r.Close()
	f, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// Apply binds every term in ctx, in name order, and then registers every
// function after checking its body against its declared type.
func (f *File) Apply(ctx *ast.Context, c *types.Checker) error {
	names := maps.Keys(f.Terms)
	slices.Sort(names)
	for _, name := range names {
		term, err := parser.ParseTerm(f.Terms[name])
		if err != nil {
			return fmt.Errorf("prelude: term %s: %w", name, err)
		}
		if _, err := types.Convert(term); err != nil {
			return fmt.Errorf("prelude: term %s: %w", name, err)
		}
		ctx.Insert(name, term)
	}

	for i, fn := range f.Functions {
		if fn.Name == "" {
			return fmt.Errorf("prelude: functions[%d]: missing name", i)
		}
		sig, body, err := fn.parse()
		if err != nil {
			return fmt.Errorf("prelude: function %s: %w", fn.Name, err)
		}
		if err := c.Check(ctx, body, ast.Func(sig.From, sig.To)); err != nil {
			return fmt.Errorf("prelude: function %s: %w", fn.Name, err)
		}
		ctx.InsertFunction(sig, body)
	}
	return nil
}

func (fn Function) parse() (ast.Signature, ast.Expression, error) {
	t, err := parser.ParseType(fn.Type)
	if err != nil {
		return ast.Signature{}, nil, err
	}
	ft, ok := t.(ast.Function)
	if !ok {
		return ast.Signature{}, nil, fmt.Errorf("type %s is not a function type", t)
	}
	body, err := parser.ParseExpr(fn.Body)
	if err != nil {
		return ast.Signature{}, nil, err
	}
	return ast.Signature{Name: fn.Name, From: ft.From, To: ft.To}, body, nil
}
