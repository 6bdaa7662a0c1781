package types

import (
	"github.com/omentic/chrysanthemum/ast"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

func (c *Checker) subtype(ctx *ast.Context, s, t ast.Type) bool {
	leave, err := c.enter("subtype %s <: %s", s, t)
	defer leave()
	if err != nil {
		return false
	}

	if t == ast.Empty || s == ast.Error {
		return true
	}
	if ast.Equal(s, t) {
		return true
	}
	switch t := t.(type) {
	case ast.Interface:
		if t.Assoc != nil && !c.subtype(ctx, s, t.Assoc) {
			return false
		}
		_, missing := c.missingMethod(ctx, s, t)
		return !missing
	case ast.Generic:
		return t.Admits(s)
	}

	switch s := s.(type) {
	case ast.Base:
		return s == ast.Natural && t == ast.Integer
	case ast.List:
		switch t := t.(type) {
		case ast.List:
			return c.subtype(ctx, s.Elem, t.Elem)
		case ast.Slice:
			return c.subtype(ctx, s.Elem, t.Elem)
		}
	case ast.Array:
		switch t := t.(type) {
		case ast.Array:
			return s.Length == t.Length && c.subtype(ctx, s.Elem, t.Elem)
		case ast.Slice:
			return c.subtype(ctx, s.Elem, t.Elem)
		}
	case ast.Slice:
		if t, ok := t.(ast.Slice); ok {
			return c.subtype(ctx, s.Elem, t.Elem)
		}
	case ast.Tuple:
		t, ok := t.(ast.Tuple)
		if !ok || len(s.Fields) != len(t.Fields) || !slices.Equal(s.Labels(), t.Labels()) {
			return false
		}
		for i := range s.Fields {
			if !c.subtype(ctx, s.Fields[i].Type, t.Fields[i].Type) {
				return false
			}
		}
		return true
	case ast.Struct:
		t, ok := t.(ast.Struct)
		if !ok {
			return false
		}
		for _, k := range t.Keys() {
			sf, ok := s.Fields[k]
			if !ok || !c.subtype(ctx, sf, t.Fields[k]) {
				return false
			}
		}
		return true
	case ast.Union:
		t, ok := t.(ast.Union)
		if !ok {
			return false
		}
		members := s.Set()
		return lo.EveryBy(t.Members, func(m ast.Type) bool { return members.Contains(m) })
	case ast.Function:
		t, ok := t.(ast.Function)
		return ok && c.subtype(ctx, t.From, s.From) && c.subtype(ctx, s.To, t.To)
	}
	return false
}

// missingMethod returns the first signature of iface, specialised to s, that
// has no implementation in ctx.
func (c *Checker) missingMethod(ctx *ast.Context, s ast.Type, iface ast.Interface) (ast.Signature, bool) {
	for _, sig := range iface.Signatures {
		want := deselfifySignature(sig, s)
		if _, ok := ctx.LookupFunction(want); !ok {
			return want, true
		}
	}
	return ast.Signature{}, false
}

// conforms is subtype with a diagnosis of the failure.
func (c *Checker) conforms(ctx *ast.Context, s, t ast.Type) error {
	if c.subtype(ctx, s, t) {
		return nil
	}
	if c.overflow {
		return &Error{Kind: TooDeep, Limit: c.opts.MaxDepth}
	}
	if iface, ok := t.(ast.Interface); ok {
		if iface.Assoc == nil || c.subtype(ctx, s, iface.Assoc) {
			if sig, missing := c.missingMethod(ctx, s, iface); missing {
				return &Error{Kind: MissingInterfaceMethod, Signature: sig, Found: s}
			}
		}
	}
	return mismatch(t, s)
}
