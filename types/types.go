package types

import (
	"github.com/omentic/chrysanthemum/ast"
	"github.com/samber/lo"
)

// Convert recovers the type of a term. Empty collections need an element
// type hint, and collections must be homogeneous.
func Convert(term ast.Term) (ast.Type, error) {
	switch term := term.(type) {
	case ast.UnitTerm:
		return ast.Unit, nil
	case ast.BoolTerm:
		return ast.Boolean, nil
	case ast.NatTerm:
		return ast.Natural, nil
	case ast.IntTerm:
		return ast.Integer, nil
	case ast.FloatTerm:
		return ast.Float, nil
	case ast.StringTerm:
		return ast.String, nil
	case ast.ListTerm:
		elem, err := convertElems(term, term.Elems, term.Elem)
		if err != nil {
			return nil, err
		}
		return ast.List{Elem: elem}, nil
	case ast.ArrayTerm:
		elem, err := convertElems(term, term.Elems, term.Elem)
		if err != nil {
			return nil, err
		}
		return ast.Array{Elem: elem, Length: uint64(len(term.Elems))}, nil
	case ast.UnionTerm:
		member, err := Convert(term.Value)
		if err != nil {
			return nil, err
		}
		return ast.Union{Members: []ast.Type{member}}, nil
	case ast.StructTerm:
		fields := make(map[ast.Identifier]ast.Type, len(term.Fields))
		for k, v := range term.Fields {
			t, err := Convert(v)
			if err != nil {
				return nil, err
			}
			fields[k] = t
		}
		return ast.Struct{Fields: fields}, nil
	case ast.TupleTerm:
		fields := make([]ast.Field, len(term.Fields))
		for i, f := range term.Fields {
			t, err := Convert(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = ast.Field{Label: f.Label, Type: t}
		}
		return ast.Tuple{Fields: fields}, nil
	default:
		panic("unreachable")
	}
}

func convertElems(term ast.Term, elems []ast.Term, hint ast.Type) (ast.Type, error) {
	if len(elems) == 0 {
		if hint == nil {
			return nil, &Error{Kind: UnconvertibleTerm, Term: term, Reason: "empty collection without an element type"}
		}
		return hint, nil
	}
	types := make([]ast.Type, len(elems))
	for i, e := range elems {
		t, err := Convert(e)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	if hint != nil {
		if !lo.EveryBy(types, func(t ast.Type) bool { return IsSubtype(nil, t, hint) }) {
			return nil, &Error{Kind: UnconvertibleTerm, Term: term, Reason: "element does not match " + hint.String()}
		}
		return hint, nil
	}
	if !lo.EveryBy(types[1:], func(t ast.Type) bool { return ast.Equal(t, types[0]) }) {
		return nil, &Error{Kind: UnconvertibleTerm, Term: term, Reason: "heterogeneous elements"}
	}
	return types[0], nil
}

// MaxDefaultLength bounds the arrays Default will allocate.
const MaxDefaultLength = 1 << 16

// Default produces the zero value of t. Types without a constructible
// inhabitant fail with UnconstructibleDefault.
func Default(t ast.Type) (ast.Term, error) {
	switch t := t.(type) {
	case ast.Base:
		switch t {
		case ast.Unit:
			return ast.UnitTerm{}, nil
		case ast.Boolean:
			return ast.BoolTerm(false), nil
		case ast.Natural:
			return ast.NatTerm(0), nil
		case ast.Integer:
			return ast.IntTerm(0), nil
		case ast.Float:
			return ast.FloatTerm(0), nil
		case ast.String:
			return ast.StringTerm(""), nil
		}
	case ast.List:
		return ast.ListTerm{Elem: t.Elem}, nil
	case ast.Array:
		e, err := Default(t.Elem)
		if err != nil {
			return nil, err
		}
		if t.Length > MaxDefaultLength {
			return nil, &Error{Kind: UnconstructibleDefault, Found: t, Limit: MaxDefaultLength}
		}
		elems := make([]ast.Term, t.Length)
		for i := range elems {
			elems[i] = e
		}
		return ast.ArrayTerm{Elems: elems, Elem: t.Elem}, nil
	case ast.Struct:
		fields := make(map[ast.Identifier]ast.Term, len(t.Fields))
		for k, ft := range t.Fields {
			v, err := Default(ft)
			if err != nil {
				return nil, err
			}
			fields[k] = v
		}
		return ast.StructTerm{Fields: fields}, nil
	case ast.Tuple:
		fields := make([]ast.TermField, len(t.Fields))
		for i, f := range t.Fields {
			v, err := Default(f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = ast.TermField{Label: f.Label, Value: v}
		}
		return ast.TupleTerm{Fields: fields}, nil
	}
	return nil, &Error{Kind: UnconstructibleDefault, Found: t}
}

// Deselfify substitutes every occurrence of Oneself in t with replacement.
func Deselfify(t ast.Type, replacement ast.Type) ast.Type {
	switch t := t.(type) {
	case ast.Oneself:
		return replacement
	case ast.Base:
		return t
	case ast.List:
		return ast.List{Elem: Deselfify(t.Elem, replacement)}
	case ast.Array:
		return ast.Array{Elem: Deselfify(t.Elem, replacement), Length: t.Length}
	case ast.Slice:
		return ast.Slice{Elem: Deselfify(t.Elem, replacement)}
	case ast.Union:
		return ast.Union{Members: deselfifyAll(t.Members, replacement)}
	case ast.Struct:
		fields := make(map[ast.Identifier]ast.Type, len(t.Fields))
		for k, ft := range t.Fields {
			fields[k] = Deselfify(ft, replacement)
		}
		return ast.Struct{Fields: fields}
	case ast.Tuple:
		fields := make([]ast.Field, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = ast.Field{Label: f.Label, Type: Deselfify(f.Type, replacement)}
		}
		return ast.Tuple{Fields: fields}
	case ast.Function:
		return ast.Function{From: Deselfify(t.From, replacement), To: Deselfify(t.To, replacement)}
	case ast.Interface:
		iface := ast.Interface{Signatures: make([]ast.Signature, len(t.Signatures))}
		for i, sig := range t.Signatures {
			iface.Signatures[i] = deselfifySignature(sig, replacement)
		}
		if t.Assoc != nil {
			iface.Assoc = Deselfify(t.Assoc, replacement)
		}
		return iface
	case ast.Generic:
		if t.Bounds == nil {
			return t
		}
		return ast.NewGeneric(deselfifyAll(t.Bounds.Slice(), replacement)...)
	default:
		panic("unreachable")
	}
}

func deselfifyAll(ts []ast.Type, replacement ast.Type) []ast.Type {
	return lo.Map(ts, func(t ast.Type, _ int) ast.Type { return Deselfify(t, replacement) })
}

func deselfifySignature(sig ast.Signature, replacement ast.Type) ast.Signature {
	return ast.Signature{
		Name: sig.Name,
		From: Deselfify(sig.From, replacement),
		To:   Deselfify(sig.To, replacement),
	}
}
