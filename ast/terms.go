package ast

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Term is a runtime-representable value.
type Term interface {
	isTerm()
	fmt.Stringer
}

var (
	_ Term = UnitTerm{}
	_ Term = BoolTerm(false)
	_ Term = NatTerm(0)
	_ Term = IntTerm(0)
	_ Term = FloatTerm(0)
	_ Term = StringTerm("")
	_ Term = ListTerm{}
	_ Term = ArrayTerm{}
	_ Term = UnionTerm{}
	_ Term = StructTerm{}
	_ Term = TupleTerm{}
)

type UnitTerm struct{}

func (UnitTerm) isTerm()        {}
func (UnitTerm) String() string { return "()" }

type BoolTerm bool

func (BoolTerm) isTerm() {}
func (b BoolTerm) String() string {
	return strconv.FormatBool(bool(b))
}

type NatTerm uint64

func (NatTerm) isTerm() {}
func (n NatTerm) String() string {
	return strconv.FormatUint(uint64(n), 10)
}

// IntTerm always prints with a sign so that it reads back as an integer.
type IntTerm int64

func (IntTerm) isTerm() {}
func (i IntTerm) String() string {
	if i >= 0 {
		return "+" + strconv.FormatInt(int64(i), 10)
	}
	return strconv.FormatInt(int64(i), 10)
}

type FloatTerm float64

func (FloatTerm) isTerm() {}
func (f FloatTerm) String() string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}

type StringTerm string

func (StringTerm) isTerm() {}
func (s StringTerm) String() string {
	return strconv.Quote(string(s))
}

// ListTerm is a sequence of terms. Elem is an optional element type used
// when the list is empty.
type ListTerm struct {
	Elems []Term
	Elem  Type
}

func (ListTerm) isTerm() {}
func (l ListTerm) String() string {
	return "[" + joinTerms(l.Elems) + "]"
}

// ArrayTerm is a fixed sequence of terms. Elem is an optional element type
// used when the array is empty.
type ArrayTerm struct {
	Elems []Term
	Elem  Type
}

func (ArrayTerm) isTerm() {}
func (a ArrayTerm) String() string {
	return "#[" + joinTerms(a.Elems) + "]"
}

// UnionTerm wraps the single alternative a union value holds.
type UnionTerm struct {
	Value Term
}

func (UnionTerm) isTerm() {}
func (u UnionTerm) String() string {
	return "union(" + u.Value.String() + ")"
}

type StructTerm struct {
	Fields map[Identifier]Term
}

func (StructTerm) isTerm() {}
func (s StructTerm) String() string {
	keys := maps.Keys(s.Fields)
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " = " + s.Fields[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type TermField struct {
	Label Identifier
	Value Term
}

type TupleTerm struct {
	Fields []TermField
}

func (TupleTerm) isTerm() {}
func (t TupleTerm) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		if f.Label != "" {
			parts[i] = f.Label + " = " + f.Value.String()
		} else {
			parts[i] = f.Value.String()
		}
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func joinTerms(ts []Term) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
