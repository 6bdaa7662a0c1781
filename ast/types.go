package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/samber/lo"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Identifier names a variable, a struct field, a tuple label or an interface method.
type Identifier = string

// Type is the closed set of type formers.
// Hash returns a canonical spelling: two types are structurally equal iff their hashes are equal.
type Type interface {
	isType()
	fmt.Stringer
	Hash() string
}

var (
	_ Type = Base(0)
	_ Type = List{}
	_ Type = Array{}
	_ Type = Slice{}
	_ Type = Union{}
	_ Type = Struct{}
	_ Type = Tuple{}
	_ Type = Function{}
	_ Type = Interface{}
	_ Type = Oneself{}
	_ Type = Generic{}
)

type Base int

const (
	Empty Base = iota // top
	Error             // bottom
	Unit
	Boolean
	Natural
	Integer
	Float
	String
)

func (Base) isType() {}

func (b Base) String() string {
	switch b {
	case Empty:
		return "empty"
	case Error:
		return "error"
	case Unit:
		return "unit"
	case Boolean:
		return "bool"
	case Natural:
		return "nat"
	case Integer:
		return "int"
	case Float:
		return "float"
	case String:
		return "str"
	default:
		panic("unreachable")
	}
}

func (b Base) Hash() string { return b.String() }

// BaseMap maps the spellings accepted by the parser to base types.
var BaseMap = map[string]Base{
	"empty":   Empty,
	"error":   Error,
	"unit":    Unit,
	"bool":    Boolean,
	"boolean": Boolean,
	"nat":     Natural,
	"natural": Natural,
	"int":     Integer,
	"integer": Integer,
	"float":   Float,
	"str":     String,
	"string":  String,
}

type List struct {
	Elem Type
}

func (List) isType() {}

func (l List) String() string { return typeString(l, false) }
func (l List) Hash() string   { return typeString(l, true) }

type Array struct {
	Elem   Type
	Length uint64
}

func (Array) isType() {}

func (a Array) String() string { return typeString(a, false) }
func (a Array) Hash() string   { return typeString(a, true) }

type Slice struct {
	Elem Type
}

func (Slice) isType() {}

func (s Slice) String() string { return typeString(s, false) }
func (s Slice) Hash() string   { return typeString(s, true) }

// Union is a sum of alternatives. Member order is irrelevant to equality.
type Union struct {
	Members []Type
}

func (Union) isType() {}

func (u Union) String() string { return typeString(u, false) }
func (u Union) Hash() string   { return typeString(u, true) }

// Set returns the members keyed by their canonical hash.
func (u Union) Set() *set.HashSet[Type, string] {
	return set.HashSetFrom[Type, string](u.Members)
}

type Struct struct {
	Fields map[Identifier]Type
}

func (Struct) isType() {}

func (s Struct) String() string { return typeString(s, false) }
func (s Struct) Hash() string   { return typeString(s, true) }

// Keys returns the field names in sorted order.
func (s Struct) Keys() []Identifier {
	keys := maps.Keys(s.Fields)
	slices.Sort(keys)
	return keys
}

// Field is one slot of a tuple. An empty Label means the slot is unlabeled.
type Field struct {
	Label Identifier
	Type  Type
}

func (f Field) IsLabeled() bool {
	return f.Label != ""
}

type Tuple struct {
	Fields []Field
}

func (Tuple) isType() {}

func (t Tuple) String() string { return typeString(t, false) }
func (t Tuple) Hash() string   { return typeString(t, true) }

func (t Tuple) Labels() []Identifier {
	return lo.Map(t.Fields, func(f Field, _ int) Identifier { return f.Label })
}

type Function struct {
	From Type
	To   Type
}

func (Function) isType() {}

func (f Function) String() string { return typeString(f, false) }
func (f Function) Hash() string   { return typeString(f, true) }

// Signature identifies one interface method.
type Signature struct {
	Name Identifier
	From Type
	To   Type
}

func (s Signature) String() string {
	return s.Name + ": " + typeString(Function{From: s.From, To: s.To}, false)
}

func (s Signature) Hash() string {
	return s.Name + ": " + typeString(Function{From: s.From, To: s.To}, true)
}

// Interface is satisfied by any type with a registered implementation for
// every signature, after substituting Oneself with that type. Assoc is nil
// when the interface has no associated base type.
type Interface struct {
	Signatures []Signature
	Assoc      Type
}

func (Interface) isType() {}

func (i Interface) String() string { return typeString(i, false) }
func (i Interface) Hash() string   { return typeString(i, true) }

// Oneself stands for the implementing type inside interface signatures.
type Oneself struct{}

func (Oneself) isType() {}

func (Oneself) String() string { return "self" }
func (Oneself) Hash() string   { return "self" }

// Generic is a type variable bounded by a containment set.
// A nil Bounds is unconstrained.
type Generic struct {
	Bounds *set.HashSet[Type, string]
}

func NewGeneric(bounds ...Type) Generic {
	return Generic{Bounds: set.HashSetFrom[Type, string](bounds)}
}

func (Generic) isType() {}

func (g Generic) String() string { return typeString(g, false) }
func (g Generic) Hash() string   { return typeString(g, true) }

// Admits reports whether t is one of the bounds.
func (g Generic) Admits(t Type) bool {
	return g.Bounds == nil || g.Bounds.Contains(t)
}

// Equal reports structural equality of two types.
func Equal(a, b Type) bool {
	return a.Hash() == b.Hash()
}

func typeString(t Type, canonical bool) string {
	sb := new(strings.Builder)
	writeType(sb, t, canonical)
	return sb.String()
}

func writeTypes(sb *strings.Builder, ts []Type, canonical bool) {
	if canonical {
		hashes := lo.Map(ts, func(t Type, _ int) string { return t.Hash() })
		slices.Sort(hashes)
		sb.WriteString(strings.Join(hashes, ", "))
		return
	}
	for i, t := range ts {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeType(sb, t, canonical)
	}
}

func writeType(sb *strings.Builder, t Type, canonical bool) {
	switch t := t.(type) {
	case Base:
		sb.WriteString(t.String())
	case Oneself:
		sb.WriteString("self")
	case List:
		sb.WriteString("list[")
		writeType(sb, t.Elem, canonical)
		sb.WriteString("]")
	case Slice:
		sb.WriteString("slice[")
		writeType(sb, t.Elem, canonical)
		sb.WriteString("]")
	case Array:
		sb.WriteString("array[")
		writeType(sb, t.Elem, canonical)
		sb.WriteString("; ")
		sb.WriteString(strconv.FormatUint(t.Length, 10))
		sb.WriteString("]")
	case Union:
		sb.WriteString("union{")
		writeTypes(sb, t.Members, canonical)
		sb.WriteString("}")
	case Struct:
		sb.WriteString("struct{")
		for i, k := range t.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			writeType(sb, t.Fields[k], canonical)
		}
		sb.WriteString("}")
	case Tuple:
		sb.WriteString("(")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			if f.IsLabeled() {
				sb.WriteString(f.Label)
				sb.WriteString(": ")
			}
			writeType(sb, f.Type, canonical)
		}
		if len(t.Fields) == 1 {
			sb.WriteString(",")
		}
		sb.WriteString(")")
	case Function:
		if _, ok := t.From.(Function); ok {
			sb.WriteString("(")
			writeType(sb, t.From, canonical)
			sb.WriteString(")")
		} else {
			writeType(sb, t.From, canonical)
		}
		sb.WriteString(" -> ")
		writeType(sb, t.To, canonical)
	case Interface:
		sb.WriteString("interface")
		if t.Assoc != nil {
			sb.WriteString("[")
			writeType(sb, t.Assoc, canonical)
			sb.WriteString("]")
		}
		sb.WriteString("{")
		for i, sig := range t.Signatures {
			if i > 0 {
				sb.WriteString("; ")
			}
			if canonical {
				sb.WriteString(sig.Hash())
			} else {
				sb.WriteString(sig.String())
			}
		}
		sb.WriteString("}")
	case Generic:
		sb.WriteString("generic")
		if t.Bounds != nil {
			sb.WriteString("{")
			bounds := t.Bounds.Slice()
			slices.SortFunc(bounds, func(a, b Type) bool { return a.Hash() < b.Hash() })
			writeTypes(sb, bounds, canonical)
			sb.WriteString("}")
		}
	default:
		panic(fmt.Sprintf("unhandled type %T", t))
	}
}
