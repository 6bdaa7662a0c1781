package ast

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Context is a chain of lexical scopes holding two independent namespaces:
// term bindings and interface-method implementations keyed by Signature.
// Child scopes shadow their parents and never write through to them.
type Context struct {
	Parent    *Context
	terms     map[Identifier]Term
	functions map[string]Implementation
}

// Implementation is an interface-method body registered under its signature.
type Implementation struct {
	Signature Signature
	Body      Expression
}

func NewContext(parent *Context) *Context {
	return &Context{
		Parent:    parent,
		terms:     make(map[Identifier]Term),
		functions: make(map[string]Implementation),
	}
}

// AddScope returns a child scope. Mutations of the child are invisible to c.
func (c *Context) AddScope() *Context {
	return NewContext(c)
}

// Insert binds id in the innermost scope and returns the binding it shadows, if any.
func (c *Context) Insert(id Identifier, t Term) (prev Term, ok bool) {
	prev, ok = c.Lookup(id)
	c.terms[id] = t
	return prev, ok
}

func (c *Context) LookupLocal(id Identifier) (Term, bool) {
	t, ok := c.terms[id]
	return t, ok
}

func (c *Context) Lookup(id Identifier) (t Term, ok bool) {
	for p := c; p != nil; p = p.Parent {
		if t, ok = p.LookupLocal(id); ok {
			return t, ok
		}
	}
	return nil, false
}

// InsertFunction registers body as the implementation of sig and returns
// the implementation it shadows, if any.
func (c *Context) InsertFunction(sig Signature, body Expression) (prev Expression, ok bool) {
	prev, ok = c.LookupFunction(sig)
	c.functions[sig.Hash()] = Implementation{Signature: sig, Body: body}
	return prev, ok
}

// LookupFunction finds an implementation whose signature is structurally equal to sig.
func (c *Context) LookupFunction(sig Signature) (Expression, bool) {
	key := sig.Hash()
	for p := c; p != nil; p = p.Parent {
		if impl, ok := p.functions[key]; ok {
			return impl.Body, true
		}
	}
	return nil, false
}

// Terms flattens the visible term bindings.
func (c *Context) Terms() map[Identifier]Term {
	if c == nil {
		return map[Identifier]Term{}
	}
	out := c.Parent.Terms()
	maps.Copy(out, c.terms)
	return out
}

// Functions flattens the visible implementations, ordered by signature.
func (c *Context) Functions() []Implementation {
	visible := make(map[string]Implementation)
	var collect func(p *Context)
	collect = func(p *Context) {
		if p == nil {
			return
		}
		collect(p.Parent)
		maps.Copy(visible, p.functions)
	}
	collect(c)
	keys := maps.Keys(visible)
	slices.Sort(keys)
	impls := make([]Implementation, len(keys))
	for i, k := range keys {
		impls[i] = visible[k]
	}
	return impls
}

// String lists the visible bindings, then the visible implementations.
// Shadowed entries are omitted.
func (c *Context) String() string {
	terms := c.Terms()
	impls := c.Functions()
	if len(terms) == 0 && len(impls) == 0 {
		return "(empty)\n"
	}
	sb := new(strings.Builder)
	buf := tabwriter.NewWriter(sb, 0, 0, 1, ' ', 0)
	names := maps.Keys(terms)
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(buf, "%s:\t%s\n", name, terms[name])
	}
	for _, impl := range impls {
		fmt.Fprintf(buf, "%s:\t%s\n", impl.Signature, impl.Body)
	}
	buf.Flush()
	return sb.String()
}
