package types

import (
	"fmt"
	"io"

	"github.com/omentic/chrysanthemum/ast"
)

// DefaultMaxDepth bounds the combined recursion of check, infer and subtype.
const DefaultMaxDepth = 10000

type Options struct {
	// MaxDepth limits recursion. Zero or negative means DefaultMaxDepth.
	MaxDepth int
	// Trace receives one indented line per judgment when non-nil.
	Trace io.Writer
}

// Checker runs the bidirectional judgments. A Checker holds the current
// recursion depth, so it must not be shared between goroutines.
type Checker struct {
	opts     Options
	depth    int
	overflow bool
}

func NewChecker(opts Options) *Checker {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Checker{opts: opts}
}

// Check reports whether x can be used as a value of type target.
func Check(ctx *ast.Context, x ast.Expression, target ast.Type) error {
	return NewChecker(Options{}).Check(ctx, x, target)
}

// Infer reconstructs the type of x.
func Infer(ctx *ast.Context, x ast.Expression) (ast.Type, error) {
	return NewChecker(Options{}).Infer(ctx, x)
}

// IsSubtype reports whether a value of type s may be used where t is
// expected. ctx supplies interface-method implementations and may be nil.
func IsSubtype(ctx *ast.Context, s, t ast.Type) bool {
	return NewChecker(Options{}).Subtype(ctx, s, t)
}

func (c *Checker) Check(ctx *ast.Context, x ast.Expression, target ast.Type) error {
	c.reset()
	return c.check(orEmpty(ctx), x, target)
}

func (c *Checker) Infer(ctx *ast.Context, x ast.Expression) (ast.Type, error) {
	c.reset()
	return c.infer(orEmpty(ctx), x)
}

func (c *Checker) Subtype(ctx *ast.Context, s, t ast.Type) bool {
	c.reset()
	return c.subtype(orEmpty(ctx), s, t)
}

func (c *Checker) reset() {
	c.depth = 0
	c.overflow = false
}

func orEmpty(ctx *ast.Context) *ast.Context {
	if ctx == nil {
		return ast.NewContext(nil)
	}
	return ctx
}

// enter records one level of recursion. The returned func must be called on exit.
func (c *Checker) enter(format string, args ...any) (func(), error) {
	if c.depth >= c.opts.MaxDepth {
		c.overflow = true
		return func() {}, &Error{Kind: TooDeep, Limit: c.opts.MaxDepth}
	}
	if c.opts.Trace != nil {
		fmt.Fprintf(c.opts.Trace, "%*s", c.depth*2, "")
		fmt.Fprintf(c.opts.Trace, format+"\n", args...)
	}
	c.depth++
	return func() { c.depth-- }, nil
}

func (c *Checker) check(ctx *ast.Context, x ast.Expression, target ast.Type) error {
	leave, err := c.enter("check %s <= %s", x, target)
	defer leave()
	if err != nil {
		return err
	}

	switch x := x.(type) {
	case *ast.Annotation:
		t, err := c.infer(ctx, x)
		if err != nil {
			return err
		}
		return c.conforms(ctx, t, target)
	case *ast.Constant:
		t, err := Convert(x.Term)
		if err != nil {
			return err
		}
		return c.conforms(ctx, t, target)
	case *ast.Variable:
		term, ok := ctx.Lookup(x.ID)
		if !ok {
			return &Error{Kind: UnboundVariable, Ident: x.ID}
		}
		t, err := Convert(term)
		if err != nil {
			return err
		}
		return c.conforms(ctx, t, target)
	case *ast.Abstraction:
		fn, ok := target.(ast.Function)
		if !ok {
			return &Error{Kind: NotAFunctionType, Found: target, Expr: x}
		}
		param, err := Default(fn.From)
		if err != nil {
			return err
		}
		scope := ctx.AddScope()
		scope.Insert(x.Param, param)
		return c.check(scope, x.Body, fn.To)
	case *ast.Application:
		t, err := c.infer(ctx, x)
		if err != nil {
			return err
		}
		return c.conforms(ctx, t, target)
	case *ast.Conditional:
		if err := c.check(ctx, x.Cond, ast.Boolean); err != nil {
			return err
		}
		if err := c.check(ctx, x.Then, target); err != nil {
			return err
		}
		return c.check(ctx, x.Else, target)
	default:
		panic("unreachable")
	}
}

func (c *Checker) infer(ctx *ast.Context, x ast.Expression) (ast.Type, error) {
	leave, err := c.enter("infer %s", x)
	defer leave()
	if err != nil {
		return nil, err
	}

	switch x := x.(type) {
	case *ast.Annotation:
		if err := c.check(ctx, x.Expr, x.Type); err != nil {
			return nil, err
		}
		return x.Type, nil
	case *ast.Constant:
		return Convert(x.Term)
	case *ast.Variable:
		term, ok := ctx.Lookup(x.ID)
		if !ok {
			return nil, &Error{Kind: UnboundVariable, Ident: x.ID}
		}
		// Bound terms are re-inferred without the surrounding bindings.
		return c.infer(ast.NewContext(nil), &ast.Constant{Term: term})
	case *ast.Abstraction:
		return nil, &Error{Kind: UninferableAbstraction, Expr: x}
	case *ast.Application:
		t, err := c.infer(ctx, x.Func)
		if err != nil {
			return nil, err
		}
		fn, ok := t.(ast.Function)
		if !ok {
			return nil, &Error{Kind: NotAFunctionType, Found: t}
		}
		if err := c.check(ctx, x.Arg, fn.From); err != nil {
			return nil, err
		}
		return fn.To, nil
	case *ast.Conditional:
		if err := c.check(ctx, x.Cond, ast.Boolean); err != nil {
			return nil, err
		}
		then, err := c.infer(ctx, x.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.infer(ctx, x.Else)
		if err != nil {
			return nil, err
		}
		// No join: the branches must be interchangeable.
		if !c.subtype(ctx, then, els) || !c.subtype(ctx, els, then) {
			if c.overflow {
				return nil, &Error{Kind: TooDeep, Limit: c.opts.MaxDepth}
			}
			return nil, &Error{Kind: BranchTypeMismatch, Expected: then, Found: els}
		}
		return then, nil
	default:
		panic("unreachable")
	}
}
