// Package eval executes expressions by substitution into a scope chain.
// It does not consult types: callers check an expression before running it.
package eval

import (
	"fmt"
	"io"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/types"
)

type ErrorKind int

const (
	UnboundVariable ErrorKind = iota
	NotAnAbstraction
	NonBooleanCondition
	UnappliedAbstraction
	TooDeep
)

func (k ErrorKind) String() string {
	switch k {
	case UnboundVariable:
		return "UnboundVariable"
	case NotAnAbstraction:
		return "NotAnAbstraction"
	case NonBooleanCondition:
		return "NonBooleanCondition"
	case UnappliedAbstraction:
		return "UnappliedAbstraction"
	case TooDeep:
		return "TooDeep"
	default:
		panic("unreachable")
	}
}

type Error struct {
	Kind  ErrorKind
	Ident ast.Identifier
	Expr  ast.Expression
	Term  ast.Term
	Limit int
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnboundVariable:
		return fmt.Sprintf("no such variable %s in context", e.Ident)
	case NotAnAbstraction:
		return fmt.Sprintf("attempting to apply %s, which is not an abstraction", e.Expr)
	case NonBooleanCondition:
		return fmt.Sprintf("condition evaluated to %s, not a boolean", e.Term)
	case UnappliedAbstraction:
		return fmt.Sprintf("attempting to execute the abstraction %s without an argument", e.Expr)
	case TooDeep:
		return fmt.Sprintf("evaluation nesting exceeds the limit of %d", e.Limit)
	default:
		panic("unreachable")
	}
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Options mirrors types.Options.
type Options struct {
	MaxDepth int
	Trace    io.Writer
}

type Evaluator struct {
	opts  Options
	depth int
}

func New(opts Options) *Evaluator {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = types.DefaultMaxDepth
	}
	return &Evaluator{opts: opts}
}

// Execute reduces x to a term with the default options.
func Execute(ctx *ast.Context, x ast.Expression) (ast.Term, error) {
	return New(Options{}).Execute(ctx, x)
}

func (e *Evaluator) Execute(ctx *ast.Context, x ast.Expression) (ast.Term, error) {
	e.depth = 0
	if ctx == nil {
		ctx = ast.NewContext(nil)
	}
	return e.execute(ctx, x)
}

func (e *Evaluator) trace(x ast.Expression) func() {
	if e.opts.Trace != nil {
		fmt.Fprintf(e.opts.Trace, "%*sexecute %s\n", e.depth*2, "", x)
	}
	e.depth++
	return func() {
		e.depth--
	}
}

func (e *Evaluator) execute(ctx *ast.Context, x ast.Expression) (ast.Term, error) {
	if e.depth >= e.opts.MaxDepth {
		return nil, &Error{Kind: TooDeep, Limit: e.opts.MaxDepth}
	}
	defer e.trace(x)()

	switch x := x.(type) {
	case *ast.Annotation:
		return e.execute(ctx, x.Expr)
	case *ast.Constant:
		return x.Term, nil
	case *ast.Variable:
		term, ok := ctx.Lookup(x.ID)
		if !ok {
			return nil, &Error{Kind: UnboundVariable, Ident: x.ID}
		}
		return term, nil
	case *ast.Abstraction:
		return nil, &Error{Kind: UnappliedAbstraction, Expr: x}
	case *ast.Application:
		abs, ok := unannotate(x.Func).(*ast.Abstraction)
		if !ok {
			return nil, &Error{Kind: NotAnAbstraction, Expr: x.Func}
		}
		arg, err := e.execute(ctx, x.Arg)
		if err != nil {
			return nil, err
		}
		scope := ctx.AddScope()
		scope.Insert(abs.Param, arg)
		return e.execute(scope, abs.Body)
	case *ast.Conditional:
		cond, err := e.execute(ctx, x.Cond)
		if err != nil {
			return nil, err
		}
		b, ok := cond.(ast.BoolTerm)
		if !ok {
			return nil, &Error{Kind: NonBooleanCondition, Term: cond}
		}
		if b {
			return e.execute(ctx, x.Then)
		}
		return e.execute(ctx, x.Else)
	default:
		panic("unreachable")
	}
}

func unannotate(x ast.Expression) ast.Expression {
	for {
		a, ok := x.(*ast.Annotation)
		if !ok {
			return x
		}
		x = a.Expr
	}
}
