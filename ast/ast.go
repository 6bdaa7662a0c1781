package ast

import (
	"fmt"

	"github.com/sanity-io/litter"
)

// Expression is the checked AST. Trees are immutable once built.
type Expression interface {
	isExpr()
	fmt.Stringer
	ASTString(depth int) string
}

var (
	_ Expression = (*Annotation)(nil)
	_ Expression = (*Constant)(nil)
	_ Expression = (*Variable)(nil)
	_ Expression = (*Abstraction)(nil)
	_ Expression = (*Application)(nil)
	_ Expression = (*Conditional)(nil)
)

func indent(depth int) string {
	return fmt.Sprintf("%*s", depth*2, "")
}

type Annotation struct {
	Expr Expression
	Type Type
}

func (*Annotation) isExpr() {}

func (a *Annotation) String() string {
	return fmt.Sprintf("(%s: %s)", a.Expr, a.Type)
}

func (a *Annotation) ASTString(depth int) string {
	return fmt.Sprintf(
		"Annotation\n%sExpr: %s\n%sType: %s",
		indent(depth+1),
		a.Expr.ASTString(depth+1), indent(depth+1),
		a.Type)
}

type Constant struct {
	Term Term
}

func (*Constant) isExpr() {}

func (c *Constant) String() string {
	return c.Term.String()
}

func (c *Constant) ASTString(depth int) string {
	return fmt.Sprintf("Constant\n%sTerm: %s", indent(depth+1), c.Term)
}

type Variable struct {
	ID Identifier
}

func (*Variable) isExpr() {}

func (v *Variable) String() string {
	return v.ID
}

func (v *Variable) ASTString(depth int) string {
	return fmt.Sprintf("Variable\n%sID: %s", indent(depth+1), v.ID)
}

// Abstraction never records its parameter type. The type comes from an
// enclosing annotation or from the checking target.
type Abstraction struct {
	Param Identifier
	Body  Expression
}

func (*Abstraction) isExpr() {}

func (a *Abstraction) String() string {
	return fmt.Sprintf("(λ%s. %s)", a.Param, a.Body)
}

func (a *Abstraction) ASTString(depth int) string {
	return fmt.Sprintf(
		"Abstraction\n%sParam: %s\n%sBody: %s",
		indent(depth+1),
		a.Param, indent(depth+1),
		a.Body.ASTString(depth+1))
}

type Application struct {
	Func Expression
	Arg  Expression
}

func (*Application) isExpr() {}

func (a *Application) String() string {
	return fmt.Sprintf("(%s %s)", a.Func, a.Arg)
}

func (a *Application) ASTString(depth int) string {
	return fmt.Sprintf(
		"Application\n%sFunc: %s\n%sArg: %s",
		indent(depth+1),
		a.Func.ASTString(depth+1), indent(depth+1),
		a.Arg.ASTString(depth+1))
}

type Conditional struct {
	Cond Expression
	Then Expression
	Else Expression
}

func (*Conditional) isExpr() {}

func (c *Conditional) String() string {
	return fmt.Sprintf("(if %s then %s else %s)", c.Cond, c.Then, c.Else)
}

func (c *Conditional) ASTString(depth int) string {
	return fmt.Sprintf(
		"Conditional\n%sCond: %s\n%sThen: %s\n%sElse: %s",
		indent(depth+1),
		c.Cond.ASTString(depth+1), indent(depth+1),
		c.Then.ASTString(depth+1), indent(depth+1),
		c.Else.ASTString(depth+1))
}

// Dump renders any AST value, term or type as a Go-like literal.
func Dump(x any) string {
	return litter.Options{
		HidePrivateFields: true,
		StripPackageNames: false,
		HomePackage:       "ast",
	}.Sdump(x)
}

// Shorthand constructors.

func Ann(x Expression, t Type) Expression { return &Annotation{Expr: x, Type: t} }
func Const(t Term) Expression             { return &Constant{Term: t} }
func Var(id Identifier) Expression        { return &Variable{ID: id} }
func Abs(param Identifier, body Expression) Expression {
	return &Abstraction{Param: param, Body: body}
}
func App(fn, arg Expression) Expression { return &Application{Func: fn, Arg: arg} }
func Cond(cond, then, els Expression) Expression {
	return &Conditional{Cond: cond, Then: then, Else: els}
}
func Func(from, to Type) Type { return Function{From: from, To: to} }
