package types

import (
	"errors"
	"fmt"

	"github.com/omentic/chrysanthemum/ast"
)

type ErrorKind int

const (
	UnboundVariable ErrorKind = iota
	TypeMismatch
	NotAFunctionType
	UninferableAbstraction
	BranchTypeMismatch
	UnconstructibleDefault
	MissingInterfaceMethod
	UnconvertibleTerm
	TooDeep
)

func (k ErrorKind) String() string {
	switch k {
	case UnboundVariable:
		return "UnboundVariable"
	case TypeMismatch:
		return "TypeMismatch"
	case NotAFunctionType:
		return "NotAFunctionType"
	case UninferableAbstraction:
		return "UninferableAbstraction"
	case BranchTypeMismatch:
		return "BranchTypeMismatch"
	case UnconstructibleDefault:
		return "UnconstructibleDefault"
	case MissingInterfaceMethod:
		return "MissingInterfaceMethod"
	case UnconvertibleTerm:
		return "UnconvertibleTerm"
	case TooDeep:
		return "TooDeep"
	default:
		panic("unreachable")
	}
}

// Error is a typing failure. Which payload fields are set depends on Kind:
//
//	UnboundVariable         Ident
//	TypeMismatch            Expected, Found
//	NotAFunctionType        Found
//	UninferableAbstraction  Expr
//	BranchTypeMismatch      Expected (then branch), Found (else branch)
//	UnconstructibleDefault  Found, Limit (arrays over MaxDefaultLength)
//	MissingInterfaceMethod  Signature, Found (the implementing type)
//	UnconvertibleTerm       Term, Reason
//	TooDeep                 Limit
type Error struct {
	Kind      ErrorKind
	Ident     ast.Identifier
	Expected  ast.Type
	Found     ast.Type
	Signature ast.Signature
	Term      ast.Term
	Expr      ast.Expression
	Reason    string
	Limit     int
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnboundVariable:
		return fmt.Sprintf("failed to find variable %s in context", e.Ident)
	case TypeMismatch:
		return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
	case NotAFunctionType:
		if e.Expr != nil {
			return fmt.Sprintf("attempting to check abstraction %s with a non-function type %s", e.Expr, e.Found)
		}
		return fmt.Sprintf("application of a non-function type %s", e.Found)
	case UninferableAbstraction:
		return fmt.Sprintf("attempting to infer from abstraction %s without an annotation", e.Expr)
	case BranchTypeMismatch:
		return fmt.Sprintf("if clauses of different types: %s and %s", e.Expected, e.Found)
	case UnconstructibleDefault:
		if e.Limit > 0 {
			return fmt.Sprintf("type %s is too large to default (limit %d)", e.Found, e.Limit)
		}
		return fmt.Sprintf("type %s has no default inhabitant", e.Found)
	case MissingInterfaceMethod:
		return fmt.Sprintf("%s does not implement %s", e.Found, e.Signature)
	case UnconvertibleTerm:
		return fmt.Sprintf("cannot recover a type for %s: %s", e.Term, e.Reason)
	case TooDeep:
		return fmt.Sprintf("expression nesting exceeds the limit of %d", e.Limit)
	default:
		panic("unreachable")
	}
}

// Is matches any *Error of the same Kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind, true
	}
	return 0, false
}

func mismatch(expected, found ast.Type) *Error {
	return &Error{Kind: TypeMismatch, Expected: expected, Found: found}
}
