// Package repl implements the interactive front end: a Session that keeps a
// context alive across commands, and a readline loop around it.
package repl

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/eval"
	"github.com/omentic/chrysanthemum/parser"
	"github.com/omentic/chrysanthemum/types"
)

// Mode selects what a bare expression does.
type Mode int

const (
	Infer Mode = iota
	Check
	Execute
)

func (m Mode) String() string {
	switch m {
	case Infer:
		return "infer"
	case Check:
		return "check"
	case Execute:
		return "execute"
	}
	panic("unreachable")
}

// Set implements flag.Value.
func (m *Mode) Set(s string) error {
	switch s {
	case "i", "infer":
		*m = Infer
	case "c", "check":
		*m = Check
	case "e", "execute":
		*m = Execute
	default:
		return fmt.Errorf("unknown mode %q", s)
	}
	return nil
}

type Options struct {
	Mode   Mode
	Types  types.Options
	Eval   eval.Options
	Parser parser.Config
}

// Session evaluates commands against one context that lives as long as the
// session does.
type Session struct {
	ctx     *ast.Context
	mode    Mode
	checker *types.Checker
	eval    *eval.Evaluator
	cfg     parser.Config
	pending []string
}

func NewSession(ctx *ast.Context, opts Options) *Session {
	if ctx == nil {
		ctx = ast.NewContext(nil)
	}
	return &Session{
		ctx:     ctx,
		mode:    opts.Mode,
		checker: types.NewChecker(opts.Types),
		eval:    eval.New(opts.Eval),
		cfg:     opts.Parser,
	}
}

func (s *Session) Context() *ast.Context { return s.ctx }

// Checker exposes the session's checker so callers can load preludes with it.
func (s *Session) Checker() *types.Checker { return s.checker }

const help = `commands:
  i, infer <expr>             infer the type of expr
  c, check <expr> [:: <type>] check expr against type, or against its inferred type
  e, execute <expr>           evaluate expr
  :let <name> = <expr>        infer, evaluate and bind expr
  :impl <name> : <T> -> <U> = <expr>
                              check expr and register it as an interface method
  :ast <expr>                 print the syntax tree of expr
  :dump <expr>                dump expr as a Go literal
  :ctx                        print the session context
  :help                       print this message
anything else is handled by the session mode`

var errMissingOperand = errors.New("missing operand")

func splitCommand(line string) (cmd, rest string) {
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// Eval runs one complete command and returns what it prints.
func (s *Session) Eval(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	cmd, rest := splitCommand(line)
	switch cmd {
	case ":help", ":h":
		return help, nil
	case ":ctx":
		return strings.TrimSuffix(s.ctx.String(), "\n"), nil
	}

	var run func(string) (string, error)
	switch cmd {
	case "i", "g", "infer":
		run = s.infer
	case "c", "t", "check":
		run = s.check
	case "e", "r", "execute", "run":
		run = s.execute
	case ":let":
		run = s.let
	case ":impl":
		run = s.impl
	case ":ast":
		run = s.tree
	case ":dump":
		run = s.dump
	default:
		if strings.HasPrefix(cmd, ":") {
			return "", fmt.Errorf("unknown command %s, try :help", cmd)
		}
		return s.byMode(line)
	}
	if rest == "" {
		return "", fmt.Errorf("%s: %w", cmd, errMissingOperand)
	}
	return run(rest)
}

func (s *Session) byMode(src string) (string, error) {
	if s.mode == Check {
		return s.check(src)
	}
	x, err := s.cfg.ParseExpr(src)
	if err != nil {
		return "", err
	}
	return s.Do(x)
}

// Do runs an already parsed expression under the session mode.
func (s *Session) Do(x ast.Expression) (string, error) {
	switch s.mode {
	case Check:
		return s.checkExpr(x, nil)
	case Execute:
		return s.executeExpr(x)
	default:
		return s.inferExpr(x)
	}
}

func (s *Session) infer(src string) (string, error) {
	x, err := s.cfg.ParseExpr(src)
	if err != nil {
		return "", err
	}
	return s.inferExpr(x)
}

func (s *Session) inferExpr(x ast.Expression) (string, error) {
	t, err := s.checker.Infer(s.ctx, x)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func (s *Session) check(src string) (string, error) {
	x, t, err := s.cfg.ParseJudgement(src)
	if err != nil {
		return "", err
	}
	return s.checkExpr(x, t)
}

// checkExpr checks x against t, or against its inferred type when t is nil.
func (s *Session) checkExpr(x ast.Expression, t ast.Type) (string, error) {
	if t == nil {
		var err error
		if t, err = s.checker.Infer(s.ctx, x); err != nil {
			return "", err
		}
	}
	if err := s.checker.Check(s.ctx, x, t); err != nil {
		return "", err
	}
	return "checks: " + t.String(), nil
}

func (s *Session) execute(src string) (string, error) {
	x, err := s.cfg.ParseExpr(src)
	if err != nil {
		return "", err
	}
	return s.executeExpr(x)
}

func (s *Session) executeExpr(x ast.Expression) (string, error) {
	term, err := s.eval.Execute(s.ctx, x)
	if err != nil {
		return "", err
	}
	return term.String(), nil
}

func (s *Session) let(src string) (string, error) {
	id, x, err := s.cfg.ParseLet(src)
	if err != nil {
		return "", err
	}
	t, err := s.checker.Infer(s.ctx, x)
	if err != nil {
		return "", err
	}
	term, err := s.eval.Execute(s.ctx, x)
	if err != nil {
		return "", err
	}
	s.ctx.Insert(id, term)
	return fmt.Sprintf("%s: %s = %s", id, t, term), nil
}

func (s *Session) impl(src string) (string, error) {
	sig, body, err := s.cfg.ParseImpl(src)
	if err != nil {
		return "", err
	}
	if err := s.checker.Check(s.ctx, body, ast.Func(sig.From, sig.To)); err != nil {
		return "", err
	}
	s.ctx.InsertFunction(sig, body)
	return sig.String(), nil
}

func (s *Session) tree(src string) (string, error) {
	x, err := s.cfg.ParseExpr(src)
	if err != nil {
		return "", err
	}
	return x.ASTString(0), nil
}

func (s *Session) dump(src string) (string, error) {
	x, err := s.cfg.ParseExpr(src)
	if err != nil {
		return "", err
	}
	return ast.Dump(x), nil
}

// Feed adds one input line to the pending command. While the command only
// fails for ending early, more is true and the line is kept for the next call.
func (s *Session) Feed(line string) (out string, more bool, err error) {
	s.pending = append(s.pending, line)
	out, err = s.Eval(strings.Join(s.pending, " "))
	if err != nil && parser.IsIncomplete(err) {
		return "", true, nil
	}
	s.pending = s.pending[:0]
	return out, false, err
}

// Pending reports whether Feed holds an incomplete command.
func (s *Session) Pending() bool { return len(s.pending) > 0 }

// Reset drops the incomplete command, if any.
func (s *Session) Reset() { s.pending = s.pending[:0] }
