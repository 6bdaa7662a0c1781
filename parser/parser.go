package parser

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/lexer"
	"github.com/omentic/chrysanthemum/types"
)

// Config controls parsing. The zero value is ready to use.
type Config struct {
	// Trace receives the recursive-descent call tree when non-nil.
	Trace io.Writer
	// MaxDepth limits grammar recursion. Zero or negative means
	// types.DefaultMaxDepth.
	MaxDepth int
}

type parser struct {
	l        *lexer.Lexer
	tok      lexer.Token
	prev     lexer.Token // last consumed token
	buf      []lexer.Token
	indent   int
	maxDepth int
	out      io.Writer
	file     string
	err      error
}

// Error is a syntax error. AtEOF is set when the input ended early, so that
// more input could still complete it.
type Error struct {
	File  string
	Span  lexer.Span
	Msg   string
	AtEOF bool
}

func (e *Error) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%s: %s", e.File, e.Span, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

// IsIncomplete reports whether err only complains about input ending early.
func IsIncomplete(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.AtEOF
}

type bailout struct{}

func newParser(r io.Reader, cfg Config) *parser {
	p := &parser{l: lexer.NewLexer(r), out: cfg.Trace, maxDepth: cfg.MaxDepth}
	if p.maxDepth <= 0 {
		p.maxDepth = types.DefaultMaxDepth
	}
	p.next()
	return p
}

// trace enters one grammar rule. Nesting past maxDepth abandons the form.
func (p *parser) trace(msg string) func() {
	if p.indent >= p.maxDepth {
		p.errorf("expression nesting exceeds the limit of %d", p.maxDepth)
	}
	if p.out != nil {
		fmt.Fprintf(p.out, "%*s%s\n", p.indent*2, "", msg)
	}
	p.indent++
	return func() {
		p.indent--
	}
}

func (p *parser) next() {
	p.prev = p.tok
	if len(p.buf) > 0 {
		p.tok = p.buf[0]
		p.buf = p.buf[1:]
		return
	}
	p.tok = p.l.Next()
}

func (p *parser) peek() lexer.Token {
	if len(p.buf) == 0 {
		p.buf = append(p.buf, p.l.Next())
	}
	return p.buf[0]
}

func (p *parser) appErr(err error) {
	p.err = errors.Join(p.err, err)
}

// errorf records a syntax error at the current token and abandons the
// current top-level form.
func (p *parser) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.tok.Type == lexer.Illegal {
		msg = p.tok.Data
	}
	p.appErr(&Error{File: p.file, Span: p.tok.Span, Msg: msg, AtEOF: p.tok.Type == lexer.EOF})
	panic(bailout{})
}

func (p *parser) expect(ttyp lexer.TokenType) lexer.Token {
	tok := p.tok
	if tok.Type != ttyp {
		p.errorf("expected %s, found %s", ttyp, describe(tok))
	}
	p.next()
	return tok
}

func describe(tok lexer.Token) string {
	if tok.Data != "" {
		return strconv.Quote(tok.Data)
	}
	return tok.Type.String()
}

func (p *parser) isTerminator() bool {
	switch p.tok.Type {
	case lexer.LineTerminator, lexer.Semicolon, lexer.EOF:
		return true
	}
	return false
}

func (p *parser) skipTerminators() {
	for p.tok.Type == lexer.LineTerminator || p.tok.Type == lexer.Semicolon {
		p.next()
	}
}

func (p *parser) expectEnd() {
	p.skipTerminators()
	if p.tok.Type != lexer.EOF {
		p.errorf("unexpected %s after expression", describe(p.tok))
	}
}

// sync skips to the start of the next top-level form.
func (p *parser) sync() {
	for !p.isTerminator() {
		p.next()
	}
}

// guard runs f and converts a bailout into a false return.
func (p *parser) guard(f func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			ok = false
		}
	}()
	f()
	return true
}

func (p *parser) finish(ok bool) error {
	if err := p.l.Err(); err != nil {
		p.appErr(err)
	}
	if !ok && p.err == nil {
		p.appErr(&Error{File: p.file, Span: p.tok.Span, Msg: "invalid input"})
	}
	return p.err
}

func (p *parser) parseExpr() ast.Expression {
	defer p.trace("parseExpr")()
	switch p.tok.Type {
	case lexer.Lambda:
		return p.parseLambda()
	case lexer.If:
		return p.parseIf()
	}
	return p.parseAnnotated()
}

func (p *parser) parseLambda() ast.Expression {
	defer p.trace("parseLambda")()
	p.expect(lexer.Lambda)
	param := p.expect(lexer.Ident)
	p.expect(lexer.Period)
	return ast.Abs(param.Data, p.parseExpr())
}

func (p *parser) parseIf() ast.Expression {
	defer p.trace("parseIf")()
	p.expect(lexer.If)
	cond := p.parseExpr()
	p.expect(lexer.Then)
	then := p.parseExpr()
	p.expect(lexer.Else)
	return ast.Cond(cond, then, p.parseExpr())
}

func (p *parser) parseAnnotated() ast.Expression {
	defer p.trace("parseAnnotated")()
	x := p.parseApplication()
	if p.tok.Type == lexer.Colon {
		p.next()
		x = ast.Ann(x, p.parseType())
	}
	return x
}

func (p *parser) parseApplication() ast.Expression {
	defer p.trace("parseApplication")()
	x := p.parseAtom()
	for p.tok.BeginsAtom() {
		x = ast.App(x, p.parseAtom())
	}
	return x
}

func (p *parser) parseAtom() ast.Expression {
	defer p.trace("parseAtom")()
	switch tok := p.tok; tok.Type {
	case lexer.Ident:
		if tok.Data == "union" && p.peek().Type == lexer.LeftParen {
			p.next()
			p.next()
			v := p.parseConstant()
			p.expect(lexer.RightParen)
			return ast.Const(ast.UnionTerm{Value: v})
		}
		p.next()
		return ast.Var(tok.Data)
	case lexer.Number:
		term, err := parseNumber(tok.Data)
		if err != nil {
			p.errorf("%v", err)
		}
		p.next()
		return ast.Const(term)
	case lexer.String:
		s, err := strconv.Unquote(tok.Data)
		if err != nil {
			p.errorf("invalid string literal %s", tok.Data)
		}
		p.next()
		return ast.Const(ast.StringTerm(s))
	case lexer.True, lexer.False:
		p.next()
		return ast.Const(ast.BoolTerm(tok.Type == lexer.True))
	case lexer.LeftParen:
		return p.parseParen()
	case lexer.LeftBracket:
		return ast.Const(ast.ListTerm{Elems: p.parseElems()})
	case lexer.HashBracket:
		return ast.Const(ast.ArrayTerm{Elems: p.parseElems()})
	case lexer.LeftBrace:
		return p.parseStruct()
	}
	p.errorf("expected expression, found %s", describe(p.tok))
	panic("unreachable")
}

// parseConstant parses an atom that must denote a constant term.
func (p *parser) parseConstant() ast.Term {
	start := p.tok
	x := p.parseAtom()
	c, ok := x.(*ast.Constant)
	if !ok {
		p.appErr(&Error{File: p.file, Span: start.Span.Add(p.prev.Span), Msg: fmt.Sprintf("expected a constant, found %s", x)})
		panic(bailout{})
	}
	return c.Term
}

func (p *parser) atLabel(sep lexer.TokenType) bool {
	return p.tok.Type == lexer.Ident && p.peek().Type == sep
}

// parseParen parses (), a parenthesized expression or a tuple literal.
func (p *parser) parseParen() ast.Expression {
	defer p.trace("parseParen")()
	p.expect(lexer.LeftParen)
	if p.tok.Type == lexer.RightParen {
		p.next()
		return ast.Const(ast.UnitTerm{})
	}
	var fields []ast.TermField
	if !p.atLabel(lexer.Equals) {
		x := p.parseExpr()
		if p.tok.Type == lexer.RightParen {
			p.next()
			return x
		}
		c, ok := x.(*ast.Constant)
		if !ok {
			p.errorf("expected ) after %s", x)
		}
		fields = append(fields, ast.TermField{Value: c.Term})
		p.expect(lexer.Comma)
	}
	for p.tok.Type != lexer.RightParen {
		var f ast.TermField
		if p.atLabel(lexer.Equals) {
			f.Label = p.tok.Data
			p.next()
			p.next()
		}
		f.Value = p.parseConstant()
		fields = append(fields, f)
		if p.tok.Type != lexer.Comma {
			break
		}
		p.next()
	}
	p.expect(lexer.RightParen)
	return ast.Const(ast.TupleTerm{Fields: fields})
}

// parseElems parses the comma-separated constants of [..] or #[..].
func (p *parser) parseElems() []ast.Term {
	defer p.trace("parseElems")()
	p.next()
	var elems []ast.Term
	for p.tok.Type != lexer.RightBracket {
		elems = append(elems, p.parseConstant())
		if p.tok.Type != lexer.Comma {
			break
		}
		p.next()
	}
	p.expect(lexer.RightBracket)
	return elems
}

func (p *parser) parseStruct() ast.Expression {
	defer p.trace("parseStruct")()
	p.expect(lexer.LeftBrace)
	fields := make(map[ast.Identifier]ast.Term)
	for p.tok.Type != lexer.RightBrace {
		label := p.expect(lexer.Ident)
		if _, ok := fields[label.Data]; ok {
			p.errorf("duplicate field %s", label.Data)
		}
		p.expect(lexer.Equals)
		fields[label.Data] = p.parseConstant()
		if p.tok.Type != lexer.Comma {
			break
		}
		p.next()
	}
	p.expect(lexer.RightBrace)
	return ast.Const(ast.StructTerm{Fields: fields})
}

// parseNumber classifies a numeric literal: a sign makes it an integer, a
// decimal point or exponent makes it a float, otherwise it is a natural.
func parseNumber(data string) (ast.Term, error) {
	digits := strings.ReplaceAll(data, "_", "")
	unsigned := strings.TrimLeft(digits, "+-")
	signed := len(unsigned) != len(digits)
	base := 10
	if len(unsigned) > 1 && unsigned[0] == '0' && strings.ContainsRune("xob", rune(unsigned[1])) {
		base = 0
	}
	switch {
	case base == 10 && strings.ContainsAny(unsigned, ".eE"):
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %s", data)
		}
		return ast.FloatTerm(f), nil
	case signed:
		i, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %s", data)
		}
		return ast.IntTerm(i), nil
	default:
		n, err := strconv.ParseUint(unsigned, base, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid natural %s", data)
		}
		return ast.NatTerm(n), nil
	}
}

func (c Config) parse(src string, f func(p *parser)) error {
	p := newParser(strings.NewReader(src), c)
	ok := p.guard(func() {
		f(p)
		p.expectEnd()
	})
	return p.finish(ok)
}

func (c Config) ParseExpr(src string) (x ast.Expression, err error) {
	err = c.parse(src, func(p *parser) { x = p.parseExpr() })
	return x, err
}

func (c Config) ParseType(src string) (t ast.Type, err error) {
	err = c.parse(src, func(p *parser) { t = p.parseType() })
	return t, err
}

func (c Config) ParseTerm(src string) (term ast.Term, err error) {
	err = c.parse(src, func(p *parser) { term = p.parseConstant() })
	return term, err
}

// ParseJudgement parses "expr" or "expr :: type". The type is nil when absent.
func (c Config) ParseJudgement(src string) (x ast.Expression, t ast.Type, err error) {
	err = c.parse(src, func(p *parser) {
		x = p.parseExpr()
		if p.tok.Type == lexer.DoubleColon {
			p.next()
			t = p.parseType()
		}
	})
	return x, t, err
}

// ParseLet parses "name = expr".
func (c Config) ParseLet(src string) (id ast.Identifier, x ast.Expression, err error) {
	err = c.parse(src, func(p *parser) {
		id = p.expect(lexer.Ident).Data
		p.expect(lexer.Equals)
		x = p.parseExpr()
	})
	return id, x, err
}

// ParseImpl parses "name : from -> to = expr".
func (c Config) ParseImpl(src string) (sig ast.Signature, x ast.Expression, err error) {
	err = c.parse(src, func(p *parser) {
		sig = p.parseSignature()
		p.expect(lexer.Equals)
		x = p.parseExpr()
	})
	return sig, x, err
}

// ParseFile parses every top-level expression of a source file. Errors in one
// expression do not stop the others from being parsed.
func (c Config) ParseFile(fsys fs.FS, filename string) ([]ast.Expression, error) {
	f, err := lexer.Open(fsys, filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.ParseReader(filename, f)
}

// ParseReader is ParseFile over an already opened source.
func (c Config) ParseReader(name string, r io.Reader) ([]ast.Expression, error) {
	p := newParser(r, c)
	p.file = name
	defer p.trace("parseFile")()
	var exprs []ast.Expression
	for {
		p.skipTerminators()
		if p.tok.Type == lexer.EOF {
			break
		}
		ok := p.guard(func() {
			x := p.parseExpr()
			if !p.isTerminator() {
				p.errorf("unexpected %s after expression", describe(p.tok))
			}
			exprs = append(exprs, x)
		})
		if !ok {
			p.sync()
		}
	}
	return exprs, p.finish(true)
}

func ParseExpr(src string) (ast.Expression, error) { return Config{}.ParseExpr(src) }
func ParseType(src string) (ast.Type, error)       { return Config{}.ParseType(src) }
func ParseTerm(src string) (ast.Term, error)       { return Config{}.ParseTerm(src) }

func ParseJudgement(src string) (ast.Expression, ast.Type, error) {
	return Config{}.ParseJudgement(src)
}

func ParseLet(src string) (ast.Identifier, ast.Expression, error) {
	return Config{}.ParseLet(src)
}

func ParseImpl(src string) (ast.Signature, ast.Expression, error) {
	return Config{}.ParseImpl(src)
}

func ParseFile(fsys fs.FS, filename string) ([]ast.Expression, error) {
	return Config{}.ParseFile(fsys, filename)
}
