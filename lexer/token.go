package lexer

import "fmt"

type TokenType int

const (
	EOF TokenType = iota
	LineTerminator

	Equals
	Colon
	Comma
	Period
	Semicolon
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	HashBracket
	DoubleColon
	RightArrow

	Lambda
	If
	Then
	Else
	True
	False

	Ident
	Number
	String
	Whitespace
	SingleLineComment
	Illegal
)

var tokenNames = [...]string{
	EOF:               "EOF",
	LineTerminator:    "LineTerminator",
	Equals:            "Equals",
	Colon:             "Colon",
	Comma:             "Comma",
	Period:            "Period",
	Semicolon:         "Semicolon",
	LeftParen:         "LeftParen",
	RightParen:        "RightParen",
	LeftBrace:         "LeftBrace",
	RightBrace:        "RightBrace",
	LeftBracket:       "LeftBracket",
	RightBracket:      "RightBracket",
	HashBracket:       "HashBracket",
	DoubleColon:       "DoubleColon",
	RightArrow:        "RightArrow",
	Lambda:            "Lambda",
	If:                "If",
	Then:              "Then",
	Else:              "Else",
	True:              "True",
	False:             "False",
	Ident:             "Ident",
	Number:            "Number",
	String:            "String",
	Whitespace:        "Whitespace",
	SingleLineComment: "SingleLineComment",
	Illegal:           "Illegal",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenNames) {
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
	return tokenNames[t]
}

var SingleCharTokens = map[rune]TokenType{
	'=':  Equals,
	':':  Colon,
	',':  Comma,
	'.':  Period,
	';':  Semicolon,
	'(':  LeftParen,
	')':  RightParen,
	'{':  LeftBrace,
	'}':  RightBrace,
	'[':  LeftBracket,
	']':  RightBracket,
	'\\': Lambda,
	'λ':  Lambda,
	eof:  EOF,
}

var DoubleCharTokens = map[[2]rune]TokenType{
	{'-', '>'}: RightArrow,
	{':', ':'}: DoubleColon,
	{'#', '['}: HashBracket,
}

var Keywords = map[string]TokenType{
	"lambda": Lambda,
	"if":     If,
	"then":   Then,
	"else":   Else,
	"true":   True,
	"false":  False,
}

type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) Min(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset < other.Offset {
		return p
	}
	return other
}

func (p Pos) Max(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset > other.Offset {
		return p
	}
	return other
}

type Span struct {
	Start Pos
	End   Pos
}

// Add returns the smallest span covering both spans.
func (s Span) Add(other Span) Span {
	return Span{s.Start.Min(other.Start), s.End.Max(other.End)}
}

func (s Span) String() string {
	if s.Start == s.End {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%d:%d-%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

type Token struct {
	LeadingTrivia []Token
	Type          TokenType
	Span          Span
	Data          string
}

func (t Token) String() string {
	if t.Data == "" {
		return fmt.Sprintf("%s:%s", t.Span, t.Type)
	}
	return fmt.Sprintf("%s:%s %q", t.Span, t.Type, t.Data)
}

// BeginsAtom reports whether t can start an operand of an application.
func (t Token) BeginsAtom() bool {
	switch t.Type {
	case LeftParen, LeftBracket, HashBracket, LeftBrace, Ident, Number, String, True, False:
		return true
	}
	return false
}

// BeginsExpr reports whether t can start an expression.
func (t Token) BeginsExpr() bool {
	return t.BeginsAtom() || t.Type == Lambda || t.Type == If
}

func (a Token) OnDifferentLines(b Token) bool {
	return a.Span.End.Line != b.Span.Start.Line
}

func (t Token) IsBeforeTerminator() bool {
	switch t.Type {
	case RightParen, RightBrace, RightBracket, Ident, Number, String, True, False:
		return true
	}
	return false
}

func (t Token) IsAfterTerminator() bool {
	return t.BeginsExpr()
}
