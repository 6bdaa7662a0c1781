package parser

import (
	"strconv"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/lexer"
)

func (p *parser) parseType() ast.Type {
	defer p.trace("parseType")()
	t := p.parseTypeAtom()
	if p.tok.Type == lexer.RightArrow {
		p.next()
		return ast.Function{From: t, To: p.parseType()}
	}
	return t
}

func (p *parser) parseTypeAtom() ast.Type {
	defer p.trace("parseTypeAtom")()
	switch tok := p.tok; tok.Type {
	case lexer.LeftParen:
		return p.parseTupleType()
	case lexer.Ident:
		if base, ok := ast.BaseMap[tok.Data]; ok {
			p.next()
			return base
		}
		p.next()
		switch tok.Data {
		case "self":
			return ast.Oneself{}
		case "list":
			p.expect(lexer.LeftBracket)
			elem := p.parseType()
			p.expect(lexer.RightBracket)
			return ast.List{Elem: elem}
		case "slice":
			p.expect(lexer.LeftBracket)
			elem := p.parseType()
			p.expect(lexer.RightBracket)
			return ast.Slice{Elem: elem}
		case "array":
			p.expect(lexer.LeftBracket)
			elem := p.parseType()
			p.expect(lexer.Semicolon)
			n := p.tok
			p.expect(lexer.Number)
			length, err := strconv.ParseUint(n.Data, 10, 64)
			if err != nil {
				p.tok = n
				p.errorf("invalid array length %s", n.Data)
			}
			p.expect(lexer.RightBracket)
			return ast.Array{Elem: elem, Length: length}
		case "union":
			p.expect(lexer.LeftBrace)
			members := p.parseTypeSet(lexer.RightBrace)
			return ast.Union{Members: members}
		case "struct":
			return p.parseStructType()
		case "interface":
			return p.parseInterface()
		case "generic":
			if p.tok.Type != lexer.LeftBrace {
				return ast.Generic{}
			}
			p.next()
			return ast.NewGeneric(p.parseTypeSet(lexer.RightBrace)...)
		}
		p.tok = tok
		p.errorf("unknown type %s", tok.Data)
	}
	p.errorf("expected type, found %s", describe(p.tok))
	panic("unreachable")
}

// parseTypeSet parses comma-separated types up to close, rejecting duplicates.
func (p *parser) parseTypeSet(close lexer.TokenType) []ast.Type {
	var ts []ast.Type
	seen := make(map[string]bool)
	for p.tok.Type != close {
		start := p.tok
		t := p.parseType()
		if seen[t.Hash()] {
			p.tok = start
			p.errorf("duplicate member %s", t)
		}
		seen[t.Hash()] = true
		ts = append(ts, t)
		if p.tok.Type != lexer.Comma {
			break
		}
		p.next()
	}
	p.expect(close)
	return ts
}

func (p *parser) parseStructType() ast.Type {
	defer p.trace("parseStructType")()
	p.expect(lexer.LeftBrace)
	fields := make(map[ast.Identifier]ast.Type)
	for p.tok.Type != lexer.RightBrace {
		label := p.tok
		p.expect(lexer.Ident)
		if _, ok := fields[label.Data]; ok {
			p.tok = label
			p.errorf("duplicate field %s", label.Data)
		}
		p.expect(lexer.Colon)
		fields[label.Data] = p.parseType()
		if p.tok.Type != lexer.Comma {
			break
		}
		p.next()
	}
	p.expect(lexer.RightBrace)
	return ast.Struct{Fields: fields}
}

// parseTupleType parses (T), or a tuple type when there is a comma or a label.
func (p *parser) parseTupleType() ast.Type {
	defer p.trace("parseTupleType")()
	p.expect(lexer.LeftParen)
	var fields []ast.Field
	labeled := false
	for p.tok.Type != lexer.RightParen {
		var f ast.Field
		if p.atLabel(lexer.Colon) {
			f.Label = p.tok.Data
			labeled = true
			p.next()
			p.next()
		}
		f.Type = p.parseType()
		fields = append(fields, f)
		if p.tok.Type != lexer.Comma {
			if len(fields) == 1 && !labeled {
				p.expect(lexer.RightParen)
				return f.Type
			}
			break
		}
		p.next()
	}
	p.expect(lexer.RightParen)
	if len(fields) == 0 {
		return ast.Unit
	}
	return ast.Tuple{Fields: fields}
}

func (p *parser) parseSignature() ast.Signature {
	defer p.trace("parseSignature")()
	name := p.expect(lexer.Ident)
	p.expect(lexer.Colon)
	start := p.tok
	fn, ok := p.parseType().(ast.Function)
	if !ok {
		p.tok = start
		p.errorf("signature %s must have a function type", name.Data)
	}
	return ast.Signature{Name: name.Data, From: fn.From, To: fn.To}
}

// parseInterface parses interface[Assoc]{name: A -> B; ...}.
func (p *parser) parseInterface() ast.Type {
	defer p.trace("parseInterface")()
	var iface ast.Interface
	if p.tok.Type == lexer.LeftBracket {
		p.next()
		iface.Assoc = p.parseType()
		p.expect(lexer.RightBracket)
	}
	p.expect(lexer.LeftBrace)
	for p.tok.Type != lexer.RightBrace {
		iface.Signatures = append(iface.Signatures, p.parseSignature())
		if p.tok.Type != lexer.Semicolon && p.tok.Type != lexer.Comma {
			break
		}
		p.next()
	}
	p.expect(lexer.RightBrace)
	return iface
}
