package reader

import (
	"fmt"

	"github.com/glyphlang/glyphc/internal/node"
)

// Parser turns a Lexer's token stream into a sequence of top-level
// node.Node forms (spec §6's file grammar: a sequence of `(module ...)`,
// `(import ...)`, `(def ...)`, etc. list forms).
type Parser struct {
	lex  *Lexer
	tok  Token
	errs []string
}

// NewParser constructs a Parser reading from src.
func NewParser(src string) *Parser {
	p := &Parser{lex: New(src)}
	p.next()
	return p
}

// Errors returns every lexical and structural error encountered, combining
// the underlying Lexer's errors with the Parser's own.
func (p *Parser) Errors() []string {
	return append(append([]string(nil), p.lex.Errors()...), p.errs...)
}

func (p *Parser) next() { p.tok = p.lex.NextToken() }

func (p *Parser) errorf(span node.Span, format string, args ...any) {
	p.errs = append(p.errs, fmt.Sprintf("%d:%d: %s", span.Start.Line, span.Start.Column, fmt.Sprintf(format, args...)))
}

// ParseTopLevel reads every top-level form until EOF. Forms that fail to
// parse are skipped past their closing paren (best-effort recovery) so a
// single malformed form does not stop the whole file from being read; each
// failure is recorded in Errors().
func (p *Parser) ParseTopLevel() []*node.Node {
	var forms []*node.Node
	for p.tok.Kind != TEOF {
		if p.tok.Kind != TLParen {
			p.errorf(p.tok.Span, "expected '(' to start a top-level form, got %s %q", p.tok.Kind, p.tok.Text)
			p.next()
			continue
		}
		n := p.parseForm()
		if n != nil {
			forms = append(forms, n)
		}
	}
	return forms
}

// parseForm parses one node: a list starting at '(' or a single token.
func (p *Parser) parseForm() *node.Node {
	switch p.tok.Kind {
	case TLParen:
		return p.parseList()
	case TSymbol:
		n := node.NewToken(node.TokenSymbol, p.tok.Text, p.tok.Span)
		p.next()
		return n
	case TString:
		n := node.NewToken(node.TokenString, p.tok.Text, p.tok.Span)
		p.next()
		return n
	case TInt:
		n := node.NewToken(node.TokenInt, p.tok.Text, p.tok.Span)
		p.next()
		return n
	case TFloat:
		n := node.NewToken(node.TokenFloat, p.tok.Text, p.tok.Span)
		p.next()
		return n
	case TChar:
		n := node.NewToken(node.TokenChar, p.tok.Text, p.tok.Span)
		p.next()
		return n
	case TRParen:
		p.errorf(p.tok.Span, "unexpected ')'")
		p.next()
		return nil
	default:
		p.errorf(p.tok.Span, "illegal token %q", p.tok.Text)
		p.next()
		return nil
	}
}

func (p *Parser) parseList() *node.Node {
	start := p.tok.Span.Start
	p.next() // consume '('
	var children []*node.Node
	for {
		if p.tok.Kind == TEOF {
			p.errorf(node.Span{Start: start, End: start}, "unterminated list: missing ')'")
			break
		}
		if p.tok.Kind == TRParen {
			break
		}
		if p.tok.Kind == TLParen {
			children = append(children, p.parseList())
			continue
		}
		child := p.parseForm()
		if child != nil {
			children = append(children, child)
		}
	}
	end := p.tok.Span.End
	if p.tok.Kind == TRParen {
		p.next() // consume ')'
	}
	return node.NewList(children, node.Span{Start: start, End: end})
}

// Parse is a convenience wrapper: lex and parse src in one call, returning
// the top-level forms and any errors encountered.
func Parse(src string) ([]*node.Node, []string) {
	p := NewParser(src)
	forms := p.ParseTopLevel()
	return forms, p.Errors()
}
