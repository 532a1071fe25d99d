// Package parser turns a token stream into an ast.Program. It is a
// recursive-descent parser with precedence-climbing expressions, covering the
// JavaScript subset the compiler lowers.
package parser

import (
	"fmt"

	"memoc/internal/ast"
	"memoc/internal/diag"
	"memoc/internal/lexer"
	"memoc/internal/source"
	"memoc/internal/token"
)

// Options configures a Parser.
type Options struct {
	MaxErrors uint
	Reporter  diag.Reporter
}

// Result carries the parsed program and the diagnostics bag when the
// reporter is a BagReporter.
type Result struct {
	Program *ast.Program
	Bag     *diag.Bag
}

// Parser holds per-file parsing state.
type Parser struct {
	lx       *lexer.Lexer
	opts     Options
	errors   uint
	lastSpan source.Span
}

// ParseFile parses one file into a Program.
func ParseFile(lx *lexer.Lexer, opts Options) Result {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	p := Parser{
		lx:       lx,
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}

	prog := p.parseProgram()

	var bag *diag.Bag
	if br, ok := opts.Reporter.(diag.BagReporter); ok {
		bag = br.Bag
	}
	return Result{Program: prog, Bag: bag}
}

func (p *Parser) parseProgram() *ast.Program {
	start := p.lx.EmptySpan()
	var stmts []ast.Stmt
	for !p.at(token.EOF) {
		if p.enough() {
			break
		}
		before := p.peek()
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		// Guarantee progress on malformed input.
		if p.peek() == before && p.peek().Kind != token.EOF && stmt == nil {
			p.next()
		}
	}
	return &ast.Program{Stmts: stmts, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) peek() token.Token {
	return p.lx.Peek()
}

func (p *Parser) next() token.Token {
	t := p.lx.Next()
	p.lastSpan = t.Span
	return t
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.at(k) {
		return p.next()
	}
	got := p.peek()
	p.errorAt(diag.SynUnexpectedToken, got.Span,
		fmt.Sprintf("expected %s, found %s", k, got.Kind))
	return token.Token{Kind: k, Span: got.Span}
}

func (p *Parser) errorAt(code diag.Code, sp source.Span, msg string) {
	p.errors++
	diag.ReportError(p.opts.Reporter, code, sp, msg)
}

func (p *Parser) enough() bool {
	return p.opts.MaxErrors != 0 && p.errors >= p.opts.MaxErrors
}

// eatSemicolon consumes an optional statement terminator.
func (p *Parser) eatSemicolon() {
	p.eat(token.Semicolon)
}
