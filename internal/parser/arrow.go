package parser

import (
	"memoc/internal/ast"
	"memoc/internal/source"
	"memoc/internal/token"
)

// parenStartsArrow decides whether a `(` begins an arrow-function parameter
// list by skimming to the matching `)` and checking for `=>`.
func (p *Parser) parenStartsArrow() bool {
	saved := p.lx.Save()
	savedSpan := p.lastSpan
	defer func() {
		p.lx.Restore(saved)
		p.lastSpan = savedSpan
	}()

	if p.lx.Next().Kind != token.LParen {
		return false
	}
	depth := 1
	for depth > 0 {
		tok := p.lx.Next()
		switch tok.Kind {
		case token.LParen, token.LBrace, token.LBracket:
			depth++
		case token.RParen, token.RBrace, token.RBracket:
			depth--
		case token.EOF:
			return false
		}
	}
	return p.lx.Peek().Kind == token.Arrow
}

// parseParenArrow parses `(params) => body` once parenStartsArrow confirmed
// the shape.
func (p *Parser) parseParenArrow() ast.Expr {
	start := p.peek().Span
	params := p.parseParams()
	return p.parseArrowBody(params, start)
}

func (p *Parser) parseArrowBody(params []ast.Param, start source.Span) ast.Expr {
	p.expect(token.Arrow)
	fn := &ast.Function{Params: params, Arrow: true}
	if p.at(token.LBrace) {
		fn.Body = p.parseBlock().Stmts
	} else {
		fn.ExprBody = p.parseAssignExpr()
	}
	fn.Sp = start.Cover(p.lastSpan)
	return &ast.FunctionExpr{Fn: fn}
}
