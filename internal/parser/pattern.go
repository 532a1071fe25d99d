package parser

import (
	"fmt"

	"memoc/internal/ast"
	"memoc/internal/diag"
	"memoc/internal/token"
)

// parsePattern parses a binding target: identifier, array pattern or object
// pattern.
func (p *Parser) parsePattern() ast.Pattern {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		p.next()
		return &ast.IdentPat{Name: tok.Text, Sp: tok.Span}
	case token.LBracket:
		return p.parseArrayPattern()
	case token.LBrace:
		return p.parseObjectPattern()
	default:
		p.errorAt(diag.SynExpectIdentifier, tok.Span,
			fmt.Sprintf("expected binding pattern, found %s", tok.Kind))
		p.next()
		return &ast.IdentPat{Name: "_", Sp: tok.Span}
	}
}

func (p *Parser) parseArrayPattern() ast.Pattern {
	start := p.expect(token.LBracket).Span
	var elems []ast.ArrayPatElem
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		if p.eat(token.Comma) {
			elems = append(elems, ast.ArrayPatElem{}) // hole
			continue
		}
		if p.eat(token.DotDotDot) {
			elems = append(elems, ast.ArrayPatElem{Target: p.parsePattern(), Rest: true})
		} else {
			target := p.parsePattern()
			var def ast.Expr
			if p.eat(token.Assign) {
				def = p.parseAssignExpr()
			}
			elems = append(elems, ast.ArrayPatElem{Target: target, Default: def})
		}
		if !p.at(token.RBracket) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RBracket)
	return &ast.ArrayPat{Elems: elems, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) parseObjectPattern() ast.Pattern {
	start := p.expect(token.LBrace).Span
	pat := &ast.ObjectPat{}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.eat(token.DotDotDot) {
			restTok := p.expect(token.Ident)
			pat.Rest = &ast.IdentPat{Name: restTok.Text, Sp: restTok.Span}
		} else {
			key := p.expectPropertyName()
			var target ast.Pattern
			if p.eat(token.Colon) {
				target = p.parsePattern()
			} else {
				target = &ast.IdentPat{Name: key, Sp: p.lastSpan}
			}
			var def ast.Expr
			if p.eat(token.Assign) {
				def = p.parseAssignExpr()
			}
			pat.Props = append(pat.Props, ast.ObjectPatProp{Key: key, Target: target, Default: def})
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace)
	pat.Sp = start.Cover(p.lastSpan)
	return pat
}

// exprToPattern reinterprets an array/object literal as a destructuring
// pattern, for assignment expressions like `[a, b] = pair`.
func (p *Parser) exprToPattern(expr ast.Expr) (ast.Pattern, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		return &ast.IdentPat{Name: e.Name, Sp: e.Sp}, true
	case *ast.ArrayLit:
		pat := &ast.ArrayPat{Sp: e.Sp}
		for _, elem := range e.Elems {
			if elem.Value == nil {
				pat.Elems = append(pat.Elems, ast.ArrayPatElem{})
				continue
			}
			if elem.Spread {
				target, ok := p.exprToPattern(elem.Value)
				if !ok {
					return nil, false
				}
				pat.Elems = append(pat.Elems, ast.ArrayPatElem{Target: target, Rest: true})
				continue
			}
			value := elem.Value
			var def ast.Expr
			if assign, ok := value.(*ast.Assign); ok && assign.Op == token.Assign {
				value = assign.Target
				def = assign.Value
			}
			target, ok := p.exprToPattern(value)
			if !ok {
				return nil, false
			}
			pat.Elems = append(pat.Elems, ast.ArrayPatElem{Target: target, Default: def})
		}
		return pat, true
	case *ast.ObjectLit:
		pat := &ast.ObjectPat{Sp: e.Sp}
		for _, prop := range e.Props {
			if prop.Spread {
				id, ok := prop.Value.(*ast.Ident)
				if !ok {
					return nil, false
				}
				pat.Rest = &ast.IdentPat{Name: id.Name, Sp: id.Sp}
				continue
			}
			if prop.Key.Computed != nil {
				return nil, false
			}
			value := prop.Value
			var def ast.Expr
			if assign, ok := value.(*ast.Assign); ok && assign.Op == token.Assign {
				value = assign.Target
				def = assign.Value
			}
			target, ok := p.exprToPattern(value)
			if !ok {
				return nil, false
			}
			pat.Props = append(pat.Props, ast.ObjectPatProp{Key: prop.Key.Name, Target: target, Default: def})
		}
		return pat, true
	default:
		return nil, false
	}
}
