package parser

import (
	"fmt"
	"strconv"
	"strings"

	"memoc/internal/ast"
	"memoc/internal/diag"
	"memoc/internal/token"
)

// Binary operator precedence, higher binds tighter. Zero means "not a binary
// operator". Logical operators are included so one climbing loop serves all.
func binaryPrec(k token.Kind) int {
	switch k {
	case token.QuestionQuestion:
		return 1
	case token.OrOr:
		return 2
	case token.AndAnd:
		return 3
	case token.Pipe:
		return 4
	case token.Caret:
		return 5
	case token.Amp:
		return 6
	case token.EqEq, token.BangEq, token.EqEqEq, token.BangEqEq:
		return 7
	case token.Lt, token.LtEq, token.Gt, token.GtEq, token.KwIn, token.KwInstanceof:
		return 8
	case token.Shl, token.Shr, token.UShr:
		return 9
	case token.Plus, token.Minus:
		return 10
	case token.Star, token.Slash, token.Percent:
		return 11
	default:
		return 0
	}
}

func isLogical(k token.Kind) bool {
	return k == token.AndAnd || k == token.OrOr || k == token.QuestionQuestion
}

// parseExpression parses a full expression including the comma operator.
func (p *Parser) parseExpression() ast.Expr {
	first := p.parseAssignExpr()
	if !p.at(token.Comma) {
		return first
	}
	exprs := []ast.Expr{first}
	for p.eat(token.Comma) {
		exprs = append(exprs, p.parseAssignExpr())
	}
	return &ast.Sequence{Exprs: exprs, Sp: first.Span().Cover(p.lastSpan)}
}

// continueExpression resumes expression parsing after the statement parser
// already consumed an identifier primary.
func (p *Parser) continueExpression(left ast.Expr) ast.Expr {
	if id, ok := left.(*ast.Ident); ok && p.at(token.Arrow) {
		return p.parseArrowBody([]ast.Param{{Target: &ast.IdentPat{Name: id.Name, Sp: id.Sp}}}, id.Sp)
	}
	expr := p.parseCallMemberFrom(left)
	expr = p.parsePostfixFrom(expr)
	expr = p.parseBinaryFrom(expr, 1)
	expr = p.parseConditionalFrom(expr)
	expr = p.parseAssignFrom(expr)
	if !p.at(token.Comma) {
		return expr
	}
	exprs := []ast.Expr{expr}
	for p.eat(token.Comma) {
		exprs = append(exprs, p.parseAssignExpr())
	}
	return &ast.Sequence{Exprs: exprs, Sp: expr.Span().Cover(p.lastSpan)}
}

// parseAssignExpr parses an assignment-level expression (no comma operator).
func (p *Parser) parseAssignExpr() ast.Expr {
	if p.at(token.LParen) && p.parenStartsArrow() {
		return p.parseParenArrow()
	}
	cond := p.parseConditional()
	return p.parseAssignFrom(cond)
}

func (p *Parser) parseAssignFrom(target ast.Expr) ast.Expr {
	op := p.peek()
	if !op.IsAssignOp() {
		return target
	}
	p.next()
	value := p.parseAssignExpr()

	// Plain `=` with a literal on the left is destructuring.
	if op.Kind == token.Assign {
		switch target.(type) {
		case *ast.ArrayLit, *ast.ObjectLit:
			if pat, ok := p.exprToPattern(target); ok {
				target = &ast.PatternExpr{Pat: pat}
			}
		}
	}

	switch target.(type) {
	case *ast.Ident, *ast.Member, *ast.Index, *ast.PatternExpr:
	default:
		p.errorAt(diag.SynBadAssignTarget, target.Span(), "invalid assignment target")
	}
	return &ast.Assign{Op: op.Kind, Target: target, Value: value, Sp: target.Span().Cover(p.lastSpan)}
}

func (p *Parser) parseConditional() ast.Expr {
	return p.parseConditionalFrom(p.parseBinary(1))
}

func (p *Parser) parseConditionalFrom(test ast.Expr) ast.Expr {
	if !p.eat(token.Question) {
		return test
	}
	cons := p.parseAssignExpr()
	p.expect(token.Colon)
	alt := p.parseAssignExpr()
	return &ast.Conditional{Test: test, Cons: cons, Alt: alt, Sp: test.Span().Cover(p.lastSpan)}
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	return p.parseBinaryFrom(p.parseUnary(), minPrec)
}

func (p *Parser) parseBinaryFrom(left ast.Expr, minPrec int) ast.Expr {
	for {
		op := p.peek().Kind
		prec := binaryPrec(op)
		if prec < minPrec || prec == 0 {
			return left
		}
		p.next()
		right := p.parseBinary(prec + 1)
		sp := left.Span().Cover(right.Span())
		if isLogical(op) {
			left = &ast.Logical{Op: op, L: left, R: right, Sp: sp}
		} else {
			left = &ast.Binary{Op: op, L: left, R: right, Sp: sp}
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Bang, token.Tilde, token.Plus, token.Minus,
		token.KwTypeof, token.KwVoid, token.KwDelete:
		p.next()
		operand := p.parseUnary()
		return &ast.Unary{Op: tok.Kind, Operand: operand, Sp: tok.Span.Cover(operand.Span())}
	case token.PlusPlus, token.MinusMinus:
		p.next()
		target := p.parseUnary()
		return &ast.Update{Op: tok.Kind, Prefix: true, Target: target, Sp: tok.Span.Cover(target.Span())}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parseCallMember()
	return p.parsePostfixFrom(expr)
}

func (p *Parser) parsePostfixFrom(expr ast.Expr) ast.Expr {
	if tok := p.peek(); tok.Kind == token.PlusPlus || tok.Kind == token.MinusMinus {
		p.next()
		return &ast.Update{Op: tok.Kind, Prefix: false, Target: expr, Sp: expr.Span().Cover(tok.Span)}
	}
	return expr
}

func (p *Parser) parseCallMember() ast.Expr {
	if p.at(token.KwNew) {
		return p.parseNew()
	}
	return p.parseCallMemberFrom(p.parsePrimary())
}

func (p *Parser) parseCallMemberFrom(expr ast.Expr) ast.Expr {
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.Dot:
			p.next()
			name := p.expectPropertyName()
			expr = &ast.Member{Object: expr, Property: name, Sp: expr.Span().Cover(p.lastSpan)}
		case token.QuestionDot:
			p.next()
			switch {
			case p.at(token.LParen):
				args := p.parseArgs()
				expr = &ast.Call{Callee: expr, Args: args, Optional: true, Sp: expr.Span().Cover(p.lastSpan)}
			case p.at(token.LBracket):
				p.next()
				prop := p.parseExpression()
				p.expect(token.RBracket)
				expr = &ast.Index{Object: expr, Prop: prop, Optional: true, Sp: expr.Span().Cover(p.lastSpan)}
			default:
				name := p.expectPropertyName()
				expr = &ast.Member{Object: expr, Property: name, Optional: true, Sp: expr.Span().Cover(p.lastSpan)}
			}
		case token.LBracket:
			p.next()
			prop := p.parseExpression()
			p.expect(token.RBracket)
			expr = &ast.Index{Object: expr, Prop: prop, Sp: expr.Span().Cover(p.lastSpan)}
		case token.LParen:
			args := p.parseArgs()
			expr = &ast.Call{Callee: expr, Args: args, Sp: expr.Span().Cover(p.lastSpan)}
		case token.NoSubTemplate, token.TemplateHead:
			quasi := p.parseTemplate()
			expr = &ast.TaggedTemplate{Tag: expr, Quasi: quasi, Sp: expr.Span().Cover(p.lastSpan)}
		default:
			return expr
		}
	}
}

// expectPropertyName accepts identifiers and keywords after a dot.
func (p *Parser) expectPropertyName() string {
	tok := p.peek()
	if tok.Kind == token.Ident || tok.Kind >= token.KwVar {
		p.next()
		return tok.Text
	}
	p.errorAt(diag.SynExpectIdentifier, tok.Span,
		fmt.Sprintf("expected property name, found %s", tok.Kind))
	return ""
}

func (p *Parser) parseNew() ast.Expr {
	start := p.expect(token.KwNew).Span
	// The callee is a member chain without calls; arguments bind to new.
	callee := p.parsePrimary()
	for {
		tok := p.peek()
		if tok.Kind == token.Dot {
			p.next()
			name := p.expectPropertyName()
			callee = &ast.Member{Object: callee, Property: name, Sp: callee.Span().Cover(p.lastSpan)}
			continue
		}
		if tok.Kind == token.LBracket {
			p.next()
			prop := p.parseExpression()
			p.expect(token.RBracket)
			callee = &ast.Index{Object: callee, Prop: prop, Sp: callee.Span().Cover(p.lastSpan)}
			continue
		}
		break
	}
	var args []ast.Arg
	if p.at(token.LParen) {
		args = p.parseArgs()
	}
	newExpr := &ast.New{Callee: callee, Args: args, Sp: start.Cover(p.lastSpan)}
	return p.parseCallMemberFrom(newExpr)
}

func (p *Parser) parseArgs() []ast.Arg {
	p.expect(token.LParen)
	var args []ast.Arg
	for !p.at(token.RParen) && !p.at(token.EOF) {
		spread := p.eat(token.DotDotDot)
		args = append(args, ast.Arg{Value: p.parseAssignExpr(), Spread: spread})
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		p.next()
		if p.at(token.Arrow) {
			return p.parseArrowBody([]ast.Param{{Target: &ast.IdentPat{Name: tok.Text, Sp: tok.Span}}}, tok.Span)
		}
		return &ast.Ident{Name: tok.Text, Sp: tok.Span}
	case token.IntLit:
		p.next()
		return p.intLit(tok)
	case token.FloatLit:
		p.next()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.errorAt(diag.SynUnexpectedToken, tok.Span, "malformed number literal")
		}
		return &ast.NumberLit{Float: v, Raw: tok.Text, Sp: tok.Span}
	case token.StringLit:
		p.next()
		return &ast.StringLit{Value: tok.Cooked, Raw: tok.Text, Sp: tok.Span}
	case token.KwTrue:
		p.next()
		return &ast.BoolLit{Value: true, Sp: tok.Span}
	case token.KwFalse:
		p.next()
		return &ast.BoolLit{Value: false, Sp: tok.Span}
	case token.KwNull:
		p.next()
		return &ast.NullLit{Sp: tok.Span}
	case token.KwUndefined:
		p.next()
		return &ast.UndefinedLit{Sp: tok.Span}
	case token.KwThis:
		p.next()
		return &ast.ThisExpr{Sp: tok.Span}
	case token.NoSubTemplate, token.TemplateHead:
		return p.parseTemplate()
	case token.LBracket:
		return p.parseArrayLit()
	case token.LBrace:
		return p.parseObjectLit()
	case token.KwFunction:
		fn := p.parseFunction(true)
		return &ast.FunctionExpr{Fn: fn}
	case token.LParen:
		p.next()
		expr := p.parseExpression()
		p.expect(token.RParen)
		return expr
	default:
		p.errorAt(diag.SynUnexpectedToken, tok.Span,
			fmt.Sprintf("unexpected token %s in expression", tok.Kind))
		p.next()
		return &ast.UndefinedLit{Sp: tok.Span}
	}
}

func (p *Parser) intLit(tok token.Token) ast.Expr {
	text := tok.Text
	base := 10
	switch {
	case strings.HasPrefix(text, "0x"), strings.HasPrefix(text, "0X"):
		text, base = text[2:], 16
	case strings.HasPrefix(text, "0o"), strings.HasPrefix(text, "0O"):
		text, base = text[2:], 8
	case strings.HasPrefix(text, "0b"), strings.HasPrefix(text, "0B"):
		text, base = text[2:], 2
	}
	v, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		// Out-of-range integers fall back to the float form.
		f, ferr := strconv.ParseFloat(tok.Text, 64)
		if ferr != nil {
			p.errorAt(diag.SynUnexpectedToken, tok.Span, "malformed number literal")
		}
		return &ast.NumberLit{Float: f, Raw: tok.Text, Sp: tok.Span}
	}
	return &ast.NumberLit{IsInt: true, Int: v, Float: float64(v), Raw: tok.Text, Sp: tok.Span}
}

// parseTemplate parses a template literal, driving the lexer's rescan of
// closing braces.
func (p *Parser) parseTemplate() *ast.TemplateLit {
	tok := p.next()
	lit := &ast.TemplateLit{Sp: tok.Span}
	if tok.Kind == token.NoSubTemplate {
		lit.Quasis = []ast.Quasi{{Cooked: tok.Cooked, Raw: tok.Text}}
		return lit
	}

	lit.Quasis = append(lit.Quasis, ast.Quasi{Cooked: tok.Cooked, Raw: tok.Text})
	for {
		lit.Exprs = append(lit.Exprs, p.parseExpression())
		p.expect(token.RBrace)
		part := p.lx.ScanTemplateContinue()
		p.lastSpan = part.Span
		lit.Quasis = append(lit.Quasis, ast.Quasi{Cooked: part.Cooked, Raw: part.Text})
		if part.Kind != token.TemplateMiddle {
			break
		}
	}
	lit.Sp = tok.Span.Cover(p.lastSpan)
	return lit
}

func (p *Parser) parseArrayLit() ast.Expr {
	start := p.expect(token.LBracket).Span
	var elems []ast.ArrayElem
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		if p.eat(token.Comma) {
			elems = append(elems, ast.ArrayElem{}) // hole
			continue
		}
		spread := p.eat(token.DotDotDot)
		elems = append(elems, ast.ArrayElem{Value: p.parseAssignExpr(), Spread: spread})
		if !p.at(token.RBracket) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RBracket)
	return &ast.ArrayLit{Elems: elems, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) parseObjectLit() ast.Expr {
	start := p.expect(token.LBrace).Span
	var props []ast.ObjectProp
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.eat(token.DotDotDot) {
			props = append(props, ast.ObjectProp{Value: p.parseAssignExpr(), Spread: true})
		} else {
			props = append(props, p.parseObjectProp())
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace)
	return &ast.ObjectLit{Props: props, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) parseObjectProp() ast.ObjectProp {
	tok := p.peek()
	switch {
	case tok.Kind == token.LBracket:
		p.next()
		key := p.parseAssignExpr()
		p.expect(token.RBracket)
		p.expect(token.Colon)
		return ast.ObjectProp{Key: ast.PropKey{Computed: key}, Value: p.parseAssignExpr()}
	case tok.Kind == token.StringLit:
		p.next()
		p.expect(token.Colon)
		return ast.ObjectProp{Key: ast.PropKey{Name: tok.Cooked}, Value: p.parseAssignExpr()}
	case tok.Kind == token.IntLit || tok.Kind == token.FloatLit:
		p.next()
		p.expect(token.Colon)
		return ast.ObjectProp{Key: ast.PropKey{Name: tok.Text}, Value: p.parseAssignExpr()}
	default:
		name := p.expectPropertyName()
		if p.eat(token.Colon) {
			return ast.ObjectProp{Key: ast.PropKey{Name: name}, Value: p.parseAssignExpr()}
		}
		// Shorthand `{ a }`.
		return ast.ObjectProp{
			Key:   ast.PropKey{Name: name},
			Value: &ast.Ident{Name: name, Sp: p.lastSpan},
		}
	}
}
