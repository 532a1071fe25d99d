package parser

import (
	"fmt"

	"memoc/internal/ast"
	"memoc/internal/diag"
	"memoc/internal/source"
	"memoc/internal/token"
)

func (p *Parser) parseStatement() ast.Stmt {
	tok := p.peek()
	switch tok.Kind {
	case token.KwFunction:
		return p.parseFunctionDecl()
	case token.KwVar, token.KwLet, token.KwConst:
		decl := p.parseVarDecl()
		p.eatSemicolon()
		return decl
	case token.LBrace:
		return p.parseBlock()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDoWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwSwitch:
		return p.parseSwitch()
	case token.KwBreak:
		p.next()
		label := ""
		if p.at(token.Ident) {
			label = p.next().Text
		}
		p.eatSemicolon()
		return &ast.BreakStmt{Label: label, Sp: tok.Span.Cover(p.lastSpan)}
	case token.KwContinue:
		p.next()
		label := ""
		if p.at(token.Ident) {
			label = p.next().Text
		}
		p.eatSemicolon()
		return &ast.ContinueStmt{Label: label, Sp: tok.Span.Cover(p.lastSpan)}
	case token.KwReturn:
		p.next()
		var value ast.Expr
		if !p.at(token.Semicolon) && !p.at(token.RBrace) && !p.at(token.EOF) {
			value = p.parseExpression()
		}
		p.eatSemicolon()
		return &ast.ReturnStmt{Value: value, Sp: tok.Span.Cover(p.lastSpan)}
	case token.KwThrow:
		p.next()
		value := p.parseExpression()
		p.eatSemicolon()
		return &ast.ThrowStmt{Value: value, Sp: tok.Span.Cover(p.lastSpan)}
	case token.KwTry:
		return p.parseTry()
	case token.Semicolon:
		p.next()
		return &ast.EmptyStmt{Sp: tok.Span}
	case token.Ident:
		// A label is `ident :` followed by a statement.
		name := p.next()
		if p.eat(token.Colon) {
			body := p.parseStatement()
			return &ast.LabeledStmt{Label: name.Text, Stmt: body, Sp: name.Span.Cover(p.lastSpan)}
		}
		expr := p.continueExpression(&ast.Ident{Name: name.Text, Sp: name.Span})
		p.eatSemicolon()
		return &ast.ExprStmt{X: expr}
	default:
		expr := p.parseExpression()
		p.eatSemicolon()
		return &ast.ExprStmt{X: expr}
	}
}

func (p *Parser) parseFunctionDecl() ast.Stmt {
	fn := p.parseFunction(false)
	if fn.Name == "" {
		p.errorAt(diag.SynExpectFunction, fn.Sp, "function declaration requires a name")
	}
	return &ast.FunctionDecl{Fn: fn}
}

// parseFunction parses `function name? (params) { body }`.
func (p *Parser) parseFunction(expression bool) *ast.Function {
	start := p.expect(token.KwFunction).Span
	name := ""
	if p.at(token.Ident) {
		name = p.next().Text
	} else if !expression {
		p.errorAt(diag.SynExpectIdentifier, p.peek().Span, "expected function name")
	}
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.Function{
		Name:   name,
		Params: params,
		Body:   body.Stmts,
		Sp:     start.Cover(p.lastSpan),
	}
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.LParen)
	var params []ast.Param
	for !p.at(token.RParen) && !p.at(token.EOF) {
		target := p.parsePattern()
		var def ast.Expr
		if p.eat(token.Assign) {
			def = p.parseAssignExpr()
		}
		params = append(params, ast.Param{Target: target, Default: def})
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.expect(token.LBrace).Span
	var stmts []ast.Stmt
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.enough() {
			break
		}
		before := p.peek()
		s := p.parseStatement()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.peek() == before && s == nil && !p.at(token.EOF) {
			p.next()
		}
	}
	p.expect(token.RBrace)
	return &ast.BlockStmt{Stmts: stmts, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	tok := p.next()
	kind := ast.DeclVar
	switch tok.Kind {
	case token.KwLet:
		kind = ast.DeclLet
	case token.KwConst:
		kind = ast.DeclConst
	}

	var decls []ast.Declarator
	for {
		target := p.parsePattern()
		var init ast.Expr
		if p.eat(token.Assign) {
			init = p.parseAssignExpr()
		}
		decls = append(decls, ast.Declarator{Target: target, Init: init})
		if !p.eat(token.Comma) {
			break
		}
	}
	return &ast.VarDecl{Kind: kind, Decls: decls, Sp: tok.Span.Cover(p.lastSpan)}
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.expect(token.KwIf).Span
	p.expect(token.LParen)
	test := p.parseExpression()
	p.expect(token.RParen)
	then := p.parseStatement()
	var alt ast.Stmt
	if p.eat(token.KwElse) {
		alt = p.parseStatement()
	}
	return &ast.IfStmt{Test: test, Then: then, Else: alt, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.expect(token.KwWhile).Span
	p.expect(token.LParen)
	test := p.parseExpression()
	p.expect(token.RParen)
	body := p.parseStatement()
	return &ast.WhileStmt{Test: test, Body: body, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) parseDoWhile() ast.Stmt {
	start := p.expect(token.KwDo).Span
	body := p.parseStatement()
	p.expect(token.KwWhile)
	p.expect(token.LParen)
	test := p.parseExpression()
	p.expect(token.RParen)
	p.eatSemicolon()
	return &ast.DoWhileStmt{Body: body, Test: test, Sp: start.Cover(p.lastSpan)}
}

// parseFor disambiguates for(;;), for-in and for-of from the header.
func (p *Parser) parseFor() ast.Stmt {
	start := p.expect(token.KwFor).Span
	p.expect(token.LParen)

	// Declaration-headed loop: `for (let x ...`.
	if p.at(token.KwVar) || p.at(token.KwLet) || p.at(token.KwConst) {
		kindTok := p.next()
		kind := ast.DeclVar
		switch kindTok.Kind {
		case token.KwLet:
			kind = ast.DeclLet
		case token.KwConst:
			kind = ast.DeclConst
		}
		target := p.parsePattern()

		if p.at(token.KwIn) || (p.at(token.Ident) && p.peek().Text == "of") {
			of := p.next().Kind != token.KwIn
			obj := p.parseAssignExpr()
			p.expect(token.RParen)
			body := p.parseStatement()
			return &ast.ForInStmt{
				Of: of, Kind: kind, Decl: target, Object: obj, Body: body,
				Sp: start.Cover(p.lastSpan),
			}
		}

		// Classic loop: finish the declarator list.
		var decls []ast.Declarator
		var init ast.Expr
		if p.eat(token.Assign) {
			init = p.parseAssignExpr()
		}
		decls = append(decls, ast.Declarator{Target: target, Init: init})
		for p.eat(token.Comma) {
			t := p.parsePattern()
			var i ast.Expr
			if p.eat(token.Assign) {
				i = p.parseAssignExpr()
			}
			decls = append(decls, ast.Declarator{Target: t, Init: i})
		}
		initStmt := &ast.VarDecl{Kind: kind, Decls: decls, Sp: kindTok.Span.Cover(p.lastSpan)}
		return p.parseForTail(start, initStmt)
	}

	// Expression-headed or empty init.
	if p.eat(token.Semicolon) {
		return p.parseForRest(start, nil)
	}
	initExpr := p.parseExpression()
	if p.at(token.KwIn) || (p.at(token.Ident) && p.peek().Text == "of") {
		of := p.next().Kind != token.KwIn
		obj := p.parseAssignExpr()
		p.expect(token.RParen)
		body := p.parseStatement()
		return &ast.ForInStmt{
			Of: of, Target: initExpr, Object: obj, Body: body,
			Sp: start.Cover(p.lastSpan),
		}
	}
	return p.parseForTail(start, &ast.ExprStmt{X: initExpr})
}

func (p *Parser) parseForTail(start source.Span, init ast.Stmt) ast.Stmt {
	p.expect(token.Semicolon)
	return p.parseForRest(start, init)
}

func (p *Parser) parseForRest(start source.Span, init ast.Stmt) ast.Stmt {
	var test ast.Expr
	if !p.at(token.Semicolon) {
		test = p.parseExpression()
	}
	p.expect(token.Semicolon)
	var update ast.Expr
	if !p.at(token.RParen) {
		update = p.parseExpression()
	}
	p.expect(token.RParen)
	body := p.parseStatement()
	return &ast.ForStmt{Init: init, Test: test, Update: update, Body: body, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) parseSwitch() ast.Stmt {
	start := p.expect(token.KwSwitch).Span
	p.expect(token.LParen)
	disc := p.parseExpression()
	p.expect(token.RParen)
	p.expect(token.LBrace)

	var cases []ast.SwitchCase
	sawDefault := false
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		caseTok := p.peek()
		var test ast.Expr
		switch caseTok.Kind {
		case token.KwCase:
			p.next()
			test = p.parseExpression()
		case token.KwDefault:
			p.next()
			if sawDefault {
				p.errorAt(diag.SynDuplicateDefault, caseTok.Span, "duplicate default case")
			}
			sawDefault = true
		default:
			p.errorAt(diag.SynUnexpectedToken, caseTok.Span,
				fmt.Sprintf("expected case or default, found %s", caseTok.Kind))
			p.next()
			continue
		}
		p.expect(token.Colon)

		var body []ast.Stmt
		for !p.at(token.KwCase) && !p.at(token.KwDefault) && !p.at(token.RBrace) && !p.at(token.EOF) {
			s := p.parseStatement()
			if s != nil {
				body = append(body, s)
			}
		}
		cases = append(cases, ast.SwitchCase{Test: test, Body: body, Sp: caseTok.Span.Cover(p.lastSpan)})
	}
	p.expect(token.RBrace)
	return &ast.SwitchStmt{Disc: disc, Cases: cases, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) parseTry() ast.Stmt {
	start := p.expect(token.KwTry).Span
	block := p.parseBlock()

	var catchParam ast.Pattern
	var catchBody *ast.BlockStmt
	if p.eat(token.KwCatch) {
		if p.eat(token.LParen) {
			catchParam = p.parsePattern()
			p.expect(token.RParen)
		}
		catchBody = p.parseBlock()
	}
	var finally *ast.BlockStmt
	if p.eat(token.KwFinally) {
		finally = p.parseBlock()
	}
	if catchBody == nil && finally == nil {
		p.errorAt(diag.SynUnexpectedToken, start, "try requires catch or finally")
	}
	return &ast.TryStmt{
		Block: block, CatchParam: catchParam, CatchBody: catchBody,
		Finally: finally, Sp: start.Cover(p.lastSpan),
	}
}
