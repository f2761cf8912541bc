package parser

import (
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/token"
)

func (p *Parser) parseClassDecl() ast.Stmt {
	start := p.cur.Span.Start
	p.advance() // 'class'
	abstract := p.match(token.ABSTRACT)
	name, ok := p.expect(token.IDENT, "class name")
	if !ok {
		p.synchronize()
		return nil
	}
	var super string
	if p.match(token.COLON) {
		s, _ := p.expect(token.IDENT, "superclass name")
		super = s.Lexeme
	}

	p.classDepth++
	members, ctor := p.parseClassBody()
	p.classDepth--

	decl := ast.NewClassDecl(p.gen, p.span(start), name.Lexeme)
	decl.Abstract = abstract
	decl.SuperName = super
	decl.Members = members
	decl.Ctor = ctor
	return decl
}

func (p *Parser) parseObjectDecl() ast.Stmt {
	start := p.cur.Span.Start
	p.advance() // 'object'
	name, ok := p.expect(token.IDENT, "object name")
	if !ok {
		p.synchronize()
		return nil
	}
	p.classDepth++
	members, _ := p.parseClassBody()
	p.classDepth--
	decl := ast.NewObjectDecl(p.gen, p.span(start), name.Lexeme)
	decl.Members = members
	return decl
}

func (p *Parser) parseObjectExpr() ast.Expr {
	start := p.cur.Span.Start
	p.advance() // 'object'
	p.classDepth++
	members, _ := p.parseClassBody()
	p.classDepth--
	return ast.NewObjectExpr(p.gen, p.span(start), members)
}

func (p *Parser) parseTraitDecl() ast.Stmt {
	start := p.cur.Span.Start
	p.advance() // 'trait'
	name, ok := p.expect(token.IDENT, "trait name")
	if !ok {
		p.synchronize()
		return nil
	}
	p.classDepth++
	p.traitDepth++
	members, _ := p.parseClassBody()
	p.traitDepth--
	p.classDepth--
	decl := ast.NewTraitDecl(p.gen, p.span(start), name.Lexeme)
	decl.Members = members
	return decl
}

// parseClassBody parses the `{ ... }` body shared by class/trait/object
// declarations. A constructor is pulled out separately (ctor) since only
// classes use it; it comes back nil for traits/objects.
func (p *Parser) parseClassBody() (members []ast.Stmt, ctor *ast.FunctionDecl) {
	p.expect(token.LBRACE, "'{'")

	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		member, isCtor := p.parseMember()
		if isCtor {
			if fn, ok := member.(*ast.FunctionDecl); ok {
				ctor = fn
			}
			continue
		}
		if member != nil {
			members = append(members, member)
		}
	}

	p.expect(token.RBRACE, "'}'")
	return members, ctor
}

// parseMember parses one class/trait body member, with its optional
// attribute prefixes.
func (p *Parser) parseMember() (member ast.Stmt, isCtor bool) {
	var attrs ast.Attrs
	for {
		switch p.cur.Kind {
		case token.PRIVATE:
			attrs.Private = true
			p.advance()
			continue
		case token.OVERRIDE:
			attrs.Override = true
			p.advance()
			continue
		case token.ABSTRACT:
			attrs.Abstract = true
			p.advance()
			continue
		case token.GET:
			attrs.IsGetter = true
			p.advance()
			continue
		case token.SET:
			attrs.IsSetter = true
			p.advance()
			continue
		}
		break
	}

	switch p.cur.Kind {
	case token.USING:
		return p.parseUsing(), false
	case token.OBJECT:
		return p.parseObjectDecl(), false
	case token.IDENT:
		if p.cur.Lexeme == "init" {
			return p.parseConstructor(), true
		}
	}

	if !p.curIs(token.IDENT) {
		p.errorf("expected class member, got %s", p.cur.Kind)
		p.advance()
		return nil, false
	}

	name := p.cur
	// A member is a method (`NAME(params){block}` or abstract
	// `NAME(params);`) if a '(' follows; otherwise a field.
	if p.peekNextIsLParen() {
		p.advance() // consume name
		params := p.parseParamList()
		var body *ast.Block
		if p.curIs(token.SEMICOLON) {
			p.advance()
			if !attrs.Abstract && p.traitDepth == 0 {
				p.errorf("method %q has no body but is not declared abstract", name.Lexeme)
			}
		} else {
			body = p.parseBlock()
		}
		fn := ast.NewFunctionDecl(p.gen, p.span(name.Span.Start), name.Lexeme, params, body)
		fn.Attrs = attrs
		return fn, false
	}

	start := name.Span.Start
	p.advance() // consume name
	var init ast.Expr
	if p.match(token.EQ) {
		init = p.parseExpr(precAssignment + 1)
	}
	if !p.match(token.SEMICOLON) {
		p.errorf("expected ';' after field declaration")
		p.synchronize()
	}
	field := ast.NewVarDecl(p.gen, p.span(start), name.Lexeme, init)
	field.Attrs = attrs
	// A getter/setter attribute without '(' parses parameter-less: nothing
	// further to consume here.
	return field, false
}

func (p *Parser) peekNextIsLParen() bool {
	return p.next.Kind == token.LPAREN
}

func (p *Parser) parseConstructor() *ast.FunctionDecl {
	start := p.cur.Span.Start
	p.advance() // 'init'
	params := p.parseParamList()
	var superArgs []ast.Expr
	if p.match(token.COLON) {
		p.expect(token.SUPER, "'super'")
		superArgs = p.parseArgList()
		if superArgs == nil {
			superArgs = []ast.Expr{}
		}
	}
	body := p.parseBlock()
	fn := ast.NewFunctionDecl(p.gen, p.span(start), "init", params, body)
	fn.SuperArgs = superArgs
	return fn
}

// parseUsing parses `using TRAIT(param-list)?;` where the parenthesized
// list may mix ordinary trait-parameterization arguments with `exclude
// NAME` and `NAME as NAME` modifier items.
func (p *Parser) parseUsing() ast.Stmt {
	start := p.cur.Span.Start
	p.advance() // 'using'
	name, _ := p.expect(token.IDENT, "trait name")

	stmt := ast.NewUsingStmt(p.gen, p.span(start), name.Lexeme, nil)
	stmt.Renames = map[string]string{}

	if p.curIs(token.LPAREN) {
		p.advance()
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			p.parseUsingItem(stmt)
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, "')'")
	}

	if !p.match(token.SEMICOLON) {
		p.errorf("expected ';' after using declaration")
		p.synchronize()
	}
	return stmt
}

func (p *Parser) parseUsingItem(stmt *ast.UsingStmt) {
	if p.match(token.EXCLUDE) {
		item, ok := p.expect(token.IDENT, "member name")
		if ok {
			stmt.Excludes = append(stmt.Excludes, item.Lexeme)
		}
		return
	}
	if p.curIs(token.IDENT) && p.next.Kind == token.AS {
		item := p.cur
		p.advance()
		p.advance() // 'as'
		renamed, _ := p.expect(token.IDENT, "new name")
		stmt.Renames[item.Lexeme] = renamed.Lexeme
		return
	}
	stmt.Args = append(stmt.Args, p.parseExpr(precAssignment+1))
}
