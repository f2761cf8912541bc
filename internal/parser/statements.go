package parser

import (
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/token"
)

// parseStatement dispatches on the current token,
// statement grammar. Control-flow expressions may appear as statements
// without a trailing `;`; every other expression requires one.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Kind {
	case token.LET:
		return p.parseVarDecl()
	case token.FUN:
		return p.parseFunctionDecl()
	case token.NATIVE:
		return p.parseNativeDecl()
	case token.CLASS:
		return p.parseClassDecl()
	case token.OBJECT:
		return p.parseObjectDecl()
	case token.TRAIT:
		return p.parseTraitDecl()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	start := p.cur.Span.Start
	p.advance() // 'let'
	name, ok := p.expect(token.IDENT, "identifier")
	if !ok {
		p.synchronize()
		return nil
	}
	var init ast.Expr
	if p.match(token.EQ) {
		init = p.parseExpr(precAssignment + 1)
	}
	if !p.match(token.SEMICOLON) {
		p.errorf("expected ';' after variable declaration")
		p.synchronize()
	}
	return ast.NewVarDecl(p.gen, p.span(start), name.Lexeme, init)
}

func (p *Parser) parseParamList() []string {
	p.expect(token.LPAREN, "'('")
	var params []string
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		if name, ok := p.expect(token.IDENT, "parameter name"); ok {
			params = append(params, name.Lexeme)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, "')'")
	return params
}

func (p *Parser) parseFunctionDecl() *ast.FunctionDecl {
	start := p.cur.Span.Start
	p.advance() // 'fun'
	name, ok := p.expect(token.IDENT, "function name")
	if !ok {
		p.synchronize()
		return nil
	}
	params := p.parseParamList()
	p.funcDepth++
	body := p.parseBlock()
	p.funcDepth--
	return ast.NewFunctionDecl(p.gen, p.span(start), name.Lexeme, params, body)
}

func (p *Parser) parseNativeDecl() ast.Stmt {
	start := p.cur.Span.Start
	p.advance() // 'native'
	name, ok := p.expect(token.IDENT, "identifier")
	if !ok {
		p.synchronize()
		return nil
	}
	if !p.match(token.SEMICOLON) {
		p.errorf("expected ';' after native declaration")
		p.synchronize()
	}
	return ast.NewNativeDecl(p.gen, p.span(start), name.Lexeme)
}

func (p *Parser) parseExprStatement() ast.Stmt {
	start := p.cur.Span.Start
	x := p.parseExpr(precAssignment)
	if isControlFlowExpr(x) {
		// Control-flow expressions may omit ';'.
		hasSemicolon := p.match(token.SEMICOLON)
		return ast.NewExprStmt(p.gen, p.span(start), x, hasSemicolon)
	}
	if !p.match(token.SEMICOLON) {
		p.errorf("expected ';' after expression")
		p.synchronize()
	}
	return ast.NewExprStmt(p.gen, p.span(start), x, true)
}

func isControlFlowExpr(x ast.Expr) bool {
	switch x.(type) {
	case *ast.IfExpr, *ast.LoopExpr, *ast.WhileExpr, *ast.ForExpr, *ast.Block,
		*ast.ReturnExpr, *ast.BreakExpr, *ast.ContinueExpr:
		return true
	}
	return false
}
