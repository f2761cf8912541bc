package parser

import (
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/token"
)

// parseExpr is the Pratt-parsing entry point: parse a prefix expression,
// then repeatedly fold in infix operators whose precedence is >= minPrec.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parsePostfix(p.parsePrefix())

	for {
		if assignOps[p.cur.Kind] && precAssignment >= minPrec {
			left = p.parseAssignment(left)
			continue
		}
		prec, ok := binaryPrec[p.cur.Kind]
		if !ok || prec < minPrec {
			break
		}
		left = p.parseBinary(left, prec)
	}

	return left
}

// parseAssignment implements the grammar's single right-associative
// assignment level, covering `=` and every compound-assignment spelling.
func (p *Parser) parseAssignment(target ast.Expr) ast.Expr {
	start := target.Span().Start
	op := p.cur.Kind
	p.advance()
	if !isAssignableTarget(target) {
		p.errorf("expected lvalue")
	}
	value := p.parseExpr(precAssignment) // right-associative: re-enter at the same level
	return ast.NewAssign(p.gen, p.span(start), op, target, value)
}

func isAssignableTarget(x ast.Expr) bool {
	switch x.(type) {
	case *ast.Variable, *ast.GetProperty, *ast.SuperExpr:
		return true
	}
	return false
}

func (p *Parser) parseBinary(left ast.Expr, prec int) ast.Expr {
	start := left.Span().Start
	op := p.cur.Kind
	p.advance()
	// All binary levels are left-associative, so the RHS parses at prec+1.
	right := p.parseExpr(prec + 1)
	if op == token.DOTDOT || op == token.DOTDOTDOT {
		return ast.NewRangeExpr(p.gen, p.span(start), left, right, op == token.DOTDOTDOT)
	}
	return ast.NewBinary(p.gen, p.span(start), op, left, right)
}

// parsePostfix folds in the left-associative call/access chain: `(`/`.`.
func (p *Parser) parsePostfix(left ast.Expr) ast.Expr {
	for {
		start := left.Span().Start
		switch p.cur.Kind {
		case token.LPAREN:
			args := p.parseArgList()
			left = ast.NewCall(p.gen, p.span(start), left, args)
		case token.DOT:
			p.advance()
			name, ok := p.expect(token.IDENT, "property name")
			if !ok {
				return left
			}
			left = ast.NewGetProperty(p.gen, p.span(start), left, name.Lexeme)
		default:
			return left
		}
	}
}

func (p *Parser) parseArgList() []ast.Expr {
	p.expect(token.LPAREN, "'('")
	var args []ast.Expr
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpr(precAssignment+1))
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, "')'")
	return args
}

func (p *Parser) parsePrefix() ast.Expr {
	start := p.cur.Span.Start

	switch p.cur.Kind {
	case token.MINUS, token.BANG, token.TILDE:
		op := p.cur.Kind
		p.advance()
		operand := p.parseExpr(precUnary)
		return ast.NewUnary(p.gen, p.span(start), op, operand)
	}

	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.cur.Span.Start

	switch p.cur.Kind {
	case token.INT:
		v := p.cur.IntVal
		p.advance()
		lit := ast.NewLiteral(p.gen, p.span(start), ast.IntLiteral)
		lit.Int = v
		return lit
	case token.FLOAT:
		v := p.cur.FltVal
		p.advance()
		lit := ast.NewLiteral(p.gen, p.span(start), ast.FloatLiteral)
		lit.Float = v
		return lit
	case token.STRING:
		v := p.cur.StrVal
		p.advance()
		return ast.NewStringLit(p.gen, p.span(start), v)
	case token.TRUE, token.FALSE:
		v := p.cur.Kind == token.TRUE
		p.advance()
		lit := ast.NewLiteral(p.gen, p.span(start), ast.BoolLiteral)
		lit.Bool = v
		return lit
	case token.NIL:
		p.advance()
		return ast.NewLiteral(p.gen, p.span(start), ast.NilLiteral)
	case token.THIS:
		p.advance()
		return ast.NewThisExpr(p.gen, p.span(start))
	case token.SUPER:
		p.advance()
		p.expect(token.DOT, "'.' after 'super'")
		name, _ := p.expect(token.IDENT, "method name")
		return ast.NewSuperExpr(p.gen, p.span(start), name.Lexeme)
	case token.IDENT:
		name := p.cur.Lexeme
		p.advance()
		return ast.NewVariable(p.gen, p.span(start), name)
	case token.LPAREN:
		p.advance()
		inner := p.parseExpr(precAssignment)
		p.expect(token.RPAREN, "')'")
		return inner
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIf("")
	case token.LOOP:
		return p.parseLoop("")
	case token.WHILE:
		return p.parseWhile("")
	case token.FOR:
		return p.parseFor("")
	case token.BREAK:
		return p.parseBreak()
	case token.CONTINUE:
		return p.parseContinue()
	case token.RETURN:
		return p.parseReturn()
	case token.OBJECT:
		return p.parseObjectExpr()
	case token.LABEL:
		return p.parseLabeled()
	default:
		p.errorf("unexpected token %s", p.cur.Kind)
		p.advance()
		return ast.NewInvalid(p.gen, p.span(start))
	}
}

func (p *Parser) parseLabeled() ast.Expr {
	label := p.cur.Lexeme
	p.advance() // LABEL
	p.expect(token.COLON, "':' after label")
	switch p.cur.Kind {
	case token.LOOP:
		return p.parseLoop(label)
	case token.WHILE:
		return p.parseWhile(label)
	case token.FOR:
		return p.parseFor(label)
	case token.LBRACE:
		return p.parseLabeledBlock(label)
	default:
		p.errorf("expected a loop, while, for, or block after label")
		return ast.NewInvalid(p.gen, p.cur.Span)
	}
}

func (p *Parser) parseLabeledBlock(label string) ast.Expr {
	b := p.parseBlock()
	b.Label = label
	return b
}

// parseBlock implements "blocks are expressions": the trailing
// expression-without-semicolon becomes the block's value.
func (p *Parser) parseBlock() *ast.Block {
	start := p.cur.Span.Start
	p.expect(token.LBRACE, "'{'")

	var stmts []ast.Stmt
	var trailing ast.Expr

	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if declStartsStatement(p.cur.Kind) {
			stmts = append(stmts, p.parseStatement())
			continue
		}

		exprStart := p.cur.Span.Start
		x := p.parseExpr(precAssignment)

		if p.curIs(token.SEMICOLON) {
			p.advance()
			stmts = append(stmts, ast.NewExprStmt(p.gen, p.span(exprStart), x, true))
			continue
		}
		if p.curIs(token.RBRACE) {
			trailing = x
			break
		}
		if isControlFlowExpr(x) {
			stmts = append(stmts, ast.NewExprStmt(p.gen, p.span(exprStart), x, false))
			continue
		}
		p.errorf("expected ';' after expression")
		p.synchronize()
	}

	p.expect(token.RBRACE, "'}'")
	return ast.NewBlock(p.gen, p.span(start), "", stmts, trailing)
}

func declStartsStatement(k token.Kind) bool {
	switch k {
	case token.LET, token.FUN, token.NATIVE, token.CLASS, token.OBJECT, token.TRAIT:
		return true
	}
	return false
}

func (p *Parser) parseIf(label string) ast.Expr {
	start := p.cur.Span.Start
	p.advance() // 'if'
	cond := p.parseExpr(precAssignment + 1)
	then := p.parseBlock()
	var els ast.Expr
	if p.match(token.ELSE) {
		if p.curIs(token.IF) {
			els = p.parseIf("")
		} else {
			els = p.parseBlock()
		}
	}
	_ = label
	return ast.NewIfExpr(p.gen, p.span(start), cond, then, els)
}

func (p *Parser) parseLoop(label string) ast.Expr {
	start := p.cur.Span.Start
	p.advance() // 'loop'
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	return ast.NewLoopExpr(p.gen, p.span(start), label, body)
}

func (p *Parser) parseWhile(label string) ast.Expr {
	start := p.cur.Span.Start
	p.advance() // 'while'
	cond := p.parseExpr(precAssignment + 1)
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	return ast.NewWhileExpr(p.gen, p.span(start), label, cond, body)
}

func (p *Parser) parseFor(label string) ast.Expr {
	start := p.cur.Span.Start
	p.advance() // 'for'
	name, _ := p.expect(token.IDENT, "loop variable")
	p.expect(token.IN, "'in'")
	iter := p.parseExpr(precAssignment + 1)
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	return ast.NewForExpr(p.gen, p.span(start), label, name.Lexeme, iter, body)
}

func (p *Parser) parseBreak() ast.Expr {
	start := p.cur.Span.Start
	p.advance() // 'break'
	var label string
	if p.curIs(token.LABEL) {
		label = p.cur.Lexeme
		p.advance()
	}
	var value ast.Expr
	if exprFollows(p.cur.Kind) {
		value = p.parseExpr(precAssignment + 1)
	}
	return ast.NewBreakExpr(p.gen, p.span(start), label, value)
}

func (p *Parser) parseContinue() ast.Expr {
	start := p.cur.Span.Start
	p.advance() // 'continue'
	var label string
	if p.curIs(token.LABEL) {
		label = p.cur.Lexeme
		p.advance()
	}
	return ast.NewContinueExpr(p.gen, p.span(start), label)
}

func (p *Parser) parseReturn() ast.Expr {
	start := p.cur.Span.Start
	p.advance() // 'return'
	var value ast.Expr
	if exprFollows(p.cur.Kind) {
		value = p.parseExpr(precAssignment + 1)
	}
	return ast.NewReturnExpr(p.gen, p.span(start), value)
}

// exprFollows reports whether k could begin an expression, used to decide
// whether `break`/`return` carries an optional value.
func exprFollows(k token.Kind) bool {
	switch k {
	case token.SEMICOLON, token.RBRACE, token.EOF, token.COMMA, token.RPAREN:
		return false
	}
	return true
}
