// Package parser implements Bite's Pratt/recursive-descent parser: Pratt
// precedence climbing for expressions, recursive descent for declarations,
// panic-mode recovery so a single syntax error never aborts the whole
// parse.
package parser

import (
	"fmt"

	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/diag"
	"github.com/bite-lang/bite/internal/lexer"
	"github.com/bite-lang/bite/internal/token"
)

// Precedence levels, lowest to highest.
const (
	precNone int = iota
	precAssignment
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precRange
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precCall
)

var binaryPrec = map[token.Kind]int{
	token.PIPEPIPE:         precOr,
	token.QUESTIONQUESTION: precOr,
	token.AMPAMP:           precAnd,
	token.PIPE:             precBitOr,
	token.CARET:            precBitXor,
	token.AMP:              precBitAnd,
	token.DOTDOT:           precRange,
	token.DOTDOTDOT:        precRange,
	token.EQEQ:             precEquality,
	token.BANGEQ:           precEquality,
	token.LT:               precRelational,
	token.LTEQ:             precRelational,
	token.GT:               precRelational,
	token.GTEQ:             precRelational,
	token.SHL:              precShift,
	token.SHR:              precShift,
	token.PLUS:             precAdditive,
	token.MINUS:            precAdditive,
	token.STAR:             precMultiplicative,
	token.SLASH:            precMultiplicative,
	token.SLASHSLASH:       precMultiplicative,
	token.PERCENT:          precMultiplicative,
}

var assignOps = map[token.Kind]bool{
	token.EQ: true, token.PLUSEQ: true, token.MINUSEQ: true, token.STAREQ: true,
	token.SLASHEQ: true, token.SLASHSLASHEQ: true, token.PERCENTEQ: true,
	token.SHLEQ: true, token.SHREQ: true, token.AMPEQ: true, token.CARETEQ: true,
	token.PIPEEQ: true, token.QUESTIONQUESTIONEQ: true,
}

// Parser turns a token stream into an AST, collecting every error it finds
// into a diag.Bag instead of stopping at the first one.
type Parser struct {
	lex  *lexer.Lexer
	gen  *ast.IDGen
	diag *diag.Bag

	cur  token.Token
	next token.Token

	// loopDepth/funcDepth/classDepth track nesting only; nothing in the
	// parser reads them (the analyzer is the authority on break/
	// continue/return/this/super validity). traitDepth is read by
	// parseMember: inside a trait body a method without a body is a
	// requirement and needs no `abstract`.
	loopDepth  int
	funcDepth  int
	classDepth int
	traitDepth int
}

// New creates a Parser over l, generating NodeIDs from gen and recording
// diagnostics into bag.
func New(l *lexer.Lexer, gen *ast.IDGen, bag *diag.Bag) *Parser {
	p := &Parser{lex: l, gen: gen, diag: bag}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.next
	p.next = p.lex.NextToken()
	for _, le := range p.lex.Errors() {
		p.diag.Add(diag.Diagnostic{Level: diag.Error, Category: "lex", Span: le.Span, Message: le.Message})
	}
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) nextIs(k token.Kind) bool { return p.next.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.curIs(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, what string) (token.Token, bool) {
	if p.curIs(k) {
		t := p.cur
		p.advance()
		return t, true
	}
	p.errorf("expected %s, got %s", what, p.cur.Kind)
	return p.cur, false
}

func (p *Parser) errorf(format string, args ...any) {
	p.diag.Add(diag.Diagnostic{
		Level:    diag.Error,
		Category: "parse",
		Span:     p.cur.Span,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (p *Parser) span(start token.Position) token.Span {
	return token.Span{Start: start, End: p.cur.Span.Start}
}

// declStarters are the token kinds synchronize() stops at: the start of a
// new statement, so one bad statement doesn't swallow the rest of the file.
var declStarters = map[token.Kind]bool{
	token.LET: true, token.FUN: true, token.CLASS: true, token.NATIVE: true,
	token.OBJECT: true, token.TRAIT: true, token.IF: true, token.LOOP: true,
	token.WHILE: true, token.FOR: true, token.RETURN: true, token.BREAK: true,
	token.CONTINUE: true, token.LBRACE: true,
}

// synchronize discards tokens until past a `;` or at the start of a
// declaration/control-flow statement: classic panic-mode recovery.
func (p *Parser) synchronize() {
	for !p.curIs(token.EOF) {
		if p.cur.Kind == token.SEMICOLON {
			p.advance()
			return
		}
		if declStarters[p.cur.Kind] {
			return
		}
		p.advance()
	}
}

// ParseProgram parses the whole token stream, repeatedly parsing statements
// until EOF. Parse errors never abort the parse — the parser always
// returns a (possibly partially invalid) AST.
func ParseProgram(file, src string) (*ast.Program, *ast.IDGen, []diag.Diagnostic) {
	bag := &diag.Bag{}
	gen := &ast.IDGen{}
	l := lexer.New(file, src)
	p := New(l, gen, bag)

	start := p.cur.Span.Start
	var stmts []ast.Stmt
	for !p.curIs(token.EOF) {
		before := p.cur
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.cur == before {
			// Guard against a parse function that consumed nothing: force
			// progress so ParseProgram always terminates.
			p.advance()
		}
	}
	prog := ast.NewProgram(gen, p.span(start), stmts)
	return prog, gen, bag.All()
}
