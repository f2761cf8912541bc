// Package ast defines Bite's Abstract Syntax Tree: a closed sum of
// expression and statement node types. The tree is walked with type
// switches in the analyzer and compiler rather than a visitor-with-Accept
// pattern — there is no separate visitor interface to maintain here, just
// Expr/Stmt marker interfaces sealed to this package.
package ast

import "github.com/bite-lang/bite/internal/token"

// NodeID uniquely identifies an AST node; it is the key the analyzer uses to
// attach bindings and environments to nodes out-of-band.
type NodeID int

// IDGen hands out monotonically increasing NodeIDs during parsing.
type IDGen struct{ next NodeID }

// Next returns a fresh, never-before-issued NodeID.
func (g *IDGen) Next() NodeID {
	g.next++
	return g.next
}

// Node is implemented by every AST node.
type Node interface {
	ID() NodeID
	Span() token.Span
}

// Expr is implemented by every expression node. Bite blurs statements into
// expressions more than most languages,
// but the two interfaces stay distinct so the parser's "did this need a
// trailing semicolon" rule has something to type-assert against.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// base is embedded by every concrete node to provide ID()/Span() without
// repeating the boilerplate in each node type.
type base struct {
	id   NodeID
	span token.Span
}

func (b base) ID() NodeID       { return b.id }
func (b base) Span() token.Span { return b.span }

func newBase(gen *IDGen, span token.Span) base {
	return base{id: gen.Next(), span: span}
}

// Program is the root of a parsed compilation unit.
type Program struct {
	base
	Stmts []Stmt

	// Env is the analyzer's GlobalEnvironment, filled in once
	// analysis runs over the whole Program.
	Env *GlobalEnv
}

// NewProgram builds the root node covering the whole file.
func NewProgram(gen *IDGen, span token.Span, stmts []Stmt) *Program {
	return &Program{base: newBase(gen, span), Stmts: stmts}
}

// GlobalEnv is the analyzer's top-level environment: the set of
// global-scope declarations plus the script's own FunctionEnv, the
// implicit arity-0 function the whole file compiles into.
type GlobalEnv struct {
	Globals map[string]Stmt // name -> declaring VarDecl/FunctionDecl/ClassDecl/NativeDecl/ObjectDecl/TraitDecl
	Script  *FunctionEnv
}
