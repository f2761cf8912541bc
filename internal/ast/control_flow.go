package ast

import "github.com/bite-lang/bite/internal/token"

// Block is `{ stmts... }`. Per blocks are expressions: if the
// last item is an expression statement without a trailing `;`, Trailing
// holds it and is the block's value; otherwise the block evaluates to nil.
type Block struct {
	base
	Label    string // "" if unlabeled
	Stmts    []Stmt
	Trailing Expr // nil if the block has no tail expression
}

func NewBlock(gen *IDGen, span token.Span, label string, stmts []Stmt, trailing Expr) *Block {
	return &Block{base: newBase(gen, span), Label: label, Stmts: stmts, Trailing: trailing}
}

func (*Block) exprNode() {}

// IfExpr is `if cond { then } else { else }` (else branch optional).
type IfExpr struct {
	base
	Cond Expr
	Then *Block
	Else Expr // *Block, another *IfExpr (else-if), or nil
}

func NewIfExpr(gen *IDGen, span token.Span, cond Expr, then *Block, els Expr) *IfExpr {
	return &IfExpr{base: newBase(gen, span), Cond: cond, Then: then, Else: els}
}

func (*IfExpr) exprNode() {}

// LoopExpr is `loop { body }`, an unconditional loop exited only via break.
type LoopExpr struct {
	base
	Label string
	Body  *Block
}

func NewLoopExpr(gen *IDGen, span token.Span, label string, body *Block) *LoopExpr {
	return &LoopExpr{base: newBase(gen, span), Label: label, Body: body}
}

func (*LoopExpr) exprNode() {}

// WhileExpr is `while cond { body }`.
type WhileExpr struct {
	base
	Label string
	Cond  Expr
	Body  *Block
}

func NewWhileExpr(gen *IDGen, span token.Span, label string, cond Expr, body *Block) *WhileExpr {
	return &WhileExpr{base: newBase(gen, span), Label: label, Cond: cond, Body: body}
}

func (*WhileExpr) exprNode() {}

// ForExpr is `for name in iter { body }`, compiled into a loop driven by the
// ITER_INIT/ITER_NEXT opcodes over a range cursor.
type ForExpr struct {
	base
	Label string
	Var   string
	Iter  Expr
	Body  *Block

	// VarBinding is filled by the analyzer: ForExpr introduces Var as a
	// fresh local scoped to Body, same as a `let`.
	VarBinding *Binding
}

func NewForExpr(gen *IDGen, span token.Span, label, varName string, iter Expr, body *Block) *ForExpr {
	return &ForExpr{base: newBase(gen, span), Label: label, Var: varName, Iter: iter, Body: body}
}

func (*ForExpr) exprNode() {}

// BreakExpr is `break`, `break 42`, `break @label`, or `break @label 42`.
type BreakExpr struct {
	base
	Label string // "" for the innermost loop
	Value Expr   // nil if no value given (defaults to nil)

	// Target is set by the analyzer: the NodeID of the Block/LoopExpr/
	// WhileExpr/ForExpr this break unwinds to.
	Target NodeID
}

func NewBreakExpr(gen *IDGen, span token.Span, label string, value Expr) *BreakExpr {
	return &BreakExpr{base: newBase(gen, span), Label: label, Value: value}
}

func (*BreakExpr) exprNode() {}

// ContinueExpr is `continue` or `continue @label`.
type ContinueExpr struct {
	base
	Label  string
	Target NodeID
}

func NewContinueExpr(gen *IDGen, span token.Span, label string) *ContinueExpr {
	return &ContinueExpr{base: newBase(gen, span), Label: label}
}

func (*ContinueExpr) exprNode() {}

// ReturnExpr is `return` or `return value`.
type ReturnExpr struct {
	base
	Value Expr // nil if no value given (defaults to nil)
}

func NewReturnExpr(gen *IDGen, span token.Span, value Expr) *ReturnExpr {
	return &ReturnExpr{base: newBase(gen, span), Value: value}
}

func (*ReturnExpr) exprNode() {}
