package ast

import "github.com/bite-lang/bite/internal/token"

// LiteralKind distinguishes the non-string primitive literal forms. String
// literals get their own node (StringLit) since Bite may grow interpolation
// later.
type LiteralKind int

const (
	IntLiteral LiteralKind = iota
	FloatLiteral
	BoolLiteral
	NilLiteral
)

// Literal is an int, float, bool, or nil constant.
type Literal struct {
	base
	Kind  LiteralKind
	Int   int64
	Float float64
	Bool  bool
}

func NewLiteral(gen *IDGen, span token.Span, kind LiteralKind) *Literal {
	return &Literal{base: newBase(gen, span), Kind: kind}
}

func (*Literal) exprNode() {}

// StringLit is a `"..."` literal; contents are taken verbatim, no escape
// processing.
type StringLit struct {
	base
	Value string
}

func NewStringLit(gen *IDGen, span token.Span, value string) *StringLit {
	return &StringLit{base: newBase(gen, span), Value: value}
}

func (*StringLit) exprNode() {}

// Unary is a prefix operator: `-x`, `!x`, `~x`.
type Unary struct {
	base
	Op      token.Kind
	Operand Expr
}

func NewUnary(gen *IDGen, span token.Span, op token.Kind, operand Expr) *Unary {
	return &Unary{base: newBase(gen, span), Op: op, Operand: operand}
}

func (*Unary) exprNode() {}

// Binary is an infix operator application, including the short-circuit
// logical operators `&&`/`||` (the compiler lowers those to jumps; the AST
// treats them uniformly as Binary).
type Binary struct {
	base
	Op          token.Kind
	Left, Right Expr
}

func NewBinary(gen *IDGen, span token.Span, op token.Kind, left, right Expr) *Binary {
	return &Binary{base: newBase(gen, span), Op: op, Left: left, Right: right}
}

func (*Binary) exprNode() {}

// RangeExpr is `start..end` (half-open) or `start...end` (inclusive): an
// integer range, the most common source of a `for` loop's iterable. Start
// and End are evaluated once, left to right, when the range value is
// constructed; the range itself does not advance until something iterates
// it.
type RangeExpr struct {
	base
	Start, End Expr
	Inclusive  bool
}

func NewRangeExpr(gen *IDGen, span token.Span, start, end Expr, inclusive bool) *RangeExpr {
	return &RangeExpr{base: newBase(gen, span), Start: start, End: end, Inclusive: inclusive}
}

func (*RangeExpr) exprNode() {}

// Variable is a bare name reference. Binding is filled in by the analyzer:
// every name-bearing expression has a non-empty Binding once analysis
// succeeds.
type Variable struct {
	base
	Name    string
	Binding *Binding
}

func NewVariable(gen *IDGen, span token.Span, name string) *Variable {
	return &Variable{base: newBase(gen, span), Name: name}
}

func (*Variable) exprNode() {}

// Assign is `target = value` or a desugared compound assignment
// (`target OP= value` parses as Assign{Op: OP, ...}; the compiler emits
// "load target; apply OP; store"). Target is restricted by the parser/
// analyzer to Variable, GetProperty, or SuperExpr.
type Assign struct {
	base
	Op     token.Kind // EQ for a plain `=`; otherwise the compound op (PLUSEQ, ...)
	Target Expr
	Value  Expr
}

func NewAssign(gen *IDGen, span token.Span, op token.Kind, target, value Expr) *Assign {
	return &Assign{base: newBase(gen, span), Op: op, Target: target, Value: value}
}

func (*Assign) exprNode() {}

// Call is `callee(args...)`.
type Call struct {
	base
	Callee Expr
	Args   []Expr
}

func NewCall(gen *IDGen, span token.Span, callee Expr, args []Expr) *Call {
	return &Call{base: newBase(gen, span), Callee: callee, Args: args}
}

func (*Call) exprNode() {}

// GetProperty is `object.name`, used both as a value-producing expression
// and, when it appears as an Assign target, as a property-store site.
type GetProperty struct {
	base
	Object Expr
	Name   string
}

func NewGetProperty(gen *IDGen, span token.Span, object Expr, name string) *GetProperty {
	return &GetProperty{base: newBase(gen, span), Object: object, Name: name}
}

func (*GetProperty) exprNode() {}

// SuperExpr is `super.name`. Binding is resolved against the enclosing
// class's superclass member set.
type SuperExpr struct {
	base
	Method  string
	Binding *Binding
}

func NewSuperExpr(gen *IDGen, span token.Span, method string) *SuperExpr {
	return &SuperExpr{base: newBase(gen, span), Method: method}
}

func (*SuperExpr) exprNode() {}

// ThisExpr is the bare `this` keyword.
type ThisExpr struct{ base }

func NewThisExpr(gen *IDGen, span token.Span) *ThisExpr {
	return &ThisExpr{base: newBase(gen, span)}
}

func (*ThisExpr) exprNode() {}

// Invalid stands in for an expression the parser could not make sense of
// after a syntax error; it carries no semantic meaning and the analyzer
// skips it.
type Invalid struct{ base }

func NewInvalid(gen *IDGen, span token.Span) *Invalid {
	return &Invalid{base: newBase(gen, span)}
}

func (*Invalid) exprNode() {}

// ObjectExpr is an anonymous `object { body }` used as an expression: it
// produces a fresh instance of a hidden, unnamed class every time it is
// evaluated, unlike a top-level ObjectDecl, whose single instance is
// constructed once.
type ObjectExpr struct {
	base
	Members []Stmt

	Env *ClassEnv
}

func NewObjectExpr(gen *IDGen, span token.Span, members []Stmt) *ObjectExpr {
	return &ObjectExpr{base: newBase(gen, span), Members: members}
}

func (*ObjectExpr) exprNode() {}
