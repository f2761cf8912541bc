package ast

import "github.com/bite-lang/bite/internal/token"

// Attrs carries the member-attribute prefixes from class/trait
// body grammar (`private`, `override`, `abstract`, `get`, `set`).
type Attrs struct {
	Private  bool
	Override bool
	Abstract bool
	IsGetter bool
	IsSetter bool
}

// VarDecl is `let NAME = expr;` at any scope, and also a class/trait field
// when it appears inside a ClassDecl/TraitDecl's Members list (in which case
// Attrs is meaningful).
type VarDecl struct {
	base
	Name    string
	Init    Expr // nil means "defaults to nil"
	Attrs   Attrs
	Binding *Binding
}

func NewVarDecl(gen *IDGen, span token.Span, name string, init Expr) *VarDecl {
	return &VarDecl{base: newBase(gen, span), Name: name, Init: init}
}

func (*VarDecl) stmtNode() {}

// ExprStmt wraps an expression used as a statement. HasSemicolon records
// whether a trailing `;` followed it. A Block stores its value-producing
// tail (a final expression without `;`) in Block.Trailing rather than as an
// ExprStmt, so an ExprStmt with HasSemicolon==false is a control-flow
// expression (if/loop/while/for/block/...) that omitted its optional `;`.
type ExprStmt struct {
	base
	X            Expr
	HasSemicolon bool
}

func NewExprStmt(gen *IDGen, span token.Span, x Expr, hasSemicolon bool) *ExprStmt {
	return &ExprStmt{base: newBase(gen, span), X: x, HasSemicolon: hasSemicolon}
}

func (*ExprStmt) stmtNode() {}

// FunctionEnv is the per-function analysis result attached to every
// FunctionDecl (and to the implicit script-level function) by the
// analyzer.
type FunctionEnv struct {
	ParamSlots  []int // slot index per parameter, in declaration order
	LocalCount  int   // total local slots reserved, including parameters and slot 0
	Upvalues    []UpvalueDescriptor
	IsMethod    bool // slot 0 holds `this` rather than a dummy
	IsCtor      bool
}

// FunctionDecl is `fun NAME(params) { body }`, a method, or a constructor's
// shared shape (constructors reuse FunctionDecl with Name == "init" and
// SuperArgs set).
type FunctionDecl struct {
	base
	Name      string
	Params    []string
	Body      *Block // nil for an abstract method
	Attrs     Attrs
	SuperArgs []Expr // non-nil only for a constructor's `: super(args)` clause

	Env *FunctionEnv // filled by the analyzer

	// Binding is filled by the analyzer only for a nested (non-top-level,
	// non-method) function declaration, recording the local slot its own
	// name occupies in the enclosing function's frame so it can be called
	// recursively and referenced by sibling statements.
	Binding *Binding
}

func NewFunctionDecl(gen *IDGen, span token.Span, name string, params []string, body *Block) *FunctionDecl {
	return &FunctionDecl{base: newBase(gen, span), Name: name, Params: params, Body: body}
}

func (*FunctionDecl) stmtNode() {}

// UsingStmt is a trait-composition member: `using Trait(args) exclude a, b as c;`.
type UsingStmt struct {
	base
	Trait    string
	Args     []Expr
	Excludes []string
	Renames  map[string]string // original name -> new name
}

func NewUsingStmt(gen *IDGen, span token.Span, trait string, args []Expr) *UsingStmt {
	return &UsingStmt{base: newBase(gen, span), Trait: trait, Args: args}
}

func (*UsingStmt) stmtNode() {}

// ClassEnv is the analyzer's per-class environment.
type ClassEnv struct {
	Members         map[string]*MemberInfo
	Super           *ClassDecl
	ClassObjectName string // "" if the class has no companion object
}

// MemberInfo carries a member's declared attributes plus its source span.
type MemberInfo struct {
	Private    bool
	Override   bool
	Abstract   bool
	HasGetter  bool
	HasSetter  bool
	Span       token.Span
	IsField    bool
	IsMethod   bool
}

// ClassDecl is `class [abstract] NAME (: SUPER)? { body }`.
type ClassDecl struct {
	base
	Name       string
	Abstract   bool
	SuperName  string // "" if no superclass
	Members    []Stmt // *VarDecl | *FunctionDecl | *UsingStmt | *ObjectDecl
	Ctor       *FunctionDecl // nil if the class has no explicit constructor

	Env *ClassEnv // filled by the analyzer
}

func NewClassDecl(gen *IDGen, span token.Span, name string) *ClassDecl {
	return &ClassDecl{base: newBase(gen, span), Name: name}
}

func (*ClassDecl) stmtNode() {}

// NativeDecl is `native NAME;`: an externally provided binding resolved at
// runtime through the host's foreign-function registry.
type NativeDecl struct {
	base
	Name string
}

func NewNativeDecl(gen *IDGen, span token.Span, name string) *NativeDecl {
	return &NativeDecl{base: newBase(gen, span), Name: name}
}

func (*NativeDecl) stmtNode() {}

// ObjectDecl is `object NAME { body }`: a singleton, desugared by the
// compiler into a hidden class plus a single instance constructed eagerly
// when the declaration's statement runs.
type ObjectDecl struct {
	base
	Name    string
	Members []Stmt

	Env *ClassEnv
}

func NewObjectDecl(gen *IDGen, span token.Span, name string) *ObjectDecl {
	return &ObjectDecl{base: newBase(gen, span), Name: name}
}

func (*ObjectDecl) stmtNode() {}

// TraitEnv is the analyzer's per-trait environment: members plus the set of abstract members any composing
// class must still satisfy.
type TraitEnv struct {
	Members      map[string]*MemberInfo
	Requirements map[string]bool
}

// TraitDecl is `trait NAME { body }`.
type TraitDecl struct {
	base
	Name    string
	Members []Stmt // *VarDecl | *FunctionDecl

	Env *TraitEnv
}

func NewTraitDecl(gen *IDGen, span token.Span, name string) *TraitDecl {
	return &TraitDecl{base: newBase(gen, span), Name: name}
}

func (*TraitDecl) stmtNode() {}
