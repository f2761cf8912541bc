package parser

import (
	"testing"

	"github.com/bite-lang/bite/internal/ast"
)

func parse(t *testing.T, src string) (*ast.Program, []string) {
	t.Helper()
	prog, _, ds := ParseProgram("test.bite", src)
	var msgs []string
	for _, d := range ds {
		msgs = append(msgs, d.Message)
	}
	return prog, msgs
}

func TestParseVarDecl(t *testing.T) {
	prog, errs := parse(t, "let x = 1 + 2;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(prog.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Stmts))
	}
	decl, ok := prog.Stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("expected *ast.VarDecl, got %T", prog.Stmts[0])
	}
	if decl.Name != "x" {
		t.Fatalf("expected name 'x', got %q", decl.Name)
	}
	bin, ok := decl.Init.(*ast.Binary)
	if !ok {
		t.Fatalf("expected *ast.Binary initializer, got %T", decl.Init)
	}
	if _, ok := bin.Left.(*ast.Literal); !ok {
		t.Fatalf("expected literal left operand, got %T", bin.Left)
	}
}

func TestVarDeclOmittedInitializerDefaultsToNilLater(t *testing.T) {
	prog, errs := parse(t, "let x;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	decl := prog.Stmts[0].(*ast.VarDecl)
	if decl.Init != nil {
		t.Fatalf("expected nil Init for omitted initializer, got %T", decl.Init)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3).
	prog, errs := parse(t, "let x = 1 + 2 * 3;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	decl := prog.Stmts[0].(*ast.VarDecl)
	top, ok := decl.Init.(*ast.Binary)
	if !ok {
		t.Fatalf("expected top-level Binary, got %T", decl.Init)
	}
	if top.Op.String() != "+" {
		t.Fatalf("expected top-level '+', got %s", top.Op)
	}
	right, ok := top.Right.(*ast.Binary)
	if !ok {
		t.Fatalf("expected right operand to be Binary (2*3), got %T", top.Right)
	}
	if right.Op.String() != "*" {
		t.Fatalf("expected right operand op '*', got %s", right.Op)
	}
}

func TestNilCoalescingParsesAsBinary(t *testing.T) {
	prog, errs := parse(t, "let x = a ?? 5;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	decl := prog.Stmts[0].(*ast.VarDecl)
	bin, ok := decl.Init.(*ast.Binary)
	if !ok {
		t.Fatalf("expected Binary, got %T", decl.Init)
	}
	if bin.Op.String() != "??" {
		t.Fatalf("expected '??', got %s", bin.Op)
	}
}

func TestNilCoalescingAssignParsesAsCompoundAssign(t *testing.T) {
	prog, errs := parse(t, "fun f() { let a = 0; a ??= 5; }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := prog.Stmts[0].(*ast.FunctionDecl)
	last := fn.Body.Stmts[len(fn.Body.Stmts)-1].(*ast.ExprStmt)
	assign, ok := last.X.(*ast.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", last.X)
	}
	if assign.Op.String() != "??=" {
		t.Fatalf("expected '??=', got %s", assign.Op)
	}
}

func TestDotDotDotParsesAnInclusiveRange(t *testing.T) {
	prog, errs := parse(t, "let x = 0...3;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	decl := prog.Stmts[0].(*ast.VarDecl)
	rng, ok := decl.Init.(*ast.RangeExpr)
	if !ok {
		t.Fatalf("expected RangeExpr, got %T", decl.Init)
	}
	if !rng.Inclusive {
		t.Fatalf("expected an inclusive range for '...'")
	}
}

func TestDotDotParsesAHalfOpenRange(t *testing.T) {
	prog, errs := parse(t, "let x = 0..3;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	decl := prog.Stmts[0].(*ast.VarDecl)
	rng, ok := decl.Init.(*ast.RangeExpr)
	if !ok {
		t.Fatalf("expected RangeExpr, got %T", decl.Init)
	}
	if rng.Inclusive {
		t.Fatalf("expected a half-open range for '..'")
	}
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	prog, errs := parse(t, "fun f() { let a = 0; let b = 0; a = b = 3; }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := prog.Stmts[0].(*ast.FunctionDecl)
	last := fn.Body.Stmts[len(fn.Body.Stmts)-1].(*ast.ExprStmt)
	assign, ok := last.X.(*ast.Assign)
	if !ok {
		t.Fatalf("expected outer Assign, got %T", last.X)
	}
	if _, ok := assign.Value.(*ast.Assign); !ok {
		t.Fatalf("expected nested Assign as value (right-associative), got %T", assign.Value)
	}
}

func TestBlockIsAnExpressionWithTrailingValue(t *testing.T) {
	prog, errs := parse(t, "let x = { let y = 1; y + 1 };")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	decl := prog.Stmts[0].(*ast.VarDecl)
	block, ok := decl.Init.(*ast.Block)
	if !ok {
		t.Fatalf("expected block expression, got %T", decl.Init)
	}
	if block.Trailing == nil {
		t.Fatalf("expected block to carry a trailing expression")
	}
	if len(block.Stmts) != 1 {
		t.Fatalf("expected 1 leading statement, got %d", len(block.Stmts))
	}
}

func TestBlockWithSemicolonTailEvaluatesToNil(t *testing.T) {
	prog, errs := parse(t, "let x = { let y = 1; y + 1; };")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	decl := prog.Stmts[0].(*ast.VarDecl)
	block := decl.Init.(*ast.Block)
	if block.Trailing != nil {
		t.Fatalf("expected no trailing expression when the last statement ends in ';', got %T", block.Trailing)
	}
}

func TestIfAsExpressionNoSemicolonRequired(t *testing.T) {
	_, errs := parse(t, `if 1 < 2 { "yes" } else { "no" }`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestControlFlowStatementsDontRequireSemicolons(t *testing.T) {
	src := `
	loop { break 1 }
	while false { 1; }
	for i in 0..3 { i; }
	`
	_, errs := parse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestLabeledLoopAndBreakContinue(t *testing.T) {
	prog, errs := parse(t, `@outer: loop { break @outer 42 }`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	stmt := prog.Stmts[0].(*ast.ExprStmt)
	loop, ok := stmt.X.(*ast.LoopExpr)
	if !ok {
		t.Fatalf("expected *ast.LoopExpr, got %T", stmt.X)
	}
	if loop.Label != "outer" {
		t.Fatalf("expected label 'outer', got %q", loop.Label)
	}
}

func TestFunctionDeclaration(t *testing.T) {
	prog, errs := parse(t, "fun add(a, b) { a + b }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn, ok := prog.Stmts[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("expected *ast.FunctionDecl, got %T", prog.Stmts[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("expected add(a, b), got %s(%v)", fn.Name, fn.Params)
	}
}

func TestClassDeclarationWithSuperclass(t *testing.T) {
	src := `
	class A { m() { 1 } }
	class B : A {
		override m() { super.m() + 1 }
	}
	`
	prog, errs := parse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	b, ok := prog.Stmts[1].(*ast.ClassDecl)
	if !ok {
		t.Fatalf("expected *ast.ClassDecl, got %T", prog.Stmts[1])
	}
	if b.SuperName != "A" {
		t.Fatalf("expected superclass 'A', got %q", b.SuperName)
	}
	method, ok := b.Members[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("expected *ast.FunctionDecl member, got %T", b.Members[0])
	}
	if !method.Attrs.Override {
		t.Fatalf("expected override attribute on m")
	}
}

func TestTraitUsingWithExcludeAndAs(t *testing.T) {
	src := `
	trait T { f(); g() { f() } }
	class C { using T(exclude g, f as helper); }
	`
	prog, errs := parse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	c := prog.Stmts[1].(*ast.ClassDecl)
	using, ok := c.Members[0].(*ast.UsingStmt)
	if !ok {
		t.Fatalf("expected *ast.UsingStmt, got %T", c.Members[0])
	}
	if using.Trait != "T" {
		t.Fatalf("expected trait 'T', got %q", using.Trait)
	}
	if len(using.Excludes) != 1 || using.Excludes[0] != "g" {
		t.Fatalf("expected exclude [g], got %v", using.Excludes)
	}
	if using.Renames["f"] != "helper" {
		t.Fatalf("expected rename f -> helper, got %v", using.Renames)
	}
}

func TestParseErrorRecoveryReachesEOFAndCollectsAllErrors(t *testing.T) {
	// Two independent malformed statements; the parser must recover from
	// the first and still find the second.
	src := `let = ;
	let y = 1;
	let = ;`
	prog, errs := parse(t, src)
	if len(errs) < 2 {
		t.Fatalf("expected at least 2 diagnostics (one per malformed statement), got %d: %v", len(errs), errs)
	}
	if prog == nil {
		t.Fatalf("expected a (partial) AST even with parse errors")
	}
}

func TestMissingSemicolonProducesSingleDiagnosticAndRecovers(t *testing.T) {
	// A missing ';' synchronizes on the next declaration-starter ('let')
	// without swallowing it, so exactly one diagnostic is reported and the
	// following declaration still parses.
	prog, errs := parse(t, "let x = 1 let y = 2;")
	if len(errs) != 1 {
		t.Fatalf("expected exactly one diagnostic for the missing ';', got %d: %v", len(errs), errs)
	}
	if len(prog.Stmts) != 2 {
		t.Fatalf("expected both declarations to be present in the recovered AST, got %d statements", len(prog.Stmts))
	}
}
