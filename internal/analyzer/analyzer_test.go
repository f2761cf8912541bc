package analyzer

import (
	"strings"
	"testing"

	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/parser"
)

func analyze(t *testing.T, src string) (*ast.Program, []string) {
	t.Helper()
	prog, _, parseErrs := parser.ParseProgram("test.bite", src)
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	ds := Analyze(prog)
	var msgs []string
	for _, d := range ds {
		msgs = append(msgs, d.Message)
	}
	return prog, msgs
}

func containsSubstr(msgs []string, substr string) bool {
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestResolveLocalVariable(t *testing.T) {
	prog, errs := analyze(t, "fun f() { let x = 1; x }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := prog.Stmts[0].(*ast.FunctionDecl)
	trailing := fn.Body.Trailing.(*ast.Variable)
	if trailing.Binding == nil || trailing.Binding.Kind != ast.LocalBinding {
		t.Fatalf("expected LocalBinding, got %+v", trailing.Binding)
	}
}

func TestResolveGlobalVariable(t *testing.T) {
	prog, errs := analyze(t, "let g = 1; fun f() { g }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := prog.Stmts[1].(*ast.FunctionDecl)
	trailing := fn.Body.Trailing.(*ast.Variable)
	if trailing.Binding == nil || trailing.Binding.Kind != ast.GlobalBinding {
		t.Fatalf("expected GlobalBinding, got %+v", trailing.Binding)
	}
}

func TestUnresolvedNameIsAnError(t *testing.T) {
	_, errs := analyze(t, "fun f() { undefined_name }")
	if !containsSubstr(errs, "undefined name") {
		t.Fatalf("expected an 'undefined name' diagnostic, got %v", errs)
	}
}

func TestDuplicateGlobalDeclarationIsAnError(t *testing.T) {
	_, errs := analyze(t, "let x = 1; let x = 2;")
	if !containsSubstr(errs, "already declared") {
		t.Fatalf("expected a duplicate declaration diagnostic, got %v", errs)
	}
}

func TestDuplicateLocalDeclarationInSameScopeIsAnError(t *testing.T) {
	_, errs := analyze(t, "fun f() { let x = 1; let x = 2; }")
	if !containsSubstr(errs, "already declared") {
		t.Fatalf("expected a duplicate declaration diagnostic, got %v", errs)
	}
}

func TestShadowingInNestedScopeIsAllowed(t *testing.T) {
	_, errs := analyze(t, "fun f() { let x = 1; { let x = 2; x } }")
	if len(errs) != 0 {
		t.Fatalf("expected no errors for shadowing in a nested scope, got %v", errs)
	}
}

func TestThisOutsideMethodIsAnError(t *testing.T) {
	_, errs := analyze(t, "fun f() { this }")
	if !containsSubstr(errs, "'this' used outside of a method") {
		t.Fatalf("expected a 'this' diagnostic, got %v", errs)
	}
}

func TestThisInsideMethodIsFine(t *testing.T) {
	_, errs := analyze(t, "class C { m() { this } }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestSuperInClassWithoutSuperclassIsAnError(t *testing.T) {
	_, errs := analyze(t, "class C { m() { super.m() } }")
	if !containsSubstr(errs, "has no superclass") {
		t.Fatalf("expected a 'no superclass' diagnostic, got %v", errs)
	}
}

func TestBreakOutsideLoopIsAnError(t *testing.T) {
	_, errs := analyze(t, "fun f() { break }")
	if !containsSubstr(errs, "'break' used outside of a loop") {
		t.Fatalf("expected a 'break' diagnostic, got %v", errs)
	}
}

func TestContinueOutsideLoopIsAnError(t *testing.T) {
	_, errs := analyze(t, "fun f() { continue }")
	if !containsSubstr(errs, "'continue' used outside of a loop") {
		t.Fatalf("expected a 'continue' diagnostic, got %v", errs)
	}
}

func TestBreakWithMismatchedLabelIsAnError(t *testing.T) {
	_, errs := analyze(t, "fun f() { @a: loop { break @b } }")
	if !containsSubstr(errs, "no enclosing loop or block labeled @b") {
		t.Fatalf("expected an unmatched label diagnostic, got %v", errs)
	}
}

func TestBreakWithMatchingLabelResolves(t *testing.T) {
	_, errs := analyze(t, "fun f() { @a: loop { break @a 1 } }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestUpvalueDedupWithinOneClosure(t *testing.T) {
	// Capturing the same outer local twice inside one inner function must
	// produce exactly one upvalue descriptor.
	prog, errs := analyze(t, "fun outer() { let x = 1; fun inner() { x + x } }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	outer := prog.Stmts[0].(*ast.FunctionDecl)
	var inner *ast.FunctionDecl
	for _, s := range outer.Body.Stmts {
		if fn, ok := s.(*ast.FunctionDecl); ok {
			inner = fn
		}
	}
	if inner == nil {
		t.Fatalf("expected to find the nested function declaration")
	}
	if len(inner.Env.Upvalues) != 1 {
		t.Fatalf("expected exactly one upvalue descriptor, got %d: %v", len(inner.Env.Upvalues), inner.Env.Upvalues)
	}
}

func TestUpvalueDedupAcrossTwoDistinctInnerFunctions(t *testing.T) {
	// Two different inner functions each capturing the same outer local
	// must each get their own descriptor (one per function), not share one.
	src := `fun outer() {
		let x = 1;
		fun a() { x }
		fun b() { x }
	}`
	prog, errs := analyze(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	outer := prog.Stmts[0].(*ast.FunctionDecl)
	var fns []*ast.FunctionDecl
	for _, s := range outer.Body.Stmts {
		if fn, ok := s.(*ast.FunctionDecl); ok {
			fns = append(fns, fn)
		}
	}
	if len(fns) != 2 {
		t.Fatalf("expected 2 nested function declarations, got %d", len(fns))
	}
	for _, fn := range fns {
		if len(fn.Env.Upvalues) != 1 {
			t.Fatalf("expected %s to capture exactly one upvalue, got %d", fn.Name, len(fn.Env.Upvalues))
		}
		if !fn.Env.Upvalues[0].IsLocal {
			t.Fatalf("expected %s's upvalue to reference the outer local directly", fn.Name)
		}
	}
}

func TestOverrideWithoutAttributeIsAnError(t *testing.T) {
	src := `class A { m() { 1 } }
	class B : A { m() { 2 } }`
	_, errs := analyze(t, src)
	if !containsSubstr(errs, "without 'override'") {
		t.Fatalf("expected a missing-override diagnostic, got %v", errs)
	}
}

func TestOverrideAttributeWithNoInheritedMemberIsAnError(t *testing.T) {
	_, errs := analyze(t, "class A { override m() { 1 } }")
	if !containsSubstr(errs, "does not override anything") {
		t.Fatalf("expected a spurious-override diagnostic, got %v", errs)
	}
}

func TestValidOverrideIsAccepted(t *testing.T) {
	src := `class A { m() { 1 } }
	class B : A { override m() { super.m() + 1 } }`
	_, errs := analyze(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestAbstractClassAllowsAbstractMembers(t *testing.T) {
	_, errs := analyze(t, "class abstract A { abstract m(); }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestConcreteSubclassMustImplementAbstractMembers(t *testing.T) {
	src := `class abstract A { abstract m(); }
	class B : A { }`
	_, errs := analyze(t, src)
	if !containsSubstr(errs, "must implement abstract member") {
		t.Fatalf("expected an unimplemented-abstract-member diagnostic, got %v", errs)
	}
}

func TestTraitRequirementSatisfiedByConcreteMember(t *testing.T) {
	// f is a trait requirement (no body); implementing it in the composing
	// class shadows the trait's entry in members, so it needs 'override'
	// the same as shadowing an inherited superclass member would.
	src := `trait T { f(); g() { f() } }
	class C { using T; override f() { 10 } }`
	_, errs := analyze(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestTraitExcludeDropsAMember(t *testing.T) {
	// g is excluded from the using clause, so C's own g is a fresh
	// declaration, not a shadow, and needs no 'override'. f is still
	// composed in from T and must be overridden to be implemented.
	src := `trait T { f(); g() { f() } }
	class C { using T(exclude g); override f() { 10 } g() { 99 } }`
	_, errs := analyze(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestSuperConstructorArityMismatchIsAnError(t *testing.T) {
	src := `class A { init(x) { } }
	class B : A { init() : super() { } }`
	_, errs := analyze(t, src)
	if !containsSubstr(errs, "expects 1 argument") {
		t.Fatalf("expected a super-constructor arity diagnostic, got %v", errs)
	}
}

func TestSuperConstructorCallWithNoSuperclassIsAnError(t *testing.T) {
	_, errs := analyze(t, "class A { init() : super() { } }")
	if !containsSubstr(errs, "has no superclass constructor") {
		t.Fatalf("expected a no-superclass-constructor diagnostic, got %v", errs)
	}
}
