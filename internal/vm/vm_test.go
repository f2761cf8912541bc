package vm

import (
	"testing"

	"github.com/bite-lang/bite/internal/analyzer"
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/compiler"
	"github.com/bite-lang/bite/internal/parser"
)

// run lexes, parses, analyzes and compiles src, then executes the resulting
// chunk on a fresh VM, failing the test on any diagnostic or runtime error.
func run(t *testing.T, src string) Value {
	t.Helper()
	prog, _, parseErrs := parser.ParseProgram("test.bite", src)
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	if errs := analyzer.Analyze(prog); len(errs) != 0 {
		t.Fatalf("unexpected analyzer errors: %v", errs)
	}
	chunk := compiler.Program(prog, func(n ast.Node) int { return n.Span().Start.Line })

	v, err := New(nil).Run(chunk)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	return v
}

func TestArithmeticWithPrecedence(t *testing.T) {
	v := run(t, "let x = 1 + 2 * 3; return x;")
	if !v.IsInt() || v.AsInt() != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestClosureCapturesAndMutatesAnUpvalue(t *testing.T) {
	src := `
	fun mk() {
		let count = 0;
		fun c() {
			count = count + 1;
			return count;
		}
		return c;
	}
	let counter = mk();
	counter();
	counter();
	return counter();
	`
	v := run(t, src)
	if !v.IsInt() || v.AsInt() != 3 {
		t.Fatalf("expected 3, got %v", v)
	}
}

func TestForLoopOverRangeAccumulatesAString(t *testing.T) {
	src := `
	fun build() {
		let s = "";
		for i in 0..3 {
			s = s + "x";
		}
		return s;
	}
	return build();
	`
	v := run(t, src)
	if !v.IsString() || v.AsString() != "xxx" {
		t.Fatalf("expected \"xxx\", got %v", v)
	}
}

func TestForLoopOverInclusiveRangeIncludesTheUpperBound(t *testing.T) {
	src := `
	fun build() {
		let s = "";
		for i in 0...3 {
			s = s + "x";
		}
		return s;
	}
	return build();
	`
	v := run(t, src)
	if !v.IsString() || v.AsString() != "xxxx" {
		t.Fatalf("expected \"xxxx\", got %v", v)
	}
}

func TestRangeContainsNativeHonorsInclusivity(t *testing.T) {
	v := run(t, `native range_contains; return range_contains(0...3, 3);`)
	if !v.IsBool() || v.AsBool() != true {
		t.Fatalf("expected true, got %v", v)
	}
}

func TestClassFieldAndMethodMutateState(t *testing.T) {
	src := `
	class Counter {
		count = 0;
		bump() {
			count = count + 1;
			return count;
		}
	}
	let c = Counter();
	c.bump();
	return c.bump();
	`
	v := run(t, src)
	if !v.IsInt() || v.AsInt() != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestLoopBreakWithValue(t *testing.T) {
	v := run(t, `return loop { break 42 };`)
	if !v.IsInt() || v.AsInt() != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestIfAsExpressionStatementPicksTheTrueBranch(t *testing.T) {
	v := run(t, `if 1 < 2 { return "yes"; } else { return "no"; }`)
	if !v.IsString() || v.AsString() != "yes" {
		t.Fatalf("expected \"yes\", got %v", v)
	}
}

func TestOverrideDispatchesThroughSuper(t *testing.T) {
	src := `
	class A { m() { return 1; } }
	class B : A { override m() { return super.m() + 1; } }
	return B().m();
	`
	v := run(t, src)
	if !v.IsInt() || v.AsInt() != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestClassOwnMethodWinsOverSameNamedTraitMethod(t *testing.T) {
	src := `
	trait T { g() { return 99; } }
	class C { using T; override g() { return 10; } }
	return C().g();
	`
	v := run(t, src)
	if !v.IsInt() || v.AsInt() != 10 {
		t.Fatalf("expected the class's own method (10) to win over the trait's (99), got %v", v)
	}
}

func TestTraitMethodIsUsableWhenNotShadowed(t *testing.T) {
	src := `
	trait T { f(); g() { return f() + 1; } }
	class C { using T; override f() { return 10; } }
	return C().g();
	`
	v := run(t, src)
	if !v.IsInt() || v.AsInt() != 11 {
		t.Fatalf("expected 11, got %v", v)
	}
}

func TestDivisionByZeroIsARuntimeError(t *testing.T) {
	prog, _, parseErrs := parser.ParseProgram("test.bite", "return 1 / 0;")
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	if errs := analyzer.Analyze(prog); len(errs) != 0 {
		t.Fatalf("unexpected analyzer errors: %v", errs)
	}
	chunk := compiler.Program(prog, func(n ast.Node) int { return n.Span().Start.Line })
	_, err := New(nil).Run(chunk)
	if err == nil {
		t.Fatalf("expected a runtime error for division by zero")
	}
}

func TestStringConcatenationWithPlus(t *testing.T) {
	v := run(t, `return "foo" + "bar";`)
	if !v.IsString() || v.AsString() != "foobar" {
		t.Fatalf("expected \"foobar\", got %v", v)
	}
}

func TestShortCircuitAndDoesNotEvaluateRightOnFalseLeft(t *testing.T) {
	// If && evaluated its right operand anyway, dividing by zero would
	// raise a runtime error instead of letting the whole expression return
	// the falsey left operand.
	v := run(t, `return false && (1 / 0 == 0);`)
	if !v.IsBool() || v.AsBool() != false {
		t.Fatalf("expected false, got %v", v)
	}
}

func TestNilCoalescingPicksTheRightOperandOnlyWhenLeftIsNil(t *testing.T) {
	v := run(t, `let x; return x ?? 5;`)
	if !v.IsInt() || v.AsInt() != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestGetterComputesValueInsteadOfReturningAMethod(t *testing.T) {
	src := `
	class Box {
		raw = 0;
		get doubled() {
			return raw * 2;
		}
	}
	let b = Box();
	b.raw = 21;
	return b.doubled;
	`
	v := run(t, src)
	if !v.IsInt() || v.AsInt() != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestSetterIsInvokedInsteadOfWritingAField(t *testing.T) {
	src := `
	class Box {
		raw = 0;
		get doubled() {
			return raw;
		}
		set doubled(v) {
			raw = v * 2;
		}
	}
	let b = Box();
	b.doubled = 10;
	return b.doubled;
	`
	v := run(t, src)
	if !v.IsInt() || v.AsInt() != 20 {
		t.Fatalf("expected 20, got %v", v)
	}
}

func TestGetterOnlyPropertyRejectsAssignment(t *testing.T) {
	src := `
	class ReadOnly {
		get value() {
			return 1;
		}
	}
	let r = ReadOnly();
	r.value = 2;
	`
	prog, _, parseErrs := parser.ParseProgram("test.bite", src)
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	if errs := analyzer.Analyze(prog); len(errs) != 0 {
		t.Fatalf("unexpected analyzer errors: %v", errs)
	}
	chunk := compiler.Program(prog, func(n ast.Node) int { return n.Span().Start.Line })
	_, err := New(nil).Run(chunk)
	if err == nil {
		t.Fatalf("expected a runtime error assigning to a getter-only property")
	}
}
