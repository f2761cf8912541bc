package compiler

import (
	"testing"

	"github.com/bite-lang/bite/internal/analyzer"
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/bytecode"
	"github.com/bite-lang/bite/internal/parser"
)

func compile(t *testing.T, src string) *bytecode.Chunk {
	t.Helper()
	prog, _, parseErrs := parser.ParseProgram("test.bite", src)
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	if errs := analyzer.Analyze(prog); len(errs) != 0 {
		t.Fatalf("unexpected analyzer errors: %v", errs)
	}
	return Program(prog, func(n ast.Node) int { return n.Span().Start.Line })
}

// ops decodes chunk's instruction stream into its bare opcodes, skipping
// operand bytes, for assertions that don't care about operand values.
func ops(chunk *bytecode.Chunk) []bytecode.Op {
	var out []bytecode.Op
	offset := 0
	for offset < len(chunk.Code) {
		op := bytecode.Op(chunk.Code[offset])
		out = append(out, op)
		offset += 1 + operandWidth(chunk, offset, op)
	}
	return out
}

func operandWidth(chunk *bytecode.Chunk, offset int, op bytecode.Op) int {
	switch op {
	case bytecode.OpConstant, bytecode.OpGetGlobal, bytecode.OpSetGlobal, bytecode.OpGetNative,
		bytecode.OpGetProperty, bytecode.OpSetProperty, bytecode.OpGetSuper,
		bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpGetUpvalue, bytecode.OpSetUpvalue,
		bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpJumpIfFalsePeek, bytecode.OpJumpIfTruePeek,
		bytecode.OpJumpIfNilPeek, bytecode.OpLoop, bytecode.OpClass, bytecode.OpIterNext:
		return 2
	case bytecode.OpCall, bytecode.OpInstance, bytecode.OpRange:
		return 1
	case bytecode.OpClosure:
		idx := chunk.ReadU16(offset + 1)
		width := 2
		if proto, ok := chunk.Constants[idx].(*bytecode.FunctionProto); ok {
			width += len(proto.Upvalues) * 3
		}
		return width
	default:
		return 0
	}
}

func hasConstant(chunk *bytecode.Chunk, want any) bool {
	for _, c := range chunk.Constants {
		if c == want {
			return true
		}
	}
	return false
}

func TestVarDeclBindsAGlobal(t *testing.T) {
	chunk := compile(t, "let x = 1 + 2;")
	got := ops(chunk)
	want := []bytecode.Op{
		bytecode.OpConstant, bytecode.OpConstant, bytecode.OpAdd,
		bytecode.OpSetGlobal, bytecode.OpPop,
		bytecode.OpNil, bytecode.OpReturn,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, op := range want {
		if got[i] != op {
			t.Fatalf("op %d: expected %s, got %s (full: %v)", i, op, got[i], got)
		}
	}
	if !hasConstant(chunk, int64(1)) || !hasConstant(chunk, int64(2)) {
		t.Fatalf("expected constant pool to carry both int literals, got %v", chunk.Constants)
	}
}

func TestIfExpressionLowersToTwoPatchedJumps(t *testing.T) {
	chunk := compile(t, `if true { 1 } else { 2 }`)
	got := ops(chunk)
	// TRUE, JUMP_IF_FALSE, CONSTANT(1), JUMP, CONSTANT(2), POP, NIL, RETURN
	want := []bytecode.Op{
		bytecode.OpTrue, bytecode.OpJumpIfFalse, bytecode.OpConstant,
		bytecode.OpJump, bytecode.OpConstant, bytecode.OpPop,
		bytecode.OpNil, bytecode.OpReturn,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, op := range want {
		if got[i] != op {
			t.Fatalf("op %d: expected %s, got %s (full: %v)", i, op, got[i], got)
		}
	}
}

func TestLoopWithBreakValuePatchesToLoopEnd(t *testing.T) {
	chunk := compile(t, `loop { break 42 }`)
	got := ops(chunk)
	// CONSTANT(42), JUMP (break's jump), POP (the block-as-statement's
	// dead-code discard, never reached because the jump above skips it),
	// LOOP (back-edge, likewise never reached), then the outer ExprStmt's
	// own POP discarding the loop's result, NIL, RETURN.
	want := []bytecode.Op{
		bytecode.OpConstant, bytecode.OpJump, bytecode.OpPop, bytecode.OpLoop,
		bytecode.OpPop, bytecode.OpNil, bytecode.OpReturn,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, op := range want {
		if got[i] != op {
			t.Fatalf("op %d: expected %s, got %s (full: %v)", i, op, got[i], got)
		}
	}
	// The break's jump must target the offset right after OpLoop's 3 bytes,
	// not backward into the loop body.
	loopByteOffset := -1
	for i := 0; i < len(chunk.Code); {
		if bytecode.Op(chunk.Code[i]) == bytecode.OpLoop {
			loopByteOffset = i
			break
		}
		i += 1 + operandWidth(chunk, i, bytecode.Op(chunk.Code[i]))
	}
	if loopByteOffset < 0 {
		t.Fatalf("expected to find a LOOP instruction in %v", chunk.Code)
	}
	jumpOperandOffset := 4 // CONSTANT(0,1,2) then JUMP's opcode at 3, its u16 operand at 4-5
	target := chunk.ReadU16(jumpOperandOffset)
	if int(target) != loopByteOffset+3 {
		t.Fatalf("expected break jump to target offset %d (right after LOOP), got %d", loopByteOffset+3, target)
	}
}

func TestClosureCapturesExactlyOneUpvaluePerOuterLocal(t *testing.T) {
	src := `fun outer() {
		let x = 1;
		fun inner() { x + x }
		inner
	}`
	chunk := compile(t, src)
	// outer's own body: CONSTANT, SET_LOCAL, POP (x), CLOSURE for inner,
	// SET_LOCAL, POP, GET_LOCAL, POP (the trailing `inner` is discarded), NIL, RETURN
	var outerProto *bytecode.FunctionProto
	for _, c := range chunk.Constants {
		if p, ok := c.(*bytecode.FunctionProto); ok && p.Name == "outer" {
			outerProto = p
		}
	}
	if outerProto == nil {
		t.Fatalf("expected a compiled FunctionProto named 'outer' in the constant pool")
	}
	var innerProto *bytecode.FunctionProto
	for _, c := range outerProto.Chunk.Constants {
		if p, ok := c.(*bytecode.FunctionProto); ok && p.Name == "inner" {
			innerProto = p
		}
	}
	if innerProto == nil {
		t.Fatalf("expected a compiled FunctionProto named 'inner' nested in outer's constants")
	}
	if len(innerProto.Upvalues) != 1 {
		t.Fatalf("expected inner to capture exactly one upvalue, got %d: %v", len(innerProto.Upvalues), innerProto.Upvalues)
	}
	if !innerProto.Upvalues[0].IsLocal {
		t.Fatalf("expected inner's upvalue to capture outer's local directly")
	}
}

func TestClassWithSuperclassEmitsInherit(t *testing.T) {
	src := `class A { m() { 1 } }
	class B : A { override m() { super.m() + 1 } }`
	chunk := compile(t, src)
	got := ops(chunk)
	// A: CLASS, SET_GLOBAL, POP
	// B: GET_GLOBAL(A), CLASS, INHERIT, SET_GLOBAL, POP
	// then NIL, RETURN
	want := []bytecode.Op{
		bytecode.OpClass, bytecode.OpSetGlobal, bytecode.OpPop,
		bytecode.OpGetGlobal, bytecode.OpClass, bytecode.OpInherit, bytecode.OpSetGlobal, bytecode.OpPop,
		bytecode.OpNil, bytecode.OpReturn,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, op := range want {
		if got[i] != op {
			t.Fatalf("op %d: expected %s, got %s (full: %v)", i, op, got[i], got)
		}
	}

	var bProto *bytecode.ClassProto
	for _, c := range chunk.Constants {
		if p, ok := c.(*bytecode.ClassProto); ok && p.Name == "B" {
			bProto = p
		}
	}
	if bProto == nil {
		t.Fatalf("expected a compiled ClassProto named 'B'")
	}
	if bProto.SuperName != "A" {
		t.Fatalf("expected B's SuperName to be 'A', got %q", bProto.SuperName)
	}
	m, ok := bProto.Methods["m"]
	if !ok {
		t.Fatalf("expected B to carry its own compiled 'm' method, got %v", bProto.Methods)
	}
	// super.m() + 1: GET_SUPER, CALL argc=0, CONSTANT(1), ADD; the block's own
	// value is then discarded (POP) since only an explicit `return` produces
	// a function's result, followed by the unconditional NIL/RETURN trailer.
	mOps := ops(m.Chunk)
	wantM := []bytecode.Op{
		bytecode.OpGetSuper, bytecode.OpCall, bytecode.OpConstant, bytecode.OpAdd, bytecode.OpPop,
		bytecode.OpNil, bytecode.OpReturn,
	}
	if len(mOps) != len(wantM) {
		t.Fatalf("expected method body ops %v, got %v", wantM, mOps)
	}
	for i, op := range wantM {
		if mOps[i] != op {
			t.Fatalf("method op %d: expected %s, got %s (full: %v)", i, op, mOps[i], mOps)
		}
	}
}

func TestTraitMemberIsFoldedIntoComposingClass(t *testing.T) {
	src := `trait T { f(); g() { f() } }
	class C { using T; override f() { 10 } }`
	chunk := compile(t, src)
	var cProto *bytecode.ClassProto
	for _, c := range chunk.Constants {
		if p, ok := c.(*bytecode.ClassProto); ok && p.Name == "C" {
			cProto = p
		}
	}
	if cProto == nil {
		t.Fatalf("expected a compiled ClassProto named 'C'")
	}
	if _, ok := cProto.Methods["f"]; !ok {
		t.Fatalf("expected C's own 'f' to be present, got %v", cProto.Methods)
	}
	if _, ok := cProto.Methods["g"]; !ok {
		t.Fatalf("expected T's 'g' to be folded into C, got %v", cProto.Methods)
	}
}

func TestForLoopCompilesIterProtocol(t *testing.T) {
	chunk := compile(t, `for i in 0..3 { i; }`)
	got := ops(chunk)
	// Iterable setup, then per-iteration: ITER_NEXT (loop test), bind the
	// loop variable, the body block ("i;" then its own implicit nil since
	// the last statement ends in ';'), then the LOOP back-edge. After the
	// loop: drop the exhausted iterator, push nil, and (since the whole
	// `for` is itself a statement) pop that nil too.
	want := []bytecode.Op{
		bytecode.OpConstant, bytecode.OpConstant, bytecode.OpRange, bytecode.OpIterInit,
		bytecode.OpIterNext, bytecode.OpSetLocal, bytecode.OpPop,
		bytecode.OpGetLocal, bytecode.OpPop, bytecode.OpNil, bytecode.OpPop,
		bytecode.OpLoop,
		bytecode.OpPop, bytecode.OpNil,
		bytecode.OpPop, bytecode.OpNil, bytecode.OpReturn,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, op := range want {
		if got[i] != op {
			t.Fatalf("op %d: expected %s, got %s (full: %v)", i, op, got[i], got)
		}
	}
}

func TestInclusiveRangeEmitsRangeWithInclusiveOperand(t *testing.T) {
	chunk := compile(t, `return 0...3;`)
	offset := -1
	for i := 0; i < len(chunk.Code); {
		if bytecode.Op(chunk.Code[i]) == bytecode.OpRange {
			offset = i
			break
		}
		i += 1 + operandWidth(chunk, i, bytecode.Op(chunk.Code[i]))
	}
	if offset < 0 {
		t.Fatalf("expected a RANGE instruction, got %v", ops(chunk))
	}
	if got := chunk.Code[offset+1]; got != 1 {
		t.Fatalf("expected inclusive operand 1, got %d", got)
	}
}
