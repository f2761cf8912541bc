// Package bytecode defines Bite's instruction set and compiled-chunk
// representation: a flat one-byte-opcode stream with 16-bit
// big-endian jump offsets, one constant pool and one local-variable frame
// per function.
package bytecode

// Op is a single bytecode instruction opcode.
type Op byte

const (
	// ----- constants and literals -----

	// OpConstant pushes a constant pool entry. Operand: u16 constant index.
	// Stack: [] -> [value]
	OpConstant Op = iota
	// OpNil pushes nil. Stack: [] -> [nil]
	OpNil
	// OpTrue pushes true. Stack: [] -> [true]
	OpTrue
	// OpFalse pushes false. Stack: [] -> [false]
	OpFalse
	// OpPop discards the top of stack. Stack: [v] -> []
	OpPop

	// ----- variables -----

	// OpGetLocal pushes local slot. Operand: u16 slot index. Stack: [] -> [v]
	OpGetLocal
	// OpSetLocal stores into local slot without popping. Operand: u16 slot.
	// Stack: [v] -> [v]
	OpSetLocal
	// OpGetUpvalue pushes a captured upvalue. Operand: u16 upvalue index.
	OpGetUpvalue
	// OpSetUpvalue stores into a captured upvalue without popping.
	OpSetUpvalue
	// OpGetGlobal pushes a global by name. Operand: u16 constant index (name).
	OpGetGlobal
	// OpSetGlobal stores into a global without popping. Operand: u16 constant
	// index (name).
	OpSetGlobal
	// OpGetNative pushes a native binding's runtime value. Operand: u16
	// constant index (name).
	OpGetNative

	// ----- arithmetic / comparison / logic -----

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpNeg
	OpNot
	OpBitNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe

	// ----- control flow -----

	// OpJump unconditionally jumps. Operand: u16 big-endian absolute target.
	OpJump
	// OpJumpIfFalse pops and jumps if the popped value is falsey. Operand:
	// u16 big-endian absolute target. Stack: [cond] -> []
	OpJumpIfFalse
	// OpJumpIfFalsePeek jumps if the top of stack is falsey without popping
	// it (used to short-circuit `&&`). Stack: [cond] -> [cond]
	OpJumpIfFalsePeek
	// OpJumpIfTruePeek jumps if the top of stack is truthy without popping
	// it (used to short-circuit `||`). Stack: [cond] -> [cond]
	OpJumpIfTruePeek
	// OpJumpIfNilPeek jumps if the top of stack is nil without popping it
	// (used to lower `??`/`??=`). Stack: [v] -> [v]
	OpJumpIfNilPeek
	// OpLoop is OpJump spelled separately for disassembly readability: it
	// always jumps backward, to a loop's condition re-check.
	OpLoop

	// ----- functions -----

	// OpClosure wraps a compiled function constant into a Closure, reading
	// its upvalue descriptors immediately following the instruction.
	// Operand: u16 constant index (FunctionProto); then for each upvalue,
	// one byte (1 = capture enclosing local, 0 = forward enclosing upvalue)
	// followed by a u16 index.
	OpClosure
	// OpCloseUpvalue pops the top of stack and closes nothing: upvalues are
	// closed when their owning frame returns, and the compiler never emits
	// this opcode. Stack: [v] -> []
	OpCloseUpvalue
	// OpCall invokes a callable. Operand: one byte argument count.
	// Stack: [callee, arg0, ..., argN-1] -> [result]
	OpCall
	// OpReturn returns from the current function with the top of stack as
	// the result. Stack: [v] -> [] (frame popped)
	OpReturn

	// ----- classes -----

	// OpClass pushes a freshly constructed ClassObject. Operand: u16
	// constant index (ClassProto).
	OpClass
	// OpInherit links the class at top-of-stack as the subclass of the
	// class below it. Inherited members are not copied: lookups walk the
	// Super chain. Stack: [super, sub] -> [sub]
	OpInherit
	// OpGetProperty looks up a named member on the popped receiver. Operand:
	// u16 constant index (name). Stack: [recv] -> [value]
	OpGetProperty
	// OpSetProperty stores into a named member without popping the value.
	// Operand: u16 constant index (name). Stack: [recv, v] -> [v]
	OpSetProperty
	// OpGetSuper looks up a named member starting at the current method's
	// superclass, using `this` implicitly. Operand: u16 constant index
	// (name). Stack: [] -> [bound method]
	OpGetSuper
	// OpInstance constructs a new instance of the class at top of stack and
	// invokes its constructor with the given argument count. Operand: one
	// byte argument count. Stack: [class, arg0, ..., argN-1] -> [instance]
	OpInstance

	// ----- misc -----

	// OpIterInit starts a `for` loop's iteration, turning the popped range
	// into a range cursor (a range is the only iterable value; no method is
	// called). Stack: [iterable] -> [iterator]
	OpIterInit
	// OpIterNext advances the cursor at top of stack, pushing the next
	// element, or jumps to Operand (u16) when exhausted without pushing
	// anything. Stack: [iter] -> [iter, elem]
	OpIterNext
	// OpRange constructs a range value from the two popped bounds. Operand:
	// one byte, 1 if the range is inclusive (`...`), 0 if half-open (`..`).
	// Stack: [start, end] -> [range]
	OpRange
)

var names = [...]string{
	OpConstant: "CONSTANT", OpNil: "NIL", OpTrue: "TRUE", OpFalse: "FALSE", OpPop: "POP",
	OpGetLocal: "GET_LOCAL", OpSetLocal: "SET_LOCAL", OpGetUpvalue: "GET_UPVALUE",
	OpSetUpvalue: "SET_UPVALUE", OpGetGlobal: "GET_GLOBAL", OpSetGlobal: "SET_GLOBAL",
	OpGetNative: "GET_NATIVE",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpFloorDiv: "FLOOR_DIV",
	OpMod: "MOD", OpNeg: "NEG", OpNot: "NOT", OpBitNot: "BIT_NOT", OpBitAnd: "BIT_AND",
	OpBitOr: "BIT_OR", OpBitXor: "BIT_XOR", OpShl: "SHL", OpShr: "SHR",
	OpEq: "EQ", OpNeq: "NEQ", OpLt: "LT", OpLe: "LE", OpGt: "GT", OpGe: "GE",
	OpJump: "JUMP", OpJumpIfFalse: "JUMP_IF_FALSE", OpJumpIfFalsePeek: "JUMP_IF_FALSE_PEEK",
	OpJumpIfTruePeek: "JUMP_IF_TRUE_PEEK", OpJumpIfNilPeek: "JUMP_IF_NIL_PEEK", OpLoop: "LOOP",
	OpClosure: "CLOSURE", OpCloseUpvalue: "CLOSE_UPVALUE", OpCall: "CALL", OpReturn: "RETURN",
	OpClass: "CLASS", OpInherit: "INHERIT", OpGetProperty: "GET_PROPERTY",
	OpSetProperty: "SET_PROPERTY", OpGetSuper: "GET_SUPER", OpInstance: "INSTANCE",
	OpIterInit: "ITER_INIT", OpIterNext: "ITER_NEXT", OpRange: "RANGE",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "UNKNOWN"
}

// operandWidth returns how many operand bytes follow op in the instruction
// stream (-1 for OpClosure, whose upvalue trailer has variable width).
func operandWidth(op Op) int {
	switch op {
	case OpConstant, OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue,
		OpGetGlobal, OpSetGlobal, OpGetNative, OpJump, OpJumpIfFalse,
		OpJumpIfFalsePeek, OpJumpIfTruePeek, OpJumpIfNilPeek, OpLoop, OpClass,
		OpGetProperty, OpSetProperty, OpGetSuper, OpIterNext:
		return 2
	case OpCall, OpInstance, OpRange:
		return 1
	case OpClosure:
		return -1 // variable width: handled specially by the disassembler
	default:
		return 0
	}
}
