package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/bite-lang/bite/internal/bytecode"
	"github.com/bite-lang/bite/internal/gc"
)

// RuntimeError is what Run/invoke return for a failure inside the execution
// loop: a type error, an arity mismatch, a missing property, a non-callable
// invocation, or a division by zero. Per the language's failure semantics
// there is no catch facility; a RuntimeError always unwinds every frame.
type RuntimeError struct {
	Message string
	Line    int
	Trace   []string // frame names, innermost first
}

func (e *RuntimeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "runtime error at line %d: %s", e.Line, e.Message)
	for _, name := range e.Trace {
		fmt.Fprintf(&sb, "\n  at %s", name)
	}
	return sb.String()
}

// VM executes bytecode.Chunks produced by the compiler: a shared operand
// stack, a frame stack (one entry per in-flight call), the global table, the
// open-upvalue list, and the heap the collector tracks.
type VM struct {
	stack        []Value
	frames       []*frame
	globals      map[string]Value
	natives      map[string]*Native
	openUpvalues []*Upvalue

	gc  *gc.Collector
	out io.Writer
}

const maxFrames = 1024

// New creates a VM that writes native `print` output to out (nil discards
// it) and registers the built-in native bindings (clock, print, type_of,
// range_contains).
func New(out io.Writer) *VM {
	vm := &VM{
		globals: map[string]Value{},
		natives: map[string]*Native{},
		gc:      gc.New(),
		out:     out,
	}
	vm.registerBuiltinNatives()
	return vm
}

// Collector exposes the VM's heap, so a caller can subscribe to
// gc.Collector.OnCollect for --gc-trace style reporting before running.
func (vm *VM) Collector() *gc.Collector { return vm.gc }

// SetGlobal pre-seeds a global binding, used by a host embedding the VM
// before Run (natives are reached through GetNative instead, via Register).
func (vm *VM) SetGlobal(name string, v Value) { vm.globals[name] = v }

// Register adds a host-provided native function under name, invoked when
// compiled code references a `native NAME;` declaration. arity >= 0 enforces
// an exact argument count; -1 accepts any count. Every built-in native
// (print included) has a fixed arity.
func (vm *VM) Register(name string, arity int, fn NativeFunc) {
	wrapped := fn
	if arity >= 0 {
		wrapped = func(vm *VM, args []Value) (Value, error) {
			if len(args) != arity {
				return Nil(), fmt.Errorf("native %q expects %d argument(s), got %d", name, arity, len(args))
			}
			return fn(vm, args)
		}
	}
	n := &Native{Name: name, Fn: wrapped}
	vm.gc.Track(n)
	vm.natives[name] = n
}

// Run executes chunk (the top-level script, an arity-0 function with no
// upvalues) and returns the value of its final statement.
func (vm *VM) Run(chunk *bytecode.Chunk) (Value, error) {
	proto := &bytecode.FunctionProto{Name: chunk.Name, Arity: 0, Chunk: chunk}
	v, err := vm.invoke(&Closure{Proto: proto}, nil, Nil())
	if err != nil {
		vm.frames = vm.frames[:0]
		vm.stack = vm.stack[:0]
	}
	return v, err
}

// invoke pushes a new frame for cl and drives the execution loop until that
// frame (and everything it calls) has returned, then returns the value left
// on the operand stack. Every nested, synchronous call the VM itself needs
// to make — a class's field initializers, its constructor, a super call —
// goes through invoke; OpCall inside the loop instead just pushes a frame
// and lets whichever invoke call is already running keep stepping.
func (vm *VM) invoke(cl *Closure, args []Value, receiver Value) (Value, error) {
	if cl.Proto.Arity >= 0 && len(args) != cl.Proto.Arity {
		return Nil(), &RuntimeError{Message: fmt.Sprintf("%s expects %d argument(s), got %d", name(cl), cl.Proto.Arity, len(args)), Line: vm.currentLine()}
	}
	if len(vm.frames) >= maxFrames {
		return Nil(), &RuntimeError{Message: "stack overflow", Line: vm.currentLine(), Trace: vm.trace()}
	}

	vm.frames = append(vm.frames, newFrame(cl, args, receiver))
	depth := len(vm.frames)

	for len(vm.frames) >= depth {
		if err := vm.step(); err != nil {
			return Nil(), err
		}
	}
	return vm.pop()
}

func name(cl *Closure) string {
	if cl.Proto.Name == "" {
		return "<script>"
	}
	return cl.Proto.Name
}

func (vm *VM) currentLine() int {
	if f := vm.top(); f != nil {
		return f.line()
	}
	return 0
}

func (vm *VM) top() *frame {
	if len(vm.frames) == 0 {
		return nil
	}
	return vm.frames[len(vm.frames)-1]
}

func (vm *VM) trace() []string {
	names := make([]string, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		names = append(names, name(vm.frames[i].closure))
	}
	return names
}

func (vm *VM) errorf(format string, args ...any) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Line: vm.currentLine(), Trace: vm.trace()}
}

// ----- operand stack -----

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (Value, error) {
	if len(vm.stack) == 0 {
		return Nil(), vm.errorf("operand stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) popN(n int) ([]Value, error) {
	if n == 0 {
		return nil, nil
	}
	if len(vm.stack) < n {
		return nil, vm.errorf("operand stack underflow")
	}
	args := make([]Value, n)
	copy(args, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return args, nil
}

// ----- the fetch-dispatch loop -----

// step executes exactly one instruction from the top frame.
func (vm *VM) step() error {
	f := vm.top()
	if f == nil {
		return vm.errorf("no active frame")
	}
	if f.ip >= len(f.chunk().Code) {
		// A function whose body falls through without an explicit RETURN:
		// the compiler always appends NIL;RETURN, so this only fires for a
		// malformed chunk built outside the compiler.
		return vm.doReturn(f, Nil())
	}

	op := bytecode.Op(f.readByte())
	switch op {
	case bytecode.OpConstant:
		idx := f.readU16()
		vm.push(constantValue(f.chunk().Constants[idx]))
	case bytecode.OpNil:
		vm.push(Nil())
	case bytecode.OpTrue:
		vm.push(Bool(true))
	case bytecode.OpFalse:
		vm.push(Bool(false))
	case bytecode.OpPop:
		if _, err := vm.pop(); err != nil {
			return err
		}

	case bytecode.OpGetLocal:
		idx := f.readU16()
		vm.push(f.locals[idx])
	case bytecode.OpSetLocal:
		idx := f.readU16()
		v, err := vm.top0()
		if err != nil {
			return err
		}
		f.locals[idx] = v
	case bytecode.OpGetUpvalue:
		idx := f.readU16()
		vm.push(f.closure.Upvalues[idx].Get())
	case bytecode.OpSetUpvalue:
		idx := f.readU16()
		v, err := vm.top0()
		if err != nil {
			return err
		}
		f.closure.Upvalues[idx].Set(v)
	case bytecode.OpGetGlobal:
		idx := f.readU16()
		nameConst := f.chunk().Constants[idx].(string)
		v, ok := vm.globals[nameConst]
		if !ok {
			return vm.errorf("undefined global %q", nameConst)
		}
		vm.push(v)
	case bytecode.OpSetGlobal:
		idx := f.readU16()
		nameConst := f.chunk().Constants[idx].(string)
		v, err := vm.top0()
		if err != nil {
			return err
		}
		vm.globals[nameConst] = v
	case bytecode.OpGetNative:
		idx := f.readU16()
		nameConst := f.chunk().Constants[idx].(string)
		n, ok := vm.natives[nameConst]
		if !ok {
			return vm.errorf("native %q is not registered", nameConst)
		}
		vm.push(NativeValue(n))

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpFloorDiv,
		bytecode.OpMod, bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor,
		bytecode.OpShl, bytecode.OpShr:
		if err := vm.binaryOp(op); err != nil {
			return err
		}
	case bytecode.OpEq, bytecode.OpNeq, bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
		if err := vm.compareOp(op); err != nil {
			return err
		}
	case bytecode.OpNeg:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		switch {
		case v.IsInt():
			vm.push(Int(-v.AsInt()))
		case v.IsFloat():
			vm.push(Float(-v.AsFloat()))
		default:
			return vm.errorf("cannot negate a %s", v.Kind)
		}
	case bytecode.OpNot:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.push(Bool(!v.Truthy()))
	case bytecode.OpBitNot:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if !v.IsInt() {
			return vm.errorf("bitwise not needs an int, got %s", v.Kind)
		}
		vm.push(Int(^v.AsInt()))

	case bytecode.OpJump:
		target := f.readU16()
		f.ip = int(target)
	case bytecode.OpJumpIfFalse:
		target := f.readU16()
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if !v.Truthy() {
			f.ip = int(target)
		}
	case bytecode.OpJumpIfFalsePeek:
		target := f.readU16()
		v, err := vm.top0()
		if err != nil {
			return err
		}
		if !v.Truthy() {
			f.ip = int(target)
		}
	case bytecode.OpJumpIfTruePeek:
		target := f.readU16()
		v, err := vm.top0()
		if err != nil {
			return err
		}
		if v.Truthy() {
			f.ip = int(target)
		}
	case bytecode.OpJumpIfNilPeek:
		target := f.readU16()
		v, err := vm.top0()
		if err != nil {
			return err
		}
		if v.IsNil() {
			f.ip = int(target)
		}
	case bytecode.OpLoop:
		target := f.readU16()
		f.ip = int(target)

	case bytecode.OpClosure:
		if err := vm.execClosure(f); err != nil {
			return err
		}
	case bytecode.OpCloseUpvalue:
		// The compiler never emits this: upvalues are closed wholesale when
		// their owning frame returns (doReturn), which this per-frame-locals
		// design makes sufficient — there is no smaller-than-a-function
		// scope boundary where a local's storage could outlive the slot
		// another local then reuses. Kept for disassembly/opcode-table
		// completeness; still honors its documented stack effect.
		if _, err := vm.pop(); err != nil {
			return err
		}
	case bytecode.OpCall:
		argc := int(f.readByte())
		if err := vm.execCall(argc); err != nil {
			return err
		}
	case bytecode.OpReturn:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.doReturn(f, v)

	case bytecode.OpClass:
		idx := f.readU16()
		proto := f.chunk().Constants[idx].(*bytecode.ClassProto)
		class, err := vm.buildClass(proto, f)
		if err != nil {
			return err
		}
		vm.push(ClassValue(class))
	case bytecode.OpInherit:
		sub, err := vm.pop()
		if err != nil {
			return err
		}
		super, err := vm.pop()
		if err != nil {
			return err
		}
		if sub.Kind != KindClass || super.Kind != KindClass {
			return vm.errorf("inheritance requires two classes")
		}
		sub.Data.(*ClassObject).Super = super.Data.(*ClassObject)
		vm.push(sub)
	case bytecode.OpGetProperty:
		idx := f.readU16()
		nameConst := f.chunk().Constants[idx].(string)
		recv, err := vm.pop()
		if err != nil {
			return err
		}
		v, err := vm.getProperty(recv, nameConst)
		if err != nil {
			return err
		}
		vm.push(v)
	case bytecode.OpSetProperty:
		idx := f.readU16()
		nameConst := f.chunk().Constants[idx].(string)
		val, err := vm.pop()
		if err != nil {
			return err
		}
		recv, err := vm.pop()
		if err != nil {
			return err
		}
		if err := vm.setProperty(recv, nameConst, val); err != nil {
			return err
		}
		vm.push(val)
	case bytecode.OpGetSuper:
		idx := f.readU16()
		nameConst := f.chunk().Constants[idx].(string)
		if f.closure.DefiningClass == nil || f.closure.DefiningClass.Super == nil {
			return vm.errorf("no superclass in this context")
		}
		super := f.closure.DefiningClass.Super
		m, ok := super.findMethod(nameConst)
		if !ok && nameConst == "init" && super.Ctor != nil {
			// A constructor lives in ClassObject.Ctor, not in Methods.
			m, ok = super.Ctor, true
		}
		if !ok {
			return vm.errorf("undefined super member %q", nameConst)
		}
		bm := &BoundMethod{Receiver: f.receiver, Method: m}
		vm.gc.Track(bm)
		vm.push(BoundMethodValue(bm))
	case bytecode.OpInstance:
		argc := int(f.readByte())
		if err := vm.execInstance(argc); err != nil {
			return err
		}

	case bytecode.OpIterInit:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		it, err := vm.iteratorFor(v)
		if err != nil {
			return err
		}
		vm.push(it)
	case bytecode.OpIterNext:
		target := f.readU16()
		it, err := vm.top0()
		if err != nil {
			return err
		}
		if it.Kind != KindRangeIterator {
			return vm.errorf("cannot iterate a %s", it.Kind)
		}
		cur := it.Data.(*RangeIterator)
		if !cur.hasNext() {
			f.ip = int(target)
			break
		}
		vm.push(cur.advance())
	case bytecode.OpRange:
		inclusive := f.readByte() == 1
		end, err := vm.pop()
		if err != nil {
			return err
		}
		start, err := vm.pop()
		if err != nil {
			return err
		}
		if !start.IsInt() || !end.IsInt() {
			return vm.errorf("range bounds must be ints")
		}
		r := &Range{Start: start.AsInt(), End: end.AsInt(), Inclusive: inclusive}
		vm.gc.Track(r)
		vm.push(RangeValue(r))

	default:
		return vm.errorf("unknown opcode %s", op)
	}

	vm.maybeCollect()
	return nil
}

// top0 reads the top of stack without popping it, used by every opcode
// documented as "Stack: [v] -> [v]".
func (vm *VM) top0() (Value, error) {
	if len(vm.stack) == 0 {
		return Nil(), vm.errorf("operand stack underflow")
	}
	return vm.stack[len(vm.stack)-1], nil
}

func (vm *VM) doReturn(f *frame, result Value) error {
	vm.closeUpvaluesForFrame(f)
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.push(result)
	return nil
}

func constantValue(c any) Value {
	switch v := c.(type) {
	case int64:
		return Int(v)
	case float64:
		return Float(v)
	case string:
		return String(v)
	default:
		return Nil()
	}
}
