package vm

import "github.com/bite-lang/bite/internal/bytecode"

// execCall implements OpCall: the callee sits argc slots below the top of
// the operand stack, arguments above it.
func (vm *VM) execCall(argc int) error {
	args, err := vm.popN(argc)
	if err != nil {
		return err
	}
	callee, err := vm.pop()
	if err != nil {
		return err
	}

	switch callee.Kind {
	case KindClosure:
		return vm.pushCall(callee.Data.(*Closure), args, Nil())
	case KindBoundMethod:
		bm := callee.Data.(*BoundMethod)
		return vm.pushCall(bm.Method, args, bm.Receiver)
	case KindNative:
		n := callee.Data.(*Native)
		result, err := n.Fn(vm, args)
		if err != nil {
			return vm.errorf("%s", err)
		}
		vm.push(result)
		return nil
	default:
		return vm.errorf("attempt to call a %s value", callee.Kind)
	}
}

// pushCall checks arity and pushes a new frame; the already-running
// fetch-dispatch loop (either Run's or a nested invoke's) keeps stepping and
// naturally picks up the new top frame on its next iteration.
func (vm *VM) pushCall(cl *Closure, args []Value, receiver Value) error {
	if cl.Proto.Arity >= 0 && len(args) != cl.Proto.Arity {
		return vm.errorf("%s expects %d argument(s), got %d", name(cl), cl.Proto.Arity, len(args))
	}
	if len(vm.frames) >= maxFrames {
		return vm.errorf("stack overflow")
	}
	vm.frames = append(vm.frames, newFrame(cl, args, receiver))
	return nil
}

// execInstance implements OpInstance: the class sits argc slots below the
// top of the operand stack, constructor arguments above it.
func (vm *VM) execInstance(argc int) error {
	args, err := vm.popN(argc)
	if err != nil {
		return err
	}
	classVal, err := vm.pop()
	if err != nil {
		return err
	}
	if classVal.Kind != KindClass {
		return vm.errorf("attempt to instantiate a %s value", classVal.Kind)
	}
	class := classVal.Data.(*ClassObject)
	inst, err := vm.constructInstance(class, args)
	if err != nil {
		return err
	}
	vm.push(InstanceValue(inst))
	return nil
}

// constructInstance allocates inst, runs every field initializer from the
// root superclass down to class (so a subclass's own field inits may
// observe base-class fields already populated, and so an initializer
// expression referencing a sibling member finds it set), then invokes the
// constructor.
func (vm *VM) constructInstance(class *ClassObject, args []Value) (*Instance, error) {
	if class.Abstract {
		return nil, vm.errorf("cannot instantiate abstract class %s", class.Name)
	}

	inst := &Instance{Class: class, Fields: map[string]Value{}}
	vm.gc.Track(inst)

	for _, c := range classChain(class) {
		for _, fieldName := range c.FieldOrder {
			v, err := vm.invoke(c.FieldInits[fieldName], nil, InstanceValue(inst))
			if err != nil {
				return nil, err
			}
			inst.Fields[fieldName] = v
		}
	}

	if class.Ctor != nil {
		if _, err := vm.invoke(class.Ctor, args, InstanceValue(inst)); err != nil {
			return nil, err
		}
	} else if len(args) > 0 {
		return nil, vm.errorf("class %s takes no arguments", class.Name)
	}

	return inst, nil
}

// classChain returns class's superclass chain, root first, class last.
func classChain(class *ClassObject) []*ClassObject {
	var chain []*ClassObject
	for c := class; c != nil; c = c.Super {
		chain = append(chain, c)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// buildClass instantiates a ClassProto into a live ClassObject, binding
// every one of its own protos (constructor, methods, field initializers)
// into closures against the frame currently executing OpClass, and
// eagerly constructing its companion object if it declared one.
func (vm *VM) buildClass(proto *bytecode.ClassProto, f *frame) (*ClassObject, error) {
	class := &ClassObject{
		Name:            proto.Name,
		Abstract:        proto.Abstract,
		ClassObjectName: proto.ClassObjectName,
		Methods:         make(map[string]*Closure, len(proto.Methods)),
		Getters:         make(map[string]*Closure, len(proto.Getters)),
		Setters:         make(map[string]*Closure, len(proto.Setters)),
		FieldInits:      make(map[string]*Closure, len(proto.Fields)),
	}
	vm.gc.Track(class)

	if proto.Ctor != nil {
		class.Ctor = vm.bindClosure(proto.Ctor, f)
		class.Ctor.DefiningClass = class
	}
	for methodName, mp := range proto.Methods {
		cl := vm.bindClosure(mp, f)
		cl.DefiningClass = class
		class.Methods[methodName] = cl
	}
	for getterName, mp := range proto.Getters {
		cl := vm.bindClosure(mp, f)
		cl.DefiningClass = class
		class.Getters[getterName] = cl
	}
	for setterName, mp := range proto.Setters {
		cl := vm.bindClosure(mp, f)
		cl.DefiningClass = class
		class.Setters[setterName] = cl
	}
	class.FieldOrder = make([]string, len(proto.Fields))
	for i, fi := range proto.Fields {
		class.FieldOrder[i] = fi.Name
		cl := vm.bindClosure(fi.Init, f)
		cl.DefiningClass = class
		class.FieldInits[fi.Name] = cl
	}

	if proto.Companion != nil {
		companion, err := vm.buildClass(proto.Companion, f)
		if err != nil {
			return nil, err
		}
		inst, err := vm.constructInstance(companion, nil)
		if err != nil {
			return nil, err
		}
		class.CompanionInstance = inst
	}

	return class, nil
}

// bindClosure wraps proto into a Closure, resolving its upvalue refs
// against f — the frame live when OpClass ran. Unlike OpClosure, a
// class's nested protos carry no inline upvalue trailer in the
// instruction stream (OpClass only encodes one constant index), so this
// reads the descriptors the compiler already attached to proto itself.
func (vm *VM) bindClosure(proto *bytecode.FunctionProto, f *frame) *Closure {
	upvalues := make([]*Upvalue, len(proto.Upvalues))
	for i, ref := range proto.Upvalues {
		if ref.IsLocal {
			upvalues[i] = vm.captureUpvalue(&f.locals[ref.Index])
		} else {
			upvalues[i] = f.closure.Upvalues[ref.Index]
		}
	}
	cl := &Closure{Proto: proto, Upvalues: upvalues}
	vm.gc.Track(cl)
	return cl
}

// execClosure implements OpClosure: the constant is a FunctionProto; the
// instruction stream immediately following it holds one (is_local, index)
// pair per upvalue the proto captures.
func (vm *VM) execClosure(f *frame) error {
	idx := f.readU16()
	proto, ok := f.chunk().Constants[idx].(*bytecode.FunctionProto)
	if !ok {
		return vm.errorf("CLOSURE constant is not a function")
	}

	upvalues := make([]*Upvalue, len(proto.Upvalues))
	for i := range proto.Upvalues {
		isLocal := f.readByte()
		upIdx := int(f.readU16())
		if isLocal == 1 {
			upvalues[i] = vm.captureUpvalue(&f.locals[upIdx])
		} else {
			upvalues[i] = f.closure.Upvalues[upIdx]
		}
	}

	cl := &Closure{Proto: proto, Upvalues: upvalues}
	vm.gc.Track(cl)
	vm.push(ClosureValue(cl))
	return nil
}

// captureUpvalue returns the existing open upvalue aliasing location, or
// creates and registers a new one — an upvalue is captured at most once per
// (frame, slot).
func (vm *VM) captureUpvalue(location *Value) *Upvalue {
	for _, uv := range vm.openUpvalues {
		if uv.Location == location {
			return uv
		}
	}
	uv := &Upvalue{Location: location}
	vm.gc.Track(uv)
	vm.openUpvalues = append(vm.openUpvalues, uv)
	return uv
}

// closeUpvaluesForFrame closes every open upvalue pointing into f's own
// locals, run whenever f returns. Since locals live in a per-frame slice
// rather than a shared growable stack, a frame's whole lifetime (not a
// sub-block of it) is the only boundary at which an aliased slot stops
// being valid, so closing everything at RETURN is sufficient.
func (vm *VM) closeUpvaluesForFrame(f *frame) {
	if len(vm.openUpvalues) == 0 || len(f.locals) == 0 {
		return
	}
	remaining := vm.openUpvalues[:0]
	for _, uv := range vm.openUpvalues {
		closed := false
		for i := range f.locals {
			if uv.Location == &f.locals[i] {
				uv.close()
				closed = true
				break
			}
		}
		if !closed {
			remaining = append(remaining, uv)
		}
	}
	vm.openUpvalues = remaining
}

// getProperty implements GET_PROPERTY's lookup order on an Instance: a
// getter closure (invoked immediately, so the property reads as a computed
// value rather than a BoundMethod), then its own field storage, then a
// method (walking the superclass chain, wrapped as a BoundMethod), then a
// companion object visible under that name; and on a Class value, its
// companion (if name matches) or one of its own methods (bound to the class
// value itself, for a class-object's own method body).
func (vm *VM) getProperty(recv Value, name string) (Value, error) {
	switch recv.Kind {
	case KindInstance:
		inst := recv.Data.(*Instance)
		if g, ok := inst.Class.findGetter(name); ok {
			return vm.invoke(g, nil, recv)
		}
		if v, ok := inst.Fields[name]; ok {
			return v, nil
		}
		if m, ok := inst.Class.findMethod(name); ok {
			bm := &BoundMethod{Receiver: recv, Method: m}
			vm.gc.Track(bm)
			return BoundMethodValue(bm), nil
		}
		if comp, ok := inst.Class.findCompanion(name); ok {
			return InstanceValue(comp), nil
		}
		return Nil(), vm.errorf("undefined property %q on %s", name, inst.Class.Name)
	case KindClass:
		class := recv.Data.(*ClassObject)
		if class.ClassObjectName == name && class.CompanionInstance != nil {
			return InstanceValue(class.CompanionInstance), nil
		}
		if m, ok := class.findMethod(name); ok {
			bm := &BoundMethod{Receiver: recv, Method: m}
			vm.gc.Track(bm)
			return BoundMethodValue(bm), nil
		}
		return Nil(), vm.errorf("undefined property %q on class %s", name, class.Name)
	default:
		return Nil(), vm.errorf("%s has no properties", recv.Kind)
	}
}

// setProperty implements SET_PROPERTY: a setter closure, if the class
// declares one for name, is invoked with val as its sole argument instead
// of touching field storage at all. Otherwise, writing a field the class
// never declared (directly or via a trait) is a runtime error rather than
// an auto-vivified field, since Instance.Fields is fully populated at
// construction from the declared field set.
func (vm *VM) setProperty(recv Value, name string, val Value) error {
	if recv.Kind != KindInstance {
		return vm.errorf("cannot set a property on a %s", recv.Kind)
	}
	inst := recv.Data.(*Instance)
	if s, ok := inst.Class.findSetter(name); ok {
		_, err := vm.invoke(s, []Value{val}, recv)
		return err
	}
	if _, ok := inst.Fields[name]; !ok {
		return vm.errorf("%s has no field %q", inst.Class.Name, name)
	}
	inst.Fields[name] = val
	return nil
}

// iteratorFor implements OP_ITER_INIT: Bite's only built-in iterable is a
// Range, whose iterator is a simple cursor up to its upper bound (included
// for an inclusive range, excluded otherwise).
func (vm *VM) iteratorFor(v Value) (Value, error) {
	if v.Kind != KindRange {
		return Nil(), vm.errorf("cannot iterate a %s", v.Kind)
	}
	r := v.Data.(*Range)
	it := &RangeIterator{Next: r.Start, End: r.End, Inclusive: r.Inclusive}
	vm.gc.Track(it)
	return rangeIteratorValue(it), nil
}
