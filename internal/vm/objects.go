package vm

import (
	"github.com/bite-lang/bite/internal/bytecode"
	"github.com/bite-lang/bite/internal/gc"
)

// Closure pairs a compiled function with the upvalues it captured at the
// point it was created.
type Closure struct {
	Proto    *bytecode.FunctionProto
	Upvalues []*Upvalue

	// DefiningClass is set only for a class's constructor/method/field-init
	// closures, to the ClassObject that declared them; GET_SUPER reads
	// DefiningClass.Super off the currently executing frame's closure to
	// know where to start its lookup. nil for every plain function/closure.
	DefiningClass *ClassObject
}

// Children/Size implement gc.Object for every heap kind the VM allocates, so
// the collector can walk the live object graph without depending on
// vm.Value directly.

func (c *Closure) Size() int { return 16 + 8*len(c.Upvalues) }
func (c *Closure) Children() []gc.Object {
	children := make([]gc.Object, 0, len(c.Upvalues))
	for _, uv := range c.Upvalues {
		children = append(children, uv)
	}
	return children
}

// Upvalue is a variable captured by a closure. While Location is non-nil the
// upvalue is open: it aliases a live stack slot, so writes through it are
// visible to the frame that owns the slot and vice versa. Close copies the
// slot's current value into Closed and nils Location, after which the
// upvalue owns its own value independent of any stack slot.
type Upvalue struct {
	Location *Value
	Closed   Value
}

func (u *Upvalue) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

func (u *Upvalue) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

func (u *Upvalue) close() {
	if u.Location != nil {
		u.Closed = *u.Location
		u.Location = nil
	}
}

func (u *Upvalue) Size() int { return 24 }
func (u *Upvalue) Children() []gc.Object { return valueChildren(u.Get()) }

// ClassObject is a runtime class: its constructor and methods already
// wrapped into closures, its declared field names in declaration order (so a
// fresh Instance's fields come up in a stable, predictable order), and its
// superclass chain for GET_SUPER/instanceof-style checks.
type ClassObject struct {
	Name       string
	Super      *ClassObject
	Ctor       *Closure
	Methods    map[string]*Closure
	Getters    map[string]*Closure
	Setters    map[string]*Closure
	FieldOrder []string
	FieldInits map[string]*Closure
	Abstract   bool

	// ClassObjectName, if non-empty, is the member name under which this
	// class's companion singleton (an `object` nested in the class body) is
	// visible from inside the class's own methods; CompanionInstance is that
	// singleton, constructed eagerly alongside the class itself.
	ClassObjectName   string
	CompanionInstance *Instance
}

// findMethod walks the superclass chain, innermost first.
func (c *ClassObject) findMethod(name string) (*Closure, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if m, ok := cls.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// findGetter/findSetter walk the superclass chain the same way findMethod
// does, so a getter or setter declared on a superclass is visible through a
// subclass instance that doesn't redeclare that capability.
func (c *ClassObject) findGetter(name string) (*Closure, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if g, ok := cls.Getters[name]; ok {
			return g, true
		}
	}
	return nil, false
}

func (c *ClassObject) findSetter(name string) (*Closure, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if s, ok := cls.Setters[name]; ok {
			return s, true
		}
	}
	return nil, false
}

// findCompanion walks the superclass chain looking for the class that
// declares a companion object under name.
func (c *ClassObject) findCompanion(name string) (*Instance, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if cls.ClassObjectName == name && cls.CompanionInstance != nil {
			return cls.CompanionInstance, true
		}
	}
	return nil, false
}

func (c *ClassObject) Size() int {
	return 64 + 16*len(c.Methods) + 16*len(c.Getters) + 16*len(c.Setters) + 16*len(c.FieldInits)
}
func (c *ClassObject) Children() []gc.Object {
	children := make([]gc.Object, 0, len(c.Methods)+len(c.Getters)+len(c.Setters)+len(c.FieldInits)+2)
	if c.Super != nil {
		children = append(children, c.Super)
	}
	if c.Ctor != nil {
		children = append(children, c.Ctor)
	}
	for _, m := range c.Methods {
		children = append(children, m)
	}
	for _, g := range c.Getters {
		children = append(children, g)
	}
	for _, s := range c.Setters {
		children = append(children, s)
	}
	for _, f := range c.FieldInits {
		children = append(children, f)
	}
	if c.CompanionInstance != nil {
		children = append(children, c.CompanionInstance)
	}
	return children
}

// Instance is a live object: its class plus its field slots, keyed by name.
// Bite's classes don't support dynamically adding fields outside the
// declared set, so Fields is fully populated (from FieldInits, superclass
// fields included) the moment the instance is allocated, before the
// constructor body runs.
type Instance struct {
	Class  *ClassObject
	Fields map[string]Value
}

func (i *Instance) Size() int { return 32 + 24*len(i.Fields) }
func (i *Instance) Children() []gc.Object {
	children := make([]gc.Object, 0, len(i.Fields)+1)
	children = append(children, i.Class)
	for _, v := range i.Fields {
		children = append(children, valueChildren(v)...)
	}
	return children
}

// BoundMethod pairs a receiver with one of its class's methods, the value
// `this.method` (without a call) or `super.method` produces.
type BoundMethod struct {
	Receiver Value
	Method   *Closure
}

func (b *BoundMethod) Size() int { return 32 }
func (b *BoundMethod) Children() []gc.Object {
	return append(valueChildren(b.Receiver), b.Method)
}

// NativeFunc is a host-provided function, registered into the VM's global
// native table and reachable from Bite source via `native NAME;`.
type NativeFunc func(vm *VM, args []Value) (Value, error)

// Native is a named NativeFunc wrapped into a Value, the payload
// OP_GET_NATIVE pushes.
type Native struct {
	Name string
	Fn   NativeFunc
}

func (n *Native) Size() int             { return 24 }
func (n *Native) Children() []gc.Object { return nil }

// Range is an integer range, `start..end` (half-open) or `start...end`
// (inclusive) — Bite's stand-in for a general sequence literal: cheap to
// construct, and the thing a `for` loop most commonly iterates.
type Range struct {
	Start, End int64
	Inclusive  bool
}

// Contains reports whether n falls within the range, honoring Inclusive;
// exposed to Bite programs via the `range_contains` native.
func (r *Range) Contains(n int64) bool {
	if r.Inclusive {
		return n >= r.Start && n <= r.End
	}
	return n >= r.Start && n < r.End
}

func (r *Range) Size() int             { return 24 }
func (r *Range) Children() []gc.Object { return nil }

// RangeIterator is the iterator a Range's OP_ITER_INIT produces: a cursor,
// the upper bound it counts up to, and whether that bound is itself
// included.
type RangeIterator struct {
	Next      int64
	End       int64
	Inclusive bool
}

func (it *RangeIterator) hasNext() bool {
	if it.Inclusive {
		return it.Next <= it.End
	}
	return it.Next < it.End
}

func (it *RangeIterator) advance() Value {
	v := Int(it.Next)
	it.Next++
	return v
}

func (it *RangeIterator) Size() int             { return 16 }
func (it *RangeIterator) Children() []gc.Object { return nil }

func RangeValue(r *Range) Value                  { return Value{Kind: KindRange, Data: r} }
func rangeIteratorValue(it *RangeIterator) Value  { return Value{Kind: KindRangeIterator, Data: it} }
func ClassValue(c *ClassObject) Value             { return Value{Kind: KindClass, Data: c} }
func InstanceValue(i *Instance) Value             { return Value{Kind: KindInstance, Data: i} }
func ClosureValue(c *Closure) Value               { return Value{Kind: KindClosure, Data: c} }
func BoundMethodValue(b *BoundMethod) Value        { return Value{Kind: KindBoundMethod, Data: b} }
func NativeValue(n *Native) Value                 { return Value{Kind: KindNative, Data: n} }

// valueChildren returns v's underlying heap object as a single-element
// gc.Object slice, or nil for a scalar Value that owns no heap object of its
// own (nil/bool/int/float/string — Go's GC keeps a string's backing bytes
// alive on its own, outside this graph).
func valueChildren(v Value) []gc.Object {
	if o, ok := v.Data.(gc.Object); ok {
		return []gc.Object{o}
	}
	return nil
}
