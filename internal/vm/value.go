// Package vm is Bite's stack-based bytecode interpreter: the execution loop,
// its runtime value representation, and the call/closure/property machinery
// the compiler's opcode stream assumes.
package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the tag half of Value's tagged union.
type Kind byte

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindRange
	KindRangeIterator
	KindClass
	KindInstance
	KindClosure
	KindBoundMethod
	KindNative
)

var kindNames = [...]string{
	KindNil: "nil", KindBool: "bool", KindInt: "int", KindFloat: "float",
	KindString: "string", KindRange: "range", KindRangeIterator: "range_iterator",
	KindClass: "class", KindInstance: "instance", KindClosure: "function",
	KindBoundMethod: "function", KindNative: "native",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a runtime value: a type tag plus an untyped payload, the same
// tagged-union shape Bite's bytecode layer uses for its own constant pool
// entries. Scalars (bool, int, float, string) are stored directly in Data;
// every heap kind stores a pointer, so copying a Value never copies object
// identity.
type Value struct {
	Kind Kind
	Data any
}

func Nil() Value             { return Value{Kind: KindNil} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Data: b} }
func Int(i int64) Value      { return Value{Kind: KindInt, Data: i} }
func Float(f float64) Value  { return Value{Kind: KindFloat, Data: f} }
func String(s string) Value  { return Value{Kind: KindString, Data: s} }

func (v Value) IsNil() bool    { return v.Kind == KindNil }
func (v Value) IsBool() bool   { return v.Kind == KindBool }
func (v Value) IsInt() bool    { return v.Kind == KindInt }
func (v Value) IsFloat() bool  { return v.Kind == KindFloat }
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }
func (v Value) IsString() bool { return v.Kind == KindString }

func (v Value) AsBool() bool     { b, _ := v.Data.(bool); return b }
func (v Value) AsInt() int64     { i, _ := v.Data.(int64); return i }
func (v Value) AsFloat() float64 { f, _ := v.Data.(float64); return f }
func (v Value) AsString() string { s, _ := v.Data.(string); return s }

// Float64 widens an int or float value uniformly, for mixed-arithmetic
// operands.
func (v Value) Float64() float64 {
	if v.Kind == KindInt {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

// Truthy is Bite's single falsiness rule: nil and boolean false are falsey,
// everything else (including 0 and "") is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.AsBool()
	default:
		return true
	}
}

// Equal implements `==`. Heap values compare by identity except Range,
// which compares by bounds; there is no user-overridable equality.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		if a.IsNumber() && b.IsNumber() {
			return a.Float64() == b.Float64()
		}
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindInt:
		return a.AsInt() == b.AsInt()
	case KindFloat:
		return a.AsFloat() == b.AsFloat()
	case KindString:
		return a.AsString() == b.AsString()
	case KindRange:
		ra, rb := a.Data.(*Range), b.Data.(*Range)
		return ra.Start == rb.Start && ra.End == rb.End && ra.Inclusive == rb.Inclusive
	default:
		return a.Data == b.Data
	}
}

// String renders v for `print`/interpolation/the REPL's result echo.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.AsBool())
	case KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case KindFloat:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	case KindString:
		return v.AsString()
	case KindRange:
		r := v.Data.(*Range)
		if r.Inclusive {
			return fmt.Sprintf("%d...%d", r.Start, r.End)
		}
		return fmt.Sprintf("%d..%d", r.Start, r.End)
	case KindClass:
		return fmt.Sprintf("<class %s>", v.Data.(*ClassObject).Name)
	case KindInstance:
		inst := v.Data.(*Instance)
		return fmt.Sprintf("<%s instance>", inst.Class.Name)
	case KindClosure:
		return fmt.Sprintf("<fn %s>", v.Data.(*Closure).Proto.Name)
	case KindBoundMethod:
		bm := v.Data.(*BoundMethod)
		return fmt.Sprintf("<bound method %s>", bm.Method.Proto.Name)
	case KindNative:
		return fmt.Sprintf("<native %s>", v.Data.(*Native).Name)
	default:
		return "<?>"
	}
}

// joinValues renders each value with String and joins them with sep; no
// built-in native calls it.
func joinValues(vs []Value, sep string) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}
