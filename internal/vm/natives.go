package vm

import (
	"fmt"
	"time"
)

// registerBuiltinNatives wires up the small set of host bindings every Bite
// program can reach via `native NAME;` without the embedder registering
// anything itself: a clock, output, and runtime type introspection.
func (vm *VM) registerBuiltinNatives() {
	vm.Register("clock", 0, func(_ *VM, _ []Value) (Value, error) {
		return Float(float64(time.Now().UnixNano()) / 1e9), nil
	})
	vm.Register("print", 1, func(vm *VM, args []Value) (Value, error) {
		if vm.out != nil {
			fmt.Fprintln(vm.out, args[0].String())
		}
		return Nil(), nil
	})
	vm.Register("type_of", 1, func(_ *VM, args []Value) (Value, error) {
		return String(args[0].Kind.String()), nil
	})
	vm.Register("range_contains", 2, func(_ *VM, args []Value) (Value, error) {
		if args[0].Kind != KindRange {
			return Nil(), fmt.Errorf("range_contains expects a range, got %s", args[0].Kind)
		}
		if !args[1].IsInt() {
			return Nil(), fmt.Errorf("range_contains expects an int, got %s", args[1].Kind)
		}
		r := args[0].Data.(*Range)
		return Bool(r.Contains(args[1].AsInt())), nil
	})
}
