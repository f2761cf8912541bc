package vm

import "github.com/bite-lang/bite/internal/gc"

// maybeCollect runs a collection whenever the heap's allocation counter has
// crossed its threshold (or aggressive mode is on), the check the VM makes
// after every step per the collector's triggering contract.
func (vm *VM) maybeCollect() {
	if !vm.gc.ShouldCollect() {
		return
	}
	vm.gc.Collect(vm.roots())
}

// roots enumerates every heap object directly reachable from VM state: the
// live operand stack, every frame's closure and locals, the open-upvalue
// list, the globals table, and the native registry (permanently alive, not
// reachable from anywhere else in the graph).
func (vm *VM) roots() []gc.Object {
	var roots []gc.Object

	for _, v := range vm.stack {
		roots = append(roots, valueChildren(v)...)
	}
	for _, f := range vm.frames {
		if f.closure != nil {
			roots = append(roots, f.closure)
		}
		for _, v := range f.locals {
			roots = append(roots, valueChildren(v)...)
		}
	}
	for _, uv := range vm.openUpvalues {
		roots = append(roots, uv)
	}
	for _, v := range vm.globals {
		roots = append(roots, valueChildren(v)...)
	}
	for _, n := range vm.natives {
		roots = append(roots, n)
	}

	return roots
}
