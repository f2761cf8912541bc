package vm

import "github.com/bite-lang/bite/internal/bytecode"

// binaryOp implements every arithmetic/bitwise opcode: int/int stays int
// (with wraparound overflow and a checked divide/modulo by zero), any
// float operand promotes both sides to float64, and OpAdd additionally
// accepts two strings for concatenation. Bitwise and shift operators require
// both operands to already be ints.
func (vm *VM) binaryOp(op bytecode.Op) error {
	right, err := vm.pop()
	if err != nil {
		return err
	}
	left, err := vm.pop()
	if err != nil {
		return err
	}

	if op == bytecode.OpAdd && left.IsString() && right.IsString() {
		vm.push(String(left.AsString() + right.AsString()))
		return nil
	}

	switch op {
	case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpShl, bytecode.OpShr:
		if !left.IsInt() || !right.IsInt() {
			return vm.errorf("%s requires two ints, got %s and %s", op, left.Kind, right.Kind)
		}
		a, b := left.AsInt(), right.AsInt()
		switch op {
		case bytecode.OpBitAnd:
			vm.push(Int(a & b))
		case bytecode.OpBitOr:
			vm.push(Int(a | b))
		case bytecode.OpBitXor:
			vm.push(Int(a ^ b))
		case bytecode.OpShl:
			vm.push(Int(a << uint(b)))
		case bytecode.OpShr:
			vm.push(Int(a >> uint(b)))
		}
		return nil
	}

	if !left.IsNumber() || !right.IsNumber() {
		return vm.errorf("%s requires two numbers, got %s and %s", op, left.Kind, right.Kind)
	}

	if left.IsInt() && right.IsInt() {
		a, b := left.AsInt(), right.AsInt()
		switch op {
		case bytecode.OpAdd:
			vm.push(Int(a + b))
		case bytecode.OpSub:
			vm.push(Int(a - b))
		case bytecode.OpMul:
			vm.push(Int(a * b))
		case bytecode.OpDiv:
			if b == 0 {
				return vm.errorf("integer division by zero")
			}
			vm.push(Int(a / b))
		case bytecode.OpFloorDiv:
			if b == 0 {
				return vm.errorf("integer division by zero")
			}
			q := a / b
			if (a%b != 0) && ((a < 0) != (b < 0)) {
				q--
			}
			vm.push(Int(q))
		case bytecode.OpMod:
			if b == 0 {
				return vm.errorf("integer modulo by zero")
			}
			vm.push(Int(a % b))
		}
		return nil
	}

	a, b := left.Float64(), right.Float64()
	switch op {
	case bytecode.OpAdd:
		vm.push(Float(a + b))
	case bytecode.OpSub:
		vm.push(Float(a - b))
	case bytecode.OpMul:
		vm.push(Float(a * b))
	case bytecode.OpDiv:
		vm.push(Float(a / b))
	case bytecode.OpFloorDiv:
		vm.push(Float(floor(a / b)))
	case bytecode.OpMod:
		vm.push(Float(mod(a, b)))
	}
	return nil
}

func floor(f float64) float64 {
	i := int64(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return float64(i)
}

func mod(a, b float64) float64 {
	return a - floor(a/b)*b
}

// compareOp implements EQ/NEQ (structural/by-reference Equal, defined over
// every Kind) and the four ordering operators (numbers only; mixed int/float
// compares after widening to float64).
func (vm *VM) compareOp(op bytecode.Op) error {
	right, err := vm.pop()
	if err != nil {
		return err
	}
	left, err := vm.pop()
	if err != nil {
		return err
	}

	switch op {
	case bytecode.OpEq:
		vm.push(Bool(Equal(left, right)))
		return nil
	case bytecode.OpNeq:
		vm.push(Bool(!Equal(left, right)))
		return nil
	}

	if !left.IsNumber() || !right.IsNumber() {
		return vm.errorf("%s requires two numbers, got %s and %s", op, left.Kind, right.Kind)
	}
	a, b := left.Float64(), right.Float64()
	switch op {
	case bytecode.OpLt:
		vm.push(Bool(a < b))
	case bytecode.OpLe:
		vm.push(Bool(a <= b))
	case bytecode.OpGt:
		vm.push(Bool(a > b))
	case bytecode.OpGe:
		vm.push(Bool(a >= b))
	}
	return nil
}
