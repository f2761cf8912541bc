package compiler

import (
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/bytecode"
	"github.com/bite-lang/bite/internal/token"
)

// compileExpr compiles e, leaving exactly one value on top of the operand
// stack.
func (c *Compiler) compileExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Literal:
		c.compileLiteral(e)
	case *ast.StringLit:
		idx := c.chunk.AddConstant(e.Value)
		c.emit(bytecode.OpConstant, e)
		c.emitU16(idx, e)
	case *ast.Invalid:
		// A syntax error already reached the diagnostic bag; emit a harmless
		// placeholder so later code can still be compiled for more errors.
		c.emit(bytecode.OpNil, e)
	case *ast.Unary:
		c.compileExpr(e.Operand)
		c.emit(unaryOp(e.Op), e)
	case *ast.Binary:
		c.compileBinary(e)
	case *ast.RangeExpr:
		c.compileExpr(e.Start)
		c.compileExpr(e.End)
		c.emit(bytecode.OpRange, e)
		inclusive := byte(0)
		if e.Inclusive {
			inclusive = 1
		}
		c.emitByte(inclusive, e)
	case *ast.Variable:
		c.compileVariableRead(e)
	case *ast.Assign:
		c.compileAssign(e)
	case *ast.Call:
		c.compileCall(e)
	case *ast.GetProperty:
		c.compileExpr(e.Object)
		c.emitGetProperty(e.Name, e)
	case *ast.SuperExpr:
		c.emitGetSuper(e.Method, e)
	case *ast.ThisExpr:
		c.emit(bytecode.OpGetLocal, e)
		c.emitU16(0, e)
	case *ast.ObjectExpr:
		proto := compileObjectProto("<object>", e.Members, c.ctx)
		idx := c.chunk.AddConstant(proto)
		c.emit(bytecode.OpClass, e)
		c.emitU16(idx, e)
		c.emit(bytecode.OpInstance, e)
		c.emitByte(0, e)
	case *ast.Block:
		c.compileBlockAsExpr(e)
	case *ast.IfExpr:
		c.compileIf(e)
	case *ast.LoopExpr:
		c.compileLoop(e)
	case *ast.WhileExpr:
		c.compileWhile(e)
	case *ast.ForExpr:
		c.compileFor(e)
	case *ast.BreakExpr:
		c.compileBreak(e)
	case *ast.ContinueExpr:
		c.compileContinue(e)
	case *ast.ReturnExpr:
		c.compileReturn(e)
	}
}

func (c *Compiler) compileLiteral(e *ast.Literal) {
	switch e.Kind {
	case ast.IntLiteral:
		idx := c.chunk.AddConstant(e.Int)
		c.emit(bytecode.OpConstant, e)
		c.emitU16(idx, e)
	case ast.FloatLiteral:
		idx := c.chunk.AddConstant(e.Float)
		c.emit(bytecode.OpConstant, e)
		c.emitU16(idx, e)
	case ast.BoolLiteral:
		if e.Bool {
			c.emit(bytecode.OpTrue, e)
		} else {
			c.emit(bytecode.OpFalse, e)
		}
	case ast.NilLiteral:
		c.emit(bytecode.OpNil, e)
	}
}

func unaryOp(k token.Kind) bytecode.Op {
	switch k {
	case token.BANG:
		return bytecode.OpNot
	case token.TILDE:
		return bytecode.OpBitNot
	default:
		return bytecode.OpNeg
	}
}

// binaryOp maps every Binary.Op except the short-circuit logical operators,
// which compileBinary lowers to jumps instead of a single instruction.
func binaryOp(k token.Kind) bytecode.Op {
	switch k {
	case token.PLUS:
		return bytecode.OpAdd
	case token.MINUS:
		return bytecode.OpSub
	case token.STAR:
		return bytecode.OpMul
	case token.SLASH:
		return bytecode.OpDiv
	case token.SLASHSLASH:
		return bytecode.OpFloorDiv
	case token.PERCENT:
		return bytecode.OpMod
	case token.AMP:
		return bytecode.OpBitAnd
	case token.PIPE:
		return bytecode.OpBitOr
	case token.CARET:
		return bytecode.OpBitXor
	case token.SHL:
		return bytecode.OpShl
	case token.SHR:
		return bytecode.OpShr
	case token.EQEQ:
		return bytecode.OpEq
	case token.BANGEQ:
		return bytecode.OpNeq
	case token.LT:
		return bytecode.OpLt
	case token.LTEQ:
		return bytecode.OpLe
	case token.GT:
		return bytecode.OpGt
	default:
		return bytecode.OpGe
	}
}

// compoundBaseOp maps a compound-assignment operator to the arithmetic op
// it desugars through; ok is false for EQ and QUESTIONQUESTIONEQ, which
// compileAssign handles separately (plain store and nil-coalescing).
func compoundBaseOp(k token.Kind) (bytecode.Op, bool) {
	switch k {
	case token.PLUSEQ:
		return bytecode.OpAdd, true
	case token.MINUSEQ:
		return bytecode.OpSub, true
	case token.STAREQ:
		return bytecode.OpMul, true
	case token.SLASHEQ:
		return bytecode.OpDiv, true
	case token.SLASHSLASHEQ:
		return bytecode.OpFloorDiv, true
	case token.PERCENTEQ:
		return bytecode.OpMod, true
	case token.SHLEQ:
		return bytecode.OpShl, true
	case token.SHREQ:
		return bytecode.OpShr, true
	case token.AMPEQ:
		return bytecode.OpBitAnd, true
	case token.CARETEQ:
		return bytecode.OpBitXor, true
	case token.PIPEEQ:
		return bytecode.OpBitOr, true
	default:
		return 0, false
	}
}

func (c *Compiler) compileBinary(e *ast.Binary) {
	switch e.Op {
	case token.AMPAMP:
		c.compileExpr(e.Left)
		short := c.emitJump(bytecode.OpJumpIfFalsePeek, e)
		c.emit(bytecode.OpPop, e)
		c.compileExpr(e.Right)
		c.patchJumpHere(short)
	case token.PIPEPIPE:
		c.compileExpr(e.Left)
		short := c.emitJump(bytecode.OpJumpIfTruePeek, e)
		c.emit(bytecode.OpPop, e)
		c.compileExpr(e.Right)
		c.patchJumpHere(short)
	case token.QUESTIONQUESTION:
		c.compileExpr(e.Left)
		nilJump := c.emitJump(bytecode.OpJumpIfNilPeek, e)
		notNilJump := c.emitJump(bytecode.OpJump, e)
		c.patchJumpHere(nilJump)
		c.emit(bytecode.OpPop, e)
		c.compileExpr(e.Right)
		c.patchJumpHere(notNilJump)
	default:
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.emit(binaryOp(e.Op), e)
	}
}

func (c *Compiler) emitGetProperty(name string, n ast.Node) {
	idx := c.chunk.AddConstant(name)
	c.emit(bytecode.OpGetProperty, n)
	c.emitU16(idx, n)
}

func (c *Compiler) emitSetProperty(name string, n ast.Node) {
	idx := c.chunk.AddConstant(name)
	c.emit(bytecode.OpSetProperty, n)
	c.emitU16(idx, n)
}

func (c *Compiler) emitGetSuper(name string, n ast.Node) {
	idx := c.chunk.AddConstant(name)
	c.emit(bytecode.OpGetSuper, n)
	c.emitU16(idx, n)
}

func (c *Compiler) emitThis(n ast.Node) {
	c.emit(bytecode.OpGetLocal, n)
	c.emitU16(0, n)
}

// compileVariableRead pushes the current value of a name reference,
// dispatching on the analyzer's resolution of it.
func (c *Compiler) compileVariableRead(e *ast.Variable) {
	b := e.Binding
	switch b.Kind {
	case ast.LocalBinding, ast.ParameterBinding:
		c.emit(bytecode.OpGetLocal, e)
		c.emitU16(uint16(b.Slot), e)
	case ast.UpvalueBinding:
		c.emit(bytecode.OpGetUpvalue, e)
		c.emitU16(uint16(b.UpvalueIndex), e)
	case ast.GlobalBinding:
		idx := c.chunk.AddConstant(b.Name)
		if c.ctx.natives[b.Name] {
			c.emit(bytecode.OpGetNative, e)
		} else {
			c.emit(bytecode.OpGetGlobal, e)
		}
		c.emitU16(idx, e)
	case ast.MemberBinding, ast.ClassObjectBinding:
		// A bare name resolved against the enclosing class/trait's members
		// (or its class-object) reads through the implicit `this`: the
		// instance carries its class-object reference transparently, so
		// both kinds share the same property path.
		c.emitThis(e)
		c.emitGetProperty(b.Member, e)
	}
}

func (c *Compiler) compileCall(e *ast.Call) {
	if v, ok := e.Callee.(*ast.Variable); ok && v.Binding.Kind == ast.GlobalBinding {
		if _, isClass := c.ctx.classes[v.Name]; isClass {
			c.compileExpr(e.Callee)
			for _, arg := range e.Args {
				c.compileExpr(arg)
			}
			c.emit(bytecode.OpInstance, e)
			c.emitByte(byte(len(e.Args)), e)
			return
		}
	}
	c.compileExpr(e.Callee)
	for _, arg := range e.Args {
		c.compileExpr(arg)
	}
	c.emit(bytecode.OpCall, e)
	c.emitByte(byte(len(e.Args)), e)
}

// ----- assignment -----

func (c *Compiler) compileAssign(e *ast.Assign) {
	switch t := e.Target.(type) {
	case *ast.Variable:
		c.compileAssignVariable(e, t)
	case *ast.GetProperty:
		c.compileAssignProperty(e, e.Value, t.Object, t.Name)
	case *ast.SuperExpr:
		// `super.name = value` stores into the field on `this` (fields are
		// the receiving instance's own storage regardless of which class in
		// the chain declared them), unlike `super.name` as a read, which
		// dispatches the superclass's method.
		c.compileAssignProperty(e, e.Value, nil, t.Method)
	}
}

func (c *Compiler) compileAssignVariable(e *ast.Assign, t *ast.Variable) {
	b := t.Binding
	if b.Kind == ast.MemberBinding || b.Kind == ast.ClassObjectBinding {
		c.compileAssignProperty(e, e.Value, nil, b.Member)
		return
	}

	load := func() { c.compileVariableRead(t) }
	store := func() {
		switch b.Kind {
		case ast.UpvalueBinding:
			c.emit(bytecode.OpSetUpvalue, e)
			c.emitU16(uint16(b.UpvalueIndex), e)
		case ast.GlobalBinding:
			idx := c.chunk.AddConstant(b.Name)
			c.emit(bytecode.OpSetGlobal, e)
			c.emitU16(idx, e)
		default:
			c.emit(bytecode.OpSetLocal, e)
			c.emitU16(uint16(b.Slot), e)
		}
	}

	switch e.Op {
	case token.EQ:
		c.compileExpr(e.Value)
		store()
	case token.QUESTIONQUESTIONEQ:
		load()
		nilJump := c.emitJump(bytecode.OpJumpIfNilPeek, e)
		notNilJump := c.emitJump(bytecode.OpJump, e)
		c.patchJumpHere(nilJump)
		c.emit(bytecode.OpPop, e)
		c.compileExpr(e.Value)
		store()
		c.patchJumpHere(notNilJump)
	default:
		op, _ := compoundBaseOp(e.Op)
		load()
		c.compileExpr(e.Value)
		c.emit(op, e)
		store()
	}
}

// compileAssignProperty compiles a store through a property: either
// `object.name = value` (object != nil) or an implicit `this.name = value`
// (object == nil, used for MemberBinding/ClassObjectBinding targets and for
// `super.name = value`).
func (c *Compiler) compileAssignProperty(e *ast.Assign, value, object ast.Expr, name string) {
	pushRecv := func() {
		if object != nil {
			c.compileExpr(object)
		} else {
			c.emitThis(e)
		}
	}

	switch e.Op {
	case token.EQ:
		pushRecv()
		c.compileExpr(value)
		c.emitSetProperty(name, e)
	case token.QUESTIONQUESTIONEQ:
		// Lazy: only re-evaluates the receiver if the current value is nil.
		pushRecv()
		c.emitGetProperty(name, e)
		nilJump := c.emitJump(bytecode.OpJumpIfNilPeek, e)
		notNilJump := c.emitJump(bytecode.OpJump, e)
		c.patchJumpHere(nilJump)
		c.emit(bytecode.OpPop, e)
		pushRecv()
		c.compileExpr(value)
		c.emitSetProperty(name, e)
		stored := c.emitJump(bytecode.OpJump, e)
		c.patchJumpHere(notNilJump)
		c.patchJumpHere(stored)
	default:
		op, _ := compoundBaseOp(e.Op)
		// Receiver for the store is pushed first so it sits beneath the
		// loaded current value; the load's own receiver copy is pushed on
		// top of it and consumed by OpGetProperty.
		pushRecv()
		pushRecv()
		c.emitGetProperty(name, e)
		c.compileExpr(value)
		c.emit(op, e)
		c.emitSetProperty(name, e)
	}
}

// ----- blocks -----

// compileBlockAsExpr compiles b, always leaving exactly one value (its
// Trailing expression, or nil) on top of the stack.
func (c *Compiler) compileBlockAsExpr(b *ast.Block) {
	labeled := b.Label != ""
	if labeled {
		c.scopes = append(c.scopes, &loopScope{nodeID: b.ID(), label: b.Label})
	}

	for _, stmt := range b.Stmts {
		c.compileStmt(stmt)
	}
	if b.Trailing != nil {
		c.compileExpr(b.Trailing)
	} else {
		c.emit(bytecode.OpNil, b)
	}

	if labeled {
		scope := c.scopes[len(c.scopes)-1]
		for _, jump := range scope.breakJumps {
			c.patchJumpHere(jump)
		}
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

// compileBlockAsStatement compiles b for its side effects only, discarding
// whatever value it produces.
func (c *Compiler) compileBlockAsStatement(b *ast.Block) {
	c.compileBlockAsExpr(b)
	c.emit(bytecode.OpPop, b)
}

// ----- if -----

func (c *Compiler) compileIf(e *ast.IfExpr) {
	c.compileExpr(e.Cond)
	elseJump := c.emitJump(bytecode.OpJumpIfFalse, e)
	c.compileBlockAsExpr(e.Then)
	endJump := c.emitJump(bytecode.OpJump, e)
	c.patchJumpHere(elseJump)
	if e.Else != nil {
		c.compileExpr(e.Else)
	} else {
		c.emit(bytecode.OpNil, e)
	}
	c.patchJumpHere(endJump)
}

// ----- loops -----

func (c *Compiler) compileLoop(e *ast.LoopExpr) {
	scope := &loopScope{nodeID: e.ID(), label: e.Label, isLoop: true}
	c.scopes = append(c.scopes, scope)

	start := len(c.chunk.Code)
	scope.continueTarget = start
	c.compileBlockAsStatement(e.Body)
	c.emitLoop(start, e)

	// A `loop` never falls through on its own; its only exit is a break, so
	// every break jump lands exactly here with its value already on the
	// stack.
	for _, jump := range scope.breakJumps {
		c.patchJumpHere(jump)
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Compiler) compileWhile(e *ast.WhileExpr) {
	scope := &loopScope{nodeID: e.ID(), label: e.Label, isLoop: true}
	c.scopes = append(c.scopes, scope)

	start := len(c.chunk.Code)
	scope.continueTarget = start
	c.compileExpr(e.Cond)
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, e)
	c.compileBlockAsStatement(e.Body)
	c.emitLoop(start, e)

	c.patchJumpHere(exitJump)
	c.emit(bytecode.OpNil, e)
	for _, jump := range scope.breakJumps {
		c.patchJumpHere(jump)
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Compiler) compileFor(e *ast.ForExpr) {
	c.compileExpr(e.Iter)
	c.emit(bytecode.OpIterInit, e)

	scope := &loopScope{nodeID: e.ID(), label: e.Label, isLoop: true, tempCount: 1}
	c.scopes = append(c.scopes, scope)

	start := len(c.chunk.Code)
	scope.continueTarget = start
	exitJump := c.emitJump(bytecode.OpIterNext, e)
	c.emit(bytecode.OpSetLocal, e)
	c.emitU16(uint16(e.VarBinding.Slot), e)
	c.emit(bytecode.OpPop, e)
	c.compileBlockAsStatement(e.Body)
	c.emitLoop(start, e)

	c.patchJumpHere(exitJump)
	c.emit(bytecode.OpPop, e) // drop the now-exhausted iterator
	c.emit(bytecode.OpNil, e)
	for _, jump := range scope.breakJumps {
		c.patchJumpHere(jump)
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// ----- break / continue / return -----

func (c *Compiler) compileBreak(e *ast.BreakExpr) {
	idx := c.findScope(e.Target)
	for i := len(c.scopes) - 1; i >= idx; i-- {
		for n := 0; n < c.scopes[i].tempCount; n++ {
			c.emit(bytecode.OpPop, e)
		}
	}
	if e.Value != nil {
		c.compileExpr(e.Value)
	} else {
		c.emit(bytecode.OpNil, e)
	}
	jump := c.emitJump(bytecode.OpJump, e)
	c.scopes[idx].breakJumps = append(c.scopes[idx].breakJumps, jump)
}

func (c *Compiler) compileContinue(e *ast.ContinueExpr) {
	idx := c.findScope(e.Target)
	for i := len(c.scopes) - 1; i > idx; i-- {
		for n := 0; n < c.scopes[i].tempCount; n++ {
			c.emit(bytecode.OpPop, e)
		}
	}
	c.emitLoop(c.scopes[idx].continueTarget, e)
}

func (c *Compiler) compileReturn(e *ast.ReturnExpr) {
	if e.Value != nil {
		c.compileExpr(e.Value)
	} else {
		c.emit(bytecode.OpNil, e)
	}
	c.emit(bytecode.OpReturn, e)
}
