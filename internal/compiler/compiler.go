// Package compiler lowers a resolved AST into bytecode.Chunk
// instructions. It never rejects a program: every binding and arity
// question was already settled by the analyzer, so compilation is a
// mechanical, always-succeeding walk.
package compiler

import (
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/bytecode"
)

// loopScope is the compiler's own "break_target/continue_target" stack
// entry, tracking enough to patch every break and emit every
// continue for one breakable construct: a labeled block, or a loop/while/for
// body.
type loopScope struct {
	nodeID         ast.NodeID
	label          string
	isLoop         bool // loop/while/for: valid continue target
	continueTarget int  // byte offset continue jumps to; meaningless if !isLoop
	breakJumps     []int

	// tempCount is the number of values this construct itself keeps live on
	// the operand stack across its whole body — 0 for block/loop/while, 1
	// for `for` (its iterator). break/continue must pop exactly this many
	// (summed across every scope being unwound) before transferring control,
	// since those values sit below the eventual break value/result on the
	// stack and the only way to discard a stack slot is OpPop from the top.
	tempCount int
}

// compileCtx is shared by every Compiler spawned while compiling one
// program: the top-level class/trait/native registries, needed whenever a
// nested function references one, plus the line-lookup callback.
type compileCtx struct {
	classes map[string]*ast.ClassDecl
	traits  map[string]*ast.TraitDecl
	natives map[string]bool
	lineOf  func(ast.Node) int
}

// Compiler compiles one function body (or the top-level script) into a
// single bytecode.Chunk.
type Compiler struct {
	chunk  *bytecode.Chunk
	scopes []*loopScope
	ctx    *compileCtx
}

func newCompiler(name string, ctx *compileCtx) *Compiler {
	return &Compiler{chunk: bytecode.NewChunk(name), ctx: ctx}
}

func (c *Compiler) lineOf(n ast.Node) int {
	if c.ctx.lineOf != nil {
		return c.ctx.lineOf(n)
	}
	return 0
}

func (c *Compiler) emit(op bytecode.Op, n ast.Node) int {
	return c.chunk.Emit(op, c.lineOf(n))
}

func (c *Compiler) emitByte(b byte, n ast.Node) {
	c.chunk.EmitByte(b, c.lineOf(n))
}

func (c *Compiler) emitU16(v uint16, n ast.Node) {
	c.chunk.EmitU16(v, c.lineOf(n))
}

// emitJump emits op followed by a placeholder u16 operand, returning the
// operand's offset for a later PatchU16 once the jump's target is known.
func (c *Compiler) emitJump(op bytecode.Op, n ast.Node) int {
	c.emit(op, n)
	offset := len(c.chunk.Code)
	c.emitU16(0xFFFF, n)
	return offset
}

// patchJumpHere patches the jump operand at offset to target the current
// end of the chunk.
func (c *Compiler) patchJumpHere(offset int) {
	c.chunk.PatchU16(offset, uint16(len(c.chunk.Code)))
}

// emitLoop emits a backward jump to target.
func (c *Compiler) emitLoop(target int, n ast.Node) {
	c.emit(bytecode.OpLoop, n)
	c.emitU16(uint16(target), n)
}

// Program compiles the whole top-level script into a single chunk named
// "script": the script itself is just an arity-0 function. lineOf maps an
// AST node to its 1-based source line, for the chunk's debug line table.
func Program(prog *ast.Program, lineOf func(ast.Node) int) *bytecode.Chunk {
	ctx := &compileCtx{
		classes: map[string]*ast.ClassDecl{},
		traits:  map[string]*ast.TraitDecl{},
		natives: map[string]bool{},
		lineOf:  lineOf,
	}
	for _, stmt := range prog.Stmts {
		switch s := stmt.(type) {
		case *ast.ClassDecl:
			ctx.classes[s.Name] = s
		case *ast.TraitDecl:
			ctx.traits[s.Name] = s
		case *ast.NativeDecl:
			ctx.natives[s.Name] = true
		}
	}

	c := newCompiler("script", ctx)
	c.chunk.LocalCount = prog.Env.Script.LocalCount
	for _, stmt := range prog.Stmts {
		c.compileStmt(stmt)
	}
	c.emit(bytecode.OpNil, prog)
	c.emit(bytecode.OpReturn, prog)
	return c.chunk
}

// compileFunction compiles one FunctionDecl's body into a FunctionProto,
// sharing ctx with its enclosing compilation.
func compileFunction(fn *ast.FunctionDecl, ctx *compileCtx) *bytecode.FunctionProto {
	c := newCompiler(fn.Name, ctx)
	c.chunk.LocalCount = fn.Env.LocalCount

	if fn.SuperArgs != nil {
		// The constructor's `: super(args)` clause runs before the body: it
		// looks up `init` on the superclass and invokes it for effect, result
		// discarded.
		c.emitGetSuper("init", fn)
		for _, arg := range fn.SuperArgs {
			c.compileExpr(arg)
		}
		c.emit(bytecode.OpCall, fn)
		c.emitByte(byte(len(fn.SuperArgs)), fn)
		c.emit(bytecode.OpPop, fn)
	}

	if fn.Body != nil {
		c.compileBlockAsStatement(fn.Body)
	}
	c.emit(bytecode.OpNil, fn)
	c.emit(bytecode.OpReturn, fn)

	upvalues := make([]bytecode.UpvalueRef, len(fn.Env.Upvalues))
	for i, u := range fn.Env.Upvalues {
		upvalues[i] = bytecode.UpvalueRef{Index: u.Index, IsLocal: u.IsLocal}
	}

	return &bytecode.FunctionProto{
		Name:     fn.Name,
		Arity:    len(fn.Params),
		IsMethod: fn.Env.IsMethod,
		IsCtor:   fn.Env.IsCtor,
		Chunk:    c.chunk,
		Upvalues: upvalues,
	}
}

func (c *Compiler) findScope(id ast.NodeID) int {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].nodeID == id {
			return i
		}
	}
	return -1
}
