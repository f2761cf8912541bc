package compiler

import (
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/bytecode"
)

// compileStmt compiles one statement, leaving the operand stack exactly as
// it was before the call (every value-producing path pops its own result).
func (c *Compiler) compileStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		c.compileVarDecl(s)
	case *ast.FunctionDecl:
		c.compileFunctionDeclStmt(s)
	case *ast.NativeDecl:
		// Registered in ctx.natives during Program(); referencing it emits
		// OpGetNative directly, so the declaration itself needs no bytecode.
	case *ast.ClassDecl:
		c.compileClassDeclStmt(s)
	case *ast.TraitDecl:
		// A trait is purely a compile-time composition unit: its members
		// are folded into every composing class's ClassProto, so it never
		// produces bytecode of its own.
	case *ast.ObjectDecl:
		c.compileObjectDeclStmt(s)
	case *ast.ExprStmt:
		c.compileExpr(s.X)
		c.emit(bytecode.OpPop, s)
	case *ast.UsingStmt:
		// Folded into the enclosing class's ClassProto by compileClassDecl.
	}
}

func (c *Compiler) compileVarDecl(s *ast.VarDecl) {
	if s.Init != nil {
		c.compileExpr(s.Init)
	} else {
		c.emit(bytecode.OpNil, s)
	}
	c.storeAndPop(s.Binding, s)
}

// storeAndPop stores the value on top of stack into b's location and
// discards it, for declaration-style statements whose value is never
// itself used.
func (c *Compiler) storeAndPop(b *ast.Binding, n ast.Node) {
	switch b.Kind {
	case ast.GlobalBinding:
		idx := c.chunk.AddConstant(b.Name)
		c.emit(bytecode.OpSetGlobal, n)
		c.emitU16(idx, n)
	default:
		c.emit(bytecode.OpSetLocal, n)
		c.emitU16(uint16(b.Slot), n)
	}
	c.emit(bytecode.OpPop, n)
}

// compileFunctionDeclStmt compiles a `fun` declaration appearing as a
// statement: a top-level one binds a global, a nested one binds the local
// slot the analyzer reserved for its own name, so the closure it
// creates may reference itself recursively.
func (c *Compiler) compileFunctionDeclStmt(s *ast.FunctionDecl) {
	c.compileClosure(s)
	if s.Binding != nil {
		c.storeAndPop(s.Binding, s)
		return
	}
	idx := c.chunk.AddConstant(s.Name)
	c.emit(bytecode.OpSetGlobal, s)
	c.emitU16(idx, s)
	c.emit(bytecode.OpPop, s)
}

// compileClosure wraps fn's compiled FunctionProto into a Closure,
// following it with one (is_local, index) pair per captured upvalue —
// OpClosure's variable-width trailer.
func (c *Compiler) compileClosure(fn *ast.FunctionDecl) {
	proto := compileFunction(fn, c.ctx)
	idx := c.chunk.AddConstant(proto)
	c.emit(bytecode.OpClosure, fn)
	c.emitU16(idx, fn)
	for _, uv := range fn.Env.Upvalues {
		var isLocal byte
		if uv.IsLocal {
			isLocal = 1
		}
		c.emitByte(isLocal, fn)
		c.emitU16(uint16(uv.Index), fn)
	}
}

// compileClassDeclStmt compiles decl's ClassProto and, if it has a
// superclass, links it via OpInherit before binding the result to decl's
// global name.
func (c *Compiler) compileClassDeclStmt(decl *ast.ClassDecl) {
	proto := compileClassDecl(decl, c.ctx)
	idx := c.chunk.AddConstant(proto)
	if decl.SuperName != "" {
		superIdx := c.chunk.AddConstant(decl.SuperName)
		c.emit(bytecode.OpGetGlobal, decl)
		c.emitU16(superIdx, decl)
	}
	c.emit(bytecode.OpClass, decl)
	c.emitU16(idx, decl)
	if decl.SuperName != "" {
		c.emit(bytecode.OpInherit, decl)
	}
	nameIdx := c.chunk.AddConstant(decl.Name)
	c.emit(bytecode.OpSetGlobal, decl)
	c.emitU16(nameIdx, decl)
	c.emit(bytecode.OpPop, decl)
}

// compileObjectDeclStmt desugars `object NAME { ... }` into a hidden class
// plus an eager instance bound to NAME: since top-level statements run
// exactly once, in source order, constructing the instance right here gives
// the same "single shared instance" behavior as a lazily-initialized
// singleton, without needing a lazy-init guard at the bytecode level.
func (c *Compiler) compileObjectDeclStmt(decl *ast.ObjectDecl) {
	proto := compileObjectProto(decl.Name, decl.Members, c.ctx)
	idx := c.chunk.AddConstant(proto)
	c.emit(bytecode.OpClass, decl)
	c.emitU16(idx, decl)
	c.emit(bytecode.OpInstance, decl)
	c.emitByte(0, decl)
	nameIdx := c.chunk.AddConstant(decl.Name)
	c.emit(bytecode.OpSetGlobal, decl)
	c.emitU16(nameIdx, decl)
	c.emit(bytecode.OpPop, decl)
}
