package analyzer

import (
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/token"
)

// analyzeStmt dispatches on stmt's concrete type and resolves every name it
// contains. Top-level declarations were already registered by hoistTopLevel;
// here we fill in bodies and bindings.
func (a *Analyzer) analyzeStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		a.analyzeVarDecl(s)
	case *ast.FunctionDecl:
		a.analyzeFunctionDecl(s)
	case *ast.NativeDecl:
		// A native declaration has no body to resolve; it was already
		// registered as a global in hoistTopLevel. The compiler emits
		// GET_NATIVE for references to it, which reads the VM's native
		// table rather than its globals.
	case *ast.ClassDecl:
		a.ensureClassAnalyzed(s)
	case *ast.TraitDecl:
		a.ensureTraitAnalyzed(s)
	case *ast.ObjectDecl:
		a.analyzeObjectDecl(s)
	case *ast.ExprStmt:
		a.analyzeExpr(s.X)
	case *ast.UsingStmt:
		// Only valid inside a class/trait body; applyUsing handles it
		// there. Reaching this dispatch means it appeared elsewhere.
		a.errorf(stmt.Span(), "'using' is only valid inside a class or trait body")
	}
}

func (a *Analyzer) analyzeVarDecl(s *ast.VarDecl) {
	if s.Init != nil {
		a.analyzeExpr(s.Init)
	}

	if a.topLevel {
		s.Binding = &ast.Binding{Kind: ast.GlobalBinding, Name: s.Name}
		return
	}

	fc := a.currentFunc()
	if existing := fc.topScope().find(s.Name); existing != nil {
		a.errorfHint(s.Span(), existing.declSpan, "previous declaration here",
			"%q is already declared in this scope", s.Name)
	}
	lv := fc.declareLocal(s.Name, s.Span())
	s.Binding = &ast.Binding{Kind: ast.LocalBinding, Slot: lv.slot}
}

// analyzeFunctionDecl resolves a top-level or nested function declaration's
// body in a fresh funcCtx, pushed onto a.funcs for the duration.
func (a *Analyzer) analyzeFunctionDecl(s *ast.FunctionDecl) {
	if !a.topLevel {
		// A nested `fun` declares its own name as a local in the enclosing
		// scope so it may be referenced, including recursively through the
		// closure it creates.
		fc := a.currentFunc()
		lv := fc.declareLocal(s.Name, s.Span())
		s.Binding = &ast.Binding{Kind: ast.LocalBinding, Slot: lv.slot, Name: s.Name}
	}
	a.analyzeFunctionBody(s, false, false)
}

// analyzeFunctionBody resolves params and body for any function-shaped
// declaration (plain function, method, constructor), pushing a new funcCtx.
func (a *Analyzer) analyzeFunctionBody(s *ast.FunctionDecl, isMethod, isCtor bool) {
	parent := a.currentFunc()
	fc := &funcCtx{enclosing: parent, decl: s, isMethod: isMethod, isCtor: isCtor}
	fc.pushScope()

	// Slot 0 is reserved for `this` in methods/constructors; plain
	// functions start allocating parameters at slot 0.
	paramSlots := make([]int, 0, len(s.Params))
	if isMethod {
		fc.nextSlot = 1
		fc.maxSlot = 1
	}
	for _, p := range s.Params {
		lv := fc.declareParam(p, s.Span())
		paramSlots = append(paramSlots, lv.slot)
	}

	a.funcs = append(a.funcs, fc)
	prevTop := a.topLevel
	a.topLevel = false

	for _, arg := range s.SuperArgs {
		a.analyzeExpr(arg)
	}
	if s.Body != nil {
		a.analyzeBlockStmts(s.Body)
	}

	a.topLevel = prevTop
	a.funcs = a.funcs[:len(a.funcs)-1]
	fc.popScope()

	s.Env = &ast.FunctionEnv{
		ParamSlots: paramSlots,
		LocalCount: fc.maxSlot,
		Upvalues:   fc.upvalues,
		IsMethod:   isMethod,
		IsCtor:     isCtor,
	}
}

// analyzeExpr dispatches on expr's concrete type, resolving every contained
// name and recursing into subexpressions.
func (a *Analyzer) analyzeExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Literal, *ast.StringLit, *ast.Invalid:
		// No names to resolve.
	case *ast.Unary:
		a.analyzeExpr(e.Operand)
	case *ast.Binary:
		a.analyzeExpr(e.Left)
		a.analyzeExpr(e.Right)
	case *ast.RangeExpr:
		a.analyzeExpr(e.Start)
		a.analyzeExpr(e.End)
	case *ast.Variable:
		e.Binding = a.resolveName(e.Name, e.Span())
	case *ast.Assign:
		a.analyzeExpr(e.Value)
		a.analyzeAssignTarget(e.Target)
	case *ast.Call:
		a.analyzeExpr(e.Callee)
		for _, arg := range e.Args {
			a.analyzeExpr(arg)
		}
	case *ast.GetProperty:
		a.analyzeExpr(e.Object)
	case *ast.SuperExpr:
		a.analyzeSuperExpr(e)
	case *ast.ThisExpr:
		a.checkThis(e.Span())
	case *ast.ObjectExpr:
		a.analyzeObjectExpr(e)
	case *ast.Block:
		a.analyzeLabeledBlock(e)
	case *ast.IfExpr:
		a.analyzeExpr(e.Cond)
		a.analyzeLabeledBlock(e.Then)
		if e.Else != nil {
			a.analyzeExpr(e.Else)
		}
	case *ast.LoopExpr:
		a.analyzeLoop(e.Label, e, e.Body)
	case *ast.WhileExpr:
		a.analyzeExpr(e.Cond)
		a.analyzeLoop(e.Label, e, e.Body)
	case *ast.ForExpr:
		a.analyzeForExpr(e)
	case *ast.BreakExpr:
		a.analyzeBreak(e)
	case *ast.ContinueExpr:
		a.analyzeContinue(e)
	case *ast.ReturnExpr:
		a.analyzeReturn(e)
	}
}

// analyzeBlockStmts analyzes a block's statements and trailing expression in
// a fresh lexical scope within the current function.
func (a *Analyzer) analyzeBlockStmts(b *ast.Block) {
	fc := a.currentFunc()
	fc.pushScope()
	for _, stmt := range b.Stmts {
		a.analyzeStmt(stmt)
	}
	if b.Trailing != nil {
		a.analyzeExpr(b.Trailing)
	}
	fc.popScope()
}

func (a *Analyzer) analyzeAssignTarget(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Variable:
		t.Binding = a.resolveName(t.Name, t.Span())
	case *ast.GetProperty:
		a.analyzeExpr(t.Object)
	case *ast.SuperExpr:
		a.analyzeSuperExpr(t)
	}
}

// resolveName implements resolution order: current function's
// locals/parameters, then the enclosing class's members, then the enclosing
// trait's members, then upvalues across enclosing function boundaries, then
// globals, then failure.
func (a *Analyzer) resolveName(name string, span token.Span) *ast.Binding {
	fc := a.currentFunc()

	if lv := fc.findLocal(name); lv != nil {
		if lv.isParam {
			return &ast.Binding{Kind: ast.ParameterBinding, Slot: lv.slot, Name: name}
		}
		return &ast.Binding{Kind: ast.LocalBinding, Slot: lv.slot, Name: name}
	}

	if len(a.members) > 0 {
		top := a.members[len(a.members)-1]
		if info, ok := top.members[name]; ok {
			_ = info
			return &ast.Binding{Kind: ast.MemberBinding, Member: name}
		}
		if top.classObj[name] {
			return &ast.Binding{Kind: ast.ClassObjectBinding, Member: name}
		}
	}

	if b, ok := a.resolveUpvalue(fc, name); ok {
		return b
	}

	if _, ok := a.globals[name]; ok {
		return &ast.Binding{Kind: ast.GlobalBinding, Name: name}
	}

	a.errorf(span, "undefined name %q", name)
	return &ast.Binding{Kind: ast.NoBinding, Name: name}
}

// resolveUpvalue is the classic recursive upvalue-capture algorithm (clox):
// the innermost function that actually owns the local receives
// {index: slot, is_local: true}; every function between it and the
// requesting function forwards {index: previous_upvalue_index,
// is_local: false}.
func (a *Analyzer) resolveUpvalue(fc *funcCtx, name string) (*ast.Binding, bool) {
	if fc.enclosing == nil {
		return nil, false
	}

	if lv := fc.enclosing.findLocal(name); lv != nil {
		lv.captured = true
		idx := addUpvalue(fc, ast.UpvalueDescriptor{Index: lv.slot, IsLocal: true})
		return &ast.Binding{Kind: ast.UpvalueBinding, UpvalueIndex: idx, Name: name}, true
	}

	if outer, ok := a.resolveUpvalue(fc.enclosing, name); ok {
		idx := addUpvalue(fc, ast.UpvalueDescriptor{Index: outer.UpvalueIndex, IsLocal: false})
		return &ast.Binding{Kind: ast.UpvalueBinding, UpvalueIndex: idx, Name: name}, true
	}

	return nil, false
}

// addUpvalue records fc's capture of desc, reusing an existing slot for the
// same (Index, IsLocal) pair rather than capturing twice.
func addUpvalue(fc *funcCtx, desc ast.UpvalueDescriptor) int {
	for i, existing := range fc.upvalues {
		if existing == desc {
			return i
		}
	}
	fc.upvalues = append(fc.upvalues, desc)
	return len(fc.upvalues) - 1
}
