// Package analyzer implements Bite's single-pass resolver: it
// walks the AST, builds per-function/per-class/per-trait/global
// environments, and resolves every name reference to a Binding.
package analyzer

import (
	"fmt"

	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/diag"
	"github.com/bite-lang/bite/internal/token"
)

// localVar is one slot-bound name inside a function (a parameter or a
// `let`). Slot indices are dense and monotonically increasing within a
// function in declaration order.
type localVar struct {
	name     string
	slot     int
	declSpan token.Span
	captured bool
	isParam  bool
}

// blockScope is one compile-time lexical scope inside a function body.
type blockScope struct {
	vars []*localVar
}

func (s *blockScope) find(name string) *localVar {
	for i := len(s.vars) - 1; i >= 0; i-- {
		if s.vars[i].name == name {
			return s.vars[i]
		}
	}
	return nil
}

// funcCtx tracks one function's analysis state: its scope stack, its next
// free local slot, and the upvalue descriptors it has accumulated so far.
// funcCtx forms a chain via enclosing that mirrors lexical nesting, used by
// resolveUpvalue to walk outward across function boundaries.
type funcCtx struct {
	enclosing *funcCtx
	decl      *ast.FunctionDecl // nil for the top-level script
	isMethod  bool
	isCtor    bool

	scopes   []*blockScope
	nextSlot int
	maxSlot  int // high-water mark across the whole function; becomes FunctionEnv.LocalCount
	upvalues []ast.UpvalueDescriptor

	loops []*loopCtx
}

func (f *funcCtx) pushScope() *blockScope {
	s := &blockScope{}
	f.scopes = append(f.scopes, s)
	return s
}

// popScope discards the exiting scope's names from lookup. Slot numbers
// are never reclaimed: a function's locals keep dense, monotonically
// increasing indices in declaration order (data model invariant 2) for the
// whole activation, since a single frame's locals array is long-lived and
// an inner closure may hold an open upvalue into any one of its slots long
// after the declaring block has lexically exited.
func (f *funcCtx) popScope() {
	f.scopes = f.scopes[:len(f.scopes)-1]
}

func (f *funcCtx) topScope() *blockScope {
	return f.scopes[len(f.scopes)-1]
}

// declareLocal allocates the next slot for name in the function's current
// scope. Re-declaration in the same scope is an error, reported
// by the caller which has the diagnostic context.
func (f *funcCtx) declareLocal(name string, span token.Span) *localVar {
	lv := &localVar{name: name, slot: f.nextSlot, declSpan: span}
	f.nextSlot++
	if f.nextSlot > f.maxSlot {
		f.maxSlot = f.nextSlot
	}
	scope := f.topScope()
	scope.vars = append(scope.vars, lv)
	return lv
}

// declareParam is declareLocal tagged as a parameter, so resolveName can
// distinguish ParameterBinding from plain LocalBinding.
func (f *funcCtx) declareParam(name string, span token.Span) *localVar {
	lv := f.declareLocal(name, span)
	lv.isParam = true
	return lv
}

// findLocal searches this function's own scopes only, innermost first.
func (f *funcCtx) findLocal(name string) *localVar {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if lv := f.scopes[i].find(name); lv != nil {
			return lv
		}
	}
	return nil
}

// loopCtx tracks one break/continue target: an unlabeled loop body, or any
// labeled construct (block, loop, while, for).
type loopCtx struct {
	label      string
	node       ast.Node
	isLoop     bool // true for loop/while/for (continue may target it); false for a bare labeled block
}

// memberScope is the lookup context contributed by one enclosing class or
// trait.
type memberScope struct {
	isTrait    bool
	className  string
	members    map[string]*ast.MemberInfo
	classObj   map[string]bool // names visible via ClassObjectBinding
	superChain *ast.ClassDecl  // nearest enclosing class's superclass, for SuperBinding validation
}

// Analyzer runs resolution pass over a single parsed Program.
type Analyzer struct {
	diag *diag.Bag

	globals     map[string]ast.Stmt
	globalOrder []string

	classes map[string]*ast.ClassDecl
	traits  map[string]*ast.TraitDecl

	funcs   []*funcCtx // stack; funcs[0] is the script
	members []*memberScope

	// topLevel is true exactly while analyzeStmt is processing one of
	// Program's direct statements: a `let` there binds to a global, not a
	// script-local slot.
	topLevel bool

	// classInProgress/classDone implement ensureClassAnalyzed's memoized,
	// cycle-detecting lazy analysis so classes may reference a superclass
	// declared later in the file.
	classInProgress map[string]bool
	classDone       map[string]bool
	traitDone       map[string]bool
}

// New creates an Analyzer that reports into bag.
func New(bag *diag.Bag) *Analyzer {
	return &Analyzer{
		diag:            bag,
		globals:         map[string]ast.Stmt{},
		classes:         map[string]*ast.ClassDecl{},
		traits:          map[string]*ast.TraitDecl{},
		classInProgress: map[string]bool{},
		classDone:       map[string]bool{},
		traitDone:       map[string]bool{},
	}
}

func (a *Analyzer) errorf(span token.Span, format string, args ...any) {
	a.diag.Add(diag.Diagnostic{Level: diag.Error, Category: "analysis", Span: span, Message: fmt.Sprintf(format, args...)})
}

// errorfHint is errorf plus a secondary hint pointing at a related span,
// e.g. a prior declaration in a "duplicate declaration" error.
func (a *Analyzer) errorfHint(span token.Span, hintSpan token.Span, hintMsg string, format string, args ...any) {
	a.diag.Add(diag.Diagnostic{
		Level:    diag.Error,
		Category: "analysis",
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
		InlineHints: []diag.Hint{
			{Span: hintSpan, Message: hintMsg, Level: diag.Error},
		},
	})
}

func (a *Analyzer) currentFunc() *funcCtx { return a.funcs[len(a.funcs)-1] }

func (a *Analyzer) inClass() bool  { return len(a.members) > 0 && !a.members[len(a.members)-1].isTrait }
func (a *Analyzer) inTraitOrClass() bool { return len(a.members) > 0 }

// Analyze runs the full resolution pass over prog, mutating it in place
// (bindings, FunctionEnv/ClassEnv/TraitEnv/GlobalEnv attachments) and
// returns once every statement has been visited — analysis keeps going
// after an error so multiple independent mistakes surface in one pass.
func Analyze(prog *ast.Program) []diag.Diagnostic {
	bag := &diag.Bag{}
	a := New(bag)

	script := &funcCtx{decl: nil}
	script.pushScope() // script's own top scope; globals live in a.globals, not here
	a.funcs = append(a.funcs, script)

	// Pass 1: hoist every top-level declaration into globals so forward
	// references (a function calling one declared later) resolve.
	for _, stmt := range prog.Stmts {
		a.hoistTopLevel(stmt)
	}

	a.topLevel = true
	for _, stmt := range prog.Stmts {
		a.analyzeStmt(stmt)
	}
	a.topLevel = false

	script.popScope()
	prog.Env = &ast.GlobalEnv{
		Globals: a.globals,
		Script: &ast.FunctionEnv{
			LocalCount: script.maxSlot,
			Upvalues:   script.upvalues,
		},
	}

	return bag.All()
}
