package analyzer

import (
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/token"
)

// analyzeLabeledBlock analyzes a block expression. Only a labeled block is
// a break target; a bare `{...}` is not.
func (a *Analyzer) analyzeLabeledBlock(b *ast.Block) {
	fc := a.currentFunc()
	var pushed bool
	if b.Label != "" {
		fc.loops = append(fc.loops, &loopCtx{label: b.Label, node: b, isLoop: false})
		pushed = true
	}
	a.analyzeBlockStmts(b)
	if pushed {
		fc.loops = fc.loops[:len(fc.loops)-1]
	}
}

// analyzeLoop handles `loop`/`while` bodies, which are always break/continue
// targets whether or not they carry a label.
func (a *Analyzer) analyzeLoop(label string, node ast.Node, body *ast.Block) {
	fc := a.currentFunc()
	fc.loops = append(fc.loops, &loopCtx{label: label, node: node, isLoop: true})
	a.analyzeBlockStmts(body)
	fc.loops = fc.loops[:len(fc.loops)-1]
}

// analyzeForExpr resolves `for name in iter { body }`. name is a fresh local
// scoped to body, introduced the same way a `let` would be.
func (a *Analyzer) analyzeForExpr(e *ast.ForExpr) {
	a.analyzeExpr(e.Iter)

	fc := a.currentFunc()
	fc.pushScope()
	lv := fc.declareLocal(e.Var, e.Span())
	e.VarBinding = &ast.Binding{Kind: ast.LocalBinding, Slot: lv.slot, Name: e.Var}

	fc.loops = append(fc.loops, &loopCtx{label: e.Label, node: e, isLoop: true})
	a.analyzeBlockStmts(e.Body)
	fc.loops = fc.loops[:len(fc.loops)-1]

	fc.popScope()
}

func (a *Analyzer) analyzeBreak(e *ast.BreakExpr) {
	if e.Value != nil {
		a.analyzeExpr(e.Value)
	}
	target, ok := findLoopTarget(a.currentFunc(), e.Label, false)
	if !ok {
		if e.Label != "" {
			a.errorf(e.Span(), "no enclosing loop or block labeled @%s", e.Label)
		} else {
			a.errorf(e.Span(), "'break' used outside of a loop")
		}
		return
	}
	e.Target = target.node.ID()
}

func (a *Analyzer) analyzeContinue(e *ast.ContinueExpr) {
	target, ok := findLoopTarget(a.currentFunc(), e.Label, true)
	if !ok {
		if e.Label != "" {
			a.errorf(e.Span(), "no enclosing loop labeled @%s", e.Label)
		} else {
			a.errorf(e.Span(), "'continue' used outside of a loop")
		}
		return
	}
	e.Target = target.node.ID()
}

// findLoopTarget walks fc's loop-context stack innermost-first. An unlabeled
// break/continue always targets the nearest actual loop (a labeled bare
// block is never an implicit target); a labeled one matches the nearest
// construct carrying that label, loop or block, subject to mustBeLoop
// (continue can never target a bare block).
func findLoopTarget(fc *funcCtx, label string, mustBeLoop bool) (*loopCtx, bool) {
	for i := len(fc.loops) - 1; i >= 0; i-- {
		lc := fc.loops[i]
		if label == "" {
			if lc.isLoop {
				return lc, true
			}
			continue
		}
		if lc.label == label {
			if mustBeLoop && !lc.isLoop {
				return nil, false
			}
			return lc, true
		}
	}
	return nil, false
}

func (a *Analyzer) analyzeReturn(e *ast.ReturnExpr) {
	if e.Value != nil {
		a.analyzeExpr(e.Value)
	}
	// Every analyzeStmt runs inside some funcCtx, including the top-level
	// script's own implicit function environment, so `return` is always
	// valid: at the top level it simply ends the script.
}

// checkThis validates that `this` appears somewhere inside a method or
// constructor body, walking outward across any nested closures (a closure
// defined inside a method may still reference the enclosing `this`).
func (a *Analyzer) checkThis(span token.Span) {
	for fc := a.currentFunc(); fc != nil; fc = fc.enclosing {
		if fc.isMethod || fc.isCtor {
			return
		}
	}
	a.errorf(span, "'this' used outside of a method")
}

func (a *Analyzer) analyzeSuperExpr(e *ast.SuperExpr) {
	a.checkThis(e.Span())

	if len(a.members) == 0 || a.members[len(a.members)-1].isTrait {
		a.errorf(e.Span(), "'super' used outside of a class")
		return
	}
	top := a.members[len(a.members)-1]
	if top.superChain == nil {
		a.errorf(e.Span(), "%q has no superclass", top.className)
		return
	}
	a.ensureClassAnalyzed(top.superChain)
	if _, ok := top.superChain.Env.Members[e.Method]; !ok {
		a.errorf(e.Span(), "superclass %q has no member %q", top.superChain.Name, e.Method)
		return
	}
	e.Binding = &ast.Binding{Kind: ast.SuperBinding, Member: e.Method}
}
