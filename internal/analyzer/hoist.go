package analyzer

import "github.com/bite-lang/bite/internal/ast"

// hoistTopLevel registers one top-level declaration's name before any
// statement is analyzed, so a function may call another declared later in
// the file.
func (a *Analyzer) hoistTopLevel(stmt ast.Stmt) {
	var name string
	switch s := stmt.(type) {
	case *ast.VarDecl:
		name = s.Name
	case *ast.FunctionDecl:
		name = s.Name
	case *ast.NativeDecl:
		name = s.Name
	case *ast.ClassDecl:
		name = s.Name
		a.classes[s.Name] = s
	case *ast.TraitDecl:
		name = s.Name
		a.traits[s.Name] = s
	case *ast.ObjectDecl:
		name = s.Name
	default:
		return
	}

	if name == "" {
		return
	}
	if existing, dup := a.globals[name]; dup {
		a.errorfHint(stmt.Span(), existing.Span(), "previous declaration here",
			"%q is already declared at the top level", name)
		return
	}
	a.globals[name] = stmt
	a.globalOrder = append(a.globalOrder, name)
}
