package analyzer

import "github.com/bite-lang/bite/internal/ast"

// ensureClassAnalyzed fills decl.Env on first use, so a class may name a
// superclass declared later in the file (top-level declarations are
// visible regardless of order). Memoized; a class referencing its own
// superclass chain is reported once as circular inheritance rather than
// recursing forever.
func (a *Analyzer) ensureClassAnalyzed(decl *ast.ClassDecl) {
	if a.classDone[decl.Name] {
		return
	}
	if a.classInProgress[decl.Name] {
		a.errorf(decl.Span(), "circular inheritance involving %q", decl.Name)
		decl.Env = &ast.ClassEnv{Members: map[string]*ast.MemberInfo{}}
		return
	}
	a.classInProgress[decl.Name] = true

	var super *ast.ClassDecl
	if decl.SuperName != "" {
		if sc, ok := a.classes[decl.SuperName]; ok {
			super = sc
			a.ensureClassAnalyzed(super)
		} else {
			a.errorf(decl.Span(), "undefined superclass %q", decl.SuperName)
		}
	}

	members := map[string]*ast.MemberInfo{}
	if super != nil {
		for name, info := range super.Env.Members {
			members[name] = info
		}
	}

	for _, m := range decl.Members {
		if u, ok := m.(*ast.UsingStmt); ok {
			a.applyUsing(u, members)
		}
	}

	var classObjectName string
	var classObjectMembers map[string]bool
	for _, m := range decl.Members {
		switch mm := m.(type) {
		case *ast.VarDecl:
			a.declareClassMember(members, mm.Name, &ast.MemberInfo{
				Private: mm.Attrs.Private, Override: mm.Attrs.Override, Abstract: mm.Attrs.Abstract,
				HasGetter: mm.Attrs.IsGetter, HasSetter: mm.Attrs.IsSetter, Span: mm.Span(), IsField: true,
			})
		case *ast.FunctionDecl:
			if mm.Name == "init" {
				continue
			}
			a.declareClassMember(members, mm.Name, &ast.MemberInfo{
				Private: mm.Attrs.Private, Override: mm.Attrs.Override, Abstract: mm.Attrs.Abstract,
				HasGetter: mm.Attrs.IsGetter, HasSetter: mm.Attrs.IsSetter, Span: mm.Span(), IsMethod: true,
			})
		case *ast.ObjectDecl:
			classObjectName = mm.Name
			a.analyzeObjectDecl(mm)
			classObjectMembers = map[string]bool{}
			for name := range mm.Env.Members {
				classObjectMembers[name] = true
			}
		}
	}

	if !decl.Abstract {
		for name, info := range members {
			if info.Abstract {
				a.errorf(decl.Span(), "non-abstract class %q must implement abstract member %q", decl.Name, name)
			}
		}
	}

	decl.Env = &ast.ClassEnv{Members: members, Super: super, ClassObjectName: classObjectName}

	a.members = append(a.members, &memberScope{
		className: decl.Name, members: members, classObj: classObjectMembers, superChain: super,
	})

	if decl.Ctor != nil {
		a.analyzeFunctionBody(decl.Ctor, true, true)
		wantArity := 0
		if super != nil && super.Ctor != nil {
			wantArity = len(super.Ctor.Params)
		}
		if super != nil && len(decl.Ctor.SuperArgs) != wantArity {
			a.errorf(decl.Ctor.Span(), "super constructor for %q expects %d argument(s), got %d",
				decl.SuperName, wantArity, len(decl.Ctor.SuperArgs))
		} else if super == nil && decl.Ctor.SuperArgs != nil {
			a.errorf(decl.Ctor.Span(), "%q has no superclass constructor to call", decl.Name)
		}
	}
	for _, m := range decl.Members {
		switch mm := m.(type) {
		case *ast.FunctionDecl:
			if mm.Name == "init" || mm.Body == nil {
				continue
			}
			a.analyzeFunctionBody(mm, true, false)
		case *ast.VarDecl:
			if mm.Init != nil {
				a.analyzeExpr(mm.Init)
			}
			mm.Binding = &ast.Binding{Kind: ast.MemberBinding, Member: mm.Name}
		}
	}

	a.members = a.members[:len(a.members)-1]
	a.classDone[decl.Name] = true
	delete(a.classInProgress, decl.Name)
}

// declareClassMember merges a newly declared member into members, enforcing
// the override rule: a member that shadows an inherited one must carry
// `override`, and `override` on a member that shadows nothing is itself an
// error. A getter/setter pair is the one case that may be completed across
// two declarations: a `set` added later for a name that already has a
// `get` (or vice versa) merges rather than conflicts.
func (a *Analyzer) declareClassMember(members map[string]*ast.MemberInfo, name string, info *ast.MemberInfo) {
	existing, inherited := members[name]
	if inherited && (info.HasGetter || info.HasSetter) && (existing.HasGetter || existing.HasSetter) {
		merged := *existing
		merged.HasGetter = existing.HasGetter || info.HasGetter
		merged.HasSetter = existing.HasSetter || info.HasSetter
		merged.Abstract = info.Abstract
		merged.Span = info.Span
		members[name] = &merged
		return
	}
	if inherited && !info.Override {
		a.errorf(info.Span, "%q overrides inherited member %q without 'override'", name, name)
	} else if !inherited && info.Override {
		a.errorf(info.Span, "%q is marked 'override' but does not override anything", name)
	}
	members[name] = info
}

// applyUsing composes trait into members: every non-excluded
// trait member is copied in under its original name or its rename, and a
// name collision with an already-present member is an error (the composing
// class must exclude or rename one side).
func (a *Analyzer) applyUsing(u *ast.UsingStmt, members map[string]*ast.MemberInfo) {
	trait, ok := a.traits[u.Trait]
	if !ok {
		a.errorf(u.Span(), "undefined trait %q", u.Trait)
		return
	}
	a.ensureTraitAnalyzed(trait)

	for name, info := range trait.Env.Members {
		if containsStr(u.Excludes, name) {
			continue
		}
		target := name
		if renamed, ok := u.Renames[name]; ok {
			target = renamed
		}
		if _, exists := members[target]; exists {
			a.errorf(u.Span(), "trait %q member %q conflicts with an existing member %q; exclude or rename it", u.Trait, name, target)
			continue
		}
		members[target] = info
	}

	for _, arg := range u.Args {
		a.analyzeExpr(arg)
	}
}

func containsStr(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// ensureTraitAnalyzed fills decl.Env, the same lazy-memoized way
// ensureClassAnalyzed does, and resolves method bodies with the trait's
// member scope active so unqualified references to sibling members work.
func (a *Analyzer) ensureTraitAnalyzed(decl *ast.TraitDecl) {
	if a.traitDone[decl.Name] {
		return
	}
	a.traitDone[decl.Name] = true

	members := map[string]*ast.MemberInfo{}
	requirements := map[string]bool{}
	for _, m := range decl.Members {
		switch mm := m.(type) {
		case *ast.VarDecl:
			members[mm.Name] = &ast.MemberInfo{
				Private: mm.Attrs.Private, Abstract: mm.Attrs.Abstract,
				HasGetter: mm.Attrs.IsGetter, HasSetter: mm.Attrs.IsSetter, Span: mm.Span(), IsField: true,
			}
		case *ast.FunctionDecl:
			members[mm.Name] = &ast.MemberInfo{
				Private: mm.Attrs.Private, Abstract: mm.Attrs.Abstract,
				HasGetter: mm.Attrs.IsGetter, HasSetter: mm.Attrs.IsSetter, Span: mm.Span(), IsMethod: true,
			}
			if mm.Body == nil {
				requirements[mm.Name] = true
			}
		case *ast.UsingStmt:
			a.applyUsing(mm, members)
		}
	}
	decl.Env = &ast.TraitEnv{Members: members, Requirements: requirements}

	a.members = append(a.members, &memberScope{isTrait: true, className: decl.Name, members: members})
	for _, m := range decl.Members {
		if fn, ok := m.(*ast.FunctionDecl); ok && fn.Body != nil {
			a.analyzeFunctionBody(fn, true, false)
		}
	}
	a.members = a.members[:len(a.members)-1]
}

// analyzeObjectDecl resolves a top-level singleton's members: `object NAME
// { ... }` desugars to a hidden class plus an instance constructed once,
// eagerly, the moment the declaration's statement runs.
func (a *Analyzer) analyzeObjectDecl(decl *ast.ObjectDecl) {
	members := a.collectObjectMembers(decl.Members)
	decl.Env = &ast.ClassEnv{Members: members}
	a.analyzeObjectBody(decl.Name, decl.Members, members)
}

func (a *Analyzer) analyzeObjectExpr(e *ast.ObjectExpr) {
	members := a.collectObjectMembers(e.Members)
	e.Env = &ast.ClassEnv{Members: members}
	a.analyzeObjectBody("<object>", e.Members, members)
}

func (a *Analyzer) collectObjectMembers(decls []ast.Stmt) map[string]*ast.MemberInfo {
	members := map[string]*ast.MemberInfo{}
	for _, m := range decls {
		switch mm := m.(type) {
		case *ast.VarDecl:
			members[mm.Name] = &ast.MemberInfo{
				Private: mm.Attrs.Private, HasGetter: mm.Attrs.IsGetter, HasSetter: mm.Attrs.IsSetter,
				Span: mm.Span(), IsField: true,
			}
		case *ast.FunctionDecl:
			members[mm.Name] = &ast.MemberInfo{
				Private: mm.Attrs.Private, HasGetter: mm.Attrs.IsGetter, HasSetter: mm.Attrs.IsSetter,
				Span: mm.Span(), IsMethod: true,
			}
		case *ast.UsingStmt:
			a.applyUsing(mm, members)
		}
	}
	return members
}

func (a *Analyzer) analyzeObjectBody(name string, decls []ast.Stmt, members map[string]*ast.MemberInfo) {
	a.members = append(a.members, &memberScope{className: name, members: members})
	for _, m := range decls {
		switch mm := m.(type) {
		case *ast.FunctionDecl:
			a.analyzeFunctionBody(mm, true, mm.Name == "init")
		case *ast.VarDecl:
			if mm.Init != nil {
				a.analyzeExpr(mm.Init)
			}
			mm.Binding = &ast.Binding{Kind: ast.MemberBinding, Member: mm.Name}
		}
	}
	a.members = a.members[:len(a.members)-1]
}
