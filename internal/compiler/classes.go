package compiler

import (
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/bytecode"
	"github.com/bite-lang/bite/internal/token"
)

// compileClassDecl compiles decl's own directly-declared members plus every
// member contributed by its `using` clauses into a ClassProto. Inherited
// members are not copied in here: OpInherit (emitted by the caller) links
// the superclass ClassObject at runtime and lookups walk that chain, so only
// what decl itself declares or composes via traits needs a compiled body.
func compileClassDecl(decl *ast.ClassDecl, ctx *compileCtx) *bytecode.ClassProto {
	fields, fieldOrder, methods, getters, setters := collectMembers(decl.Members, ctx, nil, nil)

	var ctor *bytecode.FunctionProto
	if decl.Ctor != nil {
		ctor = compileFunction(decl.Ctor, ctx)
	} else {
		ctor = defaultCtorProto(decl.SuperName, ctx)
	}

	methodProtos := compileMemberFuncs(methods, ctx)
	getterProtos := compileMemberFuncs(getters, ctx)
	setterProtos := compileMemberFuncs(setters, ctx)

	fieldInits := make([]bytecode.FieldInit, 0, len(fieldOrder))
	for _, name := range fieldOrder {
		fieldInits = append(fieldInits, bytecode.FieldInit{
			Name: name,
			Init: compileFieldInit(fields[name], ctx),
		})
	}

	var companion *bytecode.ClassProto
	for _, m := range decl.Members {
		if od, ok := m.(*ast.ObjectDecl); ok {
			companion = compileObjectProto(od.Name, od.Members, ctx)
		}
	}

	return &bytecode.ClassProto{
		Name:            decl.Name,
		SuperName:       decl.SuperName,
		Ctor:            ctor,
		Methods:         methodProtos,
		Getters:         getterProtos,
		Setters:         setterProtos,
		Fields:          fieldInits,
		Abstract:        decl.Abstract,
		ClassObjectName: decl.Env.ClassObjectName,
		Companion:       companion,
	}
}

// compileMemberFuncs compiles every concrete (non-abstract) body in decls
// into a FunctionProto, keyed by member name; shared by Methods, Getters,
// and Setters compilation since all three are just name -> FunctionDecl
// maps that skip bodyless (abstract/requirement) entries.
func compileMemberFuncs(decls map[string]*ast.FunctionDecl, ctx *compileCtx) map[string]*bytecode.FunctionProto {
	protos := make(map[string]*bytecode.FunctionProto, len(decls))
	for name, mm := range decls {
		if mm.Body == nil {
			continue // abstract method: no callable body, never invoked directly
		}
		protos[name] = compileFunction(mm, ctx)
	}
	return protos
}

// compileObjectProto compiles an object literal's (named or anonymous)
// members into a ClassProto with no superclass, used for both a top-level
// `object NAME { ... }` and an inline `object { ... }` expression.
func compileObjectProto(name string, members []ast.Stmt, ctx *compileCtx) *bytecode.ClassProto {
	fields, fieldOrder, methods, getters, setters := collectMembers(members, ctx, nil, nil)

	var ctor *bytecode.FunctionProto
	if init, ok := methods["init"]; ok {
		ctor = compileFunction(init, ctx)
		delete(methods, "init")
	} else {
		ctor = defaultCtorProto("", ctx)
	}

	methodProtos := compileMemberFuncs(methods, ctx)
	getterProtos := compileMemberFuncs(getters, ctx)
	setterProtos := compileMemberFuncs(setters, ctx)

	fieldInits := make([]bytecode.FieldInit, 0, len(fieldOrder))
	for _, fname := range fieldOrder {
		fieldInits = append(fieldInits, bytecode.FieldInit{
			Name: fname,
			Init: compileFieldInit(fields[fname], ctx),
		})
	}

	return &bytecode.ClassProto{
		Name: name, Ctor: ctor,
		Methods: methodProtos, Getters: getterProtos, Setters: setterProtos,
		Fields: fieldInits,
	}
}

// collectMembers flattens members (a class, object, or trait body) into its
// own fields/methods/getters/setters, recursively folding in any `using`
// trait's members too (excluding/renaming per that using clause), skipping a
// nested ObjectDecl (a class-object/companion, which the analyzer tracks
// separately and which compiles as its own independent ClassProto, not
// wired in here).
//
// getters and setters are kept apart from methods, not merged by name: a
// class may declare `get x(){...}` and `set x(v){...}` as two independent
// FunctionDecls sharing the name "x" (spec.md §4.4's "partial overrides of
// getter/setter pairs... tracking each capability independently"); folding
// them into one name-keyed map would make the second declaration silently
// overwrite the first instead of contributing a distinct capability.
func collectMembers(
	members []ast.Stmt, ctx *compileCtx, excludes []string, renames map[string]string,
) (
	fields map[string]*ast.VarDecl, fieldOrder []string,
	methods, getters, setters map[string]*ast.FunctionDecl,
) {
	fields = map[string]*ast.VarDecl{}
	methods = map[string]*ast.FunctionDecl{}
	getters = map[string]*ast.FunctionDecl{}
	setters = map[string]*ast.FunctionDecl{}

	rename := func(name string) (string, bool) {
		if containsStr(excludes, name) {
			return "", false
		}
		if r, ok := renames[name]; ok {
			return r, true
		}
		return name, true
	}

	for _, m := range members {
		switch mm := m.(type) {
		case *ast.VarDecl:
			if target, ok := rename(mm.Name); ok {
				if _, exists := fields[target]; !exists {
					fieldOrder = append(fieldOrder, target)
				}
				fields[target] = mm
			}
		case *ast.FunctionDecl:
			if mm.Name == "init" {
				continue
			}
			target, ok := rename(mm.Name)
			if !ok {
				continue
			}
			switch {
			case mm.Attrs.IsGetter:
				getters[target] = mm
			case mm.Attrs.IsSetter:
				setters[target] = mm
			default:
				methods[target] = mm
			}
		case *ast.UsingStmt:
			if trait, ok := ctx.traits[mm.Trait]; ok {
				tf, to, tm, tg, ts := collectMembers(trait.Members, ctx, mm.Excludes, mm.Renames)
				for _, name := range to {
					if _, exists := fields[name]; !exists {
						fieldOrder = append(fieldOrder, name)
					}
					fields[name] = tf[name]
				}
				for name, fn := range tm {
					methods[name] = fn
				}
				for name, fn := range tg {
					getters[name] = fn
				}
				for name, fn := range ts {
					setters[name] = fn
				}
			}
		}
	}
	return fields, fieldOrder, methods, getters, setters
}

func containsStr(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// defaultCtorProto synthesizes the constructor a class gets when it writes
// no explicit `init`: it just forwards to the superclass's own zero-arg
// constructor, if any. Field initialization itself is not part of the
// constructor chunk at all — the VM runs each FieldInit in declaration
// order when it allocates a new instance, before the constructor body
// executes.
func defaultCtorProto(superName string, ctx *compileCtx) *bytecode.FunctionProto {
	c := newCompiler("init", ctx)
	c.chunk.LocalCount = 1 // slot 0: this
	if superName != "" {
		c.emitGetSuper("init", &implicitNode{})
		c.emit(bytecode.OpCall, &implicitNode{})
		c.emitByte(0, &implicitNode{})
		c.emit(bytecode.OpPop, &implicitNode{})
	}
	c.emit(bytecode.OpNil, &implicitNode{})
	c.emit(bytecode.OpReturn, &implicitNode{})
	return &bytecode.FunctionProto{Name: "init", Arity: 0, IsMethod: true, IsCtor: true, Chunk: c.chunk}
}

// compileFieldInit compiles one field's default-value expression into its
// own zero-arg FunctionProto, called with the new instance bound as `this`
// so a field initializer may reference sibling members.
func compileFieldInit(v *ast.VarDecl, ctx *compileCtx) *bytecode.FunctionProto {
	c := newCompiler(v.Name+"$init", ctx)
	c.chunk.LocalCount = 1 // slot 0: this
	if v.Init != nil {
		c.compileExpr(v.Init)
	} else {
		c.emit(bytecode.OpNil, v)
	}
	c.emit(bytecode.OpReturn, v)
	return &bytecode.FunctionProto{Name: v.Name + "$init", Arity: 0, IsMethod: true, Chunk: c.chunk}
}

// implicitNode gives compiler-synthesized instructions (with no source
// counterpart, such as a synthesized default constructor) a zero Span
// rather than needing every emit call to accept a nil ast.Node.
type implicitNode struct{}

func (implicitNode) ID() ast.NodeID   { return 0 }
func (implicitNode) Span() token.Span { return token.Span{} }
