package infer

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/types"
	"github.com/cottand/duckcheck/internal/log"
)

var logger = log.DefaultLogger.With("section", "collect")

// builtinFuncs are callables provided by the runtime which are not types.
// Calls to them are opaque and never produce requirements.
var builtinFuncs = []string{
	"abs", "all", "any", "callable", "dir", "divmod", "getattr", "hasattr", "hash", "id",
	"input", "isinstance", "iter", "len", "max", "min", "next", "open", "print", "range",
	"repr", "round", "setattr", "sorted", "sum", "type", "vars", "zip",
}

// ClassInfo links a class declaration to its registered ConcreteType and analyzed methods
type ClassInfo struct {
	Def     *ast.ClassDef
	Type    *types.ConcreteType
	Methods map[string]FuncID
}

// Init returns the constructor of the class, NoFunc when it has none
func (c *ClassInfo) Init() FuncID {
	if id, ok := c.Methods["__init__"]; ok {
		return id
	}
	return NoFunc
}

// Env is the symbol arena of a program: every Symbol and Func, and the Registry
// extended with the program's classes.
//
// It is populated by Declare and read-only afterwards, so it can be shared
// by concurrent collectors.
type Env struct {
	Program  *ast.Program
	Registry *types.Registry
	Symbols  []*Symbol
	Funcs    []*Func
	// Failures are problems in the program which are not type errors, like a class
	// shadowing a built-in type. They do not stop the analysis.
	Failures []error

	funcsByName map[string]FuncID
	classes     map[string]*ClassInfo
}

// Declare allocates symbols for every function, method and class of prog,
// registers the classes into a copy of builtins, and settles the concrete
// types of locals and returns.
func Declare(prog *ast.Program, builtins *types.Registry) *Env {
	env := &Env{
		Program:     prog,
		Registry:    builtins.Clone(),
		funcsByName: make(map[string]FuncID),
		classes:     make(map[string]*ClassInfo),
	}
	env.newFunc("<module>", nil, "", prog.Body)

	for _, class := range prog.Classes {
		if _, ok := env.classes[class.Name]; ok {
			env.addFailure(class, "class '%s' is declared more than once", class.Name)
			continue
		}
		info := &ClassInfo{Def: class, Methods: make(map[string]FuncID, len(class.Methods))}
		for _, method := range class.Methods {
			if _, ok := info.Methods[method.Name]; ok {
				env.addFailure(method, "method '%s.%s' is declared more than once, keeping the last one", class.Name, method.Name)
			}
			info.Methods[method.Name] = env.newFunc(class.Name+"."+method.Name, method, class.Name, method.Body).ID
		}
		env.classes[class.Name] = info
	}
	for _, fn := range prog.Funcs {
		if _, ok := env.funcsByName[fn.Name]; ok {
			env.addFailure(fn, "function '%s' is declared more than once, keeping the last one", fn.Name)
		}
		env.funcsByName[fn.Name] = env.newFunc(fn.Name, fn, "", fn.Body).ID
	}

	for _, class := range prog.Classes {
		info := env.classes[class.Name]
		if info.Def != class {
			continue
		}
		info.Type = types.NewConcreteType(env.classSpec(info))
		if err := env.Registry.Register(info.Type); err != nil {
			env.addFailure(class, "%v", err)
			delete(env.classes, class.Name)
		}
	}

	env.resolveTypes()
	logger.Debug("declared program", "program", prog.Name, "symbols", len(env.Symbols), "funcs", len(env.Funcs))
	return env
}

func (env *Env) addFailure(at ast.Positioner, format string, args ...any) {
	err := fmt.Errorf("%v: %s", at.Pos(), fmt.Sprintf(format, args...))
	logger.Warn("declaration failure", "error", err)
	env.Failures = append(env.Failures, err)
}

func (env *Env) newSymbol(kind SymbolKind, name string, fn FuncID, declared types.TypeRef, site ast.Range) SymbolID {
	id := SymbolID(len(env.Symbols))
	env.Symbols = append(env.Symbols, &Symbol{
		ID:       id,
		Kind:     kind,
		Name:     name,
		Func:     fn,
		Declared: declared,
		Site:     site,
	})
	return id
}

func (env *Env) newFunc(name string, def *ast.FuncDef, class string, body []ast.Stmt) *Func {
	f := &Func{
		ID:    FuncID(len(env.Funcs)),
		Name:  name,
		Def:   def,
		Class: class,
		Self:  NoSymbol,
		Body:  body,
		names: make(map[string]SymbolID),
	}
	env.Funcs = append(env.Funcs, f)

	localKind := GlobalSym
	var returns types.TypeRef
	var site ast.Range
	if def != nil {
		localKind = LocalSym
		returns = types.TypeRef(def.Returns)
		site = def.Range
		params := def.Params
		// a method without parameters is a static method, and gets no receiver
		if class != "" && len(params) > 0 {
			self := params[0]
			f.Self = env.newSymbol(ParamSym, self.Name, f.ID, types.TypeRef(class), self.Range)
			f.names[self.Name] = f.Self
			params = params[1:]
		}
		for _, p := range params {
			id := env.newSymbol(ParamSym, p.Name, f.ID, types.TypeRef(p.Annotation), p.Range)
			f.Params = append(f.Params, id)
			f.names[p.Name] = id
		}
	}
	f.Return = env.newSymbol(ReturnSym, "return", f.ID, returns, site)

	for _, name := range ast.AssignedNames(body) {
		if _, ok := f.names[name]; ok {
			continue
		}
		f.names[name] = env.newSymbol(localKind, name, f.ID, types.UnknownRef, ast.Range{})
	}
	ast.WalkStmts(body, func(stmt ast.Stmt) {
		assign, ok := stmt.(*ast.Assign)
		if !ok {
			return
		}
		sym := env.Symbols[f.names[assign.Target]]
		if !sym.Site.Pos().IsValid() {
			sym.Site = assign.Range
		}
		if assign.Annotation != "" && !sym.Declared.Known() {
			sym.Declared = types.TypeRef(assign.Annotation)
		}
	})
	return f
}

// classSpec builds the ConcreteType of a class from its fields, the attributes its
// methods assign on their receiver, and its methods
func (env *Env) classSpec(info *ClassInfo) types.TypeSpec {
	class := info.Def
	spec := types.TypeSpec{
		Name:    class.Name,
		Methods: make(map[string]types.Signature, len(info.Methods)),
	}
	for _, field := range class.Fields {
		spec.Members = append(spec.Members, types.MemberDecl{Name: field.Name, Type: types.TypeRef(field.Annotation)})
	}
	for _, name := range slices.Sorted(maps.Keys(info.Methods)) {
		fn := env.Funcs[info.Methods[name]]
		spec.Methods[name] = fn.Signature(env)
		if !fn.Self.Valid() {
			continue
		}
		self := env.Symbols[fn.Self].Name
		ast.WalkStmts(fn.Body, func(stmt ast.Stmt) {
			assign, ok := stmt.(*ast.AttrAssign)
			if !ok {
				return
			}
			if receiver, ok := assign.Object.(*ast.Name); !ok || receiver.Id != self {
				return
			}
			t := types.TypeRef(assign.Annotation)
			if !t.Known() {
				t = env.staticType(fn, assign.Value)
			}
			spec.Members = append(spec.Members, types.MemberDecl{Name: assign.Attr, Type: t})
		})
	}
	return spec
}

// staticType is the type of expressions whose type does not depend on inference:
// literals and annotated parameters. It is used while classes are not registered yet.
func (env *Env) staticType(fn *Func, expr ast.Expr) types.TypeRef {
	switch expr := expr.(type) {
	case *ast.Literal:
		return types.TypeRef(expr.Kind.TypeName())
	case *ast.Name:
		if id, ok := fn.Lookup(expr.Id); ok && env.Symbols[id].Kind == ParamSym {
			return env.Symbols[id].Declared
		}
	}
	return types.UnknownRef
}

func (env *Env) Symbol(id SymbolID) *Symbol { return env.Symbols[id] }

func (env *Env) Func(id FuncID) *Func { return env.Funcs[id] }

// Class returns the analyzed class named name
func (env *Env) Class(name types.TypeRef) (*ClassInfo, bool) {
	info, ok := env.classes[string(name)]
	return info, ok
}

// FuncByName returns a top-level function
func (env *Env) FuncByName(name string) (FuncID, bool) {
	id, ok := env.funcsByName[name]
	return id, ok
}

func (env *Env) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("program", env.Program.Name),
		slog.Int("symbols", len(env.Symbols)),
		slog.Int("funcs", len(env.Funcs)),
		slog.Int("failures", len(env.Failures)),
	)
}

// RefKind says what a name refers to
type RefKind int

const (
	RefNone RefKind = iota
	RefSymbol
	RefFunc
	RefClass
	// RefBuiltinType is a built-in type used as a callable, like int("3")
	RefBuiltinType
	RefBuiltinFunc
)

// Ref is the result of resolving a name
type Ref struct {
	Kind   RefKind
	Symbol SymbolID
	Func   FuncID
	Type   types.TypeRef
}

// Resolve looks name up from within fn: its receiver, parameters and locals first,
// then globals, functions, classes and built-ins
func (env *Env) Resolve(fn *Func, name string) Ref {
	if id, ok := fn.Lookup(name); ok {
		return Ref{Kind: RefSymbol, Symbol: id}
	}
	if !fn.IsModule() {
		if id, ok := env.Funcs[ModuleFunc].Lookup(name); ok {
			return Ref{Kind: RefSymbol, Symbol: id}
		}
	}
	if id, ok := env.funcsByName[name]; ok {
		return Ref{Kind: RefFunc, Func: id}
	}
	if info, ok := env.classes[name]; ok {
		return Ref{Kind: RefClass, Func: info.Init(), Type: types.TypeRef(name)}
	}
	if t, ok := env.Registry.Lookup(types.TypeRef(name)); ok && t.IsBuiltin() {
		return Ref{Kind: RefBuiltinType, Type: t.Ref()}
	}
	if slices.Contains(builtinFuncs, name) {
		return Ref{Kind: RefBuiltinFunc}
	}
	return Ref{Kind: RefNone}
}
