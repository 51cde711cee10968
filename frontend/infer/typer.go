package infer

import (
	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/types"
)

// CalleeKind classifies the target of a call expression
type CalleeKind int

const (
	// CallOpaque targets cannot be analyzed: built-in functions, unresolved names,
	// and methods on receivers of unknown type
	CallOpaque CalleeKind = iota
	CallFunction
	CallMethod
	// CallConstructor instantiates an analyzed class. Func is its __init__, if any.
	CallConstructor
	// CallBuiltinConstructor instantiates a built-in type, like int("3")
	CallBuiltinConstructor
	// CallTypedMethod is a method looked up on a receiver of known type, which is not
	// an analyzed method (usually a method of a built-in type, or an absent one)
	CallTypedMethod
	// CallUntypedMethod is a method called on a receiver which has to be inferred
	CallUntypedMethod
)

// Callee is the resolved target of a call
type Callee struct {
	Kind CalleeKind
	Func FuncID
	// Receiver is the type of the receiver for methods, and the instantiated type for constructors
	Receiver types.TypeRef
	// ReceiverSym is set for CallUntypedMethod when the receiver is a plain name
	ReceiverSym SymbolID
	Name        string
}

func (c Callee) IsOpaque() bool { return c.Kind == CallOpaque }

// ResolveCall finds what call invokes, from within fn
func (env *Env) ResolveCall(fn *Func, call *ast.Call) Callee {
	switch target := call.Func.(type) {
	case *ast.Name:
		ref := env.Resolve(fn, target.Id)
		switch ref.Kind {
		case RefFunc:
			return Callee{Kind: CallFunction, Func: ref.Func, Name: target.Id, ReceiverSym: NoSymbol}
		case RefClass:
			return Callee{Kind: CallConstructor, Func: ref.Func, Receiver: ref.Type, Name: target.Id, ReceiverSym: NoSymbol}
		case RefBuiltinType:
			return Callee{Kind: CallBuiltinConstructor, Func: NoFunc, Receiver: ref.Type, Name: target.Id, ReceiverSym: NoSymbol}
		}
		return Callee{Kind: CallOpaque, Func: NoFunc, Name: target.Id, ReceiverSym: NoSymbol}

	case *ast.Attribute:
		receiver := env.TypeOf(fn, target.Value)
		if receiver.Known() {
			if info, ok := env.Class(receiver); ok {
				if method, ok := info.Methods[target.Attr]; ok {
					return Callee{Kind: CallMethod, Func: method, Receiver: receiver, Name: target.Attr, ReceiverSym: NoSymbol}
				}
			}
			return Callee{Kind: CallTypedMethod, Func: NoFunc, Receiver: receiver, Name: target.Attr, ReceiverSym: NoSymbol}
		}
		callee := Callee{Kind: CallUntypedMethod, Func: NoFunc, Name: target.Attr, ReceiverSym: NoSymbol}
		if name, ok := target.Value.(*ast.Name); ok {
			if ref := env.Resolve(fn, name.Id); ref.Kind == RefSymbol {
				callee.ReceiverSym = ref.Symbol
			}
		}
		return callee
	}
	return Callee{Kind: CallOpaque, Func: NoFunc, ReceiverSym: NoSymbol}
}

// TypeOf returns the concrete type of expr as known after the typing pass,
// UnknownRef when it depends on inference
func (env *Env) TypeOf(fn *Func, expr ast.Expr) types.TypeRef {
	switch expr := expr.(type) {
	case *ast.Literal:
		return types.TypeRef(expr.Kind.TypeName())

	case *ast.Name:
		if ref := env.Resolve(fn, expr.Id); ref.Kind == RefSymbol {
			return env.Symbols[ref.Symbol].Type()
		}

	case *ast.Attribute:
		receiver, ok := env.Registry.Lookup(env.TypeOf(fn, expr.Value))
		if !ok {
			return types.UnknownRef
		}
		member, _ := receiver.Member(expr.Attr)
		return member

	case *ast.Call:
		return env.callType(fn, expr)

	case *ast.Compare:
		return "bool"

	case *ast.BinOp:
		return env.binOpType(expr.Op, env.TypeOf(fn, expr.Left), env.TypeOf(fn, expr.Right))
	}
	return types.UnknownRef
}

func (env *Env) callType(fn *Func, call *ast.Call) types.TypeRef {
	callee := env.ResolveCall(fn, call)
	switch callee.Kind {
	case CallFunction, CallMethod:
		return env.Symbols[env.Funcs[callee.Func].Return].Type()
	case CallConstructor, CallBuiltinConstructor:
		return callee.Receiver
	case CallTypedMethod:
		receiver, ok := env.Registry.Lookup(callee.Receiver)
		if !ok {
			return types.UnknownRef
		}
		sig, _ := receiver.Method(callee.Name)
		return sig.Return
	}
	return types.UnknownRef
}

// binOpType follows the numeric tower: mixing two numbers yields the widest,
// except true division which never yields an int
func (env *Env) binOpType(op string, left, right types.TypeRef) types.TypeRef {
	if !left.Known() || !right.Known() {
		return types.UnknownRef
	}
	wider := types.UnknownRef
	switch {
	case left == right:
		wider = left
	case env.Registry.IsSubtype(left, right):
		wider = right
	case env.Registry.IsSubtype(right, left):
		wider = left
	default:
		return types.UnknownRef
	}
	if !env.Registry.IsSubtype(wider, "complex") {
		if op == "+" && wider == "str" {
			return wider
		}
		return types.UnknownRef
	}
	if op == "/" && env.Registry.IsSubtype(wider, "int") {
		return "float"
	}
	if wider == "bool" && op != "&" && op != "|" && op != "^" {
		return "int"
	}
	return wider
}

// resolveTypes settles the Concrete type of locals, globals and return values.
//
// A symbol assigned values of different types, or of a type that is unknown, stays
// unknown and gets inferred instead. Types of calls depend on the return types of
// their callees, so this runs until nothing changes, at most once per function plus one.
func (env *Env) resolveTypes() {
	maxPasses := len(env.Funcs) + 1
	for pass := 0; pass < maxPasses; pass++ {
		next := make(map[SymbolID]types.TypeRef)
		for _, fn := range env.Funcs {
			env.typeFunc(fn, next)
		}
		changed := false
		for _, sym := range env.Symbols {
			if sym.Kind == ParamSym {
				continue
			}
			if t := next[sym.ID]; t != sym.Concrete {
				sym.Concrete = t
				changed = true
			}
		}
		if !changed {
			logger.Debug("resolved concrete types", "passes", pass+1)
			return
		}
	}
	logger.Warn("concrete types did not settle", "passes", maxPasses)
}

// typeFunc records in next the type of every assignment and return of fn,
// reading types from the previous pass
func (env *Env) typeFunc(fn *Func, next map[SymbolID]types.TypeRef) {
	// types.UnknownRef marks symbols which already saw a value of unknown or differing type
	seen := make(map[SymbolID]bool)
	record := func(id SymbolID, t types.TypeRef) {
		if !seen[id] {
			seen[id] = true
			next[id] = t
			return
		}
		if next[id] != t {
			next[id] = types.UnknownRef
		}
	}
	returned := false
	ast.WalkStmts(fn.Body, func(stmt ast.Stmt) {
		switch stmt := stmt.(type) {
		case *ast.Assign:
			id, ok := fn.Lookup(stmt.Target)
			if !ok || env.Symbols[id].Kind == ParamSym {
				return
			}
			record(id, env.TypeOf(fn, stmt.Value))
		case *ast.Return:
			returned = true
			if stmt.Value == nil {
				record(fn.Return, "NoneType")
				return
			}
			record(fn.Return, env.TypeOf(fn, stmt.Value))
		}
	})
	if !returned && fn.Def != nil {
		record(fn.Return, "NoneType")
	}
}
