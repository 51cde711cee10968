package infer

import (
	"fmt"

	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/types"
)

// SymbolID indexes Env.Symbols. IDs are stable for the lifetime of an Env.
type SymbolID int

// NoSymbol is used where a symbol is optional, like the receiver of a plain function
const NoSymbol SymbolID = -1

func (id SymbolID) Valid() bool { return id >= 0 }

type SymbolKind int

const (
	ParamSym SymbolKind = iota
	LocalSym
	// GlobalSym is a name assigned at the top level of the program
	GlobalSym
	// ReturnSym is the return value of a function
	ReturnSym
)

func (k SymbolKind) String() string {
	switch k {
	case ParamSym:
		return "parameter"
	case LocalSym:
		return "local"
	case GlobalSym:
		return "global"
	case ReturnSym:
		return "return value"
	}
	return fmt.Sprintf("symbol(%d)", int(k))
}

// Symbol is a parameter, a local or global variable, or a return value.
//
// Symbols are created by Declare and their Concrete type is settled by the typing pass.
// After that they are read-only: inferred structural types live in a Table.
type Symbol struct {
	ID   SymbolID
	Kind SymbolKind
	Name string
	Func FuncID
	// Declared comes from an annotation (or is the class, for the receiver of a method).
	// It takes precedence over inference.
	Declared types.TypeRef
	// Concrete is the statically known type of the value, for locals, globals and returns
	Concrete types.TypeRef
	Site     ast.Range
}

// Type is the concrete type of the symbol's value, UnknownRef if it has to be inferred
func (s *Symbol) Type() types.TypeRef {
	if s.Declared.Known() {
		return s.Declared
	}
	return s.Concrete
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s '%s'", s.Kind, s.Name)
}

// TypeSource says where the type of a Symbol comes from: an annotation, or inference
type TypeSource interface {
	typeSource()
	String() string
}

// Declared symbols are checked against their ConcreteType directly
type Declared struct {
	Type types.TypeRef
}

// Inferred symbols carry the structural type built from their uses.
// Dynamic is set when the symbol took part in a construct the checker cannot model.
type Inferred struct {
	Structural types.StructuralType
	Dynamic    bool
}

func (Declared) typeSource() {}
func (Inferred) typeSource() {}

func (d Declared) String() string { return "declared " + d.Type.String() }
func (i Inferred) String() string {
	if i.Dynamic {
		return "dynamic"
	}
	return "inferred " + i.Structural.String()
}

// FuncID indexes Env.Funcs
type FuncID int

const (
	// ModuleFunc holds the top-level statements of the program
	ModuleFunc FuncID = 0
	NoFunc     FuncID = -1
)

func (id FuncID) Valid() bool { return id >= 0 }

// Func is an analyzed function, method, or the module body
type Func struct {
	ID   FuncID
	Name string
	// Def is nil for the module body
	Def *ast.FuncDef
	// Class is the name of the owning class for methods
	Class string
	// Self is the receiver of methods, NoSymbol otherwise
	Self SymbolID
	// Params excludes Self
	Params []SymbolID
	Return SymbolID
	Body   []ast.Stmt

	// names maps every name bound in the function (receiver, params, locals) to its symbol
	names map[string]SymbolID
}

// Signature of the callable, without the receiver
func (f *Func) Signature(env *Env) types.Signature {
	sig := types.Signature{}
	if f.Return.Valid() {
		sig.Return = env.Symbols[f.Return].Declared
	}
	if f.Def == nil {
		return sig
	}
	params := f.Def.Params
	if f.Self.Valid() {
		params = params[1:]
	}
	for _, p := range params {
		sig.Params = append(sig.Params, types.Param{Name: p.Name, Type: types.TypeRef(p.Annotation), HasDefault: p.HasDefault})
	}
	return sig
}

func (f *Func) IsModule() bool { return f.ID == ModuleFunc }

// Lookup finds a symbol bound in f itself
func (f *Func) Lookup(name string) (SymbolID, bool) {
	id, ok := f.names[name]
	return id, ok
}
