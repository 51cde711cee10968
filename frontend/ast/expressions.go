package ast

var (
	_ Expr = (*Name)(nil)
	_ Expr = (*Literal)(nil)
	_ Expr = (*Attribute)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*BinOp)(nil)
	_ Expr = (*Compare)(nil)
	_ Expr = (*Unsupported)(nil)
)

// Expr is the base for all expressions.
//
// The following expressions are supported:
//
//	Name:        reference to a parameter, local, global, function or class
//	Literal:     int, float, complex, string, bool or None literal
//	Attribute:   attribute read `value.attr`
//	Call:        call of a name (function, constructor) or of an Attribute (method call)
//	BinOp:       arithmetic `left op right`
//	Compare:     comparison `left op right`, always well typed
//	Unsupported: anything the external parser could not model
type Expr interface {
	Node
	// ExprName is the Name of the syntax-type of the expression.
	ExprName() string
	// Describe is what to call this expression in error messages
	Describe() string
	exprNode()
}

func (e *Name) Describe() string        { return "variable" }
func (e *Literal) Describe() string     { return e.Kind.String() + " literal" }
func (e *Attribute) Describe() string   { return "attribute access" }
func (e *Call) Describe() string        { return "call" }
func (e *BinOp) Describe() string       { return "binary operation" }
func (e *Compare) Describe() string     { return "comparison" }
func (e *Unsupported) Describe() string { return "unsupported expression" }

func (e *Name) ExprName() string        { return e.Id }
func (e *Literal) ExprName() string     { return e.Value }
func (e *Attribute) ExprName() string   { return "." + e.Attr }
func (e *Call) ExprName() string        { return "call" }
func (e *BinOp) ExprName() string       { return e.Op }
func (e *Compare) ExprName() string     { return e.Op }
func (e *Unsupported) ExprName() string { return e.What }

func (e *Name) exprNode()        {}
func (e *Literal) exprNode()     {}
func (e *Attribute) exprNode()   {}
func (e *Call) exprNode()        {}
func (e *BinOp) exprNode()       {}
func (e *Compare) exprNode()     {}
func (e *Unsupported) exprNode() {}

type Name struct {
	Range
	Id string
}

type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitComplex
	LitString
	LitBool
	LitNone
)

func (k LitKind) String() string {
	switch k {
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitComplex:
		return "complex"
	case LitString:
		return "str"
	case LitBool:
		return "bool"
	case LitNone:
		return "NoneType"
	}
	return "unknown"
}

// TypeName is the name of the built-in concrete type a literal of this kind has
func (k LitKind) TypeName() string { return k.String() }

type Literal struct {
	Range
	Kind LitKind
	// Value is the literal as written in source
	Value string
}

// Attribute is `Value.Attr`
type Attribute struct {
	Range
	Value Expr
	Attr  string
}

type Call struct {
	Range
	Func Expr
	Args []Expr
}

type BinOp struct {
	Range
	Op          string
	Left, Right Expr
}

type Compare struct {
	Range
	Op          string
	Left, Right Expr
}

// Unsupported stands for a construct the checker cannot model.
// Names inside Children are treated as fully dynamic.
type Unsupported struct {
	Range
	What     string
	Children []Expr
}
