package ast

// Node is the base interface for all AST nodes.
type Node interface {
	Positioner
}

// Program is a whole analyzed module, as handed over by the parser.
//
// Order of declarations does not matter: classes and functions are
// registered before any body is analyzed.
type Program struct {
	// Name is usually the file the program was parsed from
	Name    string
	Classes []*ClassDef
	Funcs   []*FuncDef
	// Body holds the top-level statements
	Body []Stmt
}

// ClassDef is a closed nominal type: only Fields, attributes assigned through
// `self.<attr> = ...` in its methods, and Methods are considered members.
type ClassDef struct {
	Range
	Name    string
	Fields  []Field
	Methods []*FuncDef
}

// Method returns the method named name, if declared
func (c *ClassDef) Method(name string) (*FuncDef, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Field is an annotated class attribute, like `x: int`
type Field struct {
	Range
	Name string
	// Annotation is empty when absent
	Annotation string
}

// FuncDef is a function or a method. For methods, the first parameter is the receiver.
type FuncDef struct {
	Range
	Name   string
	Params []Param
	// Returns is the return annotation, empty when absent
	Returns string
	Body    []Stmt
}

type Param struct {
	Range
	Name string
	// Annotation is empty when absent
	Annotation string
	HasDefault bool
}
