package ast

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode reads a Program from its YAML (or JSON) tree representation.
//
// Positions default to the location of the corresponding YAML node, and can be
// overridden with `at: "line:col"` (and `end: "line:col"`) keys.
// Expressions are maps with one discriminating key:
//
//	{name: x}  {int: 1}  {float: 1.0}  {complex: 1j}  {str: a}  {bool: true}  {none: true}
//	{attr: imag, of: <expr>}
//	{call: <expr>, args: [<expr>...]}
//	{binop: "+", left: <expr>, right: <expr>}
//	{compare: "==", left: <expr>, right: <expr>}
//	{unsupported: lambda, children: [<expr>...]}
//
// Bare scalars are shorthands: identifiers are names, numbers, booleans and null are literals.
// Statements are maps keyed by assign, attr_assign, return, expr, assert or if,
// and may carry an `expect` marker.
//
// Shapes that cannot be recognised decode to Unsupported instead of failing, so that
// the checker can degrade locally.
func Decode(name string, data []byte) (*Program, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	root := &doc
	if root.Kind == 0 {
		return &Program{Name: name}, nil
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return &Program{Name: name}, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode %s: expected a mapping at the top level, found %s", name, kindName(root))
	}
	d := &decoder{}
	prog := d.program(root)
	if prog.Name == "" {
		prog.Name = name
	}
	if len(d.errs) > 0 {
		return prog, fmt.Errorf("decode %s: %s", name, strings.Join(d.errs, "; "))
	}
	return prog, nil
}

type decoder struct {
	errs []string
}

func (d *decoder) fail(node *yaml.Node, format string, args ...any) {
	d.errs = append(d.errs, fmt.Sprintf("%d:%d: %s", node.Line, node.Column, fmt.Sprintf(format, args...)))
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown node"
}

// fields returns the values of a mapping node by key
func fields(node *yaml.Node) map[string]*yaml.Node {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	out := make(map[string]*yaml.Node, len(node.Content)/2)
	if node.Kind != yaml.MappingNode {
		return out
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		out[node.Content[i].Value] = node.Content[i+1]
	}
	return out
}

func (d *decoder) rangeOf(node *yaml.Node, fs map[string]*yaml.Node) Range {
	r := Range{PosStart: Pos{Line: node.Line, Col: node.Column}}
	if at, ok := fs["at"]; ok {
		pos, err := ParsePos(at.Value)
		if err != nil {
			d.fail(at, "%v", err)
		} else {
			r.PosStart = pos
		}
	}
	r.PosEnd = r.PosStart
	if end, ok := fs["end"]; ok {
		pos, err := ParsePos(end.Value)
		if err != nil {
			d.fail(end, "%v", err)
		} else {
			r.PosEnd = pos
		}
	}
	return r
}

func scalar(fs map[string]*yaml.Node, key string) string {
	if n, ok := fs[key]; ok && n.Kind == yaml.ScalarNode {
		return n.Value
	}
	return ""
}

func (d *decoder) seq(node *yaml.Node) []*yaml.Node {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Content
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
	}
	d.fail(node, "expected a sequence, found %s", kindName(node))
	return nil
}

func (d *decoder) program(node *yaml.Node) *Program {
	fs := fields(node)
	prog := &Program{Name: scalar(fs, "name")}
	for _, c := range d.seq(fs["classes"]) {
		prog.Classes = append(prog.Classes, d.class(c))
	}
	for _, f := range d.seq(fs["functions"]) {
		prog.Funcs = append(prog.Funcs, d.funcDef(f))
	}
	prog.Body = d.stmts(fs["body"])
	return prog
}

func (d *decoder) class(node *yaml.Node) *ClassDef {
	fs := fields(node)
	c := &ClassDef{Range: d.rangeOf(node, fs), Name: scalar(fs, "name")}
	if c.Name == "" {
		d.fail(node, "class without a name")
	}
	for _, f := range d.seq(fs["fields"]) {
		ffs := fields(f)
		c.Fields = append(c.Fields, Field{
			Range:      d.rangeOf(f, ffs),
			Name:       scalar(ffs, "name"),
			Annotation: scalar(ffs, "type"),
		})
	}
	for _, m := range d.seq(fs["methods"]) {
		c.Methods = append(c.Methods, d.funcDef(m))
	}
	return c
}

func (d *decoder) funcDef(node *yaml.Node) *FuncDef {
	fs := fields(node)
	f := &FuncDef{
		Range:   d.rangeOf(node, fs),
		Name:    scalar(fs, "name"),
		Returns: scalar(fs, "returns"),
	}
	if f.Name == "" {
		d.fail(node, "function without a name")
	}
	for _, p := range d.seq(fs["params"]) {
		f.Params = append(f.Params, d.param(p))
	}
	f.Body = d.stmts(fs["body"])
	return f
}

func (d *decoder) param(node *yaml.Node) Param {
	if node.Kind == yaml.ScalarNode {
		return Param{Range: d.rangeOf(node, nil), Name: node.Value}
	}
	fs := fields(node)
	p := Param{
		Range:      d.rangeOf(node, fs),
		Name:       scalar(fs, "name"),
		Annotation: scalar(fs, "type"),
	}
	if def, ok := fs["default"]; ok && def.Tag != "!!null" {
		p.HasDefault = true
	}
	if opt := scalar(fs, "optional"); opt == "true" {
		p.HasDefault = true
	}
	return p
}

func (d *decoder) stmts(node *yaml.Node) []Stmt {
	var out []Stmt
	for _, s := range d.seq(node) {
		out = append(out, d.stmt(s))
	}
	return out
}

func (d *decoder) stmt(node *yaml.Node) Stmt {
	fs := fields(node)
	meta := StmtMeta{Range: d.rangeOf(node, fs), Expect: scalar(fs, "expect")}
	if target, ok := fs["assign"]; ok {
		return &Assign{
			StmtMeta:   meta,
			Target:     target.Value,
			Annotation: scalar(fs, "type"),
			Value:      d.optExpr(fs["value"]),
		}
	}
	if attr, ok := fs["attr_assign"]; ok {
		return &AttrAssign{
			StmtMeta:   meta,
			Object:     d.optExpr(fs["object"]),
			Attr:       attr.Value,
			Annotation: scalar(fs, "type"),
			Value:      d.optExpr(fs["value"]),
		}
	}
	if ret, ok := fs["return"]; ok {
		return &Return{StmtMeta: meta, Value: d.optExpr(ret)}
	}
	if x, ok := fs["expr"]; ok {
		return &ExprStmt{StmtMeta: meta, X: d.expr(x)}
	}
	if test, ok := fs["assert"]; ok {
		return &Assert{StmtMeta: meta, Test: d.expr(test)}
	}
	if cond, ok := fs["if"]; ok {
		return &If{
			StmtMeta: meta,
			Cond:     d.expr(cond),
			Body:     d.stmts(fs["then"]),
			Else:     d.stmts(fs["else"]),
		}
	}
	return &ExprStmt{StmtMeta: meta, X: &Unsupported{Range: meta.Range, What: "unrecognised statement"}}
}

func (d *decoder) optExpr(node *yaml.Node) Expr {
	if node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil
	}
	return d.expr(node)
}

func (d *decoder) exprs(node *yaml.Node) []Expr {
	var out []Expr
	for _, e := range d.seq(node) {
		out = append(out, d.expr(e))
	}
	return out
}

func (d *decoder) expr(node *yaml.Node) Expr {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode {
		return d.scalarExpr(node)
	}
	fs := fields(node)
	r := d.rangeOf(node, fs)
	if n, ok := fs["name"]; ok {
		return &Name{Range: r, Id: n.Value}
	}
	for _, kind := range []LitKind{LitInt, LitFloat, LitComplex, LitBool} {
		if v, ok := fs[kind.String()]; ok {
			return &Literal{Range: r, Kind: kind, Value: v.Value}
		}
	}
	if v, ok := fs["str"]; ok {
		return &Literal{Range: r, Kind: LitString, Value: v.Value}
	}
	if _, ok := fs["none"]; ok {
		return &Literal{Range: r, Kind: LitNone, Value: "None"}
	}
	if attr, ok := fs["attr"]; ok {
		of, ok := fs["of"]
		if !ok {
			return &Unsupported{Range: r, What: "attribute without receiver"}
		}
		return &Attribute{Range: r, Value: d.expr(of), Attr: attr.Value}
	}
	if fn, ok := fs["call"]; ok {
		return &Call{Range: r, Func: d.expr(fn), Args: d.exprs(fs["args"])}
	}
	if op, ok := fs["binop"]; ok {
		return &BinOp{Range: r, Op: op.Value, Left: d.operand(fs, "left", r), Right: d.operand(fs, "right", r)}
	}
	if op, ok := fs["compare"]; ok {
		return &Compare{Range: r, Op: op.Value, Left: d.operand(fs, "left", r), Right: d.operand(fs, "right", r)}
	}
	if what, ok := fs["unsupported"]; ok {
		return &Unsupported{Range: r, What: what.Value, Children: d.exprs(fs["children"])}
	}
	return &Unsupported{Range: r, What: "unrecognised expression"}
}

func (d *decoder) operand(fs map[string]*yaml.Node, key string, r Range) Expr {
	if n, ok := fs[key]; ok {
		return d.expr(n)
	}
	return &Unsupported{Range: r, What: "missing " + key + " operand"}
}

func (d *decoder) scalarExpr(node *yaml.Node) Expr {
	r := Range{PosStart: Pos{Line: node.Line, Col: node.Column}}
	r.PosEnd = r.PosStart
	switch node.Tag {
	case "!!int":
		return &Literal{Range: r, Kind: LitInt, Value: node.Value}
	case "!!float":
		return &Literal{Range: r, Kind: LitFloat, Value: node.Value}
	case "!!bool":
		return &Literal{Range: r, Kind: LitBool, Value: node.Value}
	case "!!null":
		return &Literal{Range: r, Kind: LitNone, Value: "None"}
	}
	if isIdentifier(node.Value) {
		return &Name{Range: r, Id: node.Value}
	}
	return &Unsupported{Range: r, What: node.Value}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isLetter && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return true
}
