package ast_test

import (
	"testing"

	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
name: sample.py
classes:
  - name: Point
    fields:
      - {name: x, type: int}
    methods:
      - name: move
        params: [self, {name: dx, type: int, default: 0}]
        returns: Point
        body:
          - return: self
functions:
  - name: f
    params: [a]
    body:
      - assign: z
        type: int
        value: {attr: y, of: a}
      - if: {compare: ">", left: z, right: 0}
        then:
          - return: {binop: "+", left: z, right: 1.5}
        else:
          - return: {call: {attr: upper, of: a}, args: [{str: s}]}
body:
  - assign: p
    value: {call: Point}
  - expr: {call: f, args: [p, "not an identifier", null, true, {unsupported: lambda, children: [p]}]}
    expect: ERR
  - at: "40:3"
    assert: {name: p}
`

func TestDecodeProgram(t *testing.T) {
	prog, err := ast.Decode("ignored.yaml", []byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "sample.py", prog.Name)

	require.Len(t, prog.Classes, 1)
	point := prog.Classes[0]
	assert.Equal(t, "Point", point.Name)
	assert.Equal(t, []string{"x"}, []string{point.Fields[0].Name})
	move, ok := point.Method("move")
	require.True(t, ok)
	assert.Equal(t, "Point", move.Returns)
	require.Len(t, move.Params, 2)
	assert.Equal(t, "int", move.Params[1].Annotation)
	assert.True(t, move.Params[1].HasDefault)
	assert.False(t, move.Params[0].HasDefault)

	require.Len(t, prog.Funcs, 1)
	f := prog.Funcs[0]
	assign := f.Body[0].(*ast.Assign)
	assert.Equal(t, "z", assign.Target)
	assert.Equal(t, "int", assign.Annotation)
	attr := assign.Value.(*ast.Attribute)
	assert.Equal(t, "y", attr.Attr)
	assert.Equal(t, "a", attr.Value.(*ast.Name).Id)

	ifStmt := f.Body[1].(*ast.If)
	require.Len(t, ifStmt.Body, 1)
	require.Len(t, ifStmt.Else, 1)
	sum := ifStmt.Body[0].(*ast.Return).Value.(*ast.BinOp)
	assert.Equal(t, ast.LitFloat, sum.Right.(*ast.Literal).Kind)
	call := ifStmt.Else[0].(*ast.Return).Value.(*ast.Call)
	assert.Equal(t, ast.LitString, call.Args[0].(*ast.Literal).Kind)

	assert.Equal(t, []string{"z"}, ast.AssignedNames(f.Body))
}

func TestDecodeShorthands(t *testing.T) {
	prog, err := ast.Decode("sample.yaml", []byte(sample))
	require.NoError(t, err)

	stmt := prog.Body[1].(*ast.ExprStmt)
	assert.Equal(t, "ERR", stmt.Expectation())
	args := stmt.X.(*ast.Call).Args
	require.Len(t, args, 5)
	assert.Equal(t, "p", args[0].(*ast.Name).Id)
	assert.IsType(t, &ast.Unsupported{}, args[1], "a quoted string which is not an identifier")
	assert.Equal(t, ast.LitNone, args[2].(*ast.Literal).Kind)
	assert.Equal(t, ast.LitBool, args[3].(*ast.Literal).Kind)
	lambda := args[4].(*ast.Unsupported)
	assert.Equal(t, "lambda", lambda.What)
	assert.Len(t, lambda.Children, 1)
}

func TestDecodePositions(t *testing.T) {
	prog, err := ast.Decode("sample.yaml", []byte(sample))
	require.NoError(t, err)

	// line numbers count the leading newline of sample
	assign := prog.Body[0].(*ast.Assign)
	assert.Equal(t, ast.Pos{Line: 26, Col: 5}, assign.Pos())
	call := assign.Value.(*ast.Call)
	assert.Equal(t, 27, call.Pos().Line)

	assert.Equal(t, ast.Pos{Line: 40, Col: 3}, prog.Body[2].Pos(), "overridden with at")
}

func TestDecodeUnrecognised(t *testing.T) {
	prog, err := ast.Decode("odd.yaml", []byte(`
body:
  - while: true
  - expr: {lambda: x}
`))
	require.NoError(t, err)
	require.Len(t, prog.Body, 2)
	for _, stmt := range prog.Body {
		assert.IsType(t, &ast.Unsupported{}, stmt.(*ast.ExprStmt).X)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"not a mapping":     `[1, 2]`,
		"class has no name": "classes:\n  - fields: []\n",
		"bad position":      "body:\n  - at: nowhere\n    expr: x\n",
		"body is a scalar":  "body: 3\n",
		"invalid yaml":      "body: [",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ast.Decode("broken.yaml", []byte(src))
			assert.Error(t, err)
		})
	}
}

func TestEmptyDocument(t *testing.T) {
	prog, err := ast.Decode("empty.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, "empty.yaml", prog.Name)
	assert.Empty(t, prog.Body)
}

func TestExprString(t *testing.T) {
	prog, err := ast.Decode("sample.yaml", []byte(sample))
	require.NoError(t, err)
	ret := prog.Funcs[0].Body[1].(*ast.If).Else[0].(*ast.Return)
	assert.Equal(t, `a.upper("s")`, ast.ExprString(ret.Value))
}

func TestSlogRendersLazily(t *testing.T) {
	prog, err := ast.Decode("sample.yaml", []byte(sample))
	require.NoError(t, err)
	value := ast.Slog(prog.Body[0].(*ast.Assign).Value).LogValue()
	attrs := value.Group()
	require.Len(t, attrs, 2)
	assert.Equal(t, "Point()", attrs[0].Value.String())
	assert.Equal(t, "27:12", attrs[1].Value.String())
}
