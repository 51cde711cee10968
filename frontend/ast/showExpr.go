package ast

import (
	"strings"
)

// ExprString renders expr in a Python-like surface syntax, for messages and logs
func ExprString(expr Expr) string {
	ctx := newShowContext()
	ctx.showExprWalker(expr)
	return ctx.String()
}

type showContext struct {
	*strings.Builder
}

func newShowContext() *showContext {
	return &showContext{
		Builder: &strings.Builder{},
	}
}

func (ctx *showContext) showExprWalker(expr Expr) {
	if expr == nil {
		ctx.WriteString("nil")
		return
	}
	switch expr := expr.(type) {
	case *Name:
		ctx.WriteString(expr.Id)
	case *Literal:
		if expr.Kind == LitString {
			ctx.WriteString(`"` + expr.Value + `"`)
		} else {
			ctx.WriteString(expr.Value)
		}
	case *Attribute:
		ctx.showExprWalker(expr.Value)
		ctx.WriteString("." + expr.Attr)
	case *Call:
		ctx.showExprWalker(expr.Func)
		ctx.WriteString("(")
		for i, arg := range expr.Args {
			if i > 0 {
				ctx.WriteString(", ")
			}
			ctx.showExprWalker(arg)
		}
		ctx.WriteString(")")
	case *BinOp:
		ctx.showExprWalker(expr.Left)
		ctx.WriteString(" " + expr.Op + " ")
		ctx.showExprWalker(expr.Right)
	case *Compare:
		ctx.showExprWalker(expr.Left)
		ctx.WriteString(" " + expr.Op + " ")
		ctx.showExprWalker(expr.Right)
	default:
		ctx.WriteString("<" + expr.ExprName() + ">")
	}
}
