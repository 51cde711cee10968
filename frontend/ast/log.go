package ast

import (
	"log/slog"
)

// Slog wraps an Expr as a slog.LogValuer so that the expression is only
// rendered when the record is actually written
func Slog(expr Expr) slog.LogValuer {
	return exprLogValuer{expr}
}

type exprLogValuer struct{ Expr }

func (l exprLogValuer) LogValue() slog.Value {
	if l.Expr == nil {
		return slog.StringValue("nil")
	}
	return slog.GroupValue(
		slog.String("expr", ExprString(l.Expr)),
		slog.String("at", l.Pos().String()),
	)
}
