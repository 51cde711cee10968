package ast

// Inspect traverses expr depth-first, calling f for expr and then,
// if f returns true, for each of its children.
func Inspect(expr Expr, f func(Expr) bool) {
	if expr == nil || !f(expr) {
		return
	}
	switch expr := expr.(type) {
	case *Attribute:
		Inspect(expr.Value, f)
	case *Call:
		Inspect(expr.Func, f)
		for _, arg := range expr.Args {
			Inspect(arg, f)
		}
	case *BinOp:
		Inspect(expr.Left, f)
		Inspect(expr.Right, f)
	case *Compare:
		Inspect(expr.Left, f)
		Inspect(expr.Right, f)
	case *Unsupported:
		for _, child := range expr.Children {
			Inspect(child, f)
		}
	}
}

// WalkStmts calls f for every statement in stmts, including the ones nested in branches
func WalkStmts(stmts []Stmt, f func(Stmt)) {
	for _, stmt := range stmts {
		f(stmt)
		if ifStmt, ok := stmt.(*If); ok {
			WalkStmts(ifStmt.Body, f)
			WalkStmts(ifStmt.Else, f)
		}
	}
}

// StmtExprs returns the top-level expressions of a single statement, without descending into branches
func StmtExprs(stmt Stmt) []Expr {
	var exprs []Expr
	add := func(e Expr) {
		if e != nil {
			exprs = append(exprs, e)
		}
	}
	switch stmt := stmt.(type) {
	case *Assign:
		add(stmt.Value)
	case *AttrAssign:
		add(stmt.Object)
		add(stmt.Value)
	case *Return:
		add(stmt.Value)
	case *ExprStmt:
		add(stmt.X)
	case *Assert:
		add(stmt.Test)
	case *If:
		add(stmt.Cond)
	}
	return exprs
}

// AssignedNames returns the names bound by plain assignments in stmts, in order of first appearance
func AssignedNames(stmts []Stmt) []string {
	var names []string
	seen := make(map[string]bool)
	WalkStmts(stmts, func(stmt Stmt) {
		if assign, ok := stmt.(*Assign); ok && !seen[assign.Target] {
			seen[assign.Target] = true
			names = append(names, assign.Target)
		}
	})
	return names
}
