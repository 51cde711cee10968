package ast

var (
	_ Stmt = (*Assign)(nil)
	_ Stmt = (*AttrAssign)(nil)
	_ Stmt = (*Return)(nil)
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*Assert)(nil)
	_ Stmt = (*If)(nil)
)

// Stmt is the interface for all statement nodes in the AST.
type Stmt interface {
	Node
	Describe() string
	// Expectation is the fixture marker attached to the statement, if any (for example "ERR")
	Expectation() string
	stmtNode()
}

// StmtMeta is embedded in every statement
type StmtMeta struct {
	Range
	Expect string
}

func (m StmtMeta) Expectation() string { return m.Expect }

// Assign is `Target = Value` or `Target: Annotation = Value`
type Assign struct {
	StmtMeta
	Target     string
	Annotation string
	Value      Expr
}

// AttrAssign is `Object.Attr = Value`, usually `self.x = x`
type AttrAssign struct {
	StmtMeta
	Object     Expr
	Attr       string
	Annotation string
	Value      Expr
}

type Return struct {
	StmtMeta
	// Value may be nil
	Value Expr
}

type ExprStmt struct {
	StmtMeta
	X Expr
}

type Assert struct {
	StmtMeta
	Test Expr
}

// If is analyzed flow-insensitively: both branches contribute requirements
type If struct {
	StmtMeta
	Cond Expr
	Body []Stmt
	Else []Stmt
}

func (s *Assign) stmtNode()     {}
func (s *AttrAssign) stmtNode() {}
func (s *Return) stmtNode()     {}
func (s *ExprStmt) stmtNode()   {}
func (s *Assert) stmtNode()     {}
func (s *If) stmtNode()         {}

func (s *Assign) Describe() string     { return "assignment" }
func (s *AttrAssign) Describe() string { return "attribute assignment" }
func (s *Return) Describe() string     { return "return" }
func (s *ExprStmt) Describe() string   { return "expression statement" }
func (s *Assert) Describe() string     { return "assertion" }
func (s *If) Describe() string         { return "if statement" }
