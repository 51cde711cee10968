package infer

import (
	"context"
	"log/slog"

	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/types"
	"golang.org/x/sync/errgroup"
)

// Require says that whatever value Symbol holds must provide Capability
type Require struct {
	Symbol     SymbolID
	Capability types.Capability
	Site       ast.Range
}

// Flow says that the requirements of From also apply to To, because the value of
// To ends up in From: To is passed as the argument for parameter From, From is
// a local aliasing To, or To is stored in the annotated local or return From.
type Flow struct {
	From, To SymbolID
	Site     ast.Range
}

// CallSite is a call to an analyzed function, method or class constructor
type CallSite struct {
	Caller FuncID
	Callee Callee
	Call   *ast.Call
	// ArgTypes holds the concrete type of each argument, UnknownRef when it is inferred
	ArgTypes []types.TypeRef
}

// AccessSite is an attribute read or method call on a receiver of known concrete type
type AccessSite struct {
	Caller     FuncID
	Receiver   types.TypeRef
	Capability types.Capability
	Site       ast.Range
}

// AnnotationSite is a value of known type stored in an annotated variable or
// returned from a function with an annotated return type
type AnnotationSite struct {
	Caller   FuncID
	Declared types.TypeRef
	Value    types.TypeRef
	Target   string
	Site     ast.Range
}

// Collection holds everything collected from the body of a single function
type Collection struct {
	Func        FuncID
	Requires    []Require
	Flows       []Flow
	Calls       []CallSite
	Accesses    []AccessSite
	Annotations []AnnotationSite
	// Dynamic symbols were used inside constructs that cannot be modeled
	Dynamic []SymbolID
}

func (c *Collection) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("func", int(c.Func)),
		slog.Int("requires", len(c.Requires)),
		slog.Int("flows", len(c.Flows)),
		slog.Int("calls", len(c.Calls)),
		slog.Int("accesses", len(c.Accesses)),
	)
}

// CollectAll collects every function of env, using at most jobs goroutines
// (no limit if jobs <= 0). Collections are returned in FuncID order regardless of scheduling.
func CollectAll(ctx context.Context, env *Env, jobs int) ([]*Collection, error) {
	collections := make([]*Collection, len(env.Funcs))
	group, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		group.SetLimit(jobs)
	}
	for i := range env.Funcs {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			collections[i] = Collect(env, FuncID(i))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return collections, nil
}

// Collect walks the body of a single function. It only reads env.
func Collect(env *Env, id FuncID) *Collection {
	c := &collector{env: env, fn: env.Funcs[id], out: &Collection{Func: id}}
	for _, stmt := range c.fn.Body {
		c.stmt(stmt)
	}
	logger.Debug("collected function", "name", c.fn.Name, "collection", c.out)
	return c.out
}

type collector struct {
	env *Env
	fn  *Func
	out *Collection
}

// inferred returns the symbol name refers to, if its type has to be inferred
func (c *collector) inferred(expr ast.Expr) (SymbolID, bool) {
	name, ok := expr.(*ast.Name)
	if !ok {
		return NoSymbol, false
	}
	ref := c.env.Resolve(c.fn, name.Id)
	if ref.Kind != RefSymbol || c.env.Symbols[ref.Symbol].Type().Known() {
		return NoSymbol, false
	}
	return ref.Symbol, true
}

func (c *collector) stmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.Assign:
		target, _ := c.fn.Lookup(stmt.Target)
		declared := c.env.Symbols[target].Declared
		c.expr(stmt.Value, declared)
		if declared.Known() {
			c.annotation(declared, stmt.Value, stmt.Target, stmt.Range)
			c.declaredFlow(target, stmt.Value, stmt.Range)
			return
		}
		// an alias needs whatever the original is required to provide
		if aliased, ok := c.inferred(stmt.Value); ok && aliased != target && !c.env.Symbols[target].Type().Known() {
			c.out.Flows = append(c.out.Flows, Flow{From: target, To: aliased, Site: stmt.Range})
		}

	case *ast.AttrAssign:
		c.expr(stmt.Value, types.TypeRef(stmt.Annotation))
		if name, ok := stmt.Object.(*ast.Name); ok && c.fn.Self.Valid() && name.Id == c.env.Symbols[c.fn.Self].Name {
			// assigning on the receiver declares the attribute
			return
		}
		c.access(stmt.Object, types.Member(stmt.Attr, types.UnknownRef), stmt.Range)

	case *ast.Return:
		if stmt.Value == nil {
			return
		}
		declared := c.env.Symbols[c.fn.Return].Declared
		c.expr(stmt.Value, declared)
		if declared.Known() {
			c.annotation(declared, stmt.Value, "return", stmt.Range)
			c.declaredFlow(c.fn.Return, stmt.Value, stmt.Range)
		}

	case *ast.ExprStmt:
		c.expr(stmt.X, types.UnknownRef)

	case *ast.Assert:
		c.expr(stmt.Test, types.UnknownRef)

	case *ast.If:
		c.expr(stmt.Cond, types.UnknownRef)
		for _, s := range stmt.Body {
			c.stmt(s)
		}
		for _, s := range stmt.Else {
			c.stmt(s)
		}
	}
}

func (c *collector) annotation(declared types.TypeRef, value ast.Expr, target string, site ast.Range) {
	valueType := c.env.TypeOf(c.fn, value)
	if !valueType.Known() {
		return
	}
	c.out.Annotations = append(c.out.Annotations, AnnotationSite{
		Caller:   c.fn.ID,
		Declared: declared,
		Value:    valueType,
		Target:   target,
		Site:     ast.RangeOf(value),
	})
}

// declaredFlow makes a symbol stored in the declared symbol target require
// compatibility with its declared type
func (c *collector) declaredFlow(target SymbolID, value ast.Expr, site ast.Range) {
	if sym, ok := c.inferred(value); ok {
		c.out.Flows = append(c.out.Flows, Flow{From: target, To: sym, Site: site})
	}
}

// access requires capability from receiver: on its symbol when the type is inferred,
// or as an AccessSite when it is known
func (c *collector) access(receiver ast.Expr, capability types.Capability, site ast.Range) {
	c.expr(receiver, types.UnknownRef)
	if sym, ok := c.inferred(receiver); ok {
		c.out.Requires = append(c.out.Requires, Require{Symbol: sym, Capability: capability, Site: site})
		return
	}
	if t := c.env.TypeOf(c.fn, receiver); t.Known() {
		c.out.Accesses = append(c.out.Accesses, AccessSite{Caller: c.fn.ID, Receiver: t, Capability: capability, Site: site})
	}
}

// expr collects from expr. expected is the type the context requires expr to have,
// UnknownRef if none; it only shapes requirements on expr itself.
func (c *collector) expr(expr ast.Expr, expected types.TypeRef) {
	switch expr := expr.(type) {
	case *ast.Attribute:
		c.access(expr.Value, types.Member(expr.Attr, expected), expr.Range)

	case *ast.Call:
		c.call(expr, expected)

	case *ast.BinOp:
		c.expr(expr.Left, types.UnknownRef)
		c.expr(expr.Right, types.UnknownRef)

	case *ast.Compare:
		c.expr(expr.Left, types.UnknownRef)
		c.expr(expr.Right, types.UnknownRef)

	case *ast.Unsupported:
		logger.Debug("unsupported construct", "func", c.fn.Name, "what", expr.What, "expr", ast.Slog(expr))
		for _, child := range expr.Children {
			if sym, ok := c.inferred(child); ok {
				c.out.Dynamic = append(c.out.Dynamic, sym)
			}
			c.expr(child, types.UnknownRef)
		}
	}
}

func (c *collector) call(call *ast.Call, expected types.TypeRef) {
	argTypes := make([]types.TypeRef, len(call.Args))
	for i, arg := range call.Args {
		c.expr(arg, types.UnknownRef)
		argTypes[i] = c.env.TypeOf(c.fn, arg)
	}

	callee := c.env.ResolveCall(c.fn, call)
	switch callee.Kind {
	case CallFunction, CallMethod, CallConstructor:
		if callee.Kind == CallMethod {
			c.expr(call.Func.(*ast.Attribute).Value, types.UnknownRef)
		}
		c.out.Calls = append(c.out.Calls, CallSite{Caller: c.fn.ID, Callee: callee, Call: call, ArgTypes: argTypes})
		if !callee.Func.Valid() {
			return
		}
		params := c.env.Funcs[callee.Func].Params
		for i, arg := range call.Args {
			if i >= len(params) {
				break
			}
			if sym, ok := c.inferred(arg); ok {
				c.out.Flows = append(c.out.Flows, Flow{From: params[i], To: sym, Site: ast.RangeOf(arg)})
			}
		}

	case CallTypedMethod, CallUntypedMethod:
		attr := call.Func.(*ast.Attribute)
		c.access(attr.Value, types.Method(callee.Name, argTypes, expected), call.Range)

	default:
		logger.Debug("opaque call", "func", c.fn.Name, "call", ast.Slog(call))
		c.expr(call.Func, types.UnknownRef)
	}
}
