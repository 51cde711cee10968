// Package check evaluates call sites, access sites and annotated assignments
// against the solved types of a program.
package check

import (
	"fmt"

	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/duckerr"
	"github.com/cottand/duckcheck/frontend/infer"
	"github.com/cottand/duckcheck/frontend/types"
	"github.com/cottand/duckcheck/internal/log"
)

var logger = log.DefaultLogger.With("section", "check")

// Stats counts the outcome of every check performed
type Stats struct {
	Satisfied int
	Violated  int
	Unknown   int
}

func (s *Stats) add(r types.Result) {
	switch r.Outcome {
	case types.Satisfied:
		s.Satisfied++
	case types.Violated:
		s.Violated++
	default:
		s.Unknown++
	}
}

// Checker walks the sites recorded by the collector, in a single pass.
// Each site goes from Pending to Satisfied, Violated or Unknown.
type Checker struct {
	env   *infer.Env
	table *infer.Table
	errs  *duckerr.Errors
	stats Stats
}

func New(env *infer.Env, table *infer.Table) *Checker {
	return &Checker{env: env, table: table, errs: &duckerr.Errors{}}
}

// Check evaluates every site of collections and returns the sorted, deduplicated diagnostics
func (c *Checker) Check(collections []*infer.Collection) *duckerr.Errors {
	for _, col := range collections {
		for _, call := range col.Calls {
			c.checkCall(call)
		}
		for _, access := range col.Accesses {
			c.report(access.Site, "", c.env.Registry.Conforms(access.Receiver, access.Capability))
		}
		for _, a := range col.Annotations {
			c.checkAnnotation(a)
		}
	}
	c.errs.Sort()
	c.errs.Dedup()
	logger.Debug("checked sites", "satisfied", c.stats.Satisfied, "violated", c.stats.Violated, "unknown", c.stats.Unknown)
	return c.errs
}

func (c *Checker) Stats() Stats { return c.stats }

func (c *Checker) report(at ast.Positioner, subject string, r types.Result) {
	c.stats.add(r)
	if err, ok := duckerr.FromResult(at, subject, r); ok {
		c.errs.With(err)
	}
}

func (c *Checker) checkAnnotation(a infer.AnnotationSite) {
	capability := types.Instance(a.Declared)
	switch c.env.Registry.Compatible(a.Value, a.Declared) {
	case types.Violated:
		c.report(a.Site, fmt.Sprintf("'%s'", a.Target), types.Violation(
			types.TypeMismatch, capability, a.Value,
			"declared as '%s', assigned a value of type '%s'", a.Declared, a.Value,
		))
	case types.Satisfied:
		c.stats.Satisfied++
	default:
		c.stats.Unknown++
	}
}

// checkCall checks the arity of the call, then every argument against the parameter it is bound to
func (c *Checker) checkCall(site infer.CallSite) {
	callee := site.Callee
	name := callee.Name
	if callee.Kind == infer.CallMethod {
		name = string(callee.Receiver) + "." + callee.Name
	}

	// a class without __init__ takes no arguments, which is what the empty signature accepts
	var params []infer.SymbolID
	sig := types.Signature{}
	if callee.Func.Valid() {
		fn := c.env.Func(callee.Func)
		params = fn.Params
		sig = fn.Signature(c.env)
	}

	if !sig.Accepts(len(site.Call.Args)) {
		required := types.Method(name, site.ArgTypes, types.UnknownRef)
		observed := callee.Receiver
		if callee.Kind == infer.CallFunction {
			observed = "function"
		}
		c.report(site.Call, "", types.Violation(
			types.ArityMismatch, required, observed,
			"'%s' takes %s but is called with %d", name, sig.ArityString(), len(site.Call.Args),
		))
	}

	for i, arg := range site.Call.Args {
		if i >= len(params) {
			break
		}
		param := params[i]
		subject := fmt.Sprintf("argument '%s' of '%s'", c.env.Symbol(param).Name, name)
		argType := site.ArgTypes[i]
		switch source := c.table.Source(param).(type) {
		case infer.Declared:
			c.report(arg, subject, c.checkDeclared(argType, source.Type))
		case infer.Inferred:
			if source.Dynamic {
				c.stats.Unknown++
				continue
			}
			for _, r := range c.env.Registry.ConformsAll(argType, source.Structural) {
				c.report(arg, subject, r)
			}
		}
	}
}

func (c *Checker) checkDeclared(provided, declared types.TypeRef) types.Result {
	return c.env.Registry.Conforms(provided, types.Instance(declared))
}
