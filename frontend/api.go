package frontend

import (
	"context"
	"fmt"

	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/check"
	"github.com/cottand/duckcheck/frontend/duckerr"
	"github.com/cottand/duckcheck/frontend/infer"
	"github.com/cottand/duckcheck/frontend/types"
	"github.com/cottand/duckcheck/internal/log"
)

var logger = log.DefaultLogger.With("section", "frontend")

type Options struct {
	// Jobs limits how many functions are collected concurrently, 0 means no limit
	Jobs int
}

// Analysis is everything an analysis produced besides its diagnostics
type Analysis struct {
	Env         *infer.Env
	Collections []*infer.Collection
	Table       *infer.Table
	Stats       check.Stats
}

// Failures are problems found in the program which are not diagnostics, like duplicate classes
func (a *Analysis) Failures() []error { return a.Env.Failures }

// Analyze runs every phase over prog: declaration, collection (in parallel per function),
// solving, then checking. builtins is not modified.
//
// Problems in prog are reported as diagnostics; the error is only set when ctx is cancelled.
func Analyze(ctx context.Context, prog *ast.Program, builtins *types.Registry, opts Options) (*Analysis, *duckerr.Errors, error) {
	env := infer.Declare(prog, builtins)

	collections, err := infer.CollectAll(ctx, env, opts.Jobs)
	if err != nil {
		return nil, nil, fmt.Errorf("collect constraints: %w", err)
	}

	table := infer.Solve(env, collections)

	checker := check.New(env, table)
	errs := checker.Check(collections)

	logger.Info("analyzed program", "env", env, "passes", table.Passes(), "diagnostics", errs.Len())
	return &Analysis{Env: env, Collections: collections, Table: table, Stats: checker.Stats()}, errs, nil
}

// Source returns the solved TypeSource of the symbol bound to name in the function
// funcName, "" for the top level. It is meant for inspecting results in tests and tools.
func (a *Analysis) Source(funcName, name string) (infer.TypeSource, bool) {
	for _, fn := range a.Env.Funcs {
		if (funcName == "" && !fn.IsModule()) || (funcName != "" && fn.Name != funcName) {
			continue
		}
		if id, ok := fn.Lookup(name); ok {
			return a.Table.Source(id), true
		}
	}
	return nil, false
}
