package main

import (
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"
	"testing"

	"github.com/cottand/duckcheck/duckcheck"
	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/duckerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeds the test folder
//
//go:embed test
var testSet embed.FS

// Statements of a fixture may carry an `expect` marker:
//
//	ERR      at least one diagnostic must start inside the statement
//	OK       no diagnostic may start inside the statement
//	runtime  fails when run, but no diagnostic may start inside the statement
//
// Unmarked statements are treated like OK.
func TestRootEndToEnd(t *testing.T) {
	files, err := testSet.ReadDir("test")
	require.NoError(t, err)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}
		testFile(t, f)
	}
}

func testFile(t *testing.T, f fs.DirEntry) bool {
	return t.Run(f.Name(), func(t *testing.T) {
		pkg, errs := checkFixture(t, f.Name())

		stmts := statementsOf(pkg.Program())
		found := make(map[ast.Stmt][]duckerr.DuckError)
		for _, e := range errs.Errors() {
			stmt := enclosing(stmts, e.Pos())
			require.NotNil(t, stmt, "diagnostic outside any statement: %v", e)
			found[stmt] = append(found[stmt], e)
		}

		for _, stmt := range stmts {
			switch stmt.Expectation() {
			case "ERR":
				assert.NotEmpty(t, found[stmt], "expected a diagnostic for the %s at %v", stmt.Describe(), stmt.Pos())
			default:
				assert.Empty(t, found[stmt], "unexpected diagnostics for the %s at %v", stmt.Describe(), stmt.Pos())
			}
		}
	})
}

func TestProjectionDiagnostics(t *testing.T) {
	_, errs := checkFixture(t, "projection.yaml")

	var codes []duckerr.ErrCode
	for _, e := range errs.Errors() {
		codes = append(codes, e.Code())
	}
	assert.Equal(t, []duckerr.ErrCode{
		duckerr.AbsentMember,  // imaginary("a")
		duckerr.AbsentMethod,  // call_method(1, 1)
		duckerr.ArityMismatch, // call_method(c)
		duckerr.AbsentMember,  // x_and_y(b)
	}, codes)

	assert.Equal(t, "str", errs.Errors()[0].Observed())
	assert.Contains(t, errs.Errors()[0].Error(), "imag")
	assert.Equal(t, "B", errs.Errors()[3].Observed())
	assert.Contains(t, errs.Errors()[3].Error(), "'y'")
}

func TestProjectionTypes(t *testing.T) {
	pkg, _ := checkFixture(t, "projection.yaml")

	shown := pkg.DisplayTypes()
	assert.Contains(t, shown, "imaginary(x: ")
	assert.Contains(t, shown, "attribute 'imag'")

	source, ok := pkg.Analysis.Source("imaginary2", "x")
	require.True(t, ok)
	assert.Contains(t, source.String(), "imag")

	source, ok = pkg.Analysis.Source("", "c")
	require.True(t, ok)
	assert.Contains(t, source.String(), "C")
}

func checkFixture(t *testing.T, name string) (*duckcheck.Package, *duckerr.Errors) {
	t.Helper()
	content, err := testSet.ReadFile(path.Join("test", name))
	require.NoError(t, err)
	pkg, errs, err := duckcheck.NewPackageFromBytes(content, name)
	require.NoError(t, err)
	assert.Empty(t, pkg.Failures())
	return pkg, errs
}

// statementsOf returns every statement of prog, nested ones included, sorted by position
func statementsOf(prog *ast.Program) []ast.Stmt {
	var stmts []ast.Stmt
	add := func(s ast.Stmt) { stmts = append(stmts, s) }
	for _, c := range prog.Classes {
		for _, m := range c.Methods {
			ast.WalkStmts(m.Body, add)
		}
	}
	for _, f := range prog.Funcs {
		ast.WalkStmts(f.Body, add)
	}
	ast.WalkStmts(prog.Body, add)
	slices.SortStableFunc(stmts, func(a, b ast.Stmt) int {
		return ast.CompareRanges(ast.RangeOf(a), ast.RangeOf(b))
	})
	return stmts
}

// enclosing is the last statement starting at or before pos
func enclosing(stmts []ast.Stmt, pos ast.Pos) ast.Stmt {
	var last ast.Stmt
	for _, s := range stmts {
		if pos.Before(s.Pos()) {
			break
		}
		last = s
	}
	return last
}
