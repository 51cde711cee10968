package duckerr_test

import (
	"bytes"
	"testing"

	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/duckerr"
	"github.com/cottand/duckcheck/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(line, col int) ast.Range {
	return ast.Range{PosStart: ast.Pos{Line: line, Col: col}, PosEnd: ast.Pos{Line: line, Col: col + 1}}
}

func absent(line, col int, name string) duckerr.DuckError {
	r := types.Violation(types.AbsentMember, types.Member(name, types.UnknownRef), "str", "'str' object has no attribute '%s'", name)
	err, ok := duckerr.FromResult(at(line, col), "", r)
	if !ok {
		panic("expected a diagnostic")
	}
	return err
}

func TestFromResult(t *testing.T) {
	r := types.Violation(types.ArityMismatch, types.Method("f", nil, types.UnknownRef), types.UnknownRef, "'f' takes 1 argument but is called with 0")
	err, ok := duckerr.FromResult(at(3, 1), "call", r)
	require.True(t, ok)
	assert.Equal(t, duckerr.ArityMismatch, err.Code())
	assert.Equal(t, "unresolved", err.Observed())
	assert.Equal(t, "method 'f()'", err.Required())
	assert.Equal(t, "call: 'f' takes 1 argument but is called with 0", err.Error())
	assert.Equal(t, "(E004) arity-mismatch: call: 'f' takes 1 argument but is called with 0", duckerr.FormatWithCode(err))
	assert.Equal(t, "prog.py:3:1: (E004) arity-mismatch: call: 'f' takes 1 argument but is called with 0", duckerr.FormatWithLocation("prog.py", err))

	_, ok = duckerr.FromResult(at(3, 1), "", types.Result{Outcome: types.Unknown})
	assert.False(t, ok)
}

func TestSortAndDedup(t *testing.T) {
	errs := (&duckerr.Errors{}).With(
		absent(5, 1, "imag"),
		absent(2, 7, "real"),
		absent(5, 1, "imag"),
		absent(2, 3, "real"),
		absent(5, 1, "conjugate"),
	)
	errs.Sort()
	errs.Dedup()

	var rendered []string
	for _, e := range errs.Errors() {
		rendered = append(rendered, e.Pos().String()+" "+e.Error())
	}
	assert.Equal(t, []string{
		"2:3 'str' object has no attribute 'real'",
		"2:7 'str' object has no attribute 'real'",
		"5:1 'str' object has no attribute 'conjugate'",
		"5:1 'str' object has no attribute 'imag'",
	}, rendered)
}

func TestNilErrors(t *testing.T) {
	var errs *duckerr.Errors
	assert.False(t, errs.HasError())
	assert.Zero(t, errs.Len())
	assert.Empty(t, errs.Errors())

	merged := errs.Merge((&duckerr.Errors{}).With(absent(1, 1, "x")))
	assert.Equal(t, 1, merged.Len())
	assert.Equal(t, 2, merged.Merge(errs.With(absent(1, 2, "y"))).Len())
}

func TestRestore(t *testing.T) {
	original := absent(4, 2, "imag")
	restored, err := duckerr.Restore(original.Code(), duckerr.Violation{
		Positioner:   ast.RangeOf(original),
		ObservedType: original.Observed(),
		Requirement:  original.Required(),
		Message:      original.Error(),
	})
	require.NoError(t, err)
	assert.Equal(t, duckerr.FormatWithCode(original), duckerr.FormatWithCode(restored))
	assert.Equal(t, original.Pos(), restored.Pos())

	_, err = duckerr.Restore(duckerr.None, duckerr.Violation{})
	assert.Error(t, err)
}

func TestPrinter(t *testing.T) {
	buf := &bytes.Buffer{}
	p := duckerr.NewPrinter(buf, duckerr.ColorNever)
	require.NoError(t, p.Print("prog.py", (&duckerr.Errors{}).With(absent(2, 5, "imag"))))
	assert.Equal(t,
		"prog.py:2:5: (E001) absent-member: 'str' object has no attribute 'imag' [observed: str, required: attribute 'imag']\n",
		buf.String())
}

func TestParseColorMode(t *testing.T) {
	mode, err := duckerr.ParseColorMode("always")
	require.NoError(t, err)
	assert.Equal(t, duckerr.ColorAlways, mode)
	_, err = duckerr.ParseColorMode("sometimes")
	assert.ErrorContains(t, err, "sometimes")
}
