package frontend_test

import (
	"context"
	"testing"

	"github.com/cottand/duckcheck/frontend"
	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/infer"
	"github.com/cottand/duckcheck/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = `
functions:
  - name: imaginary
    params: [x]
    body:
      - return: {attr: imag, of: x}
body:
  - assign: c
    value: 1
  - expr: {call: imaginary, args: [c]}
  - expr: {call: imaginary, args: [{str: a}]}
`

func analyze(t *testing.T, ctx context.Context) (*frontend.Analysis, error) {
	t.Helper()
	prog, err := ast.Decode("test.yaml", []byte(program))
	require.NoError(t, err)
	b, err := config.Default()
	require.NoError(t, err)
	builtins, err := b.Registry()
	require.NoError(t, err)
	analysis, errs, err := frontend.Analyze(ctx, prog, builtins, frontend.Options{Jobs: 1})
	if err == nil {
		assert.Equal(t, 1, errs.Len())
	}
	return analysis, err
}

func TestAnalyze(t *testing.T) {
	analysis, err := analyze(t, context.Background())
	require.NoError(t, err)
	assert.Empty(t, analysis.Failures())
	assert.Equal(t, 1, analysis.Stats.Satisfied)
	assert.Equal(t, 1, analysis.Stats.Violated)

	x, ok := analysis.Source("imaginary", "x")
	require.True(t, ok)
	assert.Equal(t, []string{"imag"}, x.(infer.Inferred).Structural.Names())

	c, ok := analysis.Source("", "c")
	require.True(t, ok)
	assert.Equal(t, infer.Declared{Type: "int"}, c)

	_, ok = analysis.Source("imaginary", "nope")
	assert.False(t, ok)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := analyze(t, ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
