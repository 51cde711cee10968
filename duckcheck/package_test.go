package duckcheck

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/cottand/duckcheck/frontend/duckerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imaginaryProgram = `
name: imaginary.py
functions:
  - name: imaginary
    params: [x]
    body:
      - return: {attr: imag, of: x}
body:
  - expr: {call: imaginary, args: [1]}
  - expr: {call: imaginary, args: [{str: a}]}
`

func formatted(errs *duckerr.Errors) []string {
	var out []string
	for _, e := range errs.Errors() {
		out = append(out, duckerr.FormatWithLocation("imaginary.py", e))
	}
	return out
}

func TestNewPackageFromBytes(t *testing.T) {
	pkg, errs, err := NewPackageFromBytes([]byte(imaginaryProgram), "imaginary.yaml")
	require.NoError(t, err)
	assert.Equal(t, "imaginary.yaml", pkg.Name())
	assert.False(t, pkg.Cached())
	assert.NotNil(t, pkg.Program())
	assert.Equal(t, []string{
		"imaginary.py:10:36: (E001) absent-member: argument 'x' of 'imaginary': 'str' object has no attribute 'imag'",
	}, formatted(errs))
	assert.Equal(t, "imaginary(x: inferred {attribute 'imag'})\n", pkg.DisplayTypes())
}

func TestLoadPackageFindsProgram(t *testing.T) {
	dir := fstest.MapFS{
		"src/prog.yaml": {Data: []byte(imaginaryProgram)},
		"src/notes.txt": {Data: []byte("not a program")},
	}
	pkg, err := LoadPackage(context.Background(), dir, PkgLoadSettings{Dir: "src"})
	require.NoError(t, err)
	assert.Equal(t, "prog.yaml", pkg.Name())
	assert.Equal(t, 1, pkg.Errors().Len())

	_, err = LoadPackage(context.Background(), fstest.MapFS{"src/notes.txt": {}}, PkgLoadSettings{Dir: "src"})
	assert.ErrorContains(t, err, "no program found in src")
}

func TestLoadPackageDecodeError(t *testing.T) {
	dir := fstest.MapFS{"prog.yaml": {Data: []byte("body: 3")}}
	_, err := LoadPackage(context.Background(), dir, PkgLoadSettings{})
	assert.ErrorContains(t, err, "decode program prog.yaml")
}

func TestLoadPackageWithBuiltinsFile(t *testing.T) {
	builtins := filepath.Join(t.TempDir(), "builtins.toml")
	require.NoError(t, os.WriteFile(builtins, []byte(`
[types.str.members]
imag = "int"
`), 0o644))

	dir := fstest.MapFS{"prog.yaml": {Data: []byte(imaginaryProgram)}}
	pkg, err := LoadPackage(context.Background(), dir, PkgLoadSettings{BuiltinsFile: builtins})
	require.NoError(t, err)
	assert.Zero(t, pkg.Errors().Len(), "str has imag in the extended table")
}

func TestCachedAnalysis(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)
	dir := fstest.MapFS{"prog.yaml": {Data: []byte(imaginaryProgram)}}
	settings := PkgLoadSettings{Cache: cache}

	first, err := LoadPackage(context.Background(), dir, settings)
	require.NoError(t, err)
	assert.False(t, first.Cached())

	second, err := LoadPackage(context.Background(), dir, settings)
	require.NoError(t, err)
	assert.True(t, second.Cached())
	assert.Nil(t, second.Program())
	assert.Empty(t, second.DisplayTypes())
	assert.Equal(t, formatted(first.Errors()), formatted(second.Errors()))
	assert.Equal(t, first.Errors().Errors()[0].Code(), second.Errors().Errors()[0].Code())

	require.NoError(t, cache.DropAll())
	third, err := LoadPackage(context.Background(), dir, settings)
	require.NoError(t, err)
	assert.False(t, third.Cached())
}

func TestCacheKeyIncludesAnalyzerVersion(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)
	dir := fstest.MapFS{"prog.yaml": {Data: []byte(imaginaryProgram)}}
	settings := PkgLoadSettings{Cache: cache}

	_, err = LoadPackage(context.Background(), dir, settings)
	require.NoError(t, err)

	previous := analyzerVersion
	defer func() { analyzerVersion = previous }()
	analyzerVersion = previous + "-next"

	upgraded, err := LoadPackage(context.Background(), dir, settings)
	require.NoError(t, err)
	assert.False(t, upgraded.Cached(), "results of another build are not reused")
	assert.Equal(t, 1, upgraded.Errors().Len())
}

func TestDiskCache(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)
	key := DigestOf([]byte("program"), []byte("builtins"))

	_, found, err := cache.Get(key)
	require.NoError(t, err)
	assert.False(t, found)

	stored := &CachedResult{
		Name:        "prog.yaml",
		Diagnostics: []CachedDiagnostic{{Code: int(duckerr.TypeMismatch), StartLine: 1, StartCol: 2, EndLine: 1, EndCol: 3, Message: "m"}},
		Failures:    []string{"class 'C' is declared more than once"},
	}
	require.NoError(t, cache.Put(key, stored))

	got, found, err := cache.Get(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, stored, got)

	errs, failures, err := got.restore()
	require.NoError(t, err)
	assert.Equal(t, duckerr.TypeMismatch, errs.Errors()[0].Code())
	assert.EqualError(t, failures[0], "class 'C' is declared more than once")
}

func TestCacheIgnoresOtherSchemas(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)
	key := DigestOf([]byte("program"))
	require.NoError(t, cache.Put(key, &CachedResult{Name: "prog.yaml"}))
	_, found, err := cache.Get(key)
	require.NoError(t, err)
	assert.True(t, found)

	// an entry written by another version
	old := &CachedResult{Name: "prog.yaml"}
	old.Schema = diskCacheSchemaVersion + 1
	f, err := os.Create(cache.pathFor(key))
	require.NoError(t, err)
	require.NoError(t, encodeResult(f, old))
	require.NoError(t, f.Close())

	_, found, err = cache.Get(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDigestSeparatesInputs(t *testing.T) {
	assert.NotEqual(t, DigestOf([]byte("ab"), []byte("c")), DigestOf([]byte("a"), []byte("bc")))
	assert.Equal(t, DigestOf([]byte("a")), DigestOf([]byte("a")))
}

func TestNilCacheIsDisabled(t *testing.T) {
	var cache *DiskCache
	require.NoError(t, cache.Put(DigestOf(), &CachedResult{}))
	_, found, err := cache.Get(DigestOf())
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.DropAll())
}
